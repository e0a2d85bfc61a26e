package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/viper"

	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/router"
	"github.com/prebid/prebid-response-engine/server"
	"github.com/prebid/prebid-response-engine/util/jsonutil"
)

// Version and Rev are set at build time:
//
//	go build -ldflags "-X main.Version=`git describe --tags` -X main.Rev=`git rev-parse --short HEAD`"
var (
	Version string
	Rev     string
)

const configFileName = "pbs"

func main() {
	replayFile := flag.String("replay", "", "build the response of a recorded auction, write it to stdout and exit")
	flag.Parse() // required for glog flags and testing package flags

	cfg, err := loadConfig()
	if err != nil {
		glog.Exitf("Configuration could not be loaded or did not pass validation: %v", err)
	}

	if *replayFile != "" {
		if err := replay(cfg, *replayFile, os.Stdout); err != nil {
			glog.Exitf("Replay of %s failed: %v", *replayFile, err)
		}
		return
	}

	if err := serve(cfg); err != nil {
		glog.Exitf("prebid-response-engine failed: %v", err)
	}
}

func loadConfig() (*config.Configuration, error) {
	v := viper.New()
	config.SetupViper(v, configFileName)
	return config.New(v)
}

func serve(cfg *config.Configuration) error {
	r, err := router.New(cfg, Version, Rev)
	if err != nil {
		return err
	}
	defer r.Shutdown()

	handler := router.NoCache{Handler: router.SupportCORS(r)}
	return server.Listen(cfg, handler, router.Admin(Version, Rev), r.MetricsEngine)
}

func replay(cfg *config.Configuration, path string, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	r, err := router.New(cfg, Version, Rev)
	if err != nil {
		return err
	}
	defer r.Shutdown()

	response, err := r.Runner.Run(context.Background(), data)
	if err != nil {
		return err
	}

	responseBytes, err := jsonutil.Marshal(response)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out, string(responseBytes)); err != nil {
		return err
	}

	if r.MetricsEngine.PrometheusMetrics != nil {
		families, err := r.MetricsEngine.PrometheusMetrics.Registry.Gather()
		if err != nil {
			glog.Warningf("Failed to gather metrics: %v", err)
			return nil
		}
		logMetricFamilies(families)
	}
	return nil
}

// logMetricFamilies writes the counters recorded by a replay.
func logMetricFamilies(families []*dto.MetricFamily) {
	for _, family := range families {
		if family.GetType() != dto.MetricType_COUNTER {
			continue
		}
		var total float64
		for _, m := range family.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		glog.Infof("%s %g", family.GetName(), total)
	}
}
