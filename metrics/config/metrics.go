package config

import (
	"time"

	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/metrics"
	prometheusmetrics "github.com/prebid/prebid-response-engine/metrics/prometheus"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
	gometrics "github.com/rcrowley/go-metrics"
)

// NewMetricsEngine reads the configuration and returns the appropriate metrics engine
// for this instance.
func NewMetricsEngine(cfg *config.Configuration) *DetailedMetricsEngine {
	// Create a list of metrics engines to use.
	// Capacity of 2, as unlikely to have more than 2 metrics backends, and in the case
	// of 1 we won't use the list so it will be garbage collected.
	engineList := make(MultiMetricsEngine, 0, 2)
	returnEngine := DetailedMetricsEngine{}

	if cfg.Metrics.GoMetrics.Enabled {
		returnEngine.GoMetrics = metrics.NewMetrics(gometrics.NewPrefixedRegistry("prebidengine."))
		engineList = append(engineList, returnEngine.GoMetrics)
	}
	if cfg.Metrics.Prometheus.Enabled {
		returnEngine.PrometheusMetrics = prometheusmetrics.NewMetrics(cfg.Metrics.Prometheus)
		engineList = append(engineList, returnEngine.PrometheusMetrics)
	}

	// Now return the proper metrics engine
	if len(engineList) > 1 {
		returnEngine.MetricsEngine = &engineList
	} else if len(engineList) == 1 {
		returnEngine.MetricsEngine = engineList[0]
	} else {
		returnEngine.MetricsEngine = &metrics.NilMetricsEngine{}
	}

	return &returnEngine
}

// DetailedMetricsEngine is a MultiMetricsEngine that preserves links to underlying metrics engines.
type DetailedMetricsEngine struct {
	metrics.MetricsEngine
	GoMetrics         *metrics.Metrics
	PrometheusMetrics *prometheusmetrics.Metrics
}

// MultiMetricsEngine logs metrics to multiple metrics databases The can be useful in transitioning
// an instance from one engine to another, you can run both in parallel to verify stats match up.
type MultiMetricsEngine []metrics.MetricsEngine

func (me *MultiMetricsEngine) RecordAuctionResponse(labels metrics.AuctionLabels) {
	for _, thisME := range *me {
		thisME.RecordAuctionResponse(labels)
	}
}

func (me *MultiMetricsEngine) RecordResponseBuildTime(labels metrics.AuctionLabels, length time.Duration) {
	for _, thisME := range *me {
		thisME.RecordResponseBuildTime(labels, length)
	}
}

func (me *MultiMetricsEngine) RecordAlert(alert metrics.AlertType) {
	for _, thisME := range *me {
		thisME.RecordAlert(alert)
	}
}

func (me *MultiMetricsEngine) RecordAdapterBidReceived(labels metrics.AdapterLabels, bidType openrtb_ext.BidType, hasAdm bool) {
	for _, thisME := range *me {
		thisME.RecordAdapterBidReceived(labels, bidType, hasAdm)
	}
}

func (me *MultiMetricsEngine) RecordRejectedBids(labels metrics.AdapterLabels, count int) {
	for _, thisME := range *me {
		thisME.RecordRejectedBids(labels, count)
	}
}

func (me *MultiMetricsEngine) RecordPrebidCacheRequestTime(success bool, length time.Duration) {
	for _, thisME := range *me {
		thisME.RecordPrebidCacheRequestTime(success, length)
	}
}

func (me *MultiMetricsEngine) RecordCategoryMappingError(adapter openrtb_ext.BidderName) {
	for _, thisME := range *me {
		thisME.RecordCategoryMappingError(adapter)
	}
}

func (me *MultiMetricsEngine) RecordCategoryCacheResult(result metrics.CacheResult, count int) {
	for _, thisME := range *me {
		thisME.RecordCategoryCacheResult(result, count)
	}
}

func (me *MultiMetricsEngine) RecordStoredDataFetchTime(labels metrics.StoredDataLabels, length time.Duration) {
	for _, thisME := range *me {
		thisME.RecordStoredDataFetchTime(labels, length)
	}
}

func (me *MultiMetricsEngine) RecordStoredDataError(labels metrics.StoredDataLabels) {
	for _, thisME := range *me {
		thisME.RecordStoredDataError(labels)
	}
}

func (me *MultiMetricsEngine) RecordModuleCalled(labels metrics.ModuleLabels, duration time.Duration) {
	for _, thisME := range *me {
		thisME.RecordModuleCalled(labels, duration)
	}
}

func (me *MultiMetricsEngine) RecordModuleFailed(labels metrics.ModuleLabels) {
	for _, thisME := range *me {
		thisME.RecordModuleFailed(labels)
	}
}

func (me *MultiMetricsEngine) RecordModuleSuccessNooped(labels metrics.ModuleLabels) {
	for _, thisME := range *me {
		thisME.RecordModuleSuccessNooped(labels)
	}
}

func (me *MultiMetricsEngine) RecordModuleSuccessUpdated(labels metrics.ModuleLabels) {
	for _, thisME := range *me {
		thisME.RecordModuleSuccessUpdated(labels)
	}
}

func (me *MultiMetricsEngine) RecordModuleSuccessRejected(labels metrics.ModuleLabels) {
	for _, thisME := range *me {
		thisME.RecordModuleSuccessRejected(labels)
	}
}

func (me *MultiMetricsEngine) RecordModuleExecutionError(labels metrics.ModuleLabels) {
	for _, thisME := range *me {
		thisME.RecordModuleExecutionError(labels)
	}
}

func (me *MultiMetricsEngine) RecordModuleTimeout(labels metrics.ModuleLabels) {
	for _, thisME := range *me {
		thisME.RecordModuleTimeout(labels)
	}
}
