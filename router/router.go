package router

import (
	"errors"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/currency"
	"github.com/prebid/prebid-response-engine/endpoints"
	"github.com/prebid/prebid-response-engine/endpoints/replay"
	"github.com/prebid/prebid-response-engine/exchange"
	"github.com/prebid/prebid-response-engine/hooks"
	metricsConf "github.com/prebid/prebid-response-engine/metrics/config"
	"github.com/prebid/prebid-response-engine/modules"
	"github.com/prebid/prebid-response-engine/modules/moduledeps"
	pbc "github.com/prebid/prebid-response-engine/prebid_cache_client"
	"github.com/prebid/prebid-response-engine/router/aspects"
	storedRequestsConf "github.com/prebid/prebid-response-engine/stored_requests/config"
)

// Router serves the replay endpoint and owns the collaborators of the response creator.
type Router struct {
	*httprouter.Router
	MetricsEngine *metricsConf.DetailedMetricsEngine
	Runner        *replay.Runner
	shutdowns     []func()
}

// New wires the response creator from the configuration and registers the public endpoints.
func New(cfg *config.Configuration, version, revision string) (r *Router, err error) {
	r = &Router{Router: httprouter.New()}

	r.MetricsEngine = metricsConf.NewMetricsEngine(cfg)

	fetcher, shutdownStored := storedRequestsConf.NewStoredRequests(cfg, r.MetricsEngine)
	r.shutdowns = append(r.shutdowns, shutdownStored)

	var cacheClient pbc.Client
	if cfg.CacheURL.Host != "" {
		cacheClient = pbc.NewClient(&http.Client{Transport: newCacheTransport()}, cfg, r.MetricsEngine)
	}

	conversions := currency.NewConversions(cfg.CurrencyConverter)

	planBuilder, err := newPlanBuilder(cfg, conversions)
	if err != nil {
		return nil, err
	}

	creator := exchange.NewBidResponseCreator(
		cfg,
		exchange.NewCategoryMapper(fetcher, r.MetricsEngine),
		cacheClient,
		nil,
		fetcher,
		conversions,
		r.MetricsEngine,
	)

	r.Runner, err = replay.NewRunner(creator, cfg, planBuilder, r.MetricsEngine)
	if err != nil {
		return nil, err
	}

	responseEndpoint := httprouter.Handle(r.Runner.Endpoint)
	if cfg.RequestTimeoutHeaders != (config.RequestTimeoutHeaders{}) {
		responseEndpoint = aspects.QueuedRequestTimeout(responseEndpoint, cfg.RequestTimeoutHeaders)
	}
	r.POST("/openrtb2/response", responseEndpoint)
	r.GET("/status", endpoints.NewStatusEndpoint(cfg.StatusResponse))
	r.GET("/version", httprouterHandler(endpoints.NewVersionEndpoint(version, revision)))
	return r, nil
}

func newCacheTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        400,
		MaxIdleConnsPerHost: 400,
		IdleConnTimeout:     60 * time.Second,
	}
}

func newPlanBuilder(cfg *config.Configuration, conversions currency.Conversions) (hooks.ExecutionPlanBuilder, error) {
	if !cfg.Hooks.Enabled {
		return hooks.EmptyPlanBuilder{}, nil
	}

	repo, moduleStageNames, err := modules.NewBuilder().Build(cfg.Hooks.Modules, moduledeps.ModuleDeps{
		HTTPClient: http.DefaultClient,
		Currency:   conversions,
	})
	if err != nil {
		return nil, errors.New("failed to init hook modules: " + err.Error())
	}
	for module, stages := range moduleStageNames {
		glog.Infof("Module %s provides hooks for stages %v", module, stages)
	}
	return hooks.NewExecutionPlanBuilder(cfg.Hooks, repo), nil
}

// Shutdown releases the stored data backends.
func (r *Router) Shutdown() {
	for _, shutdown := range r.shutdowns {
		shutdown()
	}
}

// Admin returns the handler of the admin server.
func Admin(version, revision string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/version", endpoints.NewVersionEndpoint(version, revision))
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

func httprouterHandler(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		handler(w, r)
	}
}

type NoCache struct {
	Handler http.Handler
}

func (m NoCache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Add("Pragma", "no-cache")
	w.Header().Add("Expires", "0")
	m.Handler.ServeHTTP(w, r)
}

// SupportCORS lets browsers call the endpoints from any origin with credentials.
func SupportCORS(handler http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowCredentials: true,
		AllowOriginFunc: func(string) bool {
			return true
		},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept"}})
	return c.Handler(handler)
}
