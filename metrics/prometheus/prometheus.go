package prometheusmetrics

import (
	"strconv"
	"time"

	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/metrics"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics defines the Prometheus metrics backing the MetricsEngine implementation.
type Metrics struct {
	Registry *prometheus.Registry

	// General Metrics
	responses             *prometheus.CounterVec
	responseBuildTimer    prometheus.Histogram
	alerts                *prometheus.CounterVec
	prebidCacheWriteTimer *prometheus.HistogramVec

	// Adapter Metrics
	adapterBids           *prometheus.CounterVec
	adapterRejectedBids   *prometheus.CounterVec
	adapterCategoryErrors *prometheus.CounterVec

	// Stored Data Metrics
	categoryCacheResult      *prometheus.CounterVec
	storedCategoryFetchTimer *prometheus.HistogramVec
	storedCategoryErrors     *prometheus.CounterVec
	storedImpFetchTimer      *prometheus.HistogramVec
	storedImpErrors          *prometheus.CounterVec

	// Module Metrics
	moduleDuration        *prometheus.HistogramVec
	moduleCalls           *prometheus.CounterVec
	moduleFailures        *prometheus.CounterVec
	moduleSuccessNoops    *prometheus.CounterVec
	moduleSuccessUpdates  *prometheus.CounterVec
	moduleSuccessRejects  *prometheus.CounterVec
	moduleExecutionErrors *prometheus.CounterVec
	moduleTimeouts        *prometheus.CounterVec
}

const (
	adapterLabel             = "adapter"
	alertLabel               = "alert"
	cacheResultLabel         = "cache_result"
	markupDeliveryLabel      = "delivery"
	moduleLabel              = "module"
	responseStatusLabel      = "response_status"
	stageLabel               = "stage"
	successLabel             = "success"
	storedDataFetchTypeLabel = "stored_data_fetch_type"
	storedDataErrorLabel     = "stored_data_error"
)

const (
	markupDeliveryAdm  = "adm"
	markupDeliveryNurl = "nurl"
)

// NewMetrics initializes a new Prometheus metrics instance with preloaded label values.
func NewMetrics(cfg config.PrometheusMetrics) *Metrics {
	standardTimeBuckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.15, 0.2, 0.3, 0.5, 1}
	cacheWriteTimeBuckets := []float64{0.001, 0.002, 0.005, 0.01, 0.025, 0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 1}
	moduleTimeBuckets := []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.2, 0.5}

	metrics := Metrics{}
	metrics.Registry = prometheus.NewRegistry()

	metrics.responses = newCounter(cfg, metrics.Registry,
		"auction_responses",
		"Count of assembled auction responses labeled by status.",
		[]string{responseStatusLabel})

	metrics.responseBuildTimer = newHistogram(cfg, metrics.Registry,
		"response_build_time_seconds",
		"Seconds to assemble an auction response from the bidder responses.",
		standardTimeBuckets)

	metrics.alerts = newCounter(cfg, metrics.Registry,
		"alerts",
		"Count of alerts raised while assembling auction responses labeled by type.",
		[]string{alertLabel})

	metrics.prebidCacheWriteTimer = newHistogramVec(cfg, metrics.Registry,
		"prebidcache_write_time_seconds",
		"Seconds to write to Prebid Cache labeled by success or failure. Failure timing is limited by the auction deadline.",
		[]string{successLabel},
		cacheWriteTimeBuckets)

	metrics.adapterBids = newCounter(cfg, metrics.Registry,
		"adapter_bids",
		"Count of bids labeled by adapter and markup delivery type (adm or nurl).",
		[]string{adapterLabel, markupDeliveryLabel})

	metrics.adapterRejectedBids = newCounter(cfg, metrics.Registry,
		"adapter_rejected_bids",
		"Count of bids removed before ranking labeled by adapter.",
		[]string{adapterLabel})

	metrics.adapterCategoryErrors = newCounter(cfg, metrics.Registry,
		"adapter_category_mapping_errors",
		"Count of bids which could not be mapped to a category labeled by adapter.",
		[]string{adapterLabel})

	metrics.categoryCacheResult = newCounter(cfg, metrics.Registry,
		"category_cache_performance",
		"Count of category cache lookups by hits or miss.",
		[]string{cacheResultLabel})

	metrics.storedCategoryFetchTimer = newHistogramVec(cfg, metrics.Registry,
		"stored_category_fetch_time_seconds",
		"Seconds to fetch stored categories labeled by fetch type",
		[]string{storedDataFetchTypeLabel},
		standardTimeBuckets)

	metrics.storedCategoryErrors = newCounter(cfg, metrics.Registry,
		"stored_category_errors",
		"Count of stored category errors by error type",
		[]string{storedDataErrorLabel})

	metrics.storedImpFetchTimer = newHistogramVec(cfg, metrics.Registry,
		"stored_imp_fetch_time_seconds",
		"Seconds to fetch stored imps labeled by fetch type",
		[]string{storedDataFetchTypeLabel},
		standardTimeBuckets)

	metrics.storedImpErrors = newCounter(cfg, metrics.Registry,
		"stored_imp_errors",
		"Count of stored imp errors by error type",
		[]string{storedDataErrorLabel})

	moduleLabels := []string{moduleLabel, stageLabel}

	metrics.moduleDuration = newHistogramVec(cfg, metrics.Registry,
		"modules_duration",
		"Amount of seconds a module processed a hook labeled by stage name.",
		moduleLabels,
		moduleTimeBuckets)

	metrics.moduleCalls = newCounter(cfg, metrics.Registry,
		"modules_called",
		"Count of module calls labeled by stage name.",
		moduleLabels)

	metrics.moduleFailures = newCounter(cfg, metrics.Registry,
		"modules_failed",
		"Count of module fails labeled by stage name.",
		moduleLabels)

	metrics.moduleSuccessNoops = newCounter(cfg, metrics.Registry,
		"modules_success_noops",
		"Count of module successful noops labeled by stage name.",
		moduleLabels)

	metrics.moduleSuccessUpdates = newCounter(cfg, metrics.Registry,
		"modules_success_updates",
		"Count of module successful updates labeled by stage name.",
		moduleLabels)

	metrics.moduleSuccessRejects = newCounter(cfg, metrics.Registry,
		"modules_success_rejects",
		"Count of module successful rejects labeled by stage name.",
		moduleLabels)

	metrics.moduleExecutionErrors = newCounter(cfg, metrics.Registry,
		"modules_execution_errors",
		"Count of module execution errors labeled by stage name.",
		moduleLabels)

	metrics.moduleTimeouts = newCounter(cfg, metrics.Registry,
		"modules_timeouts",
		"Count of module timeouts labeled by stage name.",
		moduleLabels)

	preloadLabelValues(&metrics)

	return &metrics
}

func newCounter(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, labels []string) *prometheus.CounterVec {
	opts := prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	}
	counter := prometheus.NewCounterVec(opts, labels)
	registry.MustRegister(counter)
	return counter
}

func newHistogramVec(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	opts := prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}
	histogram := prometheus.NewHistogramVec(opts, labels)
	registry.MustRegister(histogram)
	return histogram
}

func newHistogram(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, buckets []float64) prometheus.Histogram {
	opts := prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}
	histogram := prometheus.NewHistogram(opts)
	registry.MustRegister(histogram)
	return histogram
}

func (m *Metrics) RecordAuctionResponse(labels metrics.AuctionLabels) {
	m.responses.With(prometheus.Labels{
		responseStatusLabel: string(labels.Status),
	}).Inc()
}

func (m *Metrics) RecordResponseBuildTime(labels metrics.AuctionLabels, length time.Duration) {
	m.responseBuildTimer.Observe(length.Seconds())
}

func (m *Metrics) RecordAlert(alert metrics.AlertType) {
	m.alerts.With(prometheus.Labels{
		alertLabel: string(alert),
	}).Inc()
}

func (m *Metrics) RecordAdapterBidReceived(labels metrics.AdapterLabels, bidType openrtb_ext.BidType, hasAdm bool) {
	markupDelivery := markupDeliveryNurl
	if hasAdm {
		markupDelivery = markupDeliveryAdm
	}

	m.adapterBids.With(prometheus.Labels{
		adapterLabel:        string(labels.Adapter),
		markupDeliveryLabel: markupDelivery,
	}).Inc()
}

func (m *Metrics) RecordRejectedBids(labels metrics.AdapterLabels, count int) {
	m.adapterRejectedBids.With(prometheus.Labels{
		adapterLabel: string(labels.Adapter),
	}).Add(float64(count))
}

func (m *Metrics) RecordPrebidCacheRequestTime(success bool, length time.Duration) {
	m.prebidCacheWriteTimer.With(prometheus.Labels{
		successLabel: strconv.FormatBool(success),
	}).Observe(length.Seconds())
}

func (m *Metrics) RecordCategoryMappingError(adapter openrtb_ext.BidderName) {
	m.adapterCategoryErrors.With(prometheus.Labels{
		adapterLabel: string(adapter),
	}).Inc()
}

func (m *Metrics) RecordCategoryCacheResult(result metrics.CacheResult, count int) {
	m.categoryCacheResult.With(prometheus.Labels{
		cacheResultLabel: string(result),
	}).Add(float64(count))
}

func (m *Metrics) RecordStoredDataFetchTime(labels metrics.StoredDataLabels, length time.Duration) {
	var timer *prometheus.HistogramVec
	switch labels.DataType {
	case metrics.CategoryDataType:
		timer = m.storedCategoryFetchTimer
	case metrics.ImpDataType:
		timer = m.storedImpFetchTimer
	default:
		return
	}

	timer.With(prometheus.Labels{
		storedDataFetchTypeLabel: string(labels.DataFetchType),
	}).Observe(length.Seconds())
}

func (m *Metrics) RecordStoredDataError(labels metrics.StoredDataLabels) {
	var counter *prometheus.CounterVec
	switch labels.DataType {
	case metrics.CategoryDataType:
		counter = m.storedCategoryErrors
	case metrics.ImpDataType:
		counter = m.storedImpErrors
	default:
		return
	}

	counter.With(prometheus.Labels{
		storedDataErrorLabel: string(labels.Error),
	}).Inc()
}

func (m *Metrics) RecordModuleCalled(labels metrics.ModuleLabels, duration time.Duration) {
	m.moduleCalls.With(moduleLabelsOf(labels)).Inc()
	m.moduleDuration.With(moduleLabelsOf(labels)).Observe(duration.Seconds())
}

func (m *Metrics) RecordModuleFailed(labels metrics.ModuleLabels) {
	m.moduleFailures.With(moduleLabelsOf(labels)).Inc()
}

func (m *Metrics) RecordModuleSuccessNooped(labels metrics.ModuleLabels) {
	m.moduleSuccessNoops.With(moduleLabelsOf(labels)).Inc()
}

func (m *Metrics) RecordModuleSuccessUpdated(labels metrics.ModuleLabels) {
	m.moduleSuccessUpdates.With(moduleLabelsOf(labels)).Inc()
}

func (m *Metrics) RecordModuleSuccessRejected(labels metrics.ModuleLabels) {
	m.moduleSuccessRejects.With(moduleLabelsOf(labels)).Inc()
}

func (m *Metrics) RecordModuleExecutionError(labels metrics.ModuleLabels) {
	m.moduleExecutionErrors.With(moduleLabelsOf(labels)).Inc()
}

func (m *Metrics) RecordModuleTimeout(labels metrics.ModuleLabels) {
	m.moduleTimeouts.With(moduleLabelsOf(labels)).Inc()
}

func moduleLabelsOf(labels metrics.ModuleLabels) prometheus.Labels {
	return prometheus.Labels{
		moduleLabel: labels.Module,
		stageLabel:  labels.Stage,
	}
}
