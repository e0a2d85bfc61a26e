package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prebid/prebid-response-engine/openrtb_ext"
	metrics "github.com/rcrowley/go-metrics"
)

// Metrics is the go-metrics implementation of MetricsEngine.
type Metrics struct {
	MetricsRegistry metrics.Registry

	ResponseStatuses map[ResponseStatus]metrics.Meter
	ResponseTimer    metrics.Timer
	Alerts           map[AlertType]metrics.Meter

	PrebidCacheRequestTimerSuccess metrics.Timer
	PrebidCacheRequestTimerError   metrics.Timer

	CategoryCacheResults map[CacheResult]metrics.Meter
	StoredDataFetchTimer map[StoredDataType]map[StoredDataFetchType]metrics.Timer
	StoredDataErrorMeter map[StoredDataType]map[StoredDataError]metrics.Meter

	// adapter and module metrics are keyed by names only known at runtime
	adapterMetrics        map[openrtb_ext.BidderName]*AdapterMetrics
	adapterMetricsRWMutex sync.RWMutex
	moduleMetrics         map[string]*ModuleMetrics
	moduleMetricsRWMutex  sync.RWMutex
}

// AdapterMetrics houses the metrics for a particular adapter
type AdapterMetrics struct {
	BidsReceivedMeter  metrics.Meter
	RejectedBidsMeter  metrics.Meter
	CategoryErrorMeter metrics.Meter
	MarkupMetrics      map[openrtb_ext.BidType]*MarkupDeliveryMetrics
}

type MarkupDeliveryMetrics struct {
	AdmMeter  metrics.Meter
	NurlMeter metrics.Meter
}

// ModuleMetrics houses the metrics of one module at one stage.
type ModuleMetrics struct {
	DurationTimer         metrics.Timer
	CallCounter           metrics.Counter
	FailureCounter        metrics.Counter
	SuccessNoopCounter    metrics.Counter
	SuccessUpdateCounter  metrics.Counter
	SuccessRejectCounter  metrics.Counter
	ExecutionErrorCounter metrics.Counter
	TimeoutCounter        metrics.Counter
}

// NewMetrics creates a new Metrics object with the static metrics registered.
// Adapter and module metrics are registered on first use.
func NewMetrics(registry metrics.Registry) *Metrics {
	newMetrics := &Metrics{
		MetricsRegistry:                registry,
		ResponseStatuses:               make(map[ResponseStatus]metrics.Meter),
		ResponseTimer:                  metrics.GetOrRegisterTimer("response_build_time", registry),
		Alerts:                         make(map[AlertType]metrics.Meter),
		PrebidCacheRequestTimerSuccess: metrics.GetOrRegisterTimer("prebid_cache_request_time.ok", registry),
		PrebidCacheRequestTimerError:   metrics.GetOrRegisterTimer("prebid_cache_request_time.err", registry),
		CategoryCacheResults:           make(map[CacheResult]metrics.Meter),
		StoredDataFetchTimer:           make(map[StoredDataType]map[StoredDataFetchType]metrics.Timer),
		StoredDataErrorMeter:           make(map[StoredDataType]map[StoredDataError]metrics.Meter),
		adapterMetrics:                 make(map[openrtb_ext.BidderName]*AdapterMetrics),
		moduleMetrics:                  make(map[string]*ModuleMetrics),
	}

	for _, s := range ResponseStatuses() {
		newMetrics.ResponseStatuses[s] = metrics.GetOrRegisterMeter("responses."+string(s), registry)
	}
	for _, a := range AlertTypes() {
		newMetrics.Alerts[a] = metrics.GetOrRegisterMeter("alerts."+string(a), registry)
	}
	for _, r := range CacheResults() {
		newMetrics.CategoryCacheResults[r] = metrics.GetOrRegisterMeter("category_cache."+string(r), registry)
	}
	for _, dt := range StoredDataTypes() {
		newMetrics.StoredDataFetchTimer[dt] = make(map[StoredDataFetchType]metrics.Timer)
		for _, ft := range StoredDataFetchTypes() {
			newMetrics.StoredDataFetchTimer[dt][ft] = metrics.GetOrRegisterTimer(fmt.Sprintf("stored_%s_fetch_time.%s", dt, ft), registry)
		}
		newMetrics.StoredDataErrorMeter[dt] = make(map[StoredDataError]metrics.Meter)
		for _, e := range StoredDataErrors() {
			newMetrics.StoredDataErrorMeter[dt][e] = metrics.GetOrRegisterMeter(fmt.Sprintf("stored_%s_error.%s", dt, e), registry)
		}
	}

	return newMetrics
}

func makeDeliveryMetrics(registry metrics.Registry, prefix string, bidType openrtb_ext.BidType) *MarkupDeliveryMetrics {
	return &MarkupDeliveryMetrics{
		AdmMeter:  metrics.GetOrRegisterMeter(prefix+"."+string(bidType)+".adm_bids_received", registry),
		NurlMeter: metrics.GetOrRegisterMeter(prefix+"."+string(bidType)+".nurl_bids_received", registry),
	}
}

// getAdapterMetrics gets or registers the metrics of the adapter.
func (me *Metrics) getAdapterMetrics(adapter openrtb_ext.BidderName) *AdapterMetrics {
	me.adapterMetricsRWMutex.RLock()
	am, ok := me.adapterMetrics[adapter]
	me.adapterMetricsRWMutex.RUnlock()

	if ok {
		return am
	}

	me.adapterMetricsRWMutex.Lock()
	defer me.adapterMetricsRWMutex.Unlock()

	if am, ok = me.adapterMetrics[adapter]; ok {
		return am
	}

	prefix := "adapter." + adapter.String()
	am = &AdapterMetrics{
		BidsReceivedMeter:  metrics.GetOrRegisterMeter(prefix+".bids_received", me.MetricsRegistry),
		RejectedBidsMeter:  metrics.GetOrRegisterMeter(prefix+".bids_rejected", me.MetricsRegistry),
		CategoryErrorMeter: metrics.GetOrRegisterMeter(prefix+".category_mapping_errors", me.MetricsRegistry),
		MarkupMetrics:      make(map[openrtb_ext.BidType]*MarkupDeliveryMetrics, len(openrtb_ext.BidTypes())),
	}
	for _, bidType := range openrtb_ext.BidTypes() {
		am.MarkupMetrics[bidType] = makeDeliveryMetrics(me.MetricsRegistry, prefix, bidType)
	}
	me.adapterMetrics[adapter] = am

	return am
}

func (me *Metrics) getModuleMetrics(labels ModuleLabels) *ModuleMetrics {
	key := labels.Module + "." + labels.Stage

	me.moduleMetricsRWMutex.RLock()
	mm, ok := me.moduleMetrics[key]
	me.moduleMetricsRWMutex.RUnlock()

	if ok {
		return mm
	}

	me.moduleMetricsRWMutex.Lock()
	defer me.moduleMetricsRWMutex.Unlock()

	if mm, ok = me.moduleMetrics[key]; ok {
		return mm
	}

	prefix := "modules.module." + key
	mm = &ModuleMetrics{
		DurationTimer:         metrics.GetOrRegisterTimer(prefix+".duration", me.MetricsRegistry),
		CallCounter:           metrics.GetOrRegisterCounter(prefix+".call", me.MetricsRegistry),
		FailureCounter:        metrics.GetOrRegisterCounter(prefix+".failure", me.MetricsRegistry),
		SuccessNoopCounter:    metrics.GetOrRegisterCounter(prefix+".success.noop", me.MetricsRegistry),
		SuccessUpdateCounter:  metrics.GetOrRegisterCounter(prefix+".success.update", me.MetricsRegistry),
		SuccessRejectCounter:  metrics.GetOrRegisterCounter(prefix+".success.reject", me.MetricsRegistry),
		ExecutionErrorCounter: metrics.GetOrRegisterCounter(prefix+".execution_error", me.MetricsRegistry),
		TimeoutCounter:        metrics.GetOrRegisterCounter(prefix+".timeout", me.MetricsRegistry),
	}
	me.moduleMetrics[key] = mm

	return mm
}

// Implement the MetricsEngine interface

func (me *Metrics) RecordAuctionResponse(labels AuctionLabels) {
	if m, ok := me.ResponseStatuses[labels.Status]; ok {
		m.Mark(1)
	}
}

func (me *Metrics) RecordResponseBuildTime(labels AuctionLabels, length time.Duration) {
	me.ResponseTimer.Update(length)
}

func (me *Metrics) RecordAlert(alert AlertType) {
	if m, ok := me.Alerts[alert]; ok {
		m.Mark(1)
	}
}

// RecordAdapterBidReceived implements a part of the MetricsEngine interface.
// This tracks how many bids from each Bidder use `adm` vs. `nurl`.
func (me *Metrics) RecordAdapterBidReceived(labels AdapterLabels, bidType openrtb_ext.BidType, hasAdm bool) {
	am := me.getAdapterMetrics(labels.Adapter)
	am.BidsReceivedMeter.Mark(1)

	if metricsForType, ok := am.MarkupMetrics[bidType]; ok {
		if hasAdm {
			metricsForType.AdmMeter.Mark(1)
		} else {
			metricsForType.NurlMeter.Mark(1)
		}
	}
}

func (me *Metrics) RecordRejectedBids(labels AdapterLabels, count int) {
	me.getAdapterMetrics(labels.Adapter).RejectedBidsMeter.Mark(int64(count))
}

func (me *Metrics) RecordPrebidCacheRequestTime(success bool, length time.Duration) {
	if success {
		me.PrebidCacheRequestTimerSuccess.Update(length)
	} else {
		me.PrebidCacheRequestTimerError.Update(length)
	}
}

func (me *Metrics) RecordCategoryMappingError(adapter openrtb_ext.BidderName) {
	me.getAdapterMetrics(adapter).CategoryErrorMeter.Mark(1)
}

func (me *Metrics) RecordCategoryCacheResult(result CacheResult, count int) {
	if m, ok := me.CategoryCacheResults[result]; ok {
		m.Mark(int64(count))
	}
}

func (me *Metrics) RecordStoredDataFetchTime(labels StoredDataLabels, length time.Duration) {
	if byType, ok := me.StoredDataFetchTimer[labels.DataType]; ok {
		if t, ok := byType[labels.DataFetchType]; ok {
			t.Update(length)
		}
	}
}

func (me *Metrics) RecordStoredDataError(labels StoredDataLabels) {
	if byType, ok := me.StoredDataErrorMeter[labels.DataType]; ok {
		if m, ok := byType[labels.Error]; ok {
			m.Mark(1)
		}
	}
}

func (me *Metrics) RecordModuleCalled(labels ModuleLabels, duration time.Duration) {
	mm := me.getModuleMetrics(labels)
	mm.CallCounter.Inc(1)
	mm.DurationTimer.Update(duration)
}

func (me *Metrics) RecordModuleFailed(labels ModuleLabels) {
	me.getModuleMetrics(labels).FailureCounter.Inc(1)
}

func (me *Metrics) RecordModuleSuccessNooped(labels ModuleLabels) {
	me.getModuleMetrics(labels).SuccessNoopCounter.Inc(1)
}

func (me *Metrics) RecordModuleSuccessUpdated(labels ModuleLabels) {
	me.getModuleMetrics(labels).SuccessUpdateCounter.Inc(1)
}

func (me *Metrics) RecordModuleSuccessRejected(labels ModuleLabels) {
	me.getModuleMetrics(labels).SuccessRejectCounter.Inc(1)
}

func (me *Metrics) RecordModuleExecutionError(labels ModuleLabels) {
	me.getModuleMetrics(labels).ExecutionErrorCounter.Inc(1)
}

func (me *Metrics) RecordModuleTimeout(labels ModuleLabels) {
	me.getModuleMetrics(labels).TimeoutCounter.Inc(1)
}
