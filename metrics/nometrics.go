package metrics

import (
	"time"

	"github.com/prebid/prebid-response-engine/openrtb_ext"
)

// NilMetricsEngine implements MetricsEngine and discards everything.
// It is used when no backend is configured and by tests which do not care about metrics.
type NilMetricsEngine struct{}

func (me *NilMetricsEngine) RecordAuctionResponse(labels AuctionLabels) {}

func (me *NilMetricsEngine) RecordResponseBuildTime(labels AuctionLabels, length time.Duration) {}

func (me *NilMetricsEngine) RecordAlert(alert AlertType) {}

func (me *NilMetricsEngine) RecordAdapterBidReceived(labels AdapterLabels, bidType openrtb_ext.BidType, hasAdm bool) {
}

func (me *NilMetricsEngine) RecordRejectedBids(labels AdapterLabels, count int) {}

func (me *NilMetricsEngine) RecordPrebidCacheRequestTime(success bool, length time.Duration) {}

func (me *NilMetricsEngine) RecordCategoryMappingError(adapter openrtb_ext.BidderName) {}

func (me *NilMetricsEngine) RecordCategoryCacheResult(result CacheResult, count int) {}

func (me *NilMetricsEngine) RecordStoredDataFetchTime(labels StoredDataLabels, length time.Duration) {}

func (me *NilMetricsEngine) RecordStoredDataError(labels StoredDataLabels) {}

func (me *NilMetricsEngine) RecordModuleCalled(labels ModuleLabels, duration time.Duration) {}

func (me *NilMetricsEngine) RecordModuleFailed(labels ModuleLabels) {}

func (me *NilMetricsEngine) RecordModuleSuccessNooped(labels ModuleLabels) {}

func (me *NilMetricsEngine) RecordModuleSuccessUpdated(labels ModuleLabels) {}

func (me *NilMetricsEngine) RecordModuleSuccessRejected(labels ModuleLabels) {}

func (me *NilMetricsEngine) RecordModuleExecutionError(labels ModuleLabels) {}

func (me *NilMetricsEngine) RecordModuleTimeout(labels ModuleLabels) {}
