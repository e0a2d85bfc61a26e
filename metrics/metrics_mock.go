package metrics

import (
	"time"

	"github.com/prebid/prebid-response-engine/openrtb_ext"
	"github.com/stretchr/testify/mock"
)

// MetricsEngineMock is mock for the MetricsEngine interface
type MetricsEngineMock struct {
	mock.Mock
}

// RecordAuctionResponse mock
func (me *MetricsEngineMock) RecordAuctionResponse(labels AuctionLabels) {
	me.Called(labels)
}

// RecordResponseBuildTime mock
func (me *MetricsEngineMock) RecordResponseBuildTime(labels AuctionLabels, length time.Duration) {
	me.Called(labels, length)
}

// RecordAlert mock
func (me *MetricsEngineMock) RecordAlert(alert AlertType) {
	me.Called(alert)
}

// RecordAdapterBidReceived mock
func (me *MetricsEngineMock) RecordAdapterBidReceived(labels AdapterLabels, bidType openrtb_ext.BidType, hasAdm bool) {
	me.Called(labels, bidType, hasAdm)
}

// RecordRejectedBids mock
func (me *MetricsEngineMock) RecordRejectedBids(labels AdapterLabels, count int) {
	me.Called(labels, count)
}

// RecordPrebidCacheRequestTime mock
func (me *MetricsEngineMock) RecordPrebidCacheRequestTime(success bool, length time.Duration) {
	me.Called(success, length)
}

// RecordCategoryMappingError mock
func (me *MetricsEngineMock) RecordCategoryMappingError(adapter openrtb_ext.BidderName) {
	me.Called(adapter)
}

// RecordCategoryCacheResult mock
func (me *MetricsEngineMock) RecordCategoryCacheResult(result CacheResult, count int) {
	me.Called(result, count)
}

// RecordStoredDataFetchTime mock
func (me *MetricsEngineMock) RecordStoredDataFetchTime(labels StoredDataLabels, length time.Duration) {
	me.Called(labels, length)
}

// RecordStoredDataError mock
func (me *MetricsEngineMock) RecordStoredDataError(labels StoredDataLabels) {
	me.Called(labels)
}

func (me *MetricsEngineMock) RecordModuleCalled(labels ModuleLabels, duration time.Duration) {
	me.Called(labels, duration)
}

func (me *MetricsEngineMock) RecordModuleFailed(labels ModuleLabels) {
	me.Called(labels)
}

func (me *MetricsEngineMock) RecordModuleSuccessNooped(labels ModuleLabels) {
	me.Called(labels)
}

func (me *MetricsEngineMock) RecordModuleSuccessUpdated(labels ModuleLabels) {
	me.Called(labels)
}

func (me *MetricsEngineMock) RecordModuleSuccessRejected(labels ModuleLabels) {
	me.Called(labels)
}

func (me *MetricsEngineMock) RecordModuleExecutionError(labels ModuleLabels) {
	me.Called(labels)
}

func (me *MetricsEngineMock) RecordModuleTimeout(labels ModuleLabels) {
	me.Called(labels)
}
