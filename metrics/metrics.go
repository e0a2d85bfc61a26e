package metrics

import (
	"time"

	"github.com/prebid/prebid-response-engine/openrtb_ext"
)

// AuctionLabels describes the outcome of one response assembly.
type AuctionLabels struct {
	Status    ResponseStatus
	AccountID string
}

// AdapterLabels describes which adapter a bid metric belongs to.
type AdapterLabels struct {
	Adapter   openrtb_ext.BidderName
	AccountID string
}

// ModuleLabels defines metric labels for hook modules.
type ModuleLabels struct {
	Module    string
	Stage     string
	AccountID string
}

// StoredDataLabels defines metric labels for stored data lookups.
type StoredDataLabels struct {
	DataType      StoredDataType
	DataFetchType StoredDataFetchType
	Error         StoredDataError
}

type ResponseStatus string

const (
	ResponseStatusOK    ResponseStatus = "ok"
	ResponseStatusNoBid ResponseStatus = "nobid"
	ResponseStatusErr   ResponseStatus = "err"
)

func ResponseStatuses() []ResponseStatus {
	return []ResponseStatus{
		ResponseStatusOK,
		ResponseStatusNoBid,
		ResponseStatusErr,
	}
}

// AlertType groups the alerts raised while assembling a response.
type AlertType string

const (
	AlertGeneral          AlertType = "general"
	AlertInterestGroup    AlertType = "interest_group"
	AlertVastModification AlertType = "vast_modification"
)

func AlertTypes() []AlertType {
	return []AlertType{
		AlertGeneral,
		AlertInterestGroup,
		AlertVastModification,
	}
}

type StoredDataType string

const (
	CategoryDataType StoredDataType = "category"
	ImpDataType      StoredDataType = "imp"
)

func StoredDataTypes() []StoredDataType {
	return []StoredDataType{
		CategoryDataType,
		ImpDataType,
	}
}

type StoredDataFetchType string

const (
	FetchAll   StoredDataFetchType = "all"
	FetchDelta StoredDataFetchType = "delta"
)

func StoredDataFetchTypes() []StoredDataFetchType {
	return []StoredDataFetchType{
		FetchAll,
		FetchDelta,
	}
}

type StoredDataError string

const (
	StoredDataErrorNetwork   StoredDataError = "network"
	StoredDataErrorUndefined StoredDataError = "undefined"
)

func StoredDataErrors() []StoredDataError {
	return []StoredDataError{
		StoredDataErrorNetwork,
		StoredDataErrorUndefined,
	}
}

type CacheResult string

const (
	CacheHit  CacheResult = "hit"
	CacheMiss CacheResult = "miss"
)

func CacheResults() []CacheResult {
	return []CacheResult{
		CacheHit,
		CacheMiss,
	}
}

// MetricsEngine is a generic interface to record metrics into the desired backend.
// RecordAuctionResponse and RecordResponseBuildTime fire once per assembled response.
type MetricsEngine interface {
	RecordAuctionResponse(labels AuctionLabels)
	RecordResponseBuildTime(labels AuctionLabels, length time.Duration)
	RecordAlert(alert AlertType)
	RecordAdapterBidReceived(labels AdapterLabels, bidType openrtb_ext.BidType, hasAdm bool)
	RecordRejectedBids(labels AdapterLabels, count int)
	RecordPrebidCacheRequestTime(success bool, length time.Duration)
	RecordCategoryMappingError(adapter openrtb_ext.BidderName)
	RecordCategoryCacheResult(result CacheResult, count int)
	RecordStoredDataFetchTime(labels StoredDataLabels, length time.Duration)
	RecordStoredDataError(labels StoredDataLabels)
	RecordModuleCalled(labels ModuleLabels, duration time.Duration)
	RecordModuleFailed(labels ModuleLabels)
	RecordModuleSuccessNooped(labels ModuleLabels)
	RecordModuleSuccessUpdated(labels ModuleLabels)
	RecordModuleSuccessRejected(labels ModuleLabels)
	RecordModuleExecutionError(labels ModuleLabels)
	RecordModuleTimeout(labels ModuleLabels)
}
