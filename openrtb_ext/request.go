// Package openrtb_ext holds the prebid extensions of the OpenRTB request and response used by the
// response assembly.
package openrtb_ext

import (
	"encoding/json"
)

// ExtRequest defines the contract for bidrequest.ext
type ExtRequest struct {
	Prebid ExtRequestPrebid `json:"prebid"`
}

// ExtRequestPrebid defines the contract for bidrequest.ext.prebid
type ExtRequestPrebid struct {
	Amp                 *ExtRequestPrebidAmp     `json:"amp,omitempty"`
	AuctionTimestamp    int64                    `json:"auctiontimestamp,omitempty"`
	Cache               *ExtRequestPrebidCache   `json:"cache,omitempty"`
	Channel             *ExtRequestPrebidChannel `json:"channel,omitempty"`
	CurrencyConversions *ExtRequestCurrency      `json:"currency,omitempty"`
	Debug               bool                     `json:"debug,omitempty"`
	Events              json.RawMessage          `json:"events,omitempty"`
	Integration         string                   `json:"integration,omitempty"`
	MultiBid            []*ExtMultiBid           `json:"multibid,omitempty"`
	PaaFormat           PaaFormat                `json:"paaformat,omitempty"`
	Passthrough         json.RawMessage          `json:"passthrough,omitempty"`
	ReturnAllBidStatus  bool                     `json:"returnallbidstatus,omitempty"`
	Targeting           *ExtRequestTargeting     `json:"targeting,omitempty"`
	Trace               string                   `json:"trace,omitempty"`
}

// ExtRequestCurrency defines the contract for bidrequest.ext.prebid.currency
type ExtRequestCurrency struct {
	ConversionRates map[string]map[string]float64 `json:"rates"`
	UsePBSRates     *bool                         `json:"usepbsrates"`
}

// ExtRequestPrebidAmp defines the contract for bidrequest.ext.prebid.amp. Its presence marks an AMP request.
type ExtRequestPrebidAmp struct {
	Data map[string]string `json:"data,omitempty"`
}

// ExtRequestPrebidChannel defines the contract for bidrequest.ext.prebid.channel
type ExtRequestPrebidChannel struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// ExtRequestPrebidCache defines the contract for bidrequest.ext.prebid.cache
type ExtRequestPrebidCache struct {
	Bids        *ExtRequestPrebidCacheBids `json:"bids,omitempty"`
	VastXML     *ExtRequestPrebidCacheVAST `json:"vastxml,omitempty"`
	WinningOnly *bool                      `json:"winningonly,omitempty"`
}

// ExtRequestPrebidCacheBids defines the contract for bidrequest.ext.prebid.cache.bids
type ExtRequestPrebidCacheBids struct {
	ReturnCreative *bool `json:"returnCreative,omitempty"`
	TTLSeconds     *int  `json:"ttlseconds,omitempty"`
}

// ExtRequestPrebidCacheVAST defines the contract for bidrequest.ext.prebid.cache.vastxml
type ExtRequestPrebidCacheVAST struct {
	ReturnCreative *bool `json:"returnCreative,omitempty"`
	TTLSeconds     *int  `json:"ttlseconds,omitempty"`
}

// ExtRequestTargeting defines the contract for bidrequest.ext.prebid.targeting
type ExtRequestTargeting struct {
	PriceGranularity          *PriceGranularity          `json:"pricegranularity,omitempty"`
	MediaTypePriceGranularity *MediaTypePriceGranularity `json:"mediatypepricegranularity,omitempty"`
	IncludeWinners            *bool                      `json:"includewinners,omitempty"`
	IncludeBidderKeys         *bool                      `json:"includebidderkeys,omitempty"`
	IncludeBrandCategory      *ExtIncludeBrandCategory   `json:"includebrandcategory,omitempty"`
	IncludeFormat             bool                       `json:"includeformat,omitempty"`
	DurationRangeSec          []int                      `json:"durationrangesec,omitempty"`
	PreferDeals               bool                       `json:"preferdeals,omitempty"`
	AppendBidderNames         bool                       `json:"appendbiddernames,omitempty"`
	AlwaysIncludeDeals        bool                       `json:"alwaysincludedeals,omitempty"`
	Prefix                    string                     `json:"prefix,omitempty"`
	TruncateAttrChars         *int                       `json:"truncateattrchars,omitempty"`
}

// ExtIncludeBrandCategory defines the contract for bidrequest.ext.prebid.targeting.includebrandcategory
type ExtIncludeBrandCategory struct {
	PrimaryAdServer     int    `json:"primaryadserver"`
	Publisher           string `json:"publisher"`
	WithCategory        bool   `json:"withcategory"`
	TranslateCategories *bool  `json:"translatecategories,omitempty"`
}

// ExtMultiBid defines the contract for bidrequest.ext.prebid.multibid
type ExtMultiBid struct {
	Bidder                 string   `json:"bidder,omitempty"`
	Bidders                []string `json:"bidders,omitempty"`
	MaxBids                *int     `json:"maxbids,omitempty"`
	TargetBidderCodePrefix string   `json:"targetbiddercodeprefix,omitempty"`
}

// PaaFormat selects how protected audience signals are returned in bidresponse.ext.
type PaaFormat string

const (
	PaaFormatOriginal PaaFormat = "original"
	PaaFormatIAB      PaaFormat = "iab"
)

// IsValid reports whether the format is one of the known values.
func (f PaaFormat) IsValid() bool {
	return f == PaaFormatOriginal || f == PaaFormatIAB
}

// GetTargeting returns bidrequest.ext.prebid.targeting or nil when the request carries none.
func (erp *ExtRequestPrebid) GetTargeting() *ExtRequestTargeting {
	if erp == nil {
		return nil
	}
	return erp.Targeting
}
