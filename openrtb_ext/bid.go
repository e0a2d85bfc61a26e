package openrtb_ext

import (
	"encoding/json"
	"fmt"
)

// ExtBid defines the contract for bidresponse.seatbid.bid[i].ext
type ExtBid struct {
	Prebid *ExtBidPrebid `json:"prebid,omitempty"`
}

// ExtBidPrebid defines the contract for bidresponse.seatbid.bid[i].ext.prebid
type ExtBidPrebid struct {
	BidId                   string              `json:"bidid,omitempty"`
	Cache                   *ExtBidPrebidCache  `json:"cache,omitempty"`
	DealPriority            int                 `json:"dealpriority,omitempty"`
	DealTierSatisfied       bool                `json:"dealtiersatisfied,omitempty"`
	Events                  *ExtBidPrebidEvents `json:"events,omitempty"`
	Meta                    *ExtBidPrebidMeta   `json:"meta,omitempty"`
	Passthrough             json.RawMessage     `json:"passthrough,omitempty"`
	Rank                    int                 `json:"rank,omitempty"`
	StoredRequestAttributes json.RawMessage     `json:"storedrequestattributes,omitempty"`
	Targeting               map[string]string   `json:"targeting,omitempty"`
	TargetBidderCode        string              `json:"targetbiddercode,omitempty"`
	Type                    BidType             `json:"type,omitempty"`
	Video                   *ExtBidPrebidVideo  `json:"video,omitempty"`
}

// ExtBidPrebidCache defines the contract for bidresponse.seatbid.bid[i].ext.prebid.cache
type ExtBidPrebidCache struct {
	Bids    *ExtBidPrebidCacheBids `json:"bids,omitempty"`
	VastXML *ExtBidPrebidCacheBids `json:"vastXml,omitempty"`
}

// ExtBidPrebidCacheBids defines the contract for bidresponse.seatbid.bid[i].ext.prebid.cache.bids and .vastXml
type ExtBidPrebidCacheBids struct {
	Url     string `json:"url"`
	CacheId string `json:"cacheId"`
}

// ExtBidPrebidMeta defines the contract for bidresponse.seatbid.bid[i].ext.prebid.meta
type ExtBidPrebidMeta struct {
	AdapterCode       string   `json:"adaptercode,omitempty"`
	AdvertiserDomains []string `json:"advertiserDomains,omitempty"`
	AdvertiserID      int      `json:"advertiserId,omitempty"`
	MediaType         string   `json:"mediaType,omitempty"`
	NetworkID         int      `json:"networkId,omitempty"`
	NetworkName       string   `json:"networkName,omitempty"`
	PrimaryCategoryID string   `json:"primaryCatId,omitempty"`
}

// ExtBidPrebidVideo defines the contract for bidresponse.seatbid.bid[i].ext.prebid.video
type ExtBidPrebidVideo struct {
	Duration        int    `json:"duration"`
	PrimaryCategory string `json:"primary_category"`
	VASTTagID       string `json:"vasttagid,omitempty"`
}

// ExtBidPrebidEvents defines the contract for bidresponse.seatbid.bid[i].ext.prebid.events
type ExtBidPrebidEvents struct {
	Win string `json:"win,omitempty"`
	Imp string `json:"imp,omitempty"`
}

// BidType describes the allowed values for bidresponse.seatbid.bid[i].ext.prebid.type
type BidType string

const (
	BidTypeBanner BidType = "banner"
	BidTypeVideo  BidType = "video"
	BidTypeAudio  BidType = "audio"
	BidTypeNative BidType = "native"
)

func BidTypes() []BidType {
	return []BidType{
		BidTypeBanner,
		BidTypeVideo,
		BidTypeAudio,
		BidTypeNative,
	}
}

func ParseBidType(bidType string) (BidType, error) {
	switch bidType {
	case "banner":
		return BidTypeBanner, nil
	case "video":
		return BidTypeVideo, nil
	case "audio":
		return BidTypeAudio, nil
	case "native":
		return BidTypeNative, nil
	default:
		return "", fmt.Errorf("invalid BidType: %s", bidType)
	}
}
