package openrtb_ext

import (
	"encoding/json"
)

// AuctionEnvironmentType is the value of bidrequest.imp[i].ext.ae
type AuctionEnvironmentType int8

const (
	// ServerSideAuction is the default, protected audience signals are not requested.
	ServerSideAuction AuctionEnvironmentType = 0
	// OnDeviceIGAuctionFledge asks bidders for fledge auction configs for this imp.
	OnDeviceIGAuctionFledge AuctionEnvironmentType = 1
)

// ExtImp defines the parts of bidrequest.imp[i].ext read during response assembly.
type ExtImp struct {
	Prebid *ExtImpPrebid          `json:"prebid,omitempty"`
	AE     AuctionEnvironmentType `json:"ae,omitempty"`
}

// ExtImpPrebid defines the contract for bidrequest.imp[i].ext.prebid
type ExtImpPrebid struct {
	// StoredRequest specifies which stored impression to use, if any.
	StoredRequest *ExtStoredRequest `json:"storedrequest,omitempty"`

	// Bidder is the preferred approach for providing parameters to be interpreted by the bidder's adapter.
	Bidder map[string]json.RawMessage `json:"bidder,omitempty"`

	Options *Options `json:"options,omitempty"`

	Passthrough json.RawMessage `json:"passthrough,omitempty"`
}

// ExtStoredRequest defines the contract for bidrequest.imp[i].ext.prebid.storedrequest
type ExtStoredRequest struct {
	ID string `json:"id"`
}

// Options defines the contract for bidrequest.imp[i].ext.prebid.options
type Options struct {
	EchoVideoAttrs bool `json:"echovideoattrs"`
}
