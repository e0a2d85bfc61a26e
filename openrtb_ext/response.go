package openrtb_ext

import (
	"encoding/json"

	"github.com/prebid/openrtb/v20/adcom1"
	"github.com/prebid/openrtb/v20/openrtb2"
)

// ExtBidResponse is bidresponse.ext as written by the response creator.
// Errors, warnings and response times are keyed by seat or by a reserved key ("prebid", "cache", "targeting").
type ExtBidResponse struct {
	Debug                *ExtResponseDebug                 `json:"debug,omitempty"`
	Errors               map[BidderName][]ExtBidderMessage `json:"errors,omitempty"`
	Warnings             map[BidderName][]ExtBidderMessage `json:"warnings,omitempty"`
	ResponseTimeMillis   map[BidderName]int                `json:"responsetimemillis,omitempty"`
	RequestTimeoutMillis int64                             `json:"tmaxrequest,omitempty"`
	// Igi is only filled in the IAB protected audience format.
	Igi    []*ExtIgi          `json:"igi,omitempty"`
	Prebid *ExtResponsePrebid `json:"prebid,omitempty"`
}

type ExtResponseDebug struct {
	HttpCalls       map[BidderName][]*ExtHttpCall `json:"httpcalls,omitempty"`
	ResolvedRequest json.RawMessage               `json:"resolvedrequest,omitempty"`
}

type ExtResponsePrebid struct {
	AuctionTimestamp int64           `json:"auctiontimestamp,omitempty"`
	Passthrough      json.RawMessage `json:"passthrough,omitempty"`
	Fledge           *Fledge         `json:"fledge,omitempty"`
	SeatNonBid       []SeatNonBid    `json:"seatnonbid,omitempty"`
}

// Fledge carries the auction configs of the original protected audience format.
type Fledge struct {
	AuctionConfigs []*FledgeAuctionConfig `json:"auctionconfigs,omitempty"`
}

type FledgeAuctionConfig struct {
	ImpId   string          `json:"impid"`
	Bidder  string          `json:"bidder,omitempty"`
	Adapter string          `json:"adapter,omitempty"`
	Config  json.RawMessage `json:"config"`
}

type ExtBidderMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ExtHttpCall is one entry of ext.debug.httpcalls, recorded by bidders and by the cache client.
type ExtHttpCall struct {
	Uri            string              `json:"uri"`
	RequestBody    string              `json:"requestbody"`
	RequestHeaders map[string][]string `json:"requestheaders"`
	ResponseBody   string              `json:"responsebody"`
	Status         int                 `json:"status"`
}

// NonBidObject copies the fields of a dropped bid that are reported back, plus its price
// before currency conversion.
type NonBidObject struct {
	Price   float64                 `json:"price,omitempty"`
	ADomain []string                `json:"adomain,omitempty"`
	CatTax  adcom1.CategoryTaxonomy `json:"cattax,omitempty"`
	Cat     []string                `json:"cat,omitempty"`
	DealID  string                  `json:"dealid,omitempty"`
	W       int64                   `json:"w,omitempty"`
	H       int64                   `json:"h,omitempty"`
	Dur     int64                   `json:"dur,omitempty"`
	MType   openrtb2.MarkupType     `json:"mtype,omitempty"`

	OriginalBidCPM float64 `json:"origbidcpm,omitempty"`
	OriginalBidCur string  `json:"origbidcur,omitempty"`
}

type ExtResponseNonBidPrebid struct {
	Bid NonBidObject `json:"bid"`
}

type NonBidExt struct {
	Prebid ExtResponseNonBidPrebid `json:"prebid"`
}

// NonBid explains with a status code why a bid of an imp is absent from the response.
type NonBid struct {
	ImpId      string     `json:"impid"`
	StatusCode int        `json:"statuscode"`
	Ext        *NonBidExt `json:"ext,omitempty"`
}

type SeatNonBid struct {
	NonBid []NonBid        `json:"nonbid"`
	Seat   string          `json:"seat"`
	Ext    json.RawMessage `json:"ext,omitempty"`
}
