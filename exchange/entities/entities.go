package entities

import (
	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
)

// BidderResponse is everything one bidder returned for the auction. It is the input of the
// response assembly and the payload handed to the bidder response hooks.
type BidderResponse struct {
	Bidder             openrtb_ext.BidderName
	SeatBid            *PbsOrtbSeatBid
	ResponseTimeMillis int
}

// PbsOrtbSeatBid is a SeatBid returned by an AdaptedBidder.
//
// This is distinct from the openrtb2.SeatBid so that the prebid fields (bid type, seat, deal priority)
// travel with each bid until the response is built.
//
// PbsOrtbSeatBid.Bids.Bid.Ext will become "response.seatbid[i].bid.ext.bidder" in the final OpenRTB response.
type PbsOrtbSeatBid struct {
	// Bids is the list of bids which this adaptedBidder wishes to make.
	Bids []*PbsOrtbBid
	// Currency is the currency in which the bids are made.
	// Should be a valid currency ISO code.
	Currency string
	// HttpCalls is the list of debugging info. It should only be populated if the request.test == 1.
	// This will become response.ext.debug.httpcalls.{bidder} on the final Response.
	HttpCalls []*openrtb_ext.ExtHttpCall
	// FledgeAuctionConfigs are the deprecated protected audience signals of the bidder.
	FledgeAuctionConfigs []*openrtb_ext.FledgeAuctionConfig
	// Igi holds the interest group signals of the bidder.
	Igi []*openrtb_ext.ExtIgi
	// Errors and Warnings reported by the adapter. They are returned under the bidder name.
	Errors   []error
	Warnings []error
}

// PbsOrtbBid is a Bid returned by an AdaptedBidder.
//
// PbsOrtbBid.Bid.Ext will become "response.seatbid[i].bid.ext.bidder" in the final OpenRTB response.
// PbsOrtbBid.BidMeta will become "response.seatbid[i].bid.ext.prebid.meta" in the final OpenRTB response.
// PbsOrtbBid.BidType will become "response.seatbid[i].bid.ext.prebid.type" in the final OpenRTB response.
// PbsOrtbBid.BidVideo is optional but should be filled out by the Adapter if BidType is video.
// PbsOrtbBid.DealPriority is optionally provided by adapters and used internally by the exchange to support deal targeted campaigns.
// PbsOrtbBid.GeneratedBidID is set during the enrichment when host bid id generation is enabled.
// PbsOrtbBid.Seat is the seat the bid is returned under. Empty means the bidder itself.
type PbsOrtbBid struct {
	Bid            *openrtb2.Bid
	BidMeta        *openrtb_ext.ExtBidPrebidMeta
	BidType        openrtb_ext.BidType
	BidVideo       *openrtb_ext.ExtBidPrebidVideo
	DealPriority   int
	GeneratedBidID string
	OriginalBidCPM float64
	OriginalBidCur string
	Seat           string
}

// WithBid returns a copy of the PbsOrtbBid holding the given openrtb2.Bid.
func (b *PbsOrtbBid) WithBid(bid *openrtb2.Bid) *PbsOrtbBid {
	copied := *b
	copied.Bid = bid
	return &copied
}

// WithBids returns a copy of the seat bid holding the given bids. Diagnostics are shared.
func (sb *PbsOrtbSeatBid) WithBids(bids []*PbsOrtbBid) *PbsOrtbSeatBid {
	copied := *sb
	copied.Bids = bids
	return &copied
}

// WithSeatBid returns a copy of the bidder response holding the given seat bid.
func (r *BidderResponse) WithSeatBid(seatBid *PbsOrtbSeatBid) *BidderResponse {
	copied := *r
	copied.SeatBid = seatBid
	return &copied
}

// Bids returns the bids of the response, nil safe.
func (r *BidderResponse) Bids() []*PbsOrtbBid {
	if r == nil || r.SeatBid == nil {
		return nil
	}
	return r.SeatBid.Bids
}
