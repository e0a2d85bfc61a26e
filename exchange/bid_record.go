package exchange

import (
	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/prebid/prebid-response-engine/openrtb_ext"
)

// BidRecord is one bid projected for ranking, caching and response building. Records are values:
// later stages attach their results through the withX helpers, which return copies.
type BidRecord struct {
	Bid            *openrtb2.Bid
	BidType        openrtb_ext.BidType
	Bidder         openrtb_ext.BidderName
	Seat           string
	Imp            *openrtb2.Imp
	BidMeta        *openrtb_ext.ExtBidPrebidMeta
	BidVideo       *openrtb_ext.ExtBidPrebidVideo
	DealPriority   int
	GeneratedBidID string
	OriginalBidCPM float64
	OriginalBidCur string

	TTL     *int
	VastTTL *int

	// Category is the category duration label, empty when the bid was not classified.
	Category          string
	PrioritySatisfied bool

	Rank      int
	Targeting *TargetingInfo
	Cache     *CacheInfo
}

// TargetingInfo is the outcome of the cross bidder ranking for one bid.
type TargetingInfo struct {
	TargetingEnabled    bool
	Winning             bool
	AddTargetBidderCode bool
	BidderCode          string
	Seat                string
}

// CacheInfo holds the prebid cache ids of a bid. Empty ids mean the asset was not cached.
type CacheInfo struct {
	CacheID      string
	VideoCacheID string
	TTL          *int
	VideoTTL     *int
}

// SeatResponse gathers the records of one (bidder, seat) pair and the diagnostics of the bidder.
type SeatResponse struct {
	Bidder               openrtb_ext.BidderName
	Seat                 string
	AdapterCode          string
	Bids                 []*BidRecord
	HttpCalls            []*openrtb_ext.ExtHttpCall
	Errors               []error
	Warnings             []error
	FledgeAuctionConfigs []*openrtb_ext.FledgeAuctionConfig
	Igi                  []*openrtb_ext.ExtIgi
	ResponseTimeMillis   int
}

func (r *BidRecord) withRank(rank int) *BidRecord {
	copied := *r
	copied.Rank = rank
	return &copied
}

func (r *BidRecord) withTargeting(info *TargetingInfo) *BidRecord {
	copied := *r
	copied.Targeting = info
	return &copied
}

func (r *BidRecord) withCache(info CacheInfo) *BidRecord {
	copied := *r
	copied.Cache = &info
	return &copied
}

// effectiveBidID is the id exposed to events and caches: the generated one when present.
func (r *BidRecord) effectiveBidID() string {
	if r.GeneratedBidID != "" {
		return r.GeneratedBidID
	}
	return r.Bid.ID
}

// isWinning is false until the records are ranked.
func (r *BidRecord) isWinning() bool {
	return r.Targeting != nil && r.Targeting.Winning
}

func (sr *SeatResponse) withBids(bids []*BidRecord) *SeatResponse {
	copied := *sr
	copied.Bids = bids
	return &copied
}

// allRecords flattens the records of the seat responses, in seat order.
func allRecords(seats []*SeatResponse) []*BidRecord {
	var records []*BidRecord
	for _, seat := range seats {
		records = append(records, seat.Bids...)
	}
	return records
}

// replaceRecords returns copies of the seat responses holding the records returned by fn. Records
// for which fn returns nil are removed.
func replaceRecords(seats []*SeatResponse, fn func(*BidRecord) *BidRecord) []*SeatResponse {
	result := make([]*SeatResponse, 0, len(seats))
	for _, seat := range seats {
		bids := make([]*BidRecord, 0, len(seat.Bids))
		for _, record := range seat.Bids {
			if replaced := fn(record); replaced != nil {
				bids = append(bids, replaced)
			}
		}
		result = append(result, seat.withBids(bids))
	}
	return result
}
