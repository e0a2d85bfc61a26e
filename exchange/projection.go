package exchange

import (
	"github.com/tidwall/gjson"

	"github.com/prebid/prebid-response-engine/exchange/entities"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
)

type seatKey struct {
	bidder openrtb_ext.BidderName
	seat   string
}

// projectBidderResponses turns the bidder responses into one SeatResponse per (bidder, seat) pair.
// The diagnostics of a bidder are attached to the seat named after the bidder, which always exists.
// A bid for an imp missing from the request aborts the projection.
func projectBidderResponses(ac *auctionContext, responses []*entities.BidderResponse, categories CategoryMappingResult, ttl ttlResolver) ([]*SeatResponse, error) {
	var seats []*SeatResponse
	index := make(map[seatKey]*SeatResponse)
	seatFor := func(bidder openrtb_ext.BidderName, seat string) *SeatResponse {
		key := seatKey{bidder: bidder, seat: seat}
		if sr, ok := index[key]; ok {
			return sr
		}
		sr := &SeatResponse{Bidder: bidder, Seat: seat, AdapterCode: bidder.String()}
		index[key] = sr
		seats = append(seats, sr)
		return sr
	}

	for _, response := range responses {
		if response == nil {
			continue
		}
		primary := seatFor(response.Bidder, response.Bidder.String())
		if response.ResponseTimeMillis > primary.ResponseTimeMillis {
			primary.ResponseTimeMillis = response.ResponseTimeMillis
		}
		if response.SeatBid == nil {
			continue
		}

		seatBid := response.SeatBid
		primary.HttpCalls = append(primary.HttpCalls, seatBid.HttpCalls...)
		primary.Errors = append(primary.Errors, seatBid.Errors...)
		primary.Warnings = append(primary.Warnings, seatBid.Warnings...)
		primary.FledgeAuctionConfigs = append(primary.FledgeAuctionConfigs, seatBid.FledgeAuctionConfigs...)
		primary.Igi = append(primary.Igi, seatBid.Igi...)

		for _, pbsBid := range seatBid.Bids {
			if pbsBid == nil || pbsBid.Bid == nil {
				continue
			}
			imp, err := ac.imp(pbsBid.Bid.ImpID)
			if err != nil {
				return nil, err
			}
			sr := seatFor(response.Bidder, seatOf(pbsBid, response.Bidder))
			if len(sr.Bids) == 0 {
				sr.AdapterCode = adapterCodeOf(pbsBid, response.Bidder)
			}
			sr.Bids = append(sr.Bids, &BidRecord{
				Bid:               pbsBid.Bid,
				BidType:           pbsBid.BidType,
				Bidder:            response.Bidder,
				Seat:              sr.Seat,
				Imp:               imp,
				BidMeta:           pbsBid.BidMeta,
				BidVideo:          pbsBid.BidVideo,
				DealPriority:      pbsBid.DealPriority,
				GeneratedBidID:    pbsBid.GeneratedBidID,
				OriginalBidCPM:    pbsBid.OriginalBidCPM,
				OriginalBidCur:    pbsBid.OriginalBidCur,
				TTL:               ttl.resolveTTL(pbsBid.Bid, imp, pbsBid.BidType),
				VastTTL:           ttl.resolveVastTTL(pbsBid.Bid, imp, pbsBid.BidType),
				Category:          categories.Categories[pbsBid],
				PrioritySatisfied: categories.PrioritySatisfied[pbsBid],
			})
		}
	}
	return seats, nil
}

// adapterCodeOf reads the adapter code of a bid from its meta, falling back to the bidder name.
func adapterCodeOf(pbsBid *entities.PbsOrtbBid, bidder openrtb_ext.BidderName) string {
	if pbsBid.BidMeta != nil && pbsBid.BidMeta.AdapterCode != "" {
		return pbsBid.BidMeta.AdapterCode
	}
	if code := gjson.GetBytes(pbsBid.Bid.Ext, "prebid.meta.adaptercode").String(); code != "" {
		return code
	}
	return bidder.String()
}

// hasBids tells whether any seat holds a bid.
func hasBids(seats []*SeatResponse) bool {
	for _, seat := range seats {
		if len(seat.Bids) > 0 {
			return true
		}
	}
	return false
}
