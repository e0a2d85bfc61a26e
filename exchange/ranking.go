package exchange

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/prebid/prebid-response-engine/openrtb_ext"
)

// bidComparator orders two records, the better one first.
type bidComparator func(a, b *BidRecord) int

// winningBidComparator orders by price, deal bids first when deals are preferred. Ties are broken by
// bid id then seat so the order is total.
func winningBidComparator(preferDeals bool) bidComparator {
	return func(a, b *BidRecord) int {
		if preferDeals {
			aDeal, bDeal := a.Bid.DealID != "", b.Bid.DealID != ""
			if aDeal != bDeal {
				if aDeal {
					return -1
				}
				return 1
			}
		}
		if c := cmp.Compare(b.Bid.Price, a.Bid.Price); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Bid.ID, b.Bid.ID); c != 0 {
			return c
		}
		return cmp.Compare(a.Seat, b.Seat)
	}
}

// impGroup is the records of one seat for one imp, best first.
type impGroup struct {
	impID   string
	records []*BidRecord
}

// groupByImp groups the records by imp id, in order of first appearance.
func groupByImp(records []*BidRecord) []*impGroup {
	var groups []*impGroup
	byImp := make(map[string]*impGroup)
	for _, record := range records {
		group, ok := byImp[record.Bid.ImpID]
		if !ok {
			group = &impGroup{impID: record.Bid.ImpID}
			byImp[record.Bid.ImpID] = group
			groups = append(groups, group)
		}
		group.records = append(group.records, record)
	}
	return groups
}

// rankBids limits the bids of each seat per imp to the multibid max bids of its bidder, ranks the
// survivors of every imp across seats and assigns their targeting info. Bids over the limit are
// reported as seat non bids.
func rankBids(seats []*SeatResponse, compare bidComparator, policies openrtb_ext.MultiBidPolicies, seatNonBids *openrtb_ext.SeatNonBidBuilder) []*SeatResponse {
	limited := make([][]*impGroup, len(seats))
	for i, seat := range seats {
		limited[i] = limitMultiBid(seat, compare, policies.For(seat.Bidder.String()).MaxBids, seatNonBids)
	}

	ranks := assignRanks(limited, compare)

	result := make([]*SeatResponse, 0, len(seats))
	for i, seat := range seats {
		prefix := policies.For(seat.Bidder.String()).TargetBidderCodePrefix
		var bids []*BidRecord
		for _, group := range limited[i] {
			for position, record := range group.records {
				rank := ranks[record]
				info := makeTargetingInfo(seat, prefix, position, len(group.records), rank)
				bids = append(bids, record.withRank(rank).withTargeting(info))
			}
		}
		result = append(result, seat.withBids(bids))
	}
	return result
}

// limitMultiBid sorts the records of each imp and keeps the maxBids best ones.
func limitMultiBid(seat *SeatResponse, compare bidComparator, maxBids int, seatNonBids *openrtb_ext.SeatNonBidBuilder) []*impGroup {
	if maxBids < openrtb_ext.DefaultBidLimit {
		maxBids = openrtb_ext.DefaultBidLimit
	}
	groups := groupByImp(seat.Bids)
	for _, group := range groups {
		slices.SortStableFunc(group.records, compare)
		if len(group.records) <= maxBids {
			continue
		}
		for _, dropped := range group.records[maxBids:] {
			seatNonBids.AddBid(openrtb_ext.NewNonBid(openrtb_ext.NonBidParams{
				Bid:            dropped.Bid,
				NonBidReason:   openrtb_ext.ResponseRejectedGeneral,
				OriginalBidCPM: dropped.OriginalBidCPM,
				OriginalBidCur: dropped.OriginalBidCur,
			}), seat.Seat)
		}
		group.records = group.records[:maxBids]
	}
	return groups
}

// assignRanks sorts the survivors of every imp across seats and numbers them from 1.
func assignRanks(limited [][]*impGroup, compare bidComparator) map[*BidRecord]int {
	byImp := make(map[string][]*BidRecord)
	for _, groups := range limited {
		for _, group := range groups {
			byImp[group.impID] = append(byImp[group.impID], group.records...)
		}
	}

	ranks := make(map[*BidRecord]int)
	for _, records := range byImp {
		slices.SortStableFunc(records, compare)
		for i, record := range records {
			ranks[record] = i + 1
		}
	}
	return ranks
}

// makeTargetingInfo gives the first bid of a seat the real bidder code. The following ones get
// "<prefix><position>" when a target bidder code prefix is set and no targeting otherwise.
func makeTargetingInfo(seat *SeatResponse, prefix string, position, groupSize, rank int) *TargetingInfo {
	bidderCode := seat.Bidder.String()
	targetingSeat := seat.Seat
	if position > 0 {
		bidderCode = ""
		targetingSeat = seat.Seat
		if prefix != "" {
			bidderCode = prefix + strconv.Itoa(position+1)
			targetingSeat = bidderCode
		}
	}
	return &TargetingInfo{
		TargetingEnabled:    bidderCode != "",
		Winning:             position == 0 && rank == 1,
		AddTargetBidderCode: bidderCode != "" && groupSize > 1,
		BidderCode:          bidderCode,
		Seat:                targetingSeat,
	}
}
