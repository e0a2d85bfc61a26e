package openrtb_ext

import (
	"sort"

	"github.com/prebid/openrtb/v20/openrtb2"
)

// NonBidReason lists the reasons why a bid was not returned in the response.
// Reference:  https://github.com/InteractiveAdvertisingBureau/openrtb/blob/master/extensions/community_extensions/seat-non-bid.md#list-non-bid-status-codes
type NonBidReason int64

const (
	ErrorGeneral                           NonBidReason = 100 // Error - General
	ResponseRejectedGeneral                NonBidReason = 300
	ResponseRejectedCategoryMappingInvalid NonBidReason = 303 // Response Rejected - Category Mapping Invalid
	ResponseRejectedInvalidCreative        NonBidReason = 350 // Response Rejected - Invalid Creative
)

// SeatNonBidBuilder collects the non bids of an auction per seat.
type SeatNonBidBuilder map[string][]NonBid

// NonBidParams contains the fields that are required to form the nonBid object
type NonBidParams struct {
	Bid            *openrtb2.Bid
	NonBidReason   NonBidReason
	OriginalBidCPM float64
	OriginalBidCur string
}

// NewNonBid creates the NonBid object from NonBidParams and return it
func NewNonBid(bidParams NonBidParams) NonBid {
	if bidParams.Bid == nil {
		bidParams.Bid = &openrtb2.Bid{}
	}
	return NonBid{
		ImpId:      bidParams.Bid.ImpID,
		StatusCode: int(bidParams.NonBidReason),
		Ext: &NonBidExt{
			Prebid: ExtResponseNonBidPrebid{Bid: NonBidObject{
				Price:          bidParams.Bid.Price,
				ADomain:        bidParams.Bid.ADomain,
				CatTax:         bidParams.Bid.CatTax,
				Cat:            bidParams.Bid.Cat,
				DealID:         bidParams.Bid.DealID,
				W:              bidParams.Bid.W,
				H:              bidParams.Bid.H,
				Dur:            bidParams.Bid.Dur,
				MType:          bidParams.Bid.MType,
				OriginalBidCPM: bidParams.OriginalBidCPM,
				OriginalBidCur: bidParams.OriginalBidCur,
			}},
		},
	}
}

// AddBid adds the nonBid into the map against the respective seat.
// Note: This function is not thread safe.
func (snb *SeatNonBidBuilder) AddBid(nonBid NonBid, seat string) {
	if *snb == nil {
		*snb = make(map[string][]NonBid)
	}
	(*snb)[seat] = append((*snb)[seat], nonBid)
}

// Append adds the nonBids of the given builders to the current one.
// Note: This function is not thread safe.
func (snb *SeatNonBidBuilder) Append(nonBids ...SeatNonBidBuilder) {
	for _, nonBid := range nonBids {
		for seat, seatNonBids := range nonBid {
			for _, nb := range seatNonBids {
				snb.AddBid(nb, seat)
			}
		}
	}
}

// Get converts the builder to the bidresponse.ext.prebid.seatnonbid structure, sorted by seat.
func (snb *SeatNonBidBuilder) Get() []SeatNonBid {
	if len(*snb) == 0 {
		return nil
	}
	seats := make([]string, 0, len(*snb))
	for seat := range *snb {
		seats = append(seats, seat)
	}
	sort.Strings(seats)

	seatNonBid := make([]SeatNonBid, 0, len(seats))
	for _, seat := range seats {
		seatNonBid = append(seatNonBid, SeatNonBid{
			Seat:   seat,
			NonBid: (*snb)[seat],
		})
	}
	return seatNonBid
}
