package entities

import (
	"testing"

	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/stretchr/testify/assert"
)

func TestWithBid(t *testing.T) {
	original := &PbsOrtbBid{Bid: &openrtb2.Bid{ID: "bid-1"}, DealPriority: 5, Seat: "seat"}

	copied := original.WithBid(&openrtb2.Bid{ID: "bid-2"})

	assert.Equal(t, "bid-1", original.Bid.ID)
	assert.Equal(t, &PbsOrtbBid{Bid: &openrtb2.Bid{ID: "bid-2"}, DealPriority: 5, Seat: "seat"}, copied)
}

func TestWithBids(t *testing.T) {
	original := &PbsOrtbSeatBid{Currency: "EUR", Bids: []*PbsOrtbBid{{Bid: &openrtb2.Bid{ID: "bid-1"}}}}

	copied := original.WithBids(nil)

	assert.Len(t, original.Bids, 1)
	assert.Empty(t, copied.Bids)
	assert.Equal(t, "EUR", copied.Currency)
}

func TestBidderResponseBids(t *testing.T) {
	bids := []*PbsOrtbBid{{Bid: &openrtb2.Bid{ID: "bid-1"}}}

	testCases := []struct {
		description string
		response    *BidderResponse
		expected    []*PbsOrtbBid
	}{
		{description: "nil response"},
		{description: "no seat bid", response: &BidderResponse{Bidder: "appnexus"}},
		{description: "with bids", response: &BidderResponse{SeatBid: &PbsOrtbSeatBid{Bids: bids}}, expected: bids},
		{
			description: "replaced seat bid",
			response:    (&BidderResponse{}).WithSeatBid(&PbsOrtbSeatBid{Bids: bids}),
			expected:    bids,
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			assert.Equal(t, test.expected, test.response.Bids())
		})
	}
}
