package exchange

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prebid/prebid-response-engine/exchange/entities"
	"github.com/prebid/prebid-response-engine/hooks/hookexecution"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
)

// mockStageExecutor rejects the listed bidders, panics for the panicking ones and drops the bids
// priced under minPrice in the all processed bid responses stage.
type mockStageExecutor struct {
	mu        sync.Mutex
	reject    map[openrtb_ext.BidderName]bool
	panicking map[openrtb_ext.BidderName]bool
	minPrice  float64
	calls     int
	outcomes  []hookexecution.StageOutcome
}

func (e *mockStageExecutor) ExecuteProcessedBidderResponseStage(response *entities.BidderResponse) (*entities.BidderResponse, *hookexecution.RejectError) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.panicking[response.Bidder] {
		panic("hook failure")
	}
	if e.reject[response.Bidder] {
		return response, &hookexecution.RejectError{NBR: 300, Stage: "processed_bidder_response"}
	}
	return response, nil
}

func (e *mockStageExecutor) ExecuteAllProcessedBidResponsesStage(responses []*entities.BidderResponse) []*entities.BidderResponse {
	result := make([]*entities.BidderResponse, 0, len(responses))
	for _, response := range responses {
		var bids []*entities.PbsOrtbBid
		for _, bid := range response.Bids() {
			if bid.Bid.Price >= e.minPrice {
				bids = append(bids, bid)
			}
		}
		result = append(result, response.WithSeatBid(response.SeatBid.WithBids(bids)))
	}
	return result
}

func (e *mockStageExecutor) GetOutcomes() []hookexecution.StageOutcome {
	return e.outcomes
}

func TestInvokeBidderResponseHooks(t *testing.T) {
	testCases := []struct {
		description       string
		executor          *mockStageExecutor
		expectedBids      map[openrtb_ext.BidderName][]string
		expectedNonBidFor []string
	}{
		{
			description: "no hook changes",
			executor:    &mockStageExecutor{},
			expectedBids: map[openrtb_ext.BidderName][]string{
				"appnexus": {"a-1", "a-2"},
				"rubicon":  {"r-1"},
			},
		},
		{
			description: "rejected bidder keeps its diagnostics without bids",
			executor:    &mockStageExecutor{reject: map[openrtb_ext.BidderName]bool{"appnexus": true}},
			expectedBids: map[openrtb_ext.BidderName][]string{
				"appnexus": nil,
				"rubicon":  {"r-1"},
			},
			expectedNonBidFor: []string{"appnexus"},
		},
		{
			description: "panicking hook keeps the response",
			executor:    &mockStageExecutor{panicking: map[openrtb_ext.BidderName]bool{"rubicon": true}},
			expectedBids: map[openrtb_ext.BidderName][]string{
				"appnexus": {"a-1", "a-2"},
				"rubicon":  {"r-1"},
			},
		},
		{
			description: "all processed stage filters bids",
			executor:    &mockStageExecutor{minPrice: 2},
			expectedBids: map[openrtb_ext.BidderName][]string{
				"appnexus": {"a-2"},
				"rubicon":  {"r-1"},
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			responses := []*entities.BidderResponse{
				bidderResponse("appnexus", bannerBid("a-1", "imp-1", 1), bannerBid("a-2", "imp-1", 2)),
				bidderResponse("rubicon", bannerBid("r-1", "imp-1", 3)),
			}
			responses[0].SeatBid.Errors = []error{assert.AnError}
			seatNonBids := &openrtb_ext.SeatNonBidBuilder{}

			processed := invokeBidderResponseHooks(test.executor, responses, seatNonBids)

			require.Len(t, processed, 2)
			assert.Equal(t, 2, test.executor.calls)
			for _, response := range processed {
				var ids []string
				for _, bid := range response.Bids() {
					ids = append(ids, bid.Bid.ID)
				}
				assert.Equal(t, test.expectedBids[response.Bidder], ids, response.Bidder)
			}
			assert.Equal(t, []error{assert.AnError}, processed[0].SeatBid.Errors)
			assert.Len(t, responses[0].SeatBid.Bids, 2, "the input responses are not modified")

			var nonBidSeats []string
			for _, seat := range seatNonBids.Get() {
				nonBidSeats = append(nonBidSeats, seat.Seat)
				for _, nonBid := range seat.NonBid {
					assert.Equal(t, int(openrtb_ext.ResponseRejectedGeneral), nonBid.StatusCode)
				}
			}
			assert.Equal(t, test.expectedNonBidFor, nonBidSeats)
		})
	}
}

func TestInvokeBidderResponseHooksWithoutExecutor(t *testing.T) {
	responses := []*entities.BidderResponse{bidderResponse("appnexus", bannerBid("a-1", "imp-1", 1))}

	processed := invokeBidderResponseHooks(nil, responses, &openrtb_ext.SeatNonBidBuilder{})

	assert.Equal(t, responses, processed)
}

func TestSeatOf(t *testing.T) {
	bid := bannerBid("a-1", "imp-1", 1)
	assert.Equal(t, "appnexus", seatOf(bid, "appnexus"))

	bid.Seat = "groupm"
	assert.Equal(t, "groupm", seatOf(bid, "appnexus"))
}
