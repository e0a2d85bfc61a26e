package exchange

import (
	"runtime/debug"

	"github.com/golang/glog"

	"github.com/prebid/prebid-response-engine/exchange/entities"
	"github.com/prebid/prebid-response-engine/hooks/hookexecution"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
)

// hookResponseWrapper carries the result of the processed bidder response stage of one response.
type hookResponseWrapper struct {
	index    int
	response *entities.BidderResponse
	reject   *hookexecution.RejectError
}

// invokeBidderResponseHooks runs the processed bidder response stage for every response at the same
// time, waits for all of them and then runs the all processed bid responses stage. The bids of a
// rejected response are reported as seat non bids.
func invokeBidderResponseHooks(executor hookexecution.StageExecutor, responses []*entities.BidderResponse, seatNonBids *openrtb_ext.SeatNonBidBuilder) []*entities.BidderResponse {
	if executor == nil {
		return responses
	}

	chResponses := make(chan hookResponseWrapper, len(responses))
	for i, response := range responses {
		go recoverHookPanic(i, response, chResponses, func() {
			processed, reject := executor.ExecuteProcessedBidderResponseStage(response)
			chResponses <- hookResponseWrapper{index: i, response: processed, reject: reject}
		})
	}

	processed := make([]*entities.BidderResponse, len(responses))
	for range responses {
		hrw := <-chResponses
		if hrw.reject != nil {
			addRejectedBids(seatNonBids, hrw.response)
			processed[hrw.index] = rejectResponse(hrw.response)
			continue
		}
		processed[hrw.index] = hrw.response
	}

	return executor.ExecuteAllProcessedBidResponsesStage(processed)
}

// recoverHookPanic keeps the response unchanged when the stage panics.
func recoverHookPanic(index int, response *entities.BidderResponse, chResponses chan<- hookResponseWrapper, inner func()) {
	defer func() {
		if r := recover(); r != nil {
			var bidder openrtb_ext.BidderName
			if response != nil {
				bidder = response.Bidder
			}
			glog.Errorf("Processed bidder response hooks recovered panic for bidder %s: %v. Stack trace is: %v", bidder, r, string(debug.Stack()))
			chResponses <- hookResponseWrapper{index: index, response: response}
		}
	}()
	inner()
}

// rejectResponse returns the response without bids. Diagnostics are kept.
func rejectResponse(response *entities.BidderResponse) *entities.BidderResponse {
	if response == nil || response.SeatBid == nil {
		return response
	}
	return response.WithSeatBid(response.SeatBid.WithBids([]*entities.PbsOrtbBid{}))
}

func addRejectedBids(seatNonBids *openrtb_ext.SeatNonBidBuilder, response *entities.BidderResponse) {
	for _, pbsBid := range response.Bids() {
		seatNonBids.AddBid(openrtb_ext.NewNonBid(openrtb_ext.NonBidParams{
			Bid:            pbsBid.Bid,
			NonBidReason:   openrtb_ext.ResponseRejectedGeneral,
			OriginalBidCPM: pbsBid.OriginalBidCPM,
			OriginalBidCur: pbsBid.OriginalBidCur,
		}), seatOf(pbsBid, response.Bidder))
	}
}

// seatOf returns the seat of the bid, the bidder when the adapter did not set one.
func seatOf(pbsBid *entities.PbsOrtbBid, bidder openrtb_ext.BidderName) string {
	if pbsBid.Seat != "" {
		return pbsBid.Seat
	}
	return bidder.String()
}
