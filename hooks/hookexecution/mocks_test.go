package hookexecution

import (
	"context"
	"errors"
	"time"

	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/exchange/entities"
	"github.com/prebid/prebid-response-engine/hooks"
	"github.com/prebid/prebid-response-engine/hooks/hookanalytics"
	"github.com/prebid/prebid-response-engine/hooks/hookstage"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
)

type mockUpdateBidsHook struct {
	minPrice float64
}

func (h mockUpdateBidsHook) HandleProcessedBidderResponseHook(_ context.Context, _ hookstage.ModuleInvocationContext, payload hookstage.ProcessedBidderResponsePayload) (hookstage.HookResult[hookstage.ProcessedBidderResponsePayload], error) {
	kept := make([]*entities.PbsOrtbBid, 0)
	for _, bid := range payload.BidResponse.Bids {
		if bid.Bid.Price >= h.minPrice {
			kept = append(kept, bid)
		}
	}

	c := hookstage.ChangeSet[hookstage.ProcessedBidderResponsePayload]{}
	c.ProcessedBidderResponse().Bids().UpdateBids(kept)
	return hookstage.HookResult[hookstage.ProcessedBidderResponsePayload]{ChangeSet: c}, nil
}

type mockRemoveBidHook struct {
	bidID string
}

func (h mockRemoveBidHook) HandleProcessedBidderResponseHook(_ context.Context, _ hookstage.ModuleInvocationContext, _ hookstage.ProcessedBidderResponsePayload) (hookstage.HookResult[hookstage.ProcessedBidderResponsePayload], error) {
	c := hookstage.ChangeSet[hookstage.ProcessedBidderResponsePayload]{}
	c.ProcessedBidderResponse().Bids().RemoveBids(h.bidID)
	return hookstage.HookResult[hookstage.ProcessedBidderResponsePayload]{
		ChangeSet:     c,
		AnalyticsTags: hookanalytics.Analytics{Activities: []hookanalytics.Activity{{Name: "remove-bid", Status: hookanalytics.ActivityStatusSuccess}}},
	}, nil
}

type mockRejectHook struct{}

func (h mockRejectHook) HandleProcessedBidderResponseHook(_ context.Context, _ hookstage.ModuleInvocationContext, _ hookstage.ProcessedBidderResponsePayload) (hookstage.HookResult[hookstage.ProcessedBidderResponsePayload], error) {
	return hookstage.HookResult[hookstage.ProcessedBidderResponsePayload]{Reject: true, NbrCode: 300}, nil
}

func (h mockRejectHook) HandleAllProcessedBidResponsesHook(_ context.Context, _ hookstage.ModuleInvocationContext, _ hookstage.AllProcessedBidResponsesPayload) (hookstage.HookResult[hookstage.AllProcessedBidResponsesPayload], error) {
	return hookstage.HookResult[hookstage.AllProcessedBidResponsesPayload]{Reject: true}, nil
}

type mockNoActionHook struct{}

func (h mockNoActionHook) HandleProcessedBidderResponseHook(_ context.Context, _ hookstage.ModuleInvocationContext, _ hookstage.ProcessedBidderResponsePayload) (hookstage.HookResult[hookstage.ProcessedBidderResponsePayload], error) {
	return hookstage.HookResult[hookstage.ProcessedBidderResponsePayload]{Message: "nothing to do", DebugMessages: []string{"looked at bids"}}, nil
}

func (h mockNoActionHook) HandleAllProcessedBidResponsesHook(_ context.Context, _ hookstage.ModuleInvocationContext, _ hookstage.AllProcessedBidResponsesPayload) (hookstage.HookResult[hookstage.AllProcessedBidResponsesPayload], error) {
	return hookstage.HookResult[hookstage.AllProcessedBidResponsesPayload]{}, nil
}

type mockTimeoutHook struct{}

func (h mockTimeoutHook) HandleProcessedBidderResponseHook(_ context.Context, _ hookstage.ModuleInvocationContext, _ hookstage.ProcessedBidderResponsePayload) (hookstage.HookResult[hookstage.ProcessedBidderResponsePayload], error) {
	time.Sleep(50 * time.Millisecond)
	c := hookstage.ChangeSet[hookstage.ProcessedBidderResponsePayload]{}
	c.ProcessedBidderResponse().Bids().UpdateBids(nil)
	return hookstage.HookResult[hookstage.ProcessedBidderResponsePayload]{ChangeSet: c}, nil
}

type mockFailureHook struct{}

func (h mockFailureHook) HandleProcessedBidderResponseHook(_ context.Context, _ hookstage.ModuleInvocationContext, _ hookstage.ProcessedBidderResponsePayload) (hookstage.HookResult[hookstage.ProcessedBidderResponsePayload], error) {
	return hookstage.HookResult[hookstage.ProcessedBidderResponsePayload]{}, NewFailure("attribute not found")
}

type mockErrorHook struct{}

func (h mockErrorHook) HandleProcessedBidderResponseHook(_ context.Context, _ hookstage.ModuleInvocationContext, _ hookstage.ProcessedBidderResponsePayload) (hookstage.HookResult[hookstage.ProcessedBidderResponsePayload], error) {
	return hookstage.HookResult[hookstage.ProcessedBidderResponsePayload]{}, errors.New("unexpected error")
}

type mockPanicHook struct{}

func (h mockPanicHook) HandleProcessedBidderResponseHook(_ context.Context, _ hookstage.ModuleInvocationContext, _ hookstage.ProcessedBidderResponsePayload) (hookstage.HookResult[hookstage.ProcessedBidderResponsePayload], error) {
	panic("boom")
}

type mockFailedMutationHook struct{}

func (h mockFailedMutationHook) HandleProcessedBidderResponseHook(_ context.Context, _ hookstage.ModuleInvocationContext, _ hookstage.ProcessedBidderResponsePayload) (hookstage.HookResult[hookstage.ProcessedBidderResponsePayload], error) {
	c := hookstage.ChangeSet[hookstage.ProcessedBidderResponsePayload]{}
	c.AddMutation(func(payload hookstage.ProcessedBidderResponsePayload) (hookstage.ProcessedBidderResponsePayload, error) {
		return payload, errors.New("key not found")
	}, hookstage.MutationUpdate, "bidderResponse", "bid", "ext")
	return hookstage.HookResult[hookstage.ProcessedBidderResponsePayload]{ChangeSet: c}, nil
}

type mockModuleContextHook struct {
	key, val string
}

func (h mockModuleContextHook) HandleProcessedBidderResponseHook(_ context.Context, miCtx hookstage.ModuleInvocationContext, _ hookstage.ProcessedBidderResponsePayload) (hookstage.HookResult[hookstage.ProcessedBidderResponsePayload], error) {
	moduleCtx := hookstage.NewModuleContext()
	moduleCtx.Set(h.key, h.val)
	return hookstage.HookResult[hookstage.ProcessedBidderResponsePayload]{ModuleContext: moduleCtx}, nil
}

func (h mockModuleContextHook) HandleAllProcessedBidResponsesHook(_ context.Context, miCtx hookstage.ModuleInvocationContext, _ hookstage.AllProcessedBidResponsesPayload) (hookstage.HookResult[hookstage.AllProcessedBidResponsesPayload], error) {
	var messages []string
	if miCtx.ModuleContext != nil {
		if v, ok := miCtx.ModuleContext.Get(h.key); ok {
			messages = append(messages, v.(string))
		}
	}
	return hookstage.HookResult[hookstage.AllProcessedBidResponsesPayload]{DebugMessages: messages}, nil
}

type mockRemoveBidderHook struct {
	bidder openrtb_ext.BidderName
}

func (h mockRemoveBidderHook) HandleAllProcessedBidResponsesHook(_ context.Context, _ hookstage.ModuleInvocationContext, _ hookstage.AllProcessedBidResponsesPayload) (hookstage.HookResult[hookstage.AllProcessedBidResponsesPayload], error) {
	c := hookstage.ChangeSet[hookstage.AllProcessedBidResponsesPayload]{}
	c.AllProcessedBidResponses().RemoveBidder(h.bidder)
	return hookstage.HookResult[hookstage.AllProcessedBidResponsesPayload]{ChangeSet: c}, nil
}

// mockPlanBuilder serves fixed plans for both stages.
type mockPlanBuilder struct {
	processed    hooks.Plan[hookstage.ProcessedBidderResponse]
	allProcessed hooks.Plan[hookstage.AllProcessedBidResponses]
}

func (b mockPlanBuilder) PlanForProcessedBidderResponseStage(_ *config.Account) hooks.Plan[hookstage.ProcessedBidderResponse] {
	return b.processed
}

func (b mockPlanBuilder) PlanForAllProcessedBidResponsesStage(_ *config.Account) hooks.Plan[hookstage.AllProcessedBidResponses] {
	return b.allProcessed
}

func processedGroup(timeout time.Duration, wrappers ...hooks.HookWrapper[hookstage.ProcessedBidderResponse]) hooks.Group[hookstage.ProcessedBidderResponse] {
	return hooks.Group[hookstage.ProcessedBidderResponse]{Timeout: timeout, Hooks: wrappers}
}

func allProcessedGroup(timeout time.Duration, wrappers ...hooks.HookWrapper[hookstage.AllProcessedBidResponses]) hooks.Group[hookstage.AllProcessedBidResponses] {
	return hooks.Group[hookstage.AllProcessedBidResponses]{Timeout: timeout, Hooks: wrappers}
}

func testBidderResponse(bidder string, prices ...float64) *entities.BidderResponse {
	bids := make([]*entities.PbsOrtbBid, 0, len(prices))
	for i, price := range prices {
		bids = append(bids, &entities.PbsOrtbBid{
			Bid:     &openrtb2.Bid{ID: bidder + "-" + string(rune('a'+i)), ImpID: "imp1", Price: price},
			BidType: openrtb_ext.BidTypeBanner,
		})
	}
	return &entities.BidderResponse{
		Bidder:  openrtb_ext.BidderName(bidder),
		SeatBid: &entities.PbsOrtbSeatBid{Bids: bids, Currency: "USD"},
	}
}
