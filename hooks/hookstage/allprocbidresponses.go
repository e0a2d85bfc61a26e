package hookstage

import (
	"context"

	"github.com/prebid/prebid-response-engine/exchange/entities"
)

// AllProcessedBidResponses hooks are invoked once all bidder responses went through the
// ProcessedBidderResponse stage. They cannot reject the auction but may rewrite, add or drop
// whole bidder responses.
type AllProcessedBidResponses interface {
	HandleAllProcessedBidResponsesHook(
		context.Context,
		ModuleInvocationContext,
		AllProcessedBidResponsesPayload,
	) (HookResult[AllProcessedBidResponsesPayload], error)
}

// AllProcessedBidResponsesPayload consists of the responses of all bidders, in bidder order.
type AllProcessedBidResponsesPayload struct {
	Responses []*entities.BidderResponse
}
