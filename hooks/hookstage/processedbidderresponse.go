package hookstage

import (
	"context"

	"github.com/prebid/prebid-response-engine/exchange/entities"
)

// ProcessedBidderResponse hooks are invoked once per bidder after the bids of the bidder were enriched.
// Such hooks can reject the bidder, in which case all of its bids are dropped, or rewrite its bids.
type ProcessedBidderResponse interface {
	HandleProcessedBidderResponseHook(
		context.Context,
		ModuleInvocationContext,
		ProcessedBidderResponsePayload,
	) (HookResult[ProcessedBidderResponsePayload], error)
}

// ProcessedBidderResponsePayload consists of a bidder response returned by the bidder.
// Hooks are allowed to modify the bids using the mutations of the ChangeSet.
type ProcessedBidderResponsePayload struct {
	Bidder      string
	BidResponse *entities.PbsOrtbSeatBid
}
