package hookstage

import (
	"errors"

	"github.com/prebid/prebid-response-engine/exchange/entities"
)

func (c *ChangeSet[T]) ProcessedBidderResponse() ChangeSetProcessedBidderResponse[T] {
	return ChangeSetProcessedBidderResponse[T]{changeSet: c}
}

type ChangeSetProcessedBidderResponse[T any] struct {
	changeSet *ChangeSet[T]
}

func (c ChangeSetProcessedBidderResponse[T]) Bids() ChangeSetBids[T] {
	return ChangeSetBids[T]{changeSetProcessedBidderResponse: c}
}

func (c ChangeSetProcessedBidderResponse[T]) castPayload(p T) (ProcessedBidderResponsePayload, error) {
	if payload, ok := any(p).(ProcessedBidderResponsePayload); ok {
		return payload, nil
	}
	return ProcessedBidderResponsePayload{}, errors.New("failed to cast ProcessedBidderResponsePayload")
}

type ChangeSetBids[T any] struct {
	changeSetProcessedBidderResponse ChangeSetProcessedBidderResponse[T]
}

// UpdateBids replaces the list of bids present in the bidder response.
func (c ChangeSetBids[T]) UpdateBids(bids []*entities.PbsOrtbBid) {
	c.changeSetProcessedBidderResponse.changeSet.AddMutation(func(p T) (T, error) {
		bidderPayload, err := c.changeSetProcessedBidderResponse.castPayload(p)
		if err != nil {
			return p, err
		}
		if bidderPayload.BidResponse != nil {
			bidderPayload.BidResponse = bidderPayload.BidResponse.WithBids(bids)
		}
		if payload, ok := any(bidderPayload).(T); ok {
			return payload, nil
		}
		return p, errors.New("failed to cast ProcessedBidderResponsePayload")
	}, MutationUpdate, "bidderResponse", "bid")
}

// RemoveBids drops the bids whose ids are listed.
func (c ChangeSetBids[T]) RemoveBids(bidIDs ...string) {
	c.changeSetProcessedBidderResponse.changeSet.AddMutation(func(p T) (T, error) {
		bidderPayload, err := c.changeSetProcessedBidderResponse.castPayload(p)
		if err != nil {
			return p, err
		}
		if bidderPayload.BidResponse != nil {
			removed := make(map[string]struct{}, len(bidIDs))
			for _, id := range bidIDs {
				removed[id] = struct{}{}
			}
			kept := make([]*entities.PbsOrtbBid, 0, len(bidderPayload.BidResponse.Bids))
			for _, bid := range bidderPayload.BidResponse.Bids {
				if _, ok := removed[bid.Bid.ID]; !ok {
					kept = append(kept, bid)
				}
			}
			bidderPayload.BidResponse = bidderPayload.BidResponse.WithBids(kept)
		}
		if payload, ok := any(bidderPayload).(T); ok {
			return payload, nil
		}
		return p, errors.New("failed to cast ProcessedBidderResponsePayload")
	}, MutationDelete, "bidderResponse", "bid")
}
