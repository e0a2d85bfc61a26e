package hookstage

import (
	"errors"

	"github.com/prebid/prebid-response-engine/exchange/entities"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
)

func (c *ChangeSet[T]) AllProcessedBidResponses() ChangeSetAllProcessedBidResponses[T] {
	return ChangeSetAllProcessedBidResponses[T]{changeSet: c}
}

type ChangeSetAllProcessedBidResponses[T any] struct {
	changeSet *ChangeSet[T]
}

func (c ChangeSetAllProcessedBidResponses[T]) castPayload(p T) (AllProcessedBidResponsesPayload, error) {
	if payload, ok := any(p).(AllProcessedBidResponsesPayload); ok {
		return payload, nil
	}
	return AllProcessedBidResponsesPayload{}, errors.New("failed to cast AllProcessedBidResponsesPayload")
}

func (c ChangeSetAllProcessedBidResponses[T]) apply(mutType MutationType, fn func([]*entities.BidderResponse) []*entities.BidderResponse) {
	c.changeSet.AddMutation(func(p T) (T, error) {
		allPayload, err := c.castPayload(p)
		if err != nil {
			return p, err
		}
		allPayload.Responses = fn(allPayload.Responses)
		if payload, ok := any(allPayload).(T); ok {
			return payload, nil
		}
		return p, errors.New("failed to cast AllProcessedBidResponsesPayload")
	}, mutType, "processedBidderResponses")
}

// UpdateResponses replaces the whole list of bidder responses.
func (c ChangeSetAllProcessedBidResponses[T]) UpdateResponses(responses []*entities.BidderResponse) {
	c.apply(MutationUpdate, func([]*entities.BidderResponse) []*entities.BidderResponse {
		return responses
	})
}

// AddResponse appends a bidder response.
func (c ChangeSetAllProcessedBidResponses[T]) AddResponse(response *entities.BidderResponse) {
	c.apply(MutationAdd, func(responses []*entities.BidderResponse) []*entities.BidderResponse {
		updated := make([]*entities.BidderResponse, 0, len(responses)+1)
		updated = append(updated, responses...)
		return append(updated, response)
	})
}

// RemoveBidder drops the responses of the given bidder.
func (c ChangeSetAllProcessedBidResponses[T]) RemoveBidder(bidder openrtb_ext.BidderName) {
	c.apply(MutationDelete, func(responses []*entities.BidderResponse) []*entities.BidderResponse {
		updated := make([]*entities.BidderResponse, 0, len(responses))
		for _, response := range responses {
			if response.Bidder != bidder {
				updated = append(updated, response)
			}
		}
		return updated
	})
}
