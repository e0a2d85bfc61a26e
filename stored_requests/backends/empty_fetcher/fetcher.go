package empty_fetcher

import (
	"context"
	"encoding/json"

	"github.com/prebid/prebid-response-engine/stored_requests"
)

// EmptyFetcher is a nil-object which has no stored data.
// If the engine is configured to use this, stored video attributes are never echoed and no IAB
// category is translated.
type EmptyFetcher struct{}

func (fetcher EmptyFetcher) FetchImps(ctx context.Context, impIDs []string) (impData map[string]json.RawMessage, errs []error) {
	errs = make([]error, 0, len(impIDs))
	for _, id := range impIDs {
		errs = append(errs, stored_requests.NotFoundError{
			ID:       id,
			DataType: "Imp",
		})
	}
	return
}

func (fetcher EmptyFetcher) FetchCategories(ctx context.Context, primaryAdServer, publisherId, iabCategory string) (string, error) {
	return "", stored_requests.CategoryNotFoundError{PrimaryAdServer: primaryAdServer, PublisherID: publisherId, IABCategory: iabCategory}
}
