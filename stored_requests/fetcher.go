package stored_requests

import (
	"context"
	"encoding/json"
	"fmt"
)

// Fetcher knows how to fetch Stored Imp data by id.
//
// Implementations must be safe for concurrent access by multiple goroutines.
// Callers are expected to share a single instance as much as possible.
type Fetcher interface {
	// FetchImps fetches the stored imps for the given IDs.
	//
	// The returned map has a key for every ID in the impIDs list which was found. A NotFoundError is
	// returned for each of the others.
	//
	// The returned objects can only be read from. They may not be written to.
	FetchImps(ctx context.Context, impIDs []string) (impData map[string]json.RawMessage, errs []error)
}

type CategoryFetcher interface {
	// FetchCategories fetches the ad-server/publisher specific category for the given IAB category
	FetchCategories(ctx context.Context, primaryAdServer, publisherId, iabCategory string) (string, error)
}

// AllFetcher is an interface that encapsulates both the Fetcher and the CategoryFetcher
type AllFetcher interface {
	Fetcher
	CategoryFetcher
}

// NotFoundError is an error type to flag that an ID was not found by the Fetcher.
type NotFoundError struct {
	ID       string
	DataType string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf(`Stored %s with ID="%s" not found.`, e.DataType, e.ID)
}

// Category is one entry of an ad server category file, keyed by IAB category.
type Category struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// CategoryNotFoundError flags a missing translation of an IAB category.
type CategoryNotFoundError struct {
	PrimaryAdServer string
	PublisherID     string
	IABCategory     string
}

func (e CategoryNotFoundError) Error() string {
	return fmt.Sprintf("Category '%s' not found for server: '%s', publisher: '%s'", e.IABCategory, e.PrimaryAdServer, e.PublisherID)
}

// AppendNotFoundErrors adds a NotFoundError for each id missing from data.
func AppendNotFoundErrors(dataType string, ids []string, data map[string]json.RawMessage, errs []error) []error {
	for _, id := range ids {
		if _, ok := data[id]; !ok {
			errs = append(errs, NotFoundError{
				ID:       id,
				DataType: dataType,
			})
		}
	}
	return errs
}
