package exchange

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"

	"github.com/prebid/prebid-response-engine/errortypes"
	"github.com/prebid/prebid-response-engine/stored_requests"
)

// storedVideoAttributes maps an imp id to the video object of its stored imp. Only imps asking for
// the stored video attributes to be echoed are looked up.
type storedVideoAttributes map[string]json.RawMessage

func fetchStoredVideoAttributes(ctx context.Context, fetcher stored_requests.Fetcher, ac *auctionContext) (storedVideoAttributes, []error) {
	storedIDs := make([]string, 0)
	impIDsByStoredID := make(map[string][]string)
	for _, imp := range ac.request.Imp {
		impExt := ac.impExt(&imp)
		if impExt.Prebid == nil || impExt.Prebid.Options == nil || !impExt.Prebid.Options.EchoVideoAttrs {
			continue
		}
		if impExt.Prebid.StoredRequest == nil || impExt.Prebid.StoredRequest.ID == "" {
			continue
		}
		storedID := impExt.Prebid.StoredRequest.ID
		if _, ok := impIDsByStoredID[storedID]; !ok {
			storedIDs = append(storedIDs, storedID)
		}
		impIDsByStoredID[storedID] = append(impIDsByStoredID[storedID], imp.ID)
	}

	if len(storedIDs) == 0 || fetcher == nil {
		return nil, nil
	}

	storedImps, fetchErrs := fetcher.FetchImps(ctx, storedIDs)
	errs := make([]error, 0, len(fetchErrs))
	for _, err := range fetchErrs {
		errs = append(errs, fmt.Errorf("Stored video attributes lookup failed: %v", err))
	}

	attributes := make(storedVideoAttributes)
	for storedID, storedImp := range storedImps {
		video, dataType, _, err := jsonparser.Get(storedImp, "video")
		if err != nil || dataType != jsonparser.Object {
			if err != jsonparser.KeyPathNotFoundError {
				errs = append(errs, &errortypes.FailedToUnmarshal{Message: fmt.Sprintf("Stored imp %s has an invalid video object", storedID)})
			}
			continue
		}
		for _, impID := range impIDsByStoredID[storedID] {
			attributes[impID] = video
		}
	}
	return attributes, errs
}
