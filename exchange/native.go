package exchange

import (
	"errors"
	"fmt"

	nativeRequests "github.com/prebid/openrtb/v20/native1/request"
	nativeResponse "github.com/prebid/openrtb/v20/native1/response"
	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/prebid/prebid-response-engine/errortypes"
	"github.com/prebid/prebid-response-engine/util/jsonutil"
)

// addNativeTypes copies the image and data types of the request assets into the native markup of
// the bid. Markup which is not IAB native is returned as is.
func addNativeTypes(bid *openrtb2.Bid, imp *openrtb2.Imp) (string, error) {
	var nativeMarkup nativeResponse.Response
	if err := jsonutil.UnmarshalValid([]byte(bid.AdM), &nativeMarkup); err != nil || len(nativeMarkup.Assets) == 0 {
		return bid.AdM, nil
	}

	if imp == nil || imp.Native == nil {
		return "", &errortypes.BadServerResponse{Message: fmt.Sprintf("Could not find native imp %s for bid %s", bid.ImpID, bid.ID)}
	}

	var nativePayload nativeRequests.Request
	if err := jsonutil.UnmarshalValid([]byte(imp.Native.Request), &nativePayload); err != nil {
		return "", &errortypes.BadServerResponse{Message: fmt.Sprintf("Native request of imp %s is invalid: %v", imp.ID, err)}
	}

	for _, asset := range nativeMarkup.Assets {
		if err := setAssetTypes(asset, nativePayload); err != nil {
			return "", &errortypes.BadServerResponse{Message: err.Error()}
		}
	}

	markup, err := jsonutil.Marshal(nativeMarkup)
	if err != nil {
		return "", &errortypes.FailedToMarshal{Message: err.Error()}
	}
	return string(markup), nil
}

func setAssetTypes(asset nativeResponse.Asset, nativePayload nativeRequests.Request) error {
	if asset.Img != nil {
		if asset.ID == nil {
			return errors.New("Response Image asset doesn't have an ID")
		}
		requested, err := getAssetByID(*asset.ID, nativePayload.Assets)
		if err != nil {
			return err
		}
		if requested.Img == nil {
			return fmt.Errorf("Response has an Image asset with ID:%d present that doesn't exist in the request", *asset.ID)
		}
		if requested.Img.Type != 0 {
			asset.Img.Type = requested.Img.Type
		}
	}

	if asset.Data != nil {
		if asset.ID == nil {
			return errors.New("Response Data asset doesn't have an ID")
		}
		requested, err := getAssetByID(*asset.ID, nativePayload.Assets)
		if err != nil {
			return err
		}
		if requested.Data == nil {
			return fmt.Errorf("Response has a Data asset with ID:%d present that doesn't exist in the request", *asset.ID)
		}
		if requested.Data.Type != 0 {
			asset.Data.Type = requested.Data.Type
		}
	}
	return nil
}

func getAssetByID(id int64, assets []nativeRequests.Asset) (nativeRequests.Asset, error) {
	for _, asset := range assets {
		if id == asset.ID {
			return asset, nil
		}
	}
	return nativeRequests.Asset{}, fmt.Errorf("Unable to find asset with ID:%d in the request", id)
}
