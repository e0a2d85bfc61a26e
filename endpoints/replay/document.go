package replay

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/asaskevich/govalidator"
	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/errortypes"
	"github.com/prebid/prebid-response-engine/exchange"
	"github.com/prebid/prebid-response-engine/exchange/entities"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
	"github.com/prebid/prebid-response-engine/util/jsonutil"
)

// Document is a recorded auction: the bid request and what every bidder answered to it.
type Document struct {
	Request         json.RawMessage  `json:"request"`
	BidderResponses []BidderResponse `json:"bidderresponses"`
}

// BidderResponse is the recorded answer of one bidder.
type BidderResponse struct {
	Bidder               string                             `json:"bidder"`
	Currency             string                             `json:"cur,omitempty"`
	ResponseTimeMillis   int                                `json:"responsetimemillis,omitempty"`
	Bids                 []Bid                              `json:"bids,omitempty"`
	HttpCalls            []*openrtb_ext.ExtHttpCall         `json:"httpcalls,omitempty"`
	FledgeAuctionConfigs []*openrtb_ext.FledgeAuctionConfig `json:"fledgeauctionconfigs,omitempty"`
	Igi                  []*openrtb_ext.ExtIgi              `json:"igi,omitempty"`
	Errors               []string                           `json:"errors,omitempty"`
	Warnings             []string                           `json:"warnings,omitempty"`
}

// Bid is a recorded bid with the prebid attributes the bidder adapter attached to it.
type Bid struct {
	Bid          *openrtb2.Bid                  `json:"bid"`
	Type         string                         `json:"type"`
	Seat         string                         `json:"seat,omitempty"`
	Meta         *openrtb_ext.ExtBidPrebidMeta  `json:"meta,omitempty"`
	Video        *openrtb_ext.ExtBidPrebidVideo `json:"video,omitempty"`
	DealPriority int                            `json:"dealpriority,omitempty"`
}

// Decode parses and validates a recorded auction.
func Decode(data []byte) (*Document, *openrtb2.BidRequest, error) {
	var doc Document
	if err := jsonutil.UnmarshalValid(data, &doc); err != nil {
		return nil, nil, err
	}
	if len(doc.Request) == 0 {
		return nil, nil, errors.New("document missing required field: \"request\"")
	}

	var request openrtb2.BidRequest
	if err := jsonutil.Unmarshal(doc.Request, &request); err != nil {
		return nil, nil, fmt.Errorf("request: %v", err)
	}
	if err := validateRequest(&request); err != nil {
		return nil, nil, err
	}
	for index := range doc.BidderResponses {
		if err := doc.BidderResponses[index].validate(index); err != nil {
			return nil, nil, err
		}
	}
	return &doc, &request, nil
}

func validateRequest(req *openrtb2.BidRequest) error {
	if req.ID == "" {
		return errors.New("request missing required field: \"id\"")
	}

	if req.TMax < 0 {
		return fmt.Errorf("request.tmax must be nonnegative. Got %d", req.TMax)
	}

	if len(req.Imp) < 1 {
		return errors.New("request.imp must contain at least one element.")
	}

	seen := make(map[string]struct{}, len(req.Imp))
	for index, imp := range req.Imp {
		if imp.ID == "" {
			return fmt.Errorf("request.imp[%d] missing required field: \"id\"", index)
		}
		if _, ok := seen[imp.ID]; ok {
			return fmt.Errorf("request.imp[%d].id \"%s\" is not unique", index, imp.ID)
		}
		seen[imp.ID] = struct{}{}
	}
	return nil
}

func (r *BidderResponse) validate(index int) error {
	if r.Bidder == "" {
		return fmt.Errorf("bidderresponses[%d] missing required field: \"bidder\"", index)
	}
	if r.Currency != "" && !govalidator.IsISO4217(r.Currency) {
		return fmt.Errorf("bidderresponses[%d].cur \"%s\" is not an ISO 4217 currency code", index, r.Currency)
	}
	for bidIndex, bid := range r.Bids {
		if bid.Bid == nil {
			return fmt.Errorf("bidderresponses[%d].bids[%d] missing required field: \"bid\"", index, bidIndex)
		}
		if _, err := openrtb_ext.ParseBidType(bid.Type); err != nil {
			return fmt.Errorf("bidderresponses[%d].bids[%d].type: %v", index, bidIndex, err)
		}
	}
	return nil
}

// AuctionRequest builds the input of the response creator. The account is resolved from the
// publisher of the site or the app.
func (d *Document) AuctionRequest(cfg *config.Configuration, request *openrtb2.BidRequest) (*exchange.AuctionRequest, []*entities.BidderResponse) {
	auctionRequest := &exchange.AuctionRequest{
		BidRequest:         request,
		ResolvedBidRequest: d.Request,
		Account:            cfg.GetAccount(publisherID(request)),
	}

	responses := make([]*entities.BidderResponse, 0, len(d.BidderResponses))
	for i := range d.BidderResponses {
		responses = append(responses, d.BidderResponses[i].toEntity())
	}
	return auctionRequest, responses
}

func (r *BidderResponse) toEntity() *entities.BidderResponse {
	seatBid := &entities.PbsOrtbSeatBid{
		Bids:                 make([]*entities.PbsOrtbBid, 0, len(r.Bids)),
		Currency:             r.Currency,
		HttpCalls:            r.HttpCalls,
		FledgeAuctionConfigs: r.FledgeAuctionConfigs,
		Igi:                  r.Igi,
	}
	for _, bid := range r.Bids {
		bidType, _ := openrtb_ext.ParseBidType(bid.Type)
		seatBid.Bids = append(seatBid.Bids, &entities.PbsOrtbBid{
			Bid:          bid.Bid,
			BidMeta:      bid.Meta,
			BidType:      bidType,
			BidVideo:     bid.Video,
			DealPriority: bid.DealPriority,
			Seat:         bid.Seat,
		})
	}
	for _, msg := range r.Errors {
		seatBid.Errors = append(seatBid.Errors, &errortypes.BadServerResponse{Message: msg})
	}
	for _, msg := range r.Warnings {
		seatBid.Warnings = append(seatBid.Warnings, &errortypes.Warning{Message: msg})
	}

	return &entities.BidderResponse{
		Bidder:             openrtb_ext.BidderName(r.Bidder),
		SeatBid:            seatBid,
		ResponseTimeMillis: r.ResponseTimeMillis,
	}
}

func publisherID(req *openrtb2.BidRequest) string {
	if req.Site != nil && req.Site.Publisher != nil {
		return req.Site.Publisher.ID
	}
	if req.App != nil && req.App.Publisher != nil {
		return req.App.Publisher.ID
	}
	return ""
}
