package exchange

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/sync/errgroup"

	"github.com/prebid/prebid-response-engine/currency"
	"github.com/prebid/prebid-response-engine/errortypes"
	"github.com/prebid/prebid-response-engine/exchange/entities"
	"github.com/prebid/prebid-response-engine/macros"
	"github.com/prebid/prebid-response-engine/metrics"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
	"github.com/prebid/prebid-response-engine/util/jsonutil"
)

// enrichmentResult is what the enrichment of one bidder response produced. Bids which could not be
// enriched are reported in the errors of the response, warnings are debug warnings of the auction.
type enrichmentResult struct {
	response *entities.BidderResponse
	warnings []error
}

// bidEnricher rewrites the bids of the bidder responses: bid ids, VAST markup and bid.ext.prebid.
type bidEnricher struct {
	ac               *auctionContext
	idGenerator      BidIDGenerator
	enforceRandomID  bool
	eventTracking    *eventTracking
	storedVideoAttrs storedVideoAttributes
	conversions      currency.Conversions
	metrics          metrics.MetricsEngine
}

// enrichBidderResponses enriches every bidder response concurrently. The results keep the order
// of the given responses.
func (be *bidEnricher) enrichBidderResponses(ctx context.Context, responses []*entities.BidderResponse) []enrichmentResult {
	results := make([]enrichmentResult, len(responses))

	g, _ := errgroup.WithContext(ctx)
	for i, response := range responses {
		g.Go(func() error {
			results[i] = be.enrichBidderResponse(response)
			return nil
		})
	}
	g.Wait()

	return results
}

func (be *bidEnricher) enrichBidderResponse(response *entities.BidderResponse) enrichmentResult {
	result := enrichmentResult{response: response}
	if response == nil || response.SeatBid == nil {
		return result
	}

	modifyVAST := be.eventTracking.isModifyingVASTXMLAllowed(response.Bidder.String())
	provider := be.eventTracking.macroProvider(be.ac.request)

	seatCurrency := response.SeatBid.Currency
	if seatCurrency == "" {
		seatCurrency = defaultCurrency
	}
	rate, err := be.conversionRate(seatCurrency)
	if err != nil {
		seatBid := response.SeatBid.WithBids([]*entities.PbsOrtbBid{})
		seatBid.Errors = append(append([]error(nil), seatBid.Errors...), &errortypes.NoConversionRate{
			Message: fmt.Sprintf("Unable to convert from currency %s to desired ad server currency %s: %v", seatCurrency, be.ac.currency, err),
		})
		result.response = response.WithSeatBid(seatBid)
		return result
	}

	var bidErrs []error
	bids := make([]*entities.PbsOrtbBid, 0, len(response.SeatBid.Bids))
	for _, pbsBid := range response.SeatBid.Bids {
		if pbsBid == nil || pbsBid.Bid == nil {
			continue
		}
		enriched, warnings, err := be.enrichBid(pbsBid, response.Bidder, modifyVAST, provider, seatCurrency, rate)
		result.warnings = append(result.warnings, warnings...)
		if err != nil {
			bidErrs = append(bidErrs, err)
			continue
		}
		be.metrics.RecordAdapterBidReceived(metrics.AdapterLabels{Adapter: response.Bidder, AccountID: be.ac.account.ID}, enriched.BidType, enriched.Bid.AdM != "")
		bids = append(bids, enriched)
	}

	seatBid := response.SeatBid.WithBids(bids)
	if len(bidErrs) > 0 {
		seatBid.Errors = append(append([]error(nil), seatBid.Errors...), bidErrs...)
	}
	seatBid.Currency = be.ac.currency
	result.response = response.WithSeatBid(seatBid)
	return result
}

func (be *bidEnricher) conversionRate(seatCurrency string) (float64, error) {
	if seatCurrency == be.ac.currency || be.conversions == nil {
		return 1, nil
	}
	return be.conversions.GetRate(seatCurrency, be.ac.currency)
}

// enrichBid returns a new bid, the adapter bid is left untouched.
func (be *bidEnricher) enrichBid(pbsBid *entities.PbsOrtbBid, bidder openrtb_ext.BidderName, modifyVAST bool, provider macros.Provider, seatCurrency string, rate float64) (*entities.PbsOrtbBid, []error, error) {
	var warnings []error
	bid := *pbsBid.Bid
	bid.Price = pbsBid.Bid.Price * rate

	bidID, err := enforceBidID(be.idGenerator, bid.ID, bidder.String(), be.enforceRandomID)
	if err != nil {
		return nil, nil, fmt.Errorf("Error generating bid.id: %v", err)
	}
	bid.ID = bidID

	var generatedBidID string
	if be.idGenerator.Enabled() {
		if generatedBidID, err = be.idGenerator.New(bidder.String()); err != nil {
			return nil, nil, fmt.Errorf("Error generating bid.ext.prebid.bidid: %v", err)
		}
	}

	effectiveID := bid.ID
	if generatedBidID != "" {
		effectiveID = generatedBidID
	}

	if modifyVAST && pbsBid.BidType == openrtb_ext.BidTypeVideo {
		adm, warning := be.eventTracking.modifyBidVAST(&bid, effectiveID, bidder, provider)
		if warning != nil {
			warnings = append(warnings, warning)
		}
		bid.AdM = adm
	}

	enriched := pbsBid.WithBid(&bid)
	enriched.GeneratedBidID = generatedBidID
	if enriched.OriginalBidCur == "" {
		enriched.OriginalBidCPM = pbsBid.Bid.Price
		enriched.OriginalBidCur = seatCurrency
	}

	ext, err := be.makeBidExtJSON(&bid, enriched, bidder, effectiveID)
	if err != nil {
		return nil, warnings, err
	}
	enriched.Bid.Ext = ext

	return enriched, warnings, nil
}

// makeBidExtJSON rebuilds bid.ext. Custom fields, including the unknown fields of ext.prebid, are kept
// while the fields owned by the exchange are overwritten.
func (be *bidEnricher) makeBidExtJSON(bid *openrtb2.Bid, pbsBid *entities.PbsOrtbBid, bidder openrtb_ext.BidderName, effectiveID string) (json.RawMessage, error) {
	ext := []byte(`{}`)
	if len(bid.Ext) > 0 {
		if !gjson.ValidBytes(bid.Ext) || !gjson.ParseBytes(bid.Ext).IsObject() {
			return nil, &errortypes.BadServerResponse{Message: fmt.Sprintf("Bid %s from bidder %s has an invalid ext", bid.ID, bidder)}
		}
		ext = append([]byte(nil), bid.Ext...)
	}

	prebid := []byte(`{}`)
	if existing := gjson.GetBytes(ext, "prebid"); existing.IsObject() {
		prebid = []byte(existing.Raw)
	}

	var err error
	set := func(path string, value interface{}) {
		if err != nil {
			return
		}
		var raw []byte
		if raw, err = jsonutil.Marshal(value); err == nil {
			prebid, err = sjson.SetRawBytes(prebid, path, raw)
		}
	}

	if pbsBid.GeneratedBidID != "" {
		set("bidid", pbsBid.GeneratedBidID)
	}
	set("type", pbsBid.BidType)
	set("meta", makeBidMeta(pbsBid.BidMeta, bidder))
	if pbsBid.DealPriority > 0 {
		set("dealpriority", pbsBid.DealPriority)
	}
	if attrs, ok := be.storedVideoAttrs[bid.ImpID]; ok {
		set("storedrequestattributes", attrs)
	}
	if evs := be.eventTracking.makeBidExtEvents(effectiveID, pbsBid.BidType, bidder); evs != nil {
		set("events", evs)
	}
	if pbsBid.BidVideo != nil {
		set("video", pbsBid.BidVideo)
	}
	if err != nil {
		return nil, &errortypes.FailedToMarshal{Message: fmt.Sprintf("Bid %s from bidder %s: %v", bid.ID, bidder, err)}
	}

	if ext, err = sjson.SetRawBytes(ext, "prebid", prebid); err != nil {
		return nil, &errortypes.FailedToMarshal{Message: fmt.Sprintf("Bid %s from bidder %s: %v", bid.ID, bidder, err)}
	}
	return ext, nil
}

func makeBidMeta(meta *openrtb_ext.ExtBidPrebidMeta, bidder openrtb_ext.BidderName) openrtb_ext.ExtBidPrebidMeta {
	var result openrtb_ext.ExtBidPrebidMeta
	if meta != nil {
		result = *meta
	}
	if result.AdapterCode == "" {
		result.AdapterCode = bidder.String()
	}
	return result
}
