package exchange

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/exchange/entities"
	"github.com/prebid/prebid-response-engine/metrics"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
	"github.com/prebid/prebid-response-engine/stored_requests"
	"github.com/prebid/prebid-response-engine/util/randomutil"
)

// CategoryMapper classifies the bids into ad server category labels and resolves the deal tiers.
// It never fails the auction: bids it cannot classify get an empty category.
type CategoryMapper interface {
	Map(ctx context.Context, responses []*entities.BidderResponse, request *openrtb2.BidRequest, targeting *openrtb_ext.ExtRequestTargeting, account *config.Account) CategoryMappingResult
}

// CategoryMappingResult holds the responses left after deduplication, the category duration label
// and the deal tier status of their bids, and the errors to return under "prebid".
type CategoryMappingResult struct {
	Responses         []*entities.BidderResponse
	Categories        map[*entities.PbsOrtbBid]string
	PrioritySatisfied map[*entities.PbsOrtbBid]bool
	Errors            []error
}

type deduplicateChanceGenerator interface {
	Generate() bool
}

type randomDeduplicateBidBooleanGenerator struct {
	random randomutil.RandomGenerator
}

func (g randomDeduplicateBidBooleanGenerator) Generate() bool {
	return g.random.GenerateFloat64() < 0.5
}

type categoryMapper struct {
	categoriesFetcher stored_requests.CategoryFetcher
	booleanGenerator  deduplicateChanceGenerator
	metrics           metrics.MetricsEngine
}

// NewCategoryMapper returns the mapper translating IAB categories through the given fetcher.
func NewCategoryMapper(categoriesFetcher stored_requests.CategoryFetcher, metricsEngine metrics.MetricsEngine) CategoryMapper {
	return &categoryMapper{
		categoriesFetcher: categoriesFetcher,
		booleanGenerator:  randomDeduplicateBidBooleanGenerator{random: randomutil.RandomNumberGenerator{}},
		metrics:           metricsEngine,
	}
}

func (m *categoryMapper) Map(ctx context.Context, responses []*entities.BidderResponse, request *openrtb2.BidRequest, targeting *openrtb_ext.ExtRequestTargeting, account *config.Account) CategoryMappingResult {
	result := CategoryMappingResult{
		Responses:         responses,
		Categories:        make(map[*entities.PbsOrtbBid]string),
		PrioritySatisfied: make(map[*entities.PbsOrtbBid]bool),
	}
	if targeting == nil {
		return result
	}

	if targeting.IncludeBrandCategory != nil {
		var errs []error
		result.Responses, errs = m.applyCategoryMapping(ctx, *targeting, responses, result.Categories)
		result.Errors = append(result.Errors, errs...)
	}

	result.Errors = append(result.Errors, applyDealSupport(request, result.Responses, result.Categories, result.PrioritySatisfied)...)
	return result
}

type bidDedupe struct {
	bid      *entities.PbsOrtbBid
	bidPrice string
}

// applyCategoryMapping labels every bid with "<price bucket>_<category>_<duration>s", or
// "<price bucket>_<duration>s" when the category is not requested. Bids sharing a label (or a category)
// are deduplicated, the highest price bucket wins and equal buckets are decided at random.
func (m *categoryMapper) applyCategoryMapping(ctx context.Context, targeting openrtb_ext.ExtRequestTargeting, responses []*entities.BidderResponse, categories map[*entities.PbsOrtbBid]string) ([]*entities.BidderResponse, []error) {
	var errs []error
	brandCatExt := targeting.IncludeBrandCategory

	var primaryAdServer string
	var publisher string
	var translateCategories = true

	if brandCatExt.WithCategory {
		if brandCatExt.TranslateCategories != nil {
			translateCategories = *brandCatExt.TranslateCategories
		}
		//if translateCategories is set to false, ignore checking primaryAdServer and publisher
		if translateCategories {
			var err error
			primaryAdServer, err = getPrimaryAdServer(brandCatExt.PrimaryAdServer) //1-Freewheel 2-DFP
			if err != nil {
				return responses, []error{err}
			}
			publisher = brandCatExt.Publisher
		}
	}

	dedupe := make(map[string]bidDedupe)
	removed := make(map[*entities.PbsOrtbBid]bool)

	for _, response := range responses {
		for _, bid := range response.Bids() {
			bidID := bid.Bid.ID
			var duration int
			var category string

			if bid.BidVideo != nil {
				duration = bid.BidVideo.Duration
				category = bid.BidVideo.PrimaryCategory
			}
			if brandCatExt.WithCategory && category == "" {
				bidIabCat := bid.Bid.Cat
				if len(bidIabCat) != 1 {
					errs = updateRejections(errs, bidID, "Bid did not contain a category")
					continue
				}
				if translateCategories {
					var err error
					category, err = m.categoriesFetcher.FetchCategories(ctx, primaryAdServer, publisher, bidIabCat[0])
					if err != nil || category == "" {
						m.metrics.RecordCategoryMappingError(response.Bidder)
						reason := fmt.Sprintf("Category mapping file for primary ad server: '%s', publisher: '%s' not found", primaryAdServer, publisher)
						errs = updateRejections(errs, bidID, reason)
						continue
					}
				} else {
					//category translation is disabled, continue with IAB category
					category = bidIabCat[0]
				}
			}

			priceBucket := GetPriceBucket(bid.Bid.Price, priceGranularityFor(&targeting, bid.BidType))

			newDur, err := findDurationRange(duration, targeting.DurationRangeSec)
			if err != nil {
				errs = updateRejections(errs, bidID, err.Error())
				continue
			}

			var categoryDuration string
			var dupeKey string
			if brandCatExt.WithCategory {
				categoryDuration = fmt.Sprintf("%s_%s_%ds", priceBucket, category, newDur)
				dupeKey = category
			} else {
				categoryDuration = fmt.Sprintf("%s_%ds", priceBucket, newDur)
				dupeKey = categoryDuration
			}

			if targeting.AppendBidderNames {
				categoryDuration = fmt.Sprintf("%s_%s", categoryDuration, response.Bidder.String())
			}

			if dupe, ok := dedupe[dupeKey]; ok {
				dupeBidPrice, err := strconv.ParseFloat(dupe.bidPrice, 64)
				if err != nil {
					dupeBidPrice = 0
				}
				currBidPrice, err := strconv.ParseFloat(priceBucket, 64)
				if err != nil {
					currBidPrice = 0
				}
				if dupeBidPrice == currBidPrice {
					if m.booleanGenerator.Generate() {
						dupeBidPrice = -1
					} else {
						currBidPrice = -1
					}
				}

				if dupeBidPrice < currBidPrice {
					removed[dupe.bid] = true
					delete(categories, dupe.bid)
					errs = updateRejections(errs, dupe.bid.Bid.ID, "Bid was deduplicated")
				} else {
					removed[bid] = true
					errs = updateRejections(errs, bidID, "Bid was deduplicated")
					continue
				}
			}
			categories[bid] = categoryDuration
			dedupe[dupeKey] = bidDedupe{bid: bid, bidPrice: priceBucket}
		}
	}

	if len(removed) == 0 {
		return responses, errs
	}

	result := make([]*entities.BidderResponse, 0, len(responses))
	for _, response := range responses {
		if response == nil || response.SeatBid == nil {
			result = append(result, response)
			continue
		}
		bids := make([]*entities.PbsOrtbBid, 0, len(response.SeatBid.Bids))
		for _, bid := range response.SeatBid.Bids {
			if !removed[bid] {
				bids = append(bids, bid)
			}
		}
		result = append(result, response.WithSeatBid(response.SeatBid.WithBids(bids)))
	}
	return result, errs
}

// findDurationRange returns the element in the array 'durationRanges' that is both greater than 'dur' and closest
// in value to 'dur' unless a value equal to 'dur' is found. Returns an error if all elements in 'durationRanges'
// are less than 'dur'.
func findDurationRange(dur int, durationRanges []int) (int, error) {
	newDur := dur
	madeSelection := false
	var err error

	for i := range durationRanges {
		if dur > durationRanges[i] {
			continue
		}
		if dur == durationRanges[i] {
			return durationRanges[i], nil
		}
		// dur < durationRanges[i]
		if durationRanges[i] < newDur || !madeSelection {
			newDur = durationRanges[i]
			madeSelection = true
		}
	}
	if !madeSelection && len(durationRanges) > 0 {
		err = errors.New("bid duration exceeds maximum allowed")
	}
	return newDur, err
}

func updateRejections(rejections []error, bidID string, reason string) []error {
	return append(rejections, fmt.Errorf("bid rejected [bid ID: %s] reason: %s", bidID, reason))
}

func getPrimaryAdServer(adServerId int) (string, error) {
	switch adServerId {
	case 1:
		return "freewheel", nil
	case 2:
		return "dfp", nil
	default:
		return "", fmt.Errorf("Primary ad server %d not recognized", adServerId)
	}
}

// applyDealSupport marks the bids reaching the deal tier of their imp and bidder, and replaces the
// price bucket of their category duration label by the tier prefix.
func applyDealSupport(request *openrtb2.BidRequest, responses []*entities.BidderResponse, categories map[*entities.PbsOrtbBid]string, prioritySatisfied map[*entities.PbsOrtbBid]bool) []error {
	var errs []error
	impDealMap := getDealTiers(request)

	for _, response := range responses {
		for _, bid := range response.Bids() {
			if bid.DealPriority <= 0 {
				continue
			}
			dealTier, ok := impDealMap[bid.Bid.ImpID][response.Bidder]
			if !ok {
				continue
			}
			if !validateDealTier(dealTier) {
				errs = append(errs, fmt.Errorf("dealTier configuration invalid for bidder '%s', imp ID '%s'", string(response.Bidder), bid.Bid.ImpID))
				continue
			}
			if dealTier.Satisfied(bid.DealPriority) {
				prioritySatisfied[bid] = true
				updateHbPbCatDur(bid, dealTier, categories)
			}
		}
	}

	return errs
}

// getDealTiers creates map of impression to bidder deal tier configuration
func getDealTiers(bidRequest *openrtb2.BidRequest) map[string]openrtb_ext.DealTierBidderMap {
	impDealMap := make(map[string]openrtb_ext.DealTierBidderMap)

	for _, imp := range bidRequest.Imp {
		dealTierBidderMap, err := openrtb_ext.ReadDealTiersFromImp(imp)
		if err != nil {
			continue
		}
		impDealMap[imp.ID] = dealTierBidderMap
	}

	return impDealMap
}

func validateDealTier(dealTier openrtb_ext.DealTier) bool {
	return len(dealTier.Prefix) > 0 && dealTier.MinDealTier > 0
}

func updateHbPbCatDur(bid *entities.PbsOrtbBid, dealTier openrtb_ext.DealTier, categories map[*entities.PbsOrtbBid]string) {
	oldCatDur, ok := categories[bid]
	if !ok {
		return
	}
	prefixTier := fmt.Sprintf("%s%d_", dealTier.Prefix, bid.DealPriority)
	oldCatDurSplit := strings.SplitAfterN(oldCatDur, "_", 2)
	oldCatDurSplit[0] = prefixTier
	categories[bid] = strings.Join(oldCatDurSplit, "")
}
