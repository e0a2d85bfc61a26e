package ortb2blocking

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/prebid/prebid-response-engine/exchange/entities"
	"github.com/prebid/prebid-response-engine/hooks/hookexecution"
	"github.com/prebid/prebid-response-engine/hooks/hookstage"
)

func handleProcessedBidderResponseHook(
	cfg config,
	payload hookstage.ProcessedBidderResponsePayload,
) (result hookstage.HookResult[hookstage.ProcessedBidderResponsePayload], err error) {
	if payload.BidResponse == nil || len(payload.BidResponse.Bids) == 0 {
		return result, nil
	}

	tags := newBlockingTags()
	defer func() {
		result.AnalyticsTags = tags.analytics()
	}()

	bidsToKeep := make([]*entities.PbsOrtbBid, 0, len(payload.BidResponse.Bids))
	for _, bid := range payload.BidResponse.Bids {
		if bid == nil || bid.Bid == nil {
			continue
		}

		target := bidTarget{
			bidder:    payload.Bidder,
			mediaType: string(bid.BidType),
			dealID:    bid.Bid.DealID,
		}

		failedChecks, data, messages, err := checkBid(cfg, target, bid)
		result.Warnings = appendNonEmpty(result.Warnings, messages...)
		if err != nil {
			tags.failed()
			return result, hookexecution.NewFailure("failed to check bid %s: %s", bid.Bid.ID, err)
		}

		if len(failedChecks) == 0 {
			bidsToKeep = append(bidsToKeep, bid)
			tags.allowed(payload.Bidder, bid.Bid.ImpID)
			continue
		}

		tags.blocked(payload.Bidder, bid.Bid.ImpID, failedChecks, data)
		result.DebugMessages = append(result.DebugMessages, fmt.Sprintf(
			"Bid %s from bidder %s has been rejected, failed checks: [%s]",
			bid.Bid.ID, payload.Bidder, strings.Join(failedChecks, ", "),
		))
	}

	if len(bidsToKeep) != len(payload.BidResponse.Bids) {
		result.ChangeSet.ProcessedBidderResponse().Bids().UpdateBids(bidsToKeep)
	}

	return result, nil
}

// bidTarget is what the action override conditions are matched against.
type bidTarget struct {
	bidder    string
	mediaType string
	dealID    string
}

func (t bidTarget) String() string {
	return fmt.Sprintf("Bidder: %s, bid media type: %s, deal id: %s", t.bidder, t.mediaType, t.dealID)
}

func checkBid(cfg config, target bidTarget, bid *entities.PbsOrtbBid) ([]string, map[string]interface{}, []string, error) {
	var failedChecks, messages []string
	data := make(map[string]interface{})

	checks := []struct {
		attribute string
		check     func(config, bidTarget, *entities.PbsOrtbBid) (bool, []string, error)
		value     func(*entities.PbsOrtbBid) interface{}
	}{
		{"badv", checkBadv, func(b *entities.PbsOrtbBid) interface{} { return b.Bid.ADomain }},
		{"bcat", checkBcat, func(b *entities.PbsOrtbBid) interface{} { return b.Bid.Cat }},
		{"bapp", checkBapp, func(b *entities.PbsOrtbBid) interface{} { return b.Bid.Bundle }},
		{"battr", checkBattr, func(b *entities.PbsOrtbBid) interface{} { return b.Bid.Attr }},
	}

	for _, c := range checks {
		blocked, checkMessages, err := c.check(cfg, target, bid)
		messages = appendNonEmpty(messages, checkMessages...)
		if err != nil {
			return nil, nil, messages, fmt.Errorf("%s: %s", c.attribute, err)
		}
		if blocked {
			failedChecks = append(failedChecks, c.attribute)
			data[c.attribute] = c.value(bid)
		}
	}

	return failedChecks, data, messages, nil
}

func checkBadv(cfg config, target bidTarget, bid *entities.PbsOrtbBid) (bool, []string, error) {
	badv := cfg.Attributes.Badv
	overrides := badv.ActionOverrides
	return checkNames(target, bid.Bid.ADomain, true, nameRules{
		enforce:         rule[bool]{overrides.EnforceBlocks, badv.EnforceBlocks},
		blockUnknown:    rule[bool]{overrides.BlockUnknownAdomain, badv.BlockUnknownAdomain},
		blocked:         rule[[]string]{overrides.BlockedAdomain, badv.BlockedAdomain},
		allowedForDeals: rule[[]string]{overrides.AllowedAdomainForDeals, badv.AllowedAdomainForDeals},
	})
}

func checkBcat(cfg config, target bidTarget, bid *entities.PbsOrtbBid) (bool, []string, error) {
	bcat := cfg.Attributes.Bcat
	overrides := bcat.ActionOverrides
	return checkNames(target, bid.Bid.Cat, true, nameRules{
		enforce:         rule[bool]{overrides.EnforceBlocks, bcat.EnforceBlocks},
		blockUnknown:    rule[bool]{overrides.BlockUnknownAdvCat, bcat.BlockUnknownAdvCat},
		blocked:         rule[[]string]{overrides.BlockedAdvCat, bcat.BlockedAdvCat},
		allowedForDeals: rule[[]string]{overrides.AllowedAdvCatForDeals, bcat.AllowedAdvCatForDeals},
	})
}

func checkBapp(cfg config, target bidTarget, bid *entities.PbsOrtbBid) (bool, []string, error) {
	bapp := cfg.Attributes.Bapp
	overrides := bapp.ActionOverrides
	var bundles []string
	if bid.Bid.Bundle != "" {
		bundles = []string{bid.Bid.Bundle}
	}
	return checkNames(target, bundles, false, nameRules{
		enforce:         rule[bool]{overrides.EnforceBlocks, bapp.EnforceBlocks},
		blocked:         rule[[]string]{overrides.BlockedApp, bapp.BlockedApp},
		allowedForDeals: rule[[]string]{overrides.AllowedAppForDeals, bapp.AllowedAppForDeals},
	})
}

func checkBattr(cfg config, target bidTarget, bid *entities.PbsOrtbBid) (bool, []string, error) {
	battr := cfg.Attributes.Battr
	overrides := battr.ActionOverrides
	var messages []string

	enforce, message, err := firstOrDefaultOverride(target, getIsActive, overrides.EnforceBlocks, battr.EnforceBlocks)
	messages = appendNonEmpty(messages, message)
	if err != nil || !enforce {
		return false, messages, err
	}

	blocked, message, err := firstOrDefaultOverride(target, getIds, overrides.BlockedBannerAttr, battr.BlockedBannerAttr)
	messages = appendNonEmpty(messages, message)
	if err != nil || len(blocked) == 0 {
		return false, messages, err
	}

	allowed, message, err := firstOrDefaultOverride(target, getIds, overrides.AllowedBannerAttrForDeals, battr.AllowedBannerAttrForDeals)
	messages = appendNonEmpty(messages, message)
	if err != nil {
		return false, messages, err
	}

	for _, attr := range bid.Bid.Attr {
		if !slices.Contains(blocked, int(attr)) {
			continue
		}
		if target.dealID != "" && slices.Contains(allowed, int(attr)) {
			continue
		}
		return true, messages, nil
	}
	return false, messages, nil
}

// rule pairs the action overrides of an attribute with its default value.
type rule[T any] struct {
	overrides    []ActionOverride
	defaultValue T
}

type nameRules struct {
	enforce         rule[bool]
	blockUnknown    rule[bool]
	blocked         rule[[]string]
	allowedForDeals rule[[]string]
}

func checkNames(target bidTarget, values []string, unknownApplies bool, rules nameRules) (bool, []string, error) {
	var messages []string

	enforce, message, err := firstOrDefaultOverride(target, getIsActive, rules.enforce.overrides, rules.enforce.defaultValue)
	messages = appendNonEmpty(messages, message)
	if err != nil || !enforce {
		return false, messages, err
	}

	if len(values) == 0 {
		if !unknownApplies {
			return false, messages, nil
		}
		blockUnknown, message, err := firstOrDefaultOverride(target, getIsActive, rules.blockUnknown.overrides, rules.blockUnknown.defaultValue)
		messages = appendNonEmpty(messages, message)
		return blockUnknown, messages, err
	}

	blocked, message, err := firstOrDefaultOverride(target, getNames, rules.blocked.overrides, rules.blocked.defaultValue)
	messages = appendNonEmpty(messages, message)
	if err != nil || len(blocked) == 0 {
		return false, messages, err
	}

	allowed, message, err := firstOrDefaultOverride(target, getNames, rules.allowedForDeals.overrides, rules.allowedForDeals.defaultValue)
	messages = appendNonEmpty(messages, message)
	if err != nil {
		return false, messages, err
	}

	for _, value := range values {
		if !containsFold(blocked, value) {
			continue
		}
		if target.dealID != "" && containsFold(allowed, value) {
			continue
		}
		return true, messages, nil
	}
	return false, messages, nil
}

// firstOrDefaultOverride searches for matching override based on conditions.
// Returns only first found override. Override for specific bidder has higher priority
// than override matching all bidders. If no override found, the defaultOverride returned.
func firstOrDefaultOverride[T any](
	target bidTarget,
	overrideGetter overrideGetterFn[T],
	actionOverrides []ActionOverride,
	defaultOverride T,
) (override T, message string, err error) {
	var allOverrides []T
	var specificOverrides []T

	for _, action := range actionOverrides {
		if err = validateCondition(action.Conditions); err != nil {
			return override, message, err
		}

		matchAllBidders := action.Conditions.Bidders == nil
		matchesBidder := matchAllBidders || containsFold(action.Conditions.Bidders, target.bidder)
		matchesMedia := action.Conditions.MediaTypes == nil || containsFold(action.Conditions.MediaTypes, target.mediaType)
		matchesDeal := action.Conditions.DealIds == nil || (target.dealID != "" && containsFold(action.Conditions.DealIds, target.dealID))

		if matchesBidder && matchesMedia && matchesDeal {
			actionOverride, err := overrideGetter(action.Override)
			if err != nil {
				return override, message, err
			}

			if matchAllBidders {
				allOverrides = append(allOverrides, actionOverride)
			} else {
				specificOverrides = append(specificOverrides, actionOverride)
			}
		}
	}

	if len(specificOverrides)+len(allOverrides) > 1 {
		message = fmt.Sprintf("More than one condition matches bid. %s", target)
	}

	if len(specificOverrides) > 0 {
		override = specificOverrides[0]
	} else if len(allOverrides) > 0 {
		override = allOverrides[0]
	} else {
		override = defaultOverride
	}

	return override, message, nil
}

type overrideGetterFn[T any] func(override Override) (T, error)

func getNames(override Override) ([]string, error) {
	if len(override.Names) == 0 {
		return nil, errors.New("empty override field")
	}
	return override.Names, nil
}

func getIds(override Override) ([]int, error) {
	if len(override.Ids) == 0 {
		return nil, errors.New("empty override field")
	}
	return override.Ids, nil
}

func getIsActive(override Override) (bool, error) {
	return override.IsActive, nil
}

func validateCondition(conditions Conditions) error {
	if conditions.Bidders == nil && conditions.MediaTypes == nil && conditions.DealIds == nil {
		return errors.New("conditions field in account configuration must contain at least one of bidders, media_types or deal_ids")
	}
	return nil
}

func appendNonEmpty(messages []string, newMessages ...string) []string {
	for _, msg := range newMessages {
		if msg != "" {
			messages = append(messages, msg)
		}
	}
	return messages
}

func containsFold(list []string, s string) bool {
	return slices.ContainsFunc(list, func(value string) bool {
		return strings.EqualFold(value, s)
	})
}
