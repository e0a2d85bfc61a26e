package exchange

import (
	"strconv"

	"github.com/prebid/prebid-response-engine/openrtb_ext"
	"github.com/prebid/prebid-response-engine/util/ptrutil"
)

// targetData holds the auction wide targeting settings. A nil targetData creates no keywords.
type targetData struct {
	prefix             string
	truncateAttr       int
	targeting          *openrtb_ext.ExtRequestTargeting
	includeWinners     bool
	includeBidderKeys  bool
	includeFormat      bool
	alwaysIncludeDeals bool
	env                string
	cacheHost          string
	cachePath          string
}

func newTargetData(ac *auctionContext, cacheHost, cachePath string) *targetData {
	if ac.targeting == nil {
		return nil
	}
	t := ac.targeting
	return &targetData{
		prefix:             ac.keyPrefix,
		truncateAttr:       ac.truncateAttr,
		targeting:          t,
		includeWinners:     ptrutil.ValueOrDefault(t.IncludeWinners),
		includeBidderKeys:  ptrutil.ValueOrDefault(t.IncludeBidderKeys),
		includeFormat:      t.IncludeFormat,
		alwaysIncludeDeals: t.AlwaysIncludeDeals,
		env:                ac.targetingEnv(),
		cacheHost:          cacheHost,
		cachePath:          cachePath,
	}
}

// priceGranularityFor returns the granularity of the media type when one is set, the request one otherwise.
func priceGranularityFor(targeting *openrtb_ext.ExtRequestTargeting, bidType openrtb_ext.BidType) openrtb_ext.PriceGranularity {
	if targeting == nil {
		return openrtb_ext.PriceGranularity{}
	}
	var mediaTypePG *openrtb_ext.PriceGranularity
	if mtpg := targeting.MediaTypePriceGranularity; mtpg != nil {
		switch bidType {
		case openrtb_ext.BidTypeBanner:
			mediaTypePG = mtpg.Banner
		case openrtb_ext.BidTypeVideo:
			mediaTypePG = mtpg.Video
		case openrtb_ext.BidTypeNative:
			mediaTypePG = mtpg.Native
		}
	}
	if pg := ptrutil.FirstNonNil(mediaTypePG, targeting.PriceGranularity); pg != nil {
		return *pg
	}
	return openrtb_ext.PriceGranularity{}
}

// makePrebidTargets returns the targeting keywords of the bid, nil when the bid gets none.
// Winner keys are unsuffixed, bidder keys end with the targeting seat of the bid.
func (t *targetData) makePrebidTargets(record *BidRecord) map[string]string {
	if t == nil || record.Targeting == nil || !record.Targeting.TargetingEnabled {
		return nil
	}
	if !t.includeWinners && !t.includeBidderKeys && !t.includeFormat {
		return nil
	}
	pg := priceGranularityFor(t.targeting, record.BidType)
	if len(pg.Ranges) == 0 {
		return nil
	}

	bid := record.Bid
	seat := openrtb_ext.BidderName(record.Targeting.Seat)
	includeAsWinner := t.includeWinners && record.Targeting.Winning
	includeAsBidder := t.includeBidderKeys || (t.alwaysIncludeDeals && bid.DealID != "")

	targets := make(map[string]string)
	addKeys := func(key openrtb_ext.TargetingKey, value string) {
		if includeAsWinner {
			targets[key.TruncateKey(t.prefix, t.truncateAttr)] = value
		}
		if includeAsBidder {
			targets[key.BidderKey(t.prefix, seat, t.truncateAttr)] = value
		}
	}

	addKeys(openrtb_ext.PbKey, GetPriceBucket(bid.Price, pg))
	addKeys(openrtb_ext.BidderKey, string(seat))
	if bid.W != 0 && bid.H != 0 {
		addKeys(openrtb_ext.SizeKey, strconv.FormatInt(bid.W, 10)+"x"+strconv.FormatInt(bid.H, 10))
	}
	if bid.DealID != "" {
		addKeys(openrtb_ext.DealKey, bid.DealID)
	}

	var cacheID, videoCacheID string
	if record.Cache != nil {
		cacheID = record.Cache.CacheID
		videoCacheID = record.Cache.VideoCacheID
	}
	if cacheID != "" {
		addKeys(openrtb_ext.CacheKey, cacheID)
	}
	if videoCacheID != "" {
		addKeys(openrtb_ext.VastCacheKey, videoCacheID)
	}
	if (cacheID != "" || videoCacheID != "") && t.cacheHost != "" {
		addKeys(openrtb_ext.CacheHostKey, t.cacheHost)
		addKeys(openrtb_ext.CachePathKey, t.cachePath)
	}
	if record.Category != "" {
		addKeys(openrtb_ext.CategoryDurationKey, record.Category)
	}
	if t.env != "" {
		addKeys(openrtb_ext.EnvKey, t.env)
	}
	if t.includeFormat {
		addKeys(openrtb_ext.FormatKey, string(record.BidType))
	}

	if len(targets) == 0 {
		return nil
	}
	return targets
}
