package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/prebid/prebid-response-engine/errortypes"
	"github.com/prebid/prebid-response-engine/events"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
	"github.com/prebid/prebid-response-engine/prebid_cache_client"
	"github.com/prebid/prebid-response-engine/util/jsonutil"
	"github.com/prebid/prebid-response-engine/util/ptrutil"
)

// CacheContext says which assets of the bids are stored.
type CacheContext struct {
	CacheBids      bool
	CacheVideoBids bool
	// ModifyBidJSON rewrites the cached bid JSON, for instance to add the win event url. Optional.
	ModifyBidJSON func(record *BidRecord, bidJSON []byte) ([]byte, error)
}

// CacheServiceResult holds the cache ids of the stored bids. Bids missing from CacheBids were not stored.
type CacheServiceResult struct {
	HttpCall  *openrtb_ext.ExtHttpCall
	Error     error
	CacheBids map[*BidRecord]CacheInfo
}

// BidCacher stores bids and their VAST documents in a content cache.
type BidCacher interface {
	CacheBids(ctx context.Context, records []*BidRecord, cacheContext CacheContext) CacheServiceResult
}

// NewBidCacher returns the BidCacher backed by prebid cache.
func NewBidCacher(client prebid_cache_client.Client) BidCacher {
	return &prebidCacher{client: client}
}

type prebidCacher struct {
	client prebid_cache_client.Client
}

// cacheSlot remembers which bid and asset a cacheable belongs to.
type cacheSlot struct {
	record *BidRecord
	video  bool
}

func (c *prebidCacher) CacheBids(ctx context.Context, records []*BidRecord, cacheContext CacheContext) CacheServiceResult {
	result := CacheServiceResult{CacheBids: make(map[*BidRecord]CacheInfo)}

	toCache := make([]prebid_cache_client.Cacheable, 0, len(records))
	slots := make([]cacheSlot, 0, len(records))
	for _, record := range records {
		if cacheContext.CacheBids {
			if cacheable, err := makeBidCacheable(record, cacheContext.ModifyBidJSON); err != nil {
				glog.Errorf("Error marshalling bid %s for Prebid Cache: %v", record.Bid.ID, err)
			} else {
				toCache = append(toCache, cacheable)
				slots = append(slots, cacheSlot{record: record})
			}
		}
		if cacheContext.CacheVideoBids && record.BidType == openrtb_ext.BidTypeVideo {
			if cacheable, err := makeVastCacheable(record); err != nil {
				glog.Errorf("Error marshalling VAST of bid %s for Prebid Cache: %v", record.Bid.ID, err)
			} else {
				toCache = append(toCache, cacheable)
				slots = append(slots, cacheSlot{record: record, video: true})
			}
		}
	}
	if len(toCache) == 0 {
		return result
	}

	ids, errs, call := c.client.PutJsonWithDebug(ctx, toCache)
	result.HttpCall = call
	if len(errs) > 0 {
		result.Error = joinCacheErrors(errs)
	}

	for i, slot := range slots {
		if i >= len(ids) || ids[i] == "" {
			continue
		}
		info := result.CacheBids[slot.record]
		if slot.video {
			info.VideoCacheID = ids[i]
			info.VideoTTL = slot.record.VastTTL
		} else {
			info.CacheID = ids[i]
			info.TTL = slot.record.TTL
		}
		result.CacheBids[slot.record] = info
	}
	return result
}

func makeBidCacheable(record *BidRecord, modify func(*BidRecord, []byte) ([]byte, error)) (prebid_cache_client.Cacheable, error) {
	data, err := jsonutil.Marshal(record.Bid)
	if err != nil {
		return prebid_cache_client.Cacheable{}, err
	}
	if modify != nil {
		if data, err = modify(record, data); err != nil {
			return prebid_cache_client.Cacheable{}, err
		}
	}
	return prebid_cache_client.Cacheable{
		Type:       prebid_cache_client.TypeJSON,
		Data:       data,
		TTLSeconds: int64(ptrutil.ValueOrDefault(record.TTL)),
	}, nil
}

func makeVastCacheable(record *BidRecord) (prebid_cache_client.Cacheable, error) {
	data, err := jsonutil.Marshal(events.MakeVAST(record.Bid))
	if err != nil {
		return prebid_cache_client.Cacheable{}, err
	}
	return prebid_cache_client.Cacheable{
		Type:       prebid_cache_client.TypeXML,
		Data:       data,
		TTLSeconds: int64(ptrutil.ValueOrDefault(record.VastTTL)),
	}, nil
}

// joinCacheErrors folds the errors of one cache call into a single error.
func joinCacheErrors(errs []error) error {
	messages := make([]string, 0, len(errs))
	for _, err := range errs {
		messages = append(messages, err.Error())
	}
	return &errortypes.FailedToCacheBids{Message: strings.Join(messages, "; ")}
}

// cacheOutcome is what the cache orchestration adds to the response.
type cacheOutcome struct {
	seats          []*SeatResponse
	httpCall       *openrtb_ext.ExtHttpCall
	err            error
	responseTimeMs int
}

// cacheOrchestrator selects the bids to cache, calls the BidCacher and attaches the outcome to the records.
type cacheOrchestrator struct {
	cacher      BidCacher
	clock       clock.Clock
	winningOnly bool
	context     CacheContext
}

func newCacheOrchestrator(cacher BidCacher, clk clock.Clock, settings *openrtb_ext.ExtRequestPrebidCache, hostWinningOnly bool, ev *eventTracking) *cacheOrchestrator {
	if cacher == nil || settings == nil || (settings.Bids == nil && settings.VastXML == nil) {
		return nil
	}
	return &cacheOrchestrator{
		cacher:      cacher,
		clock:       clk,
		winningOnly: ptrutil.ValueOrDefault(ptrutil.FirstNonNil(settings.WinningOnly, &hostWinningOnly)),
		context: CacheContext{
			CacheBids:      settings.Bids != nil,
			CacheVideoBids: settings.VastXML != nil,
			ModifyBidJSON:  ev.modifyBidJSON,
		},
	}
}

// isSelected applies the winning only setting.
func (co *cacheOrchestrator) isSelected(record *BidRecord) bool {
	return !co.winningOnly || record.isWinning()
}

// isCacheable keeps positive prices, and zero prices only for deals.
func isCacheable(record *BidRecord) bool {
	if record.Bid.DealID != "" {
		return record.Bid.Price >= 0
	}
	return record.Bid.Price > 0
}

// cache stores the cacheable bids among the selected ones. Every selected bid gets a CacheInfo, empty
// when it was not stored. A nil orchestrator leaves the seats unchanged.
func (co *cacheOrchestrator) cache(ctx context.Context, seats []*SeatResponse) cacheOutcome {
	if co == nil {
		return cacheOutcome{seats: seats}
	}

	selected := make(map[*BidRecord]bool)
	var candidates []*BidRecord
	for _, record := range allRecords(seats) {
		if !co.isSelected(record) {
			continue
		}
		selected[record] = true
		if isCacheable(record) {
			candidates = append(candidates, record)
		}
	}
	if len(selected) == 0 {
		return cacheOutcome{seats: seats}
	}

	var outcome cacheOutcome
	var stored map[*BidRecord]CacheInfo
	if len(candidates) > 0 {
		start := co.clock.Now()
		result := co.cacher.CacheBids(ctx, candidates, co.context)
		outcome.httpCall = result.HttpCall
		outcome.err = result.Error
		outcome.responseTimeMs = int(co.clock.Since(start).Milliseconds())
		if result.Error != nil {
			var cacheErr *errortypes.FailedToCacheBids
			if !errors.As(result.Error, &cacheErr) {
				outcome.err = &errortypes.FailedToCacheBids{Message: fmt.Sprintf("Prebid cache failed: %v", result.Error)}
			}
		}
		stored = result.CacheBids
	}

	outcome.seats = replaceRecords(seats, func(record *BidRecord) *BidRecord {
		if !selected[record] {
			return record
		}
		return record.withCache(stored[record])
	})
	return outcome
}

// cachedAssetURL returns the url of a cached asset, nil when the id is empty.
func cachedAssetURL(id string, assetURL func(string) string) *openrtb_ext.ExtBidPrebidCacheBids {
	if id == "" {
		return nil
	}
	return &openrtb_ext.ExtBidPrebidCacheBids{Url: assetURL(id), CacheId: id}
}

// exposedTTL is the bid.exp of the response: the cache ttls when the bid was stored, the resolved
// ttls otherwise.
func exposedTTL(record *BidRecord) *int {
	if record.Cache != nil {
		if ttl := maxTTL(record.Cache.TTL, record.Cache.VideoTTL); ttl != nil {
			return ttl
		}
	}
	return maxTTL(record.TTL, record.VastTTL)
}

func setExp(bid *openrtb2.Bid, ttl *int) {
	if ttl != nil {
		bid.Exp = int64(*ttl)
	}
}
