package memory

import (
	"context"
	"encoding/json"

	"github.com/coocood/freecache"
	"github.com/golang/glog"
	lru "github.com/hashicorp/golang-lru"
	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/metrics"
	"github.com/prebid/prebid-response-engine/stored_requests"
)

// NewFetcherWithCache returns a Fetcher which keeps stored imps in an LRU of impCacheSize entries and
// category translations in a freecache of cfg.CacheSize bytes before delegating to the backing fetcher.
// A zero size disables the corresponding cache.
func NewFetcherWithCache(fetcher stored_requests.AllFetcher, impCacheSize int, cfg config.CategoryMapping, metricsEngine metrics.MetricsEngine) stored_requests.AllFetcher {
	cached := &cachedFetcher{
		fetcher:       fetcher,
		categoryTTL:   cfg.TTLSeconds,
		metricsEngine: metricsEngine,
	}
	if impCacheSize > 0 {
		imps, err := lru.New(impCacheSize)
		if err != nil {
			glog.Fatalf("Failed to create the stored imp cache: %v", err)
		}
		cached.imps = imps
	}
	if cfg.CacheSize > 0 {
		cached.categories = freecache.NewCache(cfg.CacheSize)
	}
	return cached
}

type cachedFetcher struct {
	fetcher       stored_requests.AllFetcher
	imps          *lru.Cache
	categories    *freecache.Cache
	categoryTTL   int
	metricsEngine metrics.MetricsEngine
}

func (f *cachedFetcher) FetchImps(ctx context.Context, impIDs []string) (map[string]json.RawMessage, []error) {
	if f.imps == nil {
		return f.fetcher.FetchImps(ctx, impIDs)
	}

	impData := make(map[string]json.RawMessage, len(impIDs))
	leftovers := make([]string, 0, len(impIDs))
	for _, id := range impIDs {
		if data, ok := f.imps.Get(id); ok {
			impData[id] = data.(json.RawMessage)
		} else {
			leftovers = append(leftovers, id)
		}
	}
	if len(leftovers) == 0 {
		return impData, nil
	}

	fetched, errs := f.fetcher.FetchImps(ctx, leftovers)
	for id, data := range fetched {
		f.imps.Add(id, data)
		impData[id] = data
	}
	return impData, errs
}

func (f *cachedFetcher) FetchCategories(ctx context.Context, primaryAdServer, publisherId, iabCategory string) (string, error) {
	if f.categories == nil {
		return f.fetcher.FetchCategories(ctx, primaryAdServer, publisherId, iabCategory)
	}

	key := []byte(primaryAdServer + "|" + publisherId + "|" + iabCategory)
	if value, err := f.categories.Get(key); err == nil {
		f.metricsEngine.RecordCategoryCacheResult(metrics.CacheHit, 1)
		return string(value), nil
	}
	f.metricsEngine.RecordCategoryCacheResult(metrics.CacheMiss, 1)

	category, err := f.fetcher.FetchCategories(ctx, primaryAdServer, publisherId, iabCategory)
	if err != nil {
		return "", err
	}
	if err := f.categories.Set(key, []byte(category), f.categoryTTL); err != nil {
		glog.Warningf("Failed to cache category %s for %s: %v", iabCategory, primaryAdServer, err)
	}
	return category, nil
}
