package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/exchange/entities"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
	"github.com/prebid/prebid-response-engine/prebid_cache_client"
)

var testTime = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// wellBehavedCache stores everything and returns deterministic ids derived from the payload.
type wellBehavedCache struct {
	sync.Mutex
	calls [][]prebid_cache_client.Cacheable
}

func (c *wellBehavedCache) GetExtCacheData() (string, string, string) {
	return "https", "www.pbcserver.com", "/pbcache/endpoint"
}

func (c *wellBehavedCache) PutJson(ctx context.Context, values []prebid_cache_client.Cacheable) ([]string, []error) {
	ids, errs, _ := c.PutJsonWithDebug(ctx, values)
	return ids, errs
}

func (c *wellBehavedCache) PutJsonWithDebug(ctx context.Context, values []prebid_cache_client.Cacheable) ([]string, []error, *openrtb_ext.ExtHttpCall) {
	c.Lock()
	c.calls = append(c.calls, values)
	c.Unlock()

	ids := make([]string, len(values))
	for i, value := range values {
		ids[i] = fmt.Sprintf("%s-%x", value.Type, len(value.Data)*31+i)
	}
	return ids, nil, &openrtb_ext.ExtHttpCall{Uri: "https://www.pbcserver.com/pbcache/endpoint", Status: 200}
}

// failingCache fails every call.
type failingCache struct{}

func (failingCache) GetExtCacheData() (string, string, string) {
	return "https", "www.pbcserver.com", "/pbcache/endpoint"
}

func (failingCache) PutJson(ctx context.Context, values []prebid_cache_client.Cacheable) ([]string, []error) {
	return make([]string, len(values)), []error{errors.New("cache timeout")}
}

func (c failingCache) PutJsonWithDebug(ctx context.Context, values []prebid_cache_client.Cacheable) ([]string, []error, *openrtb_ext.ExtHttpCall) {
	ids, errs := c.PutJson(ctx, values)
	return ids, errs, nil
}

// recordingBidCacher remembers the bids it was asked to store and stores all of them.
type recordingBidCacher struct {
	records []*BidRecord
	context CacheContext
}

func (c *recordingBidCacher) CacheBids(ctx context.Context, records []*BidRecord, cacheContext CacheContext) CacheServiceResult {
	c.records = records
	c.context = cacheContext
	result := CacheServiceResult{CacheBids: make(map[*BidRecord]CacheInfo)}
	for _, record := range records {
		result.CacheBids[record] = CacheInfo{CacheID: "cache-" + record.Bid.ID, TTL: record.TTL}
	}
	return result
}

type mockCategoryFetcher struct {
	categories map[string]string
}

func (f *mockCategoryFetcher) FetchCategories(ctx context.Context, primaryAdServer, publisherId, iabCategory string) (string, error) {
	if category, ok := f.categories[iabCategory]; ok {
		return category, nil
	}
	return "", errors.New("category not found")
}

type mockStoredFetcher struct {
	imps map[string]json.RawMessage
	errs []error
}

func (f *mockStoredFetcher) FetchImps(ctx context.Context, impIDs []string) (map[string]json.RawMessage, []error) {
	return f.imps, f.errs
}

type fakeBidIDGenerator struct {
	enabled bool
	id      string
	err     error
}

func (g *fakeBidIDGenerator) New(bidder string) (string, error) {
	return g.id, g.err
}

func (g *fakeBidIDGenerator) Enabled() bool {
	return g.enabled
}

func newTestConfig() *config.Configuration {
	return &config.Configuration{
		ExternalURL: "http://localhost",
		CacheURL: config.Cache{
			Scheme: "https",
			Host:   "www.pbcserver.com",
			Path:   "/pbcache/endpoint",
			DefaultTTLs: config.DefaultTTLs{
				Banner: 300,
				Video:  1500,
				Native: 300,
				Audio:  300,
			},
		},
		Auction: config.Auction{DebugAllowed: true},
	}
}

func newTestAuctionContext(request *openrtb2.BidRequest, account config.Account) *auctionContext {
	return newAuctionContext(newTestConfig(), &AuctionRequest{BidRequest: request, Account: account})
}

func bannerBid(id, impID string, price float64) *entities.PbsOrtbBid {
	return &entities.PbsOrtbBid{
		Bid:     &openrtb2.Bid{ID: id, ImpID: impID, Price: price, AdM: "<div>" + id + "</div>", W: 300, H: 250},
		BidType: openrtb_ext.BidTypeBanner,
	}
}

func bidderResponse(bidder string, bids ...*entities.PbsOrtbBid) *entities.BidderResponse {
	return &entities.BidderResponse{
		Bidder:             openrtb_ext.BidderName(bidder),
		SeatBid:            &entities.PbsOrtbSeatBid{Bids: bids, Currency: "USD"},
		ResponseTimeMillis: 20,
	}
}

func bidRecord(bidder, id, impID string, price float64) *BidRecord {
	return &BidRecord{
		Bid:     &openrtb2.Bid{ID: id, ImpID: impID, Price: price},
		BidType: openrtb_ext.BidTypeBanner,
		Bidder:  openrtb_ext.BidderName(bidder),
		Seat:    bidder,
	}
}

func seatResponse(bidder string, records ...*BidRecord) *SeatResponse {
	return &SeatResponse{
		Bidder:      openrtb_ext.BidderName(bidder),
		Seat:        bidder,
		AdapterCode: bidder,
		Bids:        records,
	}
}

// findRecord returns the record of the given bid id.
func findRecord(seats []*SeatResponse, bidID string) *BidRecord {
	for _, record := range allRecords(seats) {
		if record.Bid.ID == bidID {
			return record
		}
	}
	return nil
}

// recordingLogger keeps the formatted messages it receives.
type recordingLogger struct {
	sync.Mutex
	warnings []string
	errors   []string
}

func (l *recordingLogger) Infof(msg string, args ...any) {}

func (l *recordingLogger) Warnf(msg string, args ...any) {
	l.Lock()
	defer l.Unlock()
	l.warnings = append(l.warnings, fmt.Sprintf(msg, args...))
}

func (l *recordingLogger) Errorf(msg string, args ...any) {
	l.Lock()
	defer l.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(msg, args...))
}
