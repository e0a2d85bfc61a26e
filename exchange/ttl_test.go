package exchange

import (
	"testing"

	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/stretchr/testify/assert"

	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
	"github.com/prebid/prebid-response-engine/util/ptrutil"
)

func TestResolveTTL(t *testing.T) {
	cfg := newTestConfig()
	cfg.Auction.BannerCacheTTL = 120

	testCases := []struct {
		description string
		bid         *openrtb2.Bid
		imp         *openrtb2.Imp
		account     *config.Account
		cache       *openrtb_ext.ExtRequestPrebidCache
		bidType     openrtb_ext.BidType
		expected    *int
	}{
		{
			description: "bid exp wins",
			bid:         &openrtb2.Bid{Exp: 30},
			imp:         &openrtb2.Imp{Exp: 60},
			cache:       &openrtb_ext.ExtRequestPrebidCache{Bids: &openrtb_ext.ExtRequestPrebidCacheBids{TTLSeconds: ptrutil.ToPtr(90)}},
			bidType:     openrtb_ext.BidTypeBanner,
			expected:    ptrutil.ToPtr(30),
		},
		{
			description: "imp exp",
			bid:         &openrtb2.Bid{},
			imp:         &openrtb2.Imp{Exp: 60},
			cache:       &openrtb_ext.ExtRequestPrebidCache{Bids: &openrtb_ext.ExtRequestPrebidCacheBids{TTLSeconds: ptrutil.ToPtr(90)}},
			bidType:     openrtb_ext.BidTypeBanner,
			expected:    ptrutil.ToPtr(60),
		},
		{
			description: "request ttl",
			bid:         &openrtb2.Bid{},
			imp:         &openrtb2.Imp{},
			cache:       &openrtb_ext.ExtRequestPrebidCache{Bids: &openrtb_ext.ExtRequestPrebidCacheBids{TTLSeconds: ptrutil.ToPtr(90)}},
			bidType:     openrtb_ext.BidTypeBanner,
			expected:    ptrutil.ToPtr(90),
		},
		{
			description: "account media type ttl",
			bid:         &openrtb2.Bid{},
			imp:         &openrtb2.Imp{},
			account:     &config.Account{Auction: config.AccountAuction{BannerCacheTTL: ptrutil.ToPtr(45)}},
			bidType:     openrtb_ext.BidTypeBanner,
			expected:    ptrutil.ToPtr(45),
		},
		{
			description: "host media type ttl",
			bid:         &openrtb2.Bid{},
			imp:         &openrtb2.Imp{},
			bidType:     openrtb_ext.BidTypeBanner,
			expected:    ptrutil.ToPtr(120),
		},
		{
			description: "host default ttl",
			bid:         &openrtb2.Bid{},
			imp:         &openrtb2.Imp{},
			bidType:     openrtb_ext.BidTypeNative,
			expected:    ptrutil.ToPtr(300),
		},
		{
			description: "negative exp is ignored",
			bid:         &openrtb2.Bid{Exp: -5},
			imp:         &openrtb2.Imp{},
			bidType:     openrtb_ext.BidTypeVideo,
			expected:    ptrutil.ToPtr(1500),
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			resolver := newTTLResolver(cfg, test.account, test.cache)
			assert.Equal(t, test.expected, resolver.resolveTTL(test.bid, test.imp, test.bidType))
		})
	}
}

func TestResolveVastTTL(t *testing.T) {
	cfg := newTestConfig()

	testCases := []struct {
		description string
		bid         *openrtb2.Bid
		account     *config.Account
		cache       *openrtb_ext.ExtRequestPrebidCache
		bidType     openrtb_ext.BidType
		expected    *int
	}{
		{
			description: "banner has no vast ttl",
			bid:         &openrtb2.Bid{Exp: 30},
			bidType:     openrtb_ext.BidTypeBanner,
			expected:    nil,
		},
		{
			description: "bid exp",
			bid:         &openrtb2.Bid{Exp: 30},
			cache:       &openrtb_ext.ExtRequestPrebidCache{VastXML: &openrtb_ext.ExtRequestPrebidCacheVAST{TTLSeconds: ptrutil.ToPtr(90)}},
			bidType:     openrtb_ext.BidTypeVideo,
			expected:    ptrutil.ToPtr(30),
		},
		{
			description: "request vast ttl",
			bid:         &openrtb2.Bid{},
			cache:       &openrtb_ext.ExtRequestPrebidCache{VastXML: &openrtb_ext.ExtRequestPrebidCacheVAST{TTLSeconds: ptrutil.ToPtr(90)}},
			bidType:     openrtb_ext.BidTypeVideo,
			expected:    ptrutil.ToPtr(90),
		},
		{
			description: "account video ttl",
			bid:         &openrtb2.Bid{},
			account:     &config.Account{Auction: config.AccountAuction{VideoCacheTTL: ptrutil.ToPtr(700)}},
			bidType:     openrtb_ext.BidTypeVideo,
			expected:    ptrutil.ToPtr(700),
		},
		{
			description: "host default",
			bid:         &openrtb2.Bid{},
			bidType:     openrtb_ext.BidTypeVideo,
			expected:    ptrutil.ToPtr(1500),
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			resolver := newTTLResolver(cfg, test.account, test.cache)
			assert.Equal(t, test.expected, resolver.resolveVastTTL(test.bid, &openrtb2.Imp{}, test.bidType))
		})
	}
}

func TestMaxTTL(t *testing.T) {
	assert.Nil(t, maxTTL(nil, nil))
	assert.Equal(t, ptrutil.ToPtr(5), maxTTL(ptrutil.ToPtr(5), nil))
	assert.Equal(t, ptrutil.ToPtr(5), maxTTL(nil, ptrutil.ToPtr(5)))
	assert.Equal(t, ptrutil.ToPtr(9), maxTTL(ptrutil.ToPtr(3), ptrutil.ToPtr(9)))
}
