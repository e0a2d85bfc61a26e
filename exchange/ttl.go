package exchange

import (
	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
	"github.com/prebid/prebid-response-engine/util/ptrutil"
)

// ttlResolver walks the ttl chain of a bid: bid, imp, request, account, host media type, host default.
type ttlResolver struct {
	requestBidsTTL *int
	requestVastTTL *int
	accountAuction config.AccountAuction
	hostBannerTTL  int
	hostVideoTTL   int
	defaultTTLs    config.DefaultTTLs
}

func newTTLResolver(cfg *config.Configuration, account *config.Account, cache *openrtb_ext.ExtRequestPrebidCache) ttlResolver {
	r := ttlResolver{
		hostBannerTTL: cfg.Auction.BannerCacheTTL,
		hostVideoTTL:  cfg.Auction.VideoCacheTTL,
		defaultTTLs:   cfg.CacheURL.DefaultTTLs,
	}
	if account != nil {
		r.accountAuction = account.Auction
	}
	if cache != nil {
		if cache.Bids != nil {
			r.requestBidsTTL = cache.Bids.TTLSeconds
		}
		if cache.VastXML != nil {
			r.requestVastTTL = cache.VastXML.TTLSeconds
		}
	}
	return r
}

// resolveTTL returns the ttl of any bid. Account and host overrides only exist for banner and video.
func (r ttlResolver) resolveTTL(bid *openrtb2.Bid, imp *openrtb2.Imp, bidType openrtb_ext.BidType) *int {
	return ptrutil.FirstNonNil(
		positiveOrNil(bid.Exp),
		positiveOrNil(imp.Exp),
		r.requestBidsTTL,
		r.accountMediaTTL(bidType),
		r.hostMediaTTL(bidType),
		r.defaultTTL(bidType),
	)
}

// resolveVastTTL returns the ttl of the VAST document of a video bid, nil for other media types.
func (r ttlResolver) resolveVastTTL(bid *openrtb2.Bid, imp *openrtb2.Imp, bidType openrtb_ext.BidType) *int {
	if bidType != openrtb_ext.BidTypeVideo {
		return nil
	}
	return ptrutil.FirstNonNil(
		positiveOrNil(bid.Exp),
		positiveOrNil(imp.Exp),
		r.requestVastTTL,
		r.accountAuction.VideoCacheTTL,
		nonZeroOrNil(r.hostVideoTTL),
		nonZeroOrNil(r.defaultTTLs.Video),
	)
}

func (r ttlResolver) accountMediaTTL(bidType openrtb_ext.BidType) *int {
	switch bidType {
	case openrtb_ext.BidTypeBanner:
		return r.accountAuction.BannerCacheTTL
	case openrtb_ext.BidTypeVideo:
		return r.accountAuction.VideoCacheTTL
	}
	return nil
}

func (r ttlResolver) hostMediaTTL(bidType openrtb_ext.BidType) *int {
	switch bidType {
	case openrtb_ext.BidTypeBanner:
		return nonZeroOrNil(r.hostBannerTTL)
	case openrtb_ext.BidTypeVideo:
		return nonZeroOrNil(r.hostVideoTTL)
	}
	return nil
}

func (r ttlResolver) defaultTTL(bidType openrtb_ext.BidType) *int {
	switch bidType {
	case openrtb_ext.BidTypeBanner:
		return nonZeroOrNil(r.defaultTTLs.Banner)
	case openrtb_ext.BidTypeVideo:
		return nonZeroOrNil(r.defaultTTLs.Video)
	case openrtb_ext.BidTypeNative:
		return nonZeroOrNil(r.defaultTTLs.Native)
	case openrtb_ext.BidTypeAudio:
		return nonZeroOrNil(r.defaultTTLs.Audio)
	}
	return nil
}

func positiveOrNil(v int64) *int {
	if v <= 0 {
		return nil
	}
	return ptrutil.ToPtr(int(v))
}

func nonZeroOrNil(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

// maxTTL returns the greater of two optional ttls.
func maxTTL(a, b *int) *int {
	if a == nil {
		return b
	}
	if b == nil || *a >= *b {
		return a
	}
	return b
}
