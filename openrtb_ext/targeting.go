package openrtb_ext

// TargetingKeys are used throughout Prebid as keys which can be used in an ad server like DFP.
// Clients set the values we assign on the request to the ad server, where they can be substituted like macros into
// Creatives.
//
// Removing one of these, or changing the semantics of what we store there, will probably break the
// line item setups for many publishers.
//
// The keys are stored without their prefix. The prefix ("hb" unless the publisher configured another one)
// is added when the key is resolved.
type TargetingKey string

const (
	PbKey TargetingKey = "_pb"

	// EnvKey exists to support the Prebid Universal Creative. If it exists, the only legal values are
	// mobile-app and amp.
	EnvKey TargetingKey = "_env"

	// BidderKey is the name of the Bidder. For example, "appnexus" or "rubicon".
	BidderKey TargetingKey = "_bidder"
	SizeKey   TargetingKey = "_size"
	DealKey   TargetingKey = "_deal"

	// CacheKey and VastCacheKey store UUIDs which can be used to fetch things from prebid cache.
	// Callers should *never* assume that either of these exist, since the call to the cache may always fail.
	//
	// CacheKey's UUID will fetch the entire bid JSON, while VastCacheKey will fetch just the VAST XML.
	// VastCacheKey will only ever exist for Video bids.
	CacheKey     TargetingKey = "_cache_id"
	VastCacheKey TargetingKey = "_uuid"

	// CacheHostKey and CachePathKey tell the creative where the cache lives.
	CacheHostKey TargetingKey = "_cache_host"
	CachePathKey TargetingKey = "_cache_path"

	CategoryDurationKey TargetingKey = "_pb_cat_dur"

	// FormatKey holds the media type of the bid.
	FormatKey TargetingKey = "_format"
)

const (
	// DefaultTargetingPrefix is used when neither the request nor the account configure a prefix.
	DefaultTargetingPrefix = "hb"

	// MaxKeyLength is the length of the longest key suffix ("_cache_host") without the prefix.
	MaxKeyLength = 11

	// These are not keys, but values used by EnvKey.
	EnvAppValue = "mobile-app"
	EnvAmpValue = "amp"
)

// BidderKey returns the key with the bidder (seat) name appended, truncated to maxLength when positive.
func (key TargetingKey) BidderKey(prefix string, bidder BidderName, maxLength int) string {
	return truncate(prefix+string(key)+"_"+string(bidder), maxLength)
}

// TruncateKey returns the prefixed key, truncated to maxLength when positive.
func (key TargetingKey) TruncateKey(prefix string, maxLength int) string {
	return truncate(prefix+string(key), maxLength)
}

func truncate(s string, maxLength int) string {
	if maxLength > 0 && len(s) > maxLength {
		return s[:maxLength]
	}
	return s
}
