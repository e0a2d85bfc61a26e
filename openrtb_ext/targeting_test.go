package openrtb_ext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBidderKey(t *testing.T) {
	assert.Equal(t, "hb_pb_appnexus", PbKey.BidderKey("hb", "appnexus", 50))
	assert.Equal(t, "hb_pb_ap", PbKey.BidderKey("hb", "appnexus", 8))
	assert.Equal(t, "custom_bidder_rubicon", BidderKey.BidderKey("custom", "rubicon", 0))
}

func TestTruncateKey(t *testing.T) {
	testCases := []struct {
		description          string
		givenPrefix          string
		givenMaxLength       int
		givenTargetingKey    TargetingKey
		expectedTargetingKey string
	}{
		{
			description:          "Targeting key is smaller than max length, expect targeting key to stay the same",
			givenPrefix:          "hb",
			givenMaxLength:       15,
			givenTargetingKey:    TargetingKey("_bidder_key"),
			expectedTargetingKey: "hb_bidder_key",
		},
		{
			description:          "Targeting key is larger than max length, expect targeting key to be truncated",
			givenPrefix:          "hb",
			givenMaxLength:       9,
			givenTargetingKey:    TargetingKey("_bidder_key"),
			expectedTargetingKey: "hb_bidder",
		},
		{
			description:          "Max length isn't greater than zero, expect targeting key to not be truncated",
			givenPrefix:          "hb",
			givenMaxLength:       0,
			givenTargetingKey:    TargetingKey("_bidder_key"),
			expectedTargetingKey: "hb_bidder_key",
		},
		{
			description:          "Custom prefix is used instead of the default one",
			givenPrefix:          "pfx",
			givenMaxLength:       20,
			givenTargetingKey:    CacheHostKey,
			expectedTargetingKey: "pfx_cache_host",
		},
	}

	for _, test := range testCases {
		truncatedKey := test.givenTargetingKey.TruncateKey(test.givenPrefix, test.givenMaxLength)
		assert.Equalf(t, test.expectedTargetingKey, truncatedKey, "The Targeting Key is incorrect: %s\n", test.description)
	}
}

func TestBidParsing(t *testing.T) {
	for _, bidType := range BidTypes() {
		parsed, err := ParseBidType(string(bidType))
		assert.NoError(t, err)
		assert.Equal(t, bidType, parsed)
	}

	_, err := ParseBidType("unknown")
	assert.EqualError(t, err, "invalid BidType: unknown")
}

func TestIsReservedBidderName(t *testing.T) {
	assert.True(t, IsReservedBidderName("cache"))
	assert.True(t, IsReservedBidderName("Prebid"))
	assert.True(t, IsReservedBidderName("targeting"))
	assert.False(t, IsReservedBidderName("appnexus"))
}
