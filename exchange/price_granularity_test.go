package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prebid/prebid-response-engine/openrtb_ext"
	"github.com/prebid/prebid-response-engine/util/ptrutil"
)

func TestGetPriceBucketString(t *testing.T) {
	testCases := []struct {
		description string
		granularity string
		price       float64
		expected    string
	}{
		{description: "low", granularity: "low", price: 1.87, expected: "1.50"},
		{description: "medium", granularity: "medium", price: 1.87, expected: "1.80"},
		{description: "high", granularity: "high", price: 1.87, expected: "1.87"},
		{description: "auto", granularity: "auto", price: 1.87, expected: "1.85"},
		{description: "dense", granularity: "dense", price: 1.87, expected: "1.87"},
		{description: "low above max", granularity: "low", price: 5.72, expected: "5.00"},
		{description: "medium second range", granularity: "medium", price: 5.72, expected: "5.70"},
		{description: "high second range", granularity: "high", price: 5.72, expected: "5.72"},
		{description: "auto second range", granularity: "auto", price: 5.72, expected: "5.70"},
		{description: "dense second range", granularity: "dense", price: 5.72, expected: "5.70"},
		{description: "medium capped", granularity: "medium", price: 25, expected: "20.00"},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			pg, ok := openrtb_ext.NewPriceGranularityFromLegacyID(test.granularity)
			assert.True(t, ok)
			assert.Equal(t, test.expected, GetPriceBucket(test.price, pg))
		})
	}
}

func TestGetPriceBucketCustomGranularity(t *testing.T) {
	testCases := []struct {
		description string
		pg          openrtb_ext.PriceGranularity
		price       float64
		expected    string
	}{
		{
			description: "no ranges",
			pg:          openrtb_ext.PriceGranularity{},
			price:       1.5,
			expected:    "",
		},
		{
			description: "below the lowest range",
			pg: openrtb_ext.PriceGranularity{
				Precision: ptrutil.ToPtr(2),
				Ranges:    []openrtb_ext.GranularityRange{{Min: 1, Max: 5, Increment: 1}},
			},
			price:    0.5,
			expected: "",
		},
		{
			description: "precision zero",
			pg: openrtb_ext.PriceGranularity{
				Precision: ptrutil.ToPtr(0),
				Ranges:    []openrtb_ext.GranularityRange{{Min: 0, Max: 10, Increment: 1}},
			},
			price:    3,
			expected: "3",
		},
		{
			description: "default precision",
			pg: openrtb_ext.PriceGranularity{
				Ranges: []openrtb_ext.GranularityRange{{Min: 0, Max: 10, Increment: 0.25}},
			},
			price:    3.7,
			expected: "3.50",
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			assert.Equal(t, test.expected, GetPriceBucket(test.price, test.pg))
		})
	}
}
