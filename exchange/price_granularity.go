package exchange

import (
	"math"
	"strconv"

	"github.com/prebid/prebid-response-engine/openrtb_ext"
)

// GetPriceBucket returns the price bucket of cpm for the given granularity, "" when the granularity
// has no range.
func GetPriceBucket(cpm float64, pg openrtb_ext.PriceGranularity) string {
	if len(pg.Ranges) == 0 {
		return ""
	}

	precision := openrtb_ext.DefaultPrecision
	if pg.Precision != nil {
		precision = *pg.Precision
	}

	bucketMax := 0.0
	var increment float64
	for _, r := range pg.Ranges {
		if r.Max > bucketMax {
			bucketMax = r.Max
		}
		if increment == 0 && cpm >= r.Min && cpm <= r.Max {
			increment = r.Increment
		}
	}

	if cpm > bucketMax {
		return strconv.FormatFloat(bucketMax, 'f', precision, 64)
	}
	if increment == 0 {
		// cpm below the lowest range
		return ""
	}
	return getCpmTarget(cpm, increment, precision)
}

func getCpmTarget(cpm float64, increment float64, precision int) string {
	d := roundUp(cpm/increment, precision)
	roundedCPM := math.Floor(d) * increment
	return strconv.FormatFloat(roundedCPM, 'f', precision, 64)
}

func roundUp(input float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Ceil(pow*input) / pow
}
