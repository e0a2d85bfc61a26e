package ortb

import (
	"github.com/prebid/prebid-response-engine/openrtb_ext"
	"github.com/prebid/prebid-response-engine/util/ptrutil"
)

const (
	DefaultPriceGranularityPrecision  = 2
	DefaultTargetingIncludeWinners    = true
	DefaultTargetingIncludeBidderKeys = true
)

// SetDefaultsTargeting fills the unset targeting settings. It returns a copy and whether any default
// was applied; the given targeting is left untouched. A nil targeting stays nil.
func SetDefaultsTargeting(targeting *openrtb_ext.ExtRequestTargeting) (*openrtb_ext.ExtRequestTargeting, bool) {
	if targeting == nil {
		return nil, false
	}

	result := *targeting
	modified := false

	if newPG, updated := setDefaultsPriceGranularity(result.PriceGranularity); updated {
		modified = true
		result.PriceGranularity = newPG
	}

	// A media type granularity only overrides the default one when it is set.
	if mtpg := result.MediaTypePriceGranularity; mtpg != nil {
		copied := *mtpg
		if copied.Video != nil {
			copied.Video, _ = setDefaultsPriceGranularity(copied.Video)
		}
		if copied.Banner != nil {
			copied.Banner, _ = setDefaultsPriceGranularity(copied.Banner)
		}
		if copied.Native != nil {
			copied.Native, _ = setDefaultsPriceGranularity(copied.Native)
		}
		if copied != *mtpg {
			modified = true
		}
		result.MediaTypePriceGranularity = &copied
	}

	if result.IncludeWinners == nil {
		result.IncludeWinners = ptrutil.ToPtr(DefaultTargetingIncludeWinners)
		modified = true
	}

	if result.IncludeBidderKeys == nil {
		result.IncludeBidderKeys = ptrutil.ToPtr(DefaultTargetingIncludeBidderKeys)
		modified = true
	}

	return &result, modified
}

func setDefaultsPriceGranularity(pg *openrtb_ext.PriceGranularity) (*openrtb_ext.PriceGranularity, bool) {
	if pg == nil || len(pg.Ranges) == 0 {
		return ptrutil.ToPtr(openrtb_ext.NewPriceGranularityDefault()), true
	}

	result := openrtb_ext.PriceGranularity{
		Precision: pg.Precision,
		Ranges:    append([]openrtb_ext.GranularityRange(nil), pg.Ranges...),
	}
	modified := false

	if result.Precision == nil {
		result.Precision = ptrutil.ToPtr(DefaultPriceGranularityPrecision)
		modified = true
	}

	if setDefaultsPriceGranularityRange(result.Ranges) {
		modified = true
	}

	if !modified {
		return pg, false
	}
	return &result, true
}

func setDefaultsPriceGranularityRange(ranges []openrtb_ext.GranularityRange) bool {
	modified := false

	var prevMax float64 = 0
	for i, r := range ranges {
		if ranges[i].Min != prevMax {
			ranges[i].Min = prevMax
			modified = true
		}
		prevMax = r.Max
	}

	return modified
}
