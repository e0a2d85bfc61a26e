package openrtb_ext

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultPrecision is used when a granularity does not define one.
const DefaultPrecision = 2

// PriceGranularity defines the allowed values for bidrequest.ext.prebid.targeting.pricegranularity
// or bidrequest.ext.prebid.targeting.mediatypepricegranularity.banner|video|native
type PriceGranularity struct {
	Precision *int               `json:"precision,omitempty"`
	Ranges    []GranularityRange `json:"ranges,omitempty"`
}

// GranularityRange struct defines a range of prices used by PriceGranularity
type GranularityRange struct {
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Increment float64 `json:"increment"`
}

// MediaTypePriceGranularity specify price granularity configuration at the bid type level
type MediaTypePriceGranularity struct {
	Banner *PriceGranularity `json:"banner,omitempty"`
	Video  *PriceGranularity `json:"video,omitempty"`
	Native *PriceGranularity `json:"native,omitempty"`
}

// UnmarshalJSON accepts either one of the legacy granularity names ("low", "med", ...) or a full
// object with explicit ranges.
func (pg *PriceGranularity) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		legacy, ok := NewPriceGranularityFromLegacyID(name)
		if !ok {
			return fmt.Errorf("Price granularity error: invalid granularity name '%s'", name)
		}
		*pg = legacy
		return nil
	}

	type plain PriceGranularity
	var parsed plain
	if err := json.Unmarshal(b, &parsed); err != nil {
		return err
	}
	if err := validateGranularity(PriceGranularity(parsed)); err != nil {
		return err
	}
	*pg = PriceGranularity(parsed)
	return nil
}

func validateGranularity(pg PriceGranularity) error {
	if pg.Precision != nil && (*pg.Precision < 0 || *pg.Precision > 15) {
		return errors.New("Price granularity error: precision must be between 0 and 15")
	}
	if len(pg.Ranges) == 0 {
		return errors.New("Price granularity error: empty granularity definition supplied")
	}
	var prevMax float64
	for _, r := range pg.Ranges {
		if r.Max < prevMax {
			return errors.New("Price granularity error: range list must be ordered with increasing \"max\"")
		}
		if r.Increment <= 0.0 {
			return errors.New("Price granularity error: increment must be a nonzero positive number")
		}
		prevMax = r.Max
	}
	return nil
}

// NewPriceGranularityDefault returns the "medium" granularity.
func NewPriceGranularityDefault() PriceGranularity {
	pg, _ := NewPriceGranularityFromLegacyID("medium")
	return pg
}

// NewPriceGranularityFromLegacyID resolves one of the named granularities.
func NewPriceGranularityFromLegacyID(v string) (PriceGranularity, bool) {
	precision := DefaultPrecision

	switch v {
	case "low":
		return PriceGranularity{
			Precision: &precision,
			Ranges:    []GranularityRange{{Min: 0, Max: 5, Increment: 0.5}},
		}, true

	case "med", "medium":
		return PriceGranularity{
			Precision: &precision,
			Ranges:    []GranularityRange{{Min: 0, Max: 20, Increment: 0.1}},
		}, true

	case "high":
		return PriceGranularity{
			Precision: &precision,
			Ranges:    []GranularityRange{{Min: 0, Max: 20, Increment: 0.01}},
		}, true

	case "auto":
		return PriceGranularity{
			Precision: &precision,
			Ranges: []GranularityRange{
				{Min: 0, Max: 5, Increment: 0.05},
				{Min: 5, Max: 10, Increment: 0.1},
				{Min: 10, Max: 20, Increment: 0.5},
			},
		}, true

	case "dense":
		return PriceGranularity{
			Precision: &precision,
			Ranges: []GranularityRange{
				{Min: 0, Max: 3, Increment: 0.01},
				{Min: 3, Max: 8, Increment: 0.05},
				{Min: 8, Max: 20, Increment: 0.5},
			},
		}, true
	}

	return PriceGranularity{}, false
}
