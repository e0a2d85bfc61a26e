package currency

import (
	"errors"

	"golang.org/x/text/currency"
)

// Rates holds a conversion table, conversions[from][to].
type Rates struct {
	Conversions map[string]map[string]float64
}

// NewRates creates a new Rates object holding currencies rates. Currency codes are upper cased.
func NewRates(conversions map[string]map[string]float64) *Rates {
	normalized := make(map[string]map[string]float64, len(conversions))
	for from, rates := range conversions {
		fromCode := normalizeCode(from)
		if normalized[fromCode] == nil {
			normalized[fromCode] = make(map[string]float64, len(rates))
		}
		for to, rate := range rates {
			normalized[fromCode][normalizeCode(to)] = rate
		}
	}
	return &Rates{Conversions: normalized}
}

// findIntermediateConversionRate looks for a base currency quoting both currencies.
func findIntermediateConversionRate(r *Rates, from, to currency.Unit) (float64, error) {
	for _, conversions := range r.Conversions {
		toRate, hasToRate := conversions[to.String()]
		fromRate, hasFromRate := conversions[from.String()]

		if hasToRate && hasFromRate && fromRate != 0 {
			return toRate / fromRate, nil
		}
	}

	return 0, ConversionNotFoundError{FromCur: from.String(), ToCur: to.String()}
}

// GetRate returns the conversion rate between two currencies or:
//   - An error if one of the currency strings is not a recognized ISO 4217 code.
//   - A ConversionNotFoundError when neither a direct, reciprocal nor intermediate rate exists.
func (r *Rates) GetRate(from, to string) (float64, error) {
	fromUnit, err := currency.ParseISO(from)
	if err != nil {
		return 0, err
	}
	toUnit, err := currency.ParseISO(to)
	if err != nil {
		return 0, err
	}
	if fromUnit.String() == toUnit.String() {
		return 1, nil
	}
	if r.Conversions == nil {
		return 0, errors.New("rates are nil")
	}

	if conversion, present := r.Conversions[fromUnit.String()][toUnit.String()]; present {
		return conversion, nil
	}
	if conversion, present := r.Conversions[toUnit.String()][fromUnit.String()]; present && conversion != 0 {
		return 1 / conversion, nil
	}

	return findIntermediateConversionRate(r, fromUnit, toUnit)
}
