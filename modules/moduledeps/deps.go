package moduledeps

import (
	"net/http"

	"github.com/prebid/prebid-response-engine/currency"
)

// ModuleDeps are the host services handed to every module builder.
type ModuleDeps struct {
	HTTPClient *http.Client
	Currency   currency.Conversions
}

// Conversions returns the host conversions, or same currency only
// conversions when the host has none.
func (d ModuleDeps) Conversions() currency.Conversions {
	if d.Currency == nil {
		return currency.NewConstantRates()
	}
	return d.Currency
}
