package currency

import (
	"strings"

	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
)

// Conversions converts prices between currencies.
type Conversions interface {
	GetRate(from string, to string) (float64, error)
}

// NewConversions builds the host conversions from the static table of the configuration.
// Configuration keys may arrive lower cased, codes are stored upper cased.
// Without any configured rate only same currency conversions succeed.
func NewConversions(cfg config.CurrencyConverter) Conversions {
	if len(cfg.Rates) == 0 {
		return NewConstantRates()
	}
	return NewRates(cfg.Rates)
}

// GetAuctionCurrencyRates merges the rates sent in bidrequest.ext.prebid.currency with the host rates.
func GetAuctionCurrencyRates(serverRates Conversions, requestRates *openrtb_ext.ExtRequestCurrency) Conversions {
	if requestRates == nil || len(requestRates.ConversionRates) == 0 {
		return serverRates
	}

	customRates := NewRates(requestRates.ConversionRates)
	if serverRates == nil {
		return customRates
	}

	// usepbsrates defaults to true, only an explicit false ignores the host rates
	if requestRates.UsePBSRates != nil && !*requestRates.UsePBSRates {
		return customRates
	}

	return NewAggregateConversions(customRates, serverRates)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
