package currency

// AggregateConversions prefers the rates of the request and falls back to the host rates.
type AggregateConversions struct {
	customRates, serverRates Conversions
}

// NewAggregateConversions expects both customRates and serverRates to not be nil
func NewAggregateConversions(customRates, serverRates Conversions) *AggregateConversions {
	return &AggregateConversions{
		customRates: customRates,
		serverRates: serverRates,
	}
}

// GetRate returns the custom rate when it exists. Malformed currency codes are reported
// right away, a missing custom rate is looked up in the host rates.
func (re *AggregateConversions) GetRate(from string, to string) (float64, error) {
	rate, err := re.customRates.GetRate(from, to)
	if err == nil {
		return rate, nil
	} else if _, isMissingRateErr := err.(ConversionNotFoundError); !isMissingRateErr {
		return 0, err
	}

	return re.serverRates.GetRate(from, to)
}
