package errortypes

// Severity tells whether an error is returned under ext.errors or ext.warnings.
type Severity int

const (
	SeverityUnknown Severity = iota
	// SeverityFatal errors cost the bidder some or all of its bids.
	SeverityFatal
	// SeverityWarning errors leave the bids untouched.
	SeverityWarning
)

// isFatal treats errors without a severity as fatal.
func isFatal(err error) bool {
	s, ok := err.(Coder)
	return !ok || s.Severity() == SeverityFatal
}

// IsWarning reports whether err carries SeverityWarning.
func IsWarning(err error) bool {
	s, ok := err.(Coder)
	return ok && s.Severity() == SeverityWarning
}

// FatalOnly returns the fatal errors of errs, keeping their order.
func FatalOnly(errs []error) []error {
	var fatal []error
	for _, err := range errs {
		if isFatal(err) {
			fatal = append(fatal, err)
		}
	}
	return fatal
}

// WarningOnly returns the warnings of errs, keeping their order.
func WarningOnly(errs []error) []error {
	var warnings []error
	for _, err := range errs {
		if IsWarning(err) {
			warnings = append(warnings, err)
		}
	}
	return warnings
}
