package errortypes

// Timeout should be used to flag that a collaborator (cache, category mapping) failed to answer
// before the auction deadline expired.
type Timeout struct {
	Message string
}

func (err *Timeout) Error() string {
	return err.Message
}

func (err *Timeout) Code() int {
	return TimeoutErrorCode
}

func (err *Timeout) Severity() Severity {
	return SeverityFatal
}

// BadInput should be used when returning errors which are caused by bad input.
// It should _not_ be used if the error is a server-side issue (e.g. failed to reach the cache).
type BadInput struct {
	Message string
}

func (err *BadInput) Error() string {
	return err.Message
}

func (err *BadInput) Code() int {
	return BadInputErrorCode
}

func (err *BadInput) Severity() Severity {
	return SeverityFatal
}

// BadServerResponse should be used when returning errors which are caused by bad/unexpected data returned by a bidder.
//
// For example:
//
//   - A native bid references an asset which is not part of the native request.
//   - The markup of a bid can not be decoded.
type BadServerResponse struct {
	Message string
}

func (err *BadServerResponse) Error() string {
	return err.Message
}

func (err *BadServerResponse) Code() int {
	return BadServerResponseErrorCode
}

func (err *BadServerResponse) Severity() Severity {
	return SeverityFatal
}

// FailedToRequestBids is an error to cover the case where a bidder produced a response without any bids
// and without any error messages explaining why.
type FailedToRequestBids struct {
	Message string
}

func (err *FailedToRequestBids) Error() string {
	return err.Message
}

func (err *FailedToRequestBids) Code() int {
	return FailedToRequestBidsErrorCode
}

func (err *FailedToRequestBids) Severity() Severity {
	return SeverityFatal
}

// FailedToCacheBids is returned by the cache orchestration when Prebid Cache could not store the bids.
// The auction continues without cache ids.
type FailedToCacheBids struct {
	Message string
}

func (err *FailedToCacheBids) Error() string {
	return err.Message
}

func (err *FailedToCacheBids) Code() int {
	return FailedToCacheBidsErrorCode
}

func (err *FailedToCacheBids) Severity() Severity {
	return SeverityFatal
}

// NoConversionRate is used when the price of a seat can not be converted into the auction currency.
type NoConversionRate struct {
	Message string
}

func (err *NoConversionRate) Error() string {
	return err.Message
}

func (err *NoConversionRate) Code() int {
	return NoConversionRateErrorCode
}

func (err *NoConversionRate) Severity() Severity {
	return SeverityFatal
}

// InvariantViolation flags data that upstream validation should have made impossible, such as a bid
// pointing at an imp which is not part of the request. It aborts the construction of the response.
type InvariantViolation struct {
	Message string
}

func (err *InvariantViolation) Error() string {
	return err.Message
}

func (err *InvariantViolation) Code() int {
	return InvariantViolationErrorCode
}

func (err *InvariantViolation) Severity() Severity {
	return SeverityFatal
}

// FailedToUnmarshal should be used to represent errors that occur when unmarshaling raw json.
type FailedToUnmarshal struct {
	Message string
}

func (err *FailedToUnmarshal) Error() string {
	return err.Message
}

func (err *FailedToUnmarshal) Code() int {
	return FailedToUnmarshalErrorCode
}

func (err *FailedToUnmarshal) Severity() Severity {
	return SeverityFatal
}

// FailedToMarshal should be used to represent errors that occur when marshaling to a byte slice.
type FailedToMarshal struct {
	Message string
}

func (err *FailedToMarshal) Error() string {
	return err.Message
}

func (err *FailedToMarshal) Code() int {
	return FailedToMarshalErrorCode
}

func (err *FailedToMarshal) Severity() Severity {
	return SeverityFatal
}

// DebugWarning is a generic non-fatal error used in debug mode. Throughout the codebase, an error can
// only be a warning if it's of the type defined below
type DebugWarning struct {
	Message     string
	WarningCode int
}

func (err *DebugWarning) Error() string {
	return err.Message
}

func (err *DebugWarning) Code() int {
	return err.WarningCode
}

func (err *DebugWarning) Severity() Severity {
	return SeverityWarning
}

func (err *DebugWarning) Scope() Scope {
	return ScopeDebug
}

// Warning is a generic non-fatal error.
type Warning struct {
	Message     string
	WarningCode int
}

func (err *Warning) Error() string {
	return err.Message
}

func (err *Warning) Code() int {
	return err.WarningCode
}

func (err *Warning) Severity() Severity {
	return SeverityWarning
}
