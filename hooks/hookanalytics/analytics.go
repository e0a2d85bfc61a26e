// Package hookanalytics describes what a module did during a hook call. The tags are returned in
// ext.prebid.modules.trace when the request asks for a verbose trace.
package hookanalytics

type Analytics struct {
	Activities []Activity `json:"activities"`
}

// Activity is one named action of a module, like enforcing a block list.
type Activity struct {
	Name    string         `json:"name"`
	Status  ActivityStatus `json:"status"`
	Results []Result       `json:"results,omitempty"`
}

type ActivityStatus string

const (
	ActivityStatusSuccess ActivityStatus = "success"
	ActivityStatusError   ActivityStatus = "error"
)

// Result is the outcome of an activity for the bidders and imps it names.
type Result struct {
	Status    ResultStatus           `json:"status,omitempty"`
	Values    map[string]interface{} `json:"values,omitempty"`
	AppliedTo AppliedTo              `json:"appliedto,omitempty"`
}

type AppliedTo struct {
	Bidders []string `json:"bidders,omitempty"`
	ImpIds  []string `json:"impids,omitempty"`
}

type ResultStatus string

const (
	ResultStatusAllow ResultStatus = "success-allow"
	ResultStatusBlock ResultStatus = "success-block"
	ResultStatusError ResultStatus = "error"
)
