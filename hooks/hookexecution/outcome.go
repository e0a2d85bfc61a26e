package hookexecution

import (
	"github.com/prebid/prebid-response-engine/hooks/hookanalytics"
)

type Status string

const (
	StatusSuccess          Status = "success"
	StatusTimeout          Status = "timeout"
	StatusFailure          Status = "failure"           // the module reported a FailureError
	StatusExecutionFailure Status = "execution_failure" // any other error, including a panic
)

// Action is what the response creator did with the result of a successful hook.
type Action string

const (
	ActionUpdate Action = "update"
	ActionReject Action = "reject"
	ActionNone   Action = "no_action"
)

// entity names what a stage outcome was produced for. Bidder level
// stages use the bidder name instead.
type entity string

const entityAllProcessedBidResponses entity = "all_processed_bid_responses"

// Messages are keyed by module code and then by hook code.
type Messages map[string]map[string][]string

// ModulesOutcome is written to ext.prebid.modules of the bid response.
type ModulesOutcome struct {
	Errors   Messages      `json:"errors,omitempty"`
	Warnings Messages      `json:"warnings,omitempty"`
	Trace    *TraceOutcome `json:"trace,omitempty"`
}

type TraceOutcome struct {
	ExecutionTime // sum over stages
	Stages        []Stage `json:"stages"`
}

// Stage collects every execution of one stage, the processed bidder
// response stage runs once per bidder.
type Stage struct {
	ExecutionTime // longest outcome
	Stage         string         `json:"stage"`
	Outcomes      []StageOutcome `json:"outcomes"`
}

type StageOutcome struct {
	ExecutionTime // sum over groups
	Entity        entity         `json:"entity"`
	Groups        []GroupOutcome `json:"groups"`
	Stage         string         `json:"-"`
}

type GroupOutcome struct {
	ExecutionTime     // longest hook
	InvocationResults []HookOutcome `json:"invocation_results"`
}

// HookOutcome is the trace entry of one hook invocation. Its execution
// time does not include applying the returned mutations.
type HookOutcome struct {
	ExecutionTime
	AnalyticsTags hookanalytics.Analytics `json:"analytics_tags"`
	HookID        HookID                  `json:"hook_id"`
	Status        Status                  `json:"status"`
	Action        Action                  `json:"action"`
	Message       string                  `json:"message"`
	DebugMessages []string                `json:"debug_messages,omitempty"`
	Errors        []string                `json:"-"`
	Warnings      []string                `json:"-"`
}

type HookID struct {
	ModuleCode   string `json:"module_code"`
	HookImplCode string `json:"hook_impl_code"`
}

type ExecutionTime struct {
	ExecutionTimeMillis int64 `json:"execution_time_millis,omitempty"`
}
