package hookexecution

import (
	"context"
	"sync"

	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/exchange/entities"
	"github.com/prebid/prebid-response-engine/hooks"
	"github.com/prebid/prebid-response-engine/hooks/hookstage"
	"github.com/prebid/prebid-response-engine/metrics"
)

// StageExecutor runs the bidder response stages for one auction.
// Implementations must be safe for concurrent use: the processed bidder response stage is executed
// for all bidders at the same time.
type StageExecutor interface {
	// ExecuteProcessedBidderResponseStage returns the response with the bids the hooks kept, or a
	// RejectError when a hook rejected the bidder.
	ExecuteProcessedBidderResponseStage(response *entities.BidderResponse) (*entities.BidderResponse, *RejectError)
	ExecuteAllProcessedBidResponsesStage(responses []*entities.BidderResponse) []*entities.BidderResponse
	GetOutcomes() []StageOutcome
}

type hookExecutor struct {
	account        *config.Account
	planBuilder    hooks.ExecutionPlanBuilder
	stageOutcomes  []StageOutcome
	moduleContexts *moduleContexts
	metricEngine   metrics.MetricsEngine
	// Mutex protects the stageOutcomes slice
	sync.Mutex
}

// NewHookExecutor returns the executor of one auction. account may be nil.
func NewHookExecutor(builder hooks.ExecutionPlanBuilder, account *config.Account, me metrics.MetricsEngine) *hookExecutor {
	return &hookExecutor{
		account:        account,
		planBuilder:    builder,
		stageOutcomes:  []StageOutcome{},
		moduleContexts: &moduleContexts{ctxs: make(map[string]*hookstage.ModuleContext)},
		metricEngine:   me,
	}
}

func (e *hookExecutor) GetOutcomes() []StageOutcome {
	e.Lock()
	defer e.Unlock()
	return append([]StageOutcome(nil), e.stageOutcomes...)
}

func (e *hookExecutor) ExecuteProcessedBidderResponseStage(response *entities.BidderResponse) (*entities.BidderResponse, *RejectError) {
	plan := e.planBuilder.PlanForProcessedBidderResponseStage(e.account)
	if len(plan) == 0 || response == nil {
		return response, nil
	}

	handler := func(
		ctx context.Context,
		moduleCtx hookstage.ModuleInvocationContext,
		hook hookstage.ProcessedBidderResponse,
		payload hookstage.ProcessedBidderResponsePayload,
	) (hookstage.HookResult[hookstage.ProcessedBidderResponsePayload], error) {
		return hook.HandleProcessedBidderResponseHook(ctx, moduleCtx, payload)
	}

	stageName := hooks.StageProcessedBidderResponse
	executionCtx := e.newContext(stageName, true)
	payload := hookstage.ProcessedBidderResponsePayload{Bidder: response.Bidder.String(), BidResponse: response.SeatBid}

	outcome, payload, reject := executeStage(executionCtx, plan, payload, handler, e.metricEngine)
	outcome.Entity = entity(response.Bidder)
	e.pushStageOutcome(outcome)

	if reject != nil {
		return response, reject
	}
	return response.WithSeatBid(payload.BidResponse), nil
}

func (e *hookExecutor) ExecuteAllProcessedBidResponsesStage(responses []*entities.BidderResponse) []*entities.BidderResponse {
	plan := e.planBuilder.PlanForAllProcessedBidResponsesStage(e.account)
	if len(plan) == 0 {
		return responses
	}

	handler := func(
		ctx context.Context,
		moduleCtx hookstage.ModuleInvocationContext,
		hook hookstage.AllProcessedBidResponses,
		payload hookstage.AllProcessedBidResponsesPayload,
	) (hookstage.HookResult[hookstage.AllProcessedBidResponsesPayload], error) {
		return hook.HandleAllProcessedBidResponsesHook(ctx, moduleCtx, payload)
	}

	stageName := hooks.StageAllProcessedBidResponses
	executionCtx := e.newContext(stageName, false)
	payload := hookstage.AllProcessedBidResponsesPayload{Responses: responses}

	outcome, payload, _ := executeStage(executionCtx, plan, payload, handler, e.metricEngine)
	outcome.Entity = entityAllProcessedBidResponses
	e.pushStageOutcome(outcome)

	return payload.Responses
}

func (e *hookExecutor) newContext(stage string, rejectAllowed bool) executionContext {
	var accountID string
	if e.account != nil {
		accountID = e.account.ID
	}
	return executionContext{
		stage:          stage,
		accountID:      accountID,
		rejectAllowed:  rejectAllowed,
		moduleContexts: e.moduleContexts,
	}
}

func (e *hookExecutor) pushStageOutcome(outcome StageOutcome) {
	e.Lock()
	defer e.Unlock()
	e.stageOutcomes = append(e.stageOutcomes, outcome)
}

// EmptyHookExecutor is used when the hooks are disabled. Every stage returns its input.
type EmptyHookExecutor struct{}

func (executor EmptyHookExecutor) ExecuteProcessedBidderResponseStage(response *entities.BidderResponse) (*entities.BidderResponse, *RejectError) {
	return response, nil
}

func (executor EmptyHookExecutor) ExecuteAllProcessedBidResponsesStage(responses []*entities.BidderResponse) []*entities.BidderResponse {
	return responses
}

func (executor EmptyHookExecutor) GetOutcomes() []StageOutcome {
	return []StageOutcome{}
}
