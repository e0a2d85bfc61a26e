package hooks

import (
	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/hooks/hookstage"
)

// EmptyPlanBuilder implements the ExecutionPlanBuilder interface
// and used as the stub when the hooks' functionality is disabled.
type EmptyPlanBuilder struct{}

func (e EmptyPlanBuilder) PlanForProcessedBidderResponseStage(account *config.Account) Plan[hookstage.ProcessedBidderResponse] {
	return nil
}

func (e EmptyPlanBuilder) PlanForAllProcessedBidResponsesStage(account *config.Account) Plan[hookstage.AllProcessedBidResponses] {
	return nil
}
