package ortb2blocking

import (
	"context"
	"encoding/json"

	"github.com/prebid/prebid-response-engine/hooks/hookstage"
	"github.com/prebid/prebid-response-engine/modules/moduledeps"
)

func Builder(cfg json.RawMessage, _ moduledeps.ModuleDeps) (interface{}, error) {
	conf, err := newConfig(cfg)
	if err != nil {
		return nil, err
	}
	return Module{cfg: conf}, nil
}

// Module drops the bids matching the blocking rules of the module configuration.
type Module struct {
	cfg config
}

// HandleProcessedBidderResponseHook removes the blocked bids from the bidder response.
func (m Module) HandleProcessedBidderResponseHook(
	_ context.Context,
	_ hookstage.ModuleInvocationContext,
	payload hookstage.ProcessedBidderResponsePayload,
) (hookstage.HookResult[hookstage.ProcessedBidderResponsePayload], error) {
	return handleProcessedBidderResponseHook(m.cfg, payload)
}
