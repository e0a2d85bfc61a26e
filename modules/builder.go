package modules

import (
	prebidOrtb2blocking "github.com/prebid/prebid-response-engine/modules/prebid/ortb2blocking"
)

// builders lists every module compiled into the engine as vendor -> module -> builder.
// The names match the directories under modules/.
func builders() ModuleBuilders {
	return ModuleBuilders{
		"prebid": {
			"ortb2blocking": prebidOrtb2blocking.Builder,
		},
	}
}
