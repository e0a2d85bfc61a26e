package modules

import (
	"fmt"
	"strings"

	"github.com/prebid/prebid-response-engine/hooks"
	"github.com/prebid/prebid-response-engine/hooks/hookstage"
)

var moduleReplacer = strings.NewReplacer(".", "_", "-", "_")

func createModuleStageNamesCollection(modules map[string]interface{}) (map[string][]string, error) {
	moduleStageNameCollector := make(map[string][]string)

	for id, hook := range modules {
		var added bool

		if _, ok := hook.(hookstage.ProcessedBidderResponse); ok {
			added = true
			moduleStageNameCollector = addModuleStageName(moduleStageNameCollector, id, hooks.StageProcessedBidderResponse)
		}

		if _, ok := hook.(hookstage.AllProcessedBidResponses); ok {
			added = true
			moduleStageNameCollector = addModuleStageName(moduleStageNameCollector, id, hooks.StageAllProcessedBidResponses)
		}

		if !added {
			return nil, fmt.Errorf(`hook "%s" does not implement any supported hook interface`, id)
		}
	}

	return moduleStageNameCollector, nil
}

func addModuleStageName(moduleStageNameCollector map[string][]string, id string, stage string) map[string][]string {
	str := moduleReplacer.Replace(id)
	moduleStageNameCollector[str] = append(moduleStageNameCollector[str], stage)

	return moduleStageNameCollector
}
