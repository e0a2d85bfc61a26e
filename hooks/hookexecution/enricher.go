package hookexecution

import (
	"encoding/json"

	jsonpatch "gopkg.in/evanphx/json-patch.v5"
	"github.com/prebid/prebid-response-engine/hooks/hookanalytics"
)

const (
	traceLevelBasic   = "basic"
	traceLevelVerbose = "verbose"
)

// extPrebid defines the contract for bidresponse.ext.prebid.modules
type extPrebid struct {
	Prebid extModules `json:"prebid"`
}

type extModules struct {
	Modules json.RawMessage `json:"modules"`
}

// EnrichExtBidResponse adds the hook messages and, when a trace level is requested, the execution trace
// to bidresponse.ext.prebid.modules. Errors and warnings of the hooks are only returned in debug mode.
func EnrichExtBidResponse(ext json.RawMessage, stageOutcomes []StageOutcome, trace string, isDebugEnabled bool) (json.RawMessage, error) {
	modules, err := GetModulesJSON(stageOutcomes, trace, isDebugEnabled)
	if err != nil || modules == nil {
		return ext, err
	}

	if len(ext) == 0 {
		return modules, nil
	}
	return jsonpatch.MergePatch(ext, modules)
}

// GetModulesJSON returns the bidresponse.ext.prebid.modules document, nil when there is nothing to report.
func GetModulesJSON(stageOutcomes []StageOutcome, trace string, isDebugEnabled bool) (json.RawMessage, error) {
	if len(stageOutcomes) == 0 {
		return nil, nil
	}

	modulesOutcome := getModulesOutcome(stageOutcomes, trace, isDebugEnabled)
	if modulesOutcome == nil {
		return nil, nil
	}

	modules, err := json.Marshal(modulesOutcome)
	if err != nil {
		return nil, err
	}
	return json.Marshal(extPrebid{Prebid: extModules{Modules: modules}})
}

func getModulesOutcome(stageOutcomes []StageOutcome, trace string, isDebugEnabled bool) *ModulesOutcome {
	var modulesOutcome ModulesOutcome
	stages := make(map[string]Stage)
	stageNames := make([]string, 0)

	for _, stageOutcome := range stageOutcomes {
		if len(stageOutcome.Groups) == 0 {
			continue
		}

		stageOutcome.Groups = prepareGroups(&modulesOutcome, stageOutcome.Groups, trace, isDebugEnabled)
		if trace != traceLevelBasic && trace != traceLevelVerbose {
			continue
		}

		stage, ok := stages[stageOutcome.Stage]
		if !ok {
			stageNames = append(stageNames, stageOutcome.Stage)
			stage = Stage{
				Stage:    stageOutcome.Stage,
				Outcomes: []StageOutcome{},
			}
		}

		stage.Outcomes = append(stage.Outcomes, stageOutcome)
		if stage.ExecutionTimeMillis < stageOutcome.ExecutionTimeMillis {
			stage.ExecutionTimeMillis = stageOutcome.ExecutionTimeMillis
		}

		stages[stageOutcome.Stage] = stage
	}

	if modulesOutcome.Errors == nil && modulesOutcome.Warnings == nil && len(stages) == 0 {
		return nil
	}

	if len(stages) > 0 {
		modulesOutcome.Trace = &TraceOutcome{}
		modulesOutcome.Trace.Stages = make([]Stage, 0, len(stages))

		for _, stage := range stageNames {
			modulesOutcome.Trace.ExecutionTimeMillis += stages[stage].ExecutionTimeMillis
			modulesOutcome.Trace.Stages = append(modulesOutcome.Trace.Stages, stages[stage])
		}
	}

	return &modulesOutcome
}

// prepareGroups collects the hook messages and returns a copy of the groups trimmed to the trace level.
func prepareGroups(modulesOutcome *ModulesOutcome, groups []GroupOutcome, trace string, isDebugEnabled bool) []GroupOutcome {
	prepared := make([]GroupOutcome, len(groups))
	for i, group := range groups {
		prepared[i] = group
		prepared[i].InvocationResults = make([]HookOutcome, len(group.InvocationResults))
		for j, hookOutcome := range group.InvocationResults {
			if isDebugEnabled {
				modulesOutcome.Errors = fillMessages(modulesOutcome.Errors, hookOutcome.Errors, hookOutcome.HookID)
				modulesOutcome.Warnings = fillMessages(modulesOutcome.Warnings, hookOutcome.Warnings, hookOutcome.HookID)
			}

			if trace == traceLevelBasic {
				hookOutcome.DebugMessages = nil
				hookOutcome.AnalyticsTags = hookanalytics.Analytics{}
			}
			prepared[i].InvocationResults[j] = hookOutcome
		}
	}
	return prepared
}

func fillMessages(messages Messages, values []string, hookID HookID) Messages {
	if len(values) == 0 {
		return messages
	}

	if messages == nil {
		return Messages{hookID.ModuleCode: {hookID.HookImplCode: append([]string(nil), values...)}}
	}

	if _, ok := messages[hookID.ModuleCode]; !ok {
		messages[hookID.ModuleCode] = map[string][]string{hookID.HookImplCode: append([]string(nil), values...)}
		return messages
	}

	messages[hookID.ModuleCode][hookID.HookImplCode] = append(messages[hookID.ModuleCode][hookID.HookImplCode], values...)
	return messages
}
