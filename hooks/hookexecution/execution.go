package hookexecution

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/prebid/prebid-response-engine/hooks"
	"github.com/prebid/prebid-response-engine/hooks/hookstage"
	"github.com/prebid/prebid-response-engine/metrics"
)

type hookResponse[T any] struct {
	Err           error
	ExecutionTime time.Duration
	HookID        HookID
	Result        hookstage.HookResult[T]
}

type hookHandler[H any, P any] func(
	context.Context,
	hookstage.ModuleInvocationContext,
	H,
	P,
) (hookstage.HookResult[P], error)

// executionContext holds the information passed to module's hook during hook execution.
type executionContext struct {
	stage          string
	accountID      string
	rejectAllowed  bool
	moduleContexts *moduleContexts
}

func (ctx executionContext) getModuleContext(moduleName, hookCode string) hookstage.ModuleInvocationContext {
	return hookstage.ModuleInvocationContext{
		AccountID:     ctx.accountID,
		ModuleContext: ctx.moduleContexts.get(moduleName),
		HookImplCode:  hookCode,
	}
}

// moduleContexts keeps the context of every module for the whole auction.
type moduleContexts struct {
	sync.RWMutex
	ctxs map[string]*hookstage.ModuleContext
}

func (mc *moduleContexts) get(moduleName string) *hookstage.ModuleContext {
	mc.RLock()
	moduleCtx, ok := mc.ctxs[moduleName]
	mc.RUnlock()
	if ok {
		return moduleCtx
	}

	mc.Lock()
	defer mc.Unlock()
	if moduleCtx, ok = mc.ctxs[moduleName]; !ok {
		moduleCtx = hookstage.NewModuleContext()
		mc.ctxs[moduleName] = moduleCtx
	}
	return moduleCtx
}

func (mc *moduleContexts) put(moduleName string, newCtx *hookstage.ModuleContext) {
	if newCtx == nil {
		return
	}
	mc.get(moduleName).Merge(newCtx)
}

var moduleReplacer = strings.NewReplacer(".", "_", "-", "_")

func executeStage[H any, P any](
	executionCtx executionContext,
	plan hooks.Plan[H],
	payload P,
	hookHandler hookHandler[H, P],
	metricEngine metrics.MetricsEngine,
) (StageOutcome, P, *RejectError) {
	stageOutcome := StageOutcome{Stage: executionCtx.stage}
	stageOutcome.Groups = make([]GroupOutcome, 0, len(plan))

	for _, group := range plan {
		groupOutcome, newPayload, reject := executeGroup(executionCtx, group, payload, hookHandler, metricEngine)
		stageOutcome.ExecutionTimeMillis += groupOutcome.ExecutionTimeMillis
		stageOutcome.Groups = append(stageOutcome.Groups, groupOutcome)
		if reject != nil {
			return stageOutcome, payload, reject
		}

		payload = newPayload
	}

	return stageOutcome, payload, nil
}

// executeGroup runs the hooks of the group concurrently. The responses are processed in plan order
// once every hook returned or timed out, so the payload is always mutated in the same order.
func executeGroup[H any, P any](
	executionCtx executionContext,
	group hooks.Group[H],
	payload P,
	hookHandler hookHandler[H, P],
	metricEngine metrics.MetricsEngine,
) (GroupOutcome, P, *RejectError) {
	var wg sync.WaitGroup
	hookResponses := make([]hookResponse[P], len(group.Hooks))

	for i, hook := range group.Hooks {
		wg.Add(1)
		go func(i int, hw hooks.HookWrapper[H], moduleCtx hookstage.ModuleInvocationContext) {
			defer wg.Done()
			hookResponses[i] = executeHook(moduleCtx, hw, payload, hookHandler, group.Timeout)
		}(i, hook, executionCtx.getModuleContext(hook.Module, hook.Code))
	}
	wg.Wait()

	return processHookResponses(executionCtx, hookResponses, payload, metricEngine)
}

func executeHook[H any, P any](
	moduleCtx hookstage.ModuleInvocationContext,
	hw hooks.HookWrapper[H],
	payload P,
	hookHandler hookHandler[H, P],
	timeout time.Duration,
) hookResponse[P] {
	hookRespCh := make(chan hookResponse[P], 1)
	startTime := time.Now()
	hookId := HookID{ModuleCode: hw.Module, HookImplCode: hw.Code}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				glog.Errorf("Recovered panic in module hook %s.%s: %v, Stack trace is: %v", hw.Module, hw.Code, r, string(debug.Stack()))
				hookRespCh <- hookResponse[P]{Err: fmt.Errorf("hook panicked: %v", r)}
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		result, err := hookHandler(ctx, moduleCtx, hw.Hook, payload)
		hookRespCh <- hookResponse[P]{
			Result: result,
			Err:    err,
		}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-hookRespCh:
		res.HookID = hookId
		res.ExecutionTime = time.Since(startTime)
		return res
	case <-timer.C:
		return hookResponse[P]{
			Err:           TimeoutError{},
			ExecutionTime: time.Since(startTime),
			HookID:        hookId,
			Result:        hookstage.HookResult[P]{},
		}
	}
}

func processHookResponses[P any](
	executionCtx executionContext,
	hookResponses []hookResponse[P],
	payload P,
	metricEngine metrics.MetricsEngine,
) (GroupOutcome, P, *RejectError) {
	groupOutcome := GroupOutcome{}
	groupOutcome.InvocationResults = make([]HookOutcome, 0, len(hookResponses))

	for _, r := range hookResponses {
		hookOutcome := HookOutcome{
			Status:        StatusSuccess,
			HookID:        r.HookID,
			Message:       r.Result.Message,
			Errors:        r.Result.Errors,
			Warnings:      r.Result.Warnings,
			DebugMessages: r.Result.DebugMessages,
			AnalyticsTags: r.Result.AnalyticsTags,
			ExecutionTime: ExecutionTime{ExecutionTimeMillis: r.ExecutionTime.Milliseconds()},
		}

		if hookOutcome.ExecutionTimeMillis > groupOutcome.ExecutionTimeMillis {
			groupOutcome.ExecutionTimeMillis = hookOutcome.ExecutionTimeMillis
		}

		labels := metrics.ModuleLabels{
			Module:    moduleReplacer.Replace(r.HookID.ModuleCode),
			Stage:     executionCtx.stage,
			AccountID: executionCtx.accountID,
		}
		metricEngine.RecordModuleCalled(labels, r.ExecutionTime)

		if r.Err != nil {
			handleHookError(r, &hookOutcome, metricEngine, labels)
			groupOutcome.InvocationResults = append(groupOutcome.InvocationResults, hookOutcome)
			continue
		}

		executionCtx.moduleContexts.put(r.HookID.ModuleCode, r.Result.ModuleContext)

		if r.Result.Reject {
			if !executionCtx.rejectAllowed {
				hookOutcome.Status = StatusExecutionFailure
				hookOutcome.Errors = append(hookOutcome.Errors, fmt.Sprintf(
					"Module (name: %s, hook code: %s) tried to reject request on the %s stage that does not support rejection",
					r.HookID.ModuleCode, r.HookID.HookImplCode, executionCtx.stage,
				))
				metricEngine.RecordModuleExecutionError(labels)
				groupOutcome.InvocationResults = append(groupOutcome.InvocationResults, hookOutcome)
				continue
			}

			rejectErr := &RejectError{NBR: r.Result.NbrCode, Hook: r.HookID, Stage: executionCtx.stage}
			hookOutcome.Action = ActionReject
			hookOutcome.Errors = append(hookOutcome.Errors, rejectErr.Error())
			metricEngine.RecordModuleSuccessRejected(labels)
			groupOutcome.InvocationResults = append(groupOutcome.InvocationResults, hookOutcome)
			return groupOutcome, payload, rejectErr
		}

		mutations := r.Result.ChangeSet.Mutations()
		if len(mutations) == 0 {
			hookOutcome.Action = ActionNone
			metricEngine.RecordModuleSuccessNooped(labels)
			groupOutcome.InvocationResults = append(groupOutcome.InvocationResults, hookOutcome)
			continue
		}

		hookOutcome.Action = ActionUpdate
		successfulMutations := 0
		for _, mut := range mutations {
			p, err := mut.Apply(payload)
			if err != nil {
				hookOutcome.Warnings = append(
					hookOutcome.Warnings,
					fmt.Sprintf("failed to apply hook mutation: %s", err),
				)
				continue
			}

			payload = p
			hookOutcome.DebugMessages = append(
				hookOutcome.DebugMessages,
				fmt.Sprintf("Hook mutation successfully applied, affected key: %s, mutation type: %s", mut.Key(), mut.Type()),
			)
			successfulMutations++
		}

		if successfulMutations > 0 {
			metricEngine.RecordModuleSuccessUpdated(labels)
		} else {
			hookOutcome.Status = StatusExecutionFailure
			metricEngine.RecordModuleExecutionError(labels)
		}
		groupOutcome.InvocationResults = append(groupOutcome.InvocationResults, hookOutcome)
	}

	return groupOutcome, payload, nil
}

func handleHookError[P any](
	hr hookResponse[P],
	hookOutcome *HookOutcome,
	metricEngine metrics.MetricsEngine,
	labels metrics.ModuleLabels,
) {
	hookOutcome.Errors = append(hookOutcome.Errors, hr.Err.Error())
	switch hr.Err.(type) {
	case TimeoutError:
		metricEngine.RecordModuleTimeout(labels)
		hookOutcome.Status = StatusTimeout
	case FailureError:
		metricEngine.RecordModuleFailed(labels)
		hookOutcome.Status = StatusFailure
	default:
		metricEngine.RecordModuleExecutionError(labels)
		hookOutcome.Status = StatusExecutionFailure
	}
}
