package hookstage

import (
	"sync"

	"github.com/prebid/prebid-response-engine/hooks/hookanalytics"
)

// HookResult is returned by every hook. A rejecting hook must set NbrCode.
// The ChangeSet is applied only when the hook returned without error and did not reject.
type HookResult[T any] struct {
	Reject        bool
	NbrCode       int
	Message       string
	ChangeSet     ChangeSet[T]
	Errors        []string
	Warnings      []string
	DebugMessages []string
	AnalyticsTags hookanalytics.Analytics
	ModuleContext *ModuleContext
}

// ModuleInvocationContext is passed to a hook together with the stage payload.
type ModuleInvocationContext struct {
	AccountID     string
	ModuleContext *ModuleContext
	// HookImplCode tells apart several hooks of one module at the same stage.
	HookImplCode string
}

// ModuleContext carries module owned values between the stages of one response.
// All methods are safe on a nil receiver.
type ModuleContext struct {
	mu   sync.RWMutex
	data map[string]any
}

func NewModuleContext() *ModuleContext {
	return &ModuleContext{data: make(map[string]any)}
}

func (mc *ModuleContext) Get(key string) (any, bool) {
	if mc == nil {
		return nil, false
	}
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	value, ok := mc.data[key]
	return value, ok
}

func (mc *ModuleContext) Set(key string, value any) {
	if mc == nil {
		return
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if mc.data == nil {
		mc.data = make(map[string]any)
	}
	mc.data[key] = value
}

// Merge copies every value of other into mc, overwriting existing keys.
func (mc *ModuleContext) Merge(other *ModuleContext) {
	if mc == nil || other == nil || mc == other {
		return
	}
	other.mu.RLock()
	values := make(map[string]any, len(other.data))
	for k, v := range other.data {
		values[k] = v
	}
	other.mu.RUnlock()

	for k, v := range values {
		mc.Set(k, v)
	}
}
