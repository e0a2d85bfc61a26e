package hookexecution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prebid/prebid-response-engine/errortypes"
	"github.com/prebid/prebid-response-engine/util/jsonutil"
)

func TestRejectError(t *testing.T) {
	err := RejectError{NBR: 300, Hook: HookID{ModuleCode: "vendor.blocking", HookImplCode: "drop"}, Stage: "processed_bidder_response"}

	assert.Equal(t, "Module vendor.blocking (hook: drop) rejected bidder response with code 300 at processed_bidder_response stage", err.Error())
	assert.Equal(t, errortypes.ModuleRejectionErrorCode, err.Code())
	assert.True(t, errortypes.IsWarning(err))
}

func TestNewFailure(t *testing.T) {
	err := NewFailure("bid %s has no adomain", "bid-1")

	assert.Equal(t, FailureError{Message: "bid bid-1 has no adomain"}, err)
	assert.Equal(t, "hook execution failed: bid bid-1 has no adomain", err.Error())
}

func TestHookOutcomeJSON(t *testing.T) {
	outcome := HookOutcome{
		ExecutionTime: ExecutionTime{ExecutionTimeMillis: 4},
		HookID:        HookID{ModuleCode: "vendor.blocking", HookImplCode: "drop"},
		Status:        StatusSuccess,
		Action:        ActionNone,
		Errors:        []string{"hidden"},
	}

	data, err := jsonutil.Marshal(outcome)

	require.NoError(t, err)
	assert.JSONEq(t, `{"execution_time_millis":4,"analytics_tags":{"activities":null},"hook_id":{"module_code":"vendor.blocking","hook_impl_code":"drop"},"status":"success","action":"no_action","message":""}`, string(data))
}

// assertEqualStageOutcomes compares stage outcomes ignoring the measured
// hook durations, group and stage times are derived from the actual outcome.
func assertEqualStageOutcomes(t *testing.T, expected StageOutcome, actual StageOutcome) {
	t.Helper()

	require.Len(t, actual.Groups, len(expected.Groups), "number of groups")
	for i, group := range actual.Groups {
		expected.ExecutionTimeMillis += group.ExecutionTimeMillis
		for _, hook := range group.InvocationResults {
			expected.Groups[i].ExecutionTimeMillis = max(expected.Groups[i].ExecutionTimeMillis, hook.ExecutionTimeMillis)
		}
	}

	assert.Equal(t, expected.ExecutionTimeMillis, actual.ExecutionTimeMillis, "stage execution time")
	assert.Equal(t, expected.Stage, actual.Stage, "stage")
	assert.Equal(t, expected.Entity, actual.Entity, "entity")

	for i, expectedGroup := range expected.Groups {
		actualGroup := actual.Groups[i]
		assert.Len(t, actualGroup.InvocationResults, len(expectedGroup.InvocationResults), "group #%d invocation results", i)
		assert.Equal(t, expectedGroup.ExecutionTimeMillis, actualGroup.ExecutionTimeMillis, "group #%d execution time", i)

		for _, expectedHook := range expectedGroup.InvocationResults {
			actualHook, found := hookResult(expectedHook.HookID, actualGroup)
			if !assert.True(t, found, "group #%d has no result of %v", i, expectedHook.HookID) {
				continue
			}
			actualHook.ExecutionTimeMillis = 0
			assert.Equal(t, expectedHook, actualHook, "group #%d hook %v", i, expectedHook.HookID)
		}
	}
}

func hookResult(id HookID, group GroupOutcome) (HookOutcome, bool) {
	for _, hook := range group.InvocationResults {
		if hook.HookID == id {
			return hook, true
		}
	}
	return HookOutcome{}, false
}
