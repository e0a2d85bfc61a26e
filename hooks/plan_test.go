package hooks

import (
	"testing"
	"time"

	"github.com/prebid/prebid-response-engine/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stagePlan(stage string, timeout int, steps ...config.HookStep) config.HookExecutionPlan {
	return config.HookExecutionPlan{Stages: map[string]config.StageExecutionPlan{
		stage: {Groups: []config.HookExecutionGroup{{Timeout: timeout, HookSequence: steps}}},
	}}
}

func TestPlanForProcessedBidderResponseStage(t *testing.T) {
	repo, err := NewHookRepository(map[string]interface{}{
		"vendor.host":    fakeBidderHook{},
		"vendor.default": fakeBidderHook{},
		"vendor.account": fakeBidderHook{},
	})
	require.NoError(t, err)

	hooksCfg := config.Hooks{
		Enabled:                     true,
		HostExecutionPlan:           stagePlan(StageProcessedBidderResponse, 5, config.HookStep{ModuleCode: "vendor.host", HookImplCode: "h"}),
		DefaultAccountExecutionPlan: stagePlan(StageProcessedBidderResponse, 10, config.HookStep{ModuleCode: "vendor.default", HookImplCode: "d"}, config.HookStep{ModuleCode: "vendor.missing", HookImplCode: "m"}),
	}

	testCases := []struct {
		description     string
		account         *config.Account
		expectedModules [][]string
		expectedTimeout []time.Duration
	}{
		{
			description:     "Host plan followed by default account plan when account is unknown",
			account:         nil,
			expectedModules: [][]string{{"vendor.host"}, {"vendor.default"}},
			expectedTimeout: []time.Duration{5 * time.Millisecond, 10 * time.Millisecond},
		},
		{
			description: "Account plan replaces default account plan",
			account: &config.Account{ID: "acc", Hooks: config.AccountHooks{
				ExecutionPlan: stagePlan(StageProcessedBidderResponse, 20, config.HookStep{ModuleCode: "vendor.account", HookImplCode: "a"}),
			}},
			expectedModules: [][]string{{"vendor.host"}, {"vendor.account"}},
			expectedTimeout: []time.Duration{5 * time.Millisecond, 20 * time.Millisecond},
		},
		{
			description: "Account plan for another stage still replaces default account plan",
			account: &config.Account{ID: "acc", Hooks: config.AccountHooks{
				ExecutionPlan: stagePlan(StageAllProcessedBidResponses, 20, config.HookStep{ModuleCode: "vendor.account", HookImplCode: "a"}),
			}},
			expectedModules: [][]string{{"vendor.host"}},
			expectedTimeout: []time.Duration{5 * time.Millisecond},
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			plan := NewExecutionPlanBuilder(hooksCfg, repo).PlanForProcessedBidderResponseStage(test.account)

			require.Len(t, plan, len(test.expectedModules))
			for i, group := range plan {
				assert.Equal(t, test.expectedTimeout[i], group.Timeout, "Incorrect timeout of group #%d", i)
				modules := make([]string, 0, len(group.Hooks))
				for _, hook := range group.Hooks {
					modules = append(modules, hook.Module)
				}
				assert.Equal(t, test.expectedModules[i], modules, "Incorrect hooks of group #%d", i)
			}
		})
	}
}

func TestPlanForAllProcessedBidResponsesStage_SkipsHooksOfOtherStages(t *testing.T) {
	repo, err := NewHookRepository(map[string]interface{}{
		"vendor.bidder": fakeBidderHook{},
		"vendor.all":    fakeAllStagesHook{},
	})
	require.NoError(t, err)

	hooksCfg := config.Hooks{
		Enabled: true,
		HostExecutionPlan: stagePlan(
			StageAllProcessedBidResponses,
			5,
			config.HookStep{ModuleCode: "vendor.bidder", HookImplCode: "b"},
			config.HookStep{ModuleCode: "vendor.all", HookImplCode: "a"},
		),
	}

	plan := NewExecutionPlanBuilder(hooksCfg, repo).PlanForAllProcessedBidResponsesStage(&config.Account{})

	require.Len(t, plan, 1)
	require.Len(t, plan[0].Hooks, 1)
	assert.Equal(t, "vendor.all", plan[0].Hooks[0].Module)
	assert.Equal(t, "a", plan[0].Hooks[0].Code)
}

func TestNewExecutionPlanBuilder_Disabled(t *testing.T) {
	builder := NewExecutionPlanBuilder(config.Hooks{Enabled: false}, nil)

	assert.IsType(t, EmptyPlanBuilder{}, builder)
}
