package config

import (
	"fmt"
	"strings"
)

type Hooks struct {
	Enabled bool    `mapstructure:"enabled"`
	Modules Modules `mapstructure:"modules"`
	// HostExecutionPlan runs for every account, before the account execution plan.
	HostExecutionPlan HookExecutionPlan `mapstructure:"host_execution_plan"`
	// DefaultAccountExecutionPlan is used for accounts which do not define their own plan.
	DefaultAccountExecutionPlan HookExecutionPlan `mapstructure:"default_account_execution_plan"`
}

// Modules mapping provides module specific configuration, format: map[vendor_name]map[module_name]interface{}
// actual configuration parsing performed by modules
type Modules map[string]map[string]interface{}

// HookExecutionPlan lists the hook groups to run per stage, format: stages[stage_name].groups
type HookExecutionPlan struct {
	Stages map[string]StageExecutionPlan `mapstructure:"stages" json:"stages"`
}

type StageExecutionPlan struct {
	Groups []HookExecutionGroup `mapstructure:"groups" json:"groups"`
}

type HookExecutionGroup struct {
	// Timeout specified in milliseconds
	Timeout      int        `mapstructure:"timeout" json:"timeout"`
	HookSequence []HookStep `mapstructure:"hook_sequence" json:"hook_sequence"`
}

type HookStep struct {
	// ModuleCode is a composite value in the format: {vendor_name}.{module_name}
	ModuleCode string `mapstructure:"module_code" json:"module_code"`
	// HookImplCode is an arbitrary value, used to identify hook when sending metrics, storing debug information, etc.
	HookImplCode string `mapstructure:"hook_impl_code" json:"hook_impl_code"`
}

func (h *Hooks) validate(errs []error) []error {
	errs = h.HostExecutionPlan.validate("hooks.host_execution_plan", errs)
	return h.DefaultAccountExecutionPlan.validate("hooks.default_account_execution_plan", errs)
}

func (p *HookExecutionPlan) validate(path string, errs []error) []error {
	for stage, stagePlan := range p.Stages {
		for i, group := range stagePlan.Groups {
			if group.Timeout <= 0 {
				errs = append(errs, fmt.Errorf("%s.stages.%s.groups[%d].timeout must be positive. Got %d", path, stage, i, group.Timeout))
			}
			for j, hook := range group.HookSequence {
				if !strings.Contains(hook.ModuleCode, ".") {
					errs = append(errs, fmt.Errorf("%s.stages.%s.groups[%d].hook_sequence[%d].module_code must be in the vendor.module format. Got %q", path, stage, i, j, hook.ModuleCode))
				}
			}
		}
	}
	return errs
}
