package modules

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/golang/glog"

	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/hooks"
	"github.com/prebid/prebid-response-engine/modules/moduledeps"
	"github.com/prebid/prebid-response-engine/util/jsonutil"
)

func NewBuilder() Builder {
	return &builder{builders()}
}

// Builder creates the enabled modules from the host configuration.
type Builder interface {
	// Build returns the repository of the module hooks, keyed by "vendor.module", together with
	// the stages each module provides hooks for.
	Build(cfg config.Modules, deps moduledeps.ModuleDeps) (hooks.HookRepository, map[string][]string, error)
}

type (
	ModuleBuilders  map[string]map[string]ModuleBuilderFn
	ModuleBuilderFn func(cfg json.RawMessage, deps moduledeps.ModuleDeps) (interface{}, error)
)

type builder struct {
	builders ModuleBuilders
}

func (m *builder) Build(cfg config.Modules, deps moduledeps.ModuleDeps) (hooks.HookRepository, map[string][]string, error) {
	modules := make(map[string]interface{})

	for _, vendor := range sortedKeys(m.builders) {
		for _, name := range sortedKeys(m.builders[vendor]) {
			id := vendor + "." + name
			data, configured := cfg[vendor][name]
			if !configured || !isEnabled(data) {
				glog.Infof("Skip %s module, disabled.", id)
				continue
			}

			conf, err := jsonutil.Marshal(data)
			if err != nil {
				return nil, nil, fmt.Errorf(`failed to marshal "%s" module config: %s`, id, err)
			}

			module, err := m.builders[vendor][name](conf, deps)
			if err != nil {
				return nil, nil, fmt.Errorf(`failed to init "%s" module: %s`, id, err)
			}
			modules[id] = module
		}
	}

	collection, err := createModuleStageNamesCollection(modules)
	if err != nil {
		return nil, nil, err
	}

	repo, err := hooks.NewHookRepository(modules)
	return repo, collection, err
}

func isEnabled(data interface{}) bool {
	values, ok := data.(map[string]interface{})
	if !ok {
		return false
	}
	enabled, _ := values["enabled"].(bool)
	return enabled
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
