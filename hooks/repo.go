package hooks

import (
	"fmt"

	"github.com/prebid/prebid-response-engine/hooks/hookstage"
)

// HookRepository is the interface that exposes methods
// that return instance of the certain hook interface.
//
// Each method accepts hook ID and returns hook interface
// registered under this ID and true if hook found
// otherwise nil value returned with the false,
// indicating not found hook for this ID.
type HookRepository interface {
	GetProcessedBidderResponseHook(id string) (hookstage.ProcessedBidderResponse, bool)
	GetAllProcessedBidResponsesHook(id string) (hookstage.AllProcessedBidResponses, bool)
}

// NewHookRepository returns a new instance of the HookRepository interface.
//
// The hooks argument represents a mapping of hook IDs to types
// implementing at least one of the available hook interfaces, see [hookstage] pkg.
//
// Error returned if provided interface doesn't implement any hook interface
// or hook with same ID already exists.
func NewHookRepository(hooks map[string]interface{}) (HookRepository, error) {
	repo := new(hookRepository)
	for id, hook := range hooks {
		if err := repo.add(id, hook); err != nil {
			return nil, err
		}
	}

	return repo, nil
}

type hookRepository struct {
	processedBidderResponseHooks  map[string]hookstage.ProcessedBidderResponse
	allProcessedBidResponsesHooks map[string]hookstage.AllProcessedBidResponses
}

func (r *hookRepository) GetProcessedBidderResponseHook(id string) (hookstage.ProcessedBidderResponse, bool) {
	return getHook(r.processedBidderResponseHooks, id)
}

func (r *hookRepository) GetAllProcessedBidResponsesHook(id string) (hookstage.AllProcessedBidResponses, bool) {
	return getHook(r.allProcessedBidResponsesHooks, id)
}

func (r *hookRepository) add(id string, hook interface{}) error {
	var hasAnyHooks bool
	var err error

	if h, ok := hook.(hookstage.ProcessedBidderResponse); ok {
		hasAnyHooks = true
		if r.processedBidderResponseHooks, err = addHook(r.processedBidderResponseHooks, h, id); err != nil {
			return err
		}
	}

	if h, ok := hook.(hookstage.AllProcessedBidResponses); ok {
		hasAnyHooks = true
		if r.allProcessedBidResponsesHooks, err = addHook(r.allProcessedBidResponsesHooks, h, id); err != nil {
			return err
		}
	}

	if !hasAnyHooks {
		return fmt.Errorf(`hook "%s" does not implement any supported hook interface`, id)
	}

	return nil
}

func addHook[T any](hooks map[string]T, hook T, id string) (map[string]T, error) {
	if hooks == nil {
		hooks = make(map[string]T)
	}

	if _, ok := hooks[id]; ok {
		return nil, fmt.Errorf(`hook with ID "%s" already exists`, id)
	}

	hooks[id] = hook

	return hooks, nil
}

func getHook[T any](hooks map[string]T, id string) (T, bool) {
	hook, ok := hooks[id]
	return hook, ok
}
