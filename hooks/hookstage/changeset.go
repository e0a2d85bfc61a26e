package hookstage

import (
	"strings"
)

type MutationType int

const (
	MutationAdd MutationType = iota
	MutationUpdate
	MutationDelete
)

func (mt MutationType) String() string {
	switch mt {
	case MutationAdd:
		return "add"
	case MutationUpdate:
		return "update"
	case MutationDelete:
		return "delete"
	}
	return "unknown"
}

// MutationFunc returns the payload with the change applied. It must not modify the payload it receives.
type MutationFunc[T any] func(T) (T, error)

// Mutation is one change of the hook payload together with the payload key it affects.
type Mutation[T any] struct {
	mutType MutationType
	key     []string
	fn      MutationFunc[T]
}

func (m Mutation[T]) Key() string {
	return strings.Join(m.key, ".")
}

func (m Mutation[T]) Type() MutationType {
	return m.mutType
}

func (m Mutation[T]) Apply(p T) (T, error) {
	return m.fn(p)
}

// ChangeSet collects the mutations a hook asks to apply to the stage payload.
// Mutations are applied in the order they were added, once the hook returned successfully.
type ChangeSet[T any] struct {
	muts []Mutation[T]
}

func (c *ChangeSet[T]) Mutations() []Mutation[T] {
	return c.muts
}

func (c *ChangeSet[T]) AddMutation(fn MutationFunc[T], t MutationType, key ...string) *ChangeSet[T] {
	c.muts = append(c.muts, Mutation[T]{fn: fn, mutType: t, key: key})
	return c
}
