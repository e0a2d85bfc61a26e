package errortypes

// Scope limits when a warning is shown. ScopeDebug warnings only reach responses built in debug mode.
type Scope int

const (
	ScopeAny Scope = iota
	ScopeDebug
)

type Scoped interface {
	Scope() Scope
}

// ReadScope returns the scope of err, ScopeAny when it has none.
func ReadScope(err error) Scope {
	if e, ok := err.(Scoped); ok {
		return e.Scope()
	}
	return ScopeAny
}
