package ptrutil

func ToPtr[T any](v T) *T {
	return &v
}

// ValueOrDefault dereferences v, falling back to the zero value of T.
func ValueOrDefault[T any](v *T) T {
	if v != nil {
		return *v
	}
	var def T
	return def
}

// FirstNonNil returns the first non nil pointer, or nil when every value is nil.
func FirstNonNil[T any](values ...*T) *T {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
