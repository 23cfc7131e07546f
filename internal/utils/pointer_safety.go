package utils

// Value dereferences v, returning the zero value for nil.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}

// OptionalString returns nil for an empty string so optional JSON fields are omitted.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// EqualPtr reports whether two optional values are both nil or point to equal values.
func EqualPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
