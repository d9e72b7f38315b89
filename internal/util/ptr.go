package util

// Ptr returns a pointer to v. Convenient for literals in table tests
// and optional wire fields.
func Ptr[T any](v T) *T {
	return &v
}
