//go:build !debug_seglist

package seglist

// DebugValidate will call Validate on the provided object and panics if any
// errors are returned. This method no-ops unless the debug_seglist build tag
// is present.
func DebugValidate(validatable Validatable) {
}
