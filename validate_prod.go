//go:build !debug_buddy

package buddy

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_buddy build tag is present
func DebugValidate(validatable Validatable) {
}
