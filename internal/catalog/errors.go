package catalog

type constError string

func (e constError) Error() string { return string(e) }

var (
	// ErrFactorNotFound indicates no factor matches the (type, category, scope) key.
	ErrFactorNotFound = constError("emission factor not found")

	// ErrDuplicateFactor indicates a seed defines the same key twice.
	ErrDuplicateFactor = constError("duplicate emission factor")
)
