package sslident

import "fmt"

// InvalidArgumentError reports a caller contract violation: an argument
// whose type is outside the accepted set. It indicates a bug in the caller,
// not a property of the certificate, and must not be downgraded to a false
// verdict.
type InvalidArgumentError struct {
	// Position is the 1-based ordinal of the offending argument.
	Position int
	// Name is the parameter name without decoration.
	Name string
	// Expected is the accepted type set, pipe separated.
	Expected string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("Argument #%d ($%s) must be of type %s", e.Position, e.Name, e.Expected)
}
