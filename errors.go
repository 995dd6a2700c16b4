package cupt

import "fmt"

// InvariantViolation is raised, via Panic, when code
// detects a state that a correct implementation should never reach —
// a downcast that doesn't hold, or a solver bookkeeping structure
// found inconsistent. It is never expected to occur, and is not meant
// to be recovered from.
type InvariantViolation struct {
	Message string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("internal invariant violated: %s", e.Message)
}

// Panic raises an InvariantViolation. Packages in this module call this
// instead of a bare panic() so that the failure is typed and greppable.
func Panic(format string, args ...interface{}) {
	panic(&InvariantViolation{Message: fmt.Sprintf(format, args...)})
}
