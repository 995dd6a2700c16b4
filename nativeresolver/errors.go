package nativeresolver

import "fmt"

// ConflictError is returned by SolutionStorage.VerifyElement when
// choosing Element would place it beside Conflictor, an already-chosen
// member of its conflict set. The driver drops the candidate action
// that produced it.
type ConflictError struct {
	Element    ID
	Conflictor ID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("element %d conflicts with already-chosen element %d", e.Element, e.Conflictor)
}

// ResolverInfeasibleError is returned by Resolve when the search
// exhausts every candidate branch without reaching a Solution with no
// broken successors. It carries the last Solution examined so callers
// can report which package was still unsatisfied.
type ResolverInfeasibleError struct {
	Last *Solution
	// BrokenPackageNames names the package owning Last's highest-priority
	// broken successor (at most one name; empty if Last has none).
	BrokenPackageNames []string
}

func (e *ResolverInfeasibleError) Error() string {
	if len(e.BrokenPackageNames) == 0 {
		return "no solution satisfies every hard dependency and conflict"
	}
	return fmt.Sprintf("no solution satisfies every hard dependency and conflict (stuck on: %v)", e.BrokenPackageNames)
}

// AbandonedError is returned by Resolve when the propose callback
// answers Abandon.
type AbandonedError struct{}

func (e *AbandonedError) Error() string { return "search abandoned by the propose callback" }
