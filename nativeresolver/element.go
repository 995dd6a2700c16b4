// Package nativeresolver implements a branching, backtracking
// dependency resolver: a DependencyGraph of elements, a persistent
// Solution/SolutionStorage pair, and a Search Driver that proposes
// complete, consistent package assignments to a user callback.
package nativeresolver

import "github.com/jamessan/cupt"

// ElementKind tags which of the four element variants an Element is:
// a tagged variant rather than a class hierarchy, so Element is one
// struct with a Kind field rather than four implementing types,
// unlike queryengine's selector nodes, which are one Go type per node
// case behind one interface — the inverse choice is made here because
// elements, unlike selector nodes, are stored by stable arena index
// and need a single concrete type a Graph can hold in one slice.
type ElementKind int

const (
	// VersionKind: a specific binary package version.
	VersionKind ElementKind = iota
	// RelationElementKind: a positive relation expression (Pre-Depends,
	// Depends, Recommends, ...); satisfied by any of its Related version
	// elements being chosen.
	RelationElementKind
	// AntiRelationElementKind: a negated relation (Conflicts, Breaks);
	// satisfied only by the absence of every one of its Related version
	// elements.
	AntiRelationElementKind
	// EmptyElementKind: "package X is absent".
	EmptyElementKind
)

// EdgePriority orders broken successors: Hard edges (Pre-Depends,
// Depends, Conflicts, Breaks) are picked for repair before Soft edges
// (Recommends, Suggests). A solution is complete only once no edge of
// either priority is broken.
type EdgePriority int

const (
	PriorityHard EdgePriority = iota
	PrioritySoft
)

// ID is a stable handle into a Graph's element arena. Graphs are cyclic
// by nature (a Depends on b, b Conflicts with a's package), so elements
// reference each other by ID rather than by pointer, avoiding reference
// cycles.
type ID int

// Element is a node in the DependencyGraph.
type Element struct {
	ID   ID
	Kind ElementKind

	// PackageName is set for VersionKind and EmptyElementKind: the
	// package this element is about.
	PackageName string

	// Version is set only for VersionKind.
	Version *cupt.BinaryVersion

	// ConflictSet lists every element ID (VersionKind siblings plus the
	// package's EmptyElementKind element) that conflicts with this one: a
	// per-package intrusive list used by SolutionStorage to enforce "at
	// most one chosen element per package". Populated only for
	// VersionKind and EmptyElementKind elements.
	ConflictSet []ID

	// Relation, RelationKind, and Related are set for RelationElementKind
	// and AntiRelationElementKind: the expression this element represents,
	// which of the eight relation fields it came from, and the version
	// elements that satisfy it (RelationElementKind) or whose presence
	// would violate it (AntiRelationElementKind).
	Relation     cupt.RelationExpression
	RelationKind cupt.RelationKind
	Related      []ID

	// Priority is the edge priority this element is reached by from its
	// introducing version element (Hard for Pre-Depends/Depends/
	// Conflicts/Breaks, Soft for Recommends/Suggests). Meaningless for
	// VersionKind and EmptyElementKind.
	Priority EdgePriority
}

func (e *Element) errString() string {
	switch e.Kind {
	case VersionKind:
		return e.Version.PackageName + "@" + e.Version.VersionString
	case EmptyElementKind:
		return e.PackageName + "@(none)"
	default:
		return e.Relation.String()
	}
}

// IntroducedBy explains why a PackageEntry holds the value it does: the
// version element whose relation introduced it, and the broken
// successor (relation or anti-relation element) that named it. Valid is
// false when the entry was chosen for a reason with no introducing
// relation (e.g. it is part of the initial state).
type IntroducedBy struct {
	VersionElement ID
	BrokenElement  ID
	Valid          bool
}

// BrokenSuccessor is an element that must be satisfied but currently
// isn't, paired with the edge priority it was reached by.
type BrokenSuccessor struct {
	Element  ID
	Priority EdgePriority
}

// PackageEntry is the per-element bookkeeping a Solution carries.
type PackageEntry struct {
	Sticked             bool
	Autoremoved         bool
	BrokenSuccessors    []BrokenSuccessor
	RejectedConflictors map[ID]bool
	IntroducedBy        IntroducedBy
}

func newPackageEntry() PackageEntry {
	return PackageEntry{RejectedConflictors: make(map[ID]bool)}
}

// clone returns a deep-enough copy of e so that mutating the copy never
// affects a Solution that shares e by value (PackageEntry is stored by
// value in Solution's maps, but its slice/map fields need independent
// backing storage once mutated).
func (e PackageEntry) clone() PackageEntry {
	n := e
	if e.BrokenSuccessors != nil {
		n.BrokenSuccessors = append([]BrokenSuccessor(nil), e.BrokenSuccessors...)
	}
	n.RejectedConflictors = make(map[ID]bool, len(e.RejectedConflictors))
	for k, v := range e.RejectedConflictors {
		n.RejectedConflictors[k] = v
	}
	return n
}
