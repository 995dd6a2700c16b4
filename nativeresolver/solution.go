package nativeresolver

// Solution is an immutable snapshot of a partial or complete
// assignment: a delta (added, removed) against a parent Solution's
// view, not a full copy — so sibling branches of the search tree share
// all of their common ancestry's storage. master is populated only on
// the root Solution and on squashed descendants (see
// SolutionStorage.maybeSquash).
//
// Grounded on _teacher_ref/gps/solver.go's selection type, which layers
// a slice of freshly-picked atoms over an older, unmodified base rather
// than rebuilding the whole assignment on every branch.
type Solution struct {
	ID       int
	Level    int
	Parent   *Solution
	Finished bool
	Score    float64

	master  map[ID]PackageEntry
	added   map[ID]PackageEntry
	removed map[ID]bool
}

// Get returns the PackageEntry recorded for id in this Solution's view,
// walking the parent chain until master, added, or removed resolves it.
func (s *Solution) Get(id ID) (PackageEntry, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.removed != nil {
			if cur.removed[id] {
				return PackageEntry{}, false
			}
		}
		if cur.added != nil {
			if e, ok := cur.added[id]; ok {
				return e, true
			}
		}
		if cur.master != nil {
			if e, ok := cur.master[id]; ok {
				return e, true
			}
		}
	}
	return PackageEntry{}, false
}

// forEach calls fn once per (ID, PackageEntry) currently chosen in this
// Solution's view: every master entry not shadowed by a removal, plus
// every added entry, each only once even though they may appear on
// several ancestors.
func (s *Solution) forEach(fn func(ID, PackageEntry)) {
	seen := make(map[ID]bool)
	removed := make(map[ID]bool)
	for cur := s; cur != nil; cur = cur.Parent {
		for id := range cur.removed {
			removed[id] = true
		}
	}
	for cur := s; cur != nil; cur = cur.Parent {
		for id, e := range cur.added {
			if !seen[id] && !removed[id] {
				seen[id] = true
				fn(id, e)
			}
		}
		for id, e := range cur.master {
			if !seen[id] && !removed[id] {
				seen[id] = true
				fn(id, e)
			}
		}
	}
}

// chosenVersionID returns the version-kind or empty-kind element ID
// currently chosen for packageName, if any. Used by the driver's
// applyActions to find the element an action replaces.
func (s *Solution) chosenVersionID(graph *Graph, packageName string) (ID, bool) {
	var found ID
	var ok bool
	for _, id := range graph.versionsByPackage[packageName] {
		if _, present := s.Get(id); present {
			found, ok = id, true
		}
	}
	if emptyID, has := graph.emptyByPackage[packageName]; has {
		if _, present := s.Get(emptyID); present {
			found, ok = emptyID, true
		}
	}
	return found, ok
}

// isBroken reports whether element id is currently broken in this
// Solution: a RelationElementKind with none of its Related chosen, or
// an AntiRelationElementKind with any of its Related chosen.
func (s *Solution) isBroken(graph *Graph, id ID) bool {
	e := graph.Element(id)
	anyChosen := false
	for _, r := range e.Related {
		if _, ok := s.Get(r); ok {
			anyChosen = true
			break
		}
	}
	switch e.Kind {
	case RelationElementKind:
		return !anyChosen
	case AntiRelationElementKind:
		return anyChosen
	default:
		return false
	}
}
