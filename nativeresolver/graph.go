package nativeresolver

import "github.com/jamessan/cupt"

// Graph is the DependencyGraph: an arena of Elements reachable from a
// set of initial packages, materialised once up front
// by fill and then never mutated again — Solutions built on top of it
// only ever record which elements are chosen, never add new ones.
//
// Grounded on _teacher_ref/gps/solver.go's atom/atomWithPackages (every
// candidate version is a stable value held in a slice, referenced by
// siblings via its position rather than by pointer) and
// _teacher_ref/gps/selection.go's selection/unselected bookkeeping for
// walking a package's candidate set.
type Graph struct {
	cache cupt.PackageCache

	elements []*Element

	// versionsByPackage maps a package name to the IDs of every
	// VersionKind element materialised for it, in cache order.
	versionsByPackage map[string][]ID

	// emptyByPackage maps a package name to its single EmptyElementKind
	// element, created lazily the first time it's needed.
	emptyByPackage map[string]ID

	// relationIndex dedups relation/anti-relation elements so that two
	// versions depending on the identical expression share one node.
	relationIndex map[string]ID
}

// NewGraph returns an empty Graph backed by cache. Call fill to
// materialise it before use.
func NewGraph(cache cupt.PackageCache) *Graph {
	return &Graph{
		cache:             cache,
		versionsByPackage: make(map[string][]ID),
		emptyByPackage:    make(map[string]ID),
		relationIndex:     make(map[string]ID),
	}
}

func (g *Graph) add(e *Element) ID {
	e.ID = ID(len(g.elements))
	g.elements = append(g.elements, e)
	return e.ID
}

// Element returns the element stored at id.
func (g *Graph) Element(id ID) *Element { return g.elements[id] }

// Len returns the number of elements in the arena.
func (g *Graph) Len() int { return len(g.elements) }

// CanRemove reports whether name may be absent from a finished
// solution at all (__can_package_be_removed): false for packages the
// collaborator cache marks NonRemovable (installed Essential packages,
// or the target of a user "hold").
func (g *Graph) CanRemove(name string) bool {
	return !g.cache.NonRemovable(name)
}

func (g *Graph) getCorrespondingEmptyElement(packageName string) ID {
	if id, ok := g.emptyByPackage[packageName]; ok {
		return id
	}
	id := g.add(&Element{Kind: EmptyElementKind, PackageName: packageName})
	g.emptyByPackage[packageName] = id
	return id
}

func relationKey(kind cupt.RelationKind, rel cupt.RelationExpression) string {
	return kind.String() + "\x00" + rel.String()
}

// fill performs a breadth-first materialisation: starting from
// initialPackages, create a VersionKind
// element per candidate version of every reached package, wire
// RelationElementKind/AntiRelationElementKind successors for its
// Pre-Depends, Depends, Conflicts, Breaks, Recommends, and Suggests
// lines (Enhances and Replaces are not wired), and enqueue every
// package named by a relation's
// satisfying-version set, continuing until the transitive closure is
// exhausted.
func (g *Graph) fill(initialPackages []string) {
	queue := append([]string(nil), initialPackages...)
	enqueued := make(map[string]bool, len(initialPackages))
	for _, name := range initialPackages {
		enqueued[name] = true
	}

	// materialized tracks which packages have had *every* candidate
	// version wired (conflict set + relation successors), as opposed to
	// merely having an entry in versionsByPackage. A relation can reach a
	// package laterally, through versionElementFor, before the BFS gets
	// to it — that only ever creates the single referenced version, so
	// versionsByPackage's presence alone can't be used as the "done"
	// guard or the rest of that package's versions and relations would
	// never get wired.
	materialized := make(map[string]bool, len(initialPackages))

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		if materialized[name] {
			continue
		}
		materialized[name] = true

		versions := g.cache.GetBinaryVersions(name)
		ids := make([]ID, 0, len(versions))
		for _, v := range versions {
			ids = append(ids, g.findOrCreateVersionElement(name, v))
		}
		g.versionsByPackage[name] = ids
		emptyID := g.getCorrespondingEmptyElement(name)

		// Every version of a package conflicts with every other version
		// of the package, and with the package being absent.
		conflictSet := append(append([]ID(nil), ids...), emptyID)
		for _, id := range ids {
			g.elements[id].ConflictSet = otherMembers(conflictSet, id)
		}
		g.elements[emptyID].ConflictSet = otherMembers(conflictSet, emptyID)

		for i, v := range versions {
			newNames := g.wireVersion(ids[i], v)
			for _, n := range newNames {
				if !enqueued[n] {
					enqueued[n] = true
					queue = append(queue, n)
				}
			}
		}
	}
}

func otherMembers(all []ID, self ID) []ID {
	out := make([]ID, 0, len(all)-1)
	for _, id := range all {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}

var hardRelationKinds = []cupt.RelationKind{
	cupt.PreDepends, cupt.Depends, cupt.Conflicts, cupt.Breaks,
}

// softRelationKinds are wired with PrioritySoft edges. Only
// Recommends/Suggests count as soft edges; Enhances and Replaces are
// deliberately not wired into the graph at all — Enhances is purely
// informational and Replaces concerns file ownership, not version
// selection, so neither should create search pressure.
var softRelationKinds = []cupt.RelationKind{
	cupt.Recommends, cupt.Suggests,
}

var negatedRelationKinds = map[cupt.RelationKind]bool{
	cupt.Conflicts: true,
	cupt.Breaks:    true,
}

// wireVersion creates the RelationElementKind/AntiRelationElementKind
// successors of versionID for every hard and soft relation line
// versionID.Version carries, and returns the package names discovered via those
// relations' satisfying-version sets (for fill's BFS worklist).
func (g *Graph) wireVersion(versionID ID, v *cupt.BinaryVersion) []string {
	var discovered []string

	wire := func(kind cupt.RelationKind, priority EdgePriority) {
		for _, rel := range v.RelationLines(kind) {
			satisfying := g.cache.GetSatisfyingVersions(rel)
			related := make([]ID, 0, len(satisfying))
			for _, sv := range satisfying {
				// Always report the package as discovered, even if
				// versionElementFor (or an earlier relation line) has
				// already created a partial entry for it: fill's
				// enqueued map is the single source of truth for
				// "already queued", so there's no correctness reason to
				// filter here, and filtering against versionsByPackage
				// presence previously meant a laterally-created partial
				// entry could hide a package from the BFS queue.
				discovered = append(discovered, sv.PackageName)
				related = append(related, g.versionElementFor(sv))
			}

			elementKind := RelationElementKind
			if negatedRelationKinds[kind] {
				elementKind = AntiRelationElementKind
			}
			relID, ok := g.relationIndex[relationKey(kind, rel)]
			if !ok {
				relID = g.add(&Element{
					Kind:         elementKind,
					Relation:     rel,
					RelationKind: kind,
					Related:      related,
					Priority:     priority,
				})
				g.relationIndex[relationKey(kind, rel)] = relID
			}
			g.elements[versionID].Related = append(g.elements[versionID].Related, relID)
		}
	}

	for _, k := range hardRelationKinds {
		wire(k, PriorityHard)
	}
	for _, k := range softRelationKinds {
		wire(k, PrioritySoft)
	}
	return discovered
}

// versionElementFor returns the VersionKind element for sv, creating it
// on first reference so relation wiring can target packages fill
// hasn't reached via the BFS queue yet. The package's conflict set and
// its own relations are still only wired once fill actually
// materializes it (see fill's materialized guard) — this just reserves
// the element and its slot in versionsByPackage so later relations and
// the eventual materialization pass share the same ID.
func (g *Graph) versionElementFor(sv *cupt.BinaryVersion) ID {
	return g.findOrCreateVersionElement(sv.PackageName, sv)
}

// findOrCreateVersionElement returns the VersionKind element for name
// at sv's version, reusing one already created by an earlier lateral
// reference (versionElementFor) instead of creating a duplicate.
func (g *Graph) findOrCreateVersionElement(name string, sv *cupt.BinaryVersion) ID {
	for _, id := range g.versionsByPackage[name] {
		if g.elements[id].Version.VersionString == sv.VersionString {
			return id
		}
	}
	id := g.add(&Element{Kind: VersionKind, PackageName: name, Version: sv})
	g.versionsByPackage[name] = append(g.versionsByPackage[name], id)
	return id
}
