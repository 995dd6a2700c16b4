package nativeresolver

// SolutionStorage owns a Graph and mints Solutions on top of it: a root
// Solution seeded from the caller's initial state, and forks of it that
// record one branch of the search tree's choices as a delta. It
// squashes a branch's accumulated delta back into a fresh master map
// once the delta grows large relative to its nearest ancestor's master
// — bounding how long a Get/forEach walk up the parent chain can get,
// at the cost of an occasional full copy.
type SolutionStorage struct {
	graph  *Graph
	nextID int

	// squashFactor is the factor in "squash once len(added)*factor >=
	// nearest master size": default 4 (added >= master/4), set through
	// Policy.SquashFactor (the squash-factor key config.Load reads).
	squashFactor int
}

// NewSolutionStorage returns a SolutionStorage over graph. squashFactor
// must be at least 1; callers normally pass Policy.SquashFactor
// (default 4).
func NewSolutionStorage(graph *Graph, squashFactor int) *SolutionStorage {
	if squashFactor < 1 {
		squashFactor = 4
	}
	return &SolutionStorage{graph: graph, squashFactor: squashFactor}
}

// Graph returns the DependencyGraph backing this storage.
func (st *SolutionStorage) Graph() *Graph { return st.graph }

// NewRootSolution returns the level-0 Solution with an empty master and
// no parent: the starting point of a search.
func (st *SolutionStorage) NewRootSolution() *Solution {
	return &Solution{
		ID:     st.nextID,
		master: make(map[ID]PackageEntry),
	}
}

// Fork returns a new Solution one level below parent, recording an
// empty delta. The caller populates it via SetPackageEntry/
// RemovePackageEntry before publishing it as a candidate branch.
func (st *SolutionStorage) Fork(parent *Solution) *Solution {
	st.nextID++
	return &Solution{
		ID:      st.nextID,
		Level:   parent.Level + 1,
		Parent:  parent,
		added:   make(map[ID]PackageEntry),
		removed: make(map[ID]bool),
	}
}

// SetPackageEntry records id as chosen in s with entry e, squashing s's
// ancestry into a fresh master map first if the delta has grown past
// this storage's squash factor.
func (st *SolutionStorage) SetPackageEntry(s *Solution, id ID, e PackageEntry) {
	if s.Parent == nil && s.master != nil {
		// A parentless Solution (the root, or a squashed descendant) owns
		// its master map outright, so its entries are recorded there.
		s.master[id] = e
		delete(s.added, id)
		delete(s.removed, id)
		return
	}
	if s.added == nil {
		s.added = make(map[ID]PackageEntry)
	}
	if s.removed == nil {
		s.removed = make(map[ID]bool)
	}
	s.added[id] = e
	delete(s.removed, id)
	st.maybeSquash(s)
}

// RemovePackageEntry records id as no longer chosen in s.
func (st *SolutionStorage) RemovePackageEntry(s *Solution, id ID) {
	if s.removed == nil {
		s.removed = make(map[ID]bool)
	}
	delete(s.added, id)
	s.removed[id] = true
}

func nearestMasterSize(s *Solution) int {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.master != nil {
			return len(cur.master)
		}
	}
	return 0
}

func (st *SolutionStorage) maybeSquash(s *Solution) {
	masterSize := nearestMasterSize(s.Parent)
	if masterSize == 0 || len(s.added)*st.squashFactor < masterSize {
		return
	}
	flattened := make(map[ID]PackageEntry, masterSize+len(s.added))
	s.forEach(func(id ID, e PackageEntry) { flattened[id] = e })
	s.master = flattened
	s.added = make(map[ID]PackageEntry)
	s.removed = make(map[ID]bool)
	s.Parent = nil
}

// VerifyElement reports an error if choosing id in s would conflict
// with an element already chosen in s's conflict set: at most one
// element per package is ever chosen at once. This covers a sticked
// conflictor the same way it covers any other already-chosen element —
// Get doesn't distinguish Sticked from ordinary entries — so this is
// also where a predicted sticked conflict surfaces, ahead of the
// element actually being committed via SetPackageEntry. It only makes
// sense for VersionKind/EmptyElementKind ids.
func (st *SolutionStorage) VerifyElement(s *Solution, id ID) error {
	e := st.graph.Element(id)
	for _, other := range e.ConflictSet {
		if entry, ok := s.Get(other); ok && !entry.Autoremoved {
			return &ConflictError{Element: id, Conflictor: other}
		}
	}
	return nil
}
