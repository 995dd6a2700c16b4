package nativeresolver

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/jamessan/cupt"
	"github.com/jamessan/cupt/log"
)

// Verdict is the user callback's answer to a proposed Solution.
type Verdict int

const (
	Accept Verdict = iota
	Decline
	Abandon
)

// ProposalView is the read-only view of a proposed Solution handed to
// the propose callback.
type ProposalView struct {
	// Packages maps every package with a chosen state to its version
	// string, or "" if the package is chosen absent.
	Packages map[string]string
	// Autoremoved names packages __clean_automatically_installed marked
	// for removal; it is filled in only when Request.AutoClean is set.
	Autoremoved map[string]bool
}

// ProposeFunc is the resolver callback; it must not retain the
// ProposalView passed to it.
type ProposeFunc func(ProposalView) Verdict

// Request is the Search Driver's input: the initial target state plus
// a handful of resolution flags.
type Request struct {
	// Install and Remove name packages the caller wants present/absent,
	// sticked so the driver never reconsiders them on its own.
	Install []string
	Remove  []string

	// Satisfy and Unsatisfy are extra relation constraints the final
	// solution must make true / false, independent of any single
	// package's own relations.
	Satisfy   []cupt.RelationExpression
	Unsatisfy []cupt.RelationExpression

	UpgradeAll bool
	AutoClean  bool
}

// Policy bundles the Search Driver's tunables. config.Load decodes a
// TOML document into one of these.
type Policy struct {
	Weights                  Weights
	SquashFactor             int
	FrontierCap              int
	SynchronizeSourceVersions bool
}

// DefaultPolicy matches the historical cupt defaults: squash a branch
// once its delta reaches a quarter of its nearest master, keep the 16
// best branches, weigh
// installed/trusted versions per DefaultWeights, and synchronize
// same-source binaries.
var DefaultPolicy = Policy{
	Weights:                   DefaultWeights,
	SquashFactor:              4,
	FrontierCap:               16,
	SynchronizeSourceVersions: true,
}

// Action is a candidate mutation of one solution branch into the next.
type Action struct {
	PackageName string
	// Version is nil when the action proposes the package be absent.
	Version *cupt.BinaryVersion
	Reason  string
	Profit  float64

	// introducedBy records the broken successor this action resolves, for
	// the resulting PackageEntry.IntroducedBy.
	introducedBy IntroducedBy
}

// Driver runs the Search Driver loop over a DependencyGraph, proposing
// complete solutions to propose until it is
// Accepted, the frontier is exhausted (ResolverInfeasibleError), or the
// callback returns Abandon (AbandonedError).
//
// Grounded on _teacher_ref/solver.go's Solve loop: a frontier of
// candidate selections driven by a container/heap priority queue,
// popping the best-scored candidate, expanding it by one unresolved
// dependency at a time, and pushing its children back in.
type Driver struct {
	cache   cupt.PackageCache
	graph   *Graph
	storage *SolutionStorage
	policy  Policy
	propose ProposeFunc

	// Logger receives one trace line per frontier pop and per proposal
	// verdict when set; nil (the default) makes it a no-op.
	Logger *log.Logger
}

// NewDriver returns a Driver over cache, ready to Resolve requests
// against propose. The DependencyGraph is built fresh per Resolve call
// from the request's package set, since the reachable package universe
// depends on which packages are requested.
func NewDriver(cache cupt.PackageCache, policy Policy, propose ProposeFunc) *Driver {
	return &Driver{cache: cache, policy: policy, propose: propose}
}

// Resolve runs the search to completion: Accept returns nil, Decline
// keeps searching, Abandon and an exhausted frontier return errors.
func (d *Driver) Resolve(req Request) error {
	graph := NewGraph(d.cache)
	initial := append(append([]string(nil), req.Install...), req.Remove...)
	for _, rel := range req.Satisfy {
		initial = append(initial, relationPackageNames(rel)...)
	}
	for _, rel := range req.Unsatisfy {
		initial = append(initial, relationPackageNames(rel)...)
	}
	graph.fill(initial)
	d.graph = graph
	d.storage = NewSolutionStorage(graph, d.policy.SquashFactor)
	d.cache.Memoize(true)

	root := d.storage.NewRootSolution()
	if err := d.seed(root, req); err != nil {
		return err
	}

	frontier := &solutionHeap{}
	heap.Init(frontier)
	heap.Push(frontier, root)

	var last *Solution
	for frontier.Len() > 0 {
		s := heap.Pop(frontier).(*Solution)
		last = s
		d.Logger.Tracef("pop solution %d (level %d, score %.2f)", s.ID, s.Level, s.Score)

		broken := d.findBrokenSuccessor(s)
		if broken == nil {
			s.Finished = true
			verdict := d.propose(d.view(s, req.AutoClean))
			d.Logger.Tracef("proposed solution %d: verdict %d", s.ID, verdict)
			switch verdict {
			case Accept:
				return nil
			case Decline:
				continue
			case Abandon:
				return &AbandonedError{}
			}
		}

		actions := d.enumerateActions(s, *broken)
		d.Logger.Tracef("solution %d: %d candidate actions for broken element %d", s.ID, len(actions), broken.Succ.Element)
		children := d.applyActions(s, actions)
		for _, c := range children {
			heap.Push(frontier, c)
		}
		eraseWorstSolutions(frontier, d.policy.FrontierCap)
	}

	return &ResolverInfeasibleError{Last: last, BrokenPackageNames: d.brokenPackageNames(last)}
}

func relationPackageNames(rel cupt.RelationExpression) []string {
	names := make([]string, 0, len(rel))
	for _, term := range rel {
		names = append(names, term.PackageName)
	}
	return names
}

// seed installs req's Install/Remove/Satisfy/Unsatisfy requests as
// sticked entries in root.
func (d *Driver) seed(root *Solution, req Request) error {
	for _, name := range req.Install {
		versions := d.cache.GetSortedPinnedVersions(cupt.PackageHandle{Name: name})
		if len(versions) == 0 {
			return fmt.Errorf("nativeresolver: no candidate version for requested install %q", name)
		}
		id := d.findVersionElement(name, versions[0].VersionString)
		entry := newPackageEntry()
		entry.Sticked = true
		entry.BrokenSuccessors = d.computeBrokenSuccessors(root, id)
		d.storage.SetPackageEntry(root, id, entry)
	}
	for _, name := range req.Remove {
		id := d.graph.getCorrespondingEmptyElement(name)
		entry := newPackageEntry()
		entry.Sticked = true
		d.storage.SetPackageEntry(root, id, entry)
	}
	for _, rel := range req.Satisfy {
		satisfying := d.cache.GetSatisfyingVersions(rel)
		if len(satisfying) == 0 {
			return fmt.Errorf("nativeresolver: relation %q has no satisfying version", rel.String())
		}
		id := d.findVersionElement(satisfying[0].PackageName, satisfying[0].VersionString)
		entry := newPackageEntry()
		entry.Sticked = true
		entry.BrokenSuccessors = d.computeBrokenSuccessors(root, id)
		d.storage.SetPackageEntry(root, id, entry)
	}
	for _, rel := range req.Unsatisfy {
		for _, sv := range d.cache.GetSatisfyingVersions(rel) {
			id := d.graph.getCorrespondingEmptyElement(sv.PackageName)
			entry := newPackageEntry()
			entry.Sticked = true
			d.storage.SetPackageEntry(root, id, entry)
		}
	}
	return nil
}

func (d *Driver) findVersionElement(packageName, versionString string) ID {
	for _, id := range d.graph.versionsByPackage[packageName] {
		if d.graph.Element(id).Version.VersionString == versionString {
			return id
		}
	}
	return d.graph.getCorrespondingEmptyElement(packageName)
}

type brokenRef struct {
	OwnerID ID
	Succ    BrokenSuccessor
}

// findBrokenSuccessor returns the highest-priority element still
// broken in s. It walks each chosen element's Related edges straight
// off the graph rather than off the PackageEntry.BrokenSuccessors
// snapshot recorded when the element was chosen: a Conflicts/Breaks
// edge is wired onto only one side of the pair, so if that side is
// chosen before the other, its snapshot is taken before the edge can
// be broken at all — the snapshot would then never learn the other
// side showed up later. Walking the graph live is what catches that.
func (d *Driver) findBrokenSuccessor(s *Solution) *brokenRef {
	var candidates []brokenRef
	s.forEach(func(id ID, _ PackageEntry) {
		el := d.graph.Element(id)
		for _, relID := range el.Related {
			if s.isBroken(d.graph, relID) {
				candidates = append(candidates, brokenRef{
					OwnerID: id,
					Succ:    BrokenSuccessor{Element: relID, Priority: d.graph.Element(relID).Priority},
				})
			}
		}
	})
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Succ.Priority != candidates[j].Succ.Priority {
			return candidates[i].Succ.Priority < candidates[j].Succ.Priority
		}
		return candidates[i].Succ.Element < candidates[j].Succ.Element
	})
	return &candidates[0]
}

// enumerateActions builds the candidate action set for one broken
// successor.
func (d *Driver) enumerateActions(s *Solution, broken brokenRef) []Action {
	elem := d.graph.Element(broken.Succ.Element)
	owner := d.graph.Element(broken.OwnerID)
	ownerEntry, _ := s.Get(broken.OwnerID)

	var actions []Action
	switch elem.Kind {
	case RelationElementKind:
		for _, rid := range elem.Related {
			if ownerEntry.RejectedConflictors[rid] {
				continue
			}
			ve := d.graph.Element(rid)
			actions = append(actions, Action{
				PackageName:  ve.PackageName,
				Version:      ve.Version,
				Reason:       fmt.Sprintf("satisfy %s", elem.Relation.String()),
				introducedBy: IntroducedBy{VersionElement: broken.OwnerID, BrokenElement: broken.Succ.Element, Valid: true},
			})
		}
		if d.graph.CanRemove(owner.PackageName) && !ownerEntry.Sticked {
			actions = append(actions, Action{
				PackageName:  owner.PackageName,
				Version:      nil,
				Reason:       fmt.Sprintf("remove %s rather than satisfy %s", owner.PackageName, elem.Relation.String()),
				introducedBy: IntroducedBy{VersionElement: broken.OwnerID, BrokenElement: broken.Succ.Element, Valid: true},
			})
		}

	case AntiRelationElementKind:
		related := make(map[ID]bool, len(elem.Related))
		for _, rid := range elem.Related {
			related[rid] = true
		}
		for _, rid := range elem.Related {
			relEntry, chosen := s.Get(rid)
			if !chosen {
				continue
			}
			ve := d.graph.Element(rid)
			by := IntroducedBy{VersionElement: rid, BrokenElement: broken.Succ.Element, Valid: true}
			// A sticked element can't be removed or swapped out to resolve
			// the conflict; it's left for the caller to Decline or for the
			// search to find another branch.
			if relEntry.Sticked {
				continue
			}
			if d.graph.CanRemove(ve.PackageName) {
				actions = append(actions, Action{
					PackageName:  ve.PackageName,
					Version:      nil,
					Reason:       fmt.Sprintf("remove to resolve %s", elem.Relation.String()),
					introducedBy: by,
				})
			}
			for _, altID := range d.graph.versionsByPackage[ve.PackageName] {
				if related[altID] {
					continue
				}
				alt := d.graph.Element(altID)
				actions = append(actions, Action{
					PackageName:  ve.PackageName,
					Version:      alt.Version,
					Reason:       fmt.Sprintf("switch to a version not matching %s", elem.Relation.String()),
					introducedBy: by,
				})
			}
		}

		// elem.Related only lists the side the Conflicts/Breaks line was
		// declared against; the declaring version itself (owner) is just as
		// valid a side to move, so it gets the same remove/switch treatment
		// the related side does.
		if !ownerEntry.Sticked {
			by := IntroducedBy{VersionElement: broken.OwnerID, BrokenElement: broken.Succ.Element, Valid: true}
			if d.graph.CanRemove(owner.PackageName) {
				actions = append(actions, Action{
					PackageName:  owner.PackageName,
					Version:      nil,
					Reason:       fmt.Sprintf("remove %s to resolve %s", owner.PackageName, elem.Relation.String()),
					introducedBy: by,
				})
			}
			for _, altID := range d.graph.versionsByPackage[owner.PackageName] {
				if altID == broken.OwnerID {
					continue
				}
				alt := d.graph.Element(altID)
				actions = append(actions, Action{
					PackageName:  owner.PackageName,
					Version:      alt.Version,
					Reason:       fmt.Sprintf("switch %s to a version not declaring %s", owner.PackageName, elem.Relation.String()),
					introducedBy: by,
				})
			}
		}
	}
	return actions
}

// applyActions is __calculate_profits + __filter_unsynchronizeable_actions
// + __pre_apply_actions_to_solution_tree folded into one pass: score
// each action, drop the ones policy rejects, and fork s once per
// surviving action.
func (d *Driver) applyActions(s *Solution, actions []Action) []*Solution {
	var children []*Solution
	for _, a := range actions {
		if !d.canRelatedPackagesBeSynchronized(s, a) {
			continue
		}
		oldID, hadOld := s.chosenVersionID(d.graph, a.PackageName)
		var oldVersion *cupt.BinaryVersion
		if hadOld {
			if el := d.graph.Element(oldID); el.Kind == VersionKind {
				oldVersion = el.Version
			}
		}
		a.Profit = actionProfit(oldVersion, a.Version, d.policy.Weights)

		targetID := d.graph.getCorrespondingEmptyElement(a.PackageName)
		if a.Version != nil {
			targetID = d.findVersionElement(a.PackageName, a.Version.VersionString)
		}

		// The action's own package may already hold a different chosen
		// element in s (that's exactly what a "switch version" or "remove"
		// action is for), and that old element sits in targetID's own
		// per-package conflict set by construction. So the old choice has
		// to be retracted in the candidate child before VerifyElement runs,
		// or it would always reject the very element the action means to
		// replace it with.
		child := d.storage.Fork(s)
		if hadOld && oldID != targetID {
			d.storage.RemovePackageEntry(child, oldID)
		}
		if err := d.storage.VerifyElement(child, targetID); err != nil {
			continue
		}
		child.Score = s.Score + a.Profit

		entry := newPackageEntry()
		entry.IntroducedBy = a.introducedBy
		entry.BrokenSuccessors = d.computeBrokenSuccessors(child, targetID)
		d.storage.SetPackageEntry(child, targetID, entry)
		d.rejectConflicts(child, targetID)

		children = append(children, child)
	}
	return children
}

// computeBrokenSuccessors reports which of versionID's Related
// relation/anti-relation elements are not yet satisfied in s, ahead of
// versionID itself being chosen (choosing it doesn't change whether
// its own successors are satisfied).
func (d *Driver) computeBrokenSuccessors(s *Solution, versionID ID) []BrokenSuccessor {
	e := d.graph.Element(versionID)
	var broken []BrokenSuccessor
	for _, relID := range e.Related {
		if s.isBroken(d.graph, relID) {
			broken = append(broken, BrokenSuccessor{Element: relID, Priority: d.graph.Element(relID).Priority})
		}
	}
	return broken
}

// rejectConflicts records every other member of chosenID's conflict
// set in chosenID's own PackageEntry.RejectedConflictors.
// enumerateActions skips those IDs when they appear among the
// candidates of a relation that chosenID itself declares.
func (d *Driver) rejectConflicts(s *Solution, chosenID ID) {
	e := d.graph.Element(chosenID)
	for _, other := range e.ConflictSet {
		entry, _ := s.Get(chosenID)
		entry.RejectedConflictors[other] = true
		d.storage.SetPackageEntry(s, chosenID, entry)
	}
}

func (d *Driver) canRelatedPackagesBeSynchronized(s *Solution, a Action) bool {
	if !d.policy.SynchronizeSourceVersions || a.Version == nil {
		return true
	}
	ok := true
	s.forEach(func(id ID, e PackageEntry) {
		el := d.graph.Element(id)
		if el.Kind != VersionKind || el.Version == nil {
			return
		}
		if el.Version.SourcePackage == a.Version.SourcePackage &&
			el.Version.SourceVersion != a.Version.SourceVersion {
			ok = false
		}
	})
	return ok
}

// view builds the read-only proposal handed to the callback, including
// __clean_automatically_installed's autoremoval pass when autoClean is
// set.
func (d *Driver) view(s *Solution, autoClean bool) ProposalView {
	view := ProposalView{Packages: map[string]string{}, Autoremoved: map[string]bool{}}
	s.forEach(func(id ID, e PackageEntry) {
		el := d.graph.Element(id)
		switch el.Kind {
		case VersionKind:
			view.Packages[el.PackageName] = el.Version.VersionString
		case EmptyElementKind:
			view.Packages[el.PackageName] = ""
		}
	})
	if !autoClean {
		return view
	}
	for name := range view.Packages {
		if view.Packages[name] == "" {
			continue
		}
		if d.cache.IsAutomaticallyInstalled(name) && !d.hasManualReverseDependency(s, name) {
			view.Autoremoved[name] = true
		}
	}
	return view
}

// hasManualReverseDependency reports whether some manually-installed
// chosen version Depends or Pre-Depends on name, per
// __clean_automatically_installed.
func (d *Driver) hasManualReverseDependency(s *Solution, name string) bool {
	found := false
	s.forEach(func(id ID, e PackageEntry) {
		el := d.graph.Element(id)
		if el.Kind != VersionKind || el.Version == nil {
			return
		}
		if d.cache.IsAutomaticallyInstalled(el.PackageName) {
			return
		}
		for _, kind := range []cupt.RelationKind{cupt.PreDepends, cupt.Depends} {
			for _, rel := range el.Version.RelationLines(kind) {
				for _, term := range rel {
					if term.PackageName == name {
						found = true
					}
				}
			}
		}
	})
	return found
}

func (d *Driver) brokenPackageNames(s *Solution) []string {
	if s == nil {
		return nil
	}
	broken := d.findBrokenSuccessor(s)
	if broken == nil {
		return nil
	}
	var names []string
	s.forEach(func(id ID, e PackageEntry) {
		if id == broken.OwnerID {
			names = append(names, d.graph.Element(id).PackageName)
		}
	})
	return names
}

// solutionHeap is the frontier: a container/heap priority queue
// ordered by highest score, breaking ties by lowest level and then
// lowest id.
type solutionHeap []*Solution

func (h solutionHeap) Len() int { return len(h) }

func (h solutionHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Level != b.Level {
		return a.Level < b.Level
	}
	return a.ID < b.ID
}

func (h solutionHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *solutionHeap) Push(x interface{}) { *h = append(*h, x.(*Solution)) }

func (h *solutionHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// eraseWorstSolutions caps the frontier at cap entries, keeping the
// top-K by the same order the heap uses.
func eraseWorstSolutions(h *solutionHeap, cap int) {
	if cap <= 0 || h.Len() <= cap {
		return
	}
	sort.Sort(sortByGoodness(*h))
	kept := (*h)[:cap]
	*h = append(solutionHeap(nil), kept...)
	heap.Init(h)
}

type sortByGoodness solutionHeap

func (s sortByGoodness) Len() int      { return len(s) }
func (s sortByGoodness) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s sortByGoodness) Less(i, j int) bool {
	return solutionHeap(s).Less(i, j)
}
