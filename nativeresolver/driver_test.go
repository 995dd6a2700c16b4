package nativeresolver_test

import (
	"errors"
	"testing"

	"github.com/jamessan/cupt"
	"github.com/jamessan/cupt/internal/memcache"
	"github.com/jamessan/cupt/nativeresolver"
)

func addVersion(c *memcache.Cache, name, version string, deps, conflicts []string) {
	rels := map[cupt.RelationKind][]cupt.RelationExpression{}
	for _, d := range deps {
		rels[cupt.Depends] = append(rels[cupt.Depends], cupt.RelationExpression{{PackageName: d}})
	}
	for _, cf := range conflicts {
		rels[cupt.Conflicts] = append(rels[cupt.Conflicts], cupt.RelationExpression{{PackageName: cf}})
	}
	c.AddBinary(&cupt.BinaryVersion{
		Version: cupt.Version{
			PackageName:   name,
			VersionString: version,
			Priority:      cupt.Optional,
		},
		Relations: rels,
	})
}

func newDriver(c *memcache.Cache, propose nativeresolver.ProposeFunc) *nativeresolver.Driver {
	return nativeresolver.NewDriver(c, nativeresolver.DefaultPolicy, propose)
}

func TestResolveSimpleInstallNoDependencies(t *testing.T) {
	c := memcache.New()
	addVersion(c, "a", "1.0", nil, nil)

	var got nativeresolver.ProposalView
	d := newDriver(c, func(view nativeresolver.ProposalView) nativeresolver.Verdict {
		got = view
		return nativeresolver.Accept
	})

	if err := d.Resolve(nativeresolver.Request{Install: []string{"a"}}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Packages["a"] != "1.0" {
		t.Errorf("expected a=1.0, got %q", got.Packages["a"])
	}
}

func TestResolveSatisfiesCascadingDepends(t *testing.T) {
	c := memcache.New()
	addVersion(c, "x", "1.0", []string{"a"}, nil)
	addVersion(c, "a", "1.0", nil, nil)

	var got nativeresolver.ProposalView
	d := newDriver(c, func(view nativeresolver.ProposalView) nativeresolver.Verdict {
		got = view
		return nativeresolver.Accept
	})

	if err := d.Resolve(nativeresolver.Request{Install: []string{"x"}}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Packages["x"] != "1.0" || got.Packages["a"] != "1.0" {
		t.Errorf("expected x=1.0, a=1.0, got %+v", got.Packages)
	}
}

// TestResolveSatisfiesTransitiveDependsBeyondDepthOne exercises a chain
// one hop longer than TestResolveSatisfiesCascadingDepends: "a"'s
// element is first created laterally, through x's Depends, before the
// BFS in fill (graph.go) dequeues it, and a's own Depends(b) relation is
// only wired once the BFS does dequeue it — so that lateral creation
// must not make the later pass skip a.
func TestResolveSatisfiesTransitiveDependsBeyondDepthOne(t *testing.T) {
	c := memcache.New()
	addVersion(c, "x", "1.0", []string{"a"}, nil)
	addVersion(c, "a", "1.0", []string{"b"}, nil)
	addVersion(c, "b", "1.0", nil, nil)

	var got nativeresolver.ProposalView
	d := newDriver(c, func(view nativeresolver.ProposalView) nativeresolver.Verdict {
		got = view
		return nativeresolver.Accept
	})

	if err := d.Resolve(nativeresolver.Request{Install: []string{"x"}}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Packages["x"] != "1.0" || got.Packages["a"] != "1.0" || got.Packages["b"] != "1.0" {
		t.Errorf("expected x=1.0, a=1.0, b=1.0, got %+v", got.Packages)
	}
}

// TestResolveConflictSwitchesOwnerVersion exercises a case that needs two
// fixes to the action-apply path working together: a Conflicts line is
// wired only onto the declaring version's Related list (here, a's), so
// resolving it has to both retract a's already-chosen version before
// verifying its replacement, and consider moving the declaring version
// itself rather than only the side it names.
func TestResolveConflictSwitchesOwnerVersion(t *testing.T) {
	c := memcache.New()
	addVersion(c, "x", "1.0", []string{"a", "b"}, nil)
	addVersion(c, "a", "1.0", nil, []string{"b"})
	addVersion(c, "a", "2.0", nil, nil)
	addVersion(c, "b", "1.0", nil, nil)
	c.MarkNonRemovable("b")

	var got nativeresolver.ProposalView
	d := newDriver(c, func(view nativeresolver.ProposalView) nativeresolver.Verdict {
		got = view
		return nativeresolver.Accept
	})

	if err := d.Resolve(nativeresolver.Request{Install: []string{"x"}}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Packages["b"] != "1.0" {
		t.Errorf("expected b=1.0 (non-removable), got %q", got.Packages["b"])
	}
	if got.Packages["a"] == "1.0" {
		t.Errorf("accepted proposal still conflicts: a=1.0 and b=1.0 chosen together")
	}
	if got.Packages["a"] != "2.0" {
		t.Errorf("expected a to have moved to 2.0 to clear the conflict, got %q", got.Packages["a"])
	}
}

// TestResolveStickedConflictIsInfeasible mirrors the canonical "a Depends
// b; b Conflicts c; c requested and so sticked" case: with neither side of
// the conflict movable (c is sticked, b has no alternate version and
// can't be removed), the search must exhaust its frontier and report
// infeasibility rather than silently drop the conflict.
func TestResolveStickedConflictIsInfeasible(t *testing.T) {
	c := memcache.New()
	addVersion(c, "a", "1.0", []string{"b"}, nil)
	addVersion(c, "b", "1.0", nil, []string{"c"})
	addVersion(c, "c", "1.0", nil, nil)
	c.MarkNonRemovable("b")

	d := newDriver(c, func(nativeresolver.ProposalView) nativeresolver.Verdict {
		t.Fatalf("propose should never be called: every branch should dead-end on the stuck conflict")
		return nativeresolver.Decline
	})

	err := d.Resolve(nativeresolver.Request{Install: []string{"a", "c"}})
	var infeasible *nativeresolver.ResolverInfeasibleError
	if !errors.As(err, &infeasible) {
		t.Fatalf("expected a *ResolverInfeasibleError, got %v (%T)", err, err)
	}
	found := false
	for _, name := range infeasible.BrokenPackageNames {
		if name == "b" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected BrokenPackageNames to name b, got %v", infeasible.BrokenPackageNames)
	}
}

// TestResolveDeclineKeepsSearching relies on a's two candidate versions
// reaching the frontier as sibling branches through x's cascading Depends
// (a plain Install request would instead pin straight to the
// pin-preferred version in seed, with nothing left to branch over).
func TestResolveDeclineKeepsSearching(t *testing.T) {
	c := memcache.New()
	addVersion(c, "x", "1.0", []string{"a"}, nil)
	addVersion(c, "a", "1.0", nil, nil)
	addVersion(c, "a", "2.0", nil, nil)

	seen := map[string]bool{}
	d := newDriver(c, func(view nativeresolver.ProposalView) nativeresolver.Verdict {
		seen[view.Packages["a"]] = true
		if view.Packages["a"] == "1.0" {
			return nativeresolver.Decline
		}
		return nativeresolver.Accept
	})

	if err := d.Resolve(nativeresolver.Request{Install: []string{"x"}}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !seen["1.0"] || !seen["2.0"] {
		t.Errorf("expected the search to try both a=1.0 and a=2.0, saw %v", seen)
	}
}

func TestResolveAbandonReturnsError(t *testing.T) {
	c := memcache.New()
	addVersion(c, "a", "1.0", nil, nil)

	d := newDriver(c, func(nativeresolver.ProposalView) nativeresolver.Verdict {
		return nativeresolver.Abandon
	})

	err := d.Resolve(nativeresolver.Request{Install: []string{"a"}})
	var abandoned *nativeresolver.AbandonedError
	if !errors.As(err, &abandoned) {
		t.Fatalf("expected a *AbandonedError, got %v (%T)", err, err)
	}
}

func TestResolveInstallWithNoCandidateVersionErrors(t *testing.T) {
	c := memcache.New()
	d := newDriver(c, func(nativeresolver.ProposalView) nativeresolver.Verdict {
		t.Fatalf("propose should never be called when the requested package doesn't exist")
		return nativeresolver.Decline
	})

	err := d.Resolve(nativeresolver.Request{Install: []string{"nonexistent"}})
	if err == nil {
		t.Fatalf("expected an error for a nonexistent package")
	}
}
