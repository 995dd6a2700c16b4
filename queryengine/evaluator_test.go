package queryengine_test

import (
	"testing"

	"github.com/jamessan/cupt"
	"github.com/jamessan/cupt/internal/memcache"
	"github.com/jamessan/cupt/queryengine"
)

func newFixtureCache() *memcache.Cache {
	c := memcache.New()

	archive := cupt.Source{Release: cupt.Release{Archive: "stable", BaseURI: "http://example.invalid"}}
	local := cupt.Source{Release: cupt.Release{Archive: "now"}}

	addBinary := func(name, version string, priority cupt.Priority, installed bool, deps ...string) {
		var rels []cupt.RelationExpression
		for _, d := range deps {
			rels = append(rels, cupt.RelationExpression{{PackageName: d}})
		}
		sources := []cupt.Source{archive}
		if installed {
			sources = []cupt.Source{local, archive}
		}
		c.AddBinary(&cupt.BinaryVersion{
			Version: cupt.Version{
				PackageName:   name,
				VersionString: version,
				Priority:      priority,
				Sources:       sources,
			},
			Relations: map[cupt.RelationKind][]cupt.RelationExpression{cupt.Depends: rels},
		})
	}

	addBinary("a", "1.0", cupt.Optional, true, "b")
	addBinary("b", "1.0", cupt.Optional, true, "c")
	addBinary("c", "1.0", cupt.Optional, true)
	addBinary("z", "2.0", cupt.Optional, false)

	c.MarkInstalled("a")
	c.MarkInstalled("b")
	c.MarkInstalled("c")
	c.SetDescriptions("a", "1.0", "package a", "the a package, used for testing")

	return c
}

func selectNames(t *testing.T, cache *memcache.Cache, query string) []string {
	t.Helper()
	p := queryengine.NewParser(cache)
	node, err := p.Parse(query)
	if err != nil {
		t.Fatalf("Parse(%q): %v", query, err)
	}
	vs := queryengine.NewBinaryVersionSet(cache)
	results, err := node.Select(vs)
	if err != nil {
		t.Fatalf("Select(%q): %v", query, err)
	}
	out := make([]string, len(results))
	for i, v := range results {
		out[i] = v.Common().PackageName
	}
	return out
}

func TestPackageName(t *testing.T) {
	cache := newFixtureCache()
	got := selectNames(t, cache, "package:name(/^a$/)")
	want := []string{"a"}
	assertNames(t, got, want)
}

func TestPackageInstalled(t *testing.T) {
	cache := newFixtureCache()
	got := selectNames(t, cache, "package:installed")
	want := []string{"a", "b", "c"}
	assertNames(t, got, want)
}

func TestAndOrNotXor(t *testing.T) {
	cache := newFixtureCache()

	t.Run("and", func(t *testing.T) {
		got := selectNames(t, cache, "and(package:installed, package:name(/^a$/))")
		assertNames(t, got, []string{"a"})
	})
	t.Run("or", func(t *testing.T) {
		got := selectNames(t, cache, "or(package:name(/^a$/), package:name(/^z$/))")
		assertNames(t, got, []string{"a", "z"})
	})
	t.Run("not", func(t *testing.T) {
		got := selectNames(t, cache, "not(package:installed)")
		assertNames(t, got, []string{"z"})
	})
	t.Run("xor", func(t *testing.T) {
		got := selectNames(t, cache, "xor(package:installed, package:name(/^a$/))")
		assertNames(t, got, []string{"b", "c"})
	})
}

func TestBestCollapsesToOnePerPackage(t *testing.T) {
	cache := memcache.New()
	cache.AddBinary(&cupt.BinaryVersion{Version: cupt.Version{PackageName: "a", VersionString: "1.0"}})
	cache.AddBinary(&cupt.BinaryVersion{Version: cupt.Version{PackageName: "a", VersionString: "2.0"}})
	cache.SetPin("a", "2.0", 100)

	p := queryengine.NewParser(cache)
	node, err := p.Parse("best(package:name(/^a$/))")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	vs := queryengine.NewBinaryVersionSet(cache)
	results, err := node.Select(vs)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("best: expected exactly 1 result, got %d", len(results))
	}
	if results[0].Common().VersionString != "2.0" {
		t.Errorf("best: expected the pinned 2.0 to win, got %s", results[0].Common().VersionString)
	}
}

func TestDependencyTransform(t *testing.T) {
	cache := newFixtureCache()
	got := selectNames(t, cache, "depends(package:name(/^a$/))")
	assertNames(t, got, []string{"b"})
}

func TestPackageWithDependenciesOrdersAscending(t *testing.T) {
	cache := newFixtureCache()
	got := selectNames(t, cache, "package-with-dependencies(a)")
	// walks Pre-Depends, Depends, and Recommends transitively, restricted
	// to installed versions, starting from a itself; a -> b -> c, all installed.
	assertNames(t, got, []string{"a", "b", "c"})
}

func TestVersionDescription(t *testing.T) {
	cache := newFixtureCache()
	got := selectNames(t, cache, "version:description(/used for testing/)")
	assertNames(t, got, []string{"a"})
}

func TestUndefinedVariableErrors(t *testing.T) {
	cache := newFixtureCache()
	p := queryengine.NewParser(cache)
	node, err := p.Parse("_undefined")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	vs := queryengine.NewBinaryVersionSet(cache)
	if _, err := node.Select(vs); err == nil {
		t.Errorf("expected an UndefinedVariableError, got nil")
	}
}

func TestWithBindsVariable(t *testing.T) {
	cache := newFixtureCache()
	got := selectNames(t, cache, "with(_x, package:name(/^a$/), _x)")
	assertNames(t, got, []string{"a"})
}

func assertNames(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
