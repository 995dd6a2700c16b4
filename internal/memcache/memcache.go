// Package memcache is an in-memory fixture implementing cupt.PackageCache
// and cupt.LocalizedInfo, used by the test suites and the demo CLI in
// place of a real archive-index reader (out of scope for this module).
package memcache

import (
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver"
	radix "github.com/armon/go-radix"

	"github.com/jamessan/cupt"
)

// Cache is a small, fully in-memory PackageCache/LocalizedInfo. It is
// built up with the Add*/Mark*/SetPin methods and then handed to
// queryengine or nativeresolver exactly like a real cache would be.
type Cache struct {
	mu sync.Mutex

	binary map[string][]*cupt.BinaryVersion
	source map[string][]*cupt.SourceVersion
	names  *radix.Tree

	pins          map[string]int
	installed     map[string]bool
	autoInstalled map[string]bool
	nonRemovable  map[string]bool
	descriptions  map[string][2]string

	memoize  bool
	pinCache map[string][]cupt.Version
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{
		binary:        make(map[string][]*cupt.BinaryVersion),
		source:        make(map[string][]*cupt.SourceVersion),
		names:         radix.New(),
		pins:          make(map[string]int),
		installed:     make(map[string]bool),
		autoInstalled: make(map[string]bool),
		nonRemovable:  make(map[string]bool),
		descriptions:  make(map[string][2]string),
		pinCache:      make(map[string][]cupt.Version),
	}
}

func versionKey(packageName, versionString string) string {
	return packageName + "\x00" + versionString
}

// AddBinary registers a binary version, indexing its package name for
// both direct and prefix lookup.
func (c *Cache) AddBinary(v *cupt.BinaryVersion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.binary[v.PackageName] = append(c.binary[v.PackageName], v)
	c.names.Insert(v.PackageName, struct{}{})
}

// AddSource registers a source version.
func (c *Cache) AddSource(v *cupt.SourceVersion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.source[v.PackageName] = append(c.source[v.PackageName], v)
	c.names.Insert(v.PackageName, struct{}{})
}

// SetPin records an explicit pin priority for one version. Versions
// with no recorded pin default to 0.
func (c *Cache) SetPin(packageName, versionString string, pin int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pins[versionKey(packageName, versionString)] = pin
	c.pinCache = make(map[string][]cupt.Version)
}

// SetDescriptions records the short/long description pair used by
// version:description and LocalizedInfo.GetDescriptions.
func (c *Cache) SetDescriptions(packageName, versionString, short, long string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.descriptions[versionKey(packageName, versionString)] = [2]string{short, long}
}

// MarkInstalled, MarkAutomaticallyInstalled, and MarkNonRemovable flip
// the per-package booleans the resolver and query engine read.
func (c *Cache) MarkInstalled(name string) { c.mu.Lock(); defer c.mu.Unlock(); c.installed[name] = true }
func (c *Cache) MarkAutomaticallyInstalled(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoInstalled[name] = true
}
func (c *Cache) MarkNonRemovable(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nonRemovable[name] = true
}

// LookupPrefix returns every registered package name (binary or
// source) starting with prefix, in sorted order — a convenience the
// PackageCache interface doesn't require, backed by the radix index so
// cmd/cupt's search subcommand doesn't need to scan every name.
func (c *Cache) LookupPrefix(prefix string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	c.names.WalkPrefix(prefix, func(name string, _ interface{}) bool {
		out = append(out, name)
		return false
	})
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string][]*cupt.BinaryVersion) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedSourceKeys(m map[string][]*cupt.SourceVersion) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (c *Cache) BinaryPackageNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedKeys(c.binary)
}

func (c *Cache) SourcePackageNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedSourceKeys(c.source)
}

func (c *Cache) GetBinaryPackage(name string) (cupt.PackageHandle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.binary[name]; !ok {
		return cupt.PackageHandle{}, false
	}
	return cupt.PackageHandle{Name: name}, true
}

func (c *Cache) GetSourcePackage(name string) (cupt.PackageHandle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.source[name]; !ok {
		return cupt.PackageHandle{}, false
	}
	return cupt.PackageHandle{Name: name, IsSource: true}, true
}

func (c *Cache) GetBinaryVersions(name string) []*cupt.BinaryVersion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*cupt.BinaryVersion(nil), c.binary[name]...)
}

func (c *Cache) GetSourceVersions(name string) []*cupt.SourceVersion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*cupt.SourceVersion(nil), c.source[name]...)
}

// GetSortedPinnedVersions returns pkg's versions ordered best-first by
// pin priority, then by descending version. Results are memoized while
// Memoize(true) is in effect, the way a resolve sets memoize true on
// entry and expects pin lookups to stay stable for its duration.
func (c *Cache) GetSortedPinnedVersions(pkg cupt.PackageHandle) []cupt.Version {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.memoize {
		if cached, ok := c.pinCache[pkg.Name]; ok {
			return cached
		}
	}

	var common []cupt.Version
	for _, v := range c.binary[pkg.Name] {
		common = append(common, v.Version)
	}
	sort.SliceStable(common, func(i, j int) bool {
		pi := c.pins[versionKey(common[i].PackageName, common[i].VersionString)]
		pj := c.pins[versionKey(common[j].PackageName, common[j].VersionString)]
		if pi != pj {
			return pi > pj
		}
		return compareVersions(common[i].VersionString, common[j].VersionString) > 0
	})

	if c.memoize {
		c.pinCache[pkg.Name] = common
	}
	return common
}

func (c *Cache) GetPin(v cupt.Version) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pins[versionKey(v.PackageName, v.VersionString)]
}

// GetSatisfyingVersions resolves rel's disjunction of terms into every
// binary version that satisfies one of them, directly or through a
// Provides entry (provided names always satisfy, regardless of the
// term's version constraint, matching Debian virtual-package
// semantics). Version comparisons are delegated to
// github.com/Masterminds/semver; a version string that doesn't parse
// as semver falls back to a lexicographic comparison.
func (c *Cache) GetSatisfyingVersions(rel cupt.RelationExpression) []*cupt.BinaryVersion {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]bool)
	var out []*cupt.BinaryVersion
	add := func(v *cupt.BinaryVersion) {
		key := versionKey(v.PackageName, v.VersionString)
		if !seen[key] {
			seen[key] = true
			out = append(out, v)
		}
	}

	for _, term := range rel {
		for _, v := range c.binary[term.PackageName] {
			if termMatches(term, v.VersionString) {
				add(v)
			}
		}
		for _, versions := range c.binary {
			for _, v := range versions {
				for _, provided := range v.Provides {
					if provided == term.PackageName {
						add(v)
					}
				}
			}
		}
	}
	return out
}

func (c *Cache) IsInstalled(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.installed[name]
}

func (c *Cache) IsAutomaticallyInstalled(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoInstalled[name]
}

func (c *Cache) NonRemovable(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonRemovable[name]
}

func (c *Cache) Memoize(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memoize = enabled
	if !enabled {
		c.pinCache = make(map[string][]cupt.Version)
	}
}

// GetDescriptions implements cupt.LocalizedInfo.
func (c *Cache) GetDescriptions(v *cupt.BinaryVersion) (short, long string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pair := c.descriptions[versionKey(v.PackageName, v.VersionString)]
	return pair[0], pair[1]
}

func termMatches(term cupt.RelationTerm, versionString string) bool {
	if term.Operator == cupt.OpAny {
		return true
	}
	cmp := compareVersions(versionString, term.Version)
	switch term.Operator {
	case cupt.OpLess:
		return cmp < 0
	case cupt.OpLessEqual:
		return cmp <= 0
	case cupt.OpEqual:
		return cmp == 0
	case cupt.OpGreaterEqual:
		return cmp >= 0
	case cupt.OpGreater:
		return cmp > 0
	default:
		return false
	}
}

// compareVersions orders two version strings using semver when both
// parse as such, falling back to a plain lexicographic comparison for
// the non-semver-shaped strings a real Debian archive carries
// (epochs, tilde-revisions). The fallback keeps this fixture usable
// for test data without requiring every version string to be valid
// semver.
func compareVersions(a, b string) int {
	av, aerr := semver.NewVersion(a)
	bv, berr := semver.NewVersion(b)
	if aerr == nil && berr == nil {
		return av.Compare(bv)
	}
	return strings.Compare(a, b)
}
