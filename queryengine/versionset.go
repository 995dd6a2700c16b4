package queryengine

import (
	"regexp"

	"github.com/jamessan/cupt"
)

// universe holds the whole-cache version list for one kind (binary or
// source), computed at most once per top-level Select call. It is a
// lazily-initialised, single-assignment field shared by every VersionSet
// produced while evaluating one query tree — the Design Notes' "Memoised
// getter in QE".
type universe struct {
	cache   cupt.PackageCache
	binary  []cupt.AnyVersion
	source  []cupt.AnyVersion
	haveBin bool
	haveSrc bool
}

func (u *universe) binaryVersions() []cupt.AnyVersion {
	if !u.haveBin {
		var all []cupt.AnyVersion
		for _, name := range u.cache.BinaryPackageNames() {
			for _, v := range u.cache.GetBinaryVersions(name) {
				all = append(all, v)
			}
		}
		u.binary = sortVersions(u.cache, all)
		u.haveBin = true
	}
	return u.binary
}

func (u *universe) sourceVersions() []cupt.AnyVersion {
	if !u.haveSrc {
		var all []cupt.AnyVersion
		for _, name := range u.cache.SourcePackageNames() {
			for _, v := range u.cache.GetSourceVersions(name) {
				all = append(all, v)
			}
		}
		u.source = sortVersions(u.cache, all)
		u.haveSrc = true
	}
	return u.source
}

// VersionSet is an optionally filtered ordered sequence of versions
// plus a set of named variables. When unfiltered, evaluation reads the
// whole universe through the cache; when filtered, evaluation reads
// the stored sequence.
type VersionSet struct {
	u        *universe
	filtered bool
	seq      []cupt.AnyVersion
	vars     map[string][]cupt.AnyVersion
	binary   bool
}

// NewBinaryVersionSet returns the root, unfiltered VersionSet for a
// binary-universe query (the default universe unless wrapped in
// BinaryTag's sibling "source universe" selection, which this
// implementation exposes via NewSourceVersionSet for completeness).
// Description matching reads LocalizedInfo through the parser-bound
// descriptionNode rather than through the VersionSet.
func NewBinaryVersionSet(cache cupt.PackageCache) *VersionSet {
	return &VersionSet{u: &universe{cache: cache}, binary: true}
}

// NewSourceVersionSet returns the root, unfiltered VersionSet for a
// source-universe query.
func NewSourceVersionSet(cache cupt.PackageCache) *VersionSet {
	return &VersionSet{u: &universe{cache: cache}, binary: false}
}

func (vs *VersionSet) cache() cupt.PackageCache { return vs.u.cache }

func (vs *VersionSet) universeVersions() []cupt.AnyVersion {
	if vs.binary {
		return vs.u.binaryVersions()
	}
	return vs.u.sourceVersions()
}

// Filtered reports whether this set carries a stored sequence rather than
// reading straight through to the universe.
func (vs *VersionSet) Filtered() bool { return vs.filtered }

// Sequence returns the stored sequence (only meaningful if Filtered()).
func (vs *VersionSet) Sequence() []cupt.AnyVersion { return vs.seq }

// getUnfiltered yields a fresh VersionSet referencing the same universe
// and variables but without the stored sequence: this guarantees
// variable definitions and transforms see the full universe regardless
// of the surrounding filter chain.
func (vs *VersionSet) getUnfiltered() *VersionSet {
	return &VersionSet{u: vs.u, vars: vs.vars, binary: vs.binary}
}

// withSequence returns a filtered VersionSet carrying seq, preserving
// this set's universe, variables, and binary/source mode.
func (vs *VersionSet) withSequence(seq []cupt.AnyVersion) *VersionSet {
	return &VersionSet{u: vs.u, filtered: true, seq: seq, vars: vs.vars, binary: vs.binary}
}

// withVar returns a copy of vs with name bound to value, leaving vs
// itself untouched (copy-on-write, so sibling branches of a query tree
// never see each other's bindings).
func (vs *VersionSet) withVar(name string, value []cupt.AnyVersion) *VersionSet {
	nv := make(map[string][]cupt.AnyVersion, len(vs.vars)+1)
	for k, v := range vs.vars {
		nv[k] = v
	}
	nv[name] = value
	return &VersionSet{u: vs.u, filtered: vs.filtered, seq: vs.seq, vars: nv, binary: vs.binary}
}

// get returns this set's full contents, ignoring regex: if filtered, the
// stored sequence; if unfiltered, the whole universe.
func (vs *VersionSet) get() []cupt.AnyVersion {
	if vs.filtered {
		return vs.seq
	}
	return vs.universeVersions()
}

// getMatching returns this set's contents filtered by a package-name
// regex: a filtered set forwards to regex-matching within the stored
// sequence, an unfiltered one delegates to the universe.
func (vs *VersionSet) getMatching(r *regexp.Regexp) []cupt.AnyVersion {
	base := vs.get()
	out := make([]cupt.AnyVersion, 0, len(base))
	for _, v := range base {
		if r.MatchString(v.Common().PackageName) {
			out = append(out, v)
		}
	}
	return out
}

// lookupVar returns the sequence bound to name, and whether it was bound
// at all.
func (vs *VersionSet) lookupVar(name string) ([]cupt.AnyVersion, bool) {
	v, ok := vs.vars[name]
	return v, ok
}
