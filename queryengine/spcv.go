package queryengine

import (
	"sort"

	"github.com/jamessan/cupt"
)

// spcvLess implements the canonical total order every selector node's
// output is sorted by: package name ascending (see DESIGN.md), then
// cache pin descending (larger pin first), then version string
// ascending.
//
// Every list-merge and set operation in this package (sortVersions,
// mergeUnique, intersect, difference, symmetricDifference) assumes its
// inputs are already sorted by this order and free of duplicates.
func spcvLess(cache cupt.PackageCache, a, b cupt.AnyVersion) bool {
	ac, bc := a.Common(), b.Common()
	if ac.PackageName != bc.PackageName {
		return ac.PackageName < bc.PackageName
	}

	pa, pb := pinOf(cache, a), pinOf(cache, b)
	if pa != pb {
		return pa > pb
	}

	return ac.VersionString < bc.VersionString
}

func pinOf(cache cupt.PackageCache, v cupt.AnyVersion) int {
	return cache.GetPin(*v.Common())
}

// sortVersions returns a freshly sorted, deduplicated-by-identity copy of
// vs. It never mutates its argument.
func sortVersions(cache cupt.PackageCache, vs []cupt.AnyVersion) []cupt.AnyVersion {
	out := make([]cupt.AnyVersion, len(vs))
	copy(out, vs)
	sort.SliceStable(out, func(i, j int) bool {
		return spcvLess(cache, out[i], out[j])
	})
	return dedupAdjacent(out)
}

func dedupAdjacent(vs []cupt.AnyVersion) []cupt.AnyVersion {
	if len(vs) == 0 {
		return vs
	}
	out := vs[:1]
	for _, v := range vs[1:] {
		if out[len(out)-1] != v {
			out = append(out, v)
		}
	}
	return out
}

// mergeUnique merges two spcv-sorted, deduplicated sequences into one
// spcv-sorted, deduplicated sequence. This is Or's semantics.
func mergeUnique(cache cupt.PackageCache, a, b []cupt.AnyVersion) []cupt.AnyVersion {
	out := make([]cupt.AnyVersion, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case spcvLess(cache, a[i], b[j]):
			out = append(out, a[i])
			i++
		default:
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// intersect returns the elements present in both a and b, in spcv order.
func intersect(cache cupt.PackageCache, a, b []cupt.AnyVersion) []cupt.AnyVersion {
	out := make([]cupt.AnyVersion, 0)
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case spcvLess(cache, a[i], b[j]):
			i++
		default:
			j++
		}
	}
	return out
}

// difference returns the elements of a that are not present in b, i.e.
// a \ b. This is Not's semantics.
func difference(cache cupt.PackageCache, a, b []cupt.AnyVersion) []cupt.AnyVersion {
	out := make([]cupt.AnyVersion, 0, len(a))
	i, j := 0, 0
	for i < len(a) {
		if j >= len(b) {
			out = append(out, a[i:]...)
			break
		}
		switch {
		case a[i] == b[j]:
			i++
			j++
		case spcvLess(cache, a[i], b[j]):
			out = append(out, a[i])
			i++
		default:
			j++
		}
	}
	return out
}

// symmetricDifference implements Xor: (a ∪ b) \ (a ∩ b).
func symmetricDifference(cache cupt.PackageCache, a, b []cupt.AnyVersion) []cupt.AnyVersion {
	out := make([]cupt.AnyVersion, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			i++
			j++
		case spcvLess(cache, a[i], b[j]):
			out = append(out, a[i])
			i++
		default:
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// best collapses a spcv-sorted sequence to its first occurrence per
// package name. Because the sequence is already ordered best-first within
// a package by the pin sort, the first occurrence IS the best one.
func best(vs []cupt.AnyVersion) []cupt.AnyVersion {
	out := make([]cupt.AnyVersion, 0, len(vs))
	seen := make(map[string]bool, len(vs))
	for _, v := range vs {
		name := v.Common().PackageName
		if !seen[name] {
			seen[name] = true
			out = append(out, v)
		}
	}
	return out
}
