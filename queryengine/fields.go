package queryengine

import "github.com/jamessan/cupt"

// Named field getters backing version:field(name, re) and the fixed
// version:* predicates. Unknown names in version:field simply never
// match (ok=false), rather than erroring — this query language has no
// notion of a schema violation for an arbitrary field name.
var namedFieldGetters = map[string]fieldGetter{
	"version":         versionField,
	"maintainer":      maintainerField,
	"priority":        priorityField,
	"section":         sectionField,
	"source-package":  sourcePackageField,
	"source-version":  sourceVersionField,
}

func versionField(v cupt.AnyVersion) (string, bool) {
	return v.Common().VersionString, true
}

func maintainerField(v cupt.AnyVersion) (string, bool) {
	return v.Common().Maintainer, true
}

func priorityField(v cupt.AnyVersion) (string, bool) {
	return v.Common().Priority.String(), true
}

func sectionField(v cupt.AnyVersion) (string, bool) {
	return v.Common().Section, true
}

func sourcePackageField(v cupt.AnyVersion) (string, bool) {
	bv, ok := v.(*cupt.BinaryVersion)
	if !ok {
		return "", false
	}
	return bv.SourcePackage, true
}

func sourceVersionField(v cupt.AnyVersion) (string, bool) {
	bv, ok := v.(*cupt.BinaryVersion)
	if !ok {
		return "", false
	}
	return bv.SourceVersion, true
}

// genericField resolves version:field(name, re): look up name in the
// fixed registry, falling back to "never matches" for names this
// simplified data model doesn't carry.
func genericField(name string) fieldGetter {
	if g, ok := namedFieldGetters[name]; ok {
		return g
	}
	return func(cupt.AnyVersion) (string, bool) { return "", false }
}

func essentialAttr(_ cupt.PackageCache, v cupt.AnyVersion) bool {
	bv, ok := v.(*cupt.BinaryVersion)
	return ok && bv.Essential
}

func trustedAttr(_ cupt.PackageCache, v cupt.AnyVersion) bool {
	return v.Common().Trusted
}

func installedAttr(_ cupt.PackageCache, v cupt.AnyVersion) bool {
	bv, ok := v.(*cupt.BinaryVersion)
	return ok && bv.IsInstalled()
}

func packageInstalledAttr(cache cupt.PackageCache, v cupt.AnyVersion) bool {
	return cache.IsInstalled(v.Common().PackageName)
}

func packageAutoInstalledAttr(cache cupt.PackageCache, v cupt.AnyVersion) bool {
	return cache.IsAutomaticallyInstalled(v.Common().PackageName)
}

func releaseArchiveField(s cupt.Source) string  { return s.Release.Archive }
func releaseCodenameField(s cupt.Source) string { return s.Release.Codename }
func releaseComponentField(s cupt.Source) string { return s.Release.Component }
func releaseVersionField(s cupt.Source) string  { return s.Release.Version }
func releaseVendorField(s cupt.Source) string   { return s.Release.Vendor }
