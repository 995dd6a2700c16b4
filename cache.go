package cupt

// PackageHandle is an opaque reference to a binary or source package
// name, as returned by PackageCache's lookups. It exists so callers don't
// need to pass bare strings around once a package has been resolved.
type PackageHandle struct {
	Name     string
	IsSource bool
}

// PackageCache is the narrow interface both the query engine and the
// native resolver read package and version data through. It is supplied
// wholesale by an external collaborator (an archive index reader); the
// core never mutates anything reached through it.
type PackageCache interface {
	// BinaryPackageNames and SourcePackageNames return every known
	// package name of that kind, in no particular guaranteed order.
	BinaryPackageNames() []string
	SourcePackageNames() []string

	// GetBinaryPackage and GetSourcePackage look up a package by name.
	GetBinaryPackage(name string) (PackageHandle, bool)
	GetSourcePackage(name string) (PackageHandle, bool)

	// GetBinaryVersions and GetSourceVersions return every known version
	// of a package, in no particular guaranteed order; queryengine sorts
	// them before use.
	GetBinaryVersions(name string) []*BinaryVersion
	GetSourceVersions(name string) []*SourceVersion

	// GetSortedPinnedVersions returns a package's versions ordered
	// best-first by pin priority (highest pin first).
	GetSortedPinnedVersions(pkg PackageHandle) []Version

	// GetPin returns the cache's pin priority for a version. Larger is
	// more preferred.
	GetPin(v Version) int

	// GetSatisfyingVersions resolves a relation expression into the list
	// of binary versions that satisfy it, including through Provides.
	GetSatisfyingVersions(rel RelationExpression) []*BinaryVersion

	// IsInstalled and IsAutomaticallyInstalled report a package's current
	// install state on the target system.
	IsInstalled(name string) bool
	IsAutomaticallyInstalled(name string) bool

	// NonRemovable reports whether a package must never be proposed for
	// removal (e.g. it is marked Essential, or policy pins it in place).
	NonRemovable(name string) bool

	// Memoize enables or disables caching of pinned-version lookups. The
	// resolver sets this true on entry to a solve; it is otherwise this
	// cache's own business how (or whether) it honors the hint.
	Memoize(enabled bool)
}

// LocalizedInfo supplies per-version descriptions for the
// version:description query predicate.
type LocalizedInfo interface {
	// GetDescriptions returns a binary version's short and long
	// description in the cache's configured locale.
	GetDescriptions(v *BinaryVersion) (short, long string)
}
