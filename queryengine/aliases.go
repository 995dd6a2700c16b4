package queryengine

// simpleAliases rewrites a short function name to its canonical,
// full-length form before dispatch; the argument list is untouched.
var simpleAliases = map[string]string{
	"p:n":  "package:name",
	"p:i":  "package:installed",
	"p:ai": "package:automatically-installed",

	"v:v":  "version:version",
	"v:m":  "version:maintainer",
	"v:p":  "version:priority",
	"v:s":  "version:section",
	"v:t":  "version:trusted",
	"v:f":  "version:field",
	"v:sp": "version:source-package",
	"v:sv": "version:source-version",
	"v:e":  "version:essential",
	"v:i":  "version:installed",

	"vr:pd": "pre-depends",
	"vr:d":  "depends",
	"vr:r":  "recommends",
	"vr:s":  "suggests",
	"vr:e":  "enhances",
	"vr:c":  "conflicts",
	"vr:b":  "breaks",
	"vr:rp": "replaces",

	// r:o/r:u: positional mapping of the alias list onto its
	// release-predicate prose list (archive|codename|component|version|
	// vendor|origin). release:origin is a synonym of release:vendor in
	// this implementation (see DESIGN.md).
	"r:a": "release:archive",
	"r:n": "release:codename",
	"r:c": "release:component",
	"r:v": "release:version",
	"r:o": "release:vendor",
	"r:u": "release:origin",
}

// compositeAlias is the name of the one sugar alias that expands to a
// templated sub-query rather than a bare rename.
const compositeAlias = "package-with-dependencies"
