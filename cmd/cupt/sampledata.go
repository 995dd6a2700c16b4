package main

import (
	"github.com/jamessan/cupt"
	"github.com/jamessan/cupt/internal/memcache"
)

// sampleCache builds a tiny in-memory archive standing in for a real
// index, just large enough to exercise both the query language and the
// resolver from the command line.
func sampleCache() *memcache.Cache {
	c := memcache.New()

	archiveSrc := cupt.Source{Release: cupt.Release{Archive: "stable", Codename: "sample", Component: "main", BaseURI: "http://example.invalid/debian"}}
	installedSrc := cupt.Source{Release: cupt.Release{Archive: "now", Vendor: "local"}}

	addBinary := func(name, version string, priority cupt.Priority, installed bool, deps ...string) *cupt.BinaryVersion {
		var rels []cupt.RelationExpression
		for _, d := range deps {
			rels = append(rels, cupt.RelationExpression{{PackageName: d}})
		}
		sources := []cupt.Source{archiveSrc}
		if installed {
			sources = []cupt.Source{installedSrc, archiveSrc}
		}
		v := &cupt.BinaryVersion{
			Version: cupt.Version{
				PackageName:   name,
				VersionString: version,
				Priority:      priority,
				Sources:       sources,
			},
			Architecture: "amd64",
			Relations:    map[cupt.RelationKind][]cupt.RelationExpression{cupt.Depends: rels},
		}
		c.AddBinary(v)
		return v
	}

	addBinary("a", "1.0", cupt.Optional, false, "b")
	addBinary("b", "1.0", cupt.Optional, false, "c")
	addBinary("c", "1.0", cupt.Optional, true)
	addBinary("libfoo", "2.3", cupt.Standard, true)

	c.MarkInstalled("c")
	c.MarkInstalled("libfoo")
	c.MarkAutomaticallyInstalled("libfoo")
	c.SetDescriptions("libfoo", "2.3", "a sample library", "a sample library used for demonstration purposes")

	return c
}
