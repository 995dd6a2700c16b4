package queryengine_test

import (
	"strings"
	"testing"

	"github.com/jamessan/cupt/internal/memcache"
	"github.com/jamessan/cupt/queryengine"
)

func TestParseErrors(t *testing.T) {
	cache := memcache.New()
	p := queryengine.NewParser(cache)

	cases := []struct {
		name  string
		query string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"unmatched close paren", "package:installed)"},
		{"missing close paren", "package:installed("},
		{"unknown function", "no:such:function"},
		{"wrong arg count", "package:name()"},
		{"bad regex", "package:name(/[/)"},
		{"unterminated quote", "package:name(/abc)"},
		{"not two args", "xor(package:installed)"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := p.Parse(c.query); err == nil {
				t.Errorf("Parse(%q): expected an error, got nil", c.query)
			}
		})
	}
}

func TestParseAccepts(t *testing.T) {
	cache := memcache.New()
	p := queryengine.NewParser(cache)

	cases := []string{
		"package:installed",
		"package:name(/^lib/)",
		"and(package:installed, version:priority(/required/))",
		"or(package:installed, package:automatically-installed)",
		"not(package:installed)",
		"xor(package:installed, package:automatically-installed)",
		"best(package:name(/.*/))",
		"with(_x, package:installed, _x)",
		"recursive(_x, package:installed, _x)",
		"depends(package:installed)",
		"version:field(section, /./)",
		"package-with-dependencies(vim)",
	}

	for _, query := range cases {
		t.Run(query, func(t *testing.T) {
			if _, err := p.Parse(query); err != nil {
				t.Errorf("Parse(%q): unexpected error: %v", query, err)
			}
		})
	}
}

func TestParseExtractVarRequiresUnderscore(t *testing.T) {
	cache := memcache.New()
	p := queryengine.NewParser(cache)
	if _, err := p.Parse("with(x, package:installed, x)"); err == nil {
		t.Errorf("expected an error for a variable name missing its leading underscore")
	}
}

// splitTopLevel is exercised indirectly through Parse; this checks that
// a quoted regex containing a comma is never split as an argument
// separator.
func TestParseKeepsQuotedCommaIntact(t *testing.T) {
	cache := memcache.New()
	p := queryengine.NewParser(cache)
	node, err := p.Parse("package:name(/a,b/)")
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	if node == nil {
		t.Fatalf("Parse: expected a non-nil node")
	}
}

func TestParseDescriptionWithoutLocalizedInfoPanics(t *testing.T) {
	p := queryengine.NewParser(nil)
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected a panic when version:description is parsed without a LocalizedInfo")
		} else if !strings.Contains(fmtRecover(r), "LocalizedInfo") {
			t.Fatalf("expected panic message to mention LocalizedInfo, got %v", r)
		}
	}()
	p.Parse("version:description(/anything/)")
}

func fmtRecover(r interface{}) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return ""
}
