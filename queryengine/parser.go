// Package queryengine implements a function-selector query language: a
// compact prefix functional notation that parses to a tree of Nodes
// and evaluates against a cupt.PackageCache to produce an ordered
// sequence of versions.
package queryengine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jamessan/cupt"
	"github.com/jamessan/cupt/log"
)

// Parser turns query text into a Node tree. A Parser carries its own
// anonymous-variable counter rather than a process-wide global, since
// the core is single-threaded per query evaluation but multiple
// Parsers may exist concurrently across sessions, so construct one per
// top-level Parse call, or reuse one across calls that should share
// numbering within a session.
type Parser struct {
	info        cupt.LocalizedInfo
	anonCounter int

	// Logger receives a trace line per recursive parseString call when
	// set; a nil Logger (the default) makes Tracef a no-op, so callers
	// that never ask for -v pay nothing for it.
	Logger *log.Logger
}

// NewParser returns a Parser. info may be nil if version:description
// will never be used; parsing that predicate with a nil info panics
// via an InvariantViolation rather than silently mismatching everything.
func NewParser(info cupt.LocalizedInfo) *Parser {
	return &Parser{info: info}
}

// Parse parses a complete query string into a selector Node.
func (p *Parser) Parse(query string) (Node, error) {
	return p.parseString(query)
}

func (p *Parser) parseString(query string) (Node, error) {
	p.Logger.Tracef("parsing %q", query)
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, parseErrorf(query, query, "empty query")
	}

	idx := strings.IndexAny(trimmed, "()")
	var name, argsBody string
	hasArgs := false

	switch {
	case idx == -1:
		name = trimmed
	case trimmed[idx] == ')':
		return nil, parseErrorf(query, trimmed, "unmatched ')'")
	default:
		if trimmed[len(trimmed)-1] != ')' {
			return nil, parseErrorf(query, trimmed, "expected query to end with ')'")
		}
		name = trimmed[:idx]
		argsBody = trimmed[idx+1 : len(trimmed)-1]
		hasArgs = true
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, parseErrorf(query, trimmed, "empty function name")
	}

	var rawArgs []string
	if hasArgs && strings.TrimSpace(argsBody) != "" {
		split, err := splitTopLevel(argsBody)
		if err != nil {
			return nil, parseErrorf(query, argsBody, err.Error())
		}
		rawArgs = make([]string, len(split))
		for i, a := range split {
			rawArgs[i] = stripArg(a)
		}
	}

	if strings.HasPrefix(name, "_") {
		return newExtractVar(strings.TrimPrefix(name, "_")), nil
	}

	if name == compositeAlias {
		return p.expandPackageWithDependencies(query, rawArgs)
	}

	canonical := name
	if alias, ok := simpleAliases[name]; ok {
		canonical = alias
	}

	b, ok := dispatchTable[canonical]
	if !ok {
		return nil, parseErrorf(query, name, "unknown function %q", name)
	}
	return b(p, query, rawArgs)
}

// expandPackageWithDependencies implements the one composite alias:
// package-with-dependencies(X) expands to a recursive closure over
// pre-depends/depends/recommends, restricted to installed versions, using
// a parser-session-local anonymous variable name.
func (p *Parser) expandPackageWithDependencies(query string, args []string) (Node, error) {
	if len(args) != 1 {
		return nil, parseErrorf(query, compositeAlias, "package-with-dependencies expects exactly 1 argument, got %d", len(args))
	}
	v := fmt.Sprintf("__anon%d", p.anonCounter)
	p.anonCounter++

	// args[0] is a bare package name, not a sub-query, so it must be
	// wrapped in an exact-match package:name before it can stand as
	// recursive's init argument.
	init := fmt.Sprintf("package:name(/^%s$/)", regexp.QuoteMeta(args[0]))
	expansion := fmt.Sprintf(
		"recursive(%s, %s, best(and(or(vr:pd(%s), vr:d(%s), vr:r(%s)), package:installed)))",
		v, init, v, v, v,
	)
	return p.parseString(expansion)
}

// splitTopLevel splits s on commas that are neither inside nested
// brackets nor inside a /…/ quoted region.
func splitTopLevel(s string) ([]string, error) {
	var args []string
	depth := 0
	inQuote := false
	start := 0

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inQuote {
			if c == '/' {
				inQuote = false
			}
			continue
		}
		switch c {
		case '/':
			inQuote = true
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, s[start:i])
				start = i + 1
			}
		}
	}

	if inQuote {
		return nil, fmt.Errorf("no closing /")
	}
	if depth != 0 {
		return nil, fmt.Errorf("unmatched brackets")
	}

	args = append(args, s[start:])
	return args, nil
}

// stripArg strips leading/trailing whitespace and newlines, then
// strips exactly one matched pair of wrapping '/' quote characters.
func stripArg(s string) string {
	s = strings.Trim(s, " \t\r\n")
	if len(s) >= 2 && s[0] == '/' && s[len(s)-1] == '/' {
		s = s[1 : len(s)-1]
	}
	return s
}

func compileRegex(query, pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, parseErrorf(query, pattern, "regular expression '%s' is not valid", pattern)
	}
	return re, nil
}

func requireArgs(query, name string, args []string, n int) error {
	if len(args) != n {
		return parseErrorf(query, name, "%s expects %d argument(s), got %d", name, n, len(args))
	}
	return nil
}

func requireMinArgs(query, name string, args []string, n int) error {
	if len(args) < n {
		return parseErrorf(query, name, "%s expects at least %d argument(s), got %d", name, n, len(args))
	}
	return nil
}

// builder constructs a Node from a function's raw argument strings; it
// decides for itself (per function) whether each argument is a literal
// (regex, field name, variable name) or a sub-query to recursively parse.
type builder func(p *Parser, query string, args []string) (Node, error)

var dispatchTable map[string]builder

func init() {
	dispatchTable = map[string]builder{
		"package:name":                     buildPackageName,
		"package:installed":                buildBoolAttr(packageInstalledAttr),
		"package:automatically-installed":  buildBoolAttr(packageAutoInstalledAttr),

		"version:version":        buildFieldRegex(versionField),
		"version:maintainer":     buildFieldRegex(maintainerField),
		"version:priority":       buildFieldRegex(priorityField),
		"version:section":        buildFieldRegex(sectionField),
		"version:source-package": buildFieldRegex(sourcePackageField),
		"version:source-version": buildFieldRegex(sourceVersionField),
		"version:trusted":        buildBoolAttr(trustedAttr),
		"version:essential":      buildBoolAttr(essentialAttr),
		"version:installed":      buildBoolAttr(installedAttr),
		"version:field":          buildGenericFieldRegex,
		"version:description":    buildDescription,

		"release:archive":   buildSourceFieldRegex(releaseArchiveField),
		"release:codename":  buildSourceFieldRegex(releaseCodenameField),
		"release:component": buildSourceFieldRegex(releaseComponentField),
		"release:version":   buildSourceFieldRegex(releaseVersionField),
		"release:vendor":    buildSourceFieldRegex(releaseVendorField),
		"release:origin":    buildSourceFieldRegex(releaseVendorField),

		"and":  buildAnd,
		"or":   buildOr,
		"not":  buildNot,
		"xor":  buildXor,
		"best": buildBest,
		"with": buildWith,
		"recursive": buildRecursive,
		"binary":    buildBinaryTag,

		"pre-depends": buildDependencyTransform(cupt.PreDepends),
		"depends":     buildDependencyTransform(cupt.Depends),
		"recommends":  buildDependencyTransform(cupt.Recommends),
		"suggests":    buildDependencyTransform(cupt.Suggests),
		"enhances":    buildDependencyTransform(cupt.Enhances),
		"conflicts":   buildDependencyTransform(cupt.Conflicts),
		"breaks":      buildDependencyTransform(cupt.Breaks),
		"replaces":    buildDependencyTransform(cupt.Replaces),
	}
}

func buildPackageName(p *Parser, query string, args []string) (Node, error) {
	if err := requireArgs(query, "package:name", args, 1); err != nil {
		return nil, err
	}
	re, err := compileRegex(query, args[0])
	if err != nil {
		return nil, err
	}
	return newPackageName(re), nil
}

func buildBoolAttr(pred boolPredicate) builder {
	return func(p *Parser, query string, args []string) (Node, error) {
		if err := requireArgs(query, "bool-attr", args, 0); err != nil {
			return nil, err
		}
		return newBoolAttr(pred), nil
	}
}

func buildFieldRegex(get fieldGetter) builder {
	return func(p *Parser, query string, args []string) (Node, error) {
		if err := requireArgs(query, "field-regex", args, 1); err != nil {
			return nil, err
		}
		re, err := compileRegex(query, args[0])
		if err != nil {
			return nil, err
		}
		return newFieldRegex(get, re), nil
	}
}

func buildGenericFieldRegex(p *Parser, query string, args []string) (Node, error) {
	if err := requireArgs(query, "version:field", args, 2); err != nil {
		return nil, err
	}
	re, err := compileRegex(query, args[1])
	if err != nil {
		return nil, err
	}
	return newFieldRegex(genericField(args[0]), re), nil
}

func buildDescription(p *Parser, query string, args []string) (Node, error) {
	if err := requireArgs(query, "version:description", args, 1); err != nil {
		return nil, err
	}
	re, err := compileRegex(query, args[0])
	if err != nil {
		return nil, err
	}
	if p.info == nil {
		cupt.Panic("version:description used but no LocalizedInfo was provided to the parser")
	}
	return newDescription(p.info, re), nil
}

func buildSourceFieldRegex(get sourceFieldGetter) builder {
	return func(p *Parser, query string, args []string) (Node, error) {
		if err := requireArgs(query, "release-field", args, 1); err != nil {
			return nil, err
		}
		re, err := compileRegex(query, args[0])
		if err != nil {
			return nil, err
		}
		return newSourceFieldRegex(get, re), nil
	}
}

func buildAnd(p *Parser, query string, args []string) (Node, error) {
	nodes, err := p.parseEach(args)
	if err != nil {
		return nil, err
	}
	return newAnd(nodes), nil
}

func buildOr(p *Parser, query string, args []string) (Node, error) {
	nodes, err := p.parseEach(args)
	if err != nil {
		return nil, err
	}
	return newOr(nodes), nil
}

func buildNot(p *Parser, query string, args []string) (Node, error) {
	if err := requireArgs(query, "not", args, 1); err != nil {
		return nil, err
	}
	child, err := p.parseString(args[0])
	if err != nil {
		return nil, err
	}
	return newNot(child), nil
}

func buildXor(p *Parser, query string, args []string) (Node, error) {
	if err := requireArgs(query, "xor", args, 2); err != nil {
		return nil, err
	}
	a, err := p.parseString(args[0])
	if err != nil {
		return nil, err
	}
	b, err := p.parseString(args[1])
	if err != nil {
		return nil, err
	}
	return newXor(a, b), nil
}

func buildBest(p *Parser, query string, args []string) (Node, error) {
	if err := requireArgs(query, "best", args, 1); err != nil {
		return nil, err
	}
	child, err := p.parseString(args[0])
	if err != nil {
		return nil, err
	}
	return newBest(child), nil
}

func buildBinaryTag(p *Parser, query string, args []string) (Node, error) {
	if err := requireArgs(query, "binary", args, 1); err != nil {
		return nil, err
	}
	child, err := p.parseString(args[0])
	if err != nil {
		return nil, err
	}
	return newBinaryTag(child), nil
}

func buildWith(p *Parser, query string, args []string) (Node, error) {
	if err := requireArgs(query, "with", args, 3); err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(strings.TrimSpace(args[0]), "_")
	if name == "" {
		return nil, parseErrorf(query, "with", "with's first argument must be a variable name")
	}
	value, err := p.parseString(args[1])
	if err != nil {
		return nil, err
	}
	body, err := p.parseString(args[2])
	if err != nil {
		return nil, err
	}
	return newDefineVar(name, value, body), nil
}

func buildRecursive(p *Parser, query string, args []string) (Node, error) {
	if err := requireArgs(query, "recursive", args, 3); err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(strings.TrimSpace(args[0]), "_")
	if name == "" {
		return nil, parseErrorf(query, "recursive", "recursive's first argument must be a variable name")
	}
	init, err := p.parseString(args[1])
	if err != nil {
		return nil, err
	}
	iter, err := p.parseString(args[2])
	if err != nil {
		return nil, err
	}
	return newRecursive(name, init, iter), nil
}

func buildDependencyTransform(kind cupt.RelationKind) builder {
	return func(p *Parser, query string, args []string) (Node, error) {
		if err := requireArgs(query, kind.String(), args, 1); err != nil {
			return nil, err
		}
		child, err := p.parseString(args[0])
		if err != nil {
			return nil, err
		}
		return newDependencyTransform(kind, child), nil
	}
}

func (p *Parser) parseEach(args []string) ([]Node, error) {
	nodes := make([]Node, len(args))
	for i, a := range args {
		n, err := p.parseString(a)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	return nodes, nil
}
