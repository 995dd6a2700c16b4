package queryengine

import (
	"regexp"

	"github.com/jamessan/cupt"
)

// Node is a selector node: a pure function from a VersionSet to an
// ordered, spcv-sorted sequence of versions. Every constructor in this
// file corresponds to one case of the selector-node variant; Go
// represents the variant as an interface with one implementing struct
// per case, rather than a class hierarchy.
type Node interface {
	Select(vs *VersionSet) ([]cupt.AnyVersion, error)
}

// --- PackageName ---

type packageNameNode struct{ re *regexp.Regexp }

func newPackageName(re *regexp.Regexp) Node { return &packageNameNode{re: re} }

func (n *packageNameNode) Select(vs *VersionSet) ([]cupt.AnyVersion, error) {
	return vs.getMatching(n.re), nil
}

// --- FieldRegex ---

// fieldGetter extracts a textual field from a version. ok is false when
// the field doesn't apply to this version's concrete kind (e.g. a
// source-package field asked of a SourceVersion); such versions simply
// fail the match rather than erroring.
type fieldGetter func(v cupt.AnyVersion) (value string, ok bool)

type fieldRegexNode struct {
	get fieldGetter
	re  *regexp.Regexp
}

func newFieldRegex(get fieldGetter, re *regexp.Regexp) Node {
	return &fieldRegexNode{get: get, re: re}
}

func (n *fieldRegexNode) Select(vs *VersionSet) ([]cupt.AnyVersion, error) {
	base := vs.get()
	out := make([]cupt.AnyVersion, 0, len(base))
	for _, v := range base {
		if val, ok := n.get(v); ok && n.re.MatchString(val) {
			out = append(out, v)
		}
	}
	return out, nil
}

// --- version:description ---

// descriptionNode implements version:description(re): matched against a
// binary version's short description first, falling back to the long
// description, per functionselectors.cpp's descriptionMatcher. A
// SourceVersion never matches: description is a binary-only concept
// supplied by LocalizedInfo.
type descriptionNode struct {
	info cupt.LocalizedInfo
	re   *regexp.Regexp
}

func newDescription(info cupt.LocalizedInfo, re *regexp.Regexp) Node {
	return &descriptionNode{info: info, re: re}
}

func (n *descriptionNode) Select(vs *VersionSet) ([]cupt.AnyVersion, error) {
	base := vs.get()
	out := make([]cupt.AnyVersion, 0, len(base))
	for _, v := range base {
		bv, ok := v.(*cupt.BinaryVersion)
		if !ok {
			continue
		}
		short, long := n.info.GetDescriptions(bv)
		if n.re.MatchString(short) || n.re.MatchString(long) {
			out = append(out, v)
		}
	}
	return out, nil
}

// --- SourceFieldRegex ---

type sourceFieldGetter func(s cupt.Source) string

type sourceFieldRegexNode struct {
	get sourceFieldGetter
	re  *regexp.Regexp
}

func newSourceFieldRegex(get sourceFieldGetter, re *regexp.Regexp) Node {
	return &sourceFieldRegexNode{get: get, re: re}
}

func (n *sourceFieldRegexNode) Select(vs *VersionSet) ([]cupt.AnyVersion, error) {
	base := vs.get()
	out := make([]cupt.AnyVersion, 0, len(base))
	for _, v := range base {
		for _, src := range v.Common().Sources {
			if n.re.MatchString(n.get(src)) {
				out = append(out, v)
				break
			}
		}
	}
	return out, nil
}

// --- BoolAttr ---

// boolPredicate receives the evaluating cache so predicates that need it
// (package:installed, package:automatically-installed) don't need one
// bound at parse time, when no cache is available yet.
type boolPredicate func(cache cupt.PackageCache, v cupt.AnyVersion) bool

type boolAttrNode struct{ pred boolPredicate }

func newBoolAttr(pred boolPredicate) Node { return &boolAttrNode{pred: pred} }

func (n *boolAttrNode) Select(vs *VersionSet) ([]cupt.AnyVersion, error) {
	base := vs.get()
	out := make([]cupt.AnyVersion, 0, len(base))
	for _, v := range base {
		if n.pred(vs.cache(), v) {
			out = append(out, v)
		}
	}
	return out, nil
}

// --- And ---

type andNode struct{ children []Node }

func newAnd(children []Node) Node { return &andNode{children: children} }

func (n *andNode) Select(vs *VersionSet) ([]cupt.AnyVersion, error) {
	if len(n.children) == 0 {
		return vs.get(), nil
	}
	acc, err := n.children[0].Select(vs)
	if err != nil {
		return nil, err
	}
	for _, c := range n.children[1:] {
		acc, err = c.Select(vs.withSequence(acc))
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// --- Or ---

type orNode struct{ children []Node }

func newOr(children []Node) Node { return &orNode{children: children} }

func (n *orNode) Select(vs *VersionSet) ([]cupt.AnyVersion, error) {
	var acc []cupt.AnyVersion
	for i, c := range n.children {
		r, err := c.Select(vs)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			acc = r
			continue
		}
		acc = mergeUnique(vs.cache(), acc, r)
	}
	return acc, nil
}

// --- Not ---

type notNode struct{ child Node }

func newNot(child Node) Node { return &notNode{child: child} }

func (n *notNode) Select(vs *VersionSet) ([]cupt.AnyVersion, error) {
	sub, err := n.child.Select(vs)
	if err != nil {
		return nil, err
	}
	return difference(vs.cache(), vs.get(), sub), nil
}

// --- Xor ---

type xorNode struct{ a, b Node }

func newXor(a, b Node) Node { return &xorNode{a: a, b: b} }

func (n *xorNode) Select(vs *VersionSet) ([]cupt.AnyVersion, error) {
	ra, err := n.a.Select(vs)
	if err != nil {
		return nil, err
	}
	rb, err := n.b.Select(vs)
	if err != nil {
		return nil, err
	}
	return symmetricDifference(vs.cache(), ra, rb), nil
}

// --- Best ---

type bestNode struct{ child Node }

func newBest(child Node) Node { return &bestNode{child: child} }

func (n *bestNode) Select(vs *VersionSet) ([]cupt.AnyVersion, error) {
	r, err := n.child.Select(vs)
	if err != nil {
		return nil, err
	}
	return best(r), nil
}

// --- DefineVar (with) ---

type defineVarNode struct {
	name  string
	value Node
	body  Node
}

func newDefineVar(name string, value, body Node) Node {
	return &defineVarNode{name: name, value: value, body: body}
}

func (n *defineVarNode) Select(vs *VersionSet) ([]cupt.AnyVersion, error) {
	val, err := n.value.Select(vs.getUnfiltered())
	if err != nil {
		return nil, err
	}
	return n.body.Select(vs.withVar(n.name, val))
}

// --- ExtractVar ---

type extractVarNode struct{ name string }

func newExtractVar(name string) Node { return &extractVarNode{name: name} }

func (n *extractVarNode) Select(vs *VersionSet) ([]cupt.AnyVersion, error) {
	val, ok := vs.lookupVar(n.name)
	if !ok {
		return nil, &UndefinedVariableError{Name: n.name}
	}
	if vs.Filtered() {
		return intersect(vs.cache(), val, vs.Sequence()), nil
	}
	return val, nil
}

// --- Recursive ---

type recursiveNode struct {
	name string
	init Node
	iter Node
}

func newRecursive(name string, init, iter Node) Node {
	return &recursiveNode{name: name, init: init, iter: iter}
}

func (n *recursiveNode) Select(vs *VersionSet) ([]cupt.AnyVersion, error) {
	unfiltered := vs.getUnfiltered()
	result, err := n.init.Select(unfiltered)
	if err != nil {
		return nil, err
	}
	result = sortVersions(vs.cache(), result)

	for {
		next, err := n.iter.Select(unfiltered.withVar(n.name, result))
		if err != nil {
			return nil, err
		}
		merged := mergeUnique(vs.cache(), result, next)
		if len(merged) == len(result) {
			break
		}
		result = merged
	}

	if vs.Filtered() {
		return intersect(vs.cache(), result, vs.Sequence()), nil
	}
	return result, nil
}

// --- Transform ---

// transformFunc maps one version to zero or more versions it transforms
// to (e.g. a dependency transform's "versions satisfying this relation").
// It receives the evaluating cache so constructors don't need one bound
// at parse time, when no cache is available yet.
type transformFunc func(cache cupt.PackageCache, v cupt.AnyVersion) ([]cupt.AnyVersion, error)

type transformNode struct {
	fn    transformFunc
	child Node
}

func newTransform(fn transformFunc, child Node) Node {
	return &transformNode{fn: fn, child: child}
}

func (n *transformNode) Select(vs *VersionSet) ([]cupt.AnyVersion, error) {
	inputs, err := n.child.Select(vs.getUnfiltered())
	if err != nil {
		return nil, err
	}

	var acc []cupt.AnyVersion
	for _, v := range inputs {
		out, err := n.fn(vs.cache(), v)
		if err != nil {
			return nil, err
		}
		acc = mergeUnique(vs.cache(), acc, sortVersions(vs.cache(), out))
	}

	if vs.Filtered() {
		return intersect(vs.cache(), acc, vs.Sequence()), nil
	}
	return acc, nil
}

// --- DependencyTransform ---

// newDependencyTransform builds a Transform node specialised to one of
// the eight relation kinds, generalising the three named by the
// vr:pd/vr:d/vr:r aliases to all eight, matching the original
// implementation. Each input version must be a *cupt.BinaryVersion; a
// SourceVersion reaching here is the exact downcast mismatch an
// InternalInvariant exists to catch.
func newDependencyTransform(kind cupt.RelationKind, child Node) Node {
	fn := func(cache cupt.PackageCache, v cupt.AnyVersion) ([]cupt.AnyVersion, error) {
		bv, ok := v.(*cupt.BinaryVersion)
		if !ok {
			cupt.Panic("dependency transform %s applied to non-binary version %s", kind, v.Common().PackageName)
		}
		var out []cupt.AnyVersion
		for _, rel := range bv.RelationLines(kind) {
			for _, sv := range cache.GetSatisfyingVersions(rel) {
				out = append(out, sv)
			}
		}
		return out, nil
	}
	return newTransform(fn, child)
}

// --- BinaryTag ---

type binaryTagNode struct{ child Node }

func newBinaryTag(child Node) Node { return &binaryTagNode{child: child} }

func (n *binaryTagNode) Select(vs *VersionSet) ([]cupt.AnyVersion, error) {
	return n.child.Select(vs)
}
