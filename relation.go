package cupt

import "fmt"

// RelationOperator is one of Debian's five version-comparison operators,
// or the zero value meaning "no version constraint, just the package
// name".
type RelationOperator int

const (
	OpAny RelationOperator = iota
	OpLess
	OpLessEqual
	OpEqual
	OpGreaterEqual
	OpGreater
)

func (o RelationOperator) String() string {
	switch o {
	case OpLess:
		return "<<"
	case OpLessEqual:
		return "<="
	case OpEqual:
		return "="
	case OpGreaterEqual:
		return ">="
	case OpGreater:
		return ">>"
	default:
		return ""
	}
}

// RelationTerm is a single "package (op version)" clause, optionally
// qualified to an architecture.
type RelationTerm struct {
	PackageName   string
	ArchQualifier string
	Operator      RelationOperator
	Version       string
}

func (t RelationTerm) String() string {
	s := t.PackageName
	if t.ArchQualifier != "" {
		s += ":" + t.ArchQualifier
	}
	if t.Operator != OpAny {
		s += fmt.Sprintf(" (%s %s)", t.Operator, t.Version)
	}
	return s
}

// RelationExpression is a disjunction of RelationTerms: it is satisfied
// if any one term is satisfied. A line like "Depends: a | b (>= 2)"
// parses to one RelationExpression of two terms.
type RelationExpression []RelationTerm

func (e RelationExpression) String() string {
	s := ""
	for i, t := range e {
		if i > 0 {
			s += " | "
		}
		s += t.String()
	}
	return s
}
