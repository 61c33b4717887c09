package ir

import (
	"fmt"
	"strings"
)

// TermKind tags an antecedent element.
type TermKind int

const (
	TermAtom TermKind = iota
	TermNot
	TermAnd
	TermOr
)

var termKindNames = map[TermKind]string{
	TermAtom: "atom",
	TermNot:  "not",
	TermAnd:  "and",
	TermOr:   "or",
}

// String returns the lowercase keyword for the kind.
func (k TermKind) String() string {
	if name, ok := termKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TermKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k TermKind) MarshalText() ([]byte, error) {
	name, ok := termKindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown term kind %d", int(k))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *TermKind) UnmarshalText(text []byte) error {
	for kind, name := range termKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown term kind %q", string(text))
}

// Term is one element of a rule antecedent: an atom referencing a fuzzy set,
// or one of the operators not/and/or. Ref is only meaningful for atoms.
type Term struct {
	Kind TermKind `json:"kind"`
	Ref  *SetRef  `json:"ref,omitempty"`
}

// Atom creates an atom term referencing variable's set.
func Atom(variable, set string) Term {
	return Term{Kind: TermAtom, Ref: &SetRef{Variable: variable, Set: set}}
}

// Operator terms.
var (
	Not = Term{Kind: TermNot}
	And = Term{Kind: TermAnd}
	Or  = Term{Kind: TermOr}
)

// IsOperator reports whether the term is not/and/or.
func (t Term) IsOperator() bool {
	return t.Kind != TermAtom
}

// String renders an atom as "(var set)" and operators as their keyword.
func (t Term) String() string {
	if t.Kind == TermAtom {
		if t.Ref == nil {
			return "(?)"
		}
		return "(" + t.Ref.String() + ")"
	}
	return t.Kind.String()
}

// FormatAntecedent renders terms space-separated, e.g. "not (temp hot) and (hum low)".
func FormatAntecedent(terms []Term) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

// String renders a rule as "antecedent => var set".
func (r Rule) String() string {
	return fmt.Sprintf("%s => %s", FormatAntecedent(r.Antecedent), r.Consequent)
}
