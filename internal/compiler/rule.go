package compiler

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/roach88/fuzzkit/internal/ir"
)

// Rule text grammar:
//
//	rule       = antecedent "=>" consequent
//	antecedent = clause { op clause }
//	clause     = variable [ "not" ] set
//	op         = "and" | "or" | "and_not" | "or_not"
//	consequent = variable set
//
// Tokens are separated by whitespace. "and_not" and "or_not" are shorthands
// for "and"/"or" followed by a negated clause.
const (
	kwArrow  = "=>"
	kwNot    = "not"
	kwAnd    = "and"
	kwOr     = "or"
	kwAndNot = "and_not"
	kwOrNot  = "or_not"
)

var keywords = map[string]bool{
	kwArrow: true, kwNot: true, kwAnd: true, kwOr: true, kwAndNot: true, kwOrNot: true,
}

// ParseError reports a rule text syntax error at a byte offset.
type ParseError struct {
	Text    string
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("rule %q at offset %d: %s", e.Text, e.Offset, e.Message)
}

type ruleToken struct {
	text   string
	offset int
}

// tokenize splits on whitespace, keeping byte offsets.
func tokenize(text string) []ruleToken {
	var toks []ruleToken
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				toks = append(toks, ruleToken{text: text[start:i], offset: start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		toks = append(toks, ruleToken{text: text[start:], offset: start})
	}
	return toks
}

// ParseRule parses "antecedent => consequent".
func ParseRule(text string) (ir.Rule, error) {
	idx := strings.Index(text, kwArrow)
	if idx < 0 {
		return ir.Rule{}, &ParseError{Text: text, Offset: len(text), Message: `missing "=>"`}
	}
	if j := strings.Index(text[idx+len(kwArrow):], kwArrow); j >= 0 {
		return ir.Rule{}, &ParseError{Text: text, Offset: idx + len(kwArrow) + j, Message: `more than one "=>"`}
	}

	antecedent, err := parseAntecedent(text, text[:idx], 0)
	if err != nil {
		return ir.Rule{}, err
	}
	consequent, err := parseConsequent(text, text[idx+len(kwArrow):], idx+len(kwArrow))
	if err != nil {
		return ir.Rule{}, err
	}
	return ir.Rule{Antecedent: antecedent, Consequent: consequent}, nil
}

// ParseAntecedent parses the condition part of a rule, e.g.
// "temp hot and humidity not low".
func ParseAntecedent(text string) ([]ir.Term, error) {
	return parseAntecedent(text, text, 0)
}

// ParseConsequent parses "variable set".
func ParseConsequent(text string) (ir.Consequent, error) {
	return parseConsequent(text, text, 0)
}

func parseAntecedent(full, part string, base int) ([]ir.Term, error) {
	toks := tokenize(part)
	fail := func(off int, format string, args ...any) error {
		return &ParseError{Text: full, Offset: base + off, Message: fmt.Sprintf(format, args...)}
	}
	if len(toks) == 0 {
		return nil, fail(len(part), "empty antecedent")
	}

	var terms []ir.Term
	negated := false // set by and_not/or_not for the next clause
	pos := 0
	for {
		// clause
		if pos >= len(toks) {
			return nil, fail(len(part), "expected a variable name")
		}
		variable := toks[pos]
		if keywords[variable.text] {
			return nil, fail(variable.offset, "expected a variable name, got %q", variable.text)
		}
		pos++

		if pos < len(toks) && toks[pos].text == kwNot {
			if negated {
				return nil, fail(toks[pos].offset, "double negation")
			}
			negated = true
			pos++
		}

		if pos >= len(toks) {
			return nil, fail(len(part), "expected a set name after %q", variable.text)
		}
		set := toks[pos]
		if keywords[set.text] {
			return nil, fail(set.offset, "expected a set name, got %q", set.text)
		}
		pos++

		if negated {
			terms = append(terms, ir.Not)
			negated = false
		}
		terms = append(terms, ir.Atom(variable.text, set.text))

		if pos == len(toks) {
			return terms, nil
		}

		// op
		op := toks[pos]
		switch op.text {
		case kwAnd:
			terms = append(terms, ir.And)
		case kwOr:
			terms = append(terms, ir.Or)
		case kwAndNot:
			terms = append(terms, ir.And)
			negated = true
		case kwOrNot:
			terms = append(terms, ir.Or)
			negated = true
		default:
			return nil, fail(op.offset, "expected and/or/and_not/or_not, got %q", op.text)
		}
		pos++
	}
}

func parseConsequent(full, part string, base int) (ir.Consequent, error) {
	toks := tokenize(part)
	if len(toks) != 2 {
		return ir.Consequent{}, &ParseError{
			Text:    full,
			Offset:  base,
			Message: fmt.Sprintf("consequent must be \"variable set\", got %d tokens", len(toks)),
		}
	}
	for _, tok := range toks {
		if keywords[tok.text] {
			return ir.Consequent{}, &ParseError{
				Text:    full,
				Offset:  base + tok.offset,
				Message: fmt.Sprintf("unexpected keyword %q in consequent", tok.text),
			}
		}
	}
	return ir.Consequent{Variable: toks[0].text, Set: toks[1].text}, nil
}

// FormatRule renders a rule in the text grammar, so that
// ParseRule(FormatRule(r)) == r. Term sequences the grammar cannot express
// (adjacent atoms, double negation, dangling operators) are rejected.
func FormatRule(r ir.Rule) (string, error) {
	ante, err := FormatAntecedent(r.Antecedent)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s %s", ante, kwArrow, r.Consequent.Variable, r.Consequent.Set), nil
}

// FormatAntecedent renders antecedent terms in the text grammar.
func FormatAntecedent(terms []ir.Term) (string, error) {
	var parts []string
	expectClause := true
	negated := false

	for i, t := range terms {
		switch {
		case t.Kind == ir.TermNot:
			if !expectClause || negated {
				return "", fmt.Errorf("term %d: not must precede an atom", i)
			}
			negated = true

		case t.Kind == ir.TermAtom:
			if !expectClause {
				return "", fmt.Errorf("term %d: atom must follow an operator", i)
			}
			if t.Ref == nil {
				return "", fmt.Errorf("term %d: atom has no reference", i)
			}
			if negated {
				parts = append(parts, t.Ref.Variable, kwNot, t.Ref.Set)
			} else {
				parts = append(parts, t.Ref.Variable, t.Ref.Set)
			}
			expectClause, negated = false, false

		case t.Kind == ir.TermAnd || t.Kind == ir.TermOr:
			if expectClause {
				return "", fmt.Errorf("term %d: %s must follow an atom", i, t.Kind)
			}
			parts = append(parts, t.Kind.String())
			expectClause = true

		default:
			return "", fmt.Errorf("term %d: unknown kind %v", i, t.Kind)
		}
	}
	if expectClause {
		return "", fmt.Errorf("antecedent must end with an atom")
	}
	return strings.Join(parts, " "), nil
}
