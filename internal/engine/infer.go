package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/fuzzkit/internal/ir"
)

// Firing is the reduced strength of one rule together with its consequent.
type Firing struct {
	// Rule is the 1-based position of the rule in declaration order.
	Rule       int           `json:"rule"`
	Strength   float64       `json:"strength"`
	Consequent ir.Consequent `json:"consequent"`
}

// Cell is one antecedent element during reduction: a scalar (Op == ir.TermAtom)
// or an operator that has not been applied yet.
type Cell struct {
	Op    ir.TermKind
	Value float64
}

// Scalar returns a scalar cell.
func Scalar(v float64) Cell { return Cell{Op: ir.TermAtom, Value: v} }

// Operator returns an operator cell.
func Operator(k ir.TermKind) Cell { return Cell{Op: k} }

func (c Cell) isScalar() bool { return c.Op == ir.TermAtom }

func (c Cell) String() string {
	if c.isScalar() {
		return fmt.Sprintf("%g", c.Value)
	}
	return c.Op.String()
}

// Infer reduces every rule's antecedent to a strength, in rule order.
func (s *System) Infer(degrees Degrees) ([]Firing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.infer(degrees)
}

func (s *System) infer(degrees Degrees) ([]Firing, error) {
	firings := make([]Firing, 0, len(s.rules))
	for i, rule := range s.rules {
		n := i + 1

		cells, err := substitute(rule.Antecedent, degrees)
		if err != nil {
			return nil, atRule(err, n)
		}

		reduced, err := reduce(cells)
		if err != nil {
			return nil, atRule(err, n)
		}
		if len(reduced) > 1 {
			// Chains of three or more same-priority operators leave more than one
			// scalar behind; the first one is the rule strength.
			s.logger.Debug("antecedent did not reduce to a single value",
				"rule", n, "remaining", len(reduced))
		}

		firings = append(firings, Firing{
			Rule:       n,
			Strength:   reduced[0].Value,
			Consequent: rule.Consequent,
		})
	}
	return firings, nil
}

// atRule records the 1-based rule number on an engine error.
func atRule(err error, n int) error {
	var e *Error
	if errors.As(err, &e) {
		e.withRule(n)
	}
	return err
}

// substitute replaces each atom with its membership degree.
func substitute(terms []ir.Term, degrees Degrees) ([]Cell, error) {
	if len(terms) == 0 {
		return nil, newError(ErrCodeMalformedAntecedent, "empty antecedent")
	}
	cells := make([]Cell, len(terms))
	for i, t := range terms {
		if !t.IsOperator() {
			if t.Ref == nil {
				return nil, newError(ErrCodeMalformedAntecedent, "atom %d has no reference", i)
			}
			if _, ok := degrees[t.Ref.Variable]; !ok {
				return nil, newError(ErrCodeUnknownReference, "no degrees for variable").withVariable(t.Ref.Variable)
			}
			mu, ok := degrees.Degree(*t.Ref)
			if !ok {
				return nil, newError(ErrCodeUnknownReference, "fuzzy set not defined").withVariable(t.Ref.Variable).withSet(t.Ref.Set)
			}
			cells[i] = Scalar(mu)
			continue
		}
		cells[i] = Operator(t.Kind)
	}
	return cells, nil
}

// Reduce runs the not, and, or passes over cells and returns the rule
// strength: the first element left after the or-pass.
func Reduce(cells []Cell) (float64, error) {
	reduced, err := reduce(cells)
	if err != nil {
		return 0, err
	}
	return reduced[0].Value, nil
}

func reduce(cells []Cell) ([]Cell, error) {
	out := slices.Clone(cells)

	out, err := notPass(out)
	if err != nil {
		return nil, err
	}
	out, err = binaryPass(out, ir.TermAnd, func(a, b float64) float64 { return min(a, b) })
	if err != nil {
		return nil, err
	}
	out, err = binaryPass(out, ir.TermOr, func(a, b float64) float64 { return max(a, b) })
	if err != nil {
		return nil, err
	}

	if len(out) == 0 || !out[0].isScalar() {
		return nil, newError(ErrCodeMalformedAntecedent, "antecedent reduced to %v", out)
	}
	return out, nil
}

// notPass replaces each not at i with 1 - cells[i+1] and then removes every
// i+1, highest index first.
func notPass(cells []Cell) ([]Cell, error) {
	var remove []int
	for i := range cells {
		if cells[i].Op != ir.TermNot {
			continue
		}
		if i+1 >= len(cells) || !cells[i+1].isScalar() {
			return nil, newError(ErrCodeMalformedAntecedent, "not at position %d has no operand", i)
		}
		cells[i] = Scalar(1 - cells[i+1].Value)
		remove = append(remove, i+1)
	}
	return removeAt(cells, remove), nil
}

// binaryPass replaces each op at i with combine(cells[i-1], cells[i+1]) and
// then removes every i-1 and i+1 (deduplicated, highest first).
//
// Neighbours are read as they stand before any removal in this pass, so a
// chain "a and b and c" becomes [min(a,b), min(b,c)], not min(a,b,c).
func binaryPass(cells []Cell, op ir.TermKind, combine func(a, b float64) float64) ([]Cell, error) {
	var remove []int
	for i := range cells {
		if cells[i].Op != op {
			continue
		}
		if i == 0 || i+1 >= len(cells) || !cells[i-1].isScalar() || !cells[i+1].isScalar() {
			return nil, newError(ErrCodeMalformedAntecedent, "%s at position %d needs operands on both sides", op, i)
		}
		cells[i] = Scalar(combine(cells[i-1].Value, cells[i+1].Value))
		remove = append(remove, i-1, i+1)
	}
	return removeAt(cells, remove), nil
}

// removeAt deletes the given positions (duplicates allowed) highest first.
func removeAt(cells []Cell, positions []int) []Cell {
	if len(positions) == 0 {
		return cells
	}
	slices.Sort(positions)
	positions = slices.Compact(positions)
	for i := len(positions) - 1; i >= 0; i-- {
		p := positions[i]
		cells = append(cells[:p], cells[p+1:]...)
	}
	return cells
}
