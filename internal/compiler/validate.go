package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/fuzzkit/internal/engine"
	"github.com/roach88/fuzzkit/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// System errors (E101-E103)
	ErrSystemNameEmpty = "E101" // system name is required
	ErrNoVariables     = "E102" // at least one variable required
	ErrNoRules         = "E103" // at least one rule required

	// Variable and set errors (E104-E109)
	ErrInvalidKind      = "E104" // kind must be IN or OUT
	ErrDuplicateName    = "E105" // duplicate variable or set name
	ErrInvalidShape     = "E106" // unknown shape or wrong point count
	ErrNonMonotonic     = "E107" // shape points decrease
	ErrInvalidRange     = "E108" // range lower bound above upper bound
	ErrVariableNoSets   = "E109" // variable defines no fuzzy sets
	ErrNoInputVariables = "E119" // no IN variable

	// Rule errors (E110-E118)
	ErrUnknownVariable     = "E110" // antecedent names an undefined variable
	ErrUnknownSet          = "E111" // antecedent names an undefined set
	ErrUnknownOutput       = "E112" // consequent names an undefined variable
	ErrUnknownOutputSet    = "E113" // consequent names an undefined set
	ErrConsequentNotOutput = "E114" // consequent variable is not OUT
	ErrAntecedentOutput    = "E115" // antecedent references an OUT variable
	ErrMalformedAntecedent = "E116" // operator without operands
)

// ValidationError represents a static validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled system for problems the engine would only
// report at run time, or not at all (non-monotonic points, rules reading
// output variables). Returns all errors found; it does not fail fast.
func Validate(spec *ir.SystemSpec) []ValidationError {
	var errs []ValidationError

	// E101: name is required
	if strings.TrimSpace(spec.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "system.name",
			Message: "system name is required and must be non-empty",
			Code:    ErrSystemNameEmpty,
		})
	}

	if len(spec.Variables) == 0 {
		errs = append(errs, ValidationError{
			Field:   "variable",
			Message: "at least one variable is required",
			Code:    ErrNoVariables,
		})
	}
	if len(spec.Rules) == 0 {
		errs = append(errs, ValidationError{
			Field:   "rule",
			Message: "at least one rule is required",
			Code:    ErrNoRules,
		})
	}

	errs = append(errs, validateVariables(spec)...)
	errs = append(errs, validateRules(spec)...)

	return errs
}

func validateVariables(spec *ir.SystemSpec) []ValidationError {
	var errs []ValidationError

	names := make(map[string]bool)
	inputs := 0
	for i, v := range spec.Variables {
		field := fmt.Sprintf("variable[%d]", i)

		// E105: duplicate variable name
		if names[v.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate variable name: %q", v.Name),
				Code:    ErrDuplicateName,
			})
		}
		names[v.Name] = true

		// E104: kind
		if !ir.ValidKinds[v.Kind] {
			errs = append(errs, ValidationError{
				Field:   field + ".kind",
				Message: fmt.Sprintf("invalid kind %q for variable %q, must be \"IN\" or \"OUT\"", v.Kind, v.Name),
				Code:    ErrInvalidKind,
			})
		}
		if v.Kind == ir.KindInput {
			inputs++
		}

		// E108: range
		if v.Range.Lower > v.Range.Upper {
			errs = append(errs, ValidationError{
				Field:   field + ".range",
				Message: fmt.Sprintf("range lower %v is above upper %v", v.Range.Lower, v.Range.Upper),
				Code:    ErrInvalidRange,
			})
		}

		// E109: sets
		if len(v.Sets) == 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".set",
				Message: fmt.Sprintf("variable %q defines no fuzzy sets", v.Name),
				Code:    ErrVariableNoSets,
			})
		}

		errs = append(errs, validateSets(field, v)...)
	}

	// E119: something to fuzzify
	if len(spec.Variables) > 0 && inputs == 0 {
		errs = append(errs, ValidationError{
			Field:   "variable",
			Message: "at least one IN variable is required",
			Code:    ErrNoInputVariables,
		})
	}

	return errs
}

func validateSets(field string, v ir.Variable) []ValidationError {
	var errs []ValidationError

	names := make(map[string]bool)
	for j, fs := range v.Sets {
		setField := fmt.Sprintf("%s.set[%d]", field, j)

		// E105: duplicate set name
		if names[fs.Name] {
			errs = append(errs, ValidationError{
				Field:   setField + ".name",
				Message: fmt.Sprintf("duplicate set name %q on variable %q", fs.Name, v.Name),
				Code:    ErrDuplicateName,
			})
		}
		names[fs.Name] = true

		// E106: shape and point count
		want := fs.Shape.PointCount()
		if want == 0 {
			errs = append(errs, ValidationError{
				Field:   setField + ".shape",
				Message: fmt.Sprintf("invalid shape %q, must be \"TRI\" or \"TRAP\"", fs.Shape),
				Code:    ErrInvalidShape,
			})
			continue
		}
		if len(fs.Points) != want {
			errs = append(errs, ValidationError{
				Field:   setField + ".points",
				Message: fmt.Sprintf("%s needs %d points, got %d", fs.Shape, want, len(fs.Points)),
				Code:    ErrInvalidShape,
			})
			continue
		}

		// E107: monotonic points
		for k := 1; k < len(fs.Points); k++ {
			if fs.Points[k] < fs.Points[k-1] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.points[%d]", setField, k),
					Message: fmt.Sprintf("points of %q must not decrease: %v", fs.Name, fs.Points),
					Code:    ErrNonMonotonic,
				})
				break
			}
		}
	}

	return errs
}

func validateRules(spec *ir.SystemSpec) []ValidationError {
	var errs []ValidationError

	for i, rule := range spec.Rules {
		field := fmt.Sprintf("rule[%d]", i)

		for j, t := range rule.Antecedent {
			if t.IsOperator() || t.Ref == nil {
				continue
			}
			termField := fmt.Sprintf("%s.antecedent[%d]", field, j)
			v, ok := spec.Variable(t.Ref.Variable)
			if !ok {
				// E110
				errs = append(errs, ValidationError{
					Field:   termField,
					Message: fmt.Sprintf("undefined variable %q", t.Ref.Variable),
					Code:    ErrUnknownVariable,
				})
				continue
			}
			if _, ok := v.Set(t.Ref.Set); !ok {
				// E111
				errs = append(errs, ValidationError{
					Field:   termField,
					Message: fmt.Sprintf("undefined set %q on variable %q", t.Ref.Set, t.Ref.Variable),
					Code:    ErrUnknownSet,
				})
			}
			if v.Kind == ir.KindOutput {
				// E115
				errs = append(errs, ValidationError{
					Field:   termField,
					Message: fmt.Sprintf("antecedent reads output variable %q, which has no crisp value unless supplied", v.Name),
					Code:    ErrAntecedentOutput,
				})
			}
		}

		// E116: operator structure, checked by reducing placeholder degrees.
		if err := checkStructure(rule.Antecedent); err != nil {
			errs = append(errs, ValidationError{
				Field:   field + ".antecedent",
				Message: err.Error(),
				Code:    ErrMalformedAntecedent,
			})
		}

		errs = append(errs, validateConsequent(spec, field, rule.Consequent)...)
	}

	return errs
}

func validateConsequent(spec *ir.SystemSpec, field string, c ir.Consequent) []ValidationError {
	field += ".consequent"

	v, ok := spec.Variable(c.Variable)
	if !ok {
		return []ValidationError{{
			Field:   field,
			Message: fmt.Sprintf("undefined output variable %q", c.Variable),
			Code:    ErrUnknownOutput,
		}}
	}

	var errs []ValidationError
	if _, ok := v.Set(c.Set); !ok {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("undefined set %q on variable %q", c.Set, c.Variable),
			Code:    ErrUnknownOutputSet,
		})
	}
	if v.Kind != ir.KindOutput {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("consequent variable %q is %s, expected OUT", c.Variable, v.Kind),
			Code:    ErrConsequentNotOutput,
		})
	}
	return errs
}

// checkStructure runs the engine's reduction on placeholder degrees so the
// static check and run-time evaluation agree on what is malformed.
func checkStructure(terms []ir.Term) error {
	cells := make([]engine.Cell, len(terms))
	for i, t := range terms {
		if t.IsOperator() {
			cells[i] = engine.Operator(t.Kind)
			continue
		}
		if t.Ref == nil {
			return fmt.Errorf("atom %d has no reference", i)
		}
		cells[i] = engine.Scalar(0.5)
	}
	_, err := engine.Reduce(cells)
	return err
}
