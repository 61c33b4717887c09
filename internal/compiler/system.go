package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/fuzzkit/internal/ir"
)

// CompileSystem parses a CUE value into a SystemSpec.
// Uses the CUE Go API directly (not a CLI subprocess).
//
// The value is the root of a definition file, e.g.:
//
//	system: { name: "fan", description: "..." }
//	variable: temp: {
//		kind:  "IN"
//		range: [0, 40]
//		set: cold: { shape: "TRI", points: [0, 0, 20] }
//	}
//	rule: [ "temp hot => fan fast", { "if": "temp cold", then: "fan slow" } ]
//
// Variables and sets keep their CUE declaration order. Kinds, shapes and
// point counts are copied as written; Validate and engine.FromSpec check them.
func CompileSystem(v cue.Value) (*ir.SystemSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.SystemSpec{}

	sysVal := v.LookupPath(cue.ParsePath("system"))
	if !sysVal.Exists() {
		return nil, &CompileError{
			Field:   "system",
			Message: "system block is required",
			Pos:     v.Pos(),
		}
	}
	name, err := requiredString(sysVal, "name", "system.name")
	if err != nil {
		return nil, err
	}
	spec.Name = name

	if descVal := sysVal.LookupPath(cue.ParsePath("description")); descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.Description = desc
	}

	spec.Variables, err = parseVariables(v)
	if err != nil {
		return nil, err
	}

	spec.Rules, err = parseRules(v)
	if err != nil {
		return nil, err
	}

	return spec, nil
}

// parseVariables extracts variable definitions in declaration order.
func parseVariables(v cue.Value) ([]ir.Variable, error) {
	var vars []ir.Variable

	varsVal := v.LookupPath(cue.ParsePath("variable"))
	if !varsVal.Exists() {
		return vars, nil
	}

	iter, err := varsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		varName := iter.Selector().Unquoted()
		varValue := iter.Value()
		field := "variable." + varName

		kind, err := requiredString(varValue, "kind", field+".kind")
		if err != nil {
			return nil, err
		}

		rng, err := parseRange(varValue, field+".range")
		if err != nil {
			return nil, err
		}

		sets, err := parseSets(varValue, field)
		if err != nil {
			return nil, err
		}

		vars = append(vars, ir.Variable{
			Name:  varName,
			Kind:  ir.Kind(kind),
			Range: rng,
			Sets:  sets,
		})
	}

	return vars, nil
}

// parseRange reads a two-element [lower, upper] list.
func parseRange(v cue.Value, field string) (ir.Range, error) {
	rangeVal := v.LookupPath(cue.ParsePath("range"))
	if !rangeVal.Exists() {
		return ir.Range{}, &CompileError{
			Field:   field,
			Message: "range is required",
			Pos:     v.Pos(),
		}
	}

	bounds, err := numberList(rangeVal, field)
	if err != nil {
		return ir.Range{}, err
	}
	if len(bounds) != 2 {
		return ir.Range{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("range must be [lower, upper], got %d values", len(bounds)),
			Pos:     rangeVal.Pos(),
		}
	}
	return ir.Range{Lower: bounds[0], Upper: bounds[1]}, nil
}

// parseSets extracts the fuzzy sets of one variable.
func parseSets(v cue.Value, field string) ([]ir.FuzzySet, error) {
	var sets []ir.FuzzySet

	setsVal := v.LookupPath(cue.ParsePath("set"))
	if !setsVal.Exists() {
		return sets, nil
	}

	iter, err := setsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		setName := iter.Selector().Unquoted()
		setValue := iter.Value()
		setField := field + ".set." + setName

		shape, err := requiredString(setValue, "shape", setField+".shape")
		if err != nil {
			return nil, err
		}

		pointsVal := setValue.LookupPath(cue.ParsePath("points"))
		if !pointsVal.Exists() {
			return nil, &CompileError{
				Field:   setField + ".points",
				Message: "points are required",
				Pos:     setValue.Pos(),
			}
		}
		points, err := numberList(pointsVal, setField+".points")
		if err != nil {
			return nil, err
		}

		sets = append(sets, ir.FuzzySet{
			Name:   setName,
			Shape:  ir.Shape(shape),
			Points: points,
		})
	}

	return sets, nil
}

// parseRules extracts rules. Each entry is either rule text or a struct
// with "if" and "then" fields.
func parseRules(v cue.Value) ([]ir.Rule, error) {
	var rules []ir.Rule

	rulesVal := v.LookupPath(cue.ParsePath("rule"))
	if !rulesVal.Exists() {
		return rules, nil
	}

	iter, err := rulesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for i := 0; iter.Next(); i++ {
		elem := iter.Value()
		field := fmt.Sprintf("rule[%d]", i)

		var rule ir.Rule
		switch elem.IncompleteKind() {
		case cue.StringKind:
			text, err := elem.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			rule, err = ParseRule(text)
			if err != nil {
				return nil, &CompileError{Field: field, Message: err.Error(), Pos: elem.Pos()}
			}

		case cue.StructKind:
			ifText, err := requiredString(elem, "if", field+".if")
			if err != nil {
				return nil, err
			}
			thenText, err := requiredString(elem, "then", field+".then")
			if err != nil {
				return nil, err
			}
			rule.Antecedent, err = ParseAntecedent(ifText)
			if err != nil {
				return nil, &CompileError{Field: field + ".if", Message: err.Error(), Pos: elem.Pos()}
			}
			rule.Consequent, err = ParseConsequent(thenText)
			if err != nil {
				return nil, &CompileError{Field: field + ".then", Message: err.Error(), Pos: elem.Pos()}
			}

		default:
			return nil, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("rule must be a string or {if, then} struct, got %v", elem.IncompleteKind()),
				Pos:     elem.Pos(),
			}
		}

		rules = append(rules, rule)
	}

	return rules, nil
}

// requiredString looks up a concrete string field. The label is taken
// literally, so keywords such as "if" work.
func requiredString(v cue.Value, label, field string) (string, error) {
	fv := v.LookupPath(cue.MakePath(cue.Str(label)))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: label + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// numberList reads a list of ints or floats as float64.
func numberList(v cue.Value, field string) ([]float64, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []float64
	for iter.Next() {
		elem := iter.Value()
		if elem.IncompleteKind()&cue.NumberKind == 0 {
			return nil, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("expected a number, got %v", elem.IncompleteKind()),
				Pos:     elem.Pos(),
			}
		}
		f, err := elem.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, f)
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
