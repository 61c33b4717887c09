package harness

import (
	"fmt"
	"math"
)

// ExpectationError describes one mismatch between a case's expectation and
// its recorded run.
type ExpectationError struct {
	Case     string
	Field    string
	Expected any
	Actual   any
}

// Error implements the error interface.
func (e *ExpectationError) Error() string {
	return fmt.Sprintf("case %q: %s: expected %v, got %v", e.Case, e.Field, e.Expected, e.Actual)
}

// checkExpect compares a recorded run against the case expectation and
// returns every mismatch.
func checkExpect(c Case, ev TraceEvent) []error {
	e := c.Expect
	if e == nil {
		return nil
	}

	var errs []error
	mismatch := func(field string, expected, actual any) {
		errs = append(errs, &ExpectationError{Case: c.Name, Field: field, Expected: expected, Actual: actual})
	}

	if e.Error != "" {
		switch {
		case ev.Error == nil:
			mismatch("error", e.Error, "success")
		case ev.Error.Code != e.Error:
			mismatch("error", e.Error, ev.Error.Code)
		}
		return errs
	}

	if ev.Error != nil {
		mismatch("outcome", "success", ev.Error.Code)
		return errs
	}

	tol := e.Tolerance
	if tol == 0 {
		tol = DefaultTolerance
	}
	out := ev.Output
	if e.Variable != "" && e.Variable != out.Variable {
		mismatch("variable", e.Variable, out.Variable)
	}
	if e.Label != "" && e.Label != out.Label {
		mismatch("label", e.Label, out.Label)
	}
	if e.Value != nil && !withinTolerance(*e.Value, out.Value, tol) {
		mismatch("value", *e.Value, out.Value)
	}
	if e.Strength != nil && !withinTolerance(*e.Strength, out.TotalStrength, tol) {
		mismatch("strength", *e.Strength, out.TotalStrength)
	}
	return errs
}

func withinTolerance(expected, actual, tol float64) bool {
	return math.Abs(expected-actual) <= tol
}
