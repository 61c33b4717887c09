package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeDuplicateName indicates a variable or set name is already taken.
	ErrCodeDuplicateName ErrorCode = "DUPLICATE_NAME"

	// ErrCodeUnknownVariable indicates AddFuzzySet or FuzzySet named a missing
	// variable.
	ErrCodeUnknownVariable ErrorCode = "UNKNOWN_VARIABLE"

	// ErrCodeUnknownFuzzySet indicates FuzzySet named a missing set. Rule
	// references to missing sets fail at run time with UNKNOWN_REFERENCE instead.
	ErrCodeUnknownFuzzySet ErrorCode = "UNKNOWN_FUZZY_SET"

	// ErrCodeInvalidShape indicates an unknown shape or wrong point count.
	ErrCodeInvalidShape ErrorCode = "INVALID_SHAPE"

	// ErrCodeInvalidKind indicates a variable kind other than IN/OUT.
	ErrCodeInvalidKind ErrorCode = "INVALID_KIND"

	// ErrCodeMissingInput indicates an IN variable has no crisp value.
	ErrCodeMissingInput ErrorCode = "MISSING_INPUT"

	// ErrCodeUnknownReference indicates a rule atom or consequent names a
	// variable or set that does not exist at run time.
	ErrCodeUnknownReference ErrorCode = "UNKNOWN_REFERENCE"

	// ErrCodeDegenerateMembership indicates a zero-width shape segment was hit.
	ErrCodeDegenerateMembership ErrorCode = "DEGENERATE_MEMBERSHIP"

	// ErrCodeMalformedAntecedent indicates an operator without the operand
	// it needs, or an empty antecedent.
	ErrCodeMalformedAntecedent ErrorCode = "MALFORMED_ANTECEDENT"

	// ErrCodeNoRulesFired indicates defuzzification received no firings.
	ErrCodeNoRulesFired ErrorCode = "NO_RULES_FIRED"

	// ErrCodeZeroTotalStrength indicates the sum of rule strengths is 0.
	ErrCodeZeroTotalStrength ErrorCode = "ZERO_TOTAL_STRENGTH"

	// ErrCodeNotReady indicates a run was requested before any variable and
	// rule were defined.
	ErrCodeNotReady ErrorCode = "NOT_READY"
)

// Error is the single error type returned by System operations.
//
// Every error names the offending variable, set or rule so the caller can
// correct its input. None of them are fatal; the System is left unchanged.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Variable and Set name the offending entity, when applicable.
	Variable string
	Set      string

	// Rule is the 1-based rule number for run-time rule errors, 0 otherwise.
	Rule int
}

// Error implements the error interface.
func (e *Error) Error() string {
	var ctx []string
	if e.Rule > 0 {
		ctx = append(ctx, fmt.Sprintf("rule=%d", e.Rule))
	}
	if e.Variable != "" {
		ctx = append(ctx, "variable="+e.Variable)
	}
	if e.Set != "" {
		ctx = append(ctx, "set="+e.Set)
	}
	if len(ctx) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(ctx, ", "))
}

// HasCode reports whether err is, or wraps, an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) withVariable(name string) *Error {
	e.Variable = name
	return e
}

func (e *Error) withSet(name string) *Error {
	e.Set = name
	return e
}

func (e *Error) withRule(n int) *Error {
	e.Rule = n
	return e
}
