package ir

import "fmt"

// SetRef is a typed reference to a fuzzy set on a variable.
// Used both for antecedent atoms and for rule consequents.
type SetRef struct {
	Variable string `json:"variable"`
	Set      string `json:"set"`
}

// String renders the reference the way rule text spells it: "temp hot".
func (r SetRef) String() string {
	return fmt.Sprintf("%s %s", r.Variable, r.Set)
}

// Consequent is the (output variable, output set) a rule asserts.
type Consequent = SetRef
