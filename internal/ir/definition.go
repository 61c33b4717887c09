package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// definitionJSON mirrors the canonical form produced by SystemSpec.ToIR.
type definitionJSON struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Variables   []struct {
		Name  string     `json:"name"`
		Kind  Kind       `json:"kind"`
		Range []float64  `json:"range"`
		Sets  []FuzzySet `json:"sets"`
	} `json:"variables"`
	Rules []struct {
		Antecedent []struct {
			Kind     TermKind `json:"kind"`
			Variable string   `json:"variable"`
			Set      string   `json:"set"`
		} `json:"antecedent"`
		Consequent Consequent `json:"consequent"`
	} `json:"rules"`
}

// DecodeSystem parses the canonical JSON of a system (as stored in the run
// log) back into a SystemSpec. DecodeSystem(MarshalCanonical(s.ToIR()))
// yields a spec with the same SystemHash as s.
func DecodeSystem(data []byte) (SystemSpec, error) {
	var def definitionJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&def); err != nil {
		return SystemSpec{}, fmt.Errorf("decode system: %w", err)
	}

	spec := SystemSpec{
		Name:        def.Name,
		Description: def.Description,
		Variables:   make([]Variable, len(def.Variables)),
		Rules:       make([]Rule, len(def.Rules)),
	}
	for i, v := range def.Variables {
		if len(v.Range) != 2 {
			return SystemSpec{}, fmt.Errorf("decode system: variable %q: range has %d values", v.Name, len(v.Range))
		}
		spec.Variables[i] = Variable{
			Name:  v.Name,
			Kind:  v.Kind,
			Range: Range{Lower: v.Range[0], Upper: v.Range[1]},
			Sets:  v.Sets,
		}
	}
	for i, r := range def.Rules {
		terms := make([]Term, len(r.Antecedent))
		for j, t := range r.Antecedent {
			if t.Kind == TermAtom {
				terms[j] = Atom(t.Variable, t.Set)
				continue
			}
			terms[j] = Term{Kind: t.Kind}
		}
		spec.Rules[i] = Rule{Antecedent: terms, Consequent: r.Consequent}
	}
	return spec, nil
}
