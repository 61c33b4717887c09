package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSystem = "fuzzkit/system/v1"
	DomainInputs = "fuzzkit/inputs/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SystemHash computes the content-addressed ID of a system definition.
// Two definitions hash equal iff their canonical forms are identical,
// including declaration order of variables, sets and rules.
func SystemHash(spec SystemSpec) (string, error) {
	canonical, err := MarshalCanonical(spec.ToIR())
	if err != nil {
		return "", fmt.Errorf("SystemHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSystem, canonical), nil
}

// InputsHash computes a stable ID for a set of crisp inputs.
func InputsHash(inputs map[string]float64) (string, error) {
	canonical, err := MarshalCanonical(FloatObject(inputs))
	if err != nil {
		return "", fmt.Errorf("InputsHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainInputs, canonical), nil
}

// MustSystemHash is like SystemHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSystemHash(spec SystemSpec) string {
	h, err := SystemHash(spec)
	if err != nil {
		panic(err)
	}
	return h
}

// ToIR converts the system to its canonical IRObject form.
func (s SystemSpec) ToIR() IRObject {
	vars := make(IRArray, len(s.Variables))
	for i, v := range s.Variables {
		sets := make(IRArray, len(v.Sets))
		for j, fs := range v.Sets {
			sets[j] = IRObject{
				"name":   IRString(fs.Name),
				"shape":  IRString(fs.Shape),
				"points": FloatArray(fs.Points),
			}
		}
		vars[i] = IRObject{
			"name":  IRString(v.Name),
			"kind":  IRString(v.Kind),
			"range": FloatArray([]float64{v.Range.Lower, v.Range.Upper}),
			"sets":  sets,
		}
	}

	rules := make(IRArray, len(s.Rules))
	for i, r := range s.Rules {
		terms := make(IRArray, len(r.Antecedent))
		for j, t := range r.Antecedent {
			term := IRObject{"kind": IRString(t.Kind.String())}
			if t.Kind == TermAtom && t.Ref != nil {
				term["variable"] = IRString(t.Ref.Variable)
				term["set"] = IRString(t.Ref.Set)
			}
			terms[j] = term
		}
		rules[i] = IRObject{
			"antecedent": terms,
			"consequent": IRObject{
				"variable": IRString(r.Consequent.Variable),
				"set":      IRString(r.Consequent.Set),
			},
		}
	}

	return IRObject{
		"name":        IRString(s.Name),
		"description": IRString(s.Description),
		"variables":   vars,
		"rules":       rules,
	}
}
