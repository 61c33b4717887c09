package engine

import (
	"math"

	"github.com/roach88/fuzzkit/internal/ir"
)

// Aggregate is the combined strength of all rules sharing one consequent.
type Aggregate struct {
	Consequent ir.Consequent `json:"consequent"`
	Strength   float64       `json:"strength"`
	Centroid   float64       `json:"centroid"`
}

// Result is the outcome of one run.
type Result struct {
	// Variable is the output variable (the consequent variable of the last
	// aggregated group).
	Variable string `json:"variable"`

	// Label is the output set whose centroid is closest to Value.
	Label string `json:"label"`

	Value         float64 `json:"value"`
	TotalStrength float64 `json:"total_strength"`

	Firings    []Firing    `json:"firings"`
	Aggregates []Aggregate `json:"aggregates"`
}

// Defuzzify turns rule firings into a crisp value and a label.
//
//  1. Firings are grouped by consequent in first-seen order; a group's
//     strength is the max of its members.
//  2. The denominator is the sum of raw per-rule strengths, not of the
//     group strengths.
//  3. Each group contributes centroid × group strength to the numerator,
//     where centroid is the mean of the set's points. Label candidates are
//     keyed by set name, so a later group naming the same set on another
//     variable replaces the earlier candidate centroid.
//  4. The label is the set with the centroid closest to the value; ties go
//     to the lexicographically smaller name.
func (s *System) Defuzzify(firings []Firing) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defuzzify(firings)
}

func (s *System) defuzzify(firings []Firing) (*Result, error) {
	if len(firings) == 0 {
		return nil, newError(ErrCodeNoRulesFired, "no rule firings to defuzzify")
	}

	var (
		groups []Aggregate
		pos    = make(map[ir.Consequent]int)
		total  float64
	)
	for _, f := range firings {
		total += f.Strength
		if i, ok := pos[f.Consequent]; ok {
			groups[i].Strength = max(groups[i].Strength, f.Strength)
			continue
		}
		pos[f.Consequent] = len(groups)
		groups = append(groups, Aggregate{Consequent: f.Consequent, Strength: f.Strength})
	}

	// Label candidates by set name.
	centroids := make(map[string]float64, len(groups))
	var (
		labels    []string
		numerator float64
	)
	for i, g := range groups {
		v, ok := s.variable(g.Consequent.Variable)
		if !ok {
			return nil, newError(ErrCodeUnknownReference, "consequent variable not defined").withVariable(g.Consequent.Variable)
		}
		fs, ok := v.Set(g.Consequent.Set)
		if !ok {
			return nil, newError(ErrCodeUnknownReference, "consequent fuzzy set not defined").
				withVariable(g.Consequent.Variable).withSet(g.Consequent.Set)
		}
		c := fs.Centroid()
		groups[i].Centroid = c
		numerator += c * g.Strength

		if _, seen := centroids[fs.Name]; !seen {
			labels = append(labels, fs.Name)
		}
		centroids[fs.Name] = c
	}

	if total == 0 {
		return nil, newError(ErrCodeZeroTotalStrength, "sum of rule strengths is 0")
	}
	value := numerator / total

	label := labels[0]
	best := math.Abs(centroids[label] - value)
	for _, name := range labels[1:] {
		d := math.Abs(centroids[name] - value)
		if d < best || (d == best && name < label) {
			label, best = name, d
		}
	}

	return &Result{
		Variable:      groups[len(groups)-1].Consequent.Variable,
		Label:         label,
		Value:         value,
		TotalStrength: total,
		Firings:       firings,
		Aggregates:    groups,
	}, nil
}
