package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fuzzkit/internal/ir"
)

// outputSystem has two output variables with centroids that are exact:
//
//	fan:  slow TRI(0,0,60) → 20, fast TRI(40,100,100) → 80, high TRI(60,90,90) → 80
//	pump: high TRI(0,30,60) → 30
func outputSystem(t *testing.T) *System {
	t.Helper()
	s := New("outputs", "")
	require.NoError(t, s.AddVariable("fan", ir.KindOutput, ir.Range{Upper: 100}))
	require.NoError(t, s.AddFuzzySet("fan", "slow", ir.ShapeTriangular, []float64{0, 0, 60}))
	require.NoError(t, s.AddFuzzySet("fan", "fast", ir.ShapeTriangular, []float64{40, 100, 100}))
	require.NoError(t, s.AddFuzzySet("fan", "high", ir.ShapeTriangular, []float64{60, 90, 90}))
	require.NoError(t, s.AddVariable("pump", ir.KindOutput, ir.Range{Upper: 60}))
	require.NoError(t, s.AddFuzzySet("pump", "high", ir.ShapeTriangular, []float64{0, 30, 60}))
	return s
}

func firing(rule int, strength float64, variable, set string) Firing {
	return Firing{Rule: rule, Strength: strength, Consequent: ir.Consequent{Variable: variable, Set: set}}
}

func TestDefuzzify_SingleConsequent(t *testing.T) {
	s := outputSystem(t)

	res, err := s.Defuzzify([]Firing{firing(1, 0.5, "fan", "fast")})
	require.NoError(t, err)

	assert.Equal(t, "fan", res.Variable)
	assert.Equal(t, "fast", res.Label)
	assert.Equal(t, 80.0, res.Value)
	assert.Equal(t, 0.5, res.TotalStrength)
	assert.Equal(t, []Aggregate{{Consequent: ir.Consequent{Variable: "fan", Set: "fast"}, Strength: 0.5, Centroid: 80}}, res.Aggregates)
}

// The denominator sums raw rule strengths while the numerator uses the
// per-consequent maximum, so repeated consequents pull the value down.
func TestDefuzzify_RawSumDenominator(t *testing.T) {
	s := outputSystem(t)

	res, err := s.Defuzzify([]Firing{
		firing(1, 0.5, "fan", "fast"),
		firing(2, 0.25, "fan", "fast"),
	})
	require.NoError(t, err)

	require.Len(t, res.Aggregates, 1)
	assert.Equal(t, 0.5, res.Aggregates[0].Strength, "group strength is the max")
	assert.Equal(t, 0.75, res.TotalStrength, "total is the raw sum")
	assert.InDelta(t, 80*0.5/0.75, res.Value, 1e-9)
	assert.NotEqual(t, 80.0, res.Value)
}

func TestDefuzzify_WeightedAverage(t *testing.T) {
	s := outputSystem(t)

	res, err := s.Defuzzify([]Firing{
		firing(1, 0.25, "fan", "slow"),
		firing(2, 0.75, "fan", "fast"),
	})
	require.NoError(t, err)

	// (20*0.25 + 80*0.75) / 1 = 65
	assert.Equal(t, 65.0, res.Value)
	assert.Equal(t, "fast", res.Label)
	assert.Equal(t, 1.0, res.TotalStrength)
}

func TestDefuzzify_TieGoesToSmallerLabel(t *testing.T) {
	s := outputSystem(t)

	// value = (20*0.5 + 80*0.5) / 1 = 50, equidistant from 20 and 80.
	res, err := s.Defuzzify([]Firing{
		firing(1, 0.5, "fan", "slow"),
		firing(2, 0.5, "fan", "fast"),
	})
	require.NoError(t, err)

	assert.Equal(t, 50.0, res.Value)
	assert.Equal(t, "fast", res.Label, `"fast" < "slow" even though slow was seen first`)
}

func TestDefuzzify_LastVariableWins(t *testing.T) {
	s := outputSystem(t)

	res, err := s.Defuzzify([]Firing{
		firing(1, 0.25, "fan", "fast"),
		firing(2, 0.75, "pump", "high"),
	})
	require.NoError(t, err)

	// (80*0.25 + 30*0.75) / 1 = 42.5
	assert.Equal(t, "pump", res.Variable)
	assert.Equal(t, 42.5, res.Value)
	assert.Equal(t, "high", res.Label)
}

func TestDefuzzify_SameSetNameAcrossVariables(t *testing.T) {
	s := outputSystem(t)

	res, err := s.Defuzzify([]Firing{
		firing(1, 0.5, "fan", "high"),
		firing(2, 0.5, "pump", "high"),
	})
	require.NoError(t, err)

	// Both groups contribute their own centroid to the value.
	assert.Equal(t, 55.0, res.Value)
	assert.Equal(t, "high", res.Label)
	assert.Equal(t, "pump", res.Variable)
	require.Len(t, res.Aggregates, 2)
	assert.Equal(t, 80.0, res.Aggregates[0].Centroid)
	assert.Equal(t, 30.0, res.Aggregates[1].Centroid)
}

func TestDefuzzify_Errors(t *testing.T) {
	tests := []struct {
		name     string
		firings  []Firing
		wantCode ErrorCode
	}{
		{"no firings", nil, ErrCodeNoRulesFired},
		{"zero total", []Firing{firing(1, 0, "fan", "fast"), firing(2, 0, "fan", "slow")}, ErrCodeZeroTotalStrength},
		{"unknown variable", []Firing{firing(1, 0.5, "valve", "open")}, ErrCodeUnknownReference},
		{"unknown set", []Firing{firing(1, 0.5, "fan", "medium")}, ErrCodeUnknownReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := outputSystem(t)
			res, err := s.Defuzzify(tt.firings)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.wantCode, CodeOf(err))
		})
	}
}
