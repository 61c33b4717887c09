package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fuzzkit/internal/ir"
)

func tri(name string, a, b, c float64) ir.FuzzySet {
	return ir.FuzzySet{Name: name, Shape: ir.ShapeTriangular, Points: []float64{a, b, c}}
}

func trap(name string, a, b, c, d float64) ir.FuzzySet {
	return ir.FuzzySet{Name: name, Shape: ir.ShapeTrapezoidal, Points: []float64{a, b, c, d}}
}

func TestMembership_Triangular(t *testing.T) {
	set := tri("mid", 0, 5, 10)

	tests := []struct {
		x, want float64
	}{
		{0, 0},
		{5, 1},
		{2.5, 0.5},
		{7.5, 0.5},
		{10, 0},
		{-3, 0},
		{12, 0},
	}
	for _, tt := range tests {
		got, err := Membership(set, tt.x)
		require.NoError(t, err, "x=%v", tt.x)
		assert.InDelta(t, tt.want, got, 1e-12, "x=%v", tt.x)
	}
}

func TestMembership_Trapezoidal(t *testing.T) {
	set := trap("plateau", 0, 2, 8, 10)

	tests := []struct {
		x, want float64
	}{
		{0, 0},
		{1, 0.5},
		{2, 1},
		{5, 1},
		{8, 1},
		{9, 0.5},
		{10, 0},
	}
	for _, tt := range tests {
		got, err := Membership(set, tt.x)
		require.NoError(t, err, "x=%v", tt.x)
		assert.InDelta(t, tt.want, got, 1e-12, "x=%v", tt.x)
	}
}

func TestMembership_ShouldersUnreachedSegments(t *testing.T) {
	// a == b: the rising segment is empty, so x never divides by b-a.
	got, err := Membership(tri("cold", 0, 0, 20), 10)
	require.NoError(t, err)
	assert.Equal(t, 0.5, got)

	// b == c: x == b takes the rising branch.
	got, err = Membership(tri("hot", 20, 40, 40), 40)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got, "x >= c is checked first")

	got, err = Membership(tri("hot", 20, 40, 40), 30)
	require.NoError(t, err)
	assert.Equal(t, 0.5, got)

	got, err = Membership(trap("open", 0, 0, 5, 10), 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestMembership_BoundedForMonotonicPoints(t *testing.T) {
	sets := []ir.FuzzySet{
		tri("a", 0, 5, 10),
		tri("b", 0, 0, 20),
		tri("c", 20, 40, 40),
		tri("d", -7.5, 1.25, 3),
		trap("e", 0, 2, 8, 10),
		trap("f", 0, 0, 0, 1),
		trap("g", -100, -50, 50, 100),
	}
	for _, set := range sets {
		for x := -120.0; x <= 120; x += 0.37 {
			mu, err := Membership(set, x)
			require.NoError(t, err, "%s x=%v", set.Name, x)
			assert.GreaterOrEqual(t, mu, 0.0, "%s x=%v", set.Name, x)
			assert.LessOrEqual(t, mu, 1.0, "%s x=%v", set.Name, x)
		}
	}
}

func TestMembership_Degenerate(t *testing.T) {
	t.Run("NaN input matches no branch", func(t *testing.T) {
		_, err := Membership(tri("mid", 0, 5, 10), math.NaN())
		require.Error(t, err)
		assert.True(t, HasCode(err, ErrCodeDegenerateMembership))
	})

	t.Run("overflowing segment", func(t *testing.T) {
		set := tri("huge", -math.MaxFloat64, math.MaxFloat64, math.MaxFloat64)
		_, err := Membership(set, 1e308)
		require.Error(t, err)
		assert.True(t, HasCode(err, ErrCodeDegenerateMembership))
	})
}

func TestMembership_InvalidShape(t *testing.T) {
	_, err := Membership(ir.FuzzySet{Name: "x", Shape: ir.ShapeTriangular, Points: []float64{1, 2}}, 1)
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeInvalidShape))
}

func TestFuzzify(t *testing.T) {
	s := fanSystem(t)

	degrees, err := s.Fuzzify(map[string]float64{"temp": 30, "pressure": 5})
	require.NoError(t, err)

	assert.Equal(t, Degrees{
		"temp": {"cold": 0, "hot": 0.5},
	}, degrees, "unknown variables are ignored, variables without a value are skipped")

	mu, ok := degrees.Degree(ir.SetRef{Variable: "temp", Set: "hot"})
	assert.True(t, ok)
	assert.Equal(t, 0.5, mu)

	_, ok = degrees.Degree(ir.SetRef{Variable: "fan", Set: "fast"})
	assert.False(t, ok)
}

func TestFuzzify_OutputVariableWithValue(t *testing.T) {
	s := fanSystem(t)

	degrees, err := s.Fuzzify(map[string]float64{"temp": 10, "fan": 25})
	require.NoError(t, err)
	assert.Equal(t, 0.5, degrees["temp"]["cold"])
	assert.Equal(t, 0.5, degrees["fan"]["slow"])
}

func TestFuzzify_DegenerateNamesVariable(t *testing.T) {
	s := fanSystem(t)

	_, err := s.Fuzzify(map[string]float64{"temp": math.NaN()})
	require.Error(t, err)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, ErrCodeDegenerateMembership, e.Code)
	assert.Equal(t, "temp", e.Variable)
	assert.Equal(t, "cold", e.Set)
}
