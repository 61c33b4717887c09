package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/fuzzkit/internal/ir"
)

func validSpec() *ir.SystemSpec {
	return &ir.SystemSpec{
		Name: "fan",
		Variables: []ir.Variable{
			{
				Name: "temp", Kind: ir.KindInput, Range: ir.Range{Upper: 40},
				Sets: []ir.FuzzySet{
					{Name: "cold", Shape: ir.ShapeTriangular, Points: []float64{0, 0, 20}},
					{Name: "hot", Shape: ir.ShapeTriangular, Points: []float64{20, 40, 40}},
				},
			},
			{
				Name: "fan", Kind: ir.KindOutput, Range: ir.Range{Upper: 100},
				Sets: []ir.FuzzySet{
					{Name: "slow", Shape: ir.ShapeTriangular, Points: []float64{0, 0, 50}},
					{Name: "fast", Shape: ir.ShapeTriangular, Points: []float64{50, 100, 100}},
				},
			},
		},
		Rules: []ir.Rule{
			{Antecedent: []ir.Term{ir.Atom("temp", "hot")}, Consequent: ir.Consequent{Variable: "fan", Set: "fast"}},
		},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_Valid(t *testing.T) {
	assert.Empty(t, Validate(validSpec()))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ir.SystemSpec)
		want   []string
	}{
		{
			name:   "empty name",
			mutate: func(s *ir.SystemSpec) { s.Name = "  " },
			want:   []string{ErrSystemNameEmpty},
		},
		{
			name:   "no rules",
			mutate: func(s *ir.SystemSpec) { s.Rules = nil },
			want:   []string{ErrNoRules},
		},
		{
			name:   "invalid kind",
			mutate: func(s *ir.SystemSpec) { s.Variables[0].Kind = "INPUT" },
			want:   []string{ErrInvalidKind, ErrNoInputVariables},
		},
		{
			name: "duplicate variable",
			mutate: func(s *ir.SystemSpec) {
				s.Variables = append(s.Variables, s.Variables[1])
			},
			want: []string{ErrDuplicateName},
		},
		{
			name: "duplicate set",
			mutate: func(s *ir.SystemSpec) {
				s.Variables[0].Sets[1].Name = "cold"
				s.Rules[0].Antecedent = []ir.Term{ir.Atom("temp", "cold")}
			},
			want: []string{ErrDuplicateName},
		},
		{
			name:   "wrong point count",
			mutate: func(s *ir.SystemSpec) { s.Variables[0].Sets[0].Points = []float64{0, 20} },
			want:   []string{ErrInvalidShape},
		},
		{
			name:   "unknown shape",
			mutate: func(s *ir.SystemSpec) { s.Variables[0].Sets[0].Shape = "GAUSS" },
			want:   []string{ErrInvalidShape},
		},
		{
			name:   "non-monotonic",
			mutate: func(s *ir.SystemSpec) { s.Variables[0].Sets[1].Points = []float64{20, 40, 30} },
			want:   []string{ErrNonMonotonic},
		},
		{
			name:   "inverted range",
			mutate: func(s *ir.SystemSpec) { s.Variables[0].Range = ir.Range{Lower: 40, Upper: 0} },
			want:   []string{ErrInvalidRange},
		},
		{
			name: "variable without sets",
			mutate: func(s *ir.SystemSpec) {
				s.Variables = append(s.Variables, ir.Variable{Name: "humidity", Kind: ir.KindInput})
			},
			want: []string{ErrVariableNoSets},
		},
		{
			name:   "unknown antecedent variable",
			mutate: func(s *ir.SystemSpec) { s.Rules[0].Antecedent = []ir.Term{ir.Atom("humidity", "high")} },
			want:   []string{ErrUnknownVariable},
		},
		{
			name:   "unknown antecedent set",
			mutate: func(s *ir.SystemSpec) { s.Rules[0].Antecedent = []ir.Term{ir.Atom("temp", "warm")} },
			want:   []string{ErrUnknownSet},
		},
		{
			name:   "antecedent reads output",
			mutate: func(s *ir.SystemSpec) { s.Rules[0].Antecedent = []ir.Term{ir.Atom("fan", "slow")} },
			want:   []string{ErrAntecedentOutput},
		},
		{
			name:   "malformed antecedent",
			mutate: func(s *ir.SystemSpec) { s.Rules[0].Antecedent = []ir.Term{ir.Atom("temp", "hot"), ir.And} },
			want:   []string{ErrMalformedAntecedent},
		},
		{
			name:   "unknown consequent variable",
			mutate: func(s *ir.SystemSpec) { s.Rules[0].Consequent = ir.Consequent{Variable: "pump", Set: "on"} },
			want:   []string{ErrUnknownOutput},
		},
		{
			name:   "unknown consequent set",
			mutate: func(s *ir.SystemSpec) { s.Rules[0].Consequent.Set = "medium" },
			want:   []string{ErrUnknownOutputSet},
		},
		{
			name:   "consequent is an input",
			mutate: func(s *ir.SystemSpec) { s.Rules[0].Consequent = ir.Consequent{Variable: "temp", Set: "cold"} },
			want:   []string{ErrConsequentNotOutput},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.mutate(spec)
			assert.Equal(t, tt.want, codes(Validate(spec)))
		})
	}
}

func TestValidate_CollectsAll(t *testing.T) {
	spec := &ir.SystemSpec{}

	errs := Validate(spec)
	assert.Equal(t, []string{ErrSystemNameEmpty, ErrNoVariables, ErrNoRules}, codes(errs))
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "rule[0].consequent", Message: "undefined output variable \"pump\"", Code: ErrUnknownOutput}
	assert.Equal(t, `[E112] rule[0].consequent: undefined output variable "pump"`, err.Error())
}
