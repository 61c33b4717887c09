package ir

// Kind classifies a variable as an input or an output of the system.
type Kind string

const (
	KindInput  Kind = "IN"
	KindOutput Kind = "OUT"
)

// ValidKinds defines allowed variable kinds.
var ValidKinds = map[Kind]bool{
	KindInput:  true,
	KindOutput: true,
}

// Shape selects the membership function of a fuzzy set.
type Shape string

const (
	ShapeTriangular  Shape = "TRI"
	ShapeTrapezoidal Shape = "TRAP"
)

// PointCount returns how many shape-defining points the shape takes,
// or 0 for an unknown shape.
func (s Shape) PointCount() int {
	switch s {
	case ShapeTriangular:
		return 3
	case ShapeTrapezoidal:
		return 4
	default:
		return 0
	}
}

// Range is the numeric universe of discourse of a variable.
type Range struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// FuzzySet is a named membership function over a variable.
// Points are a≤b≤c for TRI and a≤b≤c≤d for TRAP; monotonicity is not enforced.
type FuzzySet struct {
	Name   string    `json:"name"`
	Shape  Shape     `json:"shape"`
	Points []float64 `json:"points"`
}

// Centroid returns the arithmetic mean of the shape points.
// This approximates the centroid; it is not the area centroid of the curve.
func (s FuzzySet) Centroid() float64 {
	if len(s.Points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range s.Points {
		sum += p
	}
	return sum / float64(len(s.Points))
}

// Variable is a linguistic variable and its fuzzy sets in declaration order.
type Variable struct {
	Name  string     `json:"name"`
	Kind  Kind       `json:"kind"`
	Range Range      `json:"range"`
	Sets  []FuzzySet `json:"sets"`
}

// Set returns the named fuzzy set, if defined on this variable.
func (v Variable) Set(name string) (FuzzySet, bool) {
	for _, s := range v.Sets {
		if s.Name == name {
			return s, true
		}
	}
	return FuzzySet{}, false
}

// Rule is an if-then rule: antecedent terms in source order and a consequent.
type Rule struct {
	Antecedent []Term     `json:"antecedent"`
	Consequent Consequent `json:"consequent"`
}

// SystemSpec is a serialisable snapshot of a whole fuzzy system.
// Variables and rules are in declaration order.
type SystemSpec struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Variables   []Variable `json:"variables"`
	Rules       []Rule     `json:"rules"`
}

// Variable returns the named variable, if present.
func (s SystemSpec) Variable(name string) (Variable, bool) {
	for _, v := range s.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// Inputs returns the names of all IN variables in declaration order.
func (s SystemSpec) Inputs() []string {
	var names []string
	for _, v := range s.Variables {
		if v.Kind == KindInput {
			names = append(names, v.Name)
		}
	}
	return names
}
