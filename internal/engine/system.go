package engine

import (
	"log/slog"
	"sync"

	"github.com/roach88/fuzzkit/internal/ir"
)

// System is the aggregate root of a fuzzy inference model: its variables
// (with their fuzzy sets) and its ordered rules.
//
// Thread-safety model:
//   - AddVariable/AddFuzzySet/AddRule take the write lock
//   - Run/Fuzzify/Infer/Spec take the read lock
//
// so mutation is serialized against in-flight runs while any number of runs
// may share one System.
//
// INVARIANTS:
//   - variable names are unique; set names are unique per variable
//   - variables, sets and rules keep insertion order
//   - a failed Add* call leaves the System unchanged
type System struct {
	mu sync.RWMutex

	name        string
	description string
	variables   []ir.Variable
	index       map[string]int // variable name → position in variables
	rules       []ir.Rule

	logger *slog.Logger
}

// Option configures a System.
type Option func(*System)

// WithLogger sets the logger used for per-stage debug output.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *System) {
		s.logger = l
	}
}

// New creates an empty System.
func New(name, description string, opts ...Option) *System {
	s := &System{
		name:        name,
		description: description,
		index:       make(map[string]int),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromSpec builds a System by replaying spec through the Add* operations,
// so a spec is subject to exactly the same checks as interactive input.
func FromSpec(spec ir.SystemSpec, opts ...Option) (*System, error) {
	s := New(spec.Name, spec.Description, opts...)
	for _, v := range spec.Variables {
		if err := s.AddVariable(v.Name, v.Kind, v.Range); err != nil {
			return nil, err
		}
		for _, fs := range v.Sets {
			if err := s.AddFuzzySet(v.Name, fs.Name, fs.Shape, fs.Points); err != nil {
				return nil, err
			}
		}
	}
	for _, r := range spec.Rules {
		if err := s.AddRule(r.Antecedent, r.Consequent); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Name returns the system name.
func (s *System) Name() string { return s.name }

// Description returns the system description.
func (s *System) Description() string { return s.description }

// AddVariable defines a new linguistic variable.
func (s *System) AddVariable(name string, kind ir.Kind, r ir.Range) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[name]; exists {
		return newError(ErrCodeDuplicateName, "variable already defined").withVariable(name)
	}
	if !ir.ValidKinds[kind] {
		return newError(ErrCodeInvalidKind, "kind must be IN or OUT, got %q", kind).withVariable(name)
	}

	s.index[name] = len(s.variables)
	s.variables = append(s.variables, ir.Variable{Name: name, Kind: kind, Range: r})
	return nil
}

// AddFuzzySet defines a fuzzy set on an existing variable.
// Points are copied; their monotonicity is not checked.
func (s *System) AddFuzzySet(variable, set string, shape ir.Shape, points []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[variable]
	if !ok {
		return newError(ErrCodeUnknownVariable, "variable not found").withVariable(variable)
	}
	want := shape.PointCount()
	if want == 0 {
		return newError(ErrCodeInvalidShape, "shape must be TRI or TRAP, got %q", shape).withVariable(variable).withSet(set)
	}
	if len(points) != want {
		return newError(ErrCodeInvalidShape, "%s needs %d points, got %d", shape, want, len(points)).withVariable(variable).withSet(set)
	}
	if _, exists := s.variables[i].Set(set); exists {
		return newError(ErrCodeDuplicateName, "fuzzy set already defined").withVariable(variable).withSet(set)
	}

	s.variables[i].Sets = append(s.variables[i].Sets, ir.FuzzySet{
		Name:   set,
		Shape:  shape,
		Points: append([]float64(nil), points...),
	})
	return nil
}

// AddRule appends a rule. References are not validated here; a rule naming
// a missing variable or set fails at run time with UNKNOWN_REFERENCE.
func (s *System) AddRule(antecedent []ir.Term, consequent ir.Consequent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rules = append(s.rules, ir.Rule{
		Antecedent: cloneTerms(antecedent),
		Consequent: consequent,
	})
	return nil
}

// FuzzySet returns a copy of the named set.
func (s *System) FuzzySet(variable, set string) (ir.FuzzySet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.variable(variable)
	if !ok {
		return ir.FuzzySet{}, newError(ErrCodeUnknownVariable, "variable not found").withVariable(variable)
	}
	fs, ok := v.Set(set)
	if !ok {
		return ir.FuzzySet{}, newError(ErrCodeUnknownFuzzySet, "fuzzy set not found").withVariable(variable).withSet(set)
	}
	fs.Points = append([]float64(nil), fs.Points...)
	return fs, nil
}

// Spec returns a deep copy of the system as a serialisable SystemSpec.
func (s *System) Spec() ir.SystemSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()

	spec := ir.SystemSpec{
		Name:        s.name,
		Description: s.description,
		Variables:   make([]ir.Variable, len(s.variables)),
		Rules:       make([]ir.Rule, len(s.rules)),
	}
	for i, v := range s.variables {
		cp := v
		cp.Sets = make([]ir.FuzzySet, len(v.Sets))
		for j, fs := range v.Sets {
			cp.Sets[j] = ir.FuzzySet{Name: fs.Name, Shape: fs.Shape, Points: append([]float64(nil), fs.Points...)}
		}
		spec.Variables[i] = cp
	}
	for i, r := range s.rules {
		spec.Rules[i] = ir.Rule{Antecedent: cloneTerms(r.Antecedent), Consequent: r.Consequent}
	}
	return spec
}

// variable returns the named variable. Caller must hold the lock.
func (s *System) variable(name string) (ir.Variable, bool) {
	i, ok := s.index[name]
	if !ok {
		return ir.Variable{}, false
	}
	return s.variables[i], true
}

func cloneTerms(terms []ir.Term) []ir.Term {
	out := make([]ir.Term, len(terms))
	for i, t := range terms {
		out[i] = ir.Term{Kind: t.Kind}
		if t.Ref != nil {
			ref := *t.Ref
			out[i].Ref = &ref
		}
	}
	return out
}
