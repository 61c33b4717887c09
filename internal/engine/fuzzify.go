package engine

import (
	"errors"

	"github.com/roach88/fuzzkit/internal/ir"
)

// Degrees maps variable name → set name → membership degree.
type Degrees map[string]map[string]float64

// Degree looks up the degree of a (variable, set) pair.
func (d Degrees) Degree(ref ir.SetRef) (float64, bool) {
	sets, ok := d[ref.Variable]
	if !ok {
		return 0, false
	}
	v, ok := sets[ref.Set]
	return v, ok
}

// Fuzzify maps crisp values to membership degrees for every set of every
// variable that has a crisp value. Values naming unknown variables are ignored.
func (s *System) Fuzzify(crisp map[string]float64) (Degrees, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fuzzify(crisp)
}

func (s *System) fuzzify(crisp map[string]float64) (Degrees, error) {
	degrees := make(Degrees, len(crisp))
	for _, v := range s.variables {
		x, ok := crisp[v.Name]
		if !ok {
			continue
		}
		sets := make(map[string]float64, len(v.Sets))
		for _, fs := range v.Sets {
			mu, err := Membership(fs, x)
			if err != nil {
				var e *Error
				if errors.As(err, &e) {
					return nil, e.withVariable(v.Name)
				}
				return nil, err
			}
			sets[fs.Name] = mu
		}
		degrees[v.Name] = sets
	}
	return degrees, nil
}
