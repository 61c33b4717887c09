package engine

import (
	"log/slog"

	"github.com/roach88/fuzzkit/internal/ir"
)

// Run evaluates the system against crisp inputs: Fuzzify, then Infer, then
// Defuzzify. The first stage error aborts the run and is returned as is.
//
// Preconditions, checked in order:
//   - at least one variable and one rule (NOT_READY)
//   - a crisp value for every IN variable, in declaration order (MISSING_INPUT)
//
// Run holds the read lock for its whole duration, so concurrent runs on one
// System are safe and a concurrent Add* waits for them.
func (s *System) Run(crisp map[string]float64) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.variables) == 0 || len(s.rules) == 0 {
		return nil, newError(ErrCodeNotReady, "system needs at least one variable and one rule (have %d, %d)",
			len(s.variables), len(s.rules))
	}
	for _, v := range s.variables {
		if v.Kind != ir.KindInput {
			continue
		}
		if _, ok := crisp[v.Name]; !ok {
			return nil, newError(ErrCodeMissingInput, "no crisp value for input variable").withVariable(v.Name)
		}
	}

	log := s.logger.With("system", s.name)

	degrees, err := s.fuzzify(crisp)
	if err != nil {
		log.Debug("fuzzify failed", "error", err)
		return nil, err
	}
	log.Debug("fuzzified", "variables", len(degrees))

	firings, err := s.infer(degrees)
	if err != nil {
		log.Debug("inference failed", "error", err)
		return nil, err
	}
	log.Debug("inferred", "rules", len(firings))

	result, err := s.defuzzify(firings)
	if err != nil {
		log.Debug("defuzzify failed", "error", err)
		return nil, err
	}
	log.Debug("defuzzified",
		slog.String("variable", result.Variable),
		slog.String("label", result.Label),
		slog.Float64("value", result.Value),
		slog.Float64("total_strength", result.TotalStrength),
	)
	return result, nil
}
