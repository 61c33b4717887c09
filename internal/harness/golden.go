package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/fuzzkit/internal/ir"
)

// TraceSnapshot is the golden-file form of a scenario trace.
// The system hash is left out so that golden files survive hash changes.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization, which only handles IR types and primitives.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		event := map[string]any{
			"seq":    ev.Seq,
			"id":     ev.ID,
			"case":   ev.Case,
			"inputs": ev.Inputs,
		}
		if ev.Error != nil {
			event["error"] = map[string]any{
				"code":    ev.Error.Code,
				"message": ev.Error.Message,
			}
		}
		if out := ev.Output; out != nil {
			firings := make([]any, len(out.Firings))
			for j, f := range out.Firings {
				firings[j] = map[string]any{
					"rule":     f.Rule,
					"strength": f.Strength,
					"variable": f.Variable,
					"set":      f.Set,
				}
			}
			event["output"] = map[string]any{
				"variable":       out.Variable,
				"label":          out.Label,
				"value":          out.Value,
				"total_strength": out.TotalStrength,
				"firings":        firings,
			}
		}
		traceList[i] = event
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// MarshalTrace renders a result's trace as canonical JSON.
func MarshalTrace(name string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{ScenarioName: name, Trace: result.Trace}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
