package harness

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/roach88/fuzzkit/internal/engine"
	"github.com/roach88/fuzzkit/internal/ir"
	"github.com/roach88/fuzzkit/internal/store"
)

// Evaluate runs sys once against inputs and appends the outcome to the run
// log under id. Engine errors are recorded as failed runs and returned
// alongside the record; any other error means nothing was recorded. The
// engine result is returned for callers that need more than the log keeps.
//
// The system record for systemHash must already be written.
func Evaluate(ctx context.Context, st *store.Store, sys *engine.System, systemHash, id string, inputs map[string]float64) (store.RunRecord, *engine.Result, error) {
	for name, x := range inputs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return store.RunRecord{}, nil, fmt.Errorf("input %s: value must be finite, got %v", name, x)
		}
	}

	res, runErr := sys.Run(inputs)
	rec, err := NewRunRecord(id, systemHash, inputs, res, runErr)
	if err != nil {
		return store.RunRecord{}, nil, err
	}

	seq, err := st.WriteRun(ctx, rec)
	if err != nil {
		return store.RunRecord{}, nil, err
	}
	rec.Seq = seq
	return rec, res, runErr
}

// NewRunRecord converts a run outcome into a run log record. runErr must be
// nil or an *engine.Error.
func NewRunRecord(id, systemHash string, inputs map[string]float64, res *engine.Result, runErr error) (store.RunRecord, error) {
	rec := store.RunRecord{
		ID:            id,
		SystemHash:    systemHash,
		Inputs:        inputs,
		EngineVersion: ir.EngineVersion,
	}

	if runErr != nil {
		var e *engine.Error
		if !errors.As(runErr, &e) {
			return store.RunRecord{}, fmt.Errorf("run %s: %w", id, runErr)
		}
		rec.Error = &store.RunError{Code: string(e.Code), Message: e.Error()}
		return rec, nil
	}

	firings := make([]store.FiringRecord, len(res.Firings))
	for i, f := range res.Firings {
		firings[i] = store.FiringRecord{
			Rule:     f.Rule,
			Strength: f.Strength,
			Variable: f.Consequent.Variable,
			Set:      f.Consequent.Set,
		}
	}
	rec.Output = &store.RunOutput{
		Variable:      res.Variable,
		Label:         res.Label,
		Value:         res.Value,
		TotalStrength: res.TotalStrength,
		Firings:       firings,
	}
	return rec, nil
}

// traceEvent converts a recorded run into a trace event.
func traceEvent(rec store.RunRecord, caseName string) TraceEvent {
	ev := TraceEvent{
		Seq:    rec.Seq,
		ID:     rec.ID,
		Case:   caseName,
		Inputs: rec.Inputs,
	}
	if rec.Error != nil {
		ev.Error = &TraceError{Code: rec.Error.Code, Message: rec.Error.Message}
		return ev
	}
	out := rec.Output
	firings := make([]TraceFiring, len(out.Firings))
	for i, f := range out.Firings {
		firings[i] = TraceFiring(f)
	}
	ev.Output = &TraceOutput{
		Variable:      out.Variable,
		Label:         out.Label,
		Value:         out.Value,
		TotalStrength: out.TotalStrength,
		Firings:       firings,
	}
	return ev
}
