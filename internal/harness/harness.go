// Package harness runs YAML conformance scenarios against fuzzy systems.
//
// Each scenario compiles one CUE system, evaluates its cases in order on a
// fresh in-memory run log, and reads the trace back from that log. The trace
// is checked against the cases' expectations and, with RunWithGolden,
// against a golden file. Run IDs are fixed (run_ids) or sequential, and the
// log assigns seq, so the same scenario always yields a byte-identical
// trace.
package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/fuzzkit/internal/compiler"
	"github.com/roach88/fuzzkit/internal/engine"
	"github.com/roach88/fuzzkit/internal/store"
	"github.com/roach88/fuzzkit/internal/testutil"
)

// Harness is the scenario execution context.
type Harness struct {
	store  *store.Store
	system *engine.System
	hash   string
	ids    engine.IDGenerator
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Compile the scenario's system
//  2. Open a fresh in-memory run log and record the system
//  3. Evaluate every case, recording each run (failures included)
//  4. Read the runs back and check expectations against them
//
// An error is returned only when the scenario cannot be executed; failed
// expectations are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context for run log I/O.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	spec, err := compiler.LoadSystem(scenario.System)
	if err != nil {
		return nil, fmt.Errorf("failed to load system: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sys, err := engine.FromSpec(*spec, engine.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to build system: %w", err)
	}

	st, err := store.Open(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	sysRec, err := store.NewSystemRecord(*spec)
	if err != nil {
		return nil, err
	}
	if err := st.WriteSystem(ctx, sysRec); err != nil {
		return nil, err
	}

	var ids engine.IDGenerator = testutil.NewSequentialIDs(scenario.Name)
	if len(scenario.RunIDs) > 0 {
		ids = engine.NewFixedGenerator(scenario.RunIDs...)
	}

	h := &Harness{
		store:  st,
		system: sys,
		hash:   sysRec.Hash,
		ids:    ids,
		logger: logger,
	}
	return h.execute(ctx, scenario)
}

func (h *Harness) execute(ctx context.Context, scenario *Scenario) (*Result, error) {
	caseByID := make(map[string]Case, len(scenario.Cases))
	for _, c := range scenario.Cases {
		id := h.ids.Generate()
		if _, dup := caseByID[id]; dup {
			return nil, fmt.Errorf("case %q: duplicate run id %q", c.Name, id)
		}
		caseByID[id] = c

		if _, _, err := Evaluate(ctx, h.store, h.system, h.hash, id, c.Inputs); err != nil && engine.CodeOf(err) == "" {
			return nil, fmt.Errorf("case %q: %w", c.Name, err)
		}
	}

	runs, err := h.store.ListRuns(ctx, store.RunFilter{SystemHash: h.hash})
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	result := NewResult()
	result.SystemHash = h.hash
	for _, rec := range runs {
		c := caseByID[rec.ID]
		ev := traceEvent(rec, c.Name)
		result.Trace = append(result.Trace, ev)
		for _, err := range checkExpect(c, ev) {
			result.AddError(err.Error())
		}
	}
	return result, nil
}
