package cli

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fuzzkit/internal/engine"
	"github.com/roach88/fuzzkit/internal/harness"
	"github.com/roach88/fuzzkit/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Inputs   []string // name=value pairs
	Database string

	// IDs overrides the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs engine.IDGenerator
}

// RunResult is the outcome of one evaluation.
type RunResult struct {
	ID            string             `json:"id,omitempty"`
	Seq           int64              `json:"seq,omitempty"`
	System        string             `json:"system"`
	Variable      string             `json:"variable"`
	Label         string             `json:"label"`
	Value         float64            `json:"value"`
	TotalStrength float64            `json:"total_strength"`
	Firings       []engine.Firing    `json:"firings"`
	Aggregates    []engine.Aggregate `json:"aggregates"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <path>",
		Short: "Evaluate a system against crisp inputs",
		Long: `Evaluate a fuzzy system once: fuzzify the inputs, reduce every rule, and
defuzzify to a crisp value and the label of the closest output set.

Every IN variable needs a value. With --db (or db in the config file) the run
is appended to the SQLite run log, failures included.

Exit codes:
  0 - Evaluated
  1 - The engine rejected the run (e.g. MISSING_INPUT, ZERO_TOTAL_STRENGTH)
  2 - Command error (bad path, bad --input, database error)

Examples:
  fuzzkit run ./fan --input temp=30
  fuzzkit run ./hvac -i temp=22 -i humidity=65 --db runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSystem(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Inputs, "input", "i", nil, "crisp input as name=value (repeatable)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run to this SQLite run log")

	return cmd
}

func runSystem(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.logger()

	inputs, err := parseInputs(opts.Inputs)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, err.Error(), nil)
	}

	loaded, loadErr := LoadSystem(path)
	if loadErr != nil {
		return outputLoadError(formatter, loadErr)
	}
	sys, err := engine.FromSpec(*loaded.Spec, engine.WithLogger(logger))
	if err != nil {
		return formatter.Fail(ExitCommandError, string(engine.CodeOf(err)), err.Error(), nil)
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.settings().DB
	}

	var (
		res    *engine.Result
		runErr error
		rec    store.RunRecord
	)
	if dbPath == "" {
		res, runErr = sys.Run(inputs)
	} else {
		rec, res, runErr, err = recordRun(commandContext(cmd), opts, dbPath, loaded, sys, inputs)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		logger.Info("run recorded", "id", rec.ID, "seq", rec.Seq, "db", dbPath)
	}

	if runErr != nil {
		var e *engine.Error
		if !errors.As(runErr, &e) {
			return formatter.Fail(ExitFailure, ErrCodeGeneric, runErr.Error(), nil)
		}
		return formatter.Fail(ExitFailure, string(e.Code), runErr.Error(), runErrorDetails(e))
	}

	result := RunResult{
		ID:            rec.ID,
		Seq:           rec.Seq,
		System:        loaded.Spec.Name,
		Variable:      res.Variable,
		Label:         res.Label,
		Value:         res.Value,
		TotalStrength: res.TotalStrength,
		Firings:       res.Firings,
		Aggregates:    res.Aggregates,
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	return outputRunText(formatter, result)
}

// recordRun writes the system and the run to the run log. err is set only
// when recording failed; runErr carries the engine outcome.
func recordRun(ctx context.Context, opts *RunOptions, dbPath string, loaded *LoadResult, sys *engine.System, inputs map[string]float64) (rec store.RunRecord, res *engine.Result, runErr, err error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return rec, nil, nil, err
	}
	defer st.Close()

	sysRec, err := store.NewSystemRecord(*loaded.Spec)
	if err != nil {
		return rec, nil, nil, err
	}
	if err := st.WriteSystem(ctx, sysRec); err != nil {
		return rec, nil, nil, err
	}

	ids := opts.IDs
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}
	rec, res, runErr = harness.Evaluate(ctx, st, sys, sysRec.Hash, ids.Generate(), inputs)
	if runErr != nil && engine.CodeOf(runErr) == "" {
		return rec, nil, nil, runErr
	}
	return rec, res, runErr, nil
}

func runErrorDetails(e *engine.Error) any {
	d := map[string]any{}
	if e.Variable != "" {
		d["variable"] = e.Variable
	}
	if e.Set != "" {
		d["set"] = e.Set
	}
	if e.Rule > 0 {
		d["rule"] = e.Rule
	}
	if len(d) == 0 {
		return nil
	}
	return d
}

// parseInputs parses repeated name=value flags.
func parseInputs(pairs []string) (map[string]float64, error) {
	inputs := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("input %q: expected name=value", pair)
		}
		if _, dup := inputs[name]; dup {
			return nil, fmt.Errorf("input %q given more than once", name)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("input %q: %q is not a number", name, raw)
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("input %q: value must be finite", name)
		}
		inputs[name] = x
	}
	return inputs, nil
}

func outputRunText(formatter *OutputFormatter, r RunResult) error {
	w := formatter.Writer
	fmt.Fprintf(w, "%s = %g (%s)\n", r.Variable, r.Value, r.Label)
	fmt.Fprintf(w, "  total strength: %g\n", r.TotalStrength)
	if r.ID != "" {
		fmt.Fprintf(w, "  recorded: %s (seq %d)\n", r.ID, r.Seq)
	}
	if formatter.Verbose {
		for _, f := range r.Firings {
			fmt.Fprintf(w, "  rule %d: %g → %s\n", f.Rule, f.Strength, f.Consequent)
		}
		aggs := append([]engine.Aggregate(nil), r.Aggregates...)
		sort.SliceStable(aggs, func(i, j int) bool { return aggs[i].Strength > aggs[j].Strength })
		for _, a := range aggs {
			fmt.Fprintf(w, "  %s: strength %g, centroid %g\n", a.Consequent, a.Strength, a.Centroid)
		}
	}
	return nil
}
