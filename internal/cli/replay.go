package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/roach88/fuzzkit/internal/engine"
	"github.com/roach88/fuzzkit/internal/harness"
	"github.com/roach88/fuzzkit/internal/ir"
	"github.com/roach88/fuzzkit/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database   string
	SystemHash string // optional - one stored system only
}

// ReplayMismatch is a recorded run whose outcome was not reproduced.
type ReplayMismatch struct {
	Seq      int64  `json:"seq"`
	ID       string `json:"id"`
	Recorded string `json:"recorded"`
	Replayed string `json:"replayed"`
}

// ReplaySystemResult holds the replay result for one system.
type ReplaySystemResult struct {
	System     string           `json:"system"`
	Hash       string           `json:"hash"`
	Runs       int              `json:"runs"`
	Reproduced int              `json:"reproduced"`
	Mismatches []ReplayMismatch `json:"mismatches,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Systems       []ReplaySystemResult `json:"systems"`
	TotalRuns     int                  `json:"total_runs"`
	AllReproduced bool                 `json:"all_reproduced"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [path]",
		Short: "Re-evaluate recorded runs and verify they are reproduced",
		Long: `Re-evaluate every recorded run and compare the outcome with the run log.

With a path, the current definition at that path is compiled and the runs
recorded under its hash are replayed. Without one, every stored system is
rebuilt from its recorded definition. Nothing is written to the run log.

Exit codes:
  0 - Every run was reproduced exactly
  1 - At least one outcome differs
  2 - Command error (database not found, etc.)

Examples:
  fuzzkit replay --db runs.db
  fuzzkit replay ./fan --db runs.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runReplay(opts, path, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log")
	cmd.Flags().StringVar(&opts.SystemHash, "system", "", "replay this stored system only")

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	dbPath, err := resolveDB(opts.RootOptions, opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}

	// Compile before opening the log so a bad path never creates a database.
	var current *LoadResult
	if path != "" {
		var loadErr *LoadError
		if current, loadErr = LoadSystem(path); loadErr != nil {
			return outputLoadError(formatter, loadErr)
		}
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to open run log: %v", err), nil)
	}
	defer st.Close()

	var targets []replayTarget
	if current != nil {
		targets = []replayTarget{{name: current.Spec.Name, hash: current.Hash, spec: *current.Spec}}
	} else {
		targets, err = storedTargets(ctx, st, opts.SystemHash)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
	}

	result := ReplayResult{Systems: []ReplaySystemResult{}, AllReproduced: true}
	for _, target := range targets {
		sr, err := replaySystem(ctx, st, target)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("replay %s: %v", target.name, err), nil)
		}
		opts.logger().Debug("replayed system", "system", sr.System, "runs", sr.Runs, "reproduced", sr.Reproduced)
		result.Systems = append(result.Systems, sr)
		result.TotalRuns += sr.Runs
		if len(sr.Mismatches) > 0 {
			result.AllReproduced = false
		}
	}

	if formatter.JSON() {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputReplayText(formatter, result)
	}

	if !result.AllReproduced {
		return reportedExitError(ExitFailure, "replay found runs that were not reproduced")
	}
	return nil
}

type replayTarget struct {
	name string
	hash string
	spec ir.SystemSpec
}

// storedTargets rebuilds systems from their recorded definitions.
func storedTargets(ctx context.Context, st *store.Store, onlyHash string) ([]replayTarget, error) {
	systems, err := st.ListSystems(ctx)
	if err != nil {
		return nil, err
	}
	var targets []replayTarget
	for _, rec := range systems {
		if onlyHash != "" && rec.Hash != onlyHash {
			continue
		}
		spec, err := rec.Spec()
		if err != nil {
			return nil, fmt.Errorf("system %s: %w", rec.Hash, err)
		}
		targets = append(targets, replayTarget{name: rec.Name, hash: rec.Hash, spec: spec})
	}
	return targets, nil
}

// replaySystem re-evaluates every recorded run of one system.
func replaySystem(ctx context.Context, st *store.Store, target replayTarget) (ReplaySystemResult, error) {
	sr := ReplaySystemResult{System: target.name, Hash: target.hash}

	sys, err := engine.FromSpec(target.spec, engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		return sr, err
	}

	runs, err := st.ListRuns(ctx, store.RunFilter{SystemHash: target.hash})
	if err != nil {
		return sr, err
	}

	for _, recorded := range runs {
		res, runErr := sys.Run(recorded.Inputs)
		replayed, err := harness.NewRunRecord(recorded.ID, target.hash, recorded.Inputs, res, runErr)
		if err != nil {
			return sr, err
		}

		sr.Runs++
		if sameOutcome(recorded, replayed) {
			sr.Reproduced++
			continue
		}
		sr.Mismatches = append(sr.Mismatches, ReplayMismatch{
			Seq:      recorded.Seq,
			ID:       recorded.ID,
			Recorded: describeOutcome(recorded),
			Replayed: describeOutcome(replayed),
		})
	}
	return sr, nil
}

// sameOutcome compares outputs bit for bit; error runs compare by code and
// message.
func sameOutcome(a, b store.RunRecord) bool {
	return reflect.DeepEqual(a.Output, b.Output) && reflect.DeepEqual(a.Error, b.Error)
}

func describeOutcome(r store.RunRecord) string {
	if r.Error != nil {
		return r.Error.Code
	}
	return fmt.Sprintf("%s = %g (%s), strength %g", r.Output.Variable, r.Output.Value, r.Output.Label, r.Output.TotalStrength)
}

func outputReplayText(formatter *OutputFormatter, result ReplayResult) {
	w := formatter.Writer
	if len(result.Systems) == 0 {
		fmt.Fprintln(w, "No systems found in run log.")
		return
	}
	for _, sr := range result.Systems {
		mark := "✓"
		if len(sr.Mismatches) > 0 {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s (%s): %d/%d run(s) reproduced\n", mark, sr.System, shortHash(sr.Hash), sr.Reproduced, sr.Runs)
		for _, m := range sr.Mismatches {
			fmt.Fprintf(w, "  seq %d %s: recorded %s, replayed %s\n", m.Seq, m.ID, m.Recorded, m.Replayed)
		}
	}
	fmt.Fprintf(w, "\nReplayed %d run(s)\n", result.TotalRuns)
}
