package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/fuzzkit/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database   string
	SystemHash string
	Limit      int
}

// HistoryEntry is one recorded run.
type HistoryEntry struct {
	Seq           int64              `json:"seq"`
	ID            string             `json:"id"`
	SystemHash    string             `json:"system_hash"`
	Inputs        map[string]float64 `json:"inputs"`
	Variable      string             `json:"variable,omitempty"`
	Label         string             `json:"label,omitempty"`
	Value         *float64           `json:"value,omitempty"`
	TotalStrength *float64           `json:"total_strength,omitempty"`
	ErrorCode     string             `json:"error_code,omitempty"`
	ErrorMessage  string             `json:"error_message,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List runs from the SQLite run log, oldest first.

Only the most recent --limit runs are shown (default from history_limit in
the config file; 0 shows all).

Examples:
  fuzzkit history --db runs.db
  fuzzkit history --db runs.db --system <hash> --limit 5 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log")
	cmd.Flags().StringVar(&opts.SystemHash, "system", "", "only runs of this system hash")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show only the most recent n runs")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	dbPath, err := resolveDB(opts.RootOptions, opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	limit := opts.Limit
	if !cmd.Flags().Changed("limit") {
		limit = opts.settings().HistoryLimit
	}
	if limit < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "--limit must be non-negative", nil)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to open run log: %v", err), nil)
	}
	defer st.Close()

	runs, err := st.ListRuns(commandContext(cmd), store.RunFilter{SystemHash: opts.SystemHash, Limit: limit})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}

	entries := make([]HistoryEntry, len(runs))
	for i, r := range runs {
		entries[i] = historyEntry(r)
	}

	if formatter.JSON() {
		return formatter.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tSYSTEM\tINPUTS\tOUTCOME")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Seq, e.ID, shortHash(e.SystemHash), formatInputs(e.Inputs), e.outcome())
	}
	return tw.Flush()
}

func historyEntry(r store.RunRecord) HistoryEntry {
	e := HistoryEntry{
		Seq:        r.Seq,
		ID:         r.ID,
		SystemHash: r.SystemHash,
		Inputs:     r.Inputs,
	}
	if out := r.Output; out != nil {
		e.Variable = out.Variable
		e.Label = out.Label
		e.Value = &out.Value
		e.TotalStrength = &out.TotalStrength
	}
	if r.Error != nil {
		e.ErrorCode = r.Error.Code
		e.ErrorMessage = r.Error.Message
	}
	return e
}

func (e HistoryEntry) outcome() string {
	if e.ErrorCode != "" {
		return e.ErrorCode
	}
	return fmt.Sprintf("%s = %g (%s)", e.Variable, *e.Value, e.Label)
}

// resolveDB returns the --db flag, or the configured run log.
func resolveDB(opts *RootOptions, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if db := opts.settings().DB; db != "" {
		return db, nil
	}
	return "", fmt.Errorf("no run log: pass --db or set db in the config file")
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// formatInputs renders inputs as "a=1 b=2" in name order.
func formatInputs(inputs map[string]float64) string {
	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%g", name, inputs[name])
	}
	return strings.Join(parts, " ")
}

// shortHash trims a hex hash for display.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
