package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/fuzzkit/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the compiled system and its content hash.
type CompilationResult struct {
	Hash   string        `json:"hash"`
	System ir.SystemSpec `json:"system"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <path>",
		Short: "Compile a CUE system definition to canonical JSON",
		Long: `Compile a CUE system definition (a .cue file or a directory holding one
CUE package) and print its summary and content hash.

With --output, the canonical JSON definition is written to a file. This is
the same form the run log stores and hashes.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, loadErr := LoadSystem(path)
	if loadErr != nil {
		return outputLoadError(formatter, loadErr)
	}
	formatter.VerboseLog("Read %d CUE file(s) from %s", loaded.FileCount, path)

	spec := loaded.Spec
	if opts.Output != "" {
		if err := writeCanonical(*spec, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		formatter.VerboseLog("Wrote canonical definition to %s", opts.Output)
	}

	if formatter.JSON() {
		return formatter.Success(CompilationResult{Hash: loaded.Hash, System: *spec})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled system %s: %d variable(s), %d rule(s)\n", spec.Name, len(spec.Variables), len(spec.Rules))
	fmt.Fprintf(w, "  hash: %s\n", loaded.Hash)
	for _, v := range spec.Variables {
		names := make([]string, len(v.Sets))
		for i, s := range v.Sets {
			names[i] = s.Name
		}
		fmt.Fprintf(w, "  %s %s [%g, %g]: %v\n", v.Kind, v.Name, v.Range.Lower, v.Range.Upper, names)
	}
	if opts.Output != "" {
		fmt.Fprintf(w, "Wrote canonical definition to %s\n", opts.Output)
	}
	return nil
}

// outputLoadError reports a load failure (exit code 2).
func outputLoadError(formatter *OutputFormatter, loadErr *LoadError) error {
	var details any
	if loc := loadErr.Location(); loc != "" {
		details = loc
		if !formatter.JSON() {
			fmt.Fprintln(formatter.Writer, loc)
		}
	}
	return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, details)
}

// writeCanonical writes the canonical JSON definition of spec to filename.
func writeCanonical(spec ir.SystemSpec, filename string) error {
	data, err := ir.MarshalCanonical(spec.ToIR())
	if err != nil {
		return fmt.Errorf("marshaling system: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
