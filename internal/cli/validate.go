package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fuzzkit/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Hash   string                     `json:"hash,omitempty"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Check a system definition for mistakes",
		Long: `Compile a system definition and check it statically.

Reports every problem at once: undefined variables or sets in rules, wrong
point counts, decreasing shape points, rules that read output variables or
write input variables, and operators without operands. The engine itself only
catches some of these when a run reaches them.

Exit codes:
  0 - Valid
  1 - Validation errors found
  2 - Load or compile error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loaded, loadErr := LoadSystem(path)
	if loadErr != nil {
		return outputLoadError(formatter, loadErr)
	}
	formatter.VerboseLog("Validating system %s (%d variable(s), %d rule(s))",
		loaded.Spec.Name, len(loaded.Spec.Variables), len(loaded.Spec.Rules))

	errs := compiler.Validate(loaded.Spec)
	if len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Hash: loaded.Hash})
	}
	fmt.Fprintf(formatter.Writer, "✓ System %s is valid\n", loaded.Spec.Name)
	return nil
}

// outputValidationErrors outputs all validation errors (exit code 1).
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	exitErr := reportedExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.JSON() {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
		}); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", err.Code, err.Field, err.Message)
	}
	return exitErr
}
