package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bento/internal/graphdef"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool       `json:"valid"`
	Modules int        `json:"modules"`
	Entries int        `json:"entries"`
	Errors  []CLIError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <defs-dir>",
		Short: "Validate definitions without building",
		Long: `Validate a CUE definition directory without building the chunk graph.

Checks syntax, schema conformance and reference consistency (duplicate
module ids, unknown dependency targets, unknown entry modules). All
errors are collected and reported with source positions.

Exit codes:
  0 - Definitions valid
  1 - Definitions invalid
  2 - Command error (directory missing, no CUE files)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, defsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	def, loadErrs := graphdef.Load(defsDir, graphdef.LoadModeCollectAll)

	// A nil definition without positioned errors means the directory
	// itself is unusable, which is a command error rather than a
	// validation failure.
	if def == nil && !hasCompileError(loadErrs) {
		message := "failed to load definitions"
		if len(loadErrs) > 0 {
			message = loadErrs[0].Error()
		}
		_ = formatter.Error(ErrCodeLoad, message, nil)
		return NewExitError(ExitCommandError, message)
	}

	validationErrs := loadErrs
	if def != nil {
		formatter.VerboseLog("Found %d CUE file(s) in %s", def.FileCount, defsDir)
		if _, errs := graphdef.Assemble(def); len(errs) > 0 {
			validationErrs = append(validationErrs, errs...)
		}
	}

	if len(validationErrs) > 0 {
		return outputValidationErrors(formatter, validationErrs)
	}

	return outputValidateSuccess(formatter, def)
}

// hasCompileError reports whether any error carries a source position,
// which distinguishes bad definitions from an unusable directory.
func hasCompileError(errs []error) bool {
	for _, err := range errs {
		var compileErr *graphdef.CompileError
		if errors.As(err, &compileErr) {
			return true
		}
	}
	return false
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(f *OutputFormatter, def *graphdef.Definition) error {
	if f.Format == "json" {
		return f.Success(ValidationResult{
			Valid:   true,
			Modules: len(def.Modules),
			Entries: len(def.Entries),
		})
	}

	fmt.Fprintf(f.Writer, "✓ %d module(s), %d entrypoint(s) valid\n", len(def.Modules), len(def.Entries))
	return nil
}

// outputValidationErrors outputs all collected validation errors.
func outputValidationErrors(f *OutputFormatter, errs []error) error {
	if f.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			cliErrors[i] = CLIError{Code: ErrCodeLoad, Message: err.Error()}
		}

		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Errors: cliErrors,
			},
			Error: &cliErrors[0],
		}

		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(f.Writer, "✗ Validation failed")
	fmt.Fprintln(f.Writer)

	for _, err := range errs {
		var compileErr *graphdef.CompileError
		if errors.As(err, &compileErr) && compileErr.Pos.IsValid() {
			fmt.Fprintf(f.Writer, "%s:%d:%d\n",
				compileErr.Pos.Filename(),
				compileErr.Pos.Line(),
				compileErr.Pos.Column())
			fmt.Fprintf(f.Writer, "  %s: %s\n\n", compileErr.Field, compileErr.Message)
			continue
		}
		fmt.Fprintf(f.Writer, "  %s\n\n", err.Error())
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
