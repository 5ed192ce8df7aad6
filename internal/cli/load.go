package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/bento/internal/graphdef"
)

// loadAssembly loads a definition directory and assembles it into a
// dependency graph. All errors are collected.
func loadAssembly(dir string) (*graphdef.Assembly, []error) {
	def, errs := graphdef.Load(dir, graphdef.LoadModeCollectAll)
	if def == nil || len(errs) > 0 {
		return nil, errs
	}
	return graphdef.Assemble(def)
}

// buildLogger returns the slog logger builds run under. Verbose mode
// streams debug logs to stderr; otherwise logging is discarded so it
// cannot corrupt command output.
func buildLogger(opts *RootOptions, cmd *cobra.Command) *slog.Logger {
	if opts.Verbose {
		return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// outputDefinitionErrors reports definition load or assembly failures
// with source positions where available. Always a command error.
func outputDefinitionErrors(f *OutputFormatter, errs []error) error {
	if f.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			cliErrors[i] = CLIError{
				Code:    ErrCodeLoad,
				Message: err.Error(),
			}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}
		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("loading definitions failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(f.Writer, "✗ Loading definitions failed")
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

	return NewExitError(ExitCommandError, fmt.Sprintf("loading definitions failed with %d error(s)", len(errs)))
}
