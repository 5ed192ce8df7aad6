package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/bento/internal/builder"
	"github.com/roach88/bento/internal/snapshot"
	"github.com/roach88/bento/internal/trace"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Runs int
}

// VerifyResult holds the outcome of a determinism check.
type VerifyResult struct {
	Runs          int    `json:"runs"`
	SnapshotHash  string `json:"snapshot_hash"`
	Deterministic bool   `json:"deterministic"`
	Divergence    string `json:"divergence,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <defs-dir>",
		Short: "Build repeatedly and verify byte-identical output",
		Long: `Build the definition directory multiple times and verify that every
run produces the same canonical snapshot and the same traversal trace.

Each run reloads the definitions from disk, so nondeterminism in
loading, assembly or traversal all surface here. On divergence the
differing traversal traces are diffed.

Exit codes:
  0 - All runs identical
  1 - Runs diverged
  2 - Command error (definitions missing or invalid)

Examples:
  bento verify ./defs
  bento verify ./defs --runs 5`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Runs, "runs", 2, "number of builds to compare")

	return cmd
}

func runVerify(opts *VerifyOptions, defsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Runs < 2 {
		return NewExitError(ExitCommandError, "--runs must be at least 2")
	}

	var firstData []byte
	var firstActions []trace.Action
	result := VerifyResult{Runs: opts.Runs, Deterministic: true}

	for i := 0; i < opts.Runs; i++ {
		data, actions, errs := verifyRun(opts, defsDir, cmd)
		if len(errs) > 0 {
			return outputDefinitionErrors(formatter, errs)
		}
		formatter.VerboseLog("run %d: %s, %d action(s)", i+1, snapshot.HashBytes(data), len(actions))

		if i == 0 {
			firstData = data
			firstActions = actions
			result.SnapshotHash = snapshot.HashBytes(data)
			continue
		}

		if bytes.Equal(data, firstData) && slices.Equal(actions, firstActions) {
			continue
		}

		result.Deterministic = false
		diff, err := trace.Compare("run-1", fmt.Sprintf("run-%d", i+1), firstActions, actions)
		if err != nil {
			return WrapExitError(ExitCommandError, "diffing traces", err)
		}
		if diff == "" {
			// Same traversal, different bytes: the divergence is in
			// snapshot encoding, not in the build.
			diff = fmt.Sprintf("identical traces but snapshot %s != %s",
				snapshot.HashBytes(firstData), snapshot.HashBytes(data))
		}
		result.Divergence = diff
		break
	}

	return outputVerifyResult(formatter, result)
}

// verifyRun performs one independent load-assemble-build cycle.
func verifyRun(opts *VerifyOptions, defsDir string, cmd *cobra.Command) ([]byte, []trace.Action, []error) {
	asm, errs := loadAssembly(defsDir)
	if len(errs) > 0 {
		return nil, nil, errs
	}

	var recorder trace.Recorder
	res := builder.Build(asm.Graph, asm.Entries,
		builder.WithLogger(buildLogger(opts.RootOptions, cmd)),
		builder.WithTracer(&recorder),
	)

	data, err := snapshot.Marshal(res)
	if err != nil {
		return nil, nil, []error{err}
	}
	return data, recorder.Actions(), nil
}

// outputVerifyResult reports the determinism check outcome.
func outputVerifyResult(f *OutputFormatter, result VerifyResult) error {
	if f.Format == "json" {
		response := CLIResponse{
			Status: "ok",
			Data:   result,
		}
		if !result.Deterministic {
			response.Status = "error"
			response.Error = &CLIError{
				Code:    "E_DETERMINISM",
				Message: "builds diverged",
			}
		}

		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		if !result.Deterministic {
			return NewExitError(ExitFailure, "builds diverged")
		}
		return nil
	}

	w := f.Writer
	if result.Deterministic {
		fmt.Fprintf(w, "✓ %d run(s) produced identical snapshots and traces\n", result.Runs)
		fmt.Fprintf(w, "Snapshot: %s\n", result.SnapshotHash)
		return nil
	}

	fmt.Fprintln(w, "✗ Builds diverged")
	fmt.Fprintln(w)
	fmt.Fprintln(w, result.Divergence)
	return NewExitError(ExitFailure, "builds diverged")
}
