package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bento/internal/trace"
)

// TraceOptions holds flags shared by the trace subcommands.
type TraceOptions struct {
	*RootOptions
	Database string
}

// TraceBuildInfo is the JSON shape of one recorded build.
type TraceBuildInfo struct {
	ID           string `json:"id"`
	CreatedAt    string `json:"created_at"`
	SnapshotHash string `json:"snapshot_hash"`
	Diagnostics  int    `json:"diagnostics"`
	Actions      int    `json:"actions"`
}

// TraceShowResult is the JSON payload of trace show.
type TraceShowResult struct {
	Build   TraceBuildInfo    `json:"build"`
	Actions []TraceActionInfo `json:"actions"`
}

// TraceActionInfo is the JSON shape of one recorded traversal step.
type TraceActionInfo struct {
	Seq    int    `json:"seq"`
	Action string `json:"action"`
	Module string `json:"module,omitempty"`
	Group  string `json:"group,omitempty"`
}

// NewTraceCommand creates the trace command group.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded build traces",
		Long: `Inspect build traces recorded by partition --db.

A trace is the exact sequence of traversal actions a build performed,
keyed by build ID. Identical definitions must produce identical traces;
diffing two recorded traces pinpoints where builds diverged.

Examples:
  bento trace list --db ./bento.db
  bento trace show 0198c1f2 --db ./bento.db`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite trace database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newTraceListCommand(opts))
	cmd.AddCommand(newTraceShowCommand(opts))

	return cmd
}

func newTraceListCommand(opts *TraceOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List recorded builds",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraceList(opts, cmd)
		},
	}
}

func newTraceShowCommand(opts *TraceOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <build-id>",
		Short:         "Show the action stream of one build",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraceShow(opts, args[0], cmd)
		},
	}
}

func runTraceList(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := trace.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	builds, err := st.ListBuilds(context.Background())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list builds", err)
	}

	if formatter.Format == "json" {
		infos := make([]TraceBuildInfo, len(builds))
		for i, b := range builds {
			infos[i] = buildInfo(b)
		}
		return formatter.Success(infos)
	}

	w := formatter.Writer
	if len(builds) == 0 {
		fmt.Fprintln(w, "No builds recorded in database.")
		return nil
	}

	fmt.Fprintf(w, "Recorded builds: %d\n\n", len(builds))
	for _, b := range builds {
		fmt.Fprintf(w, "  %s  %s  %d action(s), %d diagnostic(s)\n",
			b.ID, b.CreatedAt, b.ActionCount, b.Diagnostics)
		fmt.Fprintf(w, "    snapshot %s\n", truncateHash(b.SnapshotHash))
	}

	return nil
}

func runTraceShow(opts *TraceOptions, buildID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := trace.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := context.Background()
	summary, err := st.Build(ctx, buildID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read build", err)
	}
	if summary == nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("build %q not found", buildID))
	}

	actions, err := st.ReplayActions(ctx, buildID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to replay actions", err)
	}

	if formatter.Format == "json" {
		infos := make([]TraceActionInfo, len(actions))
		for i, a := range actions {
			infos[i] = TraceActionInfo{Seq: a.Seq, Action: a.Action, Module: a.Module, Group: a.Group}
		}
		return formatter.Success(TraceShowResult{
			Build:   buildInfo(*summary),
			Actions: infos,
		})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Trace for build %s\n", summary.ID)
	fmt.Fprintf(w, "Recorded: %s\n", summary.CreatedAt)
	fmt.Fprintf(w, "Snapshot: %s\n", summary.SnapshotHash)
	fmt.Fprintf(w, "Diagnostics: %d\n\n", summary.Diagnostics)

	for _, a := range actions {
		fmt.Fprintf(w, "  [%d] %s\n", a.Seq, formatAction(a))
	}

	return nil
}

func buildInfo(b trace.BuildSummary) TraceBuildInfo {
	return TraceBuildInfo{
		ID:           b.ID,
		CreatedAt:    b.CreatedAt,
		SnapshotHash: b.SnapshotHash,
		Diagnostics:  b.Diagnostics,
		Actions:      b.ActionCount,
	}
}

// formatAction renders one action, skipping empty fields.
func formatAction(a trace.Action) string {
	parts := []string{a.Action}
	if a.Module != "" {
		parts = append(parts, a.Module)
	}
	if a.Group != "" {
		parts = append(parts, a.Group)
	}
	return strings.Join(parts, " ")
}

// truncateHash shortens a snapshot hash for display.
func truncateHash(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16] + "..."
}
