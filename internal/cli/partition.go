package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/bento/internal/builder"
	"github.com/roach88/bento/internal/snapshot"
	"github.com/roach88/bento/internal/trace"
)

// PartitionOptions holds flags for the partition command.
type PartitionOptions struct {
	*RootOptions
	Output   string // manifest file path
	Database string // trace database path
	Strict   bool   // fail when the build reports diagnostics
}

// PartitionResult is the JSON payload of a successful partition.
type PartitionResult struct {
	BuildID      string             `json:"build_id"`
	SnapshotHash string             `json:"snapshot_hash"`
	Snapshot     *snapshot.Snapshot `json:"snapshot"`
}

// NewPartitionCommand creates the partition command.
func NewPartitionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PartitionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "partition <defs-dir>",
		Short: "Build the chunk graph for a definition directory",
		Long: `Build the chunk graph for a CUE definition directory and report the
resulting chunk groups, chunks and diagnostics.

The build never aborts on graph-level conflicts: colliding names and
conflicting options degrade with a diagnostic. Use --strict to turn
diagnostics into a failing exit code.

Exit codes:
  0 - Build succeeded
  1 - Build reported diagnostics and --strict is set
  2 - Command error (definitions missing or invalid, write failed)

Examples:
  bento partition ./defs
  bento partition ./defs -o manifest.json
  bento partition ./defs --db ./bento.db --strict`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPartition(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the canonical snapshot to this file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the build trace to this SQLite database")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit non-zero when the build reports diagnostics")

	return cmd
}

func runPartition(opts *PartitionOptions, defsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	asm, errs := loadAssembly(defsDir)
	if len(errs) > 0 {
		return outputDefinitionErrors(formatter, errs)
	}

	formatter.VerboseLog("Loaded %d module(s), %d entrypoint(s) from %s",
		asm.Graph.NumModules(), len(asm.Entries), defsDir)

	buildOpts := []builder.Option{builder.WithLogger(buildLogger(opts.RootOptions, cmd))}
	var recorder trace.Recorder
	if opts.Database != "" {
		buildOpts = append(buildOpts, builder.WithTracer(&recorder))
	}

	res := builder.Build(asm.Graph, asm.Entries, buildOpts...)

	snap := snapshot.Capture(res)
	data, err := snapshot.Encode(snap)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode snapshot", err)
	}
	hash := snapshot.HashBytes(data)

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0644); err != nil {
			_ = formatter.Error(ErrCodeWrite, fmt.Sprintf("writing manifest: %v", err), nil)
			return WrapExitError(ExitCommandError, "writing manifest", err)
		}
	}

	if opts.Database != "" {
		if err := recordTrace(opts.Database, recorder.Record(res.BuildID, hash, len(res.Diagnostics))); err != nil {
			_ = formatter.Error(ErrCodeDatabase, fmt.Sprintf("recording trace: %v", err), nil)
			return WrapExitError(ExitCommandError, "recording trace", err)
		}
	}

	if err := outputPartitionResult(formatter, opts, res, snap, hash); err != nil {
		return err
	}

	if opts.Strict && len(res.Diagnostics) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("build reported %d diagnostic(s)", len(res.Diagnostics)))
	}
	return nil
}

// recordTrace persists a finished build's action stream.
func recordTrace(path string, rec *trace.BuildRecord) error {
	st, err := trace.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.RecordBuild(context.Background(), rec)
}

// outputPartitionResult reports a finished build.
func outputPartitionResult(f *OutputFormatter, opts *PartitionOptions, res *builder.Result, snap *snapshot.Snapshot, hash string) error {
	if f.Format == "json" {
		return f.Success(PartitionResult{
			BuildID:      res.BuildID,
			SnapshotHash: hash,
			Snapshot:     snap,
		})
	}

	w := f.Writer
	fmt.Fprintf(w, "✓ Partitioned %d module(s) into %d chunk(s) across %d group(s)\n\n",
		len(snap.Modules), len(snap.Chunks), len(snap.Groups))

	fmt.Fprintln(w, "Groups:")
	for _, grp := range res.Graph.Groups() {
		fmt.Fprintf(w, "  %s\n", grp.String())
		for i, c := range grp.Chunks() {
			name := c.Name()
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			fmt.Fprintf(w, "    chunk %s", name)
			if !c.Runtime().Empty() {
				fmt.Fprintf(w, " runtime=%s", c.Runtime().Key())
			}
			fmt.Fprintf(w, ": %d module(s)\n", res.Graph.NumChunkModules(c))
		}
	}
	fmt.Fprintln(w)

	if len(res.Diagnostics) > 0 {
		fmt.Fprintln(w, "Diagnostics:")
		for _, d := range res.Diagnostics {
			fmt.Fprintf(w, "  ⚠ %s\n", d.Error())
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Build ID: %s\n", res.BuildID)
	fmt.Fprintf(w, "Snapshot: %s\n", hash)
	if opts.Output != "" {
		fmt.Fprintf(w, "Wrote manifest to %s\n", opts.Output)
	}
	if opts.Database != "" {
		fmt.Fprintf(w, "Recorded trace to %s\n", opts.Database)
	}

	return nil
}
