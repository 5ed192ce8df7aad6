package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/roach88/bento/internal/builder"
	"github.com/roach88/bento/internal/chunk"
	"github.com/roach88/bento/internal/snapshot"
)

var (
	inspectGroupStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	inspectChunkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	inspectMetaStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	inspectWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <defs-dir>",
		Short: "Show the chunk group hierarchy of a build",
		Long: `Build the chunk graph for a definition directory and render the group
hierarchy: every group with its chunks, module membership, entry
modules, runtimes and parent/child edges.

With --format json the canonical snapshot is emitted instead.

Examples:
  bento inspect ./defs
  bento inspect ./defs --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runInspect(opts *RootOptions, defsDir string, cmd *cobra.Command) error {
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

	res := builder.Build(asm.Graph, asm.Entries,
		builder.WithLogger(buildLogger(opts, cmd)))

	if formatter.Format == "json" {
		return formatter.Success(snapshot.Capture(res))
	}

	w := formatter.Writer
	for _, grp := range res.Graph.Groups() {
		fmt.Fprintln(w, renderGroupHeader(res, grp))
		for _, c := range grp.Chunks() {
			fmt.Fprintln(w, renderChunk(res, c))
		}
		if edges := renderEdges(grp); edges != "" {
			fmt.Fprintln(w, edges)
		}
		fmt.Fprintln(w)
	}

	for _, d := range res.Diagnostics {
		fmt.Fprintln(w, inspectWarnStyle.Render("⚠ "+d.Error()))
	}

	return nil
}

// renderGroupHeader renders one group's headline with its merged runtime.
func renderGroupHeader(res *builder.Result, grp *chunk.Group) string {
	header := inspectGroupStyle.Render(grp.String())
	for _, c := range grp.Chunks() {
		if !c.Runtime().Empty() {
			header += inspectMetaStyle.Render(" runtime=" + c.Runtime().Key())
			break
		}
	}
	return header
}

// renderChunk renders one chunk with its modules, tagging entry modules.
func renderChunk(res *builder.Result, c *chunk.Chunk) string {
	entries := make(map[string]bool)
	for _, m := range res.Graph.EntryModules(c) {
		entries[m.Name()] = true
	}

	name := c.Name()
	if name == "" {
		name = "(unnamed)"
	}

	var b strings.Builder
	b.WriteString("  " + inspectChunkStyle.Render("chunk "+name))
	for _, m := range res.Graph.ChunkModules(c) {
		b.WriteString("\n    " + m.Name())
		if entries[m.Name()] {
			b.WriteString(inspectMetaStyle.Render(" (entry)"))
		}
	}
	return b.String()
}

// renderEdges renders a group's parent, child and async entry edges.
func renderEdges(grp *chunk.Group) string {
	var lines []string
	if names := groupLabels(grp.Parents()); names != "" {
		lines = append(lines, "  "+inspectMetaStyle.Render("parents: "+names))
	}
	if names := groupLabels(grp.Children()); names != "" {
		lines = append(lines, "  "+inspectMetaStyle.Render("children: "+names))
	}
	if names := groupLabels(grp.AsyncEntries()); names != "" {
		lines = append(lines, "  "+inspectMetaStyle.Render("async entries: "+names))
	}
	return strings.Join(lines, "\n")
}

func groupLabels(groups []*chunk.Group) string {
	if len(groups) == 0 {
		return ""
	}
	labels := make([]string, len(groups))
	for i, grp := range groups {
		labels[i] = grp.String()
	}
	return strings.Join(labels, ", ")
}
