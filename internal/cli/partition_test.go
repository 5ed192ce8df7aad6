package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bento/internal/trace"
)

var testDefsDir = filepath.Join("..", "..", "testdata", "defs")

func TestPartitionTextOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewPartitionCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{testDefsDir})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ Partitioned 3 module(s)")
	assert.Contains(t, output, "entry(main)")
	assert.Contains(t, output, "dynamic(lazy)")
	assert.Contains(t, output, "runtime=web")
	assert.Contains(t, output, "Build ID:")
	assert.Contains(t, output, "Snapshot:")
}

func TestPartitionJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewPartitionCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{testDefsDir})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	hash, ok := data["snapshot_hash"].(string)
	require.True(t, ok)
	assert.Len(t, hash, 64)

	snap, ok := data["snapshot"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 1, snap["version"])
}

func TestPartitionWritesManifest(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "manifest.json")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewPartitionCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{testDefsDir, "--output", manifest})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Wrote manifest to")

	data, err := os.ReadFile(manifest)
	require.NoError(t, err)

	var snap map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.EqualValues(t, 1, snap["version"])
}

func TestPartitionManifestIsStable(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.json")
	second := filepath.Join(dir, "b.json")

	for _, manifest := range []string{first, second} {
		cmd := NewPartitionCommand(&RootOptions{Format: "text"})
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{testDefsDir, "-o", manifest})
		require.NoError(t, cmd.Execute())
	}

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b, "manifests from identical definitions must be byte-identical")
}

func TestPartitionRecordsTrace(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bento.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewPartitionCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{testDefsDir, "--db", dbPath})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Recorded trace to")

	st, err := trace.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	builds, err := st.ListBuilds(context.Background())
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Greater(t, builds[0].ActionCount, 0)
	assert.Len(t, builds[0].SnapshotHash, 64)
	assert.Equal(t, 0, builds[0].Diagnostics)
}

func TestPartitionMissingDefs(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewPartitionCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "absent")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "✗ Loading definitions failed")
}

func TestPartitionStrict(t *testing.T) {
	collisionDir := filepath.Join("..", "..", "testdata", "collision")

	// Without --strict diagnostics are reported but the command succeeds.
	buf := &bytes.Buffer{}
	cmd := NewPartitionCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{collisionDir})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "async-name-collision")

	// With --strict the same build fails.
	buf.Reset()
	cmd = NewPartitionCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{collisionDir, "--strict"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 diagnostic(s)")
}
