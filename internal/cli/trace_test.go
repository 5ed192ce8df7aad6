package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bento/internal/trace"
)

// recordTestBuild runs partition --db and returns the recorded build id.
func recordTestBuild(t *testing.T, dbPath string) string {
	t.Helper()

	cmd := NewPartitionCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{testDefsDir, "--db", dbPath})
	require.NoError(t, cmd.Execute())

	st, err := trace.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	builds, err := st.ListBuilds(context.Background())
	require.NoError(t, err)
	require.Len(t, builds, 1)
	return builds[0].ID
}

func TestTraceListEmpty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bento.db")
	st, err := trace.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"list", "--db", dbPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "No builds recorded in database.")
}

func TestTraceListShowsRecordedBuild(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bento.db")
	buildID := recordTestBuild(t, dbPath)

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"list", "--db", dbPath})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "Recorded builds: 1")
	assert.Contains(t, output, buildID)
	assert.Contains(t, output, "action(s)")
}

func TestTraceShow(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bento.db")
	buildID := recordTestBuild(t, dbPath)

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"show", buildID, "--db", dbPath})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "Trace for build "+buildID)
	assert.Contains(t, output, "[1] add-and-enter app")
	assert.Contains(t, output, "entry(main)")
}

func TestTraceShowJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bento.db")
	buildID := recordTestBuild(t, dbPath)

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"show", buildID, "--db", dbPath})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	build, ok := data["build"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, buildID, build["id"])
	actions, ok := data["actions"].([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, actions)
}

func TestTraceShowUnknownBuild(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bento.db")
	st, err := trace.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"show", "no-such-build", "--db", dbPath})

	err = cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "not found")
}
