package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectText(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewInspectCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{testDefsDir})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "entry(main)")
	assert.Contains(t, output, "chunk main")
	assert.Contains(t, output, "app")
	assert.Contains(t, output, "(entry)")
	assert.Contains(t, output, "dynamic(lazy)")
	assert.Contains(t, output, "parents: entry(main)")
}

func TestInspectJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewInspectCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{testDefsDir})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 1, data["version"])
	groups, ok := data["groups"].([]interface{})
	require.True(t, ok)
	assert.Len(t, groups, 2)
}

func TestInspectReportsDiagnostics(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewInspectCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"../../testdata/collision"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "async-name-collision")
}
