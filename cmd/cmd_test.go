package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RixhersAjazi/schedulemaker/app"
	"github.com/RixhersAjazi/schedulemaker/core/runlog"
)

const requestYAML = `
groups:
  - name: CSCI-101
    options:
      - id: CSCI-101-01
        times: [{day: Mon, start: "9:00am", end: "9:50am"}]
      - id: CSCI-101-02
        times: [{day: Tue, start: "9:00am", end: "9:50am"}]
  - name: MATH-200
    options:
      - id: MATH-200-01
        times: [{day: Mon, start: "9:30am", end: "10:20am"}]
fixed:
  - title: Work
    days: [Fri]
    start: "8:00am"
    end: "12:00pm"
`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SM_RUN_LOG__PATH", filepath.Join(dir, "runs.jsonl"))
	path := filepath.Join(dir, "request.yaml")
	require.NoError(t, os.WriteFile(path, []byte(requestYAML), 0o600))
	return path
}

func TestGenerateAndRuns(t *testing.T) {
	path := setup(t)

	out, _, err := execute(t, "generate", "-f", path, "--format", "json", "--verbose")
	require.NoError(t, err)
	var res app.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Schedules, 1)
	assert.Equal(t, []string{"CSCI-101-02", "MATH-200-01"}, res.Schedules[0].Options.IDs())
	assert.Equal(t, "Work", res.Schedules[0].Fixed[0].Title)
	require.Len(t, res.Conflicts, 1)

	out, _, err = execute(t, "runs", "--source", "cli", "--since", "1h", "--limit", "5")
	require.NoError(t, err)
	var recs []runlog.RunRecord
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, res.RunID, recs[0].RunID)
	assert.Equal(t, 1, recs[0].Combinations)
}

func TestGenerateCSV(t *testing.T) {
	path := setup(t)

	out, errOut, err := execute(t, "generate", "-f", path, "--format", "csv", "--verbose")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "schedule,kind,slot,id,title,day,start,end", lines[0])
	assert.Len(t, lines, 4)
	assert.Contains(t, errOut, "CSCI-101-01 conflicts with MATH-200-01")
}

func TestGenerateErrors(t *testing.T) {
	path := setup(t)

	_, _, err := execute(t, "generate", "-f", path, "--format", "xml", "--verbose=false")
	assert.ErrorContains(t, err, "unknown output format")

	_, _, err = execute(t, "generate", "-f", filepath.Join(filepath.Dir(path), "missing.yaml"), "--format", "json")
	assert.Error(t, err)
}
