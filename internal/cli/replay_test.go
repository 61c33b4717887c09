package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fuzzkit/internal/ir"
	"github.com/roach88/fuzzkit/internal/store"
	"github.com/roach88/fuzzkit/internal/testutil"
)

func decodeReplay(t *testing.T, out string) ReplayResult {
	t.Helper()
	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp.Data
}

func TestReplay_AllReproduced(t *testing.T) {
	isolate(t)
	dir := testutil.FanDir(t)
	db := filepath.Join(t.TempDir(), "runs.db")
	recordFanRuns(t, dir, db)

	out, _, err := execute(t, "replay", "--db", db, "--format", "json")
	require.NoError(t, err)

	result := decodeReplay(t, out)
	assert.True(t, result.AllReproduced)
	assert.Equal(t, 3, result.TotalRuns)
	require.Len(t, result.Systems, 1)
	assert.Equal(t, "fan", result.Systems[0].System)
	assert.Equal(t, 3, result.Systems[0].Reproduced)
	assert.Empty(t, result.Systems[0].Mismatches)
}

func TestReplay_CurrentDefinition(t *testing.T) {
	isolate(t)
	dir := testutil.FanDir(t)
	db := filepath.Join(t.TempDir(), "runs.db")
	recordFanRuns(t, dir, db)

	out, _, err := execute(t, "replay", dir, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ fan")
	assert.Contains(t, out, "3/3 run(s) reproduced")
}

func TestReplay_ChangedDefinitionHasNoRuns(t *testing.T) {
	isolate(t)
	dir := testutil.FanDir(t)
	db := filepath.Join(t.TempDir(), "runs.db")
	recordFanRuns(t, dir, db)

	// A different definition hashes differently and owns none of the runs.
	changed := t.TempDir()
	testutil.WriteFile(t, changed, "fan.cue", strings.Replace(testutil.FanCUE, "[40, 100, 100]", "[60, 100, 100]", 1))

	out, _, err := execute(t, "replay", changed, "--db", db, "--format", "json")
	require.NoError(t, err)

	result := decodeReplay(t, out)
	require.Len(t, result.Systems, 1)
	assert.Equal(t, 0, result.Systems[0].Runs)
}

func TestReplay_Mismatch(t *testing.T) {
	isolate(t)
	dir := testutil.FanDir(t)
	db := filepath.Join(t.TempDir(), "runs.db")
	recordFanRuns(t, dir, db)

	hash, err := ir.SystemHash(testutil.FanSpec())
	require.NoError(t, err)

	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.WriteRun(context.Background(), store.RunRecord{
		ID:         "forged",
		SystemHash: hash,
		Inputs:     map[string]float64{"temp": 30},
		Output: &store.RunOutput{
			Variable:      "fan",
			Label:         "fast",
			Value:         99,
			TotalStrength: 0.5,
			Firings: []store.FiringRecord{
				{Rule: 1, Strength: 0.5, Variable: "fan", Set: "fast"},
				{Rule: 2, Strength: 0, Variable: "fan", Set: "slow"},
			},
		},
		EngineVersion: ir.EngineVersion,
	})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(t, "replay", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ fan")
	assert.Contains(t, out, "3/4 run(s) reproduced")
	assert.Contains(t, out, "seq 4 forged: recorded fan = 99 (fast), strength 0.5, replayed fan = 80 (fast), strength 0.5")
}

func TestReplay_SystemFilter(t *testing.T) {
	isolate(t)
	dir := testutil.FanDir(t)
	db := filepath.Join(t.TempDir(), "runs.db")
	recordFanRuns(t, dir, db)

	out, _, err := execute(t, "replay", "--db", db, "--system", "0000")
	require.NoError(t, err)
	assert.Equal(t, "No systems found in run log.\n", out)
}

func TestReplay_BadPathCreatesNoDatabase(t *testing.T) {
	isolate(t)
	db := filepath.Join(t.TempDir(), "runs.db")

	_, _, err := execute(t, "replay", filepath.Join(t.TempDir(), "missing"), "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.NoFileExists(t, db)
}

func TestReplay_NoDatabase(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "replay")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
