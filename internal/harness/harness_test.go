package harness

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fuzzkit/internal/engine"
	"github.com/roach88/fuzzkit/internal/ir"
	"github.com/roach88/fuzzkit/internal/store"
	"github.com/roach88/fuzzkit/internal/testutil"
)

func fanScenario(t *testing.T, cases ...Case) *Scenario {
	t.Helper()
	return &Scenario{
		Name:   "fan_inline",
		System: testutil.FanDir(t),
		Cases:  cases,
	}
}

func TestRun_FanScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/fan.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, ir.MustSystemHash(testutil.FanSpec()), result.SystemHash)

	require.Len(t, result.Trace, 4)
	for i, ev := range result.Trace {
		assert.Equal(t, int64(i+1), ev.Seq)
	}
	assert.Equal(t, "fan-hot", result.Trace[0].ID)
	assert.Equal(t, "hot", result.Trace[0].Case)
	require.NotNil(t, result.Trace[0].Output)
	assert.Len(t, result.Trace[0].Output.Firings, 2)
	require.NotNil(t, result.Trace[3].Error)
	assert.Equal(t, "MISSING_INPUT", result.Trace[3].Error.Code)
}

func TestRun_DefaultRunIDs(t *testing.T) {
	result, err := Run(fanScenario(t,
		Case{Name: "a", Inputs: map[string]float64{"temp": 30}},
		Case{Name: "b", Inputs: map[string]float64{"temp": 10}},
	))
	require.NoError(t, err)
	require.Len(t, result.Trace, 2)
	assert.Equal(t, "fan_inline-001", result.Trace[0].ID)
	assert.Equal(t, "fan_inline-002", result.Trace[1].ID)
}

func TestRun_ReportsFailedExpectations(t *testing.T) {
	result, err := Run(fanScenario(t,
		Case{Name: "hot", Inputs: map[string]float64{"temp": 30}, Expect: &Expect{Label: "slow"}},
		Case{Name: "neutral", Inputs: map[string]float64{"temp": 20}, Expect: &Expect{Label: "slow"}},
	))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], `case "hot": label`)
	assert.Contains(t, result.Errors[1], `case "neutral": outcome`)
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/chain.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := MarshalTrace(s.Name, first)
	require.NoError(t, err)
	b, err := MarshalTrace(s.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_BadSystem(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "broken.cue", "system: {")

	_, err := Run(&Scenario{Name: "x", System: path, Cases: []Case{{Name: "a"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load system")
}

func TestRun_DuplicateRunIDs(t *testing.T) {
	s := fanScenario(t,
		Case{Name: "a", Inputs: map[string]float64{"temp": 30}},
		Case{Name: "b", Inputs: map[string]float64{"temp": 10}},
	)
	s.RunIDs = []string{"same", "same"}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate run id")
}

func TestEvaluate_RecordsSuccessAndFailure(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	spec := testutil.FanSpec()
	rec, err := store.NewSystemRecord(spec)
	require.NoError(t, err)
	require.NoError(t, st.WriteSystem(ctx, rec))
	sys, err := engine.FromSpec(spec)
	require.NoError(t, err)

	ok, res, err := Evaluate(ctx, st, sys, rec.Hash, "r1", map[string]float64{"temp": 30})
	require.NoError(t, err)
	assert.Equal(t, int64(1), ok.Seq)
	require.NotNil(t, ok.Output)
	assert.Equal(t, "fast", ok.Output.Label)
	assert.Equal(t, ir.EngineVersion, ok.EngineVersion)
	require.NotNil(t, res)
	assert.Len(t, res.Aggregates, 2)

	failed, res, err := Evaluate(ctx, st, sys, rec.Hash, "r2", map[string]float64{"temp": 20})
	assert.True(t, engine.HasCode(err, engine.ErrCodeZeroTotalStrength))
	assert.Nil(t, res)
	assert.Equal(t, int64(2), failed.Seq)
	require.NotNil(t, failed.Error)
	assert.Equal(t, "ZERO_TOTAL_STRENGTH", failed.Error.Code)

	got, err := st.GetRun(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, failed.Error, got.Error)
}

func TestEvaluate_RejectsNonFiniteInput(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	sys, err := engine.FromSpec(testutil.FanSpec())
	require.NoError(t, err)

	_, _, err = Evaluate(ctx, st, sys, "h", "r1", map[string]float64{"temp": math.Inf(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be finite")
	assert.Equal(t, engine.ErrorCode(""), engine.CodeOf(err))
}
