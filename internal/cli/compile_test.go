package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fuzzkit/internal/ir"
	"github.com/roach88/fuzzkit/internal/testutil"
)

func TestCompile_Text(t *testing.T) {
	isolate(t)
	dir := testutil.FanDir(t)

	out, _, err := execute(t, "compile", dir)
	require.NoError(t, err)

	hash, err := ir.SystemHash(testutil.FanSpec())
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Compiled system fan: 2 variable(s), 2 rule(s)")
	assert.Contains(t, out, "hash: "+hash)
	assert.Contains(t, out, "IN temp [0, 40]: [cold hot]")
	assert.Contains(t, out, "OUT fan [0, 100]: [slow fast]")
}

func TestCompile_SingleFile(t *testing.T) {
	isolate(t)
	dir := testutil.FanDir(t)

	out, _, err := execute(t, "compile", filepath.Join(dir, "fan.cue"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Compiled system fan")
}

func TestCompile_JSON(t *testing.T) {
	isolate(t)
	dir := testutil.FanDir(t)

	out, _, err := execute(t, "compile", dir, "--format", "json")
	require.NoError(t, err)

	resp, data := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	hash, err := ir.SystemHash(testutil.FanSpec())
	require.NoError(t, err)
	assert.Equal(t, hash, data["hash"])
	assert.NotNil(t, data["system"])
}

func TestCompile_OutputFile(t *testing.T) {
	isolate(t)
	dir := testutil.FanDir(t)
	target := filepath.Join(t.TempDir(), "fan.json")

	out, _, err := execute(t, "compile", dir, "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote canonical definition to "+target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	spec, err := ir.DecodeSystem(data)
	require.NoError(t, err)
	assert.Equal(t, testutil.FanSpec(), spec)

	want, err := ir.MarshalCanonical(testutil.FanSpec().ToIR())
	require.NoError(t, err)
	assert.Equal(t, string(want), string(data))
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string // written to sys.cue; empty means no file at all
		path     func(dir string) string
		wantCode string
	}{
		{
			name:     "path not found",
			path:     func(dir string) string { return filepath.Join(dir, "missing") },
			wantCode: ErrCodeNotFound,
		},
		{
			name:     "no cue files",
			path:     func(dir string) string { return dir },
			wantCode: ErrCodeNoFiles,
		},
		{
			name:     "syntax error",
			content:  "package bad\n\nsystem: {\n",
			path:     func(dir string) string { return dir },
			wantCode: ErrCodeLoadFailed,
		},
		{
			name:     "missing system block",
			content:  "package bad\n\nrule: [\"a x => b y\"]\n",
			path:     func(dir string) string { return dir },
			wantCode: ErrCodeCompile,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			dir := t.TempDir()
			if tt.content != "" {
				testutil.WriteFile(t, dir, "sys.cue", tt.content)
			}

			out, _, err := execute(t, "compile", tt.path(dir), "--format", "json")
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp, _ := decodeResponse(t, out)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}
