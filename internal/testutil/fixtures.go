package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/fuzzkit/internal/ir"
)

// FanCUE is the CUE form of FanSpec.
const FanCUE = `package fan

system: {
	name:        "fan"
	description: "room temperature to fan speed"
}

variable: temp: {
	kind:  "IN"
	range: [0, 40]
	set: cold: {shape: "TRI", points: [0, 0, 20]}
	set: hot: {shape: "TRI", points: [20, 40, 40]}
}

variable: fan: {
	kind:  "OUT"
	range: [0, 100]
	set: slow: {shape: "TRI", points: [0, 0, 60]}
	set: fast: {shape: "TRI", points: [40, 100, 100]}
}

rule: [
	"temp hot => fan fast",
	"temp cold => fan slow",
]
`

// FanSpec returns a two-rule controller whose outputs are exact:
// temp=30 gives (fan, fast, 80, 0.5), temp=10 gives (fan, slow, 20, 0.5)
// and temp=20 fires nothing.
func FanSpec() ir.SystemSpec {
	return ir.SystemSpec{
		Name:        "fan",
		Description: "room temperature to fan speed",
		Variables: []ir.Variable{
			{
				Name: "temp", Kind: ir.KindInput, Range: ir.Range{Lower: 0, Upper: 40},
				Sets: []ir.FuzzySet{
					{Name: "cold", Shape: ir.ShapeTriangular, Points: []float64{0, 0, 20}},
					{Name: "hot", Shape: ir.ShapeTriangular, Points: []float64{20, 40, 40}},
				},
			},
			{
				Name: "fan", Kind: ir.KindOutput, Range: ir.Range{Lower: 0, Upper: 100},
				Sets: []ir.FuzzySet{
					{Name: "slow", Shape: ir.ShapeTriangular, Points: []float64{0, 0, 60}},
					{Name: "fast", Shape: ir.ShapeTriangular, Points: []float64{40, 100, 100}},
				},
			},
		},
		Rules: []ir.Rule{
			{Antecedent: []ir.Term{ir.Atom("temp", "hot")}, Consequent: ir.Consequent{Variable: "fan", Set: "fast"}},
			{Antecedent: []ir.Term{ir.Atom("temp", "cold")}, Consequent: ir.Consequent{Variable: "fan", Set: "slow"}},
		},
	}
}

// WriteFile writes content to dir/name, creating parent directories, and
// returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// FanDir writes FanCUE into a fresh temp directory and returns it.
func FanDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	WriteFile(t, dir, "fan.cue", FanCUE)
	return dir
}
