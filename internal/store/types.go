package store

import (
	"fmt"

	"github.com/roach88/fuzzkit/internal/ir"
)

// SystemRecord is a system definition stored by content hash.
type SystemRecord struct {
	Hash        string
	Name        string
	Description string
	Definition  string // canonical JSON of the system
	IRVersion   string
}

// NewSystemRecord computes the hash and canonical definition of spec.
func NewSystemRecord(spec ir.SystemSpec) (SystemRecord, error) {
	def, err := ir.MarshalCanonical(spec.ToIR())
	if err != nil {
		return SystemRecord{}, fmt.Errorf("system record: %w", err)
	}
	hash, err := ir.SystemHash(spec)
	if err != nil {
		return SystemRecord{}, fmt.Errorf("system record: %w", err)
	}
	return SystemRecord{
		Hash:        hash,
		Name:        spec.Name,
		Description: spec.Description,
		Definition:  string(def),
		IRVersion:   ir.IRVersion,
	}, nil
}

// Spec decodes the stored definition.
func (r SystemRecord) Spec() (ir.SystemSpec, error) {
	return ir.DecodeSystem([]byte(r.Definition))
}

// FiringRecord is one rule firing of a recorded run.
type FiringRecord struct {
	Rule     int     `json:"rule"`
	Strength float64 `json:"strength"`
	Variable string  `json:"variable"`
	Set      string  `json:"set"`
}

// RunOutput is the result of a successful run.
type RunOutput struct {
	Variable      string
	Label         string
	Value         float64
	TotalStrength float64
	Firings       []FiringRecord
}

// RunError is the failure of a run.
type RunError struct {
	Code    string
	Message string
}

// RunRecord is one evaluation of a system. Exactly one of Output and Error
// is set.
type RunRecord struct {
	ID            string
	Seq           int64 // assigned by WriteRun
	SystemHash    string
	Inputs        map[string]float64
	InputsHash    string // computed by WriteRun when empty
	Output        *RunOutput
	Error         *RunError
	EngineVersion string
}

// RunFilter selects runs for ListRuns.
type RunFilter struct {
	// SystemHash restricts to one system; empty means all.
	SystemHash string

	// Limit keeps only the most recent n runs (still returned oldest
	// first); 0 means no limit.
	Limit int
}
