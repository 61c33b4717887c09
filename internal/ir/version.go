package ir

// Version constants for the IR schema and engine.
const (
	// IRVersion is the IR schema version. Bump when SystemSpec changes shape.
	IRVersion = "1"

	// EngineVersion is the fuzzkit engine version recorded with every run.
	EngineVersion = "0.1.0"
)
