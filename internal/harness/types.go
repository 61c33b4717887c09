package harness

// TraceEvent is one recorded run, as read back from the run log.
// Exactly one of Output and Error is set.
type TraceEvent struct {
	Seq    int64              `json:"seq"`
	ID     string             `json:"id"`
	Case   string             `json:"case"`
	Inputs map[string]float64 `json:"inputs"`
	Output *TraceOutput       `json:"output,omitempty"`
	Error  *TraceError        `json:"error,omitempty"`
}

// TraceOutput is the outcome of a successful run.
type TraceOutput struct {
	Variable      string        `json:"variable"`
	Label         string        `json:"label"`
	Value         float64       `json:"value"`
	TotalStrength float64       `json:"total_strength"`
	Firings       []TraceFiring `json:"firings"`
}

// TraceFiring is one rule's strength within a run.
type TraceFiring struct {
	Rule     int     `json:"rule"`
	Strength float64 `json:"strength"`
	Variable string  `json:"variable"`
	Set      string  `json:"set"`
}

// TraceError is the failure of a run.
type TraceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation matched.
	Pass bool `json:"pass"`

	// SystemHash is the content hash of the system under test.
	SystemHash string `json:"system_hash"`

	// Trace holds every run in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
