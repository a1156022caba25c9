package harness

// Trace event types.
const (
	EventRequest  = "request"
	EventResponse = "response"
	EventResult   = "result"
	EventError    = "error"
)

// TraceEvent is one entry of a scenario trace: a request the engine made,
// the canned response it got, or how a step ended.
type TraceEvent struct {
	Type    string `json:"type"`
	Step    int    `json:"step"`
	Node    int    `json:"node,omitempty"`
	Face    string `json:"face,omitempty"`
	Count   int    `json:"count,omitempty"`
	Values  []int  `json:"values,omitempty"`
	Explain string `json:"explain,omitempty"`
	Error   string `json:"error,omitempty"`
	Seq     int64  `json:"seq"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains all requests, responses and step outcomes in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
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

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEvent appends e to the trace.
func (r *Result) AddEvent(e TraceEvent) {
	r.Trace = append(r.Trace, e)
}
