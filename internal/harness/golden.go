package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/dicegraph/internal/ir"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	SessionID    string       `json:"session_id,omitempty"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonical converts a TraceSnapshot to JSON values for canonical
// serialization. Empty fields are left out.
func (s *TraceSnapshot) toCanonical() ir.JSONObject {
	trace := make(ir.JSONArray, len(s.Trace))
	for i, event := range s.Trace {
		obj := ir.JSONObject{
			"type": ir.JSONString(event.Type),
			"step": ir.JSONInt(event.Step),
			"seq":  ir.JSONInt(event.Seq),
		}
		if event.Type == EventRequest || event.Type == EventResponse {
			obj["node"] = ir.JSONInt(event.Node)
		}
		if event.Face != "" {
			obj["face"] = ir.JSONString(event.Face)
		}
		if event.Count != 0 {
			obj["count"] = ir.JSONInt(event.Count)
		}
		if event.Values != nil {
			values := make(ir.JSONArray, len(event.Values))
			for j, v := range event.Values {
				values[j] = ir.JSONInt(v)
			}
			obj["values"] = values
		}
		if event.Explain != "" {
			obj["explain"] = ir.JSONString(event.Explain)
		}
		if event.Error != "" {
			obj["error"] = ir.JSONString(event.Error)
		}
		trace[i] = obj
	}

	out := ir.JSONObject{
		"scenario_name": ir.JSONString(s.ScenarioName),
		"trace":         trace,
	}
	if s.SessionID != "" {
		out["session_id"] = ir.JSONString(s.SessionID)
	}
	return out
}

// MarshalTrace returns the canonical JSON of a scenario trace.
func MarshalTrace(name, sessionID string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: name,
		SessionID:    sessionID,
		Trace:        result.Trace,
	}
	return ir.MarshalCanonical(snapshot.toCanonical())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can check Pass, or an error if the
// scenario could not be executed. Test failure (via goldie) occurs if the
// trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, scenario.SessionID, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName, sessionID string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, sessionID, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
