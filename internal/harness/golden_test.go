package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarios runs every scenario under testdata/scenarios and compares
// its trace with the golden file of the same name.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -run TestScenarios -update
func TestScenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "scenario should pass: errors=%v", result.Errors)
		})
	}
}

func TestTraceSnapshot_Canonical(t *testing.T) {
	result := NewResult()
	result.AddEvent(TraceEvent{Type: EventRequest, Step: 0, Node: 0, Face: "dF", Count: 2, Seq: 1})
	result.AddEvent(TraceEvent{Type: EventResponse, Step: 0, Node: 0, Values: []int{-1, 0}, Seq: 2})
	result.AddEvent(TraceEvent{Type: EventError, Step: 1, Error: "boom", Seq: 3})

	data, err := MarshalTrace("snap", "", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"snap","trace":[`+
			`{"count":2,"face":"dF","node":0,"seq":1,"step":0,"type":"request"},`+
			`{"node":0,"seq":2,"step":0,"type":"response","values":[-1,0]},`+
			`{"error":"boom","seq":3,"step":1,"type":"error"}]}`,
		string(data))
}

func TestAssertGolden_FromResult(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/mixed_pools.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NoError(t, AssertGolden(t, "mixed_pools", scenario.SessionID, result))
}
