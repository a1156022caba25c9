// Package harness runs dice scenarios against the real evaluation pipeline.
//
// A scenario names expressions together with the die values a caller would
// answer the engine's requests with. The harness drives a session for each
// expression with those canned responses, records every request and
// response in a trace, logs each finished roll to an in-memory roll log and
// then checks expectations and assertions.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	session_id: fixed-session          # optional
//	budgets: { rounds: 10, dice: 50 }  # optional
//	rolls:
//	  - expression: "4d6kh3"
//	    responses: [3, 1, 6, 4]
//	    expect:
//	      explain: "4d6kh3 [3 (1) 6 4] = 13"
//	      total: 13
//	  - expression: "1d6 / 0"
//	    responses: [4]
//	    expect:
//	      error: "division by zero"
//	assertions:
//	  - type: request_contains
//	    face: d6
//	    count: 4
//	  - type: final_state
//	    table: rolls
//	    where: { expression: "4d6kh3" }
//	    expect: { total: 13 }
//
// # Assertion Types
//
//   - request_contains: a request for face (and count, if given) was made
//   - request_order: faces were first requested in the listed order
//   - request_count: face was requested exactly count times
//   - final_state: a row of the roll log holds the expected values
//
// # Deterministic Testing
//
// Session ids come from the scenario, roll log ids are numbered per step
// and the log's clock is fixed, so traces are identical across runs and can
// be compared against golden files with RunWithGolden.
package harness
