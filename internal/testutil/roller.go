package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/dicegraph/internal/engine"
)

// ScriptedRoller answers requests with a fixed sequence of die values.
//
// Values are consumed in request order, one per die. A scenario that asks
// for more dice than were scripted gets each face's minimum for the extra
// dice, and Err reports the shortfall so the test can fail with a useful
// message instead of a wrong total.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ScriptedRoller struct {
	mu      sync.Mutex
	values  []int
	next    int
	missing int
}

// NewScriptedRoller creates a roller that returns values in order.
func NewScriptedRoller(values ...int) *ScriptedRoller {
	return &ScriptedRoller{values: values}
}

// Roll implements engine.Roller.
func (r *ScriptedRoller) Roll(req engine.Request, ids *engine.RollIDs) engine.Response {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]engine.Roll, req.Count)
	for i := range out {
		v := req.Face.Min()
		if r.next < len(r.values) {
			v = r.values[r.next]
			r.next++
		} else {
			r.missing++
		}
		out[i] = engine.Roll{Value: v, ID: ids.Next()}
	}
	return engine.Response{Results: out}
}

// Remaining returns the number of scripted values not yet consumed.
func (r *ScriptedRoller) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values) - r.next
}

// Err reports whether more dice were requested than scripted.
func (r *ScriptedRoller) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.missing == 0 {
		return nil
	}
	return fmt.Errorf("scripted rolls exhausted: %d dice requested beyond %d scripted values", r.missing, len(r.values))
}

// Reset rewinds the script so the same values are returned again.
func (r *ScriptedRoller) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = 0
	r.missing = 0
}
