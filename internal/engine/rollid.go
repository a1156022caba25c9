package engine

import "sync/atomic"

// RollID identifies one physical roll. Ids are allocated by whoever produces
// randomness and let a front end tie a dropped or rerolled die back to what
// it showed the user.
type RollID uint32

// RollIDs is a monotonic roll id allocator.
//
// Every die rolled in a session receives a strictly increasing id from one
// allocator, so the remove list and the visual mapping stay unambiguous even
// when several requests are filled in one round.
//
// Thread-safety: RollIDs is safe for concurrent use (atomic operations).
// A Session itself is single threaded; the atomic only matters when one
// allocator is shared by rollers feeding several sessions.
type RollIDs struct {
	seq atomic.Uint32
}

// NewRollIDs creates an allocator whose first id is 1.
func NewRollIDs() *RollIDs {
	return &RollIDs{}
}

// NewRollIDsAt creates an allocator that continues after start.
// Used when replaying a logged roll to keep ids stable.
func NewRollIDsAt(start RollID) *RollIDs {
	r := &RollIDs{}
	r.seq.Store(uint32(start))
	return r
}

// Next allocates the next id.
func (r *RollIDs) Next() RollID {
	return RollID(r.seq.Add(1))
}

// Current returns the last allocated id without allocating.
func (r *RollIDs) Current() RollID {
	return RollID(r.seq.Load())
}
