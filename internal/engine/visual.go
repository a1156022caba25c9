package engine

import "slices"

// DefaultVisualFaces are the numbered dice a 3D dice box can show.
var DefaultVisualFaces = []int{4, 6, 8, 10, 12, 20, 100}

// VisualRequest is a request the dice box can roll. Index is the position
// of the request in Session.PendingRequests.
type VisualRequest struct {
	Index int `json:"index"`
	Sides int `json:"sides"`
	Count int `json:"count"`
}

// VisualDie identifies a die rendered by the dice box.
type VisualDie struct {
	Group float64 `json:"group_id"`
	Roll  float64 `json:"roll_id"`
}

// VisualResponse answers the request at Index with the dice the box rolled.
// Dice and Values are parallel.
type VisualResponse struct {
	Index  int         `json:"index"`
	Dice   []VisualDie `json:"dice"`
	Values []float64   `json:"values"`
}

// VisualSession lets a dice box roll the dice it can show. Requests it
// cannot show are filled by a fallback roller.
//
// Thread-safety: VisualSession is NOT safe for concurrent use.
type VisualSession struct {
	s      *Session
	roller Roller
	faces  []int
	dice   map[RollID]VisualDie
}

// VisualOption allows configuration of a visual session.
type VisualOption func(*VisualSession)

// WithVisualFaces replaces the numbered faces the dice box can show.
func WithVisualFaces(faces ...int) VisualOption {
	return func(v *VisualSession) {
		v.faces = slices.Clone(faces)
	}
}

// NewVisualSession wraps s. fallback rolls every request the dice box does
// not answer.
func NewVisualSession(s *Session, fallback Roller, opts ...VisualOption) *VisualSession {
	v := &VisualSession{
		s:      s,
		roller: fallback,
		faces:  DefaultVisualFaces,
		dice:   make(map[RollID]VisualDie),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Session returns the wrapped session.
func (v *VisualSession) Session() *Session {
	return v.s
}

func (v *VisualSession) visual(f Face) bool {
	return f.Kind == FaceNumbered && slices.Contains(v.faces, f.Sides)
}

// VisualRequests lists the pending requests the dice box can roll.
func (v *VisualSession) VisualRequests() ([]VisualRequest, error) {
	requests, err := v.s.PendingRequests()
	if err != nil {
		return nil, err
	}
	out := []VisualRequest{}
	for i, r := range requests {
		if v.visual(r.Face) {
			out = append(out, VisualRequest{Index: i, Sides: r.Face.Sides, Count: r.Count})
		}
	}
	return out, nil
}

// SubmitVisual answers the pending requests. Requests without a visual
// response are rolled by the fallback roller. Malformed visual responses
// are rejected before anything is submitted, leaving the session waiting.
func (v *VisualSession) SubmitVisual(visual []VisualResponse) error {
	requests, err := v.s.PendingRequests()
	if err != nil {
		return err
	}

	answered := make([]*VisualResponse, len(requests))
	for i := range visual {
		r := &visual[i]
		if r.Index < 0 || r.Index >= len(requests) {
			return protocolError("visual response index %d out of range [0, %d)", r.Index, len(requests))
		}
		if answered[r.Index] != nil {
			return protocolError("duplicate visual response for index %d", r.Index)
		}
		if len(r.Values) != len(r.Dice) {
			return protocolError("visual response %d has %d values for %d dice", r.Index, len(r.Values), len(r.Dice))
		}
		if want := requests[r.Index].Count; len(r.Values) != want {
			return protocolError("visual response %d has %d values, expected %d", r.Index, len(r.Values), want)
		}
		answered[r.Index] = r
	}

	ids := v.s.RollIDs()
	responses := make([]Response, len(requests))
	for i, req := range requests {
		r := answered[i]
		if r == nil {
			responses[i] = v.roller.Roll(req, ids)
			continue
		}
		rolls := make([]Roll, len(r.Values))
		for j, x := range r.Values {
			id := ids.Next()
			v.dice[id] = r.Dice[j]
			rolls[j] = Roll{Value: trunc(x), ID: id}
		}
		responses[i] = Response{Results: rolls}
	}
	return v.s.SubmitResponses(responses)
}

// Removed maps the session's remove list to the dice box dice that should
// disappear. Dice rolled by the fallback roller are not listed.
func (v *VisualSession) Removed() []VisualDie {
	out := []VisualDie{}
	for _, id := range v.s.Removed() {
		if d, ok := v.dice[id]; ok {
			out = append(out, d)
		}
	}
	return out
}
