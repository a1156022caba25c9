package engine

import (
	"slices"

	"github.com/roach88/dicegraph/internal/graph"
	"github.com/roach88/dicegraph/internal/render"
)

// FaceKind distinguishes numbered dice from fudge and coin dice.
type FaceKind int

const (
	FaceNumbered FaceKind = iota
	FaceFudge
	FaceCoin
)

// Face describes the faces of a die. Sides is only meaningful for
// FaceNumbered.
type Face struct {
	Kind  FaceKind
	Sides int
}

// Numbered returns a numbered face with the given sides.
func Numbered(sides int) Face {
	return Face{Kind: FaceNumbered, Sides: sides}
}

// Min returns the lowest result the face can show.
func (f Face) Min() int {
	switch f.Kind {
	case FaceFudge:
		return -1
	case FaceCoin:
		return 0
	}
	return 1
}

// Max returns the highest result the face can show.
func (f Face) Max() int {
	if f.Kind == FaceNumbered {
		return f.Sides
	}
	return 1
}

// String returns the face in dice notation.
func (f Face) String() string {
	return f.summary().String()
}

func (f Face) summary() render.Face {
	switch f.Kind {
	case FaceFudge:
		return render.Face{Type: "fudge"}
	case FaceCoin:
		return render.Face{Type: "coin"}
	}
	return render.Face{Type: "standard", Sides: f.Sides}
}

// Outcome marks a die in a success pool.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return render.OutcomeSuccess
	case OutcomeFailure:
		return render.OutcomeFailure
	}
	return render.OutcomeNone
}

// DieDetail records everything that happened to one die.
type DieDetail struct {
	Result   int
	Kept     bool
	RollIDs  []RollID
	History  []int
	Rerolled bool
	Exploded int
	Outcome  Outcome
}

// DicePool is a set of dice of one face. Total is the sum of kept results.
type DicePool struct {
	Total   int
	Face    Face
	Details []DieDetail
}

// SuccessPool is a dice pool whose dice count as successes or failures.
// Count is kept successes minus kept failures.
type SuccessPool struct {
	Count   int
	Face    Face
	Details []DieDetail
}

// Value is the result of a graph node: Number, List, *DicePool or
// *SuccessPool.
type Value interface {
	valueKind() string
}

// Number is a scalar value.
type Number float64

// List is a list of scalars.
type List []float64

func (Number) valueKind() string       { return "number" }
func (List) valueKind() string         { return "list" }
func (*DicePool) valueKind() string    { return "dice pool" }
func (*SuccessPool) valueKind() string { return "success pool" }

func newPool(face Face, rolls []Roll) *DicePool {
	p := &DicePool{Face: face, Details: make([]DieDetail, 0, len(rolls))}
	for _, r := range rolls {
		p.Details = append(p.Details, newDetail(r))
	}
	p.renewTotal()
	return p
}

func newDetail(r Roll) DieDetail {
	return DieDetail{
		Result:  r.Value,
		Kept:    true,
		RollIDs: []RollID{r.ID},
		History: []int{r.Value},
	}
}

func (p *DicePool) renewTotal() {
	p.Total = 0
	for _, d := range p.Details {
		if d.Kept {
			p.Total += d.Result
		}
	}
}

func cloneDetails(details []DieDetail) []DieDetail {
	out := make([]DieDetail, len(details))
	for i, d := range details {
		d.RollIDs = slices.Clone(d.RollIDs)
		d.History = slices.Clone(d.History)
		out[i] = d
	}
	return out
}

func (p *DicePool) clone() *DicePool {
	return &DicePool{Total: p.Total, Face: p.Face, Details: cloneDetails(p.Details)}
}

func (p *SuccessPool) renewCount() {
	p.Count = 0
	for _, d := range p.Details {
		if !d.Kept {
			continue
		}
		switch d.Outcome {
		case OutcomeSuccess:
			p.Count++
		case OutcomeFailure:
			p.Count--
		}
	}
}

func (p *SuccessPool) clone() *SuccessPool {
	return &SuccessPool{Count: p.Count, Face: p.Face, Details: cloneDetails(p.Details)}
}

func mismatch(id graph.NodeID, want string, got Value) *RuntimeError {
	return nodeError(ErrCodeTypeMismatch, id, "expected %s, got %s", want, got.valueKind())
}

// asNumber coerces pools to their total or count.
func asNumber(id graph.NodeID, v Value) (float64, error) {
	switch x := v.(type) {
	case Number:
		return float64(x), nil
	case *DicePool:
		return float64(x.Total), nil
	case *SuccessPool:
		return float64(x.Count), nil
	}
	return 0, mismatch(id, "number", v)
}

func asList(id graph.NodeID, v Value) ([]float64, error) {
	if l, ok := v.(List); ok {
		return l, nil
	}
	return nil, mismatch(id, "list", v)
}

func asDicePool(id graph.NodeID, v Value) (*DicePool, error) {
	if p, ok := v.(*DicePool); ok {
		return p, nil
	}
	return nil, mismatch(id, "dice pool", v)
}

func asSuccessPool(id graph.NodeID, v Value) (*SuccessPool, error) {
	if p, ok := v.(*SuccessPool); ok {
		return p, nil
	}
	return nil, mismatch(id, "success pool", v)
}

// Summary converts v to its display form. A nil value is not computed.
func Summary(v Value) render.Value {
	switch x := v.(type) {
	case Number:
		return render.Value{Kind: render.KindNumber, Number: float64(x)}
	case List:
		return render.Value{Kind: render.KindList, List: slices.Clone([]float64(x))}
	case *DicePool:
		return poolSummary(render.KindDicePool, x.Total, x.Face, x.Details)
	case *SuccessPool:
		return poolSummary(render.KindSuccessPool, x.Count, x.Face, x.Details)
	}
	return render.Value{Kind: render.KindNotComputed}
}

func poolSummary(kind render.ValueKind, total int, face Face, details []DieDetail) render.Value {
	f := face.summary()
	out := render.Value{Kind: kind, Total: total, Face: &f, Dice: make([]render.Die, len(details))}
	for i, d := range details {
		out.Dice[i] = render.Die{
			Result:   d.Result,
			Kept:     d.Kept,
			History:  slices.Clone(d.History),
			Rerolled: d.Rerolled,
			Exploded: d.Exploded,
			Outcome:  d.Outcome.String(),
		}
	}
	return out
}

// String formats v for logs and error messages.
func String(v Value) string {
	if v == nil {
		return "<nil>"
	}
	return Summary(v).String()
}
