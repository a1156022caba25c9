package engine

import (
	"github.com/roach88/dicegraph/internal/graph"
	"github.com/roach88/dicegraph/internal/ir"
)

// dynamicState is the memory of an explode, compound or reroll node while
// it is still asking for dice.
type dynamicState struct {
	pool       *DicePool
	op         ir.CompareOp
	target     float64
	limitTimes *int
	limitCount *int
	pending    []pendingDie
}

// pendingDie is a die the node asked for. index names the die that
// triggered the request; roll is filled by Apply.
type pendingDie struct {
	index int
	roll  *Roll
}

// freshDie is a result the comparator has not seen yet.
type freshDie struct {
	index int
	value int
}

// mergeFunc folds one answered roll into the pool and returns the result
// the comparator must look at next.
type mergeFunc func(c *Context, p *DicePool, index int, r Roll) freshDie

var merges = map[graph.Kind]mergeFunc{
	graph.DiceExplode:         mergeExplode,
	graph.DiceCompoundExplode: mergeCompound,
	graph.DiceReroll:          mergeReroll,
}

// mergeExplode adds the roll as a new die.
func mergeExplode(_ *Context, p *DicePool, index int, r Roll) freshDie {
	p.Details[index].Exploded++
	p.Details = append(p.Details, newDetail(r))
	return freshDie{index: len(p.Details) - 1, value: r.Value}
}

// mergeCompound adds the roll onto the die that exploded.
func mergeCompound(_ *Context, p *DicePool, index int, r Roll) freshDie {
	d := &p.Details[index]
	d.Exploded++
	d.Result += r.Value
	d.History = append(d.History, r.Value)
	d.RollIDs = append(d.RollIDs, r.ID)
	return freshDie{index: index, value: r.Value}
}

// mergeReroll discards the die and adds the roll in its place at the end.
func mergeReroll(c *Context, p *DicePool, index int, r Roll) freshDie {
	d := &p.Details[index]
	d.Rerolled = true
	d.Kept = false
	c.remove(*d)
	p.Details = append(p.Details, newDetail(r))
	return freshDie{index: len(p.Details) - 1, value: r.Value}
}

func (st *dynamicState) tryResumeTimes() bool {
	return tryResume(st.limitTimes)
}

func (st *dynamicState) tryResumeCount() bool {
	return tryResume(st.limitCount)
}

// tryResume consumes one unit of an optional limit.
func tryResume(limit *int) bool {
	if limit == nil {
		return true
	}
	if *limit > 0 {
		*limit--
		return true
	}
	return false
}

// evalDynamic drives explode, compound and reroll nodes.
//
// On the first visit the pool, comparison value and limits must all be
// computed; the node then snapshots the pool and every kept die is fresh.
// On later visits the fresh dice are the answered pending rolls. Each round
// the fresh dice that match the comparator are requested again, until the
// times limit, the count limit or the dice themselves stop it.
func (c *Context) evalDynamic(id graph.NodeID, n *graph.Node) (Value, bool, error) {
	s := &c.memory[id]
	var fresh []freshDie

	switch s.state {
	case slotWaiting:
		ready, err := c.evalAll(n.Children())
		if err != nil || !ready {
			return nil, false, err
		}
		st, err := c.initDynamic(n)
		if err != nil {
			return nil, false, err
		}
		s.state = slotDynamic
		s.dyn = st
		for i, d := range st.pool.Details {
			if d.Kept {
				fresh = append(fresh, freshDie{index: i, value: d.Result})
			}
		}
	case slotDynamic:
		merge := merges[n.Kind]
		for _, p := range s.dyn.pending {
			if p.roll == nil {
				return nil, false, nodeError(ErrCodeProtocol, id, "missing roll for pending die %d", p.index)
			}
			fresh = append(fresh, merge(c, s.dyn.pool, p.index, *p.roll))
		}
	}

	st := s.dyn
	st.pending = nil
	if st.tryResumeTimes() {
		for _, f := range fresh {
			if st.op.Compare(float64(f.value), st.target) && st.tryResumeCount() {
				st.pending = append(st.pending, pendingDie{index: f.index})
			}
		}
	}
	if len(st.pending) > 0 {
		c.request(id, st.pool.Face, len(st.pending))
		return nil, false, nil
	}
	st.pool.renewTotal()
	return st.pool, true, nil
}

func (c *Context) initDynamic(n *graph.Node) (*dynamicState, error) {
	src, err := c.dicePool(n.Args[0])
	if err != nil {
		return nil, err
	}
	st := &dynamicState{
		pool:   src.clone(),
		op:     ir.Equal,
		target: float64(src.Face.Max()),
	}
	if n.Param != nil {
		st.op = n.Param.Op
		if st.target, err = c.number(n.Param.Value); err != nil {
			return nil, err
		}
	}
	if n.Limit != nil {
		if st.limitTimes, err = c.limit(n.Limit.Times); err != nil {
			return nil, err
		}
		if st.limitCount, err = c.limit(n.Limit.Counts); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (c *Context) limit(id graph.NodeID) (*int, error) {
	if id == graph.NoNode {
		return nil, nil
	}
	x, err := c.number(id)
	if err != nil {
		return nil, err
	}
	n := trunc(x)
	return &n, nil
}
