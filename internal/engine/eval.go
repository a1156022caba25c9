package engine

import (
	"cmp"
	"math"
	"slices"

	"github.com/roach88/dicegraph/internal/graph"
	"github.com/roach88/dicegraph/internal/ir"
)

var arithOps = map[graph.Kind]ir.ArithOp{
	graph.NumAdd:       ir.Add,
	graph.NumSubtract:  ir.Subtract,
	graph.NumMultiply:  ir.Multiply,
	graph.NumDivide:    ir.Divide,
	graph.NumIntDivide: ir.IntDivide,
	graph.NumModulo:    ir.Modulo,
}

var broadcastOps = map[graph.Kind]ir.ArithOp{
	graph.ListAdd:       ir.Add,
	graph.ListSubtract:  ir.Subtract,
	graph.ListMultiply:  ir.Multiply,
	graph.ListDivide:    ir.Divide,
	graph.ListIntDivide: ir.IntDivide,
	graph.ListModulo:    ir.Modulo,
}

// Reversed broadcasts take the number as left operand. Args are
// [number, list].
var reverseOps = map[graph.Kind]ir.ArithOp{
	graph.ListSubtractReverse:  ir.Subtract,
	graph.ListDivideReverse:    ir.Divide,
	graph.ListIntDivideReverse: ir.IntDivide,
	graph.ListModuloReverse:    ir.Modulo,
}

var numberFns = map[graph.Kind]ir.NumberFn{
	graph.NumFloor: ir.Floor,
	graph.NumCeil:  ir.Ceil,
	graph.NumRound: ir.Round,
	graph.NumAbs:   ir.Abs,
}

var aggregateFns = map[graph.Kind]ir.AggregateFn{
	graph.NumMax: ir.Max,
	graph.NumMin: ir.Min,
	graph.NumSum: ir.Sum,
	graph.NumAvg: ir.Avg,
	graph.NumLen: ir.Len,
}

var listFns = map[graph.Kind]ir.ListFn{
	graph.ListFloor:    ir.ListFloor,
	graph.ListCeil:     ir.ListCeil,
	graph.ListRound:    ir.ListRound,
	graph.ListAbs:      ir.ListAbs,
	graph.ListSort:     ir.Sort,
	graph.ListSortDesc: ir.SortDesc,
}

// maxCount bounds truncated counts so conversion from float is defined.
const maxCount = math.MaxInt32

// trunc truncates x toward zero. NaN is 0; magnitudes are capped.
func trunc(x float64) int {
	switch {
	case math.IsNaN(x):
		return 0
	case x >= maxCount:
		return maxCount
	case x <= -maxCount:
		return -maxCount
	}
	return int(x)
}

func (c *Context) evalNode(id graph.NodeID, n *graph.Node) (Value, bool, error) {
	switch {
	case n.Kind == graph.Constant:
		return Number(n.Value), true, nil
	case n.Kind.IsDynamic():
		return c.evalDynamic(id, n)
	}

	ready, err := c.evalAll(n.Children())
	if err != nil || !ready {
		return nil, false, err
	}
	if n.Kind.IsDiceBase() {
		return c.evalDiceBase(id, n)
	}
	v, err := c.compute(id, n)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (c *Context) number(id graph.NodeID) (float64, error) {
	return asNumber(id, c.value(id))
}

func (c *Context) list(id graph.NodeID) ([]float64, error) {
	return asList(id, c.value(id))
}

func (c *Context) dicePool(id graph.NodeID) (*DicePool, error) {
	return asDicePool(id, c.value(id))
}

func (c *Context) evalDiceBase(id graph.NodeID, n *graph.Node) (Value, bool, error) {
	count, err := c.number(n.Args[0])
	if err != nil {
		return nil, false, err
	}
	face := Face{Kind: FaceFudge}
	switch n.Kind {
	case graph.DiceCoin:
		face = Face{Kind: FaceCoin}
	case graph.DiceStandard:
		sides, err := c.number(n.Args[1])
		if err != nil {
			return nil, false, err
		}
		if trunc(sides) <= 0 {
			return &DicePool{Face: Numbered(0)}, true, nil
		}
		face = Numbered(trunc(sides))
	}
	if trunc(count) <= 0 {
		return &DicePool{Face: face}, true, nil
	}
	c.request(id, face, trunc(count))
	return nil, false, nil
}

func (c *Context) compute(id graph.NodeID, n *graph.Node) (Value, error) {
	k := n.Kind
	if op, ok := arithOps[k]; ok {
		a, err := c.number(n.Args[0])
		if err != nil {
			return nil, err
		}
		b, err := c.number(n.Args[1])
		if err != nil {
			return nil, err
		}
		v, ok := op.Apply(a, b)
		if !ok {
			return nil, nodeError(ErrCodeDivisionByZero, id, "division by zero")
		}
		return Number(v), nil
	}
	if op, ok := broadcastOps[k]; ok {
		return c.broadcast(id, n, op)
	}
	if op, ok := reverseOps[k]; ok {
		return c.broadcastReverse(id, n, op)
	}
	if fn, ok := numberFns[k]; ok {
		x, err := c.number(n.Args[0])
		if err != nil {
			return nil, err
		}
		return Number(fn.Apply(x)), nil
	}
	if fn, ok := aggregateFns[k]; ok {
		vals, err := c.list(n.Args[0])
		if err != nil {
			return nil, err
		}
		v, ok := fn.Apply(vals)
		if !ok {
			return nil, nodeError(ErrCodeEmptyList, id, "%s of empty list", fn)
		}
		return Number(v), nil
	}
	if fn, ok := listFns[k]; ok {
		vals, err := c.list(n.Args[0])
		if err != nil {
			return nil, err
		}
		return List(fn.Apply(vals)), nil
	}

	switch k {
	case graph.ListConstruct:
		out := make(List, len(n.Args))
		for i, a := range n.Args {
			x, err := c.number(a)
			if err != nil {
				return nil, err
			}
			out[i] = x
		}
		return out, nil

	case graph.NumNegate:
		x, err := c.number(n.Args[0])
		if err != nil {
			return nil, err
		}
		return Number(-x), nil

	case graph.Concat:
		a, err := c.list(n.Args[0])
		if err != nil {
			return nil, err
		}
		b, err := c.list(n.Args[1])
		if err != nil {
			return nil, err
		}
		return List(slices.Concat(a, b)), nil

	case graph.ListMax, graph.ListMin:
		vals, err := c.list(n.Args[0])
		if err != nil {
			return nil, err
		}
		count, err := c.number(n.Args[1])
		if err != nil {
			return nil, err
		}
		return List(ir.PickOrdered(vals, count, k == graph.ListMax)), nil

	case graph.ListFilter:
		vals, err := c.list(n.Args[0])
		if err != nil {
			return nil, err
		}
		target, err := c.number(n.Param.Value)
		if err != nil {
			return nil, err
		}
		return List(ir.FilterValues(vals, n.Param.Op, target)), nil

	case graph.ListFromDicePool:
		p, err := c.dicePool(n.Args[0])
		if err != nil {
			return nil, err
		}
		out := List{}
		for _, d := range p.Details {
			if d.Kept {
				out = append(out, float64(d.Result))
			}
		}
		return out, nil

	case graph.ListFromSuccessPool:
		p, err := asSuccessPool(n.Args[0], c.value(n.Args[0]))
		if err != nil {
			return nil, err
		}
		out := List{}
		for _, d := range p.Details {
			if !d.Kept {
				continue
			}
			switch d.Outcome {
			case OutcomeSuccess:
				out = append(out, 1)
			case OutcomeFailure:
				out = append(out, -1)
			default:
				out = append(out, 0)
			}
		}
		return out, nil

	case graph.DiceKeepHigh, graph.DiceKeepLow, graph.DiceDropHigh, graph.DiceDropLow:
		return c.keepDrop(n)

	case graph.DiceMin, graph.DiceMax:
		return c.clamp(n)

	case graph.DiceSubtractFailures:
		return c.subtractFailures(n)

	case graph.DiceCountSuccessesFromPool, graph.DiceDeductFailuresFromPool,
		graph.DiceCountSuccesses, graph.DiceDeductFailures:
		return c.successes(n)
	}
	return nil, nodeError(ErrCodeTypeMismatch, id, "unsupported node kind %s", k)
}

func (c *Context) broadcast(id graph.NodeID, n *graph.Node, op ir.ArithOp) (Value, error) {
	vals, err := c.list(n.Args[0])
	if err != nil {
		return nil, err
	}
	x, err := c.number(n.Args[1])
	if err != nil {
		return nil, err
	}
	out := make(List, len(vals))
	for i, v := range vals {
		r, ok := op.Apply(v, x)
		if !ok {
			return nil, nodeError(ErrCodeDivisionByZero, id, "division by zero")
		}
		out[i] = r
	}
	return out, nil
}

func (c *Context) broadcastReverse(id graph.NodeID, n *graph.Node, op ir.ArithOp) (Value, error) {
	x, err := c.number(n.Args[0])
	if err != nil {
		return nil, err
	}
	vals, err := c.list(n.Args[1])
	if err != nil {
		return nil, err
	}
	out := make(List, len(vals))
	for i, v := range vals {
		r, ok := op.Apply(x, v)
		if !ok {
			return nil, nodeError(ErrCodeDivisionByZero, id, "division by zero in reverse list division at index %d", i)
		}
		out[i] = r
	}
	return out, nil
}

// keepDrop keeps or drops the highest or lowest kept dice. Ties keep the
// earlier die.
func (c *Context) keepDrop(n *graph.Node) (Value, error) {
	src, err := c.dicePool(n.Args[0])
	if err != nil {
		return nil, err
	}
	k, err := c.number(n.Args[1])
	if err != nil {
		return nil, err
	}
	count := max(trunc(k), 0)
	high := n.Kind == graph.DiceKeepHigh || n.Kind == graph.DiceDropHigh
	keep := n.Kind == graph.DiceKeepHigh || n.Kind == graph.DiceKeepLow

	p := src.clone()
	var active []int
	for i, d := range p.Details {
		if d.Kept {
			active = append(active, i)
		}
	}
	slices.SortStableFunc(active, func(a, b int) int {
		if high {
			return cmp.Compare(p.Details[b].Result, p.Details[a].Result)
		}
		return cmp.Compare(p.Details[a].Result, p.Details[b].Result)
	})

	var dropped []int
	if keep {
		if count < len(active) {
			dropped = active[count:]
		}
	} else {
		dropped = active[:min(count, len(active))]
	}
	for _, i := range dropped {
		p.Details[i].Kept = false
		c.remove(p.Details[i])
	}
	p.renewTotal()
	return p, nil
}

// clamp raises (min) or lowers (max) kept results to the target.
func (c *Context) clamp(n *graph.Node) (Value, error) {
	src, err := c.dicePool(n.Args[0])
	if err != nil {
		return nil, err
	}
	t, err := c.number(n.Args[1])
	if err != nil {
		return nil, err
	}
	target := trunc(t)
	p := src.clone()
	for i := range p.Details {
		d := &p.Details[i]
		if !d.Kept {
			continue
		}
		if n.Kind == graph.DiceMin && d.Result < target || n.Kind == graph.DiceMax && d.Result > target {
			d.Result = target
		}
	}
	p.renewTotal()
	return p, nil
}

func (c *Context) subtractFailures(n *graph.Node) (Value, error) {
	src, err := c.dicePool(n.Args[0])
	if err != nil {
		return nil, err
	}
	target, err := c.number(n.Param.Value)
	if err != nil {
		return nil, err
	}
	p := src.clone()
	for i := range p.Details {
		d := &p.Details[i]
		if d.Kept && n.Param.Op.Compare(float64(d.Result), target) {
			d.Kept = false
			c.remove(*d)
		}
	}
	p.renewTotal()
	return p, nil
}

// successes marks matching kept dice as successes (cs) or failures (df).
// The source is either a dice pool or an earlier success pool.
func (c *Context) successes(n *graph.Node) (Value, error) {
	target, err := c.number(n.Param.Value)
	if err != nil {
		return nil, err
	}

	var p *SuccessPool
	switch n.Kind {
	case graph.DiceCountSuccessesFromPool, graph.DiceDeductFailuresFromPool:
		src, err := c.dicePool(n.Args[0])
		if err != nil {
			return nil, err
		}
		p = &SuccessPool{Face: src.Face, Details: cloneDetails(src.Details)}
	default:
		src, err := asSuccessPool(n.Args[0], c.value(n.Args[0]))
		if err != nil {
			return nil, err
		}
		p = src.clone()
	}

	outcome := OutcomeSuccess
	if n.Kind == graph.DiceDeductFailuresFromPool || n.Kind == graph.DiceDeductFailures {
		outcome = OutcomeFailure
	}
	for i := range p.Details {
		d := &p.Details[i]
		if d.Kept && n.Param.Op.Compare(float64(d.Result), target) {
			d.Outcome = outcome
		}
	}
	p.renewCount()
	return p, nil
}
