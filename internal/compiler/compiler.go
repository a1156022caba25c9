// Package compiler flattens an optimized IR tree into an evaluation graph.
//
// Every IR node becomes exactly one graph node. Operands are compiled
// before the node that uses them, so the resulting graph is in post-order
// and its root is the last node. Identical sub-trees are never merged:
// each occurrence of a dice pool must draw its own dice.
package compiler

import (
	"fmt"

	"github.com/roach88/dicegraph/internal/graph"
	"github.com/roach88/dicegraph/internal/ir"
)

// CompileError reports an IR node the compiler cannot translate.
type CompileError struct {
	Node    string
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s: %s", e.Node, e.Message)
}

// Compile flattens n into a new graph.
func Compile(n ir.Node) (*graph.Graph, error) {
	c := &compiler{g: &graph.Graph{}}
	var err error
	switch x := n.(type) {
	case ir.Number:
		_, err = c.number(x)
	case ir.List:
		_, err = c.list(x)
	default:
		err = unsupported(n)
	}
	if err != nil {
		return nil, err
	}
	return c.g, nil
}

type compiler struct {
	g *graph.Graph
}

func unsupported(n any) error {
	return &CompileError{Node: fmt.Sprintf("%T", n), Message: "unsupported node"}
}

var arithKinds = map[ir.ArithOp]graph.Kind{
	ir.Add:       graph.NumAdd,
	ir.Subtract:  graph.NumSubtract,
	ir.Multiply:  graph.NumMultiply,
	ir.Divide:    graph.NumDivide,
	ir.IntDivide: graph.NumIntDivide,
	ir.Modulo:    graph.NumModulo,
}

var numberFnKinds = map[ir.NumberFn]graph.Kind{
	ir.Floor: graph.NumFloor,
	ir.Ceil:  graph.NumCeil,
	ir.Round: graph.NumRound,
	ir.Abs:   graph.NumAbs,
}

var aggregateKinds = map[ir.AggregateFn]graph.Kind{
	ir.Max: graph.NumMax,
	ir.Min: graph.NumMin,
	ir.Sum: graph.NumSum,
	ir.Avg: graph.NumAvg,
	ir.Len: graph.NumLen,
}

var selectKinds = map[ir.SelectOp]graph.Kind{
	ir.KeepHigh: graph.DiceKeepHigh,
	ir.KeepLow:  graph.DiceKeepLow,
	ir.DropHigh: graph.DiceDropHigh,
	ir.DropLow:  graph.DiceDropLow,
	ir.ClampMin: graph.DiceMin,
	ir.ClampMax: graph.DiceMax,
}

var dynamicKinds = map[ir.DynamicOp]graph.Kind{
	ir.Explode:         graph.DiceExplode,
	ir.CompoundExplode: graph.DiceCompoundExplode,
	ir.Reroll:          graph.DiceReroll,
}

var listFnKinds = map[ir.ListFn]graph.Kind{
	ir.ListFloor: graph.ListFloor,
	ir.ListCeil:  graph.ListCeil,
	ir.ListRound: graph.ListRound,
	ir.ListAbs:   graph.ListAbs,
	ir.Sort:      graph.ListSort,
	ir.SortDesc:  graph.ListSortDesc,
}

var broadcastKinds = map[ir.ArithOp]graph.Kind{
	ir.Add:       graph.ListAdd,
	ir.Subtract:  graph.ListSubtract,
	ir.Multiply:  graph.ListMultiply,
	ir.Divide:    graph.ListDivide,
	ir.IntDivide: graph.ListIntDivide,
	ir.Modulo:    graph.ListModulo,
}

var reverseKinds = map[ir.ArithOp]graph.Kind{
	ir.Add:       graph.ListAdd,
	ir.Subtract:  graph.ListSubtractReverse,
	ir.Multiply:  graph.ListMultiply,
	ir.Divide:    graph.ListDivideReverse,
	ir.IntDivide: graph.ListIntDivideReverse,
	ir.Modulo:    graph.ListModuloReverse,
}

// unary compiles one operand and emits a node of kind k over it.
func (c *compiler) unary(k graph.Kind, arg func() (graph.NodeID, error)) (graph.NodeID, error) {
	id, err := arg()
	if err != nil {
		return graph.NoNode, err
	}
	return c.g.Add(graph.Node{Kind: k, Args: []graph.NodeID{id}}), nil
}

func (c *compiler) numbers(ns ...ir.Number) ([]graph.NodeID, error) {
	ids := make([]graph.NodeID, len(ns))
	for i, n := range ns {
		id, err := c.number(n)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func (c *compiler) number(n ir.Number) (graph.NodeID, error) {
	switch x := n.(type) {
	case *ir.Constant:
		return c.g.Add(graph.Node{Kind: graph.Constant, Value: x.Value}), nil
	case *ir.Neg:
		return c.unary(graph.NumNegate, func() (graph.NodeID, error) { return c.number(x.X) })
	case *ir.Arith:
		args, err := c.numbers(x.LHS, x.RHS)
		if err != nil {
			return graph.NoNode, err
		}
		return c.g.Add(graph.Node{Kind: arithKinds[x.Op], Args: args}), nil
	case *ir.NumberFunc:
		return c.unary(numberFnKinds[x.Fn], func() (graph.NodeID, error) { return c.number(x.Arg) })
	case *ir.Aggregate:
		return c.unary(aggregateKinds[x.Fn], func() (graph.NodeID, error) { return c.list(x.List) })
	case ir.DicePool:
		return c.dicePool(x)
	case ir.SuccessPool:
		return c.successPool(x)
	}
	return graph.NoNode, unsupported(n)
}

func (c *compiler) dicePool(p ir.DicePool) (graph.NodeID, error) {
	switch x := p.(type) {
	case *ir.StandardDice:
		args, err := c.numbers(x.Count, x.Sides)
		if err != nil {
			return graph.NoNode, err
		}
		return c.g.Add(graph.Node{Kind: graph.DiceStandard, Args: args}), nil
	case *ir.FudgeDice:
		return c.unary(graph.DiceFudge, func() (graph.NodeID, error) { return c.number(x.Count) })
	case *ir.CoinDice:
		return c.unary(graph.DiceCoin, func() (graph.NodeID, error) { return c.number(x.Count) })
	case *ir.Select:
		pool, err := c.dicePool(x.Pool)
		if err != nil {
			return graph.NoNode, err
		}
		n, err := c.number(x.N)
		if err != nil {
			return graph.NoNode, err
		}
		return c.g.Add(graph.Node{Kind: selectKinds[x.Op], Args: []graph.NodeID{pool, n}}), nil
	case *ir.Dynamic:
		pool, err := c.dicePool(x.Pool)
		if err != nil {
			return graph.NoNode, err
		}
		node := graph.Node{Kind: dynamicKinds[x.Op], Args: []graph.NodeID{pool}}
		if x.Param != nil {
			if node.Param, err = c.param(*x.Param); err != nil {
				return graph.NoNode, err
			}
		}
		if x.Limit != nil {
			if node.Limit, err = c.limit(x.Limit); err != nil {
				return graph.NoNode, err
			}
		}
		return c.g.Add(node), nil
	case *ir.SubtractFailures:
		return c.withParam(graph.DiceSubtractFailures, func() (graph.NodeID, error) { return c.dicePool(x.Pool) }, x.Param)
	}
	return graph.NoNode, unsupported(p)
}

func (c *compiler) successPool(p ir.SuccessPool) (graph.NodeID, error) {
	x, ok := p.(*ir.Success)
	if !ok {
		return graph.NoNode, unsupported(p)
	}
	if x.Dice != nil {
		kind := graph.DiceCountSuccessesFromPool
		if x.Op == ir.DeductFailures {
			kind = graph.DiceDeductFailuresFromPool
		}
		return c.withParam(kind, func() (graph.NodeID, error) { return c.dicePool(x.Dice) }, x.Param)
	}
	kind := graph.DiceCountSuccesses
	if x.Op == ir.DeductFailures {
		kind = graph.DiceDeductFailures
	}
	return c.withParam(kind, func() (graph.NodeID, error) { return c.successPool(x.Inner) }, x.Param)
}

// withParam compiles the single operand, then the comparison value, then
// emits the node.
func (c *compiler) withParam(k graph.Kind, arg func() (graph.NodeID, error), p ir.ModParam) (graph.NodeID, error) {
	id, err := arg()
	if err != nil {
		return graph.NoNode, err
	}
	param, err := c.param(p)
	if err != nil {
		return graph.NoNode, err
	}
	return c.g.Add(graph.Node{Kind: k, Args: []graph.NodeID{id}, Param: param}), nil
}

func (c *compiler) param(p ir.ModParam) (*graph.ModParam, error) {
	v, err := c.number(p.Value)
	if err != nil {
		return nil, err
	}
	return &graph.ModParam{Op: p.Op, Value: v}, nil
}

func (c *compiler) limit(l *ir.Limit) (*graph.Limit, error) {
	out := &graph.Limit{Times: graph.NoNode, Counts: graph.NoNode}
	var err error
	if l.Times != nil {
		if out.Times, err = c.number(l.Times); err != nil {
			return nil, err
		}
	}
	if l.Counts != nil {
		if out.Counts, err = c.number(l.Counts); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *compiler) list(l ir.List) (graph.NodeID, error) {
	switch x := l.(type) {
	case *ir.Explicit:
		args, err := c.numbers(x.Items...)
		if err != nil {
			return graph.NoNode, err
		}
		return c.g.Add(graph.Node{Kind: graph.ListConstruct, Args: args}), nil
	case *ir.ListFunc:
		return c.unary(listFnKinds[x.Fn], func() (graph.NodeID, error) { return c.list(x.List) })
	case *ir.Pick:
		list, err := c.list(x.List)
		if err != nil {
			return graph.NoNode, err
		}
		k, err := c.number(x.K)
		if err != nil {
			return graph.NoNode, err
		}
		kind := graph.ListMin
		if x.Highest {
			kind = graph.ListMax
		}
		return c.g.Add(graph.Node{Kind: kind, Args: []graph.NodeID{list, k}}), nil
	case *ir.FromDice:
		return c.unary(graph.ListFromDicePool, func() (graph.NodeID, error) { return c.dicePool(x.Pool) })
	case *ir.FromSuccess:
		return c.unary(graph.ListFromSuccessPool, func() (graph.NodeID, error) { return c.successPool(x.Pool) })
	case *ir.Filter:
		return c.withParam(graph.ListFilter, func() (graph.NodeID, error) { return c.list(x.List) }, x.Param)
	case *ir.Concat:
		lhs, err := c.list(x.LHS)
		if err != nil {
			return graph.NoNode, err
		}
		rhs, err := c.list(x.RHS)
		if err != nil {
			return graph.NoNode, err
		}
		return c.g.Add(graph.Node{Kind: graph.Concat, Args: []graph.NodeID{lhs, rhs}}), nil
	case *ir.Broadcast:
		return c.broadcast(x)
	}
	return graph.NoNode, unsupported(l)
}

// broadcast keeps source order: reversed kinds take the number first.
func (c *compiler) broadcast(x *ir.Broadcast) (graph.NodeID, error) {
	if x.Reverse {
		num, err := c.number(x.Number)
		if err != nil {
			return graph.NoNode, err
		}
		list, err := c.list(x.List)
		if err != nil {
			return graph.NoNode, err
		}
		kind := reverseKinds[x.Op]
		args := []graph.NodeID{num, list}
		if x.Op.Commutative() {
			args = []graph.NodeID{list, num}
		}
		return c.g.Add(graph.Node{Kind: kind, Args: args}), nil
	}
	list, err := c.list(x.List)
	if err != nil {
		return graph.NoNode, err
	}
	num, err := c.number(x.Number)
	if err != nil {
		return graph.NoNode, err
	}
	return c.g.Add(graph.Node{Kind: broadcastKinds[x.Op], Args: []graph.NodeID{list, num}}), nil
}
