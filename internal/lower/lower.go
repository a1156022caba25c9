// Package lower turns the untyped surface tree into typed IR.
//
// Lowering resolves every shape question the parser leaves open: whether an
// operand is a number or a list, whether `*` between a list and a number
// repeats or broadcasts, how bare argument sequences are packed, and which
// operands a modifier accepts.
package lower

import (
	"math"

	"github.com/roach88/dicegraph/internal/ir"
	"github.com/roach88/dicegraph/internal/optimizer"
	"github.com/roach88/dicegraph/internal/syntax"
)

// Lower converts a surface tree into IR.
func Lower(e syntax.Expr) (ir.Node, error) {
	switch x := e.(type) {
	case *syntax.Number:
		return &ir.Constant{Value: x.Value}, nil
	case *syntax.Neg:
		inner, err := Lower(x.X)
		if err != nil {
			return nil, err
		}
		n, ok := inner.(ir.Number)
		if !ok {
			return nil, errorf(ErrShape, "cannot negate a list")
		}
		return &ir.Neg{X: n}, nil
	case *syntax.Dice:
		return lowerDice(x)
	case *syntax.List:
		return lowerItems(x.Items)
	case *syntax.Binary:
		return lowerBinary(x)
	case *syntax.Call:
		return lowerCall(x)
	case *syntax.CountModifier:
		return lowerCountModifier(x)
	case *syntax.RollModifier:
		return lowerRollModifier(x)
	case *syntax.CompareModifier:
		return lowerCompareModifier(x)
	}
	return nil, errorf(ErrShape, "unsupported expression %T", e)
}

// lowerNumber lowers e and requires a number, reporting msg otherwise.
func lowerNumber(e syntax.Expr, msg string) (ir.Number, error) {
	n, err := Lower(e)
	if err != nil {
		return nil, err
	}
	num, ok := n.(ir.Number)
	if !ok {
		return nil, errorf(ErrShape, "%s", msg)
	}
	return num, nil
}

func lowerDice(x *syntax.Dice) (ir.Node, error) {
	switch x.Kind {
	case syntax.DiceFudge:
		count, err := lowerNumber(x.Count, "fudge dice count must be a number")
		if err != nil {
			return nil, err
		}
		return &ir.FudgeDice{Count: count}, nil
	case syntax.DiceCoin:
		count, err := lowerNumber(x.Count, "coin dice count must be a number")
		if err != nil {
			return nil, err
		}
		return &ir.CoinDice{Count: count}, nil
	}
	count, err := lowerNumber(x.Count, "dice count must be a number")
	if err != nil {
		return nil, err
	}
	sides, err := lowerNumber(x.Sides, "dice sides must be a number")
	if err != nil {
		return nil, err
	}
	return &ir.StandardDice{Count: count, Sides: sides}, nil
}

// lowerItems builds an explicit list; every element must be a number.
func lowerItems(items []syntax.Expr) (*ir.Explicit, error) {
	out := make([]ir.Number, 0, len(items))
	for _, item := range items {
		n, err := lowerNumber(item, "list elements must be numbers, nested lists are not allowed")
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return &ir.Explicit{Items: out}, nil
}

var arithOps = map[syntax.BinOp]ir.ArithOp{
	syntax.OpAdd:    ir.Add,
	syntax.OpSub:    ir.Subtract,
	syntax.OpMul:    ir.Multiply,
	syntax.OpDiv:    ir.Divide,
	syntax.OpIntDiv: ir.IntDivide,
	syntax.OpMod:    ir.Modulo,
}

func lowerBinary(x *syntax.Binary) (ir.Node, error) {
	lhs, err := Lower(x.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := Lower(x.RHS)
	if err != nil {
		return nil, err
	}

	if x.Op == syntax.OpRepeat {
		return lowerRepeat(lhs, rhs)
	}
	op := arithOps[x.Op]

	switch l := lhs.(type) {
	case ir.Number:
		switch r := rhs.(type) {
		case ir.Number:
			return &ir.Arith{Op: op, LHS: l, RHS: r}, nil
		case ir.List:
			if op == ir.Multiply {
				return repeatOrBroadcast(r, l)
			}
			return &ir.Broadcast{Op: op, List: r, Number: l, Reverse: !op.Commutative()}, nil
		}
	case ir.List:
		switch r := rhs.(type) {
		case ir.Number:
			if op == ir.Multiply {
				return repeatOrBroadcast(l, r)
			}
			return &ir.Broadcast{Op: op, List: l, Number: r}, nil
		case ir.List:
			if op != ir.Add {
				return nil, errorf(ErrShape, "only addition is supported between two lists")
			}
			return &ir.Concat{LHS: l, RHS: r}, nil
		}
	}
	return nil, errorf(ErrShape, "unsupported operands for %s", x.Op)
}

// lowerRepeat handles `**`, which always repeats an explicit list.
func lowerRepeat(lhs, rhs ir.Node) (ir.Node, error) {
	l, lok := lhs.(ir.List)
	n, nok := rhs.(ir.Number)
	if !lok || !nok {
		l, lok = rhs.(ir.List)
		n, nok = lhs.(ir.Number)
	}
	if !lok || !nok {
		return nil, errorf(ErrRepeat, "** requires a list and a number")
	}

	folded, err := optimizer.FoldList(l)
	if err != nil {
		return nil, err
	}
	explicit, ok := folded.(*ir.Explicit)
	if !ok {
		return nil, errorf(ErrRepeat, "repetition requires an explicit list")
	}
	times, err := optimizer.FoldNumber(n)
	if err != nil {
		return nil, err
	}
	v, ok := ir.ConstantValue(times)
	if !ok || math.Trunc(v) <= 0 {
		return nil, errorf(ErrRepeat, "repetition count must be a positive constant")
	}
	return repeat(explicit, v)
}

// maxRepeatItems bounds the size of a repeated list.
const maxRepeatItems = 10000

// repeatOrBroadcast lowers list * number. A list that folds to an explicit
// list times a positive integer constant repeats the list; anything else
// multiplies element-wise.
func repeatOrBroadcast(l ir.List, n ir.Number) (ir.Node, error) {
	folded, err := optimizer.FoldList(l)
	if err != nil {
		return nil, err
	}
	times, err := optimizer.FoldNumber(n)
	if err != nil {
		return nil, err
	}
	explicit, lok := folded.(*ir.Explicit)
	v, nok := ir.ConstantValue(times)
	if lok && nok && v >= 1 && v == math.Trunc(v) {
		return repeat(explicit, v)
	}
	return &ir.Broadcast{Op: ir.Multiply, List: folded, Number: times}, nil
}

// repeat copies the items of l times times. Every copy is a separate tree so
// each occurrence rolls independently.
func repeat(l *ir.Explicit, times float64) (*ir.Explicit, error) {
	if float64(len(l.Items))*math.Trunc(times) > maxRepeatItems {
		return nil, errorf(ErrRepeat, "repetition exceeds %d items", maxRepeatItems)
	}
	n := int(times)
	items := make([]ir.Number, 0, len(l.Items)*n)
	for i := 0; i < n; i++ {
		for _, item := range l.Items {
			items = append(items, ir.CloneNumber(item))
		}
	}
	return &ir.Explicit{Items: items}, nil
}
