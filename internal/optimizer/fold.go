// Package optimizer folds constants and normalizes arithmetic in IR trees.
//
// Folding runs bottom-up through ir.Walk, so every hook sees operands that
// are already folded. Folding an already folded tree is a no-op.
package optimizer

import (
	"bytes"
	"fmt"
	"math"

	"github.com/roach88/dicegraph/internal/ir"
)

// Fold folds n in place and returns the folded root.
func Fold(n ir.Node) (ir.Node, error) {
	return ir.Walk(folder{}, n)
}

// FoldNumber folds a number.
func FoldNumber(n ir.Number) (ir.Number, error) {
	return ir.WalkNumber(folder{}, n)
}

// FoldList folds a list.
func FoldList(l ir.List) (ir.List, error) {
	return ir.WalkList(folder{}, l)
}

// FoldChanged folds n and reports whether the tree changed.
func FoldChanged(n ir.Node) (ir.Node, bool, error) {
	before := snapshot(n)
	out, err := Fold(n)
	if err != nil {
		return nil, false, err
	}
	return out, !bytes.Equal(before, snapshot(out)), nil
}

// snapshot encodes n so two trees can be compared structurally.
func snapshot(n ir.Node) []byte {
	b, err := ir.MarshalCanonical(ir.Encode(n))
	if err != nil {
		return []byte(ir.Format(n))
	}
	return b
}

type folder struct {
	ir.Identity
}

func constant(v float64) *ir.Constant {
	return &ir.Constant{Value: v}
}

// RewriteNumber folds scalar expressions.
func (f folder) RewriteNumber(n ir.Number) (ir.Number, error) {
	switch x := n.(type) {
	case *ir.Neg:
		if v, ok := ir.ConstantValue(x.X); ok {
			return constant(-v), nil
		}
		if inner, ok := x.X.(*ir.Neg); ok {
			return inner.X, nil
		}
	case *ir.Arith:
		return f.foldArith(x)
	case *ir.NumberFunc:
		if v, ok := ir.ConstantValue(x.Arg); ok {
			return constant(x.Fn.Apply(v)), nil
		}
	case *ir.Aggregate:
		return f.foldAggregate(x)
	case *ir.StandardDice:
		if isEmptyCount(x.Count) || isEmptyCount(x.Sides) {
			return constant(0), nil
		}
	case *ir.FudgeDice:
		if isEmptyCount(x.Count) {
			return constant(0), nil
		}
	case *ir.CoinDice:
		if isEmptyCount(x.Count) {
			return constant(0), nil
		}
	}
	return n, nil
}

// isEmptyCount reports whether n is a constant that truncates to zero or less.
func isEmptyCount(n ir.Number) bool {
	v, ok := ir.ConstantValue(n)
	return ok && math.Trunc(v) <= 0
}

// RewriteDicePool truncates constant counts and sides of base pools toward zero.
func (folder) RewriteDicePool(p ir.DicePool) (ir.DicePool, error) {
	switch x := p.(type) {
	case *ir.StandardDice:
		x.Count = truncate(x.Count)
		x.Sides = truncate(x.Sides)
	case *ir.FudgeDice:
		x.Count = truncate(x.Count)
	case *ir.CoinDice:
		x.Count = truncate(x.Count)
	}
	return p, nil
}

func truncate(n ir.Number) ir.Number {
	v, ok := ir.ConstantValue(n)
	if !ok || v == math.Trunc(v) {
		return n
	}
	return constant(math.Trunc(v))
}

func (f folder) foldArith(x *ir.Arith) (ir.Number, error) {
	switch x.Op {
	case ir.Add, ir.Subtract:
		return f.foldAdditive(x)
	case ir.Multiply:
		return f.foldMultiplicative(x)
	}

	rhs, rhsConst := ir.ConstantValue(x.RHS)
	if rhsConst && rhs == 0 {
		return nil, divisionByZero()
	}
	if lhs, ok := ir.ConstantValue(x.LHS); ok && rhsConst {
		v, _ := x.Op.Apply(lhs, rhs)
		return constant(v), nil
	}
	if x.Op != ir.Divide || !rhsConst {
		return x, nil
	}
	if rhs == 1 {
		return x.LHS, nil
	}
	// (x/c1)/c2 -> x/(c1*c2)
	if inner, ok := x.LHS.(*ir.Arith); ok && inner.Op == ir.Divide {
		if c1, ok := ir.ConstantValue(inner.RHS); ok {
			return &ir.Arith{Op: ir.Divide, LHS: inner.LHS, RHS: constant(c1 * rhs)}, nil
		}
	}
	return x, nil
}

func (f folder) foldMultiplicative(x *ir.Arith) (ir.Number, error) {
	acc := 1.0
	var factors []ir.Number
	var flatten func(n ir.Number)
	flatten = func(n ir.Number) {
		if a, ok := n.(*ir.Arith); ok && a.Op == ir.Multiply {
			flatten(a.LHS)
			flatten(a.RHS)
			return
		}
		if v, ok := ir.ConstantValue(n); ok {
			acc *= v
			return
		}
		factors = append(factors, n)
	}
	flatten(x)

	if acc == 0 || len(factors) == 0 {
		return constant(acc), nil
	}
	tree := factors[0]
	for _, factor := range factors[1:] {
		tree = &ir.Arith{Op: ir.Multiply, LHS: tree, RHS: factor}
	}
	if acc == 1 {
		return tree, nil
	}
	return &ir.Arith{Op: ir.Multiply, LHS: tree, RHS: constant(acc)}, nil
}

func (f folder) foldAggregate(x *ir.Aggregate) (ir.Number, error) {
	if vals, ok := ir.ConstantItems(x.List); ok {
		v, ok := x.Fn.Apply(vals)
		if !ok {
			return nil, &FoldError{Code: ErrCodeEmptyList, Message: fmt.Sprintf("%s of empty list", x.Fn)}
		}
		return constant(v), nil
	}
	explicit, ok := x.List.(*ir.Explicit)
	if !ok {
		return x, nil
	}
	switch x.Fn {
	case ir.Len:
		return constant(float64(len(explicit.Items))), nil
	case ir.Sum:
		// Non-constant items: rewrite as an addition chain so dice terms merge.
		tree := explicit.Items[0]
		for _, item := range explicit.Items[1:] {
			tree = &ir.Arith{Op: ir.Add, LHS: tree, RHS: item}
		}
		if chain, ok := tree.(*ir.Arith); ok {
			return f.foldAdditive(chain)
		}
		return tree, nil
	}
	return x, nil
}

// RewriteList folds list expressions whose operands are constant.
func (f folder) RewriteList(l ir.List) (ir.List, error) {
	switch x := l.(type) {
	case *ir.ListFunc:
		if vals, ok := ir.ConstantItems(x.List); ok {
			return ir.NewConstantList(x.Fn.Apply(vals)), nil
		}
	case *ir.Pick:
		vals, ok := ir.ConstantItems(x.List)
		k, kok := ir.ConstantValue(x.K)
		if ok && kok {
			return ir.NewConstantList(ir.PickOrdered(vals, k, x.Highest)), nil
		}
	case *ir.Filter:
		vals, ok := ir.ConstantItems(x.List)
		target, tok := ir.ConstantValue(x.Param.Value)
		if ok && tok {
			return ir.NewConstantList(ir.FilterValues(vals, x.Param.Op, target)), nil
		}
	case *ir.Concat:
		lhs, lok := x.LHS.(*ir.Explicit)
		rhs, rok := x.RHS.(*ir.Explicit)
		if lok && rok {
			items := make([]ir.Number, 0, len(lhs.Items)+len(rhs.Items))
			items = append(items, lhs.Items...)
			items = append(items, rhs.Items...)
			return &ir.Explicit{Items: items}, nil
		}
	case *ir.Broadcast:
		return f.foldBroadcast(x)
	}
	return l, nil
}

func (folder) foldBroadcast(x *ir.Broadcast) (ir.List, error) {
	num, numConst := ir.ConstantValue(x.Number)
	if !x.Reverse && numConst && num == 0 && !x.Op.Commutative() && x.Op != ir.Subtract {
		return nil, divisionByZero()
	}
	vals, ok := ir.ConstantItems(x.List)
	if !ok {
		return x, nil
	}
	if x.Reverse && !x.Op.Commutative() && x.Op != ir.Subtract {
		for i, v := range vals {
			if v == 0 {
				return nil, reverseDivisionByZero(i)
			}
		}
	}
	if !numConst {
		return x, nil
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		if x.Reverse {
			out[i], _ = x.Op.Apply(num, v)
		} else {
			out[i], _ = x.Op.Apply(v, num)
		}
	}
	return ir.NewConstantList(out), nil
}
