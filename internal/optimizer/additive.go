package optimizer

import (
	"cmp"
	"math"
	"slices"

	"github.com/roach88/dicegraph/internal/ir"
)

// term is one signed operand of an addition chain.
type term struct {
	node     ir.Number
	positive bool
}

// poolKind orders mergeable pools: coin before fudge before standard.
type poolKind int

const (
	kindStandard poolKind = iota
	kindFudge
	kindCoin
)

// groupKey identifies dice terms that can be merged into one pool.
type groupKey struct {
	kind     poolKind
	positive bool
	sides    float64
}

// compareGroups orders groups descending by (kind, sign, sides), so coins
// come first, positive before negative, and larger dice before smaller.
func compareGroups(a, b groupKey) int {
	if c := cmp.Compare(b.kind, a.kind); c != 0 {
		return c
	}
	if a.positive != b.positive {
		if a.positive {
			return -1
		}
		return 1
	}
	return cmp.Compare(b.sides, a.sides)
}

// mergeKey returns the group of a bare base pool with constant count and sides.
func mergeKey(t term) (groupKey, float64, bool) {
	switch x := t.node.(type) {
	case *ir.StandardDice:
		count, cok := ir.ConstantValue(x.Count)
		sides, sok := ir.ConstantValue(x.Sides)
		if cok && sok {
			return groupKey{kind: kindStandard, positive: t.positive, sides: sides}, count, true
		}
	case *ir.FudgeDice:
		if count, ok := ir.ConstantValue(x.Count); ok {
			return groupKey{kind: kindFudge, positive: t.positive}, count, true
		}
	case *ir.CoinDice:
		if count, ok := ir.ConstantValue(x.Count); ok {
			return groupKey{kind: kindCoin, positive: t.positive}, count, true
		}
	}
	return groupKey{}, 0, false
}

func (k groupKey) pool(count float64) ir.Number {
	switch k.kind {
	case kindFudge:
		return &ir.FudgeDice{Count: constant(count)}
	case kindCoin:
		return &ir.CoinDice{Count: constant(count)}
	default:
		return &ir.StandardDice{Count: constant(count), Sides: constant(k.sides)}
	}
}

// foldAdditive flattens a chain of +, - and unary negation into signed terms
// and a constant, merges bare dice terms of the same shape and sign, and
// rebuilds a left-associated chain with the constant last.
func (folder) foldAdditive(root *ir.Arith) (ir.Number, error) {
	var terms []term
	var acc float64

	var flatten func(n ir.Number, positive bool)
	flatten = func(n ir.Number, positive bool) {
		switch x := n.(type) {
		case *ir.Arith:
			switch x.Op {
			case ir.Add:
				flatten(x.LHS, positive)
				flatten(x.RHS, positive)
				return
			case ir.Subtract:
				flatten(x.LHS, positive)
				flatten(x.RHS, !positive)
				return
			}
		case *ir.Neg:
			flatten(x.X, !positive)
			return
		case *ir.Constant:
			if positive {
				acc += x.Value
			} else {
				acc -= x.Value
			}
			return
		}
		terms = append(terms, term{node: n, positive: positive})
	}
	flatten(root, true)

	counts := map[groupKey]float64{}
	var rest []term
	for _, t := range terms {
		key, count, ok := mergeKey(t)
		if !ok {
			rest = append(rest, t)
			continue
		}
		counts[key] += math.Max(math.Trunc(count), 0)
	}

	keys := make([]groupKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareGroups)

	merged := make([]term, 0, len(keys)+len(rest))
	for _, k := range keys {
		if counts[k] == 0 {
			continue
		}
		merged = append(merged, term{node: k.pool(counts[k]), positive: k.positive})
	}
	merged = append(merged, rest...)

	if len(merged) == 0 {
		return constant(acc), nil
	}

	var tree ir.Number
	if merged[0].positive {
		tree = merged[0].node
	} else {
		tree = &ir.Neg{X: merged[0].node}
	}
	for _, t := range merged[1:] {
		op := ir.Add
		if !t.positive {
			op = ir.Subtract
		}
		tree = &ir.Arith{Op: op, LHS: tree, RHS: t.node}
	}

	switch {
	case acc > 0:
		tree = &ir.Arith{Op: ir.Add, LHS: tree, RHS: constant(acc)}
	case acc < 0:
		tree = &ir.Arith{Op: ir.Subtract, LHS: tree, RHS: constant(-acc)}
	}
	return tree, nil
}
