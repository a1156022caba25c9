package lower

import (
	"github.com/roach88/dicegraph/internal/ir"
	"github.com/roach88/dicegraph/internal/syntax"
)

var compareOps = map[syntax.CompareOp]ir.CompareOp{
	syntax.CmpEqual:        ir.Equal,
	syntax.CmpNotEqual:     ir.NotEqual,
	syntax.CmpGreater:      ir.Greater,
	syntax.CmpGreaterEqual: ir.GreaterEqual,
	syntax.CmpLess:         ir.Less,
	syntax.CmpLessEqual:    ir.LessEqual,
}

var selectOps = map[syntax.CountOp]ir.SelectOp{
	syntax.KeepHigh: ir.KeepHigh,
	syntax.KeepLow:  ir.KeepLow,
	syntax.DropHigh: ir.DropHigh,
	syntax.DropLow:  ir.DropLow,
	syntax.ClampMin: ir.ClampMin,
	syntax.ClampMax: ir.ClampMax,
}

var dynamicOps = map[syntax.RollOp]ir.DynamicOp{
	syntax.Explode:         ir.Explode,
	syntax.CompoundExplode: ir.CompoundExplode,
	syntax.Reroll:          ir.Reroll,
}

func lowerCompare(c syntax.Compare) (ir.ModParam, error) {
	n, err := Lower(c.Value)
	if err != nil {
		return ir.ModParam{}, err
	}
	v, ok := n.(ir.Number)
	if !ok {
		return ir.ModParam{}, errorf(ErrParam, "comparison value must be a number")
	}
	return ir.ModParam{Op: compareOps[c.Op], Value: v}, nil
}

// lowerPool lowers the operand of a modifier, which must be a dice pool.
func lowerPool(x syntax.Expr, modifier string) (ir.DicePool, error) {
	n, err := Lower(x)
	if err != nil {
		return nil, err
	}
	p, ok := n.(ir.DicePool)
	if !ok {
		return nil, errorf(ErrModifier, "%s requires a dice pool", modifier)
	}
	return p, nil
}

func lowerCountModifier(x *syntax.CountModifier) (ir.Node, error) {
	pool, err := lowerPool(x.X, x.Op.String())
	if err != nil {
		return nil, err
	}
	n, err := Lower(x.N)
	if err != nil {
		return nil, err
	}
	num, ok := n.(ir.Number)
	if !ok {
		return nil, errorf(ErrParam, "%s parameter must be a number", x.Op)
	}
	return &ir.Select{Op: selectOps[x.Op], Pool: pool, N: num}, nil
}

func lowerRollModifier(x *syntax.RollModifier) (ir.Node, error) {
	pool, err := lowerPool(x.X, x.Op.String())
	if err != nil {
		return nil, err
	}
	out := &ir.Dynamic{Op: dynamicOps[x.Op], Pool: pool}

	if x.Param != nil {
		p, err := lowerCompare(*x.Param)
		if err != nil {
			return nil, err
		}
		out.Param = &p
	} else if x.Op == syntax.Reroll {
		return nil, errorf(ErrParam, "reroll requires a comparison")
	}

	if x.Limit != nil {
		out.Limit = &ir.Limit{}
		if x.Limit.Times != nil {
			if out.Limit.Times, err = lowerLimit(x.Limit.Times, "lt"); err != nil {
				return nil, err
			}
		}
		if x.Limit.Counts != nil {
			if out.Limit.Counts, err = lowerLimit(x.Limit.Counts, "lc"); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func lowerLimit(x syntax.Expr, name string) (ir.Number, error) {
	n, err := Lower(x)
	if err != nil {
		return nil, err
	}
	v, ok := n.(ir.Number)
	if !ok {
		return nil, errorf(ErrParam, "%s limit must be a number", name)
	}
	return v, nil
}

func lowerCompareModifier(x *syntax.CompareModifier) (ir.Node, error) {
	n, err := Lower(x.X)
	if err != nil {
		return nil, err
	}
	param, err := lowerCompare(x.Param)
	if err != nil {
		return nil, err
	}

	if x.Op == syntax.SubtractFailures {
		p, ok := n.(ir.DicePool)
		if !ok {
			return nil, errorf(ErrModifier, "sf requires a dice pool")
		}
		return &ir.SubtractFailures{Pool: p, Param: param}, nil
	}

	op := ir.CountSuccesses
	if x.Op == syntax.DeductFailures {
		op = ir.DeductFailures
	}
	switch src := n.(type) {
	case ir.DicePool:
		return &ir.Success{Op: op, Dice: src, Param: param}, nil
	case ir.SuccessPool:
		return &ir.Success{Op: op, Inner: src, Param: param}, nil
	}
	return nil, errorf(ErrModifier, "%s requires a dice pool or success pool", x.Op)
}
