package lower

import (
	"github.com/roach88/dicegraph/internal/ir"
	"github.com/roach88/dicegraph/internal/syntax"
)

var numberFns = map[syntax.Func]ir.NumberFn{
	syntax.FuncFloor: ir.Floor,
	syntax.FuncCeil:  ir.Ceil,
	syntax.FuncRound: ir.Round,
	syntax.FuncAbs:   ir.Abs,
}

var aggregateFns = map[syntax.Func]ir.AggregateFn{
	syntax.FuncMax: ir.Max,
	syntax.FuncMin: ir.Min,
	syntax.FuncSum: ir.Sum,
	syntax.FuncAvg: ir.Avg,
	syntax.FuncLen: ir.Len,
}

func lowerCall(x *syntax.Call) (ir.Node, error) {
	switch x.Fn {
	case syntax.FuncFloor, syntax.FuncCeil, syntax.FuncRound, syntax.FuncAbs:
		fn := numberFns[x.Fn]
		if len(x.Args) == 1 {
			arg, err := Lower(x.Args[0])
			if err != nil {
				return nil, err
			}
			if n, ok := arg.(ir.Number); ok {
				return &ir.NumberFunc{Fn: fn, Arg: n}, nil
			}
			return &ir.ListFunc{Fn: ir.ListFn(fn), List: arg.(ir.List)}, nil
		}
		l, err := lowerItems(x.Args)
		if err != nil {
			return nil, err
		}
		return &ir.ListFunc{Fn: ir.ListFn(fn), List: l}, nil

	case syntax.FuncMax, syntax.FuncMin:
		if len(x.Args) == 0 {
			return nil, errorf(ErrArity, "%s requires at least one argument", x.Fn)
		}
		if len(x.Args) == 2 {
			args, err := lowerAll(x.Args)
			if err != nil {
				return nil, err
			}
			l, lok := args[0].(ir.List)
			k, kok := args[1].(ir.Number)
			if lok && kok {
				return &ir.Pick{Highest: x.Fn == syntax.FuncMax, List: l, K: k}, nil
			}
		}
		l, err := listArgument(x.Args)
		if err != nil {
			return nil, err
		}
		return &ir.Aggregate{Fn: aggregateFns[x.Fn], List: l}, nil

	case syntax.FuncSum, syntax.FuncAvg, syntax.FuncLen:
		l, err := listArgument(x.Args)
		if err != nil {
			return nil, err
		}
		return &ir.Aggregate{Fn: aggregateFns[x.Fn], List: l}, nil

	case syntax.FuncSort, syntax.FuncSortDesc:
		l, err := listArgument(x.Args)
		if err != nil {
			return nil, err
		}
		fn := ir.Sort
		if x.Fn == syntax.FuncSortDesc {
			fn = ir.SortDesc
		}
		return &ir.ListFunc{Fn: fn, List: l}, nil

	case syntax.FuncFilter:
		l, err := listArgument(x.Args)
		if err != nil {
			return nil, err
		}
		param, err := lowerCompare(*x.Filter)
		if err != nil {
			return nil, err
		}
		return &ir.Filter{List: l, Param: param}, nil

	case syntax.FuncToList:
		if len(x.Args) != 1 {
			return nil, errorf(ErrArity, "tolist takes exactly one argument")
		}
		arg, err := Lower(x.Args[0])
		if err != nil {
			return nil, err
		}
		switch p := arg.(type) {
		case ir.DicePool:
			return &ir.FromDice{Pool: p}, nil
		case ir.SuccessPool:
			return &ir.FromSuccess{Pool: p}, nil
		}
		return nil, errorf(ErrShape, "tolist requires a dice pool or success pool")

	case syntax.FuncRpdice:
		if len(x.Args) != 1 {
			return nil, errorf(ErrArity, "rpdice takes exactly one argument")
		}
		arg, err := Lower(x.Args[0])
		if err != nil {
			return nil, err
		}
		return ir.Walk(doubleDice{}, arg)
	}
	return nil, errorf(ErrShape, "unsupported function %s", x.Fn)
}

func lowerAll(args []syntax.Expr) ([]ir.Node, error) {
	out := make([]ir.Node, len(args))
	for i, a := range args {
		n, err := Lower(a)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// listArgument accepts a single list argument, or packs a bare argument
// sequence into an explicit list.
func listArgument(args []syntax.Expr) (ir.List, error) {
	if len(args) == 1 {
		arg, err := Lower(args[0])
		if err != nil {
			return nil, err
		}
		if l, ok := arg.(ir.List); ok {
			return l, nil
		}
		return &ir.Explicit{Items: []ir.Number{arg.(ir.Number)}}, nil
	}
	return lowerItems(args)
}

// doubleDice rewrites the count c of every base pool to 2*c.
type doubleDice struct {
	ir.Identity
}

func (doubleDice) RewriteDicePool(p ir.DicePool) (ir.DicePool, error) {
	double := func(c ir.Number) ir.Number {
		return &ir.Arith{Op: ir.Multiply, LHS: &ir.Constant{Value: 2}, RHS: c}
	}
	switch x := p.(type) {
	case *ir.StandardDice:
		x.Count = double(x.Count)
	case *ir.FudgeDice:
		x.Count = double(x.Count)
	case *ir.CoinDice:
		x.Count = double(x.Count)
	}
	return p, nil
}
