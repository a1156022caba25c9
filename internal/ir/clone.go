package ir

// CloneNumber deep-copies a number tree.
func CloneNumber(n Number) Number {
	switch x := n.(type) {
	case *Constant:
		return &Constant{Value: x.Value}
	case *Neg:
		return &Neg{X: CloneNumber(x.X)}
	case *Arith:
		return &Arith{Op: x.Op, LHS: CloneNumber(x.LHS), RHS: CloneNumber(x.RHS)}
	case *NumberFunc:
		return &NumberFunc{Fn: x.Fn, Arg: CloneNumber(x.Arg)}
	case *Aggregate:
		return &Aggregate{Fn: x.Fn, List: CloneList(x.List)}
	case DicePool:
		return CloneDicePool(x)
	case *Success:
		return cloneSuccess(x)
	}
	return n
}

// CloneDicePool deep-copies a dice pool tree.
func CloneDicePool(p DicePool) DicePool {
	switch x := p.(type) {
	case *StandardDice:
		return &StandardDice{Count: CloneNumber(x.Count), Sides: CloneNumber(x.Sides)}
	case *FudgeDice:
		return &FudgeDice{Count: CloneNumber(x.Count)}
	case *CoinDice:
		return &CoinDice{Count: CloneNumber(x.Count)}
	case *Select:
		return &Select{Op: x.Op, Pool: CloneDicePool(x.Pool), N: CloneNumber(x.N)}
	case *Dynamic:
		out := &Dynamic{Op: x.Op, Pool: CloneDicePool(x.Pool)}
		if x.Param != nil {
			p := cloneParam(*x.Param)
			out.Param = &p
		}
		if x.Limit != nil {
			out.Limit = &Limit{}
			if x.Limit.Times != nil {
				out.Limit.Times = CloneNumber(x.Limit.Times)
			}
			if x.Limit.Counts != nil {
				out.Limit.Counts = CloneNumber(x.Limit.Counts)
			}
		}
		return out
	case *SubtractFailures:
		return &SubtractFailures{Pool: CloneDicePool(x.Pool), Param: cloneParam(x.Param)}
	}
	return p
}

func cloneSuccess(s *Success) *Success {
	out := &Success{Op: s.Op, Param: cloneParam(s.Param)}
	if s.Dice != nil {
		out.Dice = CloneDicePool(s.Dice)
	} else {
		out.Inner = cloneSuccess(s.Inner.(*Success))
	}
	return out
}

func cloneParam(p ModParam) ModParam {
	return ModParam{Op: p.Op, Value: CloneNumber(p.Value)}
}

// CloneList deep-copies a list tree.
func CloneList(l List) List {
	switch x := l.(type) {
	case *Explicit:
		items := make([]Number, len(x.Items))
		for i, item := range x.Items {
			items[i] = CloneNumber(item)
		}
		return &Explicit{Items: items}
	case *ListFunc:
		return &ListFunc{Fn: x.Fn, List: CloneList(x.List)}
	case *Pick:
		return &Pick{Highest: x.Highest, List: CloneList(x.List), K: CloneNumber(x.K)}
	case *FromDice:
		return &FromDice{Pool: CloneDicePool(x.Pool)}
	case *FromSuccess:
		return &FromSuccess{Pool: cloneSuccess(x.Pool.(*Success))}
	case *Filter:
		return &Filter{List: CloneList(x.List), Param: cloneParam(x.Param)}
	case *Concat:
		return &Concat{LHS: CloneList(x.LHS), RHS: CloneList(x.RHS)}
	case *Broadcast:
		return &Broadcast{Op: x.Op, List: CloneList(x.List), Number: CloneNumber(x.Number), Reverse: x.Reverse}
	}
	return l
}
