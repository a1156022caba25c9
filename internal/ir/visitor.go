package ir

import "fmt"

// Rewriter has one hook per node category. Walk functions visit every child
// first, store the rewritten child back into its parent, then call the hook
// for the node itself. Embed Identity to override only some hooks.
type Rewriter interface {
	RewriteNumber(Number) (Number, error)
	RewriteDicePool(DicePool) (DicePool, error)
	RewriteSuccessPool(SuccessPool) (SuccessPool, error)
	RewriteList(List) (List, error)
}

// Identity is a Rewriter that returns every node unchanged.
type Identity struct{}

func (Identity) RewriteNumber(n Number) (Number, error)                { return n, nil }
func (Identity) RewriteDicePool(p DicePool) (DicePool, error)          { return p, nil }
func (Identity) RewriteSuccessPool(s SuccessPool) (SuccessPool, error) { return s, nil }
func (Identity) RewriteList(l List) (List, error)                      { return l, nil }

// Walk rewrites n bottom-up.
func Walk(r Rewriter, n Node) (Node, error) {
	switch x := n.(type) {
	case Number:
		return WalkNumber(r, x)
	case List:
		return WalkList(r, x)
	default:
		return nil, fmt.Errorf("walk: unknown node %T", n)
	}
}

// WalkNumber rewrites a number bottom-up. Pools are rewritten by their own
// hook first and then passed to RewriteNumber.
func WalkNumber(r Rewriter, n Number) (Number, error) {
	var err error
	switch x := n.(type) {
	case DicePool:
		if n, err = WalkDicePool(r, x); err != nil {
			return nil, err
		}
	case SuccessPool:
		if n, err = WalkSuccessPool(r, x); err != nil {
			return nil, err
		}
	case *Constant:
	case *Neg:
		if x.X, err = WalkNumber(r, x.X); err != nil {
			return nil, err
		}
	case *Arith:
		if x.LHS, err = WalkNumber(r, x.LHS); err != nil {
			return nil, err
		}
		if x.RHS, err = WalkNumber(r, x.RHS); err != nil {
			return nil, err
		}
	case *NumberFunc:
		if x.Arg, err = WalkNumber(r, x.Arg); err != nil {
			return nil, err
		}
	case *Aggregate:
		if x.List, err = WalkList(r, x.List); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("walk: unknown number %T", n)
	}
	return r.RewriteNumber(n)
}

// WalkDicePool rewrites a dice pool bottom-up.
func WalkDicePool(r Rewriter, p DicePool) (DicePool, error) {
	var err error
	switch x := p.(type) {
	case *StandardDice:
		if x.Count, err = WalkNumber(r, x.Count); err != nil {
			return nil, err
		}
		if x.Sides, err = WalkNumber(r, x.Sides); err != nil {
			return nil, err
		}
	case *FudgeDice:
		if x.Count, err = WalkNumber(r, x.Count); err != nil {
			return nil, err
		}
	case *CoinDice:
		if x.Count, err = WalkNumber(r, x.Count); err != nil {
			return nil, err
		}
	case *Select:
		if x.Pool, err = WalkDicePool(r, x.Pool); err != nil {
			return nil, err
		}
		if x.N, err = WalkNumber(r, x.N); err != nil {
			return nil, err
		}
	case *Dynamic:
		if x.Pool, err = WalkDicePool(r, x.Pool); err != nil {
			return nil, err
		}
		if x.Param != nil {
			if err = walkParam(r, x.Param); err != nil {
				return nil, err
			}
		}
		if x.Limit != nil {
			if err = walkLimit(r, x.Limit); err != nil {
				return nil, err
			}
		}
	case *SubtractFailures:
		if x.Pool, err = WalkDicePool(r, x.Pool); err != nil {
			return nil, err
		}
		if err = walkParam(r, &x.Param); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("walk: unknown dice pool %T", p)
	}
	return r.RewriteDicePool(p)
}

// WalkSuccessPool rewrites a success pool bottom-up.
func WalkSuccessPool(r Rewriter, s SuccessPool) (SuccessPool, error) {
	x, ok := s.(*Success)
	if !ok {
		return nil, fmt.Errorf("walk: unknown success pool %T", s)
	}
	var err error
	if x.Dice != nil {
		if x.Dice, err = WalkDicePool(r, x.Dice); err != nil {
			return nil, err
		}
	} else {
		if x.Inner, err = WalkSuccessPool(r, x.Inner); err != nil {
			return nil, err
		}
	}
	if err = walkParam(r, &x.Param); err != nil {
		return nil, err
	}
	return r.RewriteSuccessPool(s)
}

// WalkList rewrites a list bottom-up.
func WalkList(r Rewriter, l List) (List, error) {
	var err error
	switch x := l.(type) {
	case *Explicit:
		for i, item := range x.Items {
			if x.Items[i], err = WalkNumber(r, item); err != nil {
				return nil, err
			}
		}
	case *ListFunc:
		if x.List, err = WalkList(r, x.List); err != nil {
			return nil, err
		}
	case *Pick:
		if x.List, err = WalkList(r, x.List); err != nil {
			return nil, err
		}
		if x.K, err = WalkNumber(r, x.K); err != nil {
			return nil, err
		}
	case *FromDice:
		if x.Pool, err = WalkDicePool(r, x.Pool); err != nil {
			return nil, err
		}
	case *FromSuccess:
		if x.Pool, err = WalkSuccessPool(r, x.Pool); err != nil {
			return nil, err
		}
	case *Filter:
		if x.List, err = WalkList(r, x.List); err != nil {
			return nil, err
		}
		if err = walkParam(r, &x.Param); err != nil {
			return nil, err
		}
	case *Concat:
		if x.LHS, err = WalkList(r, x.LHS); err != nil {
			return nil, err
		}
		if x.RHS, err = WalkList(r, x.RHS); err != nil {
			return nil, err
		}
	case *Broadcast:
		if x.List, err = WalkList(r, x.List); err != nil {
			return nil, err
		}
		if x.Number, err = WalkNumber(r, x.Number); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("walk: unknown list %T", l)
	}
	return r.RewriteList(l)
}

func walkParam(r Rewriter, p *ModParam) error {
	v, err := WalkNumber(r, p.Value)
	if err != nil {
		return err
	}
	p.Value = v
	return nil
}

func walkLimit(r Rewriter, l *Limit) error {
	var err error
	if l.Times != nil {
		if l.Times, err = WalkNumber(r, l.Times); err != nil {
			return err
		}
	}
	if l.Counts != nil {
		if l.Counts, err = WalkNumber(r, l.Counts); err != nil {
			return err
		}
	}
	return nil
}
