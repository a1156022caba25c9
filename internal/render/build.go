package render

import (
	"github.com/roach88/dicegraph/internal/graph"
	"github.com/roach88/dicegraph/internal/ir"
)

// Render builds the display tree rooted at g.Root. values holds one entry
// per graph node; missing entries render as not computed.
func Render(g *graph.Graph, values []Value) *Node {
	b := &builder{g: g, values: values}
	n, _ := b.build(g.Root)
	return n
}

type builder struct {
	g      *graph.Graph
	values []Value
}

func (b *builder) value(id graph.NodeID) Value {
	if int(id) < len(b.values) {
		return b.values[id]
	}
	return Value{Kind: KindNotComputed}
}

var infixLabels = map[graph.Kind]string{
	graph.NumAdd:               "+",
	graph.NumSubtract:          "-",
	graph.NumMultiply:          "*",
	graph.NumDivide:            "/",
	graph.NumIntDivide:         "//",
	graph.NumModulo:            "%",
	graph.Concat:               "+",
	graph.ListAdd:              "+",
	graph.ListSubtract:         "-",
	graph.ListSubtractReverse:  "-",
	graph.ListMultiply:         "*",
	graph.ListDivide:           "/",
	graph.ListDivideReverse:    "/",
	graph.ListIntDivide:        "//",
	graph.ListIntDivideReverse: "//",
	graph.ListModulo:           "%",
	graph.ListModuloReverse:    "%",
}

var functionLabels = map[graph.Kind]string{
	graph.NumFloor:            "floor",
	graph.NumCeil:             "ceil",
	graph.NumRound:            "round",
	graph.NumAbs:              "abs",
	graph.NumMax:              "max",
	graph.NumMin:              "min",
	graph.NumSum:              "sum",
	graph.NumAvg:              "avg",
	graph.NumLen:              "len",
	graph.ListFloor:           "floor",
	graph.ListCeil:            "ceil",
	graph.ListRound:           "round",
	graph.ListAbs:             "abs",
	graph.ListMax:             "max",
	graph.ListMin:             "min",
	graph.ListSort:            "sort",
	graph.ListSortDesc:        "sortd",
	graph.ListFromDicePool:    "tolist",
	graph.ListFromSuccessPool: "tolist",
}

var modifierLabels = map[graph.Kind]string{
	graph.DiceKeepHigh:               "kh",
	graph.DiceKeepLow:                "kl",
	graph.DiceDropHigh:               "dh",
	graph.DiceDropLow:                "dl",
	graph.DiceMin:                    "min",
	graph.DiceMax:                    "max",
	graph.DiceSubtractFailures:       "sf",
	graph.DiceCountSuccessesFromPool: "cs",
	graph.DiceDeductFailuresFromPool: "df",
	graph.DiceCountSuccesses:         "cs",
	graph.DiceDeductFailures:         "df",
	graph.DiceExplode:                "!",
	graph.DiceCompoundExplode:        "!!",
	graph.DiceReroll:                 "r",
}

func isListInfix(k graph.Kind) bool {
	return k >= graph.Concat && k <= graph.ListModuloReverse
}

func infixPrec(k graph.Kind) ir.Prec {
	switch k {
	case graph.NumAdd, graph.NumSubtract, graph.Concat, graph.ListAdd,
		graph.ListSubtract, graph.ListSubtractReverse:
		return ir.PrecSum
	}
	return ir.PrecProduct
}

// tight builds an operand of a dice operator, parenthesized unless it binds
// tighter than dice.
func (b *builder) tight(id graph.NodeID) *Node {
	n, prec := b.build(id)
	if prec <= ir.PrecDice {
		n.Parens = true
	}
	return n
}

func (b *builder) build(id graph.NodeID) (*Node, ir.Prec) {
	gn := b.g.Node(id)
	out := &Node{ID: id, Value: b.value(id)}
	prec := ir.PrecCall

	switch k := gn.Kind; {
	case k == graph.Constant:
		out.Label = ir.FormatNumber(gn.Value)
		out.Layout = LayoutAtom

	case k == graph.ListConstruct:
		out.Layout = LayoutList
		for _, a := range gn.Args {
			c, _ := b.build(a)
			out.Children = append(out.Children, c)
		}

	case k == graph.NumNegate:
		prec = ir.PrecPrefix
		c, cp := b.build(gn.Args[0])
		if cp < prec {
			c.Parens = true
		}
		out.Label = "-"
		out.Layout = LayoutPrefix
		out.Children = []*Node{c}

	case infixLabels[k] != "":
		prec = infixPrec(k)
		l, lp := b.build(gn.Args[0])
		r, rp := b.build(gn.Args[1])
		// Arithmetic is strictly left associative; list operators wrap
		// both sides at equal precedence.
		if lp < prec || (isListInfix(k) && lp == prec) {
			l.Parens = true
		}
		if rp <= prec {
			r.Parens = true
		}
		out.Label = infixLabels[k]
		out.Layout = LayoutInfix
		out.Children = []*Node{l, r}

	case functionLabels[k] != "":
		out.Label = functionLabels[k]
		out.Layout = LayoutFunction
		for _, a := range gn.Args {
			c, _ := b.build(a)
			out.Children = append(out.Children, c)
		}

	case k == graph.ListFilter:
		list, _ := b.build(gn.Args[0])
		param, pp := b.build(gn.Param.Value)
		if pp < ir.PrecCall {
			param.Parens = true
		}
		out.Label = "filter"
		out.Layout = LayoutFilter
		out.Op = gn.Param.Op.String()
		out.Children = []*Node{list}
		out.Param = param

	case k == graph.DiceStandard:
		prec = ir.PrecDice
		out.Label = "d"
		out.Layout = LayoutTightInfix
		out.Children = []*Node{b.tight(gn.Args[0]), b.tight(gn.Args[1])}

	case k == graph.DiceFudge || k == graph.DiceCoin:
		prec = ir.PrecDice
		out.Label = "dF"
		if k == graph.DiceCoin {
			out.Label = "dC"
		}
		out.Layout = LayoutTightPostfix
		out.Children = []*Node{b.tight(gn.Args[0])}

	case k.IsDynamic():
		prec = ir.PrecDice
		pool, _ := b.build(gn.Args[0])
		out.Label = modifierLabels[k]
		out.Layout = LayoutSpecialModifier
		out.Children = []*Node{pool}
		if gn.Param != nil {
			out.Op = gn.Param.Op.String()
			out.Param = b.tight(gn.Param.Value)
		}
		if gn.Limit != nil {
			if gn.Limit.Times != graph.NoNode {
				out.Times = b.tight(gn.Limit.Times)
			}
			if gn.Limit.Counts != graph.NoNode {
				out.Counts = b.tight(gn.Limit.Counts)
			}
		}

	case modifierLabels[k] != "":
		// The pool operand is never wrapped; the parameter binds like a
		// dice operand.
		prec = ir.PrecDice
		pool, _ := b.build(gn.Args[0])
		out.Label = modifierLabels[k]
		var param *Node
		if gn.Param != nil {
			out.Label += gn.Param.Op.String()
			param = b.tight(gn.Param.Value)
		} else {
			param = b.tight(gn.Args[1])
		}
		out.Layout = LayoutTightInfix
		out.Children = []*Node{pool, param}
	}

	return out, prec
}
