package ir

import (
	"math"
	"strconv"
	"strings"
)

// Prec is a display precedence class. Higher binds tighter.
type Prec int

const (
	PrecSum     Prec = 10
	PrecProduct Prec = 20
	PrecDice    Prec = 30
	PrecPrefix  Prec = 40
	PrecCall    Prec = 50
)

// ArithPrec returns the precedence class of a binary operator.
func ArithPrec(op ArithOp) Prec {
	if op == Add || op == Subtract {
		return PrecSum
	}
	return PrecProduct
}

// FormatNumber prints v in its shortest round-trip form, without a trailing
// ".0" for integral values.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case v == 0:
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Format prints n in compact dice notation with minimal parentheses.
func Format(n Node) string {
	var b strings.Builder
	switch x := n.(type) {
	case Number:
		writeNumber(&b, x)
	case List:
		writeList(&b, x)
	}
	return b.String()
}

func numberPrec(n Number) Prec {
	switch x := n.(type) {
	case *Constant, *NumberFunc, *Aggregate:
		return PrecCall
	case DicePool, SuccessPool:
		return PrecDice
	case *Neg:
		return PrecPrefix
	case *Arith:
		return ArithPrec(x.Op)
	}
	return PrecCall
}

func listPrec(l List) Prec {
	switch x := l.(type) {
	case *Concat:
		return PrecSum
	case *Broadcast:
		return ArithPrec(x.Op)
	}
	return PrecCall
}

func writeWrapped(b *strings.Builder, wrap bool, write func()) {
	if wrap {
		b.WriteByte('(')
	}
	write()
	if wrap {
		b.WriteByte(')')
	}
}

func writeNumberWrapped(b *strings.Builder, n Number, wrap bool) {
	writeWrapped(b, wrap, func() { writeNumber(b, n) })
}

func writeListWrapped(b *strings.Builder, l List, wrap bool) {
	writeWrapped(b, wrap, func() { writeList(b, l) })
}

// writeTight writes a modifier operand, parenthesized unless it binds tighter
// than dice.
func writeTight(b *strings.Builder, n Number) {
	writeNumberWrapped(b, n, numberPrec(n) <= PrecDice)
}

func writeNumber(b *strings.Builder, n Number) {
	switch x := n.(type) {
	case *Constant:
		b.WriteString(FormatNumber(x.Value))
	case *Neg:
		b.WriteByte('-')
		writeNumberWrapped(b, x.X, numberPrec(x.X) < PrecPrefix)
	case *Arith:
		prec := ArithPrec(x.Op)
		writeNumberWrapped(b, x.LHS, numberPrec(x.LHS) < prec)
		b.WriteString(x.Op.String())
		writeNumberWrapped(b, x.RHS, numberPrec(x.RHS) <= prec)
	case *NumberFunc:
		b.WriteString(x.Fn.String())
		writeNumberWrapped(b, x.Arg, true)
	case *Aggregate:
		b.WriteString(x.Fn.String())
		writeListWrapped(b, x.List, true)
	case *StandardDice:
		writeTight(b, x.Count)
		b.WriteByte('d')
		writeTight(b, x.Sides)
	case *FudgeDice:
		writeTight(b, x.Count)
		b.WriteString("dF")
	case *CoinDice:
		writeTight(b, x.Count)
		b.WriteString("dC")
	case *Select:
		writeNumber(b, x.Pool)
		b.WriteString(x.Op.String())
		writeTight(b, x.N)
	case *Dynamic:
		writeNumber(b, x.Pool)
		b.WriteString(x.Op.String())
		if x.Param != nil {
			writeParam(b, *x.Param)
		}
		if x.Limit != nil {
			if x.Limit.Times != nil {
				b.WriteString("lt")
				writeTight(b, x.Limit.Times)
			}
			if x.Limit.Counts != nil {
				b.WriteString("lc")
				writeTight(b, x.Limit.Counts)
			}
		}
	case *SubtractFailures:
		writeNumber(b, x.Pool)
		b.WriteString("sf")
		writeParam(b, x.Param)
	case *Success:
		writeNumber(b, x.Source())
		b.WriteString(x.Op.String())
		writeParam(b, x.Param)
	}
}

func writeParam(b *strings.Builder, p ModParam) {
	b.WriteString(p.Op.String())
	writeTight(b, p.Value)
}

func writeList(b *strings.Builder, l List) {
	switch x := l.(type) {
	case *Explicit:
		b.WriteByte('[')
		for i, item := range x.Items {
			if i > 0 {
				b.WriteByte(',')
			}
			writeNumber(b, item)
		}
		b.WriteByte(']')
	case *ListFunc:
		b.WriteString(x.Fn.String())
		writeListWrapped(b, x.List, true)
	case *Pick:
		if x.Highest {
			b.WriteString("max(")
		} else {
			b.WriteString("min(")
		}
		writeList(b, x.List)
		b.WriteByte(',')
		writeNumber(b, x.K)
		b.WriteByte(')')
	case *FromDice:
		b.WriteString("tolist")
		writeNumberWrapped(b, x.Pool, true)
	case *FromSuccess:
		b.WriteString("tolist")
		writeNumberWrapped(b, x.Pool, true)
	case *Filter:
		b.WriteString("filter")
		b.WriteString(x.Param.Op.String())
		writeNumberWrapped(b, x.Param.Value, !IsConstant(x.Param.Value))
		writeListWrapped(b, x.List, true)
	case *Concat:
		writeListWrapped(b, x.LHS, listPrec(x.LHS) <= PrecSum)
		b.WriteByte('+')
		writeListWrapped(b, x.RHS, listPrec(x.RHS) <= PrecSum)
	case *Broadcast:
		prec := ArithPrec(x.Op)
		if x.Reverse {
			writeNumberWrapped(b, x.Number, numberPrec(x.Number) <= prec)
			b.WriteString(x.Op.String())
			writeListWrapped(b, x.List, listPrec(x.List) <= prec)
			return
		}
		writeListWrapped(b, x.List, listPrec(x.List) <= prec)
		b.WriteString(x.Op.String())
		writeNumberWrapped(b, x.Number, numberPrec(x.Number) <= prec)
	}
}
