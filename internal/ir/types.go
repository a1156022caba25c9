package ir

import "math"

// Epsilon is the tolerance used by equality comparisons on rolled values.
var Epsilon = math.Nextafter(1, 2) - 1

// Node is any IR node. Every node is either a Number or a List.
type Node interface {
	irNode()
}

// Number is an IR node that evaluates to a scalar.
type Number interface {
	Node
	number()
}

// List is an IR node that evaluates to a sequence of scalars.
type List interface {
	Node
	list()
}

// DicePool is a Number whose value carries individual die details.
type DicePool interface {
	Number
	dicePool()
}

// SuccessPool is a Number counting successes minus failures.
type SuccessPool interface {
	Number
	successPool()
}

// Constant is a literal scalar.
type Constant struct {
	Value float64
}

// Neg negates its operand.
type Neg struct {
	X Number
}

// ArithOp is a scalar arithmetic operator.
type ArithOp int

const (
	Add ArithOp = iota
	Subtract
	Multiply
	Divide
	IntDivide
	Modulo
)

// String returns the operator's spelling.
func (op ArithOp) String() string {
	return [...]string{"+", "-", "*", "/", "//", "%"}[op]
}

// Commutative reports whether operand order is irrelevant for op.
func (op ArithOp) Commutative() bool {
	return op == Add || op == Multiply
}

// Arith is a binary arithmetic expression on two numbers.
type Arith struct {
	Op  ArithOp
	LHS Number
	RHS Number
}

// NumberFn is a function from one number to one number.
type NumberFn int

const (
	Floor NumberFn = iota
	Ceil
	Round
	Abs
)

// String returns the function name.
func (fn NumberFn) String() string {
	return [...]string{"floor", "ceil", "round", "abs"}[fn]
}

// Apply evaluates fn on v. Round is half away from zero.
func (fn NumberFn) Apply(v float64) float64 {
	switch fn {
	case Floor:
		return math.Floor(v)
	case Ceil:
		return math.Ceil(v)
	case Round:
		return math.Round(v)
	default:
		return math.Abs(v)
	}
}

// NumberFunc applies a NumberFn to a number.
type NumberFunc struct {
	Fn  NumberFn
	Arg Number
}

// AggregateFn reduces a list to a number.
type AggregateFn int

const (
	Max AggregateFn = iota
	Min
	Sum
	Avg
	Len
)

// String returns the function name.
func (fn AggregateFn) String() string {
	return [...]string{"max", "min", "sum", "avg", "len"}[fn]
}

// Aggregate reduces a list to a number.
type Aggregate struct {
	Fn   AggregateFn
	List List
}

// StandardDice rolls Count dice with Sides faces.
type StandardDice struct {
	Count Number
	Sides Number
}

// FudgeDice rolls Count dice with faces -1, 0 and 1.
type FudgeDice struct {
	Count Number
}

// CoinDice rolls Count dice with faces 0 and 1.
type CoinDice struct {
	Count Number
}

// SelectOp is a static modifier parameterized by a count or target value.
type SelectOp int

const (
	KeepHigh SelectOp = iota
	KeepLow
	DropHigh
	DropLow
	ClampMin
	ClampMax
)

// String returns the modifier's spelling.
func (op SelectOp) String() string {
	return [...]string{"kh", "kl", "dh", "dl", "min", "max"}[op]
}

// Select keeps, drops or clamps dice of Pool according to N.
type Select struct {
	Op   SelectOp
	Pool DicePool
	N    Number
}

// DynamicOp is a modifier that may roll further dice.
type DynamicOp int

const (
	Explode DynamicOp = iota
	CompoundExplode
	Reroll
)

// String returns the modifier's spelling.
func (op DynamicOp) String() string {
	return [...]string{"!", "!!", "r"}[op]
}

// Dynamic is an explode, compound-explode or reroll modifier. Param is
// required for Reroll; a nil Param on explosions means "equals the maximum face".
type Dynamic struct {
	Op    DynamicOp
	Pool  DicePool
	Param *ModParam
	Limit *Limit
}

// SubtractFailures removes dice matching Param from Pool.
type SubtractFailures struct {
	Pool  DicePool
	Param ModParam
}

// SuccessOp marks matching dice as successes or failures.
type SuccessOp int

const (
	CountSuccesses SuccessOp = iota
	DeductFailures
)

// String returns the modifier's spelling.
func (op SuccessOp) String() string {
	return [...]string{"cs", "df"}[op]
}

// Success classifies dice against Param. Exactly one of Dice and Inner is set.
type Success struct {
	Op    SuccessOp
	Dice  DicePool
	Inner SuccessPool
	Param ModParam
}

// Source returns whichever operand is set.
func (s *Success) Source() Number {
	if s.Dice != nil {
		return s.Dice
	}
	return s.Inner
}

// Explicit is a literal list.
type Explicit struct {
	Items []Number
}

// ListFn is an element-wise or ordering function on a list.
type ListFn int

const (
	ListFloor ListFn = iota
	ListCeil
	ListRound
	ListAbs
	Sort
	SortDesc
)

// String returns the function name.
func (fn ListFn) String() string {
	return [...]string{"floor", "ceil", "round", "abs", "sort", "sortd"}[fn]
}

// ListFunc applies a ListFn to a list.
type ListFunc struct {
	Fn   ListFn
	List List
}

// Pick keeps the K largest (Highest) or smallest elements of List in their
// original order.
type Pick struct {
	Highest bool
	List    List
	K       Number
}

// FromDice lists the kept results of a dice pool.
type FromDice struct {
	Pool DicePool
}

// FromSuccess lists the kept outcomes of a success pool as 1, -1 or 0.
type FromSuccess struct {
	Pool SuccessPool
}

// Filter keeps the elements of List that satisfy Param.
type Filter struct {
	List  List
	Param ModParam
}

// Concat joins two lists.
type Concat struct {
	LHS List
	RHS List
}

// Broadcast applies Op between every element of List and Number. With
// Reverse set the number is the left operand.
type Broadcast struct {
	Op      ArithOp
	List    List
	Number  Number
	Reverse bool
}

// CompareOp is a comparison operator.
type CompareOp int

const (
	Equal CompareOp = iota
	NotEqual
	Greater
	GreaterEqual
	Less
	LessEqual
)

// String returns the operator's spelling.
func (op CompareOp) String() string {
	return [...]string{"=", "<>", ">", ">=", "<", "<="}[op]
}

// Compare reports whether x op target holds.
func (op CompareOp) Compare(x, target float64) bool {
	switch op {
	case Equal:
		return math.Abs(x-target) < Epsilon
	case NotEqual:
		return math.Abs(x-target) >= Epsilon
	case Greater:
		return x > target
	case GreaterEqual:
		return x >= target
	case Less:
		return x < target
	default:
		return x <= target
	}
}

// ModParam pairs a comparison with its operand.
type ModParam struct {
	Op    CompareOp
	Value Number
}

// Limit caps a dynamic modifier. Times bounds the number of rounds and
// Counts the number of new dice; either may be nil.
type Limit struct {
	Times  Number
	Counts Number
}

func (*Constant) irNode()         {}
func (*Neg) irNode()              {}
func (*Arith) irNode()            {}
func (*NumberFunc) irNode()       {}
func (*Aggregate) irNode()        {}
func (*StandardDice) irNode()     {}
func (*FudgeDice) irNode()        {}
func (*CoinDice) irNode()         {}
func (*Select) irNode()           {}
func (*Dynamic) irNode()          {}
func (*SubtractFailures) irNode() {}
func (*Success) irNode()          {}
func (*Explicit) irNode()         {}
func (*ListFunc) irNode()         {}
func (*Pick) irNode()             {}
func (*FromDice) irNode()         {}
func (*FromSuccess) irNode()      {}
func (*Filter) irNode()           {}
func (*Concat) irNode()           {}
func (*Broadcast) irNode()        {}

func (*Constant) number()         {}
func (*Neg) number()              {}
func (*Arith) number()            {}
func (*NumberFunc) number()       {}
func (*Aggregate) number()        {}
func (*StandardDice) number()     {}
func (*FudgeDice) number()        {}
func (*CoinDice) number()         {}
func (*Select) number()           {}
func (*Dynamic) number()          {}
func (*SubtractFailures) number() {}
func (*Success) number()          {}

func (*StandardDice) dicePool()     {}
func (*FudgeDice) dicePool()        {}
func (*CoinDice) dicePool()         {}
func (*Select) dicePool()           {}
func (*Dynamic) dicePool()          {}
func (*SubtractFailures) dicePool() {}

func (*Success) successPool() {}

func (*Explicit) list()    {}
func (*ListFunc) list()    {}
func (*Pick) list()        {}
func (*FromDice) list()    {}
func (*FromSuccess) list() {}
func (*Filter) list()      {}
func (*Concat) list()      {}
func (*Broadcast) list()   {}

// IsConstant reports whether n is a Constant.
func IsConstant(n Number) bool {
	_, ok := n.(*Constant)
	return ok
}

// ConstantValue returns n's value when n is a Constant.
func ConstantValue(n Number) (float64, bool) {
	c, ok := n.(*Constant)
	if !ok {
		return 0, false
	}
	return c.Value, true
}

// ConstantItems returns the values of an explicit list whose every element
// is a Constant.
func ConstantItems(l List) ([]float64, bool) {
	e, ok := l.(*Explicit)
	if !ok {
		return nil, false
	}
	vals := make([]float64, len(e.Items))
	for i, item := range e.Items {
		v, ok := ConstantValue(item)
		if !ok {
			return nil, false
		}
		vals[i] = v
	}
	return vals, true
}

// NewConstantList builds an explicit list of constants.
func NewConstantList(vals []float64) *Explicit {
	items := make([]Number, len(vals))
	for i, v := range vals {
		items[i] = &Constant{Value: v}
	}
	return &Explicit{Items: items}
}
