package syntax

// Expr is a node of the surface tree produced by Parse.
//
// The surface tree is untyped: a dice count may be a list, a modifier may be
// attached to a plain number. Shape checking happens during lowering.
type Expr interface {
	exprNode()
}

// Number is a numeric literal.
type Number struct {
	Value float64
}

// Neg is unary negation. Unary plus is dropped by the parser.
type Neg struct {
	X Expr
}

// DiceKind selects the base die shape.
type DiceKind int

const (
	DiceStandard DiceKind = iota // NdS
	DiceFudge                    // NdF, faces -1..1
	DiceCoin                     // NdC, faces 0..1
)

// Dice is a base dice roll. Sides is nil for fudge and coin dice.
type Dice struct {
	Kind  DiceKind
	Count Expr
	Sides Expr
}

// List is a bracketed list literal.
type List struct {
	Items []Expr
}

// BinOp is a binary arithmetic operator.
type BinOp int

const (
	OpAdd    BinOp = iota // +
	OpSub                 // -
	OpMul                 // *
	OpDiv                 // /
	OpIntDiv              // //
	OpMod                 // %
	OpRepeat              // ** (list repetition)
)

// String returns the operator's source spelling.
func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpIntDiv:
		return "//"
	case OpMod:
		return "%"
	case OpRepeat:
		return "**"
	default:
		return "?"
	}
}

// Binary is a binary arithmetic expression.
type Binary struct {
	Op  BinOp
	LHS Expr
	RHS Expr
}

// Func names a built-in function.
type Func int

const (
	FuncFloor Func = iota
	FuncCeil
	FuncRound
	FuncAbs
	FuncMax
	FuncMin
	FuncSum
	FuncAvg
	FuncLen
	FuncRpdice
	FuncSort
	FuncSortDesc
	FuncToList
	FuncFilter
)

var funcNames = map[string]Func{
	"floor":  FuncFloor,
	"ceil":   FuncCeil,
	"round":  FuncRound,
	"abs":    FuncAbs,
	"max":    FuncMax,
	"min":    FuncMin,
	"sum":    FuncSum,
	"avg":    FuncAvg,
	"len":    FuncLen,
	"rpdice": FuncRpdice,
	"sort":   FuncSort,
	"sortd":  FuncSortDesc,
	"tolist": FuncToList,
	"filter": FuncFilter,
}

// String returns the function's source name.
func (f Func) String() string {
	for name, fn := range funcNames {
		if fn == f {
			return name
		}
	}
	return "?"
}

// Call is a function call. Filter is set only for FuncFilter.
type Call struct {
	Fn     Func
	Filter *Compare
	Args   []Expr
}

// CompareOp is a comparison operator used by modifiers and filter.
type CompareOp int

const (
	CmpEqual CompareOp = iota
	CmpNotEqual
	CmpGreater
	CmpGreaterEqual
	CmpLess
	CmpLessEqual
)

// String returns the operator's source spelling.
func (op CompareOp) String() string {
	switch op {
	case CmpEqual:
		return "="
	case CmpNotEqual:
		return "<>"
	case CmpGreater:
		return ">"
	case CmpGreaterEqual:
		return ">="
	case CmpLess:
		return "<"
	case CmpLessEqual:
		return "<="
	default:
		return "?"
	}
}

// Compare pairs an operator with its operand. A bare operand means CmpEqual.
type Compare struct {
	Op    CompareOp
	Value Expr
}

// Limit caps a reroll or explosion. Either field may be nil.
type Limit struct {
	Times  Expr // lt: maximum rounds
	Counts Expr // lc: maximum new dice
}

// CountOp is a modifier that takes a plain count: kh kl dh dl min max.
type CountOp int

const (
	KeepHigh CountOp = iota
	KeepLow
	DropHigh
	DropLow
	ClampMin
	ClampMax
)

// String returns the modifier's source spelling.
func (op CountOp) String() string {
	return [...]string{"kh", "kl", "dh", "dl", "min", "max"}[op]
}

// CountModifier is a keep/drop/clamp modifier. N defaults to 1 when omitted.
type CountModifier struct {
	Op CountOp
	X  Expr
	N  Expr
}

// RollOp is a modifier that may roll more dice: ! !! r.
type RollOp int

const (
	Explode RollOp = iota
	CompoundExplode
	Reroll
)

// String returns the modifier's source spelling.
func (op RollOp) String() string {
	return [...]string{"!", "!!", "r"}[op]
}

// RollModifier is an explode, compound-explode or reroll modifier.
// Param and Limit are optional.
type RollModifier struct {
	Op    RollOp
	X     Expr
	Param *Compare
	Limit *Limit
}

// CompareModOp is a modifier that classifies dice: cs df sf.
type CompareModOp int

const (
	CountSuccesses CompareModOp = iota
	DeductFailures
	SubtractFailures
)

// String returns the modifier's source spelling.
func (op CompareModOp) String() string {
	return [...]string{"cs", "df", "sf"}[op]
}

// CompareModifier is a success/failure modifier with a required comparison.
type CompareModifier struct {
	Op    CompareModOp
	X     Expr
	Param Compare
}

func (*Number) exprNode()          {}
func (*Neg) exprNode()             {}
func (*Dice) exprNode()            {}
func (*List) exprNode()            {}
func (*Binary) exprNode()          {}
func (*Call) exprNode()            {}
func (*CountModifier) exprNode()   {}
func (*RollModifier) exprNode()    {}
func (*CompareModifier) exprNode() {}
