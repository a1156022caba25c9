package graph

// Kind identifies the operation a node performs.
type Kind int

const (
	Constant Kind = iota
	ListConstruct

	NumNegate

	NumAdd
	NumSubtract
	NumMultiply
	NumDivide
	NumIntDivide
	NumModulo

	Concat
	ListAdd
	ListMultiply
	ListSubtract
	ListSubtractReverse
	ListDivide
	ListDivideReverse
	ListIntDivide
	ListIntDivideReverse
	ListModulo
	ListModuloReverse

	NumFloor
	NumCeil
	NumRound
	NumAbs
	NumMax
	NumMin
	NumSum
	NumAvg
	NumLen

	ListFloor
	ListCeil
	ListRound
	ListAbs
	ListMax
	ListMin
	ListSort
	ListSortDesc
	ListFromDicePool
	ListFromSuccessPool
	ListFilter

	DiceStandard
	DiceFudge
	DiceCoin
	DiceKeepHigh
	DiceKeepLow
	DiceDropHigh
	DiceDropLow
	DiceMin
	DiceMax
	DiceExplode
	DiceCompoundExplode
	DiceReroll
	DiceSubtractFailures
	DiceCountSuccessesFromPool
	DiceDeductFailuresFromPool
	DiceCountSuccesses
	DiceDeductFailures

	numKinds
)

type paramRule int

const (
	paramNone paramRule = iota
	paramOptional
	paramRequired
)

type kindInfo struct {
	name  string
	arity int // -1 for any number of args
	param paramRule
	limit bool
}

var kinds = [numKinds]kindInfo{
	Constant:      {"Constant", 0, paramNone, false},
	ListConstruct: {"ListConstruct", -1, paramNone, false},

	NumNegate: {"NumNegate", 1, paramNone, false},

	NumAdd:       {"NumAdd", 2, paramNone, false},
	NumSubtract:  {"NumSubtract", 2, paramNone, false},
	NumMultiply:  {"NumMultiply", 2, paramNone, false},
	NumDivide:    {"NumDivide", 2, paramNone, false},
	NumIntDivide: {"NumIntDivide", 2, paramNone, false},
	NumModulo:    {"NumModulo", 2, paramNone, false},

	Concat:               {"Concat", 2, paramNone, false},
	ListAdd:              {"ListAdd", 2, paramNone, false},
	ListMultiply:         {"ListMultiply", 2, paramNone, false},
	ListSubtract:         {"ListSubtract", 2, paramNone, false},
	ListSubtractReverse:  {"ListSubtractReverse", 2, paramNone, false},
	ListDivide:           {"ListDivide", 2, paramNone, false},
	ListDivideReverse:    {"ListDivideReverse", 2, paramNone, false},
	ListIntDivide:        {"ListIntDivide", 2, paramNone, false},
	ListIntDivideReverse: {"ListIntDivideReverse", 2, paramNone, false},
	ListModulo:           {"ListModulo", 2, paramNone, false},
	ListModuloReverse:    {"ListModuloReverse", 2, paramNone, false},

	NumFloor: {"NumFloor", 1, paramNone, false},
	NumCeil:  {"NumCeil", 1, paramNone, false},
	NumRound: {"NumRound", 1, paramNone, false},
	NumAbs:   {"NumAbs", 1, paramNone, false},
	NumMax:   {"NumMax", 1, paramNone, false},
	NumMin:   {"NumMin", 1, paramNone, false},
	NumSum:   {"NumSum", 1, paramNone, false},
	NumAvg:   {"NumAvg", 1, paramNone, false},
	NumLen:   {"NumLen", 1, paramNone, false},

	ListFloor:           {"ListFloor", 1, paramNone, false},
	ListCeil:            {"ListCeil", 1, paramNone, false},
	ListRound:           {"ListRound", 1, paramNone, false},
	ListAbs:             {"ListAbs", 1, paramNone, false},
	ListMax:             {"ListMax", 2, paramNone, false},
	ListMin:             {"ListMin", 2, paramNone, false},
	ListSort:            {"ListSort", 1, paramNone, false},
	ListSortDesc:        {"ListSortDesc", 1, paramNone, false},
	ListFromDicePool:    {"ListFromDicePool", 1, paramNone, false},
	ListFromSuccessPool: {"ListFromSuccessPool", 1, paramNone, false},
	ListFilter:          {"ListFilter", 1, paramRequired, false},

	DiceStandard:               {"DiceStandard", 2, paramNone, false},
	DiceFudge:                  {"DiceFudge", 1, paramNone, false},
	DiceCoin:                   {"DiceCoin", 1, paramNone, false},
	DiceKeepHigh:               {"DiceKeepHigh", 2, paramNone, false},
	DiceKeepLow:                {"DiceKeepLow", 2, paramNone, false},
	DiceDropHigh:               {"DiceDropHigh", 2, paramNone, false},
	DiceDropLow:                {"DiceDropLow", 2, paramNone, false},
	DiceMin:                    {"DiceMin", 2, paramNone, false},
	DiceMax:                    {"DiceMax", 2, paramNone, false},
	DiceExplode:                {"DiceExplode", 1, paramOptional, true},
	DiceCompoundExplode:        {"DiceCompoundExplode", 1, paramOptional, true},
	DiceReroll:                 {"DiceReroll", 1, paramRequired, true},
	DiceSubtractFailures:       {"DiceSubtractFailures", 1, paramRequired, false},
	DiceCountSuccessesFromPool: {"DiceCountSuccessesFromPool", 1, paramRequired, false},
	DiceDeductFailuresFromPool: {"DiceDeductFailuresFromPool", 1, paramRequired, false},
	DiceCountSuccesses:         {"DiceCountSuccesses", 1, paramRequired, false},
	DiceDeductFailures:         {"DiceDeductFailures", 1, paramRequired, false},
}

// String returns the kind name.
func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "Unknown"
	}
	return kinds[k].name
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k >= 0 && k < numKinds
}

// IsDiceBase reports whether k produces randomness directly: the only kinds
// that answer a request with a fresh pool.
func (k Kind) IsDiceBase() bool {
	return k == DiceStandard || k == DiceFudge || k == DiceCoin
}

// IsDynamic reports whether k resolves over several request rounds.
func (k Kind) IsDynamic() bool {
	return k == DiceExplode || k == DiceCompoundExplode || k == DiceReroll
}
