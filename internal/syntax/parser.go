package syntax

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// ParseError reports a syntax error at a byte offset of the source.
type ParseError struct {
	Offset int
	Msg    string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error at %d: %s", e.Offset, e.Msg)
}

// Binding powers for infix operators. Postfix modifiers bind tighter than
// prefix operators, which bind tighter than any infix operator.
const (
	precSum     = 10
	precProduct = 20
)

var folder = cases.Fold()

// Parse parses a dice expression into a surface tree.
func Parse(src string) (Expr, error) {
	p := &parser{src: src}
	expr, err := p.parseExpr(precSum)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected %q", p.rest(1))
	}
	return expr, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) peekAt(off int) byte {
	if p.pos+off >= len(p.src) {
		return 0
	}
	return p.src[p.pos+off]
}

func (p *parser) rest(n int) string {
	end := min(p.pos+n, len(p.src))
	return p.src[p.pos:end]
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// hasWord reports whether the input continues with word, ignoring case.
func (p *parser) hasWord(word string) bool {
	if p.pos+len(word) > len(p.src) {
		return false
	}
	return strings.EqualFold(p.src[p.pos:p.pos+len(word)], word)
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		if p.eof() {
			return p.errorf("expected %q, found end of input", c)
		}
		return p.errorf("expected %q, found %q", c, p.rest(1))
	}
	p.pos++
	return nil
}

// parseExpr parses infix chains whose operators bind at least as tightly as minPrec.
func (p *parser) parseExpr(minPrec int) (Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		op, prec, width, ok := p.peekInfix()
		if !ok || prec < minPrec {
			return lhs, nil
		}
		p.pos += width
		rhs, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		lhs = &Binary{Op: op, LHS: lhs, RHS: rhs}
	}
}

func (p *parser) peekInfix() (BinOp, int, int, bool) {
	switch p.peek() {
	case '+':
		return OpAdd, precSum, 1, true
	case '-':
		return OpSub, precSum, 1, true
	case '*':
		if p.peekAt(1) == '*' {
			return OpRepeat, precProduct, 2, true
		}
		return OpMul, precProduct, 1, true
	case '/':
		if p.peekAt(1) == '/' {
			return OpIntDiv, precProduct, 2, true
		}
		return OpDiv, precProduct, 1, true
	case '%':
		return OpMod, precProduct, 1, true
	}
	return 0, 0, 0, false
}

func (p *parser) parseUnary() (Expr, error) {
	p.skipSpace()
	switch p.peek() {
	case '-':
		p.pos++
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Neg{X: x}, nil
	case '+':
		p.pos++
		return p.parseUnary()
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Expr, error) {
	x, err := p.parseDice()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		next, ok, err := p.parseModifier(x)
		if err != nil {
			return nil, err
		}
		if !ok {
			return x, nil
		}
		x = next
	}
}

// parseDice parses `atom`, `atom d sides`, `atom dF`, `atom dC` and the
// count-less forms `d6`, `dF`, `dC`.
func (p *parser) parseDice() (Expr, error) {
	p.skipSpace()
	var count Expr
	if c := p.peek(); (c == 'd' || c == 'D') && p.diceFollows() {
		count = &Number{Value: 1}
	} else {
		atom, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		if !p.diceFollows() {
			return atom, nil
		}
		count = atom
	}

	// Consume the 'd'.
	p.pos++
	switch p.peek() {
	case 'f', 'F':
		p.pos++
		return &Dice{Kind: DiceFudge, Count: count}, nil
	case 'c', 'C':
		p.pos++
		return &Dice{Kind: DiceCoin, Count: count}, nil
	}
	sides, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	return &Dice{Kind: DiceStandard, Count: count, Sides: sides}, nil
}

// diceFollows reports whether the input is at a dice operator: a 'd' followed
// by F, C or the start of an atom. `dh`, `dl` and `df` after a complete dice
// expression are modifiers and are handled by parseModifier.
func (p *parser) diceFollows() bool {
	if c := p.peek(); c != 'd' && c != 'D' {
		return false
	}
	switch p.peekAt(1) {
	case 'f', 'F', 'c', 'C':
		return !isIdentByte(p.peekAt(2))
	}
	save := p.pos
	p.pos++
	ok := p.atomFollows()
	p.pos = save
	return ok
}

// atomFollows reports whether an atom starts at the current position.
func (p *parser) atomFollows() bool {
	c := p.peek()
	switch {
	case isDigit(c), c == '.', c == '(', c == '[':
		return true
	case isLetter(c):
		name := p.peekIdent()
		if _, ok := funcNames[folder.String(name)]; !ok {
			return false
		}
		after := p.peekAt(len(name))
		return after == '(' || (folder.String(name) == "filter" && isCompareStart(after))
	}
	return false
}

func (p *parser) peekIdent() string {
	end := p.pos
	for end < len(p.src) && isLetter(p.src[end]) {
		end++
	}
	return p.src[p.pos:end]
}

func (p *parser) parseAtom() (Expr, error) {
	p.skipSpace()
	c := p.peek()
	switch {
	case p.eof():
		return nil, p.errorf("unexpected end of input")
	case isDigit(c) || c == '.':
		return p.parseNumber()
	case c == '(':
		p.pos++
		x, err := p.parseExpr(precSum)
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return x, nil
	case c == '[':
		p.pos++
		items, err := p.parseExprList(']')
		if err != nil {
			return nil, err
		}
		return &List{Items: items}, nil
	case isLetter(c):
		return p.parseCall()
	}
	return nil, p.errorf("unexpected %q", p.rest(1))
}

func (p *parser) parseNumber() (Expr, error) {
	start := p.pos
	for isDigit(p.peek()) {
		p.pos++
	}
	if p.peek() == '.' {
		p.pos++
		for isDigit(p.peek()) {
			p.pos++
		}
	}
	text := p.src[start:p.pos]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.pos = start
		return nil, p.errorf("invalid number %q", text)
	}
	return &Number{Value: v}, nil
}

func (p *parser) parseCall() (Expr, error) {
	start := p.pos
	name := p.peekIdent()
	fn, ok := funcNames[folder.String(name)]
	if !ok {
		return nil, p.errorf("unknown function %q", name)
	}
	p.pos += len(name)

	call := &Call{Fn: fn}
	if fn == FuncFilter {
		cmp, ok, err := p.parseCompare(true)
		if err != nil {
			return nil, err
		}
		if !ok {
			p.pos = start
			return nil, p.errorf("filter requires a comparison")
		}
		call.Filter = cmp
	}
	if err := p.expect('('); err != nil {
		return nil, err
	}
	args, err := p.parseExprList(')')
	if err != nil {
		return nil, err
	}
	call.Args = args
	return call, nil
}

// parseExprList parses a comma-separated list up to and including the closer.
func (p *parser) parseExprList(closer byte) ([]Expr, error) {
	var items []Expr
	p.skipSpace()
	if p.peek() == closer {
		p.pos++
		return items, nil
	}
	for {
		x, err := p.parseExpr(precSum)
		if err != nil {
			return nil, err
		}
		items = append(items, x)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case closer:
			p.pos++
			return items, nil
		default:
			if p.eof() {
				return nil, p.errorf("expected %q, found end of input", closer)
			}
			return nil, p.errorf("expected ',' or %q, found %q", closer, p.rest(1))
		}
	}
}

// parseModifier tries to parse one postfix modifier applied to x.
func (p *parser) parseModifier(x Expr) (Expr, bool, error) {
	switch {
	case p.hasWord("kh"):
		return p.parseCountModifier(x, KeepHigh, 2)
	case p.hasWord("kl"):
		return p.parseCountModifier(x, KeepLow, 2)
	case p.hasWord("dh"):
		return p.parseCountModifier(x, DropHigh, 2)
	case p.hasWord("dl"):
		return p.parseCountModifier(x, DropLow, 2)
	case p.hasWord("min"):
		return p.parseCountModifier(x, ClampMin, 3)
	case p.hasWord("max"):
		return p.parseCountModifier(x, ClampMax, 3)
	case p.hasWord("!!"):
		return p.parseRollModifier(x, CompoundExplode, 2)
	case p.hasWord("!"):
		return p.parseRollModifier(x, Explode, 1)
	case p.hasWord("r"):
		return p.parseRollModifier(x, Reroll, 1)
	case p.hasWord("cs"):
		return p.parseCompareModifier(x, CountSuccesses, 2)
	case p.hasWord("df"):
		return p.parseCompareModifier(x, DeductFailures, 2)
	case p.hasWord("sf"):
		return p.parseCompareModifier(x, SubtractFailures, 2)
	}
	return nil, false, nil
}

func (p *parser) parseCountModifier(x Expr, op CountOp, width int) (Expr, bool, error) {
	p.pos += width
	p.skipSpace()
	var n Expr = &Number{Value: 1}
	if p.atomFollows() {
		atom, err := p.parseAtom()
		if err != nil {
			return nil, false, err
		}
		n = atom
	}
	return &CountModifier{Op: op, X: x, N: n}, true, nil
}

func (p *parser) parseRollModifier(x Expr, op RollOp, width int) (Expr, bool, error) {
	p.pos += width
	p.skipSpace()
	mod := &RollModifier{Op: op, X: x}
	cmp, ok, err := p.parseCompare(false)
	if err != nil {
		return nil, false, err
	}
	if ok {
		mod.Param = cmp
	} else if op == Reroll {
		return nil, false, p.errorf("reroll requires a comparison")
	}

	for {
		p.skipSpace()
		switch {
		case p.hasWord("lt"):
			if mod.Limit != nil && mod.Limit.Times != nil {
				return nil, false, p.errorf("duplicate lt limit")
			}
			p.pos += 2
			v, err := p.parseAtom()
			if err != nil {
				return nil, false, err
			}
			if mod.Limit == nil {
				mod.Limit = &Limit{}
			}
			mod.Limit.Times = v
		case p.hasWord("lc"):
			if mod.Limit != nil && mod.Limit.Counts != nil {
				return nil, false, p.errorf("duplicate lc limit")
			}
			p.pos += 2
			v, err := p.parseAtom()
			if err != nil {
				return nil, false, err
			}
			if mod.Limit == nil {
				mod.Limit = &Limit{}
			}
			mod.Limit.Counts = v
		default:
			return mod, true, nil
		}
	}
}

func (p *parser) parseCompareModifier(x Expr, op CompareModOp, width int) (Expr, bool, error) {
	p.pos += width
	cmp, ok, err := p.parseCompare(true)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, p.errorf("%s requires a comparison", op)
	}
	return &CompareModifier{Op: op, X: x, Param: *cmp}, true, nil
}

// parseCompare parses `[op] atom`. With required unset, an absent operand is
// not an error and ok is false.
func (p *parser) parseCompare(required bool) (*Compare, bool, error) {
	p.skipSpace()
	op, width, hasOp := p.peekCompare()
	if hasOp {
		p.pos += width
		p.skipSpace()
		v, err := p.parseAtom()
		if err != nil {
			return nil, false, err
		}
		return &Compare{Op: op, Value: v}, true, nil
	}
	if !p.atomFollows() {
		if required {
			return nil, false, p.errorf("expected comparison")
		}
		return nil, false, nil
	}
	v, err := p.parseAtom()
	if err != nil {
		return nil, false, err
	}
	return &Compare{Op: CmpEqual, Value: v}, true, nil
}

func (p *parser) peekCompare() (CompareOp, int, bool) {
	switch p.peek() {
	case '>':
		if p.peekAt(1) == '=' {
			return CmpGreaterEqual, 2, true
		}
		return CmpGreater, 1, true
	case '<':
		switch p.peekAt(1) {
		case '=':
			return CmpLessEqual, 2, true
		case '>':
			return CmpNotEqual, 2, true
		}
		return CmpLess, 1, true
	case '=':
		return CmpEqual, 1, true
	}
	return 0, 0, false
}

func isCompareStart(c byte) bool {
	return c == '>' || c == '<' || c == '=' || isDigit(c) || c == '('
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isLetter(c) || c == '_'
}
