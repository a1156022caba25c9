package render

import (
	"strconv"
	"strings"

	"github.com/roach88/dicegraph/internal/ir"
)

// ValueKind tags the variant held by a Value.
type ValueKind string

const (
	KindNumber      ValueKind = "number"
	KindList        ValueKind = "list"
	KindDicePool    ValueKind = "dicePool"
	KindSuccessPool ValueKind = "successPool"
	KindNotComputed ValueKind = "notComputed"
)

// Face describes the dice of a pool: "standard" with Sides, "fudge" or
// "coin".
type Face struct {
	Type  string `json:"type"`
	Sides int    `json:"sides,omitempty"`
}

// String returns the face in dice notation.
func (f Face) String() string {
	switch f.Type {
	case "fudge":
		return "dF"
	case "coin":
		return "dC"
	}
	return "d" + strconv.Itoa(f.Sides)
}

// Die is the display summary of one die.
type Die struct {
	Result   int    `json:"result"`
	Kept     bool   `json:"kept"`
	History  []int  `json:"history"`
	Rerolled bool   `json:"rerolled,omitempty"`
	Exploded int    `json:"exploded,omitempty"`
	Outcome  string `json:"outcome"`
}

// Outcome values.
const (
	OutcomeNone    = "none"
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Value is the display summary of a node's computed value. Number is set
// for numbers, List for lists, and Total, Face and Dice for pools; a success
// pool stores its count in Total.
type Value struct {
	Kind   ValueKind
	Number float64
	List   []float64
	Total  int
	Face   *Face
	Dice   []Die
}

// Scalar returns the numeric value of a number or pool, and false for
// lists and missing values.
func (v Value) Scalar() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Number, true
	case KindDicePool, KindSuccessPool:
		return float64(v.Total), true
	}
	return 0, false
}

// String prints the value compactly: numbers plainly, lists in brackets.
// Pools print their total followed by the dice; dropped dice are
// parenthesized, a trailing ! counts explosions, r marks a rerolled die and
// +/- mark successes and failures.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return ir.FormatNumber(v.Number)
	case KindList:
		return formatList(v.List)
	case KindDicePool, KindSuccessPool:
		return strconv.Itoa(v.Total) + " " + v.DiceString()
	}
	return "?"
}

// DiceString prints only the dice of a pool.
func (v Value) DiceString() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, d := range v.Dice {
		if i > 0 {
			b.WriteByte(' ')
		}
		writeDie(&b, d)
	}
	b.WriteByte(']')
	return b.String()
}

func formatList(vals []float64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range vals {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(ir.FormatNumber(x))
	}
	b.WriteByte(']')
	return b.String()
}

func writeDie(b *strings.Builder, d Die) {
	if !d.Kept {
		b.WriteByte('(')
	}
	if len(d.History) > 1 {
		for i, h := range d.History {
			if i > 0 {
				b.WriteByte('+')
			}
			b.WriteString(strconv.Itoa(h))
		}
		if d.Result != sum(d.History) {
			b.WriteString("=" + strconv.Itoa(d.Result))
		}
	} else {
		b.WriteString(strconv.Itoa(d.Result))
	}
	b.WriteString(strings.Repeat("!", d.Exploded))
	if d.Rerolled {
		b.WriteByte('r')
	}
	switch d.Outcome {
	case OutcomeSuccess:
		b.WriteByte('+')
	case OutcomeFailure:
		b.WriteByte('-')
	}
	if !d.Kept {
		b.WriteByte(')')
	}
}

func sum(xs []int) int {
	t := 0
	for _, x := range xs {
		t += x
	}
	return t
}

// Encode returns the canonical JSON form of v.
func (v Value) Encode() ir.JSONValue {
	obj := ir.JSONObject{"kind": ir.JSONString(v.Kind)}
	switch v.Kind {
	case KindNumber:
		obj["number"] = ir.JSONFloat(v.Number)
	case KindList:
		obj["list"] = ir.Floats(v.List)
	case KindDicePool, KindSuccessPool:
		obj["total"] = ir.JSONInt(v.Total)
		if v.Face != nil {
			face := ir.JSONObject{"type": ir.JSONString(v.Face.Type)}
			if v.Face.Type == "standard" {
				face["sides"] = ir.JSONInt(v.Face.Sides)
			}
			obj["face"] = face
		}
		dice := make(ir.JSONArray, len(v.Dice))
		for i, d := range v.Dice {
			history := make(ir.JSONArray, len(d.History))
			for j, h := range d.History {
				history[j] = ir.JSONInt(h)
			}
			dice[i] = ir.JSONObject{
				"result":   ir.JSONInt(d.Result),
				"kept":     ir.JSONBool(d.Kept),
				"history":  history,
				"rerolled": ir.JSONBool(d.Rerolled),
				"exploded": ir.JSONInt(d.Exploded),
				"outcome":  ir.JSONString(d.Outcome),
			}
		}
		obj["dice"] = dice
	}
	return obj
}

// MarshalJSON encodes v canonically.
func (v Value) MarshalJSON() ([]byte, error) {
	return ir.MarshalCanonical(v.Encode())
}
