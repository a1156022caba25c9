// Package render rebuilds a displayable expression tree from an evaluation
// graph and the values computed for its nodes.
//
// The tree is parenthesized with the same precedence classes the grammar
// uses, so an algebraically normalized graph still prints as a valid
// expression. Parenthesization is decided while building; Node.Parens tells
// a front end whether to wrap a node without it having to know precedence.
package render

import (
	"strings"

	"github.com/roach88/dicegraph/internal/graph"
	"github.com/roach88/dicegraph/internal/ir"
)

// Layout decides how a node's label and children are arranged.
type Layout string

const (
	LayoutAtom            Layout = "atom"            // label
	LayoutList            Layout = "list"            // [c0,c1,...]
	LayoutPrefix          Layout = "prefix"          // label c0
	LayoutInfix           Layout = "infix"           // c0 label c1
	LayoutTightInfix      Layout = "tightInfix"      // c0label c1, e.g. 2d6, kh3
	LayoutTightPostfix    Layout = "tightPostfix"    // c0label, e.g. 4dF
	LayoutFunction        Layout = "function"        // label(c0,c1,...)
	LayoutFilter          Layout = "filter"          // filter op param (c0)
	LayoutSpecialModifier Layout = "specialModifier" // c0 label [op param] [lt times] [lc counts]
)

// Node is one element of the display tree.
type Node struct {
	ID       graph.NodeID `json:"id"`
	Label    string       `json:"label"`
	Value    Value        `json:"value"`
	Layout   Layout       `json:"layout"`
	Children []*Node      `json:"children,omitempty"`
	Op       string       `json:"op,omitempty"`
	Param    *Node        `json:"param,omitempty"`
	Times    *Node        `json:"times,omitempty"`
	Counts   *Node        `json:"counts,omitempty"`
	Parens   bool         `json:"parens,omitempty"`
}

// String prints the expression in compact notation.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b, false)
	return b.String()
}

// Explain prints the expression with the dice of every outermost pool
// shown after it, followed by the result.
func (n *Node) Explain() string {
	var b strings.Builder
	n.write(&b, true)
	b.WriteString(" = ")
	if v, ok := n.Value.Scalar(); ok {
		b.WriteString(ir.FormatNumber(v))
	} else {
		b.WriteString(n.Value.String())
	}
	return b.String()
}

func isPool(v Value) bool {
	return v.Kind == KindDicePool || v.Kind == KindSuccessPool
}

func (n *Node) write(b *strings.Builder, explain bool) {
	if n.Parens {
		b.WriteByte('(')
	}
	// Children of a pool are its operands; only the outermost pool shows
	// its dice.
	childExplain := explain && !isPool(n.Value)

	switch n.Layout {
	case LayoutAtom:
		b.WriteString(n.Label)
	case LayoutList:
		b.WriteByte('[')
		for i, c := range n.Children {
			if i > 0 {
				b.WriteByte(',')
			}
			c.write(b, childExplain)
		}
		b.WriteByte(']')
	case LayoutPrefix:
		b.WriteString(n.Label)
		n.Children[0].write(b, childExplain)
	case LayoutInfix:
		n.Children[0].write(b, childExplain)
		if explain {
			b.WriteString(" " + n.Label + " ")
		} else {
			b.WriteString(n.Label)
		}
		n.Children[1].write(b, childExplain)
	case LayoutTightInfix:
		n.Children[0].write(b, childExplain)
		b.WriteString(n.Label)
		n.Children[1].write(b, childExplain)
	case LayoutTightPostfix:
		n.Children[0].write(b, childExplain)
		b.WriteString(n.Label)
	case LayoutFunction:
		b.WriteString(n.Label)
		b.WriteByte('(')
		for i, c := range n.Children {
			if i > 0 {
				b.WriteByte(',')
			}
			c.write(b, childExplain)
		}
		b.WriteByte(')')
	case LayoutFilter:
		b.WriteString(n.Label)
		b.WriteString(n.Op)
		n.Param.write(b, childExplain)
		b.WriteByte('(')
		n.Children[0].write(b, childExplain)
		b.WriteByte(')')
	case LayoutSpecialModifier:
		n.Children[0].write(b, childExplain)
		b.WriteString(n.Label)
		if n.Param != nil {
			b.WriteString(n.Op)
			n.Param.write(b, childExplain)
		}
		if n.Times != nil {
			b.WriteString("lt")
			n.Times.write(b, childExplain)
		}
		if n.Counts != nil {
			b.WriteString("lc")
			n.Counts.write(b, childExplain)
		}
	}

	if n.Parens {
		b.WriteByte(')')
	}
	if explain && isPool(n.Value) {
		b.WriteString(" " + n.Value.DiceString())
	}
}
