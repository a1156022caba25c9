// Package graph defines the flattened evaluation graph.
//
// A Graph is an append-only slice of nodes addressed by index. Nodes are
// stored in post-order: every child id is strictly smaller than the id of
// the node that references it, and the root is the last node. Nothing is
// shared; two occurrences of the same sub-expression are two sub-graphs so
// that every occurrence rolls independently.
package graph

import (
	"fmt"
	"strings"

	"github.com/roach88/dicegraph/internal/ir"
)

// NodeID indexes a node in Graph.Nodes.
type NodeID int

// NoNode marks an absent optional operand.
const NoNode NodeID = -1

// ModParam is a comparison against the value of another node.
type ModParam struct {
	Op    ir.CompareOp
	Value NodeID
}

// Limit holds the optional lt/lc operands of a dynamic modifier. Either may
// be NoNode.
type Limit struct {
	Times  NodeID
	Counts NodeID
}

// Node is one operation. Args holds operand ids in kind-specific order;
// reversed list kinds store the number first and the list second. Value is
// only meaningful for Constant.
type Node struct {
	Kind  Kind
	Args  []NodeID
	Value float64
	Param *ModParam
	Limit *Limit
}

// Children returns every node id n reads, in evaluation order.
func (n *Node) Children() []NodeID {
	out := make([]NodeID, 0, len(n.Args)+3)
	out = append(out, n.Args...)
	if n.Param != nil {
		out = append(out, n.Param.Value)
	}
	if n.Limit != nil {
		if n.Limit.Times != NoNode {
			out = append(out, n.Limit.Times)
		}
		if n.Limit.Counts != NoNode {
			out = append(out, n.Limit.Counts)
		}
	}
	return out
}

// Graph is a compiled expression.
type Graph struct {
	Nodes []Node
	Root  NodeID
}

// Add appends n and returns its id. The most recently added node becomes
// the root.
func (g *Graph) Add(n Node) NodeID {
	g.Nodes = append(g.Nodes, n)
	g.Root = NodeID(len(g.Nodes) - 1)
	return g.Root
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.Nodes)
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) *Node {
	return &g.Nodes[id]
}

// String prints one node per line.
func (g *Graph) String() string {
	var b strings.Builder
	for i := range g.Nodes {
		fmt.Fprintf(&b, "%d: %s\n", i, g.describe(NodeID(i)))
	}
	return b.String()
}

func (g *Graph) describe(id NodeID) string {
	n := &g.Nodes[id]
	var b strings.Builder
	b.WriteString(n.Kind.String())
	if n.Kind == Constant {
		b.WriteString(" " + ir.FormatNumber(n.Value))
	}
	for _, a := range n.Args {
		fmt.Fprintf(&b, " #%d", a)
	}
	if n.Param != nil {
		fmt.Fprintf(&b, " %s#%d", n.Param.Op, n.Param.Value)
	}
	if n.Limit != nil {
		if n.Limit.Times != NoNode {
			fmt.Fprintf(&b, " lt#%d", n.Limit.Times)
		}
		if n.Limit.Counts != NoNode {
			fmt.Fprintf(&b, " lc#%d", n.Limit.Counts)
		}
	}
	return b.String()
}

// Encode returns a structural JSON form of the graph for dumps and
// fingerprints.
func (g *Graph) Encode() ir.JSONValue {
	nodes := make(ir.JSONArray, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		obj := ir.JSONObject{
			"id":   ir.JSONInt(i),
			"kind": ir.JSONString(n.Kind.String()),
		}
		if n.Kind == Constant {
			obj["value"] = ir.JSONFloat(n.Value)
		}
		if len(n.Args) > 0 {
			args := make(ir.JSONArray, len(n.Args))
			for j, a := range n.Args {
				args[j] = ir.JSONInt(a)
			}
			obj["args"] = args
		}
		if n.Param != nil {
			obj["param"] = ir.JSONObject{
				"op":    ir.JSONString(n.Param.Op.String()),
				"value": ir.JSONInt(n.Param.Value),
			}
		}
		if n.Limit != nil {
			lim := ir.JSONObject{}
			if n.Limit.Times != NoNode {
				lim["times"] = ir.JSONInt(n.Limit.Times)
			}
			if n.Limit.Counts != NoNode {
				lim["counts"] = ir.JSONInt(n.Limit.Counts)
			}
			obj["limit"] = lim
		}
		nodes[i] = obj
	}
	return ir.JSONObject{
		"root":  ir.JSONInt(g.Root),
		"nodes": nodes,
	}
}
