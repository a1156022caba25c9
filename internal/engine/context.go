package engine

import (
	"slices"

	"github.com/roach88/dicegraph/internal/graph"
	"github.com/roach88/dicegraph/internal/render"
)

// Request asks the caller for Count rolls of Face on behalf of Node.
type Request struct {
	Node  graph.NodeID
	Face  Face
	Count int
}

// Roll is one die result together with the id of the physical roll.
type Roll struct {
	Value int
	ID    RollID
}

// Response answers one Request. Results has exactly Count entries.
type Response struct {
	Results []Roll
}

type slotState int

const (
	slotWaiting slotState = iota
	slotDynamic
	slotComputed
)

// slot is the memory of one graph node. States only move forward:
// waiting to dynamic to computed, or waiting to computed.
type slot struct {
	state slotState
	value Value
	dyn   *dynamicState
}

// Context evaluates a graph over several request rounds.
//
// Eval walks the graph from a node and either computes it or reports it is
// not ready. A node that is not ready has pushed Requests for the dice it is
// waiting on. Every child is visited even after one reports not ready, so
// independent dice are requested in the same round. Apply feeds the
// Responses back; the next Eval resumes where the last one stopped.
//
// Thread-safety: Context is NOT safe for concurrent use.
type Context struct {
	g        *graph.Graph
	memory   []slot
	requests []Request
	removed  []RollID
}

// NewContext creates an evaluation context with every node waiting.
func NewContext(g *graph.Graph) *Context {
	return &Context{g: g, memory: make([]slot, g.Len())}
}

// Eval evaluates node id. ok is false when the node waits on requests.
// Computed values are memoized.
func (c *Context) Eval(id graph.NodeID) (Value, bool, error) {
	s := &c.memory[id]
	if s.state == slotComputed {
		return s.value, true, nil
	}
	v, ok, err := c.evalNode(id, c.g.Node(id))
	if err != nil || !ok {
		return nil, false, err
	}
	s.state = slotComputed
	s.value = v
	s.dyn = nil
	return v, true, nil
}

// evalAll evaluates every id, skipping graph.NoNode, and reports whether
// all of them are computed. It stops only on error.
func (c *Context) evalAll(ids []graph.NodeID) (bool, error) {
	ready := true
	for _, id := range ids {
		if id == graph.NoNode {
			continue
		}
		_, ok, err := c.Eval(id)
		if err != nil {
			return false, err
		}
		ready = ready && ok
	}
	return ready, nil
}

// value returns the memoized value of a computed node.
func (c *Context) value(id graph.NodeID) Value {
	return c.memory[id].value
}

// Requests returns the requests pushed since the last Apply.
func (c *Context) Requests() []Request {
	return slices.Clone(c.requests)
}

// Removed returns the roll ids of dice that were dropped or rerolled since
// the last Apply.
func (c *Context) Removed() []RollID {
	return slices.Clone(c.removed)
}

func (c *Context) request(id graph.NodeID, face Face, count int) {
	c.requests = append(c.requests, Request{Node: id, Face: face, Count: count})
}

func (c *Context) remove(d DieDetail) {
	c.removed = append(c.removed, d.RollIDs...)
}

// Apply answers the outstanding requests in order.
//
// A base dice node becomes a fresh pool. A dynamic node receives the dice
// it asked for and merges them on the next Eval. Both the request and the
// remove lists are cleared.
func (c *Context) Apply(responses []Response) error {
	if len(responses) != len(c.requests) {
		return protocolError("expected %d responses, got %d", len(c.requests), len(responses))
	}
	for i, req := range c.requests {
		results := responses[i].Results
		s := &c.memory[req.Node]
		switch s.state {
		case slotDynamic:
			pending := s.dyn.pending
			if len(results) != len(pending) {
				return nodeError(ErrCodeProtocol, req.Node, "expected %d rolls, got %d", len(pending), len(results))
			}
			for j := range pending {
				roll := results[j]
				pending[j].roll = &roll
			}
		case slotWaiting:
			if !c.g.Node(req.Node).Kind.IsDiceBase() {
				return nodeError(ErrCodeProtocol, req.Node, "response for non-dice node")
			}
			if len(results) != req.Count {
				return nodeError(ErrCodeProtocol, req.Node, "expected %d rolls, got %d", req.Count, len(results))
			}
			s.state = slotComputed
			s.value = newPool(req.Face, results)
		default:
			return nodeError(ErrCodeProtocol, req.Node, "response for already computed node")
		}
	}
	c.requests = nil
	c.removed = nil
	return nil
}

// Values returns the display summary of every node. Nodes that are not
// computed yet summarize as not computed.
func (c *Context) Values() []render.Value {
	out := make([]render.Value, len(c.memory))
	for i, s := range c.memory {
		if s.state == slotComputed {
			out[i] = Summary(s.value)
		} else {
			out[i] = Summary(nil)
		}
	}
	return out
}

// Render builds the display tree of the graph from the current memory.
func (c *Context) Render() *render.Node {
	return render.Render(c.g, c.Values())
}
