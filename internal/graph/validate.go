package graph

import "fmt"

// Validation error codes (E300-E399).
const (
	ErrEmpty     = "E301" // graph has no nodes
	ErrRoot      = "E302" // root is not the last node
	ErrKind      = "E303" // unknown node kind
	ErrArity     = "E304" // wrong number of args
	ErrOrder     = "E305" // child id not strictly smaller than parent id
	ErrShared    = "E306" // node referenced by more than one parent
	ErrUnused    = "E307" // non-root node without a parent
	ErrParam     = "E308" // param present where forbidden or missing where required
	ErrLimit     = "E309" // limit on a kind that takes none
	ErrLimitNone = "E310" // limit with neither operand set
)

// ValidationError describes one violated graph invariant.
type ValidationError struct {
	Node    NodeID `json:"node"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] node %d: %s", e.Code, e.Node, e.Message)
}

// Validate checks the structural invariants of g and returns every
// violation found.
func (g *Graph) Validate() []ValidationError {
	var errs []ValidationError
	add := func(id NodeID, code, format string, args ...any) {
		errs = append(errs, ValidationError{Node: id, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if len(g.Nodes) == 0 {
		add(NoNode, ErrEmpty, "graph has no nodes")
		return errs
	}
	if int(g.Root) != len(g.Nodes)-1 {
		add(g.Root, ErrRoot, "root must be the last node (%d)", len(g.Nodes)-1)
	}

	parents := make([]int, len(g.Nodes))
	for i := range g.Nodes {
		id := NodeID(i)
		n := &g.Nodes[i]
		if !n.Kind.Valid() {
			add(id, ErrKind, "unknown kind %d", n.Kind)
			continue
		}
		info := kinds[n.Kind]

		if info.arity >= 0 && len(n.Args) != info.arity {
			add(id, ErrArity, "%s takes %d args, has %d", n.Kind, info.arity, len(n.Args))
		}
		switch {
		case info.param == paramNone && n.Param != nil:
			add(id, ErrParam, "%s takes no comparison", n.Kind)
		case info.param == paramRequired && n.Param == nil:
			add(id, ErrParam, "%s requires a comparison", n.Kind)
		}
		if n.Limit != nil {
			if !info.limit {
				add(id, ErrLimit, "%s takes no limit", n.Kind)
			} else if n.Limit.Times == NoNode && n.Limit.Counts == NoNode {
				add(id, ErrLimitNone, "limit has no operands")
			}
		}

		for _, c := range n.Children() {
			if c < 0 || c >= id {
				add(id, ErrOrder, "child #%d is not before its parent", c)
				continue
			}
			parents[c]++
		}
	}

	for i, count := range parents {
		id := NodeID(i)
		switch {
		case count > 1:
			add(id, ErrShared, "referenced by %d parents", count)
		case count == 0 && id != g.Root:
			add(id, ErrUnused, "not referenced by any node")
		}
	}
	return errs
}
