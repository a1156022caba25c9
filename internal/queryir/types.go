package queryir

import "github.com/roach88/dicegraph/internal/ir"

// Query is a query over the roll log.
type Query interface {
	queryNode()
}

// Predicate is a filter condition.
type Predicate interface {
	predicateNode()
}

// Select reads rows of one table.
//
//	SELECT <columns> FROM <from> WHERE <filter> ORDER BY <order_by>, <key> LIMIT <limit>
//
// The table key is always appended to the ordering, so two runs of the
// same query return rows in the same order. A Limit of zero returns every
// row.
type Select struct {
	From    string
	Columns []string
	Filter  Predicate
	OrderBy []Order
	Limit   int
}

func (Select) queryNode() {}

// Order sorts by one column.
type Order struct {
	Field string
	Desc  bool
}

// Op is a comparison operator.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// Ops lists the operators in the order ParseCondition tries them, longest
// first.
var Ops = []Op{OpLe, OpGe, OpNe, OpEq, OpLt, OpGt}

// Valid reports whether op is a known operator.
func (op Op) Valid() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// Compare tests a column against a literal.
//
//	Compare{Field: "total", Op: OpGe, Value: ir.JSONInt(15)}
//
// compiles to "total >= ?" with 15 as the parameter. A row whose column is
// NULL never matches, so a list result fails every comparison on total.
type Compare struct {
	Field string
	Op    Op
	Value ir.JSONValue
}

func (Compare) predicateNode() {}

// And is a conjunction. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Exists matches rows of the outer table that have at least one row in
// From whose Key column equals the outer Ref column and that satisfies
// Filter.
//
//	Exists{From: "roll_dice", Key: "roll_id", Ref: "id",
//		Filter: Compare{Field: "face", Op: OpEq, Value: ir.JSONString("d20")}}
//
// selects the rolls that rolled at least one d20.
type Exists struct {
	From   string
	Key    string
	Ref    string
	Filter Predicate
}

func (Exists) predicateNode() {}

// Table describes a table a query may read.
type Table struct {
	Columns []string
	// Key orders rows deterministically. It must be unique per row.
	Key []string
}

// Tables are the roll log tables.
var Tables = map[string]Table{
	"rolls": {
		Columns: []string{
			"id", "session_id", "expression", "folded", "result_json", "result_hash",
			"total", "rounds", "dice", "seq", "engine_version", "created_at",
		},
		Key: []string{"id"},
	},
	"roll_dice": {
		Columns: []string{"roll_id", "idx", "node", "face", "value", "kept"},
		Key:     []string{"roll_id", "idx"},
	},
}

// HasColumn reports whether the table has the column.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}
