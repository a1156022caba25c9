package queryir

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/dicegraph/internal/ir"
)

// ValidationResult lists the problems found in a query.
type ValidationResult struct {
	Valid    bool
	Problems []string
}

// Err returns the problems as one error, or nil for a valid query.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return errors.New("invalid query: " + strings.Join(r.Problems, "; "))
}

// Validate checks that a query names known tables and columns, uses known
// operators and compares against scalar literals. It has no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{problems: []string{}}
	v.validateQuery(query)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addProblem("nil query")
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	default:
		v.addProblem("unknown query type %T", q)
	}
}

func (v *validator) table(name string) (Table, bool) {
	t, ok := Tables[name]
	if !ok {
		v.addProblem("unknown table %q", name)
	}
	return t, ok
}

func (v *validator) column(t Table, table, name string) {
	if !t.HasColumn(name) {
		v.addProblem("unknown column %q in %s", name, table)
	}
}

func (v *validator) validateSelect(sel Select) {
	t, ok := v.table(sel.From)
	if !ok {
		return
	}
	for _, c := range sel.Columns {
		v.column(t, sel.From, c)
	}
	for _, o := range sel.OrderBy {
		v.column(t, sel.From, o.Field)
	}
	if sel.Limit < 0 {
		v.addProblem("limit must be non-negative, got %d", sel.Limit)
	}
	v.validatePredicate(t, sel.From, sel.Filter)
}

func (v *validator) validatePredicate(t Table, table string, p Predicate) {
	switch pred := p.(type) {
	case nil:
		// No filter.
	case Compare:
		v.validateCompare(t, table, pred)
	case *Compare:
		v.validateCompare(t, table, *pred)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(t, table, sub)
		}
	case *And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(t, table, sub)
		}
	case Exists:
		v.validateExists(t, table, pred)
	case *Exists:
		v.validateExists(t, table, *pred)
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

func (v *validator) validateCompare(t Table, table string, c Compare) {
	v.column(t, table, c.Field)
	if !c.Op.Valid() {
		v.addProblem("unknown operator %q", c.Op)
	}
	switch c.Value.(type) {
	case ir.JSONString, ir.JSONInt, ir.JSONFloat, ir.JSONBool:
	case nil:
		v.addProblem("column %q compared to nothing", c.Field)
	default:
		v.addProblem("column %q compared to a non-scalar %T", c.Field, c.Value)
	}
}

func (v *validator) validateExists(outer Table, outerName string, e Exists) {
	v.column(outer, outerName, e.Ref)
	inner, ok := v.table(e.From)
	if !ok {
		return
	}
	v.column(inner, e.From, e.Key)
	v.validatePredicate(inner, e.From, e.Filter)
}
