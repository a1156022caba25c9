// Package querysql compiles roll log queries to parameterized SQLite.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/dicegraph/internal/ir"
	"github.com/roach88/dicegraph/internal/queryir"
)

// SQLCompiler compiles queryir queries to parameterized SQL for SQLite.
//
// Every query ends in an ORDER BY on the table key, and every literal is
// passed as a parameter.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile validates q and converts it to SQL and its parameters.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q).Err(); err != nil {
		return "", nil, err
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	var b strings.Builder
	var params []any

	fmt.Fprintf(&b, "SELECT %s FROM %s", c.compileColumns(q.From, q.Columns), q.From)

	if q.Filter != nil {
		where, whereParams, err := c.compilePredicate(q.From, q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE " + where)
		params = append(params, whereParams...)
	}

	b.WriteString(" ORDER BY " + c.stableOrderKey(q))

	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, q.Limit)
	}
	return b.String(), params, nil
}

// compileColumns qualifies the selected columns with their table.
func (c *SQLCompiler) compileColumns(table string, columns []string) string {
	if len(columns) == 0 {
		return table + ".*"
	}
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = table + "." + col
	}
	return strings.Join(parts, ", ")
}

// stableOrderKey returns the requested ordering followed by the table key.
// Text keys compare with COLLATE BINARY so the order does not depend on the
// connection's collation.
func (c *SQLCompiler) stableOrderKey(q queryir.Select) string {
	var parts []string
	seen := map[string]bool{}
	for _, o := range q.OrderBy {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts = append(parts, fmt.Sprintf("%s.%s %s", q.From, o.Field, dir))
		seen[o.Field] = true
	}
	for _, k := range queryir.Tables[q.From].Key {
		if !seen[k] {
			parts = append(parts, fmt.Sprintf("%s.%s COLLATE BINARY ASC", q.From, k))
		}
	}
	return strings.Join(parts, ", ")
}

// compilePredicate compiles p with columns qualified by table.
func (c *SQLCompiler) compilePredicate(table string, p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case queryir.Compare:
		return c.compileCompare(table, pred)
	case *queryir.Compare:
		return c.compileCompare(table, *pred)
	case queryir.And:
		return c.compileAnd(table, pred)
	case *queryir.And:
		return c.compileAnd(table, *pred)
	case queryir.Exists:
		return c.compileExists(table, pred)
	case *queryir.Exists:
		return c.compileExists(table, *pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileCompare(table string, cmp queryir.Compare) (string, []any, error) {
	param, err := valueToParam(cmp.Value)
	if err != nil {
		return "", nil, fmt.Errorf("column %s: %w", cmp.Field, err)
	}
	return fmt.Sprintf("%s.%s %s ?", table, cmp.Field, cmp.Op), []any{param}, nil
}

func (c *SQLCompiler) compileAnd(table string, and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, predParams, err := c.compilePredicate(table, pred)
		if err != nil {
			return "", nil, err
		}
		switch pred.(type) {
		case queryir.And, *queryir.And:
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, predParams...)
	}
	return strings.Join(parts, " AND "), params, nil
}

func (c *SQLCompiler) compileExists(outer string, e queryir.Exists) (string, []any, error) {
	sql := fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s.%s = %s.%s",
		e.From, e.From, e.Key, outer, e.Ref)
	var params []any
	if e.Filter != nil {
		filter, filterParams, err := c.compilePredicate(e.From, e.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile exists filter: %w", err)
		}
		sql += " AND " + filter
		params = filterParams
	}
	return sql + ")", params, nil
}

// valueToParam converts a scalar literal to a driver value.
func valueToParam(v ir.JSONValue) (any, error) {
	switch val := v.(type) {
	case ir.JSONString:
		return string(val), nil
	case ir.JSONInt:
		return int64(val), nil
	case ir.JSONFloat:
		return float64(val), nil
	case ir.JSONBool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}
