package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/dicegraph/internal/ir"
	"github.com/roach88/dicegraph/internal/queryir"
	"github.com/roach88/dicegraph/internal/querysql"
)

const rollColumns = `id, session_id, expression, folded, result_json, result_hash, total, rounds, dice, seq, engine_version, created_at`

// rollColumnList is rollColumns in scanRoll order.
var rollColumnList = strings.Split(rollColumns, ", ")

// scanner is the subset of *sql.Row and *sql.Rows used by scanRoll.
type scanner interface {
	Scan(dest ...any) error
}

func scanRoll(row scanner) (Roll, error) {
	var r Roll
	var total sql.NullFloat64
	var createdAt string

	if err := row.Scan(
		&r.ID, &r.SessionID, &r.Expression, &r.Folded, &r.ResultJSON, &r.ResultHash,
		&total, &r.Rounds, &r.DiceCount, &r.Seq, &r.EngineVersion, &createdAt,
	); err != nil {
		return Roll{}, err
	}
	if total.Valid {
		r.Total = &total.Float64
	}
	t, err := unmarshalTime(createdAt)
	if err != nil {
		return Roll{}, err
	}
	r.CreatedAt = t
	return r, nil
}

// ReadRoll retrieves a roll and its dice by id.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadRoll(ctx context.Context, id string) (Roll, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+rollColumns+` FROM rolls WHERE id = ?`, id)
	r, err := scanRoll(row)
	if err != nil {
		return Roll{}, fmt.Errorf("read roll %s: %w", id, err)
	}

	dice, err := s.readDice(ctx, id)
	if err != nil {
		return Roll{}, err
	}
	r.Dice = dice
	return r, nil
}

// readDice returns the dice of a roll in the order they were rolled.
func (s *Store) readDice(ctx context.Context, rollID string) ([]Die, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, node, face, value, kept
		FROM roll_dice
		WHERE roll_id = ?
		ORDER BY idx ASC
	`, rollID)
	if err != nil {
		return nil, fmt.Errorf("query dice: %w", err)
	}
	defer rows.Close()

	dice := []Die{}
	for rows.Next() {
		var d Die
		var kept int
		if err := rows.Scan(&d.Index, &d.Node, &d.Face, &d.Value, &kept); err != nil {
			return nil, fmt.Errorf("scan die: %w", err)
		}
		d.Kept = kept != 0
		dice = append(dice, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dice: %w", err)
	}
	return dice, nil
}

// ListRolls returns the most recent rolls, newest first, without their
// dice. A limit of zero or less returns every roll.
func (s *Store) ListRolls(ctx context.Context, limit int) ([]Roll, error) {
	return s.FindRolls(ctx, nil, limit)
}

// ExpressionIs matches rolls of exactly expr.
func ExpressionIs(expr string) queryir.Predicate {
	return queryir.Compare{Field: "expression", Op: queryir.OpEq, Value: ir.JSONString(expr)}
}

// RolledFace matches rolls that rolled at least one die of face, such as
// "d20" or "dF".
func RolledFace(face string) queryir.Predicate {
	return queryir.Exists{
		From: "roll_dice", Key: "roll_id", Ref: "id",
		Filter: queryir.Compare{Field: "face", Op: queryir.OpEq, Value: ir.JSONString(face)},
	}
}

// FindRolls returns the rolls matching filter, newest first, without their
// dice. A nil filter matches every roll and a limit of zero or less
// returns all matches.
func (s *Store) FindRolls(ctx context.Context, filter queryir.Predicate, limit int) ([]Roll, error) {
	q := queryir.Select{
		From:    "rolls",
		Columns: rollColumnList,
		Filter:  filter,
		OrderBy: []queryir.Order{{Field: "seq", Desc: true}},
		Limit:   max(limit, 0),
	}
	query, args, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return nil, fmt.Errorf("find rolls: %w", err)
	}
	return s.listRolls(ctx, query, args...)
}

func (s *Store) listRolls(ctx context.Context, query string, args ...any) ([]Roll, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rolls: %w", err)
	}
	defer rows.Close()

	rolls := []Roll{}
	for rows.Next() {
		r, err := scanRoll(rows)
		if err != nil {
			return nil, fmt.Errorf("scan roll: %w", err)
		}
		rolls = append(rolls, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rolls: %w", err)
	}
	return rolls, nil
}
