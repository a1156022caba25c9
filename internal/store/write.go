package store

import (
	"context"
	"fmt"

	"github.com/roach88/dicegraph/internal/dice"
)

// WriteRoll logs a finished evaluation and returns the stored row.
//
// The roll gets a fresh id from the store's IDGenerator and the next
// sequence number. The roll and its dice are written in one transaction,
// so a crash never leaves a roll without its dice.
func (s *Store) WriteRoll(ctx context.Context, out *dice.Outcome) (Roll, error) {
	r, err := rollFromOutcome(out)
	if err != nil {
		return Roll{}, fmt.Errorf("write roll: %w", err)
	}
	r.ID = s.ids.Generate()
	r.CreatedAt = s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Roll{}, fmt.Errorf("write roll: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM rolls`).Scan(&r.Seq); err != nil {
		return Roll{}, fmt.Errorf("write roll: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rolls
		(id, session_id, expression, folded, result_json, result_hash, total, rounds, dice, seq, engine_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		r.SessionID,
		r.Expression,
		r.Folded,
		r.ResultJSON,
		r.ResultHash,
		r.Total,
		r.Rounds,
		r.DiceCount,
		r.Seq,
		r.EngineVersion,
		marshalTime(r.CreatedAt),
	)
	if err != nil {
		return Roll{}, fmt.Errorf("write roll: insert roll: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO roll_dice (roll_id, idx, node, face, value, kept)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Roll{}, fmt.Errorf("write roll: prepare dice: %w", err)
	}
	defer stmt.Close()

	for _, d := range r.Dice {
		if _, err := stmt.ExecContext(ctx, r.ID, d.Index, d.Node, d.Face, d.Value, boolToInt(d.Kept)); err != nil {
			return Roll{}, fmt.Errorf("write roll: insert die %d: %w", d.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Roll{}, fmt.Errorf("write roll: commit: %w", err)
	}
	return r, nil
}

// DeleteRoll removes a roll and its dice and reports whether the roll
// existed. Deleting a missing roll is not an error.
func (s *Store) DeleteRoll(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rolls WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete roll: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete roll: %w", err)
	}
	return n > 0, nil
}
