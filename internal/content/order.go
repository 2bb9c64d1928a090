package content

import (
	"context"
	"database/sql"
	"fmt"
)

// orderedIDs returns the ids of table in display order.
func orderedIDs(ctx context.Context, tx *sql.Tx, table string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(`SELECT id FROM %s ORDER BY sort_order, created_at`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// renumber rewrites sort_order so that ids[i] has order i.
func renumber(ctx context.Context, tx *sql.Tx, table string, ids []string) error {
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`UPDATE %s SET sort_order = ? WHERE id = ?`, table))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, id := range ids {
		if _, err := stmt.ExecContext(ctx, i, id); err != nil {
			return fmt.Errorf("renumbering %s %s: %w", table, id, err)
		}
	}
	return nil
}

// moveID moves active to the position currently held by over, shifting the
// entries in between. It mirrors dropping one sortable row onto another.
func moveID(ids []string, active, over string) ([]string, error) {
	from, to := -1, -1
	for i, id := range ids {
		switch id {
		case active:
			from = i
		case over:
			to = i
		}
	}
	if active == over {
		to = from
	}
	if from < 0 || to < 0 {
		return nil, ErrNotFound
	}

	out := make([]string, 0, len(ids))
	out = append(out, ids[:from]...)
	out = append(out, ids[from+1:]...)
	out = append(out[:to], append([]string{active}, out[to:]...)...)
	return out, nil
}

// sameSet reports whether want is a permutation of have.
func sameSet(have, want []string) bool {
	if len(have) != len(want) {
		return false
	}
	seen := make(map[string]int, len(have))
	for _, id := range have {
		seen[id]++
	}
	for _, id := range want {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}

func (s *Store) move(ctx context.Context, table, active, over string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		ids, err := orderedIDs(ctx, tx, table)
		if err != nil {
			return err
		}
		moved, err := moveID(ids, active, over)
		if err != nil {
			return err
		}
		return renumber(ctx, tx, table, moved)
	})
}

func (s *Store) reorder(ctx context.Context, table string, want []string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		ids, err := orderedIDs(ctx, tx, table)
		if err != nil {
			return err
		}
		if !sameSet(ids, want) {
			return fmt.Errorf("%w: reorder must list every %s id exactly once", ErrInvalidInput, table)
		}
		return renumber(ctx, tx, table, want)
	})
}

func (s *Store) deleteAndRenumber(ctx context.Context, table, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		ids, err := orderedIDs(ctx, tx, table)
		if err != nil {
			return err
		}
		return renumber(ctx, tx, table, ids)
	})
}

func nextOrder(ctx context.Context, tx *sql.Tx, table string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&n)
	return n, err
}
