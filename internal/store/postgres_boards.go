package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"corkboard/api/internal/position"
)

func (s *PostgresStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Boards

func (s *PostgresStore) InsertBoard(ctx context.Context, b Board) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO boards (id, project_id, name, description, created_by)
		VALUES ($1, $2, $3, $4, $5)
	`, b.ID, b.ProjectID, b.Name, b.Description, b.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert board: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetBoard(ctx context.Context, boardID string) (Board, error) {
	var b Board
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, name, description, created_by, archived, archived_at, created_at, updated_at
		FROM boards WHERE id = $1
	`, boardID).Scan(&b.ID, &b.ProjectID, &b.Name, &b.Description, &b.CreatedBy,
		&b.Archived, &b.ArchivedAt, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Board{}, ErrNotFound
	}
	if err != nil {
		return Board{}, fmt.Errorf("get board: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) ListBoards(ctx context.Context, projectID string) ([]Board, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, name, description, created_by, archived, archived_at, created_at, updated_at
		FROM boards WHERE project_id = $1
		ORDER BY created_at, id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()
	var out []Board
	for rows.Next() {
		var b Board
		if err := rows.Scan(&b.ID, &b.ProjectID, &b.Name, &b.Description, &b.CreatedBy,
			&b.Archived, &b.ArchivedAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateBoard(ctx context.Context, boardID, name, description string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE boards SET name = $1, description = $2, updated_at = NOW() WHERE id = $3
	`, name, description, boardID)
	if err != nil {
		return fmt.Errorf("update board: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetBoardArchived(ctx context.Context, boardID string, archived bool) error {
	var res sql.Result
	var err error
	if archived {
		res, err = s.db.ExecContext(ctx, `
			UPDATE boards SET archived = TRUE, archived_at = NOW(), updated_at = NOW() WHERE id = $1
		`, boardID)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE boards SET archived = FALSE, archived_at = NULL, updated_at = NOW() WHERE id = $1
		`, boardID)
	}
	if err != nil {
		return fmt.Errorf("archive board: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteBoard(ctx context.Context, boardID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM boards WHERE id = $1`, boardID)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Labels

func (s *PostgresStore) InsertLabel(ctx context.Context, l Label) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO board_labels (id, board_id, name, color)
		VALUES ($1, $2, $3, $4)
	`, l.ID, l.BoardID, l.Name, l.Color)
	if err != nil {
		return fmt.Errorf("insert label: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetLabel(ctx context.Context, labelID string) (Label, error) {
	var l Label
	err := s.db.QueryRowContext(ctx, `
		SELECT id, board_id, name, color FROM board_labels WHERE id = $1
	`, labelID).Scan(&l.ID, &l.BoardID, &l.Name, &l.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return Label{}, ErrNotFound
	}
	if err != nil {
		return Label{}, fmt.Errorf("get label: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) ListLabels(ctx context.Context, boardID string) ([]Label, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, board_id, name, color FROM board_labels WHERE board_id = $1 ORDER BY name
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()
	var out []Label
	for rows.Next() {
		var l Label
		if err := rows.Scan(&l.ID, &l.BoardID, &l.Name, &l.Color); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateLabel(ctx context.Context, labelID, name, color string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE board_labels SET name = $1, color = $2 WHERE id = $3
	`, name, color, labelID)
	if err != nil {
		return fmt.Errorf("update label: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteLabel(ctx context.Context, labelID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM board_labels WHERE id = $1`, labelID)
	if err != nil {
		return fmt.Errorf("delete label: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Lists

func (s *PostgresStore) GetList(ctx context.Context, listID string) (List, error) {
	var l List
	err := s.db.QueryRowContext(ctx, `
		SELECT id, board_id, name, position, archived, created_at FROM lists WHERE id = $1
	`, listID).Scan(&l.ID, &l.BoardID, &l.Name, &l.Position, &l.Archived, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return List{}, ErrNotFound
	}
	if err != nil {
		return List{}, fmt.Errorf("get list: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) ListLists(ctx context.Context, boardID string) ([]List, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, board_id, name, position, archived, created_at
		FROM lists WHERE board_id = $1
		ORDER BY position
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	defer rows.Close()
	var out []List
	for rows.Next() {
		var l List
		if err := rows.Scan(&l.ID, &l.BoardID, &l.Name, &l.Position, &l.Archived, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// CreateList inserts a list at the requested position, shifting later
// siblings right in the same transaction. nil position appends.
func (s *PostgresStore) CreateList(ctx context.Context, l List, requested *int) (int, error) {
	var pos int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM lists WHERE board_id = $1`, l.BoardID).Scan(&count); err != nil {
			return fmt.Errorf("count lists: %w", err)
		}
		pos = position.ClampInsert(requested, count)
		if err := applyShift(ctx, tx, "lists", "board_id", l.BoardID, position.PlanInsert(pos, count)); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO lists (id, board_id, name, position) VALUES ($1, $2, $3, $4)
		`, l.ID, l.BoardID, l.Name, pos)
		if err != nil {
			return fmt.Errorf("insert list: %w", err)
		}
		return nil
	})
	return pos, err
}

// MoveList places a list at the requested position among its board's lists,
// renumbering the displaced siblings atomically. Returns the clamped final
// position.
func (s *PostgresStore) MoveList(ctx context.Context, listID string, requested int) (int, error) {
	var final int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var boardID string
		var oldPos, count int
		err := tx.QueryRowContext(ctx,
			`SELECT board_id, position FROM lists WHERE id = $1`, listID).Scan(&boardID, &oldPos)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load list: %w", err)
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM lists WHERE board_id = $1`, boardID).Scan(&count); err != nil {
			return fmt.Errorf("count lists: %w", err)
		}
		final = position.ClampMove(requested, count)
		shift, ok := position.PlanSameParentMove(oldPos, final)
		if !ok {
			return nil
		}
		if err := applyShift(ctx, tx, "lists", "board_id", boardID, shift); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE lists SET position = $1 WHERE id = $2`, final, listID); err != nil {
			return fmt.Errorf("place list: %w", err)
		}
		return nil
	})
	return final, err
}

func (s *PostgresStore) UpdateList(ctx context.Context, listID, name string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE lists SET name = $1 WHERE id = $2`, name, listID)
	if err != nil {
		return fmt.Errorf("update list: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetListArchived(ctx context.Context, listID string, archived bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE lists SET archived = $1 WHERE id = $2`, archived, listID)
	if err != nil {
		return fmt.Errorf("archive list: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteList removes a list and closes the position gap it leaves. Cards
// under the list go with it via the schema's cascade.
func (s *PostgresStore) DeleteList(ctx context.Context, listID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var boardID string
		var pos, count int
		err := tx.QueryRowContext(ctx,
			`SELECT board_id, position FROM lists WHERE id = $1`, listID).Scan(&boardID, &pos)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load list: %w", err)
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM lists WHERE board_id = $1`, boardID).Scan(&count); err != nil {
			return fmt.Errorf("count lists: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM lists WHERE id = $1`, listID); err != nil {
			return fmt.Errorf("delete list: %w", err)
		}
		return applyShift(ctx, tx, "lists", "board_id", boardID, position.PlanRemove(pos, count))
	})
}

// applyShift runs a planner shift as one range update. table and parentCol
// are compile-time constants at every call site, never user input.
func applyShift(ctx context.Context, tx *sql.Tx, table, parentCol, parentID string, shift position.Shift) error {
	if shift.Empty() {
		return nil
	}
	query := fmt.Sprintf(`
		UPDATE %s SET position = position + $1
		WHERE %s = $2 AND position BETWEEN $3 AND $4
	`, table, parentCol)
	if _, err := tx.ExecContext(ctx, query, shift.Delta, parentID, shift.From, shift.To); err != nil {
		return fmt.Errorf("shift %s positions: %w", table, err)
	}
	return nil
}
