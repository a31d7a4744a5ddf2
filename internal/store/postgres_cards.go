package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"corkboard/api/internal/position"
)

const cardColumns = `id, list_id, title, description, position, due_date, completed, completed_by,
	archived, archived_by, archived_at, created_by, created_at, updated_at`

func scanCard(row interface{ Scan(...any) error }) (Card, error) {
	var c Card
	err := row.Scan(&c.ID, &c.ListID, &c.Title, &c.Description, &c.Position, &c.DueDate,
		&c.Completed, &c.CompletedBy, &c.Archived, &c.ArchivedBy, &c.ArchivedAt,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *PostgresStore) GetCard(ctx context.Context, cardID string) (Card, error) {
	c, err := scanCard(s.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = $1`, cardID))
	if errors.Is(err, sql.ErrNoRows) {
		return Card{}, ErrNotFound
	}
	if err != nil {
		return Card{}, fmt.Errorf("get card: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListCards(ctx context.Context, listID string) ([]Card, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE list_id = $1 ORDER BY position`, listID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()
	var out []Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCard inserts a card at the requested position within its list,
// shifting later siblings right. nil position appends.
func (s *PostgresStore) CreateCard(ctx context.Context, c Card, requested *int) (int, error) {
	var pos int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM cards WHERE list_id = $1`, c.ListID).Scan(&count); err != nil {
			return fmt.Errorf("count cards: %w", err)
		}
		pos = position.ClampInsert(requested, count)
		if err := applyShift(ctx, tx, "cards", "list_id", c.ListID, position.PlanInsert(pos, count)); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cards (id, list_id, title, description, position, due_date, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, c.ID, c.ListID, c.Title, c.Description, pos, c.DueDate, c.CreatedBy)
		if err != nil {
			return fmt.Errorf("insert card: %w", err)
		}
		return nil
	})
	return pos, err
}

// MoveCard places a card at the requested position in targetListID, which
// may be its current list or another list on any board. The source gap is
// closed and the destination gap opened in the same transaction.
func (s *PostgresStore) MoveCard(ctx context.Context, cardID, targetListID string, requested int) (int, error) {
	var final int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var srcListID string
		var oldPos int
		err := tx.QueryRowContext(ctx,
			`SELECT list_id, position FROM cards WHERE id = $1`, cardID).Scan(&srcListID, &oldPos)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load card: %w", err)
		}

		if targetListID == srcListID {
			var count int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM cards WHERE list_id = $1`, srcListID).Scan(&count); err != nil {
				return fmt.Errorf("count cards: %w", err)
			}
			final = position.ClampMove(requested, count)
			shift, ok := position.PlanSameParentMove(oldPos, final)
			if !ok {
				return nil
			}
			if err := applyShift(ctx, tx, "cards", "list_id", srcListID, shift); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE cards SET position = $1, updated_at = NOW() WHERE id = $2`, final, cardID); err != nil {
				return fmt.Errorf("place card: %w", err)
			}
			return nil
		}

		var srcCount, dstCount int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM cards WHERE list_id = $1`, srcListID).Scan(&srcCount); err != nil {
			return fmt.Errorf("count source cards: %w", err)
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM cards WHERE list_id = $1`, targetListID).Scan(&dstCount); err != nil {
			return fmt.Errorf("count target cards: %w", err)
		}
		final = position.ClampInsert(&requested, dstCount)
		if err := applyShift(ctx, tx, "cards", "list_id", srcListID, position.PlanRemove(oldPos, srcCount)); err != nil {
			return err
		}
		if err := applyShift(ctx, tx, "cards", "list_id", targetListID, position.PlanInsert(final, dstCount)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE cards SET list_id = $1, position = $2, updated_at = NOW() WHERE id = $3
		`, targetListID, final, cardID); err != nil {
			return fmt.Errorf("place card: %w", err)
		}
		return nil
	})
	return final, err
}

func (s *PostgresStore) UpdateCard(ctx context.Context, c Card) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE cards SET title = $1, description = $2, due_date = $3, updated_at = NOW()
		WHERE id = $4
	`, c.Title, c.Description, c.DueDate, c.ID)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetCardCompleted(ctx context.Context, cardID string, completed bool, byUserID string) error {
	var res sql.Result
	var err error
	if completed {
		res, err = s.db.ExecContext(ctx, `
			UPDATE cards SET completed = TRUE, completed_by = $1, updated_at = NOW() WHERE id = $2
		`, byUserID, cardID)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE cards SET completed = FALSE, completed_by = NULL, updated_at = NOW() WHERE id = $1
		`, cardID)
	}
	if err != nil {
		return fmt.Errorf("complete card: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetCardArchived(ctx context.Context, cardID string, archived bool, byUserID string) error {
	var res sql.Result
	var err error
	if archived {
		res, err = s.db.ExecContext(ctx, `
			UPDATE cards SET archived = TRUE, archived_by = $1, archived_at = NOW(), updated_at = NOW()
			WHERE id = $2
		`, byUserID, cardID)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE cards SET archived = FALSE, archived_by = NULL, archived_at = NULL, updated_at = NOW()
			WHERE id = $1
		`, cardID)
	}
	if err != nil {
		return fmt.Errorf("archive card: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCard removes a card and closes its list's position gap.
func (s *PostgresStore) DeleteCard(ctx context.Context, cardID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var listID string
		var pos, count int
		err := tx.QueryRowContext(ctx,
			`SELECT list_id, position FROM cards WHERE id = $1`, cardID).Scan(&listID, &pos)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load card: %w", err)
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM cards WHERE list_id = $1`, listID).Scan(&count); err != nil {
			return fmt.Errorf("count cards: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, cardID); err != nil {
			return fmt.Errorf("delete card: %w", err)
		}
		return applyShift(ctx, tx, "cards", "list_id", listID, position.PlanRemove(pos, count))
	})
}

// ---------------------------------------------------------------------------
// Assignees, watchers, labels

func (s *PostgresStore) AssignCard(ctx context.Context, cardID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO card_assignees (card_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, cardID, userID)
	if err != nil {
		return fmt.Errorf("assign card: %w", err)
	}
	s.touchCard(ctx, cardID)
	return nil
}

func (s *PostgresStore) UnassignCard(ctx context.Context, cardID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM card_assignees WHERE card_id = $1 AND user_id = $2`, cardID, userID)
	if err != nil {
		return fmt.Errorf("unassign card: %w", err)
	}
	s.touchCard(ctx, cardID)
	return nil
}

func (s *PostgresStore) WatchCard(ctx context.Context, cardID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO card_watchers (card_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, cardID, userID)
	if err != nil {
		return fmt.Errorf("watch card: %w", err)
	}
	return nil
}

func (s *PostgresStore) UnwatchCard(ctx context.Context, cardID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM card_watchers WHERE card_id = $1 AND user_id = $2`, cardID, userID)
	if err != nil {
		return fmt.Errorf("unwatch card: %w", err)
	}
	return nil
}

// SetCardLabels replaces a card's label set with labelIDs.
func (s *PostgresStore) SetCardLabels(ctx context.Context, cardID string, labelIDs []string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM card_labels WHERE card_id = $1`, cardID); err != nil {
			return fmt.Errorf("clear card labels: %w", err)
		}
		for _, id := range labelIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO card_labels (card_id, label_id) VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, cardID, id); err != nil {
				return fmt.Errorf("set card label: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) cardIDSet(ctx context.Context, query, cardID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Comments

func (s *PostgresStore) InsertComment(ctx context.Context, c Comment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, card_id, author_id, body, mentions)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.CardID, c.AuthorID, c.Text, jsonStrings(c.Mentions))
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	s.touchCard(ctx, c.CardID)
	return nil
}

func (s *PostgresStore) GetComment(ctx context.Context, commentID string) (Comment, error) {
	var c Comment
	var mentions []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, card_id, author_id, body, mentions, created_at, updated_at
		FROM comments WHERE id = $1
	`, commentID).Scan(&c.ID, &c.CardID, &c.AuthorID, &c.Text, &mentions, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Comment{}, ErrNotFound
	}
	if err != nil {
		return Comment{}, fmt.Errorf("get comment: %w", err)
	}
	c.Mentions = scanStrings(mentions)
	return c, nil
}

func (s *PostgresStore) ListComments(ctx context.Context, cardID string) ([]Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.card_id, c.author_id, c.body, c.mentions, c.created_at, c.updated_at,
		       COALESCE(u.display_name, '')
		FROM comments c
		LEFT JOIN users u ON u.id = c.author_id
		WHERE c.card_id = $1
		ORDER BY c.created_at, c.id
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()
	var out []Comment
	for rows.Next() {
		var c Comment
		var mentions []byte
		if err := rows.Scan(&c.ID, &c.CardID, &c.AuthorID, &c.Text, &mentions,
			&c.CreatedAt, &c.UpdatedAt, &c.AuthorName); err != nil {
			return nil, err
		}
		c.Mentions = scanStrings(mentions)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateComment(ctx context.Context, commentID, text string, mentions []string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE comments SET body = $1, mentions = $2, updated_at = NOW() WHERE id = $3
	`, text, jsonStrings(mentions), commentID)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteComment(ctx context.Context, commentID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Attachments

func (s *PostgresStore) InsertAttachment(ctx context.Context, a Attachment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attachments (id, card_id, uploader_id, object_key, filename)
		VALUES ($1, $2, $3, $4, $5)
	`, a.ID, a.CardID, a.UploaderID, a.ObjectKey, a.Filename)
	if err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}
	s.touchCard(ctx, a.CardID)
	return nil
}

func (s *PostgresStore) GetAttachment(ctx context.Context, attachmentID string) (Attachment, error) {
	var a Attachment
	err := s.db.QueryRowContext(ctx, `
		SELECT id, card_id, uploader_id, object_key, filename, created_at
		FROM attachments WHERE id = $1
	`, attachmentID).Scan(&a.ID, &a.CardID, &a.UploaderID, &a.ObjectKey, &a.Filename, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Attachment{}, ErrNotFound
	}
	if err != nil {
		return Attachment{}, fmt.Errorf("get attachment: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) ListAttachments(ctx context.Context, cardID string) ([]Attachment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, card_id, uploader_id, object_key, filename, created_at
		FROM attachments WHERE card_id = $1
		ORDER BY created_at, id
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()
	var out []Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.CardID, &a.UploaderID, &a.ObjectKey, &a.Filename, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteAttachment(ctx context.Context, attachmentID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = $1`, attachmentID)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Checklist items

func (s *PostgresStore) InsertChecklistItem(ctx context.Context, item ChecklistItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checklist_items (id, card_id, body) VALUES ($1, $2, $3)
	`, item.ID, item.CardID, item.Text)
	if err != nil {
		return fmt.Errorf("insert checklist item: %w", err)
	}
	s.touchCard(ctx, item.CardID)
	return nil
}

func (s *PostgresStore) GetChecklistItem(ctx context.Context, itemID string) (ChecklistItem, error) {
	var item ChecklistItem
	err := s.db.QueryRowContext(ctx, `
		SELECT id, card_id, body, done, completed_by, created_at
		FROM checklist_items WHERE id = $1
	`, itemID).Scan(&item.ID, &item.CardID, &item.Text, &item.Done, &item.CompletedBy, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ChecklistItem{}, ErrNotFound
	}
	if err != nil {
		return ChecklistItem{}, fmt.Errorf("get checklist item: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) ToggleChecklistItem(ctx context.Context, itemID string, done bool, byUserID string) error {
	var res sql.Result
	var err error
	if done {
		res, err = s.db.ExecContext(ctx, `
			UPDATE checklist_items SET done = TRUE, completed_by = $1 WHERE id = $2
		`, byUserID, itemID)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE checklist_items SET done = FALSE, completed_by = NULL WHERE id = $1
		`, itemID)
	}
	if err != nil {
		return fmt.Errorf("toggle checklist item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteChecklistItem(ctx context.Context, itemID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM checklist_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete checklist item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Time entries

func (s *PostgresStore) InsertTimeEntry(ctx context.Context, e TimeEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO time_entries (id, card_id, user_id, hours, note)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.CardID, e.UserID, e.Hours, e.Note)
	if err != nil {
		return fmt.Errorf("insert time entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListTimeEntries(ctx context.Context, cardID string) ([]TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, card_id, user_id, hours, note, created_at
		FROM time_entries WHERE card_id = $1
		ORDER BY created_at, id
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	defer rows.Close()
	var out []TimeEntry
	for rows.Next() {
		var e TimeEntry
		if err := rows.Scan(&e.ID, &e.CardID, &e.UserID, &e.Hours, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Assembled detail view

func (s *PostgresStore) GetCardDetail(ctx context.Context, cardID string) (CardDetail, error) {
	card, err := s.GetCard(ctx, cardID)
	if err != nil {
		return CardDetail{}, err
	}
	detail := CardDetail{Card: card}
	if detail.Assignees, err = s.cardIDSet(ctx,
		`SELECT user_id FROM card_assignees WHERE card_id = $1 ORDER BY user_id`, cardID); err != nil {
		return CardDetail{}, fmt.Errorf("card assignees: %w", err)
	}
	if detail.Watchers, err = s.cardIDSet(ctx,
		`SELECT user_id FROM card_watchers WHERE card_id = $1 ORDER BY user_id`, cardID); err != nil {
		return CardDetail{}, fmt.Errorf("card watchers: %w", err)
	}
	if detail.LabelIDs, err = s.cardIDSet(ctx,
		`SELECT label_id FROM card_labels WHERE card_id = $1 ORDER BY label_id`, cardID); err != nil {
		return CardDetail{}, fmt.Errorf("card labels: %w", err)
	}
	if detail.Comments, err = s.ListComments(ctx, cardID); err != nil {
		return CardDetail{}, err
	}
	if detail.Attachments, err = s.ListAttachments(ctx, cardID); err != nil {
		return CardDetail{}, err
	}
	if detail.Checklist, err = s.listChecklist(ctx, cardID); err != nil {
		return CardDetail{}, err
	}
	if detail.TimeEntries, err = s.ListTimeEntries(ctx, cardID); err != nil {
		return CardDetail{}, err
	}
	return detail, nil
}

func (s *PostgresStore) listChecklist(ctx context.Context, cardID string) ([]ChecklistItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, card_id, body, done, completed_by, created_at
		FROM checklist_items WHERE card_id = $1
		ORDER BY created_at, id
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("list checklist: %w", err)
	}
	defer rows.Close()
	var out []ChecklistItem
	for rows.Next() {
		var item ChecklistItem
		if err := rows.Scan(&item.ID, &item.CardID, &item.Text, &item.Done, &item.CompletedBy, &item.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
