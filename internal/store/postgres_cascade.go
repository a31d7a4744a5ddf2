package store

import (
	"context"
	"fmt"
)

// Cascade steps. Each is a single idempotent statement: re-running a step
// after a partial failure matches 0 rows and changes nothing, so the
// lifecycle manager can retry a whole cascade safely.

func (s *PostgresStore) RemoveUserMemberships(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM project_members WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("remove memberships: %w", err)
	}
	return nil
}

func (s *PostgresStore) ClearMemberAddedBy(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE project_members SET added_by = NULL WHERE added_by = $1`, userID); err != nil {
		return fmt.Errorf("clear member added_by: %w", err)
	}
	return nil
}

func (s *PostgresStore) ClearBoardCreatedBy(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE boards SET created_by = NULL WHERE created_by = $1`, userID); err != nil {
		return fmt.Errorf("clear board created_by: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveCardAssignments(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM card_assignees WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("remove card assignments: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveCardWatches(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM card_watchers WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("remove card watches: %w", err)
	}
	return nil
}

func (s *PostgresStore) ClearCardUserRefs(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE cards SET
			completed_by = CASE WHEN completed_by = $1 THEN NULL ELSE completed_by END,
			archived_by  = CASE WHEN archived_by  = $1 THEN NULL ELSE archived_by  END,
			created_by   = CASE WHEN created_by   = $1 THEN NULL ELSE created_by   END
		WHERE completed_by = $1 OR archived_by = $1 OR created_by = $1
	`, userID); err != nil {
		return fmt.Errorf("clear card user refs: %w", err)
	}
	return nil
}

func (s *PostgresStore) ClearChecklistCompleter(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE checklist_items SET completed_by = NULL WHERE completed_by = $1`, userID); err != nil {
		return fmt.Errorf("clear checklist completer: %w", err)
	}
	return nil
}

func (s *PostgresStore) ClearAttachmentUploader(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE attachments SET uploader_id = NULL WHERE uploader_id = $1`, userID); err != nil {
		return fmt.Errorf("clear attachment uploader: %w", err)
	}
	return nil
}

func (s *PostgresStore) ClearCommentAuthor(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE comments SET author_id = NULL WHERE author_id = $1`, userID); err != nil {
		return fmt.Errorf("clear comment author: %w", err)
	}
	return nil
}

// StripCommentMentions removes userID from every comment's mention list.
func (s *PostgresStore) StripCommentMentions(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE comments SET mentions = mentions - $1 WHERE mentions ? $1
	`, userID); err != nil {
		return fmt.Errorf("strip comment mentions: %w", err)
	}
	return nil
}

func (s *PostgresStore) ClearTimeEntryUser(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE time_entries SET user_id = NULL WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear time entry user: %w", err)
	}
	return nil
}

// DeleteActivitiesReferencingUser purges the user's audit trail: records they
// acted in, plus records whose payload names them as the subject (member and
// assignment events, ownership transfers, comment mentions).
func (s *PostgresStore) DeleteActivitiesReferencingUser(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM activities
		WHERE actor_id = $1
		   OR payload->>'userId' = $1
		   OR payload->>'from' = $1
		   OR payload->>'to' = $1
		   OR payload->'mentions' ? $1
	`, userID); err != nil {
		return fmt.Errorf("delete activities referencing user: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteActivitiesByProject(ctx context.Context, projectID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM activities WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("delete activities by project: %w", err)
	}
	return nil
}

// ListOwnedProjectIDs returns projects owned by userID, for ownership
// transfer during the user cascade.
func (s *PostgresStore) ListOwnedProjectIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM projects WHERE owner_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list owned projects: %w", err)
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

// DeleteUser removes the user row. Idempotent: deleting an absent user is a
// no-op, not an error.
func (s *PostgresStore) DeleteUser(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// DeleteProject removes a project; boards, lists, cards, and the rest of the
// subtree go with it through the schema's ON DELETE CASCADE chain.
func (s *PostgresStore) DeleteProject(ctx context.Context, projectID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, projectID); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}
