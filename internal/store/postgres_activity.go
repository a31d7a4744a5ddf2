package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"corkboard/api/internal/activity"
)

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *PostgresStore) InsertActivity(ctx context.Context, rec activity.Record) error {
	var payload []byte
	if rec.Payload != nil {
		var err error
		payload, err = json.Marshal(rec.Payload)
		if err != nil {
			return fmt.Errorf("marshal activity payload: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (type, actor_id, actor_name, project_id, board_id, list_id, card_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.Type, rec.ActorID, rec.ActorName,
		nullable(rec.ProjectID), nullable(rec.BoardID), nullable(rec.ListID), nullable(rec.CardID),
		payload, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

const activityColumns = `id, type, actor_id, actor_name,
	COALESCE(project_id, ''), COALESCE(board_id, ''), COALESCE(list_id, ''), COALESCE(card_id, ''),
	payload, created_at`

func scanActivities(rows *sql.Rows) ([]activity.Record, error) {
	defer rows.Close()
	var out []activity.Record
	for rows.Next() {
		var rec activity.Record
		var payload []byte
		if err := rows.Scan(&rec.ID, &rec.Type, &rec.ActorID, &rec.ActorName,
			&rec.ProjectID, &rec.BoardID, &rec.ListID, &rec.CardID, &payload, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			_ = json.Unmarshal(payload, &rec.Payload)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListActivitiesByProject(ctx context.Context, projectID string, limit, offset int) ([]activity.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+activityColumns+`
		FROM activities WHERE project_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, projectID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list project activities: %w", err)
	}
	return scanActivities(rows)
}

func (s *PostgresStore) ListActivitiesByCard(ctx context.Context, cardID string, limit, offset int) ([]activity.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+activityColumns+`
		FROM activities WHERE card_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, cardID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list card activities: %w", err)
	}
	return scanActivities(rows)
}

func (s *PostgresStore) ListActivitiesByActor(ctx context.Context, actorID string, limit, offset int) ([]activity.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+activityColumns+`
		FROM activities WHERE actor_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, actorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list actor activities: %w", err)
	}
	return scanActivities(rows)
}

// ListRecentActivities is the org-wide dashboard feed for admin roles.
func (s *PostgresStore) ListRecentActivities(ctx context.Context, limit, offset int) ([]activity.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+activityColumns+`
		FROM activities
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list recent activities: %w", err)
	}
	return scanActivities(rows)
}

// ListActivitiesForUser is the dashboard feed: recent activity across every
// project the user can see.
func (s *PostgresStore) ListActivitiesForUser(ctx context.Context, userID string, limit, offset int) ([]activity.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+activityColumns+`
		FROM activities
		WHERE project_id IN (
			SELECT p.id FROM projects p
			LEFT JOIN project_members pm ON pm.project_id = p.id
			WHERE p.owner_id = $1 OR pm.user_id = $1
		)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list user activities: %w", err)
	}
	return scanActivities(rows)
}
