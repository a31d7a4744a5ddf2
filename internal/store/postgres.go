package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// jsonStrings marshals a string slice for a JSONB column; nil becomes [].
func jsonStrings(values []string) []byte {
	if values == nil {
		values = []string{}
	}
	data, _ := json.Marshal(values)
	return data
}

func scanStrings(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	_ = json.Unmarshal(raw, &out)
	return out
}

// ---------------------------------------------------------------------------
// Users

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, display_name, email, org_role)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.DisplayName, user.Email, user.OrgRole)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, userID string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, org_role, deactivated_at, created_at
		FROM users WHERE id = $1
	`, userID).Scan(&u.ID, &u.DisplayName, &u.Email, &u.OrgRole, &u.DeactivatedAt, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context, search string, limit, offset int) ([]User, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users
		WHERE $1 = '' OR display_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
	`, search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, display_name, email, org_role, deactivated_at, created_at
		FROM users
		WHERE $1 = '' OR display_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`, search, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.Email, &u.OrgRole, &u.DeactivatedAt, &u.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (s *PostgresStore) UpdateUserOrgRole(ctx context.Context, userID, orgRole string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET org_role = $1 WHERE id = $2`, orgRole, userID)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetUserDeactivated(ctx context.Context, userID string, deactivated bool) error {
	var err error
	if deactivated {
		_, err = s.db.ExecContext(ctx, `UPDATE users SET deactivated_at = NOW() WHERE id = $1 AND deactivated_at IS NULL`, userID)
	} else {
		_, err = s.db.ExecContext(ctx, `UPDATE users SET deactivated_at = NULL WHERE id = $1`, userID)
	}
	if err != nil {
		return fmt.Errorf("set user deactivated: %w", err)
	}
	return nil
}

// FindActiveSuperAdmin returns any active top-tier user other than excludeID,
// used by the user cascade to receive orphaned projects.
func (s *PostgresStore) FindActiveSuperAdmin(ctx context.Context, excludeID string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, org_role, deactivated_at, created_at
		FROM users
		WHERE org_role = 'superadmin' AND deactivated_at IS NULL AND id <> $1
		ORDER BY created_at, id
		LIMIT 1
	`, excludeID).Scan(&u.ID, &u.DisplayName, &u.Email, &u.OrgRole, &u.DeactivatedAt, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("find superadmin: %w", err)
	}
	return u, nil
}

// ---------------------------------------------------------------------------
// Projects

func (s *PostgresStore) InsertProject(ctx context.Context, p Project) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, owner_id, status, priority, start_date, end_date, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.Name, p.Description, p.OwnerID, p.Status, p.Priority, p.StartDate, p.EndDate, jsonStrings(p.Tags))
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetProject(ctx context.Context, projectID string) (Project, error) {
	var p Project
	var tags []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, owner_id, status, priority, start_date, end_date, tags, archived, created_at, updated_at
		FROM projects WHERE id = $1
	`, projectID).Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.Status, &p.Priority,
		&p.StartDate, &p.EndDate, &tags, &p.Archived, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, ErrNotFound
	}
	if err != nil {
		return Project{}, fmt.Errorf("get project: %w", err)
	}
	p.Tags = scanStrings(tags)
	return p, nil
}

func (s *PostgresStore) UpdateProject(ctx context.Context, p Project) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET name = $1, description = $2, status = $3, priority = $4,
		    start_date = $5, end_date = $6, tags = $7, updated_at = NOW()
		WHERE id = $8
	`, p.Name, p.Description, p.Status, p.Priority, p.StartDate, p.EndDate, jsonStrings(p.Tags), p.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetProjectArchived(ctx context.Context, projectID string, archived bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects SET archived = $1, updated_at = NOW() WHERE id = $2
	`, archived, projectID)
	if err != nil {
		return fmt.Errorf("archive project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) TransferProjectOwnership(ctx context.Context, projectID, newOwnerID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE projects SET owner_id = $1, updated_at = NOW() WHERE id = $2
	`, newOwnerID, projectID)
	if err != nil {
		return fmt.Errorf("transfer ownership: %w", err)
	}
	return nil
}

// ListProjectsForUser returns projects the user owns or is a member of.
func (s *PostgresStore) ListProjectsForUser(ctx context.Context, userID string) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT p.id, p.name, p.description, p.owner_id, p.status, p.priority,
		       p.start_date, p.end_date, p.tags, p.archived, p.created_at, p.updated_at
		FROM projects p
		LEFT JOIN project_members pm ON pm.project_id = p.id
		WHERE p.owner_id = $1 OR pm.user_id = $1
		ORDER BY p.created_at, p.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects for user: %w", err)
	}
	return scanProjects(rows)
}

// ListAllProjects serves org roles whose visibility ignores membership.
func (s *PostgresStore) ListAllProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, owner_id, status, priority,
		       start_date, end_date, tags, archived, created_at, updated_at
		FROM projects
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return scanProjects(rows)
}

func scanProjects(rows *sql.Rows) ([]Project, error) {
	defer rows.Close()
	var out []Project
	for rows.Next() {
		var p Project
		var tags []byte
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.Status, &p.Priority,
			&p.StartDate, &p.EndDate, &tags, &p.Archived, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Tags = scanStrings(tags)
		out = append(out, p)
	}
	return out, rows.Err()
}

// ProjectIDsVisibleTo powers the activity dashboard and search filters.
func (s *PostgresStore) ProjectIDsVisibleTo(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT p.id
		FROM projects p
		LEFT JOIN project_members pm ON pm.project_id = p.id
		WHERE p.owner_id = $1 OR pm.user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("visible project ids: %w", err)
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
// Memberships

func (s *PostgresStore) AddMember(ctx context.Context, m ProjectMember) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project_members (project_id, user_id, role, added_by)
		VALUES ($1, $2, $3, $4)
	`, m.ProjectID, m.UserID, m.Role, m.AddedBy)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateMemberRole(ctx context.Context, projectID, userID, role string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE project_members SET role = $1 WHERE project_id = $2 AND user_id = $3
	`, role, projectID, userID)
	if err != nil {
		return fmt.Errorf("update member role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) RemoveMember(ctx context.Context, projectID, userID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM project_members WHERE project_id = $1 AND user_id = $2
	`, projectID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListMembers(ctx context.Context, projectID string) ([]ProjectMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pm.project_id, pm.user_id, pm.role, pm.added_by, pm.joined_at, u.display_name, u.email
		FROM project_members pm
		JOIN users u ON u.id = pm.user_id
		WHERE pm.project_id = $1
		ORDER BY pm.joined_at, pm.user_id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()
	var out []ProjectMember
	for rows.Next() {
		var m ProjectMember
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.AddedBy, &m.JoinedAt, &m.DisplayName, &m.Email); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Ownership chains

// GetProjectChain loads the ownership chain of a project together with the
// requesting principal's membership, in a single query.
func (s *PostgresStore) GetProjectChain(ctx context.Context, projectID, userID string) (Chain, error) {
	var c Chain
	var ownerID sql.NullString
	var role sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.owner_id, pm.role
		FROM projects p
		LEFT JOIN project_members pm ON pm.project_id = p.id AND pm.user_id = $2
		WHERE p.id = $1
	`, projectID, userID).Scan(&c.ProjectID, &ownerID, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return Chain{}, ErrNotFound
	}
	if err != nil {
		return Chain{}, fmt.Errorf("project chain: %w", err)
	}
	c.OwnerID = ownerID.String
	c.IsMember = role.Valid
	c.MemberRole = role.String
	return c, nil
}

func (s *PostgresStore) GetBoardChain(ctx context.Context, boardID, userID string) (Chain, error) {
	var c Chain
	var ownerID, role sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, b.id, p.owner_id, pm.role
		FROM boards b
		JOIN projects p ON p.id = b.project_id
		LEFT JOIN project_members pm ON pm.project_id = p.id AND pm.user_id = $2
		WHERE b.id = $1
	`, boardID, userID).Scan(&c.ProjectID, &c.BoardID, &ownerID, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return Chain{}, ErrNotFound
	}
	if err != nil {
		return Chain{}, fmt.Errorf("board chain: %w", err)
	}
	c.OwnerID = ownerID.String
	c.IsMember = role.Valid
	c.MemberRole = role.String
	return c, nil
}

func (s *PostgresStore) GetListChain(ctx context.Context, listID, userID string) (Chain, error) {
	var c Chain
	var ownerID, role sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, b.id, l.id, p.owner_id, pm.role
		FROM lists l
		JOIN boards b ON b.id = l.board_id
		JOIN projects p ON p.id = b.project_id
		LEFT JOIN project_members pm ON pm.project_id = p.id AND pm.user_id = $2
		WHERE l.id = $1
	`, listID, userID).Scan(&c.ProjectID, &c.BoardID, &c.ListID, &ownerID, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return Chain{}, ErrNotFound
	}
	if err != nil {
		return Chain{}, fmt.Errorf("list chain: %w", err)
	}
	c.OwnerID = ownerID.String
	c.IsMember = role.Valid
	c.MemberRole = role.String
	return c, nil
}

func (s *PostgresStore) GetCardChain(ctx context.Context, cardID, userID string) (Chain, error) {
	var c Chain
	var ownerID, role sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, b.id, l.id, cd.id, p.owner_id, pm.role
		FROM cards cd
		JOIN lists l ON l.id = cd.list_id
		JOIN boards b ON b.id = l.board_id
		JOIN projects p ON p.id = b.project_id
		LEFT JOIN project_members pm ON pm.project_id = p.id AND pm.user_id = $2
		WHERE cd.id = $1
	`, cardID, userID).Scan(&c.ProjectID, &c.BoardID, &c.ListID, &c.CardID, &ownerID, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return Chain{}, ErrNotFound
	}
	if err != nil {
		return Chain{}, fmt.Errorf("card chain: %w", err)
	}
	c.OwnerID = ownerID.String
	c.IsMember = role.Valid
	c.MemberRole = role.String
	return c, nil
}

// ---------------------------------------------------------------------------
// Audiences

// ProjectAudience is the owner plus every member of a project.
func (s *PostgresStore) ProjectAudience(ctx context.Context, projectID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT owner_id FROM projects WHERE id = $1 AND owner_id IS NOT NULL
		UNION
		SELECT user_id FROM project_members WHERE project_id = $1
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("project audience: %w", err)
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

// CardFollowers is the union of a card's assignees and watchers.
func (s *PostgresStore) CardFollowers(ctx context.Context, cardID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM card_assignees WHERE card_id = $1
		UNION
		SELECT user_id FROM card_watchers WHERE card_id = $1
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("card followers: %w", err)
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

// touchCard keeps updated_at honest for sub-collection writes.
func (s *PostgresStore) touchCard(ctx context.Context, cardID string) {
	_, _ = s.db.ExecContext(ctx, `UPDATE cards SET updated_at = NOW() WHERE id = $1`, cardID)
}
