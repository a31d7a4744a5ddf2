package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"corkboard/api/internal/activity"
	"corkboard/api/internal/rbac"
	"corkboard/api/internal/search"
	"corkboard/api/internal/store"
	"corkboard/api/internal/util"
)

type ProjectInput struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Tags        []string   `json:"tags"`
}

var validProjectStatus = map[string]struct{}{
	"active": {}, "on_hold": {}, "completed": {}, "cancelled": {},
}

var validPriority = map[string]struct{}{
	"low": {}, "medium": {}, "high": {}, "urgent": {},
}

func validateProjectInput(in ProjectInput) *DomainError {
	var fields []FieldError
	if trimmed(in.Name) == "" {
		fields = append(fields, FieldError{Field: "name", Message: "name is required"})
	}
	if in.Status != "" {
		if _, ok := validProjectStatus[in.Status]; !ok {
			fields = append(fields, FieldError{Field: "status", Message: "unknown status"})
		}
	}
	if in.Priority != "" {
		if _, ok := validPriority[in.Priority]; !ok {
			fields = append(fields, FieldError{Field: "priority", Message: "unknown priority"})
		}
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		fields = append(fields, FieldError{Field: "endDate", Message: "end date precedes start date"})
	}
	if len(fields) > 0 {
		return validationError("invalid project", fields...)
	}
	return nil
}

// ListProjects returns what the session may see: org-wide roles see every
// project, everyone else sees owned plus member projects.
func (s *Service) ListProjects(ctx context.Context, session Session) ([]store.Project, error) {
	switch session.OrgRole {
	case rbac.OrgSuperAdmin, rbac.OrgAdmin, rbac.OrgHR:
		return s.store.ListAllProjects(ctx)
	default:
		return s.store.ListProjectsForUser(ctx, session.UserID)
	}
}

func (s *Service) CreateProject(ctx context.Context, session Session, in ProjectInput) (store.Project, error) {
	if !rbac.CanCreateProjects(session.OrgRole) {
		return store.Project{}, domainError(http.StatusForbidden, "not permitted")
	}
	if err := validateProjectInput(in); err != nil {
		return store.Project{}, err
	}

	ownerID := session.UserID
	p := store.Project{
		ID:          util.NewID("prj"),
		Name:        trimmed(in.Name),
		Description: in.Description,
		OwnerID:     &ownerID,
		Status:      defaultString(in.Status, "active"),
		Priority:    defaultString(in.Priority, "medium"),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Tags:        in.Tags,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.store.InsertProject(ctx, p); err != nil {
		return store.Project{}, err
	}

	scope := activity.Scope{ProjectID: p.ID}
	s.record(ctx, session, activity.TypeProjectCreated, scope, map[string]any{"name": p.Name})
	s.search.IndexProject(search.ProjectRecord{ID: p.ID, Name: p.Name, Description: p.Description, Status: p.Status})
	return p, nil
}

func (s *Service) GetProject(ctx context.Context, session Session, projectID string) (store.Project, []store.ProjectMember, error) {
	chain, err := s.store.GetProjectChain(ctx, projectID, session.UserID)
	if err != nil {
		return store.Project{}, nil, err
	}
	if err := authorize(session, chain, rbac.ActionRead); err != nil {
		return store.Project{}, nil, err
	}
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return store.Project{}, nil, err
	}
	members, err := s.store.ListMembers(ctx, projectID)
	if err != nil {
		return store.Project{}, nil, err
	}
	return p, members, nil
}

func (s *Service) UpdateProject(ctx context.Context, session Session, projectID string, in ProjectInput) (store.Project, error) {
	chain, err := s.store.GetProjectChain(ctx, projectID, session.UserID)
	if err != nil {
		return store.Project{}, err
	}
	if err := authorize(session, chain, rbac.ActionWrite); err != nil {
		return store.Project{}, err
	}
	if err := validateProjectInput(in); err != nil {
		return store.Project{}, err
	}

	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return store.Project{}, err
	}
	p.Name = trimmed(in.Name)
	p.Description = in.Description
	p.Status = defaultString(in.Status, p.Status)
	p.Priority = defaultString(in.Priority, p.Priority)
	p.StartDate = in.StartDate
	p.EndDate = in.EndDate
	p.Tags = in.Tags
	if err := s.store.UpdateProject(ctx, p); err != nil {
		return store.Project{}, err
	}

	scope := activity.Scope{ProjectID: p.ID}
	s.record(ctx, session, activity.TypeProjectUpdated, scope, map[string]any{"name": p.Name})
	s.search.IndexProject(search.ProjectRecord{ID: p.ID, Name: p.Name, Description: p.Description, Status: p.Status})
	return p, nil
}

func (s *Service) SetProjectArchived(ctx context.Context, session Session, projectID string, archived bool) error {
	chain, err := s.store.GetProjectChain(ctx, projectID, session.UserID)
	if err != nil {
		return err
	}
	if err := authorize(session, chain, rbac.ActionManageBoards); err != nil {
		return err
	}
	if err := s.store.SetProjectArchived(ctx, projectID, archived); err != nil {
		return err
	}
	t := activity.TypeProjectArchived
	if !archived {
		t = activity.TypeProjectUnarchived
	}
	s.record(ctx, session, t, activity.Scope{ProjectID: projectID}, nil)
	return nil
}

// TransferProject reassigns ownership to another user, who must exist and
// be active. The previous owner stays on as a manager member.
func (s *Service) TransferProject(ctx context.Context, session Session, projectID, newOwnerID string) error {
	chain, err := s.store.GetProjectChain(ctx, projectID, session.UserID)
	if err != nil {
		return err
	}
	if err := authorize(session, chain, rbac.ActionManageMembers); err != nil {
		return err
	}
	newOwner, err := s.store.GetUser(ctx, newOwnerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainError(http.StatusBadRequest, "new owner does not exist")
		}
		return err
	}
	if newOwner.DeactivatedAt != nil {
		return domainError(http.StatusBadRequest, "new owner is deactivated")
	}
	if chain.OwnerID == newOwnerID {
		return nil
	}

	if err := s.store.TransferProjectOwnership(ctx, projectID, newOwnerID); err != nil {
		return err
	}
	if chain.OwnerID != "" {
		prev := chain.OwnerID
		_ = s.store.AddMember(ctx, store.ProjectMember{
			ProjectID: projectID,
			UserID:    prev,
			Role:      string(rbac.ProjectManager),
			AddedBy:   &session.UserID,
		})
	}

	s.record(ctx, session, activity.TypeProjectTransferred, activity.Scope{ProjectID: projectID}, map[string]any{
		"from": chain.OwnerID,
		"to":   newOwnerID,
	})
	return nil
}

// ---------------------------------------------------------------------------
// Membership

type MemberInput struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

func (s *Service) AddMember(ctx context.Context, session Session, projectID string, in MemberInput) (store.ProjectMember, error) {
	chain, err := s.store.GetProjectChain(ctx, projectID, session.UserID)
	if err != nil {
		return store.ProjectMember{}, err
	}
	if err := authorize(session, chain, rbac.ActionManageMembers); err != nil {
		return store.ProjectMember{}, err
	}
	if !rbac.ValidProjectRole(in.Role) {
		return store.ProjectMember{}, validationError("invalid member",
			FieldError{Field: "role", Message: "unknown project role"})
	}
	subject, err := s.store.GetUser(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ProjectMember{}, validationError("invalid member",
				FieldError{Field: "userId", Message: "user does not exist"})
		}
		return store.ProjectMember{}, err
	}
	if subject.DeactivatedAt != nil {
		return store.ProjectMember{}, validationError("invalid member",
			FieldError{Field: "userId", Message: "user is deactivated"})
	}
	if chain.OwnerID == in.UserID {
		return store.ProjectMember{}, domainError(http.StatusConflict, "user owns this project")
	}

	m := store.ProjectMember{
		ProjectID:   projectID,
		UserID:      in.UserID,
		Role:        in.Role,
		AddedBy:     &session.UserID,
		JoinedAt:    time.Now(),
		DisplayName: subject.DisplayName,
		Email:       subject.Email,
	}
	if err := s.store.AddMember(ctx, m); err != nil {
		if store.IsUniqueViolation(err) {
			return store.ProjectMember{}, domainError(http.StatusConflict, "already a member")
		}
		return store.ProjectMember{}, err
	}

	s.record(ctx, session, activity.TypeMemberAdded, activity.Scope{ProjectID: projectID}, map[string]any{
		"userId": in.UserID,
		"role":   in.Role,
	})
	return m, nil
}

func (s *Service) UpdateMemberRole(ctx context.Context, session Session, projectID, userID, role string) error {
	chain, err := s.store.GetProjectChain(ctx, projectID, session.UserID)
	if err != nil {
		return err
	}
	if err := authorize(session, chain, rbac.ActionManageMembers); err != nil {
		return err
	}
	if !rbac.ValidProjectRole(role) {
		return validationError("invalid member", FieldError{Field: "role", Message: "unknown project role"})
	}
	if err := s.store.UpdateMemberRole(ctx, projectID, userID, role); err != nil {
		return err
	}
	s.record(ctx, session, activity.TypeMemberRoleChanged, activity.Scope{ProjectID: projectID}, map[string]any{
		"userId": userID,
		"role":   role,
	})
	return nil
}

func (s *Service) RemoveMember(ctx context.Context, session Session, projectID, userID string) error {
	chain, err := s.store.GetProjectChain(ctx, projectID, session.UserID)
	if err != nil {
		return err
	}
	// Leaving a project is always allowed; removing someone else needs the
	// membership action.
	if userID != session.UserID {
		if err := authorize(session, chain, rbac.ActionManageMembers); err != nil {
			return err
		}
	}
	if err := s.store.RemoveMember(ctx, projectID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainError(http.StatusBadRequest, "not a member")
		}
		return err
	}
	s.record(ctx, session, activity.TypeMemberRemoved, activity.Scope{ProjectID: projectID}, map[string]any{
		"userId": userID,
	})
	return nil
}

func defaultString(v, fallback string) string {
	if trimmed(v) == "" {
		return fallback
	}
	return v
}
