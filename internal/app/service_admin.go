package app

import (
	"context"
	"net/http"
	"time"

	"corkboard/api/internal/activity"
	"corkboard/api/internal/authz"
	"corkboard/api/internal/rbac"
	"corkboard/api/internal/search"
	"corkboard/api/internal/store"
	"corkboard/api/internal/util"
)

// Account-domain operations. These are governed by CanManageUser, not the
// project resolver: org admin parity means an admin handles everyone below
// superadmin, and superadmins handle each other.

type UserInput struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	OrgRole     string `json:"orgRole"`
}

func (s *Service) CreateUser(ctx context.Context, session Session, in UserInput) (store.User, error) {
	role := rbac.NormalizeOrg(defaultString(in.OrgRole, string(rbac.OrgEmployee)))
	if decision := authz.CanManageUser(session.principal(), role); !decision.Allowed {
		return store.User{}, domainError(http.StatusForbidden, decision.Reason)
	}

	var fields []FieldError
	if trimmed(in.DisplayName) == "" {
		fields = append(fields, FieldError{Field: "displayName", Message: "display name is required"})
	}
	if trimmed(in.Email) == "" {
		fields = append(fields, FieldError{Field: "email", Message: "email is required"})
	}
	if len(fields) > 0 {
		return store.User{}, validationError("invalid user", fields...)
	}

	u := store.User{
		ID:          util.NewID("usr"),
		DisplayName: trimmed(in.DisplayName),
		Email:       trimmed(in.Email),
		OrgRole:     string(role),
		CreatedAt:   time.Now(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if store.IsUniqueViolation(err) {
			return store.User{}, domainError(http.StatusConflict, "email already registered")
		}
		return store.User{}, err
	}
	return u, nil
}

// ListUsers is the org directory. Every authenticated user may browse it;
// assignment and mention pickers need it.
func (s *Service) ListUsers(ctx context.Context, session Session, query string, limit, offset int) ([]store.User, int, error) {
	limit, offset = clampPage(limit, offset)
	return s.store.ListUsers(ctx, trimmed(query), limit, offset)
}

func (s *Service) GetUserProfile(ctx context.Context, session Session, userID string) (store.User, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *Service) ChangeOrgRole(ctx context.Context, session Session, userID, newRole string) error {
	subject, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	current := rbac.NormalizeOrg(subject.OrgRole)
	target := rbac.NormalizeOrg(newRole)
	if decision := authz.CanManageUser(session.principal(), current); !decision.Allowed {
		return domainError(http.StatusForbidden, decision.Reason)
	}
	if decision := authz.CanManageUser(session.principal(), target); !decision.Allowed {
		return domainError(http.StatusForbidden, decision.Reason)
	}
	if current == rbac.OrgSuperAdmin && target != rbac.OrgSuperAdmin {
		if _, err := s.store.FindActiveSuperAdmin(ctx, userID); err != nil {
			return domainError(http.StatusConflict, "cannot demote the last superadmin")
		}
	}
	if err := s.store.UpdateUserOrgRole(ctx, userID, string(target)); err != nil {
		return err
	}
	s.log(ctx, session, activity.TypeUserRoleChanged, activity.Scope{}, map[string]any{
		"userId": userID,
		"from":   string(current),
		"to":     string(target),
	})
	return nil
}

func (s *Service) SetUserDeactivated(ctx context.Context, session Session, userID string, deactivated bool) error {
	subject, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if decision := authz.CanManageUser(session.principal(), rbac.NormalizeOrg(subject.OrgRole)); !decision.Allowed {
		return domainError(http.StatusForbidden, decision.Reason)
	}
	if deactivated && userID == session.UserID {
		return domainError(http.StatusBadRequest, "cannot deactivate own account")
	}
	if deactivated && rbac.NormalizeOrg(subject.OrgRole) == rbac.OrgSuperAdmin {
		if _, err := s.store.FindActiveSuperAdmin(ctx, userID); err != nil {
			return domainError(http.StatusConflict, "cannot deactivate the last superadmin")
		}
	}
	if err := s.store.SetUserDeactivated(ctx, userID, deactivated); err != nil {
		return err
	}
	t := activity.TypeUserDeactivated
	if !deactivated {
		t = activity.TypeUserReactivated
	}
	s.log(ctx, session, t, activity.Scope{}, map[string]any{"userId": userID})
	return nil
}

// ---------------------------------------------------------------------------
// Activity feeds

func (s *Service) ProjectActivity(ctx context.Context, session Session, projectID string, limit, offset int) ([]activity.Record, error) {
	chain, err := s.store.GetProjectChain(ctx, projectID, session.UserID)
	if err != nil {
		return nil, err
	}
	if err := authorize(session, chain, rbac.ActionRead); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	return s.store.ListActivitiesByProject(ctx, projectID, limit, offset)
}

func (s *Service) CardActivity(ctx context.Context, session Session, cardID string, limit, offset int) ([]activity.Record, error) {
	chain, err := s.store.GetCardChain(ctx, cardID, session.UserID)
	if err != nil {
		return nil, err
	}
	if err := authorize(session, chain, rbac.ActionRead); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	return s.store.ListActivitiesByCard(ctx, cardID, limit, offset)
}

// ActorActivity shows a user's own trail. Users see their own; org admin
// roles see anyone's.
func (s *Service) ActorActivity(ctx context.Context, session Session, actorID string, limit, offset int) ([]activity.Record, error) {
	if actorID != session.UserID {
		switch session.OrgRole {
		case rbac.OrgSuperAdmin, rbac.OrgAdmin, rbac.OrgHR:
		default:
			return nil, domainError(http.StatusForbidden, "not permitted")
		}
	}
	limit, offset = clampPage(limit, offset)
	return s.store.ListActivitiesByActor(ctx, actorID, limit, offset)
}

// DashboardActivity is the cross-project feed over everything the session
// user can see. Org admin roles see every project, same as ListProjects and
// Search.
func (s *Service) DashboardActivity(ctx context.Context, session Session, limit, offset int) ([]activity.Record, error) {
	limit, offset = clampPage(limit, offset)
	switch session.OrgRole {
	case rbac.OrgSuperAdmin, rbac.OrgAdmin, rbac.OrgHR:
		return s.store.ListRecentActivities(ctx, limit, offset)
	default:
		return s.store.ListActivitiesForUser(ctx, session.UserID, limit, offset)
	}
}

// ---------------------------------------------------------------------------
// Search

func (s *Service) Search(ctx context.Context, session Session, text string, filterType string, limit, offset int) (search.Response, error) {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: text}, nil
	}

	var scope []string
	switch session.OrgRole {
	case rbac.OrgSuperAdmin, rbac.OrgAdmin, rbac.OrgHR:
		projects, err := s.store.ListAllProjects(ctx)
		if err != nil {
			return search.Response{}, err
		}
		for _, p := range projects {
			scope = append(scope, p.ID)
		}
	default:
		ids, err := s.store.ProjectIDsVisibleTo(ctx, session.UserID)
		if err != nil {
			return search.Response{}, err
		}
		scope = ids
	}

	limit, offset = clampPage(limit, offset)
	return s.search.Search(ctx, search.Query{
		Text:       text,
		FilterType: search.ResultType(filterType),
		ProjectIDs: scope,
		Limit:      limit,
		Offset:     offset,
	}), nil
}
