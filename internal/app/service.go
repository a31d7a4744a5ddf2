package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"corkboard/api/internal/activity"
	"corkboard/api/internal/auth"
	"corkboard/api/internal/authz"
	"corkboard/api/internal/blob"
	"corkboard/api/internal/events"
	"corkboard/api/internal/rbac"
	"corkboard/api/internal/reorder"
	"corkboard/api/internal/search"
	"corkboard/api/internal/store"
)

// Session is the authenticated actor for one request. OrgRole comes from the
// user row, not the token, so role changes take effect on the next request.
type Session struct {
	UserID   string
	UserName string
	OrgRole  rbac.OrgRole
}

func (s Session) principal() authz.Principal {
	return authz.Principal{ID: s.UserID, Name: s.UserName, OrgRole: s.OrgRole}
}

// dataStore is everything the service needs from persistence. Satisfied by
// store.PostgresStore in production and fakeStore in tests.
type dataStore interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user store.User) error
	GetUser(ctx context.Context, userID string) (store.User, error)
	ListUsers(ctx context.Context, search string, limit, offset int) ([]store.User, int, error)
	UpdateUserOrgRole(ctx context.Context, userID, orgRole string) error
	SetUserDeactivated(ctx context.Context, userID string, deactivated bool) error
	FindActiveSuperAdmin(ctx context.Context, excludeID string) (store.User, error)
	DeleteUser(ctx context.Context, userID string) error

	InsertProject(ctx context.Context, p store.Project) error
	GetProject(ctx context.Context, projectID string) (store.Project, error)
	UpdateProject(ctx context.Context, p store.Project) error
	SetProjectArchived(ctx context.Context, projectID string, archived bool) error
	TransferProjectOwnership(ctx context.Context, projectID, newOwnerID string) error
	ListProjectsForUser(ctx context.Context, userID string) ([]store.Project, error)
	ListAllProjects(ctx context.Context) ([]store.Project, error)
	ProjectIDsVisibleTo(ctx context.Context, userID string) ([]string, error)
	ListOwnedProjectIDs(ctx context.Context, userID string) ([]string, error)
	DeleteProject(ctx context.Context, projectID string) error

	AddMember(ctx context.Context, m store.ProjectMember) error
	UpdateMemberRole(ctx context.Context, projectID, userID, role string) error
	RemoveMember(ctx context.Context, projectID, userID string) error
	ListMembers(ctx context.Context, projectID string) ([]store.ProjectMember, error)

	GetProjectChain(ctx context.Context, projectID, userID string) (store.Chain, error)
	GetBoardChain(ctx context.Context, boardID, userID string) (store.Chain, error)
	GetListChain(ctx context.Context, listID, userID string) (store.Chain, error)
	GetCardChain(ctx context.Context, cardID, userID string) (store.Chain, error)
	ProjectAudience(ctx context.Context, projectID string) ([]string, error)
	CardFollowers(ctx context.Context, cardID string) ([]string, error)

	InsertBoard(ctx context.Context, b store.Board) error
	GetBoard(ctx context.Context, boardID string) (store.Board, error)
	ListBoards(ctx context.Context, projectID string) ([]store.Board, error)
	UpdateBoard(ctx context.Context, boardID, name, description string) error
	SetBoardArchived(ctx context.Context, boardID string, archived bool) error
	DeleteBoard(ctx context.Context, boardID string) error

	InsertLabel(ctx context.Context, l store.Label) error
	GetLabel(ctx context.Context, labelID string) (store.Label, error)
	ListLabels(ctx context.Context, boardID string) ([]store.Label, error)
	UpdateLabel(ctx context.Context, labelID, name, color string) error
	DeleteLabel(ctx context.Context, labelID string) error

	GetList(ctx context.Context, listID string) (store.List, error)
	ListLists(ctx context.Context, boardID string) ([]store.List, error)
	CreateList(ctx context.Context, l store.List, requested *int) (int, error)
	MoveList(ctx context.Context, listID string, requested int) (int, error)
	UpdateList(ctx context.Context, listID, name string) error
	SetListArchived(ctx context.Context, listID string, archived bool) error
	DeleteList(ctx context.Context, listID string) error

	GetCard(ctx context.Context, cardID string) (store.Card, error)
	ListCards(ctx context.Context, listID string) ([]store.Card, error)
	GetCardDetail(ctx context.Context, cardID string) (store.CardDetail, error)
	CreateCard(ctx context.Context, c store.Card, requested *int) (int, error)
	MoveCard(ctx context.Context, cardID, targetListID string, requested int) (int, error)
	UpdateCard(ctx context.Context, c store.Card) error
	SetCardCompleted(ctx context.Context, cardID string, completed bool, byUserID string) error
	SetCardArchived(ctx context.Context, cardID string, archived bool, byUserID string) error
	DeleteCard(ctx context.Context, cardID string) error

	AssignCard(ctx context.Context, cardID, userID string) error
	UnassignCard(ctx context.Context, cardID, userID string) error
	WatchCard(ctx context.Context, cardID, userID string) error
	UnwatchCard(ctx context.Context, cardID, userID string) error
	SetCardLabels(ctx context.Context, cardID string, labelIDs []string) error

	InsertComment(ctx context.Context, c store.Comment) error
	GetComment(ctx context.Context, commentID string) (store.Comment, error)
	ListComments(ctx context.Context, cardID string) ([]store.Comment, error)
	UpdateComment(ctx context.Context, commentID, text string, mentions []string) error
	DeleteComment(ctx context.Context, commentID string) error

	InsertAttachment(ctx context.Context, a store.Attachment) error
	GetAttachment(ctx context.Context, attachmentID string) (store.Attachment, error)
	ListAttachments(ctx context.Context, cardID string) ([]store.Attachment, error)
	DeleteAttachment(ctx context.Context, attachmentID string) error

	InsertChecklistItem(ctx context.Context, item store.ChecklistItem) error
	GetChecklistItem(ctx context.Context, itemID string) (store.ChecklistItem, error)
	ToggleChecklistItem(ctx context.Context, itemID string, done bool, byUserID string) error
	DeleteChecklistItem(ctx context.Context, itemID string) error

	InsertTimeEntry(ctx context.Context, e store.TimeEntry) error
	ListTimeEntries(ctx context.Context, cardID string) ([]store.TimeEntry, error)

	RemoveUserMemberships(ctx context.Context, userID string) error
	ClearMemberAddedBy(ctx context.Context, userID string) error
	ClearBoardCreatedBy(ctx context.Context, userID string) error
	RemoveCardAssignments(ctx context.Context, userID string) error
	RemoveCardWatches(ctx context.Context, userID string) error
	ClearCardUserRefs(ctx context.Context, userID string) error
	ClearChecklistCompleter(ctx context.Context, userID string) error
	ClearAttachmentUploader(ctx context.Context, userID string) error
	ClearCommentAuthor(ctx context.Context, userID string) error
	StripCommentMentions(ctx context.Context, userID string) error
	ClearTimeEntryUser(ctx context.Context, userID string) error
	DeleteActivitiesReferencingUser(ctx context.Context, userID string) error
	DeleteActivitiesByProject(ctx context.Context, projectID string) error

	InsertActivity(ctx context.Context, rec activity.Record) error
	ListActivitiesByProject(ctx context.Context, projectID string, limit, offset int) ([]activity.Record, error)
	ListActivitiesByCard(ctx context.Context, cardID string, limit, offset int) ([]activity.Record, error)
	ListActivitiesByActor(ctx context.Context, actorID string, limit, offset int) ([]activity.Record, error)
	ListActivitiesForUser(ctx context.Context, userID string, limit, offset int) ([]activity.Record, error)
	ListRecentActivities(ctx context.Context, limit, offset int) ([]activity.Record, error)
}

type eventSink interface {
	Dispatch(ctx context.Context, ev events.Event)
	DispatchTo(ctx context.Context, ev events.Event, recipients []string)
}

type Service struct {
	store      dataStore
	audit      *activity.Logger
	dispatcher eventSink
	locker     reorder.Locker
	search     *search.Service
	blob       *blob.Service
	jwtSecret  []byte
}

type ServiceOptions struct {
	Store      dataStore
	Dispatcher eventSink
	Locker     reorder.Locker
	Search     *search.Service
	Blob       *blob.Service
	JWTSecret  string
}

func NewService(opts ServiceOptions) *Service {
	locker := opts.Locker
	if locker == nil {
		locker = reorder.NewMutexLocker()
	}
	return &Service{
		store:      opts.Store,
		audit:      activity.NewLogger(opts.Store),
		dispatcher: opts.Dispatcher,
		locker:     locker,
		search:     opts.Search,
		blob:       opts.Blob,
		jwtSecret:  []byte(opts.JWTSecret),
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// SessionFromToken verifies the bearer token, then loads the user row so
// the session reflects the current org role, not the one minted into the
// token. Deactivated users are locked out even with a live token.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken(s.jwtSecret, token)
	if err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUser(ctx, claims.Subject)
	if err != nil {
		return Session{}, auth.ErrInvalidToken
	}
	if user.DeactivatedAt != nil {
		return Session{}, auth.ErrInvalidToken
	}
	return Session{
		UserID:   user.ID,
		UserName: user.DisplayName,
		OrgRole:  rbac.NormalizeOrg(user.OrgRole),
	}, nil
}

func targetFromChain(c store.Chain) authz.Target {
	return authz.Target{
		ProjectID:  c.ProjectID,
		OwnerID:    c.OwnerID,
		IsMember:   c.IsMember,
		MemberRole: rbac.NormalizeProject(c.MemberRole),
	}
}

// authorize maps a resolver denial to 403. Missing entities surface as 404
// before authorization runs, except that non-members probing a project they
// cannot see still receive 403, never entity details.
func authorize(session Session, chain store.Chain, action rbac.Action) error {
	decision := authz.Resolve(session.principal(), targetFromChain(chain), action)
	if !decision.Allowed {
		return domainError(http.StatusForbidden, decision.Reason)
	}
	return nil
}

func (s *Service) log(ctx context.Context, session Session, t activity.Type, scope activity.Scope, payload map[string]any) {
	s.audit.Append(ctx, t, session.UserID, session.UserName, scope, payload)
}

func (s *Service) notify(ctx context.Context, session Session, t activity.Type, scope activity.Scope, payload map[string]any) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Dispatch(ctx, events.Event{
		Type:      string(t),
		ActorID:   session.UserID,
		ProjectID: scope.ProjectID,
		BoardID:   scope.BoardID,
		ListID:    scope.ListID,
		CardID:    scope.CardID,
		Payload:   payload,
		At:        time.Now(),
	})
}

// record is the common tail of every accepted mutation: one audit entry,
// one event dispatch, same scope and payload.
func (s *Service) record(ctx context.Context, session Session, t activity.Type, scope activity.Scope, payload map[string]any) {
	s.log(ctx, session, t, scope, payload)
	s.notify(ctx, session, t, scope, payload)
}

func trimmed(v string) string { return strings.TrimSpace(v) }

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
