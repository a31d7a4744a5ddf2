package app

import (
	"context"
	"net/http"
	"time"

	"corkboard/api/internal/activity"
	"corkboard/api/internal/rbac"
	"corkboard/api/internal/store"
	"corkboard/api/internal/util"
)

type BoardInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Service) ListBoards(ctx context.Context, session Session, projectID string) ([]store.Board, error) {
	chain, err := s.store.GetProjectChain(ctx, projectID, session.UserID)
	if err != nil {
		return nil, err
	}
	if err := authorize(session, chain, rbac.ActionRead); err != nil {
		return nil, err
	}
	return s.store.ListBoards(ctx, projectID)
}

func (s *Service) CreateBoard(ctx context.Context, session Session, projectID string, in BoardInput) (store.Board, error) {
	chain, err := s.store.GetProjectChain(ctx, projectID, session.UserID)
	if err != nil {
		return store.Board{}, err
	}
	if err := authorize(session, chain, rbac.ActionManageBoards); err != nil {
		return store.Board{}, err
	}
	if trimmed(in.Name) == "" {
		return store.Board{}, validationError("invalid board", FieldError{Field: "name", Message: "name is required"})
	}

	creator := session.UserID
	b := store.Board{
		ID:          util.NewID("brd"),
		ProjectID:   projectID,
		Name:        trimmed(in.Name),
		Description: in.Description,
		CreatedBy:   &creator,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.store.InsertBoard(ctx, b); err != nil {
		return store.Board{}, err
	}
	s.record(ctx, session, activity.TypeBoardCreated,
		activity.Scope{ProjectID: projectID, BoardID: b.ID}, map[string]any{"name": b.Name})
	return b, nil
}

// GetBoard returns the board with its lists and each list's cards, the full
// render payload for a board view.
func (s *Service) GetBoard(ctx context.Context, session Session, boardID string) (store.Board, []store.List, map[string][]store.Card, error) {
	chain, err := s.store.GetBoardChain(ctx, boardID, session.UserID)
	if err != nil {
		return store.Board{}, nil, nil, err
	}
	if err := authorize(session, chain, rbac.ActionRead); err != nil {
		return store.Board{}, nil, nil, err
	}
	b, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return store.Board{}, nil, nil, err
	}
	lists, err := s.store.ListLists(ctx, boardID)
	if err != nil {
		return store.Board{}, nil, nil, err
	}
	cardsByList := make(map[string][]store.Card, len(lists))
	for _, l := range lists {
		cards, err := s.store.ListCards(ctx, l.ID)
		if err != nil {
			return store.Board{}, nil, nil, err
		}
		cardsByList[l.ID] = cards
	}
	return b, lists, cardsByList, nil
}

func (s *Service) UpdateBoard(ctx context.Context, session Session, boardID string, in BoardInput) error {
	chain, err := s.store.GetBoardChain(ctx, boardID, session.UserID)
	if err != nil {
		return err
	}
	if err := authorize(session, chain, rbac.ActionManageBoards); err != nil {
		return err
	}
	if trimmed(in.Name) == "" {
		return validationError("invalid board", FieldError{Field: "name", Message: "name is required"})
	}
	if err := s.store.UpdateBoard(ctx, boardID, trimmed(in.Name), in.Description); err != nil {
		return err
	}
	s.record(ctx, session, activity.TypeBoardUpdated,
		activity.Scope{ProjectID: chain.ProjectID, BoardID: boardID}, map[string]any{"name": trimmed(in.Name)})
	return nil
}

func (s *Service) SetBoardArchived(ctx context.Context, session Session, boardID string, archived bool) error {
	chain, err := s.store.GetBoardChain(ctx, boardID, session.UserID)
	if err != nil {
		return err
	}
	if err := authorize(session, chain, rbac.ActionManageBoards); err != nil {
		return err
	}
	if err := s.store.SetBoardArchived(ctx, boardID, archived); err != nil {
		return err
	}
	t := activity.TypeBoardArchived
	if !archived {
		t = activity.TypeBoardUnarchived
	}
	s.record(ctx, session, t, activity.Scope{ProjectID: chain.ProjectID, BoardID: boardID}, nil)
	return nil
}

func (s *Service) DeleteBoard(ctx context.Context, session Session, boardID string) error {
	chain, err := s.store.GetBoardChain(ctx, boardID, session.UserID)
	if err != nil {
		return err
	}
	if err := authorize(session, chain, rbac.ActionManageBoards); err != nil {
		return err
	}
	if err := s.store.DeleteBoard(ctx, boardID); err != nil {
		return err
	}
	s.record(ctx, session, activity.TypeBoardDeleted,
		activity.Scope{ProjectID: chain.ProjectID, BoardID: boardID}, nil)
	return nil
}

// ---------------------------------------------------------------------------
// Labels

type LabelInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Service) ListLabels(ctx context.Context, session Session, boardID string) ([]store.Label, error) {
	chain, err := s.store.GetBoardChain(ctx, boardID, session.UserID)
	if err != nil {
		return nil, err
	}
	if err := authorize(session, chain, rbac.ActionRead); err != nil {
		return nil, err
	}
	return s.store.ListLabels(ctx, boardID)
}

func (s *Service) CreateLabel(ctx context.Context, session Session, boardID string, in LabelInput) (store.Label, error) {
	chain, err := s.store.GetBoardChain(ctx, boardID, session.UserID)
	if err != nil {
		return store.Label{}, err
	}
	if err := authorize(session, chain, rbac.ActionManageBoards); err != nil {
		return store.Label{}, err
	}
	if trimmed(in.Name) == "" {
		return store.Label{}, validationError("invalid label", FieldError{Field: "name", Message: "name is required"})
	}
	l := store.Label{
		ID:      util.NewID("lbl"),
		BoardID: boardID,
		Name:    trimmed(in.Name),
		Color:   defaultString(in.Color, "#cccccc"),
	}
	if err := s.store.InsertLabel(ctx, l); err != nil {
		if store.IsUniqueViolation(err) {
			return store.Label{}, domainError(http.StatusConflict, "label name already exists on this board")
		}
		return store.Label{}, err
	}
	s.record(ctx, session, activity.TypeBoardLabelsChanged,
		activity.Scope{ProjectID: chain.ProjectID, BoardID: boardID}, map[string]any{"added": l.Name})
	return l, nil
}

func (s *Service) UpdateLabel(ctx context.Context, session Session, labelID string, in LabelInput) error {
	label, err := s.store.GetLabel(ctx, labelID)
	if err != nil {
		return err
	}
	chain, err := s.store.GetBoardChain(ctx, label.BoardID, session.UserID)
	if err != nil {
		return err
	}
	if err := authorize(session, chain, rbac.ActionManageBoards); err != nil {
		return err
	}
	if trimmed(in.Name) == "" {
		return validationError("invalid label", FieldError{Field: "name", Message: "name is required"})
	}
	if err := s.store.UpdateLabel(ctx, labelID, trimmed(in.Name), defaultString(in.Color, label.Color)); err != nil {
		if store.IsUniqueViolation(err) {
			return domainError(http.StatusConflict, "label name already exists on this board")
		}
		return err
	}
	s.record(ctx, session, activity.TypeBoardLabelsChanged,
		activity.Scope{ProjectID: chain.ProjectID, BoardID: label.BoardID}, map[string]any{"renamed": trimmed(in.Name)})
	return nil
}

func (s *Service) DeleteLabel(ctx context.Context, session Session, labelID string) error {
	label, err := s.store.GetLabel(ctx, labelID)
	if err != nil {
		return err
	}
	chain, err := s.store.GetBoardChain(ctx, label.BoardID, session.UserID)
	if err != nil {
		return err
	}
	if err := authorize(session, chain, rbac.ActionManageBoards); err != nil {
		return err
	}
	if err := s.store.DeleteLabel(ctx, labelID); err != nil {
		return err
	}
	s.record(ctx, session, activity.TypeBoardLabelsChanged,
		activity.Scope{ProjectID: chain.ProjectID, BoardID: label.BoardID}, map[string]any{"removed": label.Name})
	return nil
}

// ---------------------------------------------------------------------------
// Lists

type ListInput struct {
	Name     string `json:"name"`
	Position *int   `json:"position"`
}

func (s *Service) CreateList(ctx context.Context, session Session, boardID string, in ListInput) (store.List, error) {
	chain, err := s.store.GetBoardChain(ctx, boardID, session.UserID)
	if err != nil {
		return store.List{}, err
	}
	if err := authorize(session, chain, rbac.ActionManageBoards); err != nil {
		return store.List{}, err
	}
	if trimmed(in.Name) == "" {
		return store.List{}, validationError("invalid list", FieldError{Field: "name", Message: "name is required"})
	}

	release, err := s.locker.Acquire(ctx, "lists:"+boardID)
	if err != nil {
		return store.List{}, err
	}
	defer release()

	l := store.List{
		ID:        util.NewID("lst"),
		BoardID:   boardID,
		Name:      trimmed(in.Name),
		CreatedAt: time.Now(),
	}
	pos, err := s.store.CreateList(ctx, l, in.Position)
	if err != nil {
		return store.List{}, err
	}
	l.Position = pos
	s.record(ctx, session, activity.TypeListCreated,
		activity.Scope{ProjectID: chain.ProjectID, BoardID: boardID, ListID: l.ID},
		map[string]any{"name": l.Name, "position": pos})
	return l, nil
}

// MoveList reorders a list within its board. Movers on the same board are
// serialized by the reorder lock; the clamped final position is returned.
func (s *Service) MoveList(ctx context.Context, session Session, listID string, requested int) (int, error) {
	chain, err := s.store.GetListChain(ctx, listID, session.UserID)
	if err != nil {
		return 0, err
	}
	if err := authorize(session, chain, rbac.ActionManageBoards); err != nil {
		return 0, err
	}

	release, err := s.locker.Acquire(ctx, "lists:"+chain.BoardID)
	if err != nil {
		return 0, err
	}
	defer release()

	final, err := s.store.MoveList(ctx, listID, requested)
	if err != nil {
		return 0, err
	}
	s.record(ctx, session, activity.TypeListMoved,
		activity.Scope{ProjectID: chain.ProjectID, BoardID: chain.BoardID, ListID: listID},
		map[string]any{"position": final})
	return final, nil
}

func (s *Service) RenameList(ctx context.Context, session Session, listID, name string) error {
	chain, err := s.store.GetListChain(ctx, listID, session.UserID)
	if err != nil {
		return err
	}
	if err := authorize(session, chain, rbac.ActionManageBoards); err != nil {
		return err
	}
	if trimmed(name) == "" {
		return validationError("invalid list", FieldError{Field: "name", Message: "name is required"})
	}
	if err := s.store.UpdateList(ctx, listID, trimmed(name)); err != nil {
		return err
	}
	s.record(ctx, session, activity.TypeListUpdated,
		activity.Scope{ProjectID: chain.ProjectID, BoardID: chain.BoardID, ListID: listID},
		map[string]any{"name": trimmed(name)})
	return nil
}

func (s *Service) SetListArchived(ctx context.Context, session Session, listID string, archived bool) error {
	chain, err := s.store.GetListChain(ctx, listID, session.UserID)
	if err != nil {
		return err
	}
	if err := authorize(session, chain, rbac.ActionManageBoards); err != nil {
		return err
	}
	if err := s.store.SetListArchived(ctx, listID, archived); err != nil {
		return err
	}
	s.record(ctx, session, activity.TypeListArchived,
		activity.Scope{ProjectID: chain.ProjectID, BoardID: chain.BoardID, ListID: listID},
		map[string]any{"archived": archived})
	return nil
}

func (s *Service) DeleteList(ctx context.Context, session Session, listID string) error {
	chain, err := s.store.GetListChain(ctx, listID, session.UserID)
	if err != nil {
		return err
	}
	if err := authorize(session, chain, rbac.ActionManageBoards); err != nil {
		return err
	}

	release, err := s.locker.Acquire(ctx, "lists:"+chain.BoardID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.store.DeleteList(ctx, listID); err != nil {
		return err
	}
	s.record(ctx, session, activity.TypeListDeleted,
		activity.Scope{ProjectID: chain.ProjectID, BoardID: chain.BoardID, ListID: listID}, nil)
	return nil
}
