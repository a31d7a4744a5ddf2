package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"regexp"
	"sort"
	"time"

	"corkboard/api/internal/activity"
	"corkboard/api/internal/authz"
	"corkboard/api/internal/blob"
	"corkboard/api/internal/rbac"
	"corkboard/api/internal/search"
	"corkboard/api/internal/store"
	"corkboard/api/internal/util"
)

// authorizeAny allows the action if any of the candidate actions resolve to
// allow. Card-level mutations accept either general write or the narrower
// update_tasks grant.
func authorizeAny(session Session, chain store.Chain, actions ...rbac.Action) error {
	var reason string
	for _, action := range actions {
		decision := authz.Resolve(session.principal(), targetFromChain(chain), action)
		if decision.Allowed {
			return nil
		}
		reason = decision.Reason
	}
	return domainError(http.StatusForbidden, reason)
}

type CardInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Position    *int       `json:"position"`
}

func (s *Service) ListCards(ctx context.Context, session Session, listID string) ([]store.Card, error) {
	chain, err := s.store.GetListChain(ctx, listID, session.UserID)
	if err != nil {
		return nil, err
	}
	if err := authorize(session, chain, rbac.ActionRead); err != nil {
		return nil, err
	}
	return s.store.ListCards(ctx, listID)
}

func (s *Service) CreateCard(ctx context.Context, session Session, listID string, in CardInput) (store.Card, error) {
	chain, err := s.store.GetListChain(ctx, listID, session.UserID)
	if err != nil {
		return store.Card{}, err
	}
	if err := authorizeAny(session, chain, rbac.ActionWrite, rbac.ActionUpdateTasks); err != nil {
		return store.Card{}, err
	}
	if trimmed(in.Title) == "" {
		return store.Card{}, validationError("invalid card", FieldError{Field: "title", Message: "title is required"})
	}

	release, err := s.locker.Acquire(ctx, "cards:"+listID)
	if err != nil {
		return store.Card{}, err
	}
	defer release()

	creator := session.UserID
	c := store.Card{
		ID:          util.NewID("crd"),
		ListID:      listID,
		Title:       trimmed(in.Title),
		Description: in.Description,
		DueDate:     in.DueDate,
		CreatedBy:   &creator,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	pos, err := s.store.CreateCard(ctx, c, in.Position)
	if err != nil {
		return store.Card{}, err
	}
	c.Position = pos

	scope := activity.Scope{ProjectID: chain.ProjectID, BoardID: chain.BoardID, ListID: listID, CardID: c.ID}
	s.record(ctx, session, activity.TypeCardCreated, scope, map[string]any{"title": c.Title, "position": pos})
	s.search.IndexCard(search.CardRecord{
		ID: c.ID, Title: c.Title, Description: c.Description,
		ProjectID: chain.ProjectID, BoardID: chain.BoardID, ListID: listID,
	})
	return c, nil
}

func (s *Service) GetCard(ctx context.Context, session Session, cardID string) (store.CardDetail, error) {
	chain, err := s.store.GetCardChain(ctx, cardID, session.UserID)
	if err != nil {
		return store.CardDetail{}, err
	}
	if err := authorize(session, chain, rbac.ActionRead); err != nil {
		return store.CardDetail{}, err
	}
	return s.store.GetCardDetail(ctx, cardID)
}

func (s *Service) UpdateCard(ctx context.Context, session Session, cardID string, in CardInput) (store.Card, error) {
	chain, err := s.store.GetCardChain(ctx, cardID, session.UserID)
	if err != nil {
		return store.Card{}, err
	}
	if err := authorizeAny(session, chain, rbac.ActionWrite, rbac.ActionUpdateTasks); err != nil {
		return store.Card{}, err
	}
	if trimmed(in.Title) == "" {
		return store.Card{}, validationError("invalid card", FieldError{Field: "title", Message: "title is required"})
	}

	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return store.Card{}, err
	}
	dueChanged := !equalTimePtr(card.DueDate, in.DueDate)
	card.Title = trimmed(in.Title)
	card.Description = in.Description
	card.DueDate = in.DueDate
	if err := s.store.UpdateCard(ctx, card); err != nil {
		return store.Card{}, err
	}

	scope := activity.Scope{ProjectID: chain.ProjectID, BoardID: chain.BoardID, ListID: chain.ListID, CardID: cardID}
	s.record(ctx, session, activity.TypeCardUpdated, scope, map[string]any{"title": card.Title})
	if dueChanged {
		payload := map[string]any{}
		if in.DueDate != nil {
			payload["dueDate"] = in.DueDate
		}
		s.record(ctx, session, activity.TypeCardDueDateChanged, scope, payload)
	}
	s.search.IndexCard(search.CardRecord{
		ID: card.ID, Title: card.Title, Description: card.Description,
		ProjectID: chain.ProjectID, BoardID: chain.BoardID, ListID: chain.ListID,
	})
	return card, nil
}

type MoveCardInput struct {
	ListID   string `json:"listId"`
	Position int    `json:"position"`
}

// MoveCard relocates a card within its list or across lists. Cross-list
// moves stay inside one project; both lists' sibling sequences are locked
// for the duration, in key order so two opposed movers cannot deadlock.
func (s *Service) MoveCard(ctx context.Context, session Session, cardID string, in MoveCardInput) (store.Card, error) {
	chain, err := s.store.GetCardChain(ctx, cardID, session.UserID)
	if err != nil {
		return store.Card{}, err
	}
	if err := authorizeAny(session, chain, rbac.ActionWrite, rbac.ActionUpdateTasks); err != nil {
		return store.Card{}, err
	}

	targetListID := in.ListID
	if targetListID == "" {
		targetListID = chain.ListID
	}
	if targetListID != chain.ListID {
		targetChain, err := s.store.GetListChain(ctx, targetListID, session.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return store.Card{}, validationError("invalid move",
					FieldError{Field: "listId", Message: "target list does not exist"})
			}
			return store.Card{}, err
		}
		if targetChain.ProjectID != chain.ProjectID {
			return store.Card{}, validationError("invalid move",
				FieldError{Field: "listId", Message: "target list is in another project"})
		}
		if err := authorizeAny(session, targetChain, rbac.ActionWrite, rbac.ActionUpdateTasks); err != nil {
			return store.Card{}, err
		}
	}

	keys := []string{"cards:" + chain.ListID}
	if targetListID != chain.ListID {
		keys = append(keys, "cards:"+targetListID)
		sort.Strings(keys)
	}
	for _, key := range keys {
		release, err := s.locker.Acquire(ctx, key)
		if err != nil {
			return store.Card{}, err
		}
		defer release()
	}

	final, err := s.store.MoveCard(ctx, cardID, targetListID, in.Position)
	if err != nil {
		return store.Card{}, err
	}

	scope := activity.Scope{ProjectID: chain.ProjectID, BoardID: chain.BoardID, ListID: targetListID, CardID: cardID}
	s.record(ctx, session, activity.TypeCardMoved, scope, map[string]any{
		"fromListId": chain.ListID,
		"toListId":   targetListID,
		"position":   final,
	})
	return s.store.GetCard(ctx, cardID)
}

func (s *Service) SetCardCompleted(ctx context.Context, session Session, cardID string, completed bool) error {
	chain, err := s.store.GetCardChain(ctx, cardID, session.UserID)
	if err != nil {
		return err
	}
	if err := authorizeAny(session, chain, rbac.ActionWrite, rbac.ActionUpdateTasks); err != nil {
		return err
	}
	if err := s.store.SetCardCompleted(ctx, cardID, completed, session.UserID); err != nil {
		return err
	}
	t := activity.TypeCardCompleted
	if !completed {
		t = activity.TypeCardReopened
	}
	s.record(ctx, session, t, cardScope(chain), nil)
	return nil
}

func (s *Service) SetCardArchived(ctx context.Context, session Session, cardID string, archived bool) error {
	chain, err := s.store.GetCardChain(ctx, cardID, session.UserID)
	if err != nil {
		return err
	}
	if err := authorizeAny(session, chain, rbac.ActionWrite, rbac.ActionUpdateTasks); err != nil {
		return err
	}
	if err := s.store.SetCardArchived(ctx, cardID, archived, session.UserID); err != nil {
		return err
	}
	t := activity.TypeCardArchived
	if !archived {
		t = activity.TypeCardUnarchived
	}
	s.record(ctx, session, t, cardScope(chain), nil)
	return nil
}

func (s *Service) DeleteCard(ctx context.Context, session Session, cardID string) error {
	chain, err := s.store.GetCardChain(ctx, cardID, session.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := authorize(session, chain, rbac.ActionDelete); err != nil {
		return err
	}

	release, err := s.locker.Acquire(ctx, "cards:"+chain.ListID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.store.DeleteCard(ctx, cardID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	s.search.DeleteCard(cardID)
	s.record(ctx, session, activity.TypeCardDeleted, cardScope(chain), nil)
	return nil
}

func cardScope(chain store.Chain) activity.Scope {
	return activity.Scope{
		ProjectID: chain.ProjectID,
		BoardID:   chain.BoardID,
		ListID:    chain.ListID,
		CardID:    chain.CardID,
	}
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// ---------------------------------------------------------------------------
// Assignment and watching

func (s *Service) AssignCard(ctx context.Context, session Session, cardID, userID string) error {
	chain, err := s.store.GetCardChain(ctx, cardID, session.UserID)
	if err != nil {
		return err
	}
	if err := authorizeAny(session, chain, rbac.ActionWrite, rbac.ActionUpdateTasks); err != nil {
		return err
	}
	// Assignees must be able to see the card.
	subjectChain, err := s.store.GetCardChain(ctx, cardID, userID)
	if err != nil {
		return err
	}
	subject, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return validationError("invalid assignment", FieldError{Field: "userId", Message: "user does not exist"})
		}
		return err
	}
	subjectSession := Session{UserID: subject.ID, UserName: subject.DisplayName, OrgRole: rbac.NormalizeOrg(subject.OrgRole)}
	if err := authorize(subjectSession, subjectChain, rbac.ActionRead); err != nil {
		return validationError("invalid assignment", FieldError{Field: "userId", Message: "user cannot access this card"})
	}

	if err := s.store.AssignCard(ctx, cardID, userID); err != nil {
		return err
	}
	s.record(ctx, session, activity.TypeCardAssigned, cardScope(chain), map[string]any{"userId": userID})
	return nil
}

func (s *Service) UnassignCard(ctx context.Context, session Session, cardID, userID string) error {
	chain, err := s.store.GetCardChain(ctx, cardID, session.UserID)
	if err != nil {
		return err
	}
	if err := authorizeAny(session, chain, rbac.ActionWrite, rbac.ActionUpdateTasks); err != nil {
		return err
	}
	if err := s.store.UnassignCard(ctx, cardID, userID); err != nil {
		return err
	}
	s.record(ctx, session, activity.TypeCardUnassigned, cardScope(chain), map[string]any{"userId": userID})
	return nil
}

// WatchCard subscribes the session user to the card's events. Watching only
// requires read access; anyone who can see the card may follow it.
func (s *Service) WatchCard(ctx context.Context, session Session, cardID string, watch bool) error {
	chain, err := s.store.GetCardChain(ctx, cardID, session.UserID)
	if err != nil {
		return err
	}
	if err := authorize(session, chain, rbac.ActionRead); err != nil {
		return err
	}
	var t activity.Type
	if watch {
		err = s.store.WatchCard(ctx, cardID, session.UserID)
		t = activity.TypeCardWatched
	} else {
		err = s.store.UnwatchCard(ctx, cardID, session.UserID)
		t = activity.TypeCardUnwatched
	}
	if err != nil {
		return err
	}
	s.log(ctx, session, t, cardScope(chain), nil)
	return nil
}

// SetCardLabels replaces the card's labels. Every label must belong to the
// card's own board.
func (s *Service) SetCardLabels(ctx context.Context, session Session, cardID string, labelIDs []string) error {
	chain, err := s.store.GetCardChain(ctx, cardID, session.UserID)
	if err != nil {
		return err
	}
	if err := authorizeAny(session, chain, rbac.ActionWrite, rbac.ActionUpdateTasks); err != nil {
		return err
	}
	for _, id := range labelIDs {
		label, err := s.store.GetLabel(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return validationError("invalid labels", FieldError{Field: "labelIds", Message: "unknown label " + id})
			}
			return err
		}
		if label.BoardID != chain.BoardID {
			return validationError("invalid labels", FieldError{Field: "labelIds", Message: "label belongs to another board"})
		}
	}
	if err := s.store.SetCardLabels(ctx, cardID, labelIDs); err != nil {
		return err
	}
	s.record(ctx, session, activity.TypeCardLabelsChanged, cardScope(chain), map[string]any{"labelIds": labelIDs})
	return nil
}

// ---------------------------------------------------------------------------
// Comments

type CommentInput struct {
	Text string `json:"text"`
}

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_\-]+)`)

// extractMentions pulls @id references out of comment text. Only IDs that
// resolve to real users survive into the stored mention list.
func (s *Service) extractMentions(ctx context.Context, text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool)
	var out []string
	for _, m := range matches {
		id := m[1]
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := s.store.GetUser(ctx, id); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func (s *Service) AddComment(ctx context.Context, session Session, cardID string, in CommentInput) (store.Comment, error) {
	chain, err := s.store.GetCardChain(ctx, cardID, session.UserID)
	if err != nil {
		return store.Comment{}, err
	}
	if err := authorizeAny(session, chain, rbac.ActionWrite, rbac.ActionUpdateTasks); err != nil {
		return store.Comment{}, err
	}
	if trimmed(in.Text) == "" {
		return store.Comment{}, validationError("invalid comment", FieldError{Field: "text", Message: "text is required"})
	}

	author := session.UserID
	c := store.Comment{
		ID:         util.NewID("cmt"),
		CardID:     cardID,
		AuthorID:   &author,
		Text:       in.Text,
		Mentions:   s.extractMentions(ctx, in.Text),
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
		AuthorName: session.UserName,
	}
	if err := s.store.InsertComment(ctx, c); err != nil {
		return store.Comment{}, err
	}
	s.record(ctx, session, activity.TypeCommentAdded, cardScope(chain), map[string]any{
		"commentId": c.ID,
		"mentions":  c.Mentions,
	})
	return c, nil
}

func (s *Service) EditComment(ctx context.Context, session Session, commentID string, in CommentInput) error {
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	chain, err := s.store.GetCardChain(ctx, comment.CardID, session.UserID)
	if err != nil {
		return err
	}
	// Authors edit their own comments; managers and above edit any.
	if comment.AuthorID == nil || *comment.AuthorID != session.UserID {
		if err := authorize(session, chain, rbac.ActionManageBoards); err != nil {
			return err
		}
	} else if err := authorize(session, chain, rbac.ActionRead); err != nil {
		return err
	}
	if trimmed(in.Text) == "" {
		return validationError("invalid comment", FieldError{Field: "text", Message: "text is required"})
	}

	mentions := s.extractMentions(ctx, in.Text)
	if err := s.store.UpdateComment(ctx, commentID, in.Text, mentions); err != nil {
		return err
	}
	s.record(ctx, session, activity.TypeCommentEdited, cardScope(chain), map[string]any{"commentId": commentID})
	return nil
}

func (s *Service) DeleteComment(ctx context.Context, session Session, commentID string) error {
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	chain, err := s.store.GetCardChain(ctx, comment.CardID, session.UserID)
	if err != nil {
		return err
	}
	if comment.AuthorID == nil || *comment.AuthorID != session.UserID {
		if err := authorize(session, chain, rbac.ActionManageBoards); err != nil {
			return err
		}
	} else if err := authorize(session, chain, rbac.ActionRead); err != nil {
		return err
	}
	if err := s.store.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	s.record(ctx, session, activity.TypeCommentDeleted, cardScope(chain), map[string]any{"commentId": commentID})
	return nil
}

// ---------------------------------------------------------------------------
// Attachments

type AttachmentInput struct {
	Filename string `json:"filename"`
}

type AttachmentUpload struct {
	Attachment store.Attachment `json:"attachment"`
	UploadURL  string           `json:"uploadUrl"`
}

// CreateAttachment registers metadata and returns a presigned upload URL.
// The API never touches the file bytes.
func (s *Service) CreateAttachment(ctx context.Context, session Session, cardID string, in AttachmentInput) (AttachmentUpload, error) {
	if s.blob == nil {
		return AttachmentUpload{}, domainError(http.StatusServiceUnavailable, "attachment storage not configured")
	}
	chain, err := s.store.GetCardChain(ctx, cardID, session.UserID)
	if err != nil {
		return AttachmentUpload{}, err
	}
	if err := authorizeAny(session, chain, rbac.ActionWrite, rbac.ActionUpdateTasks); err != nil {
		return AttachmentUpload{}, err
	}
	if trimmed(in.Filename) == "" {
		return AttachmentUpload{}, validationError("invalid attachment",
			FieldError{Field: "filename", Message: "filename is required"})
	}

	uploader := session.UserID
	a := store.Attachment{
		ID:         util.NewID("att"),
		CardID:     cardID,
		UploaderID: &uploader,
		Filename:   in.Filename,
		CreatedAt:  time.Now(),
	}
	a.ObjectKey = blob.ObjectKey(cardID, a.ID, in.Filename)

	uploadURL, err := s.blob.PresignUpload(ctx, a.ObjectKey)
	if err != nil {
		return AttachmentUpload{}, err
	}
	if err := s.store.InsertAttachment(ctx, a); err != nil {
		return AttachmentUpload{}, err
	}
	s.record(ctx, session, activity.TypeAttachmentAdded, cardScope(chain), map[string]any{
		"attachmentId": a.ID,
		"filename":     a.Filename,
	})
	return AttachmentUpload{Attachment: a, UploadURL: uploadURL}, nil
}

// AttachmentDownloadURL presigns a download for an existing attachment.
func (s *Service) AttachmentDownloadURL(ctx context.Context, session Session, attachmentID string) (string, error) {
	if s.blob == nil {
		return "", domainError(http.StatusServiceUnavailable, "attachment storage not configured")
	}
	a, err := s.store.GetAttachment(ctx, attachmentID)
	if err != nil {
		return "", err
	}
	chain, err := s.store.GetCardChain(ctx, a.CardID, session.UserID)
	if err != nil {
		return "", err
	}
	if err := authorize(session, chain, rbac.ActionRead); err != nil {
		return "", err
	}
	return s.blob.PresignDownload(ctx, a.ObjectKey, a.Filename)
}

func (s *Service) DeleteAttachment(ctx context.Context, session Session, attachmentID string) error {
	a, err := s.store.GetAttachment(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	chain, err := s.store.GetCardChain(ctx, a.CardID, session.UserID)
	if err != nil {
		return err
	}
	if a.UploaderID == nil || *a.UploaderID != session.UserID {
		if err := authorize(session, chain, rbac.ActionManageBoards); err != nil {
			return err
		}
	} else if err := authorize(session, chain, rbac.ActionRead); err != nil {
		return err
	}
	if err := s.store.DeleteAttachment(ctx, attachmentID); err != nil {
		return err
	}
	if s.blob != nil {
		// Metadata is gone; an orphaned object is cleanup, not a failure.
		if err := s.blob.Remove(ctx, a.ObjectKey); err != nil {
			log.Printf("attachment %s: remove object: %v", attachmentID, err)
		}
	}
	s.record(ctx, session, activity.TypeAttachmentDeleted, cardScope(chain), map[string]any{
		"attachmentId": attachmentID,
		"filename":     a.Filename,
	})
	return nil
}

// ---------------------------------------------------------------------------
// Checklist

type ChecklistInput struct {
	Text string `json:"text"`
}

func (s *Service) AddChecklistItem(ctx context.Context, session Session, cardID string, in ChecklistInput) (store.ChecklistItem, error) {
	chain, err := s.store.GetCardChain(ctx, cardID, session.UserID)
	if err != nil {
		return store.ChecklistItem{}, err
	}
	if err := authorizeAny(session, chain, rbac.ActionWrite, rbac.ActionUpdateTasks); err != nil {
		return store.ChecklistItem{}, err
	}
	if trimmed(in.Text) == "" {
		return store.ChecklistItem{}, validationError("invalid checklist item",
			FieldError{Field: "text", Message: "text is required"})
	}
	item := store.ChecklistItem{
		ID:        util.NewID("chk"),
		CardID:    cardID,
		Text:      in.Text,
		CreatedAt: time.Now(),
	}
	if err := s.store.InsertChecklistItem(ctx, item); err != nil {
		return store.ChecklistItem{}, err
	}
	s.record(ctx, session, activity.TypeChecklistItemAdded, cardScope(chain), map[string]any{"itemId": item.ID})
	return item, nil
}

func (s *Service) ToggleChecklistItem(ctx context.Context, session Session, itemID string, done bool) error {
	item, err := s.store.GetChecklistItem(ctx, itemID)
	if err != nil {
		return err
	}
	chain, err := s.store.GetCardChain(ctx, item.CardID, session.UserID)
	if err != nil {
		return err
	}
	if err := authorizeAny(session, chain, rbac.ActionWrite, rbac.ActionUpdateTasks); err != nil {
		return err
	}
	if err := s.store.ToggleChecklistItem(ctx, itemID, done, session.UserID); err != nil {
		return err
	}
	s.record(ctx, session, activity.TypeChecklistItemToggled, cardScope(chain), map[string]any{
		"itemId": itemID,
		"done":   done,
	})
	return nil
}

func (s *Service) DeleteChecklistItem(ctx context.Context, session Session, itemID string) error {
	item, err := s.store.GetChecklistItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	chain, err := s.store.GetCardChain(ctx, item.CardID, session.UserID)
	if err != nil {
		return err
	}
	if err := authorizeAny(session, chain, rbac.ActionWrite, rbac.ActionUpdateTasks); err != nil {
		return err
	}
	if err := s.store.DeleteChecklistItem(ctx, itemID); err != nil {
		return err
	}
	s.record(ctx, session, activity.TypeChecklistItemDeleted, cardScope(chain), map[string]any{"itemId": itemID})
	return nil
}

// ---------------------------------------------------------------------------
// Time tracking

type TimeEntryInput struct {
	Hours float64 `json:"hours"`
	Note  string  `json:"note"`
}

func (s *Service) LogTime(ctx context.Context, session Session, cardID string, in TimeEntryInput) (store.TimeEntry, error) {
	chain, err := s.store.GetCardChain(ctx, cardID, session.UserID)
	if err != nil {
		return store.TimeEntry{}, err
	}
	if err := authorizeAny(session, chain, rbac.ActionWrite, rbac.ActionUpdateTasks); err != nil {
		return store.TimeEntry{}, err
	}
	if in.Hours <= 0 || in.Hours > 24 {
		return store.TimeEntry{}, validationError("invalid time entry",
			FieldError{Field: "hours", Message: "hours must be in (0, 24]"})
	}
	userID := session.UserID
	e := store.TimeEntry{
		ID:        util.NewID("tme"),
		CardID:    cardID,
		UserID:    &userID,
		Hours:     in.Hours,
		Note:      in.Note,
		CreatedAt: time.Now(),
	}
	if err := s.store.InsertTimeEntry(ctx, e); err != nil {
		return store.TimeEntry{}, err
	}
	s.record(ctx, session, activity.TypeTimeLogged, cardScope(chain), map[string]any{"hours": in.Hours})
	return e, nil
}
