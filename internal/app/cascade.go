package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"corkboard/api/internal/activity"
	"corkboard/api/internal/authz"
	"corkboard/api/internal/events"
	"corkboard/api/internal/rbac"
	"corkboard/api/internal/store"
)

// Lifecycle cascades. Each step is individually idempotent, so a cascade
// interrupted mid-way can be re-run from the top: already-completed steps
// match nothing and the remainder finishes the job. Deleting an entity that
// is already gone is a success, not an error.

// DeleteUser removes a user and unwinds every reference to them. Projects
// they own are handed to an active superadmin first, or archived when no
// superadmin is available; everything else is either detached (authorship
// marks become null) or removed (memberships, assignments, watches, their
// audit trail).
func (s *Service) DeleteUser(ctx context.Context, session Session, userID string) error {
	subject, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if decision := authz.CanManageUser(session.principal(), rbac.NormalizeOrg(subject.OrgRole)); !decision.Allowed {
		return domainError(http.StatusForbidden, decision.Reason)
	}
	if userID == session.UserID {
		return domainError(http.StatusBadRequest, "cannot delete own account")
	}

	// Ownership transfer first: every project must have a live owner before
	// the user row disappears.
	owned, err := s.store.ListOwnedProjectIDs(ctx, userID)
	if err != nil {
		return err
	}
	if len(owned) > 0 {
		recipient, err := s.store.FindActiveSuperAdmin(ctx, userID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			// Nobody can take them over. Archive each project and let the
			// cascade continue; the owner reference clears with the user row.
			for _, projectID := range owned {
				if err := s.store.SetProjectArchived(ctx, projectID, true); err != nil {
					return fmt.Errorf("cascade archive %s: %w", projectID, err)
				}
				s.log(ctx, session, activity.TypeProjectArchived, activity.Scope{ProjectID: projectID}, map[string]any{
					"reason": "owner deleted",
				})
			}
		case err != nil:
			return err
		default:
			for _, projectID := range owned {
				audience, _ := s.store.ProjectAudience(ctx, projectID)
				if err := s.store.TransferProjectOwnership(ctx, projectID, recipient.ID); err != nil {
					return fmt.Errorf("cascade transfer %s: %w", projectID, err)
				}
				s.log(ctx, session, activity.TypeProjectTransferred, activity.Scope{ProjectID: projectID}, map[string]any{
					"from":   userID,
					"to":     recipient.ID,
					"reason": "owner deleted",
				})
				if s.dispatcher != nil {
					audience = append(audience, recipient.ID)
					s.dispatcher.DispatchTo(ctx, events.Event{
						Type:      string(activity.TypeProjectTransferred),
						ActorID:   session.UserID,
						ProjectID: projectID,
						Payload:   map[string]any{"from": userID, "to": recipient.ID},
						At:        time.Now(),
					}, audience)
				}
			}
		}
	}

	steps := []struct {
		name string
		run  func(context.Context, string) error
	}{
		{"memberships", s.store.RemoveUserMemberships},
		{"member added_by", s.store.ClearMemberAddedBy},
		{"board created_by", s.store.ClearBoardCreatedBy},
		{"card assignments", s.store.RemoveCardAssignments},
		{"card watches", s.store.RemoveCardWatches},
		{"card user refs", s.store.ClearCardUserRefs},
		{"checklist completer", s.store.ClearChecklistCompleter},
		{"attachment uploader", s.store.ClearAttachmentUploader},
		{"comment author", s.store.ClearCommentAuthor},
		{"comment mentions", s.store.StripCommentMentions},
		{"time entry user", s.store.ClearTimeEntryUser},
		{"activity references", s.store.DeleteActivitiesReferencingUser},
	}
	for _, step := range steps {
		if err := step.run(ctx, userID); err != nil {
			return fmt.Errorf("cascade %s: %w", step.name, err)
		}
	}

	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("cascade delete user: %w", err)
	}

	s.log(ctx, session, activity.TypeUserDeleted, activity.Scope{}, map[string]any{
		"userId":      userID,
		"displayName": subject.DisplayName,
	})
	return nil
}

// DeleteProject removes a project and its whole subtree. Boards, lists,
// cards, and their sub-collections fall to the schema cascade; the project's
// audit trail is purged explicitly, and the record of the deletion itself
// lives on under the actor.
func (s *Service) DeleteProject(ctx context.Context, session Session, projectID string) error {
	chain, err := s.store.GetProjectChain(ctx, projectID, session.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := authorize(session, chain, rbac.ActionDelete); err != nil {
		return err
	}

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	audience, _ := s.store.ProjectAudience(ctx, projectID)

	if err := s.store.DeleteActivitiesByProject(ctx, projectID); err != nil {
		return fmt.Errorf("cascade project activities: %w", err)
	}
	if err := s.store.DeleteProject(ctx, projectID); err != nil {
		return fmt.Errorf("cascade delete project: %w", err)
	}
	s.search.DeleteProject(projectID)

	s.log(ctx, session, activity.TypeProjectDeleted, activity.Scope{}, map[string]any{
		"projectId": projectID,
		"name":      project.Name,
	})
	if s.dispatcher != nil {
		s.dispatcher.DispatchTo(ctx, events.Event{
			Type:      string(activity.TypeProjectDeleted),
			ActorID:   session.UserID,
			ProjectID: projectID,
			Payload:   map[string]any{"name": project.Name},
			At:        time.Now(),
		}, audience)
	}
	return nil
}
