package app

import (
	"context"
	"net/http"
	"testing"

	"corkboard/api/internal/activity"
	"corkboard/api/internal/rbac"
	"corkboard/api/internal/store"
)

func memberListChain(role string) func(context.Context, string, string) (store.Chain, error) {
	return func(_ context.Context, listID, userID string) (store.Chain, error) {
		return store.Chain{
			ProjectID:  "prj_1",
			BoardID:    "brd_1",
			ListID:     listID,
			OwnerID:    "usr_owner",
			IsMember:   true,
			MemberRole: role,
		}, nil
	}
}

func memberCardChain(role string) func(context.Context, string, string) (store.Chain, error) {
	return func(_ context.Context, cardID, userID string) (store.Chain, error) {
		return store.Chain{
			ProjectID:  "prj_1",
			BoardID:    "brd_1",
			ListID:     "lst_1",
			CardID:     cardID,
			OwnerID:    "usr_owner",
			IsMember:   true,
			MemberRole: role,
		}, nil
	}
}

func TestCreateCardRoleMatrix(t *testing.T) {
	cases := []struct {
		role    string
		allowed bool
	}{
		{"manager", true},
		{"developer", true},
		{"designer", true},
		{"tester", true},
		{"viewer", false},
		{"external_viewer", false},
	}
	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			fs := &fakeStore{
				getListChainFn: memberListChain(tc.role),
				createCardFn: func(_ context.Context, c store.Card, requested *int) (int, error) {
					return 0, nil
				},
			}
			svc := newTestService(fs, &fakeSink{})
			_, err := svc.CreateCard(context.Background(), sessionFor("usr_m", "M", rbac.OrgEmployee), "lst_1", CardInput{Title: "Task"})
			if tc.allowed && err != nil {
				t.Fatalf("%s should create cards: %v", tc.role, err)
			}
			if !tc.allowed {
				if status := statusOf(t, err); status != http.StatusForbidden {
					t.Fatalf("%s expected 403, got %d", tc.role, status)
				}
			}
		})
	}
}

func TestCreateCardRequiresTitle(t *testing.T) {
	fs := &fakeStore{getListChainFn: memberListChain("developer")}
	svc := newTestService(fs, &fakeSink{})
	_, err := svc.CreateCard(context.Background(), sessionFor("usr_d", "D", rbac.OrgEmployee), "lst_1", CardInput{Title: "  "})
	if status := statusOf(t, err); status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestMoveCardCrossProjectRejected(t *testing.T) {
	fs := &fakeStore{
		getCardChainFn: memberCardChain("developer"),
		getListChainFn: func(_ context.Context, listID, userID string) (store.Chain, error) {
			return store.Chain{ProjectID: "prj_other", ListID: listID, OwnerID: userID}, nil
		},
	}
	svc := newTestService(fs, &fakeSink{})
	_, err := svc.MoveCard(context.Background(), sessionFor("usr_d", "D", rbac.OrgEmployee), "crd_1", MoveCardInput{ListID: "lst_far", Position: 0})
	if status := statusOf(t, err); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for cross-project move, got %d", status)
	}
}

func TestMoveCardMissingTargetList(t *testing.T) {
	fs := &fakeStore{getCardChainFn: memberCardChain("developer")}
	svc := newTestService(fs, &fakeSink{})
	_, err := svc.MoveCard(context.Background(), sessionFor("usr_d", "D", rbac.OrgEmployee), "crd_1", MoveCardInput{ListID: "lst_ghost"})
	if status := statusOf(t, err); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing target list, got %d", status)
	}
}

func TestMoveCardSameListRecordsMove(t *testing.T) {
	fs := &fakeStore{
		getCardChainFn: memberCardChain("developer"),
		moveCardFn: func(_ context.Context, cardID, targetListID string, requested int) (int, error) {
			return 2, nil
		},
		getCardFn: func(_ context.Context, cardID string) (store.Card, error) {
			return store.Card{ID: cardID, ListID: "lst_1", Position: 2}, nil
		},
	}
	sink := &fakeSink{}
	svc := newTestService(fs, sink)

	card, err := svc.MoveCard(context.Background(), sessionFor("usr_d", "D", rbac.OrgEmployee), "crd_1", MoveCardInput{Position: 99})
	if err != nil {
		t.Fatalf("MoveCard: %v", err)
	}
	if card.Position != 2 {
		t.Fatalf("expected clamped position 2, got %d", card.Position)
	}
	if len(sink.broadcast) != 1 || sink.broadcast[0].Type != "card_moved" {
		t.Fatalf("expected one card_moved event, got %+v", sink.broadcast)
	}
	if got := sink.broadcast[0].Payload["position"]; got != 2 {
		t.Fatalf("event payload should carry the final position, got %v", got)
	}
}

func TestWatchCardIsAuditOnly(t *testing.T) {
	var logged []activity.Record
	fs := &fakeStore{
		getCardChainFn: memberCardChain("viewer"),
		insertActivityFn: func(_ context.Context, rec activity.Record) error {
			logged = append(logged, rec)
			return nil
		},
	}
	sink := &fakeSink{}
	svc := newTestService(fs, sink)

	if err := svc.WatchCard(context.Background(), sessionFor("usr_v", "V", rbac.OrgEmployee), "crd_1", true); err != nil {
		t.Fatalf("viewer should be able to watch: %v", err)
	}
	if len(logged) != 1 || logged[0].Type != activity.TypeCardWatched {
		t.Fatalf("expected one card_watched audit entry, got %+v", logged)
	}
	if len(sink.broadcast) != 0 {
		t.Fatalf("watching must not broadcast an event, got %+v", sink.broadcast)
	}
}

func TestAssignCardSubjectMustSeeCard(t *testing.T) {
	fs := &fakeStore{
		getCardChainFn: func(_ context.Context, cardID, userID string) (store.Chain, error) {
			if userID == "usr_outsider" {
				// Outsider resolves the chain but holds no membership.
				return store.Chain{ProjectID: "prj_1", CardID: cardID, OwnerID: "usr_owner"}, nil
			}
			return store.Chain{ProjectID: "prj_1", CardID: cardID, OwnerID: "usr_owner", IsMember: true, MemberRole: "developer"}, nil
		},
		getUserFn: func(_ context.Context, userID string) (store.User, error) {
			return store.User{ID: userID, OrgRole: "employee"}, nil
		},
	}
	svc := newTestService(fs, &fakeSink{})

	err := svc.AssignCard(context.Background(), sessionFor("usr_d", "D", rbac.OrgEmployee), "crd_1", "usr_outsider")
	if status := statusOf(t, err); status != http.StatusBadRequest {
		t.Fatalf("expected 400 assigning an outsider, got %d", status)
	}
}

func TestSetCardLabelsRejectsForeignBoard(t *testing.T) {
	fs := &fakeStore{
		getCardChainFn: memberCardChain("developer"),
		getLabelFn: func(_ context.Context, labelID string) (store.Label, error) {
			return store.Label{ID: labelID, BoardID: "brd_other"}, nil
		},
	}
	svc := newTestService(fs, &fakeSink{})
	err := svc.SetCardLabels(context.Background(), sessionFor("usr_d", "D", rbac.OrgEmployee), "crd_1", []string{"lbl_1"})
	if status := statusOf(t, err); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for label from another board, got %d", status)
	}
}

func TestAddCommentKeepsOnlyResolvingMentions(t *testing.T) {
	var inserted store.Comment
	fs := &fakeStore{
		getCardChainFn: memberCardChain("developer"),
		getUserFn: func(_ context.Context, userID string) (store.User, error) {
			if userID == "usr_real" {
				return store.User{ID: userID}, nil
			}
			return store.User{}, store.ErrNotFound
		},
		insertCommentFn: func(_ context.Context, c store.Comment) error {
			inserted = c
			return nil
		},
	}
	svc := newTestService(fs, &fakeSink{})

	_, err := svc.AddComment(context.Background(), sessionFor("usr_d", "D", rbac.OrgEmployee), "crd_1",
		CommentInput{Text: "ping @usr_real and @usr_ghost and @usr_real again"})
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if len(inserted.Mentions) != 1 || inserted.Mentions[0] != "usr_real" {
		t.Fatalf("expected deduped mentions of existing users only, got %v", inserted.Mentions)
	}
}

func TestEditCommentAuthorship(t *testing.T) {
	author := "usr_author"
	fs := &fakeStore{
		getCommentFn: func(_ context.Context, commentID string) (store.Comment, error) {
			return store.Comment{ID: commentID, CardID: "crd_1", AuthorID: &author}, nil
		},
		getCardChainFn: memberCardChain("developer"),
	}
	svc := newTestService(fs, &fakeSink{})
	ctx := context.Background()

	if err := svc.EditComment(ctx, sessionFor("usr_author", "A", rbac.OrgEmployee), "cmt_1", CommentInput{Text: "fixed"}); err != nil {
		t.Fatalf("author edit should succeed: %v", err)
	}

	// A developer who is not the author cannot edit.
	err := svc.EditComment(ctx, sessionFor("usr_other", "O", rbac.OrgEmployee), "cmt_1", CommentInput{Text: "hijack"})
	if status := statusOf(t, err); status != http.StatusForbidden {
		t.Fatalf("expected 403 for non-author developer, got %d", status)
	}
}

func TestLogTimeHoursBounds(t *testing.T) {
	fs := &fakeStore{getCardChainFn: memberCardChain("developer")}
	svc := newTestService(fs, &fakeSink{})
	session := sessionFor("usr_d", "D", rbac.OrgEmployee)
	ctx := context.Background()

	for _, hours := range []float64{0, -1, 24.5} {
		if _, err := svc.LogTime(ctx, session, "crd_1", TimeEntryInput{Hours: hours}); err == nil {
			t.Fatalf("hours=%v should be rejected", hours)
		}
	}
	if _, err := svc.LogTime(ctx, session, "crd_1", TimeEntryInput{Hours: 24}); err != nil {
		t.Fatalf("hours=24 should be accepted: %v", err)
	}
}

func TestCreateAttachmentWithoutStorage(t *testing.T) {
	svc := newTestService(&fakeStore{getCardChainFn: memberCardChain("developer")}, &fakeSink{})
	_, err := svc.CreateAttachment(context.Background(), sessionFor("usr_d", "D", rbac.OrgEmployee), "crd_1", AttachmentInput{Filename: "spec.pdf"})
	if status := statusOf(t, err); status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when blob storage is not configured, got %d", status)
	}
}

func TestDeleteCardAbsentIsSuccess(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeSink{})
	if err := svc.DeleteCard(context.Background(), sessionFor("usr_d", "D", rbac.OrgEmployee), "crd_missing"); err != nil {
		t.Fatalf("deleting an absent card should succeed: %v", err)
	}
}
