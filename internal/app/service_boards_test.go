package app

import (
	"context"
	"net/http"
	"testing"

	"corkboard/api/internal/rbac"
	"corkboard/api/internal/store"
)

func memberBoardChain(role string) func(context.Context, string, string) (store.Chain, error) {
	return func(_ context.Context, boardID, userID string) (store.Chain, error) {
		return store.Chain{
			ProjectID:  "prj_1",
			BoardID:    boardID,
			OwnerID:    "usr_owner",
			IsMember:   true,
			MemberRole: role,
		}, nil
	}
}

func TestCreateBoardNeedsBoardManagement(t *testing.T) {
	projectChain := func(role string) func(context.Context, string, string) (store.Chain, error) {
		return func(_ context.Context, projectID, userID string) (store.Chain, error) {
			return store.Chain{ProjectID: projectID, OwnerID: "usr_owner", IsMember: true, MemberRole: role}, nil
		}
	}

	t.Run("developer denied", func(t *testing.T) {
		svc := newTestService(&fakeStore{getProjectChainFn: projectChain("developer")}, &fakeSink{})
		_, err := svc.CreateBoard(context.Background(), sessionFor("usr_d", "D", rbac.OrgEmployee), "prj_1", BoardInput{Name: "Sprint"})
		if status := statusOf(t, err); status != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", status)
		}
	})

	t.Run("manager allowed", func(t *testing.T) {
		var inserted store.Board
		fs := &fakeStore{
			getProjectChainFn: projectChain("manager"),
			insertBoardFn: func(_ context.Context, b store.Board) error {
				inserted = b
				return nil
			},
		}
		svc := newTestService(fs, &fakeSink{})
		b, err := svc.CreateBoard(context.Background(), sessionFor("usr_m", "M", rbac.OrgEmployee), "prj_1", BoardInput{Name: "Sprint"})
		if err != nil {
			t.Fatalf("CreateBoard: %v", err)
		}
		if inserted.ProjectID != "prj_1" || b.Name != "Sprint" {
			t.Fatalf("unexpected board: %+v", inserted)
		}
		if inserted.CreatedBy == nil || *inserted.CreatedBy != "usr_m" {
			t.Fatal("creator should be recorded")
		}
	})
}

func TestGetBoardAssemblesListsAndCards(t *testing.T) {
	fs := &fakeStore{
		getBoardChainFn: memberBoardChain("viewer"),
		getBoardFn: func(_ context.Context, boardID string) (store.Board, error) {
			return store.Board{ID: boardID, Name: "Sprint"}, nil
		},
		listListsFn: func(_ context.Context, boardID string) ([]store.List, error) {
			return []store.List{
				{ID: "lst_a", BoardID: boardID, Position: 0},
				{ID: "lst_b", BoardID: boardID, Position: 1},
			}, nil
		},
		listCardsFn: func(_ context.Context, listID string) ([]store.Card, error) {
			if listID == "lst_a" {
				return []store.Card{{ID: "crd_1", ListID: listID}}, nil
			}
			return nil, nil
		},
	}
	svc := newTestService(fs, &fakeSink{})

	b, lists, cards, err := svc.GetBoard(context.Background(), sessionFor("usr_v", "V", rbac.OrgEmployee), "brd_1")
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if b.Name != "Sprint" || len(lists) != 2 {
		t.Fatalf("board=%+v lists=%d", b, len(lists))
	}
	if len(cards["lst_a"]) != 1 || len(cards["lst_b"]) != 0 {
		t.Fatalf("unexpected card grouping: %v", cards)
	}
}

func TestCreateLabelDefaultColor(t *testing.T) {
	fs := &fakeStore{
		getBoardChainFn: memberBoardChain("manager"),
	}
	svc := newTestService(fs, &fakeSink{})

	l, err := svc.CreateLabel(context.Background(), sessionFor("usr_m", "M", rbac.OrgEmployee), "brd_1", LabelInput{Name: "bug"})
	if err != nil {
		t.Fatalf("CreateLabel: %v", err)
	}
	if l.Color != "#cccccc" {
		t.Fatalf("expected default color, got %q", l.Color)
	}
}

func TestMoveListReturnsClampedPosition(t *testing.T) {
	fs := &fakeStore{
		getListChainFn: func(_ context.Context, listID, userID string) (store.Chain, error) {
			return store.Chain{ProjectID: "prj_1", BoardID: "brd_1", ListID: listID, OwnerID: userID}, nil
		},
		moveListFn: func(_ context.Context, listID string, requested int) (int, error) {
			// Board has three lists; requested 99 clamps to the tail.
			if requested > 2 {
				return 2, nil
			}
			return requested, nil
		},
	}
	sink := &fakeSink{}
	svc := newTestService(fs, sink)

	final, err := svc.MoveList(context.Background(), sessionFor("usr_o", "O", rbac.OrgEmployee), "lst_1", 99)
	if err != nil {
		t.Fatalf("MoveList: %v", err)
	}
	if final != 2 {
		t.Fatalf("expected clamped position 2, got %d", final)
	}
	if len(sink.broadcast) != 1 || sink.broadcast[0].Type != "list_moved" {
		t.Fatalf("expected list_moved event, got %+v", sink.broadcast)
	}
}

func TestRenameListValidation(t *testing.T) {
	fs := &fakeStore{
		getListChainFn: func(_ context.Context, listID, userID string) (store.Chain, error) {
			return store.Chain{ProjectID: "prj_1", BoardID: "brd_1", ListID: listID, OwnerID: userID}, nil
		},
	}
	svc := newTestService(fs, &fakeSink{})
	err := svc.RenameList(context.Background(), sessionFor("usr_o", "O", rbac.OrgEmployee), "lst_1", "   ")
	if status := statusOf(t, err); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name, got %d", status)
	}
}
