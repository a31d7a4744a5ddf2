package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	"corkboard/api/internal/rbac"
	"corkboard/api/internal/store"
)

func TestCreateProjectClientForbidden(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeSink{})
	_, err := svc.CreateProject(context.Background(), sessionFor("usr_c", "Client", rbac.OrgClient), ProjectInput{Name: "Redesign"})
	if status := statusOf(t, err); status != http.StatusForbidden {
		t.Fatalf("expected 403 for client, got %d", status)
	}
}

func TestCreateProjectValidation(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeSink{})
	session := sessionFor("usr_e", "Emp", rbac.OrgEmployee)

	cases := []struct {
		name string
		in   ProjectInput
	}{
		{"empty name", ProjectInput{Name: "   "}},
		{"bad status", ProjectInput{Name: "P", Status: "paused"}},
		{"bad priority", ProjectInput{Name: "P", Priority: "critical"}},
		{"end before start", ProjectInput{Name: "P", StartDate: timePtr(time.Now()), EndDate: timePtr(time.Now().Add(-time.Hour))}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProject(context.Background(), session, tc.in)
			if status := statusOf(t, err); status != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", status)
			}
		})
	}
}

func TestCreateProjectDefaultsAndOwnership(t *testing.T) {
	var inserted store.Project
	fs := &fakeStore{
		insertProjectFn: func(_ context.Context, p store.Project) error {
			inserted = p
			return nil
		},
	}
	sink := &fakeSink{}
	svc := newTestService(fs, sink)

	session := sessionFor("usr_e", "Emp", rbac.OrgEmployee)
	p, err := svc.CreateProject(context.Background(), session, ProjectInput{Name: "  Redesign  "})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if p.Name != "Redesign" {
		t.Fatalf("expected trimmed name, got %q", p.Name)
	}
	if inserted.Status != "active" || inserted.Priority != "medium" {
		t.Fatalf("expected defaults active/medium, got %s/%s", inserted.Status, inserted.Priority)
	}
	if inserted.OwnerID == nil || *inserted.OwnerID != "usr_e" {
		t.Fatal("creator should own the project")
	}
	if len(sink.broadcast) != 1 || sink.broadcast[0].Type != "project_created" {
		t.Fatalf("expected one project_created event, got %+v", sink.broadcast)
	}
}

func TestGetProjectNonMemberForbidden(t *testing.T) {
	fs := &fakeStore{
		getProjectChainFn: func(_ context.Context, projectID, userID string) (store.Chain, error) {
			return store.Chain{ProjectID: projectID, OwnerID: "usr_other"}, nil
		},
	}
	svc := newTestService(fs, &fakeSink{})
	_, _, err := svc.GetProject(context.Background(), sessionFor("usr_e", "Emp", rbac.OrgEmployee), "prj_1")
	if status := statusOf(t, err); status != http.StatusForbidden {
		t.Fatalf("expected 403 for non-member, got %d", status)
	}
}

func TestGetProjectHRReadsWithoutMembership(t *testing.T) {
	fs := &fakeStore{
		getProjectChainFn: func(_ context.Context, projectID, userID string) (store.Chain, error) {
			return store.Chain{ProjectID: projectID, OwnerID: "usr_other"}, nil
		},
		getProjectFn: func(_ context.Context, projectID string) (store.Project, error) {
			return store.Project{ID: projectID, Name: "Visible"}, nil
		},
	}
	svc := newTestService(fs, &fakeSink{})
	p, _, err := svc.GetProject(context.Background(), sessionFor("usr_hr", "HR", rbac.OrgHR), "prj_1")
	if err != nil {
		t.Fatalf("HR read should succeed: %v", err)
	}
	if p.Name != "Visible" {
		t.Fatalf("unexpected project: %+v", p)
	}
}

func TestTransferProjectKeepsPreviousOwnerAsManager(t *testing.T) {
	var transferredTo string
	var addedMember store.ProjectMember
	fs := &fakeStore{
		getProjectChainFn: func(_ context.Context, projectID, userID string) (store.Chain, error) {
			return store.Chain{ProjectID: projectID, OwnerID: "usr_old"}, nil
		},
		getUserFn: func(_ context.Context, userID string) (store.User, error) {
			return store.User{ID: userID, DisplayName: "New Owner"}, nil
		},
		transferOwnershipFn: func(_ context.Context, projectID, newOwnerID string) error {
			transferredTo = newOwnerID
			return nil
		},
		addMemberFn: func(_ context.Context, m store.ProjectMember) error {
			addedMember = m
			return nil
		},
	}
	sink := &fakeSink{}
	svc := newTestService(fs, sink)

	session := sessionFor("usr_old", "Old Owner", rbac.OrgEmployee)
	if err := svc.TransferProject(context.Background(), session, "prj_1", "usr_new"); err != nil {
		t.Fatalf("TransferProject: %v", err)
	}
	if transferredTo != "usr_new" {
		t.Fatalf("ownership went to %q", transferredTo)
	}
	if addedMember.UserID != "usr_old" || addedMember.Role != string(rbac.ProjectManager) {
		t.Fatalf("previous owner should become a manager member, got %+v", addedMember)
	}
	if len(sink.broadcast) != 1 || sink.broadcast[0].Type != "project_ownership_transferred" {
		t.Fatalf("expected ownership event, got %+v", sink.broadcast)
	}
}

func TestTransferProjectToDeactivatedUser(t *testing.T) {
	now := time.Now()
	fs := &fakeStore{
		getProjectChainFn: func(_ context.Context, projectID, userID string) (store.Chain, error) {
			return store.Chain{ProjectID: projectID, OwnerID: "usr_old"}, nil
		},
		getUserFn: func(_ context.Context, userID string) (store.User, error) {
			return store.User{ID: userID, DeactivatedAt: &now}, nil
		},
	}
	svc := newTestService(fs, &fakeSink{})
	err := svc.TransferProject(context.Background(), sessionFor("usr_old", "Old", rbac.OrgEmployee), "prj_1", "usr_gone")
	if status := statusOf(t, err); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for deactivated recipient, got %d", status)
	}
}

func TestTransferProjectToCurrentOwnerIsNoop(t *testing.T) {
	transferCalled := false
	fs := &fakeStore{
		getProjectChainFn: func(_ context.Context, projectID, userID string) (store.Chain, error) {
			return store.Chain{ProjectID: projectID, OwnerID: "usr_old"}, nil
		},
		getUserFn: func(_ context.Context, userID string) (store.User, error) {
			return store.User{ID: userID}, nil
		},
		transferOwnershipFn: func(context.Context, string, string) error {
			transferCalled = true
			return nil
		},
	}
	svc := newTestService(fs, &fakeSink{})
	if err := svc.TransferProject(context.Background(), sessionFor("usr_old", "Old", rbac.OrgEmployee), "prj_1", "usr_old"); err != nil {
		t.Fatalf("no-op transfer should succeed: %v", err)
	}
	if transferCalled {
		t.Fatal("transfer to current owner should not hit the store")
	}
}

func TestAddMemberValidation(t *testing.T) {
	ownerChain := func(_ context.Context, projectID, userID string) (store.Chain, error) {
		return store.Chain{ProjectID: projectID, OwnerID: "usr_owner"}, nil
	}
	session := sessionFor("usr_owner", "Owner", rbac.OrgEmployee)

	t.Run("unknown role", func(t *testing.T) {
		svc := newTestService(&fakeStore{getProjectChainFn: ownerChain}, &fakeSink{})
		_, err := svc.AddMember(context.Background(), session, "prj_1", MemberInput{UserID: "usr_x", Role: "superuser"})
		if status := statusOf(t, err); status != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", status)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		svc := newTestService(&fakeStore{getProjectChainFn: ownerChain}, &fakeSink{})
		_, err := svc.AddMember(context.Background(), session, "prj_1", MemberInput{UserID: "usr_ghost", Role: "developer"})
		if status := statusOf(t, err); status != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", status)
		}
	})

	t.Run("owner as member", func(t *testing.T) {
		fs := &fakeStore{
			getProjectChainFn: ownerChain,
			getUserFn: func(_ context.Context, userID string) (store.User, error) {
				return store.User{ID: userID}, nil
			},
		}
		svc := newTestService(fs, &fakeSink{})
		_, err := svc.AddMember(context.Background(), session, "prj_1", MemberInput{UserID: "usr_owner", Role: "developer"})
		if status := statusOf(t, err); status != http.StatusConflict {
			t.Fatalf("expected 409, got %d", status)
		}
	})
}

func TestRemoveMemberSelfLeaveNeedsNoPermission(t *testing.T) {
	var removed string
	fs := &fakeStore{
		getProjectChainFn: func(_ context.Context, projectID, userID string) (store.Chain, error) {
			return store.Chain{ProjectID: projectID, OwnerID: "usr_owner", IsMember: true, MemberRole: "viewer"}, nil
		},
		removeMemberFn: func(_ context.Context, projectID, userID string) error {
			removed = userID
			return nil
		},
	}
	svc := newTestService(fs, &fakeSink{})

	session := sessionFor("usr_v", "Viewer", rbac.OrgEmployee)
	if err := svc.RemoveMember(context.Background(), session, "prj_1", "usr_v"); err != nil {
		t.Fatalf("self-leave should succeed: %v", err)
	}
	if removed != "usr_v" {
		t.Fatalf("removed %q", removed)
	}

	// Same viewer removing someone else is denied.
	err := svc.RemoveMember(context.Background(), session, "prj_1", "usr_other")
	if status := statusOf(t, err); status != http.StatusForbidden {
		t.Fatalf("expected 403 removing another member, got %d", status)
	}
}

func TestRemoveMemberNotAMember(t *testing.T) {
	fs := &fakeStore{
		getProjectChainFn: func(_ context.Context, projectID, userID string) (store.Chain, error) {
			return store.Chain{ProjectID: projectID, OwnerID: userID}, nil
		},
		removeMemberFn: func(context.Context, string, string) error {
			return store.ErrNotFound
		},
	}
	svc := newTestService(fs, &fakeSink{})

	err := svc.RemoveMember(context.Background(), sessionFor("usr_owner", "Owner", rbac.OrgEmployee), "prj_1", "usr_stranger")
	if status := statusOf(t, err); status != http.StatusBadRequest {
		t.Fatalf("expected 400 removing a non-member, got %d", status)
	}
}

func timePtr(t time.Time) *time.Time { return &t }
