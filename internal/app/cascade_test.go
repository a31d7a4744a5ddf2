package app

import (
	"context"
	"net/http"
	"testing"

	"corkboard/api/internal/activity"
	"corkboard/api/internal/rbac"
	"corkboard/api/internal/store"
)

var cascadeOrder = []string{
	"memberships",
	"member added_by",
	"board created_by",
	"card assignments",
	"card watches",
	"card user refs",
	"checklist completer",
	"attachment uploader",
	"comment author",
	"comment mentions",
	"time entry user",
	"activity references",
}

func TestDeleteUserRunsEveryStepInOrder(t *testing.T) {
	var steps []string
	deleted := false
	fs := &fakeStore{
		getUserFn: func(_ context.Context, userID string) (store.User, error) {
			if deleted {
				return store.User{}, store.ErrNotFound
			}
			return store.User{ID: userID, DisplayName: "Gone Soon", OrgRole: "employee"}, nil
		},
		cascadeStepFn: func(step, userID string) error {
			steps = append(steps, step)
			return nil
		},
		deleteUserFn: func(_ context.Context, userID string) error {
			deleted = true
			return nil
		},
	}
	svc := newTestService(fs, &fakeSink{})

	admin := sessionFor("usr_admin", "Admin", rbac.OrgAdmin)
	if err := svc.DeleteUser(context.Background(), admin, "usr_gone"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if len(steps) != len(cascadeOrder) {
		t.Fatalf("expected %d steps, got %d: %v", len(cascadeOrder), len(steps), steps)
	}
	for i, want := range cascadeOrder {
		if steps[i] != want {
			t.Fatalf("step %d: expected %q, got %q", i, want, steps[i])
		}
	}
	if !deleted {
		t.Fatal("user row should be deleted")
	}
}

func TestDeleteUserIsIdempotent(t *testing.T) {
	var steps []string
	deleted := false
	fs := &fakeStore{
		getUserFn: func(_ context.Context, userID string) (store.User, error) {
			if deleted {
				return store.User{}, store.ErrNotFound
			}
			return store.User{ID: userID, OrgRole: "employee"}, nil
		},
		cascadeStepFn: func(step, userID string) error {
			steps = append(steps, step)
			return nil
		},
		deleteUserFn: func(context.Context, string) error {
			deleted = true
			return nil
		},
	}
	svc := newTestService(fs, &fakeSink{})

	admin := sessionFor("usr_admin", "Admin", rbac.OrgAdmin)
	if err := svc.DeleteUser(context.Background(), admin, "usr_gone"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := svc.DeleteUser(context.Background(), admin, "usr_gone"); err != nil {
		t.Fatalf("second delete should be a no-op success: %v", err)
	}
	if len(steps) != len(cascadeOrder) {
		t.Fatalf("second delete must not re-run steps; ran %d total", len(steps))
	}
}

func TestDeleteUserTransfersOwnedProjects(t *testing.T) {
	transfers := map[string]string{}
	fs := &fakeStore{
		getUserFn: func(_ context.Context, userID string) (store.User, error) {
			return store.User{ID: userID, OrgRole: "employee"}, nil
		},
		listOwnedProjectIDsFn: func(_ context.Context, userID string) ([]string, error) {
			return []string{"prj_1", "prj_2"}, nil
		},
		findActiveSuperAdminFn: func(_ context.Context, excludeID string) (store.User, error) {
			return store.User{ID: "usr_super", OrgRole: "superadmin"}, nil
		},
		projectAudienceFn: func(_ context.Context, projectID string) ([]string, error) {
			return []string{"usr_member"}, nil
		},
		transferOwnershipFn: func(_ context.Context, projectID, newOwnerID string) error {
			transfers[projectID] = newOwnerID
			return nil
		},
	}
	sink := &fakeSink{}
	svc := newTestService(fs, sink)

	admin := sessionFor("usr_admin", "Admin", rbac.OrgAdmin)
	if err := svc.DeleteUser(context.Background(), admin, "usr_gone"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if transfers["prj_1"] != "usr_super" || transfers["prj_2"] != "usr_super" {
		t.Fatalf("owned projects should go to the superadmin: %v", transfers)
	}
	if len(sink.targeted) != 2 {
		t.Fatalf("expected 2 targeted ownership events, got %d", len(sink.targeted))
	}
	// The new owner is notified even though delivery uses the pre-captured
	// audience of the old project.
	recipients := sink.targeted[0].recipients
	found := false
	for _, r := range recipients {
		if r == "usr_super" {
			found = true
		}
	}
	if !found {
		t.Fatalf("recipient usr_super missing from %v", recipients)
	}
}

func TestDeleteUserArchivesOwnedProjectsWithoutSuperAdmin(t *testing.T) {
	archived := map[string]bool{}
	transferred := false
	deleted := false
	fs := &fakeStore{
		getUserFn: func(_ context.Context, userID string) (store.User, error) {
			return store.User{ID: userID, OrgRole: "employee"}, nil
		},
		listOwnedProjectIDsFn: func(context.Context, string) ([]string, error) {
			return []string{"prj_1", "prj_2"}, nil
		},
		setProjectArchivedFn: func(_ context.Context, projectID string, flag bool) error {
			archived[projectID] = flag
			return nil
		},
		transferOwnershipFn: func(context.Context, string, string) error {
			transferred = true
			return nil
		},
		deleteUserFn: func(context.Context, string) error {
			deleted = true
			return nil
		},
	}
	svc := newTestService(fs, &fakeSink{})

	admin := sessionFor("usr_admin", "Admin", rbac.OrgAdmin)
	if err := svc.DeleteUser(context.Background(), admin, "usr_gone"); err != nil {
		t.Fatalf("DeleteUser without a superadmin should still succeed: %v", err)
	}
	if !archived["prj_1"] || !archived["prj_2"] {
		t.Fatalf("owned projects should be archived when no superadmin can take them: %v", archived)
	}
	if transferred {
		t.Fatal("ownership must not transfer when no superadmin is active")
	}
	if !deleted {
		t.Fatal("cascade must still delete the user row")
	}
}

func TestDeleteUserPermissions(t *testing.T) {
	subjectRole := "employee"
	fs := &fakeStore{
		getUserFn: func(_ context.Context, userID string) (store.User, error) {
			return store.User{ID: userID, OrgRole: subjectRole}, nil
		},
	}
	svc := newTestService(fs, &fakeSink{})
	ctx := context.Background()

	t.Run("employee cannot delete", func(t *testing.T) {
		err := svc.DeleteUser(ctx, sessionFor("usr_e", "Emp", rbac.OrgEmployee), "usr_x")
		if status := statusOf(t, err); status != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", status)
		}
	})

	t.Run("admin cannot delete superadmin", func(t *testing.T) {
		subjectRole = "superadmin"
		defer func() { subjectRole = "employee" }()
		err := svc.DeleteUser(ctx, sessionFor("usr_a", "Admin", rbac.OrgAdmin), "usr_s")
		if status := statusOf(t, err); status != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", status)
		}
	})

	t.Run("cannot delete self", func(t *testing.T) {
		err := svc.DeleteUser(ctx, sessionFor("usr_a", "Admin", rbac.OrgAdmin), "usr_a")
		if status := statusOf(t, err); status != http.StatusBadRequest {
			t.Fatalf("expected 400 deleting own account, got %d", status)
		}
	})
}

func TestDeleteProjectPurgesAuditAndNotifiesOldAudience(t *testing.T) {
	var purged, deleted string
	var logged []activity.Record
	fs := &fakeStore{
		getProjectChainFn: func(_ context.Context, projectID, userID string) (store.Chain, error) {
			return store.Chain{ProjectID: projectID, OwnerID: userID}, nil
		},
		getProjectFn: func(_ context.Context, projectID string) (store.Project, error) {
			return store.Project{ID: projectID, Name: "Doomed"}, nil
		},
		projectAudienceFn: func(context.Context, string) ([]string, error) {
			return []string{"usr_owner", "usr_member"}, nil
		},
		deleteActivitiesByProjectFn: func(_ context.Context, projectID string) error {
			purged = projectID
			return nil
		},
		deleteProjectFn: func(_ context.Context, projectID string) error {
			deleted = projectID
			return nil
		},
		insertActivityFn: func(_ context.Context, rec activity.Record) error {
			logged = append(logged, rec)
			return nil
		},
	}
	sink := &fakeSink{}
	svc := newTestService(fs, sink)

	owner := sessionFor("usr_owner", "Owner", rbac.OrgEmployee)
	if err := svc.DeleteProject(context.Background(), owner, "prj_1"); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if purged != "prj_1" || deleted != "prj_1" {
		t.Fatalf("purged=%q deleted=%q", purged, deleted)
	}
	if len(logged) != 1 || logged[0].Type != activity.TypeProjectDeleted {
		t.Fatalf("expected one project_deleted audit entry, got %+v", logged)
	}
	// The deletion record is scoped to the actor, not the dead project.
	if logged[0].ProjectID != "" {
		t.Fatalf("deletion audit entry must not reference the purged project scope, got %q", logged[0].ProjectID)
	}
	if len(sink.targeted) != 1 {
		t.Fatalf("expected one targeted event, got %d", len(sink.targeted))
	}
	if got := sink.targeted[0].recipients; len(got) != 2 {
		t.Fatalf("expected the pre-captured audience, got %v", got)
	}
}

func TestDeleteProjectAbsentIsSuccess(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeSink{})
	if err := svc.DeleteProject(context.Background(), sessionFor("usr_o", "O", rbac.OrgEmployee), "prj_missing"); err != nil {
		t.Fatalf("deleting an absent project should succeed: %v", err)
	}
}

func TestDeleteProjectViewerForbidden(t *testing.T) {
	fs := &fakeStore{
		getProjectChainFn: func(_ context.Context, projectID, userID string) (store.Chain, error) {
			return store.Chain{ProjectID: projectID, OwnerID: "usr_other", IsMember: true, MemberRole: "viewer"}, nil
		},
	}
	svc := newTestService(fs, &fakeSink{})
	err := svc.DeleteProject(context.Background(), sessionFor("usr_v", "V", rbac.OrgEmployee), "prj_1")
	if status := statusOf(t, err); status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
}
