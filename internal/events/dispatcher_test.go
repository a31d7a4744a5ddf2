package events

import (
	"context"
	"errors"
	"sort"
	"testing"
)

type fakeAudience struct {
	project   []string
	followers []string
	err       error
}

func (f *fakeAudience) ProjectAudience(ctx context.Context, projectID string) ([]string, error) {
	return f.project, f.err
}

func (f *fakeAudience) CardFollowers(ctx context.Context, cardID string) ([]string, error) {
	return f.followers, nil
}

type captureHub struct {
	events     []Event
	recipients [][]string
}

func (c *captureHub) Deliver(ev Event, recipients []string) {
	c.events = append(c.events, ev)
	c.recipients = append(c.recipients, recipients)
}

func sorted(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

func TestDispatchExcludesActor(t *testing.T) {
	hub := &captureHub{}
	d := NewDispatcher(hub, &fakeAudience{project: []string{"usr_owner", "usr_actor", "usr_dev"}})

	d.Dispatch(context.Background(), Event{
		Type:      "card_updated",
		ActorID:   "usr_actor",
		ProjectID: "prj_1",
	})

	if len(hub.recipients) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(hub.recipients))
	}
	got := sorted(hub.recipients[0])
	want := []string{"usr_dev", "usr_owner"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("recipients = %v, want %v", got, want)
	}
}

func TestDispatchOwnershipTransferIncludesActor(t *testing.T) {
	hub := &captureHub{}
	d := NewDispatcher(hub, &fakeAudience{project: []string{"usr_new_owner", "usr_dev"}})

	d.Dispatch(context.Background(), Event{
		Type:      "project_ownership_transferred",
		ActorID:   "usr_new_owner",
		ProjectID: "prj_1",
	})

	got := sorted(hub.recipients[0])
	if len(got) != 2 || got[0] != "usr_dev" || got[1] != "usr_new_owner" {
		t.Fatalf("recipients = %v, want actor included", got)
	}
}

func TestDispatchUnionsCardFollowers(t *testing.T) {
	hub := &captureHub{}
	d := NewDispatcher(hub, &fakeAudience{
		project:   []string{"usr_owner", "usr_member"},
		followers: []string{"usr_member", "usr_watcher"},
	})

	d.Dispatch(context.Background(), Event{
		Type:      "comment_added",
		ActorID:   "usr_outsider",
		ProjectID: "prj_1",
		CardID:    "crd_1",
	})

	got := sorted(hub.recipients[0])
	want := []string{"usr_member", "usr_owner", "usr_watcher"}
	if len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Fatalf("recipients = %v, want %v", got, want)
	}
}

func TestDispatchAudienceErrorDropsEvent(t *testing.T) {
	hub := &captureHub{}
	d := NewDispatcher(hub, &fakeAudience{err: errors.New("db down")})

	d.Dispatch(context.Background(), Event{
		Type:      "board_created",
		ActorID:   "usr_a",
		ProjectID: "prj_1",
	})

	if len(hub.events) != 0 {
		t.Fatalf("expected no delivery on audience failure, got %d", len(hub.events))
	}
}

func TestDispatchStampsTimestamp(t *testing.T) {
	hub := &captureHub{}
	d := NewDispatcher(hub, &fakeAudience{project: []string{"usr_b"}})

	d.Dispatch(context.Background(), Event{Type: "list_created", ActorID: "usr_a", ProjectID: "prj_1"})

	if hub.events[0].At.IsZero() {
		t.Fatal("expected At to be stamped")
	}
}
