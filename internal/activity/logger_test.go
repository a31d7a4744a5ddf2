package activity

import (
	"context"
	"errors"
	"testing"
)

type recordingStore struct {
	records []Record
	err     error
}

func (s *recordingStore) InsertActivity(_ context.Context, rec Record) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func TestAppendRecordsOneEntry(t *testing.T) {
	store := &recordingStore{}
	logger := NewLogger(store)

	logger.Append(context.Background(), TypeCardDeleted, "usr_1", "Avery",
		Scope{ProjectID: "prj_1", BoardID: "brd_1", ListID: "lst_1", CardID: "crd_1"},
		map[string]any{"title": "Fix login"})

	if len(store.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(store.records))
	}
	rec := store.records[0]
	if rec.Type != TypeCardDeleted || rec.ActorID != "usr_1" || rec.CardID != "crd_1" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.CreatedAt.IsZero() {
		t.Fatal("CreatedAt not set")
	}
}

// A storage failure is swallowed: callers must never see logging errors.
func TestAppendSwallowsStoreErrors(t *testing.T) {
	store := &recordingStore{err: errors.New("storage unavailable")}
	logger := NewLogger(store)

	logger.Append(context.Background(), TypeProjectCreated, "usr_1", "Avery", Scope{ProjectID: "prj_1"}, nil)

	if len(store.records) != 0 {
		t.Fatal("nothing should be recorded on failure")
	}
}
