// Package activity appends the immutable audit trail. Records are written
// once per accepted mutation and never updated; they disappear only when a
// cascade purges them alongside their owning project or user.
package activity

import (
	"context"
	"log"
	"time"
)

// Record is one audit entry. Scope fields are empty when the event is not
// attached to that level of the hierarchy. ActorName is denormalized so
// dashboards render without a user join, and survives actor deletion.
type Record struct {
	ID        int64          `json:"id"`
	Type      Type           `json:"type"`
	ActorID   string         `json:"actorId"`
	ActorName string         `json:"actorName"`
	ProjectID string         `json:"projectId,omitempty"`
	BoardID   string         `json:"boardId,omitempty"`
	ListID    string         `json:"listId,omitempty"`
	CardID    string         `json:"cardId,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Scope addresses where in the hierarchy an event happened.
type Scope struct {
	ProjectID string
	BoardID   string
	ListID    string
	CardID    string
}

type appender interface {
	InsertActivity(ctx context.Context, rec Record) error
}

type Logger struct {
	store appender
}

func NewLogger(store appender) *Logger {
	return &Logger{store: store}
}

// Append records one audit entry. The triggering mutation has already been
// committed by the time Append runs, so a storage failure here is reported
// and swallowed; it never propagates to the caller.
func (l *Logger) Append(ctx context.Context, t Type, actorID, actorName string, scope Scope, payload map[string]any) {
	rec := Record{
		Type:      t,
		ActorID:   actorID,
		ActorName: actorName,
		ProjectID: scope.ProjectID,
		BoardID:   scope.BoardID,
		ListID:    scope.ListID,
		CardID:    scope.CardID,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	if err := l.store.InsertActivity(ctx, rec); err != nil {
		log.Printf("activity: append %s failed: %v", t, err)
	}
}
