package events

import (
	"context"
	"log"
	"time"
)

// selfInclusive lists the event types delivered to the acting user as well.
// Ownership transfer is the only one: the new owner must learn of the grant
// even when they triggered the cascade that produced it.
var selfInclusive = map[string]bool{
	"project_ownership_transferred": true,
}

type audienceStore interface {
	ProjectAudience(ctx context.Context, projectID string) ([]string, error)
	CardFollowers(ctx context.Context, cardID string) ([]string, error)
}

type deliverer interface {
	Deliver(ev Event, recipients []string)
}

// Dispatcher computes each event's audience and hands it to the hub.
// Dispatch runs after the triggering mutation has committed and never
// reports failure to the caller.
type Dispatcher struct {
	hub   deliverer
	store audienceStore
}

func NewDispatcher(hub deliverer, store audienceStore) *Dispatcher {
	return &Dispatcher{hub: hub, store: store}
}

// DispatchTo delivers ev to an explicit recipient list, for events whose
// audience must be captured before the entity it derives from is deleted.
// The actor exclusion rule still applies.
func (d *Dispatcher) DispatchTo(ctx context.Context, ev Event, recipients []string) {
	if d == nil || d.hub == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	if !selfInclusive[ev.Type] {
		filtered := make([]string, 0, len(recipients))
		for _, id := range recipients {
			if id != ev.ActorID {
				filtered = append(filtered, id)
			}
		}
		recipients = filtered
	}
	d.hub.Deliver(ev, recipients)
}

// Dispatch resolves the audience for ev and queues delivery. The audience is
// the owning project's members and owner, widened with the card's assignees
// and watchers when the event is card-scoped, minus the actor unless the
// type is self-inclusive.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	if d == nil || d.hub == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	seen := make(map[string]bool)
	var recipients []string
	add := func(ids []string) {
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			recipients = append(recipients, id)
		}
	}

	if ev.ProjectID != "" {
		audience, err := d.store.ProjectAudience(ctx, ev.ProjectID)
		if err != nil {
			log.Printf("events: audience for %s: %v", ev.Type, err)
			return
		}
		add(audience)
	}
	if ev.CardID != "" {
		followers, err := d.store.CardFollowers(ctx, ev.CardID)
		if err != nil {
			log.Printf("events: followers for %s: %v", ev.Type, err)
		} else {
			add(followers)
		}
	}

	if !selfInclusive[ev.Type] && seen[ev.ActorID] {
		filtered := recipients[:0]
		for _, id := range recipients {
			if id != ev.ActorID {
				filtered = append(filtered, id)
			}
		}
		recipients = filtered
	}

	d.hub.Deliver(ev, recipients)
}
