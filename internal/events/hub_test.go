package events

import (
	"testing"
	"time"
)

func runHub(t *testing.T) (*Hub, chan struct{}) {
	t.Helper()
	h := NewHub()
	stopped := make(chan struct{})
	go func() {
		h.Run()
		close(stopped)
	}()
	return h, stopped
}

func TestDetachAfterShutdownDoesNotBlock(t *testing.T) {
	h, stopped := runHub(t)
	h.Close()
	<-stopped

	done := make(chan struct{})
	go func() {
		h.detach(&client{send: make(chan []byte, 1)})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("detach blocked after the hub shut down")
	}
}

func TestAttachAfterShutdownIsRejected(t *testing.T) {
	h, stopped := runHub(t)
	h.Close()
	<-stopped

	if h.attach(&client{send: make(chan []byte, 1)}) {
		t.Fatal("attach must fail once the hub has shut down")
	}
}

func TestDeliverReachesOnlyRecipients(t *testing.T) {
	h, stopped := runHub(t)
	defer func() {
		h.Close()
		<-stopped
	}()

	alice := &client{userID: "usr_alice", send: make(chan []byte, 1)}
	bob := &client{userID: "usr_bob", send: make(chan []byte, 1)}
	if !h.attach(alice) || !h.attach(bob) {
		t.Fatal("attach failed")
	}

	h.Deliver(Event{Type: "card_updated", ActorID: "usr_bob"}, []string{"usr_alice"})

	select {
	case <-alice.send:
	case <-time.After(time.Second):
		t.Fatal("recipient never received the event")
	}
	select {
	case msg := <-bob.send:
		t.Fatalf("non-recipient received %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}
