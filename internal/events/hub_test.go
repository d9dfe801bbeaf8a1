package events

import (
	"testing"
	"time"
)

func TestHubPublishScopedByTable(t *testing.T) {
	hub := NewHub()
	_, contactStream, cancelContacts := hub.Subscribe([]string{TableContacts}, 8)
	defer cancelContacts()
	_, tagStream, cancelTags := hub.Subscribe([]string{TableTags}, 8)
	defer cancelTags()

	hub.Publish(TableContacts)

	select {
	case change := <-contactStream:
		if change.Table != TableContacts {
			t.Fatalf("expected contacts change, got %q", change.Table)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("expected change for contacts subscriber")
	}

	select {
	case <-tagStream:
		t.Fatalf("did not expect tags subscriber to receive contacts change")
	case <-time.After(120 * time.Millisecond):
	}
}

func TestHubMultiTableSubscription(t *testing.T) {
	hub := NewHub()
	_, stream, cancel := hub.Subscribe([]string{TableMessages, TableBroadcasts}, 8)
	defer cancel()

	hub.Publish(TableMessages)
	hub.Publish(TableBroadcasts)

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case change := <-stream:
			seen[change.Table] = true
		case <-time.After(200 * time.Millisecond):
			t.Fatalf("timed out waiting for change %d", i)
		}
	}
	if !seen[TableMessages] || !seen[TableBroadcasts] {
		t.Fatalf("expected changes for both tables, got %v", seen)
	}
}

func TestHubCancelUnsubscribe(t *testing.T) {
	hub := NewHub()
	_, stream, cancel := hub.Subscribe([]string{TableContacts}, 8)
	cancel()

	select {
	case _, ok := <-stream:
		if ok {
			t.Fatalf("expected stream to be closed after cancel")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timed out waiting for stream close")
	}
}

func TestHubSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := NewHub()
	_, stream, cancel := hub.Subscribe([]string{TableBroadcasts}, 1)
	defer cancel()

	hub.Publish(TableBroadcasts)
	hub.Publish(TableBroadcasts)
	hub.Publish(TableBroadcasts)

	select {
	case <-stream:
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("expected at least one change in buffer")
	}
}
