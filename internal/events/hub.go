// Package events provides an in-memory hub for table change notifications.
package events

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultBufferSize is the default per-subscriber channel buffer.
	DefaultBufferSize = 64
)

// Table names whose changes are published on the hub.
const (
	TableContacts   = "contacts"
	TableTags       = "tags"
	TableMessages   = "messages"
	TableBroadcasts = "broadcasts"
)

// Change is a coarse "something changed" notification for one table.
// It intentionally carries no row diff: consumers reload.
type Change struct {
	Table      string    `json:"table"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher publishes table changes to subscribers.
type Publisher interface {
	Publish(table string)
}

// Subscriber subscribes to table-scoped change notifications.
type Subscriber interface {
	Subscribe(tables []string, buffer int) (string, <-chan Change, func())
}

// Hub is an in-process pub/sub dispatcher for table change notifications.
type Hub struct {
	mu      sync.RWMutex
	streams map[string]map[string]chan Change
}

// NewHub creates an empty change hub.
func NewHub() *Hub {
	return &Hub{
		streams: map[string]map[string]chan Change{},
	}
}

// Publish broadcasts one change to all subscribers of the given table.
// Slow subscribers are dropped in a non-blocking way.
func (h *Hub) Publish(table string) {
	if h == nil {
		return
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return
	}
	change := Change{Table: table, OccurredAt: time.Now().UTC()}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.streams[table] {
		select {
		case ch <- change:
		default:
			// Drop if receiver is slow to avoid blocking the write path.
		}
	}
}

// Subscribe registers one subscriber for the given tables. A single channel
// receives changes from all of them. It returns a stream ID, a read-only
// channel, and a cancel function.
func (h *Hub) Subscribe(tables []string, buffer int) (string, <-chan Change, func()) {
	cleaned := make([]string, 0, len(tables))
	for _, table := range tables {
		if trimmed := strings.TrimSpace(table); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if h == nil || len(cleaned) == 0 {
		ch := make(chan Change)
		close(ch)
		return "", ch, func() {}
	}
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}

	streamID := uuid.NewString()
	ch := make(chan Change, buffer)

	h.mu.Lock()
	for _, table := range cleaned {
		streams, ok := h.streams[table]
		if !ok {
			streams = map[string]chan Change{}
			h.streams[table] = streams
		}
		streams[streamID] = ch
	}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			for _, table := range cleaned {
				streams := h.streams[table]
				if streams == nil {
					continue
				}
				delete(streams, streamID)
				if len(streams) == 0 {
					delete(h.streams, table)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}

	return streamID, ch, cancel
}
