package broadcasts

import "time"

// Message statuses.
const (
	StatusActive   = "active"
	StatusPaused   = "paused"
	StatusFinished = "finished"
)

// Delivery statuses.
const (
	DeliveryPending = "pending"
	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
)

// Targeting modes for a draft.
const (
	ModeAll  = "all"
	ModeTags = "tags"
)

// DefaultName is used when a draft is submitted without a name.
const DefaultName = "Untitled Broadcast"

// Counts aggregates delivery rows of a message by status.
type Counts struct {
	Pending int64 `json:"pending"`
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
}

// Message is a broadcast with its delivery counts.
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	ImageURL  string    `json:"image_url,omitempty"`
	Status    string    `json:"status"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Counts    Counts    `json:"counts"`
}

// Draft is a broadcast waiting to be submitted. ImageURL points at an
// already staged asset; Mode selects between every active contact and
// the intersection of the given tags.
type Draft struct {
	Name     string   `json:"name"`
	Message  string   `json:"message"`
	ImageURL string   `json:"image_url"`
	Mode     string   `json:"mode"`
	TagIDs   []string `json:"tag_ids"`
}

// Update carries a partial edit of a message; nil fields are left alone.
type Update struct {
	Name    *string `json:"name"`
	Message *string `json:"message"`
}
