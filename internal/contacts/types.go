package contacts

import "time"

// TagRef is the tag payload carried on a contact row.
type TagRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Contact is a phone-number record that may receive broadcasts.
type Contact struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	Tags        []TagRef  `json:"tags"`
}

// CreateOutcome reports whether Create inserted a new contact or
// reactivated an inactive one with the same phone number.
type CreateOutcome struct {
	Contact     Contact `json:"contact"`
	Reactivated bool    `json:"reactivated"`
}

// DuplicatePreview is the dry-run result of a deduplication check.
// TotalDuplicates counts removable rows: sum of (occurrences - 1) per
// duplicated phone number.
type DuplicatePreview struct {
	PhoneNumbers    int `json:"phone_numbers"`
	TotalDuplicates int `json:"total_duplicates"`
}

// StatusFilter partitions contacts by is_active.
type StatusFilter string

// Status filter values.
const (
	StatusAll      StatusFilter = "all"
	StatusActive   StatusFilter = "active"
	StatusInactive StatusFilter = "inactive"
)

// SortField selects the contact ordering key.
type SortField string

// Sortable fields.
const (
	SortByPhone     SortField = "phone_number"
	SortByCreatedAt SortField = "created_at"
	SortByIsActive  SortField = "is_active"
)

// SortDirection is ascending or descending.
type SortDirection string

// Sort directions.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortConfig is the current ordering of the directory view.
type SortConfig struct {
	Field     SortField
	Direction SortDirection
}

// Toggle returns the ordering after selecting field: repeating the current
// field flips the direction, a new field resets to ascending.
func (c SortConfig) Toggle(field SortField) SortConfig {
	if c.Field == field && c.Direction == SortAsc {
		return SortConfig{Field: field, Direction: SortDesc}
	}
	return SortConfig{Field: field, Direction: SortAsc}
}
