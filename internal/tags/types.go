package tags

// Tag is a label applied to contacts, with its current member count.
type Tag struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	ContactCount int64  `json:"contact_count"`
}
