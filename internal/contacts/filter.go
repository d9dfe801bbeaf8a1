package contacts

import (
	"sort"
	"strings"

	"github.com/mursal-app/mursal/internal/phone"
)

// TagFilterState is the per-tag filter position.
type TagFilterState int

// Tag filter states. A tag is either ignored, required on every matching
// contact, or forbidden on every matching contact — never both.
const (
	TagNone TagFilterState = iota
	TagIncluded
	TagExcluded
)

// TagFilter maps tag id to its filter state. Storing one state per tag makes
// include/exclude mutually exclusive by construction.
type TagFilter map[string]TagFilterState

// Cycle advances a tag through none → included → excluded → none.
func (f TagFilter) Cycle(tagID string) {
	switch f[tagID] {
	case TagNone:
		f[tagID] = TagIncluded
	case TagIncluded:
		f[tagID] = TagExcluded
	default:
		delete(f, tagID)
	}
}

// Include marks a tag as required; selecting an already-included tag clears it.
func (f TagFilter) Include(tagID string) {
	if f[tagID] == TagIncluded {
		delete(f, tagID)
		return
	}
	f[tagID] = TagIncluded
}

// Exclude marks a tag as forbidden; selecting an already-excluded tag clears it.
func (f TagFilter) Exclude(tagID string) {
	if f[tagID] == TagExcluded {
		delete(f, tagID)
		return
	}
	f[tagID] = TagExcluded
}

// Included returns the ids of required tags.
func (f TagFilter) Included() []string {
	return f.withState(TagIncluded)
}

// Excluded returns the ids of forbidden tags.
func (f TagFilter) Excluded() []string {
	return f.withState(TagExcluded)
}

func (f TagFilter) withState(state TagFilterState) []string {
	ids := make([]string, 0, len(f))
	for id, s := range f {
		if s == state {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Filter returns the contacts matching a digit-substring search, a status
// partition, and a two-sided tag filter: a contact must carry every included
// tag and none of the excluded ones.
func Filter(contacts []Contact, query string, status StatusFilter, tagFilter TagFilter) []Contact {
	queryDigits := phone.Digits(query)
	included := tagFilter.Included()
	excluded := tagFilter.Excluded()

	matched := make([]Contact, 0, len(contacts))
	for _, contact := range contacts {
		if queryDigits != "" && !strings.Contains(contact.PhoneNumber, queryDigits) {
			continue
		}
		switch status {
		case StatusActive:
			if !contact.IsActive {
				continue
			}
		case StatusInactive:
			if contact.IsActive {
				continue
			}
		}
		if len(included) > 0 || len(excluded) > 0 {
			tagIDs := make(map[string]struct{}, len(contact.Tags))
			for _, tag := range contact.Tags {
				tagIDs[tag.ID] = struct{}{}
			}
			if !hasAll(tagIDs, included) || hasAny(tagIDs, excluded) {
				continue
			}
		}
		matched = append(matched, contact)
	}
	return matched
}

func hasAll(set map[string]struct{}, ids []string) bool {
	for _, id := range ids {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

func hasAny(set map[string]struct{}, ids []string) bool {
	for _, id := range ids {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

// Sort orders contacts by the given field and direction without mutating
// the input. Ties keep their relative order.
func Sort(contacts []Contact, cfg SortConfig) []Contact {
	ordered := make([]Contact, len(contacts))
	copy(ordered, contacts)

	direction := 1
	if cfg.Direction == SortDesc {
		direction = -1
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		var cmp int
		switch cfg.Field {
		case SortByPhone:
			cmp = strings.Compare(a.PhoneNumber, b.PhoneNumber)
		case SortByCreatedAt:
			switch {
			case a.CreatedAt.Before(b.CreatedAt):
				cmp = -1
			case a.CreatedAt.After(b.CreatedAt):
				cmp = 1
			}
		case SortByIsActive:
			cmp = boolToInt(a.IsActive) - boolToInt(b.IsActive)
		}
		return cmp*direction < 0
	})
	return ordered
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Paginate returns the requested 1-based page window. pageSize 0 means all.
func Paginate(contacts []Contact, page, pageSize int) []Contact {
	if pageSize <= 0 {
		return contacts
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(contacts) {
		return nil
	}
	end := start + pageSize
	if end > len(contacts) {
		end = len(contacts)
	}
	return contacts[start:end]
}
