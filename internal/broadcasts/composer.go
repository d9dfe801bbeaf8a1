package broadcasts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mursal-app/mursal/internal/db"
	"github.com/mursal-app/mursal/internal/events"
)

// ResolveTargets returns the contact IDs a draft would reach. ModeAll
// targets every active contact; ModeTags keeps only active contacts
// carrying every selected tag.
func (s *Service) ResolveTargets(ctx context.Context, draft Draft) ([]string, error) {
	active, err := s.source.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active contacts: %w", err)
	}
	activeIDs := make([]string, 0, len(active))
	for _, contact := range active {
		activeIDs = append(activeIDs, contact.ID)
	}

	if draft.Mode != ModeTags {
		return activeIDs, nil
	}
	if len(draft.TagIDs) == 0 {
		return nil, ErrNoTagsSelected
	}

	tagged, err := s.contactsWithAllTags(ctx, draft.TagIDs, targetPageSize)
	if err != nil {
		return nil, err
	}
	targets := make([]string, 0, len(activeIDs))
	for _, id := range activeIDs {
		if _, ok := tagged[id]; ok {
			targets = append(targets, id)
		}
	}
	return targets, nil
}

// contactsWithAllTags pages through the membership rows for the selected
// tags and keeps contacts whose row count matches the tag count. Pages
// are ordered by (contact_id, tag_id) so a contact whose rows straddle a
// page boundary is neither skipped nor counted twice.
func (s *Service) contactsWithAllTags(ctx context.Context, tagIDs []string, pageSize int) (map[string]struct{}, error) {
	tags, err := db.ParseUUIDs(tagIDs)
	if err != nil {
		return nil, fmt.Errorf("parse tag ids: %w", err)
	}

	occurrences := make(map[string]int)
	for offset := 0; ; offset += pageSize {
		rows, err := s.pool.Query(ctx,
			`SELECT contact_id FROM contact_tags
			 WHERE tag_id = ANY($1)
			 ORDER BY contact_id, tag_id
			 LIMIT $2 OFFSET $3`,
			tags, pageSize, offset,
		)
		if err != nil {
			return nil, fmt.Errorf("load tag memberships at offset %d: %w", offset, err)
		}
		fetched := 0
		for rows.Next() {
			var contactID pgtype.UUID
			if err := rows.Scan(&contactID); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan membership: %w", err)
			}
			occurrences[db.UUIDToString(contactID)]++
			fetched++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("load tag memberships: %w", err)
		}
		if fetched < pageSize {
			break
		}
	}
	return matchingAll(occurrences, len(tagIDs)), nil
}

// matchingAll keeps the contacts whose membership count equals need.
func matchingAll(occurrences map[string]int, need int) map[string]struct{} {
	matched := make(map[string]struct{})
	for id, count := range occurrences {
		if count == need {
			matched[id] = struct{}{}
		}
	}
	return matched
}

// Submit persists the draft as a message and fans deliveries out in
// sequential batches. progress, when non-nil, is called after each batch
// with the completed batch count and the total batch count. A batch
// failure stops the fan-out and surfaces a PartialBatchError; earlier
// rows stay.
func (s *Service) Submit(ctx context.Context, draft Draft, userID string, progress func(completed, total int)) (Message, error) {
	if strings.TrimSpace(draft.Message) == "" {
		return Message{}, ErrEmptyMessage
	}
	targets, err := s.ResolveTargets(ctx, draft)
	if err != nil {
		return Message{}, err
	}
	if len(targets) == 0 {
		return Message{}, ErrNoRecipients
	}

	name := strings.TrimSpace(draft.Name)
	if name == "" {
		name = DefaultName
	}
	owner, err := db.ParseUUID(userID)
	if err != nil {
		return Message{}, fmt.Errorf("parse user id: %w", err)
	}

	var imageURL *string
	if url := strings.TrimSpace(draft.ImageURL); url != "" {
		imageURL = &url
	}

	var (
		id      pgtype.UUID
		created pgtype.Timestamptz
	)
	err = s.pool.QueryRow(ctx,
		`INSERT INTO messages (name, message, image_url, status, user_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		name, draft.Message, imageURL, StatusActive, owner,
	).Scan(&id, &created)
	if err != nil {
		return Message{}, fmt.Errorf("create message: %w", err)
	}

	message := Message{
		ID:        db.UUIDToString(id),
		Name:      name,
		Message:   draft.Message,
		ImageURL:  strings.TrimSpace(draft.ImageURL),
		Status:    StatusActive,
		UserID:    userID,
		CreatedAt: db.TimeFromPg(created),
		Counts:    Counts{Pending: int64(len(targets))},
	}

	total := len(targets)
	inserted, err := runBatches(targets, deliveryBatchSize, func(batch []string) error {
		contactIDs, err := db.ParseUUIDs(batch)
		if err != nil {
			return err
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO broadcasts (message_id, contact_id, status)
			 SELECT $1, unnest($2::uuid[]), $3`,
			id, contactIDs, DeliveryPending,
		)
		return err
	}, progress)
	if err != nil {
		s.logger.Error("delivery batch failed",
			slog.String("message_id", message.ID),
			slog.Int("inserted", inserted),
			slog.Int("total", total),
			slog.Any("error", err),
		)
		s.publish(events.TableMessages)
		return message, &PartialBatchError{MessageID: message.ID, Inserted: inserted, Total: total, Err: err}
	}

	s.logger.Info("broadcast submitted",
		slog.String("message_id", message.ID),
		slog.Int("recipients", total),
	)
	s.publish(events.TableMessages)
	s.publish(events.TableBroadcasts)
	return message, nil
}

// runBatches feeds each batch of ids to fn in order, reporting progress
// as completed batches out of the total batch count. It returns how many
// ids the successful batches covered and the first error, if any.
func runBatches(ids []string, size int, fn func(batch []string) error, progress func(completed, total int)) (int, error) {
	batches := partitionBatches(ids, size)
	inserted := 0
	for i, batch := range batches {
		if err := fn(batch); err != nil {
			return inserted, err
		}
		inserted += len(batch)
		if progress != nil {
			progress(i+1, len(batches))
		}
	}
	return inserted, nil
}

// partitionBatches splits ids into consecutive slices of at most size.
func partitionBatches(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
