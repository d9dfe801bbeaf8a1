// Package contacts provides the contact directory: load, filter, mutate, dedup.
package contacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mursal-app/mursal/internal/db"
	"github.com/mursal-app/mursal/internal/events"
	"github.com/mursal-app/mursal/internal/phone"
)

const (
	// pageSize is the chunk size for paging through the full contact set.
	pageSize = 1000
	// fetchAttempts bounds each paged fetch: one try plus retries.
	fetchAttempts = 4
	// fetchRetryDelay is the fixed wait between fetch attempts.
	fetchRetryDelay = time.Second
)

// Errors returned by contact operations.
var (
	ErrInvalidPhone  = errors.New("invalid Saudi mobile number")
	ErrContactExists = errors.New("phone number already exists")
	ErrNotFound      = errors.New("contact not found")
)

// Service provides contact directory operations.
type Service struct {
	pool      *pgxpool.Pool
	publisher events.Publisher
	logger    *slog.Logger
}

// NewService creates a contacts service.
func NewService(log *slog.Logger, pool *pgxpool.Pool, publisher events.Publisher) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:      pool,
		publisher: publisher,
		logger:    log.With(slog.String("service", "contacts")),
	}
}

// ListAll loads every contact with its tags, paging through the store in
// fixed-size chunks because a single fetch is capacity-bounded. Each page
// fetch is retried with a fixed delay; a failed full load is retried once
// more before the error propagates.
func (s *Service) ListAll(ctx context.Context) ([]Contact, error) {
	if s.pool == nil {
		return nil, errors.New("contacts pool not configured")
	}
	contacts, err := s.loadAll(ctx)
	if err == nil {
		return contacts, nil
	}
	s.logger.Warn("contact load failed, retrying", slog.Any("error", err))
	if err := sleepCtx(ctx, fetchRetryDelay); err != nil {
		return nil, err
	}
	return s.loadAll(ctx)
}

// ListActive returns active contacts only, paged the same way as ListAll.
func (s *Service) ListActive(ctx context.Context) ([]Contact, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]Contact, 0, len(all))
	for _, contact := range all {
		if contact.IsActive {
			active = append(active, contact)
		}
	}
	return active, nil
}

func (s *Service) loadAll(ctx context.Context) ([]Contact, error) {
	var all []Contact
	for offset := 0; ; offset += pageSize {
		var page []Contact
		err := withRetry(ctx, fetchAttempts, fetchRetryDelay, func() error {
			var fetchErr error
			page, fetchErr = s.fetchPage(ctx, offset, pageSize)
			return fetchErr
		})
		if err != nil {
			return nil, fmt.Errorf("load contacts page at offset %d: %w", offset, err)
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

func (s *Service) fetchPage(ctx context.Context, offset, limit int) ([]Contact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.id, c.phone_number, c.is_active, c.created_at,
		        COALESCE(
		            json_agg(json_build_object('id', t.id, 'name', t.name, 'color', t.color))
		                FILTER (WHERE t.id IS NOT NULL),
		            '[]'
		        )
		 FROM contacts c
		 LEFT JOIN contact_tags ct ON ct.contact_id = c.id
		 LEFT JOIN tags t ON t.id = ct.tag_id
		 GROUP BY c.id
		 ORDER BY c.created_at DESC, c.id DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var page []Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		page = append(page, contact)
	}
	return page, rows.Err()
}

// Create normalizes and inserts a new contact. Re-adding a known but
// inactive number reactivates that contact instead of erroring; an active
// duplicate yields ErrContactExists.
func (s *Service) Create(ctx context.Context, rawPhone, userID string) (CreateOutcome, error) {
	if s.pool == nil {
		return CreateOutcome{}, errors.New("contacts pool not configured")
	}
	normalized, ok := phone.Normalize(rawPhone)
	if !ok {
		return CreateOutcome{}, ErrInvalidPhone
	}

	var ownerID any
	if userID != "" {
		pgUserID, err := db.ParseUUID(userID)
		if err != nil {
			return CreateOutcome{}, err
		}
		ownerID = pgUserID
	}

	var (
		id        pgtype.UUID
		createdAt pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx,
		`INSERT INTO contacts (phone_number, user_id) VALUES ($1, $2)
		 RETURNING id, created_at`, normalized, ownerID,
	).Scan(&id, &createdAt)
	if err == nil {
		s.publish()
		return CreateOutcome{Contact: Contact{
			ID:          db.UUIDToString(id),
			PhoneNumber: normalized,
			IsActive:    true,
			CreatedAt:   db.TimeFromPg(createdAt),
			Tags:        []TagRef{},
		}}, nil
	}
	if !db.IsUniqueViolation(err) {
		return CreateOutcome{}, fmt.Errorf("create contact: %w", err)
	}

	// Unique violation: reactivate if the existing row is inactive.
	var (
		existingID pgtype.UUID
		isActive   bool
	)
	lookupErr := s.pool.QueryRow(ctx,
		`SELECT id, is_active FROM contacts WHERE phone_number = $1`, normalized,
	).Scan(&existingID, &isActive)
	if lookupErr != nil {
		return CreateOutcome{}, fmt.Errorf("lookup existing contact: %w", lookupErr)
	}
	if isActive {
		return CreateOutcome{}, ErrContactExists
	}
	if _, err := s.pool.Exec(ctx,
		`UPDATE contacts SET is_active = TRUE WHERE id = $1`, existingID); err != nil {
		return CreateOutcome{}, fmt.Errorf("reactivate contact: %w", err)
	}
	s.publish()
	return CreateOutcome{
		Contact: Contact{
			ID:          db.UUIDToString(existingID),
			PhoneNumber: normalized,
			IsActive:    true,
			Tags:        []TagRef{},
		},
		Reactivated: true,
	}, nil
}

// SetActive flips the is_active flag on one contact.
func (s *Service) SetActive(ctx context.Context, contactID string, active bool) error {
	return s.execOne(ctx, `UPDATE contacts SET is_active = $2 WHERE id = $1`, contactID, active)
}

// Delete hard-deletes one contact; join and delivery rows cascade.
func (s *Service) Delete(ctx context.Context, contactID string) error {
	return s.execOne(ctx, `DELETE FROM contacts WHERE id = $1`, contactID)
}

func (s *Service) execOne(ctx context.Context, sql, contactID string, extra ...any) error {
	if s.pool == nil {
		return errors.New("contacts pool not configured")
	}
	pgID, err := db.ParseUUID(contactID)
	if err != nil {
		return err
	}
	args := append([]any{pgID}, extra...)
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.publish()
	return nil
}

// BulkSetActive flips is_active on every given contact.
func (s *Service) BulkSetActive(ctx context.Context, contactIDs []string, active bool) error {
	return s.bulkExec(ctx, `UPDATE contacts SET is_active = $2 WHERE id = ANY($1)`, contactIDs, active)
}

// BulkDelete hard-deletes every given contact.
func (s *Service) BulkDelete(ctx context.Context, contactIDs []string) error {
	return s.bulkExec(ctx, `DELETE FROM contacts WHERE id = ANY($1)`, contactIDs)
}

func (s *Service) bulkExec(ctx context.Context, sql string, contactIDs []string, extra ...any) error {
	if s.pool == nil {
		return errors.New("contacts pool not configured")
	}
	if len(contactIDs) == 0 {
		return nil
	}
	pgIDs, err := db.ParseUUIDs(contactIDs)
	if err != nil {
		return err
	}
	args := append([]any{pgIDs}, extra...)
	if _, err := s.pool.Exec(ctx, sql, args...); err != nil {
		return err
	}
	s.publish()
	return nil
}

// DuplicatePreview runs the read-only dedup dry run: how many phone numbers
// are duplicated, and how many excess rows a cleanup would remove.
func (s *Service) DuplicatePreview(ctx context.Context) (DuplicatePreview, error) {
	if s.pool == nil {
		return DuplicatePreview{}, errors.New("contacts pool not configured")
	}
	rows, err := s.pool.Query(ctx, `SELECT phone_number, count FROM get_duplicate_contacts()`)
	if err != nil {
		return DuplicatePreview{}, fmt.Errorf("duplicate preview: %w", err)
	}
	defer rows.Close()

	var counts []int64
	for rows.Next() {
		var (
			phoneNumber string
			count       int64
		)
		if err := rows.Scan(&phoneNumber, &count); err != nil {
			return DuplicatePreview{}, err
		}
		counts = append(counts, count)
	}
	return tallyDuplicates(counts), rows.Err()
}

// tallyDuplicates folds per-number occurrence counts into the preview:
// one entry per duplicated number, and count-1 removable rows each.
func tallyDuplicates(counts []int64) DuplicatePreview {
	var preview DuplicatePreview
	for _, count := range counts {
		preview.PhoneNumbers++
		preview.TotalDuplicates += int(count) - 1
	}
	return preview
}

// RemoveDuplicates keeps the most recently created contact per duplicated
// phone number, preserving delivery history, via the server-side routine.
func (s *Service) RemoveDuplicates(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("contacts pool not configured")
	}
	if _, err := s.pool.Exec(ctx, `SELECT remove_duplicate_contacts()`); err != nil {
		return fmt.Errorf("remove duplicates: %w", err)
	}
	s.publish()
	return nil
}

func (s *Service) publish() {
	if s.publisher != nil {
		s.publisher.Publish(events.TableContacts)
	}
}

func scanContact(row pgx.Row) (Contact, error) {
	var (
		id        pgtype.UUID
		number    string
		isActive  bool
		createdAt pgtype.Timestamptz
		tagsJSON  []byte
	)
	if err := row.Scan(&id, &number, &isActive, &createdAt, &tagsJSON); err != nil {
		return Contact{}, err
	}
	tags := []TagRef{}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &tags); err != nil {
			return Contact{}, fmt.Errorf("decode contact tags: %w", err)
		}
	}
	return Contact{
		ID:          db.UUIDToString(id),
		PhoneNumber: number,
		IsActive:    isActive,
		CreatedAt:   db.TimeFromPg(createdAt),
		Tags:        tags,
	}, nil
}

// withRetry runs fn up to attempts times, sleeping delay between tries.
func withRetry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, delay); err != nil {
				return err
			}
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
