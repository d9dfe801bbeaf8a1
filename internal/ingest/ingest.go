package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mursal-app/mursal/internal/db"
	"github.com/mursal-app/mursal/internal/events"
	"github.com/mursal-app/mursal/internal/phone"
)

// upsertBatchSize bounds a single contact upsert statement.
const upsertBatchSize = 100

// Import errors.
var (
	ErrAllRowsEmpty = errors.New("upload contains no phone values")
	ErrNoValidRows  = errors.New("upload contains no valid phone numbers")
)

// Summary counts how the upload's rows were classified.
type Summary struct {
	Valid      int      `json:"valid"`
	Invalid    int      `json:"invalid"`
	Empty      int      `json:"empty"`
	Duplicates int      `json:"duplicates"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Result is the outcome of an import: the classification summary plus how
// many contacts were actually inserted (pre-existing numbers are skipped).
type Result struct {
	Summary
	Inserted int `json:"inserted"`
}

// classifyRows walks the data rows and buckets each one as empty, invalid,
// duplicate-within-file, or valid. The returned phones are canonical and
// deduplicated, in first-seen order.
func classifyRows(rows [][]string, col int) ([]string, Summary) {
	var (
		summary Summary
		phones  []string
	)
	seen := make(map[string]struct{})
	for i, row := range rows {
		value := cell(row, col)
		if value == "" {
			summary.Empty++
			continue
		}
		normalized, ok := phone.Normalize(value)
		if !ok {
			summary.Invalid++
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("row %d: invalid phone number %q", i+2, value))
			continue
		}
		if _, dup := seen[normalized]; dup {
			summary.Duplicates++
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("row %d: duplicate of %s", i+2, normalized))
			continue
		}
		seen[normalized] = struct{}{}
		phones = append(phones, normalized)
		summary.Valid++
	}
	return phones, summary
}

// Service imports uploaded contact files.
type Service struct {
	pool      *pgxpool.Pool
	publisher events.Publisher
	logger    *slog.Logger
}

// NewService creates an ingest service.
func NewService(log *slog.Logger, pool *pgxpool.Pool, publisher events.Publisher) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:      pool,
		publisher: publisher,
		logger:    log.With(slog.String("service", "ingest")),
	}
}

// Import parses the uploaded file, finds the phone column, classifies the
// rows, and upserts the valid numbers in batches. Conflicting numbers are
// skipped untouched; when tagIDs are given, only newly inserted contacts
// receive those tags.
func (s *Service) Import(ctx context.Context, filename string, reader io.Reader, tagIDs []string, userID string) (Result, error) {
	table, err := Parse(filename, reader)
	if err != nil {
		return Result{}, err
	}
	col, err := DetectPhoneColumn(table)
	if err != nil {
		return Result{}, err
	}

	phones, summary := classifyRows(table.Rows, col)
	result := Result{Summary: summary}
	if len(phones) == 0 {
		if summary.Invalid == 0 && summary.Duplicates == 0 {
			return result, ErrAllRowsEmpty
		}
		return result, ErrNoValidRows
	}

	owner, err := db.ParseUUID(userID)
	if err != nil {
		return result, fmt.Errorf("parse user id: %w", err)
	}

	var newIDs []pgtype.UUID
	for start := 0; start < len(phones); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(phones) {
			end = len(phones)
		}
		ids, err := s.upsertBatch(ctx, phones[start:end], owner)
		if err != nil {
			return result, fmt.Errorf("upsert contacts at offset %d: %w", start, err)
		}
		newIDs = append(newIDs, ids...)
	}
	result.Inserted = len(newIDs)

	if len(tagIDs) > 0 && len(newIDs) > 0 {
		if err := s.applyTags(ctx, newIDs, tagIDs); err != nil {
			return result, err
		}
	}

	s.logger.Info("upload imported",
		slog.String("file", filename),
		slog.Int("valid", summary.Valid),
		slog.Int("inserted", result.Inserted),
	)
	s.publish(events.TableContacts)
	if len(tagIDs) > 0 {
		s.publish(events.TableTags)
	}
	return result, nil
}

// upsertBatch inserts one batch of numbers and returns the IDs of rows that
// were actually created. ON CONFLICT DO NOTHING keeps pre-existing contacts
// untouched and out of the returned set.
func (s *Service) upsertBatch(ctx context.Context, phones []string, owner pgtype.UUID) ([]pgtype.UUID, error) {
	rows, err := s.pool.Query(ctx,
		`INSERT INTO contacts (phone_number, is_active, user_id)
		 SELECT unnest($1::text[]), TRUE, $2
		 ON CONFLICT (phone_number) DO NOTHING
		 RETURNING id`,
		phones, owner,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []pgtype.UUID
	for rows.Next() {
		var id pgtype.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Service) applyTags(ctx context.Context, contactIDs []pgtype.UUID, tagIDs []string) error {
	tags, err := db.ParseUUIDs(tagIDs)
	if err != nil {
		return fmt.Errorf("parse tag ids: %w", err)
	}
	for _, tag := range tags {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO contact_tags (contact_id, tag_id)
			 SELECT unnest($1::uuid[]), $2
			 ON CONFLICT (contact_id, tag_id) DO NOTHING`,
			contactIDs, tag,
		)
		if err != nil {
			return fmt.Errorf("apply tag: %w", err)
		}
	}
	return nil
}

func (s *Service) publish(table string) {
	if s.publisher != nil {
		s.publisher.Publish(table)
	}
}
