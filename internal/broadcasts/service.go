// Package broadcasts composes broadcast messages and tracks their deliveries.
package broadcasts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mursal-app/mursal/internal/contacts"
	"github.com/mursal-app/mursal/internal/events"
	"github.com/mursal-app/mursal/internal/media"
)

const (
	// deliveryBatchSize bounds a single delivery insert.
	deliveryBatchSize = 500
	// targetPageSize is the chunk size for paging tag membership rows.
	targetPageSize = 1000
)

// Errors returned by broadcast operations.
var (
	ErrEmptyMessage   = errors.New("message text is required")
	ErrNoTagsSelected = errors.New("tag targeting requires at least one tag")
	ErrNoRecipients   = errors.New("no recipients match the targeting")
	ErrNotFound       = errors.New("broadcast not found")
	ErrFinished       = errors.New("broadcast already finished")
)

// PartialBatchError reports a delivery insert that failed midway: the
// message row and every batch before the failing one are already
// persisted and stay.
type PartialBatchError struct {
	MessageID string
	Inserted  int
	Total     int
	Err       error
}

func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("broadcast %s: inserted %d of %d deliveries: %v", e.MessageID, e.Inserted, e.Total, e.Err)
}

func (e *PartialBatchError) Unwrap() error { return e.Err }

// ContactSource supplies the active contacts a broadcast can target.
type ContactSource interface {
	ListActive(ctx context.Context) ([]contacts.Contact, error)
}

// Service composes broadcasts and manages their lifecycle.
type Service struct {
	pool      *pgxpool.Pool
	source    ContactSource
	media     *media.Service
	publisher events.Publisher
	logger    *slog.Logger
}

// NewService creates a broadcasts service.
func NewService(log *slog.Logger, pool *pgxpool.Pool, source ContactSource, mediaSvc *media.Service, publisher events.Publisher) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:      pool,
		source:    source,
		media:     mediaSvc,
		publisher: publisher,
		logger:    log.With(slog.String("service", "broadcasts")),
	}
}

func (s *Service) publish(table string) {
	if s.publisher != nil {
		s.publisher.Publish(table)
	}
}
