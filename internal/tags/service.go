// Package tags manages contact labels and their membership.
package tags

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mursal-app/mursal/internal/db"
	"github.com/mursal-app/mursal/internal/events"
)

// DefaultColor is applied when a tag is created without an explicit color.
const DefaultColor = "#3B82F6"

// Errors returned by tag operations.
var (
	ErrEmptyName    = errors.New("tag name is required")
	ErrTagNameTaken = errors.New("tag name already exists")
	ErrNotFound     = errors.New("tag not found")
)

// Service provides tag CRUD and membership operations.
type Service struct {
	pool      *pgxpool.Pool
	publisher events.Publisher
	logger    *slog.Logger
}

// NewService creates a tags service.
func NewService(log *slog.Logger, pool *pgxpool.Pool, publisher events.Publisher) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:      pool,
		publisher: publisher,
		logger:    log.With(slog.String("service", "tags")),
	}
}

// List returns every tag with its member count, ordered by name.
func (s *Service) List(ctx context.Context) ([]Tag, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, color, contact_count FROM get_tag_counts()`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var (
			id  pgtype.UUID
			tag Tag
		)
		if err := rows.Scan(&id, &tag.Name, &tag.Color, &tag.ContactCount); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tag.ID = db.UUIDToString(id)
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// Create inserts a new tag. A blank color falls back to DefaultColor.
func (s *Service) Create(ctx context.Context, name, color string) (Tag, error) {
	name, color, err := normalize(name, color)
	if err != nil {
		return Tag{}, err
	}

	var id pgtype.UUID
	err = s.pool.QueryRow(ctx,
		`INSERT INTO tags (name, color) VALUES ($1, $2) RETURNING id`,
		name, color,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Tag{}, ErrTagNameTaken
		}
		return Tag{}, fmt.Errorf("create tag: %w", err)
	}

	s.logger.Info("tag created", slog.String("name", name))
	s.publish(events.TableTags)
	return Tag{ID: db.UUIDToString(id), Name: name, Color: color}, nil
}

// Update renames and recolors an existing tag.
func (s *Service) Update(ctx context.Context, tagID, name, color string) error {
	name, color, err := normalize(name, color)
	if err != nil {
		return err
	}
	id, err := db.ParseUUID(tagID)
	if err != nil {
		return ErrNotFound
	}

	cmd, err := s.pool.Exec(ctx,
		`UPDATE tags SET name = $2, color = $3 WHERE id = $1`,
		id, name, color,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrTagNameTaken
		}
		return fmt.Errorf("update tag: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.publish(events.TableTags)
	return nil
}

// Delete removes a tag; memberships go with it.
func (s *Service) Delete(ctx context.Context, tagID string) error {
	id, err := db.ParseUUID(tagID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := s.pool.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.publish(events.TableTags)
	s.publish(events.TableContacts)
	return nil
}

// SetMembership applies or removes a tag for a set of contacts. Applying is
// idempotent: contacts that already carry the tag are left alone.
func (s *Service) SetMembership(ctx context.Context, contactIDs []string, tagID string, present bool) error {
	if len(contactIDs) == 0 {
		return nil
	}
	tag, err := db.ParseUUID(tagID)
	if err != nil {
		return ErrNotFound
	}
	ids, err := db.ParseUUIDs(contactIDs)
	if err != nil {
		return fmt.Errorf("parse contact ids: %w", err)
	}

	if present {
		_, err = s.pool.Exec(ctx,
			`INSERT INTO contact_tags (contact_id, tag_id)
			 SELECT unnest($1::uuid[]), $2
			 ON CONFLICT (contact_id, tag_id) DO NOTHING`,
			ids, tag,
		)
	} else {
		_, err = s.pool.Exec(ctx,
			`DELETE FROM contact_tags WHERE tag_id = $2 AND contact_id = ANY($1)`,
			ids, tag,
		)
	}
	if err != nil {
		return fmt.Errorf("set tag membership: %w", err)
	}
	s.publish(events.TableContacts)
	return nil
}

// AppliedToAll reports whether every given contact carries the tag. The
// selection toolbar uses it to decide between apply and remove.
func (s *Service) AppliedToAll(ctx context.Context, contactIDs []string, tagID string) (bool, error) {
	if len(contactIDs) == 0 {
		return false, nil
	}
	tag, err := db.ParseUUID(tagID)
	if err != nil {
		return false, ErrNotFound
	}
	ids, err := db.ParseUUIDs(contactIDs)
	if err != nil {
		return false, fmt.Errorf("parse contact ids: %w", err)
	}

	var tagged int64
	err = s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM contact_tags WHERE tag_id = $2 AND contact_id = ANY($1)`,
		ids, tag,
	).Scan(&tagged)
	if err != nil {
		return false, fmt.Errorf("count tag membership: %w", err)
	}
	return tagged == int64(len(contactIDs)), nil
}

func (s *Service) publish(table string) {
	if s.publisher != nil {
		s.publisher.Publish(table)
	}
}

func normalize(name, color string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", ErrEmptyName
	}
	if strings.TrimSpace(color) == "" {
		color = DefaultColor
	}
	return name, color, nil
}
