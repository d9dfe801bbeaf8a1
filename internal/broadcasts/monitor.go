package broadcasts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mursal-app/mursal/internal/db"
	"github.com/mursal-app/mursal/internal/events"
	"github.com/mursal-app/mursal/internal/media"
)

// List returns every message newest-first with its delivery counts. The
// three per-message status counts are issued concurrently; a failed count
// degrades to zero rather than failing the listing.
func (s *Service) List(ctx context.Context) ([]Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, message, image_url, status, user_id, created_at
		 FROM messages
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	for i := range messages {
		messages[i].Counts = s.countDeliveries(ctx, messages[i].ID)
	}
	return messages, nil
}

// countDeliveries runs the three status counts in parallel and joins them.
func (s *Service) countDeliveries(ctx context.Context, messageID string) Counts {
	id, err := db.ParseUUID(messageID)
	if err != nil {
		return Counts{}
	}

	var (
		counts Counts
		wg     sync.WaitGroup
	)
	for status, target := range map[string]*int64{
		DeliveryPending: &counts.Pending,
		DeliverySent:    &counts.Sent,
		DeliveryFailed:  &counts.Failed,
	} {
		wg.Add(1)
		go func(status string, target *int64) {
			defer wg.Done()
			err := s.pool.QueryRow(ctx,
				`SELECT COUNT(*) FROM broadcasts WHERE message_id = $1 AND status = $2`,
				id, status,
			).Scan(target)
			if err != nil {
				s.logger.Warn("delivery count failed",
					slog.String("message_id", messageID),
					slog.String("status", status),
					slog.Any("error", err),
				)
				*target = 0
			}
		}(status, target)
	}
	wg.Wait()
	return counts
}

// ToggleStatus flips a message between active and paused and returns the
// new status. A finished message never leaves that state.
func (s *Service) ToggleStatus(ctx context.Context, messageID, userID string) (string, error) {
	id, owner, err := ownedID(messageID, userID)
	if err != nil {
		return "", err
	}

	var current string
	err = s.pool.QueryRow(ctx,
		`SELECT status FROM messages WHERE id = $1 AND user_id = $2`,
		id, owner,
	).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load message status: %w", err)
	}
	if current == StatusFinished {
		return "", ErrFinished
	}

	next := StatusActive
	if current == StatusActive {
		next = StatusPaused
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE messages SET status = $3 WHERE id = $1 AND user_id = $2`,
		id, owner, next,
	)
	if err != nil {
		return "", fmt.Errorf("update message status: %w", err)
	}
	s.publish(events.TableMessages)
	return next, nil
}

// Edit applies a partial update to a message's name and text.
func (s *Service) Edit(ctx context.Context, messageID, userID string, update Update) error {
	id, owner, err := ownedID(messageID, userID)
	if err != nil {
		return err
	}
	cmd, err := s.pool.Exec(ctx,
		`UPDATE messages
		 SET name = COALESCE($3, name), message = COALESCE($4, message)
		 WHERE id = $1 AND user_id = $2`,
		id, owner, update.Name, update.Message,
	)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.publish(events.TableMessages)
	return nil
}

// Delete removes a message, its staged image first, then its delivery
// rows, then the message row itself.
func (s *Service) Delete(ctx context.Context, messageID, userID string) error {
	id, owner, err := ownedID(messageID, userID)
	if err != nil {
		return err
	}

	var imageURL pgtype.Text
	err = s.pool.QueryRow(ctx,
		`SELECT image_url FROM messages WHERE id = $1 AND user_id = $2`,
		id, owner,
	).Scan(&imageURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load message: %w", err)
	}

	if s.media != nil {
		if key := media.KeyFromURL(db.TextToString(imageURL)); key != "" {
			s.media.Remove(ctx, key)
		}
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM broadcasts WHERE message_id = $1`, id); err != nil {
		return fmt.Errorf("delete deliveries: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1 AND user_id = $2`, id, owner); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	s.logger.Info("broadcast deleted", slog.String("message_id", messageID))
	s.publish(events.TableMessages)
	s.publish(events.TableBroadcasts)
	return nil
}

func ownedID(messageID, userID string) (pgtype.UUID, pgtype.UUID, error) {
	id, err := db.ParseUUID(messageID)
	if err != nil {
		return pgtype.UUID{}, pgtype.UUID{}, ErrNotFound
	}
	owner, err := db.ParseUUID(userID)
	if err != nil {
		return pgtype.UUID{}, pgtype.UUID{}, fmt.Errorf("parse user id: %w", err)
	}
	return id, owner, nil
}

func scanMessage(row pgx.Row) (Message, error) {
	var (
		id       pgtype.UUID
		imageURL pgtype.Text
		userID   pgtype.UUID
		created  pgtype.Timestamptz
		message  Message
	)
	if err := row.Scan(&id, &message.Name, &message.Message, &imageURL, &message.Status, &userID, &created); err != nil {
		return Message{}, fmt.Errorf("scan message: %w", err)
	}
	message.ID = db.UUIDToString(id)
	message.ImageURL = db.TextToString(imageURL)
	message.UserID = db.UUIDToString(userID)
	message.CreatedAt = db.TimeFromPg(created)
	return message, nil
}
