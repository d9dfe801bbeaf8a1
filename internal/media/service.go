// Package media stages broadcast images in object storage.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mursal-app/mursal/internal/storage"
)

// MaxImageBytes is the upper bound for a staged broadcast image.
const MaxImageBytes = 5 * 1024 * 1024

// Errors returned by media operations.
var (
	ErrProviderUnavailable = errors.New("storage provider not configured")
	ErrNotAnImage          = errors.New("file is not an image")
	ErrImageTooLarge       = errors.New("image exceeds the 5MB limit")
)

// Asset is a staged image: its storage key and public URL.
type Asset struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Service persists broadcast images through a storage provider.
type Service struct {
	provider storage.Provider
	logger   *slog.Logger
}

// NewService creates a media service with the given storage provider.
func NewService(log *slog.Logger, provider storage.Provider) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		provider: provider,
		logger:   log.With(slog.String("service", "media")),
	}
}

// Stage stores an uploaded image under a collision-resistant key and returns
// the asset with its public URL. The reader is consumed up to MaxImageBytes;
// anything longer fails with ErrImageTooLarge.
func (s *Service) Stage(ctx context.Context, filename, mime string, reader io.Reader) (Asset, error) {
	if s.provider == nil {
		return Asset{}, ErrProviderUnavailable
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(mime)), "image/") {
		return Asset{}, ErrNotAnImage
	}

	ext := strings.ToLower(path.Ext(filename))
	key := fmt.Sprintf("%d_%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)

	limited := io.LimitReader(reader, MaxImageBytes+1)
	payload, err := io.ReadAll(limited)
	if err != nil {
		return Asset{}, fmt.Errorf("read image: %w", err)
	}
	if int64(len(payload)) > MaxImageBytes {
		return Asset{}, ErrImageTooLarge
	}

	if err := s.provider.Put(ctx, key, strings.NewReader(string(payload))); err != nil {
		return Asset{}, fmt.Errorf("store image: %w", err)
	}
	return Asset{Key: key, URL: s.provider.AccessPath(key)}, nil
}

// Open returns a reader for the stored image key.
func (s *Service) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.provider == nil {
		return nil, ErrProviderUnavailable
	}
	return s.provider.Open(ctx, key)
}

// Remove deletes a stored image by key. Failure is logged, not fatal:
// a leaked image never blocks deleting the broadcast that referenced it.
func (s *Service) Remove(ctx context.Context, key string) {
	if s.provider == nil || strings.TrimSpace(key) == "" {
		return
	}
	if err := s.provider.Delete(ctx, key); err != nil {
		s.logger.Warn("delete image failed", slog.String("key", key), slog.Any("error", err))
	}
}

// KeyFromURL extracts the storage key from a public media URL
// (the final path segment). Returns "" when url is empty.
func KeyFromURL(url string) string {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return ""
	}
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
