package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local is a filesystem-backed Provider rooted at a media directory.
// AccessPath maps keys to public URLs under baseURL.
type Local struct {
	root    string
	baseURL string
}

// NewLocal creates a filesystem provider. Keys resolve under root;
// AccessPath returns "<baseURL>/media/<key>".
func NewLocal(root, baseURL string) *Local {
	return &Local{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Put writes data under key, creating parent directories as needed.
func (l *Local) Put(ctx context.Context, key string, reader io.Reader) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create media file: %w", err)
	}
	defer file.Close()
	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("write media file: %w", err)
	}
	return nil
}

// Open returns a reader for key.
func (l *Local) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Delete removes the object at key. A missing file is not an error.
func (l *Local) Delete(ctx context.Context, key string) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// AccessPath returns the public URL for key.
func (l *Local) AccessPath(key string) string {
	return l.baseURL + "/media/" + key
}

// resolve rejects keys that would escape the media root.
func (l *Local) resolve(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("storage key is required")
	}
	cleaned := filepath.Clean(key)
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid storage key: %s", key)
	}
	return filepath.Join(l.root, cleaned), nil
}
