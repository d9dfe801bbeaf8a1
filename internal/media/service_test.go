package media

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/mursal-app/mursal/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(nil, storage.NewLocal(t.TempDir(), "http://example.com"))
}

func TestStageAndOpen(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	asset, err := svc.Stage(context.Background(), "banner.png", "image/png", strings.NewReader("img-bytes"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if !strings.HasSuffix(asset.Key, ".png") {
		t.Errorf("key %q should keep the extension", asset.Key)
	}
	if !strings.HasPrefix(asset.URL, "http://example.com/media/") {
		t.Errorf("unexpected URL %q", asset.URL)
	}

	reader, err := svc.Open(context.Background(), asset.Key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reader.Close()
	data, _ := io.ReadAll(reader)
	if string(data) != "img-bytes" {
		t.Errorf("read %q, want %q", data, "img-bytes")
	}
}

func TestStageRejectsNonImage(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	if _, err := svc.Stage(context.Background(), "doc.pdf", "application/pdf", strings.NewReader("x")); err != ErrNotAnImage {
		t.Fatalf("expected ErrNotAnImage, got %v", err)
	}
}

func TestStageRejectsOversizedImage(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	big := strings.NewReader(strings.Repeat("a", MaxImageBytes+1))
	if _, err := svc.Stage(context.Background(), "big.jpg", "image/jpeg", big); err != ErrImageTooLarge {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
}

func TestStageUniqueKeys(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	first, err := svc.Stage(context.Background(), "a.png", "image/png", strings.NewReader("1"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	second, err := svc.Stage(context.Background(), "a.png", "image/png", strings.NewReader("2"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if first.Key == second.Key {
		t.Errorf("expected distinct keys for repeated uploads, both %q", first.Key)
	}
}

func TestKeyFromURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"http://example.com/media/123_abc.png", "123_abc.png"},
		{"123_abc.png", "123_abc.png"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := KeyFromURL(tt.url); got != tt.want {
			t.Errorf("KeyFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
