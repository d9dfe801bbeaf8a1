package storage

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestLocalPutOpenDelete(t *testing.T) {
	t.Parallel()

	provider := NewLocal(t.TempDir(), "http://127.0.0.1:8080/")
	ctx := context.Background()

	if err := provider.Put(ctx, "ab/test.png", strings.NewReader("payload")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	reader, err := provider.Open(ctx, "ab/test.png")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("read %q, want %q", data, "payload")
	}

	if err := provider.Delete(ctx, "ab/test.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := provider.Open(ctx, "ab/test.png"); err == nil {
		t.Fatal("expected Open to fail after Delete")
	}
	// deleting again is not an error
	if err := provider.Delete(ctx, "ab/test.png"); err != nil {
		t.Fatalf("Delete (missing): %v", err)
	}
}

func TestLocalAccessPath(t *testing.T) {
	t.Parallel()

	provider := NewLocal(t.TempDir(), "http://example.com/")
	if got, want := provider.AccessPath("x.png"), "http://example.com/media/x.png"; got != want {
		t.Errorf("AccessPath = %q, want %q", got, want)
	}
}

func TestLocalRejectsEscapingKeys(t *testing.T) {
	t.Parallel()

	provider := NewLocal(t.TempDir(), "http://example.com")
	ctx := context.Background()
	for _, key := range []string{"", "../evil", "/abs/path", "a/../../evil"} {
		if err := provider.Put(ctx, key, strings.NewReader("x")); err == nil {
			t.Errorf("expected Put(%q) to be rejected", key)
		}
	}
}
