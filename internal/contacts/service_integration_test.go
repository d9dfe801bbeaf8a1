package contacts_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mursal-app/mursal/internal/contacts"
)

func setupIntegrationTest(t *testing.T) (*contacts.Service, func()) {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("skip integration test: TEST_POSTGRES_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("skip integration test: cannot connect to database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("skip integration test: database ping failed: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc := contacts.NewService(logger, pool, nil)
	return svc, func() { pool.Close() }
}

func TestIntegrationCreateDuplicateHandling(t *testing.T) {
	svc, cleanup := setupIntegrationTest(t)
	defer cleanup()

	ctx := context.Background()
	raw := fmt.Sprintf("05%08d", time.Now().UnixNano()%100000000)

	first, err := svc.Create(ctx, raw, "")
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	defer func() {
		if err := svc.Delete(ctx, first.Contact.ID); err != nil {
			t.Errorf("cleanup delete failed: %v", err)
		}
	}()
	if first.Reactivated {
		t.Fatal("fresh number should not report a reactivation")
	}
	if !first.Contact.IsActive {
		t.Fatal("fresh contact should be active")
	}

	// Re-adding while active is a conflict.
	if _, err := svc.Create(ctx, raw, ""); !errors.Is(err, contacts.ErrContactExists) {
		t.Fatalf("active duplicate: err = %v, want ErrContactExists", err)
	}

	// Re-adding while inactive reactivates the existing row.
	if err := svc.SetActive(ctx, first.Contact.ID, false); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	second, err := svc.Create(ctx, raw, "")
	if err != nil {
		t.Fatalf("re-add of inactive number failed: %v", err)
	}
	if !second.Reactivated {
		t.Fatal("inactive duplicate should report a reactivation")
	}
	if second.Contact.ID != first.Contact.ID {
		t.Fatalf("reactivation returned id %s, want existing id %s", second.Contact.ID, first.Contact.ID)
	}
	if !second.Contact.IsActive {
		t.Fatal("reactivated contact should be active")
	}
}
