package broadcasts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mursal-app/mursal/internal/db"
)

func setupIntegrationTest(t *testing.T) (*pgxpool.Pool, func()) {
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
	return pool, func() { pool.Close() }
}

// Seeds a multi-tag membership set and resolves it with a page size small
// enough that one contact's rows span a page boundary.
func TestIntegrationContactsWithAllTagsAcrossPages(t *testing.T) {
	pool, cleanup := setupIntegrationTest(t)
	defer cleanup()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := &Service{pool: pool, logger: logger}

	stamp := time.Now().UnixNano()
	tagIDs := make([]string, 2)
	for i := range tagIDs {
		var id pgtype.UUID
		err := pool.QueryRow(ctx,
			`INSERT INTO tags (name) VALUES ($1) RETURNING id`,
			fmt.Sprintf("paging_%d_%d", stamp, i),
		).Scan(&id)
		if err != nil {
			t.Fatalf("seed tag failed: %v", err)
		}
		tagIDs[i] = db.UUIDToString(id)
	}
	contactIDs := make([]string, 3)
	for i := range contactIDs {
		var id pgtype.UUID
		err := pool.QueryRow(ctx,
			`INSERT INTO contacts (phone_number) VALUES ($1) RETURNING id`,
			fmt.Sprintf("9665%d%02d", stamp%100000000, i),
		).Scan(&id)
		if err != nil {
			t.Fatalf("seed contact failed: %v", err)
		}
		contactIDs[i] = db.UUIDToString(id)
	}
	defer func() {
		contacts, _ := db.ParseUUIDs(contactIDs)
		tags, _ := db.ParseUUIDs(tagIDs)
		pool.Exec(ctx, `DELETE FROM contacts WHERE id = ANY($1)`, contacts)
		pool.Exec(ctx, `DELETE FROM tags WHERE id = ANY($1)`, tags)
	}()

	// First and third contacts carry both tags, the second only the first.
	memberships := [][2]string{
		{contactIDs[0], tagIDs[0]},
		{contactIDs[0], tagIDs[1]},
		{contactIDs[1], tagIDs[0]},
		{contactIDs[2], tagIDs[0]},
		{contactIDs[2], tagIDs[1]},
	}
	for _, m := range memberships {
		contactID, err := db.ParseUUID(m[0])
		if err != nil {
			t.Fatalf("parse contact id: %v", err)
		}
		tagID, err := db.ParseUUID(m[1])
		if err != nil {
			t.Fatalf("parse tag id: %v", err)
		}
		if _, err := pool.Exec(ctx,
			`INSERT INTO contact_tags (contact_id, tag_id) VALUES ($1, $2)`,
			contactID, tagID,
		); err != nil {
			t.Fatalf("seed membership failed: %v", err)
		}
	}

	matched, err := svc.contactsWithAllTags(ctx, tagIDs, 2)
	if err != nil {
		t.Fatalf("resolve memberships failed: %v", err)
	}
	for _, id := range []string{contactIDs[0], contactIDs[2]} {
		if _, ok := matched[id]; !ok {
			t.Errorf("expected contact %s to carry both tags", id)
		}
	}
	if _, ok := matched[contactIDs[1]]; ok {
		t.Errorf("contact %s carries one tag and should not match", contactIDs[1])
	}
	if len(matched) != 2 {
		t.Fatalf("matched %d contacts, want 2", len(matched))
	}
}
