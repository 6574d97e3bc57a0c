package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tillpoint/pos/internal/config"
	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/internal/infrastructure/database"
	"github.com/tillpoint/pos/internal/infrastructure/remote"
	infraRepo "github.com/tillpoint/pos/internal/infrastructure/repository"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewSQLiteDB(&config.DatabaseConfig{
		Path: filepath.Join(t.TempDir(), "pos.db"),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testGateway(t *testing.T, handler http.HandlerFunc) *remote.Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return remote.NewGateway(srv.URL, func() remote.Credentials {
		return remote.Credentials{}
	})
}

func categoryPull(db *gorm.DB, gw *remote.Gateway) EntitySync {
	return pullSync(db, gw, EntityCategory, nil, remote.PullCategories,
		func(tx *gorm.DB, ctx context.Context, data []entity.Category) error {
			return infraRepo.NewCategoryRepository(tx).Upsert(ctx, data)
		},
		func(c entity.Category) time.Time { return c.UpdatedAt })
}

func TestPullSyncAppliesPageAndAdvancesCursor(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	catID := uuid.New()
	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gw := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"results":[{"id":%q,"company_id":%q,"name":"Drinks","updated_at":%q}],"total":1}`,
			catID, uuid.New(), updated.Format(time.RFC3339))
	})

	written, more, next, err := categoryPull(db, gw).Pull(ctx, time.Time{}, 50)
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if written != 1 || more {
		t.Fatalf("written=%d more=%v, want 1 false", written, more)
	}
	if !next.Equal(updated) {
		t.Errorf("watermark = %s, want %s", next, updated)
	}

	var cat entity.Category
	if err := db.First(&cat, "id = ?", catID).Error; err != nil {
		t.Fatalf("category not written: %v", err)
	}
	mark, err := infraRepo.NewSyncCursorRepository(db).Get(ctx, EntityCategory)
	if err != nil {
		t.Fatalf("cursor get: %v", err)
	}
	if !mark.Equal(updated) {
		t.Errorf("cursor = %s, want %s", mark, updated)
	}
}

func TestPullSyncReportsOutstandingRecords(t *testing.T) {
	db := testDB(t)

	gw := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"results":[{"id":%q,"name":"Drinks","updated_at":"2026-03-01T12:00:00Z"},{"id":%q,"name":"Food","updated_at":"2026-03-01T13:00:00Z"}],"total":5}`,
			uuid.New(), uuid.New())
	})

	written, more, _, err := categoryPull(db, gw).Pull(context.Background(), time.Time{}, 2)
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if written != 2 || !more {
		t.Fatalf("written=%d more=%v, want 2 true", written, more)
	}
}

func TestPullSyncKeepsCursorWhenWriteFails(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	gw := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"results":[{"id":%q,"name":"Drinks","updated_at":"2026-03-01T12:00:00Z"}],"total":1}`, uuid.New())
	})

	es := pullSync(db, gw, EntityCategory, nil, remote.PullCategories,
		func(tx *gorm.DB, ctx context.Context, data []entity.Category) error {
			return errors.New("disk full")
		},
		func(c entity.Category) time.Time { return c.UpdatedAt })

	if _, _, _, err := es.Pull(ctx, time.Time{}, 50); err == nil {
		t.Fatal("Pull should surface the write failure")
	}

	// The page never committed, so the cursor must still be at zero and
	// the next run will refetch the same page.
	mark, err := infraRepo.NewSyncCursorRepository(db).Get(ctx, EntityCategory)
	if err != nil {
		t.Fatalf("cursor get: %v", err)
	}
	if !mark.IsZero() {
		t.Errorf("cursor moved to %s after a failed write", mark)
	}
	var count int64
	db.Model(&entity.Category{}).Count(&count)
	if count != 0 {
		t.Errorf("categories written = %d, want 0", count)
	}
}

func TestOrderPusherRoutesByOp(t *testing.T) {
	var method, path string
	gw := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	})
	push := orderPusher(gw)
	id := uuid.New()
	ctx := context.Background()

	cases := []struct {
		op         string
		wantMethod string
		wantPath   string
	}{
		{"create", http.MethodPost, "/push/orders"},
		{"update", http.MethodPatch, "/ordering/order/" + id.String()},
		{"status", http.MethodPatch, "/ordering/order/" + id.String() + "/status"},
	}
	for _, tc := range cases {
		m := entity.PushMutation{RecordID: id, Op: tc.op, Payload: []byte(`{}`)}
		if err := push(ctx, m); err != nil {
			t.Fatalf("push %s: %v", tc.op, err)
		}
		if method != tc.wantMethod || path != tc.wantPath {
			t.Errorf("op %s hit %s %s, want %s %s", tc.op, method, path, tc.wantMethod, tc.wantPath)
		}
	}
}

func TestCustomerPusherRoutesRedemption(t *testing.T) {
	var method, path string
	gw := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	})
	push := customerPusher(gw)
	id := uuid.New()
	ctx := context.Background()

	if err := push(ctx, entity.PushMutation{RecordID: id, Op: "redeem", Payload: []byte(`{}`)}); err != nil {
		t.Fatalf("push redeem: %v", err)
	}
	if method != http.MethodPost || path != "/customer/"+id.String()+"/redeem" {
		t.Errorf("redeem hit %s %s", method, path)
	}

	if err := push(ctx, entity.PushMutation{RecordID: id, Op: "upsert", Payload: []byte(`{}`)}); err != nil {
		t.Fatalf("push upsert: %v", err)
	}
	if method != http.MethodPost || path != "/push/customers" {
		t.Errorf("upsert hit %s %s", method, path)
	}
}
