package sync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tillpoint/pos/internal/config"
	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/pkg/apperror"
	"gorm.io/datatypes"
)

type fakeCursors struct {
	mu      sync.Mutex
	cursors map[string]time.Time
}

func newFakeCursors() *fakeCursors {
	return &fakeCursors{cursors: make(map[string]time.Time)}
}

func (f *fakeCursors) Get(_ context.Context, name string) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursors[name], nil
}

func (f *fakeCursors) Advance(_ context.Context, name string, to time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursors[name] = to
	return nil
}

type fakeQueue struct {
	mu      sync.Mutex
	rows    []entity.PushMutation
	failed  map[uuid.UUID]string
	deleted []uuid.UUID
}

func newFakeQueue(rows ...entity.PushMutation) *fakeQueue {
	return &fakeQueue{rows: rows, failed: make(map[uuid.UUID]string)}
}

func (f *fakeQueue) Enqueue(_ context.Context, m *entity.PushMutation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *m)
	return nil
}

func (f *fakeQueue) Pending(_ context.Context, limit int) ([]entity.PushMutation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rows) > limit {
		return append([]entity.PushMutation(nil), f.rows[:limit]...), nil
	}
	return append([]entity.PushMutation(nil), f.rows...), nil
}

func (f *fakeQueue) MarkFailed(_ context.Context, id uuid.UUID, pushErr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[id] = pushErr
	return nil
}

func (f *fakeQueue) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	for i, m := range f.rows {
		if m.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			break
		}
	}
	return nil
}

func testConfig() config.SyncConfig {
	return config.SyncConfig{
		PageSize:      2,
		Debounce:      20 * time.Millisecond,
		PushBatchSize: 10,
		Interval:      time.Hour,
	}
}

func staticPull(name string, deps []string, record func()) EntitySync {
	return EntitySync{
		Name:      name,
		DependsOn: deps,
		Pull: func(ctx context.Context, since time.Time, limit int) (int, bool, time.Time, error) {
			record()
			return 0, false, since, nil
		},
	}
}

func TestRegisterRejectsUnknownDependency(t *testing.T) {
	o := NewOrchestrator(testConfig(), newFakeCursors(), newFakeQueue())

	err := o.Register(staticPull("product", []string{"category"}, func() {}))
	if err == nil {
		t.Fatal("expected error for unregistered dependency")
	}
}

func TestPullRespectsDependencyOrder(t *testing.T) {
	o := NewOrchestrator(testConfig(), newFakeCursors(), newFakeQueue())

	var mu sync.Mutex
	var seen []string
	record := func(name string) func() {
		return func() {
			mu.Lock()
			seen = append(seen, name)
			mu.Unlock()
		}
	}

	mustRegister(t, o, staticPull("category", nil, record("category")))
	mustRegister(t, o, staticPull("customer", nil, record("customer")))
	mustRegister(t, o, staticPull("product", []string{"category"}, record("product")))
	mustRegister(t, o, staticPull("order", []string{"product", "customer"}, record("order")))

	if err := o.Pull(context.Background()); err != nil {
		t.Fatalf("Pull: %v", err)
	}

	pos := make(map[string]int, len(seen))
	for i, name := range seen {
		pos[name] = i
	}
	if pos["product"] < pos["category"] {
		t.Error("product pulled before its category dependency")
	}
	if pos["order"] < pos["product"] || pos["order"] < pos["customer"] {
		t.Error("order pulled before its dependencies")
	}
}

func TestPullPagesUntilServerDrained(t *testing.T) {
	cursors := newFakeCursors()
	o := NewOrchestrator(testConfig(), cursors, newFakeQueue())

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	mustRegister(t, o, EntitySync{
		Name: "product",
		Pull: func(ctx context.Context, since time.Time, limit int) (int, bool, time.Time, error) {
			calls++
			// Five records on the server: two full pages with more
			// outstanding, then the last page reports nothing left.
			next := base.Add(time.Duration(calls) * time.Hour)
			cursors.Advance(ctx, "product", next)
			if calls < 3 {
				return limit, true, next, nil
			}
			return 1, false, next, nil
		},
	})

	if err := o.Pull(context.Background()); err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if calls != 3 {
		t.Errorf("pull calls = %d, want 3", calls)
	}
}

func TestPullStopsWhenPageWritesNothing(t *testing.T) {
	cursors := newFakeCursors()
	o := NewOrchestrator(testConfig(), cursors, newFakeQueue())

	calls := 0
	mustRegister(t, o, EntitySync{
		Name: "product",
		Pull: func(ctx context.Context, since time.Time, limit int) (int, bool, time.Time, error) {
			calls++
			// A server that claims more data but returns empty pages must
			// not keep the loop going.
			return 0, true, since, nil
		},
	})

	if err := o.Pull(context.Background()); err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if calls != 1 {
		t.Errorf("pull calls = %d, want 1", calls)
	}
}

func TestPullEmptyPageKeepsCursor(t *testing.T) {
	cursors := newFakeCursors()
	mark := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	cursors.Advance(context.Background(), "product", mark)

	o := NewOrchestrator(testConfig(), cursors, newFakeQueue())
	mustRegister(t, o, EntitySync{
		Name: "product",
		Pull: func(ctx context.Context, since time.Time, limit int) (int, bool, time.Time, error) {
			return 0, false, since, nil
		},
	})

	if err := o.Pull(context.Background()); err != nil {
		t.Fatalf("Pull: %v", err)
	}
	got, _ := cursors.Get(context.Background(), "product")
	if !got.Equal(mark) {
		t.Errorf("cursor moved to %s on empty page", got)
	}
}

func TestPushDrainsQueue(t *testing.T) {
	m1 := entity.PushMutation{ID: uuid.New(), Entity: "order", RecordID: uuid.New(), Payload: datatypes.JSON(`{}`)}
	m2 := entity.PushMutation{ID: uuid.New(), Entity: "order", RecordID: uuid.New(), Payload: datatypes.JSON(`{}`)}
	queue := newFakeQueue(m1, m2)

	o := NewOrchestrator(testConfig(), newFakeCursors(), queue)
	o.RegisterPusher("order", func(ctx context.Context, m entity.PushMutation) error {
		return nil
	})

	if err := o.Push(context.Background()); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if len(queue.rows) != 0 {
		t.Errorf("queue still holds %d rows", len(queue.rows))
	}
}

func TestPushStopsOnNetworkError(t *testing.T) {
	m1 := entity.PushMutation{ID: uuid.New(), Entity: "order", RecordID: uuid.New(), Payload: datatypes.JSON(`{}`)}
	queue := newFakeQueue(m1)

	o := NewOrchestrator(testConfig(), newFakeCursors(), queue)
	o.RegisterPusher("order", func(ctx context.Context, m entity.PushMutation) error {
		return apperror.ErrOffline
	})

	err := o.Push(context.Background())
	if !apperror.IsKind(err, apperror.KindNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if len(queue.rows) != 1 {
		t.Error("mutation should remain queued after a network failure")
	}
	if len(queue.failed) != 0 {
		t.Error("network failure must not mark the row failed")
	}
}

func TestPushRecordsRejection(t *testing.T) {
	m1 := entity.PushMutation{ID: uuid.New(), Entity: "order", RecordID: uuid.New(), Payload: datatypes.JSON(`{}`)}
	m2 := entity.PushMutation{ID: uuid.New(), Entity: "order", RecordID: uuid.New(), Payload: datatypes.JSON(`{}`)}
	queue := newFakeQueue(m1, m2)

	o := NewOrchestrator(testConfig(), newFakeCursors(), queue)
	o.RegisterPusher("order", func(ctx context.Context, m entity.PushMutation) error {
		if m.ID == m1.ID {
			return apperror.NewBadRequestError("Duplicate order number")
		}
		return nil
	})

	if err := o.Push(context.Background()); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if _, ok := queue.failed[m1.ID]; !ok {
		t.Error("rejected mutation should be marked failed")
	}
	if len(queue.rows) != 1 {
		t.Errorf("queue rows = %d, want 1 (the rejected row)", len(queue.rows))
	}
}

func TestRequestSyncDebounces(t *testing.T) {
	o := NewOrchestrator(testConfig(), newFakeCursors(), newFakeQueue())

	var mu sync.Mutex
	runs := 0
	mustRegister(t, o, EntitySync{
		Name: "product",
		Pull: func(ctx context.Context, since time.Time, limit int) (int, bool, time.Time, error) {
			mu.Lock()
			runs++
			mu.Unlock()
			return 0, false, since, nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		o.Run(ctx)
		close(done)
	}()

	// A burst of requests inside the debounce window collapses to one run.
	for i := 0; i < 5; i++ {
		o.RequestSync()
		time.Sleep(2 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if runs != 1 {
		t.Errorf("sync runs = %d, want 1", runs)
	}
}

func mustRegister(t *testing.T, o *Orchestrator, es EntitySync) {
	t.Helper()
	if err := o.Register(es); err != nil {
		t.Fatalf("Register(%s): %v", es.Name, err)
	}
}
