package sync

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tillpoint/pos/internal/config"
	"github.com/tillpoint/pos/internal/domain/entity"
	domainRepo "github.com/tillpoint/pos/internal/domain/repository"
	"github.com/tillpoint/pos/pkg/apperror"
	"golang.org/x/sync/errgroup"
)

// EntitySync registers one entity with the orchestrator. Pull fetches and
// durably writes one page of remote changes since the watermark, returning
// the number of records written, whether the server holds more beyond this
// page, and the new watermark. Advancing the cursor is the Pull
// implementation's job and must happen in the same transaction as the page
// write.
type EntitySync struct {
	Name      string
	DependsOn []string
	Pull      func(ctx context.Context, since time.Time, limit int) (written int, more bool, next time.Time, err error)
}

// Pusher sends one queued local mutation to the remote API.
type Pusher func(ctx context.Context, m entity.PushMutation) error

// Orchestrator drives pull and push synchronization. Entities pull in
// dependency order; entities at the same depth pull concurrently. Local
// mutations drain through the push queue before any pull so the server sees
// our writes first.
type Orchestrator struct {
	cfg     config.SyncConfig
	cursors domainRepo.SyncCursorRepository
	queue   domainRepo.PushQueueRepository

	entities map[string]EntitySync
	order    []string
	pushers  map[string]Pusher

	trigger chan struct{}
}

// NewOrchestrator creates an orchestrator with no entities registered.
func NewOrchestrator(cfg config.SyncConfig, cursors domainRepo.SyncCursorRepository, queue domainRepo.PushQueueRepository) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		cursors:  cursors,
		queue:    queue,
		entities: make(map[string]EntitySync),
		pushers:  make(map[string]Pusher),
		trigger:  make(chan struct{}, 1),
	}
}

// Register adds an entity. Dependencies must be registered first, which
// rules out cycles by construction.
func (o *Orchestrator) Register(es EntitySync) error {
	if _, ok := o.entities[es.Name]; ok {
		return fmt.Errorf("sync entity %q already registered", es.Name)
	}
	for _, dep := range es.DependsOn {
		if _, ok := o.entities[dep]; !ok {
			return fmt.Errorf("sync entity %q depends on unregistered %q", es.Name, dep)
		}
	}
	o.entities[es.Name] = es
	o.order = append(o.order, es.Name)
	return nil
}

// RegisterPusher adds the push handler for queued mutations of one entity.
func (o *Orchestrator) RegisterPusher(entityName string, p Pusher) {
	o.pushers[entityName] = p
}

// RequestSync schedules a sync run. Calls made while a request is already
// pending coalesce into one run after the debounce window, so a burst of
// checkout writes triggers a single pass.
func (o *Orchestrator) RequestSync() {
	select {
	case o.trigger <- struct{}{}:
	default:
	}
}

// Run services sync requests until the context is cancelled. A periodic
// tick keeps pulls fresh even when nothing local changes.
func (o *Orchestrator) Run(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.trigger:
			// Debounce: absorb requests arriving right behind this one.
			timer := time.NewTimer(o.cfg.Debounce)
		drain:
			for {
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-o.trigger:
				case <-timer.C:
					break drain
				}
			}
			o.runOnce(ctx)
		case <-ticker.C:
			o.runOnce(ctx)
		}
	}
}

func (o *Orchestrator) runOnce(ctx context.Context) {
	if err := o.SyncAll(ctx); err != nil {
		if apperror.IsKind(err, apperror.KindNetwork) {
			log.Println("Sync skipped: device is offline")
			return
		}
		log.Printf("Sync failed: %v", err)
	}
}

// SyncAll pushes pending local mutations, then pulls every registered
// entity in dependency order.
func (o *Orchestrator) SyncAll(ctx context.Context) error {
	if err := o.Push(ctx); err != nil {
		return err
	}
	return o.Pull(ctx)
}

// Pull runs all registered pulls. Entities whose dependencies are all
// satisfied at the same depth run concurrently via an errgroup; the next
// depth starts only when the whole level has finished.
func (o *Orchestrator) Pull(ctx context.Context) error {
	for _, level := range o.levels() {
		g, gctx := errgroup.WithContext(ctx)
		for _, name := range level {
			es := o.entities[name]
			g.Go(func() error {
				return o.pullEntity(gctx, es)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// pullEntity pages through remote changes until the server reports nothing
// left beyond the page. The cursor only moves when the Pull implementation
// commits a page, so a crash mid-pull resumes from the last durable page.
func (o *Orchestrator) pullEntity(ctx context.Context, es EntitySync) error {
	for {
		since, err := o.cursors.Get(ctx, es.Name)
		if err != nil {
			return err
		}

		written, more, next, err := es.Pull(ctx, since, o.cfg.PageSize)
		if err != nil {
			return fmt.Errorf("pull %s: %w", es.Name, err)
		}
		if written > 0 {
			log.Printf("Synced %d %s records up to %s", written, es.Name, next.Format(time.RFC3339))
		}
		// An empty page cannot advance the cursor, so looping on "more"
		// would spin in place.
		if !more || written == 0 {
			return nil
		}
	}
}

// Push drains the queue of local mutations oldest-first. A network failure
// stops the drain and leaves everything queued; a per-record rejection is
// recorded on the row and the drain continues.
func (o *Orchestrator) Push(ctx context.Context) error {
	for {
		pending, err := o.queue.Pending(ctx, o.cfg.PushBatchSize)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}

		progressed := false
		for _, m := range pending {
			pusher, ok := o.pushers[m.Entity]
			if !ok {
				return fmt.Errorf("no pusher registered for entity %q", m.Entity)
			}

			if err := pusher(ctx, m); err != nil {
				if apperror.IsKind(err, apperror.KindNetwork) || apperror.IsKind(err, apperror.KindTimeout) {
					return err
				}
				if markErr := o.queue.MarkFailed(ctx, m.ID, err.Error()); markErr != nil {
					return markErr
				}
				log.Printf("Push rejected for %s %s: %v", m.Entity, m.RecordID, err)
				continue
			}

			if err := o.queue.Delete(ctx, m.ID); err != nil {
				return err
			}
			progressed = true
		}

		// Every row in the batch was rejected and stays queued; stop
		// rather than spin on the same batch.
		if !progressed {
			return nil
		}
	}
}

// levels groups registered entities by dependency depth.
func (o *Orchestrator) levels() [][]string {
	depth := make(map[string]int, len(o.entities))
	var resolve func(name string) int
	resolve = func(name string) int {
		if d, ok := depth[name]; ok {
			return d
		}
		d := 0
		for _, dep := range o.entities[name].DependsOn {
			if dd := resolve(dep) + 1; dd > d {
				d = dd
			}
		}
		depth[name] = d
		return d
	}

	maxDepth := 0
	for _, name := range o.order {
		if d := resolve(name); d > maxDepth {
			maxDepth = d
		}
	}

	levels := make([][]string, maxDepth+1)
	for _, name := range o.order {
		d := depth[name]
		levels[d] = append(levels[d], name)
	}
	return levels
}
