package sync

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/internal/infrastructure/database"
	"github.com/tillpoint/pos/internal/infrastructure/remote"
	infraRepo "github.com/tillpoint/pos/internal/infrastructure/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entity names as registered with the orchestrator and stored on cursors
// and queued mutations.
const (
	EntityCategory   = "category"
	EntityProduct    = "product"
	EntityCustomer   = "customer"
	EntityDeviceUser = "device_user"
	EntitySettings   = "billing_settings"
	EntityOrder      = "order"
	EntityShift      = "cash_drawer"
)

// RegisterAll wires the full entity set into the orchestrator. Registration
// order encodes the dependency graph: catalog and people first, then the
// documents that reference them.
func RegisterAll(o *Orchestrator, db *gorm.DB, gw *remote.Gateway) error {
	pulls := []EntitySync{
		pullSync(db, gw, EntityCategory, nil, remote.PullCategories,
			func(tx *gorm.DB, ctx context.Context, data []entity.Category) error {
				return infraRepo.NewCategoryRepository(tx).Upsert(ctx, data)
			},
			func(c entity.Category) time.Time { return c.UpdatedAt }),
		pullSync(db, gw, EntityCustomer, nil, remote.PullCustomers,
			func(tx *gorm.DB, ctx context.Context, data []entity.Customer) error {
				return infraRepo.NewCustomerRepository(tx).Upsert(ctx, data)
			},
			func(c entity.Customer) time.Time { return c.UpdatedAt }),
		pullSync(db, gw, EntityDeviceUser, nil, remote.PullDeviceUsers,
			func(tx *gorm.DB, ctx context.Context, data []entity.DeviceUser) error {
				return infraRepo.NewDeviceUserRepository(tx).Upsert(ctx, data)
			},
			func(u entity.DeviceUser) time.Time { return u.UpdatedAt }),
		pullSync(db, gw, EntitySettings, nil, remote.PullSettings,
			func(tx *gorm.DB, ctx context.Context, data []entity.BillingSettings) error {
				if len(data) == 0 {
					return nil
				}
				return tx.WithContext(ctx).Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "location_id"}},
					UpdateAll: true,
				}).Create(&data).Error
			},
			func(s entity.BillingSettings) time.Time { return s.UpdatedAt }),
		pullSync(db, gw, EntityProduct, []string{EntityCategory}, remote.PullProducts,
			func(tx *gorm.DB, ctx context.Context, data []entity.Product) error {
				return infraRepo.NewProductRepository(tx).Upsert(ctx, data)
			},
			func(p entity.Product) time.Time { return p.UpdatedAt }),
		pullSync(db, gw, EntityOrder, []string{EntityProduct, EntityCustomer}, remote.PullOrders,
			func(tx *gorm.DB, ctx context.Context, data []entity.Order) error {
				return upsertServerOrders(tx, ctx, data)
			},
			func(or entity.Order) time.Time { return or.UpdatedAt }),
		pullSync(db, gw, EntityShift, []string{EntityDeviceUser}, remote.PullShifts,
			func(tx *gorm.DB, ctx context.Context, data []entity.CashDrawerTransaction) error {
				return infraRepo.NewCashDrawerRepository(tx).Upsert(ctx, data)
			},
			func(s entity.CashDrawerTransaction) time.Time { return s.UpdatedAt }),
	}

	for _, p := range pulls {
		if err := o.Register(p); err != nil {
			return err
		}
	}

	o.RegisterPusher(EntityOrder, orderPusher(gw))
	o.RegisterPusher(EntityShift, payloadPusher(gw, remote.PushShifts))
	o.RegisterPusher(EntityCustomer, customerPusher(gw))
	o.RegisterPusher(EntitySettings, payloadPusher(gw, remote.UpdateSettings))
	o.RegisterPusher(EntityProduct, payloadPusher(gw, remote.PushStock))
	return nil
}

// pullSync builds the standard pull: fetch one page since the watermark,
// then write the page and advance the cursor in one transaction. The cursor
// never moves unless the page write commits. The server wraps every page as
// {"results": [...], "total": N} where total counts all records past the
// watermark; a page smaller than total means more pages follow.
func pullSync[T any](
	db *gorm.DB,
	gw *remote.Gateway,
	name string,
	deps []string,
	ep remote.Endpoint,
	apply func(tx *gorm.DB, ctx context.Context, data []T) error,
	updatedAt func(T) time.Time,
) EntitySync {
	return EntitySync{
		Name:      name,
		DependsOn: deps,
		Pull: func(ctx context.Context, since time.Time, limit int) (int, bool, time.Time, error) {
			var out struct {
				Results []T   `json:"results"`
				Total   int64 `json:"total"`
			}
			_, err := gw.Do(ctx, remote.Request{
				Endpoint: ep,
				Query:    sinceQuery(since, limit),
				Out:      &out,
			})
			if err != nil {
				return 0, false, since, err
			}
			if len(out.Results) == 0 {
				return 0, false, since, nil
			}
			more := out.Total > int64(len(out.Results))

			next := since
			for _, rec := range out.Results {
				if at := updatedAt(rec); at.After(next) {
					next = at
				}
			}

			err = database.WithTx(ctx, db, func(tx *gorm.DB) error {
				if err := apply(tx, ctx, out.Results); err != nil {
					return err
				}
				return infraRepo.NewSyncCursorRepository(tx).Advance(ctx, name, next)
			})
			if err != nil {
				return 0, false, since, err
			}
			return len(out.Results), more, next, nil
		},
	}
}

// upsertServerOrders writes pulled orders but never clobbers an order this
// device has mutated and not yet pushed: local wins until the push queue
// drains, then the server's copy flows back on the next pull.
func upsertServerOrders(tx *gorm.DB, ctx context.Context, orders []entity.Order) error {
	var queuedIDs []string
	if err := tx.WithContext(ctx).Model(&entity.PushMutation{}).
		Where("entity = ?", EntityOrder).
		Pluck("record_id", &queuedIDs).Error; err != nil {
		return err
	}
	queued := make(map[string]bool, len(queuedIDs))
	for _, id := range queuedIDs {
		queued[id] = true
	}

	writable := orders[:0]
	for _, o := range orders {
		if !queued[o.ID.String()] {
			writable = append(writable, o)
		}
	}
	return infraRepo.NewOrderRepository(tx).Upsert(ctx, writable)
}

func sinceQuery(since time.Time, limit int) url.Values {
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if !since.IsZero() {
		q.Set("last_synced_at", since.UTC().Format(time.RFC3339Nano))
	}
	return q
}

// payloadPusher forwards the queued mutation's stored payload verbatim, so
// what was captured at write time is exactly what the server receives.
func payloadPusher(gw *remote.Gateway, ep remote.Endpoint) Pusher {
	return func(ctx context.Context, m entity.PushMutation) error {
		_, err := gw.Do(ctx, remote.Request{
			Endpoint: ep,
			Body:     json.RawMessage(m.Payload),
		})
		return err
	}
}

// orderPusher routes a queued order mutation to the endpoint matching its
// op. Creates post the full document; later edits patch the existing remote
// order, and bare status changes use the narrower status endpoint.
func orderPusher(gw *remote.Gateway) Pusher {
	return func(ctx context.Context, m entity.PushMutation) error {
		ep := remote.PushOrders
		switch m.Op {
		case "update":
			ep = remote.UpdateOrder
		case "status":
			ep = remote.UpdateOrderStatus
		}
		_, err := gw.Do(ctx, remote.Request{
			Endpoint:   ep,
			PathParams: map[string]string{"id": m.RecordID.String()},
			Body:       json.RawMessage(m.Payload),
		})
		return err
	}
}

// customerPusher routes customer mutations. Wallet and credit redemptions
// go to the dedicated command endpoint; everything else is the plain
// document push.
func customerPusher(gw *remote.Gateway) Pusher {
	return func(ctx context.Context, m entity.PushMutation) error {
		if m.Op == "redeem" {
			_, err := gw.Do(ctx, remote.Request{
				Endpoint:   remote.RedeemFunds,
				PathParams: map[string]string{"id": m.RecordID.String()},
				Body:       json.RawMessage(m.Payload),
			})
			return err
		}
		_, err := gw.Do(ctx, remote.Request{
			Endpoint: remote.PushCustomers,
			Body:     json.RawMessage(m.Payload),
		})
		return err
	}
}
