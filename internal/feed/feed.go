// Package feed delivers full group order snapshots to subscribers whenever an
// order changes, with a periodic resync as a backstop for lost notifications.
package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/streetcart/groupbuy-backend/pkg/db/models"
	"github.com/streetcart/groupbuy-backend/pkg/logger"
)

const defaultResyncInterval = 30 * time.Second

// Callback receives the complete current set of orders, never a diff.
type Callback func(ctx context.Context, orders []models.GroupOrder)

// Source loads the snapshot.
type Source interface {
	ListOrders(ctx context.Context) ([]models.GroupOrder, error)
}

type subscriber struct {
	id uint64
	cb Callback
}

// Feed fans snapshots out to subscribers. Triggers arriving while a snapshot is
// being delivered are coalesced into a single follow-up delivery.
type Feed struct {
	source Source
	logg   *logger.Logger
	resync time.Duration

	mu     sync.Mutex
	subs   map[uint64]*subscriber
	nextID uint64

	trigger chan struct{}
}

func New(source Source, logg *logger.Logger, resync time.Duration) *Feed {
	if resync <= 0 {
		resync = defaultResyncInterval
	}
	return &Feed{
		source:  source,
		logg:    logg,
		resync:  resync,
		subs:    make(map[uint64]*subscriber),
		trigger: make(chan struct{}, 1),
	}
}

// Subscribe registers cb and schedules a delivery so the new subscriber gets
// the current set promptly. The returned function unsubscribes.
func (f *Feed) Subscribe(cb Callback) func() {
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	f.subs[id] = &subscriber{id: id, cb: cb}
	f.mu.Unlock()

	f.Trigger()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Subscribers reports the number of live subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Trigger requests a snapshot delivery without blocking.
func (f *Feed) Trigger() {
	select {
	case f.trigger <- struct{}{}:
	default:
	}
}

// Run delivers snapshots until ctx is done.
func (f *Feed) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.resync)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.trigger:
		case <-ticker.C:
		}
		f.Broadcast(ctx)
	}
}

// Broadcast loads the current orders and hands them to every subscriber.
func (f *Feed) Broadcast(ctx context.Context) {
	subs := f.snapshotSubscribers()
	if len(subs) == 0 {
		return
	}
	orders, err := f.source.ListOrders(ctx)
	if err != nil {
		if f.logg != nil {
			f.logg.Error(ctx, "order feed snapshot failed", err)
		}
		return
	}
	for i := range orders {
		orders[i].RecomputeTotal()
	}
	for _, sub := range subs {
		f.deliver(ctx, sub, cloneOrders(orders))
	}
}

func (f *Feed) snapshotSubscribers() []*subscriber {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*subscriber, 0, len(f.subs))
	for _, sub := range f.subs {
		out = append(out, sub)
	}
	return out
}

func (f *Feed) deliver(ctx context.Context, sub *subscriber, orders []models.GroupOrder) {
	defer func() {
		if r := recover(); r != nil && f.logg != nil {
			f.logg.Error(f.logg.WithField(ctx, "subscriber_id", sub.id), "order feed subscriber panicked", fmt.Errorf("%v", r))
		}
	}()
	sub.cb(ctx, orders)
}

func cloneOrders(src []models.GroupOrder) []models.GroupOrder {
	out := make([]models.GroupOrder, len(src))
	for i, o := range src {
		out[i] = o
		out[i].Participants = append([]models.Participant(nil), o.Participants...)
		if out[i].Participants == nil {
			out[i].Participants = []models.Participant{}
		}
	}
	return out
}
