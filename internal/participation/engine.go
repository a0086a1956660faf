package participation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/streetcart/groupbuy-backend/internal/feed"
	"github.com/streetcart/groupbuy-backend/internal/grouporders"
	"github.com/streetcart/groupbuy-backend/pkg/db/models"
	"github.com/streetcart/groupbuy-backend/pkg/enums"
	pkgerrors "github.com/streetcart/groupbuy-backend/pkg/errors"
	"github.com/streetcart/groupbuy-backend/pkg/logger"
	"github.com/streetcart/groupbuy-backend/pkg/metrics"
	"github.com/streetcart/groupbuy-backend/pkg/outbox"
	"github.com/streetcart/groupbuy-backend/pkg/outbox/payloads"
)

const (
	defaultSweepAttempts  = 3
	defaultSweepBaseDelay = 100 * time.Millisecond
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Params wires the engine's collaborators. Notifier, Listeners and Metrics are optional.
type Params struct {
	DB             txRunner
	Repo           grouporders.Repository
	Outbox         outbox.Emitter
	Notifier       feed.Notifier
	Listeners      []StatusListener
	Metrics        *metrics.OrderMetrics
	Logger         *logger.Logger
	SweepAttempts  int
	SweepBaseDelay time.Duration
	Now            func() time.Time
}

// Engine enforces the participation rules of group orders. Every mutating
// call is one transaction over the order row and its participant rows.
type Engine struct {
	db             txRunner
	repo           grouporders.Repository
	outbox         outbox.Emitter
	notifier       feed.Notifier
	listeners      []StatusListener
	metrics        *metrics.OrderMetrics
	logg           *logger.Logger
	sweepAttempts  int
	sweepBaseDelay time.Duration
	now            func() time.Time
}

func NewEngine(p Params) (*Engine, error) {
	if p.DB == nil {
		return nil, errors.New("transaction runner is required")
	}
	if p.Repo == nil {
		return nil, errors.New("group order repository is required")
	}
	if p.Outbox == nil {
		return nil, errors.New("outbox emitter is required")
	}
	notifier := p.Notifier
	if notifier == nil {
		notifier = feed.NopNotifier{}
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	attempts := p.SweepAttempts
	if attempts <= 0 {
		attempts = defaultSweepAttempts
	}
	delay := p.SweepBaseDelay
	if delay <= 0 {
		delay = defaultSweepBaseDelay
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		db:             p.DB,
		repo:           p.Repo,
		outbox:         p.Outbox,
		notifier:       notifier,
		listeners:      p.Listeners,
		metrics:        p.Metrics,
		logg:           logg,
		sweepAttempts:  attempts,
		sweepBaseDelay: delay,
		now:            now,
	}, nil
}

// AddListener registers l for status changes committed after this call.
func (e *Engine) AddListener(l StatusListener) {
	if l != nil {
		e.listeners = append(e.listeners, l)
	}
}

// Mutation is one atomic read-modify-write of an order aggregate.
type Mutation struct {
	Operation string
	Actor     *outbox.ActorRef
	// Reason is recorded on the status change event, if any.
	Reason string
	// Apply runs after the order row is locked. It validates and then mutates
	// participant rows and order fields through repo.
	Apply func(ctx context.Context, repo grouporders.Repository, order *models.GroupOrder) error
	// Next picks the resulting status once the total has been re-derived from
	// the participant rows. Nil keeps the current status.
	Next func(order *models.GroupOrder, prevTotal int) enums.OrderStatus
	// Events returns the domain events to queue besides the status change.
	Events func(order *models.GroupOrder) []outbox.DomainEvent
}

// Execute runs m against orderID inside a transaction: lock the row, re-derive
// the total, apply, re-derive again, choose the status, save with the version
// guard and queue events. Listeners and the feed are told after commit.
// A mutation without Apply that changes nothing writes nothing.
func (e *Engine) Execute(ctx context.Context, orderID uuid.UUID, m Mutation) (*models.GroupOrder, error) {
	var (
		result  *models.GroupOrder
		from    enums.OrderStatus
		changed bool
	)
	err := e.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := e.repo.WithTx(tx)
		order, err := repo.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		storedTotal := order.TotalQuantity
		order.RecomputeTotal()
		from = order.Status
		prevTotal := order.TotalQuantity
		version := order.Version

		if m.Apply != nil {
			if err := m.Apply(ctx, repo, order); err != nil {
				return err
			}
		}

		participants, err := repo.ListParticipants(ctx, orderID)
		if err != nil {
			return err
		}
		order.Participants = participants
		order.RecomputeTotal()

		next := order.Status
		if m.Next != nil {
			next = m.Next(order, prevTotal)
		}
		if next != from {
			if !from.CanTransitionTo(next) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move order from "+string(from)+" to "+string(next))
			}
			order.Status = next
		}
		if m.Apply == nil && next == from && order.TotalQuantity == storedTotal {
			result = order
			return nil
		}
		changed = true

		if err := repo.SaveAggregate(ctx, order, version); err != nil {
			return err
		}

		events := []outbox.DomainEvent{}
		if m.Events != nil {
			events = append(events, m.Events(order)...)
		}
		if next != from {
			events = append(events, statusChangedEvent(order, from, next, m.Reason, m.Actor))
		}
		for _, event := range events {
			if event.Actor == nil {
				event.Actor = m.Actor
			}
			if err := e.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.WrapStore(err, "queue order event")
			}
		}
		result = order
		return nil
	})
	if err != nil {
		err = pkgerrors.WrapStore(err, m.Operation)
		e.observe(m.Operation, err)
		return nil, err
	}
	e.observe(m.Operation, nil)
	if changed {
		e.afterCommit(ctx, result, from)
	}
	return result, nil
}

func (e *Engine) afterCommit(ctx context.Context, order *models.GroupOrder, from enums.OrderStatus) {
	if err := e.notifier.Publish(ctx, order.ID); err != nil {
		e.logg.Warn(e.logg.WithFields(ctx, map[string]any{
			"order_id": order.ID.String(),
			"error":    err.Error(),
		}), "order change notification failed")
	}
	if order.Status == from {
		return
	}
	if e.metrics != nil {
		e.metrics.ObserveTransition(string(from), string(order.Status))
	}
	for _, l := range e.listeners {
		l.OnStatusChanged(ctx, *order, from, order.Status)
	}
}

// NotifyChanged tells the feed that orderID changed outside Execute.
func (e *Engine) NotifyChanged(ctx context.Context, orderID uuid.UUID) {
	if err := e.notifier.Publish(ctx, orderID); err != nil {
		e.logg.Warn(e.logg.WithFields(ctx, map[string]any{
			"order_id": orderID.String(),
			"error":    err.Error(),
		}), "order change notification failed")
	}
}

func (e *Engine) observe(operation string, err error) {
	if e.metrics == nil {
		return
	}
	outcome := "ok"
	if typed := pkgerrors.As(err); typed != nil {
		outcome = string(typed.Code())
	} else if err != nil {
		outcome = string(pkgerrors.CodeInternal)
	}
	e.metrics.ObserveOperation(operation, outcome)
}

func statusChangedEvent(order *models.GroupOrder, from, to enums.OrderStatus, reason string, actor *outbox.ActorRef) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     enums.EventGroupOrderStatusChanged,
		AggregateType: enums.AggregateGroupOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:          order.ID,
			From:             from,
			To:               to,
			Reason:           reason,
			TotalQuantity:    order.TotalQuantity,
			ParticipantCount: len(order.Participants),
		},
	}
}

func participationEvent(eventType enums.OutboxEventType, order *models.GroupOrder, vendorID uuid.UUID, quantity int) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateParticipant,
		AggregateID:   order.ID,
		Data: payloads.ParticipationEvent{
			OrderID:       order.ID,
			VendorID:      vendorID,
			Quantity:      quantity,
			TotalQuantity: order.TotalQuantity,
		},
	}
}

func vendorActor(vendorID uuid.UUID) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: vendorID, Role: enums.UserRoleVendor}
}
