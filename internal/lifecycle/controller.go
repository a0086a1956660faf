package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/streetcart/groupbuy-backend/internal/grouporders"
	"github.com/streetcart/groupbuy-backend/internal/participation"
	"github.com/streetcart/groupbuy-backend/pkg/db/models"
	"github.com/streetcart/groupbuy-backend/pkg/enums"
	pkgerrors "github.com/streetcart/groupbuy-backend/pkg/errors"
	"github.com/streetcart/groupbuy-backend/pkg/logger"
	"github.com/streetcart/groupbuy-backend/pkg/outbox"
	"github.com/streetcart/groupbuy-backend/pkg/outbox/payloads"
)

const (
	OperationEdit         = "edit"
	OperationAccept       = "accept"
	OperationProcessEarly = "process_early"
	OperationComplete     = "complete"
	OperationCancel       = "cancel"
	OperationReview       = "review"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type executor interface {
	Execute(ctx context.Context, orderID uuid.UUID, m participation.Mutation) (*models.GroupOrder, error)
	NotifyChanged(ctx context.Context, orderID uuid.UUID)
}

// Controller drives supplier and vendor actions on the order state machine.
type Controller interface {
	Create(ctx context.Context, supplier Actor, input OrderInput) (*models.GroupOrder, error)
	Edit(ctx context.Context, supplier Actor, orderID uuid.UUID, input OrderInput) (EditResult, error)
	Accept(ctx context.Context, supplier Actor, orderID uuid.UUID) (*models.GroupOrder, error)
	ProcessEarly(ctx context.Context, supplier Actor, orderID uuid.UUID) (*models.GroupOrder, error)
	Complete(ctx context.Context, supplier Actor, orderID uuid.UUID) (*models.GroupOrder, error)
	Cancel(ctx context.Context, supplier Actor, orderID uuid.UUID) (*models.GroupOrder, error)
	Delete(ctx context.Context, actor Actor, orderID uuid.UUID) error
	SubmitReview(ctx context.Context, vendor Actor, orderID uuid.UUID, input ReviewInput) (*models.Review, error)

	Get(ctx context.Context, orderID uuid.UUID) (*models.GroupOrder, error)
	SupplierOrders(ctx context.Context, supplierID uuid.UUID) ([]models.GroupOrder, error)
	OpenOrders(ctx context.Context) ([]models.GroupOrder, error)
	VendorParticipations(ctx context.Context, vendorID uuid.UUID) ([]models.GroupOrder, error)
	SupplierReviews(ctx context.Context, supplierID uuid.UUID) ([]models.Review, error)
}

type controller struct {
	repo        grouporders.Repository
	tx          txRunner
	outbox      outbox.Emitter
	engine      executor
	defaultRate decimal.Decimal
	logg        *logger.Logger
}

// NewController builds a lifecycle controller. defaultRate is the per-km
// delivery rate applied when a new order omits it.
func NewController(repo grouporders.Repository, tx txRunner, emitter outbox.Emitter, engine executor, defaultRate decimal.Decimal, logg *logger.Logger) (Controller, error) {
	if repo == nil {
		return nil, fmt.Errorf("group order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if engine == nil {
		return nil, fmt.Errorf("participation engine required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &controller{
		repo:        repo,
		tx:          tx,
		outbox:      emitter,
		engine:      engine,
		defaultRate: defaultRate,
		logg:        logg,
	}, nil
}

func (c *controller) Create(ctx context.Context, supplier Actor, input OrderInput) (*models.GroupOrder, error) {
	if err := requireRole(supplier, enums.UserRoleSupplier); err != nil {
		return nil, err
	}
	input = input.normalized()
	if err := validateOrder(input, 0); err != nil {
		return nil, err
	}
	rate := c.defaultRate
	if input.DeliveryChargePerKm != nil {
		rate = *input.DeliveryChargePerKm
	}

	var created *models.GroupOrder
	err := c.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := c.repo.WithTx(tx).CreateOrder(ctx, input.createInput(rate), supplier.UserID, supplier.Name)
		if err != nil {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventGroupOrderCreated,
			AggregateType: enums.AggregateGroupOrder,
			AggregateID:   order.ID,
			Actor:         supplier.ref(),
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				SupplierID:  order.SupplierID,
				Item:        order.Item,
				MinQuantity: order.MinQuantity,
				MaxQuantity: order.MaxQuantity,
				Deadline:    order.Deadline,
			},
		}
		if err := c.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.WrapStore(err, "queue order created event")
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, pkgerrors.WrapStore(err, "create group order")
	}
	c.logg.Info(c.logg.WithOrderID(ctx, created.ID.String()), "group order created")
	c.engine.NotifyChanged(ctx, created.ID)
	return created, nil
}

func (c *controller) Edit(ctx context.Context, supplier Actor, orderID uuid.UUID, input OrderInput) (EditResult, error) {
	input = input.normalized()
	var (
		fields       []string
		recalculated int
	)
	order, err := c.engine.Execute(ctx, orderID, participation.Mutation{
		Operation: OperationEdit,
		Actor:     supplier.ref(),
		Apply: func(ctx context.Context, repo grouporders.Repository, order *models.GroupOrder) error {
			if err := requireOwner(order, supplier); err != nil {
				return err
			}
			if order.Status != enums.OrderStatusOpen {
				return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("only open orders can be edited; order is %s", order.Status))
			}
			if err := validateOrder(input, order.TotalQuantity); err != nil {
				return err
			}
			fields = applyEdit(order, input)
			repriced := hasField(fields, "location") || hasField(fields, "delivery_charge_per_km")
			if repriced && len(order.Participants) > 0 {
				n, err := participation.RecalculateDeliveryCharges(ctx, repo, order)
				if err != nil {
					return err
				}
				recalculated = n
			}
			return nil
		},
		Events: func(order *models.GroupOrder) []outbox.DomainEvent {
			events := []outbox.DomainEvent{{
				EventType:     enums.EventGroupOrderUpdated,
				AggregateType: enums.AggregateGroupOrder,
				AggregateID:   order.ID,
				Data: payloads.OrderUpdatedEvent{
					OrderID:      order.ID,
					Fields:       fields,
					Recalculated: recalculated > 0,
				},
			}}
			if recalculated > 0 {
				events = append(events, outbox.DomainEvent{
					EventType:     enums.EventDeliveryChargesRecomputed,
					AggregateType: enums.AggregateGroupOrder,
					AggregateID:   order.ID,
					Data: payloads.DeliveryChargesRecomputedEvent{
						OrderID:      order.ID,
						RatePerKm:    order.DeliveryChargePerKm.StringFixed(2),
						Participants: recalculated,
					},
				})
			}
			return events
		},
	})
	if err != nil {
		return EditResult{}, err
	}
	return EditResult{Order: order, Recalculated: recalculated}, nil
}

// applyEdit copies input onto order and returns the names of changed fields.
func applyEdit(order *models.GroupOrder, in OrderInput) []string {
	changed := []string{}
	setString := func(name string, dst *string, v string) {
		if *dst != v {
			*dst = v
			changed = append(changed, name)
		}
	}
	setDecimal := func(name string, dst *decimal.Decimal, v decimal.Decimal) {
		if !dst.Equal(v) {
			*dst = v
			changed = append(changed, name)
		}
	}
	setInt := func(name string, dst *int, v int) {
		if *dst != v {
			*dst = v
			changed = append(changed, name)
		}
	}

	setString("item", &order.Item, in.Item)
	setString("description", &order.Description, in.Description)
	setString("unit", &order.Unit, in.Unit)
	setDecimal("bulk_price", &order.BulkPrice, in.BulkPrice)
	setDecimal("original_price", &order.OriginalPrice, in.OriginalPrice)
	setInt("min_quantity", &order.MinQuantity, in.MinQuantity)
	setInt("max_quantity", &order.MaxQuantity, in.MaxQuantity)
	if !order.Deadline.Equal(in.Deadline) {
		order.Deadline = in.Deadline.UTC()
		changed = append(changed, "deadline")
	}
	setString("location_name", &order.LocationName, in.LocationName)
	if order.Location != *in.Location {
		order.Location = *in.Location
		changed = append(changed, "location")
	}
	if in.DeliveryChargePerKm != nil {
		setDecimal("delivery_charge_per_km", &order.DeliveryChargePerKm, *in.DeliveryChargePerKm)
	}
	setString("contact_phone", &order.ContactPhone, in.ContactPhone)
	return changed
}

func hasField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

func (c *controller) Accept(ctx context.Context, supplier Actor, orderID uuid.UUID) (*models.GroupOrder, error) {
	return c.transition(ctx, supplier, orderID, OperationAccept, "accepted by supplier", enums.OrderStatusAccepted,
		func(order *models.GroupOrder) error {
			if !order.Status.IsActive() {
				return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot accept a %s order", order.Status))
			}
			return requireParticipants(order)
		}, nil)
}

func (c *controller) ProcessEarly(ctx context.Context, supplier Actor, orderID uuid.UUID) (*models.GroupOrder, error) {
	return c.transition(ctx, supplier, orderID, OperationProcessEarly, "processed early below minimum", enums.OrderStatusAccepted,
		func(order *models.GroupOrder) error {
			if order.Status != enums.OrderStatusOpen {
				return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("only open orders can be processed early; order is %s", order.Status))
			}
			if err := requireParticipants(order); err != nil {
				return err
			}
			if order.TotalQuantity >= order.MinQuantity {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "minimum quantity already reached; accept the order instead")
			}
			return nil
		},
		func(order *models.GroupOrder) []outbox.DomainEvent {
			return []outbox.DomainEvent{{
				EventType:     enums.EventGroupOrderProcessedEarly,
				AggregateType: enums.AggregateGroupOrder,
				AggregateID:   order.ID,
				Data: payloads.OrderProcessedEarlyEvent{
					OrderID:       order.ID,
					TotalQuantity: order.TotalQuantity,
					MinQuantity:   order.MinQuantity,
				},
			}}
		})
}

func (c *controller) Complete(ctx context.Context, supplier Actor, orderID uuid.UUID) (*models.GroupOrder, error) {
	return c.transition(ctx, supplier, orderID, OperationComplete, "completed by supplier", enums.OrderStatusCompleted,
		func(order *models.GroupOrder) error {
			if order.Status != enums.OrderStatusAccepted {
				return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("only accepted orders can be completed; order is %s", order.Status))
			}
			return nil
		}, nil)
}

func (c *controller) Cancel(ctx context.Context, supplier Actor, orderID uuid.UUID) (*models.GroupOrder, error) {
	return c.engine.Execute(ctx, orderID, participation.Mutation{
		Operation: OperationCancel,
		Actor:     supplier.ref(),
		Reason:    "cancelled by supplier",
		Apply: func(ctx context.Context, repo grouporders.Repository, order *models.GroupOrder) error {
			if err := requireOwner(order, supplier); err != nil {
				return err
			}
			if !order.Status.IsActive() {
				return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot cancel a %s order", order.Status))
			}
			_, err := repo.RemoveAllParticipants(ctx, order.ID)
			return err
		},
		Next: func(*models.GroupOrder, int) enums.OrderStatus {
			return enums.OrderStatusCancelled
		},
	})
}

// transition runs a supplier-owned status change guarded by check.
func (c *controller) transition(
	ctx context.Context,
	supplier Actor,
	orderID uuid.UUID,
	operation, reason string,
	to enums.OrderStatus,
	check func(order *models.GroupOrder) error,
	events func(order *models.GroupOrder) []outbox.DomainEvent,
) (*models.GroupOrder, error) {
	return c.engine.Execute(ctx, orderID, participation.Mutation{
		Operation: operation,
		Actor:     supplier.ref(),
		Reason:    reason,
		Apply: func(_ context.Context, _ grouporders.Repository, order *models.GroupOrder) error {
			if err := requireOwner(order, supplier); err != nil {
				return err
			}
			return check(order)
		},
		Next: func(*models.GroupOrder, int) enums.OrderStatus {
			return to
		},
		Events: events,
	})
}

func (c *controller) Delete(ctx context.Context, actor Actor, orderID uuid.UUID) error {
	err := c.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := c.repo.WithTx(tx)
		order, err := repo.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		switch {
		case actor.Role == enums.UserRoleSupplier && order.SupplierID == actor.UserID:
		case actor.Role == enums.UserRoleVendor && order.Participant(actor.UserID) != nil:
		default:
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the supplier or a participating vendor can delete this order")
		}
		if !order.Status.IsDeletable() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("only cancelled or completed orders can be deleted; order is %s", order.Status))
		}
		if err := repo.DeleteOrder(ctx, orderID); err != nil {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventGroupOrderDeleted,
			AggregateType: enums.AggregateGroupOrder,
			AggregateID:   orderID,
			Actor:         actor.ref(),
			Data: payloads.OrderDeletedEvent{
				OrderID:          orderID,
				Status:           order.Status,
				ParticipantCount: len(order.Participants),
			},
		}
		if err := c.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.WrapStore(err, "queue order deleted event")
		}
		return nil
	})
	if err != nil {
		return pkgerrors.WrapStore(err, "delete group order")
	}
	c.logg.Info(c.logg.WithOrderID(ctx, orderID.String()), "group order deleted")
	c.engine.NotifyChanged(ctx, orderID)
	return nil
}

func (c *controller) SubmitReview(ctx context.Context, vendor Actor, orderID uuid.UUID, input ReviewInput) (*models.Review, error) {
	if err := requireRole(vendor, enums.UserRoleVendor); err != nil {
		return nil, err
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, participation.FieldError("rating", "rating must be between 1 and 5")
	}
	var review *models.Review
	_, err := c.engine.Execute(ctx, orderID, participation.Mutation{
		Operation: OperationReview,
		Actor:     vendor.ref(),
		Apply: func(ctx context.Context, repo grouporders.Repository, order *models.GroupOrder) error {
			p, err := participation.MarkReviewed(ctx, repo, order, vendor.UserID)
			if err != nil {
				return err
			}
			created, err := repo.CreateReview(ctx, &models.Review{
				OrderID:    order.ID,
				SupplierID: order.SupplierID,
				VendorID:   vendor.UserID,
				VendorName: p.VendorName,
				Rating:     input.Rating,
				Comment:    strings.TrimSpace(input.Comment),
			})
			if err != nil {
				return err
			}
			review = created
			return nil
		},
		Events: func(order *models.GroupOrder) []outbox.DomainEvent {
			return []outbox.DomainEvent{{
				EventType:     enums.EventParticipantReviewSubmitted,
				AggregateType: enums.AggregateParticipant,
				AggregateID:   order.ID,
				Data: payloads.ReviewSubmittedEvent{
					OrderID:    order.ID,
					SupplierID: order.SupplierID,
					VendorID:   vendor.UserID,
					Rating:     input.Rating,
				},
			}}
		},
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (c *controller) Get(ctx context.Context, orderID uuid.UUID) (*models.GroupOrder, error) {
	order, err := c.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.RecomputeTotal()
	return order, nil
}

func (c *controller) SupplierOrders(ctx context.Context, supplierID uuid.UUID) ([]models.GroupOrder, error) {
	return recomputed(c.repo.ListOrdersBySupplier(ctx, supplierID))
}

func (c *controller) OpenOrders(ctx context.Context) ([]models.GroupOrder, error) {
	return recomputed(c.repo.ListOrdersByStatus(ctx, enums.OrderStatusOpen))
}

func (c *controller) VendorParticipations(ctx context.Context, vendorID uuid.UUID) ([]models.GroupOrder, error) {
	return recomputed(c.repo.ListOrdersByVendor(ctx, vendorID))
}

func (c *controller) SupplierReviews(ctx context.Context, supplierID uuid.UUID) ([]models.Review, error) {
	return c.repo.ListReviewsBySupplier(ctx, supplierID)
}

func recomputed(orders []models.GroupOrder, err error) ([]models.GroupOrder, error) {
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].RecomputeTotal()
	}
	return orders, nil
}

func requireRole(actor Actor, role enums.UserRole) error {
	if actor.Role != role {
		return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("only a %s can do this", role))
	}
	return nil
}

func requireOwner(order *models.GroupOrder, supplier Actor) error {
	if supplier.Role != enums.UserRoleSupplier || order.SupplierID != supplier.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the supplier who created this order can change it")
	}
	return nil
}

func requireParticipants(order *models.GroupOrder) error {
	if len(order.Participants) == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no participants")
	}
	return nil
}
