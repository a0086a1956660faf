package participation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/streetcart/groupbuy-backend/internal/grouporders"
	"github.com/streetcart/groupbuy-backend/pkg/db/models"
	"github.com/streetcart/groupbuy-backend/pkg/enums"
	pkgerrors "github.com/streetcart/groupbuy-backend/pkg/errors"
	"github.com/streetcart/groupbuy-backend/pkg/geo"
	"github.com/streetcart/groupbuy-backend/pkg/outbox"
)

const (
	OperationJoin           = "join"
	OperationUpdateQuantity = "update_quantity"
	OperationUpdateContact  = "update_contact"
	OperationRemove         = "remove"

	OperationUpdateParticipation = "update_participation"
)

// JoinInput describes a vendor's request to participate in an order.
type JoinInput struct {
	OrderID        uuid.UUID
	VendorID       uuid.UUID
	VendorName     string
	Quantity       int
	VendorLocation geo.OptionalCoordinate
	VendorPhone    *string
}

// ContactInput is a partial update of a participant's contact details.
// A nil field is left untouched.
type ContactInput struct {
	Phone    *string
	Location *geo.OptionalCoordinate
}

// Join adds the vendor to the order and accepts the order once the minimum is reached.
func (e *Engine) Join(ctx context.Context, input JoinInput) (*models.GroupOrder, error) {
	return e.Execute(ctx, input.OrderID, Mutation{
		Operation: OperationJoin,
		Actor:     vendorActor(input.VendorID),
		Reason:    "minimum quantity reached",
		Apply: func(ctx context.Context, repo grouporders.Repository, order *models.GroupOrder) error {
			if !order.Status.AcceptsParticipation() {
				return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is %s and no longer accepts participants", order.Status))
			}
			if existing := order.Participant(input.VendorID); existing != nil {
				return pkgerrors.New(pkgerrors.CodeDuplicateParticipation, "vendor already participates in this order").
					WithDetails(map[string]any{"existing_participant_id": existing.ID.String()})
			}
			if input.Quantity <= 0 {
				return FieldError("quantity", "quantity must be greater than zero")
			}
			if remaining := order.Remaining(); input.Quantity > remaining {
				return capacityError(remaining)
			}
			name := strings.TrimSpace(input.VendorName)
			if name == "" {
				return FieldError("vendor_name", "vendor name is required")
			}
			loc := input.VendorLocation
			if err := validateContact(input.VendorPhone, &loc); err != nil {
				return err
			}

			participant := &models.Participant{
				OrderID:        order.ID,
				VendorID:       input.VendorID,
				VendorName:     name,
				Quantity:       input.Quantity,
				DeliveryCharge: DeliveryCharge(order.Location, loc, order.DeliveryChargePerKm),
				JoinedAt:       e.now().UTC(),
			}
			if input.VendorPhone != nil && *input.VendorPhone != "" {
				phone := *input.VendorPhone
				participant.VendorPhone = &phone
			}
			participant.SetVendorLocation(loc)
			_, err := repo.AddParticipant(ctx, participant)
			return err
		},
		Next: func(order *models.GroupOrder, _ int) enums.OrderStatus {
			if order.Status == enums.OrderStatusOpen && order.TotalQuantity >= order.MinQuantity {
				return enums.OrderStatusAccepted
			}
			return order.Status
		},
		Events: func(order *models.GroupOrder) []outbox.DomainEvent {
			return []outbox.DomainEvent{participationEvent(enums.EventParticipantJoined, order, input.VendorID, input.Quantity)}
		},
	})
}

// ParticipationUpdate changes a vendor's quantity and contact details in one
// transaction. Nil fields are left untouched.
type ParticipationUpdate struct {
	Quantity *int
	Contact  ContactInput
}

func (u ParticipationUpdate) empty() bool {
	return u.Quantity == nil && u.Contact.Phone == nil && u.Contact.Location == nil
}

// UpdateQuantity changes the vendor's committed quantity. Any change to an
// accepted order sends it back to open for the supplier to re-confirm.
func (e *Engine) UpdateQuantity(ctx context.Context, orderID, vendorID uuid.UUID, quantity int) (*models.GroupOrder, error) {
	return e.updateParticipation(ctx, OperationUpdateQuantity, orderID, vendorID, ParticipationUpdate{Quantity: &quantity})
}

// UpdateContact changes the vendor's phone and/or location. A location change
// reprices the participant's delivery charge.
func (e *Engine) UpdateContact(ctx context.Context, orderID, vendorID uuid.UUID, input ContactInput) (*models.GroupOrder, error) {
	return e.updateParticipation(ctx, OperationUpdateContact, orderID, vendorID, ParticipationUpdate{Contact: input})
}

// UpdateParticipation applies a quantity change and a contact change
// together. Both are validated before anything is written, so a rejected
// request leaves the participant as it was.
func (e *Engine) UpdateParticipation(ctx context.Context, orderID, vendorID uuid.UUID, update ParticipationUpdate) (*models.GroupOrder, error) {
	return e.updateParticipation(ctx, OperationUpdateParticipation, orderID, vendorID, update)
}

func (e *Engine) updateParticipation(ctx context.Context, operation string, orderID, vendorID uuid.UUID, update ParticipationUpdate) (*models.GroupOrder, error) {
	if update.empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	if update.Quantity != nil && *update.Quantity <= 0 {
		return nil, FieldError("quantity", "quantity must be greater than zero")
	}
	if err := validateContact(update.Contact.Phone, update.Contact.Location); err != nil {
		return nil, err
	}

	delta := 0
	return e.Execute(ctx, orderID, Mutation{
		Operation: operation,
		Actor:     vendorActor(vendorID),
		Reason:    "participant quantity changed",
		Apply: func(ctx context.Context, repo grouporders.Repository, order *models.GroupOrder) error {
			if !order.Status.IsActive() {
				return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is %s and can no longer be changed", order.Status))
			}
			current := order.Participant(vendorID)
			if current == nil {
				return pkgerrors.New(pkgerrors.CodeNotFound, "participant not found")
			}

			var patch grouporders.ParticipantPatch
			if update.Quantity != nil {
				quantity := *update.Quantity
				delta = quantity - current.Quantity
				if order.TotalQuantity+delta > order.MaxQuantity {
					return capacityError(order.MaxQuantity - (order.TotalQuantity - current.Quantity))
				}
				if delta != 0 {
					patch.Quantity = &quantity
				}
			}
			patch.VendorPhone = update.Contact.Phone
			if loc := update.Contact.Location; loc != nil && !loc.Equal(current.VendorLocation()) {
				charge := DeliveryCharge(order.Location, *loc, order.DeliveryChargePerKm)
				patch.VendorLocation = loc
				patch.DeliveryCharge = &charge
			}
			if patch.Quantity == nil && patch.VendorPhone == nil && patch.VendorLocation == nil {
				return nil
			}
			_, err := repo.UpdateParticipant(ctx, orderID, vendorID, patch)
			return err
		},
		Next: func(order *models.GroupOrder, _ int) enums.OrderStatus {
			if update.Quantity == nil {
				return order.Status
			}
			switch {
			case order.Status == enums.OrderStatusAccepted && delta != 0:
				return enums.OrderStatusOpen
			case order.Status == enums.OrderStatusOpen && order.TotalQuantity >= order.MinQuantity:
				return enums.OrderStatusAccepted
			default:
				return order.Status
			}
		},
		Events: func(order *models.GroupOrder) []outbox.DomainEvent {
			p := order.Participant(vendorID)
			if p == nil || (delta == 0 && update.Contact.Phone == nil && update.Contact.Location == nil) {
				return nil
			}
			return []outbox.DomainEvent{participationEvent(enums.EventParticipantUpdated, order, vendorID, p.Quantity)}
		},
	})
}

// Remove withdraws the vendor from the order. An accepted order always
// reverts to open.
func (e *Engine) Remove(ctx context.Context, orderID, vendorID uuid.UUID) (*models.GroupOrder, error) {
	removed := 0
	return e.Execute(ctx, orderID, Mutation{
		Operation: OperationRemove,
		Actor:     vendorActor(vendorID),
		Reason:    "participant left",
		Apply: func(ctx context.Context, repo grouporders.Repository, order *models.GroupOrder) error {
			if !order.Status.IsActive() {
				return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is %s and can no longer be changed", order.Status))
			}
			current := order.Participant(vendorID)
			if current == nil {
				return pkgerrors.New(pkgerrors.CodeNotFound, "participant not found")
			}
			removed = current.Quantity
			return repo.RemoveParticipant(ctx, orderID, vendorID)
		},
		Next: func(order *models.GroupOrder, _ int) enums.OrderStatus {
			if order.Status == enums.OrderStatusAccepted {
				return enums.OrderStatusOpen
			}
			return order.Status
		},
		Events: func(order *models.GroupOrder) []outbox.DomainEvent {
			return []outbox.DomainEvent{participationEvent(enums.EventParticipantLeft, order, vendorID, removed)}
		},
	})
}

func capacityError(remaining int) error {
	if remaining < 0 {
		remaining = 0
	}
	return pkgerrors.New(pkgerrors.CodeCapacityExceeded, fmt.Sprintf("only %d remaining", remaining)).
		WithDetails(map[string]any{"remaining": remaining})
}
