package participation

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/streetcart/groupbuy-backend/internal/grouporders"
	"github.com/streetcart/groupbuy-backend/pkg/db/models"
	"github.com/streetcart/groupbuy-backend/pkg/enums"
	pkgerrors "github.com/streetcart/groupbuy-backend/pkg/errors"
	"github.com/streetcart/groupbuy-backend/pkg/geo"
)

// DeliveryCharge prices the trip from the supplier to loc. The distance is
// kept to metre precision and the charge rounded to two decimals. An absent
// location or a non-positive rate yields zero.
func DeliveryCharge(supplier geo.Coordinate, loc geo.OptionalCoordinate, ratePerKm decimal.Decimal) decimal.Decimal {
	vendor, ok := loc.Get()
	if !ok || !ratePerKm.IsPositive() {
		return decimal.Zero
	}
	km := decimal.NewFromFloat(supplier.DistanceTo(vendor)).Round(3)
	return km.Mul(ratePerKm).Round(2)
}

// Totals is the per-vendor bill for one participation.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	Savings        decimal.Decimal `json:"savings"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	Total          decimal.Decimal `json:"total"`
}

// VendorTotals computes the bill of participant within order.
func VendorTotals(order *models.GroupOrder, participant *models.Participant) Totals {
	qty := decimal.NewFromInt(int64(participant.Quantity))
	subtotal := order.BulkPrice.Mul(qty).Round(2)
	savings := order.OriginalPrice.Sub(order.BulkPrice).Mul(qty).Round(2)
	return Totals{
		Subtotal:       subtotal,
		Savings:        savings,
		DeliveryCharge: participant.DeliveryCharge,
		Total:          subtotal.Add(participant.DeliveryCharge),
	}
}

// RecalculateDeliveryCharges reprices every participant of order that has a
// location, using the order's current coordinate and rate. It must run inside
// the caller's transaction and returns how many participants were repriced.
func RecalculateDeliveryCharges(ctx context.Context, repo grouporders.Repository, order *models.GroupOrder) (int, error) {
	updated := 0
	for i := range order.Participants {
		p := &order.Participants[i]
		loc := p.VendorLocation()
		if !loc.IsSet() {
			continue
		}
		charge := DeliveryCharge(order.Location, loc, order.DeliveryChargePerKm)
		if _, err := repo.UpdateParticipant(ctx, order.ID, p.VendorID, grouporders.ParticipantPatch{DeliveryCharge: &charge}); err != nil {
			return updated, err
		}
		p.DeliveryCharge = charge
		updated++
	}
	return updated, nil
}

// MarkReviewed flags the vendor's participation in a completed order as
// reviewed. The flag is set once; it runs inside the caller's transaction.
func MarkReviewed(ctx context.Context, repo grouporders.Repository, order *models.GroupOrder, vendorID uuid.UUID) (*models.Participant, error) {
	if order.Status != enums.OrderStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only completed orders can be reviewed")
	}
	p := order.Participant(vendorID)
	if p == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only participating vendors can review this order")
	}
	if p.HasReviewed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already reviewed")
	}
	reviewed := true
	if _, err := repo.UpdateParticipant(ctx, order.ID, vendorID, grouporders.ParticipantPatch{HasReviewed: &reviewed}); err != nil {
		return nil, err
	}
	p.HasReviewed = true
	return p, nil
}
