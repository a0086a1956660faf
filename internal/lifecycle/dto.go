package lifecycle

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/streetcart/groupbuy-backend/internal/grouporders"
	"github.com/streetcart/groupbuy-backend/pkg/db/models"
	"github.com/streetcart/groupbuy-backend/pkg/enums"
	"github.com/streetcart/groupbuy-backend/pkg/geo"
	"github.com/streetcart/groupbuy-backend/pkg/outbox"
)

// Actor identifies the authenticated user driving a lifecycle action.
type Actor struct {
	UserID uuid.UUID
	Name   string
	Role   enums.UserRole
}

func (a Actor) ref() *outbox.ActorRef {
	return &outbox.ActorRef{UserID: a.UserID, Role: a.Role}
}

// OrderInput is the supplier-editable shape of an order, shared by create and edit.
// A nil Location means no coordinate was selected. A nil DeliveryChargePerKm
// uses the configured default on create and keeps the current rate on edit.
type OrderInput struct {
	Item                string
	Description         string
	Unit                string
	BulkPrice           decimal.Decimal
	OriginalPrice       decimal.Decimal
	MinQuantity         int
	MaxQuantity         int
	Deadline            time.Time
	LocationName        string
	Location            *geo.Coordinate
	DeliveryChargePerKm *decimal.Decimal
	ContactPhone        string
}

func (in OrderInput) normalized() OrderInput {
	in.Item = strings.TrimSpace(in.Item)
	in.Description = strings.TrimSpace(in.Description)
	in.Unit = strings.TrimSpace(in.Unit)
	in.LocationName = strings.TrimSpace(in.LocationName)
	in.ContactPhone = strings.TrimSpace(in.ContactPhone)
	return in
}

func (in OrderInput) createInput(rate decimal.Decimal) grouporders.CreateOrderInput {
	return grouporders.CreateOrderInput{
		Item:                in.Item,
		Description:         in.Description,
		Unit:                in.Unit,
		BulkPrice:           in.BulkPrice,
		OriginalPrice:       in.OriginalPrice,
		MinQuantity:         in.MinQuantity,
		MaxQuantity:         in.MaxQuantity,
		Deadline:            in.Deadline.UTC(),
		LocationName:        in.LocationName,
		Location:            *in.Location,
		DeliveryChargePerKm: rate,
		ContactPhone:        in.ContactPhone,
	}
}

// EditResult reports an edit and how many participants had their delivery
// charge recomputed because of it.
type EditResult struct {
	Order        *models.GroupOrder
	Recalculated int
}

// DeliveryChargesUpdated reports whether the edit repriced any participant.
func (r EditResult) DeliveryChargesUpdated() bool {
	return r.Recalculated > 0
}

// ReviewInput is a vendor's rating of a completed order.
type ReviewInput struct {
	Rating  int
	Comment string
}
