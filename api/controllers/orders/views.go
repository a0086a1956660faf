package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/streetcart/groupbuy-backend/api/middleware"
	"github.com/streetcart/groupbuy-backend/internal/participation"
	"github.com/streetcart/groupbuy-backend/pkg/db/models"
	"github.com/streetcart/groupbuy-backend/pkg/enums"
	"github.com/streetcart/groupbuy-backend/pkg/geo"
)

// OrderView is the API shape of a group order. Suppliers see every
// participant of their own orders; vendors only see their own participation.
type OrderView struct {
	ID                  uuid.UUID         `json:"id"`
	SupplierID          uuid.UUID         `json:"supplier_id"`
	SupplierName        string            `json:"supplier_name"`
	Item                string            `json:"item"`
	Description         string            `json:"description"`
	Unit                string            `json:"unit"`
	BulkPrice           decimal.Decimal   `json:"bulk_price"`
	OriginalPrice       decimal.Decimal   `json:"original_price"`
	MinQuantity         int               `json:"min_quantity"`
	MaxQuantity         int               `json:"max_quantity"`
	TotalQuantity       int               `json:"total_quantity"`
	Remaining           int               `json:"remaining"`
	Deadline            time.Time         `json:"deadline"`
	Location            string            `json:"location"`
	LocationName        string            `json:"location_name"`
	Coordinates         geo.Coordinate    `json:"coordinates"`
	DeliveryChargePerKm decimal.Decimal   `json:"delivery_charge_per_km"`
	ContactPhone        string            `json:"contact_phone"`
	Status              enums.OrderStatus `json:"status"`
	ParticipantCount    int               `json:"participant_count"`
	Participants        []ParticipantView `json:"participants,omitempty"`
	Joined              bool              `json:"joined"`
	MyParticipation     *ParticipantView  `json:"my_participation,omitempty"`
	Version             int64             `json:"version"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// ParticipantView is one vendor's commitment with its computed bill.
type ParticipantView struct {
	ID             uuid.UUID              `json:"id"`
	VendorID       uuid.UUID              `json:"vendor_id"`
	VendorName     string                 `json:"vendor_name"`
	Quantity       int                    `json:"quantity"`
	VendorLocation geo.OptionalCoordinate `json:"vendor_location"`
	VendorPhone    *string                `json:"vendor_phone,omitempty"`
	HasReviewed    bool                   `json:"has_reviewed"`
	JoinedAt       time.Time              `json:"joined_at"`
	Totals         participation.Totals   `json:"totals"`
}

func newParticipantView(order *models.GroupOrder, p *models.Participant) ParticipantView {
	return ParticipantView{
		ID:             p.ID,
		VendorID:       p.VendorID,
		VendorName:     p.VendorName,
		Quantity:       p.Quantity,
		VendorLocation: p.VendorLocation(),
		VendorPhone:    p.VendorPhone,
		HasReviewed:    p.HasReviewed,
		JoinedAt:       p.JoinedAt,
		Totals:         participation.VendorTotals(order, p),
	}
}

func newOrderView(order *models.GroupOrder, viewer middleware.Identity) OrderView {
	view := OrderView{
		ID:                  order.ID,
		SupplierID:          order.SupplierID,
		SupplierName:        order.SupplierName,
		Item:                order.Item,
		Description:         order.Description,
		Unit:                order.Unit,
		BulkPrice:           order.BulkPrice,
		OriginalPrice:       order.OriginalPrice,
		MinQuantity:         order.MinQuantity,
		MaxQuantity:         order.MaxQuantity,
		TotalQuantity:       order.TotalQuantity,
		Remaining:           order.Remaining(),
		Deadline:            order.Deadline,
		Location:            order.LegacyLocation(),
		LocationName:        order.LocationName,
		Coordinates:         order.Location,
		DeliveryChargePerKm: order.DeliveryChargePerKm,
		ContactPhone:        order.ContactPhone,
		Status:              order.Status,
		ParticipantCount:    len(order.Participants),
		Version:             order.Version,
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
	}
	if viewer.Role == enums.UserRoleSupplier && viewer.UserID == order.SupplierID {
		view.Participants = make([]ParticipantView, 0, len(order.Participants))
		for i := range order.Participants {
			view.Participants = append(view.Participants, newParticipantView(order, &order.Participants[i]))
		}
	}
	if p := order.Participant(viewer.UserID); p != nil {
		mine := newParticipantView(order, p)
		view.Joined = true
		view.MyParticipation = &mine
	}
	return view
}

func newOrderViews(orders []models.GroupOrder, viewer middleware.Identity) []OrderView {
	out := make([]OrderView, 0, len(orders))
	for i := range orders {
		out = append(out, newOrderView(&orders[i], viewer))
	}
	return out
}

// ReviewView is a vendor's rating as returned to clients.
type ReviewView struct {
	ID         uuid.UUID `json:"id"`
	OrderID    uuid.UUID `json:"order_id"`
	VendorID   uuid.UUID `json:"vendor_id"`
	VendorName string    `json:"vendor_name"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

func newReviewView(r *models.Review) ReviewView {
	return ReviewView{
		ID:         r.ID,
		OrderID:    r.OrderID,
		VendorID:   r.VendorID,
		VendorName: r.VendorName,
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
	}
}
