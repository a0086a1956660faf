package grouporders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/streetcart/groupbuy-backend/pkg/enums"
	"github.com/streetcart/groupbuy-backend/pkg/geo"
)

// CreateOrderInput carries the supplier-provided fields of a new order.
type CreateOrderInput struct {
	Item                string
	Description         string
	Unit                string
	BulkPrice           decimal.Decimal
	OriginalPrice       decimal.Decimal
	MinQuantity         int
	MaxQuantity         int
	Deadline            time.Time
	LocationName        string
	Location            geo.Coordinate
	DeliveryChargePerKm decimal.Decimal
	ContactPhone        string
}

// OrderPatch is a merge patch; nil fields are left untouched.
type OrderPatch struct {
	Item                *string
	Description         *string
	Unit                *string
	BulkPrice           *decimal.Decimal
	OriginalPrice       *decimal.Decimal
	MinQuantity         *int
	MaxQuantity         *int
	Deadline            *time.Time
	LocationName        *string
	Location            *geo.Coordinate
	DeliveryChargePerKm *decimal.Decimal
	ContactPhone        *string
	Status              *enums.OrderStatus
	TotalQuantity       *int
}

func (p OrderPatch) updates() map[string]any {
	out := map[string]any{}
	if p.Item != nil {
		out["item"] = *p.Item
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	if p.Unit != nil {
		out["unit"] = *p.Unit
	}
	if p.BulkPrice != nil {
		out["bulk_price"] = *p.BulkPrice
	}
	if p.OriginalPrice != nil {
		out["original_price"] = *p.OriginalPrice
	}
	if p.MinQuantity != nil {
		out["min_quantity"] = *p.MinQuantity
	}
	if p.MaxQuantity != nil {
		out["max_quantity"] = *p.MaxQuantity
	}
	if p.Deadline != nil {
		out["deadline"] = p.Deadline.UTC()
	}
	if p.LocationName != nil {
		out["location_name"] = *p.LocationName
	}
	if p.Location != nil {
		out["location_lat"] = p.Location.Lat
		out["location_lng"] = p.Location.Lng
	}
	if p.DeliveryChargePerKm != nil {
		out["delivery_charge_per_km"] = *p.DeliveryChargePerKm
	}
	if p.ContactPhone != nil {
		out["contact_phone"] = *p.ContactPhone
	}
	if p.Status != nil {
		out["status"] = *p.Status
	}
	if p.TotalQuantity != nil {
		out["total_quantity"] = *p.TotalQuantity
	}
	return out
}

// ParticipantPatch is a merge patch over one participation. An empty
// VendorPhone clears the stored phone.
type ParticipantPatch struct {
	Quantity       *int
	VendorName     *string
	VendorLocation *geo.OptionalCoordinate
	VendorPhone    *string
	DeliveryCharge *decimal.Decimal
	HasReviewed    *bool
}

func (p ParticipantPatch) updates() map[string]any {
	out := map[string]any{}
	if p.Quantity != nil {
		out["quantity"] = *p.Quantity
	}
	if p.VendorName != nil {
		out["vendor_name"] = *p.VendorName
	}
	if p.VendorLocation != nil {
		lat, lng := p.VendorLocation.Nullable()
		out["vendor_lat"] = lat
		out["vendor_lng"] = lng
	}
	if p.VendorPhone != nil {
		if *p.VendorPhone == "" {
			out["vendor_phone"] = nil
		} else {
			out["vendor_phone"] = *p.VendorPhone
		}
	}
	if p.DeliveryCharge != nil {
		out["delivery_charge"] = *p.DeliveryCharge
	}
	if p.HasReviewed != nil {
		out["has_reviewed"] = *p.HasReviewed
	}
	return out
}
