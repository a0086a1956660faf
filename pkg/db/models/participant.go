package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/streetcart/groupbuy-backend/pkg/geo"
)

// Participant is a vendor's commitment within one group order.
type Participant struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID       `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_participants_order_vendor"`
	VendorID       uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:ux_participants_order_vendor;index"`
	VendorName     string          `gorm:"column:vendor_name;not null"`
	Quantity       int             `gorm:"column:quantity;not null"`
	VendorLat      *float64        `gorm:"column:vendor_lat"`
	VendorLng      *float64        `gorm:"column:vendor_lng"`
	VendorPhone    *string         `gorm:"column:vendor_phone"`
	DeliveryCharge decimal.Decimal `gorm:"column:delivery_charge;type:numeric(12,2);not null;default:0"`
	HasReviewed    bool            `gorm:"column:has_reviewed;not null;default:false"`
	JoinedAt       time.Time       `gorm:"column:joined_at;not null"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Participant) TableName() string { return "participants" }

// VendorLocation exposes the nullable columns as an optional coordinate.
func (p Participant) VendorLocation() geo.OptionalCoordinate {
	return geo.FromNullable(p.VendorLat, p.VendorLng)
}

// SetVendorLocation stores loc, clearing both columns when absent.
func (p *Participant) SetVendorLocation(loc geo.OptionalCoordinate) {
	p.VendorLat, p.VendorLng = loc.Nullable()
}
