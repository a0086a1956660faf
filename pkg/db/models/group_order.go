package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/streetcart/groupbuy-backend/pkg/enums"
	"github.com/streetcart/groupbuy-backend/pkg/geo"
)

// GroupOrder is a supplier-posted bulk deal that vendors join by committing a quantity.
type GroupOrder struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SupplierID          uuid.UUID         `gorm:"column:supplier_id;type:uuid;not null;index"`
	SupplierName        string            `gorm:"column:supplier_name;not null"`
	Item                string            `gorm:"column:item;not null"`
	Description         string            `gorm:"column:description;not null"`
	Unit                string            `gorm:"column:unit;not null;default:''"`
	BulkPrice           decimal.Decimal   `gorm:"column:bulk_price;type:numeric(12,2);not null"`
	OriginalPrice       decimal.Decimal   `gorm:"column:original_price;type:numeric(12,2);not null"`
	MinQuantity         int               `gorm:"column:min_quantity;not null"`
	MaxQuantity         int               `gorm:"column:max_quantity;not null"`
	Deadline            time.Time         `gorm:"column:deadline;not null"`
	LocationName        string            `gorm:"column:location_name;not null"`
	Location            geo.Coordinate    `gorm:"embedded;embeddedPrefix:location_"`
	DeliveryChargePerKm decimal.Decimal   `gorm:"column:delivery_charge_per_km;type:numeric(12,2);not null;default:0"`
	ContactPhone        string            `gorm:"column:contact_phone;not null"`
	Status              enums.OrderStatus `gorm:"column:status;type:text;not null;default:'open'"`
	TotalQuantity       int               `gorm:"column:total_quantity;not null;default:0"`
	Version             int64             `gorm:"column:version;not null;default:1"`
	Participants        []Participant     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (GroupOrder) TableName() string { return "group_orders" }

// SumParticipants returns the participant count and committed quantity.
func (o *GroupOrder) SumParticipants() (int, int) {
	total := 0
	for _, p := range o.Participants {
		total += p.Quantity
	}
	return len(o.Participants), total
}

// RecomputeTotal re-derives TotalQuantity from the loaded participants.
func (o *GroupOrder) RecomputeTotal() {
	_, o.TotalQuantity = o.SumParticipants()
}

// Remaining is the quantity still available before MaxQuantity is reached.
func (o *GroupOrder) Remaining() int {
	remaining := o.MaxQuantity - o.TotalQuantity
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Participant returns the participation of vendorID, if any.
func (o *GroupOrder) Participant(vendorID uuid.UUID) *Participant {
	for i := range o.Participants {
		if o.Participants[i].VendorID == vendorID {
			return &o.Participants[i]
		}
	}
	return nil
}

// LegacyLocation renders the location in the "<name> [<lat>,<lng>]" form.
func (o *GroupOrder) LegacyLocation() string {
	return geo.FormatLegacyLocation(o.LocationName, geo.Some(o.Location))
}
