package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a vendor's rating of a completed group order.
type Review struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_reviews_order_vendor"`
	SupplierID uuid.UUID `gorm:"column:supplier_id;type:uuid;not null;index"`
	VendorID   uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:ux_reviews_order_vendor"`
	VendorName string    `gorm:"column:vendor_name;not null"`
	Rating     int       `gorm:"column:rating;not null"`
	Comment    string    `gorm:"column:comment;not null;default:''"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Review) TableName() string { return "reviews" }
