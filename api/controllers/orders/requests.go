package orders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/streetcart/groupbuy-backend/internal/lifecycle"
	"github.com/streetcart/groupbuy-backend/internal/participation"
	pkgerrors "github.com/streetcart/groupbuy-backend/pkg/errors"
	"github.com/streetcart/groupbuy-backend/pkg/geo"
)

// orderRequest is the create/edit payload. The location may be sent as
// structured coordinates or as the legacy "<name> [<lat>,<lng>]" string.
type orderRequest struct {
	Item                string           `json:"item"`
	Description         string           `json:"description"`
	Unit                string           `json:"unit"`
	BulkPrice           decimal.Decimal  `json:"bulk_price"`
	OriginalPrice       decimal.Decimal  `json:"original_price"`
	MinQuantity         int              `json:"min_quantity"`
	MaxQuantity         int              `json:"max_quantity"`
	Deadline            time.Time        `json:"deadline"`
	Location            string           `json:"location"`
	LocationName        string           `json:"location_name"`
	Coordinates         *geo.Coordinate  `json:"coordinates"`
	DeliveryChargePerKm *decimal.Decimal `json:"delivery_charge_per_km"`
	ContactPhone        string           `json:"contact_phone"`
}

func (r orderRequest) toInput() (lifecycle.OrderInput, error) {
	in := lifecycle.OrderInput{
		Item:                r.Item,
		Description:         r.Description,
		Unit:                r.Unit,
		BulkPrice:           r.BulkPrice,
		OriginalPrice:       r.OriginalPrice,
		MinQuantity:         r.MinQuantity,
		MaxQuantity:         r.MaxQuantity,
		Deadline:            r.Deadline,
		LocationName:        r.LocationName,
		Location:            r.Coordinates,
		DeliveryChargePerKm: r.DeliveryChargePerKm,
		ContactPhone:        r.ContactPhone,
	}
	if r.Coordinates == nil && strings.TrimSpace(r.Location) != "" {
		legacy, err := geo.ParseLegacyLocation(r.Location)
		if err != nil {
			return in, participation.FieldError("location", "location coordinates are invalid")
		}
		if in.LocationName == "" {
			in.LocationName = legacy.Name
		}
		if c, ok := legacy.Coordinate.Get(); ok {
			in.Location = &c
		}
	}
	if in.LocationName == "" {
		in.LocationName = strings.TrimSpace(r.Location)
	}
	return in, nil
}

type joinRequest struct {
	Quantity   int                    `json:"quantity" validate:"required,gt=0"`
	VendorName string                 `json:"vendor_name" validate:"max=120"`
	Location   geo.OptionalCoordinate `json:"location"`
	Phone      *string                `json:"phone" validate:"omitempty,phone"`
}

// participationPatch changes quantity and/or contact details. An empty phone
// clears it; clear_location drops the stored coordinate.
type participationPatch struct {
	Quantity      *int            `json:"quantity" validate:"omitempty,gt=0"`
	Phone         *string         `json:"phone" validate:"omitempty,phone"`
	Location      *geo.Coordinate `json:"location"`
	ClearLocation bool            `json:"clear_location"`
}

func (p participationPatch) update() participation.ParticipationUpdate {
	update := participation.ParticipationUpdate{Quantity: p.Quantity}
	update.Contact.Phone = p.Phone
	switch {
	case p.ClearLocation:
		none := geo.None()
		update.Contact.Location = &none
	case p.Location != nil:
		some := geo.Some(*p.Location)
		update.Contact.Location = &some
	}
	return update
}

func (p participationPatch) validate() error {
	if p.Quantity == nil && p.Phone == nil && p.Location == nil && !p.ClearLocation {
		return pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	if p.Location != nil && p.ClearLocation {
		return participation.FieldError("location", "send either location or clear_location")
	}
	if p.Location != nil {
		if err := p.Location.Validate(); err != nil {
			return participation.FieldError("location", err.Error())
		}
	}
	return nil
}

type reviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}
