package lifecycle

import (
	"github.com/streetcart/groupbuy-backend/internal/participation"
	pkgerrors "github.com/streetcart/groupbuy-backend/pkg/errors"
)

// validateOrder checks every field and reports all violations at once.
// minTotal is the quantity already committed, which MaxQuantity may not undercut.
func validateOrder(in OrderInput, minTotal int) error {
	problems := map[string]string{}
	if in.Item == "" {
		problems["item"] = "item is required"
	}
	if in.Description == "" {
		problems["description"] = "description is required"
	}
	if !in.BulkPrice.IsPositive() {
		problems["bulk_price"] = "bulk price must be greater than zero"
	}
	if !in.OriginalPrice.IsPositive() {
		problems["original_price"] = "original price must be greater than zero"
	}
	if in.BulkPrice.IsPositive() && in.OriginalPrice.IsPositive() && !in.BulkPrice.LessThan(in.OriginalPrice) {
		problems["bulk_price"] = "bulk price must be lower than the original price"
	}
	if in.MinQuantity <= 0 {
		problems["min_quantity"] = "minimum quantity must be greater than zero"
	}
	if in.MaxQuantity <= in.MinQuantity {
		problems["max_quantity"] = "maximum quantity must be greater than the minimum"
	} else if in.MaxQuantity < minTotal {
		problems["max_quantity"] = "maximum quantity is below the quantity already committed"
	}
	if !participation.IsValidPhone(in.ContactPhone) {
		problems["contact_phone"] = "phone must be exactly 10 digits"
	}
	if in.DeliveryChargePerKm != nil && in.DeliveryChargePerKm.IsNegative() {
		problems["delivery_charge_per_km"] = "delivery charge per km cannot be negative"
	}
	if in.Deadline.IsZero() {
		problems["deadline"] = "deadline is required"
	}
	if in.Location == nil {
		problems["location"] = "select a location on the map"
	} else if err := in.Location.Validate(); err != nil {
		problems["location"] = err.Error()
	}
	if len(problems) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid group order").WithDetails(problems)
}
