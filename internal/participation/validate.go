package participation

import (
	"regexp"

	pkgerrors "github.com/streetcart/groupbuy-backend/pkg/errors"
	"github.com/streetcart/groupbuy-backend/pkg/geo"
)

var phonePattern = regexp.MustCompile(`^\d{10}$`)

// IsValidPhone reports whether phone is exactly ten digits.
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// FieldError builds a validation error naming the offending field.
func FieldError(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]string{field: message})
}

func validateContact(phone *string, loc *geo.OptionalCoordinate) error {
	if phone != nil && *phone != "" && !IsValidPhone(*phone) {
		return FieldError("vendor_phone", "phone must be exactly 10 digits")
	}
	if loc != nil {
		if c, ok := loc.Get(); ok {
			if err := c.Validate(); err != nil {
				return FieldError("vendor_location", err.Error())
			}
		}
	}
	return nil
}
