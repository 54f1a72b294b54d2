package domain

import (
	"fmt"
	"strings"
)

// FieldError describes one failed check on a single field. Category is set
// for checks that only apply to one category.
type FieldError struct {
	Field    string   `json:"field"`
	Category Category `json:"category,omitempty"`
	Reason   string   `json:"reason"`
}

func (e FieldError) Error() string {
	if e.Category != "" {
		return fmt.Sprintf("field %q %s for category %s", e.Field, e.Reason, e.Category)
	}
	return fmt.Sprintf("field %q %s", e.Field, e.Reason)
}

const (
	reasonRequired = "is required"
	reasonTooMany  = "must not have more than 5 items"
)

// ValidationError carries every failed check; its message is the first one.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	return e.Errors[0].Error()
}

// NewValidationError returns nil when errs is empty.
func NewValidationError(errs []FieldError) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}

// ValidateCommon checks the fields every ad carries regardless of category.
func ValidateCommon(a *Ad) []FieldError {
	var errs []FieldError

	required := []struct {
		field string
		value string
	}{
		{"name", a.Name},
		{"description", a.Description},
		{"location", a.Location},
		{"type", string(a.Type)},
		{"userId", a.UserID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, FieldError{Field: r.field, Reason: reasonRequired})
		}
	}

	if len(a.Images) > MaxImages {
		errs = append(errs, FieldError{Field: "images", Reason: reasonTooMany})
	}

	return errs
}

func (d *RealEstateDetails) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(d.PropertyType) == "" {
		errs = append(errs, requiredFor(CategoryRealEstate, "propertyType"))
	}
	if d.Area == 0 {
		errs = append(errs, requiredFor(CategoryRealEstate, "area"))
	}
	if d.Rooms == 0 {
		errs = append(errs, requiredFor(CategoryRealEstate, "rooms"))
	}
	return errs
}

func (d *AutoDetails) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(d.Brand) == "" {
		errs = append(errs, requiredFor(CategoryAuto, "brand"))
	}
	if strings.TrimSpace(d.Model) == "" {
		errs = append(errs, requiredFor(CategoryAuto, "model"))
	}
	if d.Year == 0 {
		errs = append(errs, requiredFor(CategoryAuto, "year"))
	}
	if d.Mileage == 0 {
		errs = append(errs, requiredFor(CategoryAuto, "mileage"))
	}
	return errs
}

func (d *ServicesDetails) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(d.ServiceType) == "" {
		errs = append(errs, requiredFor(CategoryServices, "serviceType"))
	}
	if d.Experience == 0 {
		errs = append(errs, requiredFor(CategoryServices, "experience"))
	}
	if d.Cost == 0 {
		errs = append(errs, requiredFor(CategoryServices, "cost"))
	}
	return errs
}

func requiredFor(c Category, field string) FieldError {
	return FieldError{Field: field, Category: c, Reason: reasonRequired}
}

// ValidateDetails runs the category checks. An ad with an unknown type has no
// category checks and yields nil; callers reject unknown types separately.
func ValidateDetails(a *Ad) []FieldError {
	d := a.Details()
	if d == nil {
		if a.Type.Valid() {
			a.Normalize()
			return a.Details().Validate()
		}
		return nil
	}
	return d.Validate()
}
