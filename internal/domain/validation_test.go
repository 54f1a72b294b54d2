package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommonReportsFieldsInOrder(t *testing.T) {
	errs := ValidateCommon(&Ad{Name: "Flat", Location: " "})

	require.Len(t, errs, 4)
	assert.Equal(t, "description", errs[0].Field)
	assert.Equal(t, "location", errs[1].Field)
	assert.Equal(t, "type", errs[2].Field)
	assert.Equal(t, "userId", errs[3].Field)
	assert.Equal(t, `field "description" is required`, NewValidationError(errs).Error())
}

func TestValidateCommonImagesLimit(t *testing.T) {
	ad := &Ad{Name: "a", Description: "b", Location: "c", Type: CategoryAuto, UserID: "u",
		Images: []string{"1", "2", "3", "4", "5", "6"}}

	errs := ValidateCommon(ad)
	require.Len(t, errs, 1)
	assert.Equal(t, "images", errs[0].Field)
}

func TestCategoryValidation(t *testing.T) {
	tests := []struct {
		name    string
		ad      *Ad
		missing []string
	}{
		{
			name:    "real estate without rooms",
			ad:      &Ad{Type: CategoryRealEstate, RealEstateDetails: &RealEstateDetails{PropertyType: "Apartment", Area: 50}},
			missing: []string{"rooms"},
		},
		{
			name:    "auto missing everything",
			ad:      &Ad{Type: CategoryAuto},
			missing: []string{"brand", "model", "year", "mileage"},
		},
		{
			name:    "services complete",
			ad:      &Ad{Type: CategoryServices, ServicesDetails: &ServicesDetails{ServiceType: "Массаж", Experience: 3, Cost: 100}},
			missing: nil,
		},
		{
			name:    "unknown type has no category checks",
			ad:      &Ad{Type: "Boats"},
			missing: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateDetails(tt.ad)
			var got []string
			for _, e := range errs {
				got = append(got, e.Field)
				assert.Equal(t, tt.ad.Type, e.Category)
			}
			assert.Equal(t, tt.missing, got)
		})
	}
}

func TestCategoryErrorMessageNamesFieldAndCategory(t *testing.T) {
	ad := &Ad{Type: CategoryRealEstate, RealEstateDetails: &RealEstateDetails{PropertyType: "House", Area: 120}}
	err := NewValidationError(ValidateDetails(ad))
	require.Error(t, err)
	assert.Equal(t, `field "rooms" is required for category Недвижимость`, err.Error())
}

func TestNewValidationErrorNilWhenEmpty(t *testing.T) {
	assert.NoError(t, NewValidationError(nil))
}
