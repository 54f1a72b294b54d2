package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdUnmarshalKeepsOnlyDeclaredCategory(t *testing.T) {
	body := `{"name":"Flat","type":"Недвижимость","propertyType":"Apartment","area":50,"rooms":2,"brand":"BMW","serviceType":"Массаж"}`

	var ad Ad
	require.NoError(t, json.Unmarshal([]byte(body), &ad))

	require.NotNil(t, ad.RealEstateDetails)
	assert.Nil(t, ad.AutoDetails)
	assert.Nil(t, ad.ServicesDetails)
	assert.Equal(t, "Apartment", ad.PropertyType)
	assert.Equal(t, 2, ad.Rooms)
	assert.Equal(t, CategoryRealEstate, ad.Details().Category())
}

func TestAdMarshalFlattensDetails(t *testing.T) {
	ad := Ad{
		ID:              3,
		Name:            "Golf",
		Type:            CategoryAuto,
		AutoDetails:     &AutoDetails{Brand: "VW", Model: "Golf", Year: 2015, Mileage: 90000},
		ServicesDetails: nil,
	}

	raw, err := json.Marshal(&ad)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "VW", fields["brand"])
	assert.Equal(t, float64(2015), fields["year"])
	assert.NotContains(t, fields, "serviceType")
	assert.NotContains(t, fields, "rooms")
}

func TestAdUnknownTypeHasNoDetails(t *testing.T) {
	var ad Ad
	require.NoError(t, json.Unmarshal([]byte(`{"type":"Boats","brand":"X"}`), &ad))
	assert.Nil(t, ad.Details())
	assert.Nil(t, ad.AutoDetails)
}

func TestCloneIsDeep(t *testing.T) {
	ad := &Ad{Type: CategoryServices, Images: []string{"a"}, ServicesDetails: &ServicesDetails{ServiceType: "Массаж"}}
	c := ad.Clone()
	c.Images[0] = "b"
	c.ServicesDetails.ServiceType = "Макияж"

	assert.Equal(t, "a", ad.Images[0])
	assert.Equal(t, "Массаж", ad.ServiceSubtype())
	assert.Equal(t, "Макияж", c.ServiceSubtype())
}

func TestApplyPatch(t *testing.T) {
	ad := &Ad{
		ID:                7,
		Name:              "Flat",
		Description:       "Nice",
		Location:          "Moscow",
		Type:              CategoryRealEstate,
		Price:             1000,
		UserID:            "u1",
		RealEstateDetails: &RealEstateDetails{PropertyType: "Apartment", Area: 50, Rooms: 2},
	}

	t.Run("merges present keys and protects store fields", func(t *testing.T) {
		patched, err := ApplyPatch(ad, Patch{
			"price":  json.RawMessage(`1500`),
			"rooms":  json.RawMessage(`3`),
			"id":     json.RawMessage(`99`),
			"userId": json.RawMessage(`"intruder"`),
		})
		require.NoError(t, err)
		assert.Equal(t, 1500.0, patched.Price)
		assert.Equal(t, 3, patched.Rooms)
		assert.Equal(t, int64(7), patched.ID)
		assert.Equal(t, "u1", patched.UserID)
		assert.Equal(t, "Flat", patched.Name)
		assert.Equal(t, 2, ad.Rooms, "original must not change")
	})

	t.Run("null clears a field", func(t *testing.T) {
		patched, err := ApplyPatch(ad, Patch{"rooms": json.RawMessage(`null`)})
		require.NoError(t, err)
		assert.Zero(t, patched.Rooms)
		assert.NotEmpty(t, ValidateDetails(patched))
	})

	t.Run("type switch drops old category fields", func(t *testing.T) {
		patched, err := ApplyPatch(ad, Patch{
			"type":        json.RawMessage(`"Услуги"`),
			"serviceType": json.RawMessage(`"Массаж"`),
			"experience":  json.RawMessage(`5`),
			"cost":        json.RawMessage(`300`),
		})
		require.NoError(t, err)
		assert.Nil(t, patched.RealEstateDetails)
		require.NotNil(t, patched.ServicesDetails)
		assert.Empty(t, ValidateDetails(patched))
	})

	t.Run("wrong json type", func(t *testing.T) {
		_, err := ApplyPatch(ad, Patch{"rooms": json.RawMessage(`"many"`)})
		assert.True(t, errors.Is(err, ErrInvalidPatch))
	})
}
