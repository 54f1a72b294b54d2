package domain

import (
	"encoding/json"
	"slices"
	"time"
)

// Category is the ad "type" discriminator. The values are the strings the
// marketplace client sends and filters on.
type Category string

const (
	CategoryRealEstate Category = "Недвижимость"
	CategoryAuto       Category = "Авто"
	CategoryServices   Category = "Услуги"
)

// Categories lists every known category in display order.
var Categories = []Category{CategoryRealEstate, CategoryAuto, CategoryServices}

func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

func (c Category) String() string { return string(c) }

// MaxImages is the upper bound on Ad.Images.
const MaxImages = 5

// Ad is a marketplace listing. Exactly one of the embedded detail payloads is
// set, the one matching Type; on the wire all fields are flattened into one
// JSON object.
type Ad struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Type        Category  `json:"type"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Images      []string  `json:"images,omitempty"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	*RealEstateDetails
	*AutoDetails
	*ServicesDetails
}

type RealEstateDetails struct {
	PropertyType    string  `json:"propertyType"`
	Area            float64 `json:"area"`
	Rooms           int     `json:"rooms"`
	Bathroom        string  `json:"bathroom,omitempty"`
	Furniture       string  `json:"furniture,omitempty"`
	Appliances      string  `json:"appliances,omitempty"`
	InternetAndTV   string  `json:"internetAndTv,omitempty"`
	Deposit         float64 `json:"deposit,omitempty"`
	Commission      float64 `json:"commission,omitempty"`
	MeterPay        string  `json:"meterPay,omitempty"`
	OtherUtilities  string  `json:"otherUtilities,omitempty"`
	ChildrenAllowed bool    `json:"childrenAllowed,omitempty"`
	PetsAllowed     bool    `json:"petsAllowed,omitempty"`
	SmokingAllowed  bool    `json:"smokingAllowed,omitempty"`
}

type AutoDetails struct {
	Brand          string  `json:"brand"`
	Model          string  `json:"model"`
	Year           int     `json:"year"`
	Mileage        int     `json:"mileage"`
	Generation     string  `json:"generation,omitempty"`
	MileageHistory string  `json:"mileageHistory,omitempty"`
	PTS            string  `json:"pts,omitempty"`
	Owners         int     `json:"owners,omitempty"`
	Condition      string  `json:"condition,omitempty"`
	Modification   string  `json:"modification,omitempty"`
	EngineVolume   float64 `json:"engineVolume,omitempty"`
	EngineType     string  `json:"engineType,omitempty"`
	Transmission   string  `json:"transmission,omitempty"`
	DriveType      string  `json:"driveType,omitempty"`
	Configuration  string  `json:"configuration,omitempty"`
	BodyType       string  `json:"bodyType,omitempty"`
	Color          string  `json:"color,omitempty"`
	SteeringWheel  string  `json:"steeringWheel,omitempty"`
	VIN            string  `json:"vin,omitempty"`
	Exchange       bool    `json:"exchange,omitempty"`
}

type ServicesDetails struct {
	ServiceType string  `json:"serviceType"`
	Experience  int     `json:"experience"`
	Cost        float64 `json:"cost"`
}

// Details is the category specific part of an ad.
type Details interface {
	Category() Category
	Validate() []FieldError
}

func (*RealEstateDetails) Category() Category { return CategoryRealEstate }
func (*AutoDetails) Category() Category       { return CategoryAuto }
func (*ServicesDetails) Category() Category   { return CategoryServices }

// Details returns the payload selected by Type, or nil for an unknown type.
func (a *Ad) Details() Details {
	switch {
	case a.Type == CategoryRealEstate && a.RealEstateDetails != nil:
		return a.RealEstateDetails
	case a.Type == CategoryAuto && a.AutoDetails != nil:
		return a.AutoDetails
	case a.Type == CategoryServices && a.ServicesDetails != nil:
		return a.ServicesDetails
	}
	return nil
}

// Normalize keeps only the payload that belongs to Type, allocating an empty
// one when the category is known but no category field was supplied.
func (a *Ad) Normalize() {
	re, auto, svc := a.RealEstateDetails, a.AutoDetails, a.ServicesDetails
	a.RealEstateDetails, a.AutoDetails, a.ServicesDetails = nil, nil, nil

	switch a.Type {
	case CategoryRealEstate:
		if re == nil {
			re = &RealEstateDetails{}
		}
		a.RealEstateDetails = re
	case CategoryAuto:
		if auto == nil {
			auto = &AutoDetails{}
		}
		a.AutoDetails = auto
	case CategoryServices:
		if svc == nil {
			svc = &ServicesDetails{}
		}
		a.ServicesDetails = svc
	}
}

type adAlias Ad

func (a *Ad) UnmarshalJSON(data []byte) error {
	var alias adAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*a = Ad(alias)
	a.Normalize()
	return nil
}

// Clone returns a deep copy.
func (a *Ad) Clone() *Ad {
	c := *a
	c.Images = slices.Clone(a.Images)
	if a.RealEstateDetails != nil {
		d := *a.RealEstateDetails
		c.RealEstateDetails = &d
	}
	if a.AutoDetails != nil {
		d := *a.AutoDetails
		c.AutoDetails = &d
	}
	if a.ServicesDetails != nil {
		d := *a.ServicesDetails
		c.ServicesDetails = &d
	}
	return &c
}

// ServiceSubtype returns the service type of a Services ad and "" otherwise.
func (a *Ad) ServiceSubtype() string {
	if a.Type == CategoryServices && a.ServicesDetails != nil {
		return a.ServicesDetails.ServiceType
	}
	return ""
}
