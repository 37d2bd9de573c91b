package facility

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mkundi/kampasi/core"
)

// Facility is a campus building or outdoor area pinned on the map.
type Facility struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Latitude    float64   `json:"latitude" db:"latitude"`
	Longitude   float64   `json:"longitude" db:"longitude"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// NewFacility contains information needed to create a new Facility.
type NewFacility struct {
	Name        string  `json:"name" validate:"required,min=3,max=120"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude" validate:"latitude_range"`
	Longitude   float64 `json:"longitude" validate:"longitude_range"`
	ImageURL    string  `json:"image_url" validate:"omitempty,url"`
}

func (nf *NewFacility) Validate(validate *validator.Validate) error {
	nf.Name = core.CleanString(nf.Name)
	nf.Description = core.CleanString(nf.Description)
	return validate.Struct(nf)
}

// UpdateFacility defines what information may be provided to modify an
// existing Facility. Empty fields keep their current value.
type UpdateFacility struct {
	Name        string   `json:"name" validate:"omitempty,min=3,max=120"`
	Description *string  `json:"description"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,latitude_range"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,longitude_range"`
	ImageURL    *string  `json:"image_url" validate:"omitempty,url"`
}

func (uf *UpdateFacility) Validate(validate *validator.Validate) error {
	uf.Name = core.CleanString(uf.Name)
	return validate.Struct(uf)
}
