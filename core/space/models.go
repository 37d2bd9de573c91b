package space

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mkundi/kampasi/core"
)

// Space is a bookable room or area inside a parent facility.
type Space struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	FacilityID  int64     `json:"parent_facility_id" db:"parent_facility_id"`
	FloorLevel  string    `json:"floor_level" db:"floor_level"`
	Description string    `json:"description" db:"description"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"` // UTC

	// FacilityName is joined in on list queries.
	FacilityName string `json:"facility_name,omitempty" db:"facility_name"`
}

// NewSpace contains information needed to create a new Space.
type NewSpace struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	FacilityID  int64  `json:"parent_facility_id" validate:"required"`
	FloorLevel  string `json:"floor_level"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
}

func (ns *NewSpace) Validate(validate *validator.Validate, svc *Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.FloorLevel = core.CleanString(ns.FloorLevel)
	ns.Description = core.CleanString(ns.Description)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.checkFacility(ns.FacilityID)
}

// UpdateSpace defines what information may be provided to modify an existing
// Space. Empty fields keep their current value.
type UpdateSpace struct {
	Name        string  `json:"name" validate:"omitempty,min=2,max=120"`
	FacilityID  *int64  `json:"parent_facility_id"`
	FloorLevel  *string `json:"floor_level"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
}

func (us *UpdateSpace) Validate(validate *validator.Validate, svc *Service) error {
	us.Name = core.CleanString(us.Name)

	if err := validate.Struct(us); err != nil {
		return err
	}
	if us.FacilityID != nil {
		return svc.checkFacility(*us.FacilityID)
	}
	return nil
}
