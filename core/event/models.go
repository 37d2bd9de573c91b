package event

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"

	"github.com/mkundi/kampasi/core"
)

// Event is a scheduled happening held at a Space, announced to one or more
// audience scopes.
type Event struct {
	ID          int64          `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Description string         `json:"description" db:"description"`
	LocationID  int64          `json:"location_id" db:"location_id"`
	StartDate   time.Time      `json:"start_date" db:"start_date"` // UTC
	EndDate     time.Time      `json:"end_date" db:"end_date"`     // UTC
	Scopes      pq.StringArray `json:"scopes" db:"scopes"`
	ImageURL    string         `json:"image_url" db:"image_url"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"` // UTC

	// SpaceName and FacilityName are joined in on list queries.
	SpaceName    string `json:"space_name,omitempty" db:"space_name"`
	FacilityName string `json:"facility_name,omitempty" db:"facility_name"`
}

// NewEvent contains information needed to create a new Event.
type NewEvent struct {
	Name        string    `json:"name" validate:"required,min=3,max=160"`
	Description string    `json:"description"`
	LocationID  int64     `json:"location_id" validate:"required"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	Scopes      []string  `json:"scopes" validate:"required,min=1,dive,eventscope"`
	ImageURL    string    `json:"image_url" validate:"omitempty,url"`
}

func (ne *NewEvent) Validate(validate *validator.Validate, svc *Service) error {
	ne.Name = core.CleanString(ne.Name)
	ne.Description = core.CleanString(ne.Description)

	if err := validate.Struct(ne); err != nil {
		return err
	}
	return svc.checkLocation(ne.LocationID)
}

// UpdateEvent defines what information may be provided to modify an existing
// Event. Empty fields keep their current value.
type UpdateEvent struct {
	Name        string     `json:"name" validate:"omitempty,min=3,max=160"`
	Description *string    `json:"description"`
	LocationID  *int64     `json:"location_id"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Scopes      []string   `json:"scopes" validate:"omitempty,min=1,dive,eventscope"`
	ImageURL    *string    `json:"image_url" validate:"omitempty,url"`
}

func (ue *UpdateEvent) Validate(origEvt Event, validate *validator.Validate, svc *Service) error {
	ue.Name = core.CleanString(ue.Name)

	if err := validate.Struct(ue); err != nil {
		return err
	}

	// the schedule must stay consistent when only one bound changes
	start, end := origEvt.StartDate, origEvt.EndDate
	if ue.StartDate != nil {
		start = *ue.StartDate
	}
	if ue.EndDate != nil {
		end = *ue.EndDate
	}
	if !end.After(start) {
		return core.NewValidationError(errEndBeforeStart,
			core.FieldError{Field: "end_date", Error: errEndBeforeStart.Error()})
	}

	if ue.LocationID != nil {
		return svc.checkLocation(*ue.LocationID)
	}
	return nil
}
