package event

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/mkundi/kampasi/core"
	"github.com/mkundi/kampasi/core/space"
)

var (
	ErrNotFound = errors.New("event not found")

	errEndBeforeStart = errors.New("end date must be after start date")
)

type (
	Repository interface {
		CreateEvent(ctx context.Context, evt Event) (Event, error)
		// QueryAllEvents returns all events with the space and facility names
		// joined in, ordered by start date ascending unless overridden by
		// orderings.
		QueryAllEvents(ctx context.Context, orderings ...core.DBOrdering) ([]Event, error)
		GetEventByID(ctx context.Context, id int64) (Event, error)
		// FilterUpcomingEvents returns up to limit events starting at or
		// after from, soonest first.
		FilterUpcomingEvents(ctx context.Context, from time.Time, limit int) ([]Event, error)
		UpdateEvent(ctx context.Context, evt Event, locationID *int64, start, end *time.Time, scopes []string, desc, imageURL *string) (Event, error)
		DeleteEventsByID(ctx context.Context, ids ...int64) error
		CountEvents(ctx context.Context) (int, error)
	}

	// SpaceDirectory is the slice of the space service needed to resolve
	// event locations.
	SpaceDirectory interface {
		GetByID(ctx context.Context, id int64) (space.Space, error)
	}

	Service struct {
		repo   Repository
		spaces SpaceDirectory
		logger core.Logger
	}
)

func NewService(repo Repository, spaceDir SpaceDirectory, logger core.Logger) *Service {
	return &Service{repo: repo, spaces: spaceDir, logger: logger}
}

func (svc *Service) checkLocation(locationID int64) error {
	if _, err := svc.spaces.GetByID(context.Background(), locationID); err != nil {
		if err == space.ErrNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "location_id", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ne NewEvent) (Event, error) {
	now := time.Now().UTC()
	evt := Event{
		Name:        ne.Name,
		Description: ne.Description,
		LocationID:  ne.LocationID,
		StartDate:   ne.StartDate.UTC(),
		EndDate:     ne.EndDate.UTC(),
		Scopes:      pq.StringArray(ne.Scopes),
		ImageURL:    ne.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateEvent(ctx, evt)
}

func (svc *Service) QueryAll(ctx context.Context, orderings ...core.DBOrdering) ([]Event, error) {
	return svc.repo.QueryAllEvents(ctx, orderings...)
}

func (svc *Service) GetByID(ctx context.Context, id int64) (Event, error) {
	return svc.repo.GetEventByID(ctx, id)
}

// Upcoming returns the next events starting from now, soonest first.
func (svc *Service) Upcoming(ctx context.Context, limit int) ([]Event, error) {
	return svc.repo.FilterUpcomingEvents(ctx, time.Now().UTC(), limit)
}

func (svc *Service) Update(ctx context.Context, id int64, ue UpdateEvent) (Event, error) {
	evt := Event{
		ID:        id,
		Name:      ue.Name,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateEvent(ctx, evt, ue.LocationID, ue.StartDate, ue.EndDate, ue.Scopes, ue.Description, ue.ImageURL)
}

func (svc *Service) Delete(ctx context.Context, ids ...int64) error {
	return svc.repo.DeleteEventsByID(ctx, ids...)
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountEvents(ctx)
}
