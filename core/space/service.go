package space

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/mkundi/kampasi/core"
	"github.com/mkundi/kampasi/core/facility"
)

var ErrNotFound = errors.New("space not found")

type (
	Repository interface {
		CreateSpace(ctx context.Context, spc Space) (Space, error)
		// QueryAllSpaces returns all spaces with the parent facility name
		// joined in, ordered by name unless overridden by orderings.
		QueryAllSpaces(ctx context.Context, orderings ...core.DBOrdering) ([]Space, error)
		GetSpaceByID(ctx context.Context, id int64) (Space, error)
		// FilterSpacesByFacility returns the spaces of one facility ordered by name.
		FilterSpacesByFacility(ctx context.Context, facilityID int64) ([]Space, error)
		UpdateSpace(ctx context.Context, spc Space, facilityID *int64, floorLevel, desc, imageURL *string) (Space, error)
		DeleteSpacesByID(ctx context.Context, ids ...int64) error
		CountSpaces(ctx context.Context) (int, error)
	}

	// FacilityDirectory is the slice of the facility service needed to
	// resolve parent facilities.
	FacilityDirectory interface {
		GetByID(ctx context.Context, id int64) (facility.Facility, error)
	}

	Service struct {
		repo     Repository
		facility FacilityDirectory
		logger   core.Logger
	}
)

func NewService(repo Repository, facilityDir FacilityDirectory, logger core.Logger) *Service {
	return &Service{repo: repo, facility: facilityDir, logger: logger}
}

func (svc *Service) checkFacility(facilityID int64) error {
	if _, err := svc.facility.GetByID(context.Background(), facilityID); err != nil {
		if err == facility.ErrNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "parent_facility_id", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewSpace) (Space, error) {
	now := time.Now().UTC()
	spc := Space{
		Name:        ns.Name,
		FacilityID:  ns.FacilityID,
		FloorLevel:  ns.FloorLevel,
		Description: ns.Description,
		ImageURL:    ns.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateSpace(ctx, spc)
}

func (svc *Service) QueryAll(ctx context.Context, orderings ...core.DBOrdering) ([]Space, error) {
	return svc.repo.QueryAllSpaces(ctx, orderings...)
}

func (svc *Service) GetByID(ctx context.Context, id int64) (Space, error) {
	return svc.repo.GetSpaceByID(ctx, id)
}

func (svc *Service) FilterByFacility(ctx context.Context, facilityID int64) ([]Space, error) {
	return svc.repo.FilterSpacesByFacility(ctx, facilityID)
}

func (svc *Service) Update(ctx context.Context, id int64, us UpdateSpace) (Space, error) {
	spc := Space{
		ID:        id,
		Name:      us.Name,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateSpace(ctx, spc, us.FacilityID, us.FloorLevel, us.Description, us.ImageURL)
}

func (svc *Service) Delete(ctx context.Context, ids ...int64) error {
	return svc.repo.DeleteSpacesByID(ctx, ids...)
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountSpaces(ctx)
}
