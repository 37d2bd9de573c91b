package facility

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/mkundi/kampasi/core"
)

var ErrNotFound = errors.New("facility not found")

type (
	Repository interface {
		CreateFacility(ctx context.Context, fac Facility) (Facility, error)
		// QueryAllFacilities returns all facilities ordered by name unless
		// overridden by orderings.
		QueryAllFacilities(ctx context.Context, orderings ...core.DBOrdering) ([]Facility, error)
		GetFacilityByID(ctx context.Context, id int64) (Facility, error)
		UpdateFacility(ctx context.Context, fac Facility, lat, lng *float64, desc, imageURL *string) (Facility, error)
		DeleteFacilitiesByID(ctx context.Context, ids ...int64) error
		CountFacilities(ctx context.Context) (int, error)
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (svc *Service) Create(ctx context.Context, nf NewFacility) (Facility, error) {
	now := time.Now().UTC()
	fac := Facility{
		Name:        nf.Name,
		Description: nf.Description,
		Latitude:    nf.Latitude,
		Longitude:   nf.Longitude,
		ImageURL:    nf.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateFacility(ctx, fac)
}

func (svc *Service) QueryAll(ctx context.Context, orderings ...core.DBOrdering) ([]Facility, error) {
	return svc.repo.QueryAllFacilities(ctx, orderings...)
}

func (svc *Service) GetByID(ctx context.Context, id int64) (Facility, error) {
	return svc.repo.GetFacilityByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id int64, uf UpdateFacility) (Facility, error) {
	fac := Facility{
		ID:        id,
		Name:      uf.Name,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateFacility(ctx, fac, uf.Latitude, uf.Longitude, uf.Description, uf.ImageURL)
}

func (svc *Service) Delete(ctx context.Context, ids ...int64) error {
	return svc.repo.DeleteFacilitiesByID(ctx, ids...)
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountFacilities(ctx)
}
