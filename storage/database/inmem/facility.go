package inmemdb

import (
	"context"
	"sort"

	"github.com/mkundi/kampasi/core"
	"github.com/mkundi/kampasi/core/facility"
)

type facilityRepository struct {
	db *DB
}

var _ facility.Repository = (*facilityRepository)(nil) // interface compliance check

func NewFacilityRepository(db *DB) *facilityRepository {
	return &facilityRepository{db: db}
}

func (repo *facilityRepository) query() []facility.Facility {
	facs := make([]facility.Facility, 0, len(repo.db.facilities))
	for _, fac := range repo.db.facilities {
		facs = append(facs, *fac)
	}
	sort.Slice(facs, func(i, j int) bool { return facs[i].Name < facs[j].Name })
	return facs
}

func (repo *facilityRepository) CreateFacility(_ context.Context, fac facility.Facility) (facility.Facility, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.facilityPK++
	fac.ID = repo.db.facilityPK
	repo.db.facilities[fac.ID] = &fac
	return fac, nil
}

func (repo *facilityRepository) QueryAllFacilities(_ context.Context, _ ...core.DBOrdering) ([]facility.Facility, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *facilityRepository) GetFacilityByID(_ context.Context, id int64) (facility.Facility, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if fac, ok := repo.db.facilities[id]; ok {
		return *fac, nil
	}
	return facility.Facility{}, facility.ErrNotFound
}

func (repo *facilityRepository) UpdateFacility(_ context.Context, fac facility.Facility, lat, lng *float64, desc, imageURL *string) (facility.Facility, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origFac, ok := repo.db.facilities[fac.ID]
	if !ok {
		return facility.Facility{}, facility.ErrNotFound
	}
	if fac.Name != "" {
		origFac.Name = fac.Name
	}
	if desc != nil {
		origFac.Description = *desc
	}
	if lat != nil {
		origFac.Latitude = *lat
	}
	if lng != nil {
		origFac.Longitude = *lng
	}
	if imageURL != nil {
		origFac.ImageURL = *imageURL
	}
	origFac.UpdatedAt = fac.UpdatedAt
	return *origFac, nil
}

func (repo *facilityRepository) DeleteFacilitiesByID(_ context.Context, ids ...int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.facilities, id)
	}
	return nil
}

func (repo *facilityRepository) CountFacilities(_ context.Context) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.db.facilities), nil
}
