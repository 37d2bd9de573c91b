package inmemdb

import (
	"context"
	"sort"

	"github.com/mkundi/kampasi/core"
	"github.com/mkundi/kampasi/core/space"
)

type spaceRepository struct {
	db *DB
}

var _ space.Repository = (*spaceRepository)(nil) // interface compliance check

func NewSpaceRepository(db *DB) *spaceRepository {
	return &spaceRepository{db: db}
}

// joined returns a copy with the parent facility name filled in.
func (repo *spaceRepository) joined(spc space.Space) space.Space {
	if fac, ok := repo.db.facilities[spc.FacilityID]; ok {
		spc.FacilityName = fac.Name
	}
	return spc
}

func (repo *spaceRepository) query() []space.Space {
	spcs := make([]space.Space, 0, len(repo.db.spaces))
	for _, spc := range repo.db.spaces {
		spcs = append(spcs, repo.joined(*spc))
	}
	sort.Slice(spcs, func(i, j int) bool { return spcs[i].Name < spcs[j].Name })
	return spcs
}

func (repo *spaceRepository) CreateSpace(_ context.Context, spc space.Space) (space.Space, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.spacePK++
	spc.ID = repo.db.spacePK
	repo.db.spaces[spc.ID] = &spc
	return repo.joined(spc), nil
}

func (repo *spaceRepository) QueryAllSpaces(_ context.Context, _ ...core.DBOrdering) ([]space.Space, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *spaceRepository) GetSpaceByID(_ context.Context, id int64) (space.Space, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if spc, ok := repo.db.spaces[id]; ok {
		return repo.joined(*spc), nil
	}
	return space.Space{}, space.ErrNotFound
}

func (repo *spaceRepository) FilterSpacesByFacility(_ context.Context, facilityID int64) ([]space.Space, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	spcs := make([]space.Space, 0)
	for _, spc := range repo.query() {
		if spc.FacilityID == facilityID {
			spcs = append(spcs, spc)
		}
	}
	return spcs, nil
}

func (repo *spaceRepository) UpdateSpace(_ context.Context, spc space.Space, facilityID *int64, floorLevel, desc, imageURL *string) (space.Space, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origSpc, ok := repo.db.spaces[spc.ID]
	if !ok {
		return space.Space{}, space.ErrNotFound
	}
	if spc.Name != "" {
		origSpc.Name = spc.Name
	}
	if facilityID != nil {
		origSpc.FacilityID = *facilityID
	}
	if floorLevel != nil {
		origSpc.FloorLevel = *floorLevel
	}
	if desc != nil {
		origSpc.Description = *desc
	}
	if imageURL != nil {
		origSpc.ImageURL = *imageURL
	}
	origSpc.UpdatedAt = spc.UpdatedAt
	return repo.joined(*origSpc), nil
}

func (repo *spaceRepository) DeleteSpacesByID(_ context.Context, ids ...int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.spaces, id)
	}
	return nil
}

func (repo *spaceRepository) CountSpaces(_ context.Context) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.db.spaces), nil
}
