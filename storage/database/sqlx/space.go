package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mkundi/kampasi/core"
	"github.com/mkundi/kampasi/core/space"
)

const spaceColumns = `s.id, s.name, s.parent_facility_id, s.floor_level, s.description, s.image_url, s.created_at, s.updated_at`

var spaceOrderFields = map[string]string{
	"name":          "s.name",
	"floor_level":   "s.floor_level",
	"facility_name": "f.name",
	"created_at":    "s.created_at",
	"updated_at":    "s.updated_at",
}

type spaceRepository struct {
	db *sqlx.DB
}

var _ space.Repository = (*spaceRepository)(nil) // interface compliance check

func NewSpaceRepository(db *sqlx.DB) *spaceRepository {
	return &spaceRepository{db: db}
}

func (repo spaceRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return space.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo spaceRepository) CreateSpace(ctx context.Context, spc space.Space) (space.Space, error) {
	q := `
		INSERT INTO space (name, parent_facility_id, floor_level, description, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, name, parent_facility_id, floor_level, description, image_url, created_at, updated_at`
	var created space.Space
	err := repo.db.GetContext(ctx, &created, q,
		spc.Name, spc.FacilityID, spc.FloorLevel, spc.Description, spc.ImageURL, spc.CreatedAt, spc.UpdatedAt)
	if err != nil {
		return space.Space{}, errors.Wrap(err, "inserting space")
	}
	return created, nil
}

func (repo spaceRepository) QueryAllSpaces(ctx context.Context, orderings ...core.DBOrdering) ([]space.Space, error) {
	spcs := make([]space.Space, 0)
	q := `
		SELECT ` + spaceColumns + `, f.name AS facility_name
		FROM space s
		JOIN facility f ON f.id = s.parent_facility_id` + orderClause("s.name ASC", spaceOrderFields, orderings)
	if err := repo.db.SelectContext(ctx, &spcs, q); err != nil {
		return nil, errors.Wrap(err, "querying spaces")
	}
	return spcs, nil
}

func (repo spaceRepository) GetSpaceByID(ctx context.Context, id int64) (space.Space, error) {
	var spc space.Space
	q := `
		SELECT ` + spaceColumns + `, f.name AS facility_name
		FROM space s
		JOIN facility f ON f.id = s.parent_facility_id
		WHERE s.id = $1`
	if err := repo.db.GetContext(ctx, &spc, q, id); err != nil {
		return space.Space{}, repo.trapNoRowsErr(err, "finding space by ID")
	}
	return spc, nil
}

func (repo spaceRepository) FilterSpacesByFacility(ctx context.Context, facilityID int64) ([]space.Space, error) {
	spcs := make([]space.Space, 0)
	q := `
		SELECT ` + spaceColumns + `, f.name AS facility_name
		FROM space s
		JOIN facility f ON f.id = s.parent_facility_id
		WHERE s.parent_facility_id = $1
		ORDER BY s.name ASC`
	if err := repo.db.SelectContext(ctx, &spcs, q, facilityID); err != nil {
		return nil, errors.Wrap(err, "filtering spaces")
	}
	return spcs, nil
}

func (repo spaceRepository) UpdateSpace(ctx context.Context, spc space.Space, facilityID *int64, floorLevel, desc, imageURL *string) (space.Space, error) {
	var (
		sets []string
		args []interface{}
	)
	set := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}

	if spc.Name != "" {
		set("name", spc.Name)
	}
	if facilityID != nil {
		set("parent_facility_id", *facilityID)
	}
	if floorLevel != nil {
		set("floor_level", *floorLevel)
	}
	if desc != nil {
		set("description", *desc)
	}
	if imageURL != nil {
		set("image_url", *imageURL)
	}
	set("updated_at", spc.UpdatedAt.UTC())

	args = append(args, spc.ID)
	q := fmt.Sprintf(
		`UPDATE space SET %s WHERE id = $%d
		 RETURNING id, name, parent_facility_id, floor_level, description, image_url, created_at, updated_at`,
		strings.Join(sets, ", "), len(args),
	)

	var updated space.Space
	if err := repo.db.GetContext(ctx, &updated, q, args...); err != nil {
		return space.Space{}, repo.trapNoRowsErr(err, "updating space")
	}
	return updated, nil
}

func (repo spaceRepository) DeleteSpacesByID(ctx context.Context, ids ...int64) error {
	q, args, err := sqlx.In(`DELETE FROM space WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting spaces")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting spaces")
	}
	return nil
}

func (repo spaceRepository) CountSpaces(ctx context.Context) (int, error) {
	var count int
	if err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM space`); err != nil {
		return 0, errors.Wrap(err, "counting spaces")
	}
	return count, nil
}
