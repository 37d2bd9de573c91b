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
	"github.com/mkundi/kampasi/core/facility"
)

const facilityColumns = `id, name, description, latitude, longitude, image_url, created_at, updated_at`

var facilityOrderFields = map[string]string{
	"name":       "name",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type facilityRepository struct {
	db *sqlx.DB
}

var _ facility.Repository = (*facilityRepository)(nil) // interface compliance check

func NewFacilityRepository(db *sqlx.DB) *facilityRepository {
	return &facilityRepository{db: db}
}

func (repo facilityRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return facility.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo facilityRepository) CreateFacility(ctx context.Context, fac facility.Facility) (facility.Facility, error) {
	q := `
		INSERT INTO facility (name, description, latitude, longitude, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + facilityColumns
	var created facility.Facility
	err := repo.db.GetContext(ctx, &created, q,
		fac.Name, fac.Description, fac.Latitude, fac.Longitude, fac.ImageURL, fac.CreatedAt, fac.UpdatedAt)
	if err != nil {
		return facility.Facility{}, errors.Wrap(err, "inserting facility")
	}
	return created, nil
}

func (repo facilityRepository) QueryAllFacilities(ctx context.Context, orderings ...core.DBOrdering) ([]facility.Facility, error) {
	facs := make([]facility.Facility, 0)
	q := `SELECT ` + facilityColumns + ` FROM facility` + orderClause("name ASC", facilityOrderFields, orderings)
	if err := repo.db.SelectContext(ctx, &facs, q); err != nil {
		return nil, errors.Wrap(err, "querying facilities")
	}
	return facs, nil
}

func (repo facilityRepository) GetFacilityByID(ctx context.Context, id int64) (facility.Facility, error) {
	var fac facility.Facility
	q := `SELECT ` + facilityColumns + ` FROM facility WHERE id = $1`
	if err := repo.db.GetContext(ctx, &fac, q, id); err != nil {
		return facility.Facility{}, repo.trapNoRowsErr(err, "finding facility by ID")
	}
	return fac, nil
}

func (repo facilityRepository) UpdateFacility(ctx context.Context, fac facility.Facility, lat, lng *float64, desc, imageURL *string) (facility.Facility, error) {
	var (
		sets []string
		args []interface{}
	)
	set := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}

	if fac.Name != "" {
		set("name", fac.Name)
	}
	if desc != nil {
		set("description", *desc)
	}
	if lat != nil {
		set("latitude", *lat)
	}
	if lng != nil {
		set("longitude", *lng)
	}
	if imageURL != nil {
		set("image_url", *imageURL)
	}
	set("updated_at", fac.UpdatedAt.UTC())

	args = append(args, fac.ID)
	q := fmt.Sprintf(
		`UPDATE facility SET %s WHERE id = $%d RETURNING `+facilityColumns,
		strings.Join(sets, ", "), len(args),
	)

	var updated facility.Facility
	if err := repo.db.GetContext(ctx, &updated, q, args...); err != nil {
		return facility.Facility{}, repo.trapNoRowsErr(err, "updating facility")
	}
	return updated, nil
}

func (repo facilityRepository) DeleteFacilitiesByID(ctx context.Context, ids ...int64) error {
	q, args, err := sqlx.In(`DELETE FROM facility WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting facilities")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting facilities")
	}
	return nil
}

func (repo facilityRepository) CountFacilities(ctx context.Context) (int, error) {
	var count int
	if err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM facility`); err != nil {
		return 0, errors.Wrap(err, "counting facilities")
	}
	return count, nil
}
