package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/mkundi/kampasi/core"
	"github.com/mkundi/kampasi/core/event"
)

const eventColumns = `e.id, e.name, e.description, e.location_id, e.start_date, e.end_date, e.scopes, e.image_url, e.created_at, e.updated_at`

const eventJoin = `
	FROM event e
	JOIN space s ON s.id = e.location_id
	JOIN facility f ON f.id = s.parent_facility_id`

var eventOrderFields = map[string]string{
	"name":          "e.name",
	"start_date":    "e.start_date",
	"end_date":      "e.end_date",
	"space_name":    "s.name",
	"facility_name": "f.name",
	"created_at":    "e.created_at",
	"updated_at":    "e.updated_at",
}

type eventRepository struct {
	db *sqlx.DB
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *sqlx.DB) *eventRepository {
	return &eventRepository{db: db}
}

func (repo eventRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return event.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo eventRepository) CreateEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	q := `
		INSERT INTO event (name, description, location_id, start_date, end_date, scopes, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, name, description, location_id, start_date, end_date, scopes, image_url, created_at, updated_at`
	var created event.Event
	err := repo.db.GetContext(ctx, &created, q,
		evt.Name, evt.Description, evt.LocationID, evt.StartDate, evt.EndDate, evt.Scopes, evt.ImageURL, evt.CreatedAt, evt.UpdatedAt)
	if err != nil {
		return event.Event{}, errors.Wrap(err, "inserting event")
	}
	return created, nil
}

func (repo eventRepository) QueryAllEvents(ctx context.Context, orderings ...core.DBOrdering) ([]event.Event, error) {
	evts := make([]event.Event, 0)
	q := `SELECT ` + eventColumns + `, s.name AS space_name, f.name AS facility_name` +
		eventJoin + orderClause("e.start_date ASC", eventOrderFields, orderings)
	if err := repo.db.SelectContext(ctx, &evts, q); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	return evts, nil
}

func (repo eventRepository) GetEventByID(ctx context.Context, id int64) (event.Event, error) {
	var evt event.Event
	q := `SELECT ` + eventColumns + `, s.name AS space_name, f.name AS facility_name` +
		eventJoin + ` WHERE e.id = $1`
	if err := repo.db.GetContext(ctx, &evt, q, id); err != nil {
		return event.Event{}, repo.trapNoRowsErr(err, "finding event by ID")
	}
	return evt, nil
}

func (repo eventRepository) FilterUpcomingEvents(ctx context.Context, from time.Time, limit int) ([]event.Event, error) {
	evts := make([]event.Event, 0, limit)
	q := `SELECT ` + eventColumns + `, s.name AS space_name, f.name AS facility_name` +
		eventJoin + ` WHERE e.start_date >= $1 ORDER BY e.start_date ASC LIMIT $2`
	if err := repo.db.SelectContext(ctx, &evts, q, from.UTC(), limit); err != nil {
		return nil, errors.Wrap(err, "filtering upcoming events")
	}
	return evts, nil
}

func (repo eventRepository) UpdateEvent(ctx context.Context, evt event.Event, locationID *int64, start, end *time.Time, scopes []string, desc, imageURL *string) (event.Event, error) {
	var (
		sets []string
		args []interface{}
	)
	set := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}

	if evt.Name != "" {
		set("name", evt.Name)
	}
	if desc != nil {
		set("description", *desc)
	}
	if locationID != nil {
		set("location_id", *locationID)
	}
	if start != nil {
		set("start_date", start.UTC())
	}
	if end != nil {
		set("end_date", end.UTC())
	}
	if scopes != nil {
		set("scopes", pq.StringArray(scopes))
	}
	if imageURL != nil {
		set("image_url", *imageURL)
	}
	set("updated_at", evt.UpdatedAt.UTC())

	args = append(args, evt.ID)
	q := fmt.Sprintf(
		`UPDATE event SET %s WHERE id = $%d
		 RETURNING id, name, description, location_id, start_date, end_date, scopes, image_url, created_at, updated_at`,
		strings.Join(sets, ", "), len(args),
	)

	var updated event.Event
	if err := repo.db.GetContext(ctx, &updated, q, args...); err != nil {
		return event.Event{}, repo.trapNoRowsErr(err, "updating event")
	}
	return updated, nil
}

func (repo eventRepository) DeleteEventsByID(ctx context.Context, ids ...int64) error {
	q, args, err := sqlx.In(`DELETE FROM event WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting events")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting events")
	}
	return nil
}

func (repo eventRepository) CountEvents(ctx context.Context) (int, error) {
	var count int
	if err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM event`); err != nil {
		return 0, errors.Wrap(err, "counting events")
	}
	return count, nil
}
