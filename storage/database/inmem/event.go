package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/lib/pq"

	"github.com/mkundi/kampasi/core"
	"github.com/mkundi/kampasi/core/event"
)

type eventRepository struct {
	db *DB
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *DB) *eventRepository {
	return &eventRepository{db: db}
}

// joined returns a copy with the space and facility names filled in.
func (repo *eventRepository) joined(evt event.Event) event.Event {
	if spc, ok := repo.db.spaces[evt.LocationID]; ok {
		evt.SpaceName = spc.Name
		if fac, ok := repo.db.facilities[spc.FacilityID]; ok {
			evt.FacilityName = fac.Name
		}
	}
	return evt
}

func (repo *eventRepository) query() []event.Event {
	evts := make([]event.Event, 0, len(repo.db.events))
	for _, evt := range repo.db.events {
		evts = append(evts, repo.joined(*evt))
	}
	sort.Slice(evts, func(i, j int) bool { return evts[i].StartDate.Before(evts[j].StartDate) })
	return evts
}

func (repo *eventRepository) CreateEvent(_ context.Context, evt event.Event) (event.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.eventPK++
	evt.ID = repo.db.eventPK
	repo.db.events[evt.ID] = &evt
	return repo.joined(evt), nil
}

func (repo *eventRepository) QueryAllEvents(_ context.Context, _ ...core.DBOrdering) ([]event.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *eventRepository) GetEventByID(_ context.Context, id int64) (event.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if evt, ok := repo.db.events[id]; ok {
		return repo.joined(*evt), nil
	}
	return event.Event{}, event.ErrNotFound
}

func (repo *eventRepository) FilterUpcomingEvents(_ context.Context, from time.Time, limit int) ([]event.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	evts := make([]event.Event, 0, limit)
	for _, evt := range repo.query() {
		if evt.StartDate.Before(from) {
			continue
		}
		evts = append(evts, evt)
		if len(evts) == limit {
			break
		}
	}
	return evts, nil
}

func (repo *eventRepository) UpdateEvent(_ context.Context, evt event.Event, locationID *int64, start, end *time.Time, scopes []string, desc, imageURL *string) (event.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origEvt, ok := repo.db.events[evt.ID]
	if !ok {
		return event.Event{}, event.ErrNotFound
	}
	if evt.Name != "" {
		origEvt.Name = evt.Name
	}
	if desc != nil {
		origEvt.Description = *desc
	}
	if locationID != nil {
		origEvt.LocationID = *locationID
	}
	if start != nil {
		origEvt.StartDate = start.UTC()
	}
	if end != nil {
		origEvt.EndDate = end.UTC()
	}
	if scopes != nil {
		origEvt.Scopes = pq.StringArray(scopes)
	}
	if imageURL != nil {
		origEvt.ImageURL = *imageURL
	}
	origEvt.UpdatedAt = evt.UpdatedAt
	return repo.joined(*origEvt), nil
}

func (repo *eventRepository) DeleteEventsByID(_ context.Context, ids ...int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.events, id)
	}
	return nil
}

func (repo *eventRepository) CountEvents(_ context.Context) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.db.events), nil
}
