// Package inmemdb provides map-backed repositories used by tests and
// local development.
package inmemdb

import (
	"sync"

	"github.com/mkundi/kampasi/core/event"
	"github.com/mkundi/kampasi/core/facility"
	"github.com/mkundi/kampasi/core/space"
	"github.com/mkundi/kampasi/core/user"
)

type DB struct {
	mutex sync.RWMutex

	users      map[string]*user.User
	facilities map[int64]*facility.Facility
	spaces     map[int64]*space.Space
	events     map[int64]*event.Event

	facilityPK int64
	spacePK    int64
	eventPK    int64
}

func Open() *DB {
	return &DB{
		users:      make(map[string]*user.User),
		facilities: make(map[int64]*facility.Facility),
		spaces:     make(map[int64]*space.Space),
		events:     make(map[int64]*event.Event),
	}
}

// Reset drops all stored records. Tests call it between cases.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	db.users = make(map[string]*user.User)
	db.facilities = make(map[int64]*facility.Facility)
	db.spaces = make(map[int64]*space.Space)
	db.events = make(map[int64]*event.Event)
	db.facilityPK, db.spacePK, db.eventPK = 0, 0, 0
}
