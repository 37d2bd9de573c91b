package catalog

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/mkundi/kampasi/core"
	"github.com/mkundi/kampasi/core/event"
	"github.com/mkundi/kampasi/core/facility"
	"github.com/mkundi/kampasi/core/space"
)

// upcomingLimit caps the dashboard's upcoming events list.
const upcomingLimit = 5

type (
	// FacilityNode is a facility with its spaces nested under it.
	FacilityNode struct {
		facility.Facility
		Spaces []space.Space `json:"spaces"`
	}

	// MasterList is the combined campus inventory consumed by list views.
	MasterList struct {
		Facilities []FacilityNode `json:"facilities"`
		Events     []event.Event  `json:"events"`
	}

	// Stats feeds the dashboard.
	Stats struct {
		FacilityCount  int           `json:"facility_count"`
		SpaceCount     int           `json:"space_count"`
		EventCount     int           `json:"event_count"`
		UpcomingEvents []event.Event `json:"upcoming_events"`
	}

	Service struct {
		facilities *facility.Service
		spaces     *space.Service
		events     *event.Service
		logger     core.Logger
	}
)

func NewService(facilities *facility.Service, spaces *space.Service, events *event.Service, logger core.Logger) *Service {
	return &Service{facilities: facilities, spaces: spaces, events: events, logger: logger}
}

// MasterList fetches the three collections concurrently and nests each space
// under its parent facility. Facility and space name ordering is preserved.
func (svc *Service) MasterList(ctx context.Context) (MasterList, error) {
	var (
		facs []facility.Facility
		spcs []space.Space
		evts []event.Event
	)

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.Go(func() (err error) {
		facs, err = svc.facilities.QueryAll(grpCtx)
		return
	})
	grp.Go(func() (err error) {
		spcs, err = svc.spaces.QueryAll(grpCtx)
		return
	})
	grp.Go(func() (err error) {
		evts, err = svc.events.QueryAll(grpCtx)
		return
	})
	if err := grp.Wait(); err != nil {
		return MasterList{}, err
	}

	spcsByFacility := make(map[int64][]space.Space, len(facs))
	for _, spc := range spcs {
		spcsByFacility[spc.FacilityID] = append(spcsByFacility[spc.FacilityID], spc)
	}

	nodes := make([]FacilityNode, len(facs))
	for i, fac := range facs {
		nodes[i] = FacilityNode{Facility: fac, Spaces: spcsByFacility[fac.ID]}
	}
	return MasterList{Facilities: nodes, Events: evts}, nil
}

// Stats fetches the entity counts and the next upcoming events concurrently.
func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.Go(func() (err error) {
		stats.FacilityCount, err = svc.facilities.Count(grpCtx)
		return
	})
	grp.Go(func() (err error) {
		stats.SpaceCount, err = svc.spaces.Count(grpCtx)
		return
	})
	grp.Go(func() (err error) {
		stats.EventCount, err = svc.events.Count(grpCtx)
		return
	})
	grp.Go(func() (err error) {
		stats.UpcomingEvents, err = svc.events.Upcoming(grpCtx, upcomingLimit)
		return
	})
	if err := grp.Wait(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}
