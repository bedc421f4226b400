package event

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
)

type (
	Service interface {
		Create(ctx context.Context, ne NewEvent, organizer string) (Event, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Event, error)
		GetByID(ctx context.Context, id string) (Event, error)
		Update(ctx context.Context, evt Event, ue UpdateEvent) (Event, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo core.Repository[Event]
	}
)

var _ Service = (*service)(nil)

func NewService(repo core.Repository[Event]) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, ne NewEvent, organizer string) (Event, error) {
	now := core.Now()
	evt := Event{
		ID:           core.NewID(),
		Title:        ne.Title,
		Description:  ne.Description,
		StartDate:    ne.StartDate.UTC().Truncate(time.Millisecond),
		Location:     ne.Location,
		EventType:    ne.EventType,
		Organizer:    organizer,
		Participants: ne.Participants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	evt.EndDate = evt.StartDate
	if ne.EndDate != nil {
		evt.EndDate = ne.EndDate.UTC().Truncate(time.Millisecond)
	}
	if evt.EventType == "" {
		evt.EventType = TypeOther
	}
	if evt.Participants == nil {
		evt.Participants = []string{}
	}
	if evt.EndDate.Before(evt.StartDate) {
		return Event{}, errEndBeforeStart
	}
	if err := svc.repo.Insert(ctx, evt); err != nil {
		return Event{}, errors.Wrap(err, "inserting event")
	}
	return evt, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Event, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "start_date", Ascending: true}}
	}
	events, err := svc.repo.Find(ctx, core.Query{Conds: filter.Conds(), Ordering: ordering})
	return events, errors.Wrap(err, "querying events")
}

func (svc *service) GetByID(ctx context.Context, id string) (Event, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *service) Update(ctx context.Context, evt Event, ue UpdateEvent) (Event, error) {
	ue.apply(&evt)
	if evt.EndDate.Before(evt.StartDate) {
		return Event{}, errEndBeforeStart
	}
	evt.UpdatedAt = core.Now()
	if err := svc.repo.Replace(ctx, evt.ID, evt); err != nil {
		return Event{}, errors.Wrap(err, "updating event")
	}
	return evt, nil
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.Delete(ctx, id)
}
