package cantine

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
)

type (
	Service interface {
		Create(ctx context.Context, no NewOrder) (Order, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Order, error)
		GetByID(ctx context.Context, id string) (Order, error)
		Update(ctx context.Context, o Order, uo UpdateOrder) (Order, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo core.Repository[Order]
	}
)

var _ Service = (*service)(nil)

func NewService(repo core.Repository[Order]) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, no NewOrder) (Order, error) {
	now := core.Now()
	o := Order{
		ID:        core.NewID(),
		Student:   no.Student,
		Items:     no.Items,
		Status:    StatusPending,
		OrderDate: now,
		Notes:     no.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if no.OrderDate != nil {
		o.OrderDate = no.OrderDate.UTC().Truncate(time.Millisecond)
	}
	o.TotalAmount = Total(o.Items)
	if err := svc.repo.Insert(ctx, o); err != nil {
		return Order{}, errors.Wrap(err, "inserting cantine order")
	}
	return o, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Order, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "order_date"}}
	}
	orders, err := svc.repo.Find(ctx, core.Query{Conds: filter.Conds(), Ordering: ordering})
	return orders, errors.Wrap(err, "querying cantine orders")
}

func (svc *service) GetByID(ctx context.Context, id string) (Order, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *service) Update(ctx context.Context, o Order, uo UpdateOrder) (Order, error) {
	uo.apply(&o)
	o.TotalAmount = Total(o.Items)
	o.UpdatedAt = core.Now()
	if err := svc.repo.Replace(ctx, o.ID, o); err != nil {
		return Order{}, errors.Wrap(err, "updating cantine order")
	}
	return o, nil
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.Delete(ctx, id)
}
