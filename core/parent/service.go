package parent

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/user"
)

type (
	Service interface {
		Create(ctx context.Context, np NewParent) (Parent, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Parent, error)
		GetByID(ctx context.Context, id string) (Parent, error)
		GetByUser(ctx context.Context, userID string) (Parent, error)
		Update(ctx context.Context, p Parent, up UpdateParent) (Parent, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo  core.Repository[Parent]
		users user.Finder
	}
)

var _ Service = (*service)(nil)

func NewService(repo core.Repository[Parent], users user.Finder) Service {
	return &service{repo: repo, users: users}
}

func (svc *service) Create(ctx context.Context, np NewParent) (Parent, error) {
	if _, err := user.GetWithRole(ctx, svc.users, "user", np.User, user.RoleParent); err != nil {
		return Parent{}, err
	}

	now := core.Now()
	p := Parent{
		ID:           core.NewID(),
		User:         np.User,
		Phone:        np.Phone,
		Address:      np.Address,
		Occupation:   np.Occupation,
		Relationship: np.Relationship,
		Children:     np.Children,
		Status:       np.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if p.Children == nil {
		p.Children = []string{}
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	if err := svc.repo.Insert(ctx, p); err != nil {
		return Parent{}, errors.Wrap(err, "inserting parent")
	}
	return p, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Parent, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	parents, err := svc.repo.Find(ctx, core.Query{Conds: filter.Conds(), Ordering: ordering})
	return parents, errors.Wrap(err, "querying parents")
}

func (svc *service) GetByID(ctx context.Context, id string) (Parent, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *service) GetByUser(ctx context.Context, userID string) (Parent, error) {
	parents, err := svc.repo.Find(ctx, core.Query{Conds: []core.Cond{core.Eq("user", userID)}, Limit: 1})
	if err != nil {
		return Parent{}, errors.Wrap(err, "finding parent by user")
	}
	if len(parents) == 0 {
		return Parent{}, core.NewNotFoundError(Collection.Resource)
	}
	return parents[0], nil
}

func (svc *service) Update(ctx context.Context, p Parent, up UpdateParent) (Parent, error) {
	up.apply(&p)
	p.UpdatedAt = core.Now()
	if err := svc.repo.Replace(ctx, p.ID, p); err != nil {
		return Parent{}, errors.Wrap(err, "updating parent")
	}
	return p, nil
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.Delete(ctx, id)
}
