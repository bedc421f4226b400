package teacher

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/user"
)

type (
	Service interface {
		Create(ctx context.Context, nt NewTeacher) (Teacher, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Teacher, error)
		GetByID(ctx context.Context, id string) (Teacher, error)
		GetByUser(ctx context.Context, userID string) (Teacher, error)
		Update(ctx context.Context, tch Teacher, ut UpdateTeacher) (Teacher, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo  core.Repository[Teacher]
		users user.Finder
	}
)

var _ Service = (*service)(nil)

func NewService(repo core.Repository[Teacher], users user.Finder) Service {
	return &service{repo: repo, users: users}
}

func (svc *service) Create(ctx context.Context, nt NewTeacher) (Teacher, error) {
	if _, err := user.GetWithRole(ctx, svc.users, "user", nt.User, user.RoleTeacher); err != nil {
		return Teacher{}, err
	}

	now := core.Now()
	tch := Teacher{
		ID:             core.NewID(),
		User:           nt.User,
		EmployeeNumber: nt.EmployeeNumber,
		Subjects:       nt.Subjects,
		Qualification:  nt.Qualification,
		Phone:          nt.Phone,
		Address:        nt.Address,
		HireDate:       now,
		Status:         nt.Status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if nt.HireDate != nil {
		tch.HireDate = nt.HireDate.UTC()
	}
	if tch.Status == "" {
		tch.Status = StatusActive
	}
	if err := svc.repo.Insert(ctx, tch); err != nil {
		return Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	return tch, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Teacher, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "employee_number", Ascending: true}}
	}
	teachers, err := svc.repo.Find(ctx, core.Query{Conds: filter.Conds(), Ordering: ordering})
	return teachers, errors.Wrap(err, "querying teachers")
}

func (svc *service) GetByID(ctx context.Context, id string) (Teacher, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *service) GetByUser(ctx context.Context, userID string) (Teacher, error) {
	teachers, err := svc.repo.Find(ctx, core.Query{Conds: []core.Cond{core.Eq("user", userID)}, Limit: 1})
	if err != nil {
		return Teacher{}, errors.Wrap(err, "finding teacher by user")
	}
	if len(teachers) == 0 {
		return Teacher{}, core.NewNotFoundError(Collection.Resource)
	}
	return teachers[0], nil
}

func (svc *service) Update(ctx context.Context, tch Teacher, ut UpdateTeacher) (Teacher, error) {
	ut.apply(&tch)
	tch.UpdatedAt = core.Now()
	if err := svc.repo.Replace(ctx, tch.ID, tch); err != nil {
		return Teacher{}, errors.Wrap(err, "updating teacher")
	}
	return tch, nil
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.Delete(ctx, id)
}
