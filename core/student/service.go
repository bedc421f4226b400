package student

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/user"
)

type (
	Service interface {
		Create(ctx context.Context, ns NewStudent) (Student, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]Student, int64, error)
		GetByID(ctx context.Context, id string) (Student, error)
		GetByUser(ctx context.Context, userID string) (Student, error)
		Update(ctx context.Context, st Student, us UpdateStudent) (Student, error)
		Delete(ctx context.Context, id string) error
		// Contact returns the email address of the Student's User.
		Contact(ctx context.Context, id string) (mail.Address, error)
	}

	service struct {
		repo  core.Repository[Student]
		users user.Finder
	}
)

var _ Service = (*service)(nil)

func NewService(repo core.Repository[Student], users user.Finder) Service {
	return &service{repo: repo, users: users}
}

func (svc *service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	if _, err := user.GetWithRole(ctx, svc.users, "user", ns.User, user.RoleStudent); err != nil {
		return Student{}, err
	}

	now := core.Now()
	st := Student{
		ID:             core.NewID(),
		User:           ns.User,
		StudentNumber:  ns.StudentNumber,
		DateOfBirth:    ns.DateOfBirth.UTC(),
		Gender:         ns.Gender,
		Address:        ns.Address,
		Phone:          ns.Phone,
		GradeLevel:     ns.GradeLevel,
		Section:        ns.Section,
		Parents:        ns.Parents,
		EnrollmentDate: now,
		Status:         ns.Status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if st.Parents == nil {
		st.Parents = []string{}
	}
	if ns.EnrollmentDate != nil {
		st.EnrollmentDate = ns.EnrollmentDate.UTC()
	}
	if st.Status == "" {
		st.Status = StatusActive
	}
	if err := svc.repo.Insert(ctx, st); err != nil {
		return Student{}, errors.Wrap(err, "inserting student")
	}
	return st, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]Student, int64, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "student_number", Ascending: true}}
	}
	q := core.Query{Conds: filter.Conds(), Ordering: ordering}
	total, err := svc.repo.Count(ctx, q)
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting students")
	}
	if page.Limit > 0 {
		q.Skip, q.Limit = page.Skip(), int64(page.Limit)
	}
	students, err := svc.repo.Find(ctx, q)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying students")
	}
	return students, total, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *service) GetByUser(ctx context.Context, userID string) (Student, error) {
	students, err := svc.repo.Find(ctx, core.Query{Conds: []core.Cond{core.Eq("user", userID)}, Limit: 1})
	if err != nil {
		return Student{}, errors.Wrap(err, "finding student by user")
	}
	if len(students) == 0 {
		return Student{}, core.NewNotFoundError(Collection.Resource)
	}
	return students[0], nil
}

func (svc *service) Update(ctx context.Context, st Student, us UpdateStudent) (Student, error) {
	us.apply(&st)
	st.UpdatedAt = core.Now()
	if err := svc.repo.Replace(ctx, st.ID, st); err != nil {
		return Student{}, errors.Wrap(err, "updating student")
	}
	return st, nil
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.Delete(ctx, id)
}

func (svc *service) Contact(ctx context.Context, id string) (mail.Address, error) {
	st, err := svc.repo.Get(ctx, id)
	if err != nil {
		return mail.Address{}, err
	}
	usr, err := svc.users.GetByID(ctx, st.User)
	if err != nil {
		return mail.Address{}, errors.Wrap(err, "finding student user")
	}
	return mail.Address{Name: usr.Name, Address: usr.Email}, nil
}
