package grade

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
)

var errMarksAboveTotal = core.NewValidationError(nil, core.FieldError{Field: "marks", Error: "marks must be less than or equal to total_marks"})

type (
	Service interface {
		Create(ctx context.Context, ng NewGrade) (Grade, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Grade, error)
		GetByID(ctx context.Context, id string) (Grade, error)
		Update(ctx context.Context, g Grade, ug UpdateGrade) (Grade, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo core.Repository[Grade]
	}
)

var _ Service = (*service)(nil)

func NewService(repo core.Repository[Grade]) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, ng NewGrade) (Grade, error) {
	now := core.Now()
	g := Grade{
		ID:         core.NewID(),
		Student:    ng.Student,
		Course:     ng.Course,
		Teacher:    ng.Teacher,
		ExamType:   ng.ExamType,
		Marks:      ng.Marks,
		TotalMarks: ng.TotalMarks,
		Remarks:    ng.Remarks,
		Date:       now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if ng.Date != nil {
		g.Date = ng.Date.UTC().Truncate(time.Millisecond)
	}
	g.compute()
	if err := svc.repo.Insert(ctx, g); err != nil {
		return Grade{}, errors.Wrap(err, "inserting grade")
	}
	return g, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Grade, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "date"}}
	}
	grades, err := svc.repo.Find(ctx, core.Query{Conds: filter.Conds(), Ordering: ordering})
	return grades, errors.Wrap(err, "querying grades")
}

func (svc *service) GetByID(ctx context.Context, id string) (Grade, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *service) Update(ctx context.Context, g Grade, ug UpdateGrade) (Grade, error) {
	ug.apply(&g)
	if g.Marks > g.TotalMarks {
		return Grade{}, errMarksAboveTotal
	}
	g.compute()
	g.UpdatedAt = core.Now()
	if err := svc.repo.Replace(ctx, g.ID, g); err != nil {
		return Grade{}, errors.Wrap(err, "updating grade")
	}
	return g, nil
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.Delete(ctx, id)
}
