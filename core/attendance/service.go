package attendance

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
)

type (
	Service interface {
		Create(ctx context.Context, na NewAttendance, recordedBy string) (Attendance, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Attendance, error)
		GetByID(ctx context.Context, id string) (Attendance, error)
		Update(ctx context.Context, att Attendance, ua UpdateAttendance) (Attendance, error)
		Delete(ctx context.Context, id string) error
		Summary(ctx context.Context, filter QueryFilter) (Summary, error)
	}

	service struct {
		repo core.Repository[Attendance]
	}
)

var _ Service = (*service)(nil)

func NewService(repo core.Repository[Attendance]) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, na NewAttendance, recordedBy string) (Attendance, error) {
	now := core.Now()
	att := Attendance{
		ID:         core.NewID(),
		Student:    na.Student,
		Course:     na.Course,
		Date:       core.Day(now),
		Status:     na.Status,
		Remarks:    na.Remarks,
		RecordedBy: recordedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if na.Date != "" {
		d, err := core.ParseDate(na.Date)
		if err != nil {
			return Attendance{}, core.NewValidationError(nil, core.FieldError{Field: "date", Error: err.Error()})
		}
		att.Date = core.Day(d)
	}
	if err := svc.repo.Insert(ctx, att); err != nil {
		return Attendance{}, errors.Wrap(err, "inserting attendance")
	}
	return att, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Attendance, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "date"}}
	}
	records, err := svc.repo.Find(ctx, core.Query{Conds: filter.Conds(), Ordering: ordering})
	return records, errors.Wrap(err, "querying attendance")
}

func (svc *service) GetByID(ctx context.Context, id string) (Attendance, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *service) Update(ctx context.Context, att Attendance, ua UpdateAttendance) (Attendance, error) {
	ua.apply(&att)
	att.UpdatedAt = core.Now()
	if err := svc.repo.Replace(ctx, att.ID, att); err != nil {
		return Attendance{}, errors.Wrap(err, "updating attendance")
	}
	return att, nil
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.Delete(ctx, id)
}

func (svc *service) Summary(ctx context.Context, filter QueryFilter) (Summary, error) {
	records, err := svc.repo.Find(ctx, core.Query{Conds: filter.Conds()})
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying attendance")
	}
	return Summarize(records), nil
}
