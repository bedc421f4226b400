package course

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/user"
)

var (
	ErrCourseFull     = core.NewValidationError(nil, core.FieldError{Field: "students", Error: "course has reached its capacity"})
	ErrCourseArchived = core.NewValidationError(errors.New("course is archived"))
)

type (
	Service interface {
		Create(ctx context.Context, nc NewCourse) (Course, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		GetByID(ctx context.Context, id string) (Course, error)
		Update(ctx context.Context, c Course, uc UpdateCourse) (Course, error)
		Delete(ctx context.Context, id string) error
		Enroll(ctx context.Context, c Course, studentID string) (Course, error)
		Unenroll(ctx context.Context, c Course, studentID string) (Course, error)
	}

	service struct {
		repo  core.Repository[Course]
		users user.Finder
	}
)

var _ Service = (*service)(nil)

func NewService(repo core.Repository[Course], users user.Finder) Service {
	return &service{repo: repo, users: users}
}

func (svc *service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	if nc.Teacher != "" {
		if _, err := user.GetWithRole(ctx, svc.users, "teacher", nc.Teacher, user.RoleTeacher); err != nil {
			return Course{}, err
		}
	}

	now := core.Now()
	c := Course{
		ID:           core.NewID(),
		Name:         nc.Name,
		Code:         nc.Code,
		Description:  nc.Description,
		Teacher:      nc.Teacher,
		Students:     dedupe(nc.Students),
		Schedule:     nc.Schedule,
		Capacity:     nc.Capacity,
		Credits:      nc.Credits,
		AcademicYear: nc.AcademicYear,
		Status:       nc.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if c.Schedule == nil {
		c.Schedule = []ScheduleEntry{}
	}
	if c.Status == "" {
		c.Status = StatusActive
	}
	if err := svc.repo.Insert(ctx, c); err != nil {
		return Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "code", Ascending: true}}
	}
	courses, err := svc.repo.Find(ctx, core.Query{Conds: filter.Conds(), Ordering: ordering})
	return courses, errors.Wrap(err, "querying courses")
}

func (svc *service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *service) Update(ctx context.Context, c Course, uc UpdateCourse) (Course, error) {
	if uc.Teacher != nil && *uc.Teacher != "" && *uc.Teacher != c.Teacher {
		if _, err := user.GetWithRole(ctx, svc.users, "teacher", *uc.Teacher, user.RoleTeacher); err != nil {
			return Course{}, err
		}
	}
	return svc.modify(ctx, c, func(c *Course) error {
		uc.apply(c)
		c.Students = dedupe(c.Students)
		if c.IsOverCapacity() {
			return core.NewValidationError(nil, core.FieldError{Field: "capacity", Error: "capacity is lower than the number of enrolled students"})
		}
		return nil
	})
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.Delete(ctx, id)
}

// Enroll adds a Student to the Course, within its capacity.
// Concurrent enrollments never push the Course past its capacity.
func (svc *service) Enroll(ctx context.Context, c Course, studentID string) (Course, error) {
	return svc.modify(ctx, c, func(c *Course) error {
		if c.Status == StatusArchived {
			return ErrCourseArchived
		}
		if c.HasStudent(studentID) {
			return core.NewConflictError("students", studentID)
		}
		if c.IsFull() {
			return ErrCourseFull
		}
		students := make([]string, len(c.Students), len(c.Students)+1)
		copy(students, c.Students)
		c.Students = append(students, studentID)
		return nil
	})
}

func (svc *service) Unenroll(ctx context.Context, c Course, studentID string) (Course, error) {
	return svc.modify(ctx, c, func(c *Course) error {
		if !c.HasStudent(studentID) {
			return core.NewNotFoundError("enrolled student")
		}
		students := make([]string, 0, len(c.Students)-1)
		for _, id := range c.Students {
			if id != studentID {
				students = append(students, id)
			}
		}
		c.Students = students
		return nil
	})
}

// modify applies fn to c and saves it, provided no other write happened since c was read.
// When c turns out to be stale, fn is applied again to the stored Course.
func (svc *service) modify(ctx context.Context, c Course, fn func(c *Course) error) (Course, error) {
	for attempt := 1; ; attempt++ {
		prev := c.UpdatedAt
		if err := fn(&c); err != nil {
			stored, getErr := svc.repo.Get(ctx, c.ID)
			if getErr != nil || stored.UpdatedAt.Equal(prev) || attempt == core.MaxWriteAttempts {
				return Course{}, err
			}
			c = stored
			continue
		}
		c.UpdatedAt = core.Touch(prev)
		err := svc.repo.ReplaceIf(ctx, c.ID, c, core.Eq("updated_at", prev))
		if err == nil {
			return c, nil
		}
		if !core.IsModified(err) || attempt == core.MaxWriteAttempts {
			return Course{}, errors.Wrap(err, "updating course")
		}
		if c, err = svc.repo.Get(ctx, c.ID); err != nil {
			return Course{}, errors.Wrap(err, "reloading course")
		}
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	uniq := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	return uniq
}
