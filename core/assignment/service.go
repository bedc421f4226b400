package assignment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
)

var (
	ErrNotAccepting  = core.NewValidationError(errors.New("assignment is not accepting submissions"))
	ErrAlreadyGraded = core.NewValidationError(errors.New("submission has already been graded"))
	ErrNoSubmission  = core.NewNotFoundError("submission")
)

type (
	Service interface {
		Create(ctx context.Context, na NewAssignment) (Assignment, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Assignment, error)
		GetByID(ctx context.Context, id string) (Assignment, error)
		Update(ctx context.Context, a Assignment, ua UpdateAssignment) (Assignment, error)
		Delete(ctx context.Context, id string) error
		Submit(ctx context.Context, a Assignment, studentID string, ns NewSubmission) (Assignment, error)
		Grade(ctx context.Context, a Assignment, studentID string, gs GradeSubmission) (Assignment, error)
	}

	service struct {
		repo core.Repository[Assignment]
	}
)

var _ Service = (*service)(nil)

func NewService(repo core.Repository[Assignment]) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, na NewAssignment) (Assignment, error) {
	now := core.Now()
	a := Assignment{
		ID:          core.NewID(),
		Title:       na.Title,
		Description: na.Description,
		Course:      na.Course,
		Teacher:     na.Teacher,
		DueDate:     na.DueDate.UTC().Truncate(time.Millisecond),
		TotalMarks:  na.TotalMarks,
		Attachments: na.Attachments,
		Status:      na.Status,
		Submissions: []Submission{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if a.Attachments == nil {
		a.Attachments = []string{}
	}
	if a.Status == "" {
		a.Status = StatusPublished
	}
	if err := svc.repo.Insert(ctx, a); err != nil {
		return Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Assignment, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "due_date", Ascending: true}}
	}
	assignments, err := svc.repo.Find(ctx, core.Query{Conds: filter.Conds(), Ordering: ordering})
	return assignments, errors.Wrap(err, "querying assignments")
}

func (svc *service) GetByID(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *service) Update(ctx context.Context, a Assignment, ua UpdateAssignment) (Assignment, error) {
	ua.apply(&a)
	a.Submissions = cloneSubmissions(a.Submissions)
	for i := range a.Submissions {
		sub := &a.Submissions[i]
		if sub.Marks != nil && *sub.Marks > a.TotalMarks {
			return Assignment{}, core.NewValidationError(nil, core.FieldError{Field: "total_marks", Error: "total_marks is lower than already graded marks"})
		}
		if sub.Status == SubmissionSubmitted {
			sub.IsLate = sub.SubmittedAt.After(a.DueDate)
		}
	}
	return svc.save(ctx, a)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.Delete(ctx, id)
}

// Submit records studentID's submission, replacing a previous one until it is graded.
func (svc *service) Submit(ctx context.Context, a Assignment, studentID string, ns NewSubmission) (Assignment, error) {
	if a.Status != StatusPublished {
		return Assignment{}, ErrNotAccepting
	}

	now := core.Now()
	sub := Submission{
		Student:     studentID,
		Content:     ns.Content,
		Attachments: ns.Attachments,
		SubmittedAt: now,
		IsLate:      now.After(a.DueDate),
		Status:      SubmissionSubmitted,
	}
	if sub.Attachments == nil {
		sub.Attachments = []string{}
	}

	a.Submissions = cloneSubmissions(a.Submissions)
	if i := a.Submission(studentID); i >= 0 {
		if a.Submissions[i].Status == SubmissionGraded {
			return Assignment{}, ErrAlreadyGraded
		}
		a.Submissions[i] = sub
	} else {
		a.Submissions = append(a.Submissions, sub)
	}
	return svc.save(ctx, a)
}

func (svc *service) Grade(ctx context.Context, a Assignment, studentID string, gs GradeSubmission) (Assignment, error) {
	i := a.Submission(studentID)
	if i < 0 {
		return Assignment{}, ErrNoSubmission
	}
	if gs.Marks > a.TotalMarks {
		return Assignment{}, core.NewValidationError(nil, core.FieldError{Field: "marks", Error: "marks must be less than or equal to total_marks"})
	}

	now := core.Now()
	a.Submissions = cloneSubmissions(a.Submissions)
	a.Submissions[i].Marks = &gs.Marks
	a.Submissions[i].Feedback = gs.Feedback
	a.Submissions[i].GradedAt = &now
	a.Submissions[i].Status = SubmissionGraded
	return svc.save(ctx, a)
}

func (svc *service) save(ctx context.Context, a Assignment) (Assignment, error) {
	a.UpdatedAt = core.Now()
	if err := svc.repo.Replace(ctx, a.ID, a); err != nil {
		return Assignment{}, errors.Wrap(err, "updating assignment")
	}
	return a, nil
}

func cloneSubmissions(subs []Submission) []Submission {
	cp := make([]Submission, len(subs))
	copy(cp, subs)
	return cp
}
