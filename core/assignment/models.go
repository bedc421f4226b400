package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo/core"
)

type (
	Status           string
	SubmissionStatus string
)

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusClosed    Status = "closed"

	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionGraded    SubmissionStatus = "graded"
)

var Collection = core.Collection{
	Name:     "assignments",
	Resource: "assignment",
	Indexes: []core.Index{
		{Keys: []string{"course"}},
		{Keys: []string{"teacher"}},
		{Keys: []string{"due_date"}},
	},
}

// OrderingFields lists the fields a assignment listing may be sorted by.
var OrderingFields = []string{"title", "due_date", "total_marks", "status", "created_at", "updated_at"}

type Submission struct {
	Student     string           `json:"student" bson:"student"`
	Content     string           `json:"content" bson:"content"`
	Attachments []string         `json:"attachments" bson:"attachments"`
	SubmittedAt time.Time        `json:"submitted_at" bson:"submitted_at"`
	IsLate      bool             `json:"is_late" bson:"is_late"`
	Marks       *float64         `json:"marks" bson:"marks"`
	Feedback    string           `json:"feedback" bson:"feedback"`
	GradedAt    *time.Time       `json:"graded_at" bson:"graded_at"`
	Status      SubmissionStatus `json:"status" bson:"status"`
}

type Assignment struct {
	ID          string       `json:"id" bson:"_id"`
	Title       string       `json:"title" bson:"title"`
	Description string       `json:"description" bson:"description"`
	Course      string       `json:"course" bson:"course"`
	Teacher     string       `json:"teacher" bson:"teacher"` // User ID
	DueDate     time.Time    `json:"due_date" bson:"due_date"`
	TotalMarks  float64      `json:"total_marks" bson:"total_marks"`
	Attachments []string     `json:"attachments" bson:"attachments"`
	Status      Status       `json:"status" bson:"status"`
	Submissions []Submission `json:"submissions" bson:"submissions"`
	CreatedAt   time.Time    `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt   time.Time    `json:"updated_at" bson:"updated_at"` // UTC
}

// Submission returns the index of studentID's submission, or -1.
func (a Assignment) Submission(studentID string) int {
	for i, sub := range a.Submissions {
		if sub.Student == studentID {
			return i
		}
	}
	return -1
}

type NewAssignment struct {
	Title       string    `json:"title" validate:"required,max=256"`
	Description string    `json:"description"`
	Course      string    `json:"course" validate:"required,id"`
	Teacher     string    `json:"teacher" validate:"omitempty,id"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	TotalMarks  float64   `json:"total_marks" validate:"required,gt=0"`
	Attachments []string  `json:"attachments" validate:"omitempty,dive,url"`
	Status      Status    `json:"status" validate:"omitempty,oneof=draft published closed"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	return validate.Struct(na)
}

type UpdateAssignment struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=256"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	TotalMarks  *float64   `json:"total_marks" validate:"omitempty,gt=0"`
	Attachments []string   `json:"attachments" validate:"omitempty,dive,url"`
	Status      *Status    `json:"status" validate:"omitempty,oneof=draft published closed"`
}

func (ua *UpdateAssignment) Validate(validate *validator.Validate) error {
	return validate.Struct(ua)
}

func (ua UpdateAssignment) apply(a *Assignment) {
	if ua.Title != nil {
		a.Title = core.CleanString(*ua.Title)
	}
	if ua.Description != nil {
		a.Description = *ua.Description
	}
	if ua.DueDate != nil {
		a.DueDate = ua.DueDate.UTC().Truncate(time.Millisecond)
	}
	if ua.TotalMarks != nil {
		a.TotalMarks = *ua.TotalMarks
	}
	if ua.Attachments != nil {
		a.Attachments = ua.Attachments
	}
	if ua.Status != nil {
		a.Status = *ua.Status
	}
}

// NewSubmission is a Student's work on an Assignment.
type NewSubmission struct {
	Content     string   `json:"content" validate:"required_without=Attachments"`
	Attachments []string `json:"attachments" validate:"omitempty,dive,url"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.Content = core.CleanString(ns.Content)
	return validate.Struct(ns)
}

type GradeSubmission struct {
	Marks    float64 `json:"marks" validate:"gte=0"`
	Feedback string  `json:"feedback"`
}

func (gs *GradeSubmission) Validate(validate *validator.Validate) error {
	gs.Feedback = core.CleanString(gs.Feedback)
	return validate.Struct(gs)
}

type QueryFilter struct {
	Course  string `query:"course"`
	Teacher string `query:"teacher"`
	Status  string `query:"status"`
	Student string `query:"student"` // assignments submitted by
	DueFrom string `query:"due_from" validate:"omitempty,date"`
	DueTo   string `query:"due_to" validate:"omitempty,date"`
}

func (qf QueryFilter) Conds() []core.Cond {
	var conds []core.Cond
	if qf.Course != "" {
		conds = append(conds, core.Eq("course", qf.Course))
	}
	if qf.Teacher != "" {
		conds = append(conds, core.Eq("teacher", qf.Teacher))
	}
	if qf.Status != "" {
		conds = append(conds, core.Eq("status", qf.Status))
	}
	if qf.Student != "" {
		conds = append(conds, core.Eq("submissions.student", qf.Student))
	}
	if t, err := core.ParseDate(qf.DueFrom); err == nil {
		conds = append(conds, core.Gte("due_date", t))
	}
	if t, err := core.ParseDate(qf.DueTo); err == nil {
		conds = append(conds, core.Lte("due_date", t))
	}
	return conds
}
