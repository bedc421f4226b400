package grade

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo/core"
)

type ExamType string

const (
	ExamQuiz       ExamType = "quiz"
	ExamMidterm    ExamType = "midterm"
	ExamFinal      ExamType = "final"
	ExamAssignment ExamType = "assignment"
	ExamProject    ExamType = "project"
)

var Collection = core.Collection{
	Name:     "grades",
	Resource: "grade",
	Indexes: []core.Index{
		{Keys: []string{"student"}},
		{Keys: []string{"course"}},
		{Keys: []string{"teacher"}},
	},
}

// OrderingFields lists the fields a grade listing may be sorted by.
var OrderingFields = []string{"exam_type", "marks", "total_marks", "percentage", "grade", "date", "created_at", "updated_at"}

// letter bands, highest first
var bands = []struct {
	min    float64
	letter string
}{
	{90, "A+"},
	{85, "A"},
	{80, "B+"},
	{75, "B"},
	{70, "C+"},
	{60, "C"},
	{50, "D"},
}

// Compute returns the percentage and letter grade of marks out of totalMarks.
func Compute(marks, totalMarks float64) (float64, string) {
	if totalMarks <= 0 {
		return 0, "F"
	}
	pct := marks / totalMarks * 100
	return pct, Letter(pct)
}

// Letter maps a percentage to its letter grade.
func Letter(pct float64) string {
	for _, b := range bands {
		if pct >= b.min {
			return b.letter
		}
	}
	return "F"
}

type Grade struct {
	ID         string    `json:"id" bson:"_id"`
	Student    string    `json:"student" bson:"student"`
	Course     string    `json:"course" bson:"course"`
	Teacher    string    `json:"teacher" bson:"teacher"` // User ID
	ExamType   ExamType  `json:"exam_type" bson:"exam_type"`
	Marks      float64   `json:"marks" bson:"marks"`
	TotalMarks float64   `json:"total_marks" bson:"total_marks"`
	Percentage float64   `json:"percentage" bson:"percentage"`
	Grade      string    `json:"grade" bson:"grade"`
	Remarks    string    `json:"remarks" bson:"remarks"`
	Date       time.Time `json:"date" bson:"date"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"` // UTC
}

func (g *Grade) compute() {
	g.Percentage, g.Grade = Compute(g.Marks, g.TotalMarks)
}

type NewGrade struct {
	Student    string     `json:"student" validate:"required,id"`
	Course     string     `json:"course" validate:"required,id"`
	Teacher    string     `json:"teacher" validate:"omitempty,id"`
	ExamType   ExamType   `json:"exam_type" validate:"required,oneof=quiz midterm final assignment project"`
	Marks      float64    `json:"marks" validate:"gte=0,ltefield=TotalMarks"`
	TotalMarks float64    `json:"total_marks" validate:"required,gt=0"`
	Remarks    string     `json:"remarks"`
	Date       *time.Time `json:"date"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	ng.ExamType = ExamType(core.CleanString(string(ng.ExamType), true /* lower */))
	ng.Remarks = core.CleanString(ng.Remarks)
	return validate.Struct(ng)
}

type UpdateGrade struct {
	ExamType   *ExamType  `json:"exam_type" validate:"omitempty,oneof=quiz midterm final assignment project"`
	Marks      *float64   `json:"marks" validate:"omitempty,gte=0"`
	TotalMarks *float64   `json:"total_marks" validate:"omitempty,gt=0"`
	Remarks    *string    `json:"remarks"`
	Date       *time.Time `json:"date"`
}

func (ug *UpdateGrade) Validate(validate *validator.Validate) error {
	return validate.Struct(ug)
}

func (ug UpdateGrade) apply(g *Grade) {
	if ug.ExamType != nil {
		g.ExamType = *ug.ExamType
	}
	if ug.Marks != nil {
		g.Marks = *ug.Marks
	}
	if ug.TotalMarks != nil {
		g.TotalMarks = *ug.TotalMarks
	}
	if ug.Remarks != nil {
		g.Remarks = core.CleanString(*ug.Remarks)
	}
	if ug.Date != nil {
		g.Date = ug.Date.UTC().Truncate(time.Millisecond)
	}
}

type QueryFilter struct {
	Student  string `query:"student"`
	Course   string `query:"course"`
	Teacher  string `query:"teacher"`
	ExamType string `query:"exam_type"`
}

func (qf QueryFilter) Conds() []core.Cond {
	var conds []core.Cond
	if qf.Student != "" {
		conds = append(conds, core.Eq("student", qf.Student))
	}
	if qf.Course != "" {
		conds = append(conds, core.Eq("course", qf.Course))
	}
	if qf.Teacher != "" {
		conds = append(conds, core.Eq("teacher", qf.Teacher))
	}
	if qf.ExamType != "" {
		conds = append(conds, core.Eq("exam_type", qf.ExamType))
	}
	return conds
}
