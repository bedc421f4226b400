package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo/core"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusGraduated Status = "graduated"
	StatusSuspended Status = "suspended"
)

var Collection = core.Collection{
	Name:     "students",
	Resource: "student",
	Indexes: []core.Index{
		{Keys: []string{"user"}, Unique: true},
		{Keys: []string{"student_number"}, Unique: true},
		{Keys: []string{"parents"}},
		{Keys: []string{"grade_level", "section"}},
	},
}

// OrderingFields lists the fields a student listing may be sorted by.
var OrderingFields = []string{"student_number", "date_of_birth", "gender", "grade_level", "section", "enrollment_date", "status", "created_at", "updated_at"}

type Student struct {
	ID             string    `json:"id" bson:"_id"`
	User           string    `json:"user" bson:"user"`
	StudentNumber  string    `json:"student_number" bson:"student_number"`
	DateOfBirth    time.Time `json:"date_of_birth" bson:"date_of_birth"`
	Gender         string    `json:"gender" bson:"gender"`
	Address        string    `json:"address" bson:"address"`
	Phone          string    `json:"phone" bson:"phone"`
	GradeLevel     string    `json:"grade_level" bson:"grade_level"`
	Section        string    `json:"section" bson:"section"`
	Parents        []string  `json:"parents" bson:"parents"`
	EnrollmentDate time.Time `json:"enrollment_date" bson:"enrollment_date"`
	Status         Status    `json:"status" bson:"status"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"` // UTC
}

// NewStudent contains information needed to create a new Student profile.
type NewStudent struct {
	User           string     `json:"user" validate:"required,id"`
	StudentNumber  string     `json:"student_number" validate:"required,max=32"`
	DateOfBirth    time.Time  `json:"date_of_birth"`
	Gender         string     `json:"gender" validate:"omitempty,oneof=male female other"`
	Address        string     `json:"address"`
	Phone          string     `json:"phone" validate:"omitempty,max=32"`
	GradeLevel     string     `json:"grade_level" validate:"required"`
	Section        string     `json:"section"`
	Parents        []string   `json:"parents" validate:"omitempty,dive,id"`
	EnrollmentDate *time.Time `json:"enrollment_date"`
	Status         Status     `json:"status" validate:"omitempty,oneof=active inactive graduated suspended"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.StudentNumber = core.CleanString(ns.StudentNumber)
	ns.GradeLevel = core.CleanString(ns.GradeLevel)
	ns.Section = core.CleanString(ns.Section)
	ns.Gender = core.CleanString(ns.Gender, true /* lower */)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
type UpdateStudent struct {
	StudentNumber *string    `json:"student_number" validate:"omitempty,min=1,max=32"`
	DateOfBirth   *time.Time `json:"date_of_birth"`
	Gender        *string    `json:"gender" validate:"omitempty,oneof=male female other"`
	Address       *string    `json:"address"`
	Phone         *string    `json:"phone" validate:"omitempty,max=32"`
	GradeLevel    *string    `json:"grade_level" validate:"omitempty,min=1"`
	Section       *string    `json:"section"`
	Parents       []string   `json:"parents" validate:"omitempty,dive,id"`
	Status        *Status    `json:"status" validate:"omitempty,oneof=active inactive graduated suspended"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	return validate.Struct(us)
}

func (us UpdateStudent) apply(st *Student) {
	if us.StudentNumber != nil {
		st.StudentNumber = core.CleanString(*us.StudentNumber)
	}
	if us.DateOfBirth != nil {
		st.DateOfBirth = us.DateOfBirth.UTC()
	}
	if us.Gender != nil {
		st.Gender = *us.Gender
	}
	if us.Address != nil {
		st.Address = *us.Address
	}
	if us.Phone != nil {
		st.Phone = *us.Phone
	}
	if us.GradeLevel != nil {
		st.GradeLevel = core.CleanString(*us.GradeLevel)
	}
	if us.Section != nil {
		st.Section = core.CleanString(*us.Section)
	}
	if us.Parents != nil {
		st.Parents = us.Parents
	}
	if us.Status != nil {
		st.Status = *us.Status
	}
}

type QueryFilter struct {
	Search     string `query:"search"`
	User       string `query:"user"`
	Parent     string `query:"parent"`
	GradeLevel string `query:"grade_level"`
	Section    string `query:"section"`
	Status     string `query:"status"`
}

func (qf QueryFilter) Conds() []core.Cond {
	var conds []core.Cond
	if s := core.CleanString(qf.Search); s != "" {
		conds = append(conds, core.Search(s, "student_number", "grade_level", "section"))
	}
	if qf.User != "" {
		conds = append(conds, core.Eq("user", qf.User))
	}
	if qf.Parent != "" {
		conds = append(conds, core.Eq("parents", qf.Parent))
	}
	if qf.GradeLevel != "" {
		conds = append(conds, core.Eq("grade_level", qf.GradeLevel))
	}
	if qf.Section != "" {
		conds = append(conds, core.Eq("section", qf.Section))
	}
	if qf.Status != "" {
		conds = append(conds, core.Eq("status", qf.Status))
	}
	return conds
}
