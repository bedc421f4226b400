package teacher

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo/core"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusOnLeave  Status = "on_leave"
	StatusInactive Status = "inactive"
)

var Collection = core.Collection{
	Name:     "teachers",
	Resource: "teacher",
	Indexes: []core.Index{
		{Keys: []string{"user"}, Unique: true},
		{Keys: []string{"employee_number"}, Unique: true},
		{Keys: []string{"subjects"}},
	},
}

// OrderingFields lists the fields a teacher listing may be sorted by.
var OrderingFields = []string{"employee_number", "qualification", "hire_date", "status", "created_at", "updated_at"}

type Teacher struct {
	ID             string    `json:"id" bson:"_id"`
	User           string    `json:"user" bson:"user"`
	EmployeeNumber string    `json:"employee_number" bson:"employee_number"`
	Subjects       []string  `json:"subjects" bson:"subjects"`
	Qualification  string    `json:"qualification" bson:"qualification"`
	Phone          string    `json:"phone" bson:"phone"`
	Address        string    `json:"address" bson:"address"`
	HireDate       time.Time `json:"hire_date" bson:"hire_date"`
	Status         Status    `json:"status" bson:"status"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"` // UTC
}

type NewTeacher struct {
	User           string     `json:"user" validate:"required,id"`
	EmployeeNumber string     `json:"employee_number" validate:"required,max=32"`
	Subjects       []string   `json:"subjects" validate:"omitempty,dive,required"`
	Qualification  string     `json:"qualification"`
	Phone          string     `json:"phone" validate:"omitempty,max=32"`
	Address        string     `json:"address"`
	HireDate       *time.Time `json:"hire_date"`
	Status         Status     `json:"status" validate:"omitempty,oneof=active on_leave inactive"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.EmployeeNumber = core.CleanString(nt.EmployeeNumber)
	nt.Subjects = cleanSubjects(nt.Subjects)
	return validate.Struct(nt)
}

type UpdateTeacher struct {
	EmployeeNumber *string    `json:"employee_number" validate:"omitempty,min=1,max=32"`
	Subjects       []string   `json:"subjects" validate:"omitempty,dive,required"`
	Qualification  *string    `json:"qualification"`
	Phone          *string    `json:"phone" validate:"omitempty,max=32"`
	Address        *string    `json:"address"`
	HireDate       *time.Time `json:"hire_date"`
	Status         *Status    `json:"status" validate:"omitempty,oneof=active on_leave inactive"`
}

func (ut *UpdateTeacher) Validate(validate *validator.Validate) error {
	if ut.Subjects != nil {
		ut.Subjects = cleanSubjects(ut.Subjects)
	}
	return validate.Struct(ut)
}

func (ut UpdateTeacher) apply(tch *Teacher) {
	if ut.EmployeeNumber != nil {
		tch.EmployeeNumber = core.CleanString(*ut.EmployeeNumber)
	}
	if ut.Subjects != nil {
		tch.Subjects = ut.Subjects
	}
	if ut.Qualification != nil {
		tch.Qualification = *ut.Qualification
	}
	if ut.Phone != nil {
		tch.Phone = *ut.Phone
	}
	if ut.Address != nil {
		tch.Address = *ut.Address
	}
	if ut.HireDate != nil {
		tch.HireDate = ut.HireDate.UTC()
	}
	if ut.Status != nil {
		tch.Status = *ut.Status
	}
}

func cleanSubjects(subjects []string) []string {
	cleaned := make([]string, 0, len(subjects))
	for _, s := range subjects {
		cleaned = append(cleaned, core.CleanString(s))
	}
	return cleaned
}

type QueryFilter struct {
	User    string `query:"user"`
	Subject string `query:"subject"`
	Status  string `query:"status"`
}

func (qf QueryFilter) Conds() []core.Cond {
	var conds []core.Cond
	if qf.User != "" {
		conds = append(conds, core.Eq("user", qf.User))
	}
	if qf.Subject != "" {
		conds = append(conds, core.Eq("subjects", qf.Subject))
	}
	if qf.Status != "" {
		conds = append(conds, core.Eq("status", qf.Status))
	}
	return conds
}
