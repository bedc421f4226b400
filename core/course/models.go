package course

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo/core"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

var Collection = core.Collection{
	Name:     "courses",
	Resource: "course",
	Indexes: []core.Index{
		{Keys: []string{"code"}, Unique: true},
		{Keys: []string{"teacher"}},
		{Keys: []string{"students"}},
	},
}

// OrderingFields lists the fields a course listing may be sorted by.
var OrderingFields = []string{"name", "code", "capacity", "credits", "academic_year", "status", "created_at", "updated_at"}

type ScheduleEntry struct {
	Day       string `json:"day" bson:"day" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime string `json:"start_time" bson:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" bson:"end_time" validate:"required,clock"`
	Room      string `json:"room" bson:"room"`
}

type Course struct {
	ID           string          `json:"id" bson:"_id"`
	Name         string          `json:"name" bson:"name"`
	Code         string          `json:"code" bson:"code"`
	Description  string          `json:"description" bson:"description"`
	Teacher      string          `json:"teacher" bson:"teacher"`   // User ID
	Students     []string        `json:"students" bson:"students"` // Student IDs
	Schedule     []ScheduleEntry `json:"schedule" bson:"schedule"`
	Capacity     int             `json:"capacity" bson:"capacity"` // 0: unlimited
	Credits      int             `json:"credits" bson:"credits"`
	AcademicYear string          `json:"academic_year" bson:"academic_year"`
	Status       Status          `json:"status" bson:"status"`
	CreatedAt    time.Time       `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt    time.Time       `json:"updated_at" bson:"updated_at"` // UTC
}

func (c Course) HasStudent(studentID string) bool {
	for _, id := range c.Students {
		if id == studentID {
			return true
		}
	}
	return false
}

func (c Course) IsFull() bool {
	return c.Capacity > 0 && len(c.Students) >= c.Capacity
}

func (c Course) IsOverCapacity() bool {
	return c.Capacity > 0 && len(c.Students) > c.Capacity
}

type NewCourse struct {
	Name         string          `json:"name" validate:"required,max=128"`
	Code         string          `json:"code" validate:"required,max=16,alphanum_"`
	Description  string          `json:"description"`
	Teacher      string          `json:"teacher" validate:"omitempty,id"`
	Students     []string        `json:"students" validate:"omitempty,dive,id"`
	Schedule     []ScheduleEntry `json:"schedule" validate:"omitempty,dive"`
	Capacity     int             `json:"capacity" validate:"gte=0"`
	Credits      int             `json:"credits" validate:"gte=0"`
	AcademicYear string          `json:"academic_year"`
	Status       Status          `json:"status" validate:"omitempty,oneof=active archived"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Code = strings.ToUpper(core.CleanString(nc.Code))
	cleanSchedule(nc.Schedule)
	if err := validate.Struct(nc); err != nil {
		return err
	}
	if err := checkSchedule(nc.Schedule); err != nil {
		return err
	}
	if nc.Capacity > 0 && len(nc.Students) > nc.Capacity {
		return core.NewValidationError(nil, core.FieldError{Field: "students", Error: "number of students exceeds capacity"})
	}
	return nil
}

type UpdateCourse struct {
	Name         *string          `json:"name" validate:"omitempty,min=1,max=128"`
	Code         *string          `json:"code" validate:"omitempty,min=1,max=16,alphanum_"`
	Description  *string          `json:"description"`
	Teacher      *string          `json:"teacher" validate:"omitempty,id"`
	Students     []string         `json:"students" validate:"omitempty,dive,id"`
	Schedule     *[]ScheduleEntry `json:"schedule" validate:"omitempty,dive"`
	Capacity     *int             `json:"capacity" validate:"omitempty,gte=0"`
	Credits      *int             `json:"credits" validate:"omitempty,gte=0"`
	AcademicYear *string          `json:"academic_year"`
	Status       *Status          `json:"status" validate:"omitempty,oneof=active archived"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	if uc.Code != nil {
		uc.Code = core.StrPtr(strings.ToUpper(core.CleanString(*uc.Code)))
	}
	if uc.Schedule != nil {
		cleanSchedule(*uc.Schedule)
	}
	if err := validate.Struct(uc); err != nil {
		return err
	}
	if uc.Schedule != nil {
		return checkSchedule(*uc.Schedule)
	}
	return nil
}

func (uc UpdateCourse) apply(c *Course) {
	if uc.Name != nil {
		c.Name = core.CleanString(*uc.Name)
	}
	if uc.Code != nil {
		c.Code = *uc.Code
	}
	if uc.Description != nil {
		c.Description = *uc.Description
	}
	if uc.Teacher != nil {
		c.Teacher = *uc.Teacher
	}
	if uc.Students != nil {
		c.Students = uc.Students
	}
	if uc.Schedule != nil {
		c.Schedule = *uc.Schedule
	}
	if uc.Capacity != nil {
		c.Capacity = *uc.Capacity
	}
	if uc.Credits != nil {
		c.Credits = *uc.Credits
	}
	if uc.AcademicYear != nil {
		c.AcademicYear = *uc.AcademicYear
	}
	if uc.Status != nil {
		c.Status = *uc.Status
	}
}

func cleanSchedule(entries []ScheduleEntry) {
	for i := range entries {
		entries[i].Day = core.CleanString(entries[i].Day, true /* lower */)
		entries[i].StartTime = core.CleanString(entries[i].StartTime)
		entries[i].EndTime = core.CleanString(entries[i].EndTime)
		entries[i].Room = core.CleanString(entries[i].Room)
	}
}

// checkSchedule ensures every entry ends after it starts (HH:MM compares lexically).
func checkSchedule(entries []ScheduleEntry) error {
	for _, e := range entries {
		if e.EndTime <= e.StartTime {
			return core.NewValidationError(nil, core.FieldError{Field: "schedule", Error: "end_time must be after start_time"})
		}
	}
	return nil
}

type QueryFilter struct {
	Search       string `query:"search"`
	Code         string `query:"code"`
	Teacher      string `query:"teacher"`
	Student      string `query:"student"`
	AcademicYear string `query:"academic_year"`
	Status       string `query:"status"`
}

func (qf QueryFilter) Conds() []core.Cond {
	var conds []core.Cond
	if s := core.CleanString(qf.Search); s != "" {
		conds = append(conds, core.Search(s, "name", "code"))
	}
	if qf.Code != "" {
		conds = append(conds, core.Eq("code", strings.ToUpper(qf.Code)))
	}
	if qf.Teacher != "" {
		conds = append(conds, core.Eq("teacher", qf.Teacher))
	}
	if qf.Student != "" {
		conds = append(conds, core.Eq("students", qf.Student))
	}
	if qf.AcademicYear != "" {
		conds = append(conds, core.Eq("academic_year", qf.AcademicYear))
	}
	if qf.Status != "" {
		conds = append(conds, core.Eq("status", qf.Status))
	}
	return conds
}
