package attendance

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo/core"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

var Collection = core.Collection{
	Name:     "attendance",
	Resource: "attendance",
	Indexes: []core.Index{
		{Keys: []string{"student", "course", "date"}, Unique: true},
		{Keys: []string{"course", "date"}},
		{Keys: []string{"status"}},
	},
}

// OrderingFields lists the fields a attendance listing may be sorted by.
var OrderingFields = []string{"date", "status", "created_at", "updated_at"}

type Attendance struct {
	ID         string    `json:"id" bson:"_id"`
	Student    string    `json:"student" bson:"student"`
	Course     string    `json:"course" bson:"course"`
	Date       time.Time `json:"date" bson:"date"` // midnight UTC
	Status     Status    `json:"status" bson:"status"`
	Remarks    string    `json:"remarks" bson:"remarks"`
	RecordedBy string    `json:"recorded_by" bson:"recorded_by"` // User ID
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`   // UTC
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`   // UTC
}

type NewAttendance struct {
	Student string `json:"student" validate:"required,id"`
	Course  string `json:"course" validate:"required,id"`
	Date    string `json:"date" validate:"omitempty,date"` // defaults to today
	Status  Status `json:"status" validate:"required,oneof=present absent late excused"`
	Remarks string `json:"remarks"`
}

func (na *NewAttendance) Validate(validate *validator.Validate) error {
	na.Status = Status(core.CleanString(string(na.Status), true /* lower */))
	na.Remarks = core.CleanString(na.Remarks)
	return validate.Struct(na)
}

type UpdateAttendance struct {
	Date    *string `json:"date" validate:"omitempty,date"`
	Status  *Status `json:"status" validate:"omitempty,oneof=present absent late excused"`
	Remarks *string `json:"remarks"`
}

func (ua *UpdateAttendance) Validate(validate *validator.Validate) error {
	return validate.Struct(ua)
}

func (ua UpdateAttendance) apply(att *Attendance) {
	if ua.Date != nil {
		if d, err := core.ParseDate(*ua.Date); err == nil {
			att.Date = core.Day(d)
		}
	}
	if ua.Status != nil {
		att.Status = *ua.Status
	}
	if ua.Remarks != nil {
		att.Remarks = core.CleanString(*ua.Remarks)
	}
}

type QueryFilter struct {
	Student  string `query:"student"`
	Course   string `query:"course"`
	Status   string `query:"status"`
	Date     string `query:"date" validate:"omitempty,date"`
	DateFrom string `query:"date_from" validate:"omitempty,date"`
	DateTo   string `query:"date_to" validate:"omitempty,date"`
}

func (qf QueryFilter) Conds() []core.Cond {
	var conds []core.Cond
	if qf.Student != "" {
		conds = append(conds, core.Eq("student", qf.Student))
	}
	if qf.Course != "" {
		conds = append(conds, core.Eq("course", qf.Course))
	}
	if qf.Status != "" {
		conds = append(conds, core.Eq("status", qf.Status))
	}
	if d, err := core.ParseDate(qf.Date); err == nil {
		conds = append(conds, core.Eq("date", core.Day(d)))
	}
	if d, err := core.ParseDate(qf.DateFrom); err == nil {
		conds = append(conds, core.Gte("date", core.Day(d)))
	}
	if d, err := core.ParseDate(qf.DateTo); err == nil {
		conds = append(conds, core.Lte("date", core.Day(d)))
	}
	return conds
}

// Summary counts attendance records per status.
type Summary struct {
	Total   int     `json:"total"`
	Present int     `json:"present"`
	Absent  int     `json:"absent"`
	Late    int     `json:"late"`
	Excused int     `json:"excused"`
	Rate    float64 `json:"rate"` // (present + late) / total, in percent
}

// Summarize builds the Summary of records.
func Summarize(records []Attendance) Summary {
	var sum Summary
	for _, att := range records {
		sum.Total++
		switch att.Status {
		case StatusPresent:
			sum.Present++
		case StatusAbsent:
			sum.Absent++
		case StatusLate:
			sum.Late++
		case StatusExcused:
			sum.Excused++
		}
	}
	if sum.Total > 0 {
		sum.Rate = math.Round(float64(sum.Present+sum.Late)/float64(sum.Total)*100*100) / 100
	}
	return sum
}
