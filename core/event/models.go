package event

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo/core"
)

type Type string

const (
	TypeAcademic Type = "academic"
	TypeSports   Type = "sports"
	TypeCultural Type = "cultural"
	TypeHoliday  Type = "holiday"
	TypeMeeting  Type = "meeting"
	TypeOther    Type = "other"
)

var Collection = core.Collection{
	Name:     "events",
	Resource: "event",
	Indexes: []core.Index{
		{Keys: []string{"start_date"}},
		{Keys: []string{"participants"}},
	},
}

// OrderingFields lists the fields a event listing may be sorted by.
var OrderingFields = []string{"title", "start_date", "end_date", "location", "event_type", "created_at", "updated_at"}

var errEndBeforeStart = core.NewValidationError(nil, core.FieldError{Field: "end_date", Error: "end_date must be after start_date"})

type Event struct {
	ID           string    `json:"id" bson:"_id"`
	Title        string    `json:"title" bson:"title"`
	Description  string    `json:"description" bson:"description"`
	StartDate    time.Time `json:"start_date" bson:"start_date"`
	EndDate      time.Time `json:"end_date" bson:"end_date"`
	Location     string    `json:"location" bson:"location"`
	EventType    Type      `json:"event_type" bson:"event_type"`
	Organizer    string    `json:"organizer" bson:"organizer"`       // User ID
	Participants []string  `json:"participants" bson:"participants"` // User IDs
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`     // UTC
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`     // UTC
}

type NewEvent struct {
	Title        string     `json:"title" validate:"required,max=256"`
	Description  string     `json:"description"`
	StartDate    time.Time  `json:"start_date" validate:"required"`
	EndDate      *time.Time `json:"end_date"` // defaults to start_date
	Location     string     `json:"location"`
	EventType    Type       `json:"event_type" validate:"omitempty,oneof=academic sports cultural holiday meeting other"`
	Participants []string   `json:"participants" validate:"omitempty,dive,id"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Location = core.CleanString(ne.Location)
	if err := validate.Struct(ne); err != nil {
		return err
	}
	if ne.EndDate != nil && ne.EndDate.Before(ne.StartDate) {
		return errEndBeforeStart
	}
	return nil
}

type UpdateEvent struct {
	Title        *string    `json:"title" validate:"omitempty,min=1,max=256"`
	Description  *string    `json:"description"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	Location     *string    `json:"location"`
	EventType    *Type      `json:"event_type" validate:"omitempty,oneof=academic sports cultural holiday meeting other"`
	Participants []string   `json:"participants" validate:"omitempty,dive,id"`
}

func (ue *UpdateEvent) Validate(validate *validator.Validate) error {
	return validate.Struct(ue)
}

func (ue UpdateEvent) apply(evt *Event) {
	if ue.Title != nil {
		evt.Title = core.CleanString(*ue.Title)
	}
	if ue.Description != nil {
		evt.Description = *ue.Description
	}
	if ue.StartDate != nil {
		evt.StartDate = ue.StartDate.UTC().Truncate(time.Millisecond)
	}
	if ue.EndDate != nil {
		evt.EndDate = ue.EndDate.UTC().Truncate(time.Millisecond)
	}
	if ue.Location != nil {
		evt.Location = core.CleanString(*ue.Location)
	}
	if ue.EventType != nil {
		evt.EventType = *ue.EventType
	}
	if ue.Participants != nil {
		evt.Participants = ue.Participants
	}
}

type QueryFilter struct {
	EventType   string `query:"event_type"`
	Organizer   string `query:"organizer"`
	Participant string `query:"participant"`
	From        string `query:"from" validate:"omitempty,date"` // events ending on/after
	To          string `query:"to" validate:"omitempty,date"`   // events starting on/before
}

func (qf QueryFilter) Conds() []core.Cond {
	var conds []core.Cond
	if qf.EventType != "" {
		conds = append(conds, core.Eq("event_type", qf.EventType))
	}
	if qf.Organizer != "" {
		conds = append(conds, core.Eq("organizer", qf.Organizer))
	}
	if qf.Participant != "" {
		conds = append(conds, core.Eq("participants", qf.Participant))
	}
	if t, err := core.ParseDate(qf.From); err == nil {
		conds = append(conds, core.Gte("end_date", t))
	}
	if t, err := core.ParseDate(qf.To); err == nil {
		conds = append(conds, core.Lte("start_date", t))
	}
	return conds
}
