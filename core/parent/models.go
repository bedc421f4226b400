package parent

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo/core"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

var Collection = core.Collection{
	Name:     "parents",
	Resource: "parent",
	Indexes: []core.Index{
		{Keys: []string{"user"}, Unique: true},
		{Keys: []string{"children"}},
	},
}

// OrderingFields lists the fields a parent listing may be sorted by.
var OrderingFields = []string{"occupation", "relationship", "status", "created_at", "updated_at"}

type Parent struct {
	ID           string    `json:"id" bson:"_id"`
	User         string    `json:"user" bson:"user"`
	Phone        string    `json:"phone" bson:"phone"`
	Address      string    `json:"address" bson:"address"`
	Occupation   string    `json:"occupation" bson:"occupation"`
	Relationship string    `json:"relationship" bson:"relationship"`
	Children     []string  `json:"children" bson:"children"` // Student IDs
	Status       Status    `json:"status" bson:"status"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"` // UTC
}

// HasChild reports whether the Student studentID is one of the Parent's children.
func (p Parent) HasChild(studentID string) bool {
	for _, id := range p.Children {
		if id == studentID {
			return true
		}
	}
	return false
}

type NewParent struct {
	User         string   `json:"user" validate:"required,id"`
	Phone        string   `json:"phone" validate:"omitempty,max=32"`
	Address      string   `json:"address"`
	Occupation   string   `json:"occupation"`
	Relationship string   `json:"relationship" validate:"omitempty,oneof=father mother guardian other"`
	Children     []string `json:"children" validate:"omitempty,dive,id"`
	Status       Status   `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (np *NewParent) Validate(validate *validator.Validate) error {
	np.Relationship = core.CleanString(np.Relationship, true /* lower */)
	return validate.Struct(np)
}

type UpdateParent struct {
	Phone        *string  `json:"phone" validate:"omitempty,max=32"`
	Address      *string  `json:"address"`
	Occupation   *string  `json:"occupation"`
	Relationship *string  `json:"relationship" validate:"omitempty,oneof=father mother guardian other"`
	Children     []string `json:"children" validate:"omitempty,dive,id"`
	Status       *Status  `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (up *UpdateParent) Validate(validate *validator.Validate) error {
	return validate.Struct(up)
}

func (up UpdateParent) apply(p *Parent) {
	if up.Phone != nil {
		p.Phone = *up.Phone
	}
	if up.Address != nil {
		p.Address = *up.Address
	}
	if up.Occupation != nil {
		p.Occupation = *up.Occupation
	}
	if up.Relationship != nil {
		p.Relationship = *up.Relationship
	}
	if up.Children != nil {
		p.Children = up.Children
	}
	if up.Status != nil {
		p.Status = *up.Status
	}
}

type QueryFilter struct {
	User   string `query:"user"`
	Child  string `query:"child"`
	Status string `query:"status"`
}

func (qf QueryFilter) Conds() []core.Cond {
	var conds []core.Cond
	if qf.User != "" {
		conds = append(conds, core.Eq("user", qf.User))
	}
	if qf.Child != "" {
		conds = append(conds, core.Eq("children", qf.Child))
	}
	if qf.Status != "" {
		conds = append(conds, core.Eq("status", qf.Status))
	}
	return conds
}
