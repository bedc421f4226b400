package message

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo/core"
)

const (
	BoxInbox = "inbox"
	BoxSent  = "sent"
)

var Collection = core.Collection{
	Name:     "messages",
	Resource: "message",
	Indexes: []core.Index{
		{Keys: []string{"recipient", "is_read"}},
		{Keys: []string{"sender"}},
	},
}

// OrderingFields lists the fields a message listing may be sorted by.
var OrderingFields = []string{"subject", "is_read", "read_at", "created_at"}

type Message struct {
	ID        string     `json:"id" bson:"_id"`
	Sender    string     `json:"sender" bson:"sender"`       // User ID
	Recipient string     `json:"recipient" bson:"recipient"` // User ID
	Subject   string     `json:"subject" bson:"subject"`
	Content   string     `json:"content" bson:"content"`
	IsRead    bool       `json:"is_read" bson:"is_read"`
	ReadAt    *time.Time `json:"read_at" bson:"read_at"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"` // UTC
}

// Involves reports whether userID sent or received the Message.
func (m Message) Involves(userID string) bool {
	return m.Sender == userID || m.Recipient == userID
}

type NewMessage struct {
	Recipient string `json:"recipient" validate:"required,id"`
	Subject   string `json:"subject" validate:"required,max=256"`
	Content   string `json:"content" validate:"required"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Subject = core.CleanString(nm.Subject)
	nm.Content = core.CleanString(nm.Content)
	return validate.Struct(nm)
}

type QueryFilter struct {
	Box    string `query:"box" validate:"omitempty,oneof=inbox sent"`
	IsRead *bool  `query:"is_read"`
}

// Conds restricts the filter to the messages of userID.
func (qf QueryFilter) Conds(userID string) []core.Cond {
	var conds []core.Cond
	switch qf.Box {
	case BoxInbox:
		conds = append(conds, core.Eq("recipient", userID))
	case BoxSent:
		conds = append(conds, core.Eq("sender", userID))
	default:
		conds = append(conds, core.Or(core.Eq("recipient", userID), core.Eq("sender", userID)))
	}
	if qf.IsRead != nil {
		conds = append(conds, core.Eq("is_read", *qf.IsRead))
	}
	return conds
}
