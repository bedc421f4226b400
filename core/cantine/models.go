package cantine

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo/core"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var Collection = core.Collection{
	Name:     "cantine_orders",
	Resource: "cantine order",
	Indexes: []core.Index{
		{Keys: []string{"student"}},
		{Keys: []string{"status"}},
		{Keys: []string{"order_date"}},
	},
}

// OrderingFields lists the fields a cantine listing may be sorted by.
var OrderingFields = []string{"total_amount", "status", "order_date", "created_at", "updated_at"}

type Item struct {
	Name     string  `json:"name" bson:"name" validate:"required,max=128"`
	Price    float64 `json:"price" bson:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" bson:"quantity" validate:"gte=1"`
}

// Total returns the sum of price * quantity of items.
func Total(items []Item) float64 {
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

type Order struct {
	ID          string    `json:"id" bson:"_id"`
	Student     string    `json:"student" bson:"student"`
	Items       []Item    `json:"items" bson:"items"`
	TotalAmount float64   `json:"total_amount" bson:"total_amount"`
	Status      Status    `json:"status" bson:"status"`
	OrderDate   time.Time `json:"order_date" bson:"order_date"`
	Notes       string    `json:"notes" bson:"notes"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"` // UTC
}

type NewOrder struct {
	Student   string     `json:"student" validate:"required,id"`
	Items     []Item     `json:"items" validate:"required,min=1,dive"`
	OrderDate *time.Time `json:"order_date"`
	Notes     string     `json:"notes"`
}

func (no *NewOrder) Validate(validate *validator.Validate) error {
	cleanItems(no.Items)
	no.Notes = core.CleanString(no.Notes)
	return validate.Struct(no)
}

type UpdateOrder struct {
	Items  *[]Item `json:"items" validate:"omitempty,min=1,dive"`
	Status *Status `json:"status" validate:"omitempty,oneof=pending preparing ready delivered cancelled"`
	Notes  *string `json:"notes"`
}

func (uo *UpdateOrder) Validate(validate *validator.Validate) error {
	if uo.Items != nil {
		cleanItems(*uo.Items)
	}
	return validate.Struct(uo)
}

func (uo UpdateOrder) apply(o *Order) {
	if uo.Items != nil {
		o.Items = *uo.Items
	}
	if uo.Status != nil {
		o.Status = *uo.Status
	}
	if uo.Notes != nil {
		o.Notes = core.CleanString(*uo.Notes)
	}
}

func cleanItems(items []Item) {
	for i := range items {
		items[i].Name = core.CleanString(items[i].Name)
	}
}

type QueryFilter struct {
	Student   string   `query:"student"`
	Students  []string `query:"-"`
	Status    string   `query:"status"`
	OrderDate string   `query:"order_date" validate:"omitempty,date"`
}

func (qf QueryFilter) Conds() []core.Cond {
	var conds []core.Cond
	if qf.Student != "" {
		conds = append(conds, core.Eq("student", qf.Student))
	}
	if qf.Students != nil {
		conds = append(conds, core.In("student", qf.Students...))
	}
	if qf.Status != "" {
		conds = append(conds, core.Eq("status", qf.Status))
	}
	if d, err := core.ParseDate(qf.OrderDate); err == nil {
		day := core.Day(d)
		conds = append(conds, core.Gte("order_date", day), core.Lte("order_date", day.Add(24*time.Hour-time.Millisecond)))
	}
	return conds
}
