package payment

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo/core"
)

type (
	Type   string
	Method string
	Status string
)

const (
	TypeTuition   Type = "tuition"
	TypeCantine   Type = "cantine"
	TypeTransport Type = "transport"
	TypeBooks     Type = "books"
	TypeOther     Type = "other"

	MethodCash         Method = "cash"
	MethodCard         Method = "card"
	MethodBankTransfer Method = "bank_transfer"
	MethodMobileMoney  Method = "mobile_money"

	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusFailed   Status = "failed"
	StatusRefunded Status = "refunded"
)

var randIntn = rand.Intn // mockable

var Collection = core.Collection{
	Name:     "payments",
	Resource: "payment",
	Indexes: []core.Index{
		{Keys: []string{"student"}},
		{Keys: []string{"status"}},
		{Keys: []string{"receipt_number"}},
	},
}

// OrderingFields lists the fields a payment listing may be sorted by.
var OrderingFields = []string{"amount", "payment_type", "payment_method", "status", "due_date", "paid_at", "created_at", "updated_at"}

type Payment struct {
	ID            string     `json:"id" bson:"_id"`
	Student       string     `json:"student" bson:"student"`
	Amount        float64    `json:"amount" bson:"amount"`
	PaymentType   Type       `json:"payment_type" bson:"payment_type"`
	PaymentMethod Method     `json:"payment_method" bson:"payment_method"`
	Status        Status     `json:"status" bson:"status"`
	DueDate       *time.Time `json:"due_date" bson:"due_date"`
	PaidAt        *time.Time `json:"paid_at" bson:"paid_at"`
	Description   string     `json:"description" bson:"description"`
	ReceiptNumber string     `json:"receipt_number" bson:"receipt_number"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt     time.Time  `json:"updated_at" bson:"updated_at"` // UTC
}

// ReceiptNumber formats a receipt number for a payment settled at t.
func ReceiptNumber(t time.Time) string {
	return fmt.Sprintf("RCP-%d-%04d", t.UnixMilli(), randIntn(10000))
}

// settle assigns the receipt number and paid_at the first time the Payment is paid.
// It reports whether the Payment was settled by this call.
func (p *Payment) settle() bool {
	if p.Status != StatusPaid || p.ReceiptNumber != "" {
		return false
	}
	now := core.Now()
	p.ReceiptNumber = ReceiptNumber(now)
	if p.PaidAt == nil {
		p.PaidAt = &now
	}
	return true
}

type NewPayment struct {
	Student       string     `json:"student" validate:"required,id"`
	Amount        float64    `json:"amount" validate:"required,gt=0"`
	PaymentType   Type       `json:"payment_type" validate:"required,oneof=tuition cantine transport books other"`
	PaymentMethod Method     `json:"payment_method" validate:"omitempty,oneof=cash card bank_transfer mobile_money"`
	Status        Status     `json:"status" validate:"omitempty,oneof=pending paid failed refunded"`
	DueDate       *time.Time `json:"due_date"`
	Description   string     `json:"description"`
}

func (np *NewPayment) Validate(validate *validator.Validate) error {
	np.Description = core.CleanString(np.Description)
	return validate.Struct(np)
}

type UpdatePayment struct {
	Amount        *float64   `json:"amount" validate:"omitempty,gt=0"`
	PaymentType   *Type      `json:"payment_type" validate:"omitempty,oneof=tuition cantine transport books other"`
	PaymentMethod *Method    `json:"payment_method" validate:"omitempty,oneof=cash card bank_transfer mobile_money"`
	Status        *Status    `json:"status" validate:"omitempty,oneof=pending paid failed refunded"`
	DueDate       *time.Time `json:"due_date"`
	Description   *string    `json:"description"`
}

func (up *UpdatePayment) Validate(validate *validator.Validate) error {
	return validate.Struct(up)
}

func (up UpdatePayment) apply(p *Payment) {
	if up.Amount != nil {
		p.Amount = *up.Amount
	}
	if up.PaymentType != nil {
		p.PaymentType = *up.PaymentType
	}
	if up.PaymentMethod != nil {
		p.PaymentMethod = *up.PaymentMethod
	}
	if up.Status != nil {
		p.Status = *up.Status
	}
	if up.DueDate != nil {
		due := up.DueDate.UTC().Truncate(time.Millisecond)
		p.DueDate = &due
	}
	if up.Description != nil {
		p.Description = core.CleanString(*up.Description)
	}
}

type QueryFilter struct {
	Student     string   `query:"student"`
	Students    []string `query:"-"` // set by handlers to restrict parents to their children
	Status      string   `query:"status"`
	PaymentType string   `query:"payment_type"`
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
	if qf.PaymentType != "" {
		conds = append(conds, core.Eq("payment_type", qf.PaymentType))
	}
	return conds
}
