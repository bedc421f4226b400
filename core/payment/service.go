package payment

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
)

type (
	// ContactFinder resolves the email address of a Student.
	ContactFinder interface {
		Contact(ctx context.Context, studentID string) (mail.Address, error)
	}

	Service interface {
		Create(ctx context.Context, np NewPayment) (Payment, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Payment, error)
		GetByID(ctx context.Context, id string) (Payment, error)
		Update(ctx context.Context, p Payment, up UpdatePayment) (Payment, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo     core.Repository[Payment]
		contacts ContactFinder
		mailSvc  core.EmailService
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo core.Repository[Payment], contacts ContactFinder, mailSvc core.EmailService, logger core.Logger) Service {
	return &service{repo: repo, contacts: contacts, mailSvc: mailSvc, logger: logger}
}

func (svc *service) Create(ctx context.Context, np NewPayment) (Payment, error) {
	now := core.Now()
	p := Payment{
		ID:            core.NewID(),
		Student:       np.Student,
		Amount:        np.Amount,
		PaymentType:   np.PaymentType,
		PaymentMethod: np.PaymentMethod,
		Status:        np.Status,
		Description:   np.Description,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if np.DueDate != nil {
		due := np.DueDate.UTC().Truncate(time.Millisecond)
		p.DueDate = &due
	}
	if p.PaymentMethod == "" {
		p.PaymentMethod = MethodCash
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	settled := p.settle()
	if err := svc.repo.Insert(ctx, p); err != nil {
		return Payment{}, errors.Wrap(err, "inserting payment")
	}
	if settled {
		svc.sendReceipt(ctx, p)
	}
	return p, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Payment, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	payments, err := svc.repo.Find(ctx, core.Query{Conds: filter.Conds(), Ordering: ordering})
	return payments, errors.Wrap(err, "querying payments")
}

func (svc *service) GetByID(ctx context.Context, id string) (Payment, error) {
	return svc.repo.Get(ctx, id)
}

// Update applies up to p. A Payment is settled at most once: of two concurrent
// updates marking it paid, only one assigns the receipt and sends it.
func (svc *service) Update(ctx context.Context, p Payment, up UpdatePayment) (Payment, error) {
	for attempt := 1; ; attempt++ {
		prev := p.UpdatedAt
		up.apply(&p)
		settled := p.settle()
		p.UpdatedAt = core.Touch(prev)
		err := svc.repo.ReplaceIf(ctx, p.ID, p, core.Eq("updated_at", prev))
		if err == nil {
			if settled {
				svc.sendReceipt(ctx, p)
			}
			return p, nil
		}
		if !core.IsModified(err) || attempt == core.MaxWriteAttempts {
			return Payment{}, errors.Wrap(err, "updating payment")
		}
		if p, err = svc.repo.Get(ctx, p.ID); err != nil {
			return Payment{}, errors.Wrap(err, "reloading payment")
		}
	}
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.Delete(ctx, id)
}

func (svc *service) sendReceipt(ctx context.Context, p Payment) {
	to, err := svc.contacts.Contact(ctx, p.Student)
	if err != nil {
		svc.logger.Warn("payment.sendReceipt: "+err.Error(), p.ID)
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{to},
		Subject:      "Payment Receipt " + p.ReceiptNumber,
		TemplateName: "payment_receipt",
		TemplateData: map[string]interface{}{
			"Name":          to.Name,
			"ReceiptNumber": p.ReceiptNumber,
			"PaymentType":   string(p.PaymentType),
			"Amount":        p.Amount,
			"PaymentMethod": string(p.PaymentMethod),
			"PaidAt":        *p.PaidAt,
		},
	})
}
