package message

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/user"
)

var ErrNotRecipient = &core.PermissionError{Code: "permission_denied", Message: "only the recipient can mark a message as read"}

type (
	Service interface {
		Send(ctx context.Context, sender user.User, nm NewMessage) (Message, error)
		Query(ctx context.Context, userID string, filter QueryFilter, ordering []core.DBOrdering) ([]Message, error)
		GetByID(ctx context.Context, id string) (Message, error)
		MarkRead(ctx context.Context, m Message, userID string) (Message, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo    core.Repository[Message]
		users   user.Finder
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo core.Repository[Message], users user.Finder, mailSvc core.EmailService) Service {
	return &service{repo: repo, users: users, mailSvc: mailSvc}
}

func (svc *service) Send(ctx context.Context, sender user.User, nm NewMessage) (Message, error) {
	recipient, err := user.GetWithRole(ctx, svc.users, "recipient", nm.Recipient, user.AllRoles...)
	if err != nil {
		return Message{}, err
	}
	if !recipient.IsActive {
		return Message{}, core.NewValidationError(nil, core.FieldError{Field: "recipient", Error: "recipient account is deactivated"})
	}

	now := core.Now()
	m := Message{
		ID:        core.NewID(),
		Sender:    sender.ID,
		Recipient: recipient.ID,
		Subject:   nm.Subject,
		Content:   nm.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := svc.repo.Insert(ctx, m); err != nil {
		return Message{}, errors.Wrap(err, "inserting message")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: recipient.Name, Address: recipient.Email}},
		Subject:      "New message: " + m.Subject,
		TemplateName: "new_message",
		TemplateData: map[string]string{
			"RecipientName": recipient.Name,
			"SenderName":    sender.Name,
			"Subject":       m.Subject,
			"MessageID":     m.ID,
		},
	})
	return m, nil
}

func (svc *service) Query(ctx context.Context, userID string, filter QueryFilter, ordering []core.DBOrdering) ([]Message, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	messages, err := svc.repo.Find(ctx, core.Query{Conds: filter.Conds(userID), Ordering: ordering})
	return messages, errors.Wrap(err, "querying messages")
}

func (svc *service) GetByID(ctx context.Context, id string) (Message, error) {
	return svc.repo.Get(ctx, id)
}

// MarkRead marks m as read by its recipient; read_at is kept from the first read.
func (svc *service) MarkRead(ctx context.Context, m Message, userID string) (Message, error) {
	if m.Recipient != userID {
		return Message{}, ErrNotRecipient
	}
	if m.IsRead {
		return m, nil
	}
	now := core.Now()
	m.IsRead = true
	m.ReadAt = &now
	m.UpdatedAt = now
	if err := svc.repo.Replace(ctx, m.ID, m); err != nil {
		return Message{}, errors.Wrap(err, "updating message")
	}
	return m, nil
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.Delete(ctx, id)
}
