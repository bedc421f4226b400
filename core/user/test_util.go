package user

import (
	"context"

	"github.com/trezcool/masomo/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service sending its emails synchronously.
func NewServiceMock(repo core.Repository[User], mailSvc core.EmailService, conf *core.Config) Service {
	svc := NewService(repo, mailSvc, conf).(*service)
	return &serviceMock{service: *svc}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}

