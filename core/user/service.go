package user

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError(Collection.Resource)
	ErrInvalidCredentials = core.NewValidationError(errors.New("invalid credentials"))
	ErrWrongPassword      = core.NewValidationError(nil, core.FieldError{Field: "current_password", Error: "wrong password"})
	ErrInvalidResetLink   = core.NewValidationError(errors.New("the password reset link is invalid or has expired"))
	ErrAccountDeactivated = &core.AuthError{Code: "account_deactivated", Message: "account deactivated"}
)

type (
	Service interface {
		Create(ctx context.Context, nu NewUser) (User, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]User, int64, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		Update(ctx context.Context, usr User, uu UpdateUser) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		ChangePassword(ctx context.Context, usr User, up UpdatePassword) (User, error)
		SetPassword(ctx context.Context, usr User, pwd string) (User, error)
		Deactivate(ctx context.Context, usr User) (User, error)
		// Remove hard-deletes a User; only used to roll back a failed registration.
		Remove(ctx context.Context, id string) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) (User, error)
	}

	service struct {
		repo    core.Repository[User]
		mailSvc core.EmailService
		tokens  tokenGenerator
	}
)

var _ Service = (*service)(nil)

func NewService(repo core.Repository[User], mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		tokens: tokenGenerator{
			secretKey: []byte(conf.SecretKey),
			timeout:   conf.PasswordResetTimeoutDelta,
		},
	}
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := core.Now()
	usr := User{
		ID:        core.NewID(),
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	if err := svc.repo.Insert(ctx, usr); err != nil {
		return User{}, errors.Wrap(err, "inserting user")
	}
	svc.sendWelcomeMail(usr)
	return usr, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]User, int64, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	q := core.Query{Conds: filter.Conds(), Ordering: ordering}
	total, err := svc.repo.Count(ctx, q)
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting users")
	}
	if page.Limit > 0 {
		q.Skip, q.Limit = page.Skip(), int64(page.Limit)
	}
	users, err := svc.repo.Find(ctx, q)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying users")
	}
	return users, total, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	users, err := svc.repo.Find(ctx, core.Query{
		Conds: []core.Cond{core.Eq("email", core.CleanString(email, true /* lower */))},
		Limit: 1,
	})
	if err != nil {
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if len(users) == 0 {
		return User{}, ErrNotFound
	}
	return users[0], nil
}

// Authenticate checks the credentials of an active User & records the login.
func (svc *service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}
	return svc.SetLastLogin(ctx, usr)
}

func (svc *service) Update(ctx context.Context, usr User, uu UpdateUser) (User, error) {
	if uu.Name != nil {
		usr.Name = *uu.Name
	}
	if uu.Email != nil {
		usr.Email = *uu.Email
	}
	if uu.Role != nil {
		usr.Role = *uu.Role
	}
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	return svc.save(ctx, usr)
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = core.Now()
	return svc.save(ctx, usr)
}

func (svc *service) ChangePassword(ctx context.Context, usr User, up UpdatePassword) (User, error) {
	if err := usr.CheckPassword(up.CurrentPassword); err != nil {
		return User{}, ErrWrongPassword
	}
	return svc.SetPassword(ctx, usr, up.Password)
}

func (svc *service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.save(ctx, usr)
}

// Deactivate soft-deletes a User.
func (svc *service) Deactivate(ctx context.Context, usr User) (User, error) {
	usr.IsActive = false
	return svc.save(ctx, usr)
}

func (svc *service) Remove(ctx context.Context, id string) error {
	return svc.repo.Delete(ctx, id)
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) (User, error) {
	id, err := decodeUID(data.UID)
	if err != nil || !core.ValidID(id) {
		return User{}, ErrInvalidResetLink
	}
	usr, err := svc.repo.Get(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, ErrInvalidResetLink
		}
		return User{}, err
	}
	if err = svc.tokens.verifyToken(usr, data.Token); err != nil {
		return User{}, ErrInvalidResetLink
	}
	return svc.SetPassword(ctx, usr, data.Password)
}

func (svc *service) save(ctx context.Context, usr User) (User, error) {
	usr.UpdatedAt = core.Now()
	if err := svc.repo.Replace(ctx, usr.ID, usr); err != nil {
		return User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (svc *service) sendPasswordResetMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]string{
			"Name":  usr.Name,
			"UID":   EncodeUID(usr),
			"Token": svc.tokens.makeToken(usr),
		},
	})
}

func (svc *service) sendWelcomeMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Welcome",
		TemplateName: "welcome",
		TemplateData: map[string]string{
			"Name":  usr.Name,
			"Email": usr.Email,
			"Role":  string(usr.Role),
		},
	})
}

// Finder looks Users up by ID.
type Finder interface {
	GetByID(ctx context.Context, id string) (User, error)
}

// GetWithRole returns the User referenced by field, reporting a field error when it does not exist or has another role.
func GetWithRole(ctx context.Context, finder Finder, field, id string, roles ...Role) (User, error) {
	usr, err := finder.GetByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, core.NewValidationError(nil, core.FieldError{Field: field, Error: "user not found"})
		}
		return User{}, errors.Wrap(err, "finding user by ID")
	}
	if !usr.Role.HasAnyRole(roles...) {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: field, Error: "user does not have the required role"})
	}
	return usr, nil
}
