package echoapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/parent"
	"github.com/trezcool/masomo/core/student"
	"github.com/trezcool/masomo/core/teacher"
	"github.com/trezcool/masomo/core/user"
)

var errSelfServiceRole = core.NewValidationError(nil, core.FieldError{Field: "role", Error: "role must be one of student, teacher or parent"})

type authApi struct {
	*Server
}

func registerAuthAPI(g *echo.Group, authed echo.MiddlewareFunc, s *Server) {
	api := authApi{Server: s}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
	ag.POST("/password-reset", api.resetPassword)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag.POST("/logout", api.logout, authed)
	ag.GET("/me", api.me, authed, requireUser)
	ag.PUT("/update-password", api.updatePassword, authed, requireUser)
	ag.POST("/token-refresh", api.refreshToken, authed, requireUser)
}

// Handlers

func (api *authApi) register(ctx echo.Context) error {
	var data RegisterRequest
	if err := bindData(ctx, api.Validate, &data, "RegisterRequest"); err != nil {
		return err
	}
	if !data.Role.HasAnyRole(user.SelfServiceRoles...) {
		return errSelfServiceRole
	}
	createProfile, err := api.prepareProfile(data.Role, data.Profile)
	if err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	usr, err := api.UserSvc.Create(rctx, data.NewUser)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}

	resp := map[string]interface{}{"user": usr}
	if createProfile != nil {
		profile, err := createProfile(rctx, usr.ID)
		if err != nil {
			if rmErr := api.UserSvc.Remove(rctx, usr.ID); rmErr != nil {
				api.Logger.Error("register: rolling back user", rmErr, usr)
			}
			return errors.Wrap(err, "creating profile")
		}
		resp["profile"] = profile
	}

	token, err := newUserToken(api.Conf, usr)
	if err != nil {
		return err
	}
	resp["token"] = token
	return respondData(ctx, http.StatusCreated, resp)
}

// prepareProfile validates the optional profile of a registration before any write.
func (api *authApi) prepareProfile(role user.Role, raw json.RawMessage) (func(context.Context, string) (interface{}, error), error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	decode := func(data validatable, setUser func(string)) error {
		if err := json.Unmarshal(raw, data); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "profile", Error: "invalid profile"})
		}
		setUser(core.NewID()) // replaced by the new user's ID
		return data.Validate(api.Validate)
	}

	switch role {
	case user.RoleStudent:
		var ns student.NewStudent
		if err := decode(&ns, func(id string) { ns.User = id }); err != nil {
			return nil, err
		}
		return func(ctx context.Context, userID string) (interface{}, error) {
			ns.User = userID
			return api.StudentSvc.Create(ctx, ns)
		}, nil
	case user.RoleTeacher:
		var nt teacher.NewTeacher
		if err := decode(&nt, func(id string) { nt.User = id }); err != nil {
			return nil, err
		}
		return func(ctx context.Context, userID string) (interface{}, error) {
			nt.User = userID
			return api.TeacherSvc.Create(ctx, nt)
		}, nil
	case user.RoleParent:
		var np parent.NewParent
		if err := decode(&np, func(id string) { np.User = id }); err != nil {
			return nil, err
		}
		return func(ctx context.Context, userID string) (interface{}, error) {
			np.User = userID
			return api.ParentSvc.Create(ctx, np)
		}, nil
	}
	return nil, errSelfServiceRole
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := bindData(ctx, api.Validate, &data, "LoginRequest"); err != nil {
		return err
	}

	usr, err := api.UserSvc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := newUserToken(api.Conf, usr)
	if err != nil {
		return err
	}
	return respondData(ctx, http.StatusOK, map[string]interface{}{"token": token, "user": usr})
}

func (api *authApi) logout(ctx echo.Context) error {
	return respondMessage(ctx, "Logged out successfully.")
}

func (api *authApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	data := map[string]interface{}{"user": usr}
	rctx := ctx.Request().Context()
	var profile interface{}
	switch usr.Role {
	case user.RoleStudent:
		profile, err = api.StudentSvc.GetByUser(rctx, usr.ID)
	case user.RoleTeacher:
		profile, err = api.TeacherSvc.GetByUser(rctx, usr.ID)
	case user.RoleParent:
		profile, err = api.ParentSvc.GetByUser(rctx, usr.ID)
	}
	if err != nil && !core.IsNotFound(err) {
		return errors.Wrap(err, "finding profile")
	}
	if err == nil && profile != nil {
		data["profile"] = profile
	}
	return respondData(ctx, http.StatusOK, data)
}

func (api *authApi) updatePassword(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data user.UpdatePassword
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePassword")
	}
	if err = data.Validate(api.Validate, usr); err != nil {
		return err
	}

	usr, err = api.UserSvc.ChangePassword(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "changing password")
	}
	token, err := newUserToken(api.Conf, usr)
	if err != nil {
		return err
	}
	return respondData(ctx, http.StatusOK, map[string]interface{}{"token": token, "user": usr})
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.Conf)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return respond(ctx, http.StatusOK, "token", token)
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := bindData(ctx, api.Validate, &data, "PasswordResetRequest"); err != nil {
		return err
	}

	if err := api.UserSvc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || core.IsNotFound(err)) {
		// do not return errors to attackers
		api.Logger.Error("requesting password reset", err)
	}
	return respondMessage(ctx, "If the email address supplied is associated with an active account on this system, "+
		"an email will arrive in your inbox shortly with instructions to reset your password.")
}

func (api *authApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}

	if _, err := api.UserSvc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return respondMessage(ctx, "Password has been reset with the new password.")
}

type (
	RegisterRequest struct {
		user.NewUser
		Profile json.RawMessage `json:"profile"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}
)

func (rr *RegisterRequest) Validate(validate *validator.Validate) error {
	return rr.NewUser.Validate(validate)
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
