package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/auth"
	"github.com/trezcool/masomo/core/user"
)

var errNoPermsToSetRole = "not enough rights to set this role"

type userApi struct {
	*Server
}

func registerUserAPI(g *echo.Group, authed echo.MiddlewareFunc, s *Server) {
	api := userApi{Server: s}

	ug := g.Group("/users", authed)
	ug.GET("", api.query, isStaff)
	ug.POST("", api.create, isStaff)
	ug.GET("/roles", api.queryRoles, isStaff)

	// detail endpoints
	dg := ug.Group("/:id", ctxUserOrStaffMiddleware(s.UserSvc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.PATCH("", api.update)
	dg.DELETE("", api.destroy, isAdmin)
}

// Handlers

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := bindData(ctx, api.Validate, &data, "NewUser"); err != nil {
		return err
	}

	// principal cannot set a role > their own
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	if data.Role.Priority() > p.Role.Priority() {
		return core.NewValidationError(nil, core.FieldError{Field: "role", Error: errNoPermsToSetRole})
	}

	usr, err := api.UserSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return respond(ctx, http.StatusCreated, "user", usr)
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := bindQuery(ctx, api.Validate, filter); err != nil {
		return err
	}
	filter.Clean()
	page := bindPagination(ctx)

	users, total, err := api.UserSvc.Query(ctx.Request().Context(), *filter, bindOrdering(ctx, user.OrderingFields), page)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	return respondList(ctx, "users", users, page.TotalPages(total))
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, err := getContextObject[user.User](ctx)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "user", usr)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, err := getContextObject[user.User](ctx)
	if err != nil {
		return err
	}

	var data user.UpdateUser
	if err = bindData(ctx, api.Validate, &data, "UpdateUser"); err != nil {
		return err
	}

	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	// `IsActive` and `Role` can only be changed by staff
	if !p.IsStaff() && data.TouchesPrivileges() {
		return auth.ErrPermissionDenied
	}
	if data.Role != nil && data.Role.Priority() > p.Role.Priority() {
		return core.NewValidationError(nil, core.FieldError{Field: "role", Error: errNoPermsToSetRole})
	}

	usr, err = api.UserSvc.Update(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return respond(ctx, http.StatusOK, "user", usr)
}

// destroy deactivates the User.
func (api *userApi) destroy(ctx echo.Context) error {
	usr, err := getContextObject[user.User](ctx)
	if err != nil {
		return err
	}

	// Say No to Suicide! principal cannot delete themselves
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	if usr.ID == p.UserID() {
		return auth.ErrPermissionDenied
	}

	if _, err = api.UserSvc.Deactivate(ctx.Request().Context(), usr); err != nil {
		return errors.Wrap(err, "deactivating user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	return respondList(ctx, "roles", user.Roles)
}

// ctxUserOrStaffMiddleware loads the `:id` User for staff principals or the User themselves.
func ctxUserOrStaffMiddleware(svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, err := getContextPrincipal(ctx)
			if err != nil {
				return err
			}
			if !(p.IsStaff() || ctx.Param("id") == p.UserID()) {
				return auth.ErrPermissionDenied
			}

			usr, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return err
			}
			ctx.Set(ctxObjectKey, usr)
			return next(ctx)
		}
	}
}
