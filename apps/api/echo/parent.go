package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core/parent"
	"github.com/trezcool/masomo/core/user"
)

type parentApi struct {
	*Server
}

func registerParentAPI(g *echo.Group, authed echo.MiddlewareFunc, s *Server) {
	api := parentApi{Server: s}
	obj := objectMiddleware(s.ParentSvc.GetByID)

	pg := g.Group("/parents", authed)
	pg.GET("", api.query, isStaffOrTeacher)
	pg.POST("", api.create, isStaff)
	pg.GET("/:id", api.retrieve, authorize(user.RoleAdmin, user.RoleDirection, user.RoleTeacher, user.RoleParent), obj)
	pg.PUT("/:id", api.update, isStaff, obj)
	pg.PATCH("/:id", api.update, isStaff, obj)
	pg.DELETE("/:id", api.destroy, isStaff)
}

func (api *parentApi) create(ctx echo.Context) error {
	var data parent.NewParent
	if err := bindData(ctx, api.Validate, &data, "NewParent"); err != nil {
		return err
	}
	p, err := api.ParentSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating parent")
	}
	return respond(ctx, http.StatusCreated, "parent", p)
}

func (api *parentApi) query(ctx echo.Context) error {
	var filter parent.QueryFilter
	if err := bindQuery(ctx, api.Validate, &filter); err != nil {
		return err
	}
	parents, err := api.ParentSvc.Query(ctx.Request().Context(), filter, bindOrdering(ctx, parent.OrderingFields))
	if err != nil {
		return errors.Wrap(err, "querying parents")
	}
	return respondList(ctx, "parents", parents)
}

func (api *parentApi) retrieve(ctx echo.Context) error {
	p, err := getContextObject[parent.Parent](ctx)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "parent", p)
}

func (api *parentApi) update(ctx echo.Context) error {
	p, err := getContextObject[parent.Parent](ctx)
	if err != nil {
		return err
	}
	var data parent.UpdateParent
	if err = bindData(ctx, api.Validate, &data, "UpdateParent"); err != nil {
		return err
	}
	p, err = api.ParentSvc.Update(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "updating parent")
	}
	return respond(ctx, http.StatusOK, "parent", p)
}

func (api *parentApi) destroy(ctx echo.Context) error {
	if err := api.ParentSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting parent")
	}
	return ctx.NoContent(http.StatusNoContent)
}
