package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core/cantine"
	"github.com/trezcool/masomo/core/user"
)

type cantineApi struct {
	*Server
}

func registerCantineAPI(g *echo.Group, authed echo.MiddlewareFunc, s *Server) {
	api := cantineApi{Server: s}
	obj := objectMiddleware(s.CantineSvc.GetByID)

	cg := g.Group("/cantine/orders", authed)
	cg.GET("", api.query)
	cg.POST("", api.create, authorize(user.RoleAdmin, user.RoleDirection, user.RoleStudent, user.RoleParent))
	cg.GET("/:id", api.retrieve, obj)
	cg.PUT("/:id", api.update, isStaff, obj)
	cg.PATCH("/:id", api.update, isStaff, obj)
	cg.DELETE("/:id", api.destroy, isStaff)
}

func (api *cantineApi) create(ctx echo.Context) error {
	var data cantine.NewOrder
	if err := bindData(ctx, api.Validate, &data, "NewOrder"); err != nil {
		return err
	}
	// students & parents order for themselves or their children
	if err := api.checkScope(ctx, data.Student); err != nil {
		return err
	}

	o, err := api.CantineSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating cantine order")
	}
	return respond(ctx, http.StatusCreated, "order", o)
}

func (api *cantineApi) query(ctx echo.Context) error {
	var filter cantine.QueryFilter
	if err := bindQuery(ctx, api.Validate, &filter); err != nil {
		return err
	}
	ids, restricted, err := api.studentScope(ctx)
	if err != nil {
		return err
	}
	if restricted {
		scope, ok := narrowScope(filter.Student, ids)
		if !ok {
			return respondList(ctx, "orders", []cantine.Order{})
		}
		filter.Student, filter.Students = "", scope
	}

	orders, err := api.CantineSvc.Query(ctx.Request().Context(), filter, bindOrdering(ctx, cantine.OrderingFields))
	if err != nil {
		return errors.Wrap(err, "querying cantine orders")
	}
	return respondList(ctx, "orders", orders)
}

func (api *cantineApi) retrieve(ctx echo.Context) error {
	o, err := getContextObject[cantine.Order](ctx)
	if err != nil {
		return err
	}
	if err = api.checkScope(ctx, o.Student); err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "order", o)
}

func (api *cantineApi) update(ctx echo.Context) error {
	o, err := getContextObject[cantine.Order](ctx)
	if err != nil {
		return err
	}
	var data cantine.UpdateOrder
	if err = bindData(ctx, api.Validate, &data, "UpdateOrder"); err != nil {
		return err
	}
	o, err = api.CantineSvc.Update(ctx.Request().Context(), o, data)
	if err != nil {
		return errors.Wrap(err, "updating cantine order")
	}
	return respond(ctx, http.StatusOK, "order", o)
}

func (api *cantineApi) destroy(ctx echo.Context) error {
	if err := api.CantineSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting cantine order")
	}
	return ctx.NoContent(http.StatusNoContent)
}
