package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core/event"
)

type eventApi struct {
	*Server
}

func registerEventAPI(g *echo.Group, authed echo.MiddlewareFunc, s *Server) {
	api := eventApi{Server: s}
	obj := objectMiddleware(s.EventSvc.GetByID)

	eg := g.Group("/events", authed)
	eg.GET("", api.query)
	eg.POST("", api.create, isStaffOrTeacher)
	eg.GET("/:id", api.retrieve, obj)
	eg.PUT("/:id", api.update, isStaffOrTeacher, obj)
	eg.PATCH("/:id", api.update, isStaffOrTeacher, obj)
	eg.DELETE("/:id", api.destroy, isStaff)
}

func (api *eventApi) create(ctx echo.Context) error {
	var data event.NewEvent
	if err := bindData(ctx, api.Validate, &data, "NewEvent"); err != nil {
		return err
	}
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	evt, err := api.EventSvc.Create(ctx.Request().Context(), data, p.UserID())
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return respond(ctx, http.StatusCreated, "event", evt)
}

func (api *eventApi) query(ctx echo.Context) error {
	var filter event.QueryFilter
	if err := bindQuery(ctx, api.Validate, &filter); err != nil {
		return err
	}
	events, err := api.EventSvc.Query(ctx.Request().Context(), filter, bindOrdering(ctx, event.OrderingFields))
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	return respondList(ctx, "events", events)
}

func (api *eventApi) retrieve(ctx echo.Context) error {
	evt, err := getContextObject[event.Event](ctx)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "event", evt)
}

func (api *eventApi) update(ctx echo.Context) error {
	evt, err := getContextObject[event.Event](ctx)
	if err != nil {
		return err
	}
	var data event.UpdateEvent
	if err = bindData(ctx, api.Validate, &data, "UpdateEvent"); err != nil {
		return err
	}
	evt, err = api.EventSvc.Update(ctx.Request().Context(), evt, data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return respond(ctx, http.StatusOK, "event", evt)
}

func (api *eventApi) destroy(ctx echo.Context) error {
	if err := api.EventSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}
