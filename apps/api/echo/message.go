package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/message"
)

type messageApi struct {
	*Server
}

func registerMessageAPI(g *echo.Group, authed echo.MiddlewareFunc, s *Server) {
	api := messageApi{Server: s}

	mg := g.Group("/messages", authed, requireUser)
	mg.GET("", api.query)
	mg.POST("", api.send)

	dg := mg.Group("/:id", ctxMessageMiddleware(s.MessageSvc))
	dg.GET("", api.retrieve)
	dg.PATCH("/read", api.markRead)
	dg.DELETE("", api.destroy)
}

func (api *messageApi) send(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data message.NewMessage
	if err = bindData(ctx, api.Validate, &data, "NewMessage"); err != nil {
		return err
	}
	m, err := api.MessageSvc.Send(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	return respond(ctx, http.StatusCreated, "message", m)
}

func (api *messageApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var filter message.QueryFilter
	if err = bindQuery(ctx, api.Validate, &filter); err != nil {
		return err
	}

	messages, err := api.MessageSvc.Query(ctx.Request().Context(), usr.ID, filter, bindOrdering(ctx, message.OrderingFields))
	if err != nil {
		return errors.Wrap(err, "querying messages")
	}
	return respondList(ctx, "messages", messages)
}

func (api *messageApi) retrieve(ctx echo.Context) error {
	m, err := getContextObject[message.Message](ctx)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "message", m)
}

func (api *messageApi) markRead(ctx echo.Context) error {
	m, err := getContextObject[message.Message](ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	m, err = api.MessageSvc.MarkRead(ctx.Request().Context(), m, usr.ID)
	if err != nil {
		return errors.Wrap(err, "marking message as read")
	}
	return respond(ctx, http.StatusOK, "message", m)
}

func (api *messageApi) destroy(ctx echo.Context) error {
	m, err := getContextObject[message.Message](ctx)
	if err != nil {
		return err
	}
	if err = api.MessageSvc.Delete(ctx.Request().Context(), m.ID); err != nil {
		return errors.Wrap(err, "deleting message")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ctxMessageMiddleware loads the `:id` Message when the calling User sent or received it.
func ctxMessageMiddleware(svc message.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return err
			}
			m, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return err
			}
			if !m.Involves(usr.ID) {
				return core.NewNotFoundError(message.Collection.Resource)
			}
			ctx.Set(ctxObjectKey, m)
			return next(ctx)
		}
	}
}
