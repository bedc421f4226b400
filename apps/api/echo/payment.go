package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core/payment"
	"github.com/trezcool/masomo/core/user"
)

type paymentApi struct {
	*Server
}

func registerPaymentAPI(g *echo.Group, authed echo.MiddlewareFunc, s *Server) {
	api := paymentApi{Server: s}
	obj := objectMiddleware(s.PaymentSvc.GetByID)
	canView := authorize(user.RoleAdmin, user.RoleDirection, user.RoleStudent, user.RoleParent)

	pg := g.Group("/payments", authed)
	pg.GET("", api.query, canView)
	pg.POST("", api.create, isStaff)
	pg.GET("/:id", api.retrieve, canView, obj)
	pg.PUT("/:id", api.update, isStaff, obj)
	pg.PATCH("/:id", api.update, isStaff, obj)
	pg.DELETE("/:id", api.destroy, isAdmin)
}

func (api *paymentApi) create(ctx echo.Context) error {
	var data payment.NewPayment
	if err := bindData(ctx, api.Validate, &data, "NewPayment"); err != nil {
		return err
	}
	p, err := api.PaymentSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating payment")
	}
	return respond(ctx, http.StatusCreated, "payment", p)
}

// query lists payments; students & parents only see their own.
func (api *paymentApi) query(ctx echo.Context) error {
	var filter payment.QueryFilter
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
			return respondList(ctx, "payments", []payment.Payment{})
		}
		filter.Student, filter.Students = "", scope
	}

	payments, err := api.PaymentSvc.Query(ctx.Request().Context(), filter, bindOrdering(ctx, payment.OrderingFields))
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	return respondList(ctx, "payments", payments)
}

func (api *paymentApi) retrieve(ctx echo.Context) error {
	p, err := getContextObject[payment.Payment](ctx)
	if err != nil {
		return err
	}
	if err = api.checkScope(ctx, p.Student); err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "payment", p)
}

func (api *paymentApi) update(ctx echo.Context) error {
	p, err := getContextObject[payment.Payment](ctx)
	if err != nil {
		return err
	}
	var data payment.UpdatePayment
	if err = bindData(ctx, api.Validate, &data, "UpdatePayment"); err != nil {
		return err
	}
	p, err = api.PaymentSvc.Update(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "updating payment")
	}
	return respond(ctx, http.StatusOK, "payment", p)
}

func (api *paymentApi) destroy(ctx echo.Context) error {
	if err := api.PaymentSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting payment")
	}
	return ctx.NoContent(http.StatusNoContent)
}
