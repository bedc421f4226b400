package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core/attendance"
)

type attendanceApi struct {
	*Server
}

func registerAttendanceAPI(g *echo.Group, authed echo.MiddlewareFunc, s *Server) {
	api := attendanceApi{Server: s}
	obj := objectMiddleware(s.AttendanceSvc.GetByID)

	ag := g.Group("/attendance", authed)
	ag.GET("", api.query)
	ag.GET("/summary", api.summary)
	ag.POST("", api.create, isStaffOrTeacher)
	ag.GET("/:id", api.retrieve, obj)
	ag.PUT("/:id", api.update, isStaffOrTeacher, obj)
	ag.PATCH("/:id", api.update, isStaffOrTeacher, obj)
	ag.DELETE("/:id", api.destroy, isStaff)
}

func (api *attendanceApi) create(ctx echo.Context) error {
	var data attendance.NewAttendance
	if err := bindData(ctx, api.Validate, &data, "NewAttendance"); err != nil {
		return err
	}
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	att, err := api.AttendanceSvc.Create(ctx.Request().Context(), data, p.UserID())
	if err != nil {
		return errors.Wrap(err, "recording attendance")
	}
	return respond(ctx, http.StatusCreated, "attendance", att)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	var filter attendance.QueryFilter
	if err := bindQuery(ctx, api.Validate, &filter); err != nil {
		return err
	}
	records, err := api.AttendanceSvc.Query(ctx.Request().Context(), filter, bindOrdering(ctx, attendance.OrderingFields))
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return respondList(ctx, "attendance", records)
}

func (api *attendanceApi) summary(ctx echo.Context) error {
	var filter attendance.QueryFilter
	if err := bindQuery(ctx, api.Validate, &filter); err != nil {
		return err
	}
	sum, err := api.AttendanceSvc.Summary(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "summarizing attendance")
	}
	return respond(ctx, http.StatusOK, "summary", sum)
}

func (api *attendanceApi) retrieve(ctx echo.Context) error {
	att, err := getContextObject[attendance.Attendance](ctx)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "attendance", att)
}

func (api *attendanceApi) update(ctx echo.Context) error {
	att, err := getContextObject[attendance.Attendance](ctx)
	if err != nil {
		return err
	}
	var data attendance.UpdateAttendance
	if err = bindData(ctx, api.Validate, &data, "UpdateAttendance"); err != nil {
		return err
	}
	att, err = api.AttendanceSvc.Update(ctx.Request().Context(), att, data)
	if err != nil {
		return errors.Wrap(err, "updating attendance")
	}
	return respond(ctx, http.StatusOK, "attendance", att)
}

func (api *attendanceApi) destroy(ctx echo.Context) error {
	if err := api.AttendanceSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting attendance")
	}
	return ctx.NoContent(http.StatusNoContent)
}
