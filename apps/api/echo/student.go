package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core/student"
)

type studentApi struct {
	*Server
}

func registerStudentAPI(g *echo.Group, authed echo.MiddlewareFunc, s *Server) {
	api := studentApi{Server: s}
	obj := objectMiddleware(s.StudentSvc.GetByID)

	sg := g.Group("/students", authed)
	sg.GET("", api.query, isStaffOrTeacher)
	sg.POST("", api.create, isStaff)
	sg.GET("/:id", api.retrieve, obj)
	sg.PUT("/:id", api.update, isStaff, obj)
	sg.PATCH("/:id", api.update, isStaff, obj)
	sg.DELETE("/:id", api.destroy, isStaff)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := bindData(ctx, api.Validate, &data, "NewStudent"); err != nil {
		return err
	}
	st, err := api.StudentSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return respond(ctx, http.StatusCreated, "student", st)
}

func (api *studentApi) query(ctx echo.Context) error {
	var filter student.QueryFilter
	if err := bindQuery(ctx, api.Validate, &filter); err != nil {
		return err
	}
	page := bindPagination(ctx)

	students, total, err := api.StudentSvc.Query(ctx.Request().Context(), filter, bindOrdering(ctx, student.OrderingFields), page)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return respondList(ctx, "students", students, page.TotalPages(total))
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	st, err := getContextObject[student.Student](ctx)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "student", st)
}

func (api *studentApi) update(ctx echo.Context) error {
	st, err := getContextObject[student.Student](ctx)
	if err != nil {
		return err
	}
	var data student.UpdateStudent
	if err = bindData(ctx, api.Validate, &data, "UpdateStudent"); err != nil {
		return err
	}
	st, err = api.StudentSvc.Update(ctx.Request().Context(), st, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return respond(ctx, http.StatusOK, "student", st)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.StudentSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}
