package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core/teacher"
)

type teacherApi struct {
	*Server
}

func registerTeacherAPI(g *echo.Group, authed echo.MiddlewareFunc, s *Server) {
	api := teacherApi{Server: s}
	obj := objectMiddleware(s.TeacherSvc.GetByID)

	tg := g.Group("/teachers", authed)
	tg.GET("", api.query)
	tg.POST("", api.create, isStaff)
	tg.GET("/:id", api.retrieve, obj)
	tg.PUT("/:id", api.update, isStaff, obj)
	tg.PATCH("/:id", api.update, isStaff, obj)
	tg.DELETE("/:id", api.destroy, isStaff)
}

func (api *teacherApi) create(ctx echo.Context) error {
	var data teacher.NewTeacher
	if err := bindData(ctx, api.Validate, &data, "NewTeacher"); err != nil {
		return err
	}
	tch, err := api.TeacherSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return respond(ctx, http.StatusCreated, "teacher", tch)
}

func (api *teacherApi) query(ctx echo.Context) error {
	var filter teacher.QueryFilter
	if err := bindQuery(ctx, api.Validate, &filter); err != nil {
		return err
	}
	teachers, err := api.TeacherSvc.Query(ctx.Request().Context(), filter, bindOrdering(ctx, teacher.OrderingFields))
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return respondList(ctx, "teachers", teachers)
}

func (api *teacherApi) retrieve(ctx echo.Context) error {
	tch, err := getContextObject[teacher.Teacher](ctx)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "teacher", tch)
}

func (api *teacherApi) update(ctx echo.Context) error {
	tch, err := getContextObject[teacher.Teacher](ctx)
	if err != nil {
		return err
	}
	var data teacher.UpdateTeacher
	if err = bindData(ctx, api.Validate, &data, "UpdateTeacher"); err != nil {
		return err
	}
	tch, err = api.TeacherSvc.Update(ctx.Request().Context(), tch, data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return respond(ctx, http.StatusOK, "teacher", tch)
}

func (api *teacherApi) destroy(ctx echo.Context) error {
	if err := api.TeacherSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}
