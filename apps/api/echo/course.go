package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/course"
)

type courseApi struct {
	*Server
}

func registerCourseAPI(g *echo.Group, authed echo.MiddlewareFunc, s *Server) {
	api := courseApi{Server: s}
	obj := objectMiddleware(s.CourseSvc.GetByID)

	cg := g.Group("/courses", authed)
	cg.GET("", api.query)
	cg.POST("", api.create, isStaff)
	cg.GET("/:id", api.retrieve, obj)
	cg.PUT("/:id", api.update, isStaff, obj)
	cg.PATCH("/:id", api.update, isStaff, obj)
	cg.DELETE("/:id", api.destroy, isStaff)
	cg.POST("/:id/enroll", api.enroll, isStaff, obj)
	cg.DELETE("/:id/students/:student", api.unenroll, isStaff, obj)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := bindData(ctx, api.Validate, &data, "NewCourse"); err != nil {
		return err
	}
	c, err := api.CourseSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return respond(ctx, http.StatusCreated, "course", c)
}

func (api *courseApi) query(ctx echo.Context) error {
	var filter course.QueryFilter
	if err := bindQuery(ctx, api.Validate, &filter); err != nil {
		return err
	}
	courses, err := api.CourseSvc.Query(ctx.Request().Context(), filter, bindOrdering(ctx, course.OrderingFields))
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return respondList(ctx, "courses", courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	c, err := getContextObject[course.Course](ctx)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "course", c)
}

func (api *courseApi) update(ctx echo.Context) error {
	c, err := getContextObject[course.Course](ctx)
	if err != nil {
		return err
	}
	var data course.UpdateCourse
	if err = bindData(ctx, api.Validate, &data, "UpdateCourse"); err != nil {
		return err
	}
	c, err = api.CourseSvc.Update(ctx.Request().Context(), c, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return respond(ctx, http.StatusOK, "course", c)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.CourseSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	c, err := getContextObject[course.Course](ctx)
	if err != nil {
		return err
	}
	var data EnrollRequest
	if err = bindData(ctx, api.Validate, &data, "EnrollRequest"); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	if _, err = api.StudentSvc.GetByID(rctx, data.Student); err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(nil, core.FieldError{Field: "student", Error: "student not found"})
		}
		return errors.Wrap(err, "finding student")
	}

	c, err = api.CourseSvc.Enroll(rctx, c, data.Student)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return respond(ctx, http.StatusOK, "course", c)
}

func (api *courseApi) unenroll(ctx echo.Context) error {
	c, err := getContextObject[course.Course](ctx)
	if err != nil {
		return err
	}
	c, err = api.CourseSvc.Unenroll(ctx.Request().Context(), c, ctx.Param("student"))
	if err != nil {
		return errors.Wrap(err, "unenrolling student")
	}
	return respond(ctx, http.StatusOK, "course", c)
}

type EnrollRequest struct {
	Student string `json:"student" validate:"required,id"`
}

func (er *EnrollRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(er)
}
