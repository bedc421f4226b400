package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core/grade"
	"github.com/trezcool/masomo/core/user"
)

type gradeApi struct {
	*Server
}

func registerGradeAPI(g *echo.Group, authed echo.MiddlewareFunc, s *Server) {
	api := gradeApi{Server: s}
	obj := objectMiddleware(s.GradeSvc.GetByID)

	gg := g.Group("/grades", authed)
	gg.GET("", api.query)
	gg.POST("", api.create, isStaffOrTeacher)
	gg.GET("/:id", api.retrieve, obj)
	gg.PUT("/:id", api.update, isStaffOrTeacher, obj)
	gg.PATCH("/:id", api.update, isStaffOrTeacher, obj)
	gg.DELETE("/:id", api.destroy, isStaff)
}

func (api *gradeApi) create(ctx echo.Context) error {
	var data grade.NewGrade
	if err := bindData(ctx, api.Validate, &data, "NewGrade"); err != nil {
		return err
	}
	if data.Teacher == "" {
		if p, err := getContextPrincipal(ctx); err == nil && p.User != nil && p.Role == user.RoleTeacher {
			data.Teacher = p.User.ID
		}
	}

	g, err := api.GradeSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating grade")
	}
	return respond(ctx, http.StatusCreated, "grade", g)
}

func (api *gradeApi) query(ctx echo.Context) error {
	var filter grade.QueryFilter
	if err := bindQuery(ctx, api.Validate, &filter); err != nil {
		return err
	}
	grades, err := api.GradeSvc.Query(ctx.Request().Context(), filter, bindOrdering(ctx, grade.OrderingFields))
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	return respondList(ctx, "grades", grades)
}

func (api *gradeApi) retrieve(ctx echo.Context) error {
	g, err := getContextObject[grade.Grade](ctx)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "grade", g)
}

func (api *gradeApi) update(ctx echo.Context) error {
	g, err := getContextObject[grade.Grade](ctx)
	if err != nil {
		return err
	}
	var data grade.UpdateGrade
	if err = bindData(ctx, api.Validate, &data, "UpdateGrade"); err != nil {
		return err
	}
	g, err = api.GradeSvc.Update(ctx.Request().Context(), g, data)
	if err != nil {
		return errors.Wrap(err, "updating grade")
	}
	return respond(ctx, http.StatusOK, "grade", g)
}

func (api *gradeApi) destroy(ctx echo.Context) error {
	if err := api.GradeSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return ctx.NoContent(http.StatusNoContent)
}
