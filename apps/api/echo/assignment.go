package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/assignment"
	"github.com/trezcool/masomo/core/user"
)

var errNoStudentProfile = core.NewValidationError(errors.New("no student profile is linked to this account"))

type assignmentApi struct {
	*Server
}

func registerAssignmentAPI(g *echo.Group, authed echo.MiddlewareFunc, s *Server) {
	api := assignmentApi{Server: s}
	obj := objectMiddleware(s.AssignmentSvc.GetByID)

	ag := g.Group("/assignments", authed)
	ag.GET("", api.query)
	ag.POST("", api.create, isStaffOrTeacher)
	ag.GET("/:id", api.retrieve, obj)
	ag.PUT("/:id", api.update, isStaffOrTeacher, obj)
	ag.PATCH("/:id", api.update, isStaffOrTeacher, obj)
	ag.DELETE("/:id", api.destroy, isStaffOrTeacher)
	ag.POST("/:id/submissions", api.submit, authorize(user.RoleStudent), requireUser, obj)
	ag.PUT("/:id/submissions/:student", api.grade, isStaffOrTeacher, obj)
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := bindData(ctx, api.Validate, &data, "NewAssignment"); err != nil {
		return err
	}
	if data.Teacher == "" {
		if p, err := getContextPrincipal(ctx); err == nil && p.User != nil && p.Role == user.RoleTeacher {
			data.Teacher = p.User.ID
		}
	}

	a, err := api.AssignmentSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return respond(ctx, http.StatusCreated, "assignment", a)
}

func (api *assignmentApi) query(ctx echo.Context) error {
	var filter assignment.QueryFilter
	if err := bindQuery(ctx, api.Validate, &filter); err != nil {
		return err
	}
	assignments, err := api.AssignmentSvc.Query(ctx.Request().Context(), filter, bindOrdering(ctx, assignment.OrderingFields))
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return respondList(ctx, "assignments", assignments)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	a, err := getContextObject[assignment.Assignment](ctx)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "assignment", a)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	a, err := getContextObject[assignment.Assignment](ctx)
	if err != nil {
		return err
	}
	var data assignment.UpdateAssignment
	if err = bindData(ctx, api.Validate, &data, "UpdateAssignment"); err != nil {
		return err
	}
	a, err = api.AssignmentSvc.Update(ctx.Request().Context(), a, data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return respond(ctx, http.StatusOK, "assignment", a)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	if err := api.AssignmentSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// submit records the submission of the calling Student.
func (api *assignmentApi) submit(ctx echo.Context) error {
	a, err := getContextObject[assignment.Assignment](ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data assignment.NewSubmission
	if err = bindData(ctx, api.Validate, &data, "NewSubmission"); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	st, err := api.StudentSvc.GetByUser(rctx, usr.ID)
	if err != nil {
		if core.IsNotFound(err) {
			return errNoStudentProfile
		}
		return errors.Wrap(err, "finding student profile")
	}

	a, err = api.AssignmentSvc.Submit(rctx, a, st.ID, data)
	if err != nil {
		return errors.Wrap(err, "submitting assignment")
	}
	return respond(ctx, http.StatusCreated, "assignment", a)
}

func (api *assignmentApi) grade(ctx echo.Context) error {
	a, err := getContextObject[assignment.Assignment](ctx)
	if err != nil {
		return err
	}
	var data assignment.GradeSubmission
	if err = bindData(ctx, api.Validate, &data, "GradeSubmission"); err != nil {
		return err
	}
	a, err = api.AssignmentSvc.Grade(ctx.Request().Context(), a, ctx.Param("student"), data)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return respond(ctx, http.StatusOK, "assignment", a)
}
