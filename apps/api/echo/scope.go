package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/auth"
	"github.com/trezcool/masomo/core/user"
)

// studentScope returns the Student IDs a student or parent user may access.
// restricted is false for every other principal, API keys included.
func (s *Server) studentScope(ctx echo.Context) (ids []string, restricted bool, err error) {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return nil, false, err
	}
	if p.User == nil {
		return nil, false, nil
	}

	rctx := ctx.Request().Context()
	switch p.Role {
	case user.RoleStudent:
		st, err := s.StudentSvc.GetByUser(rctx, p.User.ID)
		if err != nil {
			if core.IsNotFound(err) {
				return []string{}, true, nil
			}
			return nil, true, errors.Wrap(err, "finding student profile")
		}
		return []string{st.ID}, true, nil
	case user.RoleParent:
		par, err := s.ParentSvc.GetByUser(rctx, p.User.ID)
		if err != nil {
			if core.IsNotFound(err) {
				return []string{}, true, nil
			}
			return nil, true, errors.Wrap(err, "finding parent profile")
		}
		return par.Children, true, nil
	}
	return nil, false, nil
}

// narrowScope intersects the requested student with ids; ok is false when nothing can match.
func narrowScope(requested string, ids []string) (scope []string, ok bool) {
	if requested == "" {
		return ids, len(ids) > 0
	}
	if contains(ids, requested) {
		return []string{requested}, true
	}
	return nil, false
}

// checkScope rejects access to studentID outside of the principal's scope.
func (s *Server) checkScope(ctx echo.Context, studentID string) error {
	ids, restricted, err := s.studentScope(ctx)
	if err != nil {
		return err
	}
	if restricted && !contains(ids, studentID) {
		return auth.ErrPermissionDenied
	}
	return nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
