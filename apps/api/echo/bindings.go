package echoapi

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
)

const orderingParam = "ordering"

// bindOrdering reads `?ordering=field,-other`; a leading "-" sorts descending.
// Fields outside of allowed & repeated fields are skipped.
func bindOrdering(ctx echo.Context, allowed []string) []core.DBOrdering {
	raw := ctx.QueryParam(orderingParam)
	if raw == "" {
		return nil
	}
	var (
		ordering []core.DBOrdering
		seen     = make(map[string]bool)
	)
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		asc := !strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")
		if seen[field] || !contains(allowed, field) {
			continue
		}
		seen[field] = true
		ordering = append(ordering, core.DBOrdering{Field: field, Ascending: asc})
	}
	return ordering
}

// bindPagination reads `page` & `limit`, ignoring malformed values.
func bindPagination(ctx echo.Context) core.Pagination {
	var page core.Pagination
	_ = echo.QueryParamsBinder(ctx).
		Int("page", &page.Page).
		Int("limit", &page.Limit).
		BindErrors()
	page.Clean()
	return page
}

// bindQuery binds the query parameters of a list request into filter & validates them.
func bindQuery(ctx echo.Context, validate *validator.Validate, filter interface{}) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, filter); err != nil {
		return core.NewValidationError(errors.New("invalid query parameters"))
	}
	return validate.Struct(filter)
}

type validatable interface {
	Validate(validate *validator.Validate) error
}

// bindData binds the request body into data & validates it.
func bindData(ctx echo.Context, validate *validator.Validate, data validatable, name string) error {
	if err := ctx.Bind(data); err != nil {
		return errors.Wrap(err, "binding to "+name)
	}
	return data.Validate(validate)
}
