package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type successResponse struct {
	Status     string                 `json:"status"`
	Results    *int                   `json:"results,omitempty"`
	TotalPages *int64                 `json:"total_pages,omitempty"`
	Message    string                 `json:"message,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

func respond(ctx echo.Context, code int, key string, obj interface{}) error {
	return ctx.JSON(code, successResponse{Status: statusSuccess, Data: map[string]interface{}{key: obj}})
}

func respondData(ctx echo.Context, code int, data map[string]interface{}) error {
	return ctx.JSON(code, successResponse{Status: statusSuccess, Data: data})
}

func respondMessage(ctx echo.Context, msg string) error {
	return ctx.JSON(http.StatusOK, successResponse{Status: statusSuccess, Message: msg})
}

// respondList sends items under key; a totalPages marks a paginated list.
func respondList[T any](ctx echo.Context, key string, items []T, totalPages ...int64) error {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	resp := successResponse{
		Status:  statusSuccess,
		Results: &n,
		Data:    map[string]interface{}{key: items},
	}
	if len(totalPages) > 0 {
		resp.TotalPages = &totalPages[0]
	}
	return ctx.JSON(http.StatusOK, resp)
}

// objectMiddleware loads the document of the `:id` param into the context.
func objectMiddleware[T any](get func(ctx context.Context, id string) (T, error)) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			obj, err := get(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return err
			}
			ctx.Set(ctxObjectKey, obj)
			return next(ctx)
		}
	}
}

func getContextObject[T any](ctx echo.Context) (T, error) {
	obj, ok := ctx.Get(ctxObjectKey).(T)
	if !ok {
		return obj, errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	return obj, nil
}
