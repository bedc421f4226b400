package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
)

const (
	statusSuccess = "success"
	statusFail    = "fail"
	statusError   = "error"
)

var errObjNotFoundInCtx = errors.New("object not found in echo.Context")

type errorResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, resp := errorToResponse(err, translator)

		if code >= http.StatusInternalServerError {
			msg := http.StatusText(code)
			extras := map[string]interface{}{
				"method":     ctx.Request().Method,
				"uri":        ctx.Request().RequestURI,
				"request_id": ctx.Response().Header().Get(echo.HeaderXRequestID),
			}
			args := []interface{}{errors.Wrap(err, msg), extras}
			if p, perr := getContextPrincipal(ctx); perr == nil {
				args = append(args, p)
			}
			logger.Error(msg, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}

			if ctx.Echo().Debug {
				resp.Message = fmt.Sprintf("%+v", err)
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// errorToResponse maps err to its status code and envelope; unknown errors are masked.
func errorToResponse(err error, translator ut.Translator) (int, errorResponse) {
	resp := errorResponse{Status: statusFail}
	var code int

	switch origErr := errors.Cause(err).(type) {
	case *echo.HTTPError:
		if origErr.Internal != nil {
			if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
			}
		}
		code = origErr.Code
		resp.Message = fmt.Sprint(origErr.Message)
	case validator.ValidationErrors:
		code = http.StatusBadRequest
		resp.Message = "invalid input data"
		if translator != nil {
			resp.Errors = core.TranslateErrors(origErr, translator)
		} else {
			resp.Errors = make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				resp.Errors[vErr.Field()] = vErr.Error()
			}
		}
	case *core.ValidationError:
		code = http.StatusBadRequest
		resp.Message = origErr.Error()
		if len(origErr.Fields) > 0 {
			resp.Errors = make(map[string]string, len(origErr.Fields))
			for _, fErr := range origErr.Fields {
				resp.Errors[fErr.Field] = fErr.Error
			}
		}
	case *core.InvalidIDError:
		code = http.StatusBadRequest
		resp.Message = origErr.Error()
		resp.Code = "invalid_id"
	case *core.NotFoundError:
		code = http.StatusNotFound
		resp.Message = origErr.Error()
	case *core.ConflictError:
		code = http.StatusConflict
		resp.Message = origErr.Error()
		resp.Code = "duplicate"
		if origErr.Field != "" {
			resp.Errors = map[string]string{origErr.Field: "this value is already taken"}
		}
	case *core.ModifiedError:
		code = http.StatusConflict
		resp.Message = origErr.Error()
		resp.Code = "modified"
	case *core.AuthError:
		code = http.StatusUnauthorized
		resp.Message = origErr.Message
		resp.Code = origErr.Code
	case *core.PermissionError:
		code = http.StatusForbidden
		resp.Message = origErr.Message
		resp.Code = origErr.Code
	default: // any other error is a server error
		code = http.StatusInternalServerError
		resp.Message = http.StatusText(code)
	}

	if code >= http.StatusInternalServerError {
		resp.Status = statusError
	}
	return code, resp
}
