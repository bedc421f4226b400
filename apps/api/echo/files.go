package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/user"
	filesvc "github.com/trezcool/masomo/services/files"
)

const defaultUploadFolder = "misc"

type fileApi struct {
	*Server
}

type UploadedFile struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

func registerFileAPI(g *echo.Group, authed echo.MiddlewareFunc, s *Server) {
	api := fileApi{Server: s}

	fg := g.Group("/files", authed)
	fg.POST("", api.upload, authorize(user.RoleAdmin, user.RoleDirection, user.RoleTeacher, user.RoleStudent))
}

// upload stores the multipart `file` under the optional `folder`.
func (api *fileApi) upload(ctx echo.Context) error {
	folder := core.CleanString(ctx.FormValue("folder"), true /* lower */)
	if folder == "" {
		folder = defaultUploadFolder
	}
	if err := api.Validate.Var(folder, "alphanum,max=32"); err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "folder", Error: "folder must be alphanumeric"})
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "this field is required"})
	}
	if maxSize := api.Conf.Files.MaxSize; maxSize > 0 && fh.Size > maxSize {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: fmt.Sprintf("file must not exceed %d bytes", maxSize)})
	}

	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer src.Close()

	contentType := fh.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	key := filesvc.Key(folder, fh.Filename)
	url, err := api.Files.Upload(ctx.Request().Context(), key, src, contentType)
	if err != nil {
		return errors.Wrap(err, "uploading file")
	}

	return respond(ctx, http.StatusCreated, "file", UploadedFile{
		Key:         key,
		URL:         url,
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: contentType,
	})
}
