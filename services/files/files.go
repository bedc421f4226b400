package filesvc

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
)

// New returns the FileStorage selected by conf.Files.Backend.
func New(ctx context.Context, conf *core.Config) (core.FileStorage, error) {
	switch conf.Files.Backend {
	case core.FilesB2:
		return NewB2Storage(ctx, conf)
	case core.FilesLocal, "":
		return NewLocalStorage(conf)
	}
	return nil, errors.Errorf("unknown files backend %q", conf.Files.Backend)
}

// Key builds a unique storage key under prefix keeping the extension of filename.
func Key(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	return path.Join(prefix, uuid.NewString()+ext)
}
