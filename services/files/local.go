package filesvc

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
)

// localStorage writes files under a directory served by the API at baseURL.
type localStorage struct {
	dir     string
	baseURL string
}

var _ core.FileStorage = (*localStorage)(nil)

func NewLocalStorage(conf *core.Config) (core.FileStorage, error) {
	dir := conf.Files.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(conf.WorkDir, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating upload directory")
	}
	return &localStorage{dir: dir, baseURL: strings.TrimSuffix(conf.Files.BaseURL, "/")}, nil
}

func (s *localStorage) path(key string) (string, error) {
	fp := filepath.Join(s.dir, filepath.FromSlash(key))
	if !strings.HasPrefix(fp, s.dir+string(filepath.Separator)) {
		return "", core.NewValidationError(errors.Errorf("invalid file key %q", key))
	}
	return fp, nil
}

func (s *localStorage) Upload(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	fp, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return "", errors.Wrap(err, "creating file directory")
	}
	f, err := os.Create(fp)
	if err != nil {
		return "", errors.Wrap(err, "creating file")
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", errors.Wrap(err, "writing file")
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, "writing file")
	}
	return s.baseURL + "/" + key, nil
}

func (s *localStorage) Delete(_ context.Context, key string) error {
	fp, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fp); err != nil {
		if os.IsNotExist(err) {
			return core.NewNotFoundError("file")
		}
		return errors.Wrap(err, "deleting file")
	}
	return nil
}
