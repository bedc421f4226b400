package filesvc

import (
	"context"
	"io"
	"strings"

	"github.com/kurin/blazer/b2"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
)

type b2Storage struct {
	bucket  *b2.Bucket
	baseURL string
}

var _ core.FileStorage = (*b2Storage)(nil)

// NewB2Storage stores files in a Backblaze B2 bucket.
func NewB2Storage(ctx context.Context, conf *core.Config) (core.FileStorage, error) {
	client, err := b2.NewClient(ctx, conf.Files.B2AccountID, conf.Files.B2AppKey)
	if err != nil {
		return nil, errors.Wrap(err, "creating b2 client")
	}
	bucket, err := client.Bucket(ctx, conf.Files.B2Bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "opening b2 bucket %s", conf.Files.B2Bucket)
	}

	baseURL := strings.TrimSuffix(conf.Files.BaseURL, "/")
	if baseURL == "" {
		baseURL = strings.TrimSuffix(bucket.BaseURL(), "/") + "/file/" + bucket.Name()
	}
	return &b2Storage{bucket: bucket, baseURL: baseURL}, nil
}

func (s *b2Storage) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	w := s.bucket.Object(key).NewWriter(ctx, b2.WithAttrsOption(&b2.Attrs{ContentType: contentType}))
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", errors.Wrap(err, "uploading to b2")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "uploading to b2")
	}
	return s.baseURL + "/" + key, nil
}

func (s *b2Storage) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Object(key).Delete(ctx); err != nil {
		if b2.IsNotExist(err) {
			return core.NewNotFoundError("file")
		}
		return errors.Wrap(err, "deleting from b2")
	}
	return nil
}
