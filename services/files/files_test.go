package filesvc

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo/core"
)

func TestKey(t *testing.T) {
	key := Key("assignments", `C:\docs\Essay.PDF`)
	assert.True(t, strings.HasPrefix(key, "assignments/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))
	assert.NotEqual(t, key, Key("assignments", "essay.pdf"))
}

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	conf := core.NewTestConfig()
	conf.Files.Dir = t.TempDir()
	conf.Files.BaseURL = "http://localhost:8000/uploads/"

	store, err := New(ctx, conf)
	require.NoError(t, err)

	url, err := store.Upload(ctx, "docs/a.txt", strings.NewReader("hello"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/uploads/docs/a.txt", url)

	content, err := os.ReadFile(filepath.Join(conf.Files.Dir, "docs", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	_, err = store.Upload(ctx, "../escape.txt", strings.NewReader("x"), "text/plain")
	assert.Error(t, err)

	require.NoError(t, store.Delete(ctx, "docs/a.txt"))
	assert.Equal(t, core.NewNotFoundError("file"), store.Delete(ctx, "docs/a.txt"))
}
