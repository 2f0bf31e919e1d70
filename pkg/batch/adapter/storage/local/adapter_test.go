package local_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storageConfig "github.com/tigerroll/rlsgen/pkg/batch/adapter/storage/config"
	"github.com/tigerroll/rlsgen/pkg/batch/adapter/storage/local"
)

func TestNewLocalAdapter_BaseDirHandling(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "a", "b")

	_, err := local.NewLocalAdapter(storageConfig.StorageConfig{Type: local.ProviderType, BaseDir: missing}, "corpus")
	assert.Error(t, err, "missing BaseDir without CreateBaseDir")

	conn, err := local.NewLocalAdapter(storageConfig.StorageConfig{Type: local.ProviderType, BaseDir: missing, CreateBaseDir: true}, "output")
	require.NoError(t, err)
	assert.Equal(t, "output", conn.Name())
	assert.DirExists(t, missing)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	_, err = local.NewLocalAdapter(storageConfig.StorageConfig{BaseDir: file}, "bad")
	assert.Error(t, err)
}

func TestLocalAdapter_UploadDownloadList(t *testing.T) {
	base := t.TempDir()
	conn, err := local.NewLocalAdapter(storageConfig.StorageConfig{BaseDir: base}, "test")
	require.NoError(t, err)
	ctx := context.Background()

	path, err := conn.Upload(ctx, "b.sql", strings.NewReader("second"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "b.sql"), path)
	_, err = conn.Upload(ctx, "a.sql", strings.NewReader("first"))
	require.NoError(t, err)
	_, err = conn.Upload(ctx, "a.sql", strings.NewReader("replaced"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(base, ".hidden"), []byte("x"), 0o600))

	var names []string
	require.NoError(t, conn.ListObjects(ctx, "", func(name string) error {
		names = append(names, name)
		return nil
	}))
	assert.Equal(t, []string{"a.sql", "b.sql"}, names, "lexical order, no temp or hidden files")

	r, err := conn.Download(ctx, "a.sql")
	require.NoError(t, err)
	defer r.Close()
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(content))
}

func TestLocalAdapter_RejectsEscapingNames(t *testing.T) {
	conn, err := local.NewLocalAdapter(storageConfig.StorageConfig{BaseDir: t.TempDir()}, "test")
	require.NoError(t, err)

	_, err = conn.Upload(context.Background(), "../escape.sql", strings.NewReader("x"))
	assert.Error(t, err)
	_, err = conn.Download(context.Background(), "../../etc/passwd")
	assert.Error(t, err)
}
