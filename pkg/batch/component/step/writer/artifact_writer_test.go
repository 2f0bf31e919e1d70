package writer_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/rlsgen/pkg/batch/component/step/writer"
	config "github.com/tigerroll/rlsgen/pkg/batch/core/config"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/exception"
	testutil "github.com/tigerroll/rlsgen/pkg/batch/test"
)

func TestArtifactFileName(t *testing.T) {
	cases := map[string]string{
		"Users can read own posts":   "Users-can-read-own-posts.sql",
		`Enable "insert" for owners`: "Enable-insert-for-owners.sql",
		"plain":                      "plain.sql",
	}
	for in, want := range cases {
		assert.Equal(t, want, writer.ArtifactFileName(in, ".sql"), in)
	}
}

func TestArtifactWriter_CreatesOutputDirAndWrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "supabase", "tests")
	w, err := writer.NewLocalArtifactWriter(config.OutputConfig{Dir: dir})
	require.NoError(t, err)
	assert.DirExists(t, dir)

	path, err := w.Write(context.Background(), testutil.NewTestPolicy("posts", "Users can read own posts"), "BEGIN;\nSELECT plan(1);\nROLLBACK;")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Users-can-read-own-posts.sql"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "BEGIN;\nSELECT plan(1);\nROLLBACK;\n", string(content))
}

func TestArtifactWriter_CollisionFailsAndKeepsFirstFile(t *testing.T) {
	dir := t.TempDir()
	w, err := writer.NewLocalArtifactWriter(config.OutputConfig{Dir: dir, OnCollision: config.OnCollisionFail})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = w.Write(ctx, testutil.NewTestPolicy("posts", "owner read"), "first")
	require.NoError(t, err)
	_, err = w.Write(ctx, testutil.NewTestPolicy("comments", `owner "read"`), "second")
	require.Error(t, err)
	assert.ErrorIs(t, err, exception.ErrArtifactCollision)
	assert.ErrorIs(t, err, exception.ErrIO)

	content, err := os.ReadFile(filepath.Join(dir, "owner-read.sql"))
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(content))
}

func TestArtifactWriter_CollisionOverwrite(t *testing.T) {
	dir := t.TempDir()
	w, err := writer.NewLocalArtifactWriter(config.OutputConfig{Dir: dir, OnCollision: config.OnCollisionOverwrite})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = w.Write(ctx, testutil.NewTestPolicy("posts", "owner read"), "first")
	require.NoError(t, err)
	_, err = w.Write(ctx, testutil.NewTestPolicy("comments", "owner read"), "second\n")
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "owner-read.sql"))
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(content))
}

func TestArtifactWriter_ConcurrentDistinctNames(t *testing.T) {
	dir := t.TempDir()
	w, err := writer.NewLocalArtifactWriter(config.OutputConfig{Dir: dir})
	require.NoError(t, err)

	var wg sync.WaitGroup
	names := []string{"a", "b", "c", "d", "e", "f"}
	for _, n := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := w.Write(context.Background(), testutil.NewTestPolicy("t", name), name)
			assert.NoError(t, err)
		}(n)
	}
	wg.Wait()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, len(names))
}

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Close() error { return nil }

func (m *mockStorage) Type() string { return "mock" }

func (m *mockStorage) Name() string { return "output" }

func (m *mockStorage) Upload(ctx context.Context, objectName string, data io.Reader) (string, error) {
	args := m.Called(ctx, objectName)
	return args.String(0), args.Error(1)
}

func (m *mockStorage) Download(ctx context.Context, objectName string) (io.ReadCloser, error) {
	return nil, errors.New("not supported")
}

func (m *mockStorage) ListObjects(ctx context.Context, prefix string, fn func(objectName string) error) error {
	return nil
}

func TestArtifactWriter_FailedWriteReleasesName(t *testing.T) {
	storage := &mockStorage{}
	storage.On("Upload", mock.Anything, "owner-read.sql").Return("", errors.New("disk full")).Once()
	storage.On("Upload", mock.Anything, "owner-read.sql").Return("out/owner-read.sql", nil).Once()
	w := writer.NewArtifactWriter(storage, config.OutputConfig{OnCollision: config.OnCollisionFail})
	ctx := context.Background()

	_, err := w.Write(ctx, testutil.NewTestPolicy("posts", "owner read"), "first")
	require.Error(t, err)
	assert.ErrorIs(t, err, exception.ErrIO)
	assert.NotErrorIs(t, err, exception.ErrArtifactCollision)

	path, err := w.Write(ctx, testutil.NewTestPolicy("comments", "owner read"), "second")
	require.NoError(t, err)
	assert.Equal(t, "out/owner-read.sql", path)
	storage.AssertExpectations(t)
}
