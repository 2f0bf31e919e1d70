package exception_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tigerroll/rlsgen/pkg/batch/support/util/exception"
)

func TestBatchError_MatchesKindThroughWrapping(t *testing.T) {
	root := errors.New("socket closed")
	err := exception.NewBatchError(exception.ErrGeneration, "generator", "request failed", root, true)
	wrapped := fmt.Errorf("job 3: %w", err)

	assert.ErrorIs(t, wrapped, exception.ErrGeneration)
	assert.ErrorIs(t, wrapped, root)
	assert.NotErrorIs(t, wrapped, exception.ErrIO)
	assert.Equal(t, "[generator] request failed: socket closed", err.Error())
	assert.True(t, err.IsRetryable())
	assert.Equal(t, exception.ErrGeneration, exception.KindOf(wrapped))
}

func TestArtifactCollision_IsIOKind(t *testing.T) {
	err := exception.NewBatchError(exception.ErrArtifactCollision, "writer", "name taken", nil, false)
	assert.ErrorIs(t, err, exception.ErrIO)
	assert.ErrorIs(t, err, exception.ErrArtifactCollision)
	assert.Equal(t, exception.ErrIO, exception.KindOf(err))
}

func TestNewBatchErrorf_ExtractsTrailingError(t *testing.T) {
	err := exception.NewBatchErrorf(exception.ErrConnection, "catalog", "query %s failed", "pg_policies", io.ErrUnexpectedEOF)
	assert.Equal(t, "query pg_policies failed", err.Message)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.False(t, err.IsRetryable())
}

func TestIsTemporary(t *testing.T) {
	assert.False(t, exception.IsTemporary(nil))
	assert.False(t, exception.IsTemporary(context.Canceled))
	assert.True(t, exception.IsTemporary(errors.New("dial tcp: i/o timeout")))
	assert.False(t, exception.IsTemporary(errors.New("invalid x-api-key")))
	assert.True(t, exception.IsTemporary(exception.NewBatchError(exception.ErrGeneration, "generator", "429", nil, true)))
	assert.False(t, exception.IsTemporary(exception.NewBatchError(exception.ErrGeneration, "generator", "timeout", nil, false)))
}

func TestExtractErrorMessage(t *testing.T) {
	assert.Equal(t, "", exception.ExtractErrorMessage(nil))
	assert.Equal(t, "plain", exception.ExtractErrorMessage(errors.New("plain")))
	be := exception.NewBatchError(exception.ErrIO, "writer", "disk full", errors.New("ENOSPC"), false)
	assert.Equal(t, "disk full", exception.ExtractErrorMessage(fmt.Errorf("wrap: %w", be)))
}
