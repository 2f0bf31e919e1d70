// Package writer persists generated test files.
package writer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	storageAdapter "github.com/tigerroll/rlsgen/pkg/batch/adapter/storage"
	storageConfig "github.com/tigerroll/rlsgen/pkg/batch/adapter/storage/config"
	"github.com/tigerroll/rlsgen/pkg/batch/adapter/storage/local"
	config "github.com/tigerroll/rlsgen/pkg/batch/core/config"
	model "github.com/tigerroll/rlsgen/pkg/batch/core/domain/model"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/exception"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/logger"
)

const moduleName = "artifact_writer"

// ArtifactFileName derives the file name of a policy's test file:
// spaces become "-", double quotes are dropped and ext is appended.
func ArtifactFileName(policyName, ext string) string {
	name := strings.ReplaceAll(policyName, " ", "-")
	name = strings.ReplaceAll(name, `"`, "")
	return name + ext
}

// ArtifactWriter writes one file per policy into the output storage.
// Every file name written during the run is remembered; a second policy that maps to
// the same name fails with ErrArtifactCollision unless overwriting is configured.
type ArtifactWriter struct {
	storage     storageAdapter.StorageConnection
	extension   string
	onCollision string

	mu      sync.Mutex
	claimed map[string]string // file name -> policy identity
}

// NewArtifactWriter creates an ArtifactWriter over an existing storage connection.
func NewArtifactWriter(storage storageAdapter.StorageConnection, cfg config.OutputConfig) *ArtifactWriter {
	ext := cfg.Extension
	if ext == "" {
		ext = ".sql"
	}
	onCollision := cfg.OnCollision
	if onCollision == "" {
		onCollision = config.OnCollisionFail
	}
	return &ArtifactWriter{
		storage:     storage,
		extension:   ext,
		onCollision: onCollision,
		claimed:     make(map[string]string),
	}
}

// NewLocalArtifactWriter creates the output directory (with parents) and a writer on top of it.
func NewLocalArtifactWriter(cfg config.OutputConfig) (*ArtifactWriter, error) {
	conn, err := local.NewLocalAdapter(storageConfig.StorageConfig{
		Type:          local.ProviderType,
		BaseDir:       cfg.Dir,
		CreateBaseDir: true,
	}, "output")
	if err != nil {
		return nil, exception.NewBatchError(exception.ErrIO, moduleName, "failed to prepare output directory", err, false)
	}
	return NewArtifactWriter(conn, cfg), nil
}

// Write stores content as the test file of policy and returns its path.
// The stored content always ends with a newline.
func (w *ArtifactWriter) Write(ctx context.Context, policy model.Policy, content string) (string, error) {
	fileName := ArtifactFileName(policy.PolicyName, w.extension)
	previous, err := w.claim(fileName, policy.Identity())
	if err != nil {
		return "", err
	}

	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	path, err := w.storage.Upload(ctx, fileName, strings.NewReader(content))
	if err != nil {
		w.release(fileName, policy.Identity(), previous)
		return "", exception.NewBatchError(exception.ErrIO, moduleName,
			fmt.Sprintf("failed to write test file for policy %s", policy.PolicyName), err, false)
	}
	return path, nil
}

// claim reserves fileName for identity and returns the owner it replaced, if any.
func (w *ArtifactWriter) claim(fileName, identity string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	owner, taken := w.claimed[fileName]
	if !taken || owner == identity {
		w.claimed[fileName] = identity
		return owner, nil
	}
	if w.onCollision == config.OnCollisionOverwrite {
		logger.Warnf("Test file %s of policy %s is overwritten by policy %s", fileName, owner, identity)
		w.claimed[fileName] = identity
		return owner, nil
	}
	return "", exception.NewBatchErrorf(exception.ErrArtifactCollision, moduleName,
		"policy %s maps to %s, already written for policy %s", identity, fileName, owner)
}

// release undoes a claim whose write failed, handing the name back to previous.
func (w *ArtifactWriter) release(fileName, identity, previous string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.claimed[fileName] != identity {
		return
	}
	if previous == "" {
		delete(w.claimed, fileName)
		return
	}
	w.claimed[fileName] = previous
}
