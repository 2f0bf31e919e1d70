// Package corpus loads the reference documents that guide test generation.
package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	storageConfig "github.com/tigerroll/rlsgen/pkg/batch/adapter/storage/config"
	"github.com/tigerroll/rlsgen/pkg/batch/adapter/storage/local"
	config "github.com/tigerroll/rlsgen/pkg/batch/core/config"
	model "github.com/tigerroll/rlsgen/pkg/batch/core/domain/model"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/exception"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/logger"
)

const moduleName = "corpus"

// listingEntry is one element of a GitHub contents API directory listing.
type listingEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

// loadResult holds the documents read from one source and the per-document failures.
type loadResult struct {
	docs    []model.ReferenceDocument
	skipped *multierror.Error
}

// Loader reads the corpus from a local directory, falling back to a remote listing.
type Loader struct {
	cfg        config.CorpusConfig
	httpClient *http.Client
}

// NewLoader creates a Loader. A nil httpClient uses one with the configured timeout.
func NewLoader(cfg config.CorpusConfig, httpClient *http.Client) *Loader {
	if httpClient == nil {
		timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Loader{cfg: cfg, httpClient: httpClient}
}

// Load returns every readable document in source order. Documents that fail to load are
// logged and skipped; an empty result is a CorpusLoadError.
func (l *Loader) Load(ctx context.Context) (model.ReferenceCorpus, error) {
	var (
		res loadResult
		err error
	)
	if l.localDirExists() {
		logger.Infof("Loading reference corpus from '%s'.", l.cfg.LocalDir)
		res, err = l.loadLocal(ctx)
	} else if l.cfg.RemoteListingURL != "" {
		logger.Infof("Local corpus directory '%s' not found, fetching listing from '%s'.", l.cfg.LocalDir, l.cfg.RemoteListingURL)
		res, err = l.loadRemote(ctx)
	} else {
		return model.ReferenceCorpus{}, exception.NewBatchErrorf(exception.ErrCorpusLoad, moduleName,
			"corpus directory '%s' not found and no remote listing configured", l.cfg.LocalDir)
	}
	if err != nil {
		return model.ReferenceCorpus{}, err
	}

	skipped := res.skipped.ErrorOrNil()
	if skipped != nil {
		logger.Warnf("Some reference documents could not be loaded: %v", skipped)
	}
	if len(res.docs) == 0 {
		return model.ReferenceCorpus{}, exception.NewBatchError(exception.ErrCorpusLoad, moduleName, "no reference documents loaded", skipped, false)
	}
	logger.Infof("Loaded %d reference document(s).", len(res.docs))
	return model.ReferenceCorpus{Documents: res.docs}, nil
}

func (l *Loader) localDirExists() bool {
	if l.cfg.LocalDir == "" {
		return false
	}
	info, err := os.Stat(l.cfg.LocalDir)
	return err == nil && info.IsDir()
}

func (l *Loader) loadLocal(ctx context.Context) (loadResult, error) {
	store, err := local.NewLocalAdapter(storageConfig.StorageConfig{Type: local.ProviderType, BaseDir: l.cfg.LocalDir}, moduleName)
	if err != nil {
		return loadResult{}, exception.NewBatchError(exception.ErrCorpusLoad, moduleName, "failed to open corpus directory", err, false)
	}
	defer store.Close()

	var names []string
	if err := store.ListObjects(ctx, "", func(name string) error {
		names = append(names, name)
		return nil
	}); err != nil {
		return loadResult{}, exception.NewBatchError(exception.ErrCorpusLoad, moduleName, "failed to list corpus directory", err, false)
	}

	var res loadResult
	for _, name := range names {
		content, err := readAll(store.Download(ctx, name))
		if err != nil {
			res.skipped = multierror.Append(res.skipped, fmt.Errorf("%s: %w", name, err))
			continue
		}
		res.docs = append(res.docs, model.ReferenceDocument{Name: name, Content: content})
	}
	return res, nil
}

func (l *Loader) loadRemote(ctx context.Context) (loadResult, error) {
	body, err := l.get(ctx, l.cfg.RemoteListingURL)
	if err != nil {
		return loadResult{}, exception.NewBatchError(exception.ErrCorpusLoad, moduleName, "failed to fetch corpus listing", err, false)
	}
	var entries []listingEntry
	if err := json.Unmarshal([]byte(body), &entries); err != nil {
		return loadResult{}, exception.NewBatchError(exception.ErrCorpusLoad, moduleName, "malformed corpus listing", err, false)
	}

	var files []listingEntry
	for _, e := range entries {
		if e.Type == "file" && e.DownloadURL != "" {
			files = append(files, e)
		}
	}

	limit := l.cfg.DownloadConcurrency
	if limit <= 0 {
		limit = 1
	}
	slots := make([]*model.ReferenceDocument, len(files))
	var (
		mu  sync.Mutex
		res loadResult
		g   errgroup.Group
	)
	g.SetLimit(limit)
	for i, f := range files {
		g.Go(func() error {
			// A single failed download is skipped; cancellation aborts the whole load.
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := l.get(ctx, f.DownloadURL)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				mu.Lock()
				res.skipped = multierror.Append(res.skipped, fmt.Errorf("%s: %w", f.Name, err))
				mu.Unlock()
				return nil
			}
			slots[i] = &model.ReferenceDocument{Name: f.Name, Content: content}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return loadResult{}, exception.NewBatchError(exception.ErrCorpusLoad, moduleName, "corpus download interrupted", err, false)
	}

	res.docs = make([]model.ReferenceDocument, 0, len(slots))
	for _, d := range slots {
		if d != nil {
			res.docs = append(res.docs, *d)
		}
	}
	return res, nil
}

func (l *Loader) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "rlsgen")
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GET %s returned status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func readAll(rc io.ReadCloser, err error) (string, error) {
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
