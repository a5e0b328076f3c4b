package catalog

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

const userAgent = "gw2ctl/1.0 (Guild Wars 2 addon manager)"

// cacheEntry records the validator and payload file of one repository
type cacheEntry struct {
	ETag      string    `json:"etag"`
	File      string    `json:"file"`
	FetchedAt time.Time `json:"fetched_at"`
}

type cacheIndex struct {
	Entries map[string]cacheEntry `json:"entries"`
}

// Fetcher downloads repository manifests, revalidating cached copies with
// If-None-Match. A failed request is never answered from the cache.
type Fetcher struct {
	fs       afero.Fs
	cacheDir string // empty disables caching
	client   *http.Client
	logger   *log.Logger

	mu    sync.Mutex
	index *cacheIndex
}

// NewFetcher creates a manifest fetcher caching under cacheDir
func NewFetcher(fs afero.Fs, cacheDir string, client *http.Client, logger *log.Logger) *Fetcher {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if client == nil {
		client = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Fetcher{
		fs:       fs,
		cacheDir: cacheDir,
		client:   client,
		logger:   logger,
	}
}

// Fetch returns the manifest bytes served at source
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	entry, cached := f.entry(source)
	if cached && entry.ETag != "" {
		req.Header.Set("If-None-Match", entry.ETag)
	}

	f.logger.Debug("Fetching manifest", "url", source)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotModified && cached {
		f.logger.Debug("Manifest not modified (304)", "url", source)
		data, err := afero.ReadFile(f.fs, filepath.Join(f.cacheDir, entry.File))
		if err != nil {
			return nil, fmt.Errorf("manifest not modified but cache is unreadable: %w", err)
		}
		return data, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if etag := resp.Header.Get("ETag"); etag != "" {
		if err := f.store(source, etag, body); err != nil {
			f.logger.Warn("Failed to save manifest cache", "url", source, "error", err)
		}
	}

	return body, nil
}

func (f *Fetcher) entry(source string) (cacheEntry, bool) {
	if f.cacheDir == "" {
		return cacheEntry{}, false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.loadIndex(); err != nil {
		f.logger.Debug("Ignoring unreadable manifest cache", "error", err)
		return cacheEntry{}, false
	}
	entry, ok := f.index.Entries[source]
	return entry, ok
}

func (f *Fetcher) store(source, etag string, body []byte) error {
	if f.cacheDir == "" {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.loadIndex(); err != nil {
		f.index = &cacheIndex{Entries: make(map[string]cacheEntry)}
	}

	if err := f.fs.MkdirAll(f.cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	sum := sha1.Sum([]byte(source))
	file := "manifest-" + hex.EncodeToString(sum[:8]) + ".json"
	if err := afero.WriteFile(f.fs, filepath.Join(f.cacheDir, file), body, 0644); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}

	f.index.Entries[source] = cacheEntry{ETag: etag, File: file, FetchedAt: time.Now()}

	data, err := json.MarshalIndent(f.index, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(f.fs, f.indexPath(), data, 0644)
}

// loadIndex reads the cache index once; callers hold f.mu
func (f *Fetcher) loadIndex() error {
	if f.index != nil {
		return nil
	}

	data, err := afero.ReadFile(f.fs, f.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			f.index = &cacheIndex{Entries: make(map[string]cacheEntry)}
			return nil
		}
		return err
	}

	var index cacheIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return err
	}
	if index.Entries == nil {
		index.Entries = make(map[string]cacheEntry)
	}
	f.index = &index
	return nil
}

func (f *Fetcher) indexPath() string {
	return filepath.Join(f.cacheDir, "manifests.json")
}
