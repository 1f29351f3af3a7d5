package draftfile

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
	"time"

	"github.com/csheth/promptune/internal/logger"
)

const (
	cacheEnvVar        = "PROMPTUNE_CACHE_DIR"
	cacheSubdir        = "promptune/drafts"
	cacheTTL           = 6 * time.Hour
	partialSuffix      = ".part"
	metaSuffix         = ".meta"
	defaultHTTPTimeout = 60 * time.Second
	maxDownloadBytes   = 32 << 20
)

// downloadCache keeps remote drafts on disk so relaunching with the same URL
// does not refetch within cacheTTL. Stale entries are revalidated with ETag
// or Last-Modified and served as-is when the server is unreachable.
type downloadCache struct {
	dir    string
	client *http.Client
}

type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"lastModified"`
	CachedAt     time.Time `json:"cachedAt"`
	Size         int64     `json:"size"`
}

func newDownloadCache(dir string, client *http.Client) (*downloadCache, error) {
	if dir == "" {
		dir = os.Getenv(cacheEnvVar)
	}
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = filepath.Join(os.TempDir(), "promptune-cache")
		}
		dir = filepath.Join(base, cacheSubdir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &downloadCache{dir: dir, client: client}, nil
}

// Fetch returns a local path holding the body of rawURL.
func (c *downloadCache) Fetch(ctx context.Context, rawURL string) (string, error) {
	bodyPath, metaPath := c.pathsFor(cacheKey(rawURL))
	info, statErr := os.Stat(bodyPath)
	if statErr == nil && info.Size() > 0 && time.Since(info.ModTime()) < cacheTTL {
		return bodyPath, nil
	}

	meta, _ := readMeta(metaPath)
	if statErr != nil || info.Size() == 0 {
		meta = cacheMeta{}
	}
	err := c.download(ctx, rawURL, bodyPath, metaPath, meta)
	if err == nil {
		return bodyPath, nil
	}
	if statErr == nil && info.Size() > 0 {
		logger.Named("draftfile").WithError(err).WithField("url", rawURL).Warn("serving stale cached draft")
		return bodyPath, nil
	}
	return "", err
}

func (c *downloadCache) download(ctx context.Context, rawURL, bodyPath, metaPath string, meta cacheMeta) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		now := time.Now()
		_ = os.Chtimes(bodyPath, now, now)
		meta.CachedAt = now.UTC()
		return writeMeta(metaPath, meta)
	case http.StatusOK:
		return c.saveBody(resp, bodyPath, metaPath)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("draft download failed: %s (%s)", resp.Status, string(body))
	}
}

func (c *downloadCache) saveBody(resp *http.Response, bodyPath, metaPath string) error {
	partialPath := bodyPath + partialSuffix
	file, err := os.Create(partialPath)
	if err != nil {
		return err
	}
	n, err := io.Copy(file, io.LimitReader(resp.Body, maxDownloadBytes+1))
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > maxDownloadBytes {
		err = fmt.Errorf("draft larger than %d bytes", maxDownloadBytes)
	}
	if err != nil {
		os.Remove(partialPath)
		return err
	}
	if err := os.Rename(partialPath, bodyPath); err != nil {
		return err
	}
	return writeMeta(metaPath, cacheMeta{
		URL:          resp.Request.URL.String(),
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
		CachedAt:     time.Now().UTC(),
		Size:         n,
	})
}

func (c *downloadCache) pathsFor(key string) (string, string) {
	return filepath.Join(c.dir, key), filepath.Join(c.dir, key+metaSuffix)
}

func cacheKey(rawURL string) string {
	sum := sha1.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

func readMeta(path string) (cacheMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cacheMeta{}, err
	}
	var meta cacheMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheMeta{}, err
	}
	return meta, nil
}

func writeMeta(path string, meta cacheMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
