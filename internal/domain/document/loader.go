package document

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrOffline is returned when a remote document is requested in offline mode
// and no cached copy exists.
var ErrOffline = errors.New("document not available offline")

// Loader reads documents from disk or over http(s), keeping remote text in
// an on-disk cache.
type Loader struct {
	cacheDir     string
	maxAge       time.Duration
	linesPerPage int
	httpClient   *http.Client
	offline      func() bool
}

// NewLoader creates a loader caching into cacheDir. offline is consulted on
// every load; nil means always online.
func NewLoader(cacheDir string, maxAge time.Duration, linesPerPage int, offline func() bool) *Loader {
	// Create cache directory if it doesn't exist
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		logrus.WithError(err).Warn("Failed to create document cache directory")
	}
	if offline == nil {
		offline = func() bool { return false }
	}

	return &Loader{
		cacheDir:     cacheDir,
		maxAge:       maxAge,
		linesPerPage: linesPerPage,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		offline: offline,
	}
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Load returns the paginated document at source.
func (l *Loader) Load(ctx context.Context, source string) (*Document, error) {
	if !isRemote(source) {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
		return New("", "", source, string(data), l.linesPerPage), nil
	}

	text, err := l.fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	return New("", "", source, text, l.linesPerPage), nil
}

func (l *Loader) fetch(ctx context.Context, url string) (string, error) {
	path := l.cachePath(url)

	if l.offline() {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrOffline, url)
		}
		logrus.WithField("url", url).Info("Offline mode, loading document from cache")
		return string(data), nil
	}

	// Check if cache exists and is fresh
	if l.isCacheFresh(path) {
		if data, err := os.ReadFile(path); err == nil {
			logrus.WithField("url", url).Debug("Loading document from cache")
			return string(data), nil
		}
	}

	text, err := l.download(ctx, url)
	if err != nil {
		// If the download fails, fall back to a stale copy
		logrus.WithError(err).Warn("Document fetch failed, trying stale cache")
		if data, cacheErr := os.ReadFile(path); cacheErr == nil {
			return string(data), nil
		}
		return "", fmt.Errorf("failed to fetch document and no cache available: %w", err)
	}

	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		logrus.WithError(err).Warn("Failed to save document to cache")
	} else {
		logrus.WithFields(logrus.Fields{
			"url":  url,
			"file": path,
		}).Info("Saved document to cache")
	}

	return text, nil
}

func (l *Loader) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server returned status %d for URL %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(body), nil
}

func (l *Loader) cachePath(url string) string {
	return filepath.Join(l.cacheDir, fmt.Sprintf("%x.txt", md5.Sum([]byte(url))))
}

// isCacheFresh checks if the cache file exists and is within the max age
func (l *Loader) isCacheFresh(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < l.maxAge
}

// ClearCache removes every cached document.
func (l *Loader) ClearCache() error {
	entries, err := os.ReadDir(l.cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".txt" {
			continue
		}
		if err := os.Remove(filepath.Join(l.cacheDir, e.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
	}
	logrus.Info("Cleared document cache")
	return nil
}

// GetCacheInfo returns information about the cache
func (l *Loader) GetCacheInfo() (map[string]interface{}, error) {
	info := make(map[string]interface{})

	entries, err := os.ReadDir(l.cacheDir)
	if err != nil && !os.IsNotExist(err) {
		return info, err
	}

	var files, size int64
	var newest time.Time
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".txt" {
			continue
		}
		stat, err := e.Info()
		if err != nil {
			continue
		}
		files++
		size += stat.Size()
		if stat.ModTime().After(newest) {
			newest = stat.ModTime()
		}
	}

	info["cache_directory"] = l.cacheDir
	info["cached_documents"] = files
	info["size"] = size
	info["max_age_hours"] = l.maxAge.Hours()
	if files > 0 {
		info["last_modified"] = newest
	}
	return info, nil
}
