// Package content reads, copies and removes documents that may live on the
// local filesystem or behind a URL.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrFileNotFound is returned when a local document does not exist.
var ErrFileNotFound = errors.New("file not found")

// DefaultTimeout bounds remote fetches.
const DefaultTimeout = 60 * time.Second

// httpClient is a var so tests can substitute a client.
var httpClient = &http.Client{Timeout: DefaultTimeout}

// IsURL reports whether source is an http(s) or ftp URL.
func IsURL(source string) bool {
	u, err := url.Parse(source)
	if err != nil || u.Host == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ftp":
		return true
	}
	return false
}

// ExpandPath expands a leading ~ and makes path absolute.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(path)
}

// CheckFile returns an error wrapping ErrFileNotFound unless path is an
// existing regular file.
func CheckFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("checking file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrFileNotFound, path)
	}
	return nil
}

// NameFromPath splits the base name of path into name and extension.
// The extension keeps its leading dot.
func NameFromPath(path string) (string, string) {
	base := filepath.Base(path)
	if u, err := url.Parse(path); err == nil && IsURL(path) {
		base = filepath.Base(u.Path)
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext), ext
}

// Get returns the text content of a local file or URL.
func Get(ctx context.Context, source string) (string, error) {
	rc, err := open(ctx, source)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", source, err)
	}
	return string(data), nil
}

// Remove deletes a local file. URLs are never touched.
func Remove(path string) error {
	if IsURL(path) {
		return nil
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// open returns a reader for a local file or a remote URL.
func open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !IsURL(source) {
		path, err := ExpandPath(source)
		if err != nil {
			return nil, err
		}
		if err := CheckFile(path); err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: HTTP %d", source, resp.StatusCode)
	}
	return resp.Body, nil
}
