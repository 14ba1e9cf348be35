package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/lifestory/internal/logging"
)

// Fetcher downloads remote datasets
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
}

// FetchMeta records response headers worth logging
type FetchMeta struct {
	StatusCode   int
	ContentType  string
	LastModified string
	ETag         string
}

// FetchResult contains the downloaded body and metadata
type FetchResult struct {
	Body     []byte
	Meta     FetchMeta
	FinalURL string
}

// IsRemote reports whether a dataset path is an http(s) URL
func IsRemote(path string) bool {
	u, err := url.Parse(path)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Fetch retrieves rawURL. Bodies over the size limit are an error, never
// truncated.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/csv,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	meta := FetchMeta{
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: resp.Header.Get("Last-Modified"),
		ETag:         resp.Header.Get("ETag"),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("dataset larger than %d bytes", f.maxBytes)
	}

	return &FetchResult{
		Body:     body,
		Meta:     meta,
		FinalURL: resp.Request.URL.String(),
	}, nil
}

// Download stores rawURL under dir and returns the local path. An existing
// copy is reused unless refresh is set.
func (f *Fetcher) Download(ctx context.Context, rawURL, dir string, refresh bool) (string, error) {
	local := filepath.Join(dir, localName(rawURL))
	if !refresh {
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}
	}

	res, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	logging.Debugf("fetched %s (final %s, %d bytes, etag %q, last-modified %q)",
		rawURL, res.FinalURL, len(res.Body), res.Meta.ETag, res.Meta.LastModified)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create dataset dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(res.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write dataset: %w", err)
	}
	if err := os.Rename(tmp.Name(), local); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("store dataset: %w", err)
	}
	return local, nil
}

// localName keeps the URL's file name readable and prefixes a short hash
// so different hosts never collide
func localName(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	base := "dataset.csv"
	if u, err := url.Parse(rawURL); err == nil {
		if b := filepath.Base(strings.Trim(u.Path, "/")); b != "." && b != "/" && b != "" {
			base = b
		}
	}
	return hex.EncodeToString(sum[:6]) + "-" + base
}
