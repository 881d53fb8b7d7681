package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
)

// DefaultTTL matches how rarely published comics change: effectively never.
const DefaultTTL = 20 * 365 * 24 * time.Hour

func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "xkcd"), nil
}

// NewTransport returns a RoundTripper that stores responses under dir,
// keyed by request URL. Successful responses are treated as fresh for ttl
// regardless of upstream cache headers; ttl <= 0 keeps upstream headers.
func NewTransport(log *slog.Logger, dir string, ttl time.Duration, next http.RoundTripper) (*httpcache.Transport, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache dir: %w", err)
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	if next == nil {
		next = http.DefaultTransport
	}
	if ttl > 0 {
		next = &expiresAfter{next: next, ttl: ttl, now: time.Now}
	}
	if log != nil {
		log.Debug("http cache ready", "dir", dir, "ttl", ttl)
	}

	t := httpcache.NewTransport(diskcache.New(dir))
	t.Transport = next
	return t, nil
}

// FromCache reports whether resp was served from the disk cache.
func FromCache(resp *http.Response) bool {
	return resp != nil && resp.Header.Get(httpcache.XFromCache) == "1"
}

// Clear removes every cached entry under dir and returns how many files
// were deleted. A missing directory is not an error.
func Clear(dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

type expiresAfter struct {
	next http.RoundTripper
	ttl  time.Duration
	now  func() time.Time
}

func (e *expiresAfter) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := e.next.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		return resp, err
	}

	now := e.now().UTC()
	if resp.Header.Get("Date") == "" {
		resp.Header.Set("Date", now.Format(http.TimeFormat))
	}
	resp.Header.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int64(e.ttl/time.Second)))
	resp.Header.Set("Expires", now.Add(e.ttl).Format(http.TimeFormat))
	resp.Header.Del("Pragma")
	return resp, nil
}
