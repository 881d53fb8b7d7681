package xkcd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"yadro.com/xkcd/adapters/cache"
	"yadro.com/xkcd/core"
)

const latestID = 3000

type upstream struct {
	*httptest.Server
	hits          atomic.Int32
	lastCacheCtrl atomic.Value
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		u.lastCacheCtrl.Store(r.Header.Get("Cache-Control"))

		path := strings.Trim(r.URL.Path, "/")
		id := latestID
		switch {
		case path == "info.0.json":
		case strings.HasSuffix(path, "/info.0.json"):
			n, err := strconv.Atoi(strings.TrimSuffix(path, "/info.0.json"))
			if err != nil || n < 1 || n > latestID || n == core.NotFoundID {
				http.NotFound(w, r)
				return
			}
			id = n
		default:
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"num": %d, "title": "Comic %d", "safe_title": "Comic %d",
"img": "https://imgs.xkcd.com/comics/%d.png", "alt": "alt", "transcript": "",
"link": "", "news": "", "year": "2024", "month": "1", "day": "2"}`, id, id, id, id)
	}))
	t.Cleanup(u.Close)
	return u
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestClient(t *testing.T, baseURL string, transport http.RoundTripper) *Client {
	t.Helper()
	c, err := NewClient(baseURL, 5*time.Second, transport, newTestLogger())
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("", time.Second, nil, newTestLogger())
	require.Error(t, err)

	_, err = NewClient("https://xkcd.com", time.Second, nil, nil)
	require.ErrorIs(t, err, core.ErrNilDependency)
}

func TestClient_Get(t *testing.T) {
	u := newUpstream(t)
	c := newTestClient(t, u.URL+"/", nil)

	comic, err := c.Get(context.Background(), 1190)
	require.NoError(t, err)
	require.Equal(t, 1190, comic.Number())
	require.Equal(t, "Comic 1190", comic.Title())
	require.Equal(t, 2024, comic.Year())
}

func TestClient_GetNotFound(t *testing.T) {
	u := newUpstream(t)
	c := newTestClient(t, u.URL, nil)

	for _, id := range []int{0, latestID + 1} {
		_, err := c.Get(context.Background(), id)
		require.ErrorIs(t, err, core.ErrNotFound)
	}
}

func TestClient_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	_, err := c.Get(context.Background(), 1)
	require.Error(t, err)
	require.NotErrorIs(t, err, core.ErrNotFound)
	require.Contains(t, err.Error(), "502")
}

func TestClient_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"num": `))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	_, err := c.Get(context.Background(), 1)
	require.Error(t, err)
}

func TestClient_LatestSendsNoCache(t *testing.T) {
	u := newUpstream(t)
	c := newTestClient(t, u.URL, nil)

	comic, err := c.Latest(context.Background())
	require.NoError(t, err)
	require.Equal(t, latestID, comic.Number())
	require.Equal(t, "no-cache", u.lastCacheCtrl.Load())
}

func TestClient_ContextCancelled(t *testing.T) {
	u := newUpstream(t)
	c := newTestClient(t, u.URL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Get(ctx, 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestClient_RequestsCached(t *testing.T) {
	u := newUpstream(t)
	transport, err := cache.NewTransport(newTestLogger(), t.TempDir(), cache.DefaultTTL, nil)
	require.NoError(t, err)
	c := newTestClient(t, u.URL, transport)
	ctx := context.Background()

	ids := []int{latestID, latestID - 1, latestID - 2}
	for _, id := range ids {
		_, err := c.Get(ctx, id)
		require.NoError(t, err)
	}
	require.EqualValues(t, len(ids), u.hits.Load())

	for _, id := range ids {
		comic, err := c.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, id, comic.Number())
	}
	require.EqualValues(t, len(ids), u.hits.Load())

	_, err = c.Latest(ctx)
	require.NoError(t, err)
	_, err = c.Latest(ctx)
	require.NoError(t, err)
	require.EqualValues(t, len(ids)+2, u.hits.Load())
}

func TestClient_LogsCacheHits(t *testing.T) {
	u := newUpstream(t)
	transport, err := cache.NewTransport(newTestLogger(), t.TempDir(), cache.DefaultTTL, nil)
	require.NoError(t, err)

	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c, err := NewClient(u.URL, 5*time.Second, transport, log)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Contains(t, logs.String(), "from_cache=false")

	logs.Reset()
	_, err = c.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Contains(t, logs.String(), "from_cache=true")
}
