package xkcd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"yadro.com/xkcd/adapters/cache"
	"yadro.com/xkcd/core"
)

type Client struct {
	log     *slog.Logger
	baseURL string
	http    *http.Client
}

// NewClient builds a client for baseURL. A nil transport means
// http.DefaultTransport.
func NewClient(baseURL string, timeout time.Duration, transport http.RoundTripper, log *slog.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("empty base url")
	}
	if log == nil {
		return nil, core.ErrNilDependency
	}
	return &Client{
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout, Transport: transport},
	}, nil
}

func (c *Client) getJSON(ctx context.Context, url string, header http.Header) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Warn("close response body failed", "error", cerr)
		}
	}()

	// read to EOF so the caching transport stores the response
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	c.log.Debug("xkcd response", "url", url, "status", resp.StatusCode, "from_cache", cache.FromCache(resp))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, url)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return raw, nil
}

func (c *Client) Get(ctx context.Context, id int) (core.Comic, error) {
	raw, err := c.getJSON(ctx, fmt.Sprintf("%s/%d/info.0.json", c.baseURL, id), nil)
	if err != nil {
		return core.Comic{}, err
	}
	return core.NewComic(raw), nil
}

// Latest always revalidates with upstream instead of trusting the cache.
func (c *Client) Latest(ctx context.Context) (core.Comic, error) {
	header := http.Header{"Cache-Control": []string{"no-cache"}}
	raw, err := c.getJSON(ctx, c.baseURL+"/info.0.json", header)
	if err != nil {
		return core.Comic{}, err
	}
	return core.NewComic(raw), nil
}
