// # internal/cache/remote.go
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// RemoteTier talks to a shared HTTP key/value service so analysis results
// can be reused across machines. It is the slowest tier and strictly
// optional: any failure degrades to the local tiers.
type RemoteTier struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

type remoteEntry struct {
	Value    []byte `json:"value"`
	CachedAt int64  `json:"cached_at"`
	TTL      int64  `json:"ttl"`
}

// NewRemoteTier points at baseURL (e.g. http://cache.internal:8080) and
// throttles to requestsPerSecond so a large codebase scan cannot hammer the
// shared service.
func NewRemoteTier(baseURL string, requestsPerSecond float64, timeout time.Duration) (*RemoteTier, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("remote cache URL must not be empty")
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid remote cache URL %q: %w", trimmed, err)
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 50
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RemoteTier{
		baseURL: trimmed,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), int(requestsPerSecond)),
	}, nil
}

func (t *RemoteTier) Name() string { return "remote" }

func (t *RemoteTier) entryURL(key string) string {
	return t.baseURL + "/v1/entries/" + url.PathEscape(key)
}

func (t *RemoteTier) Get(ctx context.Context, key string) (*Entry, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.entryURL(key), nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	default:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("remote cache get: unexpected status %d", resp.StatusCode)
	}

	var re remoteEntry
	if err := json.NewDecoder(resp.Body).Decode(&re); err != nil {
		return nil, fmt.Errorf("decode remote cache entry: %w", err)
	}
	return &Entry{
		Value:    re.Value,
		CachedAt: time.Unix(re.CachedAt, 0).UTC(),
		TTL:      time.Duration(re.TTL) * time.Second,
	}, nil
}

func (t *RemoteTier) Put(ctx context.Context, key string, entry Entry) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(remoteEntry{
		Value:    entry.Value,
		CachedAt: entry.CachedAt.Unix(),
		TTL:      int64(entry.TTL / time.Second),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, t.entryURL(key), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("remote cache put: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (t *RemoteTier) Delete(ctx context.Context, key string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, t.entryURL(key), nil)
	if err != nil {
		return err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remote cache delete: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (t *RemoteTier) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
