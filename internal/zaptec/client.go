package zaptec

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// HTTPDoer defines the http.Client interface subset used by the API clients.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// StatusError reports a non-success response from the charger-management API.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("zaptec: unexpected status %d: %s", e.Status, e.Body)
}

// Client issues authenticated read requests against the charger-management API.
type Client struct {
	baseURL  string
	doer     HTTPDoer
	tokens   *TokenSource
	observer PageObserver
	logger   *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithPageObserver installs a progress sink for paginated fetches.
func WithPageObserver(obs PageObserver) Option {
	return func(c *Client) {
		if obs != nil {
			c.observer = obs
		}
	}
}

// NewClient builds the API client on top of an injected transport and token source.
func NewClient(baseURL string, doer HTTPDoer, tokens *TokenSource, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		doer:     doer,
		tokens:   tokens,
		observer: noopObserver{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		c.logger.Warn("zaptec request failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("zaptec returned non-success",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &StatusError{Status: resp.StatusCode, Body: snippet(body)}
	}
	return body, nil
}

func snippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max]
	}
	return s
}
