package httpcache

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "httpcache:"

// cachedResponse is the envelope stored per URL. Both remote APIs serve
// read-only historical data, so replaying a recent body is always safe.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// Transport memoizes successful GET responses in Redis for a fixed TTL. Cache
// failures degrade to a live request; a broken cache never fails a fetch.
type Transport struct {
	rdb    *redis.Client
	ttl    time.Duration
	next   http.RoundTripper
	logger *zap.Logger
}

// NewTransport wraps next with a Redis response cache. A nil redis client
// returns next unchanged.
func NewTransport(rdb *redis.Client, ttl time.Duration, next http.RoundTripper, logger *zap.Logger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if rdb == nil {
		return next
	}
	return &Transport{
		rdb:    rdb,
		ttl:    ttl,
		next:   next,
		logger: logger,
	}
}

// RoundTrip serves GET requests from the cache when possible and stores fresh
// successful responses. Non-GET requests pass straight through.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return t.next.RoundTrip(req)
	}

	key := keyPrefix + req.URL.String()
	if resp := t.lookup(req, key); resp != nil {
		return resp, nil
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		t.store(req, key, resp)
	}
	return resp, nil
}

func (t *Transport) lookup(req *http.Request, key string) *http.Response {
	data, err := t.rdb.Get(req.Context(), key).Bytes()
	if err != nil {
		if err != redis.Nil {
			t.logger.Debug("http cache lookup failed", zap.Error(err))
		}
		return nil
	}

	var cached cachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		t.logger.Debug("http cache entry corrupt, ignoring", zap.Error(err))
		return nil
	}

	header := make(http.Header)
	if cached.ContentType != "" {
		header.Set("Content-Type", cached.ContentType)
	}
	return &http.Response{
		StatusCode:    cached.Status,
		Status:        http.StatusText(cached.Status),
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(cached.Body)),
		ContentLength: int64(len(cached.Body)),
		Request:       req,
	}
}

func (t *Transport) store(req *http.Request, key string, resp *http.Response) {
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		resp.Body = io.NopCloser(bytes.NewReader(nil))
		return
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	data, err := json.Marshal(cachedResponse{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	})
	if err != nil {
		return
	}
	if err := t.rdb.Set(req.Context(), key, data, t.ttl).Err(); err != nil {
		t.logger.Debug("http cache store failed", zap.Error(err))
	}
}
