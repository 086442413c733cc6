package zaptec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// TokenSource acquires a bearer token via the OAuth password grant and caches
// it for the process lifetime. There is no refresh path: a run that outlives
// its token keeps using it and lets the API reject it.
type TokenSource struct {
	baseURL  string
	username string
	password string
	doer     HTTPDoer
	logger   *zap.Logger

	mu    sync.Mutex
	token string
}

// NewTokenSource builds the token source. Credentials are validated on first use.
func NewTokenSource(baseURL, username, password string, doer HTTPDoer, logger *zap.Logger) *TokenSource {
	return &TokenSource{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		doer:     doer,
		logger:   logger,
	}
}

// Token returns the cached access token, fetching it on first call.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" {
		return t.token, nil
	}

	if t.username == "" || t.password == "" {
		return "", errors.New("zaptec: username and password must be configured")
	}

	form := url.Values{
		"grant_type": {"password"},
		"username":   {t.username},
		"password":   {t.password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.doer.Do(req)
	if err != nil {
		return "", fmt.Errorf("zaptec: token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Status: resp.StatusCode, Body: snippet(body)}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("zaptec: decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", errors.New("zaptec: token response missing access_token")
	}

	t.token = payload.AccessToken
	t.inspectExpiry(payload.AccessToken)
	return t.token, nil
}

// inspectExpiry reads the expiry claim out of the access token without
// verifying the signature (we are the audience, not the verifier) so short
// tokens can be flagged before a long report run trips over them.
func (t *TokenSource) inspectExpiry(raw string) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		t.logger.Debug("access token is not a parsable JWT", zap.Error(err))
		return
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}
	remaining := time.Until(exp.Time)
	t.logger.Debug("access token acquired", zap.Time("expires_at", exp.Time))
	if remaining < 5*time.Minute {
		t.logger.Warn("access token expires soon; a long report run may start failing",
			zap.Duration("remaining", remaining),
		)
	}
}
