package controlplane

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"kernex-dashboard/internal/auth"
	"kernex-dashboard/internal/logger"
	appErrors "kernex-dashboard/pkg/errors"
)

const maxErrorBody = 4 << 10

// Client talks to the control-plane REST API. Every request is bounded by
// the configured timeout; failures come back as *errors.TransportError.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  auth.TokenStore
	log     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, tokens auth.TokenStore) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		log:     logger.Named("controlplane"),
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health probes GET /health; any 2xx is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, "/health", nil, "", nil)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if requestID := logger.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}
	return c.do(ctx, op, method, path, bytes.NewReader(body), "application/json", out)
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return &appErrors.TransportError{Op: op, Kind: appErrors.KindNetwork, Err: err}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		terr := classifyNetworkError(op, err)
		c.log.Warn("Control plane request failed",
			zap.String("op", op),
			zap.String("method", method),
			zap.String("path", path),
			zap.String("kind", string(terr.Kind)),
			zap.Error(err),
		)
		return terr
	}
	defer resp.Body.Close()

	c.log.Debug("Control plane response",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(op, path, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &appErrors.TransportError{Op: op, StatusCode: 0, Kind: appErrors.KindDecode, Err: err}
	}
	return nil
}

func (c *Client) statusError(op, path string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	terr := &appErrors.TransportError{Op: op, StatusCode: resp.StatusCode}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		terr.Kind = appErrors.KindUnauthorized
		if c.tokens != nil {
			c.tokens.ClearToken()
		}
		c.log.Warn("Control plane rejected credentials, token cleared", zap.String("path", path))
	case resp.StatusCode == http.StatusForbidden:
		terr.Kind = appErrors.KindForbidden
		c.log.Warn("Control plane denied access", zap.String("path", path))
	case resp.StatusCode == http.StatusNotFound:
		terr.Kind = appErrors.KindNotFound
		c.log.Warn("Control plane resource not found", zap.String("path", path))
	case resp.StatusCode >= 500:
		terr.Kind = appErrors.KindServer
		c.log.Error("Control plane server error",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
	default:
		terr.Kind = appErrors.KindStatus
		c.log.Warn("Control plane returned unexpected status",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
	}
	return terr
}

func classifyNetworkError(op string, err error) *appErrors.TransportError {
	kind := appErrors.KindNetwork
	var netErr net.Error
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		kind = appErrors.KindTimeout
	case stderrors.As(err, &netErr) && netErr.Timeout():
		kind = appErrors.KindTimeout
	}
	return &appErrors.TransportError{Op: op, Kind: kind, Err: err}
}
