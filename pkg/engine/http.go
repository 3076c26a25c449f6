package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// call describes one engine request.
type call struct {
	// op is the client method identifier; it selects the endpoint metadata.
	op   string
	path string

	query url.Values
	json  any
	form  url.Values
	// formContentType sends the form content type even without a body.
	formContentType bool

	timeout time.Duration
}

// httpClient handles HTTP communication with the engine API.
type httpClient struct {
	c *Client
}

func newHTTPClient(c *Client) *httpClient {
	return &httpClient{c: c}
}

// request performs the call and decodes a JSON response into result when
// result is non-nil. It returns the response status code.
func (h *httpClient) request(ctx context.Context, cl call, result any) (int, error) {
	if h.c.closed.Load() {
		return 0, ErrClientClosed
	}

	meta, ok := Endpoints[cl.op]
	if !ok {
		return 0, fmt.Errorf("engine: no endpoint metadata for %q", cl.op)
	}
	token, err := h.c.resolveToken(meta.Tokens)
	if err != nil {
		return 0, err
	}

	cfg := h.c.config
	ctx, span := cfg.tracer.Start(ctx, "engine."+cl.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", meta.Method),
			attribute.String("url.path", cl.path),
			attribute.String("engine.method", cl.op),
		),
	)
	defer span.End()

	var body []byte
	switch {
	case cl.json != nil:
		if body, err = json.Marshal(cl.json); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return 0, fmt.Errorf("marshal request body: %w", err)
		}
	case cl.form != nil:
		body = []byte(cl.form.Encode())
	}

	timeout := cl.timeout
	if timeout == 0 {
		timeout = cfg.timeout
	}

	retries := 0
	if meta.Method == http.MethodGet {
		retries = cfg.maxRetries
	}

	var (
		status  int
		lastErr error
	)
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s, ...
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(backoff):
			}
		}

		status, lastErr = h.doRequest(ctx, meta.Method, cl, token, body, timeout, result)
		if lastErr == nil {
			break
		}
		if apiErr, ok := AsError(lastErr); ok && !apiErr.Retryable() {
			break
		}
		if errors.Is(lastErr, context.Canceled) {
			break
		}
	}

	span.SetAttributes(attribute.Int("http.response.status_code", status))
	if lastErr != nil {
		span.RecordError(lastErr)
		span.SetStatus(codes.Error, lastErr.Error())
		return status, lastErr
	}
	return status, nil
}

// doRequest performs a single HTTP request.
func (h *httpClient) doRequest(ctx context.Context, method string, cl call, token string, body []byte, timeout time.Duration, result any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := strings.TrimRight(h.c.config.endpoint, "/") + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	h.setHeaders(req, cl, token)

	start := time.Now()
	resp, err := h.c.config.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	h.c.config.logger.Debug("engine request",
		"method", method,
		"url", req.URL.Redacted(),
		"status", resp.StatusCode,
		"request_id", req.Header.Get("X-Request-Id"),
		"duration", time.Since(start),
	)

	return resp.StatusCode, h.handleResponse(resp, result)
}

// setHeaders sets common headers for API requests.
func (h *httpClient) setHeaders(req *http.Request, cl call, token string) {
	req.Header.Set("Accept", "*/*")
	req.Header.Set("token", token)
	req.Header.Set("User-Agent", h.c.config.userAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if cl.form != nil || cl.formContentType {
		req.Header.Set("Content-Type", contentTypeForm)
	} else {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
}

// handleResponse handles the API response.
func (h *httpClient) handleResponse(resp *http.Response, result any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newError(resp, body)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
