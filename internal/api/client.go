// Package api is the client for the tour platform's REST endpoints.
//
// Every call is a single attempt: there is no retry, no backoff and no
// response caching. Callers pass a context so a dismissed screen can cancel
// what it started.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const maxResponseBytes = 1 << 20

// Endpoint paths, relative to the server origin
const (
	PathLogin          = "/auth/login"
	PathRegister       = "/auth/register"
	PathForgotPassword = "/auth/forgetpassword"
	PathVerifyOTP      = "/auth/otp_verifications"
	PathResetPassword  = "/auth/resetPassword"
	PathListCategories = "/api/catagories/find"
	PathCreateCategory = "/api/catagories"
	PathDeleteCategory = "/api/catagories/delete"
	PathUploads        = "/api/uploads"
	PathTours          = "/api/tours"
)

// Client talks to one fixed server origin
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for per-call diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for baseURL with the given per-call timeout
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server origin the client targets
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FileURL turns a server-relative file path into an absolute URL
func (c *Client) FileURL(filePath string) string {
	if strings.HasPrefix(filePath, "http://") || strings.HasPrefix(filePath, "https://") {
		return filePath
	}
	if !strings.HasPrefix(filePath, "/") {
		filePath = "/" + filePath
	}
	return c.baseURL + filePath
}

func (c *Client) postJSON(ctx context.Context, op, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return &Error{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
	}
	return c.do(ctx, op, http.MethodPost, path, bytes.NewReader(payload), "application/json", out)
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Op: op, Err: fmt.Errorf("failed to build request: %w", err)}
	}

	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	injectTraceContext(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("API call failed",
			"op", op,
			"method", method,
			"path", path,
			"request_id", requestID,
			"error", err.Error(),
		)
		return &Error{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("API call completed",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds(),
		"request_id", requestID,
	)

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &Error{Op: op, StatusCode: resp.StatusCode, Message: serverMessage(raw)}
		c.logger.Warn("API call rejected",
			"op", op,
			"status", resp.StatusCode,
			"message", apiErr.Message,
			"request_id", requestID,
		)
		return apiErr
	}

	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}
	return nil
}

// serverMessage reads {"message": ...} and falls back to {"error": ...}
func serverMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

// InstallTracePropagation sets W3C trace context and baggage as the global
// propagator. Without it otel's default propagator drops everything.
func InstallTracePropagation() {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// injectTraceContext propagates the W3C trace context of ctx to the server
func injectTraceContext(req *http.Request) {
	otel.GetTextMapPropagator().Inject(req.Context(), propagation.HeaderCarrier(req.Header))
}
