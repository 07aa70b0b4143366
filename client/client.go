// Package client talks to the festival registration API. It is the remote
// side of the registration wizard: checkpoints, step drafts, submission,
// pricing and the sports catalogue.
package client

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

	"github.com/sports-festival/festival-registration/api"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type Client struct {
	baseURL      string
	httpClient   *http.Client
	logger       *slog.Logger
	tracer       trace.Tracer
	captchaToken string
}

func New(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		tracer:     otel.Tracer("github.com/sports-festival/festival-registration/client"),
	}
}

// SetCaptchaToken sets the Turnstile token sent with the final submission.
func (c *Client) SetCaptchaToken(token string) {
	c.captchaToken = token
}

type requestOption func(req *http.Request)

func withHeader(key string, value string) requestOption {
	return func(req *http.Request) {
		if value != "" {
			req.Header.Set(key, value)
		}
	}
}

// APIError is a non 2xx answer from the API.
type APIError struct {
	StatusCode int
	Code       api.ErrorCode
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func isStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// do sends body as JSON and decodes a successful answer into out. Either may
// be nil.
func (c *Client) do(ctx context.Context, operation string, method string, path string, body any, out any, opts ...requestOption) error {
	ctx, span := c.tracer.Start(ctx, operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		))
	defer span.End()

	err := c.send(ctx, method, path, body, out, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) send(ctx context.Context, method string, path string, body any, out any, opts ...requestOption) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(req)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}

		var errBody api.Error
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
			apiErr.Message = http.StatusText(resp.StatusCode)
		} else {
			apiErr.Code = errBody.Code
			apiErr.Message = errBody.Message
		}

		c.logger.DebugContext(ctx, "api request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status-code", resp.StatusCode),
			slog.String("code", string(apiErr.Code)))

		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
