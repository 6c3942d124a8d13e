// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the chat service client.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int    // HTTP status for ErrTypeRejected and ErrTypeRateLimited
	Detail     string // "detail" field of the service's error body, if any
	Cause      error
}

func (e *ClientError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeRateLimited
	ErrTypeRejected
	ErrTypeNetwork
	ErrTypeCanceled
	ErrTypeInvalidResponse
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeRateLimited:
		return "rate_limited"
	case ErrTypeRejected:
		return "rejected"
	case ErrTypeNetwork:
		return "network"
	case ErrTypeCanceled:
		return "canceled"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// maxErrorBody bounds how much of a rejected response is read.
const maxErrorBody = 4096

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the chat service client.
type ClientConfig struct {
	// BaseURL is the service base URL (default: http://127.0.0.1:8000)
	BaseURL string

	// Timeout for non-streaming requests such as health checks (default: 10s)
	Timeout time.Duration

	// StreamTimeout bounds the wait for chat response headers. The body
	// itself may stream for as long as the caller's context allows
	// (default: 2m)
	StreamTimeout time.Duration

	// RequestsPerMinute paces chat requests on the client side
	// (0 = unlimited)
	RequestsPerMinute int
}

// DefaultBaseURL is the address of a locally running service.
const DefaultBaseURL = "http://127.0.0.1:8000"

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:       DefaultBaseURL,
		Timeout:       10 * time.Second,
		StreamTimeout: 2 * time.Minute,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the chat service.
//
// The Client is safe for concurrent use; concurrent Chat calls share the
// request pacer.
//
// Example:
//
//	client := api.NewClient(api.DefaultConfig(), logger)
//	reply, err := client.Chat(ctx, api.ChatRequest{Message: "hi", ConversationID: id})
//	if err != nil {
//	    return err
//	}
//	defer reply.Close()
type Client struct {
	config       *ClientConfig
	httpClient   *http.Client
	streamClient *http.Client
	limiter      *rate.Limiter
	logger       *zap.Logger
}

// NewClient creates a client. A nil config uses DefaultConfig and a nil
// logger discards output.
func NewClient(config *ClientConfig, logger *zap.Logger) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config

	// Fill in defaults for any zero values
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.StreamTimeout == 0 {
		cfg.StreamTimeout = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = cfg.StreamTimeout

	return &Client{
		config:     &cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		// No overall timeout for streaming; the caller's context ends it.
		streamClient: &http.Client{Transport: transport},
		limiter:      limiter,
		logger:       logger,
	}
}

// BaseURL returns the service base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// CHAT
// =============================================================================

// Chat sends a message and returns the accepted response. The body is not
// read; cancelling ctx aborts the request and any read blocked on the body.
//
// A 429 yields ErrTypeRateLimited, any other non-2xx status ErrTypeRejected,
// and a failure to reach the service ErrTypeNetwork. If ctx ends first the
// error has ErrTypeCanceled and wraps ctx.Err().
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*Reply, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, &ClientError{Type: ErrTypeCanceled, Message: "request canceled", Cause: ctx.Err()}
		}
		return nil, &ClientError{Type: ErrTypeRateLimited, Message: "request pacing would exceed deadline", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeNetwork, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream, application/json")

	c.logger.Debug("chat request",
		zap.String("conversation_id", req.ConversationID),
		zap.Int("message_bytes", len(req.Message)))

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer drainAndClose(resp.Body)
		return nil, statusError(resp)
	}

	return &Reply{
		Body:       resp.Body,
		StatusCode: resp.StatusCode,
		Streaming:  !isJSON(resp.Header.Get("Content-Type")),
	}, nil
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// Health queries the service status endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeNetwork, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return &status, nil
}

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

// transportError classifies a failed round trip.
func transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &ClientError{Type: ErrTypeCanceled, Message: "request canceled", Cause: ctxErr}
	}
	return &ClientError{Type: ErrTypeNetwork, Message: "failed to reach service", Cause: err}
}

// statusError builds the error for a non-2xx response.
func statusError(resp *http.Response) error {
	errType := ErrTypeRejected
	if resp.StatusCode == http.StatusTooManyRequests {
		errType = ErrTypeRateLimited
	}

	clientErr := &ClientError{
		Type:       errType,
		Message:    "service returned " + strconv.Itoa(resp.StatusCode),
		StatusCode: resp.StatusCode,
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body errorBody
	if json.Unmarshal(data, &body) == nil {
		clientErr.Detail = body.Detail
	}
	return clientErr
}

// isJSON reports whether a Content-Type header names a JSON document.
func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}

// ErrorTypeOf returns the type of a *ClientError anywhere in err's chain.
func ErrorTypeOf(err error) ErrorType {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type
	}
	return ErrTypeUnknown
}

// IsRateLimited checks if an error is a rate limit rejection.
func IsRateLimited(err error) bool {
	return ErrorTypeOf(err) == ErrTypeRateLimited
}

// IsRejected checks if the service answered with a non-2xx status other
// than 429.
func IsRejected(err error) bool {
	return ErrorTypeOf(err) == ErrTypeRejected
}

// IsNetwork checks if an error is a failure to reach the service.
func IsNetwork(err error) bool {
	return ErrorTypeOf(err) == ErrTypeNetwork
}

// Helper to drain response body
func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, io.LimitReader(r, maxErrorBody))
	r.Close()
}
