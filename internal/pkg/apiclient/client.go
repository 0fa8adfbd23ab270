// internal/pkg/apiclient/client.go
package apiclient

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

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/config"
	"golang.org/x/sync/singleflight"
)

// TokenSource supplies the current bearer token, empty when signed out
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource
type TokenFunc func() string

// Token implements TokenSource
func (f TokenFunc) Token() string { return f() }

// Meta is the pagination block of list responses
type Meta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Envelope is the wire shape of every API response
type Envelope struct {
	Data    json.RawMessage `json:"data,omitempty"`
	Meta    *Meta           `json:"meta,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

// Request describes a single API call
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Public requests are sent without a token and never short-circuit
	Public bool
}

// Options configures a Client
type Options struct {
	BaseURL         string
	Timeout         time.Duration
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	HTTPClient      *http.Client
	Tokens          TokenSource
	Logger          logrus.FieldLogger
	// OnUnauthorized runs when the API rejects the current token
	OnUnauthorized func()
}

// Client issues authenticated REST calls against the marketplace API
type Client struct {
	baseURL         string
	timeout         time.Duration
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
	http            *http.Client
	tokens          TokenSource
	logger          logrus.FieldLogger
	onUnauthorized  func()
	inflight        singleflight.Group
}

// New creates a client
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 100 * time.Millisecond
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = 2 * time.Second
	}
	if opts.Tokens == nil {
		opts.Tokens = TokenFunc(func() string { return "" })
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}

	return &Client{
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		timeout:         opts.Timeout,
		maxAttempts:     opts.MaxAttempts,
		initialInterval: opts.InitialInterval,
		maxInterval:     opts.MaxInterval,
		http:            httpClient,
		tokens:          opts.Tokens,
		logger:          opts.Logger,
		onUnauthorized:  opts.OnUnauthorized,
	}
}

// NewFromConfig creates a client from the API section of the configuration
func NewFromConfig(cfg *config.Config, tokens TokenSource, logger logrus.FieldLogger) *Client {
	return New(Options{
		BaseURL:         cfg.API.BaseURL,
		Timeout:         cfg.API.Timeout,
		MaxAttempts:     cfg.API.RetryMaxAttempts,
		InitialInterval: cfg.API.RetryInitialInterval,
		MaxInterval:     cfg.API.RetryMaxInterval,
		Tokens:          tokens,
		Logger:          logger,
	})
}

// SetUnauthorizedHandler registers the callback for 401 responses
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.onUnauthorized = fn
}

// Get decodes the data of a GET response into out and returns its pagination meta
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) (*Meta, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post sends body and decodes the response data into out
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	_, err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
	return err
}

// Patch sends body and decodes the response data into out
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	_, err := c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body}, out)
	return err
}

// Put sends body and decodes the response data into out
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	_, err := c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
	return err
}

// Delete issues a DELETE request
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, nil)
	return err
}

type result struct {
	data json.RawMessage
	meta *Meta
}

// Do executes req with retries. Identical concurrent GETs share one round trip.
func (c *Client) Do(ctx context.Context, req Request, out any) (*Meta, error) {
	token := ""
	if !req.Public {
		token = c.tokens.Token()
		if token == "" {
			return nil, ErrUnauthenticated
		}
	}

	var (
		res *result
		err error
	)
	if req.Method == http.MethodGet {
		key := token + " " + req.Path + "?" + req.Query.Encode()
		// The shared call outlives any one caller; each attempt is still
		// bounded by the client timeout.
		shared := context.WithoutCancel(ctx)
		ch := c.inflight.DoChan(key, func() (interface{}, error) {
			return c.execute(shared, req, token)
		})
		select {
		case r := <-ch:
			err = r.Err
			if r.Val != nil {
				res = r.Val.(*result)
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	} else {
		res, err = c.execute(ctx, req, token)
	}
	if err != nil {
		return nil, err
	}

	if out != nil && len(res.data) > 0 && string(res.data) != "null" {
		if err := json.Unmarshal(res.data, out); err != nil {
			return nil, &Error{
				Kind:    KindServer,
				Message: "unexpected response payload",
				Err:     fmt.Errorf("decode %s %s: %w", req.Method, req.Path, err),
			}
		}
	}
	return res.meta, nil
}

func (c *Client) execute(ctx context.Context, req Request, token string) (*result, error) {
	var payload []byte
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = b
	}

	requestID := uuid.NewString()
	idempotencyKey := ""
	if req.Method != http.MethodGet {
		idempotencyKey = uuid.NewString()
	}

	log := c.logger.WithFields(logrus.Fields{
		"method":     req.Method,
		"path":       req.Path,
		"request_id": requestID,
	})

	var res *result
	operation := func() error {
		r, err := c.attempt(ctx, req, token, payload, requestID, idempotencyKey)
		if err != nil {
			var apiErr *Error
			if errors.As(err, &apiErr) && retryable(apiErr) && ctx.Err() == nil {
				return err
			}
			return backoff.Permanent(err)
		}
		res = r
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialInterval
	policy.MaxInterval = c.maxInterval
	policy.MaxElapsedTime = 0

	var b backoff.BackOff = backoff.WithMaxRetries(policy, uint64(c.maxAttempts-1))
	b = backoff.WithContext(b, ctx)

	err := backoff.RetryNotify(operation, b, func(err error, wait time.Duration) {
		log.WithError(err).WithField("retry_in", wait).Warn("API call failed, retrying")
	})
	if err != nil {
		log.WithError(err).Debug("API call failed")

		var apiErr *Error
		// Only a rejected token ends the session; a failed login does not
		if errors.As(err, &apiErr) && apiErr.Kind == KindUnauthorized && token != "" && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, err
	}
	return res, nil
}

func (c *Client) attempt(ctx context.Context, req Request, token string, payload []byte, requestID, idempotencyKey string) (*result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &Error{
			Kind:      KindTransport,
			Message:   "Unable to reach the server",
			RequestID: requestID,
			Err:       err,
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{
			Kind:       KindTransport,
			StatusCode: resp.StatusCode,
			Message:    "Connection interrupted",
			RequestID:  requestID,
			Err:        err,
		}
	}

	var env Envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 400 {
			return nil, &Error{
				Kind:       KindServer,
				StatusCode: resp.StatusCode,
				Message:    "unexpected response payload",
				RequestID:  requestID,
				Err:        err,
			}
		}
	}

	if resp.StatusCode >= 400 {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		details := ""
		if len(env.Details) > 0 {
			details = strings.Trim(string(env.Details), `"`)
		}
		return nil, &Error{
			Kind:       kindForStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    msg,
			Details:    details,
			RequestID:  requestID,
		}
	}

	return &result{data: env.Data, meta: env.Meta}, nil
}
