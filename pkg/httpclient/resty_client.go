package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// BasePath prefixes every request path; the dev server strips it before
	// forwarding to the backend.
	BasePath = "/api"
	// RequestTimeout applies to every request.
	RequestTimeout = 5000 * time.Millisecond
)

// Options configures an authenticated Client.
type Options struct {
	// Origin is the scheme and host BasePath is resolved against.
	Origin           string
	Store            SessionStore
	OnSessionExpired ExpiredHandler
	Logger           Logger
}

// Client dispatches requests to the backend, attaching the stored bearer
// credential and resetting the session when the backend answers 401.
type Client struct {
	rc        *resty.Client
	store     SessionStore
	onExpired ExpiredHandler
	log       Logger
	now       func() time.Time
}

// New creates a Client with the fixed base path and timeout.
func New(opts Options) (*Client, error) {
	return newClient(opts, RequestTimeout)
}

func newClient(opts Options, timeout time.Duration) (*Client, error) {
	origin := strings.TrimRight(strings.TrimSpace(opts.Origin), "/")
	if origin == "" {
		return nil, errors.New("httpclient: origin is required")
	}
	if opts.Store == nil {
		return nil, errors.New("httpclient: session store is required")
	}

	c := &Client{
		store:     opts.Store,
		onExpired: opts.OnSessionExpired,
		log:       LoggerOrDiscard(opts.Logger),
		now:       time.Now,
	}

	c.rc = newRestyBaseClient(timeout).
		SetBaseURL(origin + BasePath).
		OnBeforeRequest(c.attachCredential).
		OnAfterResponse(c.rejectNonSuccess).
		OnError(c.handleFailure)

	return c, nil
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

// NewRestyHTTPClient exposes a plain resty.Client for callers talking to
// third-party endpoints that must not receive the session credential.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// BaseURL returns the absolute address request paths are resolved against.
func (c *Client) BaseURL() string { return c.rc.BaseURL }

// attachCredential sets the bearer header when a credential is stored.
// It never fails the request; an unreadable store counts as no credential.
func (c *Client) attachCredential(_ *resty.Client, req *resty.Request) error {
	sess, err := c.store.Get(req.Context())
	if err != nil {
		c.log.WarnObj("session read failed; sending request without credential", "session_error", map[string]any{
			"error": err.Error(),
		})
		return nil
	}
	if sess.Token != "" {
		req.SetHeader("Authorization", "Bearer "+sess.Token)
	}
	return nil
}

// rejectNonSuccess turns any non-2xx response into a *StatusError.
func (c *Client) rejectNonSuccess(_ *resty.Client, resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	return &StatusError{
		Method:     resp.Request.Method,
		URL:        resp.Request.URL,
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}
}

// handleFailure observes every failed request. Only a 401 has a side effect:
// the session is cleared and the expired handler runs. The error itself is
// returned to the caller untouched by Do.
func (c *Client) handleFailure(req *resty.Request, err error) {
	var se *StatusError
	if !errors.As(err, &se) {
		c.log.DebugObj("request failed", "request_error", map[string]any{
			"method": req.Method,
			"url":    req.URL,
			"error":  err.Error(),
		})
		return
	}
	if se.StatusCode != http.StatusUnauthorized {
		return
	}

	ctx := req.Context()
	if clearErr := c.store.Clear(ctx); clearErr != nil {
		c.log.ErrorObj("session clear failed", "session_error", map[string]any{
			"url":   se.URL,
			"error": clearErr.Error(),
		})
	}
	c.log.WarnObj("session expired", "session_expired", map[string]any{
		"method": se.Method,
		"url":    se.URL,
	})

	if c.onExpired != nil {
		c.onExpired(ctx, SessionExpired{
			Method:     se.Method,
			URL:        se.URL,
			StatusCode: se.StatusCode,
			OccurredAt: c.now().UTC(),
		})
	}
}

// RequestOption customizes a single request before dispatch.
type RequestOption func(*resty.Request)

// WithJSON sends body encoded as JSON.
func WithJSON(body any) RequestOption {
	return func(r *resty.Request) {
		r.SetHeader("Content-Type", "application/json").SetBody(body)
	}
}

// WithForm sends values as application/x-www-form-urlencoded.
func WithForm(values map[string]string) RequestOption {
	return func(r *resty.Request) { r.SetFormData(values) }
}

// WithQuery adds query parameters.
func WithQuery(params map[string]string) RequestOption {
	return func(r *resty.Request) { r.SetQueryParams(params) }
}

// WithPathParam fills a {name} placeholder in the path, escaping the value.
func WithPathParam(name, value string) RequestOption {
	return func(r *resty.Request) { r.SetPathParam(name, value) }
}

// WithFile attaches r as a multipart file field named field.
func WithFile(field, filename string, r io.Reader) RequestOption {
	return func(req *resty.Request) { req.SetFileReader(field, filename, r) }
}

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *resty.Request) { r.SetHeader(key, value) }
}

// Do dispatches method path relative to BasePath. On success it returns the
// response body only. On failure it returns the transport error, or a
// *StatusError for non-2xx responses, exactly as produced.
func (c *Client) Do(ctx context.Context, method, path string, opts ...RequestOption) ([]byte, error) {
	req := c.rc.R().SetContext(ctx)
	for _, opt := range opts {
		if opt != nil {
			opt(req)
		}
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// DoJSON dispatches through d and decodes the body into out.
func DoJSON(ctx context.Context, d Doer, method, path string, out any, opts ...RequestOption) error {
	body, err := d.Do(ctx, method, path, opts...)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
