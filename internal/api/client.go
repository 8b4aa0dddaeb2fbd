package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gamex/gamex-cli/internal/debug"
	"github.com/gamex/gamex-cli/internal/telemetry"
	"github.com/gamex/gamex-cli/internal/validation"
)

// DefaultTimeout bounds every call, connect and read included.
const DefaultTimeout = 15 * time.Second

// TokenSource supplies the bearer token for authenticated calls. An empty
// token with a nil error means the user is not logged in.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a fixed TokenSource, mostly for tests and one-off scripts.
type StaticToken string

func (t StaticToken) Token() (string, error) { return string(t), nil }

// Client is the GameX storefront API client.
//
// A Client is safe for concurrent use. Calls made through Async are
// serialized on the client's worker and complete in submission order.
type Client struct {
	Endpoints Endpoints
	HTTP      *http.Client
	UserAgent string
	Tokens    TokenSource
	Metrics   *telemetry.Metrics
	Tracer    trace.Tracer

	skipURLValidation bool
	validatedBaseURL  bool
	validateMu        sync.Mutex

	workerMu sync.Mutex
	worker   *Worker
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HTTP = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.HTTP.Timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.UserAgent = ua }
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Client) { c.Metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.Tracer = t
		}
	}
}

// Compile-time interface implementation checks
var (
	_ Requester    = (*Client)(nil)
	_ PathResolver = (*Client)(nil)
	_ HTTPExecutor = (*Client)(nil)
)

var validateBaseURL = validation.ValidateBaseURL

// New creates a client for the given base origin. tokens may be nil when
// only unauthenticated calls are made.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		baseTransport = &http.Transport{}
	}
	transport := baseTransport.Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	} else {
		transport.TLSClientConfig = transport.TLSClientConfig.Clone()
	}
	transport.TLSClientConfig.MinVersion = tls.VersionTLS12
	transport.TLSClientConfig.InsecureSkipVerify = false

	if tokens == nil {
		tokens = StaticToken("")
	}

	c := &Client{
		Endpoints: NewEndpoints(baseURL),
		Tokens:    tokens,
		UserAgent: "gamex-cli",
		Tracer:    telemetry.Tracer(),
		// Allow localhost URLs when GAMEX_TESTING=1 is set (for integration tests)
		skipURLValidation: os.Getenv("GAMEX_TESTING") == "1",
		HTTP: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newTestClient creates a client with URL validation disabled for testing
func newTestClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := New(baseURL, tokens, opts...)
	c.skipURLValidation = true
	return c
}

// BaseURL returns the normalized base origin.
func (c *Client) BaseURL() string {
	return c.Endpoints.Base
}

// Async returns the client's worker, starting it on first use.
func (c *Client) Async() *Worker {
	c.workerMu.Lock()
	defer c.workerMu.Unlock()
	if c.worker == nil {
		c.worker = NewWorker()
	}
	return c.worker
}

// Close stops the client's worker. Results of calls still queued or in
// flight are discarded.
func (c *Client) Close() {
	c.workerMu.Lock()
	w := c.worker
	c.workerMu.Unlock()
	if w != nil {
		w.Close()
	}
}

func (c *Client) ensureBaseURLValidated() error {
	if c.skipURLValidation {
		return nil
	}

	c.validateMu.Lock()
	defer c.validateMu.Unlock()

	if c.validatedBaseURL {
		return nil
	}
	if err := validateBaseURL(c.Endpoints.Base); err != nil {
		return fmt.Errorf("URL validation failed: %w", err)
	}
	c.validatedBaseURL = true
	return nil
}

// request describes one API call.
type request struct {
	op     string // metric and span name, e.g. "transactions.create"
	method string
	url    string
	body   any
	auth   bool
}

type response struct {
	StatusCode int
	Body       []byte
}

func (r *response) ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// token reads the session token, failing with NotAuthenticatedError when
// it is absent or the store can't be read.
func (c *Client) token() (string, error) {
	tok, err := c.Tokens.Token()
	if err != nil {
		return "", &NotAuthenticatedError{Err: err}
	}
	if strings.TrimSpace(tok) == "" {
		return "", &NotAuthenticatedError{}
	}
	return tok, nil
}

// send performs the request and returns the response whatever its status.
// Only a missing token, a bad base URL or a transport failure are errors.
func (c *Client) send(ctx context.Context, r request) (*response, error) {
	var token string
	if r.auth {
		tok, err := c.token()
		if err != nil {
			return nil, err
		}
		token = tok
	}
	if err := c.ensureBaseURLValidated(); err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	ctx, span := c.Tracer.Start(ctx, r.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.method),
			attribute.String("url.full", r.url),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, bodyReader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Metrics.Observe(r.op, r.method, 0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "network error")
		if debug.IsEnabled(ctx) {
			slog.Debug("request failed", "op", r.op, "method", r.method, "url", r.url, "error", err)
		}
		return nil, &NetworkError{Method: r.method, URL: r.url, Err: err}
	}
	respBody, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	elapsed := time.Since(start)
	c.Metrics.Observe(r.op, r.method, resp.StatusCode, elapsed)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, &NetworkError{Method: r.method, URL: r.url, Err: err}
	}
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	if debug.IsEnabled(ctx) {
		slog.Debug("request complete", "op", r.op, "method", r.method, "url", r.url, "status", resp.StatusCode, "duration", elapsed)
	}
	return &response{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// do performs the request, requires a 2xx status and decodes the body into
// result.
func (c *Client) do(ctx context.Context, r request, result any) error {
	resp, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return newHTTPError(r.op, resp.StatusCode, resp.Body)
	}
	return decode(resp.Body, result)
}

// doRaw performs the request and returns the raw body of a 2xx response.
func (c *Client) doRaw(ctx context.Context, r request) ([]byte, error) {
	resp, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, newHTTPError(r.op, resp.StatusCode, resp.Body)
	}
	return resp.Body, nil
}

// decode unmarshals body into result. Missing fields keep their zero values;
// an empty or malformed body is a DecodeError.
func decode(body []byte, result any) error {
	if result == nil {
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return &DecodeError{Err: fmt.Errorf("empty response body")}
	}
	if err := json.Unmarshal(body, result); err != nil {
		return &DecodeError{Body: truncateBody(string(body)), Err: err}
	}
	return nil
}

func newHTTPError(op string, status int, body []byte) *HTTPError {
	errResp := parseErrorBody(body)
	msg := errResp.Message
	if msg == "" {
		msg = errResp.Error
	}
	return &HTTPError{
		Op:          op,
		StatusCode:  status,
		Message:     msg,
		FieldErrors: formatValidationErrors(errResp.Errors),
		Body:        truncateBody(string(body)),
	}
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Errors  any    `json:"errors"`
}

// parseErrorBody decodes a Laravel error body. Anything that isn't JSON
// yields the zero value.
func parseErrorBody(body []byte) errorBody {
	var errResp errorBody
	if err := json.Unmarshal(body, &errResp); err != nil {
		return errorBody{}
	}
	return errResp
}

// formatValidationErrors handles both {"field": "msg"} and
// {"field": ["msg", ...]} shapes.
func formatValidationErrors(errs any) string {
	errMap, ok := errs.(map[string]any)
	if !ok || len(errMap) == 0 {
		return ""
	}
	var lines []string
	for field, value := range errMap {
		switch v := value.(type) {
		case string:
			lines = append(lines, fmt.Sprintf("  %s: %s", field, v))
		case []any:
			for _, msg := range v {
				if s, ok := msg.(string); ok {
					lines = append(lines, fmt.Sprintf("  %s: %s", field, s))
				}
			}
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

const maxErrorBody = 2048

func truncateBody(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody] + "...(truncated)"
}
