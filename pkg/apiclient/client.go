// Package apiclient talks to the travel-activity REST API. Every call
// resolves to a Result; transport errors, non-2xx statuses and decode
// failures never escape as Go errors or panics.
package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront.app/pkg/logger"
	"storefront.app/pkg/metrics"
	"storefront.app/pkg/session"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	headerAPIKey    = "apiKey"
	headerRequestID = "X-Request-ID"

	// cap on bodies read from the API
	maxBodySize = 10 << 20
)

// Options configures a Client
type Options struct {
	// BasePath is the versioned API root, e.g. https://host/api/v1
	BasePath string
	APIKey   string
	// Timeout bounds each call; zero leaves calls unbounded
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logger.Logger
	Tracer     trace.Tracer
}

// Client holds the transport shared by every resource client
type Client struct {
	base    string
	apiKey  string
	http    *http.Client
	storage session.Storage
	log     *logger.Logger
	tracer  trace.Tracer

	mu    sync.RWMutex
	hooks []func(context.Context)

	Auth           *AuthService
	Users          *UserService
	Activities     *ActivityService
	Categories     *CategoryService
	Banners        *BannerService
	Promos         *PromoService
	PaymentMethods *PaymentMethodService
	Carts          *CartService
	Transactions   *TransactionService
	Uploads        *UploadService
}

// New creates a Client. storage is where the bearer token is read from and
// where it is cleared on a 401.
func New(opts Options, storage session.Storage) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer("storefront.app/pkg/apiclient")
	}
	if storage == nil {
		storage = session.NewMemoryStorage()
	}

	c := &Client{
		base:    strings.TrimRight(opts.BasePath, "/"),
		apiKey:  opts.APIKey,
		http:    hc,
		storage: storage,
		log:     log,
		tracer:  tracer,
	}
	c.Auth = &AuthService{c: c}
	c.Users = &UserService{c: c}
	c.Activities = &ActivityService{c: c}
	c.Categories = &CategoryService{c: c}
	c.Banners = &BannerService{c: c}
	c.Promos = &PromoService{c: c}
	c.PaymentMethods = &PaymentMethodService{c: c}
	c.Carts = &CartService{c: c}
	c.Transactions = &TransactionService{c: c}
	c.Uploads = &UploadService{c: c}
	return c
}

// Storage returns the persisted state the client reads its token from
func (c *Client) Storage() session.Storage {
	return c.storage
}

// OnUnauthorized registers fn to run after any call answered with 401 has
// cleared the persisted session.
func (c *Client) OnUnauthorized(fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// call describes one REST request
type call struct {
	resource string
	op       string
	method   string
	path     string
	body     any
	form     *multipartBody

	// message on success and the fallback error text
	success  string
	fallback string
}

// envelope is the API's response body. message and error are kept raw
// since some endpoints send non-string values there.
type envelope struct {
	Data    jsoniter.RawMessage `json:"data"`
	Message jsoniter.RawMessage `json:"message"`
	Error   jsoniter.RawMessage `json:"error"`
	Token   string              `json:"token"`
	URL     string              `json:"url"`

	status int
}

func rawString(raw jsoniter.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// errorMessage extracts body.message, then body.error, then the fallback
func (e *envelope) errorMessage(fallback string) string {
	if e != nil {
		if m := rawString(e.Message); m != "" {
			return m
		}
		if m := rawString(e.Error); m != "" {
			return m
		}
	}
	return fallback
}

// exchange performs the call and returns the decoded envelope of a 2xx
// response, or a failed Result carrying the status and extracted message.
func (c *Client) exchange(ctx context.Context, cl call) (env *envelope, failed *Result[struct{}]) {
	started := time.Now()
	requestID := logger.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	ctx, span := c.tracer.Start(ctx, "apiclient."+cl.resource+"."+cl.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", cl.method),
			attribute.String("url.path", cl.path),
			attribute.String("storefront.request_id", requestID),
		),
	)
	defer span.End()

	fail := func(message string, status int, cause error) (*envelope, *Result[struct{}]) {
		r := Failure[struct{}](message, status)
		span.SetStatus(codes.Error, r.Error)
		if status != 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", status))
		}
		metrics.ObserveAPICall(cl.resource, cl.op, false, started)
		fields := logger.Fields{
			"resource":    cl.resource,
			"op":          cl.op,
			"status":      status,
			"request_id":  requestID,
			"duration_ms": time.Since(started).Milliseconds(),
			"error":       r.Error,
		}
		if cause != nil {
			fields["cause"] = cause.Error()
		}
		c.log.Warn(ctx, "api call failed", fields)
		return nil, &r
	}

	req, err := c.newRequest(ctx, cl, requestID)
	if err != nil {
		return fail(cl.fallback, 0, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fail(cl.fallback, 0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fail(cl.fallback, resp.StatusCode, err)
	}

	decoded := &envelope{}
	var decodeErr error
	if len(bytes.TrimSpace(raw)) > 0 {
		decodeErr = json.Unmarshal(raw, decoded)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.invalidateSession(ctx)
		}
		if decodeErr != nil {
			decoded = nil
		}
		return fail(decoded.errorMessage(cl.fallback), resp.StatusCode, nil)
	}
	if decodeErr != nil {
		return fail(cl.fallback, resp.StatusCode, decodeErr)
	}

	decoded.status = resp.StatusCode
	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	metrics.ObserveAPICall(cl.resource, cl.op, true, started)
	c.log.Debug(ctx, "api call succeeded", logger.Fields{
		"resource":    cl.resource,
		"op":          cl.op,
		"status":      resp.StatusCode,
		"request_id":  requestID,
		"duration_ms": time.Since(started).Milliseconds(),
	})
	return decoded, nil
}

func (c *Client) newRequest(ctx context.Context, cl call, requestID string) (*http.Request, error) {
	var (
		body        io.Reader
		contentType string
	)
	switch {
	case cl.form != nil:
		buf, ct, err := cl.form.encode()
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case cl.body != nil:
		b, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body, contentType = bytes.NewReader(b), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.base+cl.path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, requestID)
	if c.apiKey != "" {
		req.Header.Set(headerAPIKey, c.apiKey)
	}
	if tok, err := session.Token(ctx, c.storage); err == nil && tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

// invalidateSession clears the persisted token and user, then notifies hooks
func (c *Client) invalidateSession(ctx context.Context) {
	if err := session.Clear(ctx, c.storage); err != nil {
		logger.LogError(ctx, err, "failed to clear session after 401")
	}
	metrics.SessionInvalidationsTotal.Inc()

	c.mu.RLock()
	hooks := append([]func(context.Context){}, c.hooks...)
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx)
	}
}

// do runs cl and decodes body.data into T
func do[T any](ctx context.Context, c *Client, cl call) (res Result[T]) {
	defer func() {
		if p := recover(); p != nil {
			c.log.Error(ctx, "api call panicked", logger.Fields{"resource": cl.resource, "op": cl.op, "panic": fmt.Sprint(p)})
			res = Failure[T](cl.fallback, 0)
		}
	}()

	env, failed := c.exchange(ctx, cl)
	if failed != nil {
		return recast[T](*failed)
	}

	var data T
	if _, void := any(data).(struct{}); void {
		return Success(data, cl.success)
	}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			c.log.Warn(ctx, "api response did not decode", logger.Fields{"resource": cl.resource, "op": cl.op, "error": err.Error()})
			return Failure[T](cl.fallback, env.status)
		}
	}
	return Success(data, cl.success)
}

func pathf(format string, args ...any) string {
	for i, a := range args {
		if s, ok := a.(string); ok {
			args[i] = url.PathEscape(s)
		}
	}
	return fmt.Sprintf(format, args...)
}
