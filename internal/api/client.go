package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"deadlock-tracker/internal/config"
	"deadlock-tracker/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// Admitter gates every outbound request. Implemented by ratelimit.TokenBucket.
type Admitter interface {
	Consume(ctx context.Context) error
}

// Params are query parameters; nil values (including nil pointers) are omitted.
type Params map[string]any

type RequestOption func(*requestOptions)

type requestOptions struct {
	endpoint string
	headers  map[string]string
}

// WithEndpoint labels the request for logs and metrics in place of the raw path.
func WithEndpoint(name string) RequestOption {
	return func(o *requestOptions) { o.endpoint = name }
}

func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = map[string]string{}
		}
		o.headers[key] = value
	}
}

// Result is a decoded success response. JSON is set for JSON content types,
// Text carries the raw body otherwise.
type Result struct {
	Status      int
	ContentType string
	JSON        json.RawMessage
	Text        string
}

func (r *Result) IsJSON() bool { return r.JSON != nil }

type RateLimitInfo struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     int       `json:"reset"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Client struct {
	baseURL *url.URL
	client  *fasthttp.Client
	bucket  Admitter
	metrics *metrics.Metrics
	logger  zerolog.Logger

	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

func NewClient(cfg *config.Config, bucket Admitter, m *metrics.Metrics, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		bucket:  bucket,
		metrics: m,
		logger:  logger.With().Str("component", "api").Logger(),
	}
}

// GetRateLimitInfo returns the last rate-limit headers reported by the upstream.
func (c *Client) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *Client) updateRateLimit(resp *fasthttp.Response) {
	limit := string(resp.Header.Peek("X-Ratelimit-Limit"))
	remaining := string(resp.Header.Peek("X-Ratelimit-Remaining"))
	reset := string(resp.Header.Peek("X-Ratelimit-Reset"))
	if limit == "" && remaining == "" && reset == "" {
		return
	}

	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()
	if val, err := strconv.Atoi(limit); err == nil {
		c.rateLimit.Limit = val
	}
	if val, err := strconv.Atoi(remaining); err == nil {
		c.rateLimit.Remaining = val
	}
	if val, err := strconv.Atoi(reset); err == nil {
		c.rateLimit.Reset = val
	}
	c.rateLimit.UpdatedAt = time.Now()
}

// BuildURL resolves path against the base endpoint and appends the non-nil params
// in key order.
func (c *Client) BuildURL(path string, params Params) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid request path %q: %w", path, err)
	}
	u := c.baseURL.ResolveReference(ref)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := u.Query()
	for _, k := range keys {
		if v, ok := formatParam(params[k]); ok {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func formatParam(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case *string:
		if t == nil {
			return "", false
		}
		return *t, true
	case *bool:
		if t == nil {
			return "", false
		}
		return strconv.FormatBool(*t), true
	case *int:
		if t == nil {
			return "", false
		}
		return strconv.Itoa(*t), true
	case *int64:
		if t == nil {
			return "", false
		}
		return strconv.FormatInt(*t, 10), true
	case *float64:
		if t == nil {
			return "", false
		}
		return strconv.FormatFloat(*t, 'f', -1, 64), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return fmt.Sprint(t), true
	}
}

// Execute waits for admission, sends a GET and classifies the outcome.
// Non-2xx statuses return *TransportError; nothing is retried here.
func (c *Client) Execute(ctx context.Context, path string, params Params, opts ...RequestOption) (*Result, error) {
	o := requestOptions{endpoint: path}
	for _, opt := range opts {
		opt(&o)
	}

	target, err := c.BuildURL(path, params)
	if err != nil {
		return nil, err
	}

	waitStart := time.Now()
	if err := c.bucket.Consume(ctx); err != nil {
		return nil, fmt.Errorf("admission for %s: %w", o.endpoint, err)
	}
	c.metrics.ObserveAdmission(time.Since(waitStart))

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(target)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.Do(req, resp)
	}
	if err != nil {
		c.metrics.ObserveUpstream(o.endpoint, 0, time.Since(start))
		c.logger.Error().Err(err).Str("endpoint", o.endpoint).Msg("upstream request failed")
		return nil, fmt.Errorf("request %s: %w", o.endpoint, err)
	}

	status := resp.StatusCode()
	c.metrics.ObserveUpstream(o.endpoint, status, time.Since(start))
	c.updateRateLimit(resp)

	body := append([]byte(nil), resp.Body()...)
	contentType := string(resp.Header.ContentType())

	if status < 200 || status > 299 {
		c.logger.Warn().
			Str("endpoint", o.endpoint).
			Int("status", status).
			Msg("upstream returned error status")
		return nil, &TransportError{Endpoint: o.endpoint, Status: status, Body: errorBody(body)}
	}

	c.logger.Debug().
		Str("endpoint", o.endpoint).
		Int("status", status).
		Int("bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("upstream request completed")

	result := &Result{Status: status, ContentType: contentType}
	if strings.Contains(contentType, "application/json") {
		if len(body) == 0 {
			body = []byte("null")
		}
		result.JSON = body
		return result, nil
	}
	result.Text = string(body)
	return result, nil
}

// errorBody prefers a structured error body and falls back to plain text.
func errorBody(body []byte) any {
	if len(body) > 0 && json.Valid(body) {
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			return v
		}
	}
	return string(body)
}
