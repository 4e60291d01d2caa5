package osuapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"osu-push-tracker/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://osu.ppy.sh/api/v2"
	DefaultTokenURL    = "https://osu.ppy.sh/oauth/token"
	DefaultTimeout     = 20 * time.Second
	DefaultMinInterval = 1 * time.Second
	DefaultQueueSize   = 256

	apiVersion        = "20240705"
	tokenExpiryMargin = 30 * time.Second
)

// defaultRetrySchedule is the fixed backoff applied after a failed attempt.
var defaultRetrySchedule = []time.Duration{
	500 * time.Millisecond,
	1 * time.Second,
	2 * time.Second,
}

// Client errors.
var (
	// ErrUnavailable is returned once the retry schedule is exhausted.
	// Callers treat it as "no data this cycle", never as a crash signal.
	ErrUnavailable = errors.New("osu api unavailable after retries")

	// ErrClosed is returned for requests issued after Close.
	ErrClosed = errors.New("osu api client closed")
)

// Client serializes every outbound osu! API call through a single worker
// goroutine so that consecutive request starts are separated by at least a
// minimum interval, regardless of how many goroutines issue calls. It also
// owns the bearer credential and refreshes it lazily with a safety margin.
// The credential and queue must not be shared in any way that bypasses the
// worker; one Client instance per process is enough.
type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	tokenURL     string
	httpc        *http.Client
	limiter      *rate.Limiter
	schedule     []time.Duration

	jobs         chan func()
	workerCtx    context.Context
	workerCancel context.CancelFunc
	wg           sync.WaitGroup

	mu            sync.Mutex
	token         string
	tokenExpires  time.Time
	workerStarted bool
	closed        bool
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL sets the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTokenURL sets the OAuth token endpoint.
func WithTokenURL(u string) ClientOption {
	return func(c *Client) {
		c.tokenURL = u
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(httpc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpc = httpc
	}
}

// WithMinInterval sets the minimum spacing between request starts.
func WithMinInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithRetrySchedule sets the backoff delays applied after failed attempts.
func WithRetrySchedule(schedule []time.Duration) ClientOption {
	return func(c *Client) {
		c.schedule = schedule
	}
}

// NewClient creates a new rate-limited osu! API client. The serialization
// worker is not started here; it launches lazily on the first request.
func NewClient(clientID, clientSecret string, opts ...ClientOption) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      DefaultBaseURL,
		tokenURL:     DefaultTokenURL,
		httpc:        &http.Client{Timeout: DefaultTimeout},
		limiter:      rate.NewLimiter(rate.Every(DefaultMinInterval), 1),
		schedule:     defaultRetrySchedule,
		jobs:         make(chan func(), DefaultQueueSize),
		workerCtx:    ctx,
		workerCancel: cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a GET request through the serialization queue.
// A nil error with data means success; ErrUnavailable means the retry
// schedule was exhausted.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post performs a POST request with a JSON body through the serialization queue.
func (c *Client) Post(ctx context.Context, path string, query url.Values, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, query, body)
}

// Close stops the worker and releases connections. Safe to call even if the
// worker never started, and safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.workerCancel()
	c.wg.Wait()
	c.httpc.CloseIdleConnections()
}

// ensureWorker starts the serialization worker if it is not running yet.
// Idempotent and cheap to call on every request.
func (c *Client) ensureWorker() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.workerStarted {
		return nil
	}
	c.workerStarted = true
	c.wg.Add(1)
	go c.worker()
	return nil
}

// worker drains the queue one job at a time. The limiter enforces the rate
// floor between consecutive job starts; retries run inside the job, so a
// struggling request keeps holding the single execution slot instead of
// letting bursts through.
func (c *Client) worker() {
	defer c.wg.Done()
	for {
		select {
		case <-c.workerCtx.Done():
			return
		case job := <-c.jobs:
			observability.SetRequestQueueDepth(len(c.jobs))
			if err := c.limiter.Wait(c.workerCtx); err != nil {
				return
			}
			job()
		}
	}
}

type requestResult struct {
	data json.RawMessage
	err  error
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	if err := c.ensureWorker(); err != nil {
		return nil, err
	}

	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	resultCh := make(chan requestResult, 1)
	job := func() {
		data, err := c.execute(ctx, method, path, query, payload, token)
		resultCh <- requestResult{data: data, err: err}
	}

	select {
	case c.jobs <- job:
		observability.SetRequestQueueDepth(len(c.jobs))
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.workerCtx.Done():
		return nil, ErrClosed
	}

	select {
	case res := <-resultCh:
		return res.data, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.workerCtx.Done():
		return nil, ErrClosed
	}
}

// execute runs one request plus the fixed retry schedule. Runs on the worker
// goroutine.
func (c *Client) execute(ctx context.Context, method, path string, query url.Values, payload []byte, token string) (json.RawMessage, error) {
	data, lastErr := c.attempt(ctx, method, path, query, payload, token)
	if lastErr == nil {
		observability.RecordAPIRequest(method, "ok")
		return data, nil
	}

	for _, delay := range c.schedule {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			observability.RecordAPIRequest(method, "cancelled")
			return nil, ctx.Err()
		case <-c.workerCtx.Done():
			return nil, ErrClosed
		}

		observability.RecordAPIRetry()
		data, lastErr = c.attempt(ctx, method, path, query, payload, token)
		if lastErr == nil {
			observability.RecordAPIRequest(method, "ok")
			return data, nil
		}
	}

	observability.RecordAPIRequest(method, "failed")
	return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, lastErr)
}

// attempt performs a single HTTP round trip.
func (c *Client) attempt(ctx context.Context, method, path string, query url.Values, payload []byte, token string) (json.RawMessage, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("x-api-version", apiVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.RawMessage(respBody), nil
}

// tokenResponse is the OAuth client-credentials exchange response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ensureToken returns a valid bearer credential, exchanging a new one when
// the current token is absent or inside the expiry safety margin. Exchange
// failures are fatal to the request cycle and are not retried here.
// Redundantly concurrent callers simply refresh slightly early; the exchange
// is idempotent.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpires.Add(-tokenExpiryMargin)) {
		return c.token, nil
	}

	id, err := strconv.Atoi(c.clientID)
	if err != nil {
		return "", fmt.Errorf("client id %q is not numeric: %w", c.clientID, err)
	}

	body, err := json.Marshal(map[string]any{
		"grant_type":    "client_credentials",
		"client_id":     id,
		"client_secret": c.clientSecret,
		"scope":         "public",
	})
	if err != nil {
		return "", fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("token exchange: unexpected status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token exchange: empty access token")
	}

	c.token = tok.AccessToken
	c.tokenExpires = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	observability.RecordTokenRefresh()
	return c.token, nil
}
