package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/mfeltz/budgetboard-go/internal/types"
)

const (
	restPrefix    = "/rest/v1"
	budgetsTable  = "budgets"
	authHeaderKey = "Authorization"
	apiKeyHeader  = "apikey"
	contentType   = "application/json"

	// Postgres unique-violation SQLSTATE, reported by the row API on
	// duplicate inserts.
	uniqueViolationCode = "23505"
)

// Options configures the REST store.
type Options struct {
	BaseURL     string
	APIKey      string
	HTTPClient  *http.Client
	Timeout     time.Duration
	RetryConfig *types.RetryConfig
	Logger      types.Logger
	Hooks       *types.Hooks
	Headers     map[string]string
}

// Client talks to the hosted row store over its REST surface and satisfies
// types.RealtimeStore through the embedded realtime connection.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	retryClient *retryablehttp.Client
	headers     map[string]string
	logger      types.Logger
	hooks       *types.Hooks

	realtime *Realtime
}

// New creates a REST store client.
func New(opts *Options) *Client {
	if opts == nil {
		opts = &Options{}
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: types.DefaultTimeout}
	}
	if opts.Timeout > 0 {
		opts.HTTPClient.Timeout = opts.Timeout
	}
	if opts.Logger == nil {
		opts.Logger = types.NopLogger{}
	}

	var retryClient *retryablehttp.Client
	if opts.RetryConfig != nil {
		retryClient = retryablehttp.NewClient()
		retryClient.HTTPClient = opts.HTTPClient
		retryClient.RetryMax = opts.RetryConfig.MaxRetries
		retryClient.RetryWaitMin = opts.RetryConfig.RetryWait
		retryClient.RetryWaitMax = opts.RetryConfig.MaxWait
		retryClient.Logger = &retryLogger{logger: opts.Logger}
	}

	headers := map[string]string{
		"Accept":       contentType,
		"Content-Type": contentType,
		"User-Agent":   types.UserAgent,
	}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	c := &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		apiKey:      opts.APIKey,
		httpClient:  opts.HTTPClient,
		retryClient: retryClient,
		headers:     headers,
		logger:      opts.Logger,
		hooks:       opts.Hooks,
	}
	c.realtime = newRealtime(c.baseURL, c.apiKey, opts.Logger)
	return c
}

// Budgets lists the budgets visible to the authenticated user.
func (c *Client) Budgets(ctx context.Context) ([]types.BudgetInfo, error) {
	body, err := c.do(ctx, http.MethodGet, c.tableURL(budgetsTable, url.Values{"select": {"*"}}), nil)
	if err != nil {
		return nil, err
	}

	var budgets []types.BudgetInfo
	if err := json.Unmarshal(body, &budgets); err != nil {
		return nil, types.WrapStoreError(err, types.ErrKindInternal, "malformed budgets response")
	}
	return budgets, nil
}

// List returns every row of one collection for one budget. Transactions are
// fetched with their category join so the transformer's fallback chain has
// the nested id available.
func (c *Client) List(ctx context.Context, budgetID string, kind types.EntityKind) ([]types.Record, error) {
	sel := "*"
	if kind == types.KindTransactions {
		sel = "*,categories(id,name)"
	}
	query := url.Values{
		"select":    {sel},
		"budget_id": {"eq." + budgetID},
	}

	body, err := c.do(ctx, http.MethodGet, c.tableURL(string(kind), query), nil)
	if err != nil {
		return nil, err
	}

	var records []types.Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, types.WrapStoreError(err, types.ErrKindInternal, "malformed list response")
	}
	return records, nil
}

// Create inserts a row scoped to the given budget.
func (c *Client) Create(ctx context.Context, budgetID string, kind types.EntityKind, fields types.Record) (types.Record, error) {
	payload := make(types.Record, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["budget_id"] = budgetID

	body, err := c.do(ctx, http.MethodPost, c.tableURL(string(kind), nil), payload)
	if err != nil {
		return nil, err
	}
	return firstRecord(body)
}

// Update patches a row by id.
func (c *Client) Update(ctx context.Context, kind types.EntityKind, id string, fields types.Record) (types.Record, error) {
	query := url.Values{"id": {"eq." + id}}
	body, err := c.do(ctx, http.MethodPatch, c.tableURL(string(kind), query), fields)
	if err != nil {
		return nil, err
	}
	return firstRecord(body)
}

// Delete removes a row by id.
func (c *Client) Delete(ctx context.Context, kind types.EntityKind, id string) error {
	query := url.Values{"id": {"eq." + id}}
	_, err := c.do(ctx, http.MethodDelete, c.tableURL(string(kind), query), nil)
	return err
}

// Subscribe opens a realtime channel for one entity kind of one budget.
func (c *Client) Subscribe(budgetID string, kind types.EntityKind, fn func(types.Event)) (types.Subscription, error) {
	return c.realtime.subscribe(budgetTopic(budgetID, kind), kind, fn)
}

// SubscribeMembership opens the per-user membership channel.
func (c *Client) SubscribeMembership(userID string, fn func(types.Event)) (types.Subscription, error) {
	return c.realtime.subscribe(membershipTopic(userID), types.KindMembership, fn)
}

// Close shuts down the realtime connection.
func (c *Client) Close() error {
	return c.realtime.close()
}

func (c *Client) tableURL(table string, query url.Values) string {
	u := c.baseURL + restPrefix + "/" + table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, types.WrapStoreError(err, types.ErrKindInternal, "failed to marshal request")
		}
		bodyReader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, types.WrapStoreError(err, types.ErrKindInternal, "failed to create request")
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
		req.Header.Set(authHeaderKey, "Bearer "+c.apiKey)
	}
	if method == http.MethodPost || method == http.MethodPatch {
		req.Header.Set("Prefer", "return=representation")
	}

	if c.hooks != nil && c.hooks.OnRequest != nil {
		c.hooks.OnRequest(ctx, req)
	}

	start := time.Now()
	resp, err := c.roundTrip(req)
	duration := time.Since(start)

	if err != nil {
		wrapped := types.WrapStoreError(err, types.ErrKindTransient, "request failed")
		if c.hooks != nil && c.hooks.OnError != nil {
			c.hooks.OnError(ctx, wrapped)
		}
		return nil, wrapped
	}
	defer resp.Body.Close()

	if c.hooks != nil && c.hooks.OnResponse != nil {
		c.hooks.OnResponse(ctx, resp, duration)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.WrapStoreError(err, types.ErrKindTransient, "failed to read response")
	}

	if resp.StatusCode >= 400 {
		storeErr := classify(resp.StatusCode, body)
		if c.hooks != nil && c.hooks.OnError != nil {
			c.hooks.OnError(ctx, storeErr)
		}
		return nil, storeErr
	}

	return body, nil
}

func (c *Client) roundTrip(req *http.Request) (*http.Response, error) {
	if c.retryClient != nil {
		retryReq, err := retryablehttp.FromRequest(req)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build retryable request")
		}
		return c.retryClient.Do(retryReq)
	}
	return c.httpClient.Do(req)
}

// classify maps an HTTP error response to an ErrorKind once, here at the
// boundary. Anything ambiguous stays internal rather than being guessed at.
func classify(status int, body []byte) *types.StoreError {
	var apiErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	}
	_ = json.Unmarshal(body, &apiErr)
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}

	kind := types.ErrKindInternal
	switch {
	case status == http.StatusConflict || apiErr.Code == uniqueViolationCode:
		kind = types.ErrKindConflict
	case status == http.StatusNotFound || status == http.StatusNotAcceptable:
		kind = types.ErrKindNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = types.ErrKindPermission
	case status >= 500 || status == http.StatusTooManyRequests:
		kind = types.ErrKindTransient
	}

	return &types.StoreError{
		Kind:       kind,
		Code:       apiErr.Code,
		Message:    apiErr.Message,
		StatusCode: status,
	}
}

func firstRecord(body []byte) (types.Record, error) {
	var records []types.Record
	if err := json.Unmarshal(body, &records); err != nil {
		// Some endpoints return a bare object rather than a one-element array.
		var single types.Record
		if err2 := json.Unmarshal(body, &single); err2 == nil {
			return single, nil
		}
		return nil, types.WrapStoreError(err, types.ErrKindInternal, "malformed row response")
	}
	if len(records) == 0 {
		return nil, types.NewStoreError(types.ErrKindNotFound, "", "no row returned")
	}
	return records[0], nil
}

// retryLogger adapts our Logger to retryablehttp's LeveledLogger.
type retryLogger struct {
	logger types.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keysAndValues...)
}

func budgetTopic(budgetID string, kind types.EntityKind) string {
	return fmt.Sprintf("budget:%s:%s", budgetID, kind)
}

func membershipTopic(userID string) string {
	return fmt.Sprintf("membership:%s", userID)
}
