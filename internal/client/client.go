package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mboxlabs/mailctl/internal/observability"
	"github.com/mboxlabs/mailctl/internal/session"
)

// Method is the logical verb of an operation.
type Method string

const (
	MethodRead   Method = "read"
	MethodCreate Method = "create"
	MethodUpdate Method = "update"
	MethodDelete Method = "delete"
)

func (m Method) verb() (string, bool) {
	switch m {
	case MethodRead:
		return http.MethodGet, true
	case MethodCreate:
		return http.MethodPost, true
	case MethodUpdate:
		return http.MethodPut, true
	case MethodDelete:
		return http.MethodDelete, true
	}
	return "", false
}

// hasBody reports whether the method carries a serialized payload.
// Read and delete never send one.
func (m Method) hasBody() bool {
	return m == MethodCreate || m == MethodUpdate
}

var (
	ErrBaseURLRequired   = errors.New("client: base url required")
	ErrOperationRequired = errors.New("client: operation required")
	ErrInvalidMethod     = errors.New("client: invalid method")
)

const (
	headerAPIKey    = "X-API-Key"
	headerRequestID = "X-Request-ID"
	sessionCookie   = "mailadmin_session"
	operationParam  = "op"
)

// Config configures a Client.
type Config struct {
	// BaseURL is the fixed backend endpoint all operations route through.
	BaseURL string
	// APIKey, when set, is sent as X-API-Key on every request. Independent
	// of the session token: both may be present.
	APIKey string
	// AttemptTimeout bounds each individual transport attempt. It is a
	// separate input from the retry budget, never derived from it.
	AttemptTimeout time.Duration
	// MaxRetries is the number of retries after the first attempt, so the
	// total attempt ceiling is MaxRetries+1. Zero disables retries.
	MaxRetries int
	Backoff    BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		AttemptTimeout: 10 * time.Second,
		MaxRetries:     3,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     10 * time.Second,
			Jitter:       false,
		},
	}
}

func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = def.AttemptTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff.InitialDelay = def.Backoff.InitialDelay
	}
	if c.Backoff.Multiplier < 1.0 {
		c.Backoff.Multiplier = def.Backoff.Multiplier
	}
	if c.Backoff.MaxDelay <= 0 {
		c.Backoff.MaxDelay = def.Backoff.MaxDelay
	}
	return c
}

// Client executes logical operations against the admin backend. Safe for
// concurrent use; concurrent calls are independent and share only the
// session store.
type Client struct {
	cfg      Config
	base     *url.URL
	http     *http.Client
	sessions session.Store
	log      zerolog.Logger

	// rngMu serializes jitter draws: concurrent Invoke calls may back off
	// at the same time and *rand.Rand is not safe to share unlocked.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// New builds a Client. A nil store gets an in-memory one.
func New(cfg Config, sessions session.Store) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrBaseURLRequired
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if sessions == nil {
		sessions = session.NewMemoryStore()
	}
	cfg = cfg.WithDefaults()
	return &Client{
		cfg:      cfg,
		base:     base,
		http:     &http.Client{Timeout: cfg.AttemptTimeout},
		sessions: sessions,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		log:      log.With().Str("component", "client").Logger(),
	}, nil
}

// Sessions exposes the injected session store.
func (c *Client) Sessions() session.Store {
	return c.sessions
}

// Invoke executes one logical call to completion: success, a fatal
// classification, or an exhausted retry budget. On success it returns the
// envelope's data; a success envelope without data yields an empty JSON
// object rather than an error.
func (c *Client) Invoke(ctx context.Context, method Method, operation string, payload any) (json.RawMessage, error) {
	verb, ok := method.verb()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}
	if strings.TrimSpace(operation) == "" {
		return nil, ErrOperationRequired
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var body []byte
	if method.hasBody() && payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("client: encode payload: %w", err)
		}
		body = b
	}

	start := time.Now()
	rc := newRetryContext(c.cfg.MaxRetries + 1)
	var (
		data    json.RawMessage
		lastErr error
	)
	for {
		switch rc.state {
		case stateAttempting:
			attempt := rc.begin()
			res := c.attempt(ctx, verb, operation, body)
			data, lastErr = res.data, res.err
			if rc.observe(res.class) == stateBackoff {
				observability.RecordRetry(string(method), res.class.String())
				c.log.Warn().
					Str("operation", operation).
					Int("attempt", attempt).
					Str("class", res.class.String()).
					Err(res.err).
					Msg("transient failure, backing off")
			}
		case stateBackoff:
			if err := c.sleepBackoff(ctx, rc.attempt); err != nil {
				observability.RecordRequest(string(method), "canceled", rc.attempt, time.Since(start))
				return nil, err
			}
			rc.resume()
		case stateSucceeded:
			observability.RecordRequest(string(method), "success", rc.attempt, time.Since(start))
			return data, nil
		case stateFailedFatal:
			kind := "fatal"
			var ce *Error
			if errors.As(lastErr, &ce) {
				kind = string(ce.Kind)
			}
			observability.RecordRequest(string(method), kind, rc.attempt, time.Since(start))
			return nil, lastErr
		case stateFailedExhausted:
			observability.RecordRequest(string(method), string(KindRetriesExhausted), rc.attempt, time.Since(start))
			return nil, newError(KindRetriesExhausted, operation, nil, lastErr)
		}
	}
}

type attemptResult struct {
	class outcomeClass
	data  json.RawMessage
	err   error
}

// attempt performs one transport attempt and classifies its outcome.
// Headers are rebuilt here on every attempt so a session cleared between
// attempts is never reused.
func (c *Client) attempt(ctx context.Context, verb, operation string, body []byte) attemptResult {
	req, err := c.buildRequest(ctx, verb, operation, body)
	if err != nil {
		return attemptResult{
			class: classRetryableNetwork,
			err:   newError(KindNetworkFailure, operation, nil, err),
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return attemptResult{
			class: classRetryableNetwork,
			err:   newError(KindNetworkFailure, operation, nil, err),
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		_ = c.sessions.Clear()
		return attemptResult{
			class: classFatalAuth,
			err:   newError(KindUnauthorized, operation, nil, nil),
		}
	case resp.StatusCode == http.StatusForbidden:
		return attemptResult{
			class: classFatalPermission,
			err:   newError(KindForbidden, operation, nil, nil),
		}
	case resp.StatusCode >= 500:
		_, _ = io.Copy(io.Discard, resp.Body)
		return attemptResult{
			class: classRetryableServer,
			err:   fmt.Errorf("client: server failure: status %d", resp.StatusCode),
		}
	case resp.StatusCode >= 300:
		return attemptResult{
			class: classApplication,
			err: newError(KindApplication, operation,
				[]string{fmt.Sprintf("unexpected status %d", resp.StatusCode)}, nil),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return attemptResult{
			class: classRetryableNetwork,
			err:   newError(KindNetworkFailure, operation, nil, err),
		}
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return attemptResult{
			class: classApplication,
			err:   newError(KindApplication, operation, []string{"malformed response envelope"}, err),
		}
	}
	if err := env.Validate(); err != nil {
		return attemptResult{
			class: classApplication,
			err:   newError(KindApplication, operation, []string{"malformed response envelope"}, err),
		}
	}
	if env.Diagnostic != nil {
		c.log.Debug().
			Str("operation", operation).
			Str("diag_component", env.Diagnostic.Component).
			Str("diag_detail", env.Diagnostic.Detail).
			Msg("backend diagnostic")
	}
	if env.Kind == EnvelopeError {
		return attemptResult{
			class: classApplication,
			err:   newError(KindApplication, operation, env.Message, nil),
		}
	}

	data := env.Data
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	return attemptResult{class: classSuccess, data: data}
}

func (c *Client) buildRequest(ctx context.Context, verb, operation string, body []byte) (*http.Request, error) {
	// Copy the parsed base so query params it already carries survive
	// alongside the operation param.
	target := *c.base
	q := target.Query()
	q.Set(operationParam, operation)
	target.RawQuery = q.Encode()
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, verb, target.String(), rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerRequestID, uuid.NewString())
	if c.cfg.APIKey != "" {
		req.Header.Set(headerAPIKey, c.cfg.APIKey)
	}
	if token, ok := c.sessions.Get(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	}
	return req, nil
}

func (c *Client) sleepBackoff(ctx context.Context, attempt int) error {
	c.rngMu.Lock()
	delay := NextBackoffDelay(c.cfg.Backoff, attempt, c.rng)
	c.rngMu.Unlock()
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
