package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adminui/sysdash/internal/metrics"
)

const defaultTimeout = 10 * time.Second

// TokenStore is the part of the session store the dispatcher needs.
type TokenStore interface {
	Token() string
	SetToken(token string)
	ClearToken()
	ClearTokenIf(token string) bool
}

// Dispatcher makes authenticated REST calls to the dashboard backend.
type Dispatcher struct {
	baseURL        string
	session        TokenStore
	client         *http.Client
	logger         *zap.Logger
	metrics        *metrics.ClientMetrics
	onUnauthorized func()
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) { d.client = c }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(t time.Duration) Option {
	return func(d *Dispatcher) { d.client.Timeout = t }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithMetrics records every request on m.
func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithUnauthorizedHandler registers fn to run after a 401 has cleared the
// session. The TUI uses it to switch back to the login screen.
func WithUnauthorizedHandler(fn func()) Option {
	return func(d *Dispatcher) { d.onUnauthorized = fn }
}

// New creates a dispatcher targeting baseURL (e.g. "http://localhost:3000").
func New(baseURL string, session TokenStore, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// BaseURL returns the configured API root.
func (d *Dispatcher) BaseURL() string {
	return d.baseURL
}

// Do sends one request and decodes a 2xx JSON response into out (which may be
// nil). body is only serialized for POST and PUT. A 401 clears the session and
// returns ErrUnauthorized, unless the token it rejected was already replaced,
// in which case it is a plain *RequestError. Requests are never retried.
func (d *Dispatcher) Do(ctx context.Context, method, endpoint string, body, out any) error {
	start := time.Now()
	route := routeLabel(endpoint)
	requestID := uuid.NewString()
	log := d.logger.With(
		zap.String("method", method),
		zap.String("route", route),
		zap.String("request_id", requestID),
	)

	var reader io.Reader
	if body != nil && (method == http.MethodPost || method == http.MethodPut) {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", method, endpoint, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+endpoint, reader)
	if err != nil {
		return &RequestError{Method: method, Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	sent := d.session.Token()
	if sent != "" {
		req.Header.Set("Authorization", "Bearer "+sent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		d.metrics.ObserveRequest(method, route, metrics.OutcomeTransport, time.Since(start))
		log.Warn("request failed", zap.Error(err))
		return &RequestError{Method: method, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		d.metrics.ObserveRequest(method, route, metrics.OutcomeUnauthorized, time.Since(start))
		if !d.session.ClearTokenIf(sent) {
			log.Info("rejected token was already replaced; keeping current session")
			return &RequestError{Method: method, Endpoint: endpoint, Status: resp.StatusCode,
				Message: "credential replaced while the request was in flight"}
		}
		log.Warn("session rejected by backend")
		if d.onUnauthorized != nil {
			d.onUnauthorized()
		}
		return ErrUnauthorized

	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		msg := errorMessage(resp.StatusCode, data)
		d.metrics.ObserveRequest(method, route, metrics.OutcomeHTTPError, time.Since(start))
		log.Warn("request rejected", zap.Int("status", resp.StatusCode), zap.String("message", msg))
		return &RequestError{Method: method, Endpoint: endpoint, Status: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			d.metrics.ObserveRequest(method, route, metrics.OutcomeDecode, time.Since(start))
			log.Warn("decoding response", zap.Error(err))
			return &RequestError{Method: method, Endpoint: endpoint, Status: resp.StatusCode,
				Message: "invalid response from server", Err: err}
		}
	}

	d.metrics.ObserveRequest(method, route, metrics.OutcomeOK, time.Since(start))
	log.Debug("request ok", zap.Int("status", resp.StatusCode), zap.Duration("took", time.Since(start)))
	return nil
}

// routeLabel strips the query string and collapses path parameters so metric
// label cardinality stays bounded.
func routeLabel(endpoint string) string {
	path, _, _ := strings.Cut(endpoint, "?")
	if strings.HasPrefix(path, "/api/logs/") {
		return "/api/logs/:service"
	}
	return path
}
