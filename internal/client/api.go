package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Login exchanges credentials for a token and stores it in the session.
func (d *Dispatcher) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	if err := d.Do(ctx, http.MethodPost, "/api/auth/login", LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		d.logger.Warn("login response carried no access token")
		return nil, &RequestError{Method: http.MethodPost, Endpoint: "/api/auth/login", Status: http.StatusOK,
			Message: "login response carried no access token"}
	}
	d.session.SetToken(out.AccessToken)
	d.logger.Info("logged in", zap.String("username", out.Username), zap.String("role", out.Role))
	return &out, nil
}

// Logout tells the backend to drop the session, then clears the local token
// whatever the outcome.
func (d *Dispatcher) Logout(ctx context.Context) error {
	err := d.Do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	d.session.ClearToken()
	if err != nil && !errors.Is(err, ErrUnauthorized) {
		d.logger.Warn("logout not acknowledged by backend", zap.Error(err))
		return err
	}
	return nil
}

// CurrentUser fetches /api/auth/me.
func (d *Dispatcher) CurrentUser(ctx context.Context) (*User, error) {
	var u User
	if err := d.Do(ctx, http.MethodGet, "/api/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SystemStatus fetches /api/system/status.
func (d *Dispatcher) SystemStatus(ctx context.Context) (*SystemStatus, error) {
	var s SystemStatus
	if err := d.Do(ctx, http.MethodGet, "/api/system/status", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// RestartService asks the backend to restart an allow-listed service.
func (d *Dispatcher) RestartService(ctx context.Context, name string) (*RestartResult, error) {
	var out RestartResult
	if err := d.Do(ctx, http.MethodPost, "/api/services/restart", RestartRequest{ServiceName: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ServiceLogs fetches the last lines of a service's log.
func (d *Dispatcher) ServiceLogs(ctx context.Context, service string, lines int) (*LogsResponse, error) {
	endpoint := "/api/logs/" + url.PathEscape(service) + "?lines=" + strconv.Itoa(lines)
	var out LogsResponse
	if err := d.Do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProcesses fetches a filtered process snapshot.
func (d *Dispatcher) ListProcesses(ctx context.Context, q ProcessQuery) (*ProcessSnapshot, error) {
	var out ProcessSnapshot
	if err := d.Do(ctx, http.MethodGet, "/api/processes?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	out.FetchedAt = time.Now()
	return &out, nil
}
