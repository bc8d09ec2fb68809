package devserver

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/adminui/sysdash/internal/client"
	"github.com/adminui/sysdash/internal/config"
)

// Permissions checked by the routes.
const (
	PermReadStatus     = "read:status"
	PermReadLogs       = "read:logs"
	PermReadProcesses  = "read:processes"
	PermRestartService = "execute:service_restart"
)

const userContextKey = "devserver.user"

// principal is a signed-in demo user.
type principal struct {
	ID   int
	User config.DemoUser
}

func (p principal) can(perm string) bool {
	for _, have := range p.User.Permissions {
		if have == perm {
			return true
		}
	}
	return false
}

// tokenStore maps opaque bearer tokens to users. Tokens live until logout or
// restart.
type tokenStore struct {
	mu     sync.RWMutex
	tokens map[string]principal
}

func newTokenStore() *tokenStore {
	return &tokenStore{tokens: make(map[string]principal)}
}

func (t *tokenStore) issue(p principal) string {
	token := uuid.NewString()
	t.mu.Lock()
	t.tokens[token] = p
	t.mu.Unlock()
	return token
}

func (t *tokenStore) lookup(token string) (principal, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.tokens[token]
	return p, ok
}

func (t *tokenStore) revoke(token string) {
	t.mu.Lock()
	delete(t.tokens, token)
	t.mu.Unlock()
}

func (s *Server) authenticate(email, password string) (principal, bool) {
	for i, u := range s.cfg.Users {
		if strings.EqualFold(u.Email, email) &&
			subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) == 1 {
			return principal{ID: i + 1, User: u}, true
		}
	}
	return principal{}, false
}

func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}

// requireAuth rejects requests without a live token with 401.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := s.tokens.lookup(bearerToken(c))
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
		}
		c.Set(userContextKey, p)
		return next(c)
	}
}

// requirePermission rejects users lacking perm with 403.
func (s *Server) requirePermission(perm string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := currentUser(c)
			if !p.can(perm) {
				s.audit(p, "permission_check", c.Path(), "denied", zap.String("permission", perm))
				return echo.NewHTTPError(http.StatusForbidden, "Permission denied: "+perm+" required")
			}
			return next(c)
		}
	}
}

func currentUser(c echo.Context) principal {
	p, _ := c.Get(userContextKey).(principal)
	return p
}

func (s *Server) handleLogin(c echo.Context) error {
	var req client.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Invalid login request")
	}
	p, ok := s.authenticate(req.Email, req.Password)
	if !ok {
		s.logger.Info("login rejected", zap.String("email", req.Email))
		return echo.NewHTTPError(http.StatusUnauthorized, "Incorrect email or password")
	}

	token := s.tokens.issue(p)
	s.audit(p, "login", "auth", "success")
	return c.JSON(http.StatusOK, client.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      p.ID,
		Username:    p.User.Username,
		Role:        p.User.Role,
	})
}

func (s *Server) handleLogout(c echo.Context) error {
	s.tokens.revoke(bearerToken(c))
	s.audit(currentUser(c), "logout", "auth", "success")
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) handleMe(c echo.Context) error {
	p := currentUser(c)
	return c.JSON(http.StatusOK, client.User{
		UserID:      p.ID,
		Username:    p.User.Username,
		Email:       p.User.Email,
		Role:        p.User.Role,
		Permissions: p.User.Permissions,
	})
}

// audit records an operation outcome on the "audit" logger.
func (s *Server) audit(p principal, op, target, status string, fields ...zap.Field) {
	s.logger.Named("audit").Info(op, append([]zap.Field{
		zap.Int("user_id", p.ID),
		zap.String("username", p.User.Username),
		zap.String("target", target),
		zap.String("status", status),
	}, fields...)...)
}
