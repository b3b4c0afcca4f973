// internal/app/system/session/session.go
package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const workbenchIDKey = "workbench_id"

// DefaultName is the cookie name used when none is configured.
const DefaultName = "stratasim-session"

// ConfigError is returned when session configuration is invalid.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// Manager binds each browser to a workbench id kept in a signed cookie.
type Manager struct {
	store  *sessions.CookieStore
	logger *zap.Logger
	name   string
}

// NewManager creates a Manager.
//
// In secure (production) mode a short or placeholder key is an error; in
// dev mode it is logged and allowed.
func NewManager(key, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*Manager, error) {
	if key == "" {
		return nil, &ConfigError{Message: "session key is empty; provide ≥32 random chars"}
	}

	weak := len(key) < 32 || isDefaultKey(key)
	if secure && weak {
		return nil, &ConfigError{
			Message: "session key is too weak for production; provide ≥32 random chars (not the default dev key)",
		}
	}
	if weak {
		logger.Warn("session key is weak; 32+ random chars required in production",
			zap.Int("length", len(key)),
			zap.Bool("is_default", isDefaultKey(key)))
	}

	if name == "" {
		name = DefaultName
	}

	store := sessions.NewCookieStore([]byte(key))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	logger.Info("session manager initialized",
		zap.Bool("secure", secure),
		zap.String("name", name),
		zap.String("domain", domain))

	return &Manager{store: store, logger: logger, name: name}, nil
}

// Name returns the cookie name.
func (m *Manager) Name() string {
	return m.name
}

type ctxKey string

const currentWorkbenchKey ctxKey = "workbenchID"

// WorkbenchID returns the workbench id attached by Middleware, or "".
func WorkbenchID(r *http.Request) string {
	id, _ := r.Context().Value(currentWorkbenchKey).(string)
	return id
}

// WithWorkbenchID attaches id to the request context. Tests use it to skip
// the cookie round trip.
func WithWorkbenchID(r *http.Request, id string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentWorkbenchKey, id))
}

// Middleware ensures every request carries a workbench id. A browser
// without a valid cookie gets a new id and a fresh cookie.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.store.Get(r, m.name)
		if err != nil {
			m.logSessionError(r, err)
		}

		id, _ := sess.Values[workbenchIDKey].(string)
		if _, perr := uuid.Parse(id); perr != nil {
			id = uuid.NewString()
			sess.Values[workbenchIDKey] = id
			if err := sess.Save(r, w); err != nil {
				m.logger.Error("failed to save session cookie",
					zap.Error(err),
					zap.String("path", r.URL.Path))
			}
		}

		next.ServeHTTP(w, WithWorkbenchID(r, id))
	})
}

func (m *Manager) logSessionError(r *http.Request, err error) {
	switch classify(err) {
	case "expired":
		m.logger.Debug("session expired, starting fresh session",
			zap.String("path", r.URL.Path))
	case "mac_invalid":
		m.logger.Warn("session MAC validation failed (possible tampering)",
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("user_agent", r.UserAgent()))
	case "backend":
		m.logger.Error("session store error, starting fresh session",
			zap.Error(err),
			zap.String("path", r.URL.Path))
	default:
		m.logger.Info("session decode failed, starting fresh session",
			zap.Error(err),
			zap.String("path", r.URL.Path))
	}
}

// classify buckets a cookie decode error for logging.
func classify(err error) string {
	var scErr securecookie.Error
	if !errors.As(err, &scErr) {
		return "backend"
	}
	if !scErr.IsDecode() {
		return "backend"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "expired timestamp"):
		return "expired"
	case strings.Contains(msg, "mac") || strings.Contains(msg, "hash"):
		return "mac_invalid"
	default:
		return "decode_failed"
	}
}

// isDefaultKey checks if the key looks like a placeholder.
func isDefaultKey(key string) bool {
	lower := strings.ToLower(key)
	for _, p := range []string{"dev-only", "change-me", "placeholder", "default", "example", "insecure", "test-key", "secret123", "password"} {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
