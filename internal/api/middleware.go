package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/access"
)

// SessionCookieName is the cookie carrying the session credential.
const SessionCookieName = "dash_session"

// sessionCookieMaxAge matches the default session TTL.
const sessionCookieMaxAge = 24 * time.Hour

// AccessMiddleware runs the access decision engine on every request and
// composes the outcome into the response. It is the only place the engine's
// decisions touch HTTP.
type AccessMiddleware struct {
	engine *access.Engine
	logger *slog.Logger
}

// NewAccessMiddleware creates the access-enforcement middleware.
func NewAccessMiddleware(engine *access.Engine, logger *slog.Logger) *AccessMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccessMiddleware{engine: engine, logger: logger}
}

// Wrap wraps an HTTP handler with access enforcement. The flow:
//
//  1. Read the session cookie.
//  2. Ask the engine for a decision.
//  3. Write the rotated session cookie if resolution produced one. This
//     happens before the outcome branch so redirects and denials carry the
//     refresh too; skipping it there logs the user out mid-redirect.
//  4. Act on the decision: pass through with the identity in context,
//     redirect, or deny.
func (m *AccessMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := ""
		if c, err := r.Cookie(SessionCookieName); err == nil {
			credential = c.Value
		}

		d := m.engine.Authorize(r.Context(), r.URL.Path, credential)

		if d.RefreshedCredential != "" {
			SetSessionCookie(w, d.RefreshedCredential)
		}

		switch d.Kind {
		case access.DecisionAllow:
			ctx := r.Context()
			if d.Identity != nil {
				ctx = ContextWithIdentity(ctx, d.Identity)
			}
			next.ServeHTTP(w, r.WithContext(ctx))

		case access.DecisionRedirect:
			http.Redirect(w, r, d.Location, http.StatusFound)

		case access.DecisionForbid:
			writeAccessError(w, access.ErrForbidden("access denied"))

		default:
			// Unknown decision kinds fail closed.
			m.logger.Error("unknown decision kind", "kind", string(d.Kind))
			http.Redirect(w, r, access.PathLogin, http.StatusFound)
		}
	})
}

// SetSessionCookie writes the session credential cookie.
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// LoggingMiddleware logs each request with its status and duration.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote", r.RemoteAddr,
			)
		})
	}
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
