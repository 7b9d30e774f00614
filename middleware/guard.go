package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/session"
)

type sessionContextKey struct{}

// SessionFromContext returns the session a guard validated for this request.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return sess, ok && sess != nil
}

// WithSession attaches sess to ctx the way a guard does.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// Guard rejects requests without a valid session credential. routeMode is
// passed to Engine.Validate for token credentials; the legacy cookie is
// always confirmed against the legacy store.
func Guard(engine *goSession.Engine, routeMode goSession.RouteMode) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := authenticate(r, engine, routeMode)
			if err != nil {
				writeAuthError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// RequireStateless is Guard with [goSession.ModeStateless].
func RequireStateless(engine *goSession.Engine) func(http.Handler) http.Handler {
	return Guard(engine, goSession.ModeStateless)
}

// RequireStateful is Guard with [goSession.ModeStateful].
func RequireStateful(engine *goSession.Engine) func(http.Handler) http.Handler {
	return Guard(engine, goSession.ModeStateful)
}

var errNoCredential = errors.New("no session credential")

func authenticate(r *http.Request, engine *goSession.Engine, routeMode goSession.RouteMode) (*session.Session, error) {
	if engine == nil {
		return nil, goSession.ErrEngineNotReady
	}
	cfg := engine.Config()

	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return engine.Validate(r.Context(), token, routeMode)
	}
	if c, err := r.Cookie(cfg.Cookie.SessionName); err == nil && c.Value != "" {
		return engine.Validate(r.Context(), c.Value, routeMode)
	}
	if cfg.Cookie.ClassicName != "" {
		if c, err := r.Cookie(cfg.Cookie.ClassicName); err == nil && c.Value != "" {
			return engine.ValidateCookie(r.Context(), c.Value)
		}
	}
	return nil, errNoCredential
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, goSession.ErrStoreUnavailable):
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	case errors.Is(err, goSession.ErrPermissionDenied):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
