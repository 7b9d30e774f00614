package middleware

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/permission"
)

// RequireScope answers 403 unless the request session was granted scope.
// It must run after a guard.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok {
				writeAuthError(w, errNoCredential)
				return
			}
			if !sess.Authorization.HasScope(scope) {
				writeAuthError(w, goSession.ErrPermissionDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireEndorsement answers 403 unless the request session is endorsed
// for archive/subject.
func RequireEndorsement(archive, subject string) func(http.Handler) http.Handler {
	category := permission.Category{Archive: archive, Subject: subject}
	return RequireEndorsementFunc(func(*http.Request) (permission.Category, bool) {
		return category, true
	})
}

// RequireEndorsementFunc is RequireEndorsement with the category taken from
// the request, typically a route parameter. A false ok answers 403.
func RequireEndorsementFunc(category func(*http.Request) (permission.Category, bool)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok {
				writeAuthError(w, errNoCredential)
				return
			}
			c, ok := category(r)
			if !ok || !sess.Authorization.EndorsedFor(c.Archive, c.Subject) {
				writeAuthError(w, goSession.ErrPermissionDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
