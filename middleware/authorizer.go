package middleware

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// TokenHeader carries the signed session token on authorizer responses.
const TokenHeader = "Token"

// Authorizer answers 200 with a freshly signed token in [TokenHeader] when
// the request carries any valid credential. An edge proxy calls it before
// forwarding requests to services that only understand signed tokens, so a
// legacy cookie is exchanged for a token here.
func Authorizer(engine *goSession.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := authenticate(r, engine, goSession.ModeInherit)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		token, err := engine.EncodeToken(sess)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		w.Header().Set(TokenHeader, token)
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
	})
}
