package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const cartCookieName = "pp_cart"

// CartToken resolves the session's cart token cookie, minting one on first
// contact. Every cart and checkout handler downstream reads the token from
// the request context.
func CartToken(ttl time.Duration, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if cookie, err := r.Cookie(cartCookieName); err == nil {
				if _, parseErr := uuid.Parse(cookie.Value); parseErr == nil {
					token = cookie.Value
				}
			}
			if token == "" {
				token = uuid.NewString()
			}

			// Refresh the cookie on every hit so active sessions outlive
			// the cart TTL.
			http.SetCookie(w, &http.Cookie{
				Name:     cartCookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := WithCartToken(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
