package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/artcart-backend/api/responses"
	pkgerrors "github.com/angelmondragon/artcart-backend/pkg/errors"
	"github.com/angelmondragon/artcart-backend/pkg/logger"
)

const (
	CartSessionHeader = "X-Cart-Session"
	CartSessionCookie = "cart_session"

	maxCartSessionLen = 128
)

// CartSession resolves the shopper's cart session from the X-Cart-Session
// header or the cart_session cookie, minting a new one when neither is set.
// The id is echoed back in both places so header-only clients can persist it.
func CartSession(ttl time.Duration, secure bool, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := strings.TrimSpace(r.Header.Get(CartSessionHeader))
			if sessionID == "" {
				if cookie, err := r.Cookie(CartSessionCookie); err == nil {
					sessionID = strings.TrimSpace(cookie.Value)
				}
			}
			if sessionID != "" && !validToken(sessionID, maxCartSessionLen) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid cart session"))
				return
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			w.Header().Set(CartSessionHeader, sessionID)
			http.SetCookie(w, &http.Cookie{
				Name:     CartSessionCookie,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := WithCartSession(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validToken accepts non-empty ids of at most max URL-safe characters.
func validToken(value string, max int) bool {
	if value == "" || len(value) > max {
		return false
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
