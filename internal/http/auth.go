package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/govind-sing/farmBridge-backend/internal/domain"
)

type ctxKey int

const principalKey ctxKey = iota

// tokenClaims matches the payload issued at login: {"user": {"id", "role"}}.
type tokenClaims struct {
	User *struct {
		ID   string      `json:"id"`
		Role domain.Role `json:"role"`
	} `json:"user"`
	jwt.RegisteredClaims
}

// AuthMiddleware verifies the HS256 bearer token and stores the caller's
// principal in the request context.
func AuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	keyFunc := func(*jwt.Token) (interface{}, error) { return secret, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				respondError(w, http.StatusUnauthorized, codeUnauthorized, "No Authorization header, authorization denied")
				return
			}
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				respondError(w, http.StatusUnauthorized, codeUnauthorized, "Invalid token format, authorization denied")
				return
			}

			var claims tokenClaims
			_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &claims, keyFunc,
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil {
				respondError(w, http.StatusUnauthorized, codeUnauthorized, "Token is not valid")
				return
			}
			if claims.User == nil || claims.User.ID == "" {
				respondError(w, http.StatusUnauthorized, codeUnauthorized, "Invalid token payload, authorization denied")
				return
			}

			p := domain.Principal{ID: claims.User.ID, Role: claims.User.Role}
			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
		})
	}
}

func withPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func principalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(domain.Principal)
	return p, ok && p.ID != ""
}
