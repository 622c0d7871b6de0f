package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/fileshare/internal/server/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// identity extracts the bearer token when one is supplied and stores the
// verified claims in the request context. Requests without a token pass
// through anonymously; a token that fails verification is rejected.
func (s *Server) identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, "unsupported authorization scheme")
			return
		}

		claims, err := auth.ParseToken(token, s.jwtSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAuth rejects requests that carry no verified identity.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if claimsFrom(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}
		next(w, r)
	}
}

// limitTransfers caps the number of concurrent upload/download streams.
// When every slot is taken the request is refused rather than queued.
func (s *Server) limitTransfers(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case s.transfers <- struct{}{}:
			defer func() { <-s.transfers }()
			next(w, r)
		default:
			writeError(w, http.StatusServiceUnavailable, "too many concurrent transfers")
		}
	}
}

func claimsFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}
