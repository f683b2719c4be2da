package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"skinchanger-api/internal/model"
	"skinchanger-api/internal/repository"
	"skinchanger-api/internal/service"
	"skinchanger-api/pkg/apierror"
)

// ClaimsKey is the key for storing verified token claims in request context.
const ClaimsKey contextKey = "claims"

// AuthConfig holds dependencies for the auth middleware.
type AuthConfig struct {
	AuthService *service.AuthService
	Accounts    repository.AccountRepository
}

// NewAuthMiddleware creates the session gate. It verifies the bearer token
// and places the claims in the request context. API tokens also pass the
// gate (the desktop client polls with them); each use stamps last-used.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, apierror.Unauthorized("Access token required"))
				return
			}

			claims, err := cfg.AuthService.VerifySession(token)
			if err != nil {
				writeError(w, apierror.InvalidToken())
				return
			}

			if claims.TokenType == model.TokenTypeAPI {
				cfg.AuthService.TouchAPIToken(r.Context(), token)
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewAdminMiddleware creates the role gate, layered behind the session
// gate. The role is re-read from the store on every call - a demoted
// administrator loses access on their next request, even with an unexpired
// token. Role information inside the claims is never trusted.
func NewAdminMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaimsFromContext(r.Context())
			if claims == nil {
				writeError(w, apierror.Unauthorized("Access token required"))
				return
			}

			account, err := cfg.Accounts.GetByID(r.Context(), claims.AccountID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					writeError(w, apierror.Forbidden("Admin access required"))
					return
				}
				writeError(w, apierror.InternalError(""))
				return
			}

			if !account.IsAdmin {
				writeError(w, apierror.Forbidden("Admin access required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}

// GetClaimsFromContext retrieves verified claims from request context.
func GetClaimsFromContext(ctx context.Context) *model.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*model.Claims); ok {
		return claims
	}
	return nil
}
