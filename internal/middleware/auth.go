package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
	"github.com/deppfellow/obsrecords/internal/errs"
	"github.com/deppfellow/obsrecords/internal/server"
	"github.com/labstack/echo/v4"
)

// AuthMiddleware authenticates staff requests against Clerk. The Clerk
// secret key is installed globally by server.New, so the middleware only
// needs the server for logging.
type AuthMiddleware struct {
	server *server.Server
}

// NewAuthMiddleware returns an AuthMiddleware logging through s.Logger.
func NewAuthMiddleware(s *server.Server) *AuthMiddleware {
	return &AuthMiddleware{
		server: s,
	}
}

// RequireAuth verifies the Clerk bearer token on the Authorization header.
//
// Behavior:
//   - A missing or invalid token is answered by reject with a 401 before
//     the handler runs.
//   - A valid token stores the subject under UserIDKey and the active
//     organization role under UserRoleKey. The organization permissions
//     go under "permissions".
//   - Claims missing from a request Clerk accepted are also a 401.
//
// The route-level placement means EnhanceContext has already run, so the
// request logger does not carry user_id. The "API" log line and the New
// Relic attributes read it after the handler returns.
func (auth *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return echo.WrapMiddleware(
		clerkhttp.WithHeaderAuthorization(
			clerkhttp.AuthorizationFailureHandler(http.HandlerFunc(auth.reject))))(
		func(c echo.Context) error {
			start := time.Now()

			claims, ok := clerk.SessionClaimsFromContext(c.Request().Context())
			if !ok {
				auth.server.Logger.Error().
					Str("function", "RequireAuth").
					Str("request_id", GetRequestID(c)).
					Dur("duration", time.Since(start)).
					Msg("could not get session claims from context")

				return errs.NewUnauthorizedError("Unauthorized", false)
			}

			c.Set(UserIDKey, claims.Subject)
			c.Set(UserRoleKey, claims.ActiveOrganizationRole)
			c.Set("permissions", claims.Claims.ActiveOrganizationPermissions)

			auth.server.Logger.Info().
				Str("function", "RequireAuth").
				Str("user_id", claims.Subject).
				Str("request_id", GetRequestID(c)).
				Dur("duration", time.Since(start)).
				Msg("user authenticated successfully")

			return next(c)
		})
}

// reject writes the same JSON shape the global error handler produces.
// Clerk calls it outside the Echo chain, so it cannot return an error.
func (auth *AuthMiddleware) reject(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	if err := json.NewEncoder(w).Encode(errs.NewUnauthorizedError("Unauthorized", false)); err != nil {
		auth.server.Logger.Error().
			Err(err).
			Str("function", "RequireAuth").
			Msg("failed to write JSON response")
		return
	}

	auth.server.Logger.Warn().
		Str("function", "RequireAuth").
		Str("path", r.URL.Path).
		Msg("rejected request without a valid session token")
}
