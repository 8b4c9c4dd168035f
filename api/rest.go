package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"altimpact.dev/item"
	"altimpact.dev/store"
)

// userContextKey is the echo.Context key an authenticated caller's User is
// stashed under by OptionalAPIKeyAuth.
const userContextKey = "altimpact_user"

// OptionalAPIKeyAuth looks for an "X-API-Key" header on every request. When
// present, it resolves (or lazily mints) the corresponding User record and
// attaches it to the request context for owner attribution; a missing or
// unknown key never blocks the request, since this codebase treats
// authentication as a non-goal and only uses the key for display purposes.
func OptionalAPIKeyAuth(st store.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get("X-API-Key")
			if key == "" {
				return next(c)
			}

			ctx := c.Request().Context()
			u, err := st.GetUser(ctx, key)
			if err != nil {
				u = item.NewUser(key)
				if saveErr := st.SaveUser(ctx, u); saveErr != nil {
					// Attribution is best-effort; fall through unauthenticated
					// rather than failing the caller's actual request.
					return next(c)
				}
			}
			c.Set(userContextKey, u)
			return next(c)
		}
	}
}

// UserFromContext returns the caller's User, if OptionalAPIKeyAuth resolved
// one for this request.
func UserFromContext(c echo.Context) (*item.User, bool) {
	u, ok := c.Get(userContextKey).(*item.User)
	return u, ok
}

// RequireAPIKey rejects any request with no resolved User, for routes that
// do want to enforce the header's presence rather than merely record it.
func RequireAPIKey() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := UserFromContext(c); !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or unknown X-API-Key")
			}
			return next(c)
		}
	}
}
