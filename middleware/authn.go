package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	authcore "github.com/vetrina-app/authcore"
	"github.com/vetrina-app/authcore/domain"
)

// SessionAuth resolves the bearer session token into an Identity and puts
// it on the request context. Absence of a token, a malformed header, or a
// failed validation all produce an anonymous request, never an error: the
// guard decides later whether anonymity is acceptable for the operation.
func SessionAuth(sessions *authcore.SessionService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return next(c)
			}

			identity, err := sessions.ValidateSession(parts[1])
			if err != nil {
				// Expired and invalid tokens are treated identically to "no
				// identity"; the defect is logged, not surfaced.
				log.Debug().Err(err).Msg("Session token rejected")
				return next(c)
			}

			ctx := domain.ContextWithIdentity(c.Request().Context(), identity)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
