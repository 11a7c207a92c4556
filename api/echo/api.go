//nolint:varnamelen
package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	authcore "github.com/vetrina-app/authcore"
	serrors "github.com/vetrina-app/authcore/errors"
)

// AuthAPI exposes the login surface: one-time code request/verify for
// everyone, password login for administrators, and session introspection.
type AuthAPI struct {
	logins *authcore.LoginService
	guard  *authcore.Guard
}

// NewAuthAPI initializes the auth API.
func NewAuthAPI(logins *authcore.LoginService, guard *authcore.Guard) *AuthAPI {
	return &AuthAPI{
		logins: logins,
		guard:  guard,
	}
}

// RegisterRoutes registers the auth routes.
func (a *AuthAPI) RegisterRoutes(e *echo.Echo) {
	e.POST("/auth/otp/request", a.RequestCodeHandler)
	e.POST("/auth/otp/verify", a.VerifyCodeHandler)
	e.POST("/auth/login", a.PasswordLoginHandler)
	e.GET("/auth/me", a.MeHandler)
	e.GET("/healthz", a.HealthHandler)
}

type requestCodeRequest struct {
	Email string `json:"email"`
}

// RequestCodeHandler issues a one-time login code for the given address.
// The response is the same whether or not an account exists.
func (a *AuthAPI) RequestCodeHandler(c echo.Context) error {
	var req requestCodeRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request", "error_description": "email is required"})
	}

	if err := a.logins.RequestCode(c.Request().Context(), req.Email); err != nil {
		log.Error().Err(err).Msg("Code request failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server_error"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"status": "code_sent"})
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type sessionResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
}

// VerifyCodeHandler exchanges a one-time code for a session. The three
// failure modes keep distinct status codes and error strings because the
// corrective action differs: a missing or expired code means "request a new
// one", a mismatch means "check the code and retry".
func (a *AuthAPI) VerifyCodeHandler(c echo.Context) error {
	var req verifyCodeRequest
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request", "error_description": "email and code are required"})
	}

	result, err := a.logins.VerifyCode(c.Request().Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, authcore.ErrCodeNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "code_not_found"})
		case errors.Is(err, authcore.ErrCodeExpired):
			return c.JSON(http.StatusGone, echo.Map{"error": "code_expired"})
		case errors.Is(err, authcore.ErrCodeMismatch):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "code_mismatch"})
		case errors.Is(err, authcore.ErrAccountLocked):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "account_locked"})
		}
		log.Error().Err(err).Msg("Code verification failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server_error"})
	}

	return c.JSON(http.StatusOK, sessionResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.Unix(),
		UserID:    result.User.ID,
		Role:      result.User.Role.String(),
	})
}

type passwordLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordLoginHandler authenticates with email and password (ops path for
// administrator accounts).
func (a *AuthAPI) PasswordLoginHandler(c echo.Context) error {
	var req passwordLoginRequest
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request", "error_description": "email and password are required"})
	}

	result, err := a.logins.PasswordLogin(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, authcore.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_credentials"})
		case errors.Is(err, authcore.ErrAccountLocked):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "account_locked"})
		}
		log.Error().Err(err).Msg("Password login failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server_error"})
	}

	return c.JSON(http.StatusOK, sessionResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.Unix(),
		UserID:    result.User.ID,
		Role:      result.User.Role.String(),
	})
}

// MeHandler returns the authenticated identity.
func (a *AuthAPI) MeHandler(c echo.Context) error {
	identity, err := a.guard.RequireAuthenticated(c.Request().Context())
	if err != nil {
		return writeGuardError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":                  identity.ID,
		"email":               identity.Email,
		"role":                identity.Role.String(),
		"provider_profile_id": identity.ProviderProfileID,
	})
}

// HealthHandler reports liveness.
func (a *AuthAPI) HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// writeGuardError maps guard failures to transport status codes:
// unauthenticated 401, forbidden 403 (with the required roles), missing
// provider profile 409.
func writeGuardError(c echo.Context, err error) error {
	var authErr *serrors.AuthError
	if !errors.As(err, &authErr) {
		log.Error().Err(err).Msg("Unclassified guard failure")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server_error"})
	}

	switch authErr.Code {
	case serrors.Unauthenticated:
		return c.JSON(http.StatusUnauthorized, authErr)
	case serrors.Forbidden:
		return c.JSON(http.StatusForbidden, authErr)
	case serrors.ProfileNotFound:
		return c.JSON(http.StatusConflict, authErr)
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server_error"})
	}
}
