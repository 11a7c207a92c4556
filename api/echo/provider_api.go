package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	authcore "github.com/vetrina-app/authcore"
	"github.com/vetrina-app/authcore/domain"
)

// ProviderAPI exposes seller onboarding and the admin moderation queue.
type ProviderAPI struct {
	applications *authcore.ApplicationService
	profiles     domain.ProviderProfileRepository
	guard        *authcore.Guard
}

// NewProviderAPI initializes the provider API.
func NewProviderAPI(
	applications *authcore.ApplicationService,
	profiles domain.ProviderProfileRepository,
	guard *authcore.Guard,
) *ProviderAPI {
	return &ProviderAPI{
		applications: applications,
		profiles:     profiles,
		guard:        guard,
	}
}

// RegisterRoutes registers the provider and admin routes.
func (p *ProviderAPI) RegisterRoutes(e *echo.Echo) {
	e.POST("/provider/applications", p.ApplyHandler)
	e.GET("/provider/storefront", p.StorefrontHandler)

	e.GET("/admin/applications", p.ListApplicationsHandler)
	e.POST("/admin/applications/:id/approve", p.ApproveHandler)
	e.POST("/admin/applications/:id/reject", p.RejectHandler)
}

type applyRequest struct {
	ShopName string `json:"shop_name"`
	Bio      string `json:"bio,omitempty"`
}

// ApplyHandler submits a storefront application for the authenticated
// account.
func (p *ProviderAPI) ApplyHandler(c echo.Context) error {
	identity, err := p.guard.RequireAuthenticated(c.Request().Context())
	if err != nil {
		return writeGuardError(c, err)
	}

	var req applyRequest
	if err := c.Bind(&req); err != nil || req.ShopName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request", "error_description": "shop_name is required"})
	}

	app, err := p.applications.Apply(c.Request().Context(), identity, req.ShopName, req.Bio)
	if err != nil {
		if errors.Is(err, authcore.ErrDuplicateApplication) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "application_pending"})
		}
		log.Error().Err(err).Msg("Seller application failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server_error"})
	}
	return c.JSON(http.StatusCreated, app)
}

// StorefrontHandler returns the caller's storefront profile. Requires
// provider context: providers mid-onboarding get a distinct conflict
// response rather than a generic forbidden.
func (p *ProviderAPI) StorefrontHandler(c echo.Context) error {
	identity, err := p.guard.RequireProviderContext(c.Request().Context())
	if err != nil {
		return writeGuardError(c, err)
	}

	profile, err := p.profiles.GetProfileByUserID(c.Request().Context(), identity.ID)
	if err != nil {
		if identity.Role == domain.RoleAdministrator {
			// Admins pass the provider-context check without owning a
			// storefront of their own.
			return c.JSON(http.StatusNotFound, echo.Map{"error": "storefront_not_found"})
		}
		log.Error().Err(err).Str("userID", identity.ID).Msg("Storefront lookup failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server_error"})
	}
	return c.JSON(http.StatusOK, profile)
}

// ListApplicationsHandler returns the pending moderation queue.
func (p *ProviderAPI) ListApplicationsHandler(c echo.Context) error {
	_, err := p.guard.RequireAdministrator(c.Request().Context())
	if err != nil {
		return writeGuardError(c, err)
	}

	apps, err := p.applications.ListPending(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list applications")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server_error"})
	}
	return c.JSON(http.StatusOK, apps)
}

// ApproveHandler approves a pending application.
func (p *ProviderAPI) ApproveHandler(c echo.Context) error {
	reviewer, err := p.guard.RequireAdministrator(c.Request().Context())
	if err != nil {
		return writeGuardError(c, err)
	}

	app, err := p.applications.Approve(c.Request().Context(), reviewer, c.Param("id"))
	if err != nil {
		return writeApplicationError(c, err)
	}
	return c.JSON(http.StatusOK, app)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// RejectHandler rejects a pending application with a reason.
func (p *ProviderAPI) RejectHandler(c echo.Context) error {
	reviewer, err := p.guard.RequireAdministrator(c.Request().Context())
	if err != nil {
		return writeGuardError(c, err)
	}

	var req rejectRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request"})
	}

	app, err := p.applications.Reject(c.Request().Context(), reviewer, c.Param("id"), req.Reason)
	if err != nil {
		return writeApplicationError(c, err)
	}
	return c.JSON(http.StatusOK, app)
}

func writeApplicationError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, authcore.ErrApplicationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "application_not_found"})
	case errors.Is(err, authcore.ErrApplicationNotPending):
		return c.JSON(http.StatusConflict, echo.Map{"error": "application_already_decided"})
	}
	log.Error().Err(err).Msg("Application decision failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server_error"})
}
