package authcore

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vetrina-app/authcore/domain"
)

// ApplicationService handles the seller onboarding workflow: a regular
// account applies for a storefront, an administrator approves or rejects.
// Approval flips the account role to PROVIDER and creates the provider
// profile, closing the onboarding gap the guard's provider-context check
// exists for.
type ApplicationService struct {
	apps     domain.SellerApplicationRepository
	users    domain.UserRepository
	profiles domain.ProviderProfileRepository
}

// NewApplicationService creates an ApplicationService.
func NewApplicationService(
	apps domain.SellerApplicationRepository,
	users domain.UserRepository,
	profiles domain.ProviderProfileRepository,
) *ApplicationService {
	return &ApplicationService{
		apps:     apps,
		users:    users,
		profiles: profiles,
	}
}

// Apply submits a storefront application for applicant. One pending
// application per account; a second submission while one is pending fails.
func (s *ApplicationService) Apply(ctx context.Context, applicant *domain.Identity, shopName, bio string) (*domain.SellerApplication, error) {
	if existing, err := s.apps.GetPendingByUserID(ctx, applicant.ID); err == nil && existing != nil {
		return nil, ErrDuplicateApplication
	}

	app := &domain.SellerApplication{
		UserID:    applicant.ID,
		ShopName:  shopName,
		Bio:       bio,
		Status:    domain.ApplicationPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.apps.CreateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to create seller application: %w", err)
	}

	log.Info().Str("userID", applicant.ID).Str("shop", shopName).Msg("Seller application submitted")
	return app, nil
}

// ListPending returns applications awaiting moderation.
func (s *ApplicationService) ListPending(ctx context.Context) ([]*domain.SellerApplication, error) {
	return s.apps.ListByStatus(ctx, domain.ApplicationPending)
}

// Approve grants the application: the applicant becomes a PROVIDER and a
// storefront profile is created. Only pending applications can be decided.
func (s *ApplicationService) Approve(ctx context.Context, reviewer *domain.Identity, applicationID string) (*domain.SellerApplication, error) {
	app, err := s.pendingApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	profile := &domain.ProviderProfile{
		UserID:    app.UserID,
		ShopName:  app.ShopName,
		Bio:       app.Bio,
		Approved:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create provider profile: %w", err)
	}

	// Role change after profile creation: a PROVIDER identity without a
	// profile is a transient onboarding state; this ordering keeps the
	// window as small as the two writes allow.
	if err := s.users.SetRole(ctx, app.UserID, domain.RoleProvider); err != nil {
		return nil, fmt.Errorf("failed to promote applicant to provider: %w", err)
	}

	now := time.Now().UTC()
	app.Status = domain.ApplicationApproved
	app.DecidedAt = &now
	app.ReviewedBy = reviewer.ID
	if err := s.apps.UpdateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to record application decision: %w", err)
	}

	log.Info().Str("applicationID", app.ID).Str("userID", app.UserID).
		Str("reviewedBy", reviewer.ID).Msg("Seller application approved")
	return app, nil
}

// Reject declines the application with a reason shown to the applicant.
func (s *ApplicationService) Reject(ctx context.Context, reviewer *domain.Identity, applicationID, reason string) (*domain.SellerApplication, error) {
	app, err := s.pendingApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	app.Status = domain.ApplicationRejected
	app.Reason = reason
	app.DecidedAt = &now
	app.ReviewedBy = reviewer.ID
	if err := s.apps.UpdateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to record application decision: %w", err)
	}

	log.Info().Str("applicationID", app.ID).Str("reviewedBy", reviewer.ID).Msg("Seller application rejected")
	return app, nil
}

func (s *ApplicationService) pendingApplication(ctx context.Context, applicationID string) (*domain.SellerApplication, error) {
	app, err := s.apps.GetApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, ErrApplicationNotFound
	}
	if app.Status != domain.ApplicationPending {
		return nil, ErrApplicationNotPending
	}
	return app, nil
}
