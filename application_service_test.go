package authcore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vetrina-app/authcore/domain"
)

// --- Mock SellerApplicationRepository ---

type MockSellerApplicationRepository struct {
	mock.Mock
}

func (m *MockSellerApplicationRepository) CreateApplication(ctx context.Context, app *domain.SellerApplication) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockSellerApplicationRepository) GetApplicationByID(ctx context.Context, id string) (*domain.SellerApplication, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SellerApplication), args.Error(1)
}

func (m *MockSellerApplicationRepository) GetPendingByUserID(ctx context.Context, userID string) (*domain.SellerApplication, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SellerApplication), args.Error(1)
}

func (m *MockSellerApplicationRepository) ListByStatus(ctx context.Context, status domain.ApplicationStatus) ([]*domain.SellerApplication, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SellerApplication), args.Error(1)
}

func (m *MockSellerApplicationRepository) UpdateApplication(ctx context.Context, app *domain.SellerApplication) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func adminIdentity() *domain.Identity {
	return &domain.Identity{ID: "admin-1", Email: "root@example.com", Role: domain.RoleAdministrator}
}

func TestApplicationService_Apply(t *testing.T) {
	apps := new(MockSellerApplicationRepository)
	users := new(MockUserRepository)
	profiles := new(MockProviderProfileRepository)
	svc := NewApplicationService(apps, users, profiles)

	applicant := &domain.Identity{ID: "u-1", Role: domain.RoleRegular}

	t.Run("first application is accepted", func(t *testing.T) {
		apps.On("GetPendingByUserID", mock.Anything, "u-1").Return(nil, ErrApplicationNotFound).Once()
		apps.On("CreateApplication", mock.Anything, mock.AnythingOfType("*domain.SellerApplication")).Return(nil).Once()

		app, err := svc.Apply(context.Background(), applicant, "Atelier Nouveau", "handmade coats")
		require.NoError(t, err)
		assert.Equal(t, domain.ApplicationPending, app.Status)
		assert.Equal(t, "u-1", app.UserID)
		apps.AssertExpectations(t)
	})

	t.Run("second pending application is rejected", func(t *testing.T) {
		pending := &domain.SellerApplication{ID: "app-1", UserID: "u-1", Status: domain.ApplicationPending}
		apps.On("GetPendingByUserID", mock.Anything, "u-1").Return(pending, nil).Once()

		_, err := svc.Apply(context.Background(), applicant, "Second Shop", "")
		assert.ErrorIs(t, err, ErrDuplicateApplication)
	})
}

func TestApplicationService_Approve(t *testing.T) {
	apps := new(MockSellerApplicationRepository)
	users := new(MockUserRepository)
	profiles := new(MockProviderProfileRepository)
	svc := NewApplicationService(apps, users, profiles)

	pending := &domain.SellerApplication{
		ID:       "app-1",
		UserID:   "u-1",
		ShopName: "Atelier Nouveau",
		Status:   domain.ApplicationPending,
	}
	apps.On("GetApplicationByID", mock.Anything, "app-1").Return(pending, nil)
	profiles.On("CreateProfile", mock.Anything, mock.MatchedBy(func(p *domain.ProviderProfile) bool {
		return p.UserID == "u-1" && p.ShopName == "Atelier Nouveau" && p.Approved
	})).Return(nil)
	users.On("SetRole", mock.Anything, "u-1", domain.RoleProvider).Return(nil)
	apps.On("UpdateApplication", mock.Anything, pending).Return(nil)

	app, err := svc.Approve(context.Background(), adminIdentity(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationApproved, app.Status)
	assert.Equal(t, "admin-1", app.ReviewedBy)
	require.NotNil(t, app.DecidedAt)

	apps.AssertExpectations(t)
	users.AssertExpectations(t)
	profiles.AssertExpectations(t)
}

func TestApplicationService_Reject(t *testing.T) {
	apps := new(MockSellerApplicationRepository)
	svc := NewApplicationService(apps, new(MockUserRepository), new(MockProviderProfileRepository))

	pending := &domain.SellerApplication{ID: "app-2", UserID: "u-2", Status: domain.ApplicationPending}
	apps.On("GetApplicationByID", mock.Anything, "app-2").Return(pending, nil)
	apps.On("UpdateApplication", mock.Anything, pending).Return(nil)

	app, err := svc.Reject(context.Background(), adminIdentity(), "app-2", "incomplete storefront details")
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationRejected, app.Status)
	assert.Equal(t, "incomplete storefront details", app.Reason)
}

func TestApplicationService_DecideTwice(t *testing.T) {
	apps := new(MockSellerApplicationRepository)
	svc := NewApplicationService(apps, new(MockUserRepository), new(MockProviderProfileRepository))

	decided := &domain.SellerApplication{ID: "app-3", UserID: "u-3", Status: domain.ApplicationApproved}
	apps.On("GetApplicationByID", mock.Anything, "app-3").Return(decided, nil)

	_, err := svc.Approve(context.Background(), adminIdentity(), "app-3")
	assert.ErrorIs(t, err, ErrApplicationNotPending)

	_, err = svc.Reject(context.Background(), adminIdentity(), "app-3", "n/a")
	assert.ErrorIs(t, err, ErrApplicationNotPending)
}

func TestApplicationService_UnknownApplication(t *testing.T) {
	apps := new(MockSellerApplicationRepository)
	svc := NewApplicationService(apps, new(MockUserRepository), new(MockProviderProfileRepository))

	apps.On("GetApplicationByID", mock.Anything, "missing").Return(nil, ErrApplicationNotFound)

	_, err := svc.Approve(context.Background(), adminIdentity(), "missing")
	assert.ErrorIs(t, err, ErrApplicationNotFound)
}
