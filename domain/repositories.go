package domain

import "context"

// UserRepository persists marketplace accounts.
//
//go:generate mockgen -source=$GOFILE -destination=../mocks/mock_$GOPACKAGE/mock_$GOFILE -package=mock_$GOPACKAGE
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// FindOrCreateByEmail returns the account for email, creating a REGULAR
	// account if none exists. The lookup and insert are a single atomic
	// upsert so two concurrent logins for a new email yield one account.
	FindOrCreateByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
	SetRole(ctx context.Context, userID string, role Role) error
}

// ProviderProfileRepository persists seller storefront profiles.
type ProviderProfileRepository interface {
	CreateProfile(ctx context.Context, profile *ProviderProfile) error
	GetProfileByID(ctx context.Context, id string) (*ProviderProfile, error)
	GetProfileByUserID(ctx context.Context, userID string) (*ProviderProfile, error)
}

// SellerApplicationRepository persists storefront applications awaiting
// moderation.
type SellerApplicationRepository interface {
	CreateApplication(ctx context.Context, app *SellerApplication) error
	GetApplicationByID(ctx context.Context, id string) (*SellerApplication, error)
	GetPendingByUserID(ctx context.Context, userID string) (*SellerApplication, error)
	ListByStatus(ctx context.Context, status ApplicationStatus) ([]*SellerApplication, error)
	UpdateApplication(ctx context.Context, app *SellerApplication) error
}
