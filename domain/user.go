package domain

import "time"

// UserStatus defines the possible statuses of an account.
type UserStatus string

const (
	UserStatusActive UserStatus = "ACTIVE"
	UserStatusLocked UserStatus = "LOCKED"
)

// User is a durable marketplace account. Customers are created lazily on
// their first successful code verification; the administrator account is
// bootstrapped from config at startup.
type User struct {
	ID          string     `bson:"_id,omitempty"`
	Email       string     `bson:"email"`
	Role        Role       `bson:"role"`
	Status      UserStatus `bson:"status"`
	DisplayName string     `bson:"display_name,omitempty"`

	// PasswordHash is set only for accounts that may use the password login
	// path (administrators); everyone else logs in with one-time codes.
	PasswordHash string `bson:"password_hash,omitempty"`

	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
	LastLoginAt *time.Time `bson:"last_login_at,omitempty"`
}

// ProviderProfile is a seller's storefront profile. Every fully onboarded
// PROVIDER account owns exactly one.
type ProviderProfile struct {
	ID        string    `bson:"_id,omitempty"`
	UserID    string    `bson:"user_id"`
	ShopName  string    `bson:"shop_name"`
	Bio       string    `bson:"bio,omitempty"`
	Approved  bool      `bson:"approved"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// ApplicationStatus is the moderation state of a seller application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationApproved ApplicationStatus = "APPROVED"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

// SellerApplication is a request by a regular account to open a storefront.
// Admins approve or reject it; approval flips the account role to PROVIDER
// and creates the provider profile.
type SellerApplication struct {
	ID         string            `bson:"_id,omitempty"`
	UserID     string            `bson:"user_id"`
	ShopName   string            `bson:"shop_name"`
	Bio        string            `bson:"bio,omitempty"`
	Status     ApplicationStatus `bson:"status"`
	Reason     string            `bson:"reason,omitempty"` // set on rejection
	CreatedAt  time.Time         `bson:"created_at"`
	DecidedAt  *time.Time        `bson:"decided_at,omitempty"`
	ReviewedBy string            `bson:"reviewed_by,omitempty"`
}
