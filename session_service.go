package authcore

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vetrina-app/authcore/domain"
)

// SessionClaims is the JWT claim set carried by a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email             string `json:"email"`
	Role              string `json:"role"`
	ProviderProfileID string `json:"provider_profile_id,omitempty"`
	ProviderApproved  bool   `json:"provider_approved,omitempty"`
}

// SessionService issues and validates signed session tokens (HS256). Tokens
// are stateless; revocation before expiry is not supported and session TTLs
// are kept short accordingly.
type SessionService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewSessionService creates a SessionService signing with secret.
func NewSessionService(secret []byte, issuer string, ttl time.Duration) *SessionService {
	return &SessionService{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
	}
}

// IssueSession creates a signed token for user. The provider profile, when
// present, is embedded so the guard can check provider context without a
// database read per request.
func (s *SessionService) IssueSession(user *domain.User, profile *domain.ProviderProfile) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: user.Email,
		Role:  user.Role.String(),
	}
	if profile != nil {
		claims.ProviderProfileID = profile.ID
		claims.ProviderApproved = profile.Approved
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateSession parses and verifies a session token and materializes the
// per-request identity. Any defect (malformed, bad signature, expired,
// wrong issuer, unknown role) yields ErrInvalidSessionToken; callers at the
// transport boundary treat all of them as "no identity".
func (s *SessionService) ValidateSession(tokenValue string) (*domain.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenValue, &SessionClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return s.secret, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidSessionToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, ErrInvalidSessionToken
	}

	role := domain.Role(claims.Role)
	if !role.Valid() {
		return nil, ErrInvalidSessionToken
	}

	return &domain.Identity{
		ID:                claims.Subject,
		Email:             claims.Email,
		Role:              role,
		ProviderProfileID: claims.ProviderProfileID,
		ProviderApproved:  claims.ProviderApproved,
	}, nil
}
