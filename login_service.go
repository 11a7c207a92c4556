package authcore

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vetrina-app/authcore/cache"
	"github.com/vetrina-app/authcore/domain"
	"github.com/vetrina-app/authcore/internal/auth/otp"
)

// DefaultCodeTTL is the validity window of an issued one-time code.
const DefaultCodeTTL = 5 * time.Minute

// CodeLength is the number of digits in an issued one-time code.
const CodeLength = 6

// CodeSender delivers a one-time code to the user out of band (email, SMS).
// The core never sends anything itself; delivery failures are the sender's
// to report.
type CodeSender interface {
	SendCode(ctx context.Context, email, code string) error
}

// PasswordHasher abstracts password hashing for the administrator login
// path. Implemented by internal/auth.BcryptPasswordHasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) error
}

// LoginResult is a successful authentication: the account plus a signed
// session token.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// LoginService orchestrates passwordless login: code issuance into the
// credential store, verification, account find-or-create, and session
// issuance. Administrators additionally have a password path.
type LoginService struct {
	creds    cache.CredentialStore
	users    domain.UserRepository
	profiles domain.ProviderProfileRepository
	sessions *SessionService
	sender   CodeSender
	hasher   PasswordHasher
	codeTTL  time.Duration
}

// NewLoginService creates a LoginService. codeTTL <= 0 selects
// DefaultCodeTTL.
func NewLoginService(
	creds cache.CredentialStore,
	users domain.UserRepository,
	profiles domain.ProviderProfileRepository,
	sessions *SessionService,
	sender CodeSender,
	hasher PasswordHasher,
	codeTTL time.Duration,
) *LoginService {
	if codeTTL <= 0 {
		codeTTL = DefaultCodeTTL
	}
	return &LoginService{
		creds:    creds,
		users:    users,
		profiles: profiles,
		sessions: sessions,
		sender:   sender,
		hasher:   hasher,
		codeTTL:  codeTTL,
	}
}

// RequestCode generates a one-time code for email, records it in the
// credential store (replacing any pending code for the same address), and
// hands the plaintext to the sender. Whether the address belongs to an
// existing account is not revealed: issuance succeeds either way and the
// account is created lazily on verification.
func (s *LoginService) RequestCode(ctx context.Context, email string) error {
	key := cache.NormalizeKey(email)

	code, err := otp.GenerateNumericCode(CodeLength)
	if err != nil {
		return fmt.Errorf("failed to generate one-time code: %w", err)
	}

	if err := s.creds.Issue(ctx, key, HashCode(code), s.codeTTL); err != nil {
		return fmt.Errorf("failed to issue one-time code: %w", err)
	}

	if err := s.sender.SendCode(ctx, key, code); err != nil {
		// The record stays pending; the user can request a new code, which
		// replaces it.
		log.Error().Err(err).Str("email", key).Msg("Failed to deliver one-time code")
		return fmt.Errorf("failed to deliver one-time code: %w", err)
	}

	log.Info().Str("email", key).Dur("ttl", s.codeTTL).Msg("One-time code issued")
	return nil
}

// VerifyCode checks a submitted code and, on success, finds or creates the
// account and issues a session. The three failure modes map to distinct
// errors because the corrective action differs: ErrCodeNotFound and
// ErrCodeExpired mean "request a new code", ErrCodeMismatch means "check
// the code and retry".
func (s *LoginService) VerifyCode(ctx context.Context, email, code string) (*LoginResult, error) {
	key := cache.NormalizeKey(email)

	result, err := s.creds.Verify(ctx, key, HashCode(code))
	if err != nil {
		return nil, fmt.Errorf("credential verification failed: %w", err)
	}

	switch result {
	case cache.VerifyNotFound:
		return nil, ErrCodeNotFound
	case cache.VerifyExpired:
		return nil, ErrCodeExpired
	case cache.VerifyMismatch:
		return nil, ErrCodeMismatch
	case cache.VerifyOK:
		// fall through to account resolution
	default:
		return nil, fmt.Errorf("unexpected verification result %v", result)
	}

	user, err := s.users.FindOrCreateByEmail(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve account for %s: %w", key, err)
	}
	if user.Status == domain.UserStatusLocked {
		return nil, ErrAccountLocked
	}

	return s.startSession(ctx, user)
}

// PasswordLogin authenticates with email and password. Only accounts with a
// password hash (administrators) can use this path; for everyone else it
// fails exactly like a wrong password so the response does not leak which
// accounts are password-enabled.
func (s *LoginService) PasswordLogin(ctx context.Context, email, password string) (*LoginResult, error) {
	key := cache.NormalizeKey(email)

	user, err := s.users.GetUserByEmail(ctx, key)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		log.Warn().Str("email", key).Msg("Password login failed")
		return nil, ErrInvalidCredentials
	}
	if user.Status == domain.UserStatusLocked {
		return nil, ErrAccountLocked
	}

	return s.startSession(ctx, user)
}

func (s *LoginService) startSession(ctx context.Context, user *domain.User) (*LoginResult, error) {
	var profile *domain.ProviderProfile
	if user.Role == domain.RoleProvider {
		p, err := s.profiles.GetProfileByUserID(ctx, user.ID)
		if err == nil {
			profile = p
		}
		// A provider without a profile still gets a session; provider
		// operations will reject it with a profile-not-found failure until
		// onboarding completes.
	}

	token, expiresAt, err := s.sessions.IssueSession(user, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	now := time.Now().UTC()
	user.LastLoginAt = &now
	if err := s.users.UpdateUser(ctx, user); err != nil {
		log.Warn().Err(err).Str("userID", user.ID).Msg("Failed to record last login time")
	}

	log.Info().Str("userID", user.ID).Str("role", user.Role.String()).Msg("Session issued")
	return &LoginResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// LogCodeSender is a CodeSender that logs the code instead of delivering
// it. Development use only.
type LogCodeSender struct{}

// SendCode implements CodeSender.
func (LogCodeSender) SendCode(_ context.Context, email, code string) error {
	log.Info().Str("email", email).Str("code", code).Msg("One-time code (log sender, dev only)")
	return nil
}
