package service

import (
	"context"
	"errors"
	"log"
	"time"

	"skinchanger-api/internal/model"
	"skinchanger-api/internal/repository"
	"skinchanger-api/pkg/apierror"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 6

	// DefaultAdminUsername is the well-known bootstrap admin handle.
	DefaultAdminUsername = "admin"

	// DefaultAdminPassword is the bootstrap admin password. It is a
	// convenience, not a security boundary - change it immediately.
	DefaultAdminPassword = "admin123"

	bcryptCost = 10
)

// AuthService handles registration, login and token minting.
type AuthService struct {
	accounts     repository.AccountRepository
	licenses     repository.LicenseRepository
	tokens       repository.TokenRepository
	tokenService *TokenService
}

// NewAuthService creates a new auth service.
func NewAuthService(
	accounts repository.AccountRepository,
	licenses repository.LicenseRepository,
	tokens repository.TokenRepository,
	tokenService *TokenService,
) *AuthService {
	return &AuthService{
		accounts:     accounts,
		licenses:     licenses,
		tokens:       tokens,
		tokenService: tokenService,
	}
}

// Register creates a new account gated by a single-use license key and
// returns a minted session token with the public account view.
func (s *AuthService) Register(ctx context.Context, username, email, password, licenseKey string) (string, *model.AccountView, error) {
	if username == "" || email == "" || password == "" || licenseKey == "" {
		return "", nil, apierror.ValidationError("All fields are required")
	}
	if len(password) < MinPasswordLength {
		return "", nil, apierror.ValidationError("Password must be at least 6 characters")
	}

	now := time.Now()
	key, err := s.licenses.GetByKey(ctx, licenseKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, apierror.LicenseInvalid("")
		}
		log.Printf("[AuthService] License lookup failed: %v", err)
		return "", nil, apierror.InternalError("")
	}
	if key.IsUsed || key.IsExpired(now) {
		return "", nil, apierror.LicenseInvalid("")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		log.Printf("[AuthService] Password hashing failed: %v", err)
		return "", nil, apierror.InternalError("")
	}

	account := &model.Account{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		LicenseKey:   licenseKey,
	}

	id, err := s.accounts.Create(ctx, account)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", nil, apierror.DuplicateIdentity("")
		}
		log.Printf("[AuthService] Account creation failed: %v", err)
		return "", nil, apierror.InternalError("")
	}
	account.ID = id
	account.CreatedAt = now

	// Consume-and-link is conditionally guarded: a racing registration or
	// assignment of the same key leaves exactly one winner.
	consumed, err := s.licenses.Consume(ctx, licenseKey, id, now)
	if err != nil {
		// Accepted inconsistency window: the account stands, consumption
		// is retried never - logged, non-fatal.
		log.Printf("[AuthService] Failed to mark license %s consumed for account %d: %v", licenseKey, id, err)
	} else if !consumed {
		// Lost the race (or the key expired in between). Remove the
		// just-created account so the key has a single owner.
		if delErr := s.accounts.Delete(ctx, id); delErr != nil {
			log.Printf("[AuthService] Failed to remove account %d after losing license race: %v", id, delErr)
		}
		return "", nil, apierror.LicenseInvalid("")
	}

	token, err := s.tokenService.MintSession(id, username)
	if err != nil {
		log.Printf("[AuthService] Session minting failed: %v", err)
		return "", nil, apierror.InternalError("")
	}

	view := account.View()
	return token, &view, nil
}

// Login verifies credentials and returns a minted session token with the
// public account view.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *model.AccountView, error) {
	if username == "" || password == "" {
		return "", nil, apierror.ValidationError("Username and password are required")
	}

	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, apierror.InvalidCredentials()
		}
		log.Printf("[AuthService] Account lookup failed: %v", err)
		return "", nil, apierror.InternalError("")
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", nil, apierror.InvalidCredentials()
	}

	if !account.IsActive {
		return "", nil, apierror.AccountDisabled()
	}

	if err := s.accounts.UpdateLastLogin(ctx, account.ID); err != nil {
		log.Printf("[AuthService] Failed to update last login for account %d: %v", account.ID, err)
	}

	token, err := s.tokenService.MintSession(account.ID, account.Username)
	if err != nil {
		log.Printf("[AuthService] Session minting failed: %v", err)
		return "", nil, apierror.InternalError("")
	}

	view := account.View()
	return token, &view, nil
}

// VerifySession validates a session or API token and returns its claims.
func (s *AuthService) VerifySession(tokenString string) (*model.Claims, error) {
	claims, err := s.tokenService.Verify(tokenString)
	if err != nil {
		return nil, apierror.InvalidToken()
	}
	return claims, nil
}

// MintAPIToken mints a long-lived API token for the account behind a
// verified session and persists it for auditability. Repeatable: each call
// yields a distinct token and older ones stay valid.
func (s *AuthService) MintAPIToken(ctx context.Context, claims *model.Claims) (string, time.Duration, error) {
	token, expiresAt, err := s.tokenService.MintAPI(claims.AccountID, claims.Username)
	if err != nil {
		log.Printf("[AuthService] API token minting failed: %v", err)
		return "", 0, apierror.InternalError("")
	}

	row := &model.APIToken{
		AccountID: claims.AccountID,
		Token:     token,
		ExpiresAt: &expiresAt,
	}
	if _, err := s.tokens.Create(ctx, row); err != nil {
		log.Printf("[AuthService] Failed to persist API token: %v", err)
		return "", 0, apierror.InternalError("")
	}

	return token, s.tokenService.APITTL(), nil
}

// TouchAPIToken stamps last-used on a persisted API token. Best-effort.
func (s *AuthService) TouchAPIToken(ctx context.Context, token string) {
	if err := s.tokens.TouchLastUsed(ctx, token); err != nil {
		log.Printf("[AuthService] Failed to touch API token: %v", err)
	}
}

// EnsureAdmin creates the bootstrap administrator account if none exists.
// Idempotent: it never overwrites an existing admin.
func (s *AuthService) EnsureAdmin(ctx context.Context) error {
	exists, err := s.accounts.AdminExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultAdminPassword), bcryptCost)
	if err != nil {
		return err
	}

	_, err = s.accounts.Create(ctx, &model.Account{
		Username:     DefaultAdminUsername,
		Email:        "admin@localhost",
		PasswordHash: string(hash),
		IsAdmin:      true,
		IsActive:     true,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// A non-admin account already holds the username; leave it alone.
		log.Printf("[AuthService] Bootstrap admin username %q taken, skipping seed", DefaultAdminUsername)
		return nil
	}
	if err != nil {
		return err
	}

	log.Printf("[AuthService] Seeded default admin account %q - change the password immediately", DefaultAdminUsername)
	return nil
}
