package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"skinchanger-api/internal/model"
	"skinchanger-api/internal/repository"
	"skinchanger-api/pkg/apierror"
)

const (
	// LicenseKeyPrefix is prepended to every generated key.
	LicenseKeyPrefix = "CS2-"

	// MaxGenerateCount bounds the cost of a single generate call.
	MaxGenerateCount = 100
)

// LicenseService handles license key lifecycle: generation, assignment and
// cleanup. Consumption during registration lives in AuthService; both paths
// share the same conditionally-guarded repository write.
type LicenseService struct {
	licenses repository.LicenseRepository
	accounts repository.AccountRepository
}

// NewLicenseService creates a new license service.
func NewLicenseService(licenses repository.LicenseRepository, accounts repository.AccountRepository) *LicenseService {
	return &LicenseService{
		licenses: licenses,
		accounts: accounts,
	}
}

// Generate creates count new license keys with an identical optional expiry
// and note. Count is clamped to MaxGenerateCount. Existing keys are never
// touched.
func (s *LicenseService) Generate(ctx context.Context, count, expiresDays int, notes string) ([]string, error) {
	if count < 1 {
		count = 1
	}
	if count > MaxGenerateCount {
		count = MaxGenerateCount
	}

	var expiresAt *time.Time
	if expiresDays > 0 {
		t := time.Now().AddDate(0, 0, expiresDays)
		expiresAt = &t
	}

	keys := make([]model.LicenseKey, 0, count)
	keyStrings := make([]string, 0, count)
	for i := 0; i < count; i++ {
		key, err := generateKey()
		if err != nil {
			log.Printf("[LicenseService] Key generation failed: %v", err)
			return nil, apierror.InternalError("")
		}
		keys = append(keys, model.LicenseKey{
			Key:       key,
			ExpiresAt: expiresAt,
			Notes:     notes,
		})
		keyStrings = append(keyStrings, key)
	}

	if err := s.licenses.CreateBatch(ctx, keys); err != nil {
		log.Printf("[LicenseService] Failed to insert license keys: %v", err)
		return nil, apierror.InternalError("")
	}

	return keyStrings, nil
}

// generateKey returns a collision-resistant random key string.
func generateKey() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return LicenseKeyPrefix + strings.ToUpper(hex.EncodeToString(buf)), nil
}

// List returns all license keys with consuming usernames.
func (s *LicenseService) List(ctx context.Context) ([]model.LicenseKeyView, error) {
	views, err := s.licenses.List(ctx)
	if err != nil {
		log.Printf("[LicenseService] Failed to list license keys: %v", err)
		return nil, apierror.InternalError("")
	}
	return views, nil
}

// Assign consumes an unused key on behalf of an existing account - the
// administrator path, distinct from self-service registration.
func (s *LicenseService) Assign(ctx context.Context, key string, accountID int64) error {
	if key == "" {
		return apierror.ValidationError("license_key is required")
	}

	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apierror.NotFound("User not found")
		}
		log.Printf("[LicenseService] Account lookup failed: %v", err)
		return apierror.InternalError("")
	}

	consumed, err := s.licenses.Consume(ctx, key, accountID, time.Now())
	if err != nil {
		log.Printf("[LicenseService] Failed to consume license key: %v", err)
		return apierror.InternalError("")
	}
	if !consumed {
		return apierror.LicenseInvalid("")
	}

	if err := s.accounts.SetLicenseKey(ctx, accountID, key); err != nil {
		// The key is consumed but the account reference is missing -
		// logged, non-fatal, same accepted window as registration.
		log.Printf("[LicenseService] Consumed key %s but failed to link account %d: %v", key, accountID, err)
	}

	return nil
}

// Delete removes an unused key. Consumed keys cannot be deleted.
func (s *LicenseService) Delete(ctx context.Context, id int64) error {
	err := s.licenses.Delete(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrLicenseInUse):
		return apierror.LicenseInUse("")
	case errors.Is(err, repository.ErrNotFound):
		return apierror.NotFound("License key not found")
	default:
		log.Printf("[LicenseService] Failed to delete license key %d: %v", id, err)
		return apierror.InternalError("")
	}
}
