package service

import (
	"context"
	"errors"
	"log"

	"skinchanger-api/internal/model"
	"skinchanger-api/internal/repository"
	"skinchanger-api/pkg/apierror"
)

// AccountService handles administrator-facing account management.
type AccountService struct {
	accounts repository.AccountRepository
}

// NewAccountService creates a new account service.
func NewAccountService(accounts repository.AccountRepository) *AccountService {
	return &AccountService{accounts: accounts}
}

// List returns all accounts with license expiry, newest first.
func (s *AccountService) List(ctx context.Context) ([]model.AccountView, error) {
	views, err := s.accounts.List(ctx)
	if err != nil {
		log.Printf("[AccountService] Failed to list accounts: %v", err)
		return nil, apierror.InternalError("")
	}
	return views, nil
}

// Get returns the public view of one account.
func (s *AccountService) Get(ctx context.Context, id int64) (*model.AccountView, error) {
	view, err := s.accounts.View(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("User not found")
		}
		log.Printf("[AccountService] Failed to get account %d: %v", id, err)
		return nil, apierror.InternalError("")
	}
	return view, nil
}

// SetActive activates or deactivates an account. Deactivation blocks new
// logins; outstanding session tokens still verify until they expire.
func (s *AccountService) SetActive(ctx context.Context, id int64, active bool) error {
	err := s.accounts.SetActive(ctx, id, active)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apierror.NotFound("User not found")
		}
		log.Printf("[AccountService] Failed to update account %d status: %v", id, err)
		return apierror.InternalError("")
	}
	return nil
}

// Delete removes an account and its owned tokens and configurations.
// Administrator accounts cannot be deleted.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apierror.NotFound("User not found")
		}
		log.Printf("[AccountService] Failed to get account %d: %v", id, err)
		return apierror.InternalError("")
	}
	if account.IsAdmin {
		return apierror.Forbidden("Cannot delete admin users")
	}

	if err := s.accounts.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apierror.NotFound("User not found")
		}
		log.Printf("[AccountService] Failed to delete account %d: %v", id, err)
		return apierror.InternalError("")
	}
	return nil
}
