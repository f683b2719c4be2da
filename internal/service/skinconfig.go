package service

import (
	"context"
	"errors"
	"log"

	"skinchanger-api/internal/model"
	"skinchanger-api/internal/repository"
	"skinchanger-api/pkg/apierror"
)

// SkinConfigInput carries the writable fields of a skin configuration.
type SkinConfigInput struct {
	WeaponCategory string   `json:"weapon_category"`
	WeaponName     string   `json:"weapon_name"`
	WeaponID       int      `json:"weapon_id"`
	SkinName       string   `json:"skin_name"`
	PaintKit       int      `json:"paint_kit"`
	Wear           *float64 `json:"wear,omitempty"`
}

// SkinConfigService handles per-account skin configuration records. Every
// operation is scoped to the calling account; cross-account access is not
// expressible through this API.
type SkinConfigService struct {
	configs repository.SkinConfigRepository
}

// NewSkinConfigService creates a new skin configuration service.
func NewSkinConfigService(configs repository.SkinConfigRepository) *SkinConfigService {
	return &SkinConfigService{configs: configs}
}

// List returns the account's configurations, most recently updated first.
func (s *SkinConfigService) List(ctx context.Context, accountID int64) ([]model.SkinConfig, error) {
	configs, err := s.configs.ListByAccount(ctx, accountID)
	if err != nil {
		log.Printf("[SkinConfigService] Failed to list configs for account %d: %v", accountID, err)
		return nil, apierror.InternalError("")
	}
	return configs, nil
}

// Get returns one configuration owned by the account. Another account's row
// id yields NotFound, never Forbidden, to avoid leaking existence.
func (s *SkinConfigService) Get(ctx context.Context, accountID, id int64) (*model.SkinConfig, error) {
	config, err := s.configs.GetByID(ctx, id, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("Configuration not found")
		}
		log.Printf("[SkinConfigService] Failed to get config %d: %v", id, err)
		return nil, apierror.InternalError("")
	}
	return config, nil
}

// Upsert creates or updates the account's configuration for a weapon, keyed
// by (account, weapon_id). It reports whether the row was created so the
// distinction stays observable to callers.
func (s *SkinConfigService) Upsert(ctx context.Context, accountID int64, in SkinConfigInput) (int64, bool, error) {
	if in.WeaponCategory == "" || in.WeaponName == "" || in.WeaponID == 0 || in.SkinName == "" || in.PaintKit == 0 {
		return 0, false, apierror.ValidationError("All fields are required")
	}

	existing, err := s.configs.GetByWeapon(ctx, accountID, in.WeaponID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Printf("[SkinConfigService] Failed to look up config for weapon %d: %v", in.WeaponID, err)
		return 0, false, apierror.InternalError("")
	}

	config := &model.SkinConfig{
		AccountID:      accountID,
		WeaponCategory: in.WeaponCategory,
		WeaponName:     in.WeaponName,
		WeaponID:       in.WeaponID,
		SkinName:       in.SkinName,
		PaintKit:       in.PaintKit,
		Wear:           in.Wear,
	}

	if existing != nil {
		config.ID = existing.ID
		if err := s.configs.Update(ctx, config); err != nil {
			log.Printf("[SkinConfigService] Failed to update config %d: %v", existing.ID, err)
			return 0, false, apierror.InternalError("")
		}
		return existing.ID, false, nil
	}

	id, err := s.configs.Insert(ctx, config)
	if errors.Is(err, repository.ErrDuplicate) {
		// Lost an insert race for the same weapon; the unique constraint
		// guarantees a single row, so update it instead.
		existing, gerr := s.configs.GetByWeapon(ctx, accountID, in.WeaponID)
		if gerr != nil {
			log.Printf("[SkinConfigService] Failed to reload config after insert race: %v", gerr)
			return 0, false, apierror.InternalError("")
		}
		config.ID = existing.ID
		if uerr := s.configs.Update(ctx, config); uerr != nil {
			log.Printf("[SkinConfigService] Failed to update config after insert race: %v", uerr)
			return 0, false, apierror.InternalError("")
		}
		return existing.ID, false, nil
	}
	if err != nil {
		log.Printf("[SkinConfigService] Failed to create config: %v", err)
		return 0, false, apierror.InternalError("")
	}
	return id, true, nil
}

// Delete removes one configuration owned by the account.
func (s *SkinConfigService) Delete(ctx context.Context, accountID, id int64) error {
	err := s.configs.Delete(ctx, id, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apierror.NotFound("Configuration not found")
		}
		log.Printf("[SkinConfigService] Failed to delete config %d: %v", id, err)
		return apierror.InternalError("")
	}
	return nil
}

// DeleteAll removes every configuration owned by the account and returns
// the count removed. An empty set returns 0 without error.
func (s *SkinConfigService) DeleteAll(ctx context.Context, accountID int64) (int64, error) {
	count, err := s.configs.DeleteAll(ctx, accountID)
	if err != nil {
		log.Printf("[SkinConfigService] Failed to reset configs for account %d: %v", accountID, err)
		return 0, apierror.InternalError("")
	}
	return count, nil
}
