package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"skinchanger-api/internal/cache"
	"skinchanger-api/internal/model"
	"skinchanger-api/internal/repository"
	"skinchanger-api/pkg/apierror"
)

const statsCacheKey = "skinchanger:admin:stats"

// StatsService serves the admin dashboard aggregates, cached to bound the
// cost of repeated dashboard polling.
type StatsService struct {
	stats repository.StatsRepository
	cache cache.Cache
	ttl   time.Duration
}

// NewStatsService creates a new stats service. cache may be nil, in which
// case every call hits the store.
func NewStatsService(stats repository.StatsRepository, c cache.Cache, ttl time.Duration) *StatsService {
	return &StatsService{
		stats: stats,
		cache: c,
		ttl:   ttl,
	}
}

// Get returns the aggregate counts, from cache when fresh.
func (s *StatsService) Get(ctx context.Context) (*model.Stats, error) {
	if s.cache == nil {
		return s.load(ctx)
	}

	data, err := s.cache.GetOrSet(ctx, statsCacheKey, s.ttl, func() ([]byte, error) {
		stats, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(stats)
	})
	if err != nil {
		return nil, err
	}

	var stats model.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		log.Printf("[StatsService] Corrupt cached stats, reloading: %v", err)
		_ = s.cache.Delete(ctx, statsCacheKey)
		return s.load(ctx)
	}
	return &stats, nil
}

func (s *StatsService) load(ctx context.Context) (*model.Stats, error) {
	stats, err := s.stats.GetStats(ctx)
	if err != nil {
		log.Printf("[StatsService] Failed to load stats: %v", err)
		return nil, apierror.InternalError("")
	}
	return stats, nil
}
