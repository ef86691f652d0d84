package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/OliveaSegaram/EC-sub001/internal/domain"
	"github.com/OliveaSegaram/EC-sub001/internal/persistence"
	"github.com/OliveaSegaram/EC-sub001/internal/repository"
	apperrors "github.com/OliveaSegaram/EC-sub001/pkg/util"
)

const (
	districtsCacheKey = "lookup:districts"
	skillsCacheKey    = "lookup:skills"
)

// LookupService serves the district and skill reference tables, caching them
// in Redis. The tables change rarely; a stale read is harmless.
type LookupService struct {
	districts repository.DistrictRepository
	cache     *persistence.Redis
	ttl       time.Duration
	logger    *zap.Logger
}

// NewLookupService constructs the service. A non-positive ttl falls back to
// ten minutes.
func NewLookupService(districts repository.DistrictRepository, cache *persistence.Redis, ttl time.Duration, logger *zap.Logger) *LookupService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupService{districts: districts, cache: cache, ttl: ttl, logger: logger}
}

// ListDistricts returns active districts, cache-first.
func (s *LookupService) ListDistricts(ctx context.Context) ([]domain.District, error) {
	var cached []domain.District
	if s.cacheGet(ctx, districtsCacheKey, &cached) {
		return cached, nil
	}
	districts, err := s.districts.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.cacheSet(ctx, districtsCacheKey, districts)
	return districts, nil
}

// ListSkills returns active skills, cache-first.
func (s *LookupService) ListSkills(ctx context.Context) ([]domain.Skill, error) {
	var cached []domain.Skill
	if s.cacheGet(ctx, skillsCacheKey, &cached) {
		return cached, nil
	}
	skills, err := s.districts.ListActiveSkills(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.cacheSet(ctx, skillsCacheKey, skills)
	return skills, nil
}

func (s *LookupService) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil || s.cache.Client == nil {
		return false
	}
	raw, err := s.cache.Client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Warn("corrupt lookup cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *LookupService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("lookup cache write failed", zap.String("key", key), zap.Error(err))
	}
}
