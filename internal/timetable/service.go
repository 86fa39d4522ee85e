package timetable

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Skywind5487/tnfsh-timetable-core/internal/cache"
	"github.com/Skywind5487/tnfsh-timetable-core/internal/models"
)

// Service exposes per-entity timetables through the three-tier cache,
// keyed by the entity's TargetInfo.
type Service struct {
	crawler *Crawler
	store   *cache.Store[models.TargetInfo, models.Timetable]
	logger  *zap.Logger
}

// NewService wires the timetable crawler behind the cache.
func NewService(crawler *Crawler, cacheDir string, logger *zap.Logger, observer cache.Observer) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	store := cache.New[models.TargetInfo, models.Timetable](
		"timetable",
		cacheDir,
		func(info models.TargetInfo) string {
			return fmt.Sprintf("prebuilt_%s_%s.json", cache.SafeFileName(info.Target), cache.SafeFileName(info.ID()))
		},
		func(ctx context.Context, info models.TargetInfo) (models.Timetable, error) {
			t, err := crawler.Fetch(ctx, info)
			if err != nil {
				return models.Timetable{}, err
			}
			return *t, nil
		},
		func(t *models.Timetable) error { return t.Validate() },
		logger,
		observer,
	)
	return &Service{crawler: crawler, store: store, logger: logger}
}

// Fetch resolves the target's timetable through the cache tiers and stamps
// the cache-fetch time onto the returned value.
func (s *Service) Fetch(ctx context.Context, info models.TargetInfo, refresh bool) (*models.Timetable, error) {
	entry, err := s.store.Fetch(ctx, info, refresh)
	if err != nil {
		return nil, err
	}
	t := entry.Data
	fetchedAt := entry.Metadata.CacheFetchAt
	t.CacheFetchAt = &fetchedAt
	return &t, nil
}

// Cached reports whether the target already sits in the memory or file tier.
func (s *Service) Cached(info models.TargetInfo) bool {
	return s.store.Peek(info)
}
