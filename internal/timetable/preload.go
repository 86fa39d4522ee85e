package timetable

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Skywind5487/tnfsh-timetable-core/internal/models"
	"github.com/Skywind5487/tnfsh-timetable-core/pkg/config"
	"github.com/Skywind5487/tnfsh-timetable-core/pkg/fetch"

	"golang.org/x/sync/semaphore"
)

// PreloadReport summarises a bulk preload run.
type PreloadReport struct {
	ID        string   `json:"id"`
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"`
	Skipped   int      `json:"skipped"`
	Failed    []string `json:"failed,omitempty"`
}

// PreloadAll warms the cache for every target in the index. Concurrency is
// bounded by a semaphore; each target is retried up to three times with
// exponential back-off and an exhausted target is logged and skipped — it
// never aborts the bulk run.
func (s *Service) PreloadAll(ctx context.Context, idx *models.FullIndex, opts config.PreloadConfig) (*PreloadReport, error) {
	targets := idx.AllTargets()
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}

	report := &PreloadReport{ID: uuid.NewString(), Total: len(targets)}
	s.logger.Info("preload started",
		zap.String("report_id", report.ID),
		zap.Int("targets", len(targets)),
		zap.Int("max_concurrent", maxConcurrent),
		zap.Duration("delay", opts.Delay))

	sem := semaphore.NewWeighted(int64(maxConcurrent))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, info := range targets {
		info := info
		if opts.OnlyMissing && s.Cached(info) {
			mu.Lock()
			report.Skipped++
			mu.Unlock()
			s.logger.Debug("preload skip, already cached", zap.String("target", info.Target))
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				mu.Lock()
				report.Failed = append(report.Failed, info.Target)
				mu.Unlock()
				return
			}
			defer sem.Release(1)

			if opts.Delay > 0 {
				select {
				case <-time.After(opts.Delay):
				case <-ctx.Done():
					mu.Lock()
					report.Failed = append(report.Failed, info.Target)
					mu.Unlock()
					return
				}
			}

			err := backoff.Retry(func() error {
				_, err := s.Fetch(ctx, info, true)
				if err != nil {
					s.logger.Warn("preload attempt failed",
						zap.String("target", info.Target), zap.Error(err))
				}
				return err
			}, backoff.WithContext(fetch.Backoff(time.Second, 5*time.Second, 3), ctx))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Error("preload retries exhausted", zap.String("target", info.Target), zap.Error(err))
				report.Failed = append(report.Failed, info.Target)
				return
			}
			report.Succeeded++
		}()
	}

	wg.Wait()
	sort.Strings(report.Failed)
	s.logger.Info("preload finished",
		zap.String("report_id", report.ID),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", len(report.Failed)))
	return report, nil
}
