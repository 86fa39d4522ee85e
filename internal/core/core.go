package core

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Skywind5487/tnfsh-timetable-core/internal/cache"
	"github.com/Skywind5487/tnfsh-timetable-core/internal/index"
	"github.com/Skywind5487/tnfsh-timetable-core/internal/models"
	"github.com/Skywind5487/tnfsh-timetable-core/internal/scheduling"
	"github.com/Skywind5487/tnfsh-timetable-core/internal/slotlog"
	"github.com/Skywind5487/tnfsh-timetable-core/internal/timetable"
	"github.com/Skywind5487/tnfsh-timetable-core/pkg/config"
	appErrors "github.com/Skywind5487/tnfsh-timetable-core/pkg/errors"
	"github.com/Skywind5487/tnfsh-timetable-core/pkg/fetch"
)

// SearchRequest is the validated input of a rotation or swap call.
type SearchRequest struct {
	Teacher  string `json:"teacher" validate:"required"`
	Weekday  int    `json:"weekday" validate:"min=1,max=5"`
	Period   int    `json:"period" validate:"min=1,max=16"`
	MaxDepth int    `json:"maxDepth" validate:"min=1,max=20"`
	Refresh  bool   `json:"refresh"`
}

// SearchObserver receives search telemetry.
type SearchObserver interface {
	ObserveSearch(mode string, duration time.Duration)
}

// Core is the top-level façade: it owns the caches, builds the scheduling
// graph, and exposes the library surface callers wire services onto.
type Core struct {
	cfg        *config.Config
	logger     *zap.Logger
	validator  *validator.Validate
	index      *index.Service
	timetables *timetable.Service
	searches   SearchObserver

	mu    sync.RWMutex
	graph *scheduling.Graph
}

// New wires the core from configuration.
func New(cfg *config.Config, logger *zap.Logger, client *fetch.Client, observer cache.Observer, searches SearchObserver) *Core {
	if logger == nil {
		logger = zap.NewNop()
	}
	indexSvc := index.NewService(client, cfg.Upstream, cfg.Cache.Dir, logger, observer)
	ttCrawler := timetable.NewCrawler(client, logger)
	ttSvc := timetable.NewService(ttCrawler, cfg.Cache.Dir, logger, observer)
	return &Core{
		cfg:        cfg,
		logger:     logger,
		validator:  validator.New(),
		index:      indexSvc,
		timetables: ttSvc,
		searches:   searches,
	}
}

// FetchIndex returns the directory index through the cache tiers.
func (c *Core) FetchIndex(ctx context.Context, refresh bool) (*models.FullIndex, error) {
	return c.index.Fetch(ctx, refresh)
}

// FetchTimetable resolves target (any form the key identifier accepts) and
// returns its timetable. Ambiguous display names surface as conflicts the
// caller must disambiguate by id.
func (c *Core) FetchTimetable(ctx context.Context, target string, refresh bool) (*models.Timetable, error) {
	idx, err := c.FetchIndex(ctx, refresh)
	if err != nil {
		return nil, err
	}
	info, err := c.index.Resolve(idx, target)
	if err != nil {
		return nil, conflictToAppError(err)
	}
	return c.timetables.Fetch(ctx, info, refresh)
}

// ResolveTarget exposes fuzzy key resolution.
func (c *Core) ResolveTarget(ctx context.Context, target string, refresh bool) (models.TargetInfo, error) {
	idx, err := c.FetchIndex(ctx, refresh)
	if err != nil {
		return models.TargetInfo{}, err
	}
	info, err := c.index.Resolve(idx, target)
	if err != nil {
		return models.TargetInfo{}, conflictToAppError(err)
	}
	return info, nil
}

// FetchScheduling returns the scheduling graph, rebuilding it — and
// transitively the slot log, the timetables and the index — when refresh
// is set or no graph exists yet. The published graph is swapped atomically.
func (c *Core) FetchScheduling(ctx context.Context, refresh bool) (*scheduling.Graph, error) {
	if !refresh {
		c.mu.RLock()
		g := c.graph
		c.mu.RUnlock()
		if g != nil {
			return g, nil
		}
	}

	layers := ExpandRefresh(map[RefreshLayer]struct{}{LayerAlgo: {}})
	_, refreshIndex := layers[LayerIndex]
	_, refreshTables := layers[LayerTimetable]
	refreshIndex = refreshIndex && refresh
	refreshTables = refreshTables && refresh

	idx, err := c.FetchIndex(ctx, refreshIndex)
	if err != nil {
		return nil, err
	}

	targets := idx.AllTargets()
	tables := make([]*models.Timetable, 0, len(targets))
	for _, info := range targets {
		t, err := c.timetables.Fetch(ctx, info, refreshTables)
		if err != nil {
			return nil, appErrors.ErrFetch.Withf("cannot build scheduling graph: timetable for %s unavailable", info.Target).Because(err)
		}
		tables = append(tables, t)
	}

	log := slotlog.Build(tables, c.logger)
	g := scheduling.BuildGraph(log, idx, c.logger)

	c.mu.Lock()
	c.graph = g
	c.mu.Unlock()
	return g, nil
}

// FetchCourseNode locates the lesson block a search starts from.
func (c *Core) FetchCourseNode(ctx context.Context, teacher string, weekday, period int, refresh bool) (*scheduling.CourseNode, error) {
	g, err := c.FetchScheduling(ctx, refresh)
	if err != nil {
		return nil, err
	}
	node, err := g.CourseNodeAt(teacher, weekday, period)
	if err != nil {
		return nil, err
	}
	return node, nil
}

// Rotation runs the cyclic-reassignment search for the request.
func (c *Core) Rotation(ctx context.Context, req SearchRequest) ([][]*scheduling.CourseNode, error) {
	node, err := c.searchStart(ctx, &req)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	paths := scheduling.Rotation(node, req.MaxDepth)
	if c.searches != nil {
		c.searches.ObserveSearch(string(scheduling.ModeRotation), time.Since(start))
	}
	c.logger.Info("rotation search finished",
		zap.String("teacher", req.Teacher),
		zap.Int("weekday", req.Weekday),
		zap.Int("period", req.Period),
		zap.Int("paths", len(paths)),
		zap.Duration("took", time.Since(start)))
	return paths, nil
}

// Swap runs the chain-to-free-slot search for the request.
func (c *Core) Swap(ctx context.Context, req SearchRequest) ([][]*scheduling.CourseNode, error) {
	node, err := c.searchStart(ctx, &req)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	paths := scheduling.Swap(node, req.MaxDepth)
	if c.searches != nil {
		c.searches.ObserveSearch(string(scheduling.ModeSwap), time.Since(start))
	}
	c.logger.Info("swap search finished",
		zap.String("teacher", req.Teacher),
		zap.Int("weekday", req.Weekday),
		zap.Int("period", req.Period),
		zap.Int("paths", len(paths)),
		zap.Duration("took", time.Since(start)))
	return paths, nil
}

// Preload warms every per-target timetable cache. The initial index fetch
// carries its own two-attempt retry; per-target failures are reported, not
// fatal.
func (c *Core) Preload(ctx context.Context, opts config.PreloadConfig) (*timetable.PreloadReport, error) {
	var idx *models.FullIndex
	err := backoff.Retry(func() error {
		var ierr error
		idx, ierr = c.FetchIndex(ctx, true)
		return ierr
	}, backoff.WithContext(fetch.Backoff(time.Second, 10*time.Second, 2), ctx))
	if err != nil {
		return nil, err
	}
	return c.timetables.PreloadAll(ctx, idx, opts)
}

func (c *Core) searchStart(ctx context.Context, req *SearchRequest) (*scheduling.CourseNode, error) {
	if req.MaxDepth == 0 {
		req.MaxDepth = c.cfg.Scheduling.DefaultMaxDepth
	}
	if err := c.validator.Struct(req); err != nil {
		return nil, appErrors.ErrValidation.With("invalid search request").Because(err)
	}
	info, err := c.ResolveTarget(ctx, req.Teacher, req.Refresh)
	if err != nil {
		return nil, err
	}
	if info.Role() != models.RoleTeacher {
		return nil, appErrors.ErrValidation.Withf("%q is a class, searches start from a teacher", req.Teacher)
	}
	return c.FetchCourseNode(ctx, info.Target, req.Weekday, req.Period, req.Refresh)
}

func conflictToAppError(err error) error {
	if amb, ok := err.(*index.AmbiguousTargetError); ok {
		return appErrors.ErrConflict.With(amb.Error()).Because(amb)
	}
	return err
}
