package index

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Skywind5487/tnfsh-timetable-core/internal/cache"
	"github.com/Skywind5487/tnfsh-timetable-core/internal/models"
	"github.com/Skywind5487/tnfsh-timetable-core/pkg/config"
	appErrors "github.com/Skywind5487/tnfsh-timetable-core/pkg/errors"
	"github.com/Skywind5487/tnfsh-timetable-core/pkg/fetch"
)

const indexFileName = "prebuilt_full_index.json"

// DefaultAliases carries display names the upstream spells inconsistently.
var DefaultAliases = [][]string{{"朱蒙", "吳銘"}}

// AmbiguousTargetError reports a display name that resolves to several ids;
// the caller must disambiguate by id.
type AmbiguousTargetError struct {
	Target string
	IDs    []string
}

func (e *AmbiguousTargetError) Error() string {
	return fmt.Sprintf("display name %q resolves to multiple ids: %s", e.Target, strings.Join(e.IDs, ", "))
}

// Service exposes the cached index and key resolution on top of it.
type Service struct {
	crawler    *Crawler
	identifier *Identifier
	store      *cache.Store[string, models.FullIndex]
	aliases    [][]string
	logger     *zap.Logger
}

// NewService wires the index crawler behind the three-tier cache.
func NewService(client *fetch.Client, cfg config.UpstreamConfig, cacheDir string, logger *zap.Logger, observer cache.Observer) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	crawler := NewCrawler(client, cfg, logger)
	store := cache.New[string, models.FullIndex](
		"index",
		cacheDir,
		func(string) string { return indexFileName },
		func(ctx context.Context, _ string) (models.FullIndex, error) {
			idx, err := crawler.Fetch(ctx)
			if err != nil {
				return models.FullIndex{}, err
			}
			return *idx, nil
		},
		func(idx *models.FullIndex) error {
			if len(idx.Teacher) == 0 && len(idx.Class) == 0 {
				return appErrors.ErrValidation.With("cached index is empty")
			}
			idx.BuildViews()
			return nil
		},
		logger,
		observer,
	)
	return &Service{
		crawler:    crawler,
		identifier: NewIdentifier(cfg.BaseURL, logger),
		store:      store,
		aliases:    DefaultAliases,
		logger:     logger,
	}
}

// WithAliases overrides the alias sets tried when a lookup misses.
func (s *Service) WithAliases(aliases [][]string) *Service {
	s.aliases = aliases
	return s
}

// Identifier exposes the key identifier for callers that only classify.
func (s *Service) Identifier() *Identifier {
	return s.identifier
}

// Fetch returns the index through the cache tiers.
func (s *Service) Fetch(ctx context.Context, refresh bool) (*models.FullIndex, error) {
	entry, err := s.store.Fetch(ctx, "full", refresh)
	if err != nil {
		return nil, err
	}
	idx := entry.Data
	return &idx, nil
}

// Resolve maps any user key the identifier understands onto a TargetInfo
// from idx. The lookup order is: unique display name, conflict set,
// identified id, identified display name, alias sets. A conflicting name
// returns an AmbiguousTargetError.
func (s *Service) Resolve(idx *models.FullIndex, text string) (models.TargetInfo, error) {
	if info, done, err := s.resolveOnce(idx, text); done {
		return info, err
	}

	for _, set := range s.aliases {
		if !containsString(set, text) {
			continue
		}
		for _, alias := range set {
			if alias == text {
				continue
			}
			if info, ok := idx.TargetToUniqueInfo[alias]; ok {
				s.logger.Info("resolved via alias", zap.String("input", text), zap.String("alias", alias))
				return info, nil
			}
		}
	}

	return models.TargetInfo{}, appErrors.ErrLookup.Withf("cannot resolve %q to a teacher or class", text)
}

func (s *Service) resolveOnce(idx *models.FullIndex, text string) (models.TargetInfo, bool, error) {
	if info, ok := idx.TargetToUniqueInfo[text]; ok {
		return info, true, nil
	}
	if ids, ok := idx.TargetToConflictingIDs[text]; ok {
		return models.TargetInfo{}, true, &AmbiguousTargetError{Target: text, IDs: ids}
	}

	ident := s.identifier.Identify(text)
	if ident == nil {
		return models.TargetInfo{}, false, nil
	}
	if ident.ID != "" {
		if info, ok := idx.IDToInfo[ident.ID]; ok {
			return info, true, nil
		}
	}
	if ident.Target != "" {
		if info, ok := idx.TargetToUniqueInfo[ident.Target]; ok {
			return info, true, nil
		}
		if ids, ok := idx.TargetToConflictingIDs[ident.Target]; ok {
			return models.TargetInfo{}, true, &AmbiguousTargetError{Target: ident.Target, IDs: ids}
		}
		// A Latin name may carry a spurious leading 'T' from the role prefix.
		if ident.MatchCase == "T1a" && strings.HasPrefix(ident.Target, "T") {
			stripped := ident.Target[1:]
			if info, ok := idx.TargetToUniqueInfo[stripped]; ok {
				return info, true, nil
			}
			if ids, ok := idx.TargetToConflictingIDs[stripped]; ok {
				return models.TargetInfo{}, true, &AmbiguousTargetError{Target: stripped, IDs: ids}
			}
		}
	}
	return models.TargetInfo{}, false, nil
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
