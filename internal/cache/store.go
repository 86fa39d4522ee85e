package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"

	appErrors "github.com/Skywind5487/tnfsh-timetable-core/pkg/errors"
)

// Metadata records an entry's lifecycle.
type Metadata struct {
	CacheFetchAt time.Time `json:"cache_fetch_at"`
}

// Entry is the on-disk and in-memory cache envelope.
type Entry[T any] struct {
	Metadata Metadata `json:"metadata"`
	Data     T        `json:"data"`
}

// Source produces a fresh value for a key from the authoritative origin.
type Source[K comparable, T any] func(ctx context.Context, key K) (T, error)

// Observer receives cache telemetry.
type Observer interface {
	RecordCacheOperation(hit bool, duration time.Duration)
}

// Store is a three-tier read-through cache: process memory, JSON file,
// source. The memory tier publishes only fully constructed entries under a
// lock, so concurrent readers either see a complete prior value or fall
// through to a lower tier.
type Store[K comparable, T any] struct {
	name     string
	dir      string
	fileName func(K) string
	source   Source[K, T]
	onLoad   func(*T) error
	logger   *zap.Logger
	observer Observer

	mu  sync.RWMutex
	mem map[K]Entry[T]
}

// New constructs a store. fileName maps a key to its file name inside dir;
// onLoad, when non-nil, recomputes derived fields after a file load and
// after a source fetch (a failing onLoad marks a file entry as absent).
func New[K comparable, T any](
	name, dir string,
	fileName func(K) string,
	source Source[K, T],
	onLoad func(*T) error,
	logger *zap.Logger,
	observer Observer,
) *Store[K, T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store[K, T]{
		name:     name,
		dir:      dir,
		fileName: fileName,
		source:   source,
		onLoad:   onLoad,
		logger:   logger,
		observer: observer,
		mem:      make(map[K]Entry[T]),
	}
}

// Fetch resolves key through the tiers. With refresh=false the first tier
// holding the value wins and higher tiers are backfilled; with refresh=true
// memory and file are skipped on read and overwritten after the source
// fetch. A file-write failure is surfaced as a cache-write error, but the
// memory tier is already updated when it happens.
func (s *Store[K, T]) Fetch(ctx context.Context, key K, refresh bool) (Entry[T], error) {
	start := time.Now()
	if !refresh {
		if entry, ok := s.fromMemory(key); ok {
			s.observe(true, start)
			s.logger.Debug("cache hit (memory)", zap.String("cache", s.name))
			return entry, nil
		}
		if entry, ok := s.fromFile(key); ok {
			s.observe(true, start)
			s.logger.Debug("cache hit (file)", zap.String("cache", s.name))
			s.toMemory(key, entry)
			return entry, nil
		}
	}
	s.observe(false, start)

	s.logger.Info("fetching from source", zap.String("cache", s.name))
	data, err := s.source(ctx, key)
	if err != nil {
		return Entry[T]{}, err
	}
	if s.onLoad != nil {
		if err := s.onLoad(&data); err != nil {
			return Entry[T]{}, err
		}
	}
	entry := Entry[T]{Metadata: Metadata{CacheFetchAt: time.Now().UTC()}, Data: data}
	s.toMemory(key, entry)
	if err := s.toFile(key, entry); err != nil {
		return entry, err
	}
	return entry, nil
}

// Peek reports whether key is already present in the memory or file tier
// without touching the source.
func (s *Store[K, T]) Peek(key K) bool {
	if _, ok := s.fromMemory(key); ok {
		return true
	}
	_, ok := s.fromFile(key)
	return ok
}

func (s *Store[K, T]) fromMemory(key K) (Entry[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.mem[key]
	return entry, ok
}

func (s *Store[K, T]) toMemory(key K, entry Entry[T]) {
	s.mu.Lock()
	s.mem[key] = entry
	s.mu.Unlock()
}

func (s *Store[K, T]) fromFile(key K) (Entry[T], bool) {
	var entry Entry[T]
	path := s.filePath(key)
	raw, err := os.ReadFile(path)
	if err != nil {
		return entry, false
	}
	// A malformed or partially written file counts as absent; the source
	// fetch will overwrite it.
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.logger.Warn("discarding malformed cache file", zap.String("cache", s.name), zap.String("path", path), zap.Error(err))
		return entry, false
	}
	if s.onLoad != nil {
		if err := s.onLoad(&entry.Data); err != nil {
			s.logger.Warn("discarding cache file failing validation", zap.String("cache", s.name), zap.String("path", path), zap.Error(err))
			return entry, false
		}
	}
	return entry, true
}

func (s *Store[K, T]) toFile(key K, entry Entry[T]) error {
	path := s.filePath(key)
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return s.writeError(path, err)
	}
	raw, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return s.writeError(path, err)
	}
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return s.writeError(path, err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return s.writeError(path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return s.writeError(path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return s.writeError(path, err)
	}
	s.logger.Debug("cache file updated", zap.String("cache", s.name), zap.String("path", path))
	return nil
}

func (s *Store[K, T]) filePath(key K) string {
	return filepath.Join(s.dir, s.fileName(key))
}

func (s *Store[K, T]) writeError(path string, err error) error {
	s.logger.Error("cache write failed", zap.String("cache", s.name), zap.String("path", path), zap.Error(err))
	return appErrors.ErrCacheWrite.Withf("failed to persist cache entry at %s", path).Because(err)
}

func (s *Store[K, T]) observe(hit bool, start time.Time) {
	if s.observer != nil {
		s.observer.RecordCacheOperation(hit, time.Since(start))
	}
}

// SafeFileName keeps alphanumerics (in the Unicode sense, so CJK display
// names survive), '-' and '_'. Two raw keys that sanitise to the same name
// are a caller error.
func SafeFileName(raw string) string {
	out := make([]rune, 0, len(raw))
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			out = append(out, r)
		}
	}
	return string(out)
}
