package slotlog

import (
	"go.uber.org/zap"

	"github.com/Skywind5487/tnfsh-timetable-core/internal/models"
)

// Key addresses one streak in the log: the owning entity's display key
// (class code or teacher name) plus the streak's starting slot.
type Key struct {
	Source string
	Slot   models.Slot
}

// Entry is one emitted streak. Course is nil for a free run.
type Entry struct {
	Source string             `json:"source"`
	Time   models.StreakTime  `json:"streak_time"`
	Course *models.CourseInfo `json:"log"`
}

// Log maps (source, streak start) to the course occupying that block.
// Insertion order of first-seen streaks is preserved; the scheduling graph
// builder depends on it for deterministic neighbour ordering.
type Log struct {
	entries []Entry
	index   map[Key]int
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{index: make(map[Key]int)}
}

// Add appends an entry; a duplicate (source, slot) key overwrites in place.
func (l *Log) Add(e Entry) {
	k := Key{Source: e.Source, Slot: e.Time.Slot()}
	if i, ok := l.index[k]; ok {
		l.entries[i] = e
		return
	}
	l.index[k] = len(l.entries)
	l.entries = append(l.entries, e)
}

// Get looks up the streak starting at slot for source.
func (l *Log) Get(source string, slot models.Slot) (Entry, bool) {
	if i, ok := l.index[Key{Source: source, Slot: slot}]; ok {
		return l.entries[i], true
	}
	return Entry{}, false
}

// Entries returns the log in insertion order.
func (l *Log) Entries() []Entry {
	return l.entries
}

// Len returns the number of streaks in the log.
func (l *Log) Len() int {
	return len(l.entries)
}

// Build compresses each weekday row of every timetable into maximal runs
// of equal cells. For every weekday the emitted streak lengths sum to the
// row length; nil (free period) is a valid run value.
func Build(tables []*models.Timetable, logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := NewLog()
	for _, t := range tables {
		for w, row := range t.Table {
			start := 0
			for p := 1; p <= len(row); p++ {
				if p < len(row) && row[p].Equal(row[start]) {
					continue
				}
				log.Add(Entry{
					Source: t.Target,
					Time:   models.StreakTime{Weekday: w + 1, Period: start + 1, Streak: p - start},
					Course: row[start],
				})
				start = p
			}
		}
	}
	logger.Info("slot log built", zap.Int("timetables", len(tables)), zap.Int("streaks", log.Len()))
	return log
}
