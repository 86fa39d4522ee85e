package slotlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Skywind5487/tnfsh-timetable-core/internal/models"
)

func course(subject, participant string) *models.CourseInfo {
	return &models.CourseInfo{
		Subject:     subject,
		Counterpart: []models.CounterPart{{Participant: participant, URL: participant + ".html"}},
	}
}

func tableOf(rows ...[]*models.CourseInfo) *models.Timetable {
	t := &models.Timetable{Target: "101", Table: rows}
	return t
}

func TestBuildCompressesRuns(t *testing.T) {
	math := course("數學", "TA01")
	eng := course("英文", "TA02")

	row := []*models.CourseInfo{math, math, nil, eng, nil, nil, nil, math}
	log := Build([]*models.Timetable{tableOf(row, nil, nil, nil, nil)}, zap.NewNop())

	want := []struct {
		period, streak int
		course         *models.CourseInfo
	}{
		{1, 2, math},
		{3, 1, nil},
		{4, 1, eng},
		{5, 3, nil},
		{8, 1, math},
	}
	entries := log.Entries()
	require.Len(t, entries, len(want))
	for i, w := range want {
		assert.Equal(t, 1, entries[i].Time.Weekday)
		assert.Equal(t, w.period, entries[i].Time.Period)
		assert.Equal(t, w.streak, entries[i].Time.Streak)
		assert.True(t, entries[i].Course.Equal(w.course))
	}
}

// For every weekday the emitted streak lengths sum to the row length.
func TestBuildStreakConservation(t *testing.T) {
	math := course("數學", "TA01")
	eng := course("英文", "TA02")
	rows := [][]*models.CourseInfo{
		{math, math, math, nil, eng, eng, nil, nil},
		{nil, nil, nil, nil, nil, nil, nil, nil},
		{math, eng, math, eng, math, eng, math, eng},
		{eng, eng, eng, eng, eng, eng, eng, eng},
		{nil, math, math, nil, nil, eng, nil, math},
	}

	log := Build([]*models.Timetable{tableOf(rows...)}, zap.NewNop())

	sums := make(map[int]int)
	for _, e := range log.Entries() {
		sums[e.Time.Weekday] += e.Time.Streak
	}
	for w := 1; w <= 5; w++ {
		assert.Equal(t, 8, sums[w], "weekday %d", w)
	}
}

// Cells are equal only when subject and the full counterpart list match.
func TestBuildDistinguishesCounterparts(t *testing.T) {
	a := course("數學", "TA01")
	b := course("數學", "TA02")

	log := Build([]*models.Timetable{tableOf(
		[]*models.CourseInfo{a, b}, nil, nil, nil, nil,
	)}, zap.NewNop())

	require.Equal(t, 2, log.Len())
	first, ok := log.Get("101", models.Slot{Weekday: 1, Period: 1})
	require.True(t, ok)
	assert.Equal(t, 1, first.Time.Streak)
}

func TestLogLookupIgnoresStreak(t *testing.T) {
	log := NewLog()
	log.Add(Entry{Source: "101", Time: models.StreakTime{Weekday: 1, Period: 2, Streak: 3}})

	got, ok := log.Get("101", models.Slot{Weekday: 1, Period: 2})
	require.True(t, ok)
	assert.Equal(t, 3, got.Time.Streak)

	_, ok = log.Get("101", models.Slot{Weekday: 1, Period: 3})
	assert.False(t, ok)
}
