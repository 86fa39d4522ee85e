package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skywind5487/tnfsh-timetable-core/internal/core"
	"github.com/Skywind5487/tnfsh-timetable-core/internal/models"
	"github.com/Skywind5487/tnfsh-timetable-core/internal/scheduling"
	appErrors "github.com/Skywind5487/tnfsh-timetable-core/pkg/errors"
	"github.com/Skywind5487/tnfsh-timetable-core/pkg/response"
)

type stubSchedulingCore struct {
	lastReq core.SearchRequest
	paths   [][]*scheduling.CourseNode
	err     error
}

func (s *stubSchedulingCore) Rotation(_ context.Context, req core.SearchRequest) ([][]*scheduling.CourseNode, error) {
	s.lastReq = req
	return s.paths, s.err
}

func (s *stubSchedulingCore) Swap(_ context.Context, req core.SearchRequest) ([][]*scheduling.CourseNode, error) {
	s.lastReq = req
	return s.paths, s.err
}

func stubPath() [][]*scheduling.CourseNode {
	teacher := &scheduling.TeacherNode{Name: "王大明", Courses: scheduling.NewSlotMap()}
	class := &scheduling.ClassNode{Code: "101", Courses: scheduling.NewSlotMap()}
	busy := &scheduling.CourseNode{
		Time:     models.StreakTime{Weekday: 1, Period: 1, Streak: 1},
		Subject:  "國文",
		Teachers: map[string]*scheduling.TeacherNode{teacher.Name: teacher},
		Classes:  map[string]*scheduling.ClassNode{class.Code: class},
	}
	free := &scheduling.CourseNode{
		Time:    models.StreakTime{Weekday: 1, Period: 2, Streak: 1},
		IsFree:  true,
		Classes: map[string]*scheduling.ClassNode{class.Code: class},
	}
	return [][]*scheduling.CourseNode{{busy, free}}
}

func performRequest(t *testing.T, stub *stubSchedulingCore, url string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewSchedulingHandler(stub)
	r.GET("/scheduling/rotation", h.Rotation)
	r.GET("/scheduling/swap", h.Swap)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRotationEndpointFlattensPaths(t *testing.T) {
	stub := &stubSchedulingCore{paths: stubPath()}
	w := performRequest(t, stub, "/scheduling/rotation?teacher=王大明&weekday=1&period=1&maxDepth=5")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, core.SearchRequest{Teacher: "王大明", Weekday: 1, Period: 1, MaxDepth: 5}, stub.lastReq)

	var env struct {
		Data searchPayload `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "rotation", env.Data.Mode)
	require.Len(t, env.Data.Paths, 1)
	require.Len(t, env.Data.Paths[0], 2)

	first := env.Data.Paths[0][0]
	assert.Equal(t, "王大明", first.Teacher)
	assert.Equal(t, "101", first.Class)
	assert.Equal(t, "國文", first.Subject)
	assert.False(t, first.IsFree)

	last := env.Data.Paths[0][1]
	assert.True(t, last.IsFree)
	assert.Empty(t, last.Teacher)
}

func TestSwapEndpointPropagatesTypedErrors(t *testing.T) {
	stub := &stubSchedulingCore{err: appErrors.ErrFreePeriod.With("nothing to move")}
	w := performRequest(t, stub, "/scheduling/swap?teacher=王大明&weekday=1&period=3")

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrFreePeriod.Code, env.Error.Code)
}

func TestSwapEndpointRefreshFlag(t *testing.T) {
	stub := &stubSchedulingCore{paths: nil}
	w := performRequest(t, stub, "/scheduling/swap?teacher=Tim&weekday=2&period=4&refresh=true")

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, stub.lastReq.Refresh)
	assert.Equal(t, 2, stub.lastReq.Weekday)
}
