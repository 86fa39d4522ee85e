package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Skywind5487/tnfsh-timetable-core/internal/models"
	"github.com/Skywind5487/tnfsh-timetable-core/pkg/logger"
	"github.com/Skywind5487/tnfsh-timetable-core/pkg/response"
)

type timetableCore interface {
	FetchTimetable(ctx context.Context, target string, refresh bool) (*models.Timetable, error)
}

// TimetableHandler serves per-entity weekly grids.
type TimetableHandler struct {
	core timetableCore
}

// NewTimetableHandler constructs handler.
func NewTimetableHandler(core timetableCore) *TimetableHandler {
	return &TimetableHandler{core: core}
}

// Get returns one entity's timetable. The target path segment accepts any
// form the key identifier resolves.
func (h *TimetableHandler) Get(c *gin.Context) {
	target := c.Param("target")
	refresh := c.Query("refresh") == "true"
	t, err := h.core.FetchTimetable(c.Request.Context(), target, refresh)
	if err != nil {
		response.Error(c, err)
		return
	}
	logger.SetTarget(c, t.Target)
	response.JSON(c, http.StatusOK, t)
}
