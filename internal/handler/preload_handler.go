package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Skywind5487/tnfsh-timetable-core/internal/timetable"
	"github.com/Skywind5487/tnfsh-timetable-core/pkg/config"
	appErrors "github.com/Skywind5487/tnfsh-timetable-core/pkg/errors"
	"github.com/Skywind5487/tnfsh-timetable-core/pkg/response"
)

type preloadCore interface {
	Preload(ctx context.Context, opts config.PreloadConfig) (*timetable.PreloadReport, error)
}

// PreloadHandler triggers bulk cache warming.
type PreloadHandler struct {
	core     preloadCore
	defaults config.PreloadConfig
}

// NewPreloadHandler constructs handler.
func NewPreloadHandler(core preloadCore, defaults config.PreloadConfig) *PreloadHandler {
	return &PreloadHandler{core: core, defaults: defaults}
}

type preloadRequest struct {
	MaxConcurrent int    `json:"maxConcurrent" binding:"omitempty,min=1,max=32"`
	Delay         string `json:"delay"`
	OnlyMissing   *bool  `json:"onlyMissing"`
}

// Run warms the timetable cache for every indexed target.
func (h *PreloadHandler) Run(c *gin.Context) {
	opts := h.defaults

	var req preloadRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.ErrValidation.With("invalid preload payload").Because(err))
			return
		}
		if req.MaxConcurrent > 0 {
			opts.MaxConcurrent = req.MaxConcurrent
		}
		if req.Delay != "" {
			d, err := time.ParseDuration(req.Delay)
			if err != nil {
				response.Error(c, appErrors.ErrValidation.With("delay must be a duration string"))
				return
			}
			opts.Delay = d
		}
		if req.OnlyMissing != nil {
			opts.OnlyMissing = *req.OnlyMissing
		}
	}

	report, err := h.core.Preload(c.Request.Context(), opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}
