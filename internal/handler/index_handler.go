package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Skywind5487/tnfsh-timetable-core/internal/models"
	"github.com/Skywind5487/tnfsh-timetable-core/pkg/logger"
	"github.com/Skywind5487/tnfsh-timetable-core/pkg/response"
)

type indexCore interface {
	FetchIndex(ctx context.Context, refresh bool) (*models.FullIndex, error)
	ResolveTarget(ctx context.Context, target string, refresh bool) (models.TargetInfo, error)
}

// IndexHandler serves the directory index and key resolution.
type IndexHandler struct {
	core indexCore
}

// NewIndexHandler constructs handler.
func NewIndexHandler(core indexCore) *IndexHandler {
	return &IndexHandler{core: core}
}

type indexPayload struct {
	LastUpdate  string              `json:"last_update"`
	Teacher     models.CategoryMap  `json:"teacher"`
	Class       models.CategoryMap  `json:"class"`
	Conflicts   map[string][]string `json:"conflicts,omitempty"`
	TargetToURL map[string]string   `json:"target_to_url"`
}

// Get returns the full index with its derived views.
func (h *IndexHandler) Get(c *gin.Context) {
	refresh := c.Query("refresh") == "true"
	idx, err := h.core.FetchIndex(c.Request.Context(), refresh)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, indexPayload{
		LastUpdate:  idx.LastUpdate,
		Teacher:     idx.Teacher,
		Class:       idx.Class,
		Conflicts:   idx.TargetToConflictingIDs,
		TargetToURL: idx.TargetToURL(),
	})
}

type resolvePayload struct {
	Target   string      `json:"target"`
	Category string      `json:"category"`
	URL      string      `json:"url"`
	ID       string      `json:"id"`
	Role     models.Role `json:"role"`
}

// Resolve maps a raw user key onto its canonical target.
func (h *IndexHandler) Resolve(c *gin.Context) {
	q := c.Query("q")
	refresh := c.Query("refresh") == "true"
	info, err := h.core.ResolveTarget(c.Request.Context(), q, refresh)
	if err != nil {
		response.Error(c, err)
		return
	}
	logger.SetTarget(c, info.Target)
	response.JSON(c, http.StatusOK, resolvePayload{
		Target:   info.Target,
		Category: info.Category,
		URL:      info.URL,
		ID:       info.ID(),
		Role:     info.Role(),
	})
}
