package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Skywind5487/tnfsh-timetable-core/internal/core"
	"github.com/Skywind5487/tnfsh-timetable-core/internal/scheduling"
	"github.com/Skywind5487/tnfsh-timetable-core/pkg/logger"
	"github.com/Skywind5487/tnfsh-timetable-core/pkg/response"
)

type schedulingCore interface {
	Rotation(ctx context.Context, req core.SearchRequest) ([][]*scheduling.CourseNode, error)
	Swap(ctx context.Context, req core.SearchRequest) ([][]*scheduling.CourseNode, error)
}

// SchedulingHandler serves rotation and swap searches.
type SchedulingHandler struct {
	core schedulingCore
}

// NewSchedulingHandler constructs handler.
func NewSchedulingHandler(core schedulingCore) *SchedulingHandler {
	return &SchedulingHandler{core: core}
}

// PathStep is the wire form of one node on a returned path. The graph is
// cyclic, so nodes are flattened rather than serialised directly.
type PathStep struct {
	Weekday int    `json:"weekday"`
	Period  int    `json:"period"`
	Streak  int    `json:"streak"`
	Subject string `json:"subject,omitempty"`
	Teacher string `json:"teacher,omitempty"`
	Class   string `json:"class,omitempty"`
	IsFree  bool   `json:"is_free"`
}

type searchPayload struct {
	Mode  string       `json:"mode"`
	Paths [][]PathStep `json:"paths"`
}

// Rotation runs the cyclic-reassignment search.
func (h *SchedulingHandler) Rotation(c *gin.Context) {
	req := bindSearchRequest(c)
	paths, err := h.core.Rotation(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, searchPayload{Mode: "rotation", Paths: flattenPaths(paths)})
}

// Swap runs the chain-to-free-slot search.
func (h *SchedulingHandler) Swap(c *gin.Context) {
	req := bindSearchRequest(c)
	paths, err := h.core.Swap(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, searchPayload{Mode: "swap", Paths: flattenPaths(paths)})
}

func bindSearchRequest(c *gin.Context) core.SearchRequest {
	req := core.SearchRequest{
		Teacher:  c.Query("teacher"),
		Weekday:  intQuery(c, "weekday"),
		Period:   intQuery(c, "period"),
		MaxDepth: intQuery(c, "maxDepth"),
		Refresh:  c.Query("refresh") == "true",
	}
	logger.SetTarget(c, req.Teacher)
	return req
}

func intQuery(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}

func flattenPaths(paths [][]*scheduling.CourseNode) [][]PathStep {
	out := make([][]PathStep, 0, len(paths))
	for _, path := range paths {
		steps := make([]PathStep, 0, len(path))
		for _, node := range path {
			step := PathStep{
				Weekday: node.Time.Weekday,
				Period:  node.Time.Period,
				Streak:  node.Time.Streak,
				Subject: node.Subject,
				IsFree:  node.IsFree,
			}
			for name := range node.Teachers {
				step.Teacher = name
			}
			for code := range node.Classes {
				step.Class = code
			}
			steps = append(steps, step)
		}
		out = append(out, steps)
	}
	return out
}
