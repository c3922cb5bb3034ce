package schedule

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/flow-api/internal/clock"
	"github.com/jwalitptl/flow-api/internal/handler"
	"github.com/jwalitptl/flow-api/internal/model"
	"github.com/jwalitptl/flow-api/internal/service/schedule"
)

type Handler struct {
	service *schedule.Service
	clock   *clock.SimClock
}

func NewHandler(service *schedule.Service, clk *clock.SimClock) *Handler {
	return &Handler{service: service, clock: clk}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, cached gin.HandlerFunc) {
	group := r.Group("/schedule")
	{
		group.GET("/optimal-slots", cached, h.GetOptimalSlots)
		group.GET("/recommendations", cached, h.GetRecommendations)
	}
}

// findingView pairs the structured finding with its rendered message so API
// consumers can show prose without knowing the taxonomy.
type findingView struct {
	*model.Finding
	Message string `json:"message"`
}

func (h *Handler) GetOptimalSlots(c *gin.Context) {
	asOf, err := handler.AsOf(c, h.clock)
	if err != nil {
		handler.BadRequest(c, err.Error())
		return
	}

	slots, err := h.service.OptimalSlots(c.Request.Context(), asOf)
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.OK(c, slots)
}

func (h *Handler) GetRecommendations(c *gin.Context) {
	asOf, err := handler.AsOf(c, h.clock)
	if err != nil {
		handler.BadRequest(c, err.Error())
		return
	}

	findings, err := h.service.Recommendations(c.Request.Context(), asOf)
	if err != nil {
		handler.Error(c, err)
		return
	}

	views := make([]findingView, 0, len(findings))
	for _, f := range findings {
		views = append(views, findingView{Finding: f, Message: f.Describe()})
	}

	handler.OK(c, views)
}
