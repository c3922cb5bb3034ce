package notification

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/flow-api/internal/clock"
	"github.com/jwalitptl/flow-api/internal/handler"
	"github.com/jwalitptl/flow-api/internal/service/notification"
)

type Handler struct {
	service *notification.Service
	clock   *clock.SimClock
}

func NewHandler(service *notification.Service, clk *clock.SimClock) *Handler {
	return &Handler{service: service, clock: clk}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("/recent", h.GetRecent)
		notifications.POST("/evaluate", adminOnly, h.Evaluate)
	}
}

func (h *Handler) GetRecent(c *gin.Context) {
	asOf, err := handler.AsOf(c, h.clock)
	if err != nil {
		handler.BadRequest(c, err.Error())
		return
	}

	notices, err := h.service.Recent(c.Request.Context(), asOf)
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.OK(c, notices)
}

func (h *Handler) Evaluate(c *gin.Context) {
	notices, err := h.service.EvaluateWaitNotices(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.OK(c, notices)
}
