package clock

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/flow-api/internal/clock"
	"github.com/jwalitptl/flow-api/internal/handler"
	"github.com/jwalitptl/flow-api/internal/model"
)

type Handler struct {
	clock *clock.SimClock
}

func NewHandler(clk *clock.SimClock) *Handler {
	return &Handler{clock: clk}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	r.GET("/clock", h.GetClock)
	r.POST("/clock", adminOnly, h.UpdateClock)
}

func (h *Handler) GetClock(c *gin.Context) {
	handler.OK(c, h.state())
}

// UpdateClock pins or advances the simulated time. The whole engine reads
// this clock, so moving it replays the day for every endpoint at once.
func (h *Handler) UpdateClock(c *gin.Context) {
	var req model.UpdateClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err.Error())
		return
	}

	switch {
	case req.Time != nil && req.AdvanceMinutes > 0:
		handler.BadRequest(c, "set either time or advance_minutes, not both")
		return
	case req.Time != nil:
		h.clock.Set(*req.Time)
	case req.AdvanceMinutes > 0:
		h.clock.Advance(time.Duration(req.AdvanceMinutes) * time.Minute)
	default:
		handler.BadRequest(c, "either time or advance_minutes is required")
		return
	}

	handler.OK(c, h.state())
}

func (h *Handler) state() *model.ClockState {
	return &model.ClockState{
		Now:    h.clock.Now(),
		Frozen: h.clock.Frozen(),
	}
}
