package analytics

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/flow-api/internal/clock"
	"github.com/jwalitptl/flow-api/internal/handler"
	"github.com/jwalitptl/flow-api/internal/service/analytics"
)

const (
	dateLayout        = "2006-01-02"
	defaultReportDays = 30
)

type Handler struct {
	service *analytics.Service
	clock   *clock.SimClock
}

func NewHandler(service *analytics.Service, clk *clock.SimClock) *Handler {
	return &Handler{service: service, clock: clk}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/analytics")
	{
		group.GET("/summary", h.GetSummary)
		group.GET("/wait-forecast", h.GetWaitForecast)
		group.GET("/patient-flow", h.GetPatientFlow)
		group.GET("/specialty-queues", h.GetSpecialtyQueues)
		group.GET("/report", h.GetReport)
		group.GET("/staff-performance", h.GetStaffPerformance)
	}
}

func (h *Handler) GetSummary(c *gin.Context) {
	asOf, err := handler.AsOf(c, h.clock)
	if err != nil {
		handler.BadRequest(c, err.Error())
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), asOf)
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.OK(c, summary)
}

func (h *Handler) GetWaitForecast(c *gin.Context) {
	asOf, err := handler.AsOf(c, h.clock)
	if err != nil {
		handler.BadRequest(c, err.Error())
		return
	}

	forecast, err := h.service.Forecast(c.Request.Context(), asOf)
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.OK(c, forecast)
}

func (h *Handler) GetPatientFlow(c *gin.Context) {
	asOf, err := handler.AsOf(c, h.clock)
	if err != nil {
		handler.BadRequest(c, err.Error())
		return
	}

	flow, err := h.service.PatientFlow(c.Request.Context(), asOf)
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.OK(c, flow)
}

func (h *Handler) GetSpecialtyQueues(c *gin.Context) {
	queues, err := h.service.SpecialtyQueues(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.OK(c, queues)
}

// GetReport covers the requested date range, defaulting to the thirty days
// up to the clinic's current day.
func (h *Handler) GetReport(c *gin.Context) {
	to := h.clock.Now()
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			handler.BadRequest(c, "invalid 'to' date, expected YYYY-MM-DD")
			return
		}
		to = parsed
	}

	from := to.AddDate(0, 0, -defaultReportDays)
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			handler.BadRequest(c, "invalid 'from' date, expected YYYY-MM-DD")
			return
		}
		from = parsed
	}

	if from.After(to) {
		handler.BadRequest(c, "'from' must not be after 'to'")
		return
	}

	report, err := h.service.Report(c.Request.Context(), from, to)
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.OK(c, report)
}

func (h *Handler) GetStaffPerformance(c *gin.Context) {
	performance, err := h.service.StaffPerformance(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.OK(c, performance)
}
