package appointment

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/flow-api/internal/handler"
	"github.com/jwalitptl/flow-api/internal/model"
	"github.com/jwalitptl/flow-api/internal/service/appointment"
	"github.com/jwalitptl/flow-api/internal/service/triage"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service *appointment.Service
	triage  *triage.Service
}

func NewHandler(service *appointment.Service, triageSvc *triage.Service) *Handler {
	return &Handler{service: service, triage: triageSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/availability", h.GetAvailability)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PATCH("/:id/status", h.UpdateStatus)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err.Error())
		return
	}

	apt, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.Created(c, apt)
}

// ListAppointments serves the triage view: every appointment scored and
// sorted by urgency, with the queue metrics block alongside.
func (h *Handler) ListAppointments(c *gin.Context) {
	var query model.TriageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		handler.BadRequest(c, err.Error())
		return
	}

	appointments, metrics, err := h.triage.ListAppointments(c.Request.Context(), &query)
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.OK(c, gin.H{
		"appointments": appointments,
		"metrics":      metrics,
	})
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.BadRequest(c, "invalid appointment id")
		return
	}

	apt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.OK(c, apt)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.BadRequest(c, "invalid appointment id")
		return
	}

	var req model.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err.Error())
		return
	}

	apt, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.OK(c, apt)
}

func (h *Handler) GetAvailability(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Query("doctor_id"))
	if err != nil {
		handler.BadRequest(c, "invalid doctor_id")
		return
	}

	day, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		handler.BadRequest(c, "invalid date, expected YYYY-MM-DD")
		return
	}

	slots, err := h.service.Availability(c.Request.Context(), doctorID, day)
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.OK(c, gin.H{
		"doctor_id": doctorID,
		"date":      day.Format(dateLayout),
		"slots":     slots,
	})
}
