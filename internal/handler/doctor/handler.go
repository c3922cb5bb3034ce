package doctor

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/flow-api/internal/clock"
	"github.com/jwalitptl/flow-api/internal/handler"
	"github.com/jwalitptl/flow-api/internal/model"
	"github.com/jwalitptl/flow-api/internal/service/doctor"
)

type Handler struct {
	service *doctor.Service
	clock   *clock.SimClock
}

func NewHandler(service *doctor.Service, clk *clock.SimClock) *Handler {
	return &Handler{service: service, clock: clk}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	doctors := r.Group("/doctors")
	{
		doctors.POST("", adminOnly, h.CreateDoctor)
		doctors.GET("", h.ListDoctors)
		doctors.GET("/load", h.GetLoad)
		doctors.GET("/rebalance", h.GetRebalance)
		doctors.GET("/:id", h.GetDoctor)
		doctors.PATCH("/:id/availability", adminOnly, h.UpdateAvailability)
	}
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	var req model.CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err.Error())
		return
	}

	doc, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.Created(c, doc)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.service.List(c.Request.Context(), c.Query("specialty"))
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.OK(c, doctors)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.BadRequest(c, "invalid doctor id")
		return
	}

	doc, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.OK(c, doc)
}

func (h *Handler) UpdateAvailability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.BadRequest(c, "invalid doctor id")
		return
	}

	var req model.UpdateDoctorAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err.Error())
		return
	}

	doc, err := h.service.SetAvailability(c.Request.Context(), id, *req.Available)
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.OK(c, doc)
}

func (h *Handler) GetLoad(c *gin.Context) {
	asOf, err := handler.AsOf(c, h.clock)
	if err != nil {
		handler.BadRequest(c, err.Error())
		return
	}

	loads, err := h.service.Load(c.Request.Context(), asOf)
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.OK(c, loads)
}

func (h *Handler) GetRebalance(c *gin.Context) {
	asOf, err := handler.AsOf(c, h.clock)
	if err != nil {
		handler.BadRequest(c, err.Error())
		return
	}

	suggestions, err := h.service.Rebalance(c.Request.Context(), asOf)
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.OK(c, suggestions)
}
