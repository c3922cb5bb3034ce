package prediction

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/flow-api/internal/clock"
	"github.com/jwalitptl/flow-api/internal/handler"
	"github.com/jwalitptl/flow-api/internal/model"
	"github.com/jwalitptl/flow-api/internal/service/prediction"
)

type Handler struct {
	service *prediction.Service
	clock   *clock.SimClock
}

func NewHandler(service *prediction.Service, clk *clock.SimClock) *Handler {
	return &Handler{service: service, clock: clk}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	r.POST("/model/train", adminOnly, h.TrainModel)
	r.GET("/model", h.GetModel)

	predictions := r.Group("/predictions")
	{
		predictions.POST("", h.Predict)
		predictions.GET("/upcoming", h.PredictUpcoming)
	}
}

// TrainModel retrains from completed visits. Too little history is not a
// server fault, so it reports 422 with the unchanged-model result rather
// than an error status.
func (h *Handler) TrainModel(c *gin.Context) {
	result, err := h.service.Train(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	if !result.Trained {
		c.JSON(http.StatusUnprocessableEntity, &handler.Response{
			Status:  "error",
			Message: result.Reason,
			Data:    result,
		})
		return
	}

	handler.OK(c, result)
}

func (h *Handler) GetModel(c *gin.Context) {
	handler.OK(c, h.service.Info())
}

func (h *Handler) Predict(c *gin.Context) {
	var req model.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err.Error())
		return
	}

	handler.OK(c, gin.H{
		"predicted_wait_minutes": h.service.Predict(&req),
	})
}

func (h *Handler) PredictUpcoming(c *gin.Context) {
	asOf, err := handler.AsOf(c, h.clock)
	if err != nil {
		handler.BadRequest(c, err.Error())
		return
	}

	predictions, err := h.service.PredictUpcoming(c.Request.Context(), asOf)
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.OK(c, predictions)
}
