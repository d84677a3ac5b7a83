package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/user-orders-service/pkg/response"
)

// Pinger is anything whose liveness can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	Store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{Store: store}
}

// Health GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.Store.Ping(ctx); err != nil {
		response.Error(c, http.StatusServiceUnavailable, "store unavailable", response.ErrorBody{
			Code:        http.StatusServiceUnavailable,
			Description: err.Error(),
		})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok"}, "healthy")
}
