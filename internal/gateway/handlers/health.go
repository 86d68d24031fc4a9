package handlers

import (
	"net/http"

	"github.com/finnh/taskdeck/pkg/bus"
	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	bus   *bus.Bus
	redis *redis.Client
}

func NewHealthHandler(b *bus.Bus, redis *redis.Client) *HealthHandler {
	return &HealthHandler{bus: b, redis: redis}
}

type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	services := make(map[string]string)
	status := "healthy"

	if h.bus.Connected() {
		services["nats"] = "healthy"
	} else {
		services["nats"] = "unhealthy"
		status = "unhealthy"
	}

	if h.redis != nil {
		if err := h.redis.Ping(r.Context()).Err(); err != nil {
			services["redis"] = "unhealthy"
			status = "unhealthy"
		} else {
			services["redis"] = "healthy"
		}
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, HealthResponse{Status: status, Services: services})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
