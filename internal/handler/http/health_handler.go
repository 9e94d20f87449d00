package http

import (
	"net/http"

	"product-api/internal/logger"
	middleware_http "product-api/internal/middleware/http"
	"product-api/internal/service"

	"go.opentelemetry.io/otel"
)

type HealthHandler struct {
	service *service.HealthService
}

type HealthResponse struct {
	Status string            `json:"status"`
	Data   map[string]string `json:"data"`
}

var HttpHealthHandlerTracer = otel.Tracer("HttpHealthHandler")

func NewHealthHandler(service *service.HealthService) *HealthHandler {
	return &HealthHandler{
		service: service,
	}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) error {
	ctx, span := HttpHealthHandlerTracer.Start(r.Context(), "HttpHealthHandler.Check")
	defer span.End()
	logger.Debug(ctx, "HttpHealthHandler.Check")

	status := h.service.Check(ctx)

	resp := HealthResponse{
		Status: service.StatusUp,
		Data:   map[string]string{"mongodb": status.Mongo},
	}
	code := http.StatusOK
	if !status.Healthy() {
		resp.Status = service.StatusDown
		code = http.StatusInternalServerError
	}

	middleware_http.WriteJSON(w, code, resp)
	return nil
}
