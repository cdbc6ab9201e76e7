// handler.go — основной обработчик API Matching Module.
// Объединяет health и бизнес-обработчики, регистрирует маршруты.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/balliscan/matching-module/internal/service"
)

// APIHandler — основной обработчик API Matching Module.
// Делегирует запросы в сервисный слой.
type APIHandler struct {
	health   *HealthHandler
	matching *service.MatchingService
	export   *service.ExportService
	logger   *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	matching *service.MatchingService,
	export *service.ExportService,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:   health,
		matching: matching,
		export:   export,
		logger:   logger.With(slog.String("component", "api_handler")),
	}
}

// Routes регистрирует бизнес-маршруты /api/v1/matching на роутере.
// Health и metrics регистрируются сервером отдельно — они не проходят
// через JWT middleware.
func (h *APIHandler) Routes(r chi.Router) {
	r.Get("/top", h.GetTopMatching)
	r.Put("/status", h.ChangeStatus)
	r.Get("/export/x3p", h.ExportX3P)
	r.Get("/export/report", h.ExportReport)
}

// --- Health endpoints (делегируются в HealthHandler) ---

// HealthLive — liveness probe.
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe.
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики.
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
