package alerts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/partsledger/partsledger/internal/platform/httpx"
	"github.com/partsledger/partsledger/internal/shared"
)

// Handler wires HTTP endpoints for the alerts module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs an alerts handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers alert routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/{id}/resolve", h.handleResolve)
	r.Get("/threshold", h.handleGetThreshold)
	r.Put("/threshold", h.handleUpdateThreshold)
}

type listResponse struct {
	Alerts     []Alert           `json:"alerts"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	req := ListAlertsRequest{Page: page, PerPage: perPage}

	if raw := q.Get("resolved"); raw != "" {
		resolved, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "resolved must be true or false")
			return
		}
		req.Resolved = &resolved
	}

	alerts, total, err := h.service.ListAlerts(r.Context(), req)
	if err != nil {
		h.logger.Error("list alerts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if alerts == nil {
		alerts = []Alert{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Alerts:     alerts,
		Pagination: shared.NewPagination(req.Page, req.PerPage, total),
	})
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	alert, err := h.service.ResolveAlert(r.Context(), chi.URLParam(r, "id"), actorID(r))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "alert not found")
			return
		}
		h.logger.Error("resolve alert", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, alert)
}

func (h *Handler) handleGetThreshold(w http.ResponseWriter, r *http.Request) {
	threshold, err := h.service.Threshold(r.Context())
	if err != nil {
		h.logger.Error("get threshold", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ThresholdSetting{Threshold: threshold})
}

func (h *Handler) handleUpdateThreshold(w http.ResponseWriter, r *http.Request) {
	var req UpdateThresholdRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if err := h.service.UpdateThreshold(r.Context(), req.Threshold, actorID(r)); err != nil {
		h.logger.Error("update threshold", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("low-stock threshold updated", slog.Int("threshold", req.Threshold))
	httpx.JSON(w, http.StatusOK, ThresholdSetting{Threshold: req.Threshold})
}

func actorID(r *http.Request) string {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		return sess.User()
	}
	return ""
}
