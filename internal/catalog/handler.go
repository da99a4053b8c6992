package catalog

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

// Handler wires HTTP endpoints for the catalog module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
	r.Post("/{id}/adjust-stock", h.handleAdjustStock)
}

type listResponse struct {
	Parts      []Part            `json:"parts"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	req := ListPartsRequest{
		Search:  q.Get("search"),
		Page:    page,
		PerPage: perPage,
	}

	parts, total, err := h.service.ListParts(r.Context(), req)
	if err != nil {
		h.logger.Error("list parts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if parts == nil {
		parts = []Part{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Parts:      parts,
		Pagination: shared.NewPagination(req.Page, req.PerPage, total),
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreatePartRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	part, err := h.service.CreatePart(r.Context(), req, actorID(r))
	if err != nil {
		h.logger.Error("create part", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, part)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	part, err := h.service.GetPart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "get part", err)
		return
	}
	httpx.JSON(w, http.StatusOK, part)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdatePartRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	part, err := h.service.UpdatePart(r.Context(), chi.URLParam(r, "id"), req, actorID(r))
	if err != nil {
		h.respondError(w, "update part", err)
		return
	}
	httpx.JSON(w, http.StatusOK, part)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePart(r.Context(), chi.URLParam(r, "id"), actorID(r)); err != nil {
		h.respondError(w, "delete part", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type adjustStockRequest struct {
	Change int `json:"change" validate:"required"`
}

func (h *Handler) handleAdjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustStockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	result, err := h.service.AdjustStock(r.Context(), AdjustStockInput{
		PartID:  chi.URLParam(r, "id"),
		Change:  req.Change,
		ActorID: actorID(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidChange):
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "quantity change must be non zero")
		case errors.Is(err, ErrInsufficientStock):
			httpx.Problem(w, http.StatusConflict, "Conflict", "stock cannot go below zero")
		case errors.Is(err, ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "part not found")
		default:
			h.logger.Error("adjust stock", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "part not found")
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func actorID(r *http.Request) string {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		return sess.User()
	}
	return ""
}
