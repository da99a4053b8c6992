package billing

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

// Handler wires HTTP endpoints for the billing module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a billing handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers billing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/bills", h.handleList)
	r.Post("/bills", h.handleSubmit)
	r.Get("/bills/{id}", h.handleGet)
}

type listResponse struct {
	Bills      []Bill            `json:"bills"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	req := ListBillsRequest{
		Search:  q.Get("search"),
		Page:    page,
		PerPage: perPage,
	}

	bills, total, err := h.service.ListBills(r.Context(), req)
	if err != nil {
		h.logger.Error("list bills", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if bills == nil {
		bills = []Bill{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Bills:      bills,
		Pagination: shared.NewPagination(req.Page, req.PerPage, total),
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req CreateBillRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	bill, err := h.service.SubmitInvoice(r.Context(), req, actorID(r))
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrInvalidQuantity):
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		case errors.Is(err, ErrUnknownPart):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Unprocessable Entity", "one or more lines reference an unknown part")
		case errors.Is(err, ErrInsufficientStock):
			httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
		default:
			h.logger.Error("submit invoice", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}

	h.logger.Info("invoice submitted",
		slog.Int64("invoice_number", bill.InvoiceNumber),
		slog.Float64("total_amount", bill.TotalAmount),
	)
	httpx.JSON(w, http.StatusCreated, bill)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	bill, err := h.service.GetBill(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "bill not found")
			return
		}
		h.logger.Error("get bill", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

func actorID(r *http.Request) string {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		return sess.User()
	}
	return ""
}
