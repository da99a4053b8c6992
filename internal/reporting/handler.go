package reporting

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/partsledger/partsledger/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the reporting module.
type Handler struct {
	logger  *slog.Logger
	service *Service
	printer *message.Printer
}

// NewHandler constructs a reporting handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		printer: message.NewPrinter(language.English),
	}
}

// MountRoutes registers reporting routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stock-overview", h.handleStockOverview)
	r.Get("/top-sellers", h.handleTopSellers)
	r.Get("/monthly-sales", h.handleMonthlySales)
	r.Get("/monthly-sales.csv", h.handleMonthlySalesCSV)
	r.Get("/summary", h.handleSummary)
}

func (h *Handler) handleStockOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.StockOverview(r.Context())
	if err != nil {
		h.logger.Error("stock overview", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if overview.LowStock == nil {
		overview.LowStock = []PartStock{}
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) handleTopSellers(w http.ResponseWriter, r *http.Request) {
	sellers, err := h.service.TopSellers(r.Context())
	if err != nil {
		h.logger.Error("top sellers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"top_sellers": sellers})
}

func (h *Handler) handleMonthlySales(w http.ResponseWriter, r *http.Request) {
	months, err := h.service.MonthlySales(r.Context())
	if err != nil {
		h.logger.Error("monthly sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"monthly_sales": months})
}

func (h *Handler) handleMonthlySalesCSV(w http.ResponseWriter, r *http.Request) {
	months, err := h.service.MonthlySales(r.Context())
	if err != nil {
		h.logger.Error("monthly sales csv", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	filename := "monthly-sales-" + time.Now().UTC().Format("20060102") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"month", "bills", "revenue"})
	for _, month := range months {
		_ = writer.Write([]string{
			month.Month,
			strconv.Itoa(month.BillCount),
			h.printer.Sprintf("%.2f", month.Revenue),
		})
	}
	writer.Flush()
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.logger.Error("summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
