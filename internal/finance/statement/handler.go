package statement

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	finshared "github.com/servitec-erp/servitec-erp/internal/finance/shared"
	"github.com/servitec-erp/servitec-erp/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/balance-contable", h.BalanceSheet)
}

func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	var asOf *time.Time
	if v := r.URL.Query().Get("fechaHasta"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validacion", "fechaHasta invalida, se espera AAAA-MM-DD")
			return
		}
		// End of day so movements dated that day are included.
		cutoff := parsed.Add(24*time.Hour - time.Nanosecond)
		asOf = &cutoff
	}
	sheet, err := h.service.BalanceSheet(r.Context(), asOf)
	if err != nil {
		finshared.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sheet)
}
