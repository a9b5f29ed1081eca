package dashboard

import (
	"log/slog"
	"net/http"
	"strconv"
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
	r.Get("/dashboard", h.Dashboard)
	r.Get("/saldos", h.Balances)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("mes") != "" || q.Get("anio") != "" {
		h.monthly(w, r)
		return
	}
	snap, err := h.service.GetSnapshot(r.Context())
	if err != nil {
		finshared.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

func (h *Handler) monthly(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := time.Now()
	month, year := int(now.Month()), now.Year()
	if v := q.Get("mes"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validacion", "mes invalido")
			return
		}
		month = parsed
	}
	if v := q.Get("anio"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validacion", "anio invalido")
			return
		}
		year = parsed
	}
	var accountIDs []int64
	for _, v := range q["cuentaId"] {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validacion", "cuentaId invalido")
			return
		}
		accountIDs = append(accountIDs, id)
	}
	totals, err := h.service.GetMonthlyTotals(r.Context(), month, year, accountIDs)
	if err != nil {
		finshared.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, totals)
}

func (h *Handler) Balances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.service.GetBalances(r.Context())
	if err != nil {
		finshared.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"cuentas": balances})
}
