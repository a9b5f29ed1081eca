package accounts

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	finshared "github.com/servitec-erp/servitec-erp/internal/finance/shared"
	"github.com/servitec-erp/servitec-erp/internal/platform/httpx"
	"github.com/servitec-erp/servitec-erp/internal/shared"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validacion", "cuerpo JSON invalido")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		finshared.RespondError(w, h.logger, finshared.Validationf("%s", err.Error()))
		return
	}
	account, err := h.service.Create(r.Context(), req, shared.ActorFromContext(r.Context()))
	if err != nil {
		finshared.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, account)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListAccountsRequest{}
	req.Page, req.PerPage = shared.PaginationFromRequest(r, 200)
	if v := r.URL.Query().Get("tipo"); v != "" {
		kind := Kind(v)
		req.Kind = &kind
	}
	if v := r.URL.Query().Get("activa"); v != "" {
		active := v == "true"
		req.IsActive = &active
	}

	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		finshared.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"cuentas":    items,
		"paginacion": shared.NewPagination(req.Page, req.PerPage, total),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	account, err := h.service.Get(r.Context(), id)
	if err != nil {
		finshared.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	var req UpdateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validacion", "cuerpo JSON invalido")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		finshared.RespondError(w, h.logger, finshared.Validationf("%s", err.Error()))
		return
	}
	account, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		finshared.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		finshared.RespondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	var asOf *time.Time
	if v := r.URL.Query().Get("hasta"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			finshared.RespondError(w, h.logger, finshared.Validationf("hasta debe ser fecha ISO-8601"))
			return
		}
		asOf = &parsed
	}
	balance, err := h.service.Balance(r.Context(), id, asOf)
	if err != nil {
		finshared.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balance)
}

func (h *Handler) paramID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validacion", "id invalido")
		return 0, false
	}
	return id, true
}
