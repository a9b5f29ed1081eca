package movements

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
	var req CreateMovementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validacion", "cuerpo JSON invalido")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		finshared.RespondError(w, h.logger, finshared.Validationf("%s", err.Error()))
		return
	}
	movement, err := h.service.Create(r.Context(), req, shared.ActorFromContext(r.Context()))
	if err != nil {
		finshared.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, movement)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	movement, err := h.service.Get(r.Context(), id)
	if err != nil {
		finshared.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, movement)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListMovementsRequest{}
	req.Page, req.PerPage = shared.PaginationFromRequest(r, 200)
	q := r.URL.Query()
	if v := q.Get("cuentaId"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.AccountID = &id
		}
	}
	if v := q.Get("estado"); v != "" {
		status := Status(v)
		if !status.Valid() {
			finshared.RespondError(w, h.logger, finshared.Validationf("estado desconocido: %s", v))
			return
		}
		req.Status = &status
	}
	if v := q.Get("direccion"); v != "" {
		direction := Direction(v)
		if !direction.Valid() {
			finshared.RespondError(w, h.logger, finshared.Validationf("direccion desconocida: %s", v))
			return
		}
		req.Direction = &direction
	}
	if v := q.Get("desde"); v != "" {
		if parsed, err := time.Parse("2006-01-02", v); err == nil {
			req.DateFrom = &parsed
		}
	}
	if v := q.Get("hasta"); v != "" {
		if parsed, err := time.Parse("2006-01-02", v); err == nil {
			req.DateTo = &parsed
		}
	}

	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		finshared.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"movimientos": items,
		"paginacion":  shared.NewPagination(req.Page, req.PerPage, total),
	})
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	movement, err := h.service.Confirm(r.Context(), id, shared.ActorFromContext(r.Context()))
	if err != nil {
		finshared.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, movement)
}

func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	movement, err := h.service.Reconcile(r.Context(), id, shared.ActorFromContext(r.Context()))
	if err != nil {
		finshared.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, movement)
}

func (h *Handler) Void(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	var req VoidMovementRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validacion", "cuerpo JSON invalido")
			return
		}
	}
	movement, err := h.service.Void(r.Context(), id, req.Reason, shared.ActorFromContext(r.Context()))
	if err != nil {
		finshared.RespondError(w, h.logger, err)
		return
	}
	if movement.TransferRef != nil {
		h.logger.Warn("voided one leg of a transfer, sibling needs review",
			slog.Int64("movimiento", movement.ID),
			slog.String("transfer_ref", movement.TransferRef.String()))
	}
	httpx.JSON(w, http.StatusOK, movement)
}

func (h *Handler) paramID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validacion", "id invalido")
		return 0, false
	}
	return id, true
}
