package chart

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	finshared "github.com/servitec-erp/servitec-erp/internal/finance/shared"
	"github.com/servitec-erp/servitec-erp/internal/platform/httpx"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/arbol", h.Tree)
	r.Get("/{id}", h.Show)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Deactivate)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validacion", "cuerpo JSON invalido")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		finshared.RespondError(w, h.logger, finshared.Validationf("%s", err.Error()))
		return
	}
	node, err := h.service.Create(r.Context(), req)
	if err != nil {
		finshared.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, node)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	onlyActive := r.URL.Query().Get("activa") == "true"
	nodes, err := h.service.List(r.Context(), onlyActive)
	if err != nil {
		finshared.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"cuentasContables": nodes})
}

func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.Tree(r.Context())
	if err != nil {
		finshared.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"arbol": tree})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	node, err := h.service.Get(r.Context(), id)
	if err != nil {
		finshared.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, node)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	var req UpdateNodeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validacion", "cuerpo JSON invalido")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		finshared.RespondError(w, h.logger, finshared.Validationf("%s", err.Error()))
		return
	}
	node, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		finshared.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, node)
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

func (h *Handler) paramID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validacion", "id invalido")
		return 0, false
	}
	return id, true
}
