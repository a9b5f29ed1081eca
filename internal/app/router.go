package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/servitec-erp/servitec-erp/internal/finance/accounts"
	"github.com/servitec-erp/servitec-erp/internal/finance/chart"
	"github.com/servitec-erp/servitec-erp/internal/finance/dashboard"
	"github.com/servitec-erp/servitec-erp/internal/finance/movements"
	"github.com/servitec-erp/servitec-erp/internal/finance/statement"
	"github.com/servitec-erp/servitec-erp/internal/finance/transfers"
	"github.com/servitec-erp/servitec-erp/internal/observability"
	"github.com/servitec-erp/servitec-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	AccountsHandler  *accounts.Handler
	MovementsHandler *movements.Handler
	TransfersHandler *transfers.Handler
	ChartHandler     *chart.Handler
	StatementHandler *statement.Handler
	DashboardHandler *dashboard.Handler
	JobHandler       *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with Servitec defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/cuentas", params.AccountsHandler.MountRoutes)
	r.Route("/movimientos", params.MovementsHandler.MountRoutes)
	r.Route("/transferencias", params.TransfersHandler.MountRoutes)
	r.Route("/cuentas-contables", params.ChartHandler.MountRoutes)
	r.Route("/finanzas", func(r chi.Router) {
		params.StatementHandler.MountRoutes(r)
		params.DashboardHandler.MountRoutes(r)
	})
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
