package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/servitec-erp/servitec-erp/internal/finance/dashboard"
)

// DashboardWarmupJob rebuilds the cached dashboard snapshot so
// interactive reads never pay the cold-cache cost.
type DashboardWarmupJob struct {
	Dashboard *dashboard.Service
	Logger    *slog.Logger
}

func NewDashboardWarmupJob(svc *dashboard.Service, logger *slog.Logger) *DashboardWarmupJob {
	return &DashboardWarmupJob{Dashboard: svc, Logger: logger}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboard == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	snap, err := j.Dashboard.RefreshSnapshot(ctx)
	if err != nil {
		if j.Logger != nil {
			j.Logger.Error("dashboard warmup", slog.Any("error", err))
		}
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("dashboard snapshot precalculado",
			slog.String("job", "dashboard_warmup"),
			slog.Int("cuentas", len(snap.Accounts)),
			slog.Int("movimientos", len(snap.Recent)))
	}
	return nil
}
