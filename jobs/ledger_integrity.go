package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// integrityEpsilon tolerates float rounding when comparing the cached
// balance against the replayed postings.
const integrityEpsilon = 0.005

// LedgerIntegrityJob recomputes each account balance from its postings
// and logs any drift against the cached saldo_actual. The scan is
// read-only; it reports, never repairs.
type LedgerIntegrityJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
}

func NewLedgerIntegrityJob(pool *pgxpool.Pool, logger *slog.Logger) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{Pool: pool, Logger: logger}
}

// Handle processes ledger integrity tasks.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("integridad: handler not configured")
	}
	var payload LedgerIntegrityPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	query := `
		SELECT c.id, c.nombre, c.saldo_actual,
		       c.saldo_inicial + COALESCE(SUM(
		           CASE WHEN m.direccion = 'INGRESO' THEN m.monto ELSE -m.monto END
		       ) FILTER (WHERE m.estado IN ('CONFIRMADO', 'CONCILIADO')), 0)
		FROM cuentas_financieras c
		LEFT JOIN movimientos m ON m.cuenta_id = c.id
		WHERE $1::bigint[] IS NULL OR c.id = ANY($1)
		GROUP BY c.id, c.nombre, c.saldo_actual, c.saldo_inicial`
	var filter any
	if len(payload.AccountIDs) > 0 {
		filter = payload.AccountIDs
	}
	rows, err := j.Pool.Query(ctx, query, filter)
	if err != nil {
		return err
	}
	defer rows.Close()

	scanned, drifted := 0, 0
	for rows.Next() {
		var id int64
		var name string
		var cached, replayed float64
		if err := rows.Scan(&id, &name, &cached, &replayed); err != nil {
			return err
		}
		scanned++
		if math.Abs(cached-replayed) > integrityEpsilon {
			drifted++
			j.logger().Error("saldo desviado",
				slog.Int64("cuenta_id", id),
				slog.String("cuenta", name),
				slog.Float64("saldo_actual", cached),
				slog.Float64("saldo_recalculado", replayed))
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	j.logger().Info("scan de integridad completado",
		slog.String("job", "ledger_integrity"),
		slog.Int("cuentas", scanned),
		slog.Int("desviadas", drifted))
	return nil
}

func (j *LedgerIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
