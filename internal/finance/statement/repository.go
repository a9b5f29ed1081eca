package statement

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the posting sums the builder needs. Read-only; the
// statement never locks rows.
type Repository interface {
	ImputableBalances(ctx context.Context, asOf time.Time) (map[int64]float64, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// ImputableBalances returns the posting total per ledger account,
// signed by direction: INGRESO adds, EGRESO subtracts. The builder
// normalizes expense nodes to their natural sign. Only CONFIRMADO and
// CONCILIADO movements dated on or before the cutoff count; PENDIENTE
// and ANULADO never touch the statement.
func (r *repository) ImputableBalances(ctx context.Context, asOf time.Time) (map[int64]float64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT cuenta_contable_id,
		       COALESCE(SUM(CASE WHEN direccion = 'INGRESO' THEN monto ELSE -monto END), 0)
		FROM movimientos
		WHERE cuenta_contable_id IS NOT NULL
		  AND estado IN ('CONFIRMADO', 'CONCILIADO')
		  AND fecha <= $1
		GROUP BY cuenta_contable_id`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances := map[int64]float64{}
	for rows.Next() {
		var id int64
		var total float64
		if err := rows.Scan(&id, &total); err != nil {
			return nil, err
		}
		balances[id] = total
	}
	return balances, rows.Err()
}
