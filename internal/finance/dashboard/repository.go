package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountBalance is one row of the saldos panel.
type AccountBalance struct {
	AccountID int64   `json:"cuentaId"`
	Name      string  `json:"nombre"`
	Kind      string  `json:"tipo"`
	Currency  string  `json:"moneda"`
	Balance   float64 `json:"saldo"`
}

// RecentMovement is a trimmed movement row for the activity feed.
type RecentMovement struct {
	ID          int64     `json:"id"`
	Code        string    `json:"codigo"`
	Direction   string    `json:"direccion"`
	Category    string    `json:"categoria"`
	Amount      float64   `json:"monto"`
	Currency    string    `json:"moneda"`
	Description string    `json:"descripcion"`
	Date        time.Time `json:"fecha"`
	AccountID   int64     `json:"cuentaId"`
	Status      string    `json:"estado"`
}

// MonthlyTotals sums postings per direction for one calendar month.
type MonthlyTotals struct {
	Month   int     `json:"mes"`
	Year    int     `json:"anio"`
	Income  float64 `json:"ingresos"`
	Expense float64 `json:"egresos"`
	Net     float64 `json:"neto"`
}

// Repository exposes the read queries the dashboard aggregates. All
// reads; none of them take locks.
type Repository interface {
	ActiveBalances(ctx context.Context) ([]AccountBalance, error)
	RecentMovements(ctx context.Context, limit int) ([]RecentMovement, error)
	MonthlyTotals(ctx context.Context, month, year int, accountIDs []int64) (MonthlyTotals, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ActiveBalances(ctx context.Context) ([]AccountBalance, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, nombre, tipo, moneda, saldo_actual
		FROM cuentas_financieras
		WHERE activa = TRUE
		ORDER BY nombre`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.AccountID, &b.Name, &b.Kind, &b.Currency, &b.Balance); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

func (r *repository) RecentMovements(ctx context.Context, limit int) ([]RecentMovement, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, codigo, direccion, categoria, monto, moneda, descripcion, fecha, cuenta_id, estado
		FROM movimientos
		WHERE estado <> 'ANULADO'
		ORDER BY fecha DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []RecentMovement
	for rows.Next() {
		var m RecentMovement
		if err := rows.Scan(&m.ID, &m.Code, &m.Direction, &m.Category, &m.Amount, &m.Currency, &m.Description, &m.Date, &m.AccountID, &m.Status); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (r *repository) MonthlyTotals(ctx context.Context, month, year int, accountIDs []int64) (MonthlyTotals, error) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	query := `
		SELECT COALESCE(SUM(CASE WHEN direccion = 'INGRESO' THEN monto ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN direccion = 'EGRESO' THEN monto ELSE 0 END), 0)
		FROM movimientos
		WHERE estado IN ('CONFIRMADO', 'CONCILIADO')
		  AND fecha >= $1 AND fecha < $2`
	args := []any{from, to}
	if len(accountIDs) > 0 {
		query += ` AND cuenta_id = ANY($3)`
		args = append(args, accountIDs)
	}

	totals := MonthlyTotals{Month: month, Year: year}
	if err := r.db.QueryRow(ctx, query, args...).Scan(&totals.Income, &totals.Expense); err != nil {
		return MonthlyTotals{}, err
	}
	totals.Net = totals.Income - totals.Expense
	return totals, nil
}
