package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	finshared "github.com/servitec-erp/servitec-erp/internal/finance/shared"
	"github.com/servitec-erp/servitec-erp/internal/platform/db"
)

type Repository interface {
	Create(ctx context.Context, account Account) (int64, error)
	Get(ctx context.Context, id int64) (*Account, error)
	List(ctx context.Context, req ListAccountsRequest) ([]Account, int, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Deactivate(ctx context.Context, id int64) error
	BalanceAsOf(ctx context.Context, id int64, asOf time.Time) (float64, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, nombre, tipo, banco, numero_cuenta, cbu, saldo_inicial, saldo_actual, moneda, activa, tasa, vencimiento, registrado_por_id, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Name, &a.Kind, &a.Bank, &a.AccountNumber, &a.RoutingCode,
		&a.InitialBalance, &a.CurrentBalance, &a.Currency, &a.IsActive,
		&a.Rate, &a.MaturityDate, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, finshared.NotFoundf("cuenta financiera")
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) Create(ctx context.Context, account Account) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO cuentas_financieras
(nombre, tipo, banco, numero_cuenta, cbu, saldo_inicial, saldo_actual, moneda, activa, tasa, vencimiento, registrado_por_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING id`,
		account.Name, account.Kind, account.Bank, account.AccountNumber, account.RoutingCode,
		account.InitialBalance, account.CurrentBalance, account.Currency, account.IsActive,
		account.Rate, account.MaturityDate, account.CreatedBy).Scan(&id)
	return id, err
}

func (r *repository) Get(ctx context.Context, id int64) (*Account, error) {
	return scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM cuentas_financieras WHERE id=$1`, id))
}

func (r *repository) List(ctx context.Context, req ListAccountsRequest) ([]Account, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	argPos := 1

	if req.Kind != nil {
		conditions = append(conditions, fmt.Sprintf("tipo = $%d", argPos))
		args = append(args, *req.Kind)
		argPos++
	}
	if req.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("activa = $%d", argPos))
		args = append(args, *req.IsActive)
		argPos++
	}
	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM cuentas_financieras `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if req.Page > 1 {
		offset = (req.Page - 1) * limit
	}
	query := fmt.Sprintf(`SELECT %s FROM cuentas_financieras %s ORDER BY nombre ASC LIMIT $%d OFFSET $%d`,
		accountColumns, where, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *account)
	}
	return out, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	sets := make([]string, 0, len(updates)+1)
	args := make([]any, 0, len(updates)+1)
	argPos := 1
	for col, val := range updates {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, argPos))
		args = append(args, val)
		argPos++
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE cuentas_financieras SET %s WHERE id = $%d`, strings.Join(sets, ", "), argPos)
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return finshared.NotFoundf("cuenta financiera")
	}
	return nil
}

// Deactivate soft-deletes the account inside one transaction: the row
// lock keeps a concurrent movement insert from slipping past the
// unresolved-movements check.
func (r *repository) Deactivate(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT TRUE FROM cuentas_financieras WHERE id=$1 FOR UPDATE`, id).Scan(&exists); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return finshared.NotFoundf("cuenta financiera")
			}
			return err
		}
		var open int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM movimientos WHERE cuenta_id=$1 AND estado IN ('PENDIENTE','CONFIRMADO')`, id).Scan(&open); err != nil {
			return err
		}
		if open > 0 {
			return finshared.Conflictf("la cuenta %d tiene %d movimientos sin resolver", id, open)
		}
		_, err := tx.Exec(ctx, `UPDATE cuentas_financieras SET activa=FALSE, updated_at=NOW() WHERE id=$1`, id)
		return err
	})
}

// BalanceAsOf returns the signed sum of confirmed/reconciled movements
// dated on or before asOf. The caller adds saldo_inicial.
func (r *repository) BalanceAsOf(ctx context.Context, id int64, asOf time.Time) (float64, error) {
	var sum float64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(CASE WHEN direccion='INGRESO' THEN monto ELSE -monto END), 0)
FROM movimientos WHERE cuenta_id=$1 AND estado IN ('CONFIRMADO','CONCILIADO') AND fecha <= $2`, id, asOf).Scan(&sum)
	return sum, err
}
