package movements

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	finshared "github.com/servitec-erp/servitec-erp/internal/finance/shared"
)

// Repository encapsulates DB operations for movements. Balance writes
// are only reachable through WithTx so a status change and its delta
// always share one transaction.
type Repository interface {
	Get(ctx context.Context, id int64) (Movement, error)
	List(ctx context.Context, req ListMovementsRequest) ([]Movement, int, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// AccountRef is the slice of the account row a movement transaction
// needs while holding the row lock.
type AccountRef struct {
	ID       int64
	Currency string
	IsActive bool
	Balance  float64
}

// LedgerRef is the classification-node slice used to validate postings.
type LedgerRef struct {
	ID        int64
	Imputable bool
	IsActive  bool
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	InsertMovement(ctx context.Context, movement Movement) (Movement, error)
	GetMovementForUpdate(ctx context.Context, id int64) (Movement, error)
	UpdateMovementStatus(ctx context.Context, id int64, status Status, voidReason *string) error

	// Account operations needed within movement transactions. The FOR
	// UPDATE lock serializes concurrent confirmations on one account.
	GetAccountForUpdate(ctx context.Context, accountID int64) (AccountRef, error)
	ApplyAccountDelta(ctx context.Context, accountID int64, delta float64) error

	GetLedgerAccountRef(ctx context.Context, id int64) (LedgerRef, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const movementColumns = `id, codigo, direccion, categoria, medio_pago, monto, moneda, descripcion, comprobante_url, fecha, cuenta_id, cuenta_contable_id, cliente_id, centro_costo_id, ticket_id, transfer_ref, estado, motivo_anulacion, registrado_por_id, created_at, updated_at`

func scanMovement(row pgx.Row) (Movement, error) {
	var m Movement
	err := row.Scan(&m.ID, &m.Code, &m.Direction, &m.CategoryCode, &m.PaymentMethod,
		&m.Amount, &m.Currency, &m.Description, &m.ReceiptURL, &m.Date,
		&m.AccountID, &m.LedgerAccountID, &m.CustomerID, &m.CostCenterID, &m.TicketID,
		&m.TransferRef, &m.Status, &m.VoidReason, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Movement{}, finshared.NotFoundf("movimiento")
		}
		return Movement{}, err
	}
	return m, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Movement, error) {
	return scanMovement(r.db.QueryRow(ctx, `SELECT `+movementColumns+` FROM movimientos WHERE id=$1`, id))
}

func (r *repository) List(ctx context.Context, req ListMovementsRequest) ([]Movement, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	argPos := 1

	add := func(cond string, val any) {
		conditions = append(conditions, fmt.Sprintf(cond, argPos))
		args = append(args, val)
		argPos++
	}
	if req.AccountID != nil {
		add("cuenta_id = $%d", *req.AccountID)
	}
	if req.Status != nil {
		add("estado = $%d", *req.Status)
	}
	if req.Direction != nil {
		add("direccion = $%d", *req.Direction)
	}
	if req.DateFrom != nil {
		add("fecha >= $%d", *req.DateFrom)
	}
	if req.DateTo != nil {
		add("fecha <= $%d", *req.DateTo)
	}
	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM movimientos `+where, args...).Scan(&total); err != nil {
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
	query := fmt.Sprintf(`SELECT %s FROM movimientos %s ORDER BY fecha DESC, id DESC LIMIT $%d OFFSET $%d`,
		movementColumns, where, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("%w: begin: %v", finshared.ErrAtomicity, err)
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", finshared.ErrAtomicity, err)
	}
	return nil
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO movimientos
(codigo, direccion, categoria, medio_pago, monto, moneda, descripcion, comprobante_url, fecha, cuenta_id, cuenta_contable_id, cliente_id, centro_costo_id, ticket_id, transfer_ref, estado, registrado_por_id)
VALUES ('', $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
RETURNING id, created_at, updated_at`,
		m.Direction, m.CategoryCode, m.PaymentMethod, toNumeric(m.Amount), m.Currency,
		m.Description, m.ReceiptURL, m.Date, m.AccountID, m.LedgerAccountID,
		m.CustomerID, m.CostCenterID, m.TicketID, m.TransferRef, m.Status, nullInt(m.CreatedBy))
	if err := row.Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return Movement{}, err
	}
	m.Code = fmt.Sprintf("MOV-%06d", m.ID)
	if _, err := r.tx.Exec(ctx, `UPDATE movimientos SET codigo=$2 WHERE id=$1`, m.ID, m.Code); err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.ConstraintName == "uq_movimientos_codigo" {
			return Movement{}, finshared.Conflictf("codigo %s duplicado", m.Code)
		}
		return Movement{}, err
	}
	return m, nil
}

func (r *txRepository) GetMovementForUpdate(ctx context.Context, id int64) (Movement, error) {
	return scanMovement(r.tx.QueryRow(ctx, `SELECT `+movementColumns+` FROM movimientos WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) UpdateMovementStatus(ctx context.Context, id int64, status Status, voidReason *string) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE movimientos SET estado=$2, motivo_anulacion=COALESCE($3, motivo_anulacion), updated_at=NOW() WHERE id=$1`, id, status, voidReason)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return finshared.NotFoundf("movimiento")
	}
	return nil
}

func (r *txRepository) GetAccountForUpdate(ctx context.Context, accountID int64) (AccountRef, error) {
	var ref AccountRef
	err := r.tx.QueryRow(ctx, `SELECT id, moneda, activa, saldo_actual FROM cuentas_financieras WHERE id=$1 FOR UPDATE`, accountID).
		Scan(&ref.ID, &ref.Currency, &ref.IsActive, &ref.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountRef{}, finshared.NotFoundf("cuenta financiera")
		}
		return AccountRef{}, err
	}
	return ref, nil
}

func (r *txRepository) ApplyAccountDelta(ctx context.Context, accountID int64, delta float64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE cuentas_financieras SET saldo_actual = saldo_actual + $2, updated_at=NOW() WHERE id=$1`, accountID, toNumeric(delta))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return finshared.NotFoundf("cuenta financiera")
	}
	return nil
}

func (r *txRepository) GetLedgerAccountRef(ctx context.Context, id int64) (LedgerRef, error) {
	var ref LedgerRef
	err := r.tx.QueryRow(ctx, `SELECT id, imputable, activa FROM cuentas_contables WHERE id=$1`, id).
		Scan(&ref.ID, &ref.Imputable, &ref.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LedgerRef{}, finshared.NotFoundf("cuenta contable")
		}
		return LedgerRef{}, err
	}
	return ref, nil
}

// Helpers
func nullInt(val int64) any {
	if val == 0 {
		return nil
	}
	return val
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
