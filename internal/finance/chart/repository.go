package chart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	finshared "github.com/servitec-erp/servitec-erp/internal/finance/shared"
)

type Repository interface {
	Create(ctx context.Context, node Node) (int64, error)
	Get(ctx context.Context, id int64) (*Node, error)
	GetByCode(ctx context.Context, code string) (*Node, error)
	List(ctx context.Context, onlyActive bool) ([]Node, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	SetActive(ctx context.Context, id int64, active bool) error
	CountPostings(ctx context.Context, id int64) (int, error)
	CountActiveChildren(ctx context.Context, id int64) (int, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const nodeColumns = `id, codigo, nombre, clasificacion, padre_id, nivel, imputable, activa, descripcion, created_at, updated_at`

func scanNode(row pgx.Row) (*Node, error) {
	var n Node
	err := row.Scan(&n.ID, &n.Code, &n.Name, &n.Classification, &n.ParentID,
		&n.Level, &n.Imputable, &n.IsActive, &n.Description, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, finshared.NotFoundf("cuenta contable")
		}
		return nil, err
	}
	return &n, nil
}

func (r *repository) Create(ctx context.Context, node Node) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO cuentas_contables
(codigo, nombre, clasificacion, padre_id, nivel, imputable, activa, descripcion)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		node.Code, node.Name, node.Classification, node.ParentID, node.Level,
		node.Imputable, node.IsActive, node.Description).Scan(&id)
	return id, err
}

func (r *repository) Get(ctx context.Context, id int64) (*Node, error) {
	return scanNode(r.db.QueryRow(ctx, `SELECT `+nodeColumns+` FROM cuentas_contables WHERE id=$1`, id))
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Node, error) {
	return scanNode(r.db.QueryRow(ctx, `SELECT `+nodeColumns+` FROM cuentas_contables WHERE codigo=$1`, code))
}

func (r *repository) List(ctx context.Context, onlyActive bool) ([]Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM cuentas_contables`
	if onlyActive {
		query += ` WHERE activa`
	}
	query += ` ORDER BY codigo ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *node)
	}
	return out, rows.Err()
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
	cmd, err := r.db.Exec(ctx, fmt.Sprintf(`UPDATE cuentas_contables SET %s WHERE id = $%d`, strings.Join(sets, ", "), argPos), args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return finshared.NotFoundf("cuenta contable")
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE cuentas_contables SET activa=$2, updated_at=NOW() WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return finshared.NotFoundf("cuenta contable")
	}
	return nil
}

func (r *repository) CountPostings(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM movimientos WHERE cuenta_contable_id=$1 AND estado <> 'ANULADO'`, id).Scan(&count)
	return count, err
}

func (r *repository) CountActiveChildren(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM cuentas_contables WHERE padre_id=$1 AND activa`, id).Scan(&count)
	return count, err
}
