package transfers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/servitec-erp/servitec-erp/internal/finance/movements"
	finshared "github.com/servitec-erp/servitec-erp/internal/finance/shared"
	internalshared "github.com/servitec-erp/servitec-erp/internal/shared"
)

type memoryRepo struct {
	accounts  map[int64]*movements.AccountRef
	inserted  []movements.Movement
	lockOrder []int64
	nextID    int64
	failOn    int // fail the nth InsertMovement, 0 disables
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{accounts: make(map[int64]*movements.AccountRef)}
}

func (r *memoryRepo) addAccount(id int64, currency string, active bool, balance float64) {
	r.accounts[id] = &movements.AccountRef{ID: id, Currency: currency, IsActive: active, Balance: balance}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, movements.TxRepository) error) error {
	// Snapshot balances so a failed callback rolls back like a real tx.
	before := make(map[int64]float64, len(r.accounts))
	for id, a := range r.accounts {
		before[id] = a.Balance
	}
	insertedBefore := len(r.inserted)
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		for id, bal := range before {
			r.accounts[id].Balance = bal
		}
		r.inserted = r.inserted[:insertedBefore]
		return err
	}
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (movements.Movement, error) {
	return movements.Movement{}, finshared.NotFoundf("movimiento %d no encontrado", id)
}

func (r *memoryRepo) List(ctx context.Context, req movements.ListMovementsRequest) ([]movements.Movement, int, error) {
	return nil, 0, nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, movement movements.Movement) (movements.Movement, error) {
	if tx.repo.failOn > 0 && len(tx.repo.inserted)+1 == tx.repo.failOn {
		return movements.Movement{}, errors.New("insert forzado a fallar")
	}
	tx.repo.nextID++
	movement.ID = tx.repo.nextID
	movement.Code = fmt.Sprintf("MOV-%06d", movement.ID)
	tx.repo.inserted = append(tx.repo.inserted, movement)
	return movement, nil
}

func (tx *memoryTx) GetMovementForUpdate(ctx context.Context, id int64) (movements.Movement, error) {
	return movements.Movement{}, finshared.NotFoundf("movimiento %d no encontrado", id)
}

func (tx *memoryTx) UpdateMovementStatus(ctx context.Context, id int64, status movements.Status, voidReason *string) error {
	return nil
}

func (tx *memoryTx) GetAccountForUpdate(ctx context.Context, accountID int64) (movements.AccountRef, error) {
	tx.repo.lockOrder = append(tx.repo.lockOrder, accountID)
	if a, ok := tx.repo.accounts[accountID]; ok {
		return *a, nil
	}
	return movements.AccountRef{}, finshared.NotFoundf("cuenta %d no encontrada", accountID)
}

func (tx *memoryTx) ApplyAccountDelta(ctx context.Context, accountID int64, delta float64) error {
	a, ok := tx.repo.accounts[accountID]
	if !ok {
		return finshared.NotFoundf("cuenta %d no encontrada", accountID)
	}
	a.Balance += delta
	return nil
}

func (tx *memoryTx) GetLedgerAccountRef(ctx context.Context, id int64) (movements.LedgerRef, error) {
	return movements.LedgerRef{}, finshared.NotFoundf("cuenta contable %d no encontrada", id)
}

func transferRequest(source, dest int64, amount float64) CreateTransferRequest {
	return CreateTransferRequest{
		SourceAccountID: source,
		DestAccountID:   dest,
		Amount:          amount,
		Date:            time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Description:     "traspaso a caja chica",
	}
}

func TestTransferMovesBothBalances(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "ARS", true, 1000)
	repo.addAccount(2, "ARS", true, 0)
	svc := NewService(repo, nil, nil, nil)

	result, err := svc.Create(context.Background(), transferRequest(1, 2, 400), 7)
	require.NoError(t, err)

	require.InDelta(t, 600, repo.accounts[1].Balance, 0.001)
	require.InDelta(t, 400, repo.accounts[2].Balance, 0.001)

	require.Equal(t, movements.DirectionExpense, result.Expense.Direction)
	require.Equal(t, "TRANSFERENCIA_SALIDA", result.Expense.CategoryCode)
	require.Equal(t, int64(1), result.Expense.AccountID)
	require.Equal(t, movements.DirectionIncome, result.Income.Direction)
	require.Equal(t, "TRANSFERENCIA_ENTRADA", result.Income.CategoryCode)
	require.Equal(t, int64(2), result.Income.AccountID)

	// Both legs confirmed, share the ref, and net to zero.
	require.Equal(t, movements.StatusConfirmed, result.Expense.Status)
	require.Equal(t, movements.StatusConfirmed, result.Income.Status)
	require.NotNil(t, result.Expense.TransferRef)
	require.NotNil(t, result.Income.TransferRef)
	require.Equal(t, result.TransferRef, *result.Expense.TransferRef)
	require.Equal(t, result.TransferRef, *result.Income.TransferRef)
	require.InDelta(t, 0, result.Expense.SignedAmount()+result.Income.SignedAmount(), 0.001)
}

func TestTransferValidation(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "ARS", true, 1000)
	repo.addAccount(2, "USD", true, 0)
	repo.addAccount(3, "ARS", false, 0)
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, transferRequest(1, 1, 100), 7)
	require.ErrorIs(t, err, finshared.ErrValidation)

	_, err = svc.Create(ctx, transferRequest(1, 2, 0), 7)
	require.ErrorIs(t, err, finshared.ErrValidation)

	_, err = svc.Create(ctx, transferRequest(1, 2, 100), 7)
	require.ErrorIs(t, err, finshared.ErrValidation) // currency mismatch

	_, err = svc.Create(ctx, transferRequest(1, 3, 100), 7)
	require.ErrorIs(t, err, finshared.ErrConflict) // inactive destination

	require.InDelta(t, 1000, repo.accounts[1].Balance, 0.001)
}

func TestTransferLocksAccountsInIDOrder(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "ARS", true, 1000)
	repo.addAccount(9, "ARS", true, 0)
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), transferRequest(9, 1, 50), 7)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 9}, repo.lockOrder)
}

type memoryIdem struct {
	keys    map[string]bool
	deleted []string
}

func newMemoryIdem() *memoryIdem {
	return &memoryIdem{keys: make(map[string]bool)}
}

func (m *memoryIdem) CheckAndInsert(ctx context.Context, key, module string) error {
	if m.keys[key] {
		return internalshared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *memoryIdem) Delete(ctx context.Context, key string) error {
	delete(m.keys, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func TestTransferConflictReleasesIdempotencyKey(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "ARS", true, 1000)
	repo.addAccount(2, "ARS", false, 0) // destino inactivo
	idem := newMemoryIdem()
	svc := NewService(repo, nil, idem, nil)
	ctx := context.Background()

	req := transferRequest(1, 2, 400)
	req.IdempotencyKey = "clave-1"
	_, err := svc.Create(ctx, req, 7)
	require.ErrorIs(t, err, finshared.ErrConflict)
	require.Contains(t, idem.deleted, "clave-1")

	// Reactivado el destino, el reintento con la misma clave pasa.
	repo.addAccount(2, "ARS", true, 0)
	_, err = svc.Create(ctx, req, 7)
	require.NoError(t, err)
	require.InDelta(t, 600, repo.accounts[1].Balance, 0.001)
}

func TestTransferFailedSecondLegRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "ARS", true, 1000)
	repo.addAccount(2, "ARS", true, 0)
	repo.failOn = 2
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), transferRequest(1, 2, 400), 7)
	require.Error(t, err)
	require.Empty(t, repo.inserted)
	require.InDelta(t, 1000, repo.accounts[1].Balance, 0.001)
	require.InDelta(t, 0, repo.accounts[2].Balance, 0.001)
}
