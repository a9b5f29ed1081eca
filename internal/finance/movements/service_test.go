package movements

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	finshared "github.com/servitec-erp/servitec-erp/internal/finance/shared"
	internalshared "github.com/servitec-erp/servitec-erp/internal/shared"
)

type memoryRepo struct {
	accounts  map[int64]*AccountRef
	ledger    map[int64]LedgerRef
	movements map[int64]*Movement
	nextID    int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		accounts:  make(map[int64]*AccountRef),
		ledger:    make(map[int64]LedgerRef),
		movements: make(map[int64]*Movement),
	}
}

func (r *memoryRepo) addAccount(id int64, currency string, active bool, balance float64) {
	r.accounts[id] = &AccountRef{ID: id, Currency: currency, IsActive: active, Balance: balance}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Movement, error) {
	if m, ok := r.movements[id]; ok {
		return *m, nil
	}
	return Movement{}, finshared.NotFoundf("movimiento %d no encontrado", id)
}

func (r *memoryRepo) List(ctx context.Context, req ListMovementsRequest) ([]Movement, int, error) {
	var out []Movement
	for _, m := range r.movements {
		out = append(out, *m)
	}
	return out, len(out), nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, movement Movement) (Movement, error) {
	tx.repo.nextID++
	movement.ID = tx.repo.nextID
	movement.Code = fmt.Sprintf("MOV-%06d", movement.ID)
	stored := movement
	tx.repo.movements[movement.ID] = &stored
	return movement, nil
}

func (tx *memoryTx) GetMovementForUpdate(ctx context.Context, id int64) (Movement, error) {
	if m, ok := tx.repo.movements[id]; ok {
		return *m, nil
	}
	return Movement{}, finshared.NotFoundf("movimiento %d no encontrado", id)
}

func (tx *memoryTx) UpdateMovementStatus(ctx context.Context, id int64, status Status, voidReason *string) error {
	m, ok := tx.repo.movements[id]
	if !ok {
		return finshared.NotFoundf("movimiento %d no encontrado", id)
	}
	m.Status = status
	m.VoidReason = voidReason
	return nil
}

func (tx *memoryTx) GetAccountForUpdate(ctx context.Context, accountID int64) (AccountRef, error) {
	if a, ok := tx.repo.accounts[accountID]; ok {
		return *a, nil
	}
	return AccountRef{}, finshared.NotFoundf("cuenta %d no encontrada", accountID)
}

func (tx *memoryTx) ApplyAccountDelta(ctx context.Context, accountID int64, delta float64) error {
	a, ok := tx.repo.accounts[accountID]
	if !ok {
		return finshared.NotFoundf("cuenta %d no encontrada", accountID)
	}
	a.Balance += delta
	return nil
}

func (tx *memoryTx) GetLedgerAccountRef(ctx context.Context, id int64) (LedgerRef, error) {
	if n, ok := tx.repo.ledger[id]; ok {
		return n, nil
	}
	return LedgerRef{}, finshared.NotFoundf("cuenta contable %d no encontrada", id)
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

func expenseRequest(amount float64) CreateMovementRequest {
	return CreateMovementRequest{
		Direction:     DirectionExpense,
		Category:      "COMPRA_INSUMOS",
		PaymentMethod: PaymentCash,
		Amount:        amount,
		Currency:      "ARS",
		Description:   "compra de repuestos",
		Date:          time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		AccountID:     1,
	}
}

func TestCreateAndConfirmAppliesDelta(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "ARS", true, 1000)
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	req := expenseRequest(300)
	req.Confirm = true
	movement, err := svc.Create(ctx, req, 7)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, movement.Status)
	require.Equal(t, "MOV-000001", movement.Code)
	require.InDelta(t, 700, repo.accounts[1].Balance, 0.001)
}

func TestCreatePendingLeavesBalanceUntouched(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "ARS", true, 1000)
	svc := NewService(repo, nil, nil, nil)

	movement, err := svc.Create(context.Background(), expenseRequest(300), 7)
	require.NoError(t, err)
	require.Equal(t, StatusPending, movement.Status)
	require.InDelta(t, 1000, repo.accounts[1].Balance, 0.001)
}

func TestCreateValidation(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "ARS", true, 1000)
	repo.addAccount(2, "ARS", false, 0)
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	req := expenseRequest(0)
	_, err := svc.Create(ctx, req, 7)
	require.ErrorIs(t, err, finshared.ErrValidation)

	req = expenseRequest(100)
	req.Category = "VENTA_SERVICIO" // income code on an expense
	_, err = svc.Create(ctx, req, 7)
	require.ErrorIs(t, err, finshared.ErrValidation)

	req = expenseRequest(100)
	req.Currency = "USD"
	_, err = svc.Create(ctx, req, 7)
	require.ErrorIs(t, err, finshared.ErrValidation)

	req = expenseRequest(100)
	req.AccountID = 2
	_, err = svc.Create(ctx, req, 7)
	require.ErrorIs(t, err, finshared.ErrConflict)

	require.InDelta(t, 1000, repo.accounts[1].Balance, 0.001)
}

func TestCreateRejectsNonImputableLedgerAccount(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "ARS", true, 1000)
	repo.ledger[40] = LedgerRef{ID: 40, Imputable: false, IsActive: true}
	repo.ledger[41] = LedgerRef{ID: 41, Imputable: true, IsActive: true}
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	ledgerID := int64(40)
	req := expenseRequest(100)
	req.LedgerAccountID = &ledgerID
	_, err := svc.Create(ctx, req, 7)
	require.ErrorIs(t, err, finshared.ErrValidation)

	ledgerID = 41
	req.LedgerAccountID = &ledgerID
	_, err = svc.Create(ctx, req, 7)
	require.NoError(t, err)
}

func TestConfirmTwiceFails(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "ARS", true, 1000)
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	movement, err := svc.Create(ctx, expenseRequest(300), 7)
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, movement.ID, 7)
	require.NoError(t, err)
	require.InDelta(t, 700, repo.accounts[1].Balance, 0.001)

	_, err = svc.Confirm(ctx, movement.ID, 7)
	require.ErrorIs(t, err, finshared.ErrInvalidTransition)
	require.InDelta(t, 700, repo.accounts[1].Balance, 0.001)
}

func TestVoidConfirmedReversesBalance(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "ARS", true, 1000)
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	req := expenseRequest(300)
	req.Confirm = true
	movement, err := svc.Create(ctx, req, 7)
	require.NoError(t, err)
	require.InDelta(t, 700, repo.accounts[1].Balance, 0.001)

	voided, err := svc.Void(ctx, movement.ID, "cargado dos veces", 7)
	require.NoError(t, err)
	require.Equal(t, StatusVoided, voided.Status)
	require.NotNil(t, voided.VoidReason)
	require.Equal(t, "cargado dos veces", *voided.VoidReason)
	require.InDelta(t, 1000, repo.accounts[1].Balance, 0.001)
}

func TestVoidPendingHasNoBalanceEffect(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "ARS", true, 1000)
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	movement, err := svc.Create(ctx, expenseRequest(300), 7)
	require.NoError(t, err)

	voided, err := svc.Void(ctx, movement.ID, "", 7)
	require.NoError(t, err)
	require.Equal(t, StatusVoided, voided.Status)
	require.Nil(t, voided.VoidReason)
	require.InDelta(t, 1000, repo.accounts[1].Balance, 0.001)
}

func TestVoidReconciledFails(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "ARS", true, 1000)
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	req := expenseRequest(300)
	req.Confirm = true
	movement, err := svc.Create(ctx, req, 7)
	require.NoError(t, err)

	_, err = svc.Reconcile(ctx, movement.ID, 7)
	require.NoError(t, err)

	_, err = svc.Void(ctx, movement.ID, "tarde", 7)
	require.ErrorIs(t, err, finshared.ErrInvalidTransition)
	require.InDelta(t, 700, repo.accounts[1].Balance, 0.001)
}

func TestReconcileRequiresConfirmed(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "ARS", true, 1000)
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	movement, err := svc.Create(ctx, expenseRequest(300), 7)
	require.NoError(t, err)

	_, err = svc.Reconcile(ctx, movement.ID, 7)
	require.ErrorIs(t, err, finshared.ErrInvalidTransition)
}

func TestCreateIdempotency(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "ARS", true, 1000)
	idem := newMemoryIdem()
	svc := NewService(repo, nil, idem, nil)
	ctx := context.Background()

	req := expenseRequest(300)
	req.Confirm = true
	req.IdempotencyKey = "clave-1"
	_, err := svc.Create(ctx, req, 7)
	require.NoError(t, err)

	_, err = svc.Create(ctx, req, 7)
	require.ErrorIs(t, err, finshared.ErrConflict)
	require.InDelta(t, 700, repo.accounts[1].Balance, 0.001)
}

func TestCreateFailureReleasesIdempotencyKey(t *testing.T) {
	repo := newMemoryRepo()
	idem := newMemoryIdem()
	svc := NewService(repo, nil, idem, nil)
	ctx := context.Background()

	req := expenseRequest(300)
	req.IdempotencyKey = "clave-2"
	_, err := svc.Create(ctx, req, 7) // account 1 does not exist
	require.Error(t, err)
	require.Contains(t, idem.deleted, "clave-2")

	repo.addAccount(1, "ARS", true, 500)
	_, err = svc.Create(ctx, req, 7)
	require.NoError(t, err)
}

func TestCreateConflictReleasesIdempotencyKey(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "ARS", false, 500) // inactiva
	idem := newMemoryIdem()
	svc := NewService(repo, nil, idem, nil)
	ctx := context.Background()

	req := expenseRequest(300)
	req.IdempotencyKey = "clave-3"
	_, err := svc.Create(ctx, req, 7)
	require.ErrorIs(t, err, finshared.ErrConflict)
	require.Contains(t, idem.deleted, "clave-3")

	// Reactivada la cuenta, el reintento con la misma clave pasa.
	repo.addAccount(1, "ARS", true, 500)
	_, err = svc.Create(ctx, req, 7)
	require.NoError(t, err)
}
