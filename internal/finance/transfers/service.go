// Package transfers coordinates paired movements: one expense leg on
// the source account and one matching income leg on the destination,
// committed together or not at all.
package transfers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/servitec-erp/servitec-erp/internal/finance/movements"
	finshared "github.com/servitec-erp/servitec-erp/internal/finance/shared"
	internalshared "github.com/servitec-erp/servitec-erp/internal/shared"
)

const idempotencyModule = "transferencias"

// Transfers post immediately: both legs are created CONFIRMADO and both
// balances move before the call returns. A pending-transfer mode is a
// product configuration point this engine does not expose.
const legStatus = movements.StatusConfirmed

type Service struct {
	repo    movements.Repository
	audit   movements.AuditPort
	idem    movements.IdempotencyPort
	metrics movements.MetricsPort
	now     func() time.Time
}

func NewService(repo movements.Repository, audit movements.AuditPort, idem movements.IdempotencyPort, metrics movements.MetricsPort) *Service {
	return &Service{repo: repo, audit: audit, idem: idem, metrics: metrics, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create validates and commits both transfer legs inside a single
// repository transaction.
func (s *Service) Create(ctx context.Context, input CreateTransferRequest, actorID int64) (Transfer, error) {
	if input.SourceAccountID == input.DestAccountID {
		return Transfer{}, finshared.Validationf("cuenta origen y destino deben ser distintas")
	}
	if input.Amount <= 0 {
		return Transfer{}, finshared.Validationf("monto debe ser mayor a cero")
	}

	if input.IdempotencyKey != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, input.IdempotencyKey, idempotencyModule); err != nil {
			if errors.Is(err, internalshared.ErrIdempotencyConflict) {
				return Transfer{}, finshared.Conflictf("solicitud ya procesada (clave %s)", input.IdempotencyKey)
			}
			return Transfer{}, err
		}
	}

	ref := uuid.New()
	var result Transfer
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx movements.TxRepository) error {
		// Lock both account rows in id order so two opposite transfers
		// cannot deadlock each other.
		firstID, secondID := input.SourceAccountID, input.DestAccountID
		if secondID < firstID {
			firstID, secondID = secondID, firstID
		}
		locked := make(map[int64]movements.AccountRef, 2)
		for _, id := range []int64{firstID, secondID} {
			account, err := tx.GetAccountForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if !account.IsActive {
				return finshared.Conflictf("cuenta %d inactiva", account.ID)
			}
			locked[id] = account
		}
		source := locked[input.SourceAccountID]
		dest := locked[input.DestAccountID]
		if source.Currency != dest.Currency {
			return finshared.Validationf("las cuentas operan monedas distintas (%s, %s)", source.Currency, dest.Currency)
		}

		expense, err := tx.InsertMovement(ctx, s.leg(input, movements.DirectionExpense, input.SourceAccountID, source.Currency, ref, actorID))
		if err != nil {
			return err
		}
		income, err := tx.InsertMovement(ctx, s.leg(input, movements.DirectionIncome, input.DestAccountID, dest.Currency, ref, actorID))
		if err != nil {
			return err
		}
		if err := tx.ApplyAccountDelta(ctx, input.SourceAccountID, expense.SignedAmount()); err != nil {
			return err
		}
		if err := tx.ApplyAccountDelta(ctx, input.DestAccountID, income.SignedAmount()); err != nil {
			return err
		}
		result = Transfer{TransferRef: ref, Expense: expense, Income: income}
		return nil
	})
	if err != nil {
		// Nothing was persisted, so the key must not block a retry.
		if input.IdempotencyKey != "" && s.idem != nil {
			_ = s.idem.Delete(ctx, input.IdempotencyKey)
		}
		return Transfer{}, err
	}

	if s.metrics != nil {
		s.metrics.CountPosting("transfer")
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  actorID,
			Action:   "transferencia.crear",
			Entity:   "transferencia",
			EntityID: ref.String(),
			Meta: map[string]any{
				"egreso_id":  result.Expense.ID,
				"ingreso_id": result.Income.ID,
				"monto":      fmt.Sprintf("%.2f", input.Amount),
			},
			At: s.now(),
		})
	}
	return result, nil
}

func (s *Service) leg(input CreateTransferRequest, direction movements.Direction, accountID int64, currency string, ref uuid.UUID, actorID int64) movements.Movement {
	category := "TRANSFERENCIA_SALIDA"
	if direction == movements.DirectionIncome {
		category = "TRANSFERENCIA_ENTRADA"
	}
	return movements.Movement{
		Direction:     direction,
		CategoryCode:  category,
		PaymentMethod: movements.PaymentTransfer,
		Amount:        input.Amount,
		Currency:      currency,
		Description:   input.Description,
		ReceiptURL:    input.ReceiptURL,
		Date:          input.Date,
		AccountID:     accountID,
		TransferRef:   &ref,
		Status:        legStatus,
		CreatedBy:     actorID,
	}
}
