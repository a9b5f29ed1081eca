package movements

import (
	"context"
	"errors"
	"fmt"
	"time"

	finshared "github.com/servitec-erp/servitec-erp/internal/finance/shared"
	internalshared "github.com/servitec-erp/servitec-erp/internal/shared"
)

// AuditPort records ledger transitions in the audit trail.
type AuditPort interface {
	Record(ctx context.Context, log internalshared.AuditLog) error
}

// IdempotencyPort protects balance-affecting creation against retries.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// MetricsPort counts balance-affecting transitions.
type MetricsPort interface {
	CountPosting(kind string)
}

const idempotencyModule = "movimientos"

type Service struct {
	repo    Repository
	audit   AuditPort
	idem    IdempotencyPort
	metrics MetricsPort
	now     func() time.Time
}

func NewService(repo Repository, audit AuditPort, idem IdempotencyPort, metrics MetricsPort) *Service {
	return &Service{repo: repo, audit: audit, idem: idem, metrics: metrics, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create registers a movement in PENDIENTE, or creates and confirms it
// in one atomic unit when input.Confirm is set.
func (s *Service) Create(ctx context.Context, input CreateMovementRequest, actorID int64) (Movement, error) {
	if input.Amount <= 0 {
		return Movement{}, finshared.Validationf("monto debe ser mayor a cero")
	}
	category, err := NewCategory(input.Direction, input.Category)
	if err != nil {
		return Movement{}, err
	}
	if !input.PaymentMethod.Valid() {
		return Movement{}, finshared.Validationf("medio de pago desconocido: %s", input.PaymentMethod)
	}

	if input.IdempotencyKey != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, input.IdempotencyKey, idempotencyModule); err != nil {
			if errors.Is(err, internalshared.ErrIdempotencyConflict) {
				return Movement{}, finshared.Conflictf("solicitud ya procesada (clave %s)", input.IdempotencyKey)
			}
			return Movement{}, err
		}
	}

	var created Movement
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		account, err := tx.GetAccountForUpdate(ctx, input.AccountID)
		if err != nil {
			return err
		}
		if !account.IsActive {
			return finshared.Conflictf("cuenta %d inactiva", account.ID)
		}
		if account.Currency != input.Currency {
			return finshared.Validationf("moneda %s no coincide con la cuenta (%s)", input.Currency, account.Currency)
		}
		if input.LedgerAccountID != nil {
			node, err := tx.GetLedgerAccountRef(ctx, *input.LedgerAccountID)
			if err != nil {
				return err
			}
			if !node.Imputable {
				return finshared.Validationf("cuenta contable %d no es imputable", node.ID)
			}
			if !node.IsActive {
				return finshared.Conflictf("cuenta contable %d inactiva", node.ID)
			}
		}

		movement := Movement{
			Direction:       category.Direction,
			CategoryCode:    category.Code,
			PaymentMethod:   input.PaymentMethod,
			Amount:          input.Amount,
			Currency:        input.Currency,
			Description:     input.Description,
			ReceiptURL:      input.ReceiptURL,
			Date:            input.Date,
			AccountID:       input.AccountID,
			LedgerAccountID: input.LedgerAccountID,
			CustomerID:      input.CustomerID,
			CostCenterID:    input.CostCenterID,
			TicketID:        input.TicketID,
			Status:          StatusPending,
			CreatedBy:       actorID,
		}
		inserted, err := tx.InsertMovement(ctx, movement)
		if err != nil {
			return err
		}
		if input.Confirm {
			if err := tx.UpdateMovementStatus(ctx, inserted.ID, StatusConfirmed, nil); err != nil {
				return err
			}
			if err := tx.ApplyAccountDelta(ctx, inserted.AccountID, inserted.SignedAmount()); err != nil {
				return err
			}
			inserted.Status = StatusConfirmed
		}
		created = inserted
		return nil
	})
	if err != nil {
		// Nothing was persisted, so the key must not block a retry.
		if input.IdempotencyKey != "" && s.idem != nil {
			_ = s.idem.Delete(ctx, input.IdempotencyKey)
		}
		return Movement{}, err
	}

	if created.Status == StatusConfirmed {
		s.countPosting("confirm")
	}
	s.recordAudit(ctx, actorID, "movimiento.crear", created, map[string]any{
		"codigo": created.Code,
		"estado": string(created.Status),
	})
	return created, nil
}

// Confirm applies the movement's signed amount to its account,
// atomically with the PENDIENTE -> CONFIRMADO status write.
func (s *Service) Confirm(ctx context.Context, id int64, actorID int64) (Movement, error) {
	var movement Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetMovementForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanTransition(StatusConfirmed) {
			return finshared.InvalidTransition(string(current.Status), string(StatusConfirmed))
		}
		if _, err := tx.GetAccountForUpdate(ctx, current.AccountID); err != nil {
			return err
		}
		if err := tx.UpdateMovementStatus(ctx, current.ID, StatusConfirmed, nil); err != nil {
			return err
		}
		if err := tx.ApplyAccountDelta(ctx, current.AccountID, current.SignedAmount()); err != nil {
			return err
		}
		current.Status = StatusConfirmed
		movement = current
		return nil
	})
	if err != nil {
		return Movement{}, err
	}
	s.countPosting("confirm")
	s.recordAudit(ctx, actorID, "movimiento.confirmar", movement, nil)
	return movement, nil
}

// Reconcile marks a confirmed movement as matched against an external
// bank statement. No balance effect.
func (s *Service) Reconcile(ctx context.Context, id int64, actorID int64) (Movement, error) {
	var movement Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetMovementForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanTransition(StatusReconciled) {
			return finshared.InvalidTransition(string(current.Status), string(StatusReconciled))
		}
		if err := tx.UpdateMovementStatus(ctx, current.ID, StatusReconciled, nil); err != nil {
			return err
		}
		current.Status = StatusReconciled
		movement = current
		return nil
	})
	if err != nil {
		return Movement{}, err
	}
	s.recordAudit(ctx, actorID, "movimiento.conciliar", movement, nil)
	return movement, nil
}

// Void terminates a PENDIENTE or CONFIRMADO movement. Voiding a
// confirmed movement reverses its balance effect atomically with the
// status write; reconciled movements cannot be voided.
func (s *Service) Void(ctx context.Context, id int64, reason string, actorID int64) (Movement, error) {
	var movement Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetMovementForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanTransition(StatusVoided) {
			return finshared.InvalidTransition(string(current.Status), string(StatusVoided))
		}
		wasConfirmed := current.Status == StatusConfirmed
		var voidReason *string
		if reason != "" {
			voidReason = &reason
		}
		if err := tx.UpdateMovementStatus(ctx, current.ID, StatusVoided, voidReason); err != nil {
			return err
		}
		if wasConfirmed {
			if _, err := tx.GetAccountForUpdate(ctx, current.AccountID); err != nil {
				return err
			}
			if err := tx.ApplyAccountDelta(ctx, current.AccountID, -current.SignedAmount()); err != nil {
				return err
			}
			s.countPosting("void")
		}
		current.Status = StatusVoided
		current.VoidReason = voidReason
		movement = current
		return nil
	})
	if err != nil {
		return Movement{}, err
	}
	meta := map[string]any{"motivo": reason}
	if movement.TransferRef != nil {
		// The sibling leg stays live; flag it for review.
		meta["transfer_ref"] = movement.TransferRef.String()
	}
	s.recordAudit(ctx, actorID, "movimiento.anular", movement, meta)
	return movement, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Movement, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListMovementsRequest) ([]Movement, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) countPosting(kind string) {
	if s.metrics != nil {
		s.metrics.CountPosting(kind)
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, movement Movement, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalshared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "movimiento",
		EntityID: fmt.Sprintf("%d", movement.ID),
		Meta:     meta,
		At:       s.now(),
	})
}
