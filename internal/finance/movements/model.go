// Package movements owns the cash movement (movimiento) lifecycle:
// creation, confirmation, reconciliation and voiding. Confirm and void
// are the only code paths that touch account balances, and they always
// do so atomically with the status write.
package movements

import (
	"time"

	"github.com/google/uuid"

	finshared "github.com/servitec-erp/servitec-erp/internal/finance/shared"
)

// Status enumerates movement lifecycle values.
type Status string

const (
	StatusPending    Status = "PENDIENTE"
	StatusConfirmed  Status = "CONFIRMADO"
	StatusReconciled Status = "CONCILIADO"
	StatusVoided     Status = "ANULADO"
)

// Valid reports whether the status is a known value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusReconciled, StatusVoided:
		return true
	}
	return false
}

// CanTransition reports whether the transition s -> to is legal.
// CONCILIADO and ANULADO are terminal; reconciled movements cannot be
// voided without an un-reconcile operation, which this engine does not
// support.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusConfirmed || to == StatusVoided
	case StatusConfirmed:
		return to == StatusReconciled || to == StatusVoided
	}
	return false
}

// AffectsBalance reports whether a movement in this status contributes
// to its account balance.
func (s Status) AffectsBalance() bool {
	return s == StatusConfirmed || s == StatusReconciled
}

// Direction of the cash movement.
type Direction string

const (
	DirectionIncome  Direction = "INGRESO"
	DirectionExpense Direction = "EGRESO"
)

func (d Direction) Valid() bool {
	return d == DirectionIncome || d == DirectionExpense
}

// Opposite returns the inverse direction.
func (d Direction) Opposite() Direction {
	if d == DirectionIncome {
		return DirectionExpense
	}
	return DirectionIncome
}

var incomeCategories = map[string]bool{
	"VENTA_SERVICIO":        true,
	"COBRO_TICKET":          true,
	"APORTE_CAPITAL":        true,
	"INTERES":               true,
	"TRANSFERENCIA_ENTRADA": true,
	"OTRO_INGRESO":          true,
}

var expenseCategories = map[string]bool{
	"COMPRA_INSUMOS":       true,
	"SUELDOS":              true,
	"ALQUILER":             true,
	"IMPUESTOS":            true,
	"SERVICIOS_PUBLICOS":   true,
	"TRANSFERENCIA_SALIDA": true,
	"OTRO_EGRESO":          true,
}

// Category pairs a direction with a code drawn from that direction's
// enumerated set, so an expense code on an income movement is
// unrepresentable past construction.
type Category struct {
	Direction Direction `json:"direccion"`
	Code      string    `json:"codigo"`
}

// NewCategory validates the direction/code pairing.
func NewCategory(direction Direction, code string) (Category, error) {
	var set map[string]bool
	switch direction {
	case DirectionIncome:
		set = incomeCategories
	case DirectionExpense:
		set = expenseCategories
	default:
		return Category{}, finshared.Validationf("direccion desconocida: %s", direction)
	}
	if !set[code] {
		return Category{}, finshared.Validationf("categoria %s no pertenece a %s", code, direction)
	}
	return Category{Direction: direction, Code: code}, nil
}

// PaymentMethod enumerates accepted payment methods.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "EFECTIVO"
	PaymentTransfer PaymentMethod = "TRANSFERENCIA"
	PaymentCard     PaymentMethod = "TARJETA"
	PaymentCheque   PaymentMethod = "CHEQUE"
	PaymentWallet   PaymentMethod = "BILLETERA"
)

// Valid reports whether the payment method is a known value.
func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentTransfer, PaymentCard, PaymentCheque, PaymentWallet:
		return true
	}
	return false
}

// Movement is a single-sided cash movement against a financial account.
type Movement struct {
	ID              int64         `json:"id"`
	Code            string        `json:"codigo"`
	Direction       Direction     `json:"direccion"`
	CategoryCode    string        `json:"categoria"`
	PaymentMethod   PaymentMethod `json:"medioPago"`
	Amount          float64       `json:"monto"`
	Currency        string        `json:"moneda"`
	Description     string        `json:"descripcion"`
	ReceiptURL      *string       `json:"comprobanteUrl,omitempty"`
	Date            time.Time     `json:"fecha"`
	AccountID       int64         `json:"cuentaId"`
	LedgerAccountID *int64        `json:"cuentaContableId,omitempty"`
	CustomerID      *int64        `json:"clienteId,omitempty"`
	CostCenterID    *int64        `json:"centroCostoId,omitempty"`
	TicketID        *int64        `json:"ticketId,omitempty"`
	TransferRef     *uuid.UUID    `json:"transferRef,omitempty"`
	Status          Status        `json:"estado"`
	VoidReason      *string       `json:"motivoAnulacion,omitempty"`
	CreatedBy       int64         `json:"registradoPorId"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// SignedAmount is the balance delta this movement applies when
// confirmed: positive for income, negative for expense.
func (m Movement) SignedAmount() float64 {
	if m.Direction == DirectionIncome {
		return m.Amount
	}
	return -m.Amount
}
