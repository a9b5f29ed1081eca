// Package accounts owns the financial account registry: cash, bank,
// wallet and investment holdings with their running balances. Balances
// change only through the movement engine, never through this package's
// public surface.
package accounts

import "time"

// Kind enumerates the supported account kinds.
type Kind string

const (
	KindPettyCash  Kind = "CAJA_CHICA"
	KindChecking   Kind = "CORRIENTE"
	KindSavings    Kind = "AHORRO"
	KindEWallet    Kind = "BILLETERA"
	KindInvestment Kind = "INVERSION"
)

// Valid reports whether the kind is a known value.
func (k Kind) Valid() bool {
	switch k {
	case KindPettyCash, KindChecking, KindSavings, KindEWallet, KindInvestment:
		return true
	}
	return false
}

// AllowsBankFields reports whether banking fields (bank name, account
// number, routing code) may be set for the kind. Petty cash holds
// physical money and investments are tracked by rate/maturity instead.
func (k Kind) AllowsBankFields() bool {
	switch k {
	case KindChecking, KindSavings, KindEWallet:
		return true
	}
	return false
}

// Account is a cash/bank/wallet/investment holding.
type Account struct {
	ID             int64      `json:"id"`
	Name           string     `json:"nombre"`
	Kind           Kind       `json:"tipo"`
	Bank           *string    `json:"banco,omitempty"`
	AccountNumber  *string    `json:"numeroCuenta,omitempty"`
	RoutingCode    *string    `json:"cbu,omitempty"`
	InitialBalance float64    `json:"saldoInicial"`
	CurrentBalance float64    `json:"saldoActual"`
	Currency       string     `json:"moneda"`
	IsActive       bool       `json:"activa"`
	Rate           *float64   `json:"tasa,omitempty"`
	MaturityDate   *time.Time `json:"vencimiento,omitempty"`
	CreatedBy      int64      `json:"registradoPorId"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
