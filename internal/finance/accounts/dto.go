package accounts

import "time"

type CreateAccountRequest struct {
	Name           string     `json:"nombre" validate:"required,max=120"`
	Kind           Kind       `json:"tipo" validate:"required"`
	Bank           *string    `json:"banco,omitempty" validate:"omitempty,max=120"`
	AccountNumber  *string    `json:"numeroCuenta,omitempty" validate:"omitempty,max=40"`
	RoutingCode    *string    `json:"cbu,omitempty" validate:"omitempty,max=40"`
	InitialBalance float64    `json:"saldoInicial" validate:"gte=0"`
	Currency       string     `json:"moneda" validate:"required,len=3"`
	Rate           *float64   `json:"tasa,omitempty" validate:"omitempty,gt=0"`
	MaturityDate   *time.Time `json:"vencimiento,omitempty"`
}

type UpdateAccountRequest struct {
	Name          *string    `json:"nombre,omitempty" validate:"omitempty,max=120"`
	Bank          *string    `json:"banco,omitempty" validate:"omitempty,max=120"`
	AccountNumber *string    `json:"numeroCuenta,omitempty" validate:"omitempty,max=40"`
	RoutingCode   *string    `json:"cbu,omitempty" validate:"omitempty,max=40"`
	Rate          *float64   `json:"tasa,omitempty" validate:"omitempty,gt=0"`
	MaturityDate  *time.Time `json:"vencimiento,omitempty"`
}

type ListAccountsRequest struct {
	Kind     *Kind
	IsActive *bool
	Page     int
	PerPage  int
}

// BalanceResponse is the payload for GET /cuentas/{id}/saldo.
type BalanceResponse struct {
	AccountID int64      `json:"cuentaId"`
	Balance   float64    `json:"saldo"`
	AsOf      *time.Time `json:"hasta,omitempty"`
}
