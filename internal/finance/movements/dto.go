package movements

import "time"

// CreateMovementRequest carries the fields to register a movement. When
// Confirm is true the movement is created and confirmed in one atomic
// unit, which is the usual product flow for income/expense entries.
type CreateMovementRequest struct {
	Direction       Direction     `json:"direccion" validate:"required"`
	Category        string        `json:"categoria" validate:"required"`
	PaymentMethod   PaymentMethod `json:"medioPago" validate:"required"`
	Amount          float64       `json:"monto" validate:"required,gt=0"`
	Currency        string        `json:"moneda" validate:"required,len=3"`
	Description     string        `json:"descripcion" validate:"required,max=500"`
	ReceiptURL      *string       `json:"comprobanteUrl,omitempty" validate:"omitempty,url"`
	Date            time.Time     `json:"fecha" validate:"required"`
	AccountID       int64         `json:"cuentaId" validate:"required,gt=0"`
	LedgerAccountID *int64        `json:"cuentaContableId,omitempty" validate:"omitempty,gt=0"`
	CustomerID      *int64        `json:"clienteId,omitempty" validate:"omitempty,gt=0"`
	CostCenterID    *int64        `json:"centroCostoId,omitempty" validate:"omitempty,gt=0"`
	TicketID        *int64        `json:"ticketId,omitempty" validate:"omitempty,gt=0"`
	Confirm         bool          `json:"confirmar"`
	IdempotencyKey  string        `json:"claveIdempotencia,omitempty" validate:"omitempty,max=120"`
}

// VoidMovementRequest carries the optional reason for voiding.
type VoidMovementRequest struct {
	Reason string `json:"motivo,omitempty" validate:"omitempty,max=500"`
}

// ListMovementsRequest filters the movement listing.
type ListMovementsRequest struct {
	AccountID *int64
	Status    *Status
	Direction *Direction
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PerPage   int
}
