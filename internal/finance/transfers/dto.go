package transfers

import (
	"time"

	"github.com/google/uuid"

	"github.com/servitec-erp/servitec-erp/internal/finance/movements"
)

type CreateTransferRequest struct {
	SourceAccountID int64     `json:"cuentaOrigenId" validate:"required,gt=0"`
	DestAccountID   int64     `json:"cuentaDestinoId" validate:"required,gt=0"`
	Amount          float64   `json:"monto" validate:"required,gt=0"`
	Date            time.Time `json:"fecha" validate:"required"`
	Description     string    `json:"descripcion" validate:"required,max=500"`
	ReceiptURL      *string   `json:"comprobanteUrl,omitempty" validate:"omitempty,url"`
	IdempotencyKey  string    `json:"claveIdempotencia,omitempty" validate:"omitempty,max=120"`
}

// Transfer is the result of a committed transfer: both legs plus the
// shared reference. It is not a stored entity of its own.
type Transfer struct {
	TransferRef uuid.UUID          `json:"transferRef"`
	Expense     movements.Movement `json:"egreso"`
	Income      movements.Movement `json:"ingreso"`
}
