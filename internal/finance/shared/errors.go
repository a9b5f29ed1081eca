// Package shared holds the error taxonomy and HTTP mapping common to
// the finance packages.
package shared

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/servitec-erp/servitec-erp/internal/platform/httpx"
)

// Base error kinds. Concrete conditions wrap one of these so handlers
// can map with errors.Is without knowing every condition.
var (
	// ErrValidation indicates malformed or policy-violating input,
	// rejected before any state change.
	ErrValidation = errors.New("finanzas: validacion")
	// ErrInvalidTransition indicates a state transition not permitted
	// from the current state.
	ErrInvalidTransition = errors.New("finanzas: transicion de estado invalida")
	// ErrConflict indicates the operation would violate a cross-entity
	// invariant.
	ErrConflict = errors.New("finanzas: conflicto")
	// ErrNotFound indicates a referenced id does not exist.
	ErrNotFound = errors.New("finanzas: no encontrado")
	// ErrAtomicity indicates the store could not commit a combined
	// state+balance write. Surfaced as an opaque failure; callers must
	// re-query before retrying.
	ErrAtomicity = errors.New("finanzas: fallo de commit atomico")
)

// Validationf builds a validation error with a formatted detail.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Conflictf builds a conflict error with a formatted detail.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// NotFoundf builds a not-found error with a formatted detail.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// InvalidTransition names the current and requested state so the
// caller can render a precise rejection.
func InvalidTransition(from, to string) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// RespondError translates a finance error into an RFC7807 response.
// Atomicity failures and unknown errors are logged with full context
// and rendered opaque.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validacion", err.Error())
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Transicion invalida", err.Error())
	case errors.Is(err, ErrConflict):
		httpx.Problem(w, http.StatusConflict, "Conflicto", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "No encontrado", err.Error())
	default:
		if logger != nil {
			logger.Error("finance operation failed", slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Error interno", "")
	}
}
