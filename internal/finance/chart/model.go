// Package chart owns the hierarchical chart of accounts (cuentas
// contables): classification nodes used for statements, distinct from
// the cash accounts that actually hold money.
package chart

import "time"

// Classification of a chart subtree. Inherited from the root ancestor;
// identical across a subtree.
type Classification string

const (
	ClassAsset     Classification = "ACTIVO"
	ClassLiability Classification = "PASIVO"
	ClassEquity    Classification = "PATRIMONIO"
	ClassIncome    Classification = "INGRESO"
	ClassExpense   Classification = "GASTO"
)

// Valid reports whether the classification is a known value.
func (c Classification) Valid() bool {
	switch c {
	case ClassAsset, ClassLiability, ClassEquity, ClassIncome, ClassExpense:
		return true
	}
	return false
}

// Classifications lists all buckets in statement order.
func Classifications() []Classification {
	return []Classification{ClassAsset, ClassLiability, ClassEquity, ClassIncome, ClassExpense}
}

// Node is a chart-of-accounts entry. Only imputable nodes may receive
// postings; the rest exist for aggregation.
type Node struct {
	ID             int64          `json:"id"`
	Code           string         `json:"codigo"`
	Name           string         `json:"nombre"`
	Classification Classification `json:"clasificacion"`
	ParentID       *int64         `json:"padreId,omitempty"`
	Level          int            `json:"nivel"`
	Imputable      bool           `json:"imputable"`
	IsActive       bool           `json:"activa"`
	Description    *string        `json:"descripcion,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}
