// Package statement builds the balance-contable report: the chart of
// accounts reduced to five classification buckets with the accounting
// equation verified.
package statement

import (
	"math"
	"time"

	"github.com/servitec-erp/servitec-erp/internal/finance/chart"
)

// Epsilon bounds the floating rounding tolerated by the accounting
// equation check.
const Epsilon = 0.005

// NodeBalance is a chart node annotated with its aggregated balance.
type NodeBalance struct {
	ID        int64          `json:"id"`
	Code      string         `json:"codigo"`
	Name      string         `json:"nombre"`
	Level     int            `json:"nivel"`
	Imputable bool           `json:"imputable"`
	Balance   float64        `json:"saldo"`
	Children  []*NodeBalance `json:"hijos,omitempty"`
}

// Section groups the root subtrees of one classification.
type Section struct {
	Classification chart.Classification `json:"clasificacion"`
	Roots          []*NodeBalance       `json:"cuentas"`
	Total          float64              `json:"total"`
}

// Equation carries the raw totals so a caller can display the
// discrepancy rather than hide it.
type Equation struct {
	Assets       float64 `json:"activo"`
	Liabilities  float64 `json:"pasivo"`
	Equity       float64 `json:"patrimonio"`
	PeriodResult float64 `json:"resultadoPeriodo"`
	Difference   float64 `json:"diferencia"`
	Balanced     bool    `json:"balanceado"`
}

// BalanceSheet is the structured statement result.
type BalanceSheet struct {
	AsOf         time.Time `json:"fechaHasta"`
	Assets       Section   `json:"activo"`
	Liabilities  Section   `json:"pasivo"`
	Equity       Section   `json:"patrimonio"`
	Income       Section   `json:"ingreso"`
	Expenses     Section   `json:"gasto"`
	PeriodResult float64   `json:"resultadoPeriodo"`
	Equation     Equation  `json:"ecuacionContable"`
}

// Build aggregates imputable balances bottom-up through the chart and
// groups root subtrees by classification. Pure and side-effect free; it
// may run concurrently with writers and simply reflects the snapshot it
// was handed.
func Build(nodes []chart.Node, balances map[int64]float64, asOf time.Time) (BalanceSheet, error) {
	tree, err := chart.BuildTree(nodes)
	if err != nil {
		return BalanceSheet{}, err
	}

	sections := map[chart.Classification]*Section{}
	for _, class := range chart.Classifications() {
		sections[class] = &Section{Classification: class}
	}
	for _, root := range tree.Roots() {
		nb := aggregate(tree, root, balances)
		section := sections[root.Classification]
		section.Roots = append(section.Roots, nb)
		section.Total += nb.Balance
	}

	result := BalanceSheet{
		AsOf:        asOf,
		Assets:      *sections[chart.ClassAsset],
		Liabilities: *sections[chart.ClassLiability],
		Equity:      *sections[chart.ClassEquity],
		Income:      *sections[chart.ClassIncome],
		Expenses:    *sections[chart.ClassExpense],
	}
	result.PeriodResult = result.Income.Total - result.Expenses.Total
	diff := result.Assets.Total - (result.Liabilities.Total + result.Equity.Total + result.PeriodResult)
	result.Equation = Equation{
		Assets:       result.Assets.Total,
		Liabilities:  result.Liabilities.Total,
		Equity:       result.Equity.Total,
		PeriodResult: result.PeriodResult,
		Difference:   diff,
		Balanced:     math.Abs(diff) <= Epsilon,
	}
	return result, nil
}

// aggregate computes a node's balance depth-first: its own postings
// when imputable plus the sum of its children. Posting sums arrive
// signed by direction (INGRESO positive), so expense nodes flip to
// their natural positive sign here.
func aggregate(tree *chart.Tree, node chart.Node, balances map[int64]float64) *NodeBalance {
	nb := &NodeBalance{
		ID:        node.ID,
		Code:      node.Code,
		Name:      node.Name,
		Level:     node.Level,
		Imputable: node.Imputable,
	}
	if node.Imputable {
		nb.Balance = balances[node.ID]
		if node.Classification == chart.ClassExpense {
			nb.Balance = -nb.Balance
		}
	}
	for _, child := range tree.Children(node.ID) {
		childNB := aggregate(tree, child, balances)
		nb.Children = append(nb.Children, childNB)
		nb.Balance += childNB.Balance
	}
	return nb
}
