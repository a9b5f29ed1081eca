package statement

import (
	"math"
	"testing"
	"time"

	"github.com/servitec-erp/servitec-erp/internal/finance/chart"
)

func ptrInt64(v int64) *int64 { return &v }

func testChart() []chart.Node {
	return []chart.Node{
		{ID: 1, Code: "1", Name: "Activo", Classification: chart.ClassAsset, Level: 1, IsActive: true},
		{ID: 2, Code: "1.1", Name: "Caja y Bancos", Classification: chart.ClassAsset, ParentID: ptrInt64(1), Level: 2, IsActive: true},
		{ID: 3, Code: "1.1.1", Name: "Caja Chica", Classification: chart.ClassAsset, ParentID: ptrInt64(2), Level: 3, Imputable: true, IsActive: true},
		{ID: 4, Code: "1.1.2", Name: "Banco Cuenta Corriente", Classification: chart.ClassAsset, ParentID: ptrInt64(2), Level: 3, Imputable: true, IsActive: true},
		{ID: 5, Code: "2", Name: "Pasivo", Classification: chart.ClassLiability, Level: 1, IsActive: true},
		{ID: 6, Code: "2.1", Name: "Proveedores", Classification: chart.ClassLiability, ParentID: ptrInt64(5), Level: 2, Imputable: true, IsActive: true},
		{ID: 7, Code: "3", Name: "Patrimonio", Classification: chart.ClassEquity, Level: 1, IsActive: true},
		{ID: 8, Code: "3.1", Name: "Capital", Classification: chart.ClassEquity, ParentID: ptrInt64(7), Level: 2, Imputable: true, IsActive: true},
		{ID: 9, Code: "4", Name: "Ingresos", Classification: chart.ClassIncome, Level: 1, IsActive: true},
		{ID: 10, Code: "4.1", Name: "Ventas de Servicios", Classification: chart.ClassIncome, ParentID: ptrInt64(9), Level: 2, Imputable: true, IsActive: true},
		{ID: 11, Code: "5", Name: "Gastos", Classification: chart.ClassExpense, Level: 1, IsActive: true},
		{ID: 12, Code: "5.1", Name: "Compra de Insumos", Classification: chart.ClassExpense, ParentID: ptrInt64(11), Level: 2, Imputable: true, IsActive: true},
	}
}

func TestBuildAggregatesBottomUp(t *testing.T) {
	// Capital inicial 1000 en banco, compra de insumos 300 en efectivo.
	// Las sumas llegan con signo por direccion: el EGRESO de insumos es
	// negativo tal como lo devuelve el repositorio.
	balances := map[int64]float64{
		3:  -300, // caja chica
		4:  1000, // banco
		8:  1000, // capital
		12: -300, // insumos (EGRESO)
	}
	asOf := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)

	sheet, err := Build(testChart(), balances, asOf)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !sheet.AsOf.Equal(asOf) {
		t.Fatalf("asOf = %v, want %v", sheet.AsOf, asOf)
	}
	if sheet.Assets.Total != 700 {
		t.Fatalf("activo total = %v, want 700", sheet.Assets.Total)
	}
	if len(sheet.Assets.Roots) != 1 {
		t.Fatalf("activo roots = %d, want 1", len(sheet.Assets.Roots))
	}
	root := sheet.Assets.Roots[0]
	if root.Balance != 700 {
		t.Fatalf("raiz activo saldo = %v, want 700", root.Balance)
	}
	if len(root.Children) != 1 || root.Children[0].Balance != 700 {
		t.Fatalf("caja y bancos = %+v, want saldo 700", root.Children)
	}
	leaves := root.Children[0].Children
	if len(leaves) != 2 {
		t.Fatalf("hojas = %d, want 2", len(leaves))
	}
	if leaves[0].Code != "1.1.1" || leaves[0].Balance != -300 {
		t.Fatalf("caja chica = %s %v, want 1.1.1 -300", leaves[0].Code, leaves[0].Balance)
	}
	if leaves[1].Code != "1.1.2" || leaves[1].Balance != 1000 {
		t.Fatalf("banco = %s %v, want 1.1.2 1000", leaves[1].Code, leaves[1].Balance)
	}
	if sheet.Expenses.Total != 300 {
		t.Fatalf("gasto total = %v, want 300", sheet.Expenses.Total)
	}
	if sheet.PeriodResult != -300 {
		t.Fatalf("resultadoPeriodo = %v, want -300", sheet.PeriodResult)
	}
}

func TestBuildFlipsExpensePostingsToNaturalSign(t *testing.T) {
	// Un EGRESO de 300 imputado a un nodo Gasto llega como -300 del
	// repositorio; el gasto se reporta positivo y el resultado negativo.
	balances := map[int64]float64{12: -300}
	sheet, err := Build(testChart(), balances, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if sheet.Expenses.Total != 300 {
		t.Fatalf("gasto total = %v, want 300", sheet.Expenses.Total)
	}
	if sheet.PeriodResult != -300 {
		t.Fatalf("resultadoPeriodo = %v, want -300", sheet.PeriodResult)
	}
	// Con ingresos de 500 el resultado del periodo vuelve a positivo.
	sheet, err = Build(testChart(), map[int64]float64{12: -300, 10: 500}, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if sheet.PeriodResult != 200 {
		t.Fatalf("resultadoPeriodo = %v, want 200", sheet.PeriodResult)
	}
}

func TestBuildEquationBalanced(t *testing.T) {
	balances := map[int64]float64{3: -300, 4: 1000, 8: 1000, 12: -300}
	sheet, err := Build(testChart(), balances, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	eq := sheet.Equation
	if !eq.Balanced {
		t.Fatalf("ecuacion desbalanceada: %+v", eq)
	}
	// Activo 700 = Pasivo 0 + Patrimonio 1000 + Resultado -300.
	if eq.Assets != 700 || eq.Liabilities != 0 || eq.Equity != 1000 || eq.PeriodResult != -300 {
		t.Fatalf("ecuacion = %+v", eq)
	}
	if math.Abs(eq.Difference) > Epsilon {
		t.Fatalf("diferencia = %v", eq.Difference)
	}
}

func TestBuildEquationReportsDiscrepancy(t *testing.T) {
	// Un asiento de una sola pata deja la ecuacion rota: el reporte lo
	// muestra, no lo oculta.
	balances := map[int64]float64{4: 500}
	sheet, err := Build(testChart(), balances, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	eq := sheet.Equation
	if eq.Balanced {
		t.Fatal("ecuacion deberia estar desbalanceada")
	}
	if eq.Difference != 500 {
		t.Fatalf("diferencia = %v, want 500", eq.Difference)
	}
}

func TestBuildIgnoresBalancesForNonImputable(t *testing.T) {
	// Una suma asignada a un nodo agrupador no debe contarse.
	balances := map[int64]float64{1: 999, 4: 100, 8: 100}
	sheet, err := Build(testChart(), balances, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if sheet.Assets.Total != 100 {
		t.Fatalf("activo total = %v, want 100", sheet.Assets.Total)
	}
}

func TestBuildEmptyChart(t *testing.T) {
	sheet, err := Build(nil, nil, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if sheet.Assets.Total != 0 || !sheet.Equation.Balanced {
		t.Fatalf("hoja vacia = %+v", sheet)
	}
}
