package movements

import "testing"

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusVoided, true},
		{StatusPending, StatusReconciled, false},
		{StatusConfirmed, StatusReconciled, true},
		{StatusConfirmed, StatusVoided, true},
		{StatusConfirmed, StatusPending, false},
		{StatusReconciled, StatusVoided, false},
		{StatusReconciled, StatusConfirmed, false},
		{StatusVoided, StatusConfirmed, false},
		{StatusVoided, StatusPending, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.ok {
			t.Fatalf("%s -> %s = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestAffectsBalance(t *testing.T) {
	if StatusPending.AffectsBalance() || StatusVoided.AffectsBalance() {
		t.Fatal("pending/voided must not affect balance")
	}
	if !StatusConfirmed.AffectsBalance() || !StatusReconciled.AffectsBalance() {
		t.Fatal("confirmed/reconciled must affect balance")
	}
}

func TestDirectionValid(t *testing.T) {
	if !DirectionIncome.Valid() || !DirectionExpense.Valid() {
		t.Fatal("known directions must be valid")
	}
	if Direction("INGERSO").Valid() {
		t.Fatal("typoed direction accepted")
	}
}

func TestNewCategoryRejectsCrossDirection(t *testing.T) {
	if _, err := NewCategory(DirectionIncome, "COMPRA_INSUMOS"); err == nil {
		t.Fatal("expense code accepted on income movement")
	}
	if _, err := NewCategory(DirectionExpense, "VENTA_SERVICIO"); err == nil {
		t.Fatal("income code accepted on expense movement")
	}
	cat, err := NewCategory(DirectionIncome, "COBRO_TICKET")
	if err != nil {
		t.Fatalf("NewCategory: %v", err)
	}
	if cat.Code != "COBRO_TICKET" || cat.Direction != DirectionIncome {
		t.Fatalf("unexpected category %+v", cat)
	}
}

func TestSignedAmount(t *testing.T) {
	income := Movement{Direction: DirectionIncome, Amount: 250}
	expense := Movement{Direction: DirectionExpense, Amount: 250}
	if income.SignedAmount() != 250 {
		t.Fatalf("income signed = %v", income.SignedAmount())
	}
	if expense.SignedAmount() != -250 {
		t.Fatalf("expense signed = %v", expense.SignedAmount())
	}
}
