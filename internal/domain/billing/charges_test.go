package billing

import "testing"

func TestFeeRules_Precedence(t *testing.T) {
	order := []string{ChargeMedicine, ChargeProcedure, ChargeFixed, ChargePercentage, ChargeDiscount}
	for i, typ := range order {
		if got := Precedence(typ); got != i {
			t.Errorf("expected %s at rank %d, got %d", typ, i, got)
		}
	}
	if got := Precedence("UNKNOWN"); got != len(FeeRules) {
		t.Errorf("unknown type must sort last, got %d", got)
	}
}

func TestRuleFor_Flags(t *testing.T) {
	medicine, ok := RuleFor(ChargeMedicine)
	if !ok {
		t.Fatal("expected MEDICINE rule")
	}
	if !medicine.AutoAdded || medicine.Selective || medicine.Removable {
		t.Errorf("unexpected MEDICINE flags: %+v", medicine)
	}

	discount, ok := RuleFor(ChargeDiscount)
	if !ok {
		t.Fatal("expected DISCOUNT rule")
	}
	if discount.AutoAdded || !discount.Selective || !discount.Removable {
		t.Errorf("unexpected DISCOUNT flags: %+v", discount)
	}

	if _, ok := RuleFor("UNKNOWN"); ok {
		t.Error("unknown type must have no rule")
	}
}

func TestApplyCharges_AbsoluteThenRates(t *testing.T) {
	charges := []Charge{
		{Name: "Service fee", Type: ChargeFixed, Value: 200},
		{Name: "Dressing", Type: ChargeProcedure, Value: 50},
		{Name: "Tax", Type: ChargePercentage, Value: 10},
		{Name: "Member discount", Type: ChargeDiscount, Value: 5},
	}
	// (1000 + 50 + 200) * 1.10 * 0.95
	want := 1306.25
	if got := ApplyCharges(1000, charges); got != want {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestApplyCharges_OrderIndependent(t *testing.T) {
	forward := []Charge{
		{Type: ChargeFixed, Value: 100},
		{Type: ChargePercentage, Value: 10},
	}
	reversed := []Charge{
		{Type: ChargePercentage, Value: 10},
		{Type: ChargeFixed, Value: 100},
	}
	if a, b := ApplyCharges(500, forward), ApplyCharges(500, reversed); a != b {
		t.Errorf("input order changed the total: %f vs %f", a, b)
	}
	// Percentage must apply to the running total, not the base.
	if got := ApplyCharges(500, reversed); got != 660 {
		t.Errorf("expected 660, got %f", got)
	}
}

func TestApplyCharges_NoAdjustments(t *testing.T) {
	if got := ApplyCharges(750, nil); got != 750 {
		t.Errorf("expected base unchanged, got %f", got)
	}
}
