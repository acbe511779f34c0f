package billing

import "sort"

// FeeRule describes how one charge type participates in a bill.
type FeeRule struct {
	Type string `json:"type"`
	// AutoAdded charges join every bill without being picked.
	AutoAdded bool `json:"auto_added"`
	// Selective charges are chosen per bill by the cashier.
	Selective bool `json:"selective"`
	// Removable charges can be struck off an individual bill.
	Removable bool `json:"removable"`
}

// FeeRules is the fee precedence table. Order is application order:
// the medicines base is established first, absolute charges are added
// next, and rate-based charges apply to the running total last. This
// slice is the single source of truth for that ordering.
var FeeRules = []FeeRule{
	{Type: ChargeMedicine, AutoAdded: true},
	{Type: ChargeProcedure, Selective: true, Removable: true},
	{Type: ChargeFixed, AutoAdded: true, Removable: true},
	{Type: ChargePercentage, AutoAdded: true, Removable: true},
	{Type: ChargeDiscount, Selective: true, Removable: true},
}

// RuleFor looks up the fee rule for a charge type.
func RuleFor(chargeType string) (FeeRule, bool) {
	for _, r := range FeeRules {
		if r.Type == chargeType {
			return r, true
		}
	}
	return FeeRule{}, false
}

// Precedence returns the application rank of a charge type, lower first.
// Unknown types sort last.
func Precedence(chargeType string) int {
	for i, r := range FeeRules {
		if r.Type == chargeType {
			return i
		}
	}
	return len(FeeRules)
}

// ApplyCharges folds adjustment charges over a medicines base, in fee
// rule order regardless of the order charges are passed in. PROCEDURE and
// FIXED values are absolute amounts; PERCENTAGE and DISCOUNT are rates
// applied to the running total.
func ApplyCharges(base float64, charges []Charge) float64 {
	ordered := make([]Charge, len(charges))
	copy(ordered, charges)
	sort.SliceStable(ordered, func(i, j int) bool {
		return Precedence(ordered[i].Type) < Precedence(ordered[j].Type)
	})

	total := base
	for _, c := range ordered {
		switch c.Type {
		case ChargeProcedure, ChargeFixed:
			total += c.Value
		case ChargePercentage:
			total += total * c.Value / 100
		case ChargeDiscount:
			total -= total * c.Value / 100
		}
	}
	return total
}
