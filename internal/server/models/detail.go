package models

import "github.com/shopspring/decimal"

// Detail is the cumulative snapshot for one named asset or goal.
type Detail struct {
	Kind       Kind            `json:"kind"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Target     decimal.Decimal `json:"target"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Progress is Amount / Target × 100 rounded to 2 places. ok is false while
// no target is set.
func (d Detail) Progress() (progress decimal.Decimal, ok bool) {
	if !d.Target.IsPositive() {
		return decimal.Zero, false
	}
	return d.Amount.Div(d.Target).Mul(decimal.NewFromInt(100)).Round(2), true
}

// Totals holds the sums of cumulative amounts per kind.
type Totals struct {
	Invested decimal.Decimal `json:"totalInvested"`
	Goals    decimal.Decimal `json:"totalGoals"`
}

// Of returns the total for kind.
func (t Totals) Of(k Kind) decimal.Decimal {
	if k == KindGoal {
		return t.Goals
	}
	return t.Invested
}
