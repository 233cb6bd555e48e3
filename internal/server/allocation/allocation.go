// Package allocation validates allocation submissions and computes the
// percentages the reconciler writes. It does no I/O.
package allocation

import (
	"strings"

	"github.com/dmitrijs2005/gopfolio/internal/common"
	"github.com/dmitrijs2005/gopfolio/internal/server/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Selection is one chosen asset or goal with the amount contributed to it.
type Selection struct {
	Name   string          `json:"name" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// Submission is a client allocation: both sides plus the totals the client
// claims they add up to.
type Submission struct {
	Invested         []Selection
	Goals            []Selection
	DeclaredInvested decimal.Decimal
	DeclaredGoals    decimal.Decimal
}

// Line is a validated, non-zero selection ready to be written.
type Line struct {
	Kind       models.Kind
	Name       string
	Amount     decimal.Decimal
	Percentage decimal.Decimal
}

// Plan is the outcome of a balanced submission.
type Plan struct {
	Invested      []Line
	Goals         []Line
	TotalInvested decimal.Decimal
	TotalGoals    decimal.Decimal
}

// Lines returns the plan lines of kind.
func (p *Plan) Lines(k models.Kind) []Line {
	if k == models.KindGoal {
		return p.Goals
	}
	return p.Invested
}

// Len is the number of transactions the plan produces.
func (p *Plan) Len() int { return len(p.Invested) + len(p.Goals) }

// Build validates s and turns it into a Plan. Malformed selections yield a
// *SelectionError; unequal sums or declared totals yield an *ImbalanceError.
// Zero amounts are dropped from the plan.
func Build(s Submission) (*Plan, error) {
	if err := validateSelections(models.KindInvestment, s.Invested); err != nil {
		return nil, err
	}
	if err := validateSelections(models.KindGoal, s.Goals); err != nil {
		return nil, err
	}

	sumInvested := Sum(s.Invested)
	sumGoals := Sum(s.Goals)

	if !sumInvested.Equal(s.DeclaredInvested) ||
		!sumGoals.Equal(s.DeclaredGoals) ||
		!s.DeclaredInvested.Equal(s.DeclaredGoals) {
		return nil, &ImbalanceError{
			DeclaredInvested: s.DeclaredInvested,
			DeclaredGoals:    s.DeclaredGoals,
			SumInvested:      sumInvested,
			SumGoals:         sumGoals,
		}
	}

	return &Plan{
		Invested:      lines(models.KindInvestment, s.Invested, s.DeclaredInvested),
		Goals:         lines(models.KindGoal, s.Goals, s.DeclaredGoals),
		TotalInvested: s.DeclaredInvested,
		TotalGoals:    s.DeclaredGoals,
	}, nil
}

func validateSelections(k models.Kind, sel []Selection) error {
	for i, s := range sel {
		switch {
		case strings.TrimSpace(s.Name) == "":
			return &SelectionError{Kind: k, Index: i, Name: s.Name, Reason: "name is required"}
		case s.Amount.IsNegative():
			return &SelectionError{Kind: k, Index: i, Name: s.Name, Reason: "amount must not be negative"}
		case !s.Amount.Equal(s.Amount.Round(common.AmountScale)):
			return &SelectionError{Kind: k, Index: i, Name: s.Name, Reason: "amount has more than 2 decimal places"}
		}
	}
	return nil
}

func lines(k models.Kind, sel []Selection, total decimal.Decimal) []Line {
	out := make([]Line, 0, len(sel))
	for _, s := range sel {
		if s.Amount.IsZero() {
			continue
		}
		out = append(out, Line{
			Kind:       k,
			Name:       strings.TrimSpace(s.Name),
			Amount:     s.Amount,
			Percentage: Percentage(s.Amount, total),
		})
	}
	return out
}

// Sum adds the selection amounts.
func Sum(sel []Selection) decimal.Decimal {
	total := decimal.Zero
	for _, s := range sel {
		total = total.Add(s.Amount)
	}
	return total
}

// Percentage is amount / total × 100 rounded to 2 places, or 0 for a zero total.
func Percentage(amount, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return amount.Div(total).Mul(hundred).Round(2)
}

// RefreshShares recomputes every detail's share of the kind total in place
// and returns that total.
func RefreshShares(details []models.Detail) decimal.Decimal {
	total := decimal.Zero
	for _, d := range details {
		total = total.Add(d.Amount)
	}
	for i := range details {
		details[i].Percentage = Percentage(details[i].Amount, total)
	}
	return total
}
