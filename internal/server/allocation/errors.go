package allocation

import (
	"fmt"

	"github.com/dmitrijs2005/gopfolio/internal/common"
	"github.com/dmitrijs2005/gopfolio/internal/server/models"
	"github.com/shopspring/decimal"
)

// ImbalanceError carries both declared totals and the computed sums so the
// caller can correct its submission.
type ImbalanceError struct {
	DeclaredInvested decimal.Decimal
	DeclaredGoals    decimal.Decimal
	SumInvested      decimal.Decimal
	SumGoals         decimal.Decimal
}

func (e *ImbalanceError) Error() string {
	return fmt.Sprintf("%s: declared invested %s, declared goals %s (selections sum to %s and %s)",
		common.ErrImbalancedAllocation, e.DeclaredInvested, e.DeclaredGoals, e.SumInvested, e.SumGoals)
}

func (e *ImbalanceError) Is(target error) bool {
	return target == common.ErrImbalancedAllocation
}

// SelectionError points at the first malformed selection.
type SelectionError struct {
	Kind   models.Kind
	Index  int
	Name   string
	Reason string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("%s: %s[%d] %q: %s", common.ErrInvalidSelection, e.Kind, e.Index, e.Name, e.Reason)
}

func (e *SelectionError) Is(target error) bool {
	return target == common.ErrInvalidSelection
}
