package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gopfolio/internal/common"
)

// Kind separates invested assets from savings goals.
type Kind string

const (
	KindInvestment Kind = "investment"
	KindGoal       Kind = "goal"
)

var Kinds = []Kind{KindInvestment, KindGoal}

// ParseKind accepts the canonical names plus the plural and "asset" forms
// used by the web client, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "investment", "investments", "asset", "assets", "invested":
		return KindInvestment, nil
	case "goal", "goals":
		return KindGoal, nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrorInvalidKind, s)
	}
}

func (k Kind) Valid() bool {
	return k == KindInvestment || k == KindGoal
}

func (k Kind) String() string { return string(k) }
