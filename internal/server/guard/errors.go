package guard

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gopfolio/internal/common"
)

// LockedError is returned while a lockout window is active.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s: retry in %s", common.ErrAccountLocked, e.Remaining.Round(time.Second))
}

func (e *LockedError) Is(target error) bool { return target == common.ErrAccountLocked }

// InvalidCredentialsError reports how many attempts remain before lockout.
type InvalidCredentialsError struct {
	AttemptsLeft int
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("%s: %d attempts left", common.ErrInvalidCredentials, e.AttemptsLeft)
}

func (e *InvalidCredentialsError) Is(target error) bool {
	return target == common.ErrInvalidCredentials
}
