package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gopfolio/internal/common"
	"github.com/dmitrijs2005/gopfolio/internal/dbx"
)

// Steps reported by PersistenceError.
const (
	StepLoadAccount        = "load account"
	StepSaveLoginState     = "save login state"
	StepSaveProfile        = "save profile"
	StepStorePhoto         = "store photo"
	StepSeedAccount        = "seed account"
	StepUpsertDetails      = "upsert details"
	StepRefreshPercentages = "refresh percentages"
	StepRecomputeTotals    = "recompute totals"
	StepSaveTotals         = "save totals"
	StepLoadTotals         = "load totals"
	StepInsertTransactions = "insert transactions"
	StepLoadHistory        = "load history"
	StepLoadDetails        = "load details"
	StepSaveTargets        = "save targets"
	StepDeleteTransactions = "delete transactions"
	StepDeleteDetails      = "delete details"
	StepDeactivateCatalog  = "deactivate catalog"
	StepResetTotals        = "reset totals"
	StepCatalog            = "catalog"
	StepRename             = "rename"
	StepBegin              = "begin"
	StepCommit             = "commit"
)

// PersistenceError reports the storage step that failed. The whole unit of
// work it belonged to has been rolled back.
type PersistenceError struct {
	Step string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", common.ErrPersistence, e.Step, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == common.ErrPersistence }

// persistence wraps err as a PersistenceError unless it already is one.
func persistence(step string, err error) error {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return pe
	}
	return &PersistenceError{Step: step, Err: err}
}

// txFailure names the step for an error that escaped dbx.WithTx without a
// step of its own: the transaction either never opened or failed to commit.
func txFailure(err error) error {
	if errors.Is(err, dbx.ErrBeginTx) {
		return persistence(StepBegin, err)
	}
	return persistence(StepCommit, err)
}

// passThrough reports whether err is a domain outcome that must reach the
// caller unwrapped.
func passThrough(err error) bool {
	return errors.Is(err, common.ErrorNotFound) ||
		errors.Is(err, common.ErrorAlreadyExists) ||
		errors.Is(err, common.ErrorValidation) ||
		errors.Is(err, common.ErrNotAuthorized)
}
