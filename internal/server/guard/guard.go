// Package guard implements the per-account failed-login state machine.
//
// The guard is a pure function of the stored state, the verifier result and
// the current time. Callers load the state, call Evaluate, persist
// Decision.Next when Decision.Changed is set, and report Decision.Err().
package guard

import (
	"math"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseLockout = 30 * time.Minute
)

// Policy holds the lockout threshold and the first lockout window.
type Policy struct {
	MaxAttempts int
	BaseLockout time.Duration
}

func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, BaseLockout: DefaultBaseLockout}
}

// normalized substitutes defaults for non-positive settings.
func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseLockout <= 0 {
		p.BaseLockout = DefaultBaseLockout
	}
	return p
}

// LockoutFor returns the lockout window after failed consecutive failures:
// zero below the threshold, then BaseLockout × 2^(failed/MaxAttempts − 1).
// The result saturates at math.MaxInt64 instead of overflowing.
func (p Policy) LockoutFor(failed int) time.Duration {
	p = p.normalized()
	crossings := failed / p.MaxAttempts
	if crossings < 1 {
		return 0
	}

	d := p.BaseLockout
	for i := 1; i < crossings; i++ {
		if d > math.MaxInt64/2 {
			return time.Duration(math.MaxInt64)
		}
		d *= 2
	}
	return d
}

// State is what gets persisted per account.
type State struct {
	FailedAttempts int
	LockoutUntil   *time.Time
}

// Locked reports whether a lockout is active at now.
func (s State) Locked(now time.Time) bool {
	return s.LockoutUntil != nil && s.LockoutUntil.After(now)
}

type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeLocked
	OutcomeInvalidCredentials
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeLocked:
		return "locked"
	case OutcomeInvalidCredentials:
		return "invalid_credentials"
	default:
		return "unknown"
	}
}

// Decision is the result of one login attempt.
type Decision struct {
	Outcome Outcome
	// Next is the state to persist. It equals the input state when Changed is false.
	Next    State
	Changed bool
	// Remaining is set for OutcomeLocked.
	Remaining time.Duration
	// AttemptsLeft is set for OutcomeInvalidCredentials.
	AttemptsLeft int
}

// Err maps the decision to a typed error, or nil on success.
func (d Decision) Err() error {
	switch d.Outcome {
	case OutcomeLocked:
		return &LockedError{Remaining: d.Remaining}
	case OutcomeInvalidCredentials:
		return &InvalidCredentialsError{AttemptsLeft: d.AttemptsLeft}
	default:
		return nil
	}
}

// Evaluate runs one attempt. verify is only called when no lockout is active.
func (p Policy) Evaluate(st State, now time.Time, verify func() bool) Decision {
	p = p.normalized()

	if st.Locked(now) {
		return Decision{
			Outcome:   OutcomeLocked,
			Next:      st,
			Remaining: st.LockoutUntil.Sub(now),
		}
	}

	next := st
	changed := false

	// expired lockout, or threshold reached without a lockout: start over
	if st.LockoutUntil != nil || st.FailedAttempts >= p.MaxAttempts {
		next = State{}
		changed = true
	}

	if verify() {
		if next.FailedAttempts != 0 || next.LockoutUntil != nil {
			changed = true
		}
		return Decision{Outcome: OutcomeOK, Next: State{}, Changed: changed}
	}

	next.FailedAttempts++
	if next.FailedAttempts >= p.MaxAttempts {
		until := now.Add(p.LockoutFor(next.FailedAttempts))
		next.LockoutUntil = &until
	}

	return Decision{
		Outcome:      OutcomeInvalidCredentials,
		Next:         next,
		Changed:      true,
		AttemptsLeft: max(0, p.MaxAttempts-next.FailedAttempts),
	}
}
