package window

import (
	"time"

	"clinic-orchestrator/pkg/apperror"
)

// Clock supplies the current instant. Guards evaluate against it on every call.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock {
	return systemClock{}
}

var (
	ErrCheckInTooEarly    = apperror.Precondition("checkin_too_early", "check-in is not open yet")
	ErrCheckInTooLate     = apperror.Precondition("checkin_too_late", "check-in closed at the scheduled time")
	ErrCancelTooLate      = apperror.Precondition("cancel_too_late", "too late to cancel, appointments can only be cancelled more than 24 hours in advance")
	ErrJoinWindowNotOpen  = apperror.Precondition("join_window_not_open", "video consultation is not open for joining yet")
	ErrScheduledNotPassed = apperror.Precondition("scheduled_time_not_passed", "scheduled time has not passed yet")
)

// Policy holds the lead times of the time-gated actions.
type Policy struct {
	CheckInLead   time.Duration
	CancelCutoff  time.Duration
	VideoJoinLead time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		CheckInLead:   2 * time.Hour,
		CancelCutoff:  24 * time.Hour,
		VideoJoinLead: time.Hour,
	}
}

// CheckIn permits [scheduled-CheckInLead, scheduled).
func (p Policy) CheckIn(now, scheduled time.Time) error {
	opens := scheduled.Add(-p.CheckInLead)
	if now.Before(opens) {
		return ErrCheckInTooEarly.WithRemaining(opens.Sub(now))
	}
	if !now.Before(scheduled) {
		return ErrCheckInTooLate.WithElapsed(now.Sub(scheduled))
	}
	return nil
}

// Cancel permits only when more than CancelCutoff remains before scheduled.
func (p Policy) Cancel(now, scheduled time.Time) error {
	left := scheduled.Sub(now)
	if left > p.CancelCutoff {
		return nil
	}
	if left < 0 {
		return ErrCancelTooLate.WithElapsed(-left)
	}
	return ErrCancelTooLate.WithRemaining(left)
}

// VideoJoin permits from scheduled-VideoJoinLead onwards.
func (p Policy) VideoJoin(now, scheduled time.Time) error {
	opens := scheduled.Add(-p.VideoJoinLead)
	if now.Before(opens) {
		return ErrJoinWindowNotOpen.WithRemaining(opens.Sub(now))
	}
	return nil
}

// Passed permits once now is strictly after scheduled+grace.
func (p Policy) Passed(now, scheduled time.Time, grace time.Duration) error {
	deadline := scheduled.Add(grace)
	if !now.After(deadline) {
		return ErrScheduledNotPassed.WithRemaining(deadline.Sub(now))
	}
	return nil
}
