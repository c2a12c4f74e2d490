package app

import (
	"context"
	"time"
)

// TimerOutcome tells a countdown's waiter how the wait ended.
type TimerOutcome int

const (
	// TimerFired means the full duration elapsed.
	TimerFired TimerOutcome = iota + 1
	// TimerCancelled means the round finished early or the room went away.
	TimerCancelled
)

func (o TimerOutcome) String() string {
	switch o {
	case TimerFired:
		return "fired"
	case TimerCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// RoundTimer is the cancellable handle of one round's countdown.
type RoundTimer struct {
	round  int
	ctx    context.Context
	cancel context.CancelFunc
}

func newRoundTimer(parent context.Context, round int) *RoundTimer {
	ctx, cancel := context.WithCancel(parent)
	return &RoundTimer{round: round, ctx: ctx, cancel: cancel}
}

// Round is the round number this handle belongs to.
func (t *RoundTimer) Round() int { return t.round }

// Cancel releases anyone waiting on the handle. Safe to call more than once.
func (t *RoundTimer) Cancel() { t.cancel() }

// Done is closed once the handle is cancelled.
func (t *RoundTimer) Done() <-chan struct{} { return t.ctx.Done() }

// Wait blocks for d or until the handle is cancelled, whichever comes first.
// A cancellation that races with expiry wins.
func (t *RoundTimer) Wait(d time.Duration) TimerOutcome {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-t.ctx.Done():
		return TimerCancelled
	case <-timer.C:
		if t.ctx.Err() != nil {
			return TimerCancelled
		}
		return TimerFired
	}
}
