// Package interrupt implements the cooperative cancellation primitive
// described in spec §5: a flag observed at every iteration boundary, plus
// syncrun_with_timeout, which spawns a runner on a worker, arms a monotonic
// deadline, and raises the flag when the deadline elapses.
package interrupt

import (
	"context"
	"sync/atomic"
	"time"

	"localsearch/internal/corespec"
)

// Token is the cooperative cancellation flag every runner checks at its
// iteration boundary. It is not shared between runners (spec §5: "tabu
// lists, observers, and parameter stores are owned by the runner and not
// shared" — the same ownership rule applies to Token).
type Token struct {
	cancelled atomic.Bool
	timedOut  atomic.Bool
}

// NewToken returns a fresh, un-cancelled token.
func NewToken() *Token { return &Token{} }

// Cancel raises the cancellation flag. Safe to call from any goroutine, any
// number of times.
func (t *Token) Cancel() { t.cancelled.Store(true) }

// timeOut raises the flag and marks the reason as a timeout rather than an
// explicit cancellation, so Err() reports the right sentinel.
func (t *Token) timeOut() {
	t.timedOut.Store(true)
	t.cancelled.Store(true)
}

// Requested reports whether cancellation (for any reason) has been
// requested. Runners check this at every iteration boundary; it never
// interrupts a move in the middle of ApplyMove (spec §5: "partial
// application is forbidden").
func (t *Token) Requested() bool { return t.cancelled.Load() }

// Err returns corespec.ErrTimedOut if the token was raised by a deadline,
// corespec.ErrCancelled if raised explicitly, or nil if not requested.
func (t *Token) Err() error {
	if !t.cancelled.Load() {
		return nil
	}
	if t.timedOut.Load() {
		return corespec.ErrTimedOut
	}
	return corespec.ErrCancelled
}

// RunWithTimeout is syncrun_with_timeout: it runs fn on a background
// goroutine, arms a monotonic deadline of d (d<=0 means no deadline), and
// raises tok's flag via timeOut when the deadline elapses before fn
// returns. It blocks until fn returns (whether or not the deadline fired)
// and forwards fn's error. When the deadline (or ctx) fires first and fn
// then returns nil, the token's error is returned instead:
// corespec.ErrTimedOut for a deadline, corespec.ErrCancelled otherwise.
func RunWithTimeout(ctx context.Context, d time.Duration, tok *Token, fn func(ctx context.Context, tok *Token) error) error {
	runCtx := ctx
	var cancel context.CancelFunc
	if d > 0 {
		runCtx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		done <- fn(runCtx, tok)
	}()

	select {
	case err := <-done:
		return err
	case <-runCtx.Done():
		if runCtx.Err() == context.DeadlineExceeded {
			tok.timeOut()
		} else {
			tok.Cancel()
		}
		// Wait for fn to observe the flag and return at its next
		// iteration boundary; ApplyMove is never interrupted mid-call,
		// so this wait is always bounded by one iteration's work.
		err := <-done
		if err == nil {
			return tok.Err()
		}
		return err
	}
}
