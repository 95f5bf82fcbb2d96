package interrupt_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"localsearch/internal/corespec"
	"localsearch/internal/interrupt"
)

func TestRunWithTimeoutReportsDeadlineExceeded(t *testing.T) {
	tok := interrupt.NewToken()
	err := interrupt.RunWithTimeout(context.Background(), 10*time.Millisecond, tok, func(ctx context.Context, tok *interrupt.Token) error {
		<-ctx.Done()
		return nil
	})
	require.True(t, errors.Is(err, corespec.ErrTimedOut))
	require.True(t, tok.Requested())
}

func TestRunWithTimeoutPassesThroughSuccess(t *testing.T) {
	tok := interrupt.NewToken()
	err := interrupt.RunWithTimeout(context.Background(), time.Second, tok, func(ctx context.Context, tok *interrupt.Token) error {
		return nil
	})
	require.NoError(t, err)
	require.False(t, tok.Requested())
}

func TestZeroDurationDisablesDeadline(t *testing.T) {
	tok := interrupt.NewToken()
	ran := false
	err := interrupt.RunWithTimeout(context.Background(), 0, tok, func(ctx context.Context, tok *interrupt.Token) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, ran)
}

func TestCancelIsObservedByErr(t *testing.T) {
	tok := interrupt.NewToken()
	require.NoError(t, tok.Err())
	tok.Cancel()
	require.True(t, errors.Is(tok.Err(), corespec.ErrCancelled))
}
