package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEventWait(t *testing.T) {
	ctx := context.Background()

	e := New(true)
	require.True(t, e.Wait(ctx, time.Millisecond))

	e.Reset(ctx)
	require.False(t, e.IsSet(ctx))
	require.False(t, e.Wait(ctx, 10*time.Millisecond))

	go func() {
		time.Sleep(10 * time.Millisecond)
		e.Set(ctx)
	}()
	require.True(t, e.Wait(ctx, 5*time.Second))

	// repeated Set/Reset must not panic on a closed channel
	e.Set(ctx)
	e.Reset(ctx)
	e.Reset(ctx)
	e.Set(ctx)
	require.True(t, e.IsSet(ctx))
}

func TestEventWaitCancelled(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	cancelFn()
	require.False(t, New(false).Wait(ctx, time.Second))
}
