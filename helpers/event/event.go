// event.go implements a manual-reset event with a bounded wait.

// Package event provides a manual-reset event: once Set, every waiter is
// released until the event is Reset again.
package event

import (
	"context"
	"time"

	"github.com/go-ng/xatomic"
	"github.com/xaionaro-go/avhwdec/internal"
	"github.com/xaionaro-go/avhwdec/logger"
	"github.com/xaionaro-go/xsync"
)

type Event struct {
	locker xsync.Mutex
	ch     *chan struct{}
	isSet  bool
}

func New(isSet bool) *Event {
	e := &Event{
		ch: internal.Ptr(make(chan struct{})),
	}
	if isSet {
		close(*e.ch)
		e.isSet = true
	}
	return e
}

func (e *Event) Set(ctx context.Context) {
	logger.Tracef(ctx, "Set")
	e.locker.Do(xsync.WithNoLogging(ctx, true), func() {
		if e.isSet {
			return
		}
		e.isSet = true
		close(*xatomic.LoadPointer(&e.ch))
	})
}

func (e *Event) Reset(ctx context.Context) {
	logger.Tracef(ctx, "Reset")
	e.locker.Do(xsync.WithNoLogging(ctx, true), func() {
		if !e.isSet {
			return
		}
		e.isSet = false
		xatomic.StorePointer(&e.ch, internal.Ptr(make(chan struct{})))
	})
}

func (e *Event) IsSet(ctx context.Context) bool {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &e.locker, func() bool {
		return e.isSet
	})
}

// Chan returns a channel that is closed once the event is set.
func (e *Event) Chan() <-chan struct{} {
	return *xatomic.LoadPointer(&e.ch)
}

// Wait blocks until the event is set, the timeout expires or the context is
// cancelled; it returns true only in the first case.
func (e *Event) Wait(ctx context.Context, timeout time.Duration) bool {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-e.Chan():
		return true
	case <-t.C:
		return e.IsSet(ctx)
	case <-ctx.Done():
		return false
	}
}
