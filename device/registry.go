// registry.go implements the shared-ownership handle of the decode device context.

package device

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/avhwdec/logger"
	"github.com/xaionaro-go/xsync"
)

// User is a consumer of a Context, typically a decoder.
type User interface {
	// CloseDecoderObject releases the hardware decoder object of the user,
	// keeping its surfaces; it is used when the hardware needs the decoder
	// slot for another user.
	CloseDecoderObject(ctx context.Context)
}

// Registry holds at most one live Context per Platform and hands it out to
// its users.
type Registry struct {
	Platform Platform

	locker  xsync.Mutex
	current *Context
}

func NewRegistry(platform Platform) *Registry {
	return &Registry{
		Platform: platform,
	}
}

// EnsureContext returns the live Context, creating it if there is none, and
// registers the user with it. A live Context left without devices by a
// failed recreation is reset first.
func (r *Registry) EnsureContext(
	ctx context.Context,
	user User,
) (_ret *Context, _err error) {
	logger.Debugf(ctx, "EnsureContext")
	defer func() { logger.Debugf(ctx, "/EnsureContext: %v", _err) }()

	c := r.attach(ctx, user, nil)
	if c == nil {
		devs, err := createDevices(ctx, r.Platform)
		if err != nil {
			return nil, fmt.Errorf("unable to create the decode device context: %w", err)
		}
		created := newContext(r)
		created.locker.Do(ctx, func() {
			created.publishLocked(devs)
		})
		c = r.attach(ctx, user, created)
		if c != created {
			logger.Debugf(ctx, "another user created the decode device context first, discarding ours")
			if err := devs.close(); err != nil {
				logger.Warnf(ctx, "%v", err)
			}
		}
	}

	if !c.isUsable(ctx) {
		if err := c.Reset(ctx); err != nil {
			c.Release(ctx, user)
			return nil, fmt.Errorf("unable to recreate the decode device context: %w", err)
		}
	}
	return c, nil
}

// attach registers the user with the live Context. If there is none, the
// candidate (if any) becomes the live one.
func (r *Registry) attach(
	ctx context.Context,
	user User,
	candidate *Context,
) *Context {
	return xsync.DoR1(ctx, &r.locker, func() *Context {
		if r.current == nil {
			if candidate == nil {
				return nil
			}
			r.current = candidate
		}
		r.current.users.Store(user, struct{}{})
		return r.current
	})
}

// Current returns the live Context or nil.
func (r *Registry) Current(ctx context.Context) *Context {
	return xsync.DoR1(ctx, &r.locker, func() *Context {
		return r.current
	})
}

// RenderAdapter returns the identity of the adapter the render device runs on.
func (r *Registry) RenderAdapter(ctx context.Context) (AdapterDesc, error) {
	render, err := r.Platform.RenderDevice(ctx)
	if err != nil {
		return AdapterDesc{}, fmt.Errorf("unable to get the render device: %w", err)
	}
	return render.Adapter(), nil
}

// Release detaches the user from the current Context; the last user
// closes it.
func (r *Registry) Release(ctx context.Context, user User) {
	if c := r.Current(ctx); c != nil {
		c.Release(ctx, user)
	}
}

func (r *Registry) release(
	ctx context.Context,
	c *Context,
	user User,
) {
	isLast := false
	r.locker.Do(ctx, func() {
		c.users.Delete(user)
		if c.UserCount() > 0 {
			return
		}
		if r.current == c {
			r.current = nil
		}
		isLast = true
	})
	if !isLast {
		return
	}
	logger.Debugf(ctx, "the last user left the decode device context, closing it")
	if err := c.close(ctx); err != nil {
		logger.Errorf(ctx, "unable to close the decode device context: %v", err)
	}
}
