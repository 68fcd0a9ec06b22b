// pool.go implements Pool: the arena of decode surfaces and buffer wrappers.

package videobuffer

import (
	"context"
	"fmt"
	"slices"

	"github.com/xaionaro-go/avhwdec/device"
	"github.com/xaionaro-go/avhwdec/internal"
	"github.com/xaionaro-go/avhwdec/logger"
	"github.com/xaionaro-go/xsync"
)

// Pool owns the decode surfaces ("views") and the VideoBuffer wrappers; it
// keeps separate free lists for both.
//
// The free lists never contain the same index twice, so a surface is leased
// at most once at a time.
type Pool struct {
	backend Backend
	texture device.Texture

	locker      xsync.Mutex
	views       []device.View
	freeViews   []int
	buffers     []*VideoBuffer
	freeBuffers []int
	isDisposed  bool
	isReset     bool
}

// New creates a pool; the pool takes the ownership of the texture the views
// are created on (which may be nil).
func New(backend Backend, texture device.Texture) *Pool {
	return &Pool{
		backend: backend,
		texture: texture,
	}
}

func (p *Pool) Backend() Backend {
	return p.backend
}

// AddView registers a new surface as free.
func (p *Pool) AddView(ctx context.Context, view device.View) int {
	return xsync.DoR1(ctx, &p.locker, func() int {
		idx := len(p.views)
		p.views = append(p.views, view)
		p.freeViews = append(p.freeViews, idx)
		return idx
	})
}

// GetView leases a free surface to the codec library.
func (p *Pool) GetView(ctx context.Context) (device.View, bool) {
	return xsync.DoR2(ctx, &p.locker, func() (device.View, bool) {
		if len(p.freeViews) == 0 {
			return nil, false
		}
		idx := p.freeViews[0]
		p.freeViews = p.freeViews[1:]
		return p.views[idx], true
	})
}

// ReturnView takes back a surface leased by GetView.
func (p *Pool) ReturnView(ctx context.Context, view device.View) {
	reset := xsync.DoR1(ctx, &p.locker, func() bool {
		idx := p.viewIndexLocked(view)
		switch {
		case idx < 0:
			logger.Debugf(ctx, "returned a surface that does not belong to the pool")
			return false
		case slices.Contains(p.freeViews, idx):
			logger.Errorf(ctx, "surface #%d is returned twice", idx)
			return false
		}
		p.freeViews = append(p.freeViews, idx)
		return p.isDisposed && !p.hasRefsLocked()
	})
	if reset {
		p.Reset(ctx)
	}
}

// IsValid returns false for surfaces not owned by this pool.
func (p *Pool) IsValid(ctx context.Context, view device.View) bool {
	return p.viewIndex(ctx, view) >= 0
}

func (p *Pool) viewIndex(ctx context.Context, view device.View) int {
	return xsync.DoA1R1(ctx, &p.locker, p.viewIndexLocked, view)
}

func (p *Pool) viewIndexLocked(view device.View) int {
	if view == nil {
		return -1
	}
	return slices.Index(p.views, view)
}

// Get leases a buffer wrapper with a reference count of one.
func (p *Pool) Get(ctx context.Context) *VideoBuffer {
	return xsync.DoR1(ctx, &p.locker, func() *VideoBuffer {
		var b *VideoBuffer
		if len(p.freeBuffers) > 0 {
			id := p.freeBuffers[0]
			p.freeBuffers = p.freeBuffers[1:]
			b = p.buffers[id]
			internal.Assert(ctx, b.refs.Load() == 0, b.ID(), b.refs.Load())
		} else {
			b = newVideoBuffer(len(p.buffers), p)
			p.buffers = append(p.buffers, b)
		}
		b.refs.Store(1)
		return b
	})
}

// Return is called when the reference count of the buffer reached zero.
func (p *Pool) Return(ctx context.Context, id int) {
	b := xsync.DoR1(ctx, &p.locker, func() *VideoBuffer {
		if id < 0 || id >= len(p.buffers) {
			return nil
		}
		return p.buffers[id]
	})
	if b == nil {
		logger.Errorf(ctx, "unknown buffer #%d", id)
		return
	}

	// the frame release may return the surface to this pool
	b.Unref(ctx)

	reset := xsync.DoR1(ctx, &p.locker, func() bool {
		if slices.Contains(p.freeBuffers, id) {
			logger.Errorf(ctx, "buffer #%d is returned twice", id)
			return false
		}
		p.freeBuffers = append(p.freeBuffers, id)
		return p.isDisposed && !p.hasRefsLocked()
	})
	if reset {
		p.Reset(ctx)
	}
}

// HasRefs returns true while any buffer or surface is leased.
func (p *Pool) HasRefs(ctx context.Context) bool {
	return xsync.DoR1(ctx, &p.locker, p.hasRefsLocked)
}

func (p *Pool) hasRefsLocked() bool {
	return len(p.freeBuffers) != len(p.buffers) || len(p.freeViews) != len(p.views)
}

func (p *Pool) FreeViews(ctx context.Context) int {
	return xsync.DoR1(ctx, &p.locker, func() int {
		return len(p.freeViews)
	})
}

func (p *Pool) FreeBuffers(ctx context.Context) int {
	return xsync.DoR1(ctx, &p.locker, func() int {
		return len(p.freeBuffers)
	})
}

func (p *Pool) Buffers(ctx context.Context) int {
	return xsync.DoR1(ctx, &p.locker, func() int {
		return len(p.buffers)
	})
}

// Size returns the number of surfaces.
func (p *Pool) Size(ctx context.Context) int {
	return xsync.DoR1(ctx, &p.locker, func() int {
		return len(p.views)
	})
}

func (p *Pool) String() string {
	return fmt.Sprintf("VideoBufferPool(%s)", p.backend.Variant)
}

// Reset releases all the surfaces and destroys all the buffers. It is safe
// only when nothing references any buffer or surface.
func (p *Pool) Reset(ctx context.Context) {
	logger.Debugf(ctx, "Reset")
	defer func() { logger.Debugf(ctx, "/Reset") }()

	var (
		views   []device.View
		buffers []*VideoBuffer
		texture device.Texture
	)
	p.locker.Do(ctx, func() {
		if p.hasRefsLocked() {
			logger.Warnf(ctx, "resetting %s while %d buffers and %d surfaces are in use",
				p, len(p.buffers)-len(p.freeBuffers), len(p.views)-len(p.freeViews))
		}
		views, buffers, texture = p.views, p.buffers, p.texture
		p.views, p.freeViews = nil, nil
		p.buffers, p.freeBuffers = nil, nil
		p.texture = nil
		p.isReset = true
	})

	for _, b := range buffers {
		b.destroy(ctx)
	}
	for _, v := range views {
		v.Release()
	}
	if texture != nil {
		texture.Release()
	}
}

// Dispose resets the pool now, or once the last leased buffer and surface
// are returned.
func (p *Pool) Dispose(ctx context.Context) {
	logger.Debugf(ctx, "Dispose")
	reset := xsync.DoR1(ctx, &p.locker, func() bool {
		if p.isDisposed {
			return false
		}
		p.isDisposed = true
		return !p.hasRefsLocked()
	})
	if reset {
		p.Reset(ctx)
	}
}

// IsReleased returns true once the surfaces are released.
func (p *Pool) IsReleased(ctx context.Context) bool {
	return xsync.DoR1(ctx, &p.locker, func() bool {
		return p.isReset
	})
}
