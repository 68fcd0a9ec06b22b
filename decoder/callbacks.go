// callbacks.go implements the callbacks the codec library invokes.

package decoder

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/avhwdec/device"
	"github.com/xaionaro-go/avhwdec/logger"
	"github.com/xaionaro-go/avhwdec/pool"
	"github.com/xaionaro-go/avhwdec/types"
	"github.com/xaionaro-go/avhwdec/videobuffer"
	"github.com/xaionaro-go/xcontext"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

// surfaceLease is the codec library's reference to a surface leased by
// GetBuffer; the surface returns to its pool with the last reference, which
// may be dropped on the render thread after the decode context is done.
type surfaceLease struct {
	ctx      context.Context
	pool     *videobuffer.Pool
	view     device.View
	refs     atomic.Int32
	recycler *pool.Pool[surfaceLease]
}

var _ videobuffer.Frame = (*surfaceLease)(nil)

func (l *surfaceLease) View() device.View {
	return l.view
}

func (l *surfaceLease) AddRef() {
	l.refs.Inc()
}

func (l *surfaceLease) Release() {
	refs := l.refs.Dec()
	if refs > 0 {
		return
	}
	if refs < 0 {
		logger.Errorf(l.ctx, "the surface lease is released more times than referenced")
		return
	}
	ctx, bufPool, view, recycler := l.ctx, l.pool, l.view, l.recycler
	recycler.Put(l)
	bufPool.ReturnView(ctx, view)
}

func (l *surfaceLease) reset() {
	l.ctx = nil
	l.pool = nil
	l.view = nil
	l.recycler = nil
}

// GetFormat picks the pixel format from the candidates offered by the codec
// library: the hardware one if the stream can be opened on the hardware,
// otherwise the first software one.
func (d *Decoder) GetFormat(
	ctx context.Context,
	params StreamParams,
	candidates []types.PixelFormat,
) (_ret types.PixelFormat) {
	logger.Debugf(ctx, "GetFormat(%v)", candidates)
	defer func() { logger.Debugf(ctx, "/GetFormat: '%s'", _ret) }()
	return xsync.DoA3R1(ctx, &d.locker, d.getFormatLocked, ctx, params, candidates)
}

func (d *Decoder) getFormatLocked(
	ctx context.Context,
	params StreamParams,
	candidates []types.PixelFormat,
) types.PixelFormat {
	for _, candidate := range candidates {
		if candidate != d.config.PixelFormat {
			continue
		}
		if d.isOpenForLocked(ctx, params) {
			return candidate
		}
		err := d.openLocked(ctx, params)
		if err == nil {
			return candidate
		}
		if IsSoftwareFallback(err) {
			logger.Debugf(ctx, "falling back to software decoding: %v", err)
		} else {
			logger.Errorf(ctx, "unable to open the hardware decoder: %v", err)
		}
		break
	}
	for _, candidate := range candidates {
		if !candidate.IsHardware() {
			return candidate
		}
	}
	return types.PixelFormatNone
}

func (d *Decoder) isOpenForLocked(ctx context.Context, params StreamParams) bool {
	return xsync.DoR1(ctx, &d.stateLocker, func() bool {
		return d.state == StateOpen && d.params == params
	})
}

// GetBuffer leases a free surface for the next frame to be decoded into.
func (d *Decoder) GetBuffer(ctx context.Context) (_ret videobuffer.Frame, _err error) {
	logger.Tracef(ctx, "GetBuffer")
	defer func() { logger.Tracef(ctx, "/GetBuffer: %v", _err) }()

	var (
		state   State
		bufPool *videobuffer.Pool
	)
	d.stateLocker.Do(ctx, func() {
		state, bufPool = d.state, d.pool
	})
	if state != StateOpen || bufPool == nil {
		d.Statistics.BufferFailures.Inc()
		return nil, fmt.Errorf("the decoder is %s: %w", state, ErrNotOpen{})
	}
	view, ok := bufPool.GetView(ctx)
	if !ok {
		d.Statistics.BufferFailures.Inc()
		logger.Errorf(ctx, "unable to find a free surface")
		return nil, fmt.Errorf("no free surface among %d", bufPool.Size(ctx))
	}

	lease := d.leases.Get()
	lease.ctx = xcontext.DetachDone(ctx)
	lease.pool = bufPool
	lease.view = view
	lease.recycler = d.leases
	lease.refs.Store(1)
	return lease, nil
}

// ReleaseBuffer drops the codec library's reference to a surface obtained
// from GetBuffer.
func (d *Decoder) ReleaseBuffer(frame videobuffer.Frame) {
	if frame == nil {
		return
	}
	frame.Release()
}
