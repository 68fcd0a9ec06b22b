// decoder.go implements Decoder: the per-stream hardware accelerator.

// Package decoder implements the per-stream hardware decode accelerator: the
// only component the codec library talks to.
package decoder

import (
	"context"
	"errors"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/xaionaro-go/avhwdec/device"
	"github.com/xaionaro-go/avhwdec/helpers/event"
	"github.com/xaionaro-go/avhwdec/logger"
	"github.com/xaionaro-go/avhwdec/pool"
	"github.com/xaionaro-go/avhwdec/types"
	"github.com/xaionaro-go/avhwdec/videobuffer"
	"github.com/xaionaro-go/xsync"
)

// Decoder is not safe for concurrent decoding: the codec library is
// expected to call it from one decode thread. Pictures may be released from
// any thread, and the lifecycle notifications may come from any thread.
type Decoder struct {
	registry *device.Registry
	config   Config

	// locker serializes the decode-thread operations; it is held across
	// hardware calls.
	locker xsync.Mutex

	// stateLocker guards the fields below it and is never held across a
	// hardware call.
	stateLocker  xsync.Mutex
	state        State
	object       device.DecoderObject
	inFlight     *videobuffer.VideoBuffer
	deviceCtx    *device.Context
	generation   uint64
	format       device.DecodeFormat
	decodeConfig device.DecodeConfig
	params       StreamParams
	pool         *videobuffer.Pool
	surfaceCount SurfaceCount
	unsubscribe  func()

	restored *event.Event
	leases   *pool.Pool[surfaceLease]

	Statistics Statistics
}

var (
	_ device.User              = (*Decoder)(nil)
	_ device.LifecycleListener = (*Decoder)(nil)
	_ types.Closer             = (*Decoder)(nil)
)

func New(
	ctx context.Context,
	registry *device.Registry,
	cfg Config,
) *Decoder {
	logger.Debugf(ctx, "New(enabled:%t, max surfaces:%d, pixel format:%s)", cfg.Enabled, cfg.MaxSurfaces, cfg.PixelFormat)
	d := &Decoder{
		registry: registry,
		config:   cfg,
		restored: event.New(true),
	}
	d.leases = pool.NewPool(
		func() *surfaceLease {
			return &surfaceLease{}
		},
		func(l *surfaceLease) {
			l.reset()
		},
	)
	return d
}

func (d *Decoder) String() string {
	return fmt.Sprintf("Decoder(%p)", d)
}

func (d *Decoder) State() State {
	return xsync.DoR1(context.TODO(), &d.stateLocker, func() State {
		return d.state
	})
}

// requestReset makes the next Check reopen the decoder; a lost device
// keeps the decoder LOST until it is restored.
func (d *Decoder) requestReset(ctx context.Context) {
	d.stateLocker.Do(ctx, func() {
		switch d.state {
		case StateLost, StateClosed:
			return
		}
		logger.Debugf(ctx, "state %s -> %s", d.state, StateReset)
		d.state = StateReset
	})
}

func (d *Decoder) Format() device.DecodeFormat {
	return xsync.DoR1(context.TODO(), &d.stateLocker, func() device.DecodeFormat {
		return d.format
	})
}

func (d *Decoder) SurfaceCount() SurfaceCount {
	return xsync.DoR1(context.TODO(), &d.stateLocker, func() SurfaceCount {
		return d.surfaceCount
	})
}

func (d *Decoder) Pool() *videobuffer.Pool {
	return xsync.DoR1(context.TODO(), &d.stateLocker, func() *videobuffer.Pool {
		return d.pool
	})
}

func (d *Decoder) DeviceContext() *device.Context {
	return xsync.DoR1(context.TODO(), &d.stateLocker, func() *device.Context {
		return d.deviceCtx
	})
}

// Open prepares the hardware to decode the stream. Errors recognized by
// IsSoftwareFallback mean the stream should be decoded in software.
func (d *Decoder) Open(
	ctx context.Context,
	params StreamParams,
) (_err error) {
	logger.Debugf(ctx, "Open(%s)", params)
	defer func() { logger.Debugf(ctx, "/Open(%s): %v", params, _err) }()
	return xsync.DoA2R1(ctx, &d.locker, d.openLocked, ctx, params)
}

func (d *Decoder) openLocked(
	ctx context.Context,
	params StreamParams,
) (_err error) {
	if !d.config.Enabled {
		return ErrDisabled{}
	}
	if d.State() == StateLost {
		logger.Debugf(ctx, "the device is lost, cannot open")
		return device.ErrDeviceLost{}
	}

	d.releaseResourcesLocked(ctx)

	deviceCtx, err := d.ensureDeviceContextLocked(ctx)
	if err != nil {
		return err
	}

	if err := checkCompatibility(compatibilityEnv{
		Params:  params,
		Adapter: deviceCtx.Adapter(),
		Quirks:  deviceCtx.Quirks(),
		Config:  d.config,
	}); err != nil {
		logger.Warnf(ctx, "hardware decoding will not be used: %v", err)
		return err
	}

	generation := deviceCtx.Generation()
	format, decodeConfig, err := deviceCtx.GetFormatAndConfig(ctx, params.request())
	if err != nil {
		if errors.As(err, &device.ErrNotSupported{}) {
			logger.Infof(ctx, "no hardware decoder for %s: %v", params, err)
		}
		return err
	}
	logger.Tracef(ctx, "negotiated: %s", spew.Sdump(format, decodeConfig))

	surfaceCount, err := d.config.SurfaceCount(params, deviceCtx.Adapter())
	if err != nil {
		logger.Infof(ctx, "%v", err)
		return err
	}
	if surfaceCount.Degraded {
		logger.Warnf(ctx, "not enough video memory for %dx%d, the number of surfaces is reduced to %d", params.Width, params.Height, surfaceCount.Surfaces)
	}

	variant := deviceCtx.Variant()
	surfaces, err := deviceCtx.CreateSurfaces(
		ctx,
		format,
		surfaceCount.Surfaces,
		d.config.AlignmentFor(params.Codec),
		variant == types.BufferVariantShared,
	)
	if err != nil {
		return fmt.Errorf("unable to create %d surfaces: %w", surfaceCount.Surfaces, err)
	}

	object, err := deviceCtx.CreateDecoder(ctx, format, decodeConfig, d)
	if err != nil {
		surfaces.Release()
		return fmt.Errorf("unable to create the decoder object: %w", err)
	}

	bufPool := videobuffer.New(videobuffer.Backend{
		Variant:             variant,
		Video:               deviceCtx.VideoDevice(),
		Render:              deviceCtx.RenderDevice(),
		SharedHandle:        surfaces.SharedHandle,
		Fences:              deviceCtx.SharingCaps().Fences,
		MenuFlushWorkaround: d.config.MenuFlushWorkaround,
	}, surfaces.Texture)
	for _, view := range surfaces.Views {
		bufPool.AddView(ctx, view)
	}

	isLost := false
	d.stateLocker.Do(ctx, func() {
		if d.state == StateLost {
			isLost = true
			return
		}
		d.object = object
		d.pool = bufPool
		d.format = format
		d.decodeConfig = decodeConfig
		d.params = params
		d.surfaceCount = surfaceCount
		d.generation = generation
		d.state = StateOpen
	})
	if isLost {
		logger.Warnf(ctx, "the device was lost while opening the decoder")
		object.Release()
		bufPool.Dispose(ctx)
		return device.ErrDeviceLost{}
	}
	d.Statistics.Opens.Inc()
	logger.Infof(ctx, "opened %s with %d surfaces (%s buffers)", format, surfaceCount.Surfaces, variant)
	return nil
}

// ensureDeviceContextLocked returns the decode device context, attaching to
// the registry on the first call. A context already attached is reset, so it
// is recreated if the device was removed or the adapter changed.
func (d *Decoder) ensureDeviceContextLocked(ctx context.Context) (*device.Context, error) {
	if deviceCtx := d.DeviceContext(); deviceCtx != nil {
		if err := deviceCtx.Reset(ctx); err != nil {
			return nil, fmt.Errorf("unable to reset the decode device context: %w", err)
		}
		return deviceCtx, nil
	}
	deviceCtx, err := d.registry.EnsureContext(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("unable to get the decode device context: %w", err)
	}
	unsubscribe := deviceCtx.Subscribe(d)
	d.stateLocker.Do(ctx, func() {
		d.deviceCtx = deviceCtx
		d.unsubscribe = unsubscribe
	})
	return deviceCtx, nil
}

// releaseResourcesLocked drops everything bound to the current decoder
// object; the buffers still held by the renderer stay valid.
func (d *Decoder) releaseResourcesLocked(ctx context.Context) {
	var (
		object   device.DecoderObject
		bufPool  *videobuffer.Pool
		inFlight *videobuffer.VideoBuffer
	)
	d.stateLocker.Do(ctx, func() {
		object, bufPool, inFlight = d.object, d.pool, d.inFlight
		d.object, d.pool, d.inFlight = nil, nil, nil
		d.format = device.DecodeFormat{}
		d.surfaceCount = SurfaceCount{}
		if d.state == StateOpen {
			d.state = StateReset
		}
	})
	if inFlight != nil {
		inFlight.Release(ctx)
	}
	if object != nil {
		object.Release()
	}
	if bufPool != nil {
		bufPool.Dispose(ctx)
	}
}

// CloseDecoderObject releases the hardware decoder object only; the
// decoder has to be reopened before decoding further.
func (d *Decoder) CloseDecoderObject(ctx context.Context) {
	logger.Debugf(ctx, "CloseDecoderObject")
	defer func() { logger.Debugf(ctx, "/CloseDecoderObject") }()
	var object device.DecoderObject
	d.stateLocker.Do(ctx, func() {
		object = d.object
		d.object = nil
		if d.state == StateOpen {
			d.state = StateReset
		}
	})
	if object != nil {
		object.Release()
	}
}

// OnDeviceLost implements device.LifecycleListener.
func (d *Decoder) OnDeviceLost(ctx context.Context) {
	logger.Debugf(ctx, "OnDeviceLost")
	d.stateLocker.Do(ctx, func() {
		if d.state == StateClosed {
			return
		}
		d.restored.Reset(ctx)
		d.state = StateLost
	})
}

// OnDeviceRestored implements device.LifecycleListener.
func (d *Decoder) OnDeviceRestored(ctx context.Context) {
	logger.Debugf(ctx, "OnDeviceRestored")
	d.stateLocker.Do(ctx, func() {
		if d.state == StateLost {
			d.state = StateReset
		}
		d.restored.Set(ctx)
	})
}

// Close releases the decoder and its share of the decode device context.
func (d *Decoder) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()
	return xsync.DoA1R1(ctx, &d.locker, d.closeLocked, ctx)
}

func (d *Decoder) closeLocked(ctx context.Context) error {
	d.releaseResourcesLocked(ctx)
	var (
		deviceCtx   *device.Context
		unsubscribe func()
	)
	d.stateLocker.Do(ctx, func() {
		deviceCtx, unsubscribe = d.deviceCtx, d.unsubscribe
		d.deviceCtx, d.unsubscribe = nil, nil
		d.state = StateClosed
	})
	if unsubscribe != nil {
		unsubscribe()
	}
	if deviceCtx != nil {
		deviceCtx.Release(ctx, d)
	}
	return nil
}
