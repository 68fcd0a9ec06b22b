// platform.go implements device.Platform over an in-memory GPU.

// Package simulated provides an in-memory GPU implementing the device
// interfaces, with fault injection: device loss, adapter replacement,
// single-decoder hardware and allocation failures.
package simulated

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xaionaro-go/avhwdec/device"
	"github.com/xaionaro-go/avhwdec/logger"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

var (
	ErrDeviceLost      = errors.New("the device was lost")
	ErrInjectedFailure = errors.New("injected failure")
	ErrTooManyDecoders = errors.New("the hardware cannot host another decoder object")
)

type Platform struct {
	Counters Counters

	// FailTextureAllocations is the number of next texture allocations to fail.
	FailTextureAllocations atomic.Int32

	// FailDecoderCreations is the number of next decoder object creations to fail.
	FailDecoderCreations atomic.Int32

	locker       xsync.Mutex
	config       Config
	renderDevice *RenderDevice
	videoDevices xsync.Map[*VideoDevice, struct{}]
	decodeStatus device.DecodeStatus

	listeners      xsync.Map[uint64, device.LifecycleListener]
	nextListenerID atomic.Uint64
	nextHandle     atomic.Uint64
	sharedObjects  xsync.Map[device.SharedHandle, any]
}

var _ device.Platform = (*Platform)(nil)

func New(cfg Config) *Platform {
	p := &Platform{
		config: cfg,
	}
	p.renderDevice = newRenderDevice(p, cfg.Adapter)
	return p
}

func (p *Platform) String() string {
	return "simulated"
}

func (p *Platform) Config(ctx context.Context) Config {
	return xsync.DoR1(ctx, &p.locker, func() Config {
		return p.config
	})
}

func (p *Platform) RenderDevice(ctx context.Context) (device.RenderDevice, error) {
	return xsync.DoR1(ctx, &p.locker, func() *RenderDevice {
		return p.renderDevice
	}), nil
}

func (p *Platform) CreateVideoDevice(
	ctx context.Context,
	adapter device.AdapterDesc,
) (device.VideoDevice, error) {
	cfg := p.Config(ctx)
	if !cfg.Sharing.Textures {
		return nil, device.ErrNotImplemented{Err: fmt.Errorf("cross-device texture sharing is not supported")}
	}
	if !adapter.SameAdapter(cfg.Adapter) {
		return nil, fmt.Errorf("unknown adapter %s", adapter)
	}
	return newVideoDevice(p, adapter), nil
}

func (p *Platform) Subscribe(listener device.LifecycleListener) func() {
	id := p.nextListenerID.Inc()
	p.listeners.Store(id, listener)
	return func() {
		p.listeners.Delete(id)
	}
}

func (p *Platform) forEachListener(fn func(device.LifecycleListener)) {
	var listeners []device.LifecycleListener
	p.listeners.Range(func(_ uint64, l device.LifecycleListener) bool {
		listeners = append(listeners, l)
		return true
	})
	for _, l := range listeners {
		fn(l)
	}
}

// RemoveDevices makes every existing device report the given removal reason.
func (p *Platform) RemoveDevices(ctx context.Context, reason error) {
	logger.Debugf(ctx, "RemoveDevices: %v", reason)
	p.videoDevices.Range(func(d *VideoDevice, _ struct{}) bool {
		d.remove(reason)
		return true
	})
}

// LoseDevice removes all the devices and notifies the listeners that the
// render device was lost.
func (p *Platform) LoseDevice(ctx context.Context) {
	logger.Debugf(ctx, "LoseDevice")
	p.RemoveDevices(ctx, ErrDeviceLost)
	p.forEachListener(func(l device.LifecycleListener) {
		l.OnDeviceLost(ctx)
	})
}

// RestoreDevice recreates the render device on the same adapter and
// notifies the listeners.
func (p *Platform) RestoreDevice(ctx context.Context) {
	logger.Debugf(ctx, "RestoreDevice")
	p.locker.Do(ctx, func() {
		p.renderDevice = newRenderDevice(p, p.config.Adapter)
	})
	p.forEachListener(func(l device.LifecycleListener) {
		l.OnDeviceRestored(ctx)
	})
}

// RestoreDeviceAfter calls RestoreDevice in the background after the delay.
func (p *Platform) RestoreDeviceAfter(ctx context.Context, delay time.Duration) {
	observability.Go(ctx, func(ctx context.Context) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		p.RestoreDevice(ctx)
	})
}

// ReplaceAdapter moves rendering to another adapter without notifying the
// listeners; the devices of the previous adapter are removed.
func (p *Platform) ReplaceAdapter(ctx context.Context, adapter device.AdapterDesc) {
	logger.Debugf(ctx, "ReplaceAdapter: %s", adapter)
	p.RemoveDevices(ctx, fmt.Errorf("the adapter was replaced"))
	p.locker.Do(ctx, func() {
		p.config.Adapter = adapter
		p.renderDevice = newRenderDevice(p, adapter)
	})
}

// SetDecodeStatus sets the status reported by every decoder object.
func (p *Platform) SetDecodeStatus(ctx context.Context, status device.DecodeStatus) {
	p.locker.Do(ctx, func() {
		p.decodeStatus = status
	})
}

func (p *Platform) getDecodeStatus(ctx context.Context) device.DecodeStatus {
	return xsync.DoR1(ctx, &p.locker, func() device.DecodeStatus {
		return p.decodeStatus
	})
}

func (p *Platform) registerShared(obj any) device.SharedHandle {
	h := device.SharedHandle(p.nextHandle.Inc())
	p.sharedObjects.Store(h, obj)
	return h
}

func (p *Platform) lookupShared(h device.SharedHandle) (any, bool) {
	return p.sharedObjects.Load(h)
}

func injectedFailure(counter *atomic.Int32) bool {
	for {
		v := counter.Load()
		if v <= 0 {
			return false
		}
		if counter.CompareAndSwap(v, v-1) {
			return true
		}
	}
}
