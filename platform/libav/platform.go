// platform.go implements Platform: the hardware device of libav as the render
// and decode device.

// Package libav implements device.Platform on top of the hardware device and
// frames contexts of libav. Decoding and rendering always share one hardware
// device context, so buffers are never shared across devices.
package libav

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/xaionaro-go/avhwdec/device"
	"github.com/xaionaro-go/avhwdec/logger"
	"github.com/xaionaro-go/avhwdec/types"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

type Config struct {
	HardwareDeviceType types.HardwareDeviceType
	HardwareDeviceName types.HardwareDeviceName
	Options            types.DictionaryItems
	Flags              int
}

type Platform struct {
	Config Config

	locker       xsync.Mutex
	renderDevice *RenderDevice

	listeners      xsync.Map[uint64, device.LifecycleListener]
	nextListenerID atomic.Uint64
}

var (
	_ device.Platform = (*Platform)(nil)
	_ types.Closer    = (*Platform)(nil)
)

func New(cfg Config) *Platform {
	return &Platform{
		Config: cfg,
	}
}

func (p *Platform) String() string {
	return fmt.Sprintf("libav:%s:%s", p.Config.HardwareDeviceType, p.Config.HardwareDeviceName)
}

// RenderDevice returns the render device, opening the hardware device
// context on the first call.
func (p *Platform) RenderDevice(ctx context.Context) (device.RenderDevice, error) {
	return xsync.DoA1R2(ctx, &p.locker, p.renderDeviceLocked, ctx)
}

func (p *Platform) renderDeviceLocked(ctx context.Context) (device.RenderDevice, error) {
	if p.renderDevice != nil {
		return p.renderDevice, nil
	}
	video, err := newVideoDevice(ctx, p.Config, p.adapter(ctx))
	if err != nil {
		return nil, err
	}
	p.renderDevice = &RenderDevice{video: video}
	return p.renderDevice, nil
}

func (p *Platform) adapter(ctx context.Context) device.AdapterDesc {
	adapter := device.AdapterDesc{
		Description: fmt.Sprintf("%s:%s", p.Config.HardwareDeviceType, p.Config.HardwareDeviceName),
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		logger.Warnf(ctx, "unable to get the amount of system memory: %v", err)
		return adapter
	}
	// the hardware device context does not expose the dedicated memory, so
	// the adapter is treated as an integrated one
	adapter.SharedSystemMemory = vm.Total
	return adapter
}

// CreateVideoDevice always fails: libav cannot share frames between two
// hardware device contexts.
func (p *Platform) CreateVideoDevice(
	ctx context.Context,
	adapter device.AdapterDesc,
) (device.VideoDevice, error) {
	return nil, device.ErrNotImplemented{Err: fmt.Errorf("libav frames cannot be shared across hardware device contexts")}
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

// ResetDevice closes the hardware device context and opens a new one; the
// listeners see it as a device loss followed by a restore.
func (p *Platform) ResetDevice(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "ResetDevice")
	defer func() { logger.Debugf(ctx, "/ResetDevice: %v", _err) }()

	p.closeRenderDevice(ctx)
	p.forEachListener(func(l device.LifecycleListener) {
		l.OnDeviceLost(ctx)
	})
	if _, err := p.RenderDevice(ctx); err != nil {
		return fmt.Errorf("unable to reopen the hardware device: %w", err)
	}
	p.forEachListener(func(l device.LifecycleListener) {
		l.OnDeviceRestored(ctx)
	})
	return nil
}

func (p *Platform) closeRenderDevice(ctx context.Context) {
	renderDevice := xsync.DoR1(ctx, &p.locker, func() *RenderDevice {
		renderDevice := p.renderDevice
		p.renderDevice = nil
		return renderDevice
	})
	if renderDevice == nil {
		return
	}
	if err := renderDevice.video.Close(); err != nil {
		logger.Errorf(ctx, "unable to close the hardware device: %v", err)
	}
}

func (p *Platform) Close(ctx context.Context) error {
	p.closeRenderDevice(ctx)
	return nil
}
