package simulated

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/xaionaro-go/avhwdec/device"
	"github.com/xaionaro-go/avhwdec/logger"
	"github.com/xaionaro-go/avhwdec/types"
	"github.com/xaionaro-go/xsync"
)

type VideoDevice struct {
	platform *Platform
	adapter  device.AdapterDesc

	locker     xsync.Mutex
	removedErr error
	isClosed   bool
}

var _ device.VideoDevice = (*VideoDevice)(nil)

func newVideoDevice(p *Platform, adapter device.AdapterDesc) *VideoDevice {
	d := &VideoDevice{
		platform: p,
		adapter:  adapter,
	}
	p.videoDevices.Store(d, struct{}{})
	p.Counters.LiveVideoDevices.Inc()
	p.Counters.VideoDevicesCreated.Inc()
	return d
}

func (d *VideoDevice) Adapter() device.AdapterDesc {
	return d.adapter
}

func (d *VideoDevice) remove(reason error) {
	d.locker.Do(context.TODO(), func() {
		if d.removedErr == nil {
			d.removedErr = reason
		}
	})
}

func (d *VideoDevice) RemovedReason(ctx context.Context) error {
	return xsync.DoR1(ctx, &d.locker, func() error {
		if d.isClosed {
			return fmt.Errorf("the device is closed")
		}
		return d.removedErr
	})
}

func (d *VideoDevice) DecoderProfiles(ctx context.Context) ([]uuid.UUID, error) {
	if err := d.RemovedReason(ctx); err != nil {
		return nil, err
	}
	var result []uuid.UUID
	for guid := range d.platform.Config(ctx).Profiles {
		result = append(result, guid)
	}
	slices.SortFunc(result, func(a, b uuid.UUID) int {
		return slices.Compare(a[:], b[:])
	})
	return result, nil
}

func (d *VideoDevice) IsFormatSupported(
	ctx context.Context,
	profile uuid.UUID,
	format types.SurfaceFormat,
) bool {
	return slices.Contains(d.platform.Config(ctx).Profiles[profile], format)
}

func (d *VideoDevice) DecoderConfigs(
	ctx context.Context,
	desc device.DecoderDesc,
) ([]device.DecodeConfig, error) {
	if err := d.RemovedReason(ctx); err != nil {
		return nil, err
	}
	cfg := d.platform.Config(ctx)
	if _, ok := cfg.Profiles[desc.Profile]; !ok {
		return nil, fmt.Errorf("profile %s is not supported", desc.Profile)
	}
	return slices.Clone(cfg.Configs), nil
}

func (d *VideoDevice) CreateTextureArray(
	ctx context.Context,
	desc device.TextureDesc,
) (_ret device.Texture, _err error) {
	logger.Tracef(ctx, "CreateTextureArray(%#+v)", desc)
	defer func() { logger.Tracef(ctx, "/CreateTextureArray: %v", _err) }()
	if err := d.RemovedReason(ctx); err != nil {
		return nil, err
	}
	if desc.ArraySize == 0 {
		return nil, fmt.Errorf("the array size is zero")
	}
	if injectedFailure(&d.platform.FailTextureAllocations) {
		return nil, ErrInjectedFailure
	}
	sharing := d.platform.Config(ctx).Sharing
	if desc.Shared {
		if !sharing.Textures {
			return nil, fmt.Errorf("shared textures are not supported")
		}
		if desc.ArraySize > 1 && !sharing.TextureArrays {
			return nil, fmt.Errorf("shared texture arrays are not supported")
		}
	}
	return newTexture(d, desc), nil
}

func (d *VideoDevice) CreateOutputView(
	ctx context.Context,
	texture device.Texture,
	profile uuid.UUID,
	slice int,
) (device.View, error) {
	if err := d.RemovedReason(ctx); err != nil {
		return nil, err
	}
	t, ok := texture.(*Texture)
	if !ok || t.device != d {
		return nil, fmt.Errorf("the texture does not belong to the device")
	}
	if slice < 0 || uint(slice) >= t.desc.ArraySize {
		return nil, fmt.Errorf("slice %d is out of range [0, %d)", slice, t.desc.ArraySize)
	}
	if !d.IsFormatSupported(ctx, profile, t.desc.Format) {
		return nil, fmt.Errorf("format %s is not supported by %s", t.desc.Format, profile)
	}
	return newView(t, slice), nil
}

func (d *VideoDevice) CreateDecoder(
	ctx context.Context,
	desc device.DecoderDesc,
	config device.DecodeConfig,
) (device.DecoderObject, error) {
	if err := d.RemovedReason(ctx); err != nil {
		return nil, err
	}
	if config.BitstreamRaw == 0 {
		return nil, fmt.Errorf("invalid config: no raw bitstream")
	}
	if injectedFailure(&d.platform.FailDecoderCreations) {
		return nil, ErrInjectedFailure
	}
	cfg := d.platform.Config(ctx)
	if cfg.MaxDecoders > 0 && d.platform.Counters.LiveDecoders.Load() >= int64(cfg.MaxDecoders) {
		return nil, ErrTooManyDecoders
	}
	return newDecoderObject(d, desc), nil
}

func (d *VideoDevice) CreateSharedFence(ctx context.Context) (device.Fence, device.SharedHandle, error) {
	if err := d.RemovedReason(ctx); err != nil {
		return nil, 0, err
	}
	if !d.platform.Config(ctx).Sharing.Fences {
		return nil, 0, device.ErrNotImplemented{Err: fmt.Errorf("shared fences are not supported")}
	}
	f := newFence(d.platform)
	return f, d.platform.registerShared(f.state), nil
}

func (d *VideoDevice) Signal(ctx context.Context, fence device.Fence, value uint64) error {
	if err := d.RemovedReason(ctx); err != nil {
		return err
	}
	f, ok := fence.(*Fence)
	if !ok {
		return fmt.Errorf("unexpected fence type %T", fence)
	}
	f.state.signal(value)
	d.platform.Counters.Signals.Inc()
	return nil
}

func (d *VideoDevice) CopySubresource(
	ctx context.Context,
	dst device.Texture,
	src device.Texture,
	srcSlice int,
) error {
	if err := d.RemovedReason(ctx); err != nil {
		return err
	}
	dstT, ok := dst.(*Texture)
	if !ok || dstT.device != d {
		return fmt.Errorf("the destination texture does not belong to the device")
	}
	srcT, ok := src.(*Texture)
	if !ok || srcT.device != d {
		return fmt.Errorf("the source texture does not belong to the device")
	}
	if srcSlice < 0 || uint(srcSlice) >= srcT.desc.ArraySize {
		return fmt.Errorf("slice %d is out of range", srcSlice)
	}
	srcT.locker.Do(ctx, func() {
		content := srcT.content[srcSlice]
		dstT.locker.Do(ctx, func() {
			dstT.content[0] = content
		})
	})
	d.platform.Counters.Copies.Inc()
	return nil
}

func (d *VideoDevice) Flush(ctx context.Context) error {
	if err := d.RemovedReason(ctx); err != nil {
		return err
	}
	d.platform.Counters.Flushes.Inc()
	return nil
}

func (d *VideoDevice) Close() error {
	ctx := context.TODO()
	isClosed := xsync.DoR1(ctx, &d.locker, func() bool {
		wasClosed := d.isClosed
		d.isClosed = true
		return wasClosed
	})
	if isClosed {
		return nil
	}
	d.platform.videoDevices.Delete(d)
	d.platform.Counters.LiveVideoDevices.Dec()
	return nil
}
