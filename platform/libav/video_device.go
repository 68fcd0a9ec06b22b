// video_device.go implements VideoDevice over a libav hardware device context.

package libav

import (
	"context"
	"fmt"
	"slices"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/google/uuid"
	"github.com/xaionaro-go/avhwdec/capability"
	"github.com/xaionaro-go/avhwdec/device"
	"github.com/xaionaro-go/avhwdec/logger"
	"github.com/xaionaro-go/avhwdec/types"
	avtypes "github.com/xaionaro-go/avhwdec/types/astiav"
	"github.com/xaionaro-go/xsync"
)

const formatProbeSize = 64

type VideoDevice struct {
	adapter            device.AdapterDesc
	hwDeviceType       types.HardwareDeviceType
	hwPixelFormat      astiav.PixelFormat
	hwDeviceContext    *astiav.HardwareDeviceContext
	closer             *astikit.Closer
	locker             xsync.Mutex
	isClosed           bool
	formatSupportCache xsync.Map[types.SurfaceFormat, bool]
}

var _ device.VideoDevice = (*VideoDevice)(nil)

func newVideoDevice(
	ctx context.Context,
	cfg Config,
	adapter device.AdapterDesc,
) (_ret *VideoDevice, _err error) {
	logger.Tracef(ctx, "newVideoDevice(%s, '%s')", cfg.HardwareDeviceType, cfg.HardwareDeviceName)
	defer func() {
		logger.Tracef(ctx, "/newVideoDevice(%s, '%s'): %v", cfg.HardwareDeviceType, cfg.HardwareDeviceName, _err)
	}()

	hwPixelFormat := avtypes.PixelFormatToAstiav(cfg.HardwareDeviceType.HardwarePixelFormat())
	if hwPixelFormat == astiav.PixelFormatNone {
		return nil, device.ErrNotSupported{
			Reason: fmt.Sprintf("hardware device type '%s' has no surface pixel format", cfg.HardwareDeviceType),
		}
	}

	hwDeviceContext, err := astiav.CreateHardwareDeviceContext(
		avtypes.HardwareDeviceTypeToAstiav(cfg.HardwareDeviceType),
		string(cfg.HardwareDeviceName),
		avtypes.DictionaryItemsToAstiav(ctx, cfg.Options),
		cfg.Flags,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create hardware (%s:%s) device context: %w", cfg.HardwareDeviceType, cfg.HardwareDeviceName, err)
	}
	d := &VideoDevice{
		adapter:         adapter,
		hwDeviceType:    cfg.HardwareDeviceType,
		hwPixelFormat:   hwPixelFormat,
		hwDeviceContext: hwDeviceContext,
		closer:          astikit.NewCloser(),
	}
	d.closer.Add(hwDeviceContext.Free)
	logger.Tracef(ctx, "HardwareDeviceContext: %p", hwDeviceContext)
	return d, nil
}

func (d *VideoDevice) Adapter() device.AdapterDesc {
	return d.adapter
}

// DecoderProfiles returns the Capability Table entries whose codec has a
// libav decoder able to decode on this device type.
func (d *VideoDevice) DecoderProfiles(ctx context.Context) ([]uuid.UUID, error) {
	if err := d.RemovedReason(ctx); err != nil {
		return nil, err
	}
	var result []uuid.UUID
	for _, entry := range capability.Table {
		if slices.Contains(result, entry.GUID) {
			continue
		}
		if !d.isCodecAccelerated(ctx, entry.Codec) {
			continue
		}
		result = append(result, entry.GUID)
	}
	return result, nil
}

func (d *VideoDevice) isCodecAccelerated(ctx context.Context, codecID types.CodecID) bool {
	codec := astiav.FindDecoder(avtypes.CodecIDToAstiav(codecID))
	if codec == nil {
		logger.Tracef(ctx, "no decoder for %s", codecID)
		return false
	}
	for _, hwCfg := range codec.HardwareConfigs() {
		if hwCfg.HardwareDeviceType() != avtypes.HardwareDeviceTypeToAstiav(d.hwDeviceType) {
			continue
		}
		flags := hwCfg.MethodFlags()
		if flags.Has(astiav.CodecHardwareConfigMethodFlagHwDeviceCtx) || flags.Has(astiav.CodecHardwareConfigMethodFlagHwFramesCtx) {
			return true
		}
	}
	return false
}

// IsFormatSupported probes the format by initializing a tiny frames context.
func (d *VideoDevice) IsFormatSupported(
	ctx context.Context,
	profile uuid.UUID,
	format types.SurfaceFormat,
) bool {
	if supported, ok := d.formatSupportCache.Load(format); ok {
		return supported
	}
	supported := false
	texture, err := d.CreateTextureArray(ctx, device.TextureDesc{
		Width:     formatProbeSize,
		Height:    formatProbeSize,
		ArraySize: 1,
		Format:    format,
	})
	if err == nil {
		texture.Release()
		supported = true
	} else {
		logger.Debugf(ctx, "format %s is not supported by %s: %v", format, d.hwDeviceType, err)
	}
	d.formatSupportCache.Store(format, supported)
	return supported
}

// DecoderConfigs returns the only configuration libav decoders use:
// unencrypted bitstream passed as is.
func (d *VideoDevice) DecoderConfigs(
	ctx context.Context,
	desc device.DecoderDesc,
) ([]device.DecodeConfig, error) {
	if _, ok := capability.Lookup(desc.Profile); !ok {
		return nil, device.ErrNotSupported{Reason: fmt.Sprintf("unknown profile %s", desc.Profile)}
	}
	return []device.DecodeConfig{{
		BitstreamRaw: 1,
		Encryption:   capability.NoEncrypt,
	}}, nil
}

// CreateTextureArray creates a hardware frames context with an initial pool
// of desc.ArraySize surfaces.
func (d *VideoDevice) CreateTextureArray(
	ctx context.Context,
	desc device.TextureDesc,
) (_ret device.Texture, _err error) {
	logger.Tracef(ctx, "CreateTextureArray(%#+v)", desc)
	defer func() { logger.Tracef(ctx, "/CreateTextureArray(%#+v): %v", desc, _err) }()
	if err := d.RemovedReason(ctx); err != nil {
		return nil, err
	}
	if desc.Shared {
		return nil, device.ErrNotImplemented{Err: fmt.Errorf("shared frames")}
	}
	swPixelFormat := avtypes.SurfaceFormatToAstiav(desc.Format)
	if swPixelFormat == astiav.PixelFormatNone {
		return nil, fmt.Errorf("unknown surface format %s", desc.Format)
	}

	framesContext := astiav.AllocHardwareFramesContext(d.hwDeviceContext)
	if framesContext == nil {
		return nil, fmt.Errorf("unable to allocate a hardware frames context")
	}
	framesContext.SetHardwarePixelFormat(d.hwPixelFormat)
	framesContext.SetSoftwarePixelFormat(swPixelFormat)
	framesContext.SetWidth(int(desc.Width))
	framesContext.SetHeight(int(desc.Height))
	framesContext.SetInitialPoolSize(int(desc.ArraySize))
	if err := framesContext.Initialize(); err != nil {
		framesContext.Free()
		return nil, fmt.Errorf("unable to initialize a frames context of %d %dx%d %s surfaces: %w", desc.ArraySize, desc.Width, desc.Height, desc.Format, err)
	}
	return newTexture(d, desc, framesContext), nil
}

// CreateOutputView takes one frame from the pool of the frames context; the
// pool hands out the surfaces in order, so the n-th view is the n-th slice.
func (d *VideoDevice) CreateOutputView(
	ctx context.Context,
	texture device.Texture,
	profile uuid.UUID,
	slice int,
) (device.View, error) {
	t, ok := texture.(*Texture)
	if !ok || t.device != d {
		return nil, fmt.Errorf("the texture does not belong to this device")
	}
	if slice < 0 || uint(slice) >= t.desc.ArraySize {
		return nil, fmt.Errorf("slice %d is out of range [0, %d)", slice, t.desc.ArraySize)
	}
	frame := astiav.AllocFrame()
	if err := frame.AllocHardwareBuffer(t.framesContext); err != nil {
		frame.Free()
		return nil, fmt.Errorf("unable to allocate the surface #%d: %w", slice, err)
	}
	return &View{texture: t, slice: slice, frame: frame}, nil
}

// CreateDecoder opens a codec context on this device.
func (d *VideoDevice) CreateDecoder(
	ctx context.Context,
	desc device.DecoderDesc,
	config device.DecodeConfig,
) (_ret device.DecoderObject, _err error) {
	logger.Debugf(ctx, "CreateDecoder(%s)", capability.Name(desc.Profile))
	defer func() { logger.Debugf(ctx, "/CreateDecoder(%s): %v", capability.Name(desc.Profile), _err) }()
	if err := d.RemovedReason(ctx); err != nil {
		return nil, err
	}
	entry, ok := capability.Lookup(desc.Profile)
	if !ok {
		return nil, device.ErrNotSupported{Reason: fmt.Sprintf("unknown profile %s", desc.Profile)}
	}
	codec := astiav.FindDecoder(avtypes.CodecIDToAstiav(entry.Codec))
	if codec == nil {
		return nil, device.ErrNotSupported{Reason: fmt.Sprintf("no decoder for %s", entry.Codec)}
	}

	closer := astikit.NewCloser()
	codecContext := astiav.AllocCodecContext(codec)
	if codecContext == nil {
		return nil, fmt.Errorf("unable to allocate the codec context of %s", codec.Name())
	}
	closer.Add(codecContext.Free)
	codecContext.SetHardwareDeviceContext(d.hwDeviceContext)
	codecContext.SetWidth(int(desc.Width))
	codecContext.SetHeight(int(desc.Height))
	codecContext.SetPixelFormat(d.hwPixelFormat)
	if err := codecContext.Open(codec, nil); err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("unable to open the codec context of %s: %w", codec.Name(), err)
	}
	return &DecoderObject{codecContext: codecContext, closer: closer}, nil
}

func (d *VideoDevice) CreateSharedFence(ctx context.Context) (device.Fence, device.SharedHandle, error) {
	return nil, 0, device.ErrNotImplemented{Err: fmt.Errorf("shared fences")}
}

func (d *VideoDevice) Signal(ctx context.Context, fence device.Fence, value uint64) error {
	return device.ErrNotImplemented{Err: fmt.Errorf("fences")}
}

func (d *VideoDevice) CopySubresource(
	ctx context.Context,
	dst device.Texture,
	src device.Texture,
	srcSlice int,
) error {
	return device.ErrNotImplemented{Err: fmt.Errorf("surface copies")}
}

// Flush is a no-op: libav submits the commands on its own.
func (d *VideoDevice) Flush(ctx context.Context) error {
	return nil
}

func (d *VideoDevice) RemovedReason(ctx context.Context) error {
	return xsync.DoR1(ctx, &d.locker, func() error {
		if d.isClosed {
			return fmt.Errorf("the hardware device context is closed")
		}
		return nil
	})
}

func (d *VideoDevice) Close() error {
	return xsync.DoR1(context.TODO(), &d.locker, func() error {
		if d.isClosed {
			return nil
		}
		d.isClosed = true
		return d.closer.Close()
	})
}
