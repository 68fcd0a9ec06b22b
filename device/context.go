// context.go implements Context, the shared GPU decode device.

package device

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/xaionaro-go/avhwdec/capability"
	"github.com/xaionaro-go/avhwdec/internal"
	"github.com/xaionaro-go/avhwdec/logger"
	"github.com/xaionaro-go/avhwdec/types"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

// Context owns the GPU video-decode device shared by all decoders. Decoders
// borrow it through a Registry and must not mutate any of its data.
type Context struct {
	registry *Registry

	// locker guards the fields below it and is never held across a
	// hardware call.
	locker   xsync.Mutex
	devices  devices
	isClosed bool

	generation atomic.Uint64
	users      xsync.Map[User, struct{}]
}

// devices is the set of hardware objects of one generation of a Context.
type devices struct {
	render     RenderDevice
	video      VideoDevice
	isDiscrete bool
	profiles   []uuid.UUID
	quirks     Quirks
	variant    types.BufferVariant
}

func (d devices) isUsable() bool {
	return d.render != nil && d.video != nil
}

// isHealthy is a hardware call and must not be made with a lock held.
func (d devices) isHealthy(ctx context.Context, render RenderDevice) bool {
	if !d.isUsable() {
		return false
	}
	if !render.Adapter().SameAdapter(d.render.Adapter()) {
		logger.Debugf(ctx, "the render device moved from %s to %s", d.render.Adapter(), render.Adapter())
		return false
	}
	if err := d.video.RemovedReason(ctx); err != nil {
		logger.Debugf(ctx, "the decode device is removed: %v", err)
		return false
	}
	return true
}

func (d devices) close() error {
	if d.video == nil || !d.isDiscrete {
		return nil
	}
	if err := d.video.Close(); err != nil {
		return fmt.Errorf("unable to close the decode device: %w", err)
	}
	return nil
}

func newContext(registry *Registry) *Context {
	return &Context{
		registry: registry,
	}
}

func (c *Context) String() string {
	return fmt.Sprintf("DeviceContext(%s)", c.Adapter())
}

// createDevices performs the hardware calls that build one generation of a
// Context; no lock may be held while it runs.
func createDevices(
	ctx context.Context,
	platform Platform,
) (_ret devices, _err error) {
	logger.Debugf(ctx, "createDevices")
	defer func() { logger.Debugf(ctx, "/createDevices: %v", _err) }()

	render, err := platform.RenderDevice(ctx)
	if err != nil {
		return devices{}, fmt.Errorf("unable to get the render device: %w", err)
	}
	caps := render.SharingCaps()

	var (
		video      VideoDevice
		isDiscrete bool
	)
	if caps.Textures {
		video, err = platform.CreateVideoDevice(ctx, render.Adapter())
		switch {
		case err == nil:
			isDiscrete = true
		case errors.As(err, &ErrNotImplemented{}):
			logger.Debugf(ctx, "the platform cannot create a discrete decode device: %v", err)
		default:
			logger.Warnf(ctx, "unable to create a discrete decode device, falling back to the render device: %v", err)
		}
	}
	if video == nil {
		video, err = render.VideoDevice(ctx)
		if err != nil {
			return devices{}, fmt.Errorf("unable to get the video interface of the render device: %w", err)
		}
	}

	profiles, err := video.DecoderProfiles(ctx)
	if err != nil {
		if isDiscrete {
			_ = video.Close()
		}
		return devices{}, fmt.Errorf("unable to get the list of decoder profiles: %w", err)
	}
	for _, p := range profiles {
		logger.Debugf(ctx, "supported decoder profile: %s", capability.Name(p))
	}

	adapter := render.Adapter()
	quirks := DetectQuirks(adapter)
	if quirks != 0 {
		logger.Infof(ctx, "adapter %s requires workarounds: %s", adapter, quirks)
	}

	variant := types.BufferVariantDirect
	switch {
	case !isDiscrete:
	case caps.TextureArrays:
		variant = types.BufferVariantShared
	default:
		variant = types.BufferVariantCopy
	}
	logger.Infof(
		ctx,
		"decode device context on %s (video memory: %s): discrete:%t, buffer variant: %s",
		adapter, humanize.IBytes(adapter.DedicatedVideoMemory), isDiscrete, variant,
	)

	return devices{
		render:     render,
		video:      video,
		isDiscrete: isDiscrete,
		profiles:   profiles,
		quirks:     quirks,
		variant:    variant,
	}, nil
}

// publishLocked installs a new generation of devices and returns the previous one.
func (c *Context) publishLocked(d devices) devices {
	old := c.devices
	c.devices = d
	c.generation.Inc()
	return old
}

func (c *Context) isUsable(ctx context.Context) bool {
	return xsync.DoR1(ctx, &c.locker, func() bool {
		return !c.isClosed && c.devices.isUsable()
	})
}

func (c *Context) close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "close")
	defer func() { logger.Debugf(ctx, "/close: %v", _err) }()
	var old devices
	c.locker.Do(ctx, func() {
		if c.isClosed {
			return
		}
		c.isClosed = true
		old, c.devices = c.devices, devices{}
	})
	return old.close()
}

// Release unregisters the user; the last user closes the Context.
func (c *Context) Release(ctx context.Context, user User) {
	logger.Debugf(ctx, "Release")
	defer func() { logger.Debugf(ctx, "/Release") }()
	c.registry.release(ctx, c, user)
}

func (c *Context) UserCount() int {
	count := 0
	c.users.Range(func(User, struct{}) bool {
		count++
		return true
	})
	return count
}

type snapshot struct {
	Render     RenderDevice
	Video      VideoDevice
	Profiles   []uuid.UUID
	Generation uint64
}

func (c *Context) snapshot(ctx context.Context) (snapshot, error) {
	return xsync.DoR2(ctx, &c.locker, func() (snapshot, error) {
		if c.isClosed {
			return snapshot{}, ErrContextClosed{}
		}
		if !c.devices.isUsable() {
			return snapshot{}, ErrNoDevice{}
		}
		return snapshot{
			Render:     c.devices.render,
			Video:      c.devices.video,
			Profiles:   c.devices.profiles,
			Generation: c.generation.Load(),
		}, nil
	})
}

// GetFormatAndConfig finds the preferred hardware decode format and config
// for the request. ErrNotSupported means the stream should be decoded in
// software.
func (c *Context) GetFormatAndConfig(
	ctx context.Context,
	req Request,
) (_format DecodeFormat, _cfg DecodeConfig, _err error) {
	logger.Debugf(ctx, "GetFormatAndConfig(%s/%s %dx%d %dbit)", req.Codec, req.Profile, req.Width, req.Height, req.BitDepth)
	defer func() { logger.Debugf(ctx, "/GetFormatAndConfig: %s %v", _format, _err) }()

	s, err := c.snapshot(ctx)
	if err != nil {
		return DecodeFormat{}, DecodeConfig{}, err
	}

	entries := capability.ForCodec(req.Codec)
	if len(entries) == 0 {
		return DecodeFormat{}, DecodeConfig{}, ErrNotSupported{
			Reason: fmt.Sprintf("no hardware decode profile is known for codec %s", req.Codec),
		}
	}

	for _, entry := range entries {
		if !slices.Contains(s.Profiles, entry.GUID) {
			logger.Tracef(ctx, "the hardware does not support %s", entry)
			continue
		}
		if !entry.AllowsProfile(req.Profile) {
			logger.Debugf(ctx, "%s does not support bitstream profile %s", entry.Name, req.Profile)
			continue
		}
		for _, surfaceFormat := range entry.OutputFormats {
			if surfaceFormat.BitDepth() < req.BitDepth {
				continue
			}
			if !s.Video.IsFormatSupported(ctx, entry.GUID, surfaceFormat) {
				logger.Debugf(ctx, "%s does not support output format %s", entry.Name, surfaceFormat)
				continue
			}
			format := DecodeFormat{
				Codec:        req.Codec,
				Profile:      req.Profile,
				Decoder:      entry.GUID,
				OutputFormat: surfaceFormat,
				Width:        req.Width,
				Height:       req.Height,
			}
			cfg, err := c.getConfig(ctx, s.Video, format)
			if err != nil {
				logger.Debugf(ctx, "no usable config for %s: %v", format, err)
				continue
			}
			return format, cfg, nil
		}
	}

	return DecodeFormat{}, DecodeConfig{}, ErrNotSupported{
		Reason: fmt.Sprintf("no supported combination of decoder profile and output format for %s/%s", req.Codec, req.Profile),
	}
}

// GetConfig selects the decoder configuration record for the format: the
// first one with a raw bitstream, overridden by BitstreamRawPreferred if
// the hardware reports it.
func (c *Context) GetConfig(
	ctx context.Context,
	format DecodeFormat,
) (DecodeConfig, error) {
	s, err := c.snapshot(ctx)
	if err != nil {
		return DecodeConfig{}, err
	}
	return c.getConfig(ctx, s.Video, format)
}

func (c *Context) getConfig(
	ctx context.Context,
	video VideoDevice,
	format DecodeFormat,
) (DecodeConfig, error) {
	configs, err := video.DecoderConfigs(ctx, format.DecoderDesc())
	if err != nil {
		return DecodeConfig{}, fmt.Errorf("unable to get the decoder configs: %w", err)
	}

	var result DecodeConfig
	for idx, cfg := range configs {
		encrypted := ""
		if cfg.IsEncrypted() {
			encrypted = ", encrypted"
		}
		logger.Tracef(ctx, "config %d: bitstream type %d%s", idx, cfg.BitstreamRaw, encrypted)

		if result.BitstreamRaw == 0 && cfg.BitstreamRaw != 0 {
			result = cfg
		}
		if result.BitstreamRaw != BitstreamRawPreferred && cfg.BitstreamRaw == BitstreamRawPreferred {
			result = cfg
		}
	}
	if result.BitstreamRaw == 0 {
		return DecodeConfig{}, ErrNotSupported{Reason: "no config with a raw input bitstream"}
	}
	return result, nil
}

// CreateSurfaces allocates one texture array of count slices and one output
// view per slice. With trueShared the array is shareable across devices and
// its shared handle is returned.
func (c *Context) CreateSurfaces(
	ctx context.Context,
	format DecodeFormat,
	count uint,
	alignment uint,
	trueShared bool,
) (_ret SurfaceSet, _err error) {
	logger.Debugf(ctx, "CreateSurfaces(%s, %d, %d, %t)", format, count, alignment, trueShared)
	defer func() { logger.Debugf(ctx, "/CreateSurfaces: %v", _err) }()

	s, err := c.snapshot(ctx)
	if err != nil {
		return SurfaceSet{}, err
	}

	desc := TextureDesc{
		Width:     internal.AlignUp(format.Width, alignment),
		Height:    internal.AlignUp(format.Height, alignment),
		ArraySize: count,
		Format:    format.OutputFormat,
		Shared:    trueShared,
	}
	texture, err := s.Video.CreateTextureArray(ctx, desc)
	if err != nil {
		logger.Errorf(ctx, "unable to allocate %d surfaces of %dx%d %s: %v", count, desc.Width, desc.Height, desc.Format, err)
		return SurfaceSet{}, fmt.Errorf("unable to create the texture array: %w", err)
	}
	logger.Debugf(ctx, "allocated %s of decode surfaces", humanize.IBytes(uint64(count)*desc.Format.FrameSize(desc.Width, desc.Height)))

	result := SurfaceSet{Texture: texture}
	defer func() {
		if _err != nil {
			result.Release()
		}
	}()

	for slice := 0; slice < int(count); slice++ {
		view, err := s.Video.CreateOutputView(ctx, texture, format.Decoder, slice)
		if err != nil {
			logger.Errorf(ctx, "unable to create the output view #%d: %v", slice, err)
			return SurfaceSet{}, fmt.Errorf("unable to create the output view #%d: %w", slice, err)
		}
		result.Views = append(result.Views, view)
	}

	if trueShared {
		result.SharedHandle, err = texture.SharedHandle(ctx)
		if err != nil {
			return SurfaceSet{}, fmt.Errorf("unable to get the shared handle of the texture array: %w", err)
		}
	}
	return result, nil
}

// CreateDecoder creates the hardware decoder object. If the hardware cannot
// host it next to the decoder objects of other users, they are closed and
// the creation is retried once.
func (c *Context) CreateDecoder(
	ctx context.Context,
	format DecodeFormat,
	config DecodeConfig,
	requester User,
) (_ret DecoderObject, _err error) {
	logger.Debugf(ctx, "CreateDecoder(%s)", format)
	defer func() { logger.Debugf(ctx, "/CreateDecoder: %v", _err) }()

	s, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if !c.Quirks().HasAll(QuirkSingleDecoder) {
		obj, err := s.Video.CreateDecoder(ctx, format.DecoderDesc(), config)
		if err == nil {
			return obj, nil
		}
		logger.Warnf(ctx, "unable to create the decoder object, closing the other decoders and retrying: %v", err)
	}

	c.closeDecoderObjectsExcept(ctx, requester)
	obj, err := s.Video.CreateDecoder(ctx, format.DecoderDesc(), config)
	if err != nil {
		logger.Errorf(ctx, "unable to create the decoder object for %s: %v", format, err)
		return nil, fmt.Errorf("unable to create the decoder object: %w", err)
	}
	return obj, nil
}

func (c *Context) closeDecoderObjectsExcept(
	ctx context.Context,
	requester User,
) {
	var others []User
	c.users.Range(func(u User, _ struct{}) bool {
		if u != requester {
			others = append(others, u)
		}
		return true
	})
	for _, u := range others {
		logger.Debugf(ctx, "closing the decoder object of %v", u)
		u.CloseDecoderObject(ctx)
	}
}

// Check probes the health of the decode device.
func (c *Context) Check(ctx context.Context) error {
	s, err := c.snapshot(ctx)
	if err != nil {
		return err
	}
	if err := s.Video.RemovedReason(ctx); err != nil {
		return ErrDeviceRemoved{Err: err}
	}
	return nil
}

// Reset does nothing if the render device is still on the same adapter and
// the decode device is healthy; otherwise it recreates the Context in place
// and increments the generation. A failed recreation leaves the Context
// without devices, and the next Reset tries again.
func (c *Context) Reset(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Reset")
	defer func() { logger.Debugf(ctx, "/Reset: %v", _err) }()

	var (
		cur        devices
		generation uint64
		isClosed   bool
	)
	c.locker.Do(ctx, func() {
		cur, generation, isClosed = c.devices, c.generation.Load(), c.isClosed
	})
	if isClosed {
		return ErrContextClosed{}
	}

	render, err := c.registry.Platform.RenderDevice(ctx)
	if err != nil {
		return fmt.Errorf("unable to get the render device: %w", err)
	}
	if cur.isHealthy(ctx, render) {
		logger.Debugf(ctx, "the adapter is unchanged and the decode device is healthy")
		return nil
	}

	if !c.detachDevices(ctx, generation) {
		logger.Debugf(ctx, "the decode device context was recreated concurrently")
		return nil
	}

	logger.Infof(ctx, "recreating the decode device context for %s", render.Adapter())
	devs, err := createDevices(ctx, c.registry.Platform)
	if err != nil {
		return fmt.Errorf("unable to recreate the decode device context: %w", err)
	}

	published, err := xsync.DoR2(ctx, &c.locker, func() (bool, error) {
		if c.isClosed {
			return false, ErrContextClosed{}
		}
		if c.generation.Load() != generation {
			return false, nil
		}
		c.publishLocked(devs)
		return true, nil
	})
	if !published {
		logger.Debugf(ctx, "discarding the recreated devices: the context changed meanwhile")
		if closeErr := devs.close(); closeErr != nil {
			logger.Warnf(ctx, "%v", closeErr)
		}
	}
	return err
}

// detachDevices drops the devices of the given generation from the Context
// and closes them. It returns false if the Context has already moved to
// another generation or was closed.
func (c *Context) detachDevices(ctx context.Context, generation uint64) bool {
	var (
		old     devices
		matches bool
	)
	c.locker.Do(ctx, func() {
		if c.isClosed || c.generation.Load() != generation {
			return
		}
		matches = true
		old, c.devices = c.devices, devices{}
	})
	if err := old.close(); err != nil {
		logger.Warnf(ctx, "%v", err)
	}
	return matches
}

// Subscribe registers a listener of the platform's device lifecycle notifications.
func (c *Context) Subscribe(listener LifecycleListener) (unsubscribe func()) {
	return c.registry.Platform.Subscribe(listener)
}

func (c *Context) Variant() types.BufferVariant {
	return xsync.DoR1(context.TODO(), &c.locker, func() types.BufferVariant {
		return c.devices.variant
	})
}

func (c *Context) IsDiscrete() bool {
	return xsync.DoR1(context.TODO(), &c.locker, func() bool {
		return c.devices.isDiscrete
	})
}

func (c *Context) Quirks() Quirks {
	return xsync.DoR1(context.TODO(), &c.locker, func() Quirks {
		return c.devices.quirks
	})
}

func (c *Context) Adapter() AdapterDesc {
	render := c.RenderDevice()
	if render == nil {
		return AdapterDesc{}
	}
	return render.Adapter()
}

// Generation is incremented every time the devices are (re)created; objects
// created under an older generation are stale.
func (c *Context) Generation() uint64 {
	return c.generation.Load()
}

func (c *Context) VideoDevice() VideoDevice {
	return xsync.DoR1(context.TODO(), &c.locker, func() VideoDevice {
		return c.devices.video
	})
}

func (c *Context) RenderDevice() RenderDevice {
	return xsync.DoR1(context.TODO(), &c.locker, func() RenderDevice {
		return c.devices.render
	})
}

// SharingCaps returns the sharing capabilities of the current render device.
func (c *Context) SharingCaps() SharingCaps {
	render := c.RenderDevice()
	if render == nil {
		return SharingCaps{}
	}
	return render.SharingCaps()
}
