package simulated

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/avhwdec/device"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

type Texture struct {
	device   *VideoDevice
	desc     device.TextureDesc
	handle   device.SharedHandle
	released atomic.Bool

	// content identifies what was written to each slice; it is used to
	// verify copies.
	locker  xsync.Mutex
	content []uint64
	base    *Texture
}

var _ device.Texture = (*Texture)(nil)

func newTexture(d *VideoDevice, desc device.TextureDesc) *Texture {
	t := &Texture{
		device:  d,
		desc:    desc,
		content: make([]uint64, desc.ArraySize),
	}
	if desc.Shared {
		t.handle = d.platform.registerShared(t)
	}
	d.platform.Counters.LiveTextures.Inc()
	d.platform.Counters.TexturesCreated.Inc()
	return t
}

// open returns the texture as opened on another device.
func (t *Texture) open(on *VideoDevice) *Texture {
	on.platform.Counters.LiveTextures.Inc()
	return &Texture{
		device: on,
		desc:   t.desc,
		handle: t.handle,
		base:   t,
	}
}

func (t *Texture) Desc() device.TextureDesc {
	return t.desc
}

func (t *Texture) SharedHandle(ctx context.Context) (device.SharedHandle, error) {
	if !t.desc.Shared {
		return 0, fmt.Errorf("the texture is not shared")
	}
	return t.handle, nil
}

// Write marks the slice as containing the picture with the given identifier.
func (t *Texture) Write(ctx context.Context, slice int, content uint64) {
	t.origin().locker.Do(ctx, func() {
		t.origin().content[slice] = content
	})
}

// Content returns the identifier of the picture in the slice.
func (t *Texture) Content(ctx context.Context, slice int) uint64 {
	o := t.origin()
	return xsync.DoR1(ctx, &o.locker, func() uint64 {
		return o.content[slice]
	})
}

func (t *Texture) origin() *Texture {
	if t.base != nil {
		return t.base
	}
	return t
}

func (t *Texture) IsReleased() bool {
	return t.released.Load()
}

func (t *Texture) Release() {
	if t.released.Swap(true) {
		return
	}
	if t.base == nil && t.desc.Shared {
		t.device.platform.sharedObjects.Delete(t.handle)
	}
	t.device.platform.Counters.LiveTextures.Dec()
}

type View struct {
	texture  *Texture
	slice    int
	released atomic.Bool
}

var _ device.View = (*View)(nil)

func newView(t *Texture, slice int) *View {
	t.device.platform.Counters.LiveViews.Inc()
	return &View{
		texture: t,
		slice:   slice,
	}
}

func (v *View) Texture() device.Texture {
	return v.texture
}

func (v *View) Slice() int {
	return v.slice
}

func (v *View) String() string {
	return fmt.Sprintf("view#%d", v.slice)
}

func (v *View) Release() {
	if v.released.Swap(true) {
		return
	}
	v.texture.device.platform.Counters.LiveViews.Dec()
}

type fenceState struct {
	value atomic.Uint64
}

func (s *fenceState) signal(value uint64) {
	for {
		old := s.value.Load()
		if old >= value || s.value.CompareAndSwap(old, value) {
			return
		}
	}
}

type Fence struct {
	platform *Platform
	state    *fenceState
	released atomic.Bool
}

var _ device.Fence = (*Fence)(nil)

func newFence(p *Platform) *Fence {
	p.Counters.LiveFences.Inc()
	return &Fence{
		platform: p,
		state:    &fenceState{},
	}
}

func (f *Fence) Value() uint64 {
	return f.state.value.Load()
}

func (f *Fence) Release() {
	if f.released.Swap(true) {
		return
	}
	f.platform.Counters.LiveFences.Dec()
}

type DecoderObject struct {
	device   *VideoDevice
	desc     device.DecoderDesc
	released atomic.Bool
}

var _ device.DecoderObject = (*DecoderObject)(nil)

func newDecoderObject(d *VideoDevice, desc device.DecoderDesc) *DecoderObject {
	d.platform.Counters.LiveDecoders.Inc()
	d.platform.Counters.DecodersCreated.Inc()
	return &DecoderObject{
		device: d,
		desc:   desc,
	}
}

func (o *DecoderObject) Status(ctx context.Context) (device.DecodeStatus, error) {
	if o.released.Load() {
		return device.DecodeStatus{}, fmt.Errorf("the decoder object is released")
	}
	if !o.device.platform.Config(ctx).StatusReporting {
		return device.DecodeStatus{}, device.ErrNotImplemented{Err: fmt.Errorf("status reporting")}
	}
	return o.device.platform.getDecodeStatus(ctx), nil
}

func (o *DecoderObject) IsReleased() bool {
	return o.released.Load()
}

func (o *DecoderObject) Release() {
	if o.released.Swap(true) {
		return
	}
	o.device.platform.Counters.LiveDecoders.Dec()
}
