package libav

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/xaionaro-go/avhwdec/device"
	"go.uber.org/atomic"
)

// Texture is a hardware frames context: an array of surfaces.
type Texture struct {
	device        *VideoDevice
	desc          device.TextureDesc
	framesContext *astiav.HardwareFramesContext
	isReleased    atomic.Bool
}

var _ device.Texture = (*Texture)(nil)

func newTexture(
	d *VideoDevice,
	desc device.TextureDesc,
	framesContext *astiav.HardwareFramesContext,
) *Texture {
	return &Texture{
		device:        d,
		desc:          desc,
		framesContext: framesContext,
	}
}

func (t *Texture) Desc() device.TextureDesc {
	return t.desc
}

func (t *Texture) FramesContext() *astiav.HardwareFramesContext {
	return t.framesContext
}

func (t *Texture) SharedHandle(ctx context.Context) (device.SharedHandle, error) {
	return 0, device.ErrNotImplemented{Err: fmt.Errorf("shared frames")}
}

func (t *Texture) Release() {
	if t.isReleased.Swap(true) {
		return
	}
	t.framesContext.Free()
}

// View is one frame allocated from the pool of a frames context.
type View struct {
	texture    *Texture
	slice      int
	frame      *astiav.Frame
	isReleased atomic.Bool
}

var _ device.View = (*View)(nil)

func (v *View) Texture() device.Texture {
	return v.texture
}

func (v *View) Slice() int {
	return v.slice
}

// Frame returns the libav frame backed by the surface.
func (v *View) Frame() *astiav.Frame {
	return v.frame
}

func (v *View) String() string {
	return fmt.Sprintf("frame#%d", v.slice)
}

func (v *View) Release() {
	if v.isReleased.Swap(true) {
		return
	}
	v.frame.Free()
}

// DecoderObject is an opened codec context.
type DecoderObject struct {
	codecContext *astiav.CodecContext
	closer       *astikit.Closer
}

var _ device.DecoderObject = (*DecoderObject)(nil)

func (o *DecoderObject) CodecContext() *astiav.CodecContext {
	return o.codecContext
}

// Status is not reported by libav.
func (o *DecoderObject) Status(ctx context.Context) (device.DecodeStatus, error) {
	return device.DecodeStatus{}, device.ErrNotImplemented{Err: fmt.Errorf("decode status reporting")}
}

func (o *DecoderObject) Release() {
	_ = o.closer.Close()
}
