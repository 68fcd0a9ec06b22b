package simulated

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/avhwdec/device"
)

type RenderDevice struct {
	platform *Platform
	adapter  device.AdapterDesc
	video    *VideoDevice
}

var _ device.RenderDevice = (*RenderDevice)(nil)

func newRenderDevice(p *Platform, adapter device.AdapterDesc) *RenderDevice {
	return &RenderDevice{
		platform: p,
		adapter:  adapter,
		video:    newVideoDevice(p, adapter),
	}
}

func (r *RenderDevice) Adapter() device.AdapterDesc {
	return r.adapter
}

func (r *RenderDevice) SharingCaps() device.SharingCaps {
	return r.platform.Config(context.TODO()).Sharing
}

func (r *RenderDevice) VideoDevice(ctx context.Context) (device.VideoDevice, error) {
	if err := r.video.RemovedReason(ctx); err != nil {
		return nil, err
	}
	return r.video, nil
}

func (r *RenderDevice) OpenSharedTexture(
	ctx context.Context,
	handle device.SharedHandle,
) (device.Texture, error) {
	obj, ok := r.platform.lookupShared(handle)
	if !ok {
		return nil, fmt.Errorf("unknown shared handle %d", handle)
	}
	t, ok := obj.(*Texture)
	if !ok {
		return nil, fmt.Errorf("the shared handle %d is not a texture", handle)
	}
	if t.IsReleased() {
		return nil, fmt.Errorf("the shared texture %d is released", handle)
	}
	r.platform.Counters.SharedOpens.Inc()
	return t.open(r.video), nil
}

func (r *RenderDevice) OpenSharedFence(
	ctx context.Context,
	handle device.SharedHandle,
) (device.Fence, error) {
	obj, ok := r.platform.lookupShared(handle)
	if !ok {
		return nil, fmt.Errorf("unknown shared handle %d", handle)
	}
	state, ok := obj.(*fenceState)
	if !ok {
		return nil, fmt.Errorf("the shared handle %d is not a fence", handle)
	}
	r.platform.Counters.SharedOpens.Inc()
	return &Fence{platform: r.platform, state: state}, nil
}

// Wait fails if the fence has not reached the value yet: the simulated GPU
// executes every command immediately, so a missing signal is a bug.
func (r *RenderDevice) Wait(
	ctx context.Context,
	fence device.Fence,
	value uint64,
) error {
	f, ok := fence.(*Fence)
	if !ok {
		return fmt.Errorf("unexpected fence type %T", fence)
	}
	r.platform.Counters.Waits.Inc()
	if signaled := f.state.value.Load(); signaled < value {
		return fmt.Errorf("the fence is at %d, but %d is awaited", signaled, value)
	}
	return nil
}
