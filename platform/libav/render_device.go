package libav

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/avhwdec/device"
)

type RenderDevice struct {
	video *VideoDevice
}

var _ device.RenderDevice = (*RenderDevice)(nil)

func (r *RenderDevice) Adapter() device.AdapterDesc {
	return r.video.Adapter()
}

func (r *RenderDevice) SharingCaps() device.SharingCaps {
	return device.SharingCaps{}
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
	return nil, device.ErrNotImplemented{Err: fmt.Errorf("shared textures")}
}

func (r *RenderDevice) OpenSharedFence(
	ctx context.Context,
	handle device.SharedHandle,
) (device.Fence, error) {
	return nil, device.ErrNotImplemented{Err: fmt.Errorf("shared fences")}
}

func (r *RenderDevice) Wait(
	ctx context.Context,
	fence device.Fence,
	value uint64,
) error {
	return device.ErrNotImplemented{Err: fmt.Errorf("fences")}
}
