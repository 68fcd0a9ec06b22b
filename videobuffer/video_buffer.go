// video_buffer.go implements VideoBuffer: a reference-counted decoded picture.

package videobuffer

import (
	"context"
	"errors"
	"fmt"
	"weak"

	"github.com/xaionaro-go/avhwdec/device"
	"github.com/xaionaro-go/avhwdec/logger"
	"github.com/xaionaro-go/avhwdec/types"
	"github.com/xaionaro-go/typing"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

type VideoBuffer struct {
	id      int
	pool    weak.Pointer[Pool]
	backend *Backend
	refs    atomic.Int32

	locker  xsync.Mutex
	frame   Frame
	view    device.View
	viewIdx int
	format  types.SurfaceFormat
	width   uint
	height  uint

	shared sharedState
	copied copyState
}

type sharedState struct {
	fence         device.Fence
	fenceHandle   device.SharedHandle
	fenceValue    uint64
	noFence       bool
	renderTexture typing.Optional[device.Texture]
	renderFence   typing.Optional[device.Fence]
}

type copyState struct {
	texture       device.Texture
	handle        device.SharedHandle
	renderTexture typing.Optional[device.Texture]
}

func newVideoBuffer(id int, pool *Pool) *VideoBuffer {
	return &VideoBuffer{
		id:      id,
		pool:    weak.Make(pool),
		backend: &pool.backend,
		viewIdx: -1,
	}
}

func (b *VideoBuffer) String() string {
	return fmt.Sprintf("VideoBuffer#%d(%s)", b.id, b.backend.Variant)
}

func (b *VideoBuffer) ID() int {
	return b.id
}

func (b *VideoBuffer) Variant() types.BufferVariant {
	return b.backend.Variant
}

func (b *VideoBuffer) Refs() int32 {
	return b.refs.Load()
}

func (b *VideoBuffer) AddRef() {
	b.refs.Inc()
}

// Release drops a reference; the last one returns the buffer to its pool.
func (b *VideoBuffer) Release(ctx context.Context) {
	refs := b.refs.Dec()
	switch {
	case refs > 0:
		return
	case refs < 0:
		logger.Errorf(ctx, "%s is released more times than referenced", b)
		return
	}
	pool := b.pool.Value()
	if pool == nil {
		b.Unref(ctx)
		return
	}
	pool.Return(ctx, b.id)
}

// Initialize binds the buffer to the decoded surface leased by the frame
// and makes the picture available to the render device.
func (b *VideoBuffer) Initialize(
	ctx context.Context,
	frame Frame,
	format types.SurfaceFormat,
	width, height uint,
) (_err error) {
	logger.Tracef(ctx, "Initialize")
	defer func() { logger.Tracef(ctx, "/Initialize: %v", _err) }()

	viewIdx := -1
	if pool := b.pool.Value(); pool != nil {
		viewIdx = pool.viewIndex(ctx, frame.View())
	}
	if viewIdx < 0 {
		return fmt.Errorf("the surface does not belong to the pool")
	}

	b.SetRef(ctx, frame)
	return xsync.DoR1(ctx, &b.locker, func() error {
		b.viewIdx = viewIdx
		b.format = format
		b.width = width
		b.height = height
		switch b.backend.Variant {
		case types.BufferVariantDirect:
			return nil
		case types.BufferVariantShared:
			return b.initializeSharedLocked(ctx)
		case types.BufferVariantCopy:
			return b.initializeCopyLocked(ctx)
		default:
			return fmt.Errorf("unexpected buffer variant %s", b.backend.Variant)
		}
	})
}

func (b *VideoBuffer) initializeSharedLocked(ctx context.Context) error {
	if !b.backend.Fences || b.shared.noFence {
		return nil
	}
	if b.shared.fence == nil {
		fence, handle, err := b.backend.Video.CreateSharedFence(ctx)
		switch {
		case err == nil:
			b.shared.fence, b.shared.fenceHandle = fence, handle
		case errors.As(err, &device.ErrNotImplemented{}):
			logger.Debugf(ctx, "shared fences are not available: %v", err)
			b.shared.noFence = true
			return nil
		default:
			return fmt.Errorf("unable to create a shared fence: %w", err)
		}
	}
	b.shared.fenceValue++
	if err := b.backend.Video.Signal(ctx, b.shared.fence, b.shared.fenceValue); err != nil {
		return fmt.Errorf("unable to signal the fence value %d: %w", b.shared.fenceValue, err)
	}
	return nil
}

func (b *VideoBuffer) initializeCopyLocked(ctx context.Context) error {
	video := b.backend.Video
	if b.copied.texture == nil {
		desc := b.view.Texture().Desc()
		desc.ArraySize = 1
		desc.Shared = true
		texture, err := video.CreateTextureArray(ctx, desc)
		if err != nil {
			return fmt.Errorf("unable to create the copy texture: %w", err)
		}
		handle, err := texture.SharedHandle(ctx)
		if err != nil {
			texture.Release()
			return fmt.Errorf("unable to get the shared handle of the copy texture: %w", err)
		}
		b.copied.texture, b.copied.handle = texture, handle
	}

	if err := video.Flush(ctx); err != nil {
		return fmt.Errorf("unable to flush the decode commands: %w", err)
	}
	if err := video.CopySubresource(ctx, b.copied.texture, b.view.Texture(), b.view.Slice()); err != nil {
		return fmt.Errorf("unable to copy the surface: %w", err)
	}
	if b.backend.MenuFlushWorkaround {
		if err := video.Flush(ctx); err != nil {
			return fmt.Errorf("unable to flush the copy: %w", err)
		}
	}
	return nil
}

// SetRef holds a reference to the codec library's frame, keeping its surface leased.
func (b *VideoBuffer) SetRef(ctx context.Context, frame Frame) {
	frame.AddRef()
	prev := xsync.DoR1(ctx, &b.locker, func() Frame {
		prev := b.frame
		b.frame = frame
		b.view = frame.View()
		return prev
	})
	if prev != nil {
		prev.Release()
	}
}

// Unref drops the frame reference and the surface binding.
func (b *VideoBuffer) Unref(ctx context.Context) {
	frame := xsync.DoR1(ctx, &b.locker, func() Frame {
		frame := b.frame
		b.frame = nil
		b.view = nil
		b.viewIdx = -1
		return frame
	})
	if frame != nil {
		frame.Release()
	}
}

// GetIdx returns the pool slot of the bound surface, or -1.
func (b *VideoBuffer) GetIdx(ctx context.Context) int {
	return xsync.DoR1(ctx, &b.locker, func() int {
		return b.viewIdx
	})
}

func (b *VideoBuffer) View(ctx context.Context) device.View {
	return xsync.DoR1(ctx, &b.locker, func() device.View {
		return b.view
	})
}

func (b *VideoBuffer) Format() types.SurfaceFormat {
	return xsync.DoR1(context.TODO(), &b.locker, func() types.SurfaceFormat {
		return b.format
	})
}

func (b *VideoBuffer) Size() (width, height uint) {
	b.locker.Do(context.TODO(), func() {
		width, height = b.width, b.height
	})
	return
}

// Resource returns the picture as seen by the render device, opening the
// shared objects on first use. It must be called on the render side.
func (b *VideoBuffer) Resource(ctx context.Context) (_ret Resource, _err error) {
	logger.Tracef(ctx, "Resource")
	defer func() { logger.Tracef(ctx, "/Resource: %v", _err) }()
	return xsync.DoA1R2(ctx, &b.locker, b.resourceLocked, ctx)
}

func (b *VideoBuffer) resourceLocked(ctx context.Context) (Resource, error) {
	if b.view == nil {
		return Resource{}, fmt.Errorf("%s is not initialized", b)
	}
	render := b.backend.Render
	switch b.backend.Variant {
	case types.BufferVariantDirect:
		return Resource{Texture: b.view.Texture(), Slice: b.view.Slice()}, nil
	case types.BufferVariantShared:
		if !b.shared.renderTexture.IsSet() {
			texture, err := render.OpenSharedTexture(ctx, b.backend.SharedHandle)
			if err != nil {
				return Resource{}, fmt.Errorf("unable to open the shared surfaces: %w", err)
			}
			b.shared.renderTexture = typing.Opt(texture)
		}
		if b.shared.fence != nil {
			if !b.shared.renderFence.IsSet() {
				fence, err := render.OpenSharedFence(ctx, b.shared.fenceHandle)
				if err != nil {
					return Resource{}, fmt.Errorf("unable to open the shared fence: %w", err)
				}
				b.shared.renderFence = typing.Opt(fence)
			}
			if err := render.Wait(ctx, b.shared.renderFence.Get(), b.shared.fenceValue); err != nil {
				return Resource{}, fmt.Errorf("unable to wait for fence value %d: %w", b.shared.fenceValue, err)
			}
		}
		return Resource{Texture: b.shared.renderTexture.Get(), Slice: b.view.Slice()}, nil
	case types.BufferVariantCopy:
		if !b.copied.renderTexture.IsSet() {
			texture, err := render.OpenSharedTexture(ctx, b.copied.handle)
			if err != nil {
				return Resource{}, fmt.Errorf("unable to open the copy texture: %w", err)
			}
			b.copied.renderTexture = typing.Opt(texture)
		}
		return Resource{Texture: b.copied.renderTexture.Get(), Slice: 0}, nil
	default:
		return Resource{}, fmt.Errorf("unexpected buffer variant %s", b.backend.Variant)
	}
}

func (b *VideoBuffer) destroy(ctx context.Context) {
	b.Unref(ctx)
	b.locker.Do(ctx, func() {
		var toRelease []interface{ Release() }
		if b.shared.renderTexture.IsSet() {
			toRelease = append(toRelease, b.shared.renderTexture.Get())
		}
		if b.shared.renderFence.IsSet() {
			toRelease = append(toRelease, b.shared.renderFence.Get())
		}
		if b.copied.renderTexture.IsSet() {
			toRelease = append(toRelease, b.copied.renderTexture.Get())
		}
		if b.shared.fence != nil {
			toRelease = append(toRelease, b.shared.fence)
		}
		if b.copied.texture != nil {
			toRelease = append(toRelease, b.copied.texture)
		}
		for _, r := range toRelease {
			r.Release()
		}
		b.shared = sharedState{}
		b.copied = copyState{}
	})
}
