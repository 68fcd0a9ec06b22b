// platform.go defines the interfaces of the platform video-acceleration and graphics services.

// Package device owns the shared GPU decode device (Context) and mediates all
// hardware capability queries on behalf of decoders.
package device

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/xaionaro-go/avhwdec/types"
)

// AdapterDesc identifies a GPU adapter.
type AdapterDesc struct {
	VendorID    uint32
	DeviceID    uint32
	LUID        uint64
	Description string

	// DedicatedVideoMemory and SharedSystemMemory are in bytes; zero means unknown.
	DedicatedVideoMemory uint64
	SharedSystemMemory   uint64
}

// SameAdapter returns true if both descriptions identify the same adapter instance.
func (a AdapterDesc) SameAdapter(b AdapterDesc) bool {
	return a.LUID == b.LUID && a.VendorID == b.VendorID && a.DeviceID == b.DeviceID
}

func (a AdapterDesc) String() string {
	return fmt.Sprintf("%s [%04X:%04X luid:%X]", a.Description, a.VendorID, a.DeviceID, a.LUID)
}

// SharingCaps describes what the render device can open from another device.
type SharingCaps struct {
	// Textures means single-slice textures can be shared across devices.
	Textures bool

	// TextureArrays means decode texture arrays can be shared across
	// devices without copying ("true sharing").
	TextureArrays bool

	// Fences means synchronization fences can be shared across devices.
	Fences bool
}

type SharedHandle uintptr

type TextureDesc struct {
	Width     uint
	Height    uint
	ArraySize uint
	Format    types.SurfaceFormat
	Shared    bool
}

type Texture interface {
	Desc() TextureDesc

	// SharedHandle returns the OS-level handle of a texture created with Shared set.
	SharedHandle(ctx context.Context) (SharedHandle, error)
	Release()
}

// View is an output view of one slice of a decode texture array.
type View interface {
	Texture() Texture
	Slice() int
	Release()
}

type Fence interface {
	Release()
}

// DecodeStatus is the decode-health report of the last executed picture;
// a zero Code means no problem was detected.
type DecodeStatus struct {
	Code    uint8
	BufType uint8
}

type DecoderObject interface {
	// Status queries the decode-health report; backends that do not expose
	// status reporting return ErrNotImplemented.
	Status(ctx context.Context) (DecodeStatus, error)
	Release()
}

// DecoderDesc describes a hardware decoder object to be created.
type DecoderDesc struct {
	Profile uuid.UUID
	Width   uint
	Height  uint
	Format  types.SurfaceFormat
}

// VideoDevice is the video-decode interface of a GPU device.
type VideoDevice interface {
	Adapter() AdapterDesc
	DecoderProfiles(ctx context.Context) ([]uuid.UUID, error)
	IsFormatSupported(ctx context.Context, profile uuid.UUID, format types.SurfaceFormat) bool
	DecoderConfigs(ctx context.Context, desc DecoderDesc) ([]DecodeConfig, error)
	CreateTextureArray(ctx context.Context, desc TextureDesc) (Texture, error)
	CreateOutputView(ctx context.Context, texture Texture, profile uuid.UUID, slice int) (View, error)
	CreateDecoder(ctx context.Context, desc DecoderDesc, config DecodeConfig) (DecoderObject, error)
	CreateSharedFence(ctx context.Context) (Fence, SharedHandle, error)
	Signal(ctx context.Context, fence Fence, value uint64) error
	CopySubresource(ctx context.Context, dst Texture, src Texture, srcSlice int) error
	Flush(ctx context.Context) error

	// RemovedReason returns nil while the device is healthy.
	RemovedReason(ctx context.Context) error
	Close() error
}

// RenderDevice is the device the renderer samples decoded pictures on.
type RenderDevice interface {
	Adapter() AdapterDesc
	SharingCaps() SharingCaps

	// VideoDevice returns the video-decode interface of the render device itself.
	VideoDevice(ctx context.Context) (VideoDevice, error)
	OpenSharedTexture(ctx context.Context, handle SharedHandle) (Texture, error)
	OpenSharedFence(ctx context.Context, handle SharedHandle) (Fence, error)

	// Wait makes the render command queue wait until the fence reaches the value.
	Wait(ctx context.Context, fence Fence, value uint64) error
}

// LifecycleListener receives device-lost and device-restored notifications
// of the platform graphics layer.
type LifecycleListener interface {
	OnDeviceLost(ctx context.Context)
	OnDeviceRestored(ctx context.Context)
}

type Platform interface {
	fmt.Stringer

	// RenderDevice returns the current render device.
	RenderDevice(ctx context.Context) (RenderDevice, error)

	// CreateVideoDevice creates a decode device distinct from the render
	// device, on the given adapter.
	CreateVideoDevice(ctx context.Context, adapter AdapterDesc) (VideoDevice, error)

	Subscribe(listener LifecycleListener) (unsubscribe func())
}
