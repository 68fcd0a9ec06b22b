// backend.go defines what a VideoBuffer needs to move a picture from the
// decode device to the render device.

// Package videobuffer implements reference-counted decoded-picture buffers
// over pooled GPU surfaces and the pool itself.
package videobuffer

import (
	"github.com/xaionaro-go/avhwdec/device"
	"github.com/xaionaro-go/avhwdec/types"
)

// Backend is fixed for the lifetime of a Pool.
type Backend struct {
	Variant types.BufferVariant
	Video   device.VideoDevice
	Render  device.RenderDevice

	// SharedHandle is the handle of the whole decode texture array, used by
	// the Shared variant.
	SharedHandle device.SharedHandle

	// Fences enables fence synchronization of the Shared variant.
	Fences bool

	// MenuFlushWorkaround adds a flush after each copy of the Copy variant;
	// optical-disc menus produce stale frames without it.
	MenuFlushWorkaround bool
}

// Frame is the codec library's reference to a leased surface; the surface
// returns to the pool when the last reference is released.
type Frame interface {
	View() device.View
	AddRef()
	Release()
}

// Resource is what the renderer samples.
type Resource struct {
	Texture device.Texture
	Slice   int
}
