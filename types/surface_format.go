// surface_format.go defines the pixel formats of GPU decode-output surfaces.

package types

import (
	"fmt"
)

type SurfaceFormat int

const (
	SurfaceFormatUnknown = SurfaceFormat(iota)
	SurfaceFormatNV12
	SurfaceFormatP010
	SurfaceFormatP016
)

func (f SurfaceFormat) String() string {
	switch f {
	case SurfaceFormatUnknown:
		return "unknown"
	case SurfaceFormatNV12:
		return "NV12"
	case SurfaceFormatP010:
		return "P010"
	case SurfaceFormatP016:
		return "P016"
	}
	return fmt.Sprintf("unknown_%d", int(f))
}

// BitDepth returns how many significant bits per sample the format holds.
func (f SurfaceFormat) BitDepth() uint {
	switch f {
	case SurfaceFormatNV12:
		return 8
	case SurfaceFormatP010:
		return 10
	case SurfaceFormatP016:
		return 16
	}
	return 0
}

// FrameSize returns the amount of bytes a single width x height surface occupies.
func (f SurfaceFormat) FrameSize(width, height uint) uint64 {
	luma := uint64(width) * uint64(height)
	switch f {
	case SurfaceFormatNV12:
		return luma * 3 / 2
	case SurfaceFormatP010, SurfaceFormatP016:
		return luma * 3
	}
	return 0
}
