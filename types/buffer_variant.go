// buffer_variant.go defines how decoded surfaces cross from the decode device to the render device.

package types

import (
	"fmt"
)

type BufferVariant int

const (
	UndefinedBufferVariant = BufferVariant(iota)

	// BufferVariantDirect is used when decoding and rendering share one device:
	// the decode-output view is handed to the renderer as is.
	BufferVariantDirect

	// BufferVariantShared is used when the render device can open the decode
	// texture array through a shared handle (zero-copy), optionally
	// synchronized with a shared fence.
	BufferVariantShared

	// BufferVariantCopy is used when only single-slice textures may be shared:
	// every picture is copied GPU-side into a per-buffer shared texture.
	BufferVariantCopy

	EndOfBufferVariant
)

func (v BufferVariant) String() string {
	switch v {
	case UndefinedBufferVariant:
		return "<undefined>"
	case BufferVariantDirect:
		return "direct"
	case BufferVariantShared:
		return "shared"
	case BufferVariantCopy:
		return "copy"
	}
	return fmt.Sprintf("<unexpected_%d>", int(v))
}

func BufferVariantFromString(s string) (BufferVariant, error) {
	for v := UndefinedBufferVariant + 1; v < EndOfBufferVariant; v++ {
		if v.String() == s {
			return v, nil
		}
	}
	return UndefinedBufferVariant, fmt.Errorf("unknown buffer variant: '%s'", s)
}

// Set implements pflag.Value.
func (v *BufferVariant) Set(s string) error {
	parsed, err := BufferVariantFromString(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Type implements pflag.Value.
func (v *BufferVariant) Type() string {
	return "buffer-variant"
}
