package device

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/xaionaro-go/avhwdec/capability"
	"github.com/xaionaro-go/avhwdec/types"
)

// Request is what a decoder asks the hardware to host.
type Request struct {
	Codec    types.CodecID
	Profile  types.Profile
	Width    uint
	Height   uint
	BitDepth uint
}

// DecodeFormat is chosen once per Decoder.Open and stays immutable until the next one.
type DecodeFormat struct {
	Codec        types.CodecID
	Profile      types.Profile
	Decoder      uuid.UUID
	OutputFormat types.SurfaceFormat
	Width        uint
	Height       uint
}

func (f DecodeFormat) String() string {
	return fmt.Sprintf("%s/%s %s %dx%d (%s)", f.Codec, f.Profile, f.OutputFormat, f.Width, f.Height, capability.Name(f.Decoder))
}

func (f DecodeFormat) DecoderDesc() DecoderDesc {
	return DecoderDesc{
		Profile: f.Decoder,
		Width:   f.Width,
		Height:  f.Height,
		Format:  f.OutputFormat,
	}
}

// BitstreamRawPreferred is the bitstream packaging preferred over the first
// usable one: it is required on some hardware and handles skipping better.
const BitstreamRawPreferred = 2

// DecodeConfig is a hardware-reported configuration record.
type DecodeConfig struct {
	BitstreamRaw uint
	Encryption   uuid.UUID
}

func (c DecodeConfig) IsEncrypted() bool {
	return c.Encryption != uuid.Nil && c.Encryption != capability.NoEncrypt
}

// SurfaceSet is the result of CreateSurfaces.
type SurfaceSet struct {
	Texture      Texture
	Views        []View
	SharedHandle SharedHandle
}

func (s SurfaceSet) Release() {
	for _, v := range s.Views {
		v.Release()
	}
	if s.Texture != nil {
		s.Texture.Release()
	}
}
