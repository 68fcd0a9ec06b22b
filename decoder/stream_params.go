package decoder

import (
	"fmt"

	"github.com/xaionaro-go/avhwdec/device"
	"github.com/xaionaro-go/avhwdec/types"
)

// StreamParams is what the codec library knows about the stream.
type StreamParams struct {
	Codec   types.CodecID
	Profile types.Profile

	// Width and Height are the coded dimensions.
	Width  uint
	Height uint

	// Refs is the number of reference frames the stream declares.
	Refs     uint
	BitDepth uint

	// Threads is the number of frame-decoding threads of the codec library.
	Threads    uint
	Interlaced bool

	ColorPrimaries types.ColorPrimaries
	ColorTransfer  types.ColorTransfer
}

func (p StreamParams) String() string {
	return fmt.Sprintf("%s/%s %dx%d refs:%d", p.Codec, p.Profile, p.Width, p.Height, p.Refs)
}

func (p StreamParams) request() device.Request {
	return device.Request{
		Codec:    p.Codec,
		Profile:  p.Profile,
		Width:    p.Width,
		Height:   p.Height,
		BitDepth: p.BitDepth,
	}
}

// widthMBs and heightMBs are the dimensions in 16x16 macroblocks.
func (p StreamParams) widthMBs() uint {
	return (p.Width + 15) / 16
}

func (p StreamParams) heightMBs() uint {
	return (p.Height + 15) / 16
}
