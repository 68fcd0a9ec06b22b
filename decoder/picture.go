package decoder

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/avhwdec/types"
	"github.com/xaionaro-go/avhwdec/videobuffer"
)

// Picture is a decoded picture handed to the renderer; the renderer owns
// the reference to Buffer and must call Release once presented.
type Picture struct {
	Buffer  *videobuffer.VideoBuffer
	Format  types.SurfaceFormat
	Variant types.BufferVariant
	Width   uint
	Height  uint

	ColorPrimaries types.ColorPrimaries
	ColorTransfer  types.ColorTransfer
}

func (p *Picture) String() string {
	return fmt.Sprintf("Picture(%s %dx%d %s)", p.Format, p.Width, p.Height, p.Buffer)
}

// Resource returns the texture the renderer has to sample.
func (p *Picture) Resource(ctx context.Context) (videobuffer.Resource, error) {
	return p.Buffer.Resource(ctx)
}

func (p *Picture) Release(ctx context.Context) {
	if p.Buffer == nil {
		return
	}
	p.Buffer.Release(ctx)
	p.Buffer = nil
}
