package main

import (
	"context"

	"github.com/xaionaro-go/avhwdec/decoder"
	"github.com/xaionaro-go/avhwdec/logger"
	"github.com/xaionaro-go/avhwdec/types"
)

var softwareCandidates = []types.PixelFormat{types.PixelFormatYUV420P}

// decodeStream drives the decoder the way a codec library would, without
// actual bitstream: every iteration produces one picture.
func decodeStream(
	ctx context.Context,
	d *decoder.Decoder,
	params decoder.StreamParams,
	hwPixelFormat types.PixelFormat,
	frames int,
	pictures chan<- *decoder.Picture,
	onFrame func(int),
) {
	candidates := append([]types.PixelFormat{hwPixelFormat}, softwareCandidates...)
	if pf := d.GetFormat(ctx, params, candidates); !pf.IsHardware() {
		logger.Warnf(ctx, "decoding %s in software (%s)", params, pf)
		return
	}

	for frame := 0; frame < frames; frame++ {
		if onFrame != nil {
			onFrame(frame)
		}
		switch d.Check(ctx, params) {
		case decoder.ResultError:
			logger.Errorf(ctx, "the decoder failed at frame %d", frame)
			return
		case decoder.ResultFlushed:
			logger.Infof(ctx, "the decoder was flushed at frame %d", frame)
		}

		surface, err := d.GetBuffer(ctx)
		if err != nil {
			logger.Errorf(ctx, "unable to get a surface: %v", err)
			continue
		}
		result := d.Decode(ctx, params, surface)
		d.ReleaseBuffer(surface)
		if result != decoder.ResultPicture {
			continue
		}
		pic, ok := d.GetPicture(ctx, params)
		if !ok {
			continue
		}
		select {
		case pictures <- pic:
		case <-ctx.Done():
			pic.Release(ctx)
			return
		}
	}
}
