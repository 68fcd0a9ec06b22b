// check.go implements the per-frame operations of Decoder.

package decoder

import (
	"context"
	"errors"

	"github.com/xaionaro-go/avhwdec/device"
	"github.com/xaionaro-go/avhwdec/logger"
	"github.com/xaionaro-go/avhwdec/types"
	"github.com/xaionaro-go/avhwdec/videobuffer"
	"github.com/xaionaro-go/xsync"
)

// Check is the health gate to be called before every decode. ResultFlushed
// means the decoder was reopened and all the in-flight state of the codec
// library is invalid.
func (d *Decoder) Check(
	ctx context.Context,
	params StreamParams,
) (_ret Result) {
	logger.Tracef(ctx, "Check")
	defer func() { logger.Tracef(ctx, "/Check: %s", _ret) }()
	return xsync.DoA2R1(ctx, &d.locker, d.checkLocked, ctx, params)
}

func (d *Decoder) checkLocked(
	ctx context.Context,
	params StreamParams,
) Result {
	if d.State() == StateLost {
		d.releaseResourcesLocked(ctx)
		timeout := d.config.LostDeviceTimeout
		d.locker.UDo(ctx, func() {
			d.restored.Wait(ctx, timeout)
		})
		if d.State() == StateLost {
			logger.Errorf(ctx, "the device was not restored in %v", timeout)
			return ResultError
		}
	}

	switch d.State() {
	case StateClosed:
		logger.Errorf(ctx, "Check is called on a decoder that is not open")
		return ResultError
	case StateReset:
		return d.reopenLocked(ctx, params)
	}

	if reason := d.staleReasonLocked(ctx, params); reason != "" {
		logger.Warnf(ctx, "recreating the decoder: %s", reason)
		d.requestReset(ctx)
		return d.reopenLocked(ctx, params)
	}

	d.queryStatusLocked(ctx, params)
	return ResultNone
}

func (d *Decoder) staleReasonLocked(
	ctx context.Context,
	params StreamParams,
) string {
	var (
		deviceCtx  *device.Context
		generation uint64
		format     device.DecodeFormat
		refs       uint
	)
	d.stateLocker.Do(ctx, func() {
		deviceCtx, generation, format, refs = d.deviceCtx, d.generation, d.format, d.surfaceCount.References
	})
	switch {
	case deviceCtx.Generation() != generation:
		return "the decode device context was recreated"
	case params.Refs > refs:
		return "the number of required reference frames increased"
	case params.Width != format.Width || params.Height != format.Height:
		return "the coded size changed"
	}
	if err := deviceCtx.Check(ctx); err != nil {
		return err.Error()
	}
	return ""
}

func (d *Decoder) reopenLocked(
	ctx context.Context,
	params StreamParams,
) Result {
	d.releaseResourcesLocked(ctx)
	if err := d.openLocked(ctx, params); err != nil {
		logger.Errorf(ctx, "the decoder was not able to reset: %v", err)
		d.releaseResourcesLocked(ctx)
		d.requestReset(ctx)
		return ResultError
	}
	d.Statistics.Flushes.Inc()
	return ResultFlushed
}

// queryStatusLocked logs the corruption reported by the hardware; only a
// few codecs expose decode-health reporting.
func (d *Decoder) queryStatusLocked(
	ctx context.Context,
	params StreamParams,
) {
	switch params.Codec {
	case types.CodecIDH264, types.CodecIDVC1, types.CodecIDWMV3, types.CodecIDHEVC:
	default:
		return
	}
	object := xsync.DoR1(ctx, &d.stateLocker, func() device.DecoderObject {
		return d.object
	})
	if object == nil {
		return
	}
	status, err := object.Status(ctx)
	switch {
	case err == nil:
	case errors.As(err, &device.ErrNotImplemented{}):
		return
	default:
		logger.Warnf(ctx, "unable to get the decoder status: %v", err)
		return
	}
	if status.Code != 0 {
		d.Statistics.CorruptionReports.Inc()
		logger.Warnf(ctx, "decoder problem of status %d with %d", status.Code, status.BufType)
	}
}

// Decode wraps the surface the frame was decoded into as the in-flight
// picture. A surface not owned by the current pool is ignored.
func (d *Decoder) Decode(
	ctx context.Context,
	params StreamParams,
	frame videobuffer.Frame,
) (_ret Result) {
	logger.Tracef(ctx, "Decode")
	defer func() { logger.Tracef(ctx, "/Decode: %s", _ret) }()
	return xsync.DoA3R1(ctx, &d.locker, d.decodeLocked, ctx, params, frame)
}

func (d *Decoder) decodeLocked(
	ctx context.Context,
	params StreamParams,
	frame videobuffer.Frame,
) Result {
	if frame == nil {
		return ResultNeedInput
	}

	var (
		state   State
		bufPool *videobuffer.Pool
		format  device.DecodeFormat
	)
	d.stateLocker.Do(ctx, func() {
		state, bufPool, format = d.state, d.pool, d.format
	})
	if state != StateOpen || bufPool == nil {
		logger.Debugf(ctx, "the decoder is %s, dropping the picture", state)
		return ResultNeedInput
	}
	if !bufPool.IsValid(ctx, frame.View()) {
		d.Statistics.InvalidSurfaces.Inc()
		logger.Warnf(ctx, "ignoring invalid surface")
		return ResultNeedInput
	}

	buf := bufPool.Get(ctx)
	if err := buf.Initialize(ctx, frame, format.OutputFormat, params.Width, params.Height); err != nil {
		buf.Release(ctx)
		logger.Errorf(ctx, "unable to initialize the buffer: %v", err)
		return ResultError
	}

	prev := xsync.DoR1(ctx, &d.stateLocker, func() *videobuffer.VideoBuffer {
		prev := d.inFlight
		d.inFlight = buf
		return prev
	})
	if prev != nil {
		prev.Release(ctx)
	}
	d.Statistics.Pictures.Inc()
	return ResultPicture
}

// GetPicture transfers the in-flight buffer to the caller.
func (d *Decoder) GetPicture(
	ctx context.Context,
	params StreamParams,
) (*Picture, bool) {
	return xsync.DoA2R2(ctx, &d.locker, d.getPictureLocked, ctx, params)
}

func (d *Decoder) getPictureLocked(
	ctx context.Context,
	params StreamParams,
) (*Picture, bool) {
	var buf *videobuffer.VideoBuffer
	d.stateLocker.Do(ctx, func() {
		buf = d.inFlight
		d.inFlight = nil
	})
	if buf == nil {
		return nil, false
	}
	width, height := buf.Size()
	return &Picture{
		Buffer:         buf,
		Format:         buf.Format(),
		Variant:        buf.Variant(),
		Width:          width,
		Height:         height,
		ColorPrimaries: params.ColorPrimaries,
		ColorTransfer:  params.ColorTransfer,
	}, true
}

// Reset flushes the stream: the in-flight buffer is dropped and nothing is reopened.
func (d *Decoder) Reset(ctx context.Context) {
	logger.Debugf(ctx, "Reset")
	defer func() { logger.Debugf(ctx, "/Reset") }()
	d.locker.Do(ctx, func() {
		buf := xsync.DoR1(ctx, &d.stateLocker, func() *videobuffer.VideoBuffer {
			buf := d.inFlight
			d.inFlight = nil
			return buf
		})
		if buf != nil {
			buf.Release(ctx)
		}
	})
}
