package decoder_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/xaionaro-go/avhwdec/decoder"
	"github.com/xaionaro-go/avhwdec/device"
	"github.com/xaionaro-go/avhwdec/platform/simulated"
	"github.com/xaionaro-go/avhwdec/types"
)

type testEnv struct {
	ctx      context.Context
	platform *simulated.Platform
	registry *device.Registry
}

func newTestEnv(t *testing.T, modify func(*simulated.Config)) *testEnv {
	l := logrus.Default().WithLevel(logger.LevelDebug)
	ctx, cancel := context.WithCancel(logger.CtxWithLogger(context.Background(), l))
	t.Cleanup(cancel)

	cfg := simulated.DefaultConfig()
	if modify != nil {
		modify(&cfg)
	}
	platform := simulated.New(cfg)
	return &testEnv{
		ctx:      ctx,
		platform: platform,
		registry: device.NewRegistry(platform),
	}
}

func (env *testEnv) newDecoder(t *testing.T, modify func(*decoder.Config)) *decoder.Decoder {
	cfg := decoder.DefaultConfig()
	cfg.LostDeviceTimeout = time.Second
	if modify != nil {
		modify(&cfg)
	}
	d := decoder.New(env.ctx, env.registry, cfg)
	t.Cleanup(func() {
		require.NoError(t, d.Close(env.ctx))
	})
	return d
}

var (
	paramsH264 = decoder.StreamParams{
		Codec:   types.CodecIDH264,
		Profile: types.ProfileH264High,
		Width:   1920,
		Height:  1088,
		Refs:    4,
	}
	paramsVP9 = decoder.StreamParams{
		Codec:   types.CodecIDVP9,
		Profile: types.ProfileVP9Profile0,
		Width:   1280,
		Height:  720,
		Refs:    4,
	}
)

func decodeOne(
	ctx context.Context,
	t *testing.T,
	d *decoder.Decoder,
	params decoder.StreamParams,
) *decoder.Picture {
	require.Equal(t, decoder.ResultNone, d.Check(ctx, params))
	frame, err := d.GetBuffer(ctx)
	require.NoError(t, err)
	require.Equal(t, decoder.ResultPicture, d.Decode(ctx, params, frame))
	d.ReleaseBuffer(frame)
	pic, ok := d.GetPicture(ctx, params)
	require.True(t, ok)
	return pic
}

func TestDecoderDecodeLoop(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := env.ctx
	d := env.newDecoder(t, nil)

	require.NoError(t, d.Open(ctx, paramsH264))
	require.Equal(t, decoder.StateOpen, d.State())
	count := d.SurfaceCount()
	require.Equal(t, uint(19), count.Surfaces)
	require.Equal(t, uint(16), count.References)
	require.Equal(t, 19, d.Pool().Size(ctx))

	for i := 0; i < 50; i++ {
		pic := decodeOne(ctx, t, d, paramsH264)
		require.Equal(t, types.SurfaceFormatNV12, pic.Format)
		require.Equal(t, types.BufferVariantDirect, pic.Variant)
		require.Equal(t, uint(1920), pic.Width)
		res, err := pic.Resource(ctx)
		require.NoError(t, err)
		require.NotNil(t, res.Texture)
		pic.Release(ctx)
	}
	require.Equal(t, 19, d.Pool().FreeViews(ctx))
	require.False(t, d.Pool().HasRefs(ctx))
	require.Equal(t, uint64(50), d.Statistics.Pictures.Load())

	_, ok := d.GetPicture(ctx, paramsH264)
	require.False(t, ok)
}

func TestDecoderDecodeReplacesInFlight(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := env.ctx
	d := env.newDecoder(t, nil)
	require.NoError(t, d.Open(ctx, paramsVP9))

	for i := 0; i < 3; i++ {
		frame, err := d.GetBuffer(ctx)
		require.NoError(t, err)
		require.Equal(t, decoder.ResultPicture, d.Decode(ctx, paramsVP9, frame))
		d.ReleaseBuffer(frame)
	}
	require.Equal(t, d.Pool().Size(ctx)-1, d.Pool().FreeViews(ctx))

	d.Reset(ctx)
	require.Equal(t, d.Pool().Size(ctx), d.Pool().FreeViews(ctx))
	_, ok := d.GetPicture(ctx, paramsVP9)
	require.False(t, ok)

	require.Equal(t, decoder.ResultNeedInput, d.Decode(ctx, paramsVP9, nil))
}

func TestDecoderExhaustion(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := env.ctx
	d := env.newDecoder(t, nil)
	require.NoError(t, d.Open(ctx, paramsVP9))

	size := d.Pool().Size(ctx)
	for i := 0; i < size; i++ {
		_, err := d.GetBuffer(ctx)
		require.NoError(t, err)
	}
	_, err := d.GetBuffer(ctx)
	require.Error(t, err)
	require.Equal(t, uint64(1), d.Statistics.BufferFailures.Load())
}

func TestDecoderOpenUnknownCodec(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := env.ctx
	d := env.newDecoder(t, nil)

	err := d.Open(ctx, decoder.StreamParams{Codec: types.CodecIDNone, Width: 640, Height: 480})
	require.Error(t, err)
	require.True(t, decoder.IsSoftwareFallback(err))
	require.Zero(t, env.platform.Counters.TexturesCreated.Load())
	require.Zero(t, env.platform.Counters.DecodersCreated.Load())
	require.NotEqual(t, decoder.StateOpen, d.State())
}

func TestDecoderOpenUnsupportedProfile(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := env.ctx
	d := env.newDecoder(t, nil)

	params := paramsH264
	params.Profile = types.ProfileH264High10
	err := d.Open(ctx, params)
	require.ErrorAs(t, err, &device.ErrNotSupported{})
	require.Zero(t, env.platform.Counters.TexturesCreated.Load())
}

func TestDecoderOpenIncompatible(t *testing.T) {
	env := newTestEnv(t, func(cfg *simulated.Config) {
		cfg.Adapter.VendorID = device.VendorAMD
		cfg.Adapter.DeviceID = 0x95C0
	})
	ctx := env.ctx
	d := env.newDecoder(t, nil)

	params := paramsH264
	params.Refs = 16
	err := d.Open(ctx, params)
	var incompatible decoder.ErrIncompatible
	require.ErrorAs(t, err, &incompatible)
	require.Equal(t, "level41", incompatible.Rule)
	require.True(t, decoder.IsSoftwareFallback(err))
	require.Zero(t, env.platform.Counters.TexturesCreated.Load())

	params.Refs = 4
	require.NoError(t, d.Open(ctx, params))
}

func TestDecoderDisabled(t *testing.T) {
	env := newTestEnv(t, nil)
	d := env.newDecoder(t, func(cfg *decoder.Config) {
		cfg.Enabled = false
	})
	err := d.Open(env.ctx, paramsH264)
	require.ErrorAs(t, err, &decoder.ErrDisabled{})
	require.True(t, decoder.IsSoftwareFallback(err))
	require.Nil(t, env.registry.Current(env.ctx))
}

func TestDecoderGetFormat(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := env.ctx
	d := env.newDecoder(t, nil)

	candidates := []types.PixelFormat{types.PixelFormatD3D11, types.PixelFormatYUV420P}
	require.Equal(t, types.PixelFormatD3D11, d.GetFormat(ctx, paramsH264, candidates))
	require.Equal(t, decoder.StateOpen, d.State())
	opens := d.Statistics.Opens.Load()

	require.Equal(t, types.PixelFormatD3D11, d.GetFormat(ctx, paramsH264, candidates))
	require.Equal(t, opens, d.Statistics.Opens.Load(), "already open for the same stream")

	require.Equal(t, types.PixelFormatYUV420P, d.GetFormat(ctx, decoder.StreamParams{Codec: types.CodecIDNone}, candidates))
	require.Equal(t, types.PixelFormatYUV420P, d.GetFormat(ctx, paramsH264, []types.PixelFormat{types.PixelFormatVAAPI, types.PixelFormatYUV420P}))
	require.Equal(t, types.PixelFormatNone, d.GetFormat(ctx, paramsH264, []types.PixelFormat{types.PixelFormatVAAPI}))
}

func TestDecoderDeviceLostAndRestored(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := env.ctx
	d := env.newDecoder(t, nil)
	require.NoError(t, d.Open(ctx, paramsH264))
	generation := d.DeviceContext().Generation()

	env.platform.LoseDevice(ctx)
	require.Equal(t, decoder.StateLost, d.State())
	env.platform.RestoreDeviceAfter(ctx, 50*time.Millisecond)

	require.Equal(t, decoder.ResultFlushed, d.Check(ctx, paramsH264))
	require.Equal(t, decoder.StateOpen, d.State())
	require.Equal(t, generation+1, d.DeviceContext().Generation())
	require.Equal(t, decoder.ResultNone, d.Check(ctx, paramsH264))
	require.Equal(t, uint64(1), d.Statistics.Flushes.Load())

	pic := decodeOne(ctx, t, d, paramsH264)
	_, err := pic.Resource(ctx)
	require.NoError(t, err)
	pic.Release(ctx)
}

func TestDecoderDeviceLostTimeout(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := env.ctx
	d := env.newDecoder(t, func(cfg *decoder.Config) {
		cfg.LostDeviceTimeout = 50 * time.Millisecond
	})
	require.NoError(t, d.Open(ctx, paramsH264))

	env.platform.LoseDevice(ctx)
	require.Equal(t, decoder.ResultError, d.Check(ctx, paramsH264))
	require.Equal(t, decoder.StateLost, d.State())
	require.Zero(t, env.platform.Counters.LiveDecoders.Load())

	_, err := d.GetBuffer(ctx)
	require.Error(t, err)
	require.ErrorAs(t, d.Open(ctx, paramsH264), &device.ErrDeviceLost{})
}

func TestDecoderReferencesGrowth(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := env.ctx
	d := env.newDecoder(t, nil)
	require.NoError(t, d.Open(ctx, paramsVP9))
	require.Equal(t, uint(8), d.SurfaceCount().References)
	require.Equal(t, uint64(1), env.platform.Counters.TexturesCreated.Load())

	params := paramsVP9
	params.Refs = 8
	require.Equal(t, decoder.ResultNone, d.Check(ctx, params))

	params.Refs = 10
	require.Equal(t, decoder.ResultFlushed, d.Check(ctx, params))
	require.Equal(t, uint(10), d.SurfaceCount().References)
	require.Equal(t, uint(13), d.SurfaceCount().Surfaces)
	require.Equal(t, uint64(2), env.platform.Counters.TexturesCreated.Load())
	require.Equal(t, decoder.ResultNone, d.Check(ctx, params))
}

func TestDecoderCodedSizeChange(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := env.ctx
	d := env.newDecoder(t, nil)
	require.NoError(t, d.Open(ctx, paramsVP9))

	params := paramsVP9
	params.Width, params.Height = 1920, 1080
	require.Equal(t, decoder.ResultFlushed, d.Check(ctx, params))
	require.Equal(t, uint(1920), d.Format().Width)
}

func TestDecoderAdapterReplaced(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := env.ctx
	d := env.newDecoder(t, nil)
	require.NoError(t, d.Open(ctx, paramsH264))
	generation := d.DeviceContext().Generation()

	adapter := simulated.DefaultAdapter
	adapter.LUID = 0x42
	env.platform.ReplaceAdapter(ctx, adapter)

	require.Equal(t, decoder.ResultFlushed, d.Check(ctx, paramsH264))
	require.Equal(t, generation+1, d.DeviceContext().Generation())
	require.Equal(t, uint64(0x42), d.DeviceContext().Adapter().LUID)
}

func TestDecoderSingleDecoderHardware(t *testing.T) {
	env := newTestEnv(t, func(cfg *simulated.Config) {
		cfg.MaxDecoders = 1
	})
	ctx := env.ctx
	first := env.newDecoder(t, nil)
	second := env.newDecoder(t, nil)

	require.NoError(t, first.Open(ctx, paramsH264))
	require.NoError(t, second.Open(ctx, paramsVP9))
	require.Same(t, first.DeviceContext(), second.DeviceContext())
	require.Equal(t, decoder.StateReset, first.State())
	require.Equal(t, decoder.StateOpen, second.State())
	require.Equal(t, int64(1), env.platform.Counters.LiveDecoders.Load())

	require.Equal(t, decoder.ResultFlushed, first.Check(ctx, paramsH264))
	require.Equal(t, decoder.StateOpen, first.State())
	require.Equal(t, decoder.StateReset, second.State())
	require.Equal(t, int64(1), env.platform.Counters.LiveDecoders.Load())
}

func TestDecoderForeignSurface(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := env.ctx
	first := env.newDecoder(t, nil)
	second := env.newDecoder(t, nil)
	require.NoError(t, first.Open(ctx, paramsVP9))
	require.NoError(t, second.Open(ctx, paramsVP9))

	foreign, err := second.GetBuffer(ctx)
	require.NoError(t, err)
	require.Equal(t, decoder.ResultNeedInput, first.Decode(ctx, paramsVP9, foreign))
	require.Equal(t, uint64(1), first.Statistics.InvalidSurfaces.Load())
	second.ReleaseBuffer(foreign)
	require.Equal(t, second.Pool().Size(ctx), second.Pool().FreeViews(ctx))
}

func TestDecoderStaleSurfaceAfterReopen(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := env.ctx
	d := env.newDecoder(t, nil)
	require.NoError(t, d.Open(ctx, paramsVP9))

	stale, err := d.GetBuffer(ctx)
	require.NoError(t, err)

	params := paramsVP9
	params.Refs = 12
	require.Equal(t, decoder.ResultFlushed, d.Check(ctx, params))
	require.Equal(t, decoder.ResultNeedInput, d.Decode(ctx, params, stale))
	d.ReleaseBuffer(stale)
}

func TestDecoderPictureOutlivesReopen(t *testing.T) {
	env := newTestEnv(t, func(cfg *simulated.Config) {
		cfg.Sharing = device.SharingCaps{Textures: true}
	})
	ctx := env.ctx
	d := env.newDecoder(t, nil)
	require.NoError(t, d.Open(ctx, paramsVP9))
	oldPool := d.Pool()
	oldSize := int64(oldPool.Size(ctx))

	pic := decodeOne(ctx, t, d, paramsVP9)
	require.Equal(t, types.BufferVariantCopy, pic.Variant)

	params := paramsVP9
	params.Refs = 10
	require.Equal(t, decoder.ResultFlushed, d.Check(ctx, params))
	newSize := int64(d.Pool().Size(ctx))
	require.Equal(t, oldSize+newSize, env.platform.Counters.LiveViews.Load())
	require.False(t, oldPool.IsReleased(ctx))

	_, err := pic.Resource(ctx)
	require.NoError(t, err)
	pic.Release(ctx)
	require.True(t, oldPool.IsReleased(ctx))
	require.Equal(t, newSize, env.platform.Counters.LiveViews.Load())
}

func TestDecoderSharedVariant(t *testing.T) {
	env := newTestEnv(t, func(cfg *simulated.Config) {
		cfg.Sharing = device.SharingCaps{Textures: true, TextureArrays: true, Fences: true}
	})
	ctx := env.ctx
	d := env.newDecoder(t, nil)
	require.NoError(t, d.Open(ctx, paramsH264))

	for i := 0; i < 5; i++ {
		pic := decodeOne(ctx, t, d, paramsH264)
		require.Equal(t, types.BufferVariantShared, pic.Variant)
		_, err := pic.Resource(ctx)
		require.NoError(t, err)
		pic.Release(ctx)
	}
	require.Equal(t, uint64(5), env.platform.Counters.Signals.Load())
	require.Equal(t, uint64(5), env.platform.Counters.Waits.Load())
}

func TestDecoderStatusReporting(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := env.ctx
	d := env.newDecoder(t, nil)
	require.NoError(t, d.Open(ctx, paramsH264))

	env.platform.SetDecodeStatus(ctx, device.DecodeStatus{Code: 1, BufType: 5})
	require.Equal(t, decoder.ResultNone, d.Check(ctx, paramsH264))
	require.Equal(t, uint64(1), d.Statistics.CorruptionReports.Load())

	require.NoError(t, d.Open(ctx, paramsVP9))
	require.Equal(t, decoder.ResultNone, d.Check(ctx, paramsVP9))
	require.Equal(t, uint64(1), d.Statistics.CorruptionReports.Load())
}

func TestDecoderCloseReleasesEverything(t *testing.T) {
	env := newTestEnv(t, func(cfg *simulated.Config) {
		cfg.Sharing = device.SharingCaps{Textures: true}
	})
	ctx := env.ctx
	d := decoder.New(ctx, env.registry, decoder.DefaultConfig())
	require.NoError(t, d.Open(ctx, paramsH264))
	pic := decodeOne(ctx, t, d, paramsH264)
	_, err := pic.Resource(ctx)
	require.NoError(t, err)

	require.NoError(t, d.Close(ctx))
	require.Equal(t, decoder.StateClosed, d.State())
	require.Nil(t, env.registry.Current(ctx))
	require.Zero(t, env.platform.Counters.LiveDecoders.Load())
	require.NotZero(t, env.platform.Counters.LiveViews.Load())

	pic.Release(ctx)
	require.Zero(t, env.platform.Counters.LiveViews.Load())
	require.Zero(t, env.platform.Counters.LiveTextures.Load())
	require.Equal(t, int64(1), env.platform.Counters.LiveVideoDevices.Load(), "only the render device remains")
}

func TestDecoderRecoversFromFailedDeviceRecreation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := env.ctx
	d := env.newDecoder(t, nil)
	require.NoError(t, d.Open(ctx, paramsH264))
	deviceCtx := d.DeviceContext()
	generation := deviceCtx.Generation()

	env.platform.RemoveDevices(ctx, errors.New("the device hung"))
	require.Equal(t, decoder.ResultError, d.Check(ctx, paramsH264))
	require.Equal(t, decoder.StateReset, d.State())
	require.Equal(t, decoder.ResultError, d.Check(ctx, paramsH264))

	other := env.newDecoder(t, nil)
	require.Error(t, other.Open(ctx, paramsVP9))
	require.Same(t, deviceCtx, env.registry.Current(ctx))
	require.Equal(t, 1, deviceCtx.UserCount())

	env.platform.RestoreDevice(ctx)
	require.Equal(t, decoder.ResultFlushed, d.Check(ctx, paramsH264))
	require.Equal(t, decoder.StateOpen, d.State())
	require.Same(t, deviceCtx, d.DeviceContext())
	require.Equal(t, generation+1, deviceCtx.Generation())
	decodeOne(ctx, t, d, paramsH264).Release(ctx)

	require.NoError(t, other.Open(ctx, paramsVP9))
	require.Same(t, deviceCtx, other.DeviceContext())
	decodeOne(ctx, t, other, paramsVP9).Release(ctx)
}

// lostNotifier reports the device as lost to the decoder when it is asked to
// give up its decoder object, i.e. in the middle of the decoder's Open.
type lostNotifier struct {
	d *decoder.Decoder
}

func (u *lostNotifier) CloseDecoderObject(ctx context.Context) {
	u.d.OnDeviceLost(ctx)
}

func TestDecoderDeviceLostDuringOpen(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := env.ctx
	d := env.newDecoder(t, nil)
	require.NoError(t, d.Open(ctx, paramsH264))

	notifier := &lostNotifier{d: d}
	_, err := env.registry.EnsureContext(ctx, notifier)
	require.NoError(t, err)
	t.Cleanup(func() { env.registry.Release(ctx, notifier) })

	env.platform.FailDecoderCreations.Store(1)
	require.ErrorAs(t, d.Open(ctx, paramsH264), &device.ErrDeviceLost{})
	require.Equal(t, decoder.StateLost, d.State())
	require.Zero(t, env.platform.Counters.LiveDecoders.Load())
	require.Zero(t, env.platform.Counters.LiveViews.Load())
	_, err = d.GetBuffer(ctx)
	require.Error(t, err)

	d.OnDeviceRestored(ctx)
	require.Equal(t, decoder.StateReset, d.State())
	require.Equal(t, decoder.ResultFlushed, d.Check(ctx, paramsH264))
	require.Equal(t, decoder.StateOpen, d.State())

	params := paramsH264
	params.Width, params.Height = 1280, 720
	env.platform.FailDecoderCreations.Store(1)
	require.Equal(t, decoder.ResultError, d.Check(ctx, params))
	require.Equal(t, decoder.StateLost, d.State())

	d.OnDeviceRestored(ctx)
	require.Equal(t, decoder.ResultFlushed, d.Check(ctx, params))
	decodeOne(ctx, t, d, params).Release(ctx)
}

func TestDecoderConcurrentRenderWithDeviceLoss(t *testing.T) {
	const (
		decoderCount     = 3
		framesPerDecoder = 60
		framesBeforeLoss = 20
	)
	env := newTestEnv(t, nil)
	ctx := env.ctx

	streams := []decoder.StreamParams{paramsH264, paramsVP9, paramsH264}
	decoders := make([]*decoder.Decoder, decoderCount)
	for idx := range decoders {
		decoders[idx] = env.newDecoder(t, nil)
		require.NoError(t, decoders[idx].Open(ctx, streams[idx]))
	}
	generation := decoders[0].DeviceContext().Generation()

	pictures := make(chan *decoder.Picture, decoderCount*4)
	var rendered atomic.Uint64
	renderDone := make(chan struct{})
	go func() {
		defer close(renderDone)
		for pic := range pictures {
			_, _ = pic.Resource(ctx)
			pic.Release(ctx)
			rendered.Inc()
		}
	}()

	var (
		reachedLoss sync.WaitGroup
		decoding    sync.WaitGroup
	)
	lost := make(chan struct{})
	reachedLoss.Add(decoderCount)
	decoding.Add(decoderCount)
	for idx, d := range decoders {
		params := streams[idx]
		go func() {
			defer decoding.Done()
			for i := 0; i < framesPerDecoder; i++ {
				if i == framesBeforeLoss {
					reachedLoss.Done()
					<-lost
				}
				if d.Check(ctx, params) == decoder.ResultError {
					continue
				}
				frame, err := d.GetBuffer(ctx)
				if err != nil {
					continue
				}
				result := d.Decode(ctx, params, frame)
				d.ReleaseBuffer(frame)
				if result != decoder.ResultPicture {
					continue
				}
				if pic, ok := d.GetPicture(ctx, params); ok {
					pictures <- pic
				}
			}
			assert.Equal(t, decoder.ResultNone, d.Check(ctx, params))
		}()
	}

	reachedLoss.Wait()
	env.platform.LoseDevice(ctx)
	for _, d := range decoders {
		require.Equal(t, decoder.StateLost, d.State())
	}
	env.platform.RestoreDeviceAfter(ctx, 30*time.Millisecond)
	close(lost)

	decoding.Wait()
	close(pictures)
	<-renderDone

	require.NotZero(t, rendered.Load())
	for _, d := range decoders {
		require.Equal(t, decoder.StateOpen, d.State())
		require.GreaterOrEqual(t, d.Statistics.Flushes.Load(), uint64(1))
		require.Equal(t, generation+1, d.DeviceContext().Generation())
		require.Equal(t, d.Pool().Size(ctx), d.Pool().FreeViews(ctx))
	}

	for _, d := range decoders {
		require.NoError(t, d.Close(ctx))
	}
	require.Zero(t, env.platform.Counters.LiveDecoders.Load())
	require.Zero(t, env.platform.Counters.LiveViews.Load())
}

func TestDecoderReleaseAfterDecodeContextCancelled(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := env.ctx
	d := env.newDecoder(t, nil)
	require.NoError(t, d.Open(ctx, paramsVP9))

	decodeCtx, cancel := context.WithCancel(ctx)
	require.Equal(t, decoder.ResultNone, d.Check(decodeCtx, paramsVP9))
	frame, err := d.GetBuffer(decodeCtx)
	require.NoError(t, err)
	require.Equal(t, decoder.ResultPicture, d.Decode(decodeCtx, paramsVP9, frame))
	pic, ok := d.GetPicture(decodeCtx, paramsVP9)
	require.True(t, ok)
	cancel()

	d.ReleaseBuffer(frame)
	pic.Release(ctx)
	require.Equal(t, d.Pool().Size(ctx), d.Pool().FreeViews(ctx))
}
