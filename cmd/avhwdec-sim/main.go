package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/avhwdec/decoder"
	"github.com/xaionaro-go/avhwdec/device"
	"github.com/xaionaro-go/avhwdec/platform/libav"
	"github.com/xaionaro-go/avhwdec/platform/simulated"
	"github.com/xaionaro-go/avhwdec/types"
	"github.com/xaionaro-go/observability"
)

const restoreDelay = 100 * time.Millisecond

type report struct {
	Platform string                       `json:"platform"`
	Decoders []decoder.StatisticsSnapshot `json:"decoders"`
	Counters *simulated.CountersSnapshot  `json:"counters,omitempty"`
	Rendered uint64                       `json:"rendered"`
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [flags]\n", os.Args[0])
		pflag.PrintDefaults()
	}

	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	platformName := pflag.String("platform", "simulated", "the platform to decode on: simulated or libav")
	decoderCount := pflag.Int("decoders", 1, "the number of concurrent decoders")
	codecID := types.CodecIDH264
	pflag.Var(&codecID, "codec", "the codec of the synthetic stream")
	profile := pflag.Int("profile", int(types.ProfileUnknown), "the libav profile of the synthetic stream")
	width := pflag.Uint("width", 1920, "the coded width")
	height := pflag.Uint("height", 1080, "the coded height")
	refs := pflag.Uint("refs", 4, "the number of reference frames the stream declares")
	bitDepth := pflag.Uint("bit-depth", 8, "the bit depth of the stream")
	threads := pflag.Uint("threads", 1, "the number of decoding threads of the codec library")
	frames := pflag.Int("frames", 100, "the number of frames each decoder decodes")
	loseDeviceAt := pflag.Int("lose-device-at", -1, "lose the device when the first decoder reaches this frame; negative disables")
	singleDecoder := pflag.Bool("single-decoder", false, "simulate hardware able to host only one decoder object")
	sharing := types.BufferVariantDirect
	pflag.Var(&sharing, "sharing", "the simulated buffer sharing: direct, shared or copy")
	configPath := pflag.String("config", "", "a YAML file with the decoder configuration")
	hwDeviceType := types.HardwareDeviceTypeVAAPI
	pflag.Var(&hwDeviceType, "hw-device-type", "the libav hardware device type")
	hwDeviceName := pflag.String("hw-device-name", "", "the libav hardware device name")
	var hwDeviceOptions types.DictionaryItems
	pflag.Var(&hwDeviceOptions, "hw-device-option", "an option of the libav hardware device; may be repeated")
	pflag.Parse()
	if len(pflag.Args()) != 0 {
		pflag.Usage()
		os.Exit(1)
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	cfg := decoder.DefaultConfig()
	if *configPath != "" {
		b, err := os.ReadFile(*configPath)
		if err != nil {
			l.Fatal(err)
		}
		cfg, err = decoder.ParseConfig(b)
		if err != nil {
			l.Fatal(err)
		}
	}

	var (
		platform device.Platform
		sim      *simulated.Platform
		av       *libav.Platform
	)
	switch *platformName {
	case "simulated":
		simCfg := simulated.DefaultConfig()
		switch sharing {
		case types.BufferVariantShared:
			simCfg.Sharing = device.SharingCaps{Textures: true, TextureArrays: true, Fences: true}
		case types.BufferVariantCopy:
			simCfg.Sharing = device.SharingCaps{Textures: true}
		}
		if *singleDecoder {
			simCfg.MaxDecoders = 1
		}
		sim = simulated.New(simCfg)
		platform = sim
	case "libav":
		libav.SetLogger(l)
		av = libav.New(libav.Config{
			HardwareDeviceType: hwDeviceType,
			HardwareDeviceName: types.HardwareDeviceName(*hwDeviceName),
			Options:            hwDeviceOptions,
		})
		defer av.Close(ctx)
		platform = av
		cfg.PixelFormat = hwDeviceType.HardwarePixelFormat()
	default:
		l.Fatalf("unknown platform '%s'", *platformName)
	}

	params := decoder.StreamParams{
		Codec:    codecID,
		Profile:  types.Profile(*profile),
		Width:    *width,
		Height:   *height,
		Refs:     *refs,
		BitDepth: *bitDepth,
		Threads:  *threads,
	}

	loseDevice := func() {
		switch {
		case sim != nil:
			sim.LoseDevice(ctx)
			sim.RestoreDeviceAfter(ctx, restoreDelay)
		case av != nil:
			if err := av.ResetDevice(ctx); err != nil {
				l.Error(err)
			}
		}
	}

	registry := device.NewRegistry(platform)
	decoders := make([]*decoder.Decoder, *decoderCount)
	for idx := range decoders {
		decoders[idx] = decoder.New(ctx, registry, cfg)
	}

	pictures := make(chan *decoder.Picture, *decoderCount)
	var rendered uint64
	renderDone := make(chan struct{})
	observability.Go(ctx, func(ctx context.Context) {
		defer close(renderDone)
		for pic := range pictures {
			if _, err := pic.Resource(ctx); err != nil {
				logger.Errorf(ctx, "unable to render %s: %v", pic, err)
			} else {
				rendered++
			}
			pic.Release(ctx)
		}
	})

	var wg sync.WaitGroup
	for idx, d := range decoders {
		wg.Add(1)
		observability.Go(ctx, func(ctx context.Context) {
			defer wg.Done()
			var onFrame func(int)
			if idx == 0 {
				onFrame = func(frame int) {
					if frame == *loseDeviceAt {
						loseDevice()
					}
				}
			}
			decodeStream(ctx, d, params, cfg.PixelFormat, *frames, pictures, onFrame)
		})
	}
	wg.Wait()
	close(pictures)
	<-renderDone

	result := report{Platform: platform.String(), Rendered: rendered}
	for _, d := range decoders {
		if err := d.Close(ctx); err != nil {
			l.Error(err)
		}
		result.Decoders = append(result.Decoders, d.Statistics.Convert())
	}
	if sim != nil {
		counters := sim.Counters.Snapshot()
		result.Counters = &counters
	}
	b, err := json.MarshalIndent(result, "", " ")
	if err != nil {
		l.Fatal(err)
	}
	fmt.Printf("%s\n", b)
}
