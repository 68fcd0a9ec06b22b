package decoder

import (
	"testing"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/stretchr/testify/require"

	"github.com/xaionaro-go/avhwdec/device"
	"github.com/xaionaro-go/avhwdec/types"
)

func TestSurfaceCount(t *testing.T) {
	cfg := DefaultConfig()
	bigGPU := device.AdapterDesc{DedicatedVideoMemory: 8 << 30}
	smallGPU := device.AdapterDesc{DedicatedVideoMemory: 2 << 30}

	for _, tc := range []struct {
		name     string
		params   StreamParams
		adapter  device.AdapterDesc
		refs     uint
		surfaces uint
		degraded bool
	}{
		{"h264-minimum", StreamParams{Codec: types.CodecIDH264, Width: 1920, Refs: 4}, bigGPU, 16, 19, false},
		{"h264-threads", StreamParams{Codec: types.CodecIDH264, Width: 1920, Refs: 4, Threads: 4}, bigGPU, 16, 22, false},
		{"h264-clamped", StreamParams{Codec: types.CodecIDH264, Width: 1920, Refs: 16, Threads: 16}, bigGPU, 16, 32, false},
		{"mpeg2", StreamParams{Codec: types.CodecIDMPEG2, Width: 720, Refs: 2}, bigGPU, 2, 5, false},
		{"vp9-more-than-minimum", StreamParams{Codec: types.CodecIDVP9, Width: 1920, Refs: 9}, bigGPU, 9, 12, false},
		{"hevc-uhd-low-memory", StreamParams{Codec: types.CodecIDHEVC, Width: 3840, Refs: 6, Threads: 2}, smallGPU, 13, 16, true},
		{"hevc-uhd-low-memory-many-refs", StreamParams{Codec: types.CodecIDHEVC, Width: 3840, Refs: 16}, smallGPU, 16, 19, false},
		{"hevc-uhd-unknown-memory", StreamParams{Codec: types.CodecIDHEVC, Width: 3840, Refs: 6}, device.AdapterDesc{}, 16, 19, false},
		{"hevc-hd-low-memory", StreamParams{Codec: types.CodecIDHEVC, Width: 1920, Refs: 6}, smallGPU, 16, 19, false},
		{"unknown-codec-policy", StreamParams{Codec: types.CodecIDNone, Refs: 0}, bigGPU, 2, 5, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			result, err := cfg.SurfaceCount(tc.params, tc.adapter)
			require.NoError(t, err)
			require.Equal(t, tc.refs, result.References, "references")
			require.Equal(t, tc.surfaces, result.Surfaces, "surfaces")
			require.Equal(t, tc.degraded, result.Degraded)
		})
	}
}

func TestSurfaceCountBounds(t *testing.T) {
	cfg := DefaultConfig()
	for _, codec := range types.CodecIDs() {
		for refs := uint(0); refs+cfg.SurfaceMargin <= cfg.MaxSurfaces; refs++ {
			for _, threads := range []uint{0, 1, 8, 64} {
				for _, adapter := range []device.AdapterDesc{
					{DedicatedVideoMemory: 512 << 20},
					{DedicatedVideoMemory: 16 << 30},
				} {
					params := StreamParams{Codec: codec, Width: 4096, Refs: refs, Threads: threads}
					result, err := cfg.SurfaceCount(params, adapter)
					require.NoError(t, err)
					require.GreaterOrEqual(t, result.Surfaces, refs+cfg.SurfaceMargin, "%v", params)
					require.LessOrEqual(t, result.Surfaces, cfg.MaxSurfaces, "%v", params)
					require.GreaterOrEqual(t, result.References, refs, "%v", params)
					require.LessOrEqual(t, result.References+cfg.SurfaceMargin, result.Surfaces, "%v", params)
				}
			}
		}
	}

	_, err := cfg.SurfaceCount(StreamParams{Codec: types.CodecIDVP9, Refs: 30}, device.AdapterDesc{})
	require.ErrorAs(t, err, &device.ErrNotSupported{})
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
surface_margin: 4
max_surfaces: 24
references:
  h264:
    minimum: 8
    multiplier: 1
alignment:
  vp9: 64
low_memory:
  min_width: 2560
  min_video_memory: 2GiB
  surfaces: 12
lost_device_timeout: 500ms
level41_check: false
`))
	require.NoError(t, err)
	require.True(t, cfg.Enabled)
	require.Equal(t, uint(4), cfg.SurfaceMargin)
	require.Equal(t, uint(24), cfg.MaxSurfaces)
	require.Equal(t, ReferencePolicy{Minimum: 8, Multiplier: 1}, cfg.ReferencePolicy(types.CodecIDH264))
	require.Equal(t, ReferencePolicy{Minimum: 16, Multiplier: 1}, cfg.ReferencePolicy(types.CodecIDHEVC))
	require.Equal(t, uint(64), cfg.AlignmentFor(types.CodecIDVP9))
	require.Equal(t, uint(32), cfg.AlignmentFor(types.CodecIDMPEG2))
	require.Equal(t, uint(16), cfg.AlignmentFor(types.CodecIDH264))
	require.Equal(t, Bytes(2*humanize.GiByte), cfg.LowMemory.MinVideoMemory)
	require.Equal(t, 500*time.Millisecond, cfg.LostDeviceTimeout)
	require.True(t, cfg.Level41Check.IsSet())
	require.False(t, cfg.Level41Check.Get())

	_, err = ParseConfig([]byte(`max_surfaces: 0`))
	require.Error(t, err)

	_, err = ParseConfig([]byte(`references: {mpeg4: {minimum: 1}}`))
	require.Error(t, err)
}

func TestParseConfigLevel41Check(t *testing.T) {
	cfg, err := ParseConfig([]byte(`surface_margin: 3`))
	require.NoError(t, err)
	require.False(t, cfg.Level41Check.IsSet())

	cfg, err = ParseConfig([]byte(`level41_check: true`))
	require.NoError(t, err)
	require.True(t, cfg.Level41Check.IsSet())
	require.True(t, cfg.Level41Check.Get())

	cfg, err = ParseConfig([]byte(`level41_check: null`))
	require.NoError(t, err)
	require.False(t, cfg.Level41Check.IsSet())

	_, err = ParseConfig([]byte(`level41_check: maybe`))
	require.Error(t, err)
}
