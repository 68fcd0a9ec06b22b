// config.go defines the tuning table of the surface-count policy.

package decoder

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/xaionaro-go/avhwdec/device"
	"github.com/xaionaro-go/avhwdec/types"
	"github.com/xaionaro-go/typing"
	"gopkg.in/yaml.v3"
)

// OptionalBool is a bool that may be left out of the YAML.
type OptionalBool struct {
	typing.Optional[bool]
}

func (o OptionalBool) MarshalYAML() (any, error) {
	if !o.IsSet() {
		return nil, nil
	}
	return o.Get(), nil
}

func (o *OptionalBool) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!null" {
		o.Optional = typing.Optional[bool]{}
		return nil
	}
	var v bool
	if err := value.Decode(&v); err != nil {
		return err
	}
	o.Optional = typing.Opt(v)
	return nil
}

// Bytes is a size in bytes; in YAML it may be written like "3500MiB".
type Bytes uint64

func (b Bytes) String() string {
	return humanize.IBytes(uint64(b))
}

func (b Bytes) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Bytes) UnmarshalText(text []byte) error {
	v, err := humanize.ParseBytes(string(text))
	if err != nil {
		return fmt.Errorf("unable to parse size '%s': %w", text, err)
	}
	*b = Bytes(v)
	return nil
}

type ReferencePolicy struct {
	// Minimum is the number of reference surfaces allocated even if the
	// stream declares less.
	Minimum uint `yaml:"minimum"`

	// Multiplier scales the reference count declared by the stream.
	Multiplier uint `yaml:"multiplier"`
}

func (p ReferencePolicy) References(streamRefs uint) uint {
	multiplier := p.Multiplier
	if multiplier == 0 {
		multiplier = 1
	}
	return max(streamRefs*multiplier, p.Minimum)
}

type LowMemoryConfig struct {
	// MinWidth is the frame width starting from which the clamp applies.
	MinWidth uint `yaml:"min_width"`

	// MinVideoMemory is the amount of video memory below which the clamp applies.
	MinVideoMemory Bytes `yaml:"min_video_memory"`

	// Surfaces is the surface count the pool is clamped to.
	Surfaces uint `yaml:"surfaces"`
}

type Config struct {
	Enabled bool `yaml:"enabled"`

	// SurfaceMargin is the number of surfaces allocated on top of the
	// references: one being decoded, one held by the codec library and one
	// being presented.
	SurfaceMargin uint `yaml:"surface_margin"`

	// MaxSurfaces is the maximum of concurrent surfaces the hardware can host.
	MaxSurfaces uint `yaml:"max_surfaces"`

	References        map[types.CodecID]ReferencePolicy `yaml:"references"`
	DefaultReferences ReferencePolicy                   `yaml:"default_references"`

	Alignment        map[types.CodecID]uint `yaml:"alignment"`
	DefaultAlignment uint                   `yaml:"default_alignment"`

	LowMemory LowMemoryConfig `yaml:"low_memory"`

	LostDeviceTimeout time.Duration `yaml:"lost_device_timeout"`

	// Level41Check overrides the detection of hardware limited to H.264
	// level 4.1; unset means autodetect.
	Level41Check OptionalBool `yaml:"level41_check"`

	MenuFlushWorkaround bool `yaml:"menu_flush_workaround"`

	// PixelFormat is the hardware pixel format negotiated with the codec library.
	PixelFormat types.PixelFormat `yaml:"pixel_format"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		SurfaceMargin: 3,
		MaxSurfaces:   32,
		References: map[types.CodecID]ReferencePolicy{
			types.CodecIDH264:  {Minimum: 16, Multiplier: 1},
			types.CodecIDHEVC:  {Minimum: 16, Multiplier: 1},
			types.CodecIDVP9:   {Minimum: 8, Multiplier: 1},
			types.CodecIDAV1:   {Minimum: 8, Multiplier: 1},
			types.CodecIDMPEG2: {Minimum: 2, Multiplier: 1},
			types.CodecIDVC1:   {Minimum: 2, Multiplier: 1},
			types.CodecIDWMV3:  {Minimum: 2, Multiplier: 1},
		},
		DefaultReferences: ReferencePolicy{Minimum: 2, Multiplier: 1},
		Alignment: map[types.CodecID]uint{
			types.CodecIDMPEG2: 32,
			types.CodecIDHEVC:  128,
			types.CodecIDAV1:   128,
		},
		DefaultAlignment: 16,
		LowMemory: LowMemoryConfig{
			MinWidth:       3840,
			MinVideoMemory: 3500 * humanize.MiByte,
			Surfaces:       16,
		},
		LostDeviceTimeout: 2 * time.Second,
		PixelFormat:       types.PixelFormatD3D11,
	}
}

// ParseConfig parses YAML on top of DefaultConfig.
func ParseConfig(b []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("unable to parse the config: %w", err)
	}
	if cfg.MaxSurfaces == 0 {
		return Config{}, fmt.Errorf("max_surfaces must be positive")
	}
	return cfg, nil
}

func (cfg Config) ReferencePolicy(codec types.CodecID) ReferencePolicy {
	if p, ok := cfg.References[codec]; ok {
		return p
	}
	return cfg.DefaultReferences
}

func (cfg Config) AlignmentFor(codec types.CodecID) uint {
	if a, ok := cfg.Alignment[codec]; ok {
		return a
	}
	return cfg.DefaultAlignment
}

// SurfaceCount is the result of the surface-count policy.
type SurfaceCount struct {
	// References is the reference capacity of the pool; a stream needing
	// more requires a reopen.
	References uint
	Surfaces   uint

	// Degraded is set if the count was clamped because of low video memory.
	Degraded bool
}

// SurfaceCount computes how many surfaces to allocate for the stream. The
// result is never below the stream references plus the margin and never
// above MaxSurfaces.
func (cfg Config) SurfaceCount(
	params StreamParams,
	adapter device.AdapterDesc,
) (SurfaceCount, error) {
	minSurfaces := params.Refs + cfg.SurfaceMargin
	if minSurfaces > cfg.MaxSurfaces {
		return SurfaceCount{}, device.ErrNotSupported{
			Reason: fmt.Sprintf("%d references need at least %d surfaces, but the hardware is limited to %d", params.Refs, minSurfaces, cfg.MaxSurfaces),
		}
	}

	refs := cfg.ReferencePolicy(params.Codec).References(params.Refs)
	surfaces := refs + cfg.SurfaceMargin
	if params.Threads > 1 {
		surfaces += params.Threads - 1
	}
	surfaces = min(surfaces, cfg.MaxSurfaces)
	refs = min(refs, surfaces-cfg.SurfaceMargin)

	result := SurfaceCount{
		References: refs,
		Surfaces:   surfaces,
	}

	videoMemory := Bytes(adapter.DedicatedVideoMemory)
	if videoMemory == 0 {
		videoMemory = Bytes(adapter.SharedSystemMemory)
	}
	lm := cfg.LowMemory
	if lm.Surfaces > 0 && params.Width >= lm.MinWidth && videoMemory > 0 && videoMemory < lm.MinVideoMemory {
		clamped := max(lm.Surfaces, minSurfaces)
		if clamped < result.Surfaces {
			result.Surfaces = clamped
			result.References = max(min(result.References, clamped-cfg.SurfaceMargin), params.Refs)
			result.Degraded = true
		}
	}
	return result, nil
}
