// config.go defines the knobs of the simulated GPU.

package simulated

import (
	"github.com/google/uuid"
	"github.com/xaionaro-go/avhwdec/capability"
	"github.com/xaionaro-go/avhwdec/device"
	"github.com/xaionaro-go/avhwdec/types"
)

type Config struct {
	Adapter device.AdapterDesc

	// Profiles maps the supported decoder profiles to their supported output formats.
	Profiles map[uuid.UUID][]types.SurfaceFormat

	// Configs are reported for every supported profile.
	Configs []device.DecodeConfig

	Sharing device.SharingCaps

	// MaxDecoders limits the number of concurrently existing decoder
	// objects on the adapter; zero means unlimited.
	MaxDecoders int

	// StatusReporting enables DecoderObject.Status.
	StatusReporting bool
}

// DefaultAdapter is an adapter without any known quirks.
var DefaultAdapter = device.AdapterDesc{
	VendorID:             0x1AF4,
	DeviceID:             0x1050,
	LUID:                 0x1,
	Description:          "simulated GPU",
	DedicatedVideoMemory: 4 << 30,
	SharedSystemMemory:   8 << 30,
}

// DefaultConfig returns a GPU that supports every profile of the
// capability table on a single shared device.
func DefaultConfig() Config {
	profiles := map[uuid.UUID][]types.SurfaceFormat{}
	for _, e := range capability.Table {
		profiles[e.GUID] = append([]types.SurfaceFormat{}, e.OutputFormats...)
	}
	return Config{
		Adapter:  DefaultAdapter,
		Profiles: profiles,
		Configs: []device.DecodeConfig{
			{BitstreamRaw: 1, Encryption: capability.NoEncrypt},
			{BitstreamRaw: device.BitstreamRawPreferred, Encryption: capability.NoEncrypt},
		},
		StatusReporting: true,
	}
}
