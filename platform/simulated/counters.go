package simulated

import (
	"go.uber.org/atomic"
)

// Counters is a set of statistics of the simulated GPU, for assertions.
type Counters struct {
	LiveVideoDevices atomic.Int64
	LiveTextures     atomic.Int64
	LiveViews        atomic.Int64
	LiveDecoders     atomic.Int64
	LiveFences       atomic.Int64

	VideoDevicesCreated atomic.Uint64
	TexturesCreated     atomic.Uint64
	DecodersCreated     atomic.Uint64
	SharedOpens         atomic.Uint64
	Copies              atomic.Uint64
	Flushes             atomic.Uint64
	Signals             atomic.Uint64
	Waits               atomic.Uint64
}

type CountersSnapshot struct {
	LiveVideoDevices    int64  `json:"live_video_devices"`
	LiveTextures        int64  `json:"live_textures"`
	LiveViews           int64  `json:"live_views"`
	LiveDecoders        int64  `json:"live_decoders"`
	LiveFences          int64  `json:"live_fences"`
	VideoDevicesCreated uint64 `json:"video_devices_created"`
	TexturesCreated     uint64 `json:"textures_created"`
	DecodersCreated     uint64 `json:"decoders_created"`
	SharedOpens         uint64 `json:"shared_opens"`
	Copies              uint64 `json:"copies"`
	Flushes             uint64 `json:"flushes"`
	Signals             uint64 `json:"signals"`
	Waits               uint64 `json:"waits"`
}

func (c *Counters) Snapshot() CountersSnapshot {
	return CountersSnapshot{
		LiveVideoDevices:    c.LiveVideoDevices.Load(),
		LiveTextures:        c.LiveTextures.Load(),
		LiveViews:           c.LiveViews.Load(),
		LiveDecoders:        c.LiveDecoders.Load(),
		LiveFences:          c.LiveFences.Load(),
		VideoDevicesCreated: c.VideoDevicesCreated.Load(),
		TexturesCreated:     c.TexturesCreated.Load(),
		DecodersCreated:     c.DecodersCreated.Load(),
		SharedOpens:         c.SharedOpens.Load(),
		Copies:              c.Copies.Load(),
		Flushes:             c.Flushes.Load(),
		Signals:             c.Signals.Load(),
		Waits:               c.Waits.Load(),
	}
}
