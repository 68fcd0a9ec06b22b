package decoder

import (
	"go.uber.org/atomic"
)

type Statistics struct {
	Opens             atomic.Uint64
	Flushes           atomic.Uint64
	Pictures          atomic.Uint64
	InvalidSurfaces   atomic.Uint64
	CorruptionReports atomic.Uint64
	BufferFailures    atomic.Uint64
}

// StatisticsSnapshot is a JSON-friendly copy of Statistics.
type StatisticsSnapshot struct {
	Opens             uint64 `json:"opens"`
	Flushes           uint64 `json:"flushes"`
	Pictures          uint64 `json:"pictures"`
	InvalidSurfaces   uint64 `json:"invalid_surfaces"`
	CorruptionReports uint64 `json:"corruption_reports"`
	BufferFailures    uint64 `json:"buffer_failures"`
}

func (s *Statistics) Convert() StatisticsSnapshot {
	return StatisticsSnapshot{
		Opens:             s.Opens.Load(),
		Flushes:           s.Flushes.Load(),
		Pictures:          s.Pictures.Load(),
		InvalidSurfaces:   s.InvalidSurfaces.Load(),
		CorruptionReports: s.CorruptionReports.Load(),
		BufferFailures:    s.BufferFailures.Load(),
	}
}
