// quirks.go defines the vendor workarounds detected from the adapter identity.

package device

import (
	"slices"
	"strings"
)

const (
	VendorAMD    = 0x1002
	VendorNVIDIA = 0x10DE
	VendorIntel  = 0x8086
)

type Quirks uint64

const (
	// QuirkSingleDecoder: only one hardware decoder object may exist at a time.
	QuirkSingleDecoder Quirks = 1 << iota

	// QuirkLevel41Limited: H.264 above level 4.1 is not decodable (AMD UVD/UVD+).
	QuirkLevel41Limited

	// QuirkVP3WidthBug: some macroblock widths are not decodable (nVidia VP3).
	QuirkVP3WidthBug
)

func (f Quirks) HasAll(flag Quirks) bool {
	return f&flag == flag
}

func (f Quirks) HasAny(flag Quirks) bool {
	return f&flag != 0
}

func (f *Quirks) Set(flag Quirks) {
	*f |= flag
}

func (f *Quirks) Unset(flag Quirks) {
	*f &^= flag
}

func (f Quirks) String() string {
	var s []string
	if f.HasAll(QuirkSingleDecoder) {
		s = append(s, "single_decoder")
	}
	if f.HasAll(QuirkLevel41Limited) {
		s = append(s, "level41_limited")
	}
	if f.HasAll(QuirkVP3WidthBug) {
		s = append(s, "vp3_width_bug")
	}
	return strings.Join(s, "|")
}

// PCI device IDs of AMD cards with the UVD or UVD+ decoding block.
var uvdDeviceIDs = []uint32{
	0x95C0, 0x95C5, 0x95C4, // Radeon HD 3400 series
	0x94C3,                 // Radeon HD 3410
	0x9589, 0x9598, 0x9591, // Radeon HD 3600 series
	0x9501, 0x9505, // Radeon HD 3800 series
	0x9507,         // Radeon HD 3830
	0x9513, 0x950F, // Radeon HD 3850 X2
}

// PCI device IDs of nVidia cards with the macroblock width issue (roughly the VP3 block).
var vp3DeviceIDs = []uint32{
	0x06E0, 0x06E1, 0x06E2, 0x06E4, 0x06E5, 0x06E6, 0x06E8, 0x06E9, 0x06EC, 0x06EF, 0x06F1,
	0x0844, 0x0845, 0x0846, 0x0847, 0x0848, 0x0849, 0x084A, 0x084B, 0x084C, 0x084D,
	0x0860, 0x0861, 0x0862, 0x0863, 0x0864, 0x0865, 0x0866, 0x0867, 0x0868, 0x086A,
	0x086C, 0x086D, 0x086E, 0x086F, 0x0870, 0x0871, 0x0872, 0x0873, 0x0874, 0x0876,
	0x087A, 0x087D, 0x087E, 0x087F,
}

// VP3 hardware cannot decode these widths, in macroblocks.
var vp3BadWidthsMBs = []uint{49, 54, 59, 64, 113, 118, 123, 128}

// IsVP3CompatibleWidth returns false for frame widths VP3 hardware corrupts.
func IsVP3CompatibleWidth(width uint) bool {
	return !slices.Contains(vp3BadWidthsMBs, (width+15)/16)
}

// DetectQuirks returns the workarounds required for the adapter.
func DetectQuirks(adapter AdapterDesc) Quirks {
	var q Quirks
	switch adapter.VendorID {
	case VendorAMD:
		if slices.Contains(uvdDeviceIDs, adapter.DeviceID) {
			q.Set(QuirkLevel41Limited | QuirkSingleDecoder)
		}
	case VendorNVIDIA:
		if slices.Contains(vp3DeviceIDs, adapter.DeviceID) {
			q.Set(QuirkVP3WidthBug)
		}
	}
	return q
}
