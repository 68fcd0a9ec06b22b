package device

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectQuirks(t *testing.T) {
	for _, tc := range []struct {
		name    string
		adapter AdapterDesc
		expect  Quirks
	}{
		{"amd-uvd", AdapterDesc{VendorID: VendorAMD, DeviceID: 0x9501}, QuirkSingleDecoder | QuirkLevel41Limited},
		{"amd-modern", AdapterDesc{VendorID: VendorAMD, DeviceID: 0x73BF}, 0},
		{"nvidia-vp3", AdapterDesc{VendorID: VendorNVIDIA, DeviceID: 0x0865}, QuirkVP3WidthBug},
		{"nvidia-modern", AdapterDesc{VendorID: VendorNVIDIA, DeviceID: 0x2684}, 0},
		{"intel", AdapterDesc{VendorID: VendorIntel, DeviceID: 0x9501}, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, DetectQuirks(tc.adapter))
		})
	}
}

func TestIsVP3CompatibleWidth(t *testing.T) {
	require.True(t, IsVP3CompatibleWidth(1920))
	require.True(t, IsVP3CompatibleWidth(1280))
	require.False(t, IsVP3CompatibleWidth(49*16))
	require.False(t, IsVP3CompatibleWidth(49*16-15))
	require.False(t, IsVP3CompatibleWidth(2048))
	require.True(t, IsVP3CompatibleWidth(2048+16))
}

func TestQuirksString(t *testing.T) {
	require.Equal(t, "", Quirks(0).String())
	require.Equal(t, "single_decoder|level41_limited", (QuirkSingleDecoder | QuirkLevel41Limited).String())
}
