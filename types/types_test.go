package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodecIDFromString(t *testing.T) {
	for _, c := range CodecIDs() {
		parsed, err := CodecIDFromString(c.String())
		require.NoError(t, err)
		require.Equal(t, c, parsed)
	}

	c, err := CodecIDFromString(" AVC ")
	require.NoError(t, err)
	require.Equal(t, CodecIDH264, c)

	_, err = CodecIDFromString("theora")
	require.Error(t, err)
}

func TestHardwareDeviceTypeFlag(t *testing.T) {
	var hwt HardwareDeviceType
	require.NoError(t, hwt.Set("D3D11VA"))
	require.Equal(t, HardwareDeviceTypeD3D11VA, hwt)
	require.Equal(t, PixelFormatD3D11, hwt.HardwarePixelFormat())
	require.Error(t, hwt.Set("glide"))
}

func TestSurfaceFormatFrameSize(t *testing.T) {
	require.Equal(t, uint64(1920*1088*3/2), SurfaceFormatNV12.FrameSize(1920, 1088))
	require.Equal(t, uint64(3840*2176*3), SurfaceFormatP010.FrameSize(3840, 2176))
	require.Equal(t, uint(10), SurfaceFormatP010.BitDepth())
}

func TestBufferVariantFlag(t *testing.T) {
	var v BufferVariant
	require.NoError(t, v.Set("copy"))
	require.Equal(t, BufferVariantCopy, v)
	require.Error(t, v.Set("<undefined>"))
	require.Error(t, v.Set("mirror"))
}
