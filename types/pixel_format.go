// pixel_format.go defines the pixel-format tokens exchanged with the codec library
// during picture-format negotiation.

package types

type PixelFormat string

func (pf PixelFormat) String() string {
	return string(pf)
}

const (
	PixelFormatNone      PixelFormat = ""
	PixelFormatD3D11     PixelFormat = "d3d11"
	PixelFormatDXVA2     PixelFormat = "dxva2_vld"
	PixelFormatVAAPI     PixelFormat = "vaapi"
	PixelFormatNV12      PixelFormat = "nv12"
	PixelFormatYUV420P   PixelFormat = "yuv420p"
	PixelFormatYUV420P10 PixelFormat = "yuv420p10le"
)

// IsHardware returns true if frames of this format live in GPU memory.
func (pf PixelFormat) IsHardware() bool {
	switch pf {
	case PixelFormatD3D11, PixelFormatDXVA2, PixelFormatVAAPI:
		return true
	}
	return false
}
