// convert.go converts the libav-free value types to their libav counterparts.

// Package astiav converts avhwdec value types to and from go-astiav types.
package astiav

import (
	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avhwdec/types"
)

func CodecIDToAstiav(codecID types.CodecID) astiav.CodecID {
	switch codecID {
	case types.CodecIDMPEG2:
		return astiav.CodecIDMpeg2Video
	case types.CodecIDH264:
		return astiav.CodecIDH264
	case types.CodecIDVC1:
		return astiav.CodecIDVc1
	case types.CodecIDWMV3:
		return astiav.CodecIDWmv3
	case types.CodecIDHEVC:
		return astiav.CodecIDHevc
	case types.CodecIDVP9:
		return astiav.CodecIDVp9
	case types.CodecIDAV1:
		return astiav.CodecIDAv1
	}
	return astiav.CodecIDNone
}

func SurfaceFormatToAstiav(format types.SurfaceFormat) astiav.PixelFormat {
	switch format {
	case types.SurfaceFormatNV12:
		return astiav.PixelFormatNv12
	case types.SurfaceFormatP010:
		return astiav.PixelFormatP010Le
	case types.SurfaceFormatP016:
		return astiav.PixelFormatP016Le
	}
	return astiav.PixelFormatNone
}

func PixelFormatToAstiav(pf types.PixelFormat) astiav.PixelFormat {
	switch pf {
	case types.PixelFormatD3D11:
		return astiav.PixelFormatD3D11
	case types.PixelFormatDXVA2:
		return astiav.PixelFormatDxva2Vld
	case types.PixelFormatVAAPI:
		return astiav.PixelFormatVaapi
	case types.PixelFormatNV12:
		return astiav.PixelFormatNv12
	case types.PixelFormatYUV420P:
		return astiav.PixelFormatYuv420P
	case types.PixelFormatYUV420P10:
		return astiav.PixelFormatYuv420P10Le
	}
	return astiav.PixelFormatNone
}

func HardwareDeviceTypeToAstiav(hwt types.HardwareDeviceType) astiav.HardwareDeviceType {
	return astiav.HardwareDeviceType(hwt)
}
