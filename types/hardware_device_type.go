// hardware_device_type.go defines the HardwareDeviceType enum and its methods.

// Package types provides libav-independent value types shared by all avhwdec packages.
package types

import (
	"fmt"
	"strings"
)

type HardwareDeviceType int

const (
	// the constants are copied from libav's enum AVHWDeviceType:
	HardwareDeviceTypeNone         = HardwareDeviceType(0x0)
	HardwareDeviceTypeVDPAU        = HardwareDeviceType(0x1)
	HardwareDeviceTypeCUDA         = HardwareDeviceType(0x2)
	HardwareDeviceTypeVAAPI        = HardwareDeviceType(0x3)
	HardwareDeviceTypeDXVA2        = HardwareDeviceType(0x4)
	HardwareDeviceTypeQSV          = HardwareDeviceType(0x5)
	HardwareDeviceTypeVideoToolbox = HardwareDeviceType(0x6)
	HardwareDeviceTypeD3D11VA      = HardwareDeviceType(0x7)
	HardwareDeviceTypeDRM          = HardwareDeviceType(0x8)
	HardwareDeviceTypeOpenCL       = HardwareDeviceType(0x9)
	HardwareDeviceTypeMediaCodec   = HardwareDeviceType(0xa)
	HardwareDeviceTypeVulkan       = HardwareDeviceType(0xb)
	endOfHardwareDeviceType        = HardwareDeviceType(0xc)
)

func (r HardwareDeviceType) String() string {
	switch r {
	case HardwareDeviceTypeNone:
		return "none"
	case HardwareDeviceTypeVDPAU:
		return "vdpau"
	case HardwareDeviceTypeCUDA:
		return "cuda"
	case HardwareDeviceTypeVAAPI:
		return "vaapi"
	case HardwareDeviceTypeDXVA2:
		return "dxva2"
	case HardwareDeviceTypeQSV:
		return "qsv"
	case HardwareDeviceTypeVideoToolbox:
		return "videotoolbox"
	case HardwareDeviceTypeD3D11VA:
		return "d3d11va"
	case HardwareDeviceTypeDRM:
		return "drm"
	case HardwareDeviceTypeOpenCL:
		return "opencl"
	case HardwareDeviceTypeMediaCodec:
		return "mediacodec"
	case HardwareDeviceTypeVulkan:
		return "vulkan"
	}
	return fmt.Sprintf("unknown_%X", int64(r))
}

// HardwarePixelFormat returns the pixel-format token the codec library uses for
// frames living on a device of this type.
func (r HardwareDeviceType) HardwarePixelFormat() PixelFormat {
	switch r {
	case HardwareDeviceTypeD3D11VA:
		return PixelFormatD3D11
	case HardwareDeviceTypeDXVA2:
		return PixelFormatDXVA2
	case HardwareDeviceTypeVAAPI:
		return PixelFormatVAAPI
	}
	return PixelFormatNone
}

func HardwareDeviceTypeFromString(s string) (HardwareDeviceType, error) {
	s = strings.Trim(strings.ToLower(s), " \"\n\r\t")
	for hwt := HardwareDeviceTypeNone; hwt < endOfHardwareDeviceType; hwt++ {
		if s == hwt.String() {
			return hwt, nil
		}
	}
	return -1, fmt.Errorf("unknown hardware device type: '%s'", s)
}

func (r *HardwareDeviceType) UnmarshalText(b []byte) error {
	v, err := HardwareDeviceTypeFromString(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

func (r HardwareDeviceType) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Set implements pflag.Value.
func (r *HardwareDeviceType) Set(s string) error {
	return r.UnmarshalText([]byte(s))
}

// Type implements pflag.Value.
func (r *HardwareDeviceType) Type() string {
	return "hw-device-type"
}
