// hardware_device_name.go defines the HardwareDeviceName type.

package types

// HardwareDeviceName is a platform-specific device selector, for example
// "/dev/dri/renderD128" for VAAPI or an adapter index for D3D11VA.
type HardwareDeviceName string

func (n HardwareDeviceName) String() string {
	if n == "" {
		return "<default>"
	}
	return string(n)
}
