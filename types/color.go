// color.go defines the colour description of a stream, used by compatibility checks only.

package types

type ColorPrimaries int

const (
	ColorPrimariesUnspecified = ColorPrimaries(2)
	ColorPrimariesBT709       = ColorPrimaries(1)
	ColorPrimariesBT470BG     = ColorPrimaries(5)
	ColorPrimariesSMPTE170M   = ColorPrimaries(6)
	ColorPrimariesBT2020      = ColorPrimaries(9)
)

type ColorTransfer int

const (
	ColorTransferUnspecified = ColorTransfer(2)
	ColorTransferBT709       = ColorTransfer(1)
	ColorTransferSMPTE2084   = ColorTransfer(16)
	ColorTransferHLG         = ColorTransfer(18)
)
