// compatibility.go lists the hardware and stream combinations known to be
// decoded incorrectly.

package decoder

import (
	"fmt"

	"github.com/xaionaro-go/avhwdec/device"
	"github.com/xaionaro-go/avhwdec/types"
)

// level41MaxDPBMBs is the decoded picture buffer capacity of H.264 level 4.1, in macroblocks.
const level41MaxDPBMBs = 32768

type compatibilityEnv struct {
	Params  StreamParams
	Adapter device.AdapterDesc
	Quirks  device.Quirks
	Config  Config
}

type compatibilityRule struct {
	Name string

	// Codec is the codec the rule applies to; CodecIDNone applies to all of them.
	Codec types.CodecID
	Match func(env compatibilityEnv) (string, bool)
}

var compatibilityRules = []compatibilityRule{
	{
		Name:  "vp3_width",
		Codec: types.CodecIDH264,
		Match: func(env compatibilityEnv) (string, bool) {
			if !env.Quirks.HasAll(device.QuirkVP3WidthBug) || device.IsVP3CompatibleWidth(env.Params.Width) {
				return "", false
			}
			return fmt.Sprintf("width %d is not supported with nVidia VP3 hardware", env.Params.Width), true
		},
	},
	{
		Name:  "level41",
		Codec: types.CodecIDH264,
		Match: func(env compatibilityEnv) (string, bool) {
			check := env.Quirks.HasAll(device.QuirkLevel41Limited)
			if env.Config.Level41Check.IsSet() {
				check = env.Config.Level41Check.Get()
			}
			if !check {
				return "", false
			}
			dpb := env.Params.Refs * env.Params.widthMBs() * env.Params.heightMBs()
			if dpb <= level41MaxDPBMBs {
				return "", false
			}
			return fmt.Sprintf("the video exceeds level 4.1 (%d > %d macroblocks)", dpb, level41MaxDPBMBs), true
		},
	},
	{
		Name:  "uvd_interlaced_mpeg2",
		Codec: types.CodecIDMPEG2,
		Match: func(env compatibilityEnv) (string, bool) {
			if !env.Quirks.HasAll(device.QuirkLevel41Limited) || !env.Params.Interlaced || env.Params.Width <= 1920 {
				return "", false
			}
			return fmt.Sprintf("interlaced MPEG-2 wider than 1920 (%d) is broken on AMD UVD hardware", env.Params.Width), true
		},
	},
	{
		Name:  "max_references",
		Codec: types.CodecIDH264,
		Match: maxReferences16,
	},
	{
		Name:  "max_references",
		Codec: types.CodecIDHEVC,
		Match: maxReferences16,
	},
	{
		Name:  "intel_h264_bt2020",
		Codec: types.CodecIDH264,
		Match: func(env compatibilityEnv) (string, bool) {
			if env.Adapter.VendorID != device.VendorIntel || env.Params.ColorPrimaries != types.ColorPrimariesBT2020 {
				return "", false
			}
			return "H.264 with BT.2020 primaries is decoded incorrectly by Intel hardware", true
		},
	},
}

func maxReferences16(env compatibilityEnv) (string, bool) {
	if env.Params.Refs <= 16 {
		return "", false
	}
	return fmt.Sprintf("%d reference frames are more than the hardware supports (16)", env.Params.Refs), true
}

// checkCompatibility returns ErrIncompatible for the first matching rule.
func checkCompatibility(env compatibilityEnv) error {
	for _, rule := range compatibilityRules {
		if rule.Codec != types.CodecIDNone && rule.Codec != env.Params.Codec {
			continue
		}
		if reason, ok := rule.Match(env); ok {
			return ErrIncompatible{Rule: rule.Name, Reason: reason}
		}
	}
	return nil
}
