// codec_id.go defines the CodecID enum of the codecs hardware decoding is negotiated for.

package types

import (
	"fmt"
	"strings"
)

type CodecID int

const (
	CodecIDNone = CodecID(iota)
	CodecIDMPEG2
	CodecIDH264
	CodecIDVC1
	CodecIDWMV3
	CodecIDHEVC
	CodecIDVP9
	CodecIDAV1
	endOfCodecID
)

func CodecIDs() []CodecID {
	var result []CodecID
	for c := CodecIDNone + 1; c < endOfCodecID; c++ {
		result = append(result, c)
	}
	return result
}

func (c CodecID) String() string {
	switch c {
	case CodecIDNone:
		return "none"
	case CodecIDMPEG2:
		return "mpeg2video"
	case CodecIDH264:
		return "h264"
	case CodecIDVC1:
		return "vc1"
	case CodecIDWMV3:
		return "wmv3"
	case CodecIDHEVC:
		return "hevc"
	case CodecIDVP9:
		return "vp9"
	case CodecIDAV1:
		return "av1"
	}
	return fmt.Sprintf("unknown_%d", int(c))
}

func CodecIDFromString(s string) (CodecID, error) {
	s = strings.Trim(strings.ToLower(s), " \n\r\t\"")
	switch s {
	case "mpeg2", "h262":
		return CodecIDMPEG2, nil
	case "avc", "h.264":
		return CodecIDH264, nil
	case "h265", "h.265":
		return CodecIDHEVC, nil
	}
	for c := CodecIDNone; c < endOfCodecID; c++ {
		if c.String() == s {
			return c, nil
		}
	}
	return CodecIDNone, fmt.Errorf("unknown codec: '%s'", s)
}

func (c CodecID) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *CodecID) UnmarshalText(b []byte) error {
	v, err := CodecIDFromString(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Set implements pflag.Value.
func (c *CodecID) Set(s string) error {
	return c.UnmarshalText([]byte(s))
}

// Type implements pflag.Value.
func (c *CodecID) Type() string {
	return "codec"
}
