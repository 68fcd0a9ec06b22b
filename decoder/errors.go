package decoder

import (
	"errors"
	"fmt"

	"github.com/xaionaro-go/avhwdec/device"
)

// ErrIncompatible means the hardware is known to decode the stream incorrectly.
type ErrIncompatible struct {
	Rule   string
	Reason string
}

func (e ErrIncompatible) Error() string {
	return fmt.Sprintf("incompatible with the hardware (%s): %s", e.Rule, e.Reason)
}

type ErrDisabled struct{}

func (ErrDisabled) Error() string {
	return "hardware decoding is disabled"
}

type ErrNotOpen struct{}

func (ErrNotOpen) Error() string {
	return "the decoder is not open"
}

// IsSoftwareFallback returns true if the error means the stream should be
// decoded in software rather than failed.
func IsSoftwareFallback(err error) bool {
	return errors.As(err, &device.ErrNotSupported{}) ||
		errors.As(err, &ErrIncompatible{}) ||
		errors.As(err, &ErrDisabled{})
}
