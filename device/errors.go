package device

import (
	"fmt"
)

// ErrNotSupported means the hardware cannot host the requested stream; the
// caller is expected to fall back to software decoding.
type ErrNotSupported struct {
	Reason string
}

func (e ErrNotSupported) Error() string {
	return fmt.Sprintf("not supported by hardware: %s", e.Reason)
}

type ErrNotImplemented struct {
	Err error
}

func (e ErrNotImplemented) Error() string {
	return fmt.Sprintf("not implemented: %v", e.Err)
}

func (e ErrNotImplemented) Unwrap() error {
	return e.Err
}

type ErrDeviceRemoved struct {
	Err error
}

func (e ErrDeviceRemoved) Error() string {
	return fmt.Sprintf("the device was removed: %v", e.Err)
}

func (e ErrDeviceRemoved) Unwrap() error {
	return e.Err
}

type ErrContextClosed struct{}

func (ErrContextClosed) Error() string {
	return "the device context is closed"
}

// ErrNoDevice means the last recreation of the devices of the Context
// failed; Reset retries it.
type ErrNoDevice struct{}

func (ErrNoDevice) Error() string {
	return "the decode device context has no devices"
}

type ErrDeviceLost struct{}

func (ErrDeviceLost) Error() string {
	return "the device is lost"
}
