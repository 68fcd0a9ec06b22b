//go:build !avhwdec_trace

package logger

import (
	"context"
)

// TraceEnabled is set by the avhwdec_trace build tag; without it the
// per-frame traces compile to nothing.
const TraceEnabled = false

func Tracef(ctx context.Context, format string, args ...any) {}
