//go:build avhwdec_trace

package logger

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"
)

const TraceEnabled = true

func Tracef(ctx context.Context, format string, args ...any) {
	logger.Tracef(ctx, format, args...)
}
