package internal

import (
	"context"
	"runtime"

	"github.com/xaionaro-go/avhwdec/logger"
)

// SetFinalizerFree frees a libav object once it becomes unreachable.
func SetFinalizerFree[T interface{ Free() }](
	ctx context.Context,
	freer T,
) {
	runtime.SetFinalizer(freer, func(freer T) {
		logger.Debugf(ctx, "freeing %T", freer)
		freer.Free()
	})
}
