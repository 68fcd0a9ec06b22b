// assert.go provides invariant assertions that panic through the logger.

// Package internal contains helpers shared by avhwdec packages.
package internal

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/avhwdec/logger"
)

func Assert(
	ctx context.Context,
	mustBeTrue bool,
	extraArgs ...any,
) {
	if mustBeTrue {
		return
	}

	logger.Panicf(ctx, "assertion failed: %s", fmt.Sprint(extraArgs...))
}
