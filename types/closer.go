// closer.go defines the Closer interface of the objects owning hardware resources.

package types

import (
	"context"
)

type Closer interface {
	Close(context.Context) error
}
