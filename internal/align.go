package internal

import (
	"golang.org/x/exp/constraints"
)

// AlignUp rounds v up to the nearest multiple of alignment; alignment must be
// a power of two (zero means no alignment).
func AlignUp[T constraints.Integer](v, alignment T) T {
	if alignment == 0 {
		return v
	}
	return (v + alignment - 1) &^ (alignment - 1)
}

func Ptr[T any](v T) *T {
	return &v
}
