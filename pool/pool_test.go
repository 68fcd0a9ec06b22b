package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type item struct {
	value int
}

func TestPoolResetsOnPut(t *testing.T) {
	allocated := 0
	p := NewPool(
		func() *item { allocated++; return &item{} },
		func(i *item) { i.value = 0 },
	)

	v := p.Get()
	require.Equal(t, 1, allocated)
	v.value = 42
	p.Put(v)

	v = p.Get()
	require.Zero(t, v.value)
}
