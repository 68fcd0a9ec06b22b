package internal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlignUp(t *testing.T) {
	require.Equal(t, uint(1088), AlignUp[uint](1080, 16))
	require.Equal(t, uint(1920), AlignUp[uint](1920, 16))
	require.Equal(t, 1152, AlignUp(1080, 128))
	require.Equal(t, 1088, AlignUp(1080, 32))
	require.Equal(t, 7, AlignUp(7, 0))
}
