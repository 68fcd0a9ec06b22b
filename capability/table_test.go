package capability

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avhwdec/types"
)

func TestTableIsConsistent(t *testing.T) {
	for _, e := range Table {
		require.NotEqual(t, types.CodecIDNone, e.Codec, e.Name)
		require.NotEqual(t, uuid.Nil, e.GUID, e.Name)
		require.NotEmpty(t, e.OutputFormats, e.Name)
	}
}

func TestForCodecKeepsPreferenceOrder(t *testing.T) {
	entries := ForCodec(types.CodecIDH264)
	require.Len(t, entries, 3)
	require.Equal(t, ProfileH264VLDFGT, entries[0].GUID)
	require.Equal(t, ProfileIntelH264VLD, entries[2].GUID)

	require.Empty(t, ForCodec(types.CodecIDNone))
}

func TestAllowsProfile(t *testing.T) {
	main10, ok := Lookup(ProfileHEVCVLDMain10)
	require.True(t, ok)
	require.True(t, main10.AllowsProfile(types.ProfileHEVCMain10))
	require.False(t, main10.AllowsProfile(types.ProfileHEVCMain))
	require.True(t, main10.AllowsProfile(types.ProfileUnknown))

	vc1, ok := Lookup(ProfileVC1VLD)
	require.True(t, ok)
	require.True(t, vc1.AllowsProfile(types.ProfileVC1Advanced))

	require.Equal(t, "H.264 variable-length decoder, no film grain technology", Name(ProfileH264VLDNoFGT))
	require.Equal(t, NoEncrypt.String(), Name(NoEncrypt))
}
