// table.go defines the Capability Table: the known hardware decode profiles.

// Package capability contains static data describing hardware decode
// profiles: which codec a profile identifier serves, which bitstream profiles
// it accepts and which output surface formats are preferred for it.
package capability

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/xaionaro-go/avhwdec/types"
)

type Entry struct {
	Name  string
	Codec types.CodecID
	GUID  uuid.UUID

	// Profiles is the set of bitstream profiles the entry accepts;
	// nil accepts any profile.
	Profiles []types.Profile

	// OutputFormats is ordered by preference.
	OutputFormats []types.SurfaceFormat
}

func (e Entry) String() string {
	return fmt.Sprintf("%s (%s)", e.Name, e.GUID)
}

// AllowsProfile returns true if the bitstream profile may be decoded using
// this entry. Requests without profile information match every entry.
func (e Entry) AllowsProfile(profile types.Profile) bool {
	if e.Profiles == nil || profile == types.ProfileUnknown {
		return true
	}
	return slices.Contains(e.Profiles, profile)
}

var (
	profilesMPEG2 = []types.Profile{
		types.ProfileMPEG2Simple,
		types.ProfileMPEG2Main,
		types.ProfileUnknown,
	}
	profilesH264High = []types.Profile{
		types.ProfileH264ConstrainedBaseline,
		types.ProfileH264Main,
		types.ProfileH264High,
		types.ProfileUnknown,
	}
	profilesHEVCMain = []types.Profile{
		types.ProfileHEVCMain,
		types.ProfileUnknown,
	}
	profilesHEVCMain10 = []types.Profile{
		types.ProfileHEVCMain10,
		types.ProfileUnknown,
	}
	profilesVP9Profile0 = []types.Profile{
		types.ProfileVP9Profile0,
		types.ProfileUnknown,
	}
	profilesVP9Profile2 = []types.Profile{
		types.ProfileVP9Profile2,
		types.ProfileUnknown,
	}
	profilesAV1Main = []types.Profile{
		types.ProfileAV1Main,
		types.ProfileUnknown,
	}

	formats8bit  = []types.SurfaceFormat{types.SurfaceFormatNV12}
	formats10bit = []types.SurfaceFormat{types.SurfaceFormatP010, types.SurfaceFormatP016}
)

// Table is ordered: preferred entries come first.
var Table = []Entry{
	{"MPEG-2 variable-length decoder", types.CodecIDMPEG2, ProfileMPEG2VLD, profilesMPEG2, formats8bit},
	{"MPEG-2 & MPEG-1 variable-length decoder", types.CodecIDMPEG2, ProfileMPEG2and1VLD, profilesMPEG2, formats8bit},
	{"H.264 variable-length decoder, film grain technology", types.CodecIDH264, ProfileH264VLDFGT, profilesH264High, formats8bit},
	{"H.264 variable-length decoder, no film grain technology", types.CodecIDH264, ProfileH264VLDNoFGT, profilesH264High, formats8bit},
	{"H.264 variable-length decoder, no film grain technology (Intel ClearVideo)", types.CodecIDH264, ProfileIntelH264VLD, profilesH264High, formats8bit},
	{"VC-1 variable-length decoder 2010", types.CodecIDVC1, ProfileVC1VLD2010, nil, formats8bit},
	{"VC-1 variable-length decoder 2010 (WMV3)", types.CodecIDWMV3, ProfileVC1VLD2010, nil, formats8bit},
	{"VC-1 variable-length decoder", types.CodecIDVC1, ProfileVC1VLD, nil, formats8bit},
	{"VC-1 variable-length decoder (WMV3)", types.CodecIDWMV3, ProfileVC1VLD, nil, formats8bit},
	{"HEVC / H.265 variable-length decoder, main", types.CodecIDHEVC, ProfileHEVCVLDMain, profilesHEVCMain, formats8bit},
	{"HEVC / H.265 variable-length decoder, main10", types.CodecIDHEVC, ProfileHEVCVLDMain10, profilesHEVCMain10, formats10bit},
	{"VP9 variable-length decoder, profile 0", types.CodecIDVP9, ProfileVP9VLDProfile0, profilesVP9Profile0, formats8bit},
	{"VP9 variable-length decoder, 10bit, profile 2", types.CodecIDVP9, ProfileVP9VLDProfile2, profilesVP9Profile2, formats10bit},
	{"AV1 variable-length decoder, profile 0", types.CodecIDAV1, ProfileAV1VLDProfile0, profilesAV1Main, append(append([]types.SurfaceFormat{}, formats8bit...), formats10bit...)},
}

// ForCodec returns the entries serving the codec, in order of preference.
func ForCodec(codec types.CodecID) []Entry {
	var result []Entry
	for _, e := range Table {
		if e.Codec == codec {
			result = append(result, e)
		}
	}
	return result
}

// Lookup returns the first entry using the profile identifier.
func Lookup(guid uuid.UUID) (Entry, bool) {
	for _, e := range Table {
		if e.GUID == guid {
			return e, true
		}
	}
	return Entry{}, false
}

// Name returns a human-readable name of the profile identifier.
func Name(guid uuid.UUID) string {
	if e, ok := Lookup(guid); ok {
		return e.Name
	}
	return guid.String()
}
