// profile.go defines bitstream profiles (the values are libav's FF_PROFILE_* ones).

package types

import (
	"fmt"
)

type Profile int

const (
	// ProfileUnknown means the stream carries no profile information;
	// such requests match any profile.
	ProfileUnknown = Profile(-99)

	ProfileMPEG2Simple = Profile(5)
	ProfileMPEG2Main   = Profile(4)

	ProfileH264Baseline            = Profile(66)
	ProfileH264ConstrainedBaseline = Profile(66 | 1<<9)
	ProfileH264Main                = Profile(77)
	ProfileH264High                = Profile(100)
	ProfileH264High10              = Profile(110)

	ProfileVC1Simple   = Profile(0)
	ProfileVC1Main     = Profile(1)
	ProfileVC1Advanced = Profile(3)

	ProfileHEVCMain   = Profile(1)
	ProfileHEVCMain10 = Profile(2)

	ProfileVP9Profile0 = Profile(0)
	ProfileVP9Profile2 = Profile(2)

	ProfileAV1Main = Profile(0)
)

func (p Profile) String() string {
	if p == ProfileUnknown {
		return "unknown"
	}
	return fmt.Sprintf("profile_%d", int(p))
}
