// guid.go lists the decoder-profile identifiers reported by video-acceleration services.

package capability

import (
	"github.com/google/uuid"
)

var (
	ProfileMPEG2VLD       = uuid.MustParse("ee27417f-5e28-4e65-beea-1d26b508adc9")
	ProfileMPEG2and1VLD   = uuid.MustParse("86695f12-340e-4f04-9fd3-9253dd327460")
	ProfileH264VLDFGT     = uuid.MustParse("1b81be69-a0c7-11d3-b984-00c04f2e73c5")
	ProfileH264VLDNoFGT   = uuid.MustParse("1b81be68-a0c7-11d3-b984-00c04f2e73c5")
	ProfileIntelH264VLD   = uuid.MustParse("604f8e68-4951-4c54-88fe-abd25c15b3d6")
	ProfileVC1VLD         = uuid.MustParse("1b81bea3-a0c7-11d3-b984-00c04f2e73c5")
	ProfileVC1VLD2010     = uuid.MustParse("1b81bea4-a0c7-11d3-b984-00c04f2e73c5")
	ProfileHEVCVLDMain    = uuid.MustParse("5b11d51b-2f4c-4452-bcc3-09f2a1160cc0")
	ProfileHEVCVLDMain10  = uuid.MustParse("107af0e0-ef1a-4d19-aba8-67a163073d13")
	ProfileVP9VLDProfile0 = uuid.MustParse("463707f8-a1d0-4585-876d-83aa6d60b89e")
	ProfileVP9VLDProfile2 = uuid.MustParse("a4c749ef-6ecf-48aa-8448-50a7a1165ff7")
	ProfileAV1VLDProfile0 = uuid.MustParse("b8be4ccb-cf53-46ba-8d59-d6b8a6da5d2a")

	// NoEncrypt is the encryption identifier of unencrypted bitstreams.
	NoEncrypt = uuid.MustParse("1b81bed0-a0c7-11d3-b984-00c04f2e73c5")
)
