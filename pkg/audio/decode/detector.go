package decode

import (
	"bytes"

	"github.com/RyanBlaney/voice-match/pkg/audio/common"
)

var (
	magicRIFF = []byte("RIFF")
	magicWAVE = []byte("WAVE")
	magicID3  = []byte("ID3")
	magicOgg  = []byte("OggS")
	magicEBML = []byte{0x1A, 0x45, 0xDF, 0xA3}
	magicFLAC = []byte("fLaC")
)

// Detect identifies the container of an encoded blob from its leading bytes
func Detect(data []byte) common.Format {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], magicRIFF) && bytes.Equal(data[8:12], magicWAVE):
		return common.FormatWAV
	case bytes.HasPrefix(data, magicOgg):
		return common.FormatOgg
	case bytes.HasPrefix(data, magicEBML):
		return common.FormatWebM
	case bytes.HasPrefix(data, magicFLAC):
		return common.FormatFLAC
	case bytes.HasPrefix(data, magicID3):
		return common.FormatMP3
	case isMPEGFrameSync(data):
		return common.FormatMP3
	}
	return common.FormatUnknown
}

// isMPEGFrameSync checks for an 11 bit frame sync with a valid layer field
func isMPEGFrameSync(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	if data[0] != 0xFF || data[1]&0xE0 != 0xE0 {
		return false
	}
	// layer bits 00 are reserved
	return data[1]&0x06 != 0
}
