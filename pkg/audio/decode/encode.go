package decode

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/voice-match/pkg/audio/common"
)

const wavEncodeBitDepth = 16

// EncodeWAV writes buf as 16-bit mono PCM WAV
func EncodeWAV(w io.WriteSeeker, buf *common.PCMBuffer) error {
	if buf == nil || buf.SampleRate <= 0 {
		return fmt.Errorf("cannot encode buffer without a sample rate")
	}

	data := make([]int, len(buf.Samples))
	for i, s := range buf.Samples {
		s = math.Max(-1, math.Min(1, s))
		data[i] = int(math.Round(s * 32767))
	}

	enc := wav.NewEncoder(w, buf.SampleRate, wavEncodeBitDepth, 1, wavFormatPCM)
	intBuf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: buf.SampleRate},
		Data:           data,
		SourceBitDepth: wavEncodeBitDepth,
	}
	if err := enc.Write(intBuf); err != nil {
		return fmt.Errorf("failed to write WAV samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalise WAV: %w", err)
	}
	return nil
}
