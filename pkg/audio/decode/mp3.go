package decode

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/RyanBlaney/voice-match/pkg/audio/common"
)

// go-mp3 always emits 16-bit little endian stereo
const mp3OutputChannels = 2

// MP3Decoder decodes MPEG-1/2 layer III streams
type MP3Decoder struct{}

// NewMP3Decoder creates a new MP3 decoder
func NewMP3Decoder() *MP3Decoder {
	return &MP3Decoder{}
}

func (d *MP3Decoder) Name() string { return string(common.FormatMP3) }

func (d *MP3Decoder) Decode(ctx context.Context, data []byte) (*common.PCMBuffer, error) {
	if err := checkInput(common.FormatMP3, data); err != nil {
		return nil, err
	}

	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, common.NewDecodeError(common.FormatMP3, common.ErrCodeDecoding,
			"failed to open MP3 stream", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil && len(raw) == 0 {
		return nil, common.NewDecodeError(common.FormatMP3, common.ErrCodeTruncated,
			"failed to read MP3 frames", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// drop a trailing partial frame
	frameBytes := 2 * mp3OutputChannels
	raw = raw[:len(raw)/frameBytes*frameBytes]

	interleaved := make([]float64, len(raw)/2)
	for i := range interleaved {
		interleaved[i] = float64(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768.0
	}

	return finish(common.FormatMP3, Downmix(interleaved, mp3OutputChannels), dec.SampleRate())
}
