package decode

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-audio/wav"

	"github.com/RyanBlaney/voice-match/pkg/audio/common"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
	wavMinHeaderSize    = 44
	// data chunk sizes at or above this are placeholders for unknown length
	wavStreamingSize = 0x7FFFF000
)

// WAVDecoder decodes RIFF/WAVE integer PCM of any bit depth
type WAVDecoder struct{}

// NewWAVDecoder creates a new WAV decoder
func NewWAVDecoder() *WAVDecoder {
	return &WAVDecoder{}
}

func (d *WAVDecoder) Name() string { return string(common.FormatWAV) }

func (d *WAVDecoder) Decode(ctx context.Context, data []byte) (*common.PCMBuffer, error) {
	if err := checkInput(common.FormatWAV, data); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		code := common.ErrCodeDecoding
		if len(data) < wavMinHeaderSize {
			code = common.ErrCodeTruncated
		}
		return nil, common.NewDecodeError(common.FormatWAV, code, "invalid WAV header", dec.Err())
	}

	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, common.NewDecodeError(common.FormatWAV, common.ErrCodeUnsupported,
			fmt.Sprintf("unsupported WAV audio format %d", dec.WavAudioFormat), nil)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, common.NewDecodeError(common.FormatWAV, common.ErrCodeTruncated,
			"failed to read PCM data", err)
	}
	if buf == nil || buf.Format == nil {
		return nil, common.NewDecodeError(common.FormatWAV, common.ErrCodeDecoding,
			"decoder returned no format", nil)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}

	interleaved := make([]float64, len(buf.Data))
	switch bitDepth {
	case 8:
		for i, v := range buf.Data {
			interleaved[i] = (float64(v) - 128.0) / 128.0
		}
	case 16, 24, 32:
		scale := float64(int64(1) << (bitDepth - 1))
		for i, v := range buf.Data {
			interleaved[i] = float64(v) / scale
		}
	default:
		return nil, common.NewDecodeError(common.FormatWAV, common.ErrCodeUnsupported,
			fmt.Sprintf("unsupported bit depth %d", bitDepth), nil)
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = int(dec.NumChans)
	}
	if channels <= 0 {
		return nil, common.NewDecodeError(common.FormatWAV, common.ErrCodeDecoding,
			"WAV header reports no channels", nil)
	}

	if expected := expectedFrames(dec.PCMSize, channels, bitDepth); expected > 0 {
		if got := len(buf.Data) / channels; got < expected {
			return nil, common.NewDecodeError(common.FormatWAV, common.ErrCodeTruncated,
				fmt.Sprintf("data chunk holds %d of %d frames", got, expected), nil)
		}
	}

	return finish(common.FormatWAV, Downmix(interleaved, channels), buf.Format.SampleRate)
}

// expectedFrames is the frame count declared by the data chunk header. Zero
// and placeholder sizes written by streaming recorders yield 0, which skips
// the truncation check.
func expectedFrames(pcmSize, channels, bitDepth int) int {
	blockAlign := channels * ((bitDepth + 7) / 8)
	if pcmSize <= 0 || pcmSize >= wavStreamingSize || blockAlign <= 0 {
		return 0
	}
	return pcmSize / blockAlign
}
