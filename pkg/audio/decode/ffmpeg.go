package decode

import (
	"context"
	"os/exec"

	"github.com/RyanBlaney/sonido-sonar/transcode"

	"github.com/RyanBlaney/voice-match/pkg/audio/common"
)

// DefaultFFmpegSampleRate is the rate ffmpeg output is requested at
const DefaultFFmpegSampleRate = 16000

// FFmpegDecoder decodes the lossy browser containers (webm/opus, ogg) through
// the sonido-sonar ffmpeg pipe. Output is mono at the configured rate and is
// not loudness normalised.
type FFmpegDecoder struct {
	bin        string
	sampleRate int
}

// NewFFmpegDecoder creates an ffmpeg backed decoder. An empty bin means "ffmpeg" on PATH.
func NewFFmpegDecoder(bin string, sampleRate int) *FFmpegDecoder {
	if bin == "" {
		bin = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = DefaultFFmpegSampleRate
	}
	return &FFmpegDecoder{bin: bin, sampleRate: sampleRate}
}

func (d *FFmpegDecoder) Name() string { return "ffmpeg" }

// Available reports whether the ffmpeg binary can be found
func (d *FFmpegDecoder) Available() bool {
	_, err := exec.LookPath(d.bin)
	return err == nil
}

func (d *FFmpegDecoder) Decode(ctx context.Context, data []byte) (*common.PCMBuffer, error) {
	format := Detect(data)
	if err := checkInput(format, data); err != nil {
		return nil, err
	}

	bin, err := exec.LookPath(d.bin)
	if err != nil {
		return nil, common.NewDecodeError(format, common.ErrCodeUnsupported,
			"ffmpeg is not available to decode this container", err)
	}

	decoder := transcode.NewDecoder(&transcode.DecoderConfig{
		TargetSampleRate:    d.sampleRate,
		TargetChannels:      1,
		FFmpegPath:          bin,
		EnableNormalization: false,
	})
	return decodeTranscoded(ctx, format, data, decoder.DecodeBytes)
}
