package decode

import (
	"context"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-sonar/transcode"

	"github.com/RyanBlaney/voice-match/pkg/audio/common"
)

// speech content gets the talk normalisation profile
const transcodeContentType = "talk"

// TranscodeDecoder runs the sonido-sonar normalising decoder over a blob
type TranscodeDecoder struct {
	contentType string
}

// NewTranscodeDecoder creates a normalising decoder for speech
func NewTranscodeDecoder() *TranscodeDecoder {
	return &TranscodeDecoder{contentType: transcodeContentType}
}

func (d *TranscodeDecoder) Name() string { return "transcode" }

func (d *TranscodeDecoder) Decode(ctx context.Context, data []byte) (*common.PCMBuffer, error) {
	format := Detect(data)
	if err := checkInput(format, data); err != nil {
		return nil, err
	}

	decoder := transcode.NewNormalizingDecoder(d.contentType)
	return decodeTranscoded(ctx, format, data, decoder.DecodeBytes)
}

type transcodeResult struct {
	audio *transcode.AudioData
	err   error
}

// decodeTranscoded runs decode on its own goroutine so a cancelled context
// returns immediately. The abandoned decode finishes in the background and its
// result is dropped.
func decodeTranscoded(ctx context.Context, format common.Format, data []byte,
	decode func([]byte) (*transcode.AudioData, error)) (*common.PCMBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// the decoder gets its own copy so the caller's bytes are never shared
	input := make([]byte, len(data))
	copy(input, data)

	done := make(chan transcodeResult, 1)
	go func() {
		audio, err := decode(input)
		done <- transcodeResult{audio: audio, err: err}
	}()

	var res transcodeResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-done:
	}

	if res.err != nil {
		return nil, common.NewDecodeError(format, common.ErrCodeDecoding, "transcoder failed", res.err)
	}
	if res.audio == nil {
		return nil, common.NewDecodeError(format, common.ErrCodeDecoding, "transcoder returned no audio", nil)
	}

	channels := res.audio.Channels
	if channels <= 0 {
		channels = 1
	}
	for i, v := range res.audio.PCM {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, common.NewDecodeError(format, common.ErrCodeDecoding,
				fmt.Sprintf("transcoder produced a non-finite sample at %d", i), nil)
		}
	}

	return finish(format, Downmix(res.audio.PCM, channels), res.audio.SampleRate)
}
