package decode

import (
	"context"

	"github.com/RyanBlaney/voice-match/pkg/audio/common"
)

// Decoder turns an encoded audio blob into mono PCM
type Decoder interface {
	Name() string
	Decode(ctx context.Context, data []byte) (*common.PCMBuffer, error)
}

// DecodeFunc adapts a plain function to the Decoder interface
type DecodeFunc func(ctx context.Context, data []byte) (*common.PCMBuffer, error)

// Name implements Decoder
func (f DecodeFunc) Name() string { return "func" }

// Decode implements Decoder
func (f DecodeFunc) Decode(ctx context.Context, data []byte) (*common.PCMBuffer, error) {
	return f(ctx, data)
}

// Downmix averages interleaved frames into a single channel
func Downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		out := make([]float64, len(interleaved))
		copy(out, interleaved)
		return out
	}

	frames := len(interleaved) / channels
	out := make([]float64, frames)
	for i := range frames {
		var sum float64
		for ch := range channels {
			sum += interleaved[i*channels+ch]
		}
		out[i] = sum / float64(channels)
	}
	return out
}

// clampUnit keeps samples inside [-1, 1]
func clampUnit(samples []float64) {
	for i, s := range samples {
		if s > 1 {
			samples[i] = 1
		} else if s < -1 {
			samples[i] = -1
		}
	}
}

// finish validates a decoded buffer before it leaves the package
func finish(format common.Format, samples []float64, sampleRate int) (*common.PCMBuffer, error) {
	if sampleRate <= 0 {
		return nil, common.NewDecodeError(format, common.ErrCodeDecoding,
			"decoder reported no sample rate", nil)
	}
	if len(samples) == 0 {
		return nil, common.NewInsufficientSignalError("decode", 0)
	}
	clampUnit(samples)
	return &common.PCMBuffer{
		Samples:    samples,
		SampleRate: sampleRate,
		Format:     format,
	}, nil
}

func checkInput(format common.Format, data []byte) error {
	if len(data) == 0 {
		return common.NewDecodeError(format, common.ErrCodeEmptyInput, "empty audio buffer", nil)
	}
	return nil
}
