package decode

import (
	"math"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/RyanBlaney/voice-match/pkg/audio/common"
)

// Resample converts a mono buffer to targetRate. The input is returned as is
// when no conversion is needed.
func Resample(buf *common.PCMBuffer, targetRate int) (*common.PCMBuffer, error) {
	if buf == nil || targetRate <= 0 || buf.SampleRate == targetRate || buf.Len() == 0 {
		return buf, nil
	}

	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(buf.SampleRate),
		OutputRate: float64(targetRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, common.NewDecodeError(buf.Format, common.ErrCodeResample,
			"failed to create resampler", err)
	}

	out, err := rs.Process(buf.Samples)
	if err != nil {
		return nil, common.NewDecodeError(buf.Format, common.ErrCodeResample,
			"failed to resample", err)
	}
	// the filter holds back its tail until flushed
	tail, err := rs.Flush()
	if err != nil {
		return nil, common.NewDecodeError(buf.Format, common.ErrCodeResample,
			"failed to flush resampler", err)
	}
	out = append(out, tail...)
	if expected := resampledLength(buf.Len(), buf.SampleRate, targetRate); len(out) > expected {
		out = out[:expected]
	}
	if len(out) == 0 {
		return nil, common.NewInsufficientSignalError("resample", buf.Len())
	}
	clampUnit(out)

	return &common.PCMBuffer{
		Samples:    out,
		SampleRate: targetRate,
		Format:     buf.Format,
	}, nil
}

// resampledLength keeps the duration of n input samples at the new rate
func resampledLength(n, fromRate, toRate int) int {
	return int(math.Round(float64(n) * float64(toRate) / float64(fromRate)))
}
