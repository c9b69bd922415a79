package decode

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/RyanBlaney/voice-match/pkg/audio/common"
)

// Raw sample encodings
const (
	EncodingS16LE = "s16le"
	EncodingF32LE = "f32le"
)

// RawConfig describes headerless PCM
type RawConfig struct {
	Encoding   string `json:"encoding" yaml:"encoding"`
	SampleRate int    `json:"sample_rate" yaml:"sample_rate"`
	Channels   int    `json:"channels" yaml:"channels"`
}

// RawDecoder decodes headerless little endian PCM
type RawDecoder struct {
	config RawConfig
}

// NewRawDecoder creates a raw decoder, filling zero values with defaults
func NewRawDecoder(cfg RawConfig) (*RawDecoder, error) {
	if cfg.Encoding == "" {
		cfg.Encoding = EncodingS16LE
	}
	if cfg.Channels == 0 {
		cfg.Channels = 1
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("raw decoder requires a positive sample rate, got %d", cfg.SampleRate)
	}
	if cfg.Channels < 0 {
		return nil, fmt.Errorf("raw decoder requires a positive channel count, got %d", cfg.Channels)
	}
	if cfg.Encoding != EncodingS16LE && cfg.Encoding != EncodingF32LE {
		return nil, fmt.Errorf("unsupported raw encoding: %s", cfg.Encoding)
	}
	return &RawDecoder{config: cfg}, nil
}

func (d *RawDecoder) Name() string { return string(common.FormatRaw) }

func (d *RawDecoder) Decode(ctx context.Context, data []byte) (*common.PCMBuffer, error) {
	if err := checkInput(common.FormatRaw, data); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	width := 2
	if d.config.Encoding == EncodingF32LE {
		width = 4
	}
	if len(data)%(width*d.config.Channels) != 0 {
		return nil, common.NewDecodeError(common.FormatRaw, common.ErrCodeTruncated,
			fmt.Sprintf("buffer of %d bytes is not aligned to %d byte frames", len(data), width*d.config.Channels), nil)
	}

	interleaved := make([]float64, len(data)/width)
	switch d.config.Encoding {
	case EncodingS16LE:
		for i := range interleaved {
			interleaved[i] = float64(int16(binary.LittleEndian.Uint16(data[i*2:]))) / 32768.0
		}
	case EncodingF32LE:
		for i := range interleaved {
			v := float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, common.NewDecodeError(common.FormatRaw, common.ErrCodeDecoding,
					fmt.Sprintf("non-finite sample at index %d", i), nil)
			}
			interleaved[i] = v
		}
	}

	return finish(common.FormatRaw, Downmix(interleaved, d.config.Channels), d.config.SampleRate)
}
