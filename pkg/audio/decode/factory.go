package decode

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/RyanBlaney/latency-benchmark-common/logging"

	"github.com/RyanBlaney/voice-match/pkg/audio/common"
)

// FactoryConfig controls which decoders a Factory registers
type FactoryConfig struct {
	FFmpegPath       string
	FFmpegSampleRate int
	TargetSampleRate int
	Raw              *RawConfig
	PreferTranscode  bool
	// Format, when set, bypasses detection (see common.ParseFormat)
	Format string
	Logger logging.Logger
}

// Factory picks a decoder by detected container and implements Decoder itself
type Factory struct {
	decoders   map[common.Format]Decoder
	fallback   Decoder
	forced     common.Format
	targetRate int
	logger     logging.Logger
	mu         sync.RWMutex
}

// NewFactory creates a factory with the default decoders registered
func NewFactory() *Factory {
	f, _ := NewFactoryWithConfig(FactoryConfig{})
	return f
}

// NewFactoryWithConfig creates a factory from cfg
func NewFactoryWithConfig(cfg FactoryConfig) (*Factory, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	f := &Factory{
		decoders:   make(map[common.Format]Decoder),
		targetRate: cfg.TargetSampleRate,
		logger:     logger.WithFields(logging.Fields{"component": "decoder_factory"}),
	}

	ffmpeg := NewFFmpegDecoder(cfg.FFmpegPath, cfg.FFmpegSampleRate)
	if cfg.PreferTranscode {
		f.fallback = NewTranscodeDecoder()
	} else {
		f.fallback = ffmpeg
	}

	f.RegisterDecoder(common.FormatWAV, NewWAVDecoder())
	f.RegisterDecoder(common.FormatMP3, NewMP3Decoder())
	f.RegisterDecoder(common.FormatOgg, f.fallback)
	f.RegisterDecoder(common.FormatWebM, f.fallback)
	f.RegisterDecoder(common.FormatFLAC, f.fallback)

	if cfg.Format != "" {
		f.forced = common.ParseFormat(strings.ToLower(cfg.Format))
		if f.forced == common.FormatUnknown {
			return nil, fmt.Errorf("unknown decoder format: %q", cfg.Format)
		}
	}

	if cfg.Raw != nil {
		raw, err := NewRawDecoder(*cfg.Raw)
		if err != nil {
			return nil, fmt.Errorf("failed to create raw decoder: %w", err)
		}
		f.RegisterDecoder(common.FormatRaw, raw)
	}

	return f, nil
}

// RegisterDecoder registers a decoder for a format, replacing any existing one
func (f *Factory) RegisterDecoder(format common.Format, decoder Decoder) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.decoders[format] = decoder
}

// SupportedFormats returns the registered formats in sorted order
func (f *Factory) SupportedFormats() []common.Format {
	f.mu.RLock()
	defer f.mu.RUnlock()

	formats := make([]common.Format, 0, len(f.decoders))
	for format := range f.decoders {
		formats = append(formats, format)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// DecoderFor returns the decoder registered for format
func (f *Factory) DecoderFor(format common.Format) (Decoder, error) {
	f.mu.RLock()
	decoder, exists := f.decoders[format]
	fallback := f.fallback
	f.mu.RUnlock()

	if exists {
		return decoder, nil
	}
	if format == common.FormatUnknown && fallback != nil {
		return fallback, nil
	}

	return nil, common.NewDecodeError(format, common.ErrCodeUnsupported,
		fmt.Sprintf("no decoder registered for %s", format), nil)
}

func (f *Factory) Name() string { return "auto" }

// Decode detects the container, or uses the configured format, and decodes
// with the matching decoder
func (f *Factory) Decode(ctx context.Context, data []byte) (*common.PCMBuffer, error) {
	if f.forced != "" {
		return f.DecodeAs(ctx, f.forced, data)
	}

	format := Detect(data)
	if format == common.FormatUnknown {
		// headerless input goes to the raw decoder when one is configured
		f.mu.RLock()
		_, hasRaw := f.decoders[common.FormatRaw]
		f.mu.RUnlock()
		if hasRaw {
			format = common.FormatRaw
		}
	}
	return f.DecodeAs(ctx, format, data)
}

// DecodeAs decodes data with the decoder registered for format, skipping detection
func (f *Factory) DecodeAs(ctx context.Context, format common.Format, data []byte) (*common.PCMBuffer, error) {
	if err := checkInput(format, data); err != nil {
		return nil, err
	}

	decoder, err := f.DecoderFor(format)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Decoding audio", logging.Fields{
		"format":  format,
		"decoder": decoder.Name(),
		"bytes":   len(data),
	})

	buf, err := decoder.Decode(ctx, data)
	if err != nil {
		return nil, err
	}

	if f.targetRate > 0 && buf.SampleRate != f.targetRate {
		f.logger.Debug("Resampling decoded audio", logging.Fields{
			"from": buf.SampleRate,
			"to":   f.targetRate,
		})
		buf, err = Resample(buf, f.targetRate)
		if err != nil {
			return nil, err
		}
	}

	return buf, nil
}
