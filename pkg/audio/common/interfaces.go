package common

// Format identifies an encoded audio container
type Format string

const (
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatOgg     Format = "ogg"
	FormatWebM    Format = "webm"
	FormatFLAC    Format = "flac"
	FormatRaw     Format = "raw"
	FormatUnknown Format = "unknown"
)

// ParseFormat converts a user supplied name to a Format
func ParseFormat(name string) Format {
	switch name {
	case "wav", "wave":
		return FormatWAV
	case "mp3":
		return FormatMP3
	case "ogg", "opus":
		return FormatOgg
	case "webm", "mkv":
		return FormatWebM
	case "flac":
		return FormatFLAC
	case "raw", "pcm", "s16le", "f32le":
		return FormatRaw
	default:
		return FormatUnknown
	}
}

// PCMBuffer holds decoded mono samples in [-1, 1]
type PCMBuffer struct {
	Samples    []float64 `json:"-"`
	SampleRate int       `json:"sample_rate"`
	Format     Format    `json:"format"`
}

// Len returns the number of samples
func (b *PCMBuffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Samples)
}

// Duration returns the buffer length in seconds
func (b *PCMBuffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}
