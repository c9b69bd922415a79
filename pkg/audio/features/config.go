package features

import "fmt"

// Window names
const (
	WindowHann        = "hann"
	WindowHamming     = "hamming"
	WindowRectangular = "rectangular"
)

const (
	DefaultFFTSize = 2048
	minFFTSize     = 64
	maxFFTSize     = 65536
)

// Config controls spectral analysis
type Config struct {
	FFTSize int    `json:"fft_size" yaml:"fft_size" mapstructure:"fft_size"`
	HopSize int    `json:"hop_size" yaml:"hop_size" mapstructure:"hop_size"`
	Window  string `json:"window" yaml:"window" mapstructure:"window"`
}

// DefaultConfig returns the default extractor configuration
func DefaultConfig() Config {
	return Config{
		FFTSize: DefaultFFTSize,
		HopSize: DefaultFFTSize,
		Window:  WindowHann,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.FFTSize < minFFTSize || c.FFTSize > maxFFTSize || c.FFTSize&(c.FFTSize-1) != 0 {
		return fmt.Errorf("fft_size must be a power of two in [%d, %d], got %d", minFFTSize, maxFFTSize, c.FFTSize)
	}
	if c.HopSize <= 0 || c.HopSize > c.FFTSize {
		return fmt.Errorf("hop_size must be in (0, fft_size], got %d", c.HopSize)
	}
	switch c.Window {
	case WindowHann, WindowHamming, WindowRectangular:
	default:
		return fmt.Errorf("unknown window: %s", c.Window)
	}
	return nil
}

// WithDefaults fills zero fields. A zero hop size means one hop per frame.
func (c Config) WithDefaults() Config {
	if c.FFTSize == 0 {
		c.FFTSize = DefaultFFTSize
	}
	if c.HopSize == 0 {
		c.HopSize = c.FFTSize
	}
	if c.Window == "" {
		c.Window = WindowHann
	}
	return c
}
