package graph

import (
	"fmt"
	"math/bits"

	"github.com/rpggio/nowloop/internal/clock"
	"github.com/rpggio/nowloop/internal/domain/track"
)

// Config fixes the shape of a graph for its whole lifetime.
type Config struct {
	SampleRate      int
	ChannelCount    int
	BitsPerSample   int
	LatencySamples  int
	BlockSize       int
	InputCount      int
	MaxTracks       int
	BeatsPerMinute  float64
	BeatsPerMeasure int
	Quantum         track.Quantum
	CommandCapacity int
	EventCapacity   int
	MeterSize       int
}

// DefaultConfig matches a stereo 48 kHz device at 60 BPM in 4/4.
func DefaultConfig() Config {
	return Config{
		SampleRate:      48000,
		ChannelCount:    2,
		BitsPerSample:   32,
		LatencySamples:  0,
		BlockSize:       512,
		InputCount:      2,
		MaxTracks:       64,
		BeatsPerMinute:  60,
		BeatsPerMeasure: 4,
		Quantum:         track.QuantumMeasure(),
		CommandCapacity: 256,
		EventCapacity:   1024,
		MeterSize:       200,
	}
}

// Validate checks every field.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	case c.ChannelCount <= 0:
		return fmt.Errorf("%w: channel count %d", ErrInvalidConfig, c.ChannelCount)
	case c.BlockSize <= 0:
		return fmt.Errorf("%w: block size %d", ErrInvalidConfig, c.BlockSize)
	case c.InputCount <= 0:
		return fmt.Errorf("%w: input count %d", ErrInvalidConfig, c.InputCount)
	case c.MaxTracks <= 0:
		return fmt.Errorf("%w: max tracks %d", ErrInvalidConfig, c.MaxTracks)
	case c.BeatsPerMeasure <= 0:
		return fmt.Errorf("%w: beats per measure %d", ErrInvalidConfig, c.BeatsPerMeasure)
	case c.CommandCapacity <= 0 || c.EventCapacity <= 0:
		return fmt.Errorf("%w: queue capacity", ErrInvalidConfig)
	}
	if err := clock.ValidateTempo(c.BeatsPerMinute); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// FFTConfig describes the frequency analysis the DSP layer performs. The graph
// validates and reports it; it never computes a transform.
type FFTConfig struct {
	OutputBinCount   int     `json:"output_bin_count"`
	CentralFrequency float64 `json:"central_frequency"`
	OctaveDivisions  int     `json:"octave_divisions"`
	CentralBinIndex  int     `json:"central_bin_index"`
	FFTSize          int     `json:"fft_size"`
}

// DefaultFFTConfig returns a 20-bin analysis around middle A.
func DefaultFFTConfig() FFTConfig {
	return FFTConfig{
		OutputBinCount:   20,
		CentralFrequency: 440,
		OctaveDivisions:  5,
		CentralBinIndex:  11,
		FFTSize:          1024,
	}
}

// Validate checks the FFT parameters.
func (f FFTConfig) Validate() error {
	switch {
	case f.OutputBinCount <= 0:
		return fmt.Errorf("%w: output bin count %d", ErrInvalidFFT, f.OutputBinCount)
	case f.CentralFrequency <= 0:
		return fmt.Errorf("%w: central frequency %v", ErrInvalidFFT, f.CentralFrequency)
	case f.OctaveDivisions <= 0:
		return fmt.Errorf("%w: octave divisions %d", ErrInvalidFFT, f.OctaveDivisions)
	case f.CentralBinIndex < 0 || f.CentralBinIndex >= f.OutputBinCount:
		return fmt.Errorf("%w: central bin %d", ErrInvalidFFT, f.CentralBinIndex)
	case f.FFTSize < 2 || bits.OnesCount(uint(f.FFTSize)) != 1:
		return fmt.Errorf("%w: fft size %d is not a power of two", ErrInvalidFFT, f.FFTSize)
	}
	return nil
}
