package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rpggio/nowloop/internal/domain/track"
	"github.com/rpggio/nowloop/internal/graph"
	"github.com/rpggio/nowloop/internal/units"
)

// Config defines engine and server configuration.
type Config struct {
	Audio     AudioConfig     `yaml:"audio"`
	Tempo     TempoConfig     `yaml:"tempo"`
	Recording RecordingConfig `yaml:"recording"`
	FFT       FFTConfig       `yaml:"fft"`
	Queue     QueueConfig     `yaml:"queue"`
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
}

type AudioConfig struct {
	SampleRate     int `yaml:"sample_rate"`
	BlockSize      int `yaml:"block_size"`
	ChannelCount   int `yaml:"channel_count"`
	BitsPerSample  int `yaml:"bits_per_sample"`
	InputCount     int `yaml:"input_count"`
	LatencySamples int `yaml:"latency_samples"`
	MaxTracks      int `yaml:"max_tracks"`
}

type TempoConfig struct {
	BPM             float64 `yaml:"bpm"`
	BeatsPerMeasure int     `yaml:"beats_per_measure"`
	// Quantum is "measure", "beat" or a beat count.
	Quantum string `yaml:"quantum"`
}

type RecordingConfig struct {
	PreRecordingSeconds float64 `yaml:"pre_recording_seconds"`
}

type FFTConfig struct {
	OutputBins       int     `yaml:"output_bins"`
	CentralFrequency float64 `yaml:"central_frequency"`
	OctaveDivisions  int     `yaml:"octave_divisions"`
	CentralBin       int     `yaml:"central_bin"`
	FFTSize          int     `yaml:"fft_size"`
}

type QueueConfig struct {
	CommandCapacity int `yaml:"command_capacity"`
	EventCapacity   int `yaml:"event_capacity"`
	MeterSize       int `yaml:"meter_size"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	// Mode is "stdio" or "http".
	Mode string `yaml:"mode"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
	// Tokens maps bearer tokens to client ids.
	Tokens map[string]string `yaml:"tokens"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Audio: AudioConfig{
			SampleRate:    48000,
			BlockSize:     512,
			ChannelCount:  2,
			BitsPerSample: 32,
			InputCount:    2,
			MaxTracks:     64,
		},
		Tempo: TempoConfig{
			BPM:             90,
			BeatsPerMeasure: 4,
			Quantum:         "measure",
		},
		Recording: RecordingConfig{
			PreRecordingSeconds: 0.1,
		},
		FFT: FFTConfig{
			OutputBins:       20,
			CentralFrequency: 440,
			OctaveDivisions:  5,
			CentralBin:       11,
			FFTSize:          1024,
		},
		Queue: QueueConfig{
			CommandCapacity: 256,
			EventCapacity:   1024,
			MeterSize:       200,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		DB: DBConfig{
			Path: "nowloop.db",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("NOWLOOP_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the engine cannot start with.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	if c.Audio.SampleRate <= 0 || c.Audio.BlockSize <= 0 {
		return fmt.Errorf("invalid audio config: sample rate %d, block size %d", c.Audio.SampleRate, c.Audio.BlockSize)
	}
	if c.Tempo.BPM <= 0 || c.Tempo.BeatsPerMeasure <= 0 {
		return fmt.Errorf("invalid tempo config: %v BPM, %d beats per measure", c.Tempo.BPM, c.Tempo.BeatsPerMeasure)
	}
	if c.Recording.PreRecordingSeconds < 0 {
		return fmt.Errorf("invalid pre-recording seconds %v", c.Recording.PreRecordingSeconds)
	}
	if c.Auth.Enabled && len(c.Auth.Tokens) == 0 {
		return fmt.Errorf("auth enabled without tokens")
	}
	return nil
}

// GraphConfig converts the engine sections for graph.New.
func (c Config) GraphConfig() (graph.Config, error) {
	q, err := track.ParseQuantum(c.Tempo.Quantum)
	if err != nil {
		return graph.Config{}, err
	}
	gc := graph.Config{
		SampleRate:      c.Audio.SampleRate,
		ChannelCount:    c.Audio.ChannelCount,
		BitsPerSample:   c.Audio.BitsPerSample,
		LatencySamples:  c.Audio.LatencySamples,
		BlockSize:       c.Audio.BlockSize,
		InputCount:      c.Audio.InputCount,
		MaxTracks:       c.Audio.MaxTracks,
		BeatsPerMinute:  c.Tempo.BPM,
		BeatsPerMeasure: c.Tempo.BeatsPerMeasure,
		Quantum:         q,
		CommandCapacity: c.Queue.CommandCapacity,
		EventCapacity:   c.Queue.EventCapacity,
		MeterSize:       c.Queue.MeterSize,
	}
	return gc, gc.Validate()
}

// GraphFFT converts the analysis section for graph.Initialize.
func (c Config) GraphFFT() graph.FFTConfig {
	return graph.FFTConfig{
		OutputBinCount:   c.FFT.OutputBins,
		CentralFrequency: c.FFT.CentralFrequency,
		OctaveDivisions:  c.FFT.OctaveDivisions,
		CentralBinIndex:  c.FFT.CentralBin,
		FFTSize:          c.FFT.FFTSize,
	}
}

// PreRecording returns the pre-recording span for graph.Initialize.
func (c Config) PreRecording() units.ContinuousDuration[units.Second] {
	return units.ContinuousOf[units.Second](c.Recording.PreRecordingSeconds)
}

func applyEnv(cfg *Config) error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"NOWLOOP_SAMPLE_RATE", &cfg.Audio.SampleRate},
		{"NOWLOOP_BLOCK_SIZE", &cfg.Audio.BlockSize},
		{"NOWLOOP_INPUT_COUNT", &cfg.Audio.InputCount},
		{"NOWLOOP_BEATS_PER_MEASURE", &cfg.Tempo.BeatsPerMeasure},
		{"NOWLOOP_SERVER_PORT", &cfg.Server.Port},
	}
	for _, e := range ints {
		if s := os.Getenv(e.name); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", e.name, err)
			}
			*e.dst = v
		}
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"NOWLOOP_BPM", &cfg.Tempo.BPM},
		{"NOWLOOP_PRE_RECORDING_SECONDS", &cfg.Recording.PreRecordingSeconds},
	}
	for _, e := range floats {
		if s := os.Getenv(e.name); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", e.name, err)
			}
			*e.dst = v
		}
	}

	if quantum := os.Getenv("NOWLOOP_QUANTUM"); quantum != "" {
		cfg.Tempo.Quantum = quantum
	}
	if host := os.Getenv("NOWLOOP_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if mode := os.Getenv("NOWLOOP_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if dbPath := os.Getenv("NOWLOOP_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("NOWLOOP_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	// NOWLOOP_AUTH_TOKENS is a comma-separated list of token=client pairs.
	if tokens := os.Getenv("NOWLOOP_AUTH_TOKENS"); tokens != "" {
		cfg.Auth.Enabled = true
		if cfg.Auth.Tokens == nil {
			cfg.Auth.Tokens = map[string]string{}
		}
		for _, pair := range strings.Split(tokens, ",") {
			token, client, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok || token == "" || client == "" {
				return fmt.Errorf("invalid NOWLOOP_AUTH_TOKENS entry %q", pair)
			}
			cfg.Auth.Tokens[token] = client
		}
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
