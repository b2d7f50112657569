package config

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Where extracted segments, image folders and CSV files land
	OutputDir string `yaml:"output_dir"`

	FFmpeg  FFmpegConfig  `yaml:"ffmpeg"`
	Sampler SamplerConfig `yaml:"sampler"`
	Export  ExportConfig  `yaml:"export"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	// Checked in order when the binary is not on PATH
	ExtraLocations []string `yaml:"extra_locations"`
	// Subprocess timeout in minutes
	TimeoutMinutes int `yaml:"timeout_minutes"`
}

type SamplerConfig struct {
	// Sources at or above this frame rate are sampled every other frame
	FPSCeiling float64 `yaml:"fps_ceiling"`
	// Assumed when the container reports no usable frame rate
	FallbackFPS float64 `yaml:"fallback_fps"`
	// ffmpeg -qscale:v value for the subprocess fallback
	JPEGQuality int `yaml:"jpeg_quality"`
}

type ExportConfig struct {
	// Maximum CSV file name length before truncation
	MaxNameLen int `yaml:"max_name_len"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func defaultConfig() *Config {
	return &Config{
		OutputDir: "./output",
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ExtraLocations: []string{
				"/usr/local/bin",
				"/opt/homebrew/bin",
				"/usr/bin",
			},
			TimeoutMinutes: 10,
		},
		Sampler: SamplerConfig{
			FPSCeiling:  30,
			FallbackFPS: 30,
			JPEGQuality: 2,
		},
		Export: ExportConfig{
			MaxNameLen: 100,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./config.yml",
		filepath.Join(os.Getenv("HOME"), ".clipmark", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
