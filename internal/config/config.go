// Package config loads the service configuration from an optional
// YAML file with environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Strategy holds the tuning knobs for the inference strategies. The
// values are read once at startup and shared read-only afterwards.
type Strategy struct {
	TopK             int     `yaml:"top_k"`
	TTAAugmentations int     `yaml:"tta_augmentations"`
	PurityThreshold  float64 `yaml:"purity_threshold"`
	MarginThreshold  float64 `yaml:"margin_threshold"`
	MixTopK          int     `yaml:"mix_top_k"`
}

// Config is the full service configuration.
type Config struct {
	Port         int      `yaml:"port"`
	ModelsDir    string   `yaml:"models_dir"`
	DefaultModel string   `yaml:"default_model"`
	MaxImageMB   int      `yaml:"max_image_mb"`
	Strategy     Strategy `yaml:"strategy"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:         8080,
		ModelsDir:    "models",
		DefaultModel: "models/pet_classifier.onnx",
		MaxImageMB:   8,
		Strategy: Strategy{
			TopK:             5,
			TTAAugmentations: 8,
			PurityThreshold:  0.7,
			MarginThreshold:  0.2,
			MixTopK:          3,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// the PORT environment override. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Port = p
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.MaxImageMB < 1 {
		return fmt.Errorf("max_image_mb must be at least 1, got %d", c.MaxImageMB)
	}
	if c.Strategy.TopK < 1 {
		return fmt.Errorf("top_k must be at least 1, got %d", c.Strategy.TopK)
	}
	if c.Strategy.TTAAugmentations < 1 {
		return fmt.Errorf("tta_augmentations must be at least 1, got %d", c.Strategy.TTAAugmentations)
	}
	if c.Strategy.MixTopK < 1 {
		return fmt.Errorf("mix_top_k must be at least 1, got %d", c.Strategy.MixTopK)
	}
	return nil
}
