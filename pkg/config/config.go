// Package config provides configuration loading and management for kspacevis.
// It handles loading configuration from YAML files, environment overrides
// and default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/dnaligase/kspace-vis/pkg/imageio"
	"github.com/dnaligase/kspace-vis/pkg/kspace"
	"github.com/dnaligase/kspace-vis/pkg/reconstruction"
	"github.com/dnaligase/kspace-vis/pkg/visualization"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "KSPACE_"

// Config represents the application configuration loaded from YAML
type Config struct {
	// Source image parameters
	Image struct {
		// Path is the picture to decompose
		Path string `yaml:"path"`

		// Size is the side of the square grid the image is resized to
		Size int `yaml:"size"`

		// Channel selects the intensity: "red" or "luma"
		Channel string `yaml:"channel"`

		// Interpolation is the resampling kernel used for resizing
		Interpolation string `yaml:"interpolation"`
	} `yaml:"image"`

	// Decomposition parameters
	Decomposition struct {
		// Method is "direct" or "fft"
		Method string `yaml:"method"`

		// Basis is "synthesis" (exact reconstruction) or "analysis"
		Basis string `yaml:"basis"`

		// Workers is how many goroutines share the frequency rows
		Workers int `yaml:"workers"`

		// Timeout bounds start-up; zero disables it
		Timeout time.Duration `yaml:"timeout"`

		// SubstituteDCMean shows the DC preview at the source mean
		SubstituteDCMean bool `yaml:"substituteDCMean"`
	} `yaml:"decomposition"`

	// Rendering parameters
	Render struct {
		// Epsilon guards the normalization denominator
		Epsilon float64 `yaml:"epsilon"`

		// PlaceholderGray is the level shown for empty selections
		PlaceholderGray int `yaml:"placeholderGray"`

		// OutputSize is the side of the upscaled reconstruction
		OutputSize int `yaml:"outputSize"`

		// Upscale is the kernel used to enlarge reconstructions
		Upscale string `yaml:"upscale"`
	} `yaml:"render"`

	// Output parameters
	Output struct {
		// Dir is where rendered images are written
		Dir string `yaml:"dir"`

		// SaveMagnitude writes the log-magnitude map next to the renders
		SaveMagnitude bool `yaml:"saveMagnitude"`

		// Verbose prints the banner and per-step summaries
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`

	// Logging parameters
	Logging struct {
		// Level is a zerolog level name
		Level string `yaml:"level"`

		// JSON switches from console to JSON output
		JSON bool `yaml:"json"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Image.Size = imageio.DefaultSize
	cfg.Image.Channel = imageio.ChannelRed.String()
	cfg.Image.Interpolation = "catmullrom"

	cfg.Decomposition.Method = kspace.MethodDirect.String()
	cfg.Decomposition.Basis = kspace.ConventionSynthesis.String()
	cfg.Decomposition.Workers = runtime.NumCPU()
	cfg.Decomposition.SubstituteDCMean = true

	cfg.Render.Epsilon = visualization.DefaultEpsilon
	cfg.Render.PlaceholderGray = int(reconstruction.PlaceholderLevel)
	cfg.Render.OutputSize = 200
	cfg.Render.Upscale = "nearest"

	cfg.Output.Dir = "kspace_output"
	cfg.Output.SaveMagnitude = true
	cfg.Output.Verbose = true

	cfg.Logging.Level = zerolog.InfoLevel.String()

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// ApplyEnv overrides fields from KSPACE_* environment variables.
// lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "IMAGE"); ok {
		c.Image.Path = v
	}
	if v, ok := lookup(EnvPrefix + "SIZE"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sSIZE: %w", EnvPrefix, err)
		}
		c.Image.Size = n
	}
	if v, ok := lookup(EnvPrefix + "WORKERS"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sWORKERS: %w", EnvPrefix, err)
		}
		c.Decomposition.Workers = n
	}
	if v, ok := lookup(EnvPrefix + "METHOD"); ok {
		c.Decomposition.Method = v
	}
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := lookup(EnvPrefix + "OUTPUT_DIR"); ok {
		c.Output.Dir = v
	}
	return nil
}

// Validate checks every field that the engine would otherwise reject late.
func (c *Config) Validate() error {
	if c.Image.Size <= 0 {
		return fmt.Errorf("image.size must be positive, got %d", c.Image.Size)
	}
	if _, err := imageio.ParseChannel(c.Image.Channel); err != nil {
		return err
	}
	if _, err := visualization.ParseInterpolator(c.Image.Interpolation); err != nil {
		return err
	}
	if _, err := kspace.ParseMethod(c.Decomposition.Method); err != nil {
		return err
	}
	if _, err := kspace.ParseConvention(c.Decomposition.Basis); err != nil {
		return err
	}
	if c.Decomposition.Timeout < 0 {
		return fmt.Errorf("decomposition.timeout must not be negative, got %s", c.Decomposition.Timeout)
	}
	if c.Render.Epsilon <= 0 {
		return fmt.Errorf("render.epsilon must be positive, got %g", c.Render.Epsilon)
	}
	if c.Render.PlaceholderGray < 0 || c.Render.PlaceholderGray > 255 {
		return fmt.Errorf("render.placeholderGray must be in [0,255], got %d", c.Render.PlaceholderGray)
	}
	if c.Render.OutputSize <= 0 {
		return fmt.Errorf("render.outputSize must be positive, got %d", c.Render.OutputSize)
	}
	if _, err := visualization.ParseInterpolator(c.Render.Upscale); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %w", err)
	}
	return nil
}

// EngineOptions converts the configuration into engine options.
func (c *Config) EngineOptions(log *zerolog.Logger) (reconstruction.Options, error) {
	if err := c.Validate(); err != nil {
		return reconstruction.Options{}, err
	}
	channel, _ := imageio.ParseChannel(c.Image.Channel)
	interp, _ := visualization.ParseInterpolator(c.Image.Interpolation)
	method, _ := kspace.ParseMethod(c.Decomposition.Method)
	basis, _ := kspace.ParseConvention(c.Decomposition.Basis)

	opts := reconstruction.DefaultOptions()
	opts.Image = imageio.Params{Size: c.Image.Size, Channel: channel, Interpolator: interp}
	opts.Decomposition = kspace.Params{Method: method, Convention: basis, Workers: c.Decomposition.Workers}
	opts.Timeout = c.Decomposition.Timeout
	opts.SubstituteDCMean = c.Decomposition.SubstituteDCMean
	opts.Epsilon = c.Render.Epsilon
	opts.PlaceholderLevel = uint8(c.Render.PlaceholderGray)
	opts.Logger = log
	return opts, nil
}
