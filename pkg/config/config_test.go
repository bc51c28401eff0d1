package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dnaligase/kspace-vis/pkg/imageio"
	"github.com/dnaligase/kspace-vis/pkg/kspace"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Image.Size != 86 {
		t.Errorf("Expected default size 86, got %d", cfg.Image.Size)
	}
	if cfg.Image.Channel != "red" {
		t.Errorf("Expected red channel, got %q", cfg.Image.Channel)
	}
	if cfg.Decomposition.Workers <= 0 {
		t.Errorf("Expected positive worker count, got %d", cfg.Decomposition.Workers)
	}
	if cfg.Render.PlaceholderGray != 128 || cfg.Render.OutputSize != 200 {
		t.Errorf("Unexpected render defaults: %+v", cfg.Render)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config is invalid: %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Image.Size != DefaultConfig().Image.Size {
		t.Errorf("Expected defaults for missing file")
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Image.Path = "brain.png"
	cfg.Decomposition.Method = "fft"
	cfg.Decomposition.Timeout = 90 * time.Second
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "timeout: 1m30s") {
		t.Errorf("Expected timeout to be written as a duration string:\n%s", data)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Image.Path != "brain.png" || loaded.Decomposition.Method != "fft" {
		t.Errorf("Round trip lost fields: %+v", loaded)
	}
	if loaded.Decomposition.Timeout != 90*time.Second {
		t.Errorf("Expected 90s timeout, got %s", loaded.Decomposition.Timeout)
	}
}

// TestLoadConfigPartial checks unspecified fields keep their defaults
func TestLoadConfigPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "image:\n  size: 32\ndecomposition:\n  timeout: 5s\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Image.Size != 32 || cfg.Image.Channel != "red" {
		t.Errorf("Unexpected image section: %+v", cfg.Image)
	}
	if cfg.Decomposition.Timeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %s", cfg.Decomposition.Timeout)
	}
	if cfg.Render.Epsilon != 1e-5 {
		t.Errorf("Expected default epsilon, got %g", cfg.Render.Epsilon)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("image: [unterminated"), 0644)
	if _, err := LoadConfig(path); err == nil {
		t.Errorf("Expected parse error")
	}
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("CreateDefaultConfigFile failed: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Written default config is invalid: %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"KSPACE_IMAGE":      "/tmp/in.png",
		"KSPACE_SIZE":       " 48 ",
		"KSPACE_WORKERS":    "3",
		"KSPACE_METHOD":     "fft",
		"KSPACE_LOG_LEVEL":  "warn",
		"KSPACE_OUTPUT_DIR": "/tmp/out",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.Image.Path != "/tmp/in.png" || cfg.Image.Size != 48 || cfg.Decomposition.Workers != 3 {
		t.Errorf("Overrides not applied: %+v", cfg)
	}
	if cfg.Decomposition.Method != "fft" || cfg.Logging.Level != "warn" || cfg.Output.Dir != "/tmp/out" {
		t.Errorf("Overrides not applied: %+v", cfg)
	}

	env["KSPACE_SIZE"] = "large"
	if err := cfg.ApplyEnv(lookup); err == nil {
		t.Errorf("Expected error for non-numeric size")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"size":        func(c *Config) { c.Image.Size = 0 },
		"channel":     func(c *Config) { c.Image.Channel = "blue" },
		"interp":      func(c *Config) { c.Image.Interpolation = "lanczos" },
		"method":      func(c *Config) { c.Decomposition.Method = "wavelet" },
		"basis":       func(c *Config) { c.Decomposition.Basis = "mixed" },
		"timeout":     func(c *Config) { c.Decomposition.Timeout = -time.Second },
		"epsilon":     func(c *Config) { c.Render.Epsilon = 0 },
		"placeholder": func(c *Config) { c.Render.PlaceholderGray = 300 },
		"outputSize":  func(c *Config) { c.Render.OutputSize = -1 },
		"upscale":     func(c *Config) { c.Render.Upscale = "sinc" },
		"level":       func(c *Config) { c.Logging.Level = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Expected validation error")
			}
		})
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Image.Size = 24
	cfg.Image.Channel = "luma"
	cfg.Decomposition.Method = "fft"
	cfg.Decomposition.Basis = "analysis"
	cfg.Decomposition.Workers = 2
	cfg.Decomposition.Timeout = time.Minute
	cfg.Render.PlaceholderGray = 64

	log := zerolog.Nop()
	opts, err := cfg.EngineOptions(&log)
	if err != nil {
		t.Fatalf("EngineOptions failed: %v", err)
	}
	if opts.Image.Size != 24 || opts.Image.Channel != imageio.ChannelLuma || opts.Image.Interpolator == nil {
		t.Errorf("Unexpected image options: %+v", opts.Image)
	}
	if opts.Decomposition.Method != kspace.MethodFFT || opts.Decomposition.Convention != kspace.ConventionAnalysis {
		t.Errorf("Unexpected decomposition options: %+v", opts.Decomposition)
	}
	if opts.Decomposition.Workers != 2 || opts.Timeout != time.Minute || opts.PlaceholderLevel != 64 {
		t.Errorf("Unexpected options: %+v", opts)
	}
	if opts.Logger != &log {
		t.Errorf("Expected logger to be passed through")
	}

	cfg.Image.Size = -3
	if _, err := cfg.EngineOptions(&log); err == nil {
		t.Errorf("Expected error for invalid config")
	}
}
