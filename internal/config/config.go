// Package config loads server settings from defaults, an optional TOML file
// and DEFECT_MCP_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Environment variables read by Load.
const (
	EnvLogLevel      = "DEFECT_MCP_LOG_LEVEL"
	EnvLogFormat     = "DEFECT_MCP_LOG_FORMAT"
	EnvMinSpotSize   = "DEFECT_MCP_MIN_SPOT_SIZE"
	EnvMinContrast   = "DEFECT_MCP_MIN_CONTRAST"
	EnvMaxEdgePoints = "DEFECT_MCP_MAX_EDGE_POINTS"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid setting")

// Config holds every tunable of the server.
type Config struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"` // "console" or "json"

	Detection DetectionConfig `toml:"detection"`
	Overlay   OverlayConfig   `toml:"overlay"`
}

// DetectionConfig supplies defaults for tool calls that omit parameters.
type DetectionConfig struct {
	MinSpotSizePx      int     `toml:"min_spot_size_px"`
	MinContrastPercent float64 `toml:"min_contrast_percent"`
	MaxEdgePoints      int     `toml:"max_edge_points"`
}

// OverlayConfig controls rendered overlays.
type OverlayConfig struct {
	Color      string `toml:"color"`
	DrawBorder bool   `toml:"draw_border"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "console",
		Detection: DetectionConfig{
			MinSpotSizePx:      40,
			MinContrastPercent: 12,
			MaxEdgePoints:      20000,
		},
		Overlay: OverlayConfig{
			Color:      "#DC2626",
			DrawBorder: false,
		},
	}
}

// Load builds a Config from defaults, the TOML file at path (skipped when
// path is empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown key %q in %s", ErrInvalid, undecoded[0].String(), path)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		c.LogFormat = v
	}
	if v, ok := lookup(EnvMinSpotSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalid, EnvMinSpotSize, v, err)
		}
		c.Detection.MinSpotSizePx = n
	}
	if v, ok := lookup(EnvMinContrast); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalid, EnvMinContrast, v, err)
		}
		c.Detection.MinContrastPercent = f
	}
	if v, ok := lookup(EnvMaxEdgePoints); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalid, EnvMaxEdgePoints, v, err)
		}
		c.Detection.MaxEdgePoints = n
	}
	return nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log_format %q (want console or json)", ErrInvalid, c.LogFormat)
	}
	if c.Detection.MinSpotSizePx < 1 {
		return fmt.Errorf("%w: min_spot_size_px %d must be >= 1", ErrInvalid, c.Detection.MinSpotSizePx)
	}
	p := c.Detection.MinContrastPercent
	if math.IsNaN(p) || p <= 0 || p > 100 {
		return fmt.Errorf("%w: min_contrast_percent %v must be in (0,100]", ErrInvalid, p)
	}
	if c.Detection.MaxEdgePoints < 1 {
		return fmt.Errorf("%w: max_edge_points %d must be >= 1", ErrInvalid, c.Detection.MaxEdgePoints)
	}
	if _, err := colorful.Hex(c.Overlay.Color); err != nil {
		return fmt.Errorf("%w: overlay color %q: %v", ErrInvalid, c.Overlay.Color, err)
	}
	return nil
}
