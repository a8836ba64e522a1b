package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Tracking struct {
	Listen string `toml:"listen"`
}

type HTTP struct {
	Listen string `toml:"listen"`
}

// Video selects where zone videos play.
type Video struct {
	Backend       string `toml:"backend"`
	QLabHost      string `toml:"qlab_host"`
	QLabPort      int    `toml:"qlab_port"`
	QLabWorkspace string `toml:"qlab_workspace"`
	QLabPasscode  string `toml:"qlab_passcode"`
}

type StreamDeck struct {
	Enabled    bool   `toml:"enabled"`
	Model      string `toml:"model"`
	Brightness int    `toml:"brightness"`
}

type XTouch struct {
	Enabled bool   `toml:"enabled"`
	Port    string `toml:"port"`
	// Extender addresses the LCDs of an X-Touch Extender instead of an X-Touch.
	Extender bool `toml:"extender"`
}

// Zone is one overlay experience. Model and Video are paths under the
// assets directory.
type Zone struct {
	Name             string  `toml:"name"`
	Model            string  `toml:"model"`
	Video            string  `toml:"video"`
	AspectRatio      float64 `toml:"aspect_ratio"`
	AnimationSeconds float64 `toml:"animation_seconds"`
	Cue              string  `toml:"cue"`
}

type Config struct {
	TargetName       string  `toml:"target_name"`
	ModelScale       float64 `toml:"model_scale"`
	ModelRotationX   float64 `toml:"model_rotation_x"`
	DefaultZone      int     `toml:"default_zone"`
	PauseVideoOnLoss bool    `toml:"pause_video_on_loss"`
	AssetsDir        string  `toml:"assets_dir"`
	LockFile         string  `toml:"lock_file"`

	Log        Log        `toml:"log"`
	Tracking   Tracking   `toml:"tracking"`
	HTTP       HTTP       `toml:"http"`
	Video      Video      `toml:"video"`
	StreamDeck StreamDeck `toml:"streamdeck"`
	XTouch     XTouch     `toml:"xtouch"`
	Zones      []Zone     `toml:"zones"`
}

// Load reads path over the defaults, normalizes and validates. An empty
// path uses DefaultConfigPath.
func Load(path string) (*Config, string, error) {
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, "", err
		}
		path = p
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, path, fmt.Errorf("config %s not found (create one with 'arzone config sample > %s')", path, path)
		}
		return nil, path, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(buf)
	if err != nil {
		return nil, path, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.AssetsDir != "" && !filepath.IsAbs(cfg.AssetsDir) {
		cfg.AssetsDir = filepath.Join(filepath.Dir(path), cfg.AssetsDir)
	}
	return cfg, path, nil
}

func Parse(buf []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(buf))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "arzone", "config.toml"), nil
}

func Sample() string {
	return sampleConfig
}

func (c *Config) normalize() {
	c.TargetName = strings.TrimSpace(c.TargetName)
	c.Video.Backend = strings.ToLower(strings.TrimSpace(c.Video.Backend))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	for i := range c.Zones {
		z := &c.Zones[i]
		z.Name = strings.TrimSpace(z.Name)
		if z.Name == "" {
			z.Name = fmt.Sprintf("Zone - %d", i+1)
		}
	}
}
