package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTracking(); err != nil {
		return err
	}
	if err := c.validateZones(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateLog(); err != nil {
		return err
	}
	if c.StreamDeck.Brightness < 0 || c.StreamDeck.Brightness > 100 {
		return errors.New("streamdeck.brightness must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateTracking() error {
	if c.TargetName == "" {
		return errors.New("target_name must be set")
	}
	if !(c.ModelScale > 0) {
		return errors.New("model_scale must be positive")
	}
	if c.Tracking.Listen == "" {
		return errors.New("tracking.listen must be set")
	}
	return nil
}

func (c *Config) validateZones() error {
	if len(c.Zones) == 0 {
		return errors.New("at least one [[zones]] entry is required")
	}
	for i, z := range c.Zones {
		if !(z.AspectRatio > 0) {
			return fmt.Errorf("zones[%d] (%s): aspect_ratio must be positive", i, z.Name)
		}
		if z.AnimationSeconds < 0 {
			return fmt.Errorf("zones[%d] (%s): animation_seconds must not be negative", i, z.Name)
		}
	}
	if c.DefaultZone < 0 || c.DefaultZone >= len(c.Zones) {
		return fmt.Errorf("default_zone %d out of range for %d zones", c.DefaultZone, len(c.Zones))
	}
	return nil
}

func (c *Config) validateVideo() error {
	switch c.Video.Backend {
	case BackendBrowser:
		return nil
	case BackendQLab:
		if c.Video.QLabHost == "" {
			return errors.New("video.qlab_host must be set for the qlab backend")
		}
		if c.Video.QLabPort <= 0 || c.Video.QLabPort > 65535 {
			return errors.New("video.qlab_port must be a valid port")
		}
		for i, z := range c.Zones {
			if z.Cue == "" {
				return fmt.Errorf("zones[%d] (%s): cue is required for the qlab backend", i, z.Name)
			}
		}
		return nil
	}
	return fmt.Errorf("video.backend %q must be %q or %q", c.Video.Backend, BackendBrowser, BackendQLab)
}

func (c *Config) validateLog() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q must be debug, info, warn or error", c.Log.Level)
	}
	switch c.Log.Format {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("log.format %q must be auto, text or json", c.Log.Format)
	}
	return nil
}
