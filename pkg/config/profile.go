package config

import (
	"strconv"
	"time"

	"cncgo/pkg/emitter"
	"cncgo/pkg/errors"
	"cncgo/pkg/moonraker"
	"cncgo/pkg/premade"
	"cncgo/pkg/serial"
)

// Profile is the typed form of a printer profile.
//
//	[printer]    bed_x, bed_y, metric
//	[emitter]    comment, extrusion_ratio, safety_mode
//	[support]    layers, extruder_temp, bed_temp
//	[serial]     port, baud, line_timeout
//	[moonraker]  url, api_key, timeout
//
// Every section is optional; absent options keep their defaults.
type Profile struct {
	Emitter     emitter.Config
	Support     premade.SupportOptions
	Serial      serial.Config
	LineTimeout time.Duration
	Moonraker   moonraker.Config
}

// DefaultProfile returns the settings used when no profile is given.
func DefaultProfile() Profile {
	return Profile{
		Emitter:     emitter.DefaultConfig(),
		Support:     premade.DefaultSupportOptions(),
		Serial:      serial.DefaultConfig(),
		LineTimeout: serial.DefaultStreamerConfig().LineTimeout,
		Moonraker:   moonraker.DefaultConfig(),
	}
}

// LoadProfile reads and parses a profile file.
func LoadProfile(path string) (*Profile, error) {
	return LoadProfiles(path)
}

// LoadProfiles layers several profile files, later files overriding options
// of earlier ones, and parses the result.
func LoadProfiles(paths ...string) (*Profile, error) {
	merged := New()
	for _, path := range paths {
		c, err := Load(path)
		if err != nil {
			return nil, err
		}
		merged.Merge(c)
	}
	return ParseProfile(merged)
}

// ParseProfile extracts a Profile from c. Options nothing reads are
// reported as a CONFIG_OPTION error.
func ParseProfile(c *Config) (*Profile, error) {
	p := DefaultProfile()

	ec, err := EmitterConfig(c)
	if err != nil {
		return nil, err
	}
	p.Emitter = ec

	if sec := c.GetSectionOptional("support"); sec != nil {
		if p.Support.Layers, err = sec.GetInt("layers", p.Support.Layers); err != nil {
			return nil, err
		}
		if p.Support.Layers < 1 {
			return nil, errors.ConfigValidationError("support", "layers", "must be at least 1")
		}
		if p.Support.ExtruderTemp, err = sec.GetFloatWithBounds("extruder_temp", Above(0), p.Support.ExtruderTemp); err != nil {
			return nil, err
		}
		if p.Support.BedTemp, err = sec.GetFloatWithBounds("bed_temp", Above(0), p.Support.BedTemp); err != nil {
			return nil, err
		}
	}

	if sec := c.GetSectionOptional("serial"); sec != nil {
		if p.Serial.Device, err = sec.Get("port", p.Serial.Device); err != nil {
			return nil, err
		}
		if p.Serial.BaudRate, err = sec.GetInt("baud", p.Serial.BaudRate); err != nil {
			return nil, err
		}
		if p.LineTimeout, err = sec.GetDuration("line_timeout", p.LineTimeout); err != nil {
			return nil, err
		}
		if p.LineTimeout <= 0 {
			return nil, errors.ConfigValidationError("serial", "line_timeout", "must be positive")
		}
	}

	if sec := c.GetSectionOptional("moonraker"); sec != nil {
		if p.Moonraker.URL, err = sec.Get("url", p.Moonraker.URL); err != nil {
			return nil, err
		}
		if p.Moonraker.APIKey, err = sec.Get("api_key", p.Moonraker.APIKey); err != nil {
			return nil, err
		}
		if p.Moonraker.Timeout, err = sec.GetDuration("timeout", p.Moonraker.Timeout); err != nil {
			return nil, err
		}
	}

	if err := c.CheckUnusedOptions(); err != nil {
		return nil, err
	}
	return &p, nil
}

// EmitterConfig reads the [printer] and [emitter] sections.
func EmitterConfig(c *Config) (emitter.Config, error) {
	cfg := emitter.DefaultConfig()
	var err error

	if sec := c.GetSectionOptional("printer"); sec != nil {
		if cfg.BedX, err = sec.GetFloatWithBounds("bed_x", Above(0), cfg.BedX); err != nil {
			return cfg, err
		}
		if cfg.BedY, err = sec.GetFloatWithBounds("bed_y", Above(0), cfg.BedY); err != nil {
			return cfg, err
		}
		if cfg.Metric, err = sec.GetBool("metric", cfg.Metric); err != nil {
			return cfg, err
		}
	}

	if sec := c.GetSectionOptional("emitter"); sec != nil {
		if cfg.Comment, err = sec.Get("comment", cfg.Comment); err != nil {
			return cfg, err
		}
		if cfg.ExtrusionRatio, err = sec.GetFloatWithBounds("extrusion_ratio", Min(0), cfg.ExtrusionRatio); err != nil {
			return cfg, err
		}
		if cfg.SafetyMode, err = sec.GetBool("safety_mode", cfg.SafetyMode); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// Config renders the profile back into sections, for writing with Save.
func (p Profile) Config() *Config {
	c := New()
	c.Set("printer", "bed_x", formatBound(p.Emitter.BedX))
	c.Set("printer", "bed_y", formatBound(p.Emitter.BedY))
	c.Set("printer", "metric", strconv.FormatBool(p.Emitter.Metric))

	c.Set("emitter", "comment", p.Emitter.Comment)
	c.Set("emitter", "extrusion_ratio", formatBound(p.Emitter.ExtrusionRatio))
	c.Set("emitter", "safety_mode", strconv.FormatBool(p.Emitter.SafetyMode))

	c.Set("support", "layers", strconv.Itoa(p.Support.Layers))
	c.Set("support", "extruder_temp", formatBound(p.Support.ExtruderTemp))
	c.Set("support", "bed_temp", formatBound(p.Support.BedTemp))

	if p.Serial.Device != "" {
		c.Set("serial", "port", p.Serial.Device)
	}
	c.Set("serial", "baud", strconv.Itoa(p.Serial.BaudRate))
	c.Set("serial", "line_timeout", p.LineTimeout.String())

	c.Set("moonraker", "url", p.Moonraker.URL)
	if p.Moonraker.APIKey != "" {
		c.Set("moonraker", "api_key", p.Moonraker.APIKey)
	}
	c.Set("moonraker", "timeout", p.Moonraker.Timeout.String())
	return c
}
