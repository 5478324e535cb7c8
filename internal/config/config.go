package config

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/material"
	"github.com/san-kum/rigidsim/internal/world"
)

const (
	DefaultProfile    = "desktop"
	DefaultScenario   = "drop"
	DefaultDuration   = 10.0
	DefaultGravity    = -9.82
	DefaultTolerance  = 1e-7
	DefaultThrowSpeed = 4.0
)

type Config struct {
	Profile     string               `yaml:"profile"`
	Scenario    string               `yaml:"scenario"`
	Duration    float64              `yaml:"duration"`
	Seed        int64                `yaml:"seed"`
	Gravity     [3]float64           `yaml:"gravity"`
	Timestep    float64              `yaml:"timestep"`
	MaxSubsteps int                  `yaml:"max_substeps"`
	Iterations  int                  `yaml:"iterations"`
	Tolerance   float64              `yaml:"tolerance"`
	Sleep       SleepConfig          `yaml:"sleep"`
	Contact     material.ContactRule `yaml:"contact"`
	Drag        DragConfig           `yaml:"drag"`
	Throw       ThrowConfig          `yaml:"throw"`
	Materials   []material.Material  `yaml:"materials"`
	Rules       []RuleConfig         `yaml:"rules"`
}

type SleepConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Speed        float64 `yaml:"speed"`
	AngularSpeed float64 `yaml:"angular_speed"`
	Time         float64 `yaml:"time"`
}

type DragConfig struct {
	Stiffness  float64 `yaml:"stiffness"`
	Relaxation float64 `yaml:"relaxation"`
	MaxForce   float64 `yaml:"max_force"`
}

type ThrowConfig struct {
	Speed float64 `yaml:"speed"`
}

type RuleConfig struct {
	A    string               `yaml:"a"`
	B    string               `yaml:"b"`
	Rule material.ContactRule `yaml:",inline"`
}

func DefaultConfig() *Config {
	cfg := &Config{
		Profile:   DefaultProfile,
		Scenario:  DefaultScenario,
		Duration:  DefaultDuration,
		Gravity:   [3]float64{0, DefaultGravity, 0},
		Tolerance: DefaultTolerance,
		Sleep: SleepConfig{
			Enabled:      true,
			Speed:        0.1,
			AngularSpeed: 0.1,
			Time:         1.0,
		},
		Contact: material.DefaultRule(),
		Throw:   ThrowConfig{Speed: DefaultThrowSpeed},
	}
	Profiles[DefaultProfile].apply(cfg)
	return cfg
}

// Load reads a yaml file. The file's profile is applied first so explicit
// fields in the file override it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var head struct {
		Profile string `yaml:"profile"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if head.Profile != "" {
		if err := cfg.ApplyProfile(head.Profile); err != nil {
			return nil, err
		}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyProfile overwrites the stepping and drag settings with the named profile.
func (c *Config) ApplyProfile(name string) error {
	p, ok := Profiles[name]
	if !ok {
		return dynamo.NewConfigError("profile", name, dynamo.ErrInvalidConfig)
	}
	p.apply(c)
	return nil
}

func (c *Config) Validate() error {
	if _, err := c.WorldOptions(); err != nil {
		return err
	}
	if err := c.DragSoftness().Validate(); err != nil {
		return err
	}
	if c.Drag.MaxForce < 0 {
		return dynamo.NewConfigError("drag.max_force", c.Drag.MaxForce, dynamo.ErrInvalidConfig)
	}
	if !(c.Duration > 0) {
		return dynamo.NewConfigError("duration", c.Duration, dynamo.ErrInvalidConfig)
	}
	if c.Throw.Speed < 0 {
		return dynamo.NewConfigError("throw.speed", c.Throw.Speed, dynamo.ErrInvalidConfig)
	}
	return nil
}

// WorldOptions converts the config to world options and validates them.
func (c *Config) WorldOptions() (world.Options, error) {
	opts := world.Options{
		Gravity:       mgl64.Vec3(c.Gravity),
		FixedTimestep: c.Timestep,
		MaxSubsteps:   c.MaxSubsteps,
		Iterations:    c.Iterations,
		Tolerance:     c.Tolerance,
		Sleep: world.SleepOptions{
			Enabled:      c.Sleep.Enabled,
			Speed:        c.Sleep.Speed,
			AngularSpeed: c.Sleep.AngularSpeed,
			Time:         c.Sleep.Time,
		},
		DefaultRule: c.Contact,
		Materials:   c.Materials,
	}
	for _, r := range c.Rules {
		opts.Rules = append(opts.Rules, world.RuleSpec{A: r.A, B: r.B, Rule: r.Rule})
	}
	if err := opts.Validate(); err != nil {
		return world.Options{}, err
	}
	return opts, nil
}

func (c *Config) DragSoftness() constraint.Softness {
	return constraint.Softness{Stiffness: c.Drag.Stiffness, Relaxation: c.Drag.Relaxation}
}
