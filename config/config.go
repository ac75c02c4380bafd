// Package config stores the generation preferences in a YAML file
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leafo/showlights/generate"
	"github.com/leafo/showlights/showlight"
)

var ErrInvalidColor = errors.New("invalid fog color")

type FogPreferences struct {
	Generate  bool               `yaml:"generate"`
	Method    generate.FogMethod `yaml:"method"`
	Bars      int                `yaml:"bars"`
	MinTime   time.Duration      `yaml:"min_time"`
	Randomize bool               `yaml:"randomize"`
	Color     int                `yaml:"color"`
}

type BeamPreferences struct {
	Generate         bool                `yaml:"generate"`
	Method           generate.BeamMethod `yaml:"method"`
	MinTime          time.Duration       `yaml:"min_time"`
	Randomize        bool                `yaml:"randomize"`
	CompatibleColors bool                `yaml:"compatible_colors"`
}

type LaserPreferences struct {
	Generate bool `yaml:"generate"`
	Disable  bool `yaml:"disable"`
}

// Preferences are the saved generation settings
type Preferences struct {
	Fog    FogPreferences   `yaml:"fog"`
	Beam   BeamPreferences  `yaml:"beam"`
	Lasers LaserPreferences `yaml:"lasers"`
}

// DefaultBeamMinTime is the saved preference default, slower than the
// generator's own default
const DefaultBeamMinTime = 900 * time.Millisecond

func Default() Preferences {
	return Preferences{
		Fog: FogPreferences{
			Generate: true,
			Method:   generate.FogChangeEveryNthBar,
			Bars:     generate.DefaultBarInterval,
			MinTime:  generate.DefaultFogMinTime,
			Color:    generate.DefaultSingleColour,
		},
		Beam: BeamPreferences{
			Generate: true,
			Method:   generate.BeamMinTimeBetweenChanges,
			MinTime:  DefaultBeamMinTime,
		},
		Lasers: LaserPreferences{
			Generate: true,
		},
	}
}

// Load reads preferences from a YAML file. Settings missing from the file
// keep their defaults.
func Load(filename string) (Preferences, error) {
	file, err := os.Open(filename)
	if err != nil {
		return Preferences{}, fmt.Errorf("error opening preferences file: %w", err)
	}
	defer file.Close()

	prefs, err := Decode(file)
	if err != nil {
		return Preferences{}, fmt.Errorf("error reading %s: %w", filename, err)
	}
	return prefs, nil
}

// Decode parses YAML preferences on top of the defaults
func Decode(reader io.Reader) (Preferences, error) {
	prefs := Default()
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	if err := decoder.Decode(&prefs); err != nil && !errors.Is(err, io.EOF) {
		return Preferences{}, fmt.Errorf("failed to decode YAML: %w", err)
	}

	if err := prefs.Validate(); err != nil {
		return Preferences{}, err
	}
	prefs.Clamp()
	return prefs, nil
}

// Save writes the preferences as YAML
func Save(filename string, prefs Preferences) error {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(prefs); err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return err
	}

	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("error writing preferences file: %w", err)
	}
	return nil
}

func (p Preferences) Validate() error {
	if showlight.TypeOf(p.Fog.Color) != showlight.Fog {
		return fmt.Errorf("%w: %d (must be %d-%d)", ErrInvalidColor, p.Fog.Color, showlight.FogMin, showlight.FogMax)
	}
	return nil
}

// Clamp raises values below their minimums
func (p *Preferences) Clamp() {
	opts := p.Options()
	opts.Clamp()
	p.Fog.Bars = opts.Fog.BarInterval
	p.Fog.MinTime = opts.Fog.MinTime
	p.Beam.MinTime = opts.Beam.MinTime
}

// Options converts the preferences into generator options
func (p Preferences) Options() generate.Options {
	return generate.Options{
		Fog: generate.FogOptions{
			ShouldGenerate:  p.Fog.Generate,
			Method:          p.Fog.Method,
			MinTime:         p.Fog.MinTime,
			RandomizeColors: p.Fog.Randomize,
			BarInterval:     p.Fog.Bars,
			SingleColor:     p.Fog.Color,
		},
		Beam: generate.BeamOptions{
			ShouldGenerate:      p.Beam.Generate,
			Method:              p.Beam.Method,
			MinTime:             p.Beam.MinTime,
			RandomizeColors:     p.Beam.Randomize,
			UseCompatibleColors: p.Beam.CompatibleColors,
		},
		Laser: generate.LaserOptions{
			ShouldGenerate: p.Lasers.Generate,
			DisableLaser:   p.Lasers.Disable,
		},
	}
}

// FromOptions builds preferences that reproduce the given generator options
func FromOptions(opts generate.Options) Preferences {
	return Preferences{
		Fog: FogPreferences{
			Generate:  opts.Fog.ShouldGenerate,
			Method:    opts.Fog.Method,
			Bars:      opts.Fog.BarInterval,
			MinTime:   opts.Fog.MinTime,
			Randomize: opts.Fog.RandomizeColors,
			Color:     opts.Fog.SingleColor,
		},
		Beam: BeamPreferences{
			Generate:         opts.Beam.ShouldGenerate,
			Method:           opts.Beam.Method,
			MinTime:          opts.Beam.MinTime,
			Randomize:        opts.Beam.RandomizeColors,
			CompatibleColors: opts.Beam.UseCompatibleColors,
		},
		Lasers: LaserPreferences{
			Generate: opts.Laser.ShouldGenerate,
			Disable:  opts.Laser.DisableLaser,
		},
	}
}
