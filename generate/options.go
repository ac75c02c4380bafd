package generate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leafo/showlights/showlight"
)

var ErrUnknownMethod = errors.New("unknown generation method")

// FogMethod selects how fog colour changes are placed
type FogMethod int

const (
	FogChangeEveryNthBar FogMethod = iota
	FogMinTimeBetweenChanges
	FogFromSectionNames
	FogFromLowestOctaveNotes
	FogFromChords
	FogSingleColor
)

var fogMethodNames = map[FogMethod]string{
	FogChangeEveryNthBar:     "bars",
	FogMinTimeBetweenChanges: "time",
	FogFromSectionNames:      "sections",
	FogFromLowestOctaveNotes: "octave",
	FogFromChords:            "chords",
	FogSingleColor:           "single",
}

func (m FogMethod) String() string {
	if name, ok := fogMethodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("FogMethod(%d)", int(m))
}

// ParseFogMethod converts a method name such as "bars" into a FogMethod
func ParseFogMethod(name string) (FogMethod, error) {
	for method, methodName := range fogMethodNames {
		if methodName == strings.ToLower(name) {
			return method, nil
		}
	}
	return 0, fmt.Errorf("%w: fog method %q", ErrUnknownMethod, name)
}

func (m FogMethod) MarshalText() ([]byte, error) {
	if _, ok := fogMethodNames[m]; !ok {
		return nil, fmt.Errorf("%w: fog method %d", ErrUnknownMethod, int(m))
	}
	return []byte(m.String()), nil
}

func (m *FogMethod) UnmarshalText(text []byte) error {
	method, err := ParseFogMethod(string(text))
	if err != nil {
		return err
	}
	*m = method
	return nil
}

// BeamMethod selects how beam colour changes are placed
type BeamMethod int

const (
	BeamMinTimeBetweenChanges BeamMethod = iota
	BeamFollowFogNotes
)

var beamMethodNames = map[BeamMethod]string{
	BeamMinTimeBetweenChanges: "time",
	BeamFollowFogNotes:        "fog",
}

func (m BeamMethod) String() string {
	if name, ok := beamMethodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("BeamMethod(%d)", int(m))
}

// ParseBeamMethod converts a method name such as "time" into a BeamMethod
func ParseBeamMethod(name string) (BeamMethod, error) {
	for method, methodName := range beamMethodNames {
		if methodName == strings.ToLower(name) {
			return method, nil
		}
	}
	return 0, fmt.Errorf("%w: beam method %q", ErrUnknownMethod, name)
}

func (m BeamMethod) MarshalText() ([]byte, error) {
	if _, ok := beamMethodNames[m]; !ok {
		return nil, fmt.Errorf("%w: beam method %d", ErrUnknownMethod, int(m))
	}
	return []byte(m.String()), nil
}

func (m *BeamMethod) UnmarshalText(text []byte) error {
	method, err := ParseBeamMethod(string(text))
	if err != nil {
		return err
	}
	*m = method
	return nil
}

// FogMethodNames lists the fog method names in declaration order
func FogMethodNames() []string {
	names := make([]string, 0, len(fogMethodNames))
	for m := FogChangeEveryNthBar; m <= FogSingleColor; m++ {
		names = append(names, m.String())
	}
	return names
}

// BeamMethodNames lists the beam method names in declaration order
func BeamMethodNames() []string {
	return []string{BeamMinTimeBetweenChanges.String(), BeamFollowFogNotes.String()}
}

type FogOptions struct {
	ShouldGenerate  bool
	Method          FogMethod
	MinTime         time.Duration // FogMinTimeBetweenChanges only
	RandomizeColors bool
	BarInterval     int // FogChangeEveryNthBar only
	SingleColor     int // FogSingleColor only
}

type BeamOptions struct {
	ShouldGenerate      bool
	Method              BeamMethod
	MinTime             time.Duration
	RandomizeColors     bool
	UseCompatibleColors bool
}

type LaserOptions struct {
	ShouldGenerate bool
	DisableLaser   bool
}

// Options configures every channel of one generation run
type Options struct {
	Fog   FogOptions
	Beam  BeamOptions
	Laser LaserOptions
}

const (
	DefaultBarInterval  = 16
	DefaultFogMinTime   = 5 * time.Second
	DefaultBeamMinTime  = 500 * time.Millisecond
	MinimumTimeBetween  = 10 * time.Millisecond
	DefaultSingleColour = showlight.FogMin
)

// DefaultOptions generates every channel with the default methods
func DefaultOptions() Options {
	return Options{
		Fog: FogOptions{
			ShouldGenerate: true,
			Method:         FogChangeEveryNthBar,
			MinTime:        DefaultFogMinTime,
			BarInterval:    DefaultBarInterval,
			SingleColor:    DefaultSingleColour,
		},
		Beam: BeamOptions{
			ShouldGenerate: true,
			Method:         BeamMinTimeBetweenChanges,
			MinTime:        DefaultBeamMinTime,
		},
		Laser: LaserOptions{
			ShouldGenerate: true,
		},
	}
}

// Clamp raises intervals below their minimums
func (o *Options) Clamp() {
	if o.Fog.BarInterval < 1 {
		o.Fog.BarInterval = 1
	}
	if o.Fog.MinTime < MinimumTimeBetween {
		o.Fog.MinTime = MinimumTimeBetween
	}
	if o.Beam.MinTime < MinimumTimeBetween {
		o.Beam.MinTime = MinimumTimeBetween
	}
}
