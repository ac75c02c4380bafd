// Package showlight defines the lighting cues found in a Rocksmith showlights
// file and helpers for working with cue streams.
//
// A cue is a timestamp and a note code. The note code alone decides which
// channel a cue belongs to:
//
//	24-35  fog (ambient colour)
//	42     beams off
//	48-59  beam (accent colour)
//	66     lasers off
//	67     lasers on
//
// All times are integer milliseconds.
package showlight

import (
	"fmt"
	"sort"
)

// Note code ranges
const (
	FogMin    = 24
	FogMax    = 35
	BeamOff   = 42
	BeamMin   = 48
	BeamMax   = 59
	LasersOff = 66
	LasersOn  = 67
)

// Type is the lighting channel a cue drives
type Type int

const (
	Undefined Type = iota
	Fog
	Beam
	Laser
)

func (t Type) String() string {
	switch t {
	case Fog:
		return "Fog"
	case Beam:
		return "Beam"
	case Laser:
		return "Laser"
	default:
		return "Undefined"
	}
}

// TypeOf returns the channel encoded by a note code
func TypeOf(note int) Type {
	switch {
	case note >= FogMin && note <= FogMax:
		return Fog
	case note == BeamOff || (note >= BeamMin && note <= BeamMax):
		return Beam
	case note == LasersOff || note == LasersOn:
		return Laser
	default:
		return Undefined
	}
}

// Showlight is a single timed lighting cue
type Showlight struct {
	Time int // Milliseconds from the start of the audio
	Note int // Colour/gate code, see package docs
}

// Type returns the channel of the cue
func (s Showlight) Type() Type {
	return TypeOf(s.Note)
}

func (s Showlight) String() string {
	return fmt.Sprintf("Time: %s, Note: %d (%s)", FormatSeconds(s.Time), s.Note, s.Type())
}

// OfType returns the cues of the given channel, preserving order
func OfType(showlights []Showlight, t Type) []Showlight {
	var result []Showlight
	for _, sl := range showlights {
		if sl.Type() == t {
			result = append(result, sl)
		}
	}
	return result
}

// RemoveType returns a copy of the cues without any cue of the given channel
func RemoveType(showlights []Showlight, t Type) []Showlight {
	result := make([]Showlight, 0, len(showlights))
	for _, sl := range showlights {
		if sl.Type() != t {
			result = append(result, sl)
		}
	}
	return result
}

// SortByTime orders cues ascending by time. Cues with equal times keep their
// relative order.
func SortByTime(showlights []Showlight) {
	sort.SliceStable(showlights, func(i, j int) bool {
		return showlights[i].Time < showlights[j].Time
	})
}

// FirstIndex returns the index of the earliest cue of the given channel, or -1
func FirstIndex(showlights []Showlight, t Type) int {
	index := -1
	for i, sl := range showlights {
		if sl.Type() != t {
			continue
		}
		if index == -1 || sl.Time < showlights[index].Time {
			index = i
		}
	}
	return index
}

// CollapseRepeats drops every cue whose note equals the note of the cue kept
// before it. The input must already be time ordered.
func CollapseRepeats(showlights []Showlight) []Showlight {
	result := make([]Showlight, 0, len(showlights))
	for _, sl := range showlights {
		if len(result) > 0 && result[len(result)-1].Note == sl.Note {
			continue
		}
		result = append(result, sl)
	}
	return result
}

// ActiveAt returns the last cue at or before the given time. The input must be
// time ordered.
func ActiveAt(showlights []Showlight, time int) (Showlight, bool) {
	i := sort.Search(len(showlights), func(i int) bool {
		return showlights[i].Time > time
	})
	if i == 0 {
		return Showlight{}, false
	}
	return showlights[i-1], true
}
