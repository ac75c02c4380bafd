package generate

import (
	"log"
	"slices"

	"github.com/leafo/showlights/arrangement"
	"github.com/leafo/showlights/showlight"
)

// NoGuitarSectionName marks a part of the song where the beams are turned off
const NoGuitarSectionName = "noguitar"

type beamGenerator struct {
	data *arrangement.Data
	opts BeamOptions
	rand Rand
	fog  []showlight.Showlight // time ordered fog cues of the same run
}

type beamStrategy func(g *beamGenerator) []showlight.Showlight

var beamStrategies = map[BeamMethod]beamStrategy{
	BeamMinTimeBetweenChanges: (*beamGenerator).minTimeBetweenChanges,
	BeamFollowFogNotes:        (*beamGenerator).followFogNotes,
}

// GenerateBeam creates the beam cues for an arrangement. The fog cues are the
// final fog stream of the same run; cues of other channels are ignored.
func GenerateBeam(data *arrangement.Data, opts BeamOptions, fog []showlight.Showlight, r Rand) []showlight.Showlight {
	strategy, ok := beamStrategies[opts.Method]
	if !ok {
		log.Printf("Warning: unknown beam generation method %s", opts.Method)
		return nil
	}

	fog = showlight.OfType(fog, showlight.Fog)
	showlight.SortByTime(fog)

	g := &beamGenerator{data: data, opts: opts, rand: r, fog: fog}
	return strategy(g)
}

func (g *beamGenerator) followFogNotes() []showlight.Showlight {
	result := make([]showlight.Showlight, 0, len(g.fog))
	for _, fog := range g.fog {
		result = append(result, showlight.Showlight{Time: fog.Time, Note: fog.Note + beamFogOffset})
	}
	return result
}

func (g *beamGenerator) minTimeBetweenChanges() []showlight.Showlight {
	minTime := int(g.opts.MinTime.Milliseconds())

	var result []showlight.Showlight
	previousTime := 0
	previous := -1

	for _, note := range g.data.MidiNotes {
		if note.Time-previousTime < minTime || note.Time == previousTime {
			continue
		}

		color := g.color(note, previous)
		if color == previous {
			continue
		}

		result = append(result, showlight.Showlight{Time: note.Time, Note: color})
		previousTime = note.Time
		previous = color
	}

	sections := g.data.Sections
	for i := 0; i < len(sections)-1; i++ {
		if sections[i].Name == NoGuitarSectionName {
			result = append(result, showlight.Showlight{Time: sections[i].Time, Note: showlight.BeamOff})
		}
	}

	showlight.SortByTime(result)
	return showlight.CollapseRepeats(result)
}

func (g *beamGenerator) color(note arrangement.MidiNote, previous int) int {
	if !g.opts.UseCompatibleColors {
		if g.opts.RandomizeColors {
			return RandomBeam(g.rand, previous)
		}
		return BeamColor(note.Note)
	}

	var fogColor int
	if active, ok := showlight.ActiveAt(g.fog, note.Time); ok {
		fogColor = active.Note
	} else {
		fogColor = RandomFog(g.rand, -1)
	}

	allowed := compatibleBeamColors(fogColor)
	natural := BeamColor(note.Note)

	if g.opts.RandomizeColors {
		return allowed[g.rand.IntN(len(allowed))]
	}
	if slices.Contains(allowed, natural) {
		return natural
	}
	return allowed[pitchIndex(note.Note, len(allowed))]
}

func pitchIndex(pitch, n int) int {
	return ((pitch % n) + n) % n
}
