// Package generate creates fog, beam and laser cues from the notes and
// structure of an arrangement.
package generate

import (
	"fmt"
	"log"

	"github.com/leafo/showlights/arrangement"
	"github.com/leafo/showlights/showlight"
)

// ExtraFogDelay is how long after the end of the song the closing fog cue is
// placed. Without a fog change at the very end the game may show the wrong
// colour over the last part of the song.
const ExtraFogDelay = 100

// Loader provides extracted arrangement data, usually an *arrangement.Cache
type Loader interface {
	Load(id string) (*arrangement.Data, error)
}

// Generator runs the full generation pipeline for one song
type Generator struct {
	Loader     Loader
	FogSource  string // Arrangement used for fog and song timing
	BeamSource string // Arrangement used for beams, defaults to FogSource
	Options    Options
	Rand       Rand
}

func NewGenerator(loader Loader, fogSource, beamSource string, opts Options, r Rand) *Generator {
	if r == nil {
		r = DefaultRand
	}
	return &Generator{
		Loader:     loader,
		FogSource:  fogSource,
		BeamSource: beamSource,
		Options:    opts,
		Rand:       r,
	}
}

// Generate returns the complete, time ordered cue list. Cues in initial for
// channels that are not regenerated are kept.
func (g *Generator) Generate(initial []showlight.Showlight) ([]showlight.Showlight, error) {
	r := g.Rand
	if r == nil {
		r = DefaultRand
	}

	fogData, err := g.Loader.Load(g.FogSource)
	if err != nil {
		return nil, fmt.Errorf("failed to load fog arrangement: %w", err)
	}

	beamData := fogData
	if g.BeamSource != "" && g.BeamSource != g.FogSource {
		beamData, err = g.Loader.Load(g.BeamSource)
		if err != nil {
			return nil, fmt.Errorf("failed to load beam arrangement: %w", err)
		}
	}

	if len(fogData.MidiNotes) == 0 {
		log.Printf("Warning: no notes found in %s", g.FogSource)
	}

	firstBeat := fogData.FirstBeatTime
	opts := g.Options
	result := make([]showlight.Showlight, 0, len(initial))
	result = append(result, initial...)

	fog := showlight.OfType(initial, showlight.Fog)
	if opts.Fog.ShouldGenerate {
		result = showlight.RemoveType(result, showlight.Fog)
		fog = GenerateFog(fogData, opts.Fog, r)
		fog = ValidateFirstCue(fog, showlight.Fog, firstBeat, r)
		result = append(result, fog...)
	}

	if opts.Beam.ShouldGenerate {
		result = showlight.RemoveType(result, showlight.Beam)
		beam := GenerateBeam(beamData, opts.Beam, fog, r)
		beam = ValidateFirstCue(beam, showlight.Beam, firstBeat, r)
		result = append(result, beam...)
	}

	if opts.Laser.ShouldGenerate {
		result = showlight.RemoveType(result, showlight.Laser)
		result = append(result, GenerateLaser(fogData, opts.Laser)...)
	}

	result = addExtraFog(result, fogData.SongLength)

	showlight.SortByTime(result)
	return result, nil
}

// ValidateFirstCue makes sure the channel starts at the first beat, either by
// moving its earliest cue there or by adding a random colour when the channel
// has no cues.
func ValidateFirstCue(cues []showlight.Showlight, t showlight.Type, firstBeatTime int, r Rand) []showlight.Showlight {
	index := showlight.FirstIndex(cues, t)
	if index != -1 {
		cues[index].Time = firstBeatTime
		return cues
	}

	var note int
	switch t {
	case showlight.Fog:
		note = RandomFog(r, -1)
	case showlight.Beam:
		note = RandomBeam(r, -1)
	default:
		return cues
	}

	return append(cues, showlight.Showlight{Time: firstBeatTime, Note: note})
}

func addExtraFog(cues []showlight.Showlight, songLength int) []showlight.Showlight {
	for _, sl := range cues {
		if sl.Type() == showlight.Fog && sl.Time >= songLength {
			return cues
		}
	}
	return append(cues, showlight.Showlight{Time: songLength + ExtraFogDelay, Note: showlight.FogMax})
}
