package generate

import (
	"log"
	"sort"

	"github.com/leafo/showlights/arrangement"
	"github.com/leafo/showlights/showlight"
)

type fogGenerator struct {
	data *arrangement.Data
	opts FogOptions
	rand Rand
}

type fogStrategy func(g *fogGenerator) []showlight.Showlight

var fogStrategies = map[FogMethod]fogStrategy{
	FogChangeEveryNthBar:     (*fogGenerator).everyNthBar,
	FogMinTimeBetweenChanges: (*fogGenerator).minTimeBetweenChanges,
	FogFromSectionNames:      (*fogGenerator).fromSectionNames,
	FogFromLowestOctaveNotes: (*fogGenerator).fromLowestOctave,
	FogFromChords:            (*fogGenerator).fromChords,
	FogSingleColor:           (*fogGenerator).singleColor,
}

// GenerateFog creates the fog cues for an arrangement. An unknown method
// logs a warning and produces no cues.
func GenerateFog(data *arrangement.Data, opts FogOptions, r Rand) []showlight.Showlight {
	strategy, ok := fogStrategies[opts.Method]
	if !ok {
		log.Printf("Warning: unknown fog generation method %s", opts.Method)
		return nil
	}

	g := &fogGenerator{data: data, opts: opts, rand: r}
	return strategy(g)
}

func (g *fogGenerator) color(pitch, previous int) int {
	if g.opts.RandomizeColors {
		return RandomFog(g.rand, previous)
	}
	return FogColor(pitch)
}

// firstNoteAtOrAfter finds the first note at or after time in a time ordered list
func firstNoteAtOrAfter(notes []arrangement.MidiNote, time int) (arrangement.MidiNote, bool) {
	i := sort.Search(len(notes), func(i int) bool {
		return notes[i].Time >= time
	})
	if i == len(notes) {
		return arrangement.MidiNote{}, false
	}
	return notes[i], true
}

func (g *fogGenerator) everyNthBar() []showlight.Showlight {
	notes := g.data.MidiNotes
	if len(notes) == 0 {
		return nil
	}

	interval := max(g.opts.BarInterval, 1)
	lastNoteTime := notes[len(notes)-1].Time

	var result []showlight.Showlight
	barCounter := 0
	previous := 0

	for _, beat := range g.data.Beats {
		if beat.IsDownbeat() {
			barCounter++
		}
		if barCounter < interval {
			continue
		}
		if beat.Time > lastNoteTime {
			break
		}

		note, ok := firstNoteAtOrAfter(notes, beat.Time)
		if !ok {
			break
		}

		barCounter = 0
		color := g.color(note.Note, previous)
		if color == previous {
			continue
		}

		result = append(result, showlight.Showlight{Time: beat.Time, Note: color})
		previous = color
	}

	return result
}

func (g *fogGenerator) minTimeBetweenChanges() []showlight.Showlight {
	minTime := int(g.opts.MinTime.Milliseconds())

	var result []showlight.Showlight
	previousTime := 0
	previous := 0

	for _, note := range g.data.MidiNotes {
		if note.Time-previousTime < minTime {
			continue
		}

		color := g.color(note.Note, previous)
		if color == previous {
			continue
		}

		result = append(result, showlight.Showlight{Time: note.Time, Note: color})
		previousTime = note.Time
		previous = color
	}

	return result
}

// fromSectionNames gives every distinct section name its own colour. The
// last section marks the end of the song and gets no cue.
func (g *fogGenerator) fromSectionNames() []showlight.Showlight {
	sections := g.data.Sections
	assigned := make(map[string]int)

	var result []showlight.Showlight
	previousName := ""
	previous := 0

	for i := 0; i < len(sections)-1; i++ {
		section := sections[i]
		if section.Name == previousName {
			continue
		}

		color, ok := assigned[section.Name]
		if ok {
			if color == previous {
				continue
			}
		} else {
			color = g.sectionColor(section.Time, previous)
			assigned[section.Name] = color
		}

		result = append(result, showlight.Showlight{Time: section.Time, Note: color})
		previousName = section.Name
		previous = color
	}

	return result
}

func (g *fogGenerator) sectionColor(time, previous int) int {
	note, ok := firstNoteAtOrAfter(g.data.MidiNotes, time)
	if !ok {
		return RandomFog(g.rand, previous)
	}

	color := FogColor(note.Note)
	if g.opts.RandomizeColors {
		color = RandomFog(g.rand, -1)
	}
	if color == previous {
		color = RandomFog(g.rand, previous)
	}
	return color
}

func (g *fogGenerator) fromLowestOctave() []showlight.Showlight {
	low, high := g.data.LowOctaveMin, g.data.LowOctaveMax()
	return g.fromFilteredNotes(func(note arrangement.MidiNote) bool {
		return note.Note >= low && note.Note <= high
	})
}

func (g *fogGenerator) fromChords() []showlight.Showlight {
	return g.fromFilteredNotes(func(note arrangement.MidiNote) bool {
		return note.WasChord
	})
}

func (g *fogGenerator) fromFilteredNotes(include func(arrangement.MidiNote) bool) []showlight.Showlight {
	var result []showlight.Showlight
	previous := 0

	for _, note := range g.data.MidiNotes {
		if !include(note) {
			continue
		}

		color := g.color(note.Note, previous)
		if color == previous {
			continue
		}

		result = append(result, showlight.Showlight{Time: note.Time, Note: color})
		previous = color
	}

	return result
}

func (g *fogGenerator) singleColor() []showlight.Showlight {
	if showlight.TypeOf(g.opts.SingleColor) != showlight.Fog {
		log.Printf("Warning: single fog color %d is not a fog color", g.opts.SingleColor)
		return nil
	}
	return []showlight.Showlight{{Time: g.data.FirstBeatTime, Note: g.opts.SingleColor}}
}
