package arrangement

import (
	"fmt"
	"sort"
	"time"
)

// LowOctaveSpan is the distance from the lowest to the highest note of the
// lowest octave
const LowOctaveSpan = 11

// SoloSectionName is the section name that turns on the lasers
const SoloSectionName = "solo"

// Data is everything the generators need from one arrangement. It is built
// once by Extract and never modified afterwards.
type Data struct {
	MidiNotes       []MidiNote
	Sections        []Section
	Beats           []Beat
	FirstBeatTime   int
	SongLength      int
	SoloSectionTime int  // Time of the solo section used for the lasers
	HasSoloSection  bool // False when the arrangement has no solo section
	LowOctaveMin    int
	Version         time.Time
}

// LowOctaveMax is the highest note of the lowest octave
func (d *Data) LowOctaveMax() int {
	return d.LowOctaveMin + LowOctaveSpan
}

// Extract reduces an arrangement to its pitch notes and timing information.
// The arrangement is assumed to be structurally valid; violated assumptions
// (no levels, unknown chord ids or phrases) are returned as errors.
func Extract(arr *Arrangement, version time.Time) (*Data, error) {
	notes, chords, err := resolveNotesAndChords(arr)
	if err != nil {
		return nil, err
	}

	mapper := newPitchMapper(arr)
	midiNotes := make([]MidiNote, 0, len(notes)+len(chords))

	for _, note := range notes {
		mn, err := mapper.fromNote(note)
		if err != nil {
			return nil, err
		}
		midiNotes = append(midiNotes, mn)
	}

	for _, chord := range chords {
		mn, err := mapper.fromChord(chord)
		if err != nil {
			return nil, err
		}
		midiNotes = append(midiNotes, mn)
	}

	sort.SliceStable(midiNotes, func(i, j int) bool {
		return midiNotes[i].Time < midiNotes[j].Time
	})

	data := &Data{
		MidiNotes:     midiNotes,
		Sections:      arr.Sections,
		Beats:         arr.Beats,
		FirstBeatTime: arr.StartBeat,
		SongLength:    arr.SongLength,
		LowOctaveMin:  mapper.lowestNote(),
		Version:       version,
	}
	data.SoloSectionTime, data.HasSoloSection = findSoloSection(arr.Sections, arr.SongLength)

	return data, nil
}

// findSoloSection prefers a solo in the second half of the song, falling back
// to the first solo anywhere.
func findSoloSection(sections []Section, songLength int) (int, bool) {
	first := -1
	for i, section := range sections {
		if section.Name != SoloSectionName {
			continue
		}
		if section.Time >= songLength/2 {
			return section.Time, true
		}
		if first == -1 {
			first = i
		}
	}

	if first == -1 {
		return 0, false
	}
	return sections[first].Time, true
}

// resolveNotesAndChords picks the single note stream representing the
// arrangement at its highest difficulty.
func resolveNotesAndChords(arr *Arrangement) ([]Note, []Chord, error) {
	switch {
	case len(arr.Levels) == 0:
		return nil, nil, ErrNoLevels

	case len(arr.Levels) == 1:
		// No dynamic difficulty, everything is in the single level
		return arr.Levels[0].Notes, arr.Levels[0].Chords, nil

	case len(arr.TranscriptionTrack.Notes) > 0 || len(arr.TranscriptionTrack.Chords) > 0:
		return arr.TranscriptionTrack.Notes, arr.TranscriptionTrack.Chords, nil

	default:
		// Manually authored difficulty levels without a transcription track
		return buildTranscriptionTrack(arr)
	}
}

// buildTranscriptionTrack takes every phrase iteration from the level of the
// phrase's maximum difficulty. The last phrase iteration (END) is ignored.
func buildTranscriptionTrack(arr *Arrangement) ([]Note, []Chord, error) {
	var notes []Note
	var chords []Chord

	for i := 0; i < len(arr.PhraseIterations)-1; i++ {
		iteration := arr.PhraseIterations[i]
		if iteration.PhraseID < 0 || iteration.PhraseID >= len(arr.Phrases) {
			return nil, nil, fmt.Errorf("%w: phrase iteration %d references phrase %d", ErrInvalidPhrase, i, iteration.PhraseID)
		}

		maxDifficulty := arr.Phrases[iteration.PhraseID].MaxDifficulty
		if maxDifficulty == 0 {
			continue
		}
		if maxDifficulty < 0 || maxDifficulty >= len(arr.Levels) {
			return nil, nil, fmt.Errorf("%w: phrase %d has max difficulty %d but there are %d levels",
				ErrInvalidPhrase, iteration.PhraseID, maxDifficulty, len(arr.Levels))
		}

		startTime := iteration.Time
		endTime := arr.PhraseIterations[i+1].Time
		level := arr.Levels[maxDifficulty]

		for _, note := range level.Notes {
			if note.Time >= startTime && note.Time < endTime {
				notes = append(notes, note)
			}
		}
		for _, chord := range level.Chords {
			if chord.Time >= startTime && chord.Time < endTime {
				chords = append(chords, chord)
			}
		}
	}

	return notes, chords, nil
}
