package arrangement

import (
	"errors"
	"fmt"
)

var (
	ErrNoLevels      = errors.New("arrangement has no difficulty levels")
	ErrInvalidString = errors.New("invalid string number")
	ErrInvalidChord  = errors.New("invalid chord id")
	ErrInvalidPhrase = errors.New("invalid phrase")
)

// StandardMIDINotes are the open string pitches of a guitar in E standard
// (E2, A2, D3, G3, B3, E4)
var StandardMIDINotes = [StringCount]int{40, 45, 50, 55, 59, 64}

// DefaultChordNote is used for a chord whose template plays no strings
const DefaultChordNote = 35

// bassOctaveShift lowers bass pitches one octave below the guitar strings they share
const bassOctaveShift = 12

// MidiNote is a note or chord reduced to one absolute pitch
type MidiNote struct {
	Note     int // MIDI note number
	Time     int
	WasChord bool
}

func (m MidiNote) String() string {
	return fmt.Sprintf("Time: %d, Note: %d, Was Chord: %v", m.Time, m.Note, m.WasChord)
}

// pitchMapper converts string/fret positions into MIDI notes for one
// arrangement's tuning, capo and instrument.
type pitchMapper struct {
	tuning    [StringCount]int
	capo      int
	bass      bool
	templates []ChordTemplate
}

func newPitchMapper(arr *Arrangement) pitchMapper {
	return pitchMapper{
		tuning:    arr.Tuning,
		capo:      arr.Capo,
		bass:      arr.Bass,
		templates: arr.ChordTemplates,
	}
}

// lowestNote is the pitch of the lowest string played open
func (p pitchMapper) lowestNote() int {
	return StandardMIDINotes[0] + p.tuning[0] - p.bassAdjustment()
}

func (p pitchMapper) bassAdjustment() int {
	if p.bass {
		return bassOctaveShift
	}
	return 0
}

// midiNote returns the pitch of a string and fret. The capo only raises open
// strings because fret numbers are already absolute.
func (p pitchMapper) midiNote(str, fret int) (int, error) {
	if str < 0 || str >= StringCount {
		return 0, fmt.Errorf("%w: %d (must be 0-%d)", ErrInvalidString, str, StringCount-1)
	}

	note := StandardMIDINotes[str] + p.tuning[str] + fret - p.bassAdjustment()
	if p.capo > 0 && fret == 0 {
		note += p.capo
	}
	return note, nil
}

// chordNote returns the pitch of the lowest played string of the chord, which
// is not necessarily its root.
func (p pitchMapper) chordNote(chord Chord) (int, error) {
	if chord.ChordID < 0 || chord.ChordID >= len(p.templates) {
		return 0, fmt.Errorf("%w: %d at %d ms (%d templates)", ErrInvalidChord, chord.ChordID, chord.Time, len(p.templates))
	}

	template := p.templates[chord.ChordID]
	for str, fret := range template.Frets {
		if fret != -1 {
			return p.midiNote(str, fret)
		}
	}

	return DefaultChordNote, nil
}

func (p pitchMapper) fromNote(note Note) (MidiNote, error) {
	pitch, err := p.midiNote(note.String, note.Fret)
	if err != nil {
		return MidiNote{}, fmt.Errorf("note at %d ms: %w", note.Time, err)
	}
	return MidiNote{Note: pitch, Time: note.Time}, nil
}

func (p pitchMapper) fromChord(chord Chord) (MidiNote, error) {
	pitch, err := p.chordNote(chord)
	if err != nil {
		return MidiNote{}, err
	}
	return MidiNote{Note: pitch, Time: chord.Time, WasChord: true}, nil
}
