// Package arrangement models a parsed Rocksmith instrumental arrangement and
// reduces it to the data the showlight generators work from.
//
// All times are integer milliseconds.
package arrangement

import (
	"fmt"
	"os"
	"time"
)

// StringCount is the number of strings an arrangement describes. Bass
// arrangements leave the upper strings unused.
const StringCount = 6

// Note is a single fretted or open string note
type Note struct {
	Time   int
	String int // 0 = lowest string
	Fret   int // 0 = open string
}

// Chord references a chord template by index
type Chord struct {
	Time    int
	ChordID int
}

// Level is one difficulty level of the arrangement
type Level struct {
	Difficulty int
	Notes      []Note
	Chords     []Chord
}

// ChordTemplate maps each string to the fret played, -1 when the string is not played
type ChordTemplate struct {
	Name  string
	Frets [StringCount]int
}

// Phrase holds the highest difficulty level authored for the phrase
type Phrase struct {
	Name          string
	MaxDifficulty int
}

// PhraseIteration is one occurrence of a phrase on the timeline. The last
// iteration of an arrangement is the END marker.
type PhraseIteration struct {
	Time     int
	PhraseID int
}

// Section is a named structural marker. The last section of an arrangement
// is the END marker.
type Section struct {
	Name string
	Time int
}

// NoMeasure marks a beat that does not start a measure
const NoMeasure = -1

// Beat is an entry of the beat grid
type Beat struct {
	Time    int
	Measure int // Measure number on downbeats, NoMeasure otherwise
}

// IsDownbeat reports whether the beat starts a measure
func (b Beat) IsDownbeat() bool {
	return b.Measure != NoMeasure
}

// Arrangement is a loaded instrumental arrangement
type Arrangement struct {
	Title              string
	Levels             []Level
	TranscriptionTrack Level // Precomputed highest difficulty notes, may be empty
	ChordTemplates     []ChordTemplate
	Tuning             [StringCount]int // Semitone offset per string from E standard
	Capo               int
	Bass               bool
	Phrases            []Phrase
	PhraseIterations   []PhraseIteration
	Sections           []Section
	Beats              []Beat
	SongLength         int
	StartBeat          int
}

// Source loads arrangements by identity and reports the version of what it
// would load. Versions are compared with time.Time.Equal.
type Source interface {
	Version(id string) (time.Time, error)
	Load(id string) (*Arrangement, error)
}

// FileSource loads arrangement XML files, the identity being the file path
// and the version its modification time.
type FileSource struct{}

func (FileSource) Version(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat arrangement: %w", err)
	}
	return info.ModTime(), nil
}

func (FileSource) Load(path string) (*Arrangement, error) {
	return LoadFile(path)
}
