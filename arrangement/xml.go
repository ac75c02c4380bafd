package arrangement

import (
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/leafo/showlights/showlight"
)

// Rocksmith 2014 arrangement XML. Only the elements needed for showlight
// generation are mapped. Times are seconds with three decimals.
type xmlSong struct {
	XMLName            xml.Name             `xml:"song"`
	Title              string               `xml:"title"`
	SongLength         string               `xml:"songLength"`
	StartBeat          string               `xml:"startBeat"`
	Capo               int                  `xml:"capo"`
	Tuning             xmlTuning            `xml:"tuning"`
	Properties         xmlProperties        `xml:"arrangementProperties"`
	Phrases            []xmlPhrase          `xml:"phrases>phrase"`
	PhraseIterations   []xmlPhraseIteration `xml:"phraseIterations>phraseIteration"`
	ChordTemplates     []xmlChordTemplate   `xml:"chordTemplates>chordTemplate"`
	Ebeats             []xmlEbeat           `xml:"ebeats>ebeat"`
	Sections           []xmlSection         `xml:"sections>section"`
	TranscriptionTrack xmlLevel             `xml:"transcriptionTrack"`
	Levels             []xmlLevel           `xml:"levels>level"`
}

type xmlTuning struct {
	String0 int `xml:"string0,attr"`
	String1 int `xml:"string1,attr"`
	String2 int `xml:"string2,attr"`
	String3 int `xml:"string3,attr"`
	String4 int `xml:"string4,attr"`
	String5 int `xml:"string5,attr"`
}

type xmlProperties struct {
	PathBass int `xml:"pathBass,attr"`
}

type xmlPhrase struct {
	Name          string `xml:"name,attr"`
	MaxDifficulty int    `xml:"maxDifficulty,attr"`
}

type xmlPhraseIteration struct {
	Time     string `xml:"time,attr"`
	PhraseID int    `xml:"phraseId,attr"`
}

// Fret attributes are strings so a missing attribute can be told apart from
// an open string.
type xmlChordTemplate struct {
	ChordName string `xml:"chordName,attr"`
	Fret0     string `xml:"fret0,attr"`
	Fret1     string `xml:"fret1,attr"`
	Fret2     string `xml:"fret2,attr"`
	Fret3     string `xml:"fret3,attr"`
	Fret4     string `xml:"fret4,attr"`
	Fret5     string `xml:"fret5,attr"`
}

type xmlEbeat struct {
	Time    string `xml:"time,attr"`
	Measure int    `xml:"measure,attr"`
}

type xmlSection struct {
	Name      string `xml:"name,attr"`
	StartTime string `xml:"startTime,attr"`
}

type xmlLevel struct {
	Difficulty int        `xml:"difficulty,attr"`
	Notes      []xmlNote  `xml:"notes>note"`
	Chords     []xmlChord `xml:"chords>chord"`
}

type xmlNote struct {
	Time   string `xml:"time,attr"`
	String int    `xml:"string,attr"`
	Fret   int    `xml:"fret,attr"`
}

type xmlChord struct {
	Time    string `xml:"time,attr"`
	ChordID int    `xml:"chordId,attr"`
}

// LoadFile reads a Rocksmith arrangement XML file
func LoadFile(filename string) (*Arrangement, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error opening arrangement file: %w", err)
	}
	defer file.Close()

	arr, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("error parsing arrangement file %s: %w", filename, err)
	}
	return arr, nil
}

// Decode parses a Rocksmith arrangement XML document
func Decode(reader io.Reader) (*Arrangement, error) {
	var song xmlSong
	if err := xml.NewDecoder(reader).Decode(&song); err != nil {
		return nil, fmt.Errorf("failed to decode XML: %w", err)
	}
	return song.toArrangement()
}

func (s *xmlSong) toArrangement() (*Arrangement, error) {
	var err error
	arr := &Arrangement{
		Title: strings.TrimSpace(s.Title),
		Capo:  s.Capo,
		Bass:  s.Properties.PathBass != 0,
		Tuning: [StringCount]int{
			s.Tuning.String0, s.Tuning.String1, s.Tuning.String2,
			s.Tuning.String3, s.Tuning.String4, s.Tuning.String5,
		},
	}

	if arr.SongLength, err = showlight.ParseSeconds(s.SongLength); err != nil {
		return nil, fmt.Errorf("songLength: %w", err)
	}
	// startBeat is optional in older files, the first beat is used instead
	if strings.TrimSpace(s.StartBeat) != "" {
		if arr.StartBeat, err = showlight.ParseSeconds(s.StartBeat); err != nil {
			return nil, fmt.Errorf("startBeat: %w", err)
		}
	}

	for _, p := range s.Phrases {
		arr.Phrases = append(arr.Phrases, Phrase{Name: p.Name, MaxDifficulty: p.MaxDifficulty})
	}

	for i, pi := range s.PhraseIterations {
		t, err := showlight.ParseSeconds(pi.Time)
		if err != nil {
			return nil, fmt.Errorf("phrase iteration %d: %w", i, err)
		}
		arr.PhraseIterations = append(arr.PhraseIterations, PhraseIteration{Time: t, PhraseID: pi.PhraseID})
	}

	for i, ct := range s.ChordTemplates {
		template := ChordTemplate{Name: ct.ChordName}
		frets := []string{ct.Fret0, ct.Fret1, ct.Fret2, ct.Fret3, ct.Fret4, ct.Fret5}
		for str, value := range frets {
			template.Frets[str] = parseFret(value)
		}
		if template.Frets == [StringCount]int{-1, -1, -1, -1, -1, -1} {
			log.Printf("Warning: chord template %d (%s) has no fretted strings", i, ct.ChordName)
		}
		arr.ChordTemplates = append(arr.ChordTemplates, template)
	}

	for i, eb := range s.Ebeats {
		t, err := showlight.ParseSeconds(eb.Time)
		if err != nil {
			return nil, fmt.Errorf("ebeat %d: %w", i, err)
		}
		arr.Beats = append(arr.Beats, Beat{Time: t, Measure: eb.Measure})
	}

	for i, sec := range s.Sections {
		t, err := showlight.ParseSeconds(sec.StartTime)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
		arr.Sections = append(arr.Sections, Section{Name: sec.Name, Time: t})
	}

	if strings.TrimSpace(s.StartBeat) == "" && len(arr.Beats) > 0 {
		arr.StartBeat = arr.Beats[0].Time
	}

	if arr.TranscriptionTrack, err = s.TranscriptionTrack.toLevel(); err != nil {
		return nil, fmt.Errorf("transcription track: %w", err)
	}

	for _, l := range s.Levels {
		level, err := l.toLevel()
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", l.Difficulty, err)
		}
		arr.Levels = append(arr.Levels, level)
	}

	return arr, nil
}

func (l *xmlLevel) toLevel() (Level, error) {
	level := Level{Difficulty: l.Difficulty}

	for i, n := range l.Notes {
		t, err := showlight.ParseSeconds(n.Time)
		if err != nil {
			return Level{}, fmt.Errorf("note %d: %w", i, err)
		}
		level.Notes = append(level.Notes, Note{Time: t, String: n.String, Fret: n.Fret})
	}

	for i, c := range l.Chords {
		t, err := showlight.ParseSeconds(c.Time)
		if err != nil {
			return Level{}, fmt.Errorf("chord %d: %w", i, err)
		}
		level.Chords = append(level.Chords, Chord{Time: t, ChordID: c.ChordID})
	}

	return level, nil
}

func parseFret(value string) int {
	fret, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return -1
	}
	return fret
}
