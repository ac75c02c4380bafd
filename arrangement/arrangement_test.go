package arrangement

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testArrangementXML = `<?xml version="1.0" encoding="utf-8"?>
<song version="7">
  <title>Test Song</title>
  <arrangement>Lead</arrangement>
  <songLength>200.000</songLength>
  <startBeat>1.500</startBeat>
  <tuning string0="-2" string1="0" string2="0" string3="0" string4="0" string5="0" />
  <capo>2</capo>
  <arrangementProperties pathLead="1" pathBass="0" />
  <phrases count="2">
    <phrase disparity="0" ignore="0" maxDifficulty="0" name="COUNT" solo="0" />
    <phrase disparity="0" ignore="0" maxDifficulty="1" name="riff" solo="0" />
  </phrases>
  <phraseIterations count="2">
    <phraseIteration time="1.500" phraseId="1" variation="" />
    <phraseIteration time="190.000" phraseId="0" variation="" />
  </phraseIterations>
  <chordTemplates count="2">
    <chordTemplate chordName="G5" displayName="G5" fret0="3" fret1="5" fret2="5" fret3="-1" fret4="-1" fret5="-1" />
    <chordTemplate chordName="A" displayName="A" fret0="-1" fret1="0" fret2="2" fret3="2" fret4="2" fret5="0" />
  </chordTemplates>
  <ebeats count="4">
    <ebeat time="1.500" measure="1" />
    <ebeat time="2.000" measure="-1" />
    <ebeat time="2.500" measure="-1" />
    <ebeat time="3.000" measure="-1" />
  </ebeats>
  <sections count="3">
    <section name="intro" number="1" startTime="1.500" />
    <section name="solo" number="1" startTime="90.000" />
    <section name="noguitar" number="1" startTime="190.000" />
  </sections>
  <transcriptionTrack difficulty="-1">
    <notes count="0" />
    <chords count="0" />
  </transcriptionTrack>
  <levels count="1">
    <level difficulty="0">
      <notes count="2">
        <note time="2.000" string="0" fret="0" />
        <note time="3.250" string="2" fret="5" />
      </notes>
      <chords count="1">
        <chord time="2.500" chordId="1" />
      </chords>
    </level>
  </levels>
</song>`

func TestDecodeArrangement(t *testing.T) {
	arr, err := Decode(strings.NewReader(testArrangementXML))
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal("Test Song", arr.Title)
	assert.Equal(200000, arr.SongLength)
	assert.Equal(1500, arr.StartBeat)
	assert.Equal(2, arr.Capo)
	assert.False(arr.Bass)
	assert.Equal([StringCount]int{-2, 0, 0, 0, 0, 0}, arr.Tuning)

	require.Len(t, arr.ChordTemplates, 2)
	assert.Equal([StringCount]int{3, 5, 5, -1, -1, -1}, arr.ChordTemplates[0].Frets)
	assert.Equal([StringCount]int{-1, 0, 2, 2, 2, 0}, arr.ChordTemplates[1].Frets)

	assert.Equal([]Beat{{1500, 1}, {2000, NoMeasure}, {2500, NoMeasure}, {3000, NoMeasure}}, arr.Beats)
	assert.True(arr.Beats[0].IsDownbeat())
	assert.False(arr.Beats[1].IsDownbeat())

	assert.Equal([]Section{{"intro", 1500}, {"solo", 90000}, {"noguitar", 190000}}, arr.Sections)
	assert.Equal([]PhraseIteration{{1500, 1}, {190000, 0}}, arr.PhraseIterations)
	assert.Equal(1, arr.Phrases[1].MaxDifficulty)

	require.Len(t, arr.Levels, 1)
	assert.Equal([]Note{{Time: 2000, String: 0, Fret: 0}, {Time: 3250, String: 2, Fret: 5}}, arr.Levels[0].Notes)
	assert.Equal([]Chord{{Time: 2500, ChordID: 1}}, arr.Levels[0].Chords)
	assert.Empty(arr.TranscriptionTrack.Notes)
}

func TestDecodeRejectsBadTimes(t *testing.T) {
	data := strings.Replace(testArrangementXML, `<note time="2.000"`, `<note time="two"`, 1)
	_, err := Decode(strings.NewReader(data))
	assert.Error(t, err)
}

func TestDecodeMissingFretIsNotPlayed(t *testing.T) {
	data := strings.Replace(testArrangementXML, `fret0="3" `, ``, 1)
	arr, err := Decode(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, -1, arr.ChordTemplates[0].Frets[0])
}

func TestMidiNoteMapping(t *testing.T) {
	tests := []struct {
		name   string
		mapper pitchMapper
		str    int
		fret   int
		want   int
	}{
		{"open low E", pitchMapper{}, 0, 0, 40},
		{"fretted high E", pitchMapper{}, 5, 12, 76},
		{"drop D low string", pitchMapper{tuning: [6]int{-2}}, 0, 0, 38},
		{"capo raises open string", pitchMapper{capo: 3}, 1, 0, 48},
		{"capo ignored on fretted note", pitchMapper{capo: 3}, 1, 5, 50},
		{"bass is an octave lower", pitchMapper{bass: true}, 0, 0, 28},
		{"bass fretted with capo", pitchMapper{bass: true, capo: 2}, 3, 4, 47},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.mapper.midiNote(tt.str, tt.fret)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := pitchMapper{}.midiNote(6, 0)
	assert.ErrorIs(t, err, ErrInvalidString)
}

func TestChordNoteUsesLowestPlayedString(t *testing.T) {
	mapper := pitchMapper{templates: []ChordTemplate{
		{Frets: [6]int{-1, -1, 2, 2, 2, -1}},
		{Frets: [6]int{-1, -1, -1, -1, -1, -1}},
	}}

	note, err := mapper.chordNote(Chord{ChordID: 0})
	require.NoError(t, err)
	assert.Equal(t, 52, note)

	note, err = mapper.chordNote(Chord{ChordID: 1})
	require.NoError(t, err)
	assert.Equal(t, DefaultChordNote, note)

	_, err = mapper.chordNote(Chord{ChordID: 2})
	assert.ErrorIs(t, err, ErrInvalidChord)
}

func TestExtractSingleLevel(t *testing.T) {
	arr, err := Decode(strings.NewReader(testArrangementXML))
	require.NoError(t, err)

	version := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err := Extract(arr, version)
	require.NoError(t, err)

	assert := assert.New(t)
	// Open low string in drop D with capo 2, the A chord from its A string, D string fret 5
	assert.Equal([]MidiNote{
		{Note: 40, Time: 2000},
		{Note: 47, Time: 2500, WasChord: true},
		{Note: 55, Time: 3250},
	}, data.MidiNotes)
	assert.Equal(38, data.LowOctaveMin)
	assert.Equal(49, data.LowOctaveMax())
	assert.Equal(1500, data.FirstBeatTime)
	assert.Equal(200000, data.SongLength)
	assert.True(data.HasSoloSection)
	assert.Equal(90000, data.SoloSectionTime)
	assert.True(version.Equal(data.Version))
}

func TestExtractNoLevels(t *testing.T) {
	_, err := Extract(&Arrangement{}, time.Time{})
	assert.ErrorIs(t, err, ErrNoLevels)
}

func TestExtractUsesTranscriptionTrack(t *testing.T) {
	arr := &Arrangement{
		Levels: []Level{
			{Notes: []Note{{Time: 100, String: 0, Fret: 1}}},
			{Notes: []Note{{Time: 100, String: 0, Fret: 2}}},
		},
		TranscriptionTrack: Level{Notes: []Note{{Time: 100, String: 0, Fret: 7}}},
	}

	data, err := Extract(arr, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []MidiNote{{Note: 47, Time: 100}}, data.MidiNotes)
}

func TestExtractBuildsTranscriptionFromPhrases(t *testing.T) {
	arr := &Arrangement{
		Phrases: []Phrase{
			{Name: "COUNT", MaxDifficulty: 0},
			{Name: "verse", MaxDifficulty: 1},
			{Name: "chorus", MaxDifficulty: 2},
		},
		PhraseIterations: []PhraseIteration{
			{Time: 0, PhraseID: 0},
			{Time: 1000, PhraseID: 1},
			{Time: 2000, PhraseID: 2},
			{Time: 3000, PhraseID: 0}, // END
		},
		ChordTemplates: []ChordTemplate{{Frets: [6]int{-1, 3, -1, -1, -1, -1}}},
		Levels: []Level{
			{Notes: []Note{{Time: 500, Fret: 1}, {Time: 1500, Fret: 1}, {Time: 2500, Fret: 1}}},
			{Notes: []Note{{Time: 500, Fret: 2}, {Time: 1500, Fret: 2}, {Time: 2500, Fret: 2}}},
			{
				Notes:  []Note{{Time: 1500, Fret: 3}, {Time: 2000, Fret: 3}, {Time: 3000, Fret: 3}},
				Chords: []Chord{{Time: 2999, ChordID: 0}},
			},
		},
	}

	data, err := Extract(arr, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []MidiNote{
		{Note: 42, Time: 1500},
		{Note: 43, Time: 2000},
		{Note: 48, Time: 2999, WasChord: true},
	}, data.MidiNotes)
}

func TestExtractRejectsUnknownPhrase(t *testing.T) {
	arr := &Arrangement{
		Levels:           []Level{{}, {}},
		Phrases:          []Phrase{{MaxDifficulty: 1}},
		PhraseIterations: []PhraseIteration{{Time: 0, PhraseID: 4}, {Time: 10, PhraseID: 0}},
	}
	_, err := Extract(arr, time.Time{})
	assert.ErrorIs(t, err, ErrInvalidPhrase)

	arr.PhraseIterations[0].PhraseID = 0
	arr.Phrases[0].MaxDifficulty = 5
	_, err = Extract(arr, time.Time{})
	assert.ErrorIs(t, err, ErrInvalidPhrase)
}

func TestFindSoloSection(t *testing.T) {
	tests := []struct {
		name     string
		sections []Section
		wantTime int
		wantOK   bool
	}{
		{"none", []Section{{"intro", 0}, {"noguitar", 100000}}, 0, false},
		{"only early solo", []Section{{"solo", 30000}, {"verse", 60000}}, 30000, true},
		{"prefers second half", []Section{{"solo", 30000}, {"solo", 120000}, {"solo", 150000}}, 120000, true},
		{"exactly half way", []Section{{"solo", 10000}, {"solo", 100000}}, 100000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := findSoloSection(tt.sections, 200000)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantTime, got)
		})
	}
}

type fakeSource struct {
	versions map[string]time.Time
	arr      *Arrangement
	loads    int
}

func (f *fakeSource) Version(id string) (time.Time, error) {
	return f.versions[id], nil
}

func (f *fakeSource) Load(id string) (*Arrangement, error) {
	f.loads++
	return f.arr, nil
}

func TestCacheGetPut(t *testing.T) {
	cache := NewCache(&fakeSource{}, nil)
	v1 := time.Unix(100, 0)
	v2 := time.Unix(200, 0)

	_, ok := cache.Get("song.xml", v1)
	assert.False(t, ok)

	data := &Data{Version: v1}
	cache.Put("song.xml", data)

	got, ok := cache.Get("song.xml", v1)
	assert.True(t, ok)
	assert.Same(t, data, got)

	_, ok = cache.Get("song.xml", v2)
	assert.False(t, ok, "stale version must miss")

	_, ok = cache.Get("other.xml", v1)
	assert.False(t, ok)
}

func TestCacheLoadRebuildsOnVersionChange(t *testing.T) {
	source := &fakeSource{
		versions: map[string]time.Time{"song.xml": time.Unix(100, 0)},
		arr:      &Arrangement{Levels: []Level{{Notes: []Note{{Time: 10}}}}},
	}
	store := NewMapStore()
	cache := NewCache(source, store)

	first, err := cache.Load("song.xml")
	require.NoError(t, err)
	second, err := cache.Load("song.xml")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, source.loads)

	source.versions["song.xml"] = time.Unix(300, 0)
	third, err := cache.Load("song.xml")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, source.loads)

	stored, ok := store.Get("song.xml")
	assert.True(t, ok)
	assert.Same(t, third, stored)
}

func TestCacheLoadPropagatesExtractErrors(t *testing.T) {
	source := &fakeSource{arr: &Arrangement{}}
	cache := NewCache(source, nil)

	_, err := cache.Load("empty.xml")
	assert.ErrorIs(t, err, ErrNoLevels)

	_, ok := cache.Get("empty.xml", time.Time{})
	assert.False(t, ok, "failed extraction must not be cached")
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lead.xml")
	require.NoError(t, os.WriteFile(path, []byte(testArrangementXML), 0644))

	modTime := time.Date(2023, 5, 6, 7, 8, 9, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, modTime, modTime))

	var source FileSource
	version, err := source.Version(path)
	require.NoError(t, err)
	assert.True(t, modTime.Equal(version))

	arr, err := source.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Test Song", arr.Title)

	_, err = source.Version(filepath.Join(dir, "missing.xml"))
	assert.Error(t, err)
}
