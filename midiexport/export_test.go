package midiexport

import (
	"bytes"
	"path/filepath"
	"reflect"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/leafo/showlights/showlight"
)

func testShowlights() []showlight.Showlight {
	return []showlight.Showlight{
		{Time: 1500, Note: 28},
		{Time: 1500, Note: 52},
		{Time: 2001, Note: 53},
		{Time: 7777, Note: 31},
		{Time: 9000, Note: showlight.BeamOff},
		{Time: 60000, Note: showlight.LasersOn},
		{Time: 90000, Note: showlight.LasersOff},
		{Time: 95100, Note: showlight.FogMax},
	}
}

func exportToBytes(t *testing.T, showlights []showlight.Showlight) []byte {
	t.Helper()

	exporter := NewExporter()
	if err := exporter.AddShowlights(showlights); err != nil {
		t.Fatalf("AddShowlights failed: %v", err)
	}

	var buf bytes.Buffer
	if err := exporter.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	return buf.Bytes()
}

func TestExportTracks(t *testing.T) {
	data := exportToBytes(t, testShowlights())

	smfFile, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to read exported MIDI: %v", err)
	}

	// Tempo track plus fog, beam and laser
	if len(smfFile.Tracks) != 4 {
		t.Fatalf("Expected 4 tracks, got %d", len(smfFile.Tracks))
	}

	ticks, ok := smfFile.TimeFormat.(smf.MetricTicks)
	if !ok || ticks.Resolution() != TicksPerQuarter {
		t.Errorf("Expected %d ticks per quarter, got %v", TicksPerQuarter, smfFile.TimeFormat)
	}

	expectedNames := []string{"Tempo", "Fog", "Beam", "Laser"}
	for i, track := range smfFile.Tracks {
		var name string
		if len(track) == 0 || !track[0].Message.GetMetaTrackName(&name) {
			t.Errorf("Track %d has no name", i)
			continue
		}
		if name != expectedNames[i] {
			t.Errorf("Track %d: expected name %q, got %q", i, expectedNames[i], name)
		}
	}

	// Fog track: two cues plus the closing one, each with an on and an off
	var noteOns, noteOffs int
	for _, event := range smfFile.Tracks[1] {
		var ch, key, vel uint8
		if event.Message.GetNoteOn(&ch, &key, &vel) {
			noteOns++
			if ch != 0 {
				t.Errorf("Fog note on channel %d", ch)
			}
		}
		if event.Message.GetNoteOff(&ch, &key, &vel) {
			noteOffs++
		}
	}
	if noteOns != 3 || noteOffs != 3 {
		t.Errorf("Expected 3 note ons and offs on the fog track, got %d and %d", noteOns, noteOffs)
	}
}

func TestNoteOffBeforeNextNoteOn(t *testing.T) {
	track := createMidiTrack(trackInfo{
		Name:    "Beam",
		Channel: 1,
		Events: []midiEvent{
			{Time: 100, Message: smf.Message(midi.NoteOn(1, 50, 100))},
			{Time: 0, Message: smf.Message(midi.NoteOn(1, 48, 100))},
			{Time: 100, Message: smf.Message(midi.NoteOff(1, 48))},
			{Time: 200, Message: smf.Message(midi.NoteOff(1, 50))},
		},
	})

	// name, 4 notes, end of track
	if len(track) != 6 {
		t.Fatalf("Expected 6 events, got %d", len(track))
	}

	var ch, key, vel uint8
	if !track[2].Message.GetNoteOff(&ch, &key, &vel) || key != 48 {
		t.Errorf("Expected note off 48 first at tick 100, got %v", track[2].Message)
	}
	if !track[3].Message.GetNoteOn(&ch, &key, &vel) || key != 50 || track[3].Delta != 0 {
		t.Errorf("Expected note on 50 right after, got %v (delta %d)", track[3].Message, track[3].Delta)
	}
	if track[4].Delta != 100 {
		t.Errorf("Expected delta 100 before final note off, got %d", track[4].Delta)
	}
}

func TestSameTimeCuesKeepLast(t *testing.T) {
	data := exportToBytes(t, []showlight.Showlight{
		{Time: 500, Note: 48},
		{Time: 1000, Note: 50},
		{Time: 1000, Note: showlight.BeamOff},
	})

	smfFile, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to read exported MIDI: %v", err)
	}

	// Every note on is closed by a later note off of the same key
	open := map[uint8]int{}
	var keys []uint8
	for _, event := range smfFile.Tracks[1] {
		var ch, key, vel uint8
		switch {
		case event.Message.GetNoteOn(&ch, &key, &vel):
			open[key]++
			keys = append(keys, key)
		case event.Message.GetNoteOff(&ch, &key, &vel):
			if open[key] == 0 {
				t.Errorf("Note off %d without a note on", key)
				continue
			}
			open[key]--
		}
	}
	for key, count := range open {
		if count != 0 {
			t.Errorf("Note %d left on", key)
		}
	}

	expected := []uint8{48, showlight.BeamOff}
	if !reflect.DeepEqual(keys, expected) {
		t.Errorf("Expected note ons %v, got %v", expected, keys)
	}

	cues, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	expectedCues := []showlight.Showlight{{Time: 500, Note: 48}, {Time: 1000, Note: showlight.BeamOff}}
	if !reflect.DeepEqual(cues, expectedCues) {
		t.Errorf("Expected %v, got %v", expectedCues, cues)
	}
}

func TestExportThenRead(t *testing.T) {
	original := testShowlights()
	data := exportToBytes(t, original)

	cues, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	expected := make([]showlight.Showlight, len(original))
	copy(expected, original)
	showlight.SortByTime(expected)

	if !reflect.DeepEqual(cues, expected) {
		t.Errorf("Round trip mismatch:\nexpected %v\ngot      %v", expected, cues)
	}
}

func TestMsToTicks(t *testing.T) {
	tests := []struct {
		ms    int
		ticks uint32
	}{
		{0, 0},
		{1, 2},
		{500, 960},
		{1000, 1920},
		{-20, 0},
	}

	for _, tt := range tests {
		if got := msToTicks(tt.ms); got != tt.ticks {
			t.Errorf("msToTicks(%d) = %d, expected %d", tt.ms, got, tt.ticks)
		}
	}
}

func TestTempoMapAcrossTempoChanges(t *testing.T) {
	m := &tempoMap{
		resolution: 480,
		events: []tempoEvent{
			{Time: 0, BPM: 120},
			{Time: 960, BPM: 60},
		},
	}

	tests := []struct {
		tick uint32
		ms   int
	}{
		{0, 0},
		{480, 500},
		{960, 1000},
		{1440, 2000},
	}

	for _, tt := range tests {
		if got := m.milliseconds(tt.tick); got != tt.ms {
			t.Errorf("milliseconds(%d) = %d, expected %d", tt.tick, got, tt.ms)
		}
	}
}

func TestExportRejectsEmpty(t *testing.T) {
	if err := NewExporter().AddShowlights(nil); err == nil {
		t.Error("Expected error for no showlights")
	}

	if err := NewExporter().AddShowlights([]showlight.Showlight{{Time: 0, Note: 10}}); err == nil {
		t.Error("Expected error when no cue has a known note")
	}

	var buf bytes.Buffer
	if err := NewExporter().WriteTo(&buf); err == nil {
		t.Error("Expected error writing without tracks")
	}
}

func TestWriteFileThenReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "showlights.mid")
	if err := WriteFile(path, testShowlights()); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cues, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(cues) != len(testShowlights()) {
		t.Errorf("Expected %d cues, got %d", len(testShowlights()), len(cues))
	}
}
