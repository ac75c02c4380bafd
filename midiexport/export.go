// Package midiexport writes showlight cues to a Standard MIDI File so they can
// be auditioned in a DAW or sent to a lighting desk, and reads them back.
//
// Each channel gets its own track and MIDI channel. A cue becomes a note with
// the cue's code as the key, held until the next cue of the same channel.
package midiexport

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/leafo/showlights/showlight"
)

const (
	// TicksPerQuarter gives just under 2 ticks per millisecond at the export tempo
	TicksPerQuarter = 960
	ExportBPM       = 120.0

	velocity = 100
	// lastCueTicks is how long the final cue of a track is held
	lastCueTicks = TicksPerQuarter
)

// midiEvent is a MIDI message at an absolute tick
type midiEvent struct {
	Time    uint32
	Message smf.Message
}

// trackInfo holds everything needed to build one channel's track
type trackInfo struct {
	Name    string
	Channel uint8
	Events  []midiEvent
}

var channelTracks = []struct {
	Type    showlight.Type
	Channel uint8
}{
	{showlight.Fog, 0},
	{showlight.Beam, 1},
	{showlight.Laser, 2},
}

// Exporter builds a MIDI file out of showlight cues
type Exporter struct {
	smf    *smf.SMF
	tracks []trackInfo
}

func NewExporter() *Exporter {
	file := smf.NewSMF1()
	file.TimeFormat = smf.MetricTicks(TicksPerQuarter)
	return &Exporter{smf: file}
}

// msToTicks converts milliseconds to ticks at the export tempo, rounding to
// the nearest tick
func msToTicks(ms int) uint32 {
	if ms < 0 {
		return 0
	}
	ticksPerMinute := int64(TicksPerQuarter) * int64(ExportBPM)
	return uint32((int64(ms)*ticksPerMinute + 30000) / 60000)
}

// AddShowlights adds one track per channel that has cues. Cues with an
// unknown code are skipped.
func (e *Exporter) AddShowlights(showlights []showlight.Showlight) error {
	if len(showlights) == 0 {
		return fmt.Errorf("no showlights to export")
	}

	for _, ct := range channelTracks {
		cues := showlight.OfType(showlights, ct.Type)
		if len(cues) == 0 {
			continue
		}
		showlight.SortByTime(cues)

		var events []midiEvent
		for i, cue := range cues {
			if cue.Time < 0 {
				log.Printf("Warning: cue at negative time %d exported at 0", cue.Time)
			}

			start := msToTicks(cue.Time)
			end := start + lastCueTicks
			if i+1 < len(cues) {
				end = msToTicks(cues[i+1].Time)
			}

			// A later cue at the same tick replaces this one
			if end == start && i+1 < len(cues) {
				continue
			}

			key := uint8(cue.Note)
			events = append(events,
				midiEvent{Time: start, Message: smf.Message(midi.NoteOn(ct.Channel, key, velocity))},
				midiEvent{Time: end, Message: smf.Message(midi.NoteOff(ct.Channel, key))},
			)
		}

		e.tracks = append(e.tracks, trackInfo{
			Name:    ct.Type.String(),
			Channel: ct.Channel,
			Events:  events,
		})
	}

	if len(e.tracks) == 0 {
		return fmt.Errorf("no showlights with a known note to export")
	}
	return nil
}

// WriteTo finalizes the MIDI file and writes it to the provided writer
func (e *Exporter) WriteTo(writer io.Writer) error {
	if len(e.tracks) == 0 {
		return fmt.Errorf("no tracks to export")
	}

	e.smf.Add(tempoTrack())
	for _, info := range e.tracks {
		e.smf.Add(createMidiTrack(info))
	}

	if _, err := e.smf.WriteTo(writer); err != nil {
		return fmt.Errorf("error writing MIDI file: %w", err)
	}
	return nil
}

// WriteFile exports showlights to a MIDI file
func WriteFile(filename string, showlights []showlight.Showlight) error {
	exporter := NewExporter()
	if err := exporter.AddShowlights(showlights); err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("error creating MIDI file: %w", err)
	}
	defer file.Close()

	return exporter.WriteTo(file)
}

func tempoTrack() smf.Track {
	track := smf.Track{}
	track = append(track, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTrackSequenceName("Tempo"))})
	track = append(track, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTempo(ExportBPM))})
	track = append(track, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTimeSig(4, 4, 24, 8))})
	track = append(track, smf.Event{Delta: 0, Message: smf.EOT})
	return track
}

// createMidiTrack builds a complete MIDI track from trackInfo
func createMidiTrack(info trackInfo) smf.Track {
	track := smf.Track{}
	track = append(track, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTrackSequenceName(info.Name))})

	events := make([]midiEvent, len(info.Events))
	copy(events, info.Events)
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Time == events[j].Time {
			// Note-offs go before note-ons at the same tick
			var ch, key, vel uint8
			return events[i].Message.GetNoteOff(&ch, &key, &vel) && !events[j].Message.GetNoteOff(&ch, &key, &vel)
		}
		return events[i].Time < events[j].Time
	})

	var lastTime uint32
	for _, event := range events {
		track = append(track, smf.Event{Delta: event.Time - lastTime, Message: event.Message})
		lastTime = event.Time
	}

	track = append(track, smf.Event{Delta: 0, Message: smf.EOT})
	return track
}
